package helper

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/llamagallery/internal/ollama"
)

// fakeHost implements HostClient; methods a test does not override panic through the nil
// embedded interface.
type fakeHost struct {
	HostClient

	models   []ollama.ListModelResponse
	listErr  error
	running  []ollama.ProcessModelResponse
	psErr    error
	pulls    atomic.Int32
	pullSeq  []ollama.ProgressResponse
	pullErr  error
	chatReq  *ollama.ChatRequest
	genReq   *ollama.GenerateRequest
	embedReq *ollama.EmbedRequest
	showErr  error
	delErr   error
}

func (f *fakeHost) List(context.Context) (*ollama.ListResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &ollama.ListResponse{Models: f.models}, nil
}

func (f *fakeHost) ListRunning(context.Context) (*ollama.ProcessResponse, error) {
	if f.psErr != nil {
		return nil, f.psErr
	}
	return &ollama.ProcessResponse{Models: f.running}, nil
}

func (f *fakeHost) PullStream(context.Context, *ollama.PullRequest) iter.Seq2[ollama.ProgressResponse, error] {
	f.pulls.Add(1)
	return func(yield func(ollama.ProgressResponse, error) bool) {
		for _, p := range f.pullSeq {
			if !yield(p, nil) {
				return
			}
		}
		if f.pullErr != nil {
			yield(ollama.ProgressResponse{}, f.pullErr)
		}
	}
}

func (f *fakeHost) Chat(_ context.Context, req *ollama.ChatRequest) (*ollama.ChatResponse, error) {
	f.chatReq = req
	return &ollama.ChatResponse{Message: ollama.Message{Role: "assistant", Content: "pong"}, Done: true}, nil
}

func (f *fakeHost) Generate(_ context.Context, req *ollama.GenerateRequest) (*ollama.GenerateResponse, error) {
	f.genReq = req
	return &ollama.GenerateResponse{Response: "generated", Done: true}, nil
}

func (f *fakeHost) Embed(_ context.Context, req *ollama.EmbedRequest) (*ollama.EmbedResponse, error) {
	f.embedReq = req
	return &ollama.EmbedResponse{Embeddings: [][]float32{{1, 0}}}, nil
}

func (f *fakeHost) Show(_ context.Context, req *ollama.ShowRequest) (*ollama.ShowResponse, error) {
	if f.showErr != nil {
		return nil, f.showErr
	}
	return &ollama.ShowResponse{
		Template: "{{ .Prompt }}",
		Details:  ollama.ModelDetails{Family: "gemma3", Format: "gguf", ParameterSize: "4.3B", QuantizationLevel: "Q4_K_M"},
	}, nil
}

func (f *fakeHost) Delete(context.Context, *ollama.DeleteRequest) error { return f.delErr }
func (f *fakeHost) Copy(context.Context, *ollama.CopyRequest) error     { return nil }

func installed(names ...string) []ollama.ListModelResponse {
	out := make([]ollama.ListModelResponse, 0, len(names))
	for _, n := range names {
		out = append(out, ollama.ListModelResponse{Name: n, Model: n, Size: 3_338_801_804})
	}
	return out
}

func TestListModelsShapesEntries(t *testing.T) {
	host := &fakeHost{models: []ollama.ListModelResponse{{
		Model:      "gemma3:latest",
		Size:       3_338_801_804,
		ModifiedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Details:    &ollama.ModelDetails{Family: "gemma3", QuantizationLevel: "Q4_K_M"},
	}}}
	models := New(host).ListModels(context.Background())

	require.Len(t, models, 1)
	assert.Equal(t, "gemma3:latest", models[0].Name)
	assert.Equal(t, "gemma3", models[0].NameShort)
	assert.Equal(t, 3184.13, models[0].SizeMB)
	require.NotNil(t, models[0].Details)
	assert.Equal(t, "Q4_K_M", models[0].Details.QuantizationLevel)
}

func TestListingFailuresDegradeToEmpty(t *testing.T) {
	host := &fakeHost{listErr: errors.New("connection refused"), psErr: errors.New("connection refused")}
	h := New(host)
	ctx := context.Background()

	models := h.ListModels(ctx)
	assert.NotNil(t, models)
	assert.Empty(t, models)
	assert.Empty(t, h.ModelNames(ctx))
	running := h.ListRunningModels(ctx)
	assert.NotNil(t, running)
	assert.Empty(t, running)

	_, err := h.Models(ctx)
	assert.ErrorContains(t, err, "connection refused")
	assert.False(t, h.IsModelInstalled(ctx, "gemma3"))
}

func TestIsModelInstalledIsExactMembership(t *testing.T) {
	h := New(&fakeHost{models: installed("gemma3:latest", "llama3.2:1b")})
	ctx := context.Background()

	assert.True(t, h.IsModelInstalled(ctx, "llama3.2:1b"))
	assert.False(t, h.IsModelInstalled(ctx, "llama3.2"))
	assert.False(t, h.IsModelInstalled(ctx, "gemma3"))

	size, ok := h.ModelSize(ctx, "gemma3:latest")
	assert.True(t, ok)
	assert.Equal(t, 3184.13, size)
	_, ok = h.ModelSize(ctx, "missing")
	assert.False(t, ok)
}

func TestRunningModelsConvertSizes(t *testing.T) {
	h := New(&fakeHost{running: []ollama.ProcessModelResponse{{Name: "gemma3:latest", Size: 2 * 1024 * 1024, SizeVRAM: 1024 * 1024, ContextLength: 4096}}})
	running := h.ListRunningModels(context.Background())

	require.Len(t, running, 1)
	assert.Equal(t, 2.0, running[0].SizeMB)
	assert.Equal(t, 1.0, running[0].SizeVRAMMB)
	assert.Equal(t, 4096, running[0].ContextLength)
}

func TestEnsureModelSkipsPullWhenInstalled(t *testing.T) {
	host := &fakeHost{models: installed("gemma3:latest")}
	ok := New(host).EnsureModel(context.Background(), "gemma3:latest")

	assert.True(t, ok)
	assert.Equal(t, int32(0), host.pulls.Load())
}

func TestEnsureModelDrainsPull(t *testing.T) {
	host := &fakeHost{pullSeq: []ollama.ProgressResponse{
		{Status: "pulling manifest"},
		{Status: "pulling abc", Digest: "sha256:abc", Total: 10, Completed: 5},
		{Status: "success"},
	}}
	assert.True(t, New(host).EnsureModel(context.Background(), "qwen2.5"))
	assert.Equal(t, int32(1), host.pulls.Load())

	failing := &fakeHost{pullSeq: []ollama.ProgressResponse{{Status: "pulling manifest"}}, pullErr: errors.New("manifest unknown")}
	assert.False(t, New(failing).EnsureModel(context.Background(), "ghost"))
}

func TestMutationsReturnResults(t *testing.T) {
	ctx := context.Background()
	h := New(&fakeHost{})

	res := h.DeleteModel(ctx, "old")
	assert.Equal(t, Result{Success: true, Message: "Model old deleted"}, res)
	res = h.CopyModel(ctx, "gemma3", "gemma3-backup")
	assert.Equal(t, "Model copied from gemma3 to gemma3-backup", res.Message)

	failing := New(&fakeHost{delErr: errors.New("model not found")})
	res = failing.DeleteModel(ctx, "ghost")
	assert.False(t, res.Success)
	assert.Equal(t, "model not found", res.Error)
}

func TestShowModel(t *testing.T) {
	ctx := context.Background()
	detail := New(&fakeHost{}).ShowModel(ctx, "gemma3")
	assert.False(t, detail.HasError())
	require.NotNil(t, detail.Details)
	assert.Equal(t, "4.3B", detail.Details.ParameterSize)

	detail = New(&fakeHost{showErr: errors.New("not found")}).ShowModel(ctx, "ghost")
	assert.True(t, detail.HasError())
	assert.Equal(t, ModelDetail{Error: "not found"}, detail)
}

func TestGenerationForwardsOptionsOnlyWhenSet(t *testing.T) {
	host := &fakeHost{}
	h := New(host)
	ctx := context.Background()

	_, err := h.Chat(ctx, "gemma3", []ollama.Message{{Role: "user", Content: "ping"}}, nil)
	require.NoError(t, err)
	assert.Nil(t, host.chatReq.Options)

	_, err = h.Generate(ctx, "gemma3", "Why?", nil, ollama.Options{"temperature": 0.7})
	require.NoError(t, err)
	assert.Equal(t, 0.7, host.genReq.Options["temperature"])
	assert.Nil(t, host.genReq.Images)

	_, err = h.Embed(ctx, "nomic-embed-text", "one")
	require.NoError(t, err)
	assert.Equal(t, "one", host.embedReq.Input)
	_, err = h.Embed(ctx, "nomic-embed-text", "one", "two")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, host.embedReq.Input)
}

func TestAsyncFormsResolve(t *testing.T) {
	h := New(&fakeHost{})
	ctx := context.Background()

	pending := h.ChatAsync(ctx, "gemma3", []ollama.Message{{Role: "user", Content: "ping"}}, nil)
	<-pending.Done()
	resp, err := pending.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Message.Content)

	gen, err := h.GenerateAsync(ctx, "gemma3", "Why?", nil).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "generated", gen.Response)
}

func TestPendingWaitHonoursContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	p := Go(context.Background(), func(context.Context) (int, error) {
		<-block
		return 1, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
