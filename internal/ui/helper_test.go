package ui_test

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/llamagallery/internal/helper"
	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/session"
	"github.com/mwiater/llamagallery/internal/ui"
	"github.com/mwiater/llamagallery/internal/ui/uitest"
)

type fakeFacade struct {
	names     []string
	parts     []string
	streamErr error
	reply     string
	chatErr   error
	chatCalls [][]ollama.Message
	pulls     []ollama.ProgressResponse
	detail    helper.ModelDetail
}

func (f *fakeFacade) ModelNames(context.Context) []string { return f.names }
func (f *fakeFacade) ListModels(context.Context) []helper.ModelInfo {
	out := []helper.ModelInfo{}
	for _, n := range f.names {
		out = append(out, helper.ModelInfo{Name: n, SizeMB: 1.5})
	}
	return out
}
func (f *fakeFacade) ListRunningModels(context.Context) []helper.RunningModel {
	return []helper.RunningModel{}
}
func (f *fakeFacade) ShowModel(context.Context, string) helper.ModelDetail { return f.detail }

func (f *fakeFacade) Chat(_ context.Context, _ string, msgs []ollama.Message, _ ollama.Options) (*ollama.ChatResponse, error) {
	f.chatCalls = append(f.chatCalls, msgs)
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return &ollama.ChatResponse{Message: ollama.Message{Role: "assistant", Content: f.reply}}, nil
}

func (f *fakeFacade) ChatStream(context.Context, string, []ollama.Message, ollama.Options) iter.Seq2[ollama.ChatResponse, error] {
	return func(yield func(ollama.ChatResponse, error) bool) {
		for _, p := range f.parts {
			if !yield(ollama.ChatResponse{Message: ollama.Message{Content: p}}, nil) {
				return
			}
		}
		if f.streamErr != nil {
			yield(ollama.ChatResponse{}, f.streamErr)
		}
	}
}

func (f *fakeFacade) Generate(context.Context, string, string, []ollama.ImageData, ollama.Options) (*ollama.GenerateResponse, error) {
	return &ollama.GenerateResponse{Response: f.reply}, nil
}

func (f *fakeFacade) GenerateStream(context.Context, string, string, []ollama.ImageData, ollama.Options) iter.Seq2[ollama.GenerateResponse, error] {
	return func(yield func(ollama.GenerateResponse, error) bool) {
		for _, p := range f.parts {
			if !yield(ollama.GenerateResponse{Response: p}, nil) {
				return
			}
		}
	}
}

func (f *fakeFacade) PullModel(context.Context, string) iter.Seq2[ollama.ProgressResponse, error] {
	return func(yield func(ollama.ProgressResponse, error) bool) {
		for _, p := range f.pulls {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func newHelper(f *fakeFacade) *ui.Helper {
	return ui.New(f, session.NewState("test"), []string{"gemma3", "llama3.2", "llama3.1", "qwen2.5"})
}

func TestDefaultIndex(t *testing.T) {
	candidates := []string{"gemma3", "llama3.2", "qwen2.5"}
	assert.Equal(t, 2, ui.DefaultIndex(candidates, "qwen2.5"))
	assert.Equal(t, 0, ui.DefaultIndex(candidates, "deleted-model"))
	assert.Equal(t, 0, ui.DefaultIndex(candidates, ""))
	assert.Equal(t, 0, ui.DefaultIndex(nil, "gemma3"))
}

func TestSelectModelPrefersInstalledAndPersists(t *testing.T) {
	h := newHelper(&fakeFacade{names: []string{"gemma3:latest", "llama3.2:1b"}})
	s := uitest.New()

	got := h.SelectModel(context.Background(), s, ui.SelectorOptions{Key: "chat_model"})
	assert.Equal(t, "gemma3:latest", got)
	assert.Equal(t, "gemma3:latest", h.State().String("chat_model"))

	h.State().Set("chat_model", "llama3.2:1b")
	got = h.SelectModel(context.Background(), uitest.New(), ui.SelectorOptions{Key: "chat_model"})
	assert.Equal(t, "llama3.2:1b", got)
}

func TestSelectModelFallsBackWhenNothingInstalled(t *testing.T) {
	h := newHelper(&fakeFacade{})
	s := uitest.New()

	got := h.SelectModel(context.Background(), s, ui.SelectorOptions{})
	assert.Equal(t, "gemma3", got)
	call, ok := s.Find("select", "model")
	require.True(t, ok)
	assert.Equal(t, "Select Model", call.Label)
	assert.Equal(t, []string{"gemma3", "llama3.2", "llama3.1", "qwen2.5"}, call.Value)

	got = h.SelectModel(context.Background(), uitest.New(), ui.SelectorOptions{Key: "vision", Fallback: []string{"llava"}})
	assert.Equal(t, "llava", got)
}

func TestSettingsKeysMatchFlags(t *testing.T) {
	h := newHelper(&fakeFacade{})
	cases := []struct {
		flags ui.SettingsFlags
		keys  []string
	}{
		{ui.SettingsFlags{}, nil},
		{ui.DefaultSettings, []string{"num_predict", "temperature"}},
		{ui.SettingsFlags{TopP: true, TopK: true}, []string{"top_k", "top_p"}},
		{ui.SettingsFlags{Temperature: true, MaxTokens: true, TopP: true, TopK: true}, []string{"num_predict", "temperature", "top_k", "top_p"}},
	}
	for _, tc := range cases {
		opts := h.Settings(uitest.New(), "gen", tc.flags)
		var keys []string
		for k := range opts {
			keys = append(keys, k)
		}
		assert.ElementsMatch(t, tc.keys, keys)
	}

	opts := h.Settings(uitest.New(), "", ui.SettingsFlags{Temperature: true, TopK: true})
	assert.Equal(t, 0.7, opts["temperature"])
	assert.Equal(t, 40, opts["top_k"])

	s := uitest.New().Set("gen_temperature", 1.3)
	opts = h.Settings(s, "gen", ui.DefaultSettings)
	assert.Equal(t, 1.3, opts["temperature"])
	assert.Equal(t, []string{"gen_temperature", "gen_max_tokens"}, s.Keys("slider"))
}

func TestRunChatStreamsWithCursor(t *testing.T) {
	h := newHelper(&fakeFacade{parts: []string{"Hel", "lo", "!"}})
	s := uitest.New()

	text, err := h.RunChat(context.Background(), s, "gemma3", []ollama.Message{{Role: "user", Content: "hi"}}, ui.RunOptions{Stream: true})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", text)
	require.Len(t, s.Placeholders, 1)
	assert.Equal(t, []string{"Hel▌", "Hello▌", "Hello!▌", "Hello!"}, s.Placeholders[0].Renders)
}

func TestRunChatStreamErrorPropagates(t *testing.T) {
	boom := errors.New("model not found")
	h := newHelper(&fakeFacade{parts: []string{"par"}, streamErr: boom})
	s := uitest.New()

	text, err := h.RunChat(context.Background(), s, "ghost", nil, ui.RunOptions{Stream: true})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "par", text)
	assert.Equal(t, "par", s.Placeholders[0].Last())
}

func TestRunGenerateBlocking(t *testing.T) {
	h := newHelper(&fakeFacade{reply: "The sky scatters blue light."})
	s := uitest.New()

	text, err := h.RunGenerate(context.Background(), s, "gemma3", "Why is the sky blue?", ui.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "The sky scatters blue light.", text)
	assert.Equal(t, []string{"The sky scatters blue light."}, s.Texts("markdown"))
}

func TestChatWithHistoryAndClear(t *testing.T) {
	f := &fakeFacade{reply: "Hello"}
	h := newHelper(f)
	ctx := context.Background()

	require.NoError(t, h.ChatWithHistory(ctx, uitest.New(), "gemma3", "history", nil, nil))
	assert.Empty(t, h.State().Messages("history"))
	assert.Empty(t, f.chatCalls)

	s := uitest.New().Set("history_input", "Hi")
	require.NoError(t, h.ChatWithHistory(ctx, s, "gemma3", "history", nil, nil))
	assert.Equal(t, []ollama.Message{
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hello"},
	}, h.State().Messages("history"))
	require.Len(t, f.chatCalls, 1)
	assert.Equal(t, []ollama.Message{{Role: "user", Content: "Hi"}}, f.chatCalls[0])
	assert.Equal(t, []string{"Thinking..."}, s.Texts("status"))

	// The next run replays the stored turns before the input widget.
	s = uitest.New()
	require.NoError(t, h.ChatWithHistory(ctx, s, "gemma3", "history", nil, nil))
	assert.Equal(t, []string{"Hi", "Hello"}, s.Texts("chat_message"))

	h.ClearChatHistory("history")
	assert.Empty(t, h.State().Messages("history"))
	assert.True(t, h.State().Has("history"))
}

func TestChatWithHistorySeedsInitialMessages(t *testing.T) {
	f := &fakeFacade{reply: "Arr"}
	h := newHelper(f)
	system := []ollama.Message{{Role: "system", Content: "You are a pirate."}}

	s := uitest.New().Set("pirate_input", "Hello")
	require.NoError(t, h.ChatWithHistory(context.Background(), s, "gemma3", "pirate", system, nil))
	require.Len(t, f.chatCalls, 1)
	assert.Equal(t, "system", f.chatCalls[0][0].Role)
	assert.Len(t, h.State().Messages("pirate"), 3)
}

func TestChatWithHistoryErrorKeepsUserTurn(t *testing.T) {
	f := &fakeFacade{chatErr: errors.New("connection refused")}
	h := newHelper(f)

	s := uitest.New().Set("messages_input", "Hi")
	err := h.ChatWithHistory(context.Background(), s, "gemma3", "", nil, nil)
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, []ollama.Message{{Role: "user", Content: "Hi"}}, h.State().Messages("messages"))
}

func TestModelInfoRendersNAForMissingDetails(t *testing.T) {
	h := newHelper(&fakeFacade{detail: helper.ModelDetail{Name: "gemma3", Details: &helper.Details{Family: "gemma3"}}})
	s := uitest.New()
	h.ModelInfo(context.Background(), s, "gemma3")
	assert.Equal(t, []string{
		"**Family:** gemma3",
		"**Format:** N/A",
		"**Parameters:** N/A",
		"**Quantization:** N/A",
	}, s.Texts("markdown"))

	h = newHelper(&fakeFacade{detail: helper.ModelDetail{Error: "not found"}})
	s = uitest.New()
	h.ModelInfo(context.Background(), s, "ghost")
	assert.Equal(t, []string{"Error: not found"}, s.Texts("error"))
}

func TestPullModelAggregatesProgress(t *testing.T) {
	f := &fakeFacade{pulls: []ollama.ProgressResponse{
		{Status: "pulling manifest"},
		{Status: "pulling a", Digest: "a", Total: 100, Completed: 50},
		{Status: "pulling b", Digest: "b", Total: 100, Completed: 0},
		{Status: "pulling a", Digest: "a", Total: 100, Completed: 100},
		{Status: "success"},
	}}
	h := newHelper(f)
	s := uitest.New().Set("pull_model_name", "qwen2.5").Press("pull_btn")

	h.PullModel(context.Background(), s)
	require.Len(t, s.Bars, 1)
	assert.Equal(t, []float64{0.5, 0.25, 0.5, 1}, s.Bars[0].Values)
	assert.Equal(t, "success", s.Placeholders[0].Last())
	assert.Equal(t, []string{"Successfully pulled qwen2.5"}, s.Texts("success"))
}

func TestModelListEmptyWarns(t *testing.T) {
	h := newHelper(&fakeFacade{})
	s := uitest.New()
	h.ModelList(context.Background(), s)
	assert.Equal(t, []string{"No models installed"}, s.Texts("warning"))
}
