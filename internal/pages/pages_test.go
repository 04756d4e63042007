package pages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/llamagallery/internal/appconfig"
	"github.com/mwiater/llamagallery/internal/helper"
	"github.com/mwiater/llamagallery/internal/nav"
	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/session"
	"github.com/mwiater/llamagallery/internal/ui"
	"github.com/mwiater/llamagallery/internal/ui/uitest"
)

// fakeHost scripts the model host. Methods a test does not reach panic through the nil
// embedded interface.
type fakeHost struct {
	helper.HostClient

	mu        sync.Mutex
	installed []string
	chat      func(req *ollama.ChatRequest) (*ollama.ChatResponse, error)
	stream    func(req *ollama.ChatRequest) []ollama.ChatResponse
	generate  func(req *ollama.GenerateRequest) []ollama.GenerateResponse
	embed     func(input string) []float32
	search    *ollama.WebSearchResponse

	chatReqs []*ollama.ChatRequest
	genReqs  []*ollama.GenerateRequest
	searches []string
}

func (f *fakeHost) List(context.Context) (*ollama.ListResponse, error) {
	resp := &ollama.ListResponse{}
	for _, name := range f.installed {
		resp.Models = append(resp.Models, ollama.ListModelResponse{Name: name, Model: name})
	}
	return resp, nil
}

func (f *fakeHost) record(req *ollama.ChatRequest) {
	cp := *req
	cp.Messages = append([]ollama.Message(nil), req.Messages...)
	f.mu.Lock()
	f.chatReqs = append(f.chatReqs, &cp)
	f.mu.Unlock()
}

func (f *fakeHost) requests() []*ollama.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*ollama.ChatRequest(nil), f.chatReqs...)
}

func (f *fakeHost) Chat(_ context.Context, req *ollama.ChatRequest) (*ollama.ChatResponse, error) {
	f.record(req)
	if f.chat == nil {
		return &ollama.ChatResponse{Message: ollama.Message{Role: "assistant", Content: "pong"}, Done: true}, nil
	}
	return f.chat(req)
}

func (f *fakeHost) ChatStream(_ context.Context, req *ollama.ChatRequest) iter.Seq2[ollama.ChatResponse, error] {
	f.record(req)
	parts := f.stream(req)
	return func(yield func(ollama.ChatResponse, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (f *fakeHost) GenerateStream(_ context.Context, req *ollama.GenerateRequest) iter.Seq2[ollama.GenerateResponse, error] {
	f.mu.Lock()
	f.genReqs = append(f.genReqs, req)
	f.mu.Unlock()
	parts := f.generate(req)
	return func(yield func(ollama.GenerateResponse, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (f *fakeHost) Embed(_ context.Context, req *ollama.EmbedRequest) (*ollama.EmbedResponse, error) {
	var inputs []string
	switch in := req.Input.(type) {
	case string:
		inputs = []string{in}
	case []string:
		inputs = in
	default:
		return nil, fmt.Errorf("unexpected embed input %T", req.Input)
	}
	resp := &ollama.EmbedResponse{}
	for _, in := range inputs {
		resp.Embeddings = append(resp.Embeddings, f.embed(in))
	}
	return resp, nil
}

func (f *fakeHost) WebSearch(_ context.Context, req *ollama.WebSearchRequest) (*ollama.WebSearchResponse, error) {
	f.mu.Lock()
	f.searches = append(f.searches, req.Query)
	f.mu.Unlock()
	return f.search, nil
}

func newRunner(t *testing.T, host *fakeHost) *Runner {
	t.Helper()
	cfg := appconfig.Config{FallbackModels: []string{"gemma3"}}
	r, err := NewRunner(helper.New(host), cfg)
	require.NoError(t, err)
	r.Rand = rand.New(rand.NewPCG(1, 2))
	r.Capper = nil
	return r
}

func run(t *testing.T, r *Runner, rec *uitest.Recorder, id string) error {
	t.Helper()
	entry, _, ok := nav.Find(r.Sections(), id)
	require.True(t, ok, "no menu entry for %s", id)
	return r.Run(context.Background(), rec, session.NewStore().New(), entry)
}

func toolCall(name string, args map[string]any) ollama.ToolCall {
	return ollama.ToolCall{Function: ollama.ToolCallFunction{Name: name, Arguments: ollama.ToolArguments(args)}}
}

func assistant(content string, calls ...ollama.ToolCall) *ollama.ChatResponse {
	return &ollama.ChatResponse{Message: ollama.Message{Role: "assistant", Content: content, ToolCalls: calls}, Done: true}
}

func TestNewRunnerBindsEveryListing(t *testing.T) {
	r := newRunner(t, &fakeHost{})

	n := 0
	for _, sec := range r.Sections() {
		for _, entry := range sec.Entries {
			p, ok := r.Page(entry.ID)
			require.True(t, ok, entry.ID)
			assert.NotNil(t, p.Run, entry.ID)
			assert.Equal(t, sec.Name, p.Topic)
			assert.Equal(t, entry.Title, p.Title)
			n++
		}
	}
	assert.Equal(t, len(catalog), n)
	assert.Len(t, r.Sections(), len(nav.Topics))
}

func TestRunRendersHeaderAndSourceTab(t *testing.T) {
	r := newRunner(t, &fakeHost{installed: []string{"gemma3:latest"}})
	rec := uitest.New()
	rec.HideSource = false

	require.NoError(t, run(t, r, rec, "1_chat/01_Chat"))

	assert.Equal(t, []string{"💬 Chat"}, rec.Texts("title"))
	assert.Equal(t, []string{ui.TabDemo, ui.TabSource}, rec.Texts("tab"))
	var listing string
	for _, c := range rec.Calls {
		if c.Kind == "code" && c.Label == "go" {
			listing = c.Text
		}
	}
	assert.Contains(t, listing, "package main")
	assert.Contains(t, listing, "client.Chat(ctx")
}

func TestRunUnknownPage(t *testing.T) {
	r := newRunner(t, &fakeHost{})
	err := r.Run(context.Background(), uitest.New(), session.NewStore().New(), nav.Entry{ID: "7_none/70_Nothing"})
	assert.Error(t, err)
}

func TestChatPageSendsPromptToSelectedModel(t *testing.T) {
	host := &fakeHost{installed: []string{"llama3.2:latest", "gemma3:latest"}}
	r := newRunner(t, host)
	rec := uitest.New().Press("send_btn").Set("user_input", "hello there")

	require.NoError(t, run(t, r, rec, "1_chat/01_Chat"))

	reqs := host.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "llama3.2:latest", reqs[0].Model)
	assert.Equal(t, []ollama.Message{{Role: "user", Content: "hello there"}}, reqs[0].Messages)
	assert.Contains(t, rec.Texts("markdown"), "pong")
	assert.Equal(t, []string{"Response:"}, rec.Texts("success"))
}

func TestButtonsNotPressedSkipTheHost(t *testing.T) {
	host := &fakeHost{}
	r := newRunner(t, host)
	rec := uitest.New()

	require.NoError(t, run(t, r, rec, "2_generate/10_Thinking"))
	assert.Empty(t, host.requests())
}

func TestPageErrorShownOnce(t *testing.T) {
	boom := errors.New("boom")
	host := &fakeHost{chat: func(*ollama.ChatRequest) (*ollama.ChatResponse, error) { return nil, boom }}
	r := newRunner(t, host)
	rec := uitest.New().Press("send_btn")

	err := run(t, r, rec, "1_chat/01_Chat")

	var shown *ui.ShownError
	require.ErrorAs(t, err, &shown)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"Error: boom"}, rec.Texts("error"))
}

func TestFormatLogprobs(t *testing.T) {
	got := FormatLogprobs([]ollama.TokenLogprob{
		{Token: "Paris", Logprob: -0.01, TopLogprobs: []ollama.TokenLogprob{{Token: "Lyon", Logprob: -4.5}}},
		{Token: ".", Logprob: -0.2},
	})
	want := "**Token:** `Paris` | **Logprob:** -0.010\n  → Alt: `Lyon` (logprob: -4.500)\n\n**Token:** `.` | **Logprob:** -0.200"
	assert.Equal(t, want, got)
}

func TestToolsPageAnswersWithToolOutput(t *testing.T) {
	host := &fakeHost{}
	host.chat = func(req *ollama.ChatRequest) (*ollama.ChatResponse, error) {
		if len(req.Tools) > 0 {
			return assistant("", toolCall("add_two_numbers", map[string]any{"a": 3.0, "b": 1.0})), nil
		}
		return assistant("Three plus one is 4."), nil
	}
	r := newRunner(t, host)
	rec := uitest.New().Press("send_btn")

	require.NoError(t, run(t, r, rec, "3_tools/17_Tools"))

	reqs := host.requests()
	require.Len(t, reqs, 2)
	msgs := reqs[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, ollama.Message{Role: "tool", Content: "4", ToolName: "add_two_numbers"}, msgs[2])

	md := rec.Texts("markdown")
	assert.Contains(t, md, "**Function output:** 4")
	assert.Contains(t, md, "Three plus one is 4.")
	assert.Equal(t, []string{"**Final Response:**"}, rec.Texts("success"))
}

func TestToolsPageWithoutCallsWarns(t *testing.T) {
	host := &fakeHost{chat: func(*ollama.ChatRequest) (*ollama.ChatResponse, error) { return assistant("4"), nil }}
	r := newRunner(t, host)
	rec := uitest.New().Press("send_btn")

	require.NoError(t, run(t, r, rec, "3_tools/18_Async_Tools"))
	assert.Equal(t, []string{"No tool calls returned from model"}, rec.Texts("warning"))
	assert.Len(t, host.requests(), 1)
}

func TestGPTOSSToolsCompletes(t *testing.T) {
	host := &fakeHost{}
	host.chat = func(req *ollama.ChatRequest) (*ollama.ChatResponse, error) {
		if len(req.Messages) == 1 {
			return assistant("", toolCall("get_weather", map[string]any{"city": "Paris"})), nil
		}
		return assistant("It is mild in Paris."), nil
	}
	r := newRunner(t, host)
	rec := uitest.New().Press("weather_btn")

	require.NoError(t, run(t, r, rec, "3_tools/20_GPT_OSS_Tools"))

	reqs := host.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, levelsModel, reqs[0].Model)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "get_weather", last.ToolName)
	assert.Contains(t, last.Content, "The temperature in Paris is")
	assert.Equal(t, []string{"✅ Completed - No more tool calls"}, rec.Texts("success"))
}

func TestMultiToolStreamsThinkingAndRunsCalls(t *testing.T) {
	host := &fakeHost{}
	host.stream = func(req *ollama.ChatRequest) []ollama.ChatResponse {
		if len(req.Messages) == 1 {
			return []ollama.ChatResponse{
				{Message: ollama.Message{Thinking: "need two "}},
				{Message: ollama.Message{Thinking: "tools", ToolCalls: []ollama.ToolCall{
					toolCall("get_temperature", map[string]any{"city": "London"}),
					toolCall("get_conditions", map[string]any{"city": "Atlantis"}),
				}}},
			}
		}
		return []ollama.ChatResponse{{Message: ollama.Message{Content: "Done."}}}
	}
	r := newRunner(t, host)
	rec := uitest.New().Press("weather_btn")

	require.NoError(t, run(t, r, rec, "3_tools/19_Multi_Tool"))

	require.NotEmpty(t, rec.Placeholders)
	assert.Equal(t, "### 🤔 Thinking:\n\nneed two tools", rec.Placeholders[0].Last())
	reqs := host.requests()
	require.Len(t, reqs, 2)
	msgs := reqs[1].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "get_temperature", msgs[2].ToolName)
	assert.Equal(t, "get_conditions", msgs[3].ToolName)
	assert.Equal(t, "Unknown city", msgs[3].Content)
	assert.Contains(t, rec.Texts("markdown"), "Done.")
}

func TestStats(t *testing.T) {
	st := Stats([]float32{3, 4})
	assert.Equal(t, 2, st.Dimension)
	assert.InDelta(t, 3, st.First, 1e-9)
	assert.InDelta(t, 4, st.Last, 1e-9)
	assert.InDelta(t, 3.5, st.Mean, 1e-9)
	assert.InDelta(t, 0.5, st.StdDev, 1e-9)
	assert.InDelta(t, 5, st.L2, 1e-9)
	assert.Equal(t, VectorStats{}, Stats(nil))
}

func TestCosineAndClassify(t *testing.T) {
	assert.InDelta(t, 1, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 2}))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 2}))

	assert.Equal(t, VerySimilar, Classify(0.81))
	assert.Equal(t, ModeratelySimilar, Classify(0.8))
	assert.Equal(t, ModeratelySimilar, Classify(0.51))
	assert.Equal(t, Different, Classify(0.5))
}

func TestEmbedPageComparesTexts(t *testing.T) {
	host := &fakeHost{embed: func(in string) []float32 {
		if in == "I love programming" {
			return []float32{1, 0}
		}
		return []float32{1, 1}
	}}
	r := newRunner(t, host)
	rec := uitest.New().Press("compare_btn")

	require.NoError(t, run(t, r, rec, "4_utilities/30_Embed"))

	c, ok := rec.Find("metric", "")
	require.True(t, ok)
	assert.Equal(t, "Cosine Similarity", c.Label)
	assert.Equal(t, "0.7071", c.Text)
	assert.Equal(t, []string{ModeratelySimilar}, rec.Texts("info"))
	require.Len(t, rec.Bars, 1)
	assert.InDelta(t, 0.7071, rec.Bars[0].Values[0], 1e-4)
}

func TestEmbedPageShowsStatistics(t *testing.T) {
	host := &fakeHost{embed: func(string) []float32 { return []float32{3, 4} }}
	r := newRunner(t, host)
	rec := uitest.New().Press("embed_btn")

	require.NoError(t, run(t, r, rec, "4_utilities/30_Embed"))

	metrics := map[string]string{}
	for _, c := range rec.Calls {
		if c.Kind == "metric" {
			metrics[c.Label] = c.Text
		}
	}
	assert.Equal(t, map[string]string{
		"Embedding Dimension": "2",
		"First Value":         "3.000000",
		"Last Value":          "4.000000",
		"Mean":                "3.500000",
		"Std Dev":             "0.500000",
		"L2 Norm":             "5.000000",
	}, metrics)
}

func TestSemanticSearchRanksCorpus(t *testing.T) {
	host := &fakeHost{embed: func(in string) []float32 {
		lower := strings.ToLower(in)
		if strings.Contains(lower, "andes") || strings.Contains(lower, "mountains") {
			return []float32{1, 0.1, 0.1}
		}
		return []float32{0.1, 0.1, 0.1}
	}}
	r := newRunner(t, host)
	rec := uitest.New().Press("search_btn").Set("search_k", 1)
	sess := session.NewStore().New()
	entry, _, ok := nav.Find(r.Sections(), "4_utilities/33_Semantic_Search")
	require.True(t, ok)

	require.NoError(t, r.Run(context.Background(), rec, sess, entry))

	var hits []string
	for _, md := range rec.Texts("markdown") {
		if strings.HasPrefix(md, "**1.**") {
			hits = append(hits, md)
		}
	}
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0], "Andes")
	assert.Contains(t, hits[0], "similarity 1.0000")
	assert.True(t, sess.Has(collectionKey(rec.Texts("select")[0])))
}

func TestSemanticSearchAnswersFromContext(t *testing.T) {
	host := &fakeHost{
		embed: func(in string) []float32 {
			if strings.Contains(strings.ToLower(in), "andes") || strings.Contains(in, "mountains") {
				return []float32{1, 0.1, 0.1}
			}
			return []float32{0.1, 0.1, 1}
		},
		stream: func(*ollama.ChatRequest) []ollama.ChatResponse {
			return []ollama.ChatResponse{
				{Message: ollama.Message{Role: "assistant", Content: "Llamas [doc:1]"}},
				{Message: ollama.Message{Role: "assistant", Content: "."}, Done: true},
			}
		},
	}
	r := newRunner(t, host)
	rec := uitest.New().Press("search_btn", "answer_btn").Set("search_k", 1)

	require.NoError(t, run(t, r, rec, "4_utilities/33_Semantic_Search"))

	reqs := host.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "gemma3", reqs[0].Model)
	require.Len(t, reqs[0].Messages, 2)
	assert.Equal(t, "system", reqs[0].Messages[0].Role)
	user := reqs[0].Messages[1].Content
	assert.True(t, strings.HasPrefix(user, "CONTEXT\n[doc:1] Llamas are domesticated"))
	assert.True(t, strings.HasSuffix(user, "QUESTION\nWhich animal carries loads in the mountains?"))
	assert.Contains(t, rec.Texts("caption"), "14 context tokens from 1 documents")
	require.NotEmpty(t, rec.Placeholders)
	assert.Equal(t, "Llamas [doc:1].", rec.Placeholders[len(rec.Placeholders)-1].Last())
}

const friendsJSON = `{"friends":[{"name":"Ollama","age":22,"is_available":false},{"name":"Alonso","age":23,"is_available":true}]}`

func TestStructuredOutputsDecodeFriends(t *testing.T) {
	host := &fakeHost{chat: func(*ollama.ChatRequest) (*ollama.ChatResponse, error) { return assistant(friendsJSON), nil }}
	r := newRunner(t, host)
	rec := uitest.New().Press("generate_btn")

	require.NoError(t, run(t, r, rec, "4_utilities/31_Structured_Outputs"))

	reqs := host.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "llama3.1:8b", reqs[0].Model)
	assert.Equal(t, ollama.Options{"temperature": 0}, reqs[0].Options)
	assert.Contains(t, string(reqs[0].Format), `"is_available"`)

	md := rec.Texts("markdown")
	assert.Contains(t, md, "**Ollama**")
	assert.Contains(t, md, "**Alonso**")
	assert.Contains(t, rec.Texts("text"), "Available: ✅ Yes")
	assert.Contains(t, rec.Texts("text"), "Age: 22")
}

func TestStructuredOutputFailureShowsHintOnce(t *testing.T) {
	host := &fakeHost{chat: func(*ollama.ChatRequest) (*ollama.ChatResponse, error) {
		return assistant(`{"friends":[{"name":"Ollama"}]}`), nil
	}}
	r := newRunner(t, host)
	rec := uitest.New().Press("generate_btn")

	err := run(t, r, rec, "4_utilities/32_Async_Structured_Outputs")

	var shown *ui.ShownError
	require.ErrorAs(t, err, &shown)
	errs := rec.Texts("error")
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "does not match the schema")
	assert.Equal(t, "Make sure the model supports structured outputs", errs[1])
}

func TestDecodeStructured(t *testing.T) {
	schema := SchemaFor[FriendList]()

	friends, err := DecodeStructured[FriendList](schema, friendsJSON)
	require.NoError(t, err)
	assert.Equal(t, FriendList{Friends: []FriendInfo{
		{Name: "Ollama", Age: 22},
		{Name: "Alonso", Age: 23, IsAvailable: true},
	}}, friends)

	_, err = DecodeStructured[FriendList](schema, `{"friends":[{"name":"x","age":"old","is_available":true}]}`)
	assert.ErrorContains(t, err, "does not match the schema")
	_, err = DecodeStructured[FriendList](schema, `not json`)
	assert.Error(t, err)
}

func TestImageSchemaCarriesEnums(t *testing.T) {
	var schema struct {
		Required   []string `json:"required"`
		Properties map[string]struct {
			Enum []string `json:"enum"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(SchemaFor[ImageDescription](), &schema))
	assert.Equal(t, []string{"Morning", "Afternoon", "Evening", "Night"}, schema.Properties["time_of_day"].Enum)
	assert.Equal(t, []string{"Indoor", "Outdoor", "Unknown"}, schema.Properties["setting"].Enum)
	assert.NotContains(t, schema.Required, "text_content")
	assert.Contains(t, schema.Required, "summary")
}

func TestVisionPagesWarnWithoutUpload(t *testing.T) {
	for _, id := range []string{"5_vision/14_Multimodal_Chat", "5_vision/16_Structured_Outputs_Image"} {
		t.Run(id, func(t *testing.T) {
			host := &fakeHost{}
			r := newRunner(t, host)
			rec := uitest.New().Press("analyze_btn")

			require.NoError(t, run(t, r, rec, id))
			assert.Equal(t, []string{"Please upload an image first."}, rec.Texts("warning"))
			assert.Empty(t, host.requests())
		})
	}
}

func TestMultimodalChatSendsImage(t *testing.T) {
	host := &fakeHost{}
	r := newRunner(t, host)
	rec := uitest.New().Press("analyze_btn")
	rec.Uploads["image"] = ui.Upload{Name: "cat.png", Data: []byte("png-bytes")}

	require.NoError(t, run(t, r, rec, "5_vision/14_Multimodal_Chat"))

	reqs := host.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "gemma3", reqs[0].Model)
	assert.Equal(t, []ollama.ImageData{[]byte("png-bytes")}, reqs[0].Messages[0].Images)
	assert.Equal(t, []string{"Analysis:"}, rec.Texts("success"))
}

func comicServer(t *testing.T, latest int) (*httptest.Server, *[]int) {
	t.Helper()
	var (
		mu      sync.Mutex
		fetched []int
	)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/info.0.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"num":%d}`, latest)
	})
	mux.HandleFunc("/{num}/info.0.json", func(w http.ResponseWriter, req *http.Request) {
		n, err := strconv.Atoi(req.PathValue("num"))
		if err != nil {
			http.NotFound(w, req)
			return
		}
		mu.Lock()
		fetched = append(fetched, n)
		mu.Unlock()
		json.NewEncoder(w).Encode(Comic{Num: n, Title: "Comic " + strconv.Itoa(n), Img: srv.URL + "/comic.png", Alt: "alt text"})
	})
	mux.HandleFunc("/comic.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("comic-bytes"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &fetched
}

func TestMultimodalGenerateExplainsComic(t *testing.T) {
	srv, fetched := comicServer(t, 100)
	host := &fakeHost{generate: func(*ollama.GenerateRequest) []ollama.GenerateResponse {
		return []ollama.GenerateResponse{{Response: "A "}, {Response: "joke."}}
	}}
	r := newRunner(t, host)
	r.ComicsURL = srv.URL
	rec := uitest.New().Press("fetch_btn").Set("comic_num", 42)

	require.NoError(t, run(t, r, rec, "5_vision/15_Multimodal_Generate"))

	assert.Equal(t, []int{42}, *fetched)
	assert.Contains(t, rec.Texts("subheader"), "xkcd #42: Comic 42")
	assert.Equal(t, []string{"alt text"}, rec.Texts("caption"))
	require.Len(t, host.genReqs, 1)
	assert.Equal(t, "explain this comic:", host.genReqs[0].Prompt)
	assert.Equal(t, []ollama.ImageData{[]byte("comic-bytes")}, host.genReqs[0].Images)
	require.NotEmpty(t, rec.Placeholders)
	assert.Equal(t, "A joke.", rec.Placeholders[len(rec.Placeholders)-1].Last())
}

func TestMultimodalGenerateRandomComicWithinArchive(t *testing.T) {
	srv, fetched := comicServer(t, 5)
	host := &fakeHost{generate: func(*ollama.GenerateRequest) []ollama.GenerateResponse { return nil }}
	r := newRunner(t, host)
	r.ComicsURL = srv.URL
	rec := uitest.New().Press("fetch_btn")

	require.NoError(t, run(t, r, rec, "5_vision/15_Multimodal_Generate"))

	require.Len(t, *fetched, 1)
	assert.GreaterOrEqual(t, (*fetched)[0], 1)
	assert.LessOrEqual(t, (*fetched)[0], 5)
}

func TestWebSearchRunsToolLoop(t *testing.T) {
	host := &fakeHost{search: &ollama.WebSearchResponse{Results: []ollama.WebSearchResult{
		{Title: "New engine", URL: "https://ollama.com/blog", Content: "Ollama ships a new engine."},
	}}}
	host.chat = func(req *ollama.ChatRequest) (*ollama.ChatResponse, error) {
		if len(req.Messages) == 1 {
			return assistant("", toolCall("web_search", map[string]any{"query": "ollama engine"})), nil
		}
		return assistant("It is a new multimodal engine."), nil
	}
	r := newRunner(t, host)
	rec := uitest.New().Press("search_btn")

	require.NoError(t, run(t, r, rec, "6_web/22_Web_Search"))

	assert.Equal(t, []string{"ollama engine"}, host.searches)
	reqs := host.requests()
	require.Len(t, reqs, 2)
	assert.NotNil(t, reqs[0].Think)
	preview, ok := rec.Find("details", "")
	require.True(t, ok)
	assert.Equal(t, "📊 Results Preview", preview.Label)
	assert.Contains(t, preview.Text, "New engine")
	assert.Equal(t, []string{"✅ Search completed"}, rec.Texts("success"))
}

func TestHomeListsEveryExample(t *testing.T) {
	r := newRunner(t, &fakeHost{})
	rec := uitest.New()

	require.NoError(t, run(t, r, rec, "0_home/00_Start"))

	assert.Equal(t, []string{"🦙 Ollama SDK Examples"}, rec.Texts("title"))
	var listing string
	for _, c := range rec.Calls {
		if c.Kind == "details" && c.Label == "📖 All Examples" {
			listing = c.Text
		}
	}
	assert.Contains(t, listing, "- Chat Stream")
	assert.Contains(t, listing, "- Semantic Search")
	assert.NotContains(t, listing, "- Start")
	assert.Equal(t, len(catalog)-1, exampleCount(r.Sections()))
}

func TestChatHistorySeedsAndClears(t *testing.T) {
	r := newRunner(t, &fakeHost{})
	sess := session.NewStore().New()
	entry, _, ok := nav.Find(r.Sections(), "1_chat/03_Chat_History")
	require.True(t, ok)

	rec := uitest.New()
	require.NoError(t, r.Run(context.Background(), rec, sess, entry))
	assert.Len(t, rec.Texts("chat_message"), len(seedHistory))

	rec = uitest.New().Set(historyKey+"_input", "And in Paris?")
	require.NoError(t, r.Run(context.Background(), rec, sess, entry))
	assert.Len(t, sess.Messages(historyKey), len(seedHistory)+2)

	rec = uitest.New().Press("clear_history")
	require.NoError(t, r.Run(context.Background(), rec, sess, entry))
	assert.Empty(t, rec.Texts("chat_message"))
}

func TestChatHistoryAppliesProfile(t *testing.T) {
	host := &fakeHost{}
	r := newRunner(t, host)
	temp := 0.3
	r.Config.Profile = "creative"
	r.Config.Parameters = appconfig.Parameters{Temperature: &temp}

	rec := uitest.New().Set(ChatHistoryInput, "Hello")
	require.NoError(t, run(t, r, rec, ChatHistoryPage))

	reqs := host.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 0.3, reqs[0].Options["temperature"])
	assert.Equal(t, 2048, reqs[0].Options["num_predict"])
}

func TestChatHistoryWithoutProfileSendsNoOptions(t *testing.T) {
	host := &fakeHost{}
	r := newRunner(t, host)

	rec := uitest.New().Set(ChatHistoryInput, "Hello")
	require.NoError(t, run(t, r, rec, ChatHistoryPage))

	reqs := host.requests()
	require.Len(t, reqs, 1)
	assert.Nil(t, reqs[0].Options)
}
