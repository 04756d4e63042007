// internal/ui/helper.go
package ui

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/mwiater/llamagallery/internal/helper"
	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/session"
)

// Facade is the part of helper.Helper the UI helper renders.
type Facade interface {
	ModelNames(ctx context.Context) []string
	ListModels(ctx context.Context) []helper.ModelInfo
	ListRunningModels(ctx context.Context) []helper.RunningModel
	ShowModel(ctx context.Context, name string) helper.ModelDetail
	Chat(ctx context.Context, model string, messages []ollama.Message, opts ollama.Options) (*ollama.ChatResponse, error)
	ChatStream(ctx context.Context, model string, messages []ollama.Message, opts ollama.Options) iter.Seq2[ollama.ChatResponse, error]
	Generate(ctx context.Context, model, prompt string, images []ollama.ImageData, opts ollama.Options) (*ollama.GenerateResponse, error)
	GenerateStream(ctx context.Context, model, prompt string, images []ollama.ImageData, opts ollama.Options) iter.Seq2[ollama.GenerateResponse, error]
	PullModel(ctx context.Context, name string) iter.Seq2[ollama.ProgressResponse, error]
}

// Helper renders common page fragments against one session.
type Helper struct {
	facade        Facade
	state         *session.State
	DefaultModels []string
}

// New creates a UI helper. defaults is the selector fallback used when neither the host nor
// the caller offers a candidate.
func New(facade Facade, state *session.State, defaults []string) *Helper {
	return &Helper{facade: facade, state: state, DefaultModels: defaults}
}

// State returns the session the helper persists into.
func (h *Helper) State() *session.State {
	return h.state
}

// SelectorOptions configures SelectModel. Zero values select the defaults.
type SelectorOptions struct {
	Key           string
	Label         string
	Fallback      []string
	SkipInstalled bool
}

// SelectModel renders a model selector and persists the choice under opts.Key.
func (h *Helper) SelectModel(ctx context.Context, s Surface, opts SelectorOptions) string {
	key := opts.Key
	if key == "" {
		key = "model"
	}
	label := opts.Label
	if label == "" {
		label = "Select Model"
	}

	var candidates []string
	if !opts.SkipInstalled {
		candidates = h.facade.ModelNames(ctx)
	}
	if len(candidates) == 0 {
		candidates = opts.Fallback
	}
	if len(candidates) == 0 {
		candidates = h.DefaultModels
	}

	idx := DefaultIndex(candidates, h.state.String(key))
	choice := s.Select(key, label, candidates, idx)
	h.state.Set(key, choice)
	return choice
}

// DefaultIndex is the position of prior among candidates, or 0 when prior is absent.
func DefaultIndex(candidates []string, prior string) int {
	if prior == "" {
		return 0
	}
	for i, c := range candidates {
		if c == prior {
			return i
		}
	}
	return 0
}

// SettingsFlags selects which generation controls Settings renders.
type SettingsFlags struct {
	Temperature bool
	MaxTokens   bool
	TopP        bool
	TopK        bool
}

// DefaultSettings renders temperature and max tokens.
var DefaultSettings = SettingsFlags{Temperature: true, MaxTokens: true}

// Settings renders the enabled controls and returns options keyed by exactly those controls.
func (h *Helper) Settings(s Surface, prefix string, flags SettingsFlags) ollama.Options {
	if prefix == "" {
		prefix = "settings"
	}
	opts := ollama.Options{}
	if flags.Temperature {
		opts["temperature"] = s.Slider(prefix+"_temperature", "Temperature", 0.0, 2.0, 0.7, 0.1)
	}
	if flags.MaxTokens {
		opts["num_predict"] = s.IntSlider(prefix+"_max_tokens", "Max Tokens", 10, 4096, 512, 50)
	}
	if flags.TopP {
		opts["top_p"] = s.Slider(prefix+"_top_p", "Top P", 0.0, 1.0, 0.9, 0.05)
	}
	if flags.TopK {
		opts["top_k"] = s.IntSlider(prefix+"_top_k", "Top K", 1, 100, 40, 1)
	}
	return opts
}

// RunOptions controls RunChat and RunGenerate.
type RunOptions struct {
	Stream  bool
	Options ollama.Options
	Images  []ollama.ImageData
}

// RunChat sends messages and renders the reply. With Stream set the reply grows in a
// placeholder behind a cursor. It returns the full reply text.
func (h *Helper) RunChat(ctx context.Context, s Surface, model string, messages []ollama.Message, ro RunOptions) (string, error) {
	if !ro.Stream {
		resp, err := h.facade.Chat(ctx, model, messages, ro.Options)
		if err != nil {
			return "", err
		}
		s.Markdown(resp.Message.Content)
		return resp.Message.Content, nil
	}
	return StreamText(s.Placeholder(), h.facade.ChatStream(ctx, model, messages, ro.Options), func(c ollama.ChatResponse) string {
		return c.Message.Content
	})
}

// RunGenerate completes prompt and renders the reply the way RunChat does.
func (h *Helper) RunGenerate(ctx context.Context, s Surface, model, prompt string, ro RunOptions) (string, error) {
	if !ro.Stream {
		resp, err := h.facade.Generate(ctx, model, prompt, ro.Images, ro.Options)
		if err != nil {
			return "", err
		}
		s.Markdown(resp.Response)
		return resp.Response, nil
	}
	return StreamText(s.Placeholder(), h.facade.GenerateStream(ctx, model, prompt, ro.Images, ro.Options), func(c ollama.GenerateResponse) string {
		return c.Response
	})
}

// StreamText renders a fragment sequence into ph and returns the accumulated text.
func StreamText[T any](ph Placeholder, seq iter.Seq2[T, error], text func(T) string) (string, error) {
	var buf strings.Builder
	for chunk, err := range seq {
		if err != nil {
			if buf.Len() > 0 {
				ph.Markdown(buf.String())
			}
			return buf.String(), err
		}
		buf.WriteString(text(chunk))
		ph.Markdown(buf.String() + Cursor)
	}
	ph.Markdown(buf.String())
	return buf.String(), nil
}

// ChatWithHistory renders the conversation stored under key and, when the user submits a
// message, appends it, asks the model and appends the reply.
func (h *Helper) ChatWithHistory(ctx context.Context, s Surface, model, key string, initial []ollama.Message, opts ollama.Options) error {
	if key == "" {
		key = "messages"
	}
	if !h.state.Has(key) {
		h.state.SetMessages(key, initial)
	}
	for _, m := range h.state.Messages(key) {
		s.ChatMessage(m.Role, m.Content)
	}

	prompt, ok := s.ChatInput(key+"_input", "Your message...")
	if !ok {
		return nil
	}
	h.state.AppendMessage(key, ollama.Message{Role: "user", Content: prompt})
	s.ChatMessage("user", prompt)

	done := s.Status("Thinking...")
	resp, err := h.facade.Chat(ctx, model, h.state.Messages(key), opts)
	done()
	if err != nil {
		return err
	}
	s.ChatMessage("assistant", resp.Message.Content)
	h.state.AppendMessage(key, ollama.Message{Role: "assistant", Content: resp.Message.Content})
	return nil
}

// ClearChatHistory empties the conversation stored under key, if any.
func (h *Helper) ClearChatHistory(key string) {
	if key == "" {
		key = "messages"
	}
	if h.state.Has(key) {
		h.state.SetMessages(key, nil)
	}
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}

// ModelInfo renders a model's summary details.
func (h *Helper) ModelInfo(ctx context.Context, s Surface, model string) {
	info := h.facade.ShowModel(ctx, model)
	if info.HasError() {
		s.Error(fmt.Sprintf("Error: %s", info.Error))
		return
	}
	d := helper.Details{}
	if info.Details != nil {
		d = *info.Details
	}
	s.Markdown(fmt.Sprintf("**Family:** %s", orNA(d.Family)))
	s.Markdown(fmt.Sprintf("**Format:** %s", orNA(d.Format)))
	s.Markdown(fmt.Sprintf("**Parameters:** %s", orNA(d.ParameterSize)))
	s.Markdown(fmt.Sprintf("**Quantization:** %s", orNA(d.QuantizationLevel)))
	if info.ContextLen > 0 {
		s.Markdown(fmt.Sprintf("**Context Length:** %d", info.ContextLen))
	}
	if len(info.Capabilities) > 0 {
		s.Markdown(fmt.Sprintf("**Capabilities:** %s", strings.Join(info.Capabilities, ", ")))
	}
}

// ModelList renders the installed models.
func (h *Helper) ModelList(ctx context.Context, s Surface) {
	models := h.facade.ListModels(ctx)
	if len(models) == 0 {
		s.Warning("No models installed")
		return
	}
	s.Markdown(fmt.Sprintf("**%d models installed**", len(models)))
	for _, m := range models {
		family := "N/A"
		if m.Details != nil {
			family = orNA(m.Details.Family)
		}
		s.Markdown(fmt.Sprintf("- **%s** · %.2f MB · %s", m.Name, m.SizeMB, family))
	}
}

// RunningModels renders the models loaded in memory.
func (h *Helper) RunningModels(ctx context.Context, s Surface) {
	models := h.facade.ListRunningModels(ctx)
	if len(models) == 0 {
		s.Info("No models currently running")
		return
	}
	for _, m := range models {
		s.Markdown(fmt.Sprintf("- **%s** · %.2f MB (VRAM %.2f MB) · expires %s",
			m.Name, m.SizeMB, m.SizeVRAMMB, m.ExpiresAt.Format("15:04:05")))
	}
}

// PullModel renders a pull form and, when submitted, the pull's aggregate progress.
func (h *Helper) PullModel(ctx context.Context, s Surface) {
	name := strings.TrimSpace(s.TextInput("pull_model_name", "Model name to pull", ""))
	if !s.Button("pull_btn", "Pull Model") || name == "" {
		return
	}
	if err := PullWithProgress(ctx, s, h.facade.PullModel(ctx, name)); err != nil {
		s.Error(fmt.Sprintf("Error pulling model: %s", err))
		return
	}
	s.Success(fmt.Sprintf("Successfully pulled %s", name))
}

// PullWithProgress renders status text and a progress bar aggregated over all layer digests.
func PullWithProgress(ctx context.Context, s Surface, seq iter.Seq2[ollama.ProgressResponse, error]) error {
	status := s.Placeholder()
	bar := s.Progress()
	type layer struct{ completed, total int64 }
	layers := map[string]layer{}
	for p, err := range seq {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		status.Markdown(p.Status)
		if p.Digest == "" || p.Total <= 0 {
			continue
		}
		layers[p.Digest] = layer{completed: p.Completed, total: p.Total}
		var done, total int64
		for _, l := range layers {
			done += l.completed
			total += l.total
		}
		bar.Set(float64(done) / float64(total))
	}
	bar.Set(1)
	return nil
}
