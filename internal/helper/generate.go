// internal/helper/generate.go
package helper

import (
	"context"
	"iter"

	"github.com/mwiater/llamagallery/internal/ollama"
)

// Chat sends messages to model and returns the complete reply.
func (h *Helper) Chat(ctx context.Context, model string, messages []ollama.Message, opts ollama.Options) (*ollama.ChatResponse, error) {
	return h.client.Chat(ctx, chatRequest(model, messages, opts))
}

// ChatStream sends messages to model and yields reply fragments.
func (h *Helper) ChatStream(ctx context.Context, model string, messages []ollama.Message, opts ollama.Options) iter.Seq2[ollama.ChatResponse, error] {
	return h.client.ChatStream(ctx, chatRequest(model, messages, opts))
}

// ChatWithTools sends messages with tool declarations. think may be nil.
func (h *Helper) ChatWithTools(ctx context.Context, model string, messages []ollama.Message, tools []ollama.Tool, think *ollama.Think) (*ollama.ChatResponse, error) {
	req := chatRequest(model, messages, nil)
	req.Tools = tools
	req.Think = think
	return h.client.Chat(ctx, req)
}

// ChatWithToolsStream is the streaming form of ChatWithTools.
func (h *Helper) ChatWithToolsStream(ctx context.Context, model string, messages []ollama.Message, tools []ollama.Tool, think *ollama.Think) iter.Seq2[ollama.ChatResponse, error] {
	req := chatRequest(model, messages, nil)
	req.Tools = tools
	req.Think = think
	return h.client.ChatStream(ctx, req)
}

// Generate completes prompt with model. images may be nil.
func (h *Helper) Generate(ctx context.Context, model, prompt string, images []ollama.ImageData, opts ollama.Options) (*ollama.GenerateResponse, error) {
	return h.client.Generate(ctx, generateRequest(model, prompt, images, opts))
}

// GenerateStream completes prompt with model and yields fragments.
func (h *Helper) GenerateStream(ctx context.Context, model, prompt string, images []ollama.ImageData, opts ollama.Options) iter.Seq2[ollama.GenerateResponse, error] {
	return h.client.GenerateStream(ctx, generateRequest(model, prompt, images, opts))
}

// Embed returns one vector per input.
func (h *Helper) Embed(ctx context.Context, model string, input ...string) (*ollama.EmbedResponse, error) {
	req := &ollama.EmbedRequest{Model: model}
	if len(input) == 1 {
		req.Input = input[0]
	} else {
		req.Input = input
	}
	return h.client.Embed(ctx, req)
}

// ChatAsync starts Chat in the background.
func (h *Helper) ChatAsync(ctx context.Context, model string, messages []ollama.Message, opts ollama.Options) *Pending[*ollama.ChatResponse] {
	messages = append([]ollama.Message(nil), messages...)
	return Go(ctx, func(ctx context.Context) (*ollama.ChatResponse, error) {
		return h.Chat(ctx, model, messages, opts)
	})
}

// GenerateAsync starts Generate in the background.
func (h *Helper) GenerateAsync(ctx context.Context, model, prompt string, opts ollama.Options) *Pending[*ollama.GenerateResponse] {
	return Go(ctx, func(ctx context.Context) (*ollama.GenerateResponse, error) {
		return h.Generate(ctx, model, prompt, nil, opts)
	})
}

// EmbedAsync starts Embed in the background.
func (h *Helper) EmbedAsync(ctx context.Context, model string, input ...string) *Pending[*ollama.EmbedResponse] {
	input = append([]string(nil), input...)
	return Go(ctx, func(ctx context.Context) (*ollama.EmbedResponse, error) {
		return h.Embed(ctx, model, input...)
	})
}

func chatRequest(model string, messages []ollama.Message, opts ollama.Options) *ollama.ChatRequest {
	req := &ollama.ChatRequest{Model: model, Messages: messages}
	if len(opts) > 0 {
		req.Options = opts
	}
	return req
}

func generateRequest(model, prompt string, images []ollama.ImageData, opts ollama.Options) *ollama.GenerateRequest {
	req := &ollama.GenerateRequest{Model: model, Prompt: prompt}
	if len(opts) > 0 {
		req.Options = opts
	}
	if len(images) > 0 {
		req.Images = images
	}
	return req
}
