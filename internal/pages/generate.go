package pages

import (
	"context"
	"fmt"

	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/ui"
)

const (
	thinkingModel = "deepseek-r1"
	levelsModel   = "gpt-oss:20b"
	codeModel     = "codellama:7b-code"

	// Fill in Middle defaults.
	fimPrefix = "def remove_non_ascii(s: str) -> str:\n    \"\"\" "
	fimSuffix = "\n    return result\n"
)

// ThinkingLevels are the reasoning efforts a level-aware model accepts.
var ThinkingLevels = []string{"low", "medium", "high"}

func generatePage(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, chatModels...)
	prompt := s.TextArea("prompt", "Enter your prompt:", "Why is the sky blue?")
	if !s.Button("generate_btn", "Generate") {
		return nil
	}

	done := s.Status("Generating...")
	resp, err := e.Models.Generate(ctx, model, prompt, nil, nil)
	done()
	if err != nil {
		return err
	}
	s.Success("Generated Response:")
	s.Markdown(resp.Response)
	return nil
}

func generateStream(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, chatModels...)
	prompt := s.TextArea("prompt", "Enter your prompt:", "Why is the sky blue?")
	if !s.Button("generate_btn", "Generate with Streaming") {
		return nil
	}
	_, err := e.UI.RunGenerate(ctx, s, model, prompt, ui.RunOptions{Stream: true})
	return err
}

func generateLogprobs(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, chatModels...)
	top := s.Sidebar().IntSlider("top_logprobs", "Top Logprobs", 1, 5, 3, 1)
	prompt := s.TextInput("prompt", "Enter your prompt:", "hi! be concise.")
	if !s.Button("generate_btn", "Generate with Logprobs") {
		return nil
	}

	done := s.Status("Generating...")
	resp, err := e.Models.Client().Generate(ctx, &ollama.GenerateRequest{
		Model:       model,
		Prompt:      prompt,
		Logprobs:    true,
		TopLogprobs: top,
	})
	done()
	if err != nil {
		return err
	}
	s.Success("Generated Response:")
	s.Markdown(resp.Response)
	s.Subheader("Token Probabilities")
	s.Markdown(FormatLogprobs(resp.Logprobs))
	return nil
}

func asyncGenerate(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, chatModels...)
	prompt := s.TextArea("prompt", "Enter your prompt:", "Why is the sky blue?")
	if !s.Button("generate_btn", "Generate Async") {
		return nil
	}

	done := s.Status("Generating asynchronously...")
	resp, err := e.Models.GenerateAsync(ctx, model, prompt, nil).Wait(ctx)
	done()
	if err != nil {
		return err
	}
	s.Success("Generated Response:")
	s.Markdown(resp.Response)
	return nil
}

// showThinking renders a reasoning trace and the answer that followed it.
func showThinking(s ui.Surface, heading, thinking, answer string) {
	s.Subheader(heading)
	if thinking == "" {
		s.Info("The model returned no thinking output")
	} else {
		s.Text(thinking)
	}
	s.Subheader("💡 Response:")
	s.Success(answer)
}

func thinking(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info(fmt.Sprintf("⚠️ Note: This feature requires the '%s' model", thinkingModel))
	prompt := s.TextInput("prompt", "Ask a question:", "What is 10 + 23?")
	if !s.Button("generate_btn", "Generate with Thinking") {
		return nil
	}

	done := s.Status("Thinking...")
	resp, err := e.Models.Client().Chat(ctx, &ollama.ChatRequest{
		Model:    thinkingModel,
		Messages: userMessage(prompt),
		Think:    ollama.ThinkOn(),
	})
	done()
	if err != nil {
		return err
	}
	showThinking(s, "🤔 Thinking Process:", resp.Message.Thinking, resp.Message.Content)
	return nil
}

func thinkingGenerate(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info(fmt.Sprintf("⚠️ Note: This feature requires the '%s' model", thinkingModel))
	prompt := s.TextInput("prompt", "Enter your prompt:", "why is the sky blue")
	if !s.Button("generate_btn", "Generate with Thinking") {
		return nil
	}

	done := s.Status("Thinking...")
	resp, err := e.Models.Client().Generate(ctx, &ollama.GenerateRequest{
		Model:  thinkingModel,
		Prompt: prompt,
		Think:  ollama.ThinkOn(),
	})
	done()
	if err != nil {
		return err
	}
	showThinking(s, "🤔 Thinking Process:", resp.Thinking, resp.Response)
	return nil
}

func thinkingLevels(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info(fmt.Sprintf("⚠️ Note: This feature requires the '%s' model", levelsModel))
	side := s.Sidebar()
	side.Header("Settings")
	level := side.Select("thinking_level", "Thinking Level", ThinkingLevels, 1)
	prompt := s.TextInput("prompt", "Ask a question:", "What is 10 + 23?")
	if !s.Button("generate_btn", "Generate with Thinking Level") {
		return nil
	}

	done := s.Status(fmt.Sprintf("Thinking at %s level...", level))
	resp, err := e.Models.Client().Chat(ctx, &ollama.ChatRequest{
		Model:    levelsModel,
		Messages: userMessage(prompt),
		Think:    ollama.ThinkLevel(level),
	})
	done()
	if err != nil {
		return err
	}
	showThinking(s, fmt.Sprintf("🤔 Thinking (%s):", level), resp.Message.Thinking, resp.Message.Content)
	return nil
}

func fillInMiddle(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info(fmt.Sprintf("⚠️ Note: This feature works best with code models like '%s'", codeModel))
	side := s.Sidebar()
	side.Header("Settings")
	temperature := side.Slider("temperature", "Temperature", 0, 1, 0, 0.1)
	numPredict := side.IntSlider("num_predict", "Max tokens", 32, 512, 128, 32)

	s.Subheader("Prefix (before cursor)")
	prefix := s.TextArea("prefix", "Prefix", fimPrefix)
	s.Subheader("Suffix (after cursor)")
	suffix := s.TextArea("suffix", "Suffix", fimSuffix)
	if !s.Button("generate_btn", "Fill in Middle") {
		return nil
	}

	done := s.Status("Generating code...")
	resp, err := e.Models.Client().Generate(ctx, &ollama.GenerateRequest{
		Model:  codeModel,
		Prompt: prefix,
		Suffix: suffix,
		Options: ollama.Options{
			"num_predict": numPredict,
			"temperature": temperature,
			"top_p":       0.9,
			"stop":        []string{"<EOT>"},
		},
	})
	done()
	if err != nil {
		return err
	}
	s.Subheader("Generated Code:")
	s.Code(prefix+resp.Response+suffix, "python")
	return nil
}
