package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/ui"
)

var chatModels = []string{"gemma3", "llama3.1", "llama3.2", "qwen2.5"}

// historyKey holds the Chat History page's conversation.
const historyKey = "chat_history"

// ChatHistoryPage is the page the chat REPL drives. Each line typed is preset under
// ChatHistoryInput before a run.
const (
	ChatHistoryPage  = "1_chat/03_Chat_History"
	ChatHistoryInput = historyKey + "_input"
)

// seedHistory starts the Chat History conversation.
var seedHistory = []ollama.Message{
	{Role: "user", Content: "Why is the sky blue?"},
	{Role: "assistant", Content: "The sky is blue because of the way the Earth's atmosphere scatters sunlight."},
	{Role: "user", Content: "What is the weather in Tokyo?"},
	{Role: "assistant", Content: "The weather in Tokyo is typically warm and humid during the summer months, with temperatures often exceeding 30°C (86°F). The city experiences a rainy season from June to September, with heavy rainfall and occasional typhoons. Winter is mild, with temperatures rarely dropping below freezing."},
}

// model renders the sidebar model selector. With no candidates the installed models are
// offered, falling back to the configured defaults.
func (e *Env) model(ctx context.Context, candidates ...string) string {
	side := e.S.Sidebar()
	side.Header("Settings")
	return e.UI.SelectModel(ctx, side, ui.SelectorOptions{
		Fallback:      candidates,
		SkipInstalled: len(candidates) > 0,
	})
}

func userMessage(text string) []ollama.Message {
	return []ollama.Message{{Role: "user", Content: text}}
}

func chatPage(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx)
	prompt := s.TextInput("user_input", "Ask a question:", "Why is the sky blue?")
	if !s.Button("send_btn", "Send") {
		return nil
	}

	done := s.Status("Thinking...")
	resp, err := e.Models.Chat(ctx, model, userMessage(prompt), nil)
	done()
	if err != nil {
		return err
	}
	s.Success("Response:")
	s.Markdown(resp.Message.Content)
	return nil
}

func chatStream(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, chatModels...)
	prompt := s.TextInput("user_input", "Ask a question:", "Why is the sky blue?")
	if !s.Button("send_btn", "Send with Streaming") {
		return nil
	}
	_, err := e.UI.RunChat(ctx, s, model, userMessage(prompt), ui.RunOptions{Stream: true})
	return err
}

func chatHistory(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, chatModels...)

	if !e.Session.Has(historyKey) {
		e.Session.SetMessages(historyKey, seedHistory)
	}
	// Clearing takes effect before the history is drawn.
	if s.Sidebar().Button("clear_history", "Clear History") {
		e.UI.ClearChatHistory(historyKey)
	}
	for _, m := range e.Session.Messages(historyKey) {
		s.ChatMessage(m.Role, m.Content)
	}

	prompt, ok := s.ChatInput(ChatHistoryInput, "Continue the conversation...")
	if !ok {
		return nil
	}
	e.Session.AppendMessage(historyKey, ollama.Message{Role: "user", Content: prompt})
	s.ChatMessage("user", prompt)

	done := s.Status("Thinking...")
	resp, err := e.Models.Chat(ctx, model, e.Session.Messages(historyKey), e.profileOptions())
	done()
	if err != nil {
		return err
	}
	s.ChatMessage("assistant", resp.Message.Content)
	e.Session.AppendMessage(historyKey, ollama.Message{Role: "assistant", Content: resp.Message.Content})
	return nil
}

// FormatLogprobs renders one line per sampled token followed by its alternatives.
func FormatLogprobs(entries []ollama.TokenLogprob) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		var b strings.Builder
		fmt.Fprintf(&b, "**Token:** `%s` | **Logprob:** %.3f", entry.Token, entry.Logprob)
		for _, alt := range entry.TopLogprobs {
			fmt.Fprintf(&b, "\n  → Alt: `%s` (logprob: %.3f)", alt.Token, alt.Logprob)
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n\n")
}

func chatLogprobs(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, chatModels...)
	prompt := s.TextInput("user_input", "Ask a question:", "What is the capital of France?")
	top := s.IntSlider("top_logprobs", "Top Logprobs", 1, 5, 3, 1)
	if !s.Button("send_btn", "Send with Logprobs") {
		return nil
	}

	done := s.Status("Processing...")
	resp, err := e.Models.Client().Chat(ctx, &ollama.ChatRequest{
		Model:       model,
		Messages:    userMessage(prompt),
		Options:     ollama.Options{"num_predict": 50, "temperature": 0.7},
		Logprobs:    true,
		TopLogprobs: top,
	})
	done()
	if err != nil {
		return err
	}
	s.Success("Response:")
	s.Markdown(resp.Message.Content)
	if len(resp.Logprobs) > 0 {
		s.Subheader("Log Probabilities:")
		s.Markdown(FormatLogprobs(resp.Logprobs))
	} else {
		s.Info("The model returned no log probabilities")
	}
	s.Details("View Response Details", "```json\n"+mustIndent(resp)+"\n```")
	return nil
}

func asyncChat(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info("The request runs in its own goroutine; the page waits on its result.")
	model := e.model(ctx, chatModels...)
	prompt := s.TextInput("user_input", "Ask a question:", "Why is the sky blue?")
	if !s.Button("send_btn", "Send (Async)") {
		return nil
	}

	done := s.Status("Processing...")
	resp, err := e.Models.ChatAsync(ctx, model, userMessage(prompt), nil).Wait(ctx)
	done()
	if err != nil {
		return err
	}
	s.Success("Response:")
	s.Markdown(resp.Message.Content)
	return nil
}
