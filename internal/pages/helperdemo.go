package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/llamagallery/internal/ui"
)

const helperChatKey = "helper_chat_history"

var usageSnippets = []struct{ title, code string }{
	{"1. Model Selection", `model := uiHelper.SelectModel(ctx, s.Sidebar(), ui.SelectorOptions{Key: "my_model"})

opts := uiHelper.Settings(s.Sidebar(), "my_settings", ui.DefaultSettings)`},
	{"2. Chat Interface", `// Renders the stored conversation and answers the next message.
err := uiHelper.ChatWithHistory(ctx, s, "gemma3", "my_chat_history", nil, nil)`},
	{"3. Generate Text", `text, err := uiHelper.RunGenerate(ctx, s, "gemma3", "Write a haiku about coding",
	ui.RunOptions{Stream: true})`},
	{"4. Ollama Helper", `models, err := helper.NewFromConfig(cfg)
if err != nil {
	return err
}

names := models.ModelNames(ctx)

for p, err := range models.PullModel(ctx, "gemma3") {
	if err != nil {
		return err
	}
	fmt.Println(p.Status)
}

if models.IsModelInstalled(ctx, "gemma3") {
	fmt.Println("Model is ready!")
}

info := models.ShowModel(ctx, "gemma3")`},
	{"5. Custom Chat", `reply, err := uiHelper.RunChat(ctx, s, "gemma3",
	[]ollama.Message{{Role: "user", Content: "Hello!"}},
	ui.RunOptions{Stream: true, Options: ollama.Options{"temperature": 0.7, "num_predict": 100}})`},
}

func helperExample(ctx context.Context, e *Env) error {
	s := e.S

	s.Header("🎯 Model Selector Helper")
	s.Markdown("Easy model selection with automatic installed model detection")
	side := s.Sidebar()
	side.Subheader("Settings")
	selected := e.UI.SelectModel(ctx, side, ui.SelectorOptions{Key: "demo_model"})
	s.Success(fmt.Sprintf("Selected model: **%s**", selected))

	s.Subheader("Installed Models")
	if names := e.Models.ModelNames(ctx); len(names) > 0 {
		s.Text(strings.Join(names, ", "))
	} else {
		s.Warning("No models installed")
	}

	s.Subheader("Model Settings Helper")
	settings := e.UI.Settings(side, "demo_settings", ui.SettingsFlags{Temperature: true, MaxTokens: true, TopP: true})
	s.Markdown("**Current Settings:**")
	s.JSON(settings)
	s.Divider()

	s.Header("💬 Chat Interface Helper")
	s.Markdown("Pre-built chat interface with history management")
	model := e.UI.SelectModel(ctx, s, ui.SelectorOptions{Key: "chat_model"})
	if s.Button("clear_helper_chat", "Clear Chat History") {
		e.UI.ClearChatHistory(helperChatKey)
	}
	if err := e.UI.ChatWithHistory(ctx, s, model, helperChatKey, nil, nil); err != nil {
		return err
	}
	s.Divider()

	s.Header("⚙️ Ollama Helper Functions")
	s.Markdown("Direct access to the facade")
	s.Subheader("📦 Installed Models")
	if s.Button("refresh_models", "Refresh Models") {
		for _, m := range e.Models.ListModels(ctx) {
			body := fmt.Sprintf("**Size:** %.2f MB", m.SizeMB)
			if m.Details != nil {
				body += fmt.Sprintf("\n\n**Family:** %s\n\n**Format:** %s", orNA(m.Details.Family), orNA(m.Details.Format))
			}
			s.Details("📦 "+m.Name, body)
		}
	}
	s.Subheader("🚀 Running Models")
	if s.Button("check_running", "Check Running") {
		running := e.Models.ListRunningModels(ctx)
		if len(running) == 0 {
			s.Warning("No models running")
		}
		for _, m := range running {
			s.Info(fmt.Sprintf("**%s** - %.1f MB", m.Name, m.SizeMB))
		}
	}
	s.Subheader("⬇️ Pull a Model")
	e.UI.PullModel(ctx, s)
	s.Divider()

	s.Header("📄 Usage Examples")
	for _, snip := range usageSnippets {
		s.Subheader(snip.title)
		s.Code(snip.code, "go")
	}
	s.Info("💡 **Tip**: Use these helpers in your pages to reduce boilerplate code!")
	return nil
}
