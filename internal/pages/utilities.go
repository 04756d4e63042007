package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwiater/llamagallery/internal/helper"
	"github.com/mwiater/llamagallery/internal/ui"
	"github.com/mwiater/llamagallery/internal/util"
)

const (
	loadTestModel = "gemma3"
	createdModel  = "my-assistant"
	createSystem  = "You are mario from Super Mario Bros."
)

var baseModels = []string{"gemma3", "llama3.1", "llama3.2", "qwen2.5"}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.RFC3339)
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}

func listPage(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	if !s.Button("refresh_btn", "Refresh Model List") {
		return nil
	}

	done := s.Status("Loading models...")
	models, err := e.Models.Models(ctx)
	done()
	if err != nil {
		return err
	}
	s.Success(fmt.Sprintf("Found %d models", len(models)))
	for _, m := range models {
		lines := []string{
			fmt.Sprintf("**Size:** %.2f MB", m.SizeMB),
			fmt.Sprintf("**Modified:** %s", formatTime(m.ModifiedAt)),
		}
		if d := m.Details; d != nil {
			lines = append(lines,
				fmt.Sprintf("**Format:** %s", orNA(d.Format)),
				fmt.Sprintf("**Family:** %s", orNA(d.Family)),
				fmt.Sprintf("**Parameter Size:** %s", orNA(d.ParameterSize)),
				fmt.Sprintf("**Quantization:** %s", orNA(d.QuantizationLevel)),
			)
		}
		s.Details("📦 "+m.Name, strings.Join(lines, "\n\n"))
	}
	return nil
}

func psPage(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")

	if s.Button("load_btn", "Load Test Model") {
		done := s.Status(fmt.Sprintf("Loading %s...", loadTestModel))
		err := loadModel(ctx, e.Models, loadTestModel)
		done()
		if err != nil {
			return err
		}
		s.Success("Model loaded!")
	}

	if !s.Button("refresh_btn", "Refresh Status") {
		return nil
	}
	done := s.Status("Getting process status...")
	running, err := e.Models.RunningModels(ctx)
	done()
	if err != nil {
		return err
	}
	if len(running) == 0 {
		s.Info("No models currently loaded in memory")
		return nil
	}
	s.Success(fmt.Sprintf("Found %d loaded model(s)", len(running)))
	for _, m := range running {
		s.Subheader("🔄 " + m.Name)
		s.Markdown(strings.Join([]string{
			fmt.Sprintf("**Digest:** `%s...`", util.Head(m.Digest, 20)),
			fmt.Sprintf("**Expires at:** %s", formatTime(m.ExpiresAt)),
			fmt.Sprintf("**Context length:** %d", m.ContextLength),
			fmt.Sprintf("**Size:** %.2f MB", m.SizeMB),
			fmt.Sprintf("**Size VRAM:** %.2f MB", m.SizeVRAMMB),
		}, "\n\n"))
	}
	return nil
}

// loadModel pulls name and sends it one short message so the host keeps it in memory.
func loadModel(ctx context.Context, models *helper.Helper, name string) error {
	if _, err := models.Pull(ctx, name); err != nil {
		return err
	}
	_, err := models.Chat(ctx, name, userMessage("hi"), nil)
	return err
}

func showPage(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	side := s.Sidebar()
	side.Header("Settings")
	model := side.TextInput("show_model", "Model name:", "gemma3")
	if !s.Button("show_btn", "Show Model Info") {
		return nil
	}

	done := s.Status(fmt.Sprintf("Loading info for %s...", model))
	info := e.Models.ShowModel(ctx, model)
	done()
	if info.HasError() {
		return fmt.Errorf("%s", info.Error)
	}
	s.Success(fmt.Sprintf("Model Information: %s", model))

	s.Subheader("📋 General")
	s.Markdown(fmt.Sprintf("**Modified at:** %s", formatTime(info.ModifiedAt)))
	if info.Details != nil {
		s.Markdown("**Details:**")
		s.JSON(info.Details)
	}
	if info.ContextLen > 0 {
		s.Markdown(fmt.Sprintf("**Context length:** %d", info.ContextLen))
	}
	if len(info.Capabilities) > 0 {
		s.Markdown("**Capabilities:**")
		s.JSON(info.Capabilities)
	} else {
		s.Info("No capabilities information available")
	}

	s.Subheader("📝 Modelfile")
	s.Code(orDefault(info.Modelfile, "No modelfile available"), "docker")
	s.Subheader("🔧 Template")
	s.Code(orDefault(info.Template, "No template available"), "go-text-template")
	s.Subheader("⚙️ Parameters")
	if info.Parameters != "" {
		s.Code(info.Parameters, "text")
	} else {
		s.Info("No parameters information available")
	}
	s.Details("📜 License", orDefault(info.License, "No license information available"))
	return nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func pullPage(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	side := s.Sidebar()
	side.Header("Settings")
	model := strings.TrimSpace(side.TextInput("pull_model", "Model to pull:", "gemma3"))
	if !s.Button("pull_btn", "Pull Model") {
		return nil
	}
	if model == "" {
		s.Warning("Enter a model name first.")
		return nil
	}

	s.Info(fmt.Sprintf("Pulling model: %s", model))
	if err := ui.PullWithProgress(ctx, s, e.Models.PullModel(ctx, model)); err != nil {
		return err
	}
	s.Success(fmt.Sprintf("✅ Successfully pulled %s", model))
	return nil
}

func createPage(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info("Create a custom model by modifying an existing model's system prompt")
	name := strings.TrimSpace(s.TextInput("model_name", "New model name:", createdModel))
	base := s.Select("base_model", "Base model:", baseModels, 0)
	system := s.TextArea("system_prompt", "System prompt:", createSystem)

	if s.Button("create_btn", "Create Model") {
		done := s.Status(fmt.Sprintf("Creating model %s...", name))
		resp, err := e.Models.CreateModel(ctx, helper.CreateOptions{Name: name, From: base, System: system})
		done()
		if err != nil {
			return err
		}
		s.Success("✅ Model created successfully!")
		s.Markdown(fmt.Sprintf("**Status:** %s", resp.Status))
		s.Info("You can now use this model in other demos")
	}

	if s.Button("test_btn", "Test Model") {
		done := s.Status(fmt.Sprintf("Asking %s...", name))
		resp, err := e.Models.Chat(ctx, name, userMessage("Hello! Who are you?"), nil)
		done()
		if err != nil {
			return err
		}
		s.Subheader("Test Response:")
		s.Markdown(resp.Message.Content)
	}
	return nil
}
