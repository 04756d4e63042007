package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/tools"
	"github.com/mwiater/llamagallery/internal/util"
)

var webModels = []string{"qwen3", "llama3.1"}

const (
	webIterations = 3
	previewRunes  = 500
)

func webSearch(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info("⚠️ Note: Web search requires API access")
	model := e.model(ctx, webModels...)
	query := s.TextInput("query", "Enter your query:", "what is ollama's new engine")
	if !s.Button("search_btn", "Search") {
		return nil
	}
	s.Markdown(fmt.Sprintf("**Query:** %s", query))
	s.Divider()

	reg := tools.NewRegistry(tools.Web(e.Models.Client(), e.Capper)...)
	chat := func(ctx context.Context, msgs []ollama.Message) (ollama.Message, error) {
		resp, err := e.Models.ChatWithTools(ctx, model, msgs, reg.Definitions(), ollama.ThinkOn())
		if err != nil {
			return ollama.Message{}, err
		}
		return resp.Message, nil
	}
	onStep := func(step tools.Step) {
		if step.Message.Thinking != "" {
			s.Details(fmt.Sprintf("🤔 Thinking (iteration %d)", step.Iteration), step.Message.Thinking)
		}
		if step.Message.Content != "" {
			s.Markdown(fmt.Sprintf("**Content (iteration %d):**", step.Iteration))
			s.Markdown(step.Message.Content)
		}
		if len(step.Calls) == 0 {
			return
		}
		s.Markdown(fmt.Sprintf("**🔧 Tool Calls (iteration %d):**", step.Iteration))
		for _, c := range step.Calls {
			var nf *tools.NotFoundError
			switch {
			case errors.As(c.Err, &nf):
				s.Error(fmt.Sprintf("Tool %s not found", c.Name))
				continue
			case c.Err != nil:
				s.Markdown(fmt.Sprintf("- Calling `%s` with: `%s`", c.Name, argsString(c.Arguments)))
				s.Error(fmt.Sprintf("Error: %s", c.Err))
				continue
			}
			s.Markdown(fmt.Sprintf("- Calling `%s` with: `%s`", c.Name, argsString(c.Arguments)))
			s.Details("📊 Results Preview", util.Head(c.Output, previewRunes))
		}
		s.Divider()
	}

	done := s.Status("Searching...")
	res, err := tools.RunLoop(ctx, chat, reg, userMessage(query), webIterations, onStep)
	done()
	if err != nil {
		return err
	}
	if res.Completed {
		s.Success("✅ Search completed")
	}
	return nil
}
