package pages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/mwiater/llamagallery/internal/helper"
	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/tools"
	"github.com/mwiater/llamagallery/internal/ui"
)

var (
	mathModels  = []string{"llama3.1", "llama3.2", "qwen2.5"}
	multiModels = []string{"qwen3", "llama3.1"}
)

// gptOSSIterations bounds the GPT-OSS tool loops.
const gptOSSIterations = 5

func argsString(args map[string]any) string {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprint(args)
	}
	return string(data)
}

func mustIndent(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func asAssistant(msg ollama.Message) ollama.Message {
	if msg.Role == "" {
		msg.Role = "assistant"
	}
	return msg
}

// collect drains a streamed chat turn into one assistant message. The callbacks see the
// accumulated thinking and content after every fragment that extends them.
func collect(seq iter.Seq2[ollama.ChatResponse, error], onThinking, onContent func(string)) (ollama.Message, error) {
	var thinking, content strings.Builder
	msg := ollama.Message{Role: "assistant"}
	for chunk, err := range seq {
		if err != nil {
			return msg, err
		}
		if t := chunk.Message.Thinking; t != "" {
			thinking.WriteString(t)
			if onThinking != nil {
				onThinking(thinking.String())
			}
		}
		if c := chunk.Message.Content; c != "" {
			content.WriteString(c)
			if onContent != nil {
				onContent(content.String())
			}
		}
		msg.ToolCalls = append(msg.ToolCalls, chunk.Message.ToolCalls...)
	}
	msg.Thinking = thinking.String()
	msg.Content = content.String()
	return msg, nil
}

// showCalls lists executed tool calls, one line each.
func showCalls(s ui.Surface, calls []tools.CallResult) {
	for _, c := range calls {
		var nf *tools.NotFoundError
		switch {
		case errors.As(c.Err, &nf):
			s.Error(nf.Error())
		case c.Err != nil:
			s.Error(fmt.Sprintf("Error: %s", c.Err))
		default:
			s.Markdown(fmt.Sprintf("- `%s` with args `%s` → %s", c.Name, argsString(c.Arguments), c.Output))
		}
	}
}

// mathRound asks once with the math tools, runs the requested calls and asks again for the
// final answer. ask performs the model calls so the async page can move them off the page
// goroutine.
func mathRound(ctx context.Context, e *Env, model, prompt string, ask func(ctx context.Context, msgs []ollama.Message, withTools bool) (*ollama.ChatResponse, error)) ([]tools.CallResult, string, error) {
	reg := tools.NewRegistry(tools.Math()...)
	msgs := userMessage(prompt)

	resp, err := ask(ctx, msgs, true)
	if err != nil {
		return nil, "", err
	}
	if len(resp.Message.ToolCalls) == 0 {
		return nil, "", nil
	}
	replies, calls := tools.Execute(ctx, reg, resp.Message)
	msgs = append(msgs, asAssistant(resp.Message))
	msgs = append(msgs, replies...)

	final, err := ask(ctx, msgs, false)
	if err != nil {
		return calls, "", err
	}
	return calls, final.Message.Content, nil
}

func mathAsker(e *Env, model string) func(context.Context, []ollama.Message, bool) (*ollama.ChatResponse, error) {
	defs := tools.NewRegistry(tools.Math()...).Definitions()
	return func(ctx context.Context, msgs []ollama.Message, withTools bool) (*ollama.ChatResponse, error) {
		if withTools {
			return e.Models.ChatWithTools(ctx, model, msgs, defs, nil)
		}
		return e.Models.Chat(ctx, model, msgs, nil)
	}
}

func toolsPage(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info("The model can call functions to perform calculations")
	model := e.model(ctx, mathModels...)
	prompt := s.TextInput("prompt", "Ask a math question:", "What is three plus one?")
	if !s.Button("send_btn", "Send") {
		return nil
	}

	done := s.Status("Processing...")
	calls, answer, err := mathRound(ctx, e, model, prompt, mathAsker(e, model))
	done()
	if err != nil {
		return err
	}
	s.Subheader("Model Response:")
	if len(calls) == 0 {
		s.Warning("No tool calls returned from model")
		return nil
	}
	for _, c := range calls {
		s.Markdown(fmt.Sprintf("🔧 **Calling function:** `%s`", c.Name))
		s.Markdown(fmt.Sprintf("**Arguments:** %s", argsString(c.Arguments)))
		if c.Err != nil {
			s.Error(fmt.Sprintf("Error: %s", c.Err))
			continue
		}
		s.Markdown(fmt.Sprintf("**Function output:** %s", c.Output))
	}
	s.Success("**Final Response:**")
	s.Markdown(answer)
	return nil
}

func asyncTools(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info("Async function calling allows for non-blocking operations")
	model := e.model(ctx, mathModels...)
	prompt := s.TextInput("prompt", "Ask a math question:", "What is three plus one?")
	if !s.Button("send_btn", "Send") {
		return nil
	}

	ask := mathAsker(e, model)
	asyncAsk := func(ctx context.Context, msgs []ollama.Message, withTools bool) (*ollama.ChatResponse, error) {
		return helper.Go(ctx, func(ctx context.Context) (*ollama.ChatResponse, error) {
			return ask(ctx, msgs, withTools)
		}).Wait(ctx)
	}

	done := s.Status("Processing asynchronously...")
	calls, answer, err := mathRound(ctx, e, model, prompt, asyncAsk)
	done()
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		s.Warning("No tool calls returned from model")
		return nil
	}
	s.Subheader("Tool Calls:")
	for _, c := range calls {
		s.Markdown(fmt.Sprintf("🔧 **Function:** `%s`", c.Name))
		s.Markdown(fmt.Sprintf("**Arguments:** %s", argsString(c.Arguments)))
		if c.Err != nil {
			s.Error(fmt.Sprintf("Error: %s", c.Err))
		} else {
			s.Markdown(fmt.Sprintf("**Output:** %s", c.Output))
		}
		s.Divider()
	}
	s.Success("**Final Response:**")
	s.Markdown(answer)
	return nil
}

// citySelects renders the two city pickers side by side.
func citySelects(s ui.Surface, cities []string, second int) (string, string) {
	return s.Select("city1", "First city:", cities, 0), s.Select("city2", "Second city:", cities, second)
}

func multiTool(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info("The model can call multiple tools to answer complex questions")
	model := e.model(ctx, multiModels...)
	city1, city2 := citySelects(s, tools.Cities, 1)
	if !s.Button("weather_btn", "Get Weather Info") {
		return nil
	}

	reg := tools.NewRegistry(tools.CityWeather(e.Rand)...)
	msgs := userMessage(fmt.Sprintf("What is the temperature in %s? and what are the weather conditions in %s?", city1, city2))
	s.Markdown(fmt.Sprintf("**Prompt:** %s", msgs[0].Content))

	thinkingPH := s.Placeholder()
	onThinking := func(text string) { thinkingPH.Markdown("### 🤔 Thinking:\n\n" + text) }
	msg, err := collect(e.Models.ChatWithToolsStream(ctx, model, msgs, reg.Definitions(), ollama.ThinkOn()), onThinking, nil)
	if err != nil {
		return err
	}
	if len(msg.ToolCalls) == 0 {
		if msg.Content != "" {
			s.Markdown(msg.Content)
		}
		s.Warning("No tool calls returned from model")
		return nil
	}

	replies, calls := tools.Execute(ctx, reg, msg)
	msgs = append(msgs, msg)
	msgs = append(msgs, replies...)

	s.Subheader("🔧 Tool Calls:")
	for i, c := range calls {
		s.Markdown(fmt.Sprintf("**Function:** `%s` with arguments: %s", c.Name, argsString(c.Arguments)))
		s.Markdown(fmt.Sprintf("**Output:** %s", replies[i].Content))
		s.Divider()
	}

	s.Subheader("Getting final result...")
	final, err := collect(e.Models.ChatWithToolsStream(ctx, model, msgs, reg.Definitions(), ollama.ThinkOn()), nil, nil)
	if err != nil {
		return err
	}
	s.Success("**Final Result:**")
	s.Markdown(final.Content)
	return nil
}

func gptOSSQuery(s ui.Surface) string {
	s.Info(fmt.Sprintf("⚠️ Note: This requires the '%s' model", levelsModel))
	city1, city2 := citySelects(s, tools.WideCities, 5)
	return fmt.Sprintf("What is the weather like in %s? What are the conditions in %s?", city1, city2)
}

func gptOSSTools(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	query := gptOSSQuery(s)
	if !s.Button("weather_btn", "Get Weather") {
		return nil
	}
	s.Markdown(fmt.Sprintf("**Query:** %s", query))
	s.Divider()

	reg := tools.NewRegistry(tools.Weather(e.Rand)...)
	chat := func(ctx context.Context, msgs []ollama.Message) (ollama.Message, error) {
		resp, err := e.Models.ChatWithTools(ctx, levelsModel, msgs, reg.Definitions(), nil)
		if err != nil {
			return ollama.Message{}, err
		}
		return resp.Message, nil
	}
	onStep := func(step tools.Step) {
		if step.Message.Content != "" {
			s.Markdown(fmt.Sprintf("**Content (iteration %d):**", step.Iteration))
			s.Markdown(step.Message.Content)
		}
		if step.Message.Thinking != "" {
			s.Details(fmt.Sprintf("🤔 Thinking (iteration %d)", step.Iteration), step.Message.Thinking)
		}
		if len(step.Calls) > 0 {
			s.Markdown(fmt.Sprintf("**🔧 Tool Calls (iteration %d):**", step.Iteration))
			showCalls(s, step.Calls)
			s.Divider()
		}
	}

	done := s.Status("Processing...")
	res, err := tools.RunLoop(ctx, chat, reg, userMessage(query), gptOSSIterations, onStep)
	done()
	if err != nil {
		return err
	}
	if res.Completed {
		s.Success("✅ Completed - No more tool calls")
	}
	return nil
}

func gptOSSToolsStream(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	query := gptOSSQuery(s)
	if !s.Button("weather_btn", "Get Weather with Streaming") {
		return nil
	}
	s.Markdown(fmt.Sprintf("**Query:** %s", query))
	s.Divider()

	reg := tools.NewRegistry(tools.Weather(e.Rand)...)
	iteration := 0
	chat := func(ctx context.Context, msgs []ollama.Message) (ollama.Message, error) {
		iteration++
		s.Subheader(fmt.Sprintf("Iteration %d", iteration))
		thinkingPH := s.Placeholder()
		contentPH := s.Placeholder()
		msg, err := collect(e.Models.ChatWithToolsStream(ctx, levelsModel, msgs, reg.Definitions(), nil),
			func(text string) { thinkingPH.Markdown("🤔 *Thinking:* " + text) },
			func(text string) { contentPH.Markdown("**Content:** " + text + ui.Cursor) },
		)
		if msg.Content != "" {
			contentPH.Markdown("**Content:** " + msg.Content)
		}
		return msg, err
	}
	onStep := func(step tools.Step) {
		if len(step.Calls) == 0 {
			return
		}
		s.Markdown("**🔧 Tool Calls:**")
		showCalls(s, step.Calls)
		s.Divider()
	}

	res, err := tools.RunLoop(ctx, chat, reg, userMessage(query), gptOSSIterations, onStep)
	if err != nil {
		return err
	}
	if res.Completed {
		s.Success("✅ Completed - No more tool calls")
	}
	return nil
}
