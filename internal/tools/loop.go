// internal/tools/loop.go
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwiater/llamagallery/internal/ollama"
)

// ChatFunc asks the model for the next assistant message given the whole conversation.
type ChatFunc func(ctx context.Context, messages []ollama.Message) (ollama.Message, error)

// CallResult is one executed tool call.
type CallResult struct {
	Name      string
	Arguments map[string]any
	Output    string
	Err       error
}

// Step is one model turn and the tool calls it triggered.
type Step struct {
	Iteration int
	Message   ollama.Message
	Calls     []CallResult
}

// LoopResult is the conversation after RunLoop and whether the model stopped asking for tools.
type LoopResult struct {
	Messages   []ollama.Message
	Iterations int
	Completed  bool
}

// Execute runs every tool call in msg and returns one tool message per call, in call order.
func Execute(ctx context.Context, reg *Registry, msg ollama.Message) ([]ollama.Message, []CallResult) {
	var (
		replies []ollama.Message
		results []CallResult
	)
	for _, call := range msg.ToolCalls {
		name := call.Function.Name
		args := map[string]any(call.Function.Arguments)
		out, err := reg.Call(ctx, name, args)
		content := out
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				content = nf.Error()
			} else {
				content = fmt.Sprintf("Error: %s", err)
			}
		}
		results = append(results, CallResult{Name: name, Arguments: args, Output: out, Err: err})
		replies = append(replies, ollama.Message{Role: "tool", Content: content, ToolName: name})
	}
	return replies, results
}

// RunLoop alternates model turns and tool execution until the model answers without tool
// calls or maxIterations turns have run. The assistant message of each turn is appended
// before the tool messages answering it. onStep, when set, sees every turn.
func RunLoop(ctx context.Context, chat ChatFunc, reg *Registry, messages []ollama.Message, maxIterations int, onStep func(Step)) (LoopResult, error) {
	res := LoopResult{Messages: append([]ollama.Message(nil), messages...)}
	for res.Iterations < maxIterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Iterations++
		msg, err := chat(ctx, res.Messages)
		if err != nil {
			return res, err
		}
		if msg.Role == "" {
			msg.Role = "assistant"
		}
		if msg.Content != "" || msg.Thinking != "" || len(msg.ToolCalls) > 0 {
			res.Messages = append(res.Messages, msg)
		}

		step := Step{Iteration: res.Iterations, Message: msg}
		if len(msg.ToolCalls) == 0 {
			res.Completed = true
			if onStep != nil {
				onStep(step)
			}
			return res, nil
		}
		replies, calls := Execute(ctx, reg, msg)
		res.Messages = append(res.Messages, replies...)
		step.Calls = calls
		if onStep != nil {
			onStep(step)
		}
	}
	return res, nil
}
