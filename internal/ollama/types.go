// internal/ollama/types.go
package ollama

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Options carries model runtime options such as temperature or num_predict.
type Options map[string]any

// ImageData is raw image bytes; encoding/json writes it as base64 as the API expects.
type ImageData []byte

// Message is one turn of a chat conversation.
type Message struct {
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Thinking  string      `json:"thinking,omitempty"`
	Images    []ImageData `json:"images,omitempty"`
	ToolCalls []ToolCall  `json:"tool_calls,omitempty"`
	ToolName  string      `json:"tool_name,omitempty"`
}

// ToolCall is a model-issued request to invoke a named function.
type ToolCall struct {
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Index     int           `json:"index,omitempty"`
	Name      string        `json:"name"`
	Arguments ToolArguments `json:"arguments"`
}

// ToolArguments accepts either a JSON object or a string holding a JSON object, since some
// models emit the latter.
type ToolArguments map[string]any

func (a *ToolArguments) UnmarshalJSON(raw []byte) error {
	args := map[string]any{}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		*a = args
		return nil
	}
	if err := json.Unmarshal(raw, &args); err == nil {
		*a = args
		return nil
	}
	var argString string
	if err := json.Unmarshal(raw, &argString); err != nil {
		return fmt.Errorf("parse tool arguments: %w", err)
	}
	if argString = strings.TrimSpace(argString); argString == "" {
		*a = args
		return nil
	}
	if err := json.Unmarshal([]byte(argString), &args); err != nil {
		return fmt.Errorf("parse tool arguments string: %w", err)
	}
	*a = args
	return nil
}

// Tool declares a callable function to the model.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Think requests reasoning output. It is either a switch or one of the levels "low",
// "medium" and "high".
type Think struct {
	Value any
}

// ThinkOn enables thinking.
func ThinkOn() *Think { return &Think{Value: true} }

// ThinkLevel requests a named reasoning effort.
func ThinkLevel(level string) *Think { return &Think{Value: level} }

func (t *Think) MarshalJSON() ([]byte, error) {
	switch v := t.Value.(type) {
	case bool, string:
		return json.Marshal(v)
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("think must be a bool or a level string, got %T", v)
	}
}

func (t *Think) UnmarshalJSON(raw []byte) error {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		t.Value = b
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("think must be a bool or a level string")
	}
	t.Value = s
	return nil
}

// Metrics are the timing counters attached to the final fragment of a generation.
type Metrics struct {
	TotalDuration      time.Duration `json:"total_duration,omitempty"`
	LoadDuration       time.Duration `json:"load_duration,omitempty"`
	PromptEvalCount    int           `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration time.Duration `json:"prompt_eval_duration,omitempty"`
	EvalCount          int           `json:"eval_count,omitempty"`
	EvalDuration       time.Duration `json:"eval_duration,omitempty"`
}

// TokensPerSecond reports eval throughput, or zero when the host did not time the run.
func (m Metrics) TokensPerSecond() float64 {
	if m.EvalDuration <= 0 {
		return 0
	}
	return float64(m.EvalCount) / m.EvalDuration.Seconds()
}

// TokenLogprob is the log probability of one sampled token and its alternatives.
type TokenLogprob struct {
	Token       string         `json:"token"`
	Logprob     float64        `json:"logprob"`
	Bytes       []int          `json:"bytes,omitempty"`
	TopLogprobs []TokenLogprob `json:"top_logprobs,omitempty"`
}

type ChatRequest struct {
	Model       string          `json:"model"`
	Messages    []Message       `json:"messages"`
	Tools       []Tool          `json:"tools,omitempty"`
	Format      json.RawMessage `json:"format,omitempty"`
	Options     Options         `json:"options,omitempty"`
	Stream      *bool           `json:"stream,omitempty"`
	Think       *Think          `json:"think,omitempty"`
	KeepAlive   *int            `json:"keep_alive,omitempty"`
	Logprobs    bool            `json:"logprobs,omitempty"`
	TopLogprobs int             `json:"top_logprobs,omitempty"`
}

type ChatResponse struct {
	Model      string         `json:"model"`
	CreatedAt  time.Time      `json:"created_at"`
	Message    Message        `json:"message"`
	Done       bool           `json:"done"`
	DoneReason string         `json:"done_reason,omitempty"`
	Logprobs   []TokenLogprob `json:"logprobs,omitempty"`
	Metrics
}

type GenerateRequest struct {
	Model       string          `json:"model"`
	Prompt      string          `json:"prompt"`
	Suffix      string          `json:"suffix,omitempty"`
	System      string          `json:"system,omitempty"`
	Images      []ImageData     `json:"images,omitempty"`
	Format      json.RawMessage `json:"format,omitempty"`
	Options     Options         `json:"options,omitempty"`
	Stream      *bool           `json:"stream,omitempty"`
	Think       *Think          `json:"think,omitempty"`
	Raw         bool            `json:"raw,omitempty"`
	KeepAlive   *int            `json:"keep_alive,omitempty"`
	Logprobs    bool            `json:"logprobs,omitempty"`
	TopLogprobs int             `json:"top_logprobs,omitempty"`
}

type GenerateResponse struct {
	Model      string         `json:"model"`
	CreatedAt  time.Time      `json:"created_at"`
	Response   string         `json:"response"`
	Thinking   string         `json:"thinking,omitempty"`
	Done       bool           `json:"done"`
	DoneReason string         `json:"done_reason,omitempty"`
	Context    []int          `json:"context,omitempty"`
	Logprobs   []TokenLogprob `json:"logprobs,omitempty"`
	Metrics
}

// EmbedRequest embeds one or more inputs. Input is a string or a []string.
type EmbedRequest struct {
	Model      string  `json:"model"`
	Input      any     `json:"input"`
	Truncate   *bool   `json:"truncate,omitempty"`
	Dimensions int     `json:"dimensions,omitempty"`
	Options    Options `json:"options,omitempty"`
}

type EmbedResponse struct {
	Model           string        `json:"model"`
	Embeddings      [][]float32   `json:"embeddings"`
	TotalDuration   time.Duration `json:"total_duration,omitempty"`
	LoadDuration    time.Duration `json:"load_duration,omitempty"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
}

type PullRequest struct {
	Model    string `json:"model"`
	Insecure bool   `json:"insecure,omitempty"`
	Stream   *bool  `json:"stream,omitempty"`
}

type PushRequest struct {
	Model    string `json:"model"`
	Insecure bool   `json:"insecure,omitempty"`
	Stream   *bool  `json:"stream,omitempty"`
}

type CreateRequest struct {
	Model      string         `json:"model"`
	From       string         `json:"from,omitempty"`
	System     string         `json:"system,omitempty"`
	Template   string         `json:"template,omitempty"`
	License    []string       `json:"license,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Messages   []Message      `json:"messages,omitempty"`
	Quantize   string         `json:"quantize,omitempty"`
	Stream     *bool          `json:"stream,omitempty"`
}

// ProgressResponse is one status fragment of a pull, push or create.
type ProgressResponse struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
}

// Fraction reports completed/total, or -1 when the fragment carries no byte counts.
func (p ProgressResponse) Fraction() float64 {
	if p.Total <= 0 {
		return -1
	}
	return float64(p.Completed) / float64(p.Total)
}

type DeleteRequest struct {
	Model string `json:"model"`
}

type CopyRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type ShowRequest struct {
	Model   string `json:"model"`
	Verbose bool   `json:"verbose,omitempty"`
}

type ModelDetails struct {
	ParentModel       string   `json:"parent_model,omitempty"`
	Format            string   `json:"format,omitempty"`
	Family            string   `json:"family,omitempty"`
	Families          []string `json:"families,omitempty"`
	ParameterSize     string   `json:"parameter_size,omitempty"`
	QuantizationLevel string   `json:"quantization_level,omitempty"`
}

type ShowResponse struct {
	License      string          `json:"license,omitempty"`
	Modelfile    string          `json:"modelfile,omitempty"`
	Parameters   string          `json:"parameters,omitempty"`
	Template     string          `json:"template,omitempty"`
	System       string          `json:"system,omitempty"`
	Details      ModelDetails    `json:"details,omitempty"`
	Messages     []Message       `json:"messages,omitempty"`
	ModelInfo    json.RawMessage `json:"model_info,omitempty"`
	Capabilities []string        `json:"capabilities,omitempty"`
	ModifiedAt   time.Time       `json:"modified_at,omitempty"`
}

// ContextLength reads "<general.architecture>.context_length" out of model_info.
func (s ShowResponse) ContextLength() int {
	if len(s.ModelInfo) == 0 {
		return 0
	}
	arch := gjson.GetBytes(s.ModelInfo, `general\.architecture`).String()
	if arch == "" {
		return 0
	}
	return int(gjson.GetBytes(s.ModelInfo, escapeKey(arch)+`\.context_length`).Int())
}

// HasCapability reports whether the model advertises a capability such as "tools" or "vision".
func (s ShowResponse) HasCapability(name string) bool {
	for _, c := range s.Capabilities {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

func escapeKey(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}

type ListModelResponse struct {
	Name       string        `json:"name"`
	Model      string        `json:"model"`
	ModifiedAt time.Time     `json:"modified_at"`
	Size       int64         `json:"size"`
	Digest     string        `json:"digest"`
	Details    *ModelDetails `json:"details,omitempty"`
}

// Ref is the identifier used to address the model, preferring the "model" field.
func (m ListModelResponse) Ref() string {
	if m.Model != "" {
		return m.Model
	}
	return m.Name
}

type ListResponse struct {
	Models []ListModelResponse `json:"models"`
}

type ProcessModelResponse struct {
	Name          string        `json:"name"`
	Model         string        `json:"model"`
	Size          int64         `json:"size"`
	Digest        string        `json:"digest"`
	Details       *ModelDetails `json:"details,omitempty"`
	ExpiresAt     time.Time     `json:"expires_at"`
	SizeVRAM      int64         `json:"size_vram"`
	ContextLength int           `json:"context_length,omitempty"`
}

// Ref is the identifier used to address the model, preferring the "model" field.
func (m ProcessModelResponse) Ref() string {
	if m.Model != "" {
		return m.Model
	}
	return m.Name
}

type ProcessResponse struct {
	Models []ProcessModelResponse `json:"models"`
}

type VersionResponse struct {
	Version string `json:"version"`
}

type WebSearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type WebSearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type WebSearchResponse struct {
	Results []WebSearchResult `json:"results"`
}

type WebFetchRequest struct {
	URL string `json:"url"`
}

type WebFetchResponse struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Links   []string `json:"links"`
}
