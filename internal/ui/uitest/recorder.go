// Package uitest provides an in-memory ui.Surface that records what a page rendered.
package uitest

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/mwiater/llamagallery/internal/ui"
)

// Call is one rendered element or widget.
type Call struct {
	Kind  string
	Key   string
	Label string
	Text  string
	Value any
}

// Recorder implements ui.Surface. Widget values come from Inputs, buttons listed in
// Pressed report true, and uploads come from Uploads.
type Recorder struct {
	mu sync.Mutex

	Inputs       map[string]any
	Pressed      map[string]bool
	Uploads      map[string]ui.Upload
	HideSource   bool
	Calls        []Call
	Placeholders []*Placeholder
	Bars         []*Bar
}

// New returns an empty recorder with source tabs hidden.
func New() *Recorder {
	return &Recorder{
		Inputs:     map[string]any{},
		Pressed:    map[string]bool{},
		Uploads:    map[string]ui.Upload{},
		HideSource: true,
	}
}

// Press marks buttons as pressed and returns the recorder.
func (r *Recorder) Press(keys ...string) *Recorder {
	for _, k := range keys {
		r.Pressed[k] = true
	}
	return r
}

// Set presets a widget value and returns the recorder.
func (r *Recorder) Set(key string, value any) *Recorder {
	r.Inputs[key] = value
	return r
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.Calls = append(r.Calls, c)
	r.mu.Unlock()
}

// Texts returns the Text of every call of the given kind, in order.
func (r *Recorder) Texts(kind string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.Calls {
		if c.Kind == kind {
			out = append(out, c.Text)
		}
	}
	return out
}

// Find returns the first call of kind with the given key.
func (r *Recorder) Find(kind, key string) (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Calls {
		if c.Kind == kind && c.Key == key {
			return c, true
		}
	}
	return Call{}, false
}

// Keys returns the keys of every widget of kind, in render order.
func (r *Recorder) Keys(kind string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.Calls {
		if c.Kind == kind {
			out = append(out, c.Key)
		}
	}
	return out
}

func (r *Recorder) Title(text string)     { r.record(Call{Kind: "title", Text: text}) }
func (r *Recorder) Header(text string)    { r.record(Call{Kind: "header", Text: text}) }
func (r *Recorder) Subheader(text string) { r.record(Call{Kind: "subheader", Text: text}) }
func (r *Recorder) Caption(text string)   { r.record(Call{Kind: "caption", Text: text}) }
func (r *Recorder) Markdown(text string)  { r.record(Call{Kind: "markdown", Text: text}) }
func (r *Recorder) Text(text string)      { r.record(Call{Kind: "text", Text: text}) }
func (r *Recorder) Info(text string)      { r.record(Call{Kind: "info", Text: text}) }
func (r *Recorder) Success(text string)   { r.record(Call{Kind: "success", Text: text}) }
func (r *Recorder) Warning(text string)   { r.record(Call{Kind: "warning", Text: text}) }
func (r *Recorder) Error(text string)     { r.record(Call{Kind: "error", Text: text}) }
func (r *Recorder) Divider()              { r.record(Call{Kind: "divider"}) }

func (r *Recorder) Code(src, language string) {
	r.record(Call{Kind: "code", Label: language, Text: src})
}

func (r *Recorder) JSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprint(v))
	}
	r.record(Call{Kind: "json", Text: string(data), Value: v})
}

func (r *Recorder) Metric(label, value string) {
	r.record(Call{Kind: "metric", Label: label, Text: value})
}

func (r *Recorder) Image(caption string, data []byte) {
	r.record(Call{Kind: "image", Label: caption, Value: len(data)})
}

func (r *Recorder) Details(label, body string) {
	r.record(Call{Kind: "details", Label: label, Text: body})
}

func (r *Recorder) Select(key, label string, options []string, index int) string {
	value := ""
	if index >= 0 && index < len(options) {
		value = options[index]
	}
	if v, ok := r.Inputs[key].(string); ok && slices.Contains(options, v) {
		value = v
	}
	r.record(Call{Kind: "select", Key: key, Label: label, Text: value, Value: slices.Clone(options)})
	return value
}

func (r *Recorder) Slider(key, label string, min, max, value, step float64) float64 {
	if v, ok := asFloat(r.Inputs[key]); ok {
		value = v
	}
	r.record(Call{Kind: "slider", Key: key, Label: label, Value: value})
	return value
}

func (r *Recorder) IntSlider(key, label string, min, max, value, step int) int {
	if v, ok := asFloat(r.Inputs[key]); ok {
		value = int(v)
	}
	r.record(Call{Kind: "slider", Key: key, Label: label, Value: value})
	return value
}

func (r *Recorder) NumberInput(key, label string, min, max, value int) int {
	if v, ok := asFloat(r.Inputs[key]); ok {
		value = int(v)
	}
	r.record(Call{Kind: "number", Key: key, Label: label, Value: value})
	return value
}

func (r *Recorder) TextInput(key, label, value string) string {
	if v, ok := r.Inputs[key].(string); ok {
		value = v
	}
	r.record(Call{Kind: "text_input", Key: key, Label: label, Text: value})
	return value
}

func (r *Recorder) TextArea(key, label, value string) string {
	if v, ok := r.Inputs[key].(string); ok {
		value = v
	}
	r.record(Call{Kind: "text_area", Key: key, Label: label, Text: value})
	return value
}

func (r *Recorder) Checkbox(key, label string, value bool) bool {
	if v, ok := r.Inputs[key].(bool); ok {
		value = v
	}
	r.record(Call{Kind: "checkbox", Key: key, Label: label, Value: value})
	return value
}

func (r *Recorder) FileUpload(key, label string, types []string) (ui.Upload, bool) {
	up, ok := r.Uploads[key]
	r.record(Call{Kind: "upload", Key: key, Label: label, Text: up.Name})
	return up, ok
}

func (r *Recorder) Button(key, label string) bool {
	pressed := r.Pressed[key]
	r.record(Call{Kind: "button", Key: key, Label: label, Value: pressed})
	return pressed
}

func (r *Recorder) ChatInput(key, placeholder string) (string, bool) {
	v, ok := r.Inputs[key].(string)
	r.record(Call{Kind: "chat_input", Key: key, Label: placeholder, Text: v})
	return v, ok && v != ""
}

func (r *Recorder) ChatMessage(role, content string) {
	r.record(Call{Kind: "chat_message", Label: role, Text: content})
}

func (r *Recorder) Status(text string) func() {
	r.record(Call{Kind: "status", Text: text})
	return func() { r.record(Call{Kind: "status_done", Text: text}) }
}

// Placeholder records every render it receives.
type Placeholder struct {
	mu      sync.Mutex
	Renders []string
}

func (p *Placeholder) Markdown(text string) {
	p.mu.Lock()
	p.Renders = append(p.Renders, text)
	p.mu.Unlock()
}

// Last returns the most recent render.
func (p *Placeholder) Last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Renders) == 0 {
		return ""
	}
	return p.Renders[len(p.Renders)-1]
}

func (r *Recorder) Placeholder() ui.Placeholder {
	p := &Placeholder{}
	r.mu.Lock()
	r.Placeholders = append(r.Placeholders, p)
	r.mu.Unlock()
	r.record(Call{Kind: "placeholder"})
	return p
}

// Bar records every fraction it is set to.
type Bar struct {
	mu     sync.Mutex
	Values []float64
}

func (b *Bar) Set(fraction float64) {
	b.mu.Lock()
	b.Values = append(b.Values, fraction)
	b.mu.Unlock()
}

func (r *Recorder) Progress() ui.Progress {
	b := &Bar{}
	r.mu.Lock()
	r.Bars = append(r.Bars, b)
	r.mu.Unlock()
	return b
}

func (r *Recorder) Tab(label string) bool {
	r.record(Call{Kind: "tab", Text: label})
	return !(r.HideSource && label == ui.TabSource)
}

func (r *Recorder) Sidebar() ui.Surface { return r }

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

var _ ui.Surface = (*Recorder)(nil)
