// internal/ui/term/term.go

// Package term renders gallery pages to a terminal. Widget values are preset rather than
// prompted for, so a page run is a single top-to-bottom pass.
package term

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/k0kubun/pp"

	"github.com/mwiater/llamagallery/internal/ui"
	"github.com/mwiater/llamagallery/internal/ui/highlight"
	"github.com/mwiater/llamagallery/internal/util"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	subheaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	captionStyle   = lipgloss.NewStyle().Faint(true)
	widgetStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tabStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	boldStyle      = lipgloss.NewStyle().Bold(true)

	infoColor    = color.New(color.FgCyan).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed, color.Bold).SprintFunc()

	boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// Options configures a terminal surface.
type Options struct {
	Out io.Writer
	// Inputs presets widget values by key.
	Inputs map[string]string
	// Press restricts which buttons report pressed. Nil presses every button.
	Press []string
	// ShowSource renders the source listing tab.
	ShowSource bool
	// Debug dumps JSON values with pp instead of indented JSON.
	Debug bool
	// QuietUntilInput suppresses output until a chat input is consumed, so a REPL re-run
	// does not replay the whole conversation.
	QuietUntilInput bool
	// Width wraps plain text and chat messages to this many columns. Zero disables wrapping.
	Width int
}

// Surface is a ui.Surface writing to a terminal.
type Surface struct {
	mu         sync.Mutex
	out        io.Writer
	inputs     map[string]string
	press      map[string]bool
	showSource bool
	debug      bool
	quiet      bool
	width      int
	dangling   bool
}

// New creates a terminal surface.
func New(opts Options) *Surface {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	s := &Surface{
		out:        out,
		inputs:     map[string]string{},
		showSource: opts.ShowSource,
		debug:      opts.Debug,
		quiet:      opts.QuietUntilInput,
		width:      opts.Width,
	}
	for k, v := range opts.Inputs {
		s.inputs[k] = v
	}
	if opts.Press != nil {
		s.press = map[string]bool{}
		for _, k := range opts.Press {
			s.press[k] = true
		}
	}
	return s
}

// SetInput presets the value of one widget, as the chat REPL does for each line read.
func (s *Surface) SetInput(key, value string) {
	s.mu.Lock()
	s.inputs[key] = value
	s.mu.Unlock()
}

// Quiet re-enables output suppression until the next consumed chat input.
func (s *Surface) Quiet() {
	s.mu.Lock()
	s.quiet = true
	s.mu.Unlock()
}

func (s *Surface) input(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.inputs[key]
	return v, ok
}

func (s *Surface) println(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiet {
		return
	}
	if s.dangling {
		fmt.Fprintln(s.out)
		s.dangling = false
	}
	fmt.Fprintln(s.out, text)
}

func (s *Surface) write(text string, dangling bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiet {
		return
	}
	fmt.Fprint(s.out, text)
	s.dangling = dangling
}

func (s *Surface) widget(label, value string) {
	s.println(widgetStyle.Render(fmt.Sprintf("%s: %s", label, value)))
}

func renderMarkdown(text string) string {
	return boldPattern.ReplaceAllStringFunc(text, func(m string) string {
		return boldStyle.Render(boldPattern.FindStringSubmatch(m)[1])
	})
}

func (s *Surface) Title(text string)     { s.println("\n" + titleStyle.Render(text)) }
func (s *Surface) Header(text string)    { s.println(headerStyle.Render(text)) }
func (s *Surface) Subheader(text string) { s.println(subheaderStyle.Render(text)) }
func (s *Surface) Caption(text string)   { s.println(captionStyle.Render(text)) }
func (s *Surface) Markdown(text string)  { s.println(renderMarkdown(text)) }
func (s *Surface) Text(text string)      { s.println(util.WrapToWidth(text, s.width)) }
func (s *Surface) Info(text string)      { s.println(infoColor("ℹ " + text)) }
func (s *Surface) Success(text string)   { s.println(successColor("✔ " + text)) }
func (s *Surface) Warning(text string)   { s.println(warningColor("⚠ " + text)) }
func (s *Surface) Error(text string)     { s.println(errorColor("✖ " + text)) }
func (s *Surface) Divider()              { s.println(captionStyle.Render(strings.Repeat("─", 40))) }

func (s *Surface) Code(src, language string) {
	if color.NoColor {
		s.println(src)
		return
	}
	s.println(strings.TrimRight(highlight.Terminal(src, language), "\n"))
}

func (s *Surface) JSON(v any) {
	if s.debug {
		s.mu.Lock()
		quiet := s.quiet
		s.mu.Unlock()
		if !quiet {
			pp.Fprintln(s.out, v)
		}
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.println(fmt.Sprint(v))
		return
	}
	s.Code(string(data), "json")
}

func (s *Surface) Metric(label, value string) {
	s.println(fmt.Sprintf("%s %s", captionStyle.Render(label+":"), boldStyle.Render(value)))
}

func (s *Surface) Image(caption string, data []byte) {
	s.println(captionStyle.Render(fmt.Sprintf("[image %s, %d bytes]", caption, len(data))))
}

func (s *Surface) Details(label, body string) {
	s.println(captionStyle.Render("▸ " + label))
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		s.println(captionStyle.Render("  " + line))
	}
}

func (s *Surface) Select(key, label string, options []string, index int) string {
	value := ""
	if index >= 0 && index < len(options) {
		value = options[index]
	}
	if v, ok := s.input(key); ok && slices.Contains(options, v) {
		value = v
	}
	s.widget(label, value)
	return value
}

func (s *Surface) Slider(key, label string, min, max, value, step float64) float64 {
	if v, ok := s.input(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			value = clamp(f, min, max)
		}
	}
	s.widget(label, strconv.FormatFloat(value, 'f', -1, 64))
	return value
}

func (s *Surface) IntSlider(key, label string, min, max, value, step int) int {
	return s.intWidget(key, label, min, max, value)
}

func (s *Surface) NumberInput(key, label string, min, max, value int) int {
	return s.intWidget(key, label, min, max, value)
}

func (s *Surface) intWidget(key, label string, min, max, value int) int {
	if v, ok := s.input(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			value = int(clamp(float64(n), float64(min), float64(max)))
		}
	}
	s.widget(label, strconv.Itoa(value))
	return value
}

func (s *Surface) TextInput(key, label, value string) string {
	if v, ok := s.input(key); ok {
		value = v
	}
	s.widget(label, value)
	return value
}

func (s *Surface) TextArea(key, label, value string) string {
	return s.TextInput(key, label, value)
}

func (s *Surface) Checkbox(key, label string, value bool) bool {
	if v, ok := s.input(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			value = b
		}
	}
	s.widget(label, strconv.FormatBool(value))
	return value
}

// FileUpload reads the file whose path is preset under key.
func (s *Surface) FileUpload(key, label string, types []string) (ui.Upload, bool) {
	path, ok := s.input(key)
	if !ok || strings.TrimSpace(path) == "" {
		s.widget(label, "(none)")
		return ui.Upload{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.Error(fmt.Sprintf("could not read %s: %v", path, err))
		return ui.Upload{}, false
	}
	s.widget(label, filepath.Base(path))
	return ui.Upload{Name: filepath.Base(path), Data: data}, true
}

func (s *Surface) Button(key, label string) bool {
	pressed := s.press == nil || s.press[key]
	if pressed {
		s.println(widgetStyle.Render("▶ " + label))
	}
	return pressed
}

// ChatInput consumes the value preset under key.
func (s *Surface) ChatInput(key, placeholder string) (string, bool) {
	s.mu.Lock()
	v, ok := s.inputs[key]
	delete(s.inputs, key)
	if ok && v != "" {
		s.quiet = false
	}
	s.mu.Unlock()
	return v, ok && v != ""
}

func (s *Surface) ChatMessage(role, content string) {
	label := assistantStyle.Render(role + " ›")
	if role == "user" {
		label = userStyle.Render("you ›")
	}
	s.println(label + " " + renderMarkdown(util.WrapToWidth(content, s.width)))
}

func (s *Surface) Status(text string) func() {
	s.println(captionStyle.Render("… " + text))
	return func() {}
}

func (s *Surface) Tab(label string) bool {
	if label == ui.TabSource && !s.showSource {
		return false
	}
	s.println("\n" + tabStyle.Render(label))
	return true
}

func (s *Surface) Sidebar() ui.Surface { return s }

func (s *Surface) Placeholder() ui.Placeholder {
	return &placeholder{s: s}
}

func (s *Surface) Progress() ui.Progress {
	return &progress{s: s, last: -1}
}

// placeholder appends only the new suffix when a render extends the previous one, which is
// the streaming case. Any other render starts a fresh line.
type placeholder struct {
	s     *Surface
	shown string
}

func (p *placeholder) Markdown(text string) {
	body := strings.TrimSuffix(text, ui.Cursor)
	if p.shown != "" && strings.HasPrefix(body, p.shown) {
		p.s.write(body[len(p.shown):], true)
		p.shown = body
		return
	}
	if p.shown != "" {
		p.s.write("\n", false)
	}
	p.s.write(body, true)
	p.shown = body
}

type progress struct {
	s    *Surface
	last int
}

func (p *progress) Set(fraction float64) {
	pct := int(clamp(fraction, 0, 1) * 100)
	if pct == p.last {
		return
	}
	p.last = pct
	filled := pct / 5
	bar := fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("█", filled), strings.Repeat("░", 20-filled), pct)
	if color.NoColor {
		if pct == 100 {
			p.s.println(bar)
		}
		return
	}
	p.s.write("\r\x1b[K"+bar, pct < 100)
	if pct == 100 {
		p.s.write("\n", false)
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

var _ ui.Surface = (*Surface)(nil)
