// internal/ui/web/surface.go
package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/mwiater/llamagallery/internal/session"
	"github.com/mwiater/llamagallery/internal/ui"
	"github.com/mwiater/llamagallery/internal/ui/highlight"
)

const (
	pressField     = "_press"
	submittedField = "_submitted"
	uploadPrefix   = "upload:"
)

var markdown = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps()))

func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return buf.String()
}

// surface streams one page run as HTML. Widget values come from the submitted form.
type surface struct {
	mu        sync.Mutex
	w         io.Writer
	flush     func()
	form      url.Values
	files     map[string][]*multipart.FileHeader
	sess      *session.State
	submitted bool
	pressed   string
	nextID    int
	inTab     bool
}

func newSurface(w http.ResponseWriter, r *http.Request, sess *session.State) *surface {
	rc := http.NewResponseController(w)
	s := &surface{
		w:     w,
		flush: func() { _ = rc.Flush() },
		form:  r.Form,
		sess:  sess,
	}
	if s.form == nil {
		s.form = url.Values{}
	}
	if r.MultipartForm != nil {
		s.files = r.MultipartForm.File
	}
	s.submitted = s.form.Get(submittedField) != ""
	s.pressed = s.form.Get(pressField)
	return s
}

func (s *surface) emit(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
	s.flush()
}

func (s *surface) id(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

// script runs a call to one of the page's update helpers with JSON-encoded arguments.
func (s *surface) script(fn string, args ...any) {
	encoded := make([]string, 0, len(args))
	for _, a := range args {
		data, _ := json.Marshal(a)
		encoded = append(encoded, string(data))
	}
	s.emit("<script>%s(%s)</script>\n", fn, strings.Join(encoded, ","))
}

func (s *surface) value(key string) (string, bool) {
	if !s.form.Has(key) {
		return "", false
	}
	return s.form.Get(key), true
}

func esc(text string) string { return html.EscapeString(text) }

func (s *surface) Title(text string)     { s.emit("<h1>%s</h1>\n", esc(text)) }
func (s *surface) Header(text string)    { s.emit("<h2>%s</h2>\n", esc(text)) }
func (s *surface) Subheader(text string) { s.emit("<h3>%s</h3>\n", esc(text)) }
func (s *surface) Caption(text string)   { s.emit("<p class=\"caption\">%s</p>\n", esc(text)) }
func (s *surface) Markdown(text string)  { s.emit("<div class=\"md\">%s</div>\n", renderMarkdown(text)) }
func (s *surface) Text(text string)      { s.emit("<pre class=\"text\">%s</pre>\n", esc(text)) }
func (s *surface) Divider()              { s.emit("<hr>\n") }

func (s *surface) alert(kind, text string) {
	s.emit("<div class=\"alert %s\">%s</div>\n", kind, renderMarkdown(text))
}

func (s *surface) Info(text string)    { s.alert("info", text) }
func (s *surface) Success(text string) { s.alert("success", text) }
func (s *surface) Warning(text string) { s.alert("warning", text) }
func (s *surface) Error(text string)   { s.alert("error", text) }

func codeHTML(src, language string) string {
	if out, ok := highlight.HTML(src, language); ok {
		return out
	}
	return "<pre><code>" + esc(src) + "</code></pre>"
}

func (s *surface) Code(src, language string) {
	s.emit("<div class=\"code\">%s</div>\n", codeHTML(src, language))
}

func (s *surface) JSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.Text(fmt.Sprint(v))
		return
	}
	s.Code(string(data), "json")
}

func (s *surface) Metric(label, value string) {
	s.emit("<div class=\"metric\"><span>%s</span><strong>%s</strong></div>\n", esc(label), esc(value))
}

func (s *surface) Image(caption string, data []byte) {
	mime := http.DetectContentType(data)
	s.emit("<figure><img src=\"data:%s;base64,%s\" alt=\"%s\"><figcaption>%s</figcaption></figure>\n",
		mime, base64.StdEncoding.EncodeToString(data), esc(caption), esc(caption))
}

func (s *surface) Details(label, body string) {
	s.emit("<details><summary>%s</summary>%s</details>\n", esc(label), renderMarkdown(body))
}

func (s *surface) field(key, label, control string) {
	s.emit("<label class=\"field\" for=\"%s\">%s</label>%s\n", esc(key), esc(label), control)
}

func (s *surface) Select(key, label string, options []string, index int) string {
	value := ""
	if index >= 0 && index < len(options) {
		value = options[index]
	}
	if v, ok := s.value(key); ok && slices.Contains(options, v) {
		value = v
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<select id=\"%s\" name=\"%s\" onchange=\"this.form.requestSubmit()\">", esc(key), esc(key))
	for _, o := range options {
		selected := ""
		if o == value {
			selected = " selected"
		}
		fmt.Fprintf(&b, "<option%s>%s</option>", selected, esc(o))
	}
	b.WriteString("</select>")
	s.field(key, label, b.String())
	return value
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *surface) Slider(key, label string, min, max, value, step float64) float64 {
	if v, ok := s.value(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			value = clamp(f, min, max)
		}
	}
	s.field(key, label, s.rangeControl(key, strconv.FormatFloat(min, 'f', -1, 64), strconv.FormatFloat(max, 'f', -1, 64),
		strconv.FormatFloat(step, 'f', -1, 64), strconv.FormatFloat(value, 'f', -1, 64)))
	return value
}

func (s *surface) IntSlider(key, label string, min, max, value, step int) int {
	value = s.intValue(key, min, max, value)
	s.field(key, label, s.rangeControl(key, strconv.Itoa(min), strconv.Itoa(max), strconv.Itoa(step), strconv.Itoa(value)))
	return value
}

func (s *surface) rangeControl(key, min, max, step, value string) string {
	return fmt.Sprintf("<input type=\"range\" id=\"%s\" name=\"%s\" min=\"%s\" max=\"%s\" step=\"%s\" value=\"%s\" oninput=\"this.nextElementSibling.value=this.value\"><output>%s</output>",
		esc(key), esc(key), min, max, step, value, value)
}

func (s *surface) intValue(key string, min, max, value int) int {
	if v, ok := s.value(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			value = int(clamp(float64(n), float64(min), float64(max)))
		}
	}
	return value
}

func (s *surface) NumberInput(key, label string, min, max, value int) int {
	value = s.intValue(key, min, max, value)
	s.field(key, label, fmt.Sprintf("<input type=\"number\" id=\"%s\" name=\"%s\" min=\"%d\" max=\"%d\" value=\"%d\">",
		esc(key), esc(key), min, max, value))
	return value
}

func (s *surface) TextInput(key, label, value string) string {
	if v, ok := s.value(key); ok {
		value = v
	}
	s.field(key, label, fmt.Sprintf("<input type=\"text\" id=\"%s\" name=\"%s\" value=\"%s\">", esc(key), esc(key), esc(value)))
	return value
}

func (s *surface) TextArea(key, label, value string) string {
	if v, ok := s.value(key); ok {
		value = v
	}
	s.field(key, label, fmt.Sprintf("<textarea id=\"%s\" name=\"%s\" rows=\"5\">%s</textarea>", esc(key), esc(key), esc(value)))
	return value
}

func (s *surface) Checkbox(key, label string, value bool) bool {
	if s.submitted {
		value = s.form.Get(key) != ""
	}
	checked := ""
	if value {
		checked = " checked"
	}
	s.field(key, label, fmt.Sprintf("<input type=\"checkbox\" id=\"%s\" name=\"%s\" value=\"on\"%s>", esc(key), esc(key), checked))
	return value
}

// FileUpload keeps the last upload for key in the session so later re-runs still see it.
func (s *surface) FileUpload(key, label string, types []string) (ui.Upload, bool) {
	if up, ok := s.readUpload(key); ok {
		s.sess.Set(uploadPrefix+key, up)
	}
	accept := make([]string, 0, len(types))
	for _, t := range types {
		accept = append(accept, "."+strings.TrimPrefix(t, "."))
	}
	control := fmt.Sprintf("<input type=\"file\" id=\"%s\" name=\"%s\" accept=\"%s\">", esc(key), esc(key), esc(strings.Join(accept, ",")))

	stored, ok := s.sess.Get(uploadPrefix + key)
	up, isUpload := stored.(ui.Upload)
	if ok && isUpload {
		control += fmt.Sprintf("<span class=\"caption\">%s</span>", esc(up.Name))
	}
	s.field(key, label, control)
	return up, ok && isUpload
}

func (s *surface) readUpload(key string) (ui.Upload, bool) {
	headers := s.files[key]
	if len(headers) == 0 || headers[0].Size == 0 {
		return ui.Upload{}, false
	}
	f, err := headers[0].Open()
	if err != nil {
		return ui.Upload{}, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return ui.Upload{}, false
	}
	return ui.Upload{Name: headers[0].Filename, Data: data}, true
}

func (s *surface) Button(key, label string) bool {
	s.emit("<button type=\"submit\" name=\"%s\" value=\"%s\">%s</button>\n", pressField, esc(key), esc(label))
	return s.pressed == key
}

// ChatInput renders an empty message box; a submitted message is returned once.
func (s *surface) ChatInput(key, placeholder string) (string, bool) {
	s.emit("<div class=\"chat-input\"><input type=\"text\" name=\"%s\" placeholder=\"%s\" autofocus><button type=\"submit\" name=\"%s\" value=\"%s\">Send</button></div>\n",
		esc(key), esc(placeholder), pressField, esc(key))
	v := strings.TrimSpace(s.form.Get(key))
	return v, v != ""
}

func (s *surface) ChatMessage(role, content string) {
	s.emit("<div class=\"chat chat-%s\"><span class=\"role\">%s</span>%s</div>\n", esc(role), esc(role), renderMarkdown(content))
}

func (s *surface) Status(text string) func() {
	id := s.id("st")
	s.emit("<div class=\"status\" id=\"%s\">⏳ %s</div>\n", id, esc(text))
	return func() { s.script("galleryRemove", id) }
}

type placeholder struct {
	s  *surface
	id string
}

func (p *placeholder) Markdown(text string) {
	p.s.script("gallerySet", p.id, renderMarkdown(text))
}

func (s *surface) Placeholder() ui.Placeholder {
	id := s.id("ph")
	s.emit("<div class=\"placeholder\" id=\"%s\"></div>\n", id)
	return &placeholder{s: s, id: id}
}

type progress struct {
	s  *surface
	id string
}

func (p *progress) Set(fraction float64) {
	p.s.script("galleryProgress", p.id, clamp(fraction, 0, 1))
}

func (s *surface) Progress() ui.Progress {
	id := s.id("pg")
	s.emit("<progress id=\"%s\" max=\"1\" value=\"0\"></progress>\n", id)
	return &progress{s: s, id: id}
}

// Tab starts a collapsible section. The demo tab starts open.
func (s *surface) Tab(label string) bool {
	s.mu.Lock()
	open := s.inTab
	s.inTab = true
	s.mu.Unlock()
	if open {
		s.emit("</details>\n")
	}
	attr := ""
	if label != ui.TabSource {
		attr = " open"
	}
	s.emit("<details class=\"tab\"%s><summary>%s</summary>\n", attr, esc(label))
	return true
}

func (s *surface) Sidebar() ui.Surface { return s }

// close ends any open tab.
func (s *surface) close() {
	s.mu.Lock()
	open := s.inTab
	s.inTab = false
	s.mu.Unlock()
	if open {
		s.emit("</details>\n")
	}
}

var _ ui.Surface = (*surface)(nil)
