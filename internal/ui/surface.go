// internal/ui/surface.go
// Package ui binds facade operations to an interactive page surface.
package ui

// Cursor is appended to streamed text while more fragments are expected.
const Cursor = "▌"

// Tab labels shared by every page.
const (
	TabDemo   = "🎯 Demo"
	TabSource = "📄 Source Code"
)

// Upload is a file supplied through a FileUpload widget.
type Upload struct {
	Name string
	Data []byte
}

// Placeholder is a slot whose content is replaced on every render.
type Placeholder interface {
	Markdown(text string)
}

// Progress is a bar showing a fraction between 0 and 1.
type Progress interface {
	Set(fraction float64)
}

// Surface is the widget set a page renders into. Widget calls return the current value
// for their key: the submitted value when the user supplied one, otherwise the default.
type Surface interface {
	Title(text string)
	Header(text string)
	Subheader(text string)
	Caption(text string)
	Markdown(text string)
	Text(text string)
	Code(src, language string)
	JSON(v any)
	Metric(label, value string)
	Image(caption string, data []byte)
	Details(label, body string)
	Info(text string)
	Success(text string)
	Warning(text string)
	Error(text string)
	Divider()

	Select(key, label string, options []string, index int) string
	Slider(key, label string, min, max, value, step float64) float64
	IntSlider(key, label string, min, max, value, step int) int
	NumberInput(key, label string, min, max, value int) int
	TextInput(key, label, value string) string
	TextArea(key, label, value string) string
	Checkbox(key, label string, value bool) bool
	FileUpload(key, label string, types []string) (Upload, bool)
	Button(key, label string) bool
	ChatInput(key, placeholder string) (string, bool)
	ChatMessage(role, content string)

	// Status shows a transient busy line and returns the function that clears it.
	Status(text string) (done func())
	Placeholder() Placeholder
	Progress() Progress
	// Tab starts the named tab and reports whether its content should be rendered.
	Tab(label string) bool
	// Sidebar returns the surface for secondary controls.
	Sidebar() Surface
}

// ShownError wraps an error the page has already rendered on its surface. Hosts log and
// count it without rendering it a second time.
type ShownError struct {
	Err error
}

func (e *ShownError) Error() string { return e.Err.Error() }

func (e *ShownError) Unwrap() error { return e.Err }
