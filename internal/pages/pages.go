// internal/pages/pages.go

// Package pages holds the gallery's demo pages and the runner that renders one of them onto
// a surface. Each page is listed in the embedded listing tree, which also feeds the menu.
package pages

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/mwiater/llamagallery/internal/appconfig"
	"github.com/mwiater/llamagallery/internal/helper"
	"github.com/mwiater/llamagallery/internal/logging"
	"github.com/mwiater/llamagallery/internal/nav"
	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/session"
	"github.com/mwiater/llamagallery/internal/tools"
	"github.com/mwiater/llamagallery/internal/ui"
)

// ListingRoot is the directory of the embedded listing tree.
const ListingRoot = "listings"

//go:embed listings
var listings embed.FS

// Listings returns the embedded listing tree. Paths start with ListingRoot.
func Listings() fs.FS {
	return listings
}

// Func renders a page's demo.
type Func func(ctx context.Context, e *Env) error

// Page is one demo. Topic, Title and Icon are filled from the menu entry.
type Page struct {
	ID    string
	Topic string
	Title string
	Icon  string
	Blurb string
	Run   Func
}

// Env is what a page run sees.
type Env struct {
	S       ui.Surface
	Session *session.State
	Models  *helper.Helper
	UI      *ui.Helper
	Config  appconfig.Config
	HTTP    *http.Client
	// ComicsURL is the base of the comic archive used by the multimodal generate page.
	ComicsURL string
	// Rand, when nil, falls back to the global source.
	Rand *rand.Rand
	Menu []nav.Section
	// Capper shortens web tool results before they are returned to the model.
	Capper *tools.Capper
}

// profileOptions returns the configured parameter profile as request options, or nil when
// neither a profile nor explicit parameters are configured.
func (e *Env) profileOptions() ollama.Options {
	if e.Config.Profile == "" && len(e.Config.Parameters.Options()) == 0 {
		return nil
	}
	return ollama.Options(e.Config.ChatParameters().Options())
}

func (e *Env) intN(n int) int {
	if n <= 0 {
		return 0
	}
	if e.Rand == nil {
		return rand.IntN(n)
	}
	return e.Rand.IntN(n)
}

// DefaultComicsURL serves the comic metadata and images.
const DefaultComicsURL = "https://xkcd.com"

// catalog lists every page implementation by id.
var catalog = []Page{
	{ID: "0_home/00_Start", Run: start},

	{ID: "1_chat/01_Chat", Blurb: "Basic chat interaction with Ollama models", Run: chatPage},
	{ID: "1_chat/02_Chat_Stream", Blurb: "Stream responses in real-time", Run: chatStream},
	{ID: "1_chat/03_Chat_History", Blurb: "Maintain conversation context across multiple messages", Run: chatHistory},
	{ID: "1_chat/04_Chat_Logprobs", Blurb: "Inspect the log probabilities of chat responses", Run: chatLogprobs},
	{ID: "1_chat/05_Async_Chat", Blurb: "Run a chat request in the background and wait for it", Run: asyncChat},

	{ID: "2_generate/06_Generate", Blurb: "Generate text completions", Run: generatePage},
	{ID: "2_generate/07_Generate_Stream", Blurb: "Stream text generation in real-time", Run: generateStream},
	{ID: "2_generate/08_Generate_Logprobs", Blurb: "View token log probabilities during generation", Run: generateLogprobs},
	{ID: "2_generate/09_Async_Generate", Blurb: "Run a generation in the background and wait for it", Run: asyncGenerate},
	{ID: "2_generate/10_Thinking", Blurb: "See the reasoning process of thinking models", Run: thinking},
	{ID: "2_generate/11_Thinking_Generate", Blurb: "Reasoning output with the generate endpoint", Run: thinkingGenerate},
	{ID: "2_generate/12_Thinking_Levels", Blurb: "Control how much a model reasons", Run: thinkingLevels},
	{ID: "2_generate/13_Fill_in_Middle", Blurb: "Complete code between a prefix and a suffix", Run: fillInMiddle},

	{ID: "3_tools/17_Tools", Blurb: "Use function calling to extend model capabilities", Run: toolsPage},
	{ID: "3_tools/18_Async_Tools", Blurb: "Function calling with background requests", Run: asyncTools},
	{ID: "3_tools/19_Multi_Tool", Blurb: "Several tool calls in one turn, streamed with thinking", Run: multiTool},
	{ID: "3_tools/20_GPT_OSS_Tools", Blurb: "Function calling with GPT-OSS models", Run: gptOSSTools},
	{ID: "3_tools/21_GPT_OSS_Tools_Stream", Blurb: "Streamed function calling with GPT-OSS models", Run: gptOSSToolsStream},

	{ID: "4_utilities/25_List", Blurb: "List all locally available models", Run: listPage},
	{ID: "4_utilities/26_PS", Blurb: "Show models currently loaded in memory", Run: psPage},
	{ID: "4_utilities/27_Show", Blurb: "Display detailed information about a specific model", Run: showPage},
	{ID: "4_utilities/28_Pull", Blurb: "Download models from the Ollama library", Run: pullPage},
	{ID: "4_utilities/29_Create", Blurb: "Create a customized model from an existing one", Run: createPage},
	{ID: "4_utilities/30_Embed", Blurb: "Generate vector embeddings for text", Run: embedPage},
	{ID: "4_utilities/31_Structured_Outputs", Blurb: "Get structured JSON responses that follow a schema", Run: structuredOutputs},
	{ID: "4_utilities/32_Async_Structured_Outputs", Blurb: "Structured JSON responses from a background request", Run: asyncStructuredOutputs},
	{ID: "4_utilities/33_Semantic_Search", Blurb: "Rank documents by embedding similarity", Run: semanticSearch},

	{ID: "5_vision/14_Multimodal_Chat", Blurb: "Chat with images using vision models", Run: multimodalChat},
	{ID: "5_vision/15_Multimodal_Generate", Blurb: "Generate text from images", Run: multimodalGenerate},
	{ID: "5_vision/16_Structured_Outputs_Image", Blurb: "Extract structured data from images", Run: structuredImage},

	{ID: "6_web/22_Web_Search", Blurb: "Use web search and web fetch tools to answer questions", Run: webSearch},

	{ID: "9_helper/99_Helper_Example", Blurb: "The facade and UI helpers in use", Run: helperExample},
}

// Runner renders pages by menu entry. It is safe for concurrent use.
type Runner struct {
	Models    *helper.Helper
	Config    appconfig.Config
	HTTP      *http.Client
	ComicsURL string
	Rand      *rand.Rand
	Capper    *tools.Capper

	sections []nav.Section
	pages    map[string]Page
}

// NewRunner builds the menu from the embedded listings and binds each entry to its page.
func NewRunner(models *helper.Helper, cfg appconfig.Config) (*Runner, error) {
	sections, err := nav.Build(listings, ListingRoot, nav.Topics)
	if err != nil {
		return nil, fmt.Errorf("could not build menu: %w", err)
	}
	byID := make(map[string]Page, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}
	pages := make(map[string]Page, len(catalog))
	for _, sec := range sections {
		for _, entry := range sec.Entries {
			p, ok := byID[entry.ID]
			if !ok {
				return nil, fmt.Errorf("listing %s has no page", entry.ID)
			}
			p.Topic, p.Title, p.Icon = sec.Name, entry.Title, entry.Icon
			pages[entry.ID] = p
		}
	}
	return &Runner{
		Models:    models,
		Config:    cfg,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		ComicsURL: DefaultComicsURL,
		Capper:    tools.NewCapper(tools.DefaultMaxTokens),
		sections:  sections,
		pages:     pages,
	}, nil
}

// Sections returns the menu.
func (r *Runner) Sections() []nav.Section {
	return r.sections
}

// Page returns the page registered under id.
func (r *Runner) Page(id string) (Page, bool) {
	p, ok := r.pages[id]
	return p, ok
}

// Run renders the page for entry: a header, the demo tab and the source tab. A failed demo
// is shown inline and returned as a *ui.ShownError.
func (r *Runner) Run(ctx context.Context, s ui.Surface, sess *session.State, entry nav.Entry) error {
	p, ok := r.pages[entry.ID]
	if !ok {
		return fmt.Errorf("unknown page %q", entry.ID)
	}
	env := &Env{
		S:         s,
		Session:   sess,
		Models:    r.Models,
		UI:        ui.New(r.Models, sess, r.Config.Fallbacks()),
		Config:    r.Config,
		HTTP:      r.HTTP,
		ComicsURL: r.ComicsURL,
		Rand:      r.Rand,
		Menu:      r.sections,
		Capper:    r.Capper,
	}

	if p.Blurb != "" {
		s.Title(p.Icon + " " + p.Title)
		s.Markdown(p.Blurb)
	}

	var runErr error
	if s.Tab(ui.TabDemo) {
		if err := p.Run(ctx, env); err != nil {
			logging.LogWarn(err, "page %s failed", p.ID)
			var shown *ui.ShownError
			if !errors.As(err, &shown) {
				s.Error(fmt.Sprintf("Error: %s", err))
				err = &ui.ShownError{Err: err}
			}
			runErr = err
		}
	}
	if s.Tab(ui.TabSource) {
		s.Header("Source Code")
		src, err := fs.ReadFile(listings, entry.Path)
		if err != nil {
			s.Warning(fmt.Sprintf("Source listing unavailable: %s", err))
		} else {
			s.Code(string(src), "go")
		}
	}
	return runErr
}
