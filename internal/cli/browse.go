// internal/cli/browse.go
package cli

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mwiater/llamagallery/internal/nav"
	"github.com/mwiater/llamagallery/internal/pages"
	"github.com/mwiater/llamagallery/internal/ui/term"
)

var browseSource bool

// browseCmd picks a page from a list and runs it on the terminal once the list closes.
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Pick a page from the menu and run it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		m := newBrowser(r)
		final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(commandContext(cmd))).Run()
		if err != nil {
			return fmt.Errorf("menu failed: %w", err)
		}
		chosen := final.(*browser).chosen
		if chosen == "" {
			return nil
		}
		return runPage(commandContext(cmd), r, chosen, term.Options{
			Out:        cmd.OutOrStdout(),
			ShowSource: browseSource,
			Debug:      config().Debug,
		})
	},
}

func init() {
	browseCmd.Flags().BoolVar(&browseSource, "source", false, "also print the source listing")
	rootCmd.AddCommand(browseCmd)
}

var docStyle = lipgloss.NewStyle().Margin(1, 2)

// pageItem is one page in the browser list.
type pageItem struct {
	entry   nav.Entry
	section string
	blurb   string
}

func (i pageItem) Title() string { return i.entry.Icon + " " + i.entry.Title }

func (i pageItem) Description() string {
	if i.blurb != "" {
		return i.section + " · " + i.blurb
	}
	return i.section
}

func (i pageItem) FilterValue() string { return i.section + " " + i.entry.Title }

// browser is the bubbletea model of the page list.
type browser struct {
	list   list.Model
	chosen string
}

func newBrowser(r *pages.Runner) *browser {
	var items []list.Item
	for _, sec := range r.Sections() {
		for _, e := range sec.Entries {
			item := pageItem{entry: e, section: sec.Label()}
			if p, ok := r.Page(e.ID); ok {
				item.blurb = p.Blurb
			}
			items = append(items, item)
		}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "🦙 Ollama SDK Examples"
	return &browser{list: l}
}

func (b *browser) Init() tea.Cmd { return nil }

func (b *browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return b, tea.Quit
		}
		if b.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "esc":
			return b, tea.Quit
		case "enter":
			if item, ok := b.list.SelectedItem().(pageItem); ok {
				b.chosen = item.entry.ID
			}
			return b, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		b.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	return b, cmd
}

func (b *browser) View() string {
	return docStyle.Render(b.list.View())
}
