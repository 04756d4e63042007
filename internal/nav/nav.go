// internal/nav/nav.go

// Package nav assembles the gallery menu from the listing tree, one folder per topic and
// one listing per page.
package nav

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// ListingExt is the extension of a page listing.
const ListingExt = ".go.txt"

// Topic is a folder of pages and how it is shown in the menu.
type Topic struct {
	Folder string
	Name   string
	Icon   string
}

// Topics is the menu in display order.
var Topics = []Topic{
	{Folder: "0_home", Name: "Home", Icon: "🏠"},
	{Folder: "1_chat", Name: "Chat", Icon: "💬"},
	{Folder: "2_generate", Name: "Generate", Icon: "✨"},
	{Folder: "3_tools", Name: "Tools", Icon: "🛠️"},
	{Folder: "4_utilities", Name: "Utilities", Icon: "⚙️"},
	{Folder: "5_vision", Name: "Vision", Icon: "🖼️"},
	{Folder: "6_web", Name: "Web Search", Icon: "🌐"},
	{Folder: "9_helper", Name: "Helper", Icon: "🔧"},
}

// pageIcons overrides the topic icon for individual pages, keyed by the title part of the
// file stem.
var pageIcons = map[string]string{
	"Thinking":          "🧠",
	"Thinking_Generate": "🧠",
	"Thinking_Levels":   "🧠",
	"Fill_in_Middle":    "💻",
}

// Entry is one page in the menu.
type Entry struct {
	ID    string // folder/stem, e.g. "1_chat/02_Chat_Stream"
	Title string
	Icon  string
	Path  string
}

// Section is a topic with at least one page.
type Section struct {
	Folder  string
	Name    string
	Icon    string
	Entries []Entry
}

// Label is the section name prefixed by its icon.
func (s Section) Label() string {
	return s.Icon + " " + s.Name
}

// Build scans root in fsys for each topic folder in order. Missing folders and folders
// without listings are left out.
func Build(fsys fs.FS, root string, topics []Topic) ([]Section, error) {
	var sections []Section
	for _, topic := range topics {
		dir := path.Join(root, topic.Folder)
		info, err := fs.Stat(fsys, dir)
		if err != nil || !info.IsDir() {
			continue
		}

		matches, err := fs.Glob(fsys, path.Join(dir, "*"+ListingExt))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", dir, err)
		}
		sort.Strings(matches)

		section := Section{Folder: topic.Folder, Name: topic.Name, Icon: topic.Icon}
		for _, m := range matches {
			stem := strings.TrimSuffix(path.Base(m), ListingExt)
			section.Entries = append(section.Entries, Entry{
				ID:    topic.Folder + "/" + stem,
				Title: Title(stem),
				Icon:  iconFor(stem, topic.Icon),
				Path:  m,
			})
		}
		if len(section.Entries) > 0 {
			sections = append(sections, section)
		}
	}
	return sections, nil
}

// Title derives a display title from a file stem: the numeric prefix up to the first
// underscore is dropped and the remaining underscores become spaces.
func Title(stem string) string {
	if _, rest, ok := strings.Cut(stem, "_"); ok {
		stem = rest
	}
	return strings.ReplaceAll(stem, "_", " ")
}

func iconFor(stem, fallback string) string {
	_, rest, ok := strings.Cut(stem, "_")
	if !ok {
		return fallback
	}
	if icon, ok := pageIcons[rest]; ok {
		return icon
	}
	return fallback
}

// Find returns the entry with id and the section holding it.
func Find(sections []Section, id string) (Entry, Section, bool) {
	for _, s := range sections {
		for _, e := range s.Entries {
			if e.ID == id {
				return e, s, true
			}
		}
	}
	return Entry{}, Section{}, false
}

// First returns the first entry of the menu.
func First(sections []Section) (Entry, bool) {
	for _, s := range sections {
		if len(s.Entries) > 0 {
			return s.Entries[0], true
		}
	}
	return Entry{}, false
}
