// Package highlight renders source listings with chroma for the terminal and the web.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const styleName = "monokai"

var htmlFormatter = html.New(html.WithClasses(false), html.TabWidth(4))

func lexerFor(language, src string) chroma.Lexer {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(src)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// Terminal returns src colored with 256-color escapes, or src unchanged when highlighting fails.
func Terminal(src, language string) string {
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return format(formatter, src, language)
}

// HTML returns src as a styled <pre> block. The result is safe to embed in a page.
func HTML(src, language string) (string, bool) {
	out := format(htmlFormatter, src, language)
	if out == src {
		return "", false
	}
	return out, true
}

func format(formatter chroma.Formatter, src, language string) string {
	iterator, err := lexerFor(language, src).Tokenise(nil, src)
	if err != nil {
		return src
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, styles.Get(styleName), iterator); err != nil {
		return src
	}
	return buf.String()
}
