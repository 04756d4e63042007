// internal/tools/web.go
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/util"
)

// WebClient is the hosted search API. *ollama.Client satisfies it.
type WebClient interface {
	WebSearch(ctx context.Context, req *ollama.WebSearchRequest) (*ollama.WebSearchResponse, error)
	WebFetch(ctx context.Context, req *ollama.WebFetchRequest) (*ollama.WebFetchResponse, error)
}

// Web returns web_search and web_fetch backed by client. Results are formatted as markdown
// and shortened with capper.
func Web(client WebClient, capper *Capper) []Tool {
	return []Tool{
		{
			Definition: Define("web_search", "Search the web for a query and return the top results", []string{"query"}, map[string]any{
				"query":       Prop("string", "The search query"),
				"max_results": Prop("integer", "Maximum number of results to return"),
			}),
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				query := StringArg(args, "query")
				req := &ollama.WebSearchRequest{Query: query}
				if n, err := IntArg(args, "max_results"); err == nil {
					req.MaxResults = n
				}
				resp, err := client.WebSearch(ctx, req)
				if err != nil {
					return "", err
				}
				return capper.Cap(FormatSearch(resp, query)), nil
			},
		},
		{
			Definition: Define("web_fetch", "Fetch a web page and return its title, content and links", []string{"url"}, map[string]any{
				"url": Prop("string", "The URL to fetch"),
			}),
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				url := StringArg(args, "url")
				resp, err := client.WebFetch(ctx, &ollama.WebFetchRequest{URL: url})
				if err != nil {
					return "", err
				}
				return capper.Cap(FormatFetch(resp, url)), nil
			},
		},
	}
}

// FormatSearch renders search results for display and for the model.
func FormatSearch(resp *ollama.WebSearchResponse, query string) string {
	out := []string{fmt.Sprintf("**Search results for %q:**\n", query)}
	for _, r := range resp.Results {
		title := r.Title
		if title == "" {
			title = "Result"
		}
		out = append(out,
			fmt.Sprintf("📄 **%s**", title),
			fmt.Sprintf("   🔗 %s", r.URL),
			"   "+util.TruncateRunes(r.Content, 200),
			"",
		)
	}
	return strings.Join(out, "\n\n")
}

// FormatFetch renders a fetched page for display and for the model.
func FormatFetch(resp *ollama.WebFetchResponse, url string) string {
	out := []string{
		fmt.Sprintf("**Fetch results for %q:**\n", url),
		fmt.Sprintf("**Title:** %s", resp.Title),
	}
	if url != "" {
		out = append(out, fmt.Sprintf("**URL:** %s", url))
	}
	out = append(out, "**Content:** "+util.TruncateRunes(resp.Content, 300))
	if len(resp.Links) > 0 {
		links := resp.Links
		more := ""
		if len(links) > 5 {
			links, more = links[:5], " …"
		}
		out = append(out, "**Links:** "+strings.Join(links, ", ")+more)
	}
	return strings.Join(out, "\n\n")
}
