package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/llamagallery/internal/nav"
	"github.com/mwiater/llamagallery/internal/ui"
)

const welcome = `Welcome to the **Ollama SDK Interactive Examples**! This gallery demonstrates the features
of the Ollama API through interactive pages.

Each example includes **two tabs**:
- **` + ui.TabDemo + `**: Interactive demonstration of the functionality
- **` + ui.TabSource + `**: The Go program the demo is based on`

const quickStart = `1. Select a page from the menu
2. Use the **` + ui.TabDemo + `** tab to try it
3. Check the **` + ui.TabSource + `** tab to see how it works
4. Experiment with settings

**Requirements:**
- Ollama installed and running
- Models downloaded (gemma3, llama3.2, etc.)`

const tips = `**🎯 Model Selection**
- **gemma3**: Fast, general purpose
- **llama3.1/3.2**: Balanced performance
- **qwen3**: Good for tool use
- **deepseek-r1**: Reasoning tasks
- **codellama**: Code generation

**⚡ Performance**
- Use streaming for responsive pages
- Smaller models answer faster
- Quantized models save memory

**🔧 Configuration**
- Temperature: 0 = deterministic
- Top_p: nucleus sampling
- Max tokens: limit response length
- Format: enforce JSON structure`

const resources = `**Official Documentation:**
- [Ollama GitHub](https://github.com/ollama/ollama)
- [Ollama API](https://github.com/ollama/ollama/blob/main/docs/api.md)
- [Model Library](https://ollama.com/library)`

// exampleCount counts the pages outside the home section.
func exampleCount(menu []nav.Section) int {
	n := 0
	for _, sec := range menu {
		if sec.Folder != "0_home" {
			n += len(sec.Entries)
		}
	}
	return n
}

// exampleListing renders the menu as numbered markdown lists, one per section.
func exampleListing(menu []nav.Section) string {
	var b strings.Builder
	for _, sec := range menu {
		if sec.Folder == "0_home" {
			continue
		}
		fmt.Fprintf(&b, "**%s (%d)**\n\n", sec.Label(), len(sec.Entries))
		for _, entry := range sec.Entries {
			fmt.Fprintf(&b, "- %s\n", entry.Title)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func start(_ context.Context, e *Env) error {
	s := e.S
	s.Title("🦙 Ollama SDK Examples")
	s.Markdown(welcome)
	s.Divider()
	s.Info("👈 **Get started by selecting an example from the menu!**")

	n := exampleCount(e.Menu)
	s.Details("📚 About This Application", fmt.Sprintf("This collection contains **%d interactive examples**.\n\n%s", n, quickStart))
	s.Details("📖 All Examples", exampleListing(e.Menu))
	s.Details("💡 Tips & Best Practices", tips)
	s.Details("📖 Resources", resources)
	s.Divider()
	s.Caption(fmt.Sprintf("🦙 Powered by Ollama | %d Interactive Examples, each with Demo & Source Code", n))
	return nil
}
