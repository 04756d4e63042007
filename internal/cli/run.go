// internal/cli/run.go
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/llamagallery/internal/nav"
	"github.com/mwiater/llamagallery/internal/pages"
	"github.com/mwiater/llamagallery/internal/session"
	"github.com/mwiater/llamagallery/internal/ui/term"
)

var (
	runSets   []string
	runPress  []string
	runSource bool
)

// runCmd renders one page on the terminal. Widgets take their defaults unless preset with
// --set, and every button is pressed unless --press names the ones to press.
var runCmd = &cobra.Command{
	Use:   "run <page-id>",
	Short: "Run one page on the terminal",
	Long: `Run renders a page top to bottom on the terminal.

Widget values are preset with --set key=value (a file upload takes a path). Without --press
every button on the page is pressed; with it only the named buttons are.`,
	Example: `  llamagallery run 1_chat/01_Chat --set user_input="Why is the sky blue?"
  llamagallery run 5_vision/14_Multimodal_Chat --set image=photo.png --press analyze_btn`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := parseSets(runSets)
		if err != nil {
			return err
		}
		r, err := newRunner()
		if err != nil {
			return err
		}
		opts := term.Options{
			Out:        cmd.OutOrStdout(),
			Inputs:     inputs,
			ShowSource: runSource,
			Debug:      config().Debug,
		}
		if cmd.Flags().Changed("press") {
			opts.Press = append([]string{}, runPress...)
		}
		return runPage(commandContext(cmd), r, args[0], opts)
	},
}

func init() {
	runCmd.Flags().StringArrayVar(&runSets, "set", nil, "preset a widget value as key=value (repeatable)")
	runCmd.Flags().StringSliceVar(&runPress, "press", nil, "buttons to press (default: all)")
	runCmd.Flags().BoolVar(&runSource, "source", false, "also print the source listing")
	rootCmd.AddCommand(runCmd)
}

// parseSets turns key=value pairs into a map. Values may contain '='.
func parseSets(sets []string) (map[string]string, error) {
	inputs := make(map[string]string, len(sets))
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		inputs[key] = value
	}
	return inputs, nil
}

// runPage renders the page id on a fresh terminal surface and session.
func runPage(ctx context.Context, r *pages.Runner, id string, opts term.Options) error {
	entry, _, ok := nav.Find(r.Sections(), id)
	if !ok {
		return fmt.Errorf("unknown page %q (see 'llamagallery pages')", id)
	}
	s := term.New(opts)
	return r.Run(ctx, s, session.NewStore().New(), entry)
}
