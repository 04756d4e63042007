package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mwiater/llamagallery/internal/nav"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Print the page menu",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		return printMenu(cmd.OutOrStdout(), r.Sections())
	},
}

func init() {
	rootCmd.AddCommand(pagesCmd)
}

// printMenu writes one block per section with each page's id and title.
func printMenu(out io.Writer, sections []nav.Section) error {
	for _, sec := range sections {
		fmt.Fprintln(out, headerStyle.Render(sec.Label()))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, e := range sec.Entries {
			fmt.Fprintf(w, "  %s\t%s %s\n", e.ID, e.Icon, e.Title)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
