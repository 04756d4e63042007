package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/llamagallery/internal/nav"
	"github.com/mwiater/llamagallery/internal/pages"
	"github.com/mwiater/llamagallery/internal/session"
	"github.com/mwiater/llamagallery/internal/ui"
	"github.com/mwiater/llamagallery/internal/ui/term"
)

var (
	chatModel string
	chatWrap  int
)

// chatCmd represents the 'chat' command.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a chat session",
	Long:  `The 'chat' command drives the Chat History page from the terminal, one line per turn.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		return chatREPL(commandContext(cmd), cmd.InOrStdin(), cmd.OutOrStdout(), r, chatModel, chatWrap)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model to chat with (default: first installed)")
	chatCmd.Flags().IntVar(&chatWrap, "wrap", 100, "wrap replies at this many columns (0 disables)")
	rootCmd.AddCommand(chatCmd)
}

// chatREPL runs the chat history page once to show the conversation, then once per line read
// from in. Re-runs stay quiet until the new message is consumed.
func chatREPL(ctx context.Context, in io.Reader, out io.Writer, r *pages.Runner, model string, width int) error {
	entry, _, ok := nav.Find(r.Sections(), pages.ChatHistoryPage)
	if !ok {
		return fmt.Errorf("page %s is not in the menu", pages.ChatHistoryPage)
	}

	store := session.NewStore()
	newSession := func() *session.State {
		sess := store.New()
		if model != "" {
			sess.Set("model", model)
		}
		return sess
	}
	sess := newSession()

	inputs := map[string]string{}
	if model != "" {
		inputs["model"] = model
	}
	s := term.New(term.Options{Out: out, Inputs: inputs, Press: []string{}, Width: width})
	if err := runTurn(ctx, r, s, sess, entry); err != nil {
		return err
	}
	if chosen := sess.String("model"); model != "" && chosen != model {
		fmt.Fprintln(out, color.YellowString("⚠ %s is not offered on this page, chatting with %s", model, chosen))
	}
	fmt.Fprintln(out, color.HiBlackString("Type a message. /clear starts over, /exit quits."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, color.CyanString("› "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			sess = newSession()
			fmt.Fprintln(out, color.HiBlackString("History cleared."))
			continue
		}

		s.Quiet()
		s.SetInput(pages.ChatHistoryInput, line)
		if err := runTurn(ctx, r, s, sess, entry); err != nil {
			return err
		}
	}
}

// runTurn runs the page once. Failures the page already rendered do not end the session.
func runTurn(ctx context.Context, r *pages.Runner, s ui.Surface, sess *session.State, entry nav.Entry) error {
	err := r.Run(ctx, s, sess, entry)
	var shown *ui.ShownError
	if errors.As(err, &shown) {
		return nil
	}
	return err
}
