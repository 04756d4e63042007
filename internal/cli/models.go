// internal/cli/models.go
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mwiater/llamagallery/internal/helper"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))

// modelsCmd groups the model management commands.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage the models installed on the Ollama host",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		models, err := facade()
		if err != nil {
			return err
		}
		return listModels(commandContext(cmd), cmd.OutOrStdout(), models)
	},
}

var modelsPSCmd = &cobra.Command{
	Use:   "ps",
	Short: "List models loaded in memory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		models, err := facade()
		if err != nil {
			return err
		}
		return listRunning(commandContext(cmd), cmd.OutOrStdout(), models)
	},
}

var showOutput string

var modelsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a model's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		models, err := facade()
		if err != nil {
			return err
		}
		return showModel(commandContext(cmd), cmd.OutOrStdout(), models, args[0], showOutput)
	},
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull <name>",
	Short: "Download a model from the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		models, err := facade()
		if err != nil {
			return err
		}
		return pullModel(commandContext(cmd), cmd.OutOrStdout(), models, args[0])
	},
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a model from the host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		models, err := facade()
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), models.DeleteModel(commandContext(cmd), args[0]))
	},
}

var modelsCopyCmd = &cobra.Command{
	Use:   "copy <source> <destination>",
	Short: "Copy a model under a new name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		models, err := facade()
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), models.CopyModel(commandContext(cmd), args[0], args[1]))
	},
}

var modelsEnsureCmd = &cobra.Command{
	Use:   "ensure <name>",
	Short: "Pull a model unless it is already installed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		models, err := facade()
		if err != nil {
			return err
		}
		name := args[0]
		if !models.EnsureModel(commandContext(cmd), name) {
			return fmt.Errorf("model %s is not available", name)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✔ %s is ready", name))
		return nil
	},
}

func init() {
	modelsShowCmd.Flags().StringVarP(&showOutput, "output", "o", "text", "output format: text, json or yaml")
	modelsCmd.AddCommand(modelsListCmd, modelsPSCmd, modelsShowCmd, modelsPullCmd, modelsDeleteCmd, modelsCopyCmd, modelsEnsureCmd)
	rootCmd.AddCommand(modelsCmd)
}

func facade() (*helper.Helper, error) {
	return newModels(config())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func listModels(ctx context.Context, out io.Writer, models *helper.Helper) error {
	list, err := models.Models(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No models found")
		return nil
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d models installed", len(list))))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tPARAMETER SIZE\tQUANTIZATION\tMODIFIED")
	for _, m := range list {
		var params, quant string
		if m.Details != nil {
			params, quant = m.Details.ParameterSize, m.Details.QuantizationLevel
		}
		fmt.Fprintf(w, "%s\t%.1f MB\t%s\t%s\t%s\n", m.Name, m.SizeMB, params, quant, m.ModifiedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func listRunning(ctx context.Context, out io.Writer, models *helper.Helper) error {
	running, err := models.RunningModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list running models: %w", err)
	}
	if len(running) == 0 {
		fmt.Fprintln(out, "No models running")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tVRAM\tCONTEXT\tEXPIRES")
	for _, m := range running {
		fmt.Fprintf(w, "%s\t%.1f MB\t%.1f MB\t%d\t%s\n", m.Name, m.SizeMB, m.SizeVRAMMB, m.ContextLength, m.ExpiresAt.Format("15:04:05"))
	}
	return w.Flush()
}

func showModel(ctx context.Context, out io.Writer, models *helper.Helper, name, format string) error {
	detail := models.ShowModel(ctx, name)
	if detail.HasError() {
		return fmt.Errorf("failed to show %s: %s", name, detail.Error)
	}
	if detail.Name == "" {
		detail.Name = name
	}

	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(detail, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "yaml", "yml":
		data, err := yaml.Marshal(detail)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
	case "", "text":
		writeDetail(out, detail)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

func writeDetail(out io.Writer, d helper.ModelDetail) {
	fmt.Fprintln(out, headerStyle.Render(d.Name))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if d.Details != nil {
		fmt.Fprintf(w, "  family\t%s\n", d.Details.Family)
		fmt.Fprintf(w, "  format\t%s\n", d.Details.Format)
		fmt.Fprintf(w, "  parameters\t%s\n", d.Details.ParameterSize)
		fmt.Fprintf(w, "  quantization\t%s\n", d.Details.QuantizationLevel)
	}
	if d.ContextLen > 0 {
		fmt.Fprintf(w, "  context length\t%d\n", d.ContextLen)
	}
	if len(d.Capabilities) > 0 {
		fmt.Fprintf(w, "  capabilities\t%s\n", strings.Join(d.Capabilities, ", "))
	}
	_ = w.Flush()
	if d.Parameters != "" {
		fmt.Fprintln(out, headerStyle.Render("Parameters"))
		fmt.Fprintln(out, d.Parameters)
	}
	if d.System != "" {
		fmt.Fprintln(out, headerStyle.Render("System"))
		fmt.Fprintln(out, d.System)
	}
}

// pullModel prints each new status, and a percentage while layers download.
func pullModel(ctx context.Context, out io.Writer, models *helper.Helper, name string) error {
	last := ""
	for p, err := range models.PullModel(ctx, name) {
		if err != nil {
			return fmt.Errorf("failed to pull %s: %w", name, err)
		}
		if f := p.Fraction(); f >= 0 {
			fmt.Fprintf(out, "\r%s %3.0f%%", p.Status, f*100)
			last = ""
			continue
		}
		if p.Status != last {
			fmt.Fprintf(out, "\n%s", p.Status)
			last = p.Status
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, color.GreenString("✔ pulled %s", name))
	return nil
}

func printResult(out io.Writer, r helper.Result) error {
	if !r.Success {
		return errors.New(r.Error)
	}
	fmt.Fprintln(out, color.GreenString("✔ %s", r.Message))
	return nil
}
