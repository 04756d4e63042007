// internal/cli/root.go

// Package cli is the llamagallery command line: model management, page runs on the terminal
// and the web gallery.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/llamagallery/internal/appconfig"
	"github.com/mwiater/llamagallery/internal/helper"
	"github.com/mwiater/llamagallery/internal/logging"
	"github.com/mwiater/llamagallery/internal/pages"
	"github.com/mwiater/llamagallery/internal/ui"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"

	// newModels builds the facade for a command. Tests swap it for one over a fake host.
	newModels = helper.NewFromConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "llamagallery",
	Short:         "llamagallery, interactive examples of the Ollama API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		cfg, err := appconfig.FromViper(viper.GetViper())
		if err != nil {
			return err
		}
		// The environment is applied after the file, so an explicit flag is re-applied on top.
		if cmd.Flags().Changed("host") {
			cfg.Host = viper.GetString("host")
			if err := cfg.Finalize(); err != nil {
				return err
			}
		}
		currentConfig = &cfg

		if err := logging.Init(cfg.LogFilePath(), cfg.Debug); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.LogEvent("config loaded from %q, host %s", cfg.ConfigPath, cfg.Host)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logging.Close()
	if err != nil {
		reportError(rootCmd, err)
		os.Exit(1)
	}
}

// reportError prints err unless a page already rendered it.
func reportError(cmd *cobra.Command, err error) {
	var shown *ui.ShownError
	if errors.As(err, &shown) {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("Error: %s", err))
}

func init() {
	cobra.OnInitialize(initConfig)
	appconfig.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("host", "", "Ollama host URL (overrides the config file and OLLAMA_HOST)")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config. Only the default path may be missing.
func ensureConfigLoaded() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if missing && (cfgFile == "" || cfgFile == appconfig.DefaultConfigPath) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// config returns the loaded configuration, or the defaults when no command has loaded one.
func config() appconfig.Config {
	if currentConfig != nil {
		return *currentConfig
	}
	cfg, err := appconfig.FromViper(viper.GetViper())
	if err != nil {
		logging.LogWarn(err, "falling back to the default host")
		return appconfig.Config{Host: appconfig.DefaultHost, WebSearchURL: appconfig.DefaultWebSearchURL}
	}
	return cfg
}

// newRunner builds the page runner over a facade for the loaded configuration.
func newRunner() (*pages.Runner, error) {
	cfg := config()
	models, err := newModels(cfg)
	if err != nil {
		return nil, err
	}
	return pages.NewRunner(models, cfg)
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
