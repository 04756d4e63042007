package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary. The API key is masked.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Host:            %s\n", cfg.Host)
	fmt.Fprintf(out, "  Timeout:         %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Listen:          %s\n", cfg.Listen)
	fmt.Fprintf(out, "  Fallback Models: %s\n", strings.Join(cfg.Fallbacks(), ", "))
	fmt.Fprintf(out, "  Web Search URL:  %s\n", cfg.WebSearchURL)
	fmt.Fprintf(out, "  API Key:         %s\n", MaskKey(cfg.APIKey))
	fmt.Fprintf(out, "  Rate Limit:      %.2f runs/sec\n", cfg.RateLimit)
	fmt.Fprintf(out, "  Session Idle:    %s\n", cfg.SessionIdle())
	profile := cfg.Profile
	if profile == "" {
		profile = string(ProfileGenericChat)
	}
	fmt.Fprintf(out, "  Profile:         %s\n", profile)
}

// MaskKey hides all but the last four characters of an API key.
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
