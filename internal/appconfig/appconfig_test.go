// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoad verifies that a valid file loads with defaults applied, while invalid JSON,
// invalid values and a missing explicit path fail.
func TestLoad(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("GALLERY_LISTEN", "")

	cfg, err := Load(writeConfig(t, `{"host": "localhost:11500", "debug": true}`))
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.Host != "http://localhost:11500" {
		t.Fatalf("unexpected host: %s", cfg.Host)
	}
	if !cfg.Debug {
		t.Fatalf("expected debug to be true")
	}
	if cfg.TimeoutSeconds != 600 {
		t.Fatalf("expected default timeout of 600 seconds, got %d", cfg.TimeoutSeconds)
	}
	if cfg.RequestTimeout() != 600*time.Second {
		t.Fatalf("expected default request timeout of 600s, got %v", cfg.RequestTimeout())
	}
	if cfg.Listen != DefaultListen {
		t.Fatalf("expected default listen, got %q", cfg.Listen)
	}
	if got := cfg.Fallbacks(); len(got) != 4 || got[0] != "gemma3" {
		t.Fatalf("unexpected fallbacks: %v", got)
	}

	if _, err := Load(writeConfig(t, `{ "host": [`)); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}
	if _, err := Load(writeConfig(t, `{"host": "localhost", "rateLimit": -1}`)); err == nil {
		t.Fatal("Load() with negative rate limit should have failed")
	}
	if _, err := Load(writeConfig(t, `{"listen": "not a port"}`)); err == nil {
		t.Fatal("Load() with bad listen address should have failed")
	}
	if _, err := Load(writeConfig(t, `{"profile": "loud"}`)); err == nil {
		t.Fatal("Load() with unknown profile should have failed")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nonexistent.json")); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "10.0.0.5")
	t.Setenv("OLLAMA_API_KEY", "secret-key")
	t.Setenv("GALLERY_LISTEN", "127.0.0.1:9000")

	cfg, err := Load(writeConfig(t, `{"host": "http://localhost:11434"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "http://10.0.0.5:11434" {
		t.Fatalf("unexpected host: %s", cfg.Host)
	}
	if cfg.APIKey != "secret-key" {
		t.Fatalf("unexpected api key: %s", cfg.APIKey)
	}
	if cfg.Listen != "127.0.0.1:9000" {
		t.Fatalf("unexpected listen: %s", cfg.Listen)
	}
}

func TestNormalizeHost(t *testing.T) {
	cases := map[string]string{
		"":                        DefaultHost,
		"0.0.0.0":                 "http://0.0.0.0:11434",
		"example.com:8080":        "http://example.com:8080",
		"https://ollama.example":  "https://ollama.example:443",
		"http://127.0.0.1:11434/": "http://127.0.0.1:11434",
		"http://[::1]":            "http://[::1]:11434",
	}
	for in, want := range cases {
		got, err := NormalizeHost(in)
		if err != nil {
			t.Fatalf("NormalizeHost(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeHost(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := NormalizeHost("http://"); err == nil {
		t.Fatal("expected error for missing hostname")
	}
}

func TestChatParametersMergeOverProfile(t *testing.T) {
	temp := 0.3
	cfg := Config{Profile: "creative", Parameters: Parameters{Temperature: &temp}}
	opts := cfg.ChatParameters().Options()
	if opts["temperature"] != 0.3 {
		t.Fatalf("expected explicit temperature to win, got %v", opts["temperature"])
	}
	if opts["presence_penalty"] != 0.5 {
		t.Fatalf("expected creative presence penalty, got %v", opts["presence_penalty"])
	}
	if _, ok := (Parameters{}).Options()["top_k"]; ok {
		t.Fatal("unset parameters must not appear in options")
	}
}

func TestShowConfigMasksKey(t *testing.T) {
	var buf bytes.Buffer
	ShowConfig(&buf, "config/config.json", Config{Host: DefaultHost, APIKey: "abcdefgh"})
	out := buf.String()
	if strings.Contains(out, "abcdefgh") {
		t.Fatalf("api key leaked: %s", out)
	}
	if !strings.Contains(out, "****efgh") {
		t.Fatalf("expected masked key, got: %s", out)
	}
}
