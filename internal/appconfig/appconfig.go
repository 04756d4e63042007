// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// DefaultHost is the model host used when neither the file nor the environment names one.
	DefaultHost = "http://127.0.0.1:11434"
	// DefaultListen is the web gallery's default bind address.
	DefaultListen = ":8501"
	// DefaultWebSearchURL is the hosted endpoint serving web_search and web_fetch.
	DefaultWebSearchURL = "https://ollama.com"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 600 * time.Second
	defaultRateLimit      = 2.0
	defaultSessionIdle    = 60
	defaultHostPort       = "11434"
)

// DefaultFallbackModels is offered by model selectors when the host reports nothing installed.
var DefaultFallbackModels = []string{"gemma3", "llama3.2", "llama3.1", "qwen2.5"}

// Config represents the top-level application configuration.
type Config struct {
	Host               string     `json:"host" mapstructure:"host" env:"OLLAMA_HOST" validate:"required,url"`
	APIKey             string     `json:"apiKey,omitempty" mapstructure:"apiKey" env:"OLLAMA_API_KEY"`
	WebSearchURL       string     `json:"webSearchURL,omitempty" mapstructure:"webSearchURL" validate:"omitempty,url"`
	TimeoutSeconds     int        `json:"timeout,omitempty" mapstructure:"timeout" validate:"min=0"`
	Debug              bool       `json:"debug" mapstructure:"debug"`
	LogFile            string     `json:"logFile,omitempty" mapstructure:"logFile"`
	Listen             string     `json:"listen,omitempty" mapstructure:"listen" env:"GALLERY_LISTEN" validate:"omitempty,hostname_port"`
	FallbackModels     []string   `json:"fallbackModels,omitempty" mapstructure:"fallbackModels" validate:"dive,required"`
	RateLimit          float64    `json:"rateLimit,omitempty" mapstructure:"rateLimit" validate:"min=0"`
	SessionIdleMinutes int        `json:"sessionIdleMinutes,omitempty" mapstructure:"sessionIdleMinutes" validate:"min=0"`
	Profile            string     `json:"profile,omitempty" mapstructure:"profile" validate:"omitempty,oneof=generic fact_checker creative accuracy"`
	Parameters         Parameters `json:"parameters" mapstructure:"parameters"`
	ConfigPath         string     `json:"-" mapstructure:"-"`
}

// Parameters defines the set of parameters that can be used to control a language model's behavior.
type Parameters struct {
	TopK             *int     `json:"top_k,omitempty" mapstructure:"top_k"`
	TopP             *float64 `json:"top_p,omitempty" mapstructure:"top_p"`
	MinP             *float64 `json:"min_p,omitempty" mapstructure:"min_p"`
	TypicalP         *float64 `json:"typical_p,omitempty" mapstructure:"typical_p"`
	RepeatLastN      *int     `json:"repeat_last_n,omitempty" mapstructure:"repeat_last_n"`
	Temperature      *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	NumPredict       *int     `json:"num_predict,omitempty" mapstructure:"num_predict"`
	RepeatPenalty    *float64 `json:"repeat_penalty,omitempty" mapstructure:"repeat_penalty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty" mapstructure:"presence_penalty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty" mapstructure:"frequency_penalty"`
}

// Options converts the set parameters into a model-host options map. Unset parameters are omitted.
func (p Parameters) Options() map[string]any {
	options := make(map[string]any)
	if p.TopK != nil {
		options["top_k"] = *p.TopK
	}
	if p.TopP != nil {
		options["top_p"] = *p.TopP
	}
	if p.MinP != nil {
		options["min_p"] = *p.MinP
	}
	if p.TypicalP != nil {
		options["typical_p"] = *p.TypicalP
	}
	if p.RepeatLastN != nil {
		options["repeat_last_n"] = *p.RepeatLastN
	}
	if p.Temperature != nil {
		options["temperature"] = *p.Temperature
	}
	if p.NumPredict != nil {
		options["num_predict"] = *p.NumPredict
	}
	if p.RepeatPenalty != nil {
		options["repeat_penalty"] = *p.RepeatPenalty
	}
	if p.PresencePenalty != nil {
		options["presence_penalty"] = *p.PresencePenalty
	}
	if p.FrequencyPenalty != nil {
		options["frequency_penalty"] = *p.FrequencyPenalty
	}
	return options
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "llamagallery.log"
}

// SessionIdle is how long a web session may sit unused before it is dropped.
func (c Config) SessionIdle() time.Duration {
	if c.SessionIdleMinutes <= 0 {
		return defaultSessionIdle * time.Minute
	}
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// Fallbacks returns the configured fallback model list or the built-in one.
func (c Config) Fallbacks() []string {
	if len(c.FallbackModels) == 0 {
		return append([]string(nil), DefaultFallbackModels...)
	}
	return append([]string(nil), c.FallbackModels...)
}

// SetDefaults registers the configuration defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("host", DefaultHost)
	v.SetDefault("webSearchURL", DefaultWebSearchURL)
	v.SetDefault("timeout", int(defaultRequestTimeout.Seconds()))
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("fallbackModels", DefaultFallbackModels)
	v.SetDefault("rateLimit", defaultRateLimit)
	v.SetDefault("sessionIdleMinutes", defaultSessionIdle)
}

// FromViper decodes v into a Config, applies environment overrides, normalizes the host and validates.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("could not decode configuration: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration file at path. A missing file at the default path yields defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if !slices.Contains(viper.SupportedExts, strings.TrimPrefix(filepath.Ext(path), ".")) {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing || path != DefaultConfigPath {
			return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
		}
	}
	return FromViper(v)
}

// ApplyEnv overlays OLLAMA_HOST, OLLAMA_API_KEY and GALLERY_LISTEN when they are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("could not parse environment: %w", err)
	}
	return nil
}

// Finalize normalizes the host URL and validates the configuration.
func (c *Config) Finalize() error {
	host, err := NormalizeHost(c.Host)
	if err != nil {
		return err
	}
	c.Host = host
	if strings.TrimSpace(c.WebSearchURL) == "" {
		c.WebSearchURL = DefaultWebSearchURL
	}
	return c.Validate()
}

var validate = validator.New()

// Validate checks the configuration's field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// NormalizeHost turns OLLAMA_HOST style values ("0.0.0.0", "host:port", "https://h") into a
// base URL with an explicit scheme and port.
func NormalizeHost(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultHost, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid host %q: missing hostname", raw)
	}
	if u.Port() == "" {
		port := defaultHostPort
		if u.Scheme == "https" {
			port = "443"
		}
		u.Host = hostPort(u.Hostname(), port)
	} else if _, err := strconv.Atoi(u.Port()); err != nil {
		return "", fmt.Errorf("invalid host %q: bad port", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func hostPort(host, port string) string {
	if strings.Contains(host, ":") {
		return "[" + host + "]:" + port
	}
	return host + ":" + port
}
