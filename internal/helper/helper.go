// internal/helper/helper.go
// Package helper is the facade the gallery pages use to talk to the model host.
// Read operations degrade to empty values; generative operations return host errors unchanged.
package helper

import (
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/mwiater/llamagallery/internal/appconfig"
	"github.com/mwiater/llamagallery/internal/logging"
	"github.com/mwiater/llamagallery/internal/ollama"
)

// HostClient is the subset of the model-host client the facade depends on.
type HostClient interface {
	List(ctx context.Context) (*ollama.ListResponse, error)
	ListRunning(ctx context.Context) (*ollama.ProcessResponse, error)
	Show(ctx context.Context, req *ollama.ShowRequest) (*ollama.ShowResponse, error)
	Delete(ctx context.Context, req *ollama.DeleteRequest) error
	Copy(ctx context.Context, req *ollama.CopyRequest) error
	Create(ctx context.Context, req *ollama.CreateRequest) (*ollama.ProgressResponse, error)
	CreateStream(ctx context.Context, req *ollama.CreateRequest) iter.Seq2[ollama.ProgressResponse, error]
	Pull(ctx context.Context, req *ollama.PullRequest) (*ollama.ProgressResponse, error)
	PullStream(ctx context.Context, req *ollama.PullRequest) iter.Seq2[ollama.ProgressResponse, error]
	Chat(ctx context.Context, req *ollama.ChatRequest) (*ollama.ChatResponse, error)
	ChatStream(ctx context.Context, req *ollama.ChatRequest) iter.Seq2[ollama.ChatResponse, error]
	Generate(ctx context.Context, req *ollama.GenerateRequest) (*ollama.GenerateResponse, error)
	GenerateStream(ctx context.Context, req *ollama.GenerateRequest) iter.Seq2[ollama.GenerateResponse, error]
	Embed(ctx context.Context, req *ollama.EmbedRequest) (*ollama.EmbedResponse, error)
	WebSearch(ctx context.Context, req *ollama.WebSearchRequest) (*ollama.WebSearchResponse, error)
	WebFetch(ctx context.Context, req *ollama.WebFetchRequest) (*ollama.WebFetchResponse, error)
	Version(ctx context.Context) (string, error)
}

// Helper wraps one host client. It holds no state of its own.
type Helper struct {
	client HostClient
}

// New creates a facade over client.
func New(client HostClient) *Helper {
	return &Helper{client: client}
}

// NewFromConfig builds a host client for cfg.Host and wraps it.
func NewFromConfig(cfg appconfig.Config) (*Helper, error) {
	client, err := ollama.New(cfg.Host,
		ollama.WithTimeout(cfg.RequestTimeout()),
		ollama.WithAPIKey(cfg.APIKey),
		ollama.WithWebBase(cfg.WebSearchURL),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create model host client: %w", err)
	}
	return New(client), nil
}

// Client exposes the underlying host client for pages that need request fields the facade
// does not surface, such as format or think.
func (h *Helper) Client() HostClient {
	return h.client
}

// Details is the summary block of a model's metadata.
type Details struct {
	Format            string   `json:"format" yaml:"format"`
	Family            string   `json:"family" yaml:"family"`
	Families          []string `json:"families,omitempty" yaml:"families,omitempty"`
	ParameterSize     string   `json:"parameter_size" yaml:"parameter_size"`
	QuantizationLevel string   `json:"quantization_level" yaml:"quantization_level"`
}

// ModelInfo describes one installed model.
type ModelInfo struct {
	Name       string    `json:"name" yaml:"name"`
	NameShort  string    `json:"name_short" yaml:"name_short"`
	Size       int64     `json:"size" yaml:"size"`
	SizeMB     float64   `json:"size_mb" yaml:"size_mb"`
	ModifiedAt time.Time `json:"modified_at" yaml:"modified_at"`
	Digest     string    `json:"digest" yaml:"digest"`
	Details    *Details  `json:"details" yaml:"details"`
}

// RunningModel describes one model loaded in memory.
type RunningModel struct {
	Name          string    `json:"name" yaml:"name"`
	Size          int64     `json:"size" yaml:"size"`
	SizeMB        float64   `json:"size_mb" yaml:"size_mb"`
	SizeVRAM      int64     `json:"size_vram" yaml:"size_vram"`
	SizeVRAMMB    float64   `json:"size_vram_mb" yaml:"size_vram_mb"`
	Digest        string    `json:"digest" yaml:"digest"`
	ExpiresAt     time.Time `json:"expires_at" yaml:"expires_at"`
	ContextLength int       `json:"context_length" yaml:"context_length"`
}

// ModelDetail is a model's full metadata. On failure only Error is set.
type ModelDetail struct {
	Name         string    `json:"name,omitempty" yaml:"name,omitempty"`
	ModifiedAt   time.Time `json:"modified_at,omitzero" yaml:"modified_at,omitempty"`
	Template     string    `json:"template,omitempty" yaml:"template,omitempty"`
	Modelfile    string    `json:"modelfile,omitempty" yaml:"modelfile,omitempty"`
	Parameters   string    `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	License      string    `json:"license,omitempty" yaml:"license,omitempty"`
	System       string    `json:"system,omitempty" yaml:"system,omitempty"`
	Details      *Details  `json:"details,omitempty" yaml:"details,omitempty"`
	Capabilities []string  `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	ContextLen   int       `json:"context_length,omitempty" yaml:"context_length,omitempty"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// HasError reports whether the lookup failed.
func (d ModelDetail) HasError() bool {
	return d.Error != ""
}

// Result reports the outcome of a mutating operation.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func megabytes(size int64) float64 {
	return math.Round(float64(size)/1024/1024*100) / 100
}

func detailsFrom(d *ollama.ModelDetails) *Details {
	if d == nil {
		return nil
	}
	return &Details{
		Format:            d.Format,
		Family:            d.Family,
		Families:          d.Families,
		ParameterSize:     d.ParameterSize,
		QuantizationLevel: d.QuantizationLevel,
	}
}

// Models lists installed models and returns the host error when listing fails.
func (h *Helper) Models(ctx context.Context) ([]ModelInfo, error) {
	resp, err := h.client.List(ctx)
	if err != nil {
		return []ModelInfo{}, fmt.Errorf("could not list models: %w", err)
	}
	models := make([]ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		name := m.Ref()
		models = append(models, ModelInfo{
			Name:       name,
			NameShort:  strings.TrimSuffix(name, ":latest"),
			Size:       m.Size,
			SizeMB:     megabytes(m.Size),
			ModifiedAt: m.ModifiedAt,
			Digest:     m.Digest,
			Details:    detailsFrom(m.Details),
		})
	}
	return models, nil
}

// ListModels lists installed models. A failure is logged and yields an empty slice.
func (h *Helper) ListModels(ctx context.Context) []ModelInfo {
	models, err := h.Models(ctx)
	if err != nil {
		logging.LogWarn(err, "listing models failed; reporting none")
		return []ModelInfo{}
	}
	return models
}

// ModelNames returns the installed model names in host order.
func (h *Helper) ModelNames(ctx context.Context) []string {
	models := h.ListModels(ctx)
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return names
}

// RunningModels lists loaded models and returns the host error when listing fails.
func (h *Helper) RunningModels(ctx context.Context) ([]RunningModel, error) {
	resp, err := h.client.ListRunning(ctx)
	if err != nil {
		return []RunningModel{}, fmt.Errorf("could not get running models: %w", err)
	}
	models := make([]RunningModel, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, RunningModel{
			Name:          m.Ref(),
			Size:          m.Size,
			SizeMB:        megabytes(m.Size),
			SizeVRAM:      m.SizeVRAM,
			SizeVRAMMB:    megabytes(m.SizeVRAM),
			Digest:        m.Digest,
			ExpiresAt:     m.ExpiresAt,
			ContextLength: m.ContextLength,
		})
	}
	return models, nil
}

// ListRunningModels lists loaded models. A failure is logged and yields an empty slice.
func (h *Helper) ListRunningModels(ctx context.Context) []RunningModel {
	models, err := h.RunningModels(ctx)
	if err != nil {
		logging.LogWarn(err, "listing running models failed; reporting none")
		return []RunningModel{}
	}
	return models
}

// IsModelInstalled reports whether name is exactly one of the installed model names.
func (h *Helper) IsModelInstalled(ctx context.Context, name string) bool {
	return slices.Contains(h.ModelNames(ctx), name)
}

// ModelSize returns the installed size of name in MB.
func (h *Helper) ModelSize(ctx context.Context, name string) (float64, bool) {
	for _, m := range h.ListModels(ctx) {
		if m.Name == name {
			return m.SizeMB, true
		}
	}
	return 0, false
}

// ShowModel returns a model's metadata, or a detail with only Error set.
func (h *Helper) ShowModel(ctx context.Context, name string) ModelDetail {
	resp, err := h.client.Show(ctx, &ollama.ShowRequest{Model: name})
	if err != nil {
		return ModelDetail{Error: err.Error()}
	}
	details := resp.Details
	return ModelDetail{
		Name:         name,
		ModifiedAt:   resp.ModifiedAt,
		Template:     resp.Template,
		Modelfile:    resp.Modelfile,
		Parameters:   resp.Parameters,
		License:      resp.License,
		System:       resp.System,
		Details:      detailsFrom(&details),
		Capabilities: resp.Capabilities,
		ContextLen:   resp.ContextLength(),
	}
}

// DeleteModel removes a model from the host.
func (h *Helper) DeleteModel(ctx context.Context, name string) Result {
	if err := h.client.Delete(ctx, &ollama.DeleteRequest{Model: name}); err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true, Message: fmt.Sprintf("Model %s deleted", name)}
}

// CopyModel duplicates source under destination.
func (h *Helper) CopyModel(ctx context.Context, source, destination string) Result {
	if err := h.client.Copy(ctx, &ollama.CopyRequest{Source: source, Destination: destination}); err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true, Message: fmt.Sprintf("Model copied from %s to %s", source, destination)}
}

// PullModel downloads name and yields progress fragments.
func (h *Helper) PullModel(ctx context.Context, name string) iter.Seq2[ollama.ProgressResponse, error] {
	return h.client.PullStream(ctx, &ollama.PullRequest{Model: name})
}

// Pull downloads name and returns the final status.
func (h *Helper) Pull(ctx context.Context, name string) (*ollama.ProgressResponse, error) {
	return h.client.Pull(ctx, &ollama.PullRequest{Model: name})
}

// CreateOptions describes a model derived from a base model.
type CreateOptions struct {
	Name       string
	From       string
	System     string
	Template   string
	Parameters map[string]any
}

// CreateModel derives a new model and returns the final status.
func (h *Helper) CreateModel(ctx context.Context, opts CreateOptions) (*ollama.ProgressResponse, error) {
	return h.client.Create(ctx, createRequest(opts))
}

// CreateModelStream derives a new model and yields progress fragments.
func (h *Helper) CreateModelStream(ctx context.Context, opts CreateOptions) iter.Seq2[ollama.ProgressResponse, error] {
	return h.client.CreateStream(ctx, createRequest(opts))
}

func createRequest(opts CreateOptions) *ollama.CreateRequest {
	return &ollama.CreateRequest{
		Model:      opts.Name,
		From:       opts.From,
		System:     opts.System,
		Template:   opts.Template,
		Parameters: opts.Parameters,
	}
}

// EnsureModel returns true at once when name is installed. Otherwise it drains a pull of
// name and reports whether the pull completed without error.
func (h *Helper) EnsureModel(ctx context.Context, name string) bool {
	if h.IsModelInstalled(ctx, name) {
		return true
	}
	for _, err := range h.PullModel(ctx, name) {
		if err != nil {
			logging.LogWarn(err, "pulling %s failed", name)
			return false
		}
	}
	return true
}

// Version returns the host version string.
func (h *Helper) Version(ctx context.Context) (string, error) {
	return h.client.Version(ctx)
}
