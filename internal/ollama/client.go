// internal/ollama/client.go
// Package ollama is a thin HTTP client for the Ollama model host REST API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mwiater/llamagallery/internal/appconfig"
	"github.com/mwiater/llamagallery/internal/logging"
)

const (
	dirOut = "GALLERY->HOST"
	dirIn  = "HOST->GALLERY"
)

// StatusError is returned for any host response with a status code of 400 or higher.
type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string
}

func (e *StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		return fmt.Sprintf("model host returned status %d", e.StatusCode)
	}
}

// Client talks to one model host. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	webBase *url.URL
	http    *http.Client
	timeout time.Duration
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each blocking request. Streams are bounded only by their context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithAPIKey sets the bearer token sent to the hosted web search and fetch endpoints.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// WithWebBase overrides the base URL of the hosted web search and fetch endpoints.
func WithWebBase(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(strings.TrimRight(strings.TrimSpace(raw), "/")); err == nil && u.Host != "" {
			c.webBase = u
		}
	}
}

// New creates a client for the host at rawURL. Bare "host:port" values are accepted.
func New(rawURL string, opts ...Option) (*Client, error) {
	normalized, err := appconfig.NormalizeHost(rawURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(normalized)
	if err != nil {
		return nil, err
	}
	web, _ := url.Parse(appconfig.DefaultWebSearchURL)
	c := &Client{base: base, webBase: web, http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FromEnvironment creates a client from OLLAMA_HOST and OLLAMA_API_KEY.
func FromEnvironment(opts ...Option) (*Client, error) {
	opts = append([]Option{WithAPIKey(os.Getenv("OLLAMA_API_KEY"))}, opts...)
	return New(os.Getenv("OLLAMA_HOST"), opts...)
}

// Host returns the base URL of the model host.
func (c *Client) Host() string {
	return c.base.String()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// send issues one request and returns the raw response. The caller owns the body.
func (c *Client) send(ctx context.Context, base *url.URL, method, path string, reqData any, stream bool) (*http.Response, error) {
	var body io.Reader
	var payload []byte
	if reqData != nil {
		data, err := json.Marshal(reqData)
		if err != nil {
			return nil, err
		}
		payload = data
		body = bytes.NewReader(data)
	}
	logging.LogRequest(dirOut, base.Host, requestModel(reqData), "", payload)

	req, err := http.NewRequestWithContext(ctx, method, base.JoinPath(path).String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if stream {
		req.Header.Set("Accept", "application/x-ndjson")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("User-Agent", "llamagallery")
	if base == c.webBase && c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.http.Do(req)
}

// do executes a blocking request against base and decodes the JSON response into respData.
func (c *Client) do(ctx context.Context, base *url.URL, method, path string, reqData, respData any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.send(ctx, base, method, path, reqData, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body from %s: %w", base.Host, err)
	}
	logging.LogRequest(dirIn, base.Host, requestModel(reqData), "", body)

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp, body)
	}
	if respData == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, respData); err != nil {
		return fmt.Errorf("error parsing %s response from %s: %w", path, base.Host, err)
	}
	return nil
}

// stream issues a streaming POST and yields each NDJSON fragment decoded as T.
// The request starts on the first iteration; breaking out of the loop closes the body.
func stream[T any](c *Client, ctx context.Context, path string, reqData any) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		resp, err := c.send(ctx, c.base, http.MethodPost, path, reqData, true)
		if err != nil {
			yield(zero, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			body, _ := io.ReadAll(resp.Body)
			logging.LogRequest(dirIn, c.base.Host, requestModel(reqData), "", body)
			yield(zero, statusError(resp, body))
			return
		}

		dec := json.NewDecoder(resp.Body)
		for {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				if !errors.Is(err, io.EOF) {
					yield(zero, err)
				}
				return
			}
			logging.LogRequest(dirIn, c.base.Host, requestModel(reqData), "", []byte(raw))

			var inband struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(raw, &inband) == nil && inband.Error != "" {
				yield(zero, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, ErrorMessage: inband.Error})
				return
			}

			var chunk T
			if err := json.Unmarshal(raw, &chunk); err != nil {
				yield(zero, fmt.Errorf("error parsing %s fragment: %w", path, err))
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func statusError(resp *http.Response, body []byte) *StatusError {
	se := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		se.ErrorMessage = payload.Error
	} else {
		se.ErrorMessage = strings.TrimSpace(string(body))
	}
	return se
}

func requestModel(reqData any) string {
	switch r := reqData.(type) {
	case *ChatRequest:
		return r.Model
	case *GenerateRequest:
		return r.Model
	case *EmbedRequest:
		return r.Model
	case *PullRequest:
		return r.Model
	case *PushRequest:
		return r.Model
	case *CreateRequest:
		return r.Model
	case *ShowRequest:
		return r.Model
	case *DeleteRequest:
		return r.Model
	case *CopyRequest:
		return r.Source
	default:
		return ""
	}
}

func boolPtr(v bool) *bool { return &v }
