// internal/ollama/api.go
package ollama

import (
	"context"
	"iter"
	"net/http"
)

// Chat sends a conversation and returns the complete reply.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	r := *req
	r.Stream = boolPtr(false)
	var resp ChatResponse
	if err := c.do(ctx, c.base, http.MethodPost, "/api/chat", &r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChatStream sends a conversation and yields reply fragments as they arrive.
func (c *Client) ChatStream(ctx context.Context, req *ChatRequest) iter.Seq2[ChatResponse, error] {
	r := *req
	r.Stream = boolPtr(true)
	return stream[ChatResponse](c, ctx, "/api/chat", &r)
}

// Generate completes a single prompt and returns the complete reply.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	r := *req
	r.Stream = boolPtr(false)
	var resp GenerateResponse
	if err := c.do(ctx, c.base, http.MethodPost, "/api/generate", &r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateStream completes a single prompt and yields fragments as they arrive.
func (c *Client) GenerateStream(ctx context.Context, req *GenerateRequest) iter.Seq2[GenerateResponse, error] {
	r := *req
	r.Stream = boolPtr(true)
	return stream[GenerateResponse](c, ctx, "/api/generate", &r)
}

// Embed returns one embedding vector per input.
func (c *Client) Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error) {
	var resp EmbedResponse
	if err := c.do(ctx, c.base, http.MethodPost, "/api/embed", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pull downloads a model and returns the final status.
func (c *Client) Pull(ctx context.Context, req *PullRequest) (*ProgressResponse, error) {
	r := *req
	r.Stream = boolPtr(false)
	var resp ProgressResponse
	if err := c.do(ctx, c.base, http.MethodPost, "/api/pull", &r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PullStream downloads a model and yields progress fragments.
func (c *Client) PullStream(ctx context.Context, req *PullRequest) iter.Seq2[ProgressResponse, error] {
	r := *req
	r.Stream = boolPtr(true)
	return stream[ProgressResponse](c, ctx, "/api/pull", &r)
}

// Push uploads a model to a registry and returns the final status.
func (c *Client) Push(ctx context.Context, req *PushRequest) (*ProgressResponse, error) {
	r := *req
	r.Stream = boolPtr(false)
	var resp ProgressResponse
	if err := c.do(ctx, c.base, http.MethodPost, "/api/push", &r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PushStream uploads a model and yields progress fragments.
func (c *Client) PushStream(ctx context.Context, req *PushRequest) iter.Seq2[ProgressResponse, error] {
	r := *req
	r.Stream = boolPtr(true)
	return stream[ProgressResponse](c, ctx, "/api/push", &r)
}

// Create derives a new model and returns the final status.
func (c *Client) Create(ctx context.Context, req *CreateRequest) (*ProgressResponse, error) {
	r := *req
	r.Stream = boolPtr(false)
	var resp ProgressResponse
	if err := c.do(ctx, c.base, http.MethodPost, "/api/create", &r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateStream derives a new model and yields progress fragments.
func (c *Client) CreateStream(ctx context.Context, req *CreateRequest) iter.Seq2[ProgressResponse, error] {
	r := *req
	r.Stream = boolPtr(true)
	return stream[ProgressResponse](c, ctx, "/api/create", &r)
}

// Delete removes a model from the host.
func (c *Client) Delete(ctx context.Context, req *DeleteRequest) error {
	return c.do(ctx, c.base, http.MethodDelete, "/api/delete", req, nil)
}

// Copy duplicates a model under a new name.
func (c *Client) Copy(ctx context.Context, req *CopyRequest) error {
	return c.do(ctx, c.base, http.MethodPost, "/api/copy", req, nil)
}

// Show returns a model's metadata.
func (c *Client) Show(ctx context.Context, req *ShowRequest) (*ShowResponse, error) {
	var resp ShowResponse
	if err := c.do(ctx, c.base, http.MethodPost, "/api/show", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns the installed models.
func (c *Client) List(ctx context.Context) (*ListResponse, error) {
	var resp ListResponse
	if err := c.do(ctx, c.base, http.MethodGet, "/api/tags", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListRunning returns the models currently loaded in memory.
func (c *Client) ListRunning(ctx context.Context) (*ProcessResponse, error) {
	var resp ProcessResponse
	if err := c.do(ctx, c.base, http.MethodGet, "/api/ps", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Version returns the host's version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var resp VersionResponse
	if err := c.do(ctx, c.base, http.MethodGet, "/api/version", nil, &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}

// WebSearch queries the hosted web search endpoint. It requires an API key.
func (c *Client) WebSearch(ctx context.Context, req *WebSearchRequest) (*WebSearchResponse, error) {
	var resp WebSearchResponse
	if err := c.do(ctx, c.webBase, http.MethodPost, "/api/web_search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WebFetch retrieves a page through the hosted web fetch endpoint. It requires an API key.
func (c *Client) WebFetch(ctx context.Context, req *WebFetchRequest) (*WebFetchResponse, error) {
	var resp WebFetchResponse
	if err := c.do(ctx, c.webBase, http.MethodPost, "/api/web_fetch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
