// internal/rag/index.go

// Package rag keeps a small in-memory vector index over document chunks and turns the
// closest chunks for a query into a context block for a chat prompt.
package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
)

// EmbedFunc returns the embedding of text.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Hit is a retrieved chunk and its cosine similarity to the query.
type Hit struct {
	Chunk Chunk
	Score float64
}

// Index holds embedded chunks. It is safe for concurrent queries.
type Index struct {
	col    *chromem.Collection
	chunks map[string]Chunk
}

// NewIndex embeds chunks with embed. Chunks without an ID are numbered in order.
func NewIndex(ctx context.Context, name string, embed EmbedFunc, chunks []Chunk) (*Index, error) {
	if embed == nil {
		return nil, errors.New("rag index needs an embedding function")
	}
	db := chromem.NewDB()
	col, err := db.CreateCollection(name, nil, normalized(embed))
	if err != nil {
		return nil, fmt.Errorf("could not create collection: %w", err)
	}

	byID := make(map[string]Chunk, len(chunks))
	docs := make([]chromem.Document, 0, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			c.ID = strconv.Itoa(i + 1)
		}
		byID[c.ID] = c
		docs = append(docs, chromem.Document{
			ID:       c.ID,
			Content:  c.Text,
			Metadata: map[string]string{"doc": c.Doc},
		})
	}
	if len(docs) > 0 {
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("could not embed chunks: %w", err)
		}
	}
	return &Index{col: col, chunks: byID}, nil
}

// normalized wraps embed so every vector has unit length. chromem compares stored vectors
// by dot product and only normalizes the query.
func normalized(embed EmbedFunc) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		v, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		if sum == 0 {
			return nil, errors.New("embedding has zero length")
		}
		norm := math.Sqrt(sum)
		out := make([]float32, len(v))
		for i, x := range v {
			out[i] = float32(float64(x) / norm)
		}
		return out, nil
	}
}

// Len is the number of indexed chunks.
func (ix *Index) Len() int {
	return ix.col.Count()
}

// Retrieve returns up to k chunks ordered by decreasing similarity to query.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]Hit, error) {
	k = min(k, ix.Len())
	if k <= 0 {
		return nil, nil
	}
	results, err := ix.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		c, ok := ix.chunks[r.ID]
		if !ok {
			c = Chunk{ID: r.ID, Doc: r.Metadata["doc"], Text: r.Content}
		}
		hits = append(hits, Hit{Chunk: c, Score: float64(r.Similarity)})
	}
	return hits, nil
}
