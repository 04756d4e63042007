package rag

import (
	"fmt"
	"strings"
)

// Chunk is one span of a document, the unit the index embeds and returns.
type Chunk struct {
	ID     string
	Doc    string
	Offset int
	Text   string
	Tokens int
}

// ChunkText splits text into overlapping chunks using word counts as a proxy for tokens.
func ChunkText(doc, text string, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []Chunk
	for i := 0; i < len(words); i += step {
		end := min(i+chunkSize, len(words))
		chunks = append(chunks, Chunk{
			ID:     fmt.Sprintf("%s#%d", doc, i),
			Doc:    doc,
			Offset: i,
			Text:   strings.Join(words[i:end], " "),
			Tokens: end - i,
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
