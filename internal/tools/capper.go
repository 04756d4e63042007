// internal/tools/capper.go
package tools

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/mwiater/llamagallery/internal/logging"
	"github.com/mwiater/llamagallery/internal/util"
)

const (
	// DefaultMaxTokens caps a tool result fed back to the model.
	DefaultMaxTokens = 2000
	// runesPerToken sizes the cap when no tokenizer is available.
	runesPerToken = 4
	encodingName  = "cl100k_base"
)

// Encoder tokenizes text. *tiktoken.Tiktoken satisfies it.
type Encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Capper shortens text to a token limit.
type Capper struct {
	MaxTokens int

	once sync.Once
	load func() (Encoder, error)
	enc  Encoder
}

// NewCapper caps at maxTokens using the cl100k_base encoding, loaded on first use. When the
// encoding cannot be loaded the cap falls back to four runes per token.
func NewCapper(maxTokens int) *Capper {
	return &Capper{
		MaxTokens: maxTokens,
		load: func() (Encoder, error) {
			return tiktoken.GetEncoding(encodingName)
		},
	}
}

// NewCapperWithEncoder caps with enc. A nil enc always uses the rune fallback.
func NewCapperWithEncoder(maxTokens int, enc Encoder) *Capper {
	return &Capper{
		MaxTokens: maxTokens,
		load:      func() (Encoder, error) { return enc, nil },
	}
}

func (c *Capper) encoder() Encoder {
	c.once.Do(func() {
		if c.load == nil {
			return
		}
		enc, err := c.load()
		if err != nil {
			logging.LogWarn(err, "tokenizer %s unavailable, capping by runes", encodingName)
			return
		}
		c.enc = enc
	})
	return c.enc
}

// Cap returns text unchanged when it fits, otherwise its first MaxTokens tokens. A nil
// Capper does not cap.
func (c *Capper) Cap(text string) string {
	if c == nil {
		return text
	}
	limit := c.MaxTokens
	if limit <= 0 {
		limit = DefaultMaxTokens
	}
	enc := c.encoder()
	if enc == nil {
		return util.Head(text, limit*runesPerToken)
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= limit {
		return text
	}
	return enc.Decode(tokens[:limit])
}
