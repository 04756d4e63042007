package pages

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/rag"
	"github.com/mwiater/llamagallery/internal/ui"
)

var embedModels = []string{"llama3.2", "nomic-embed-text", "mxbai-embed-large"}

// VectorStats summarizes one embedding.
type VectorStats struct {
	Dimension int
	First     float64
	Last      float64
	Mean      float64
	StdDev    float64
	L2        float64
}

// Stats computes the summary of vec. StdDev is the population standard deviation.
func Stats(vec []float32) VectorStats {
	if len(vec) == 0 {
		return VectorStats{}
	}
	var sum, sumSq float64
	for _, v := range vec {
		f := float64(v)
		sum += f
		sumSq += f * f
	}
	n := float64(len(vec))
	mean := sum / n
	var dev float64
	for _, v := range vec {
		d := float64(v) - mean
		dev += d * d
	}
	return VectorStats{
		Dimension: len(vec),
		First:     float64(vec[0]),
		Last:      float64(vec[len(vec)-1]),
		Mean:      mean,
		StdDev:    math.Sqrt(dev / n),
		L2:        math.Sqrt(sumSq),
	}
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero or their
// lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Similarity classes for cosine scores.
const (
	VerySimilar       = "Very similar texts!"
	ModeratelySimilar = "Moderately similar texts"
	Different         = "Different texts"
)

// Classify buckets a cosine similarity: above 0.8, above 0.5, or neither.
func Classify(similarity float64) string {
	switch {
	case similarity > 0.8:
		return VerySimilar
	case similarity > 0.5:
		return ModeratelySimilar
	default:
		return Different
	}
}

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws vec as one row of block characters scaled between its min and max.
func sparkline(vec []float32) string {
	if len(vec) == 0 {
		return ""
	}
	lo, hi := vec[0], vec[0]
	for _, v := range vec {
		lo, hi = min(lo, v), max(hi, v)
	}
	var b strings.Builder
	for _, v := range vec {
		i := 0
		if hi > lo {
			i = int(float64(v-lo) / float64(hi-lo) * float64(len(sparkTicks)-1))
		}
		b.WriteRune(sparkTicks[i])
	}
	return b.String()
}

func firstVector(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("the model returned no embedding")
	}
	return vectors[0], nil
}

func embedPage(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, embedModels...)

	s.Subheader("Generate Embeddings")
	text := s.TextArea("text_input", "Enter text:", "Hello, world!")
	if s.Button("embed_btn", "Generate Embedding") {
		done := s.Status("Generating embedding...")
		resp, err := e.Models.Embed(ctx, model, text)
		done()
		if err != nil {
			return err
		}
		vec, err := firstVector(resp.Embeddings)
		if err != nil {
			return err
		}
		st := Stats(vec)
		s.Success("✅ Embedding generated!")
		s.Metric("Embedding Dimension", strconv.Itoa(st.Dimension))
		s.Metric("First Value", fmt.Sprintf("%.6f", st.First))
		s.Metric("Last Value", fmt.Sprintf("%.6f", st.Last))
		s.Metric("Mean", fmt.Sprintf("%.6f", st.Mean))
		s.Metric("Std Dev", fmt.Sprintf("%.6f", st.StdDev))
		s.Metric("L2 Norm", fmt.Sprintf("%.6f", st.L2))
		s.Details("📊 View First 20 Values", "```json\n"+mustIndent(vec[:min(20, len(vec))])+"\n```")
		s.Details("📈 Visualization", "`"+sparkline(vec[:min(100, len(vec))])+"`")
	}

	s.Divider()
	s.Subheader("Compare Embeddings (Similarity)")
	text1 := s.TextInput("text1", "Text 1:", "I love programming")
	text2 := s.TextInput("text2", "Text 2:", "I enjoy coding")
	if !s.Button("compare_btn", "Compare Similarity") {
		return nil
	}

	done := s.Status("Comparing...")
	vectors := make([][]float32, 2)
	g, gctx := errgroup.WithContext(ctx)
	for i, input := range []string{text1, text2} {
		g.Go(func() error {
			resp, err := e.Models.EmbedAsync(gctx, model, input).Wait(gctx)
			if err != nil {
				return err
			}
			vectors[i], err = firstVector(resp.Embeddings)
			return err
		})
	}
	err := g.Wait()
	done()
	if err != nil {
		return err
	}

	similarity := Cosine(vectors[0], vectors[1])
	s.Metric("Cosine Similarity", fmt.Sprintf("%.4f", similarity))
	s.Progress().Set(similarity)
	switch label := Classify(similarity); label {
	case VerySimilar:
		s.Success(label)
	case ModeratelySimilar:
		s.Info(label)
	default:
		s.Warning(label)
	}
	return nil
}

// searchCorpus is the document set of the Semantic Search page.
var searchCorpus = []string{
	"Llamas are domesticated South American camelids, widely used as pack animals in the Andes.",
	"Ollama runs large language models locally and serves them over a REST API.",
	"The sky appears blue because air molecules scatter short wavelengths of sunlight more strongly.",
	"Tokyo has a humid subtropical climate with hot summers and a rainy season in June.",
	"Go is a statically typed, compiled language designed at Google with built-in concurrency.",
	"Embeddings map text to vectors so that similar meanings end up close together.",
	"Alpacas are smaller than llamas and are bred mainly for their soft fleece.",
	"A vector database stores embeddings and answers nearest-neighbour queries.",
}

func collectionKey(model string) string {
	return "semantic_search:" + model
}

// contextTokens bounds the context block sent with a grounded answer.
const contextTokens = 200

const answerSystem = "Answer the question using only the CONTEXT. Cite the documents you used as [doc:N]. " +
	"If the context does not contain the answer, say so."

// searchIndex returns the corpus embedded with model, building it on first use in the
// session.
func searchIndex(ctx context.Context, e *Env, model string) (*rag.Index, error) {
	if v, ok := e.Session.Get(collectionKey(model)); ok {
		if ix, ok := v.(*rag.Index); ok {
			return ix, nil
		}
	}
	embed := func(ctx context.Context, text string) ([]float32, error) {
		resp, err := e.Models.Embed(ctx, model, text)
		if err != nil {
			return nil, err
		}
		return firstVector(resp.Embeddings)
	}
	chunks := make([]rag.Chunk, len(searchCorpus))
	for i, text := range searchCorpus {
		id := strconv.Itoa(i + 1)
		chunks[i] = rag.Chunk{ID: id, Doc: id, Text: text, Tokens: len(strings.Fields(text))}
	}
	ix, err := rag.NewIndex(ctx, "corpus", embed, chunks)
	if err != nil {
		return nil, err
	}
	e.Session.Set(collectionKey(model), ix)
	return ix, nil
}

func semanticSearch(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info("The corpus below is embedded once per model and session; queries rank it by cosine similarity.")
	model := e.model(ctx, embedModels...)

	s.Subheader("Corpus")
	var corpus strings.Builder
	for i, text := range searchCorpus {
		fmt.Fprintf(&corpus, "%d. %s\n", i+1, text)
	}
	s.Markdown(corpus.String())

	query := s.TextInput("search_query", "Search query:", "Which animal carries loads in the mountains?")
	k := s.IntSlider("search_k", "Results", 1, len(searchCorpus), 3, 1)
	if !s.Button("search_btn", "Search") {
		return nil
	}

	done := s.Status("Embedding and searching...")
	ix, err := searchIndex(ctx, e, model)
	if err != nil {
		done()
		return err
	}
	hits, err := ix.Retrieve(ctx, query, k)
	done()
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	s.Success(fmt.Sprintf("Top %d of %d documents", len(hits), ix.Len()))
	for i, h := range hits {
		s.Markdown(fmt.Sprintf("**%d.** %s  \n*similarity %.4f · %s*", i+1, h.Chunk.Text, h.Score, Classify(h.Score)))
	}

	s.Divider()
	s.Subheader("Answer from the results")
	answerModel := e.UI.SelectModel(ctx, s, ui.SelectorOptions{Key: "answer_model", Label: "Answer model", Fallback: chatModels})
	if !s.Button("answer_btn", "Answer with Context") {
		return nil
	}
	block, used, sources := rag.FormatContext(hits, contextTokens)
	s.Details("📄 Context", block)
	s.Caption(fmt.Sprintf("%d context tokens from %d documents", used, sources))
	_, err = e.UI.RunChat(ctx, s, answerModel, []ollama.Message{
		{Role: "system", Content: answerSystem},
		{Role: "user", Content: block + "\n\nQUESTION\n" + query},
	}, ui.RunOptions{Stream: true})
	return err
}
