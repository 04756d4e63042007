package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/ui"
)

func multimodalChat(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, visionModels...)
	prompt := s.TextInput("prompt", "Ask about the image:", "What is in this image? Be concise.")
	upload, ok := s.FileUpload("image", "Upload an image", imageTypes)
	if !s.Button("analyze_btn", "Analyze Image") {
		return nil
	}
	if !ok {
		s.Warning("Please upload an image first.")
		return nil
	}

	s.Image("Uploaded Image", upload.Data)
	done := s.Status("Analyzing image...")
	resp, err := e.Models.Chat(ctx, model, []ollama.Message{{
		Role:    "user",
		Content: prompt,
		Images:  []ollama.ImageData{upload.Data},
	}}, nil)
	done()
	if err != nil {
		return err
	}
	s.Success("Analysis:")
	s.Markdown(resp.Message.Content)
	return nil
}

// Comic is the metadata of one archived comic.
type Comic struct {
	Num   int    `json:"num"`
	Title string `json:"title"`
	Img   string `json:"img"`
	Alt   string `json:"alt"`
}

var comicModels = []string{"llava", "bakllava"}

const maxComic = 3000

func (e *Env) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (e *Env) comic(ctx context.Context, path string) (Comic, error) {
	var c Comic
	data, err := e.get(ctx, strings.TrimRight(e.ComicsURL, "/")+path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("could not decode comic: %w", err)
	}
	return c, nil
}

// pickComic resolves num to a comic, choosing a random one up to the latest when num is 0.
func (e *Env) pickComic(ctx context.Context, num int) (Comic, error) {
	if num <= 0 {
		latest, err := e.comic(ctx, "/info.0.json")
		if err != nil {
			return Comic{}, err
		}
		num = e.intN(latest.Num) + 1
	}
	return e.comic(ctx, fmt.Sprintf("/%d/info.0.json", num))
}

func multimodalGenerate(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	s.Info("This demo fetches random XKCD comics and explains them using vision models")
	model := e.model(ctx, comicModels...)
	num := s.NumberInput("comic_num", "Comic number (0 for random):", 0, maxComic, 0)
	if !s.Button("fetch_btn", "Fetch & Explain Comic") {
		return nil
	}

	done := s.Status("Fetching comic...")
	c, err := e.pickComic(ctx, num)
	if err != nil {
		done()
		return err
	}
	img, err := e.get(ctx, c.Img)
	done()
	if err != nil {
		return err
	}

	s.Subheader(fmt.Sprintf("xkcd #%d: %s", c.Num, c.Title))
	s.Image(c.Title, img)
	s.Caption(c.Alt)

	s.Subheader("Explanation:")
	seq := e.Models.GenerateStream(ctx, model, "explain this comic:", []ollama.ImageData{img}, nil)
	_, err = ui.StreamText(s.Placeholder(), seq, func(r ollama.GenerateResponse) string { return r.Response })
	return err
}
