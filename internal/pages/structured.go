// internal/pages/structured.go

package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/llamagallery/internal/helper"
	"github.com/mwiater/llamagallery/internal/ollama"
	"github.com/mwiater/llamagallery/internal/ui"
)

var structuredModels = []string{"llama3.1:8b", "llama3.2", "qwen2.5"}

const friendsPrompt = "I have two friends. The first is Ollama 22 years old busy saving the world, and the second is Alonso 23 years old and wants to hang out. Return a list of friends in JSON format"

// FriendInfo is one entry of FriendList.
type FriendInfo struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	IsAvailable bool   `json:"is_available"`
}

// FriendList is the structured output of the friends prompt.
type FriendList struct {
	Friends []FriendInfo `json:"friends"`
}

// DetectedObject is one object found in an image.
type DetectedObject struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Attributes string  `json:"attributes"`
}

// ImageDescription is the structured output of an image analysis.
type ImageDescription struct {
	Summary     string           `json:"summary"`
	Objects     []DetectedObject `json:"objects"`
	Scene       string           `json:"scene"`
	Colors      []string         `json:"colors"`
	TimeOfDay   string           `json:"time_of_day" jsonschema:"enum=Morning,enum=Afternoon,enum=Evening,enum=Night"`
	Setting     string           `json:"setting" jsonschema:"enum=Indoor,enum=Outdoor,enum=Unknown"`
	TextContent string           `json:"text_content,omitempty"`
}

// SchemaFor reflects T into the JSON schema sent as a request's format. Nested types are
// inlined.
func SchemaFor[T any]() json.RawMessage {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := r.Reflect(new(T))
	schema.Version = ""
	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("schema for %T: %v", *new(T), err))
	}
	return data
}

// DecodeStructured validates raw against schema and decodes it into a T.
func DecodeStructured[T any](schema json.RawMessage, raw string) (T, error) {
	var out T
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewStringLoader(raw))
	if err != nil {
		return out, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return out, fmt.Errorf("response does not match the schema: %s", strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, err
	}
	return out, nil
}

// askStructured sends messages with the schema of T as the format at temperature 0.
func askStructured[T any](ctx context.Context, client helper.HostClient, model string, messages []ollama.Message) (T, error) {
	schema := SchemaFor[T]()
	resp, err := client.Chat(ctx, &ollama.ChatRequest{
		Model:    model,
		Messages: messages,
		Format:   schema,
		Options:  ollama.Options{"temperature": 0},
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeStructured[T](schema, resp.Message.Content)
}

func friendsSchemaListing(s ui.Surface) {
	s.Subheader("Schema Definition")
	s.Code(`type FriendInfo struct {
	Name        string `+"`json:\"name\"`"+`
	Age         int    `+"`json:\"age\"`"+`
	IsAvailable bool   `+"`json:\"is_available\"`"+`
}

type FriendList struct {
	Friends []FriendInfo `+"`json:\"friends\"`"+`
}`, "go")
}

// structuredFailed renders a structured-output failure with its hint.
func structuredFailed(s ui.Surface, err error) error {
	s.Error(fmt.Sprintf("Error: %s", err))
	s.Error("Make sure the model supports structured outputs")
	return &ui.ShownError{Err: err}
}

func showFriends(s ui.Surface, friends FriendList) {
	s.Subheader("Parsed Data")
	for _, f := range friends.Friends {
		available := "❌ No"
		if f.IsAvailable {
			available = "✅ Yes"
		}
		s.Markdown(fmt.Sprintf("**%s**", f.Name))
		s.Text(fmt.Sprintf("Age: %d", f.Age))
		s.Text("Available: " + available)
		s.Divider()
	}
	s.Subheader("Raw JSON")
	s.JSON(friends)
	s.Subheader("Schema Used")
	s.JSON(SchemaFor[FriendList]())
}

const structuredAbout = `### About Structured Outputs

Structured outputs let you:
- Get predictable JSON responses
- Validate responses against a JSON schema
- Decode straight into Go types`

func structuredOutputs(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, structuredModels...)
	friendsSchemaListing(s)

	s.Subheader("Generate Structured Data")
	prompt := s.TextArea("prompt", "Enter your prompt:", friendsPrompt)
	if s.Button("generate_btn", "Generate") {
		done := s.Status("Generating structured output...")
		friends, err := askStructured[FriendList](ctx, e.Models.Client(), model, userMessage(prompt))
		done()
		if err != nil {
			return structuredFailed(s, err)
		}
		s.Success("✅ Structured data generated!")
		showFriends(s, friends)
	}
	s.Divider()
	s.Markdown(structuredAbout)
	return nil
}

func asyncStructuredOutputs(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, structuredModels...)
	friendsSchemaListing(s)

	s.Subheader("Generate Structured Data Asynchronously")
	prompt := s.TextArea("prompt", "Enter your prompt:", friendsPrompt)
	if !s.Button("generate_btn", "Generate Async") {
		return nil
	}
	done := s.Status("Generating asynchronously...")
	pending := helper.Go(ctx, func(ctx context.Context) (FriendList, error) {
		return askStructured[FriendList](ctx, e.Models.Client(), model, userMessage(prompt))
	})
	friends, err := pending.Wait(ctx)
	done()
	if err != nil {
		return structuredFailed(s, err)
	}
	s.Success("✅ Structured data generated asynchronously!")
	showFriends(s, friends)
	return nil
}

var visionModels = []string{"gemma3", "llava", "bakllava"}

var imageTypes = []string{"png", "jpg", "jpeg"}

const analyzePrompt = "Analyze this image and return a detailed JSON description including objects, scene, colors and any text detected. If you cannot determine certain details, leave those fields empty."

func structuredImage(ctx context.Context, e *Env) error {
	s := e.S
	s.Header("Interactive Demo")
	model := e.model(ctx, visionModels...)
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
	desc, err := askStructured[ImageDescription](ctx, e.Models.Client(), model, []ollama.Message{{
		Role:    "user",
		Content: analyzePrompt,
		Images:  []ollama.ImageData{upload.Data},
	}})
	done()
	if err != nil {
		return err
	}

	s.Success("Structured Analysis:")
	s.Subheader("Summary")
	s.Text(desc.Summary)
	s.Subheader("Scene Information")
	s.Markdown(fmt.Sprintf("**Scene:** %s\n\n**Setting:** %s\n\n**Time of Day:** %s", desc.Scene, desc.Setting, desc.TimeOfDay))
	s.Subheader("Colors")
	s.Text(strings.Join(desc.Colors, ", "))
	s.Subheader("Detected Objects")
	for _, obj := range desc.Objects {
		s.Details(fmt.Sprintf("%s (%.2f)", obj.Name, obj.Confidence), "**Attributes:** "+obj.Attributes)
	}
	if desc.TextContent != "" {
		s.Subheader("Text Content")
		s.Text(desc.TextContent)
	}
	s.Subheader("Raw JSON")
	s.JSON(desc)
	return nil
}
