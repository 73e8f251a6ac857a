// Package layoutgen turns natural-language prompts into city layout text
// using Gemini.
package layoutgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the model replies without any text.
var ErrEmptyResponse = errors.New("model returned no text")

// systemPrompt pins the layout schema the renderer understands. Replies
// still pass through the repair pipeline before parsing, so formatting
// slips are tolerated.
const systemPrompt = `You generate city layouts as JSON for a map renderer.

Reply with a single JSON object, no commentary and no code fences:

{
  "width": 1000,
  "height": 600,
  "layers": [
    {"type": "road", "path": [[20, 300], [980, 300]], "width": 10, "label": "Main St"},
    {"type": "building", "x": 120, "y": 80, "w": 140, "h": 90, "label": "Depot"},
    {"type": "park", "x": 600, "y": 350, "w": 220, "h": 160, "label": "Commons"}
  ]
}

Rules:
- The canvas is 1000x600 unless the request says otherwise; keep geometry inside it.
- Roads are polylines through at least two [x, y] waypoints.
- Buildings and parks are rectangles; label only the notable ones.
- Colors are optional ("stroke" for roads, "fill" for rectangles); omit them unless asked.`

// Generator produces layout text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini is a Generator backed by the Google GenAI API.
type Gemini struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ Generator = (*Gemini)(nil)

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{client: client, model: model, logger: logger}, nil
}

// Generate asks the model for a layout matching the prompt. The reply is
// returned verbatim; callers run it through the repair pipeline before
// parsing.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(systemPrompt+"\n\nRequest: "+prompt, genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := collectText(resp)
	g.logger.Debug("layout generated",
		zap.String("model", g.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("reply_len", len(text)),
	)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// collectText concatenates the text parts of the first candidate that
// carries any.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
