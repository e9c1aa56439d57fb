package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-1.5-flash"

// GeminiGenerator answers prompts with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required (set GEMINI_API_KEY)")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content with %s: %w", g.model, err)
	}
	return resp.Text(), nil
}

// GenerateStream writes each chunk of the answer to w as it arrives.
func (g *GeminiGenerator) GenerateStream(ctx context.Context, prompt string, w io.Writer) error {
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), nil) {
		if err != nil {
			return fmt.Errorf("stream content with %s: %w", g.model, err)
		}
		if _, err := io.WriteString(w, resp.Text()); err != nil {
			return err
		}
	}
	return nil
}
