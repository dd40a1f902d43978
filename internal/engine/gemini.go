package engine

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator generates replies with Google's Gemini API.
type GeminiGenerator struct {
	models   contentGenerator
	model    string
	sampling Sampling
}

// NewGeminiGenerator creates a Gemini-backed generator. An empty apiKey
// lets the SDK fall back to GOOGLE_API_KEY / GEMINI_API_KEY.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, s Sampling) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiGenerator{models: client.Models, model: model, sampling: s}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(g.sampling.Temperature)),
		TopP:             genai.Ptr(float32(g.sampling.TopP)),
		TopK:             genai.Ptr(float32(g.sampling.TopK)),
		MaxOutputTokens:  int32(g.sampling.MaxOutputTokens),
		ResponseMIMEType: "text/plain",
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return sb.String(), nil
}
