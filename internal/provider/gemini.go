package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini Developer API client
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, used by tests
	BaseURL string
}

// Gemini calls a Gemini model through google.golang.org/genai
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini provider. The client is created once and shared by all requests.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing Gemini API key")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("missing Gemini model")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{client: client, model: cfg.Model}, nil
}

func (g *Gemini) Name() string {
	return "gemini"
}

func (g *Gemini) Model() string {
	return g.model
}

// Generate sends the prompt and image as a single user turn
func (g *Gemini) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
		{
			InlineData: &genai.Blob{
				MIMEType: req.MIMEType,
				Data:     req.ImageData,
			},
		},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = req.MaxOutputTokens
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoContent
	}

	return &Response{Text: text, Model: g.model}, nil
}
