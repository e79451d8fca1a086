package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible chat completion endpoint
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAI calls a vision-capable chat model through github.com/sashabaranov/go-openai
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI provider
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("missing OpenAI model")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}, nil
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) Model() string {
	return o.model
}

// Generate sends the prompt and a base64 data URL of the image in one user message
func (o *OpenAI) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	message := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(req.MIMEType, req.ImageData),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: []openai.ChatCompletionMessage{message},
	}
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
	}
	if req.MaxOutputTokens > 0 {
		chatReq.MaxTokens = int(req.MaxOutputTokens)
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrNoContent
	}

	model := resp.Model
	if model == "" {
		model = o.model
	}
	return &Response{Text: resp.Choices[0].Message.Content, Model: model}, nil
}

func dataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
