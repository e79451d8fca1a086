package provider

import (
	"context"
	"errors"
)

// ErrNoContent is returned when a model answers without any text
var ErrNoContent = errors.New("model returned no text")

// Request is a single prompt plus one inline image
type Request struct {
	Prompt    string
	ImageData []byte
	MIMEType  string

	// Zero values leave the model defaults in place
	Temperature     *float32
	MaxOutputTokens int32
}

// Response carries the model output as plain text
type Response struct {
	Text  string
	Model string
}

// VisionModel generates text from a prompt and an image
type VisionModel interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

func validateRequest(req Request) error {
	if req.Prompt == "" {
		return errors.New("prompt is required")
	}
	if len(req.ImageData) == 0 {
		return errors.New("image data is required")
	}
	if req.MIMEType == "" {
		return errors.New("image MIME type is required")
	}
	return nil
}
