package analyzer

import (
	"image"
	"time"

	"go-ultrasound-inspector/pkg/models"
)

// Image is a validated upload ready for analysis
type Image struct {
	Data    []byte
	Format  string
	Decoded image.Image
}

// Output is the result of one analysis call
type Output struct {
	Result   *models.AnalysisResult
	RawText  string
	Provider string
	Model    string

	// Size actually sent to the model
	SentWidth    int
	SentHeight   int
	SentMIME     string
	Resized      bool
	ModelLatency time.Duration
}
