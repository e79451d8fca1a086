package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-ultrasound-inspector/internal/errors"
	"go-ultrasound-inspector/internal/logger"
	"go-ultrasound-inspector/internal/provider"
	"go-ultrasound-inspector/pkg/extraction"
	"go-ultrasound-inspector/pkg/imaging"
)

// User-facing messages for provider failures
const (
	MessageUnavailable = "Analysis unavailable"
	MessageTimedOut    = "Analysis timed out"
)

// Orchestrator makes exactly one model call per image and extracts the three result fields.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	model     provider.VisionModel
	extractor *extraction.Extractor
	options   AnalysisOptions
}

// NewOrchestrator creates an orchestrator bound to a single model client
func NewOrchestrator(model provider.VisionModel, options AnalysisOptions) *Orchestrator {
	if options.Timeout <= 0 {
		options.Timeout = DefaultOptions().Timeout
	}
	return &Orchestrator{
		model:     model,
		extractor: &extraction.Extractor{Strict: options.StrictExtraction},
		options:   options,
	}
}

// Options returns the options the orchestrator was built with
func (o *Orchestrator) Options() AnalysisOptions {
	return o.options
}

// Analyze sends the image with the configured prompt and returns the extracted fields.
// Errors are *errors.AppError values ready to be shown to the caller.
func (o *Orchestrator) Analyze(ctx context.Context, img Image) (*Output, error) {
	payload, err := o.prepare(img)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to prepare image", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.options.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.model.Generate(callCtx, provider.Request{
		Prompt:          o.options.Prompt(),
		ImageData:       payload.Data,
		MIMEType:        payload.MIMEType,
		Temperature:     o.options.Temperature,
		MaxOutputTokens: o.options.MaxOutputTokens,
	})
	latency := time.Since(start)

	fields := logrus.Fields{
		"provider":   o.model.Name(),
		"model":      o.model.Model(),
		"latency_ms": latency.Milliseconds(),
		"mime_type":  payload.MIMEType,
		"resized":    payload.Resized,
	}
	if err != nil {
		logger.WithFields(fields).WithError(err).Warn("Model call failed")
		return nil, classifyProviderError(callCtx, err)
	}
	logger.WithFields(fields).Debug("Model call completed")

	result, err := o.extractor.Extract(resp.Text)
	if err != nil {
		return nil, apperrors.NewUpstreamError(MessageUnavailable, err).
			WithDetails("model response did not contain the expected sections")
	}
	if result.IsEmpty() {
		return nil, apperrors.NewUpstreamError(MessageUnavailable, extraction.ErrNoSections).
			WithDetails("model response sections were all empty")
	}

	model := resp.Model
	if model == "" {
		model = o.model.Model()
	}

	return &Output{
		Result:       result,
		RawText:      resp.Text,
		Provider:     o.model.Name(),
		Model:        model,
		SentWidth:    payload.Width,
		SentHeight:   payload.Height,
		SentMIME:     payload.MIMEType,
		Resized:      payload.Resized,
		ModelLatency: latency,
	}, nil
}

func (o *Orchestrator) prepare(img Image) (*imaging.Prepared, error) {
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("image has no data")
	}
	if img.Decoded == nil {
		return &imaging.Prepared{Data: img.Data, MIMEType: "image/" + img.Format}, nil
	}
	return imaging.Prepare(img.Data, img.Decoded, img.Format, o.options.MaxImageDimension)
}

// classifyProviderError maps a failed model call onto the timeout or upstream error
func classifyProviderError(callCtx context.Context, err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(MessageTimedOut, err)
	}
	return apperrors.NewUpstreamError(MessageUnavailable, err)
}

var _ Analyzer = (*Orchestrator)(nil)
