package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go-ultrasound-inspector/internal/analyzer"
	apperrors "go-ultrasound-inspector/internal/errors"
	"go-ultrasound-inspector/internal/observer"
	"go-ultrasound-inspector/internal/storage"
	"go-ultrasound-inspector/pkg/models"
	"go-ultrasound-inspector/pkg/validation"
)

// User-facing rejection messages
const (
	MessageNoFile      = "No file uploaded"
	MessageNoSelection = "No file selected"
	MessageInvalidFile = "Invalid file type"
	MessageTooLarge    = "File too large"
)

// Rejection reasons reported to observers for requests that never reach validation
const (
	ReasonNoFile      = "no_file"
	ReasonNoSelection = "no_selection"
	ReasonTooLarge    = "body_too_large"
)

// AnalyzeRequest is one uploaded file to run through the pipeline
type AnalyzeRequest struct {
	RequestID string
	Upload    validation.Upload
}

// AnalysisService runs the validate, analyze and extract pipeline for a single upload
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*models.Analysis, error)
	Reject(ctx context.Context, requestID, filename, reason string, err *apperrors.AppError) error
}

type analysisService struct {
	validator *validation.ImageValidator
	analyzer  analyzer.Analyzer
	archiver  storage.Archiver
	events    observer.Subject
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	validator *validation.ImageValidator,
	imageAnalyzer analyzer.Analyzer,
	archiver storage.Archiver,
	events observer.Subject,
) AnalysisService {
	if archiver == nil {
		archiver = storage.NoopArchiver{}
	}
	return &analysisService{
		validator: validator,
		analyzer:  imageAnalyzer,
		archiver:  archiver,
		events:    events,
	}
}

// Analyze validates the upload, makes one model call and returns the extracted fields.
// Every returned error is an *errors.AppError.
func (s *analysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*models.Analysis, error) {
	start := time.Now()
	filename := req.Upload.Filename

	s.publish(ctx, observer.AnalysisEvent{
		EventType: observer.UploadReceived,
		RequestID: req.RequestID,
		Filename:  filename,
		Success:   true,
	})

	validated, err := s.validator.Validate(req.Upload)
	if err != nil {
		return nil, s.Reject(ctx, req.RequestID, filename, string(validation.KindOf(err)),
			apperrors.NewValidationError(MessageInvalidFile, err))
	}

	data, err := io.ReadAll(req.Upload.Content)
	if err != nil {
		return nil, s.Reject(ctx, req.RequestID, filename, string(validation.KindUnreadable),
			apperrors.NewValidationError(MessageInvalidFile, fmt.Errorf("failed to read upload: %w", err)))
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		RequestID: req.RequestID,
		Filename:  filename,
		Metadata: map[string]interface{}{
			"format": validated.Format,
			"width":  validated.Width,
			"height": validated.Height,
		},
	})

	out, err := s.analyzer.Analyze(ctx, analyzer.Image{
		Data:    data,
		Format:  validated.Format,
		Decoded: validated.Image,
	})
	if err != nil {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			RequestID:      req.RequestID,
			Filename:       filename,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	analysis := &models.Analysis{
		RequestID:         req.RequestID,
		Timestamp:         start.UTC(),
		ProcessingTimeSec: time.Since(start).Seconds(),
		Provider:          out.Provider,
		Model:             out.Model,
		Image: models.ImageMetadata{
			Filename:    filename,
			ContentType: validated.MIMEType,
			Format:      validated.Format,
			Width:       validated.Width,
			Height:      validated.Height,
			SizeBytes:   int64(len(data)),
		},
		Result:      *out.Result,
		RawResponse: out.RawText,
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		RequestID:      req.RequestID,
		Filename:       filename,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"provider":         out.Provider,
			"model":            out.Model,
			"model_latency_ms": out.ModelLatency.Milliseconds(),
			"resized":          out.Resized,
			"sent_mime_type":   out.SentMIME,
		},
	})

	s.archive(ctx, analysis, validated, data)
	return analysis, nil
}

// Reject reports a request that ended before reaching the model and returns err unchanged
func (s *analysisService) Reject(ctx context.Context, requestID, filename, reason string, err *apperrors.AppError) error {
	event := observer.AnalysisEvent{
		EventType: observer.UploadRejected,
		RequestID: requestID,
		Filename:  filename,
		Metadata:  map[string]interface{}{"reason": reason},
	}
	if err == nil {
		s.publish(ctx, event)
		return nil
	}
	event.ErrorMessage = err.Error()
	s.publish(ctx, event)
	return err
}

func (s *analysisService) archive(ctx context.Context, analysis *models.Analysis, validated *validation.Result, data []byte) {
	record := &storage.ArchiveRecord{
		RequestID: analysis.RequestID,
		Timestamp: analysis.Timestamp,
		Filename:  analysis.Image.Filename,
		Format:    validated.Format,
		MIMEType:  validated.MIMEType,
		Image:     data,
		Analysis:  analysis,
	}
	if err := s.archiver.Archive(ctx, record); err != nil {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:    observer.ArchiveFailed,
			RequestID:    analysis.RequestID,
			Filename:     analysis.Image.Filename,
			ErrorMessage: err.Error(),
		})
	}
}

func (s *analysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.events != nil {
		s.events.NotifyObservers(ctx, event)
	}
}
