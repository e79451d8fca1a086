package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents a request pipeline event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id"`
	Filename       string                 `json:"filename,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// UploadReceived when a file part has been read from the request
	UploadReceived EventType = "upload_received"
	// UploadRejected when the request ends without reaching the model
	UploadRejected EventType = "upload_rejected"
	// AnalysisStarted when a validated image is handed to the model
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when the three fields have been extracted
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when the model call or extraction fails
	AnalysisFailed EventType = "analysis_failed"
	// ArchiveFailed when a background archive write fails
	ArchiveFailed EventType = "archive_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"request_id": event.RequestID,
		"success":    event.Success,
	}
	if event.Filename != "" {
		fields["filename"] = event.Filename
	}
	if event.ProcessingTime > 0 {
		fields["processing_time_ms"] = event.ProcessingTime.Milliseconds()
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case UploadReceived:
		entry.Debug("Upload received")
	case UploadRejected:
		entry.Warn("Upload rejected")
	case AnalysisStarted:
		entry.Info("Image analysis started")
	case AnalysisCompleted:
		entry.Info("Image analysis completed")
	case AnalysisFailed:
		entry.Error("Image analysis failed")
	case ArchiveFailed:
		entry.Error("Upload archive failed")
	default:
		entry.Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from pipeline events
type MetricsObserver struct {
	mu                  sync.RWMutex
	uploadsReceived     int64
	uploadsRejected     int64
	rejectionsByReason  map[string]int64
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	archiveFailures     int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		rejectionsByReason: make(map[string]int64),
	}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case UploadReceived:
		o.uploadsReceived++
	case UploadRejected:
		o.uploadsRejected++
		reason, _ := event.Metadata["reason"].(string)
		if reason == "" {
			reason = "unknown"
		}
		o.rejectionsByReason[reason]++
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalProcessingTime += event.ProcessingTime
	case AnalysisFailed:
		o.failedAnalyses++
	case ArchiveFailed:
		o.archiveFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulAnalyses > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulAnalyses)
	}

	rejections := make(map[string]int64, len(o.rejectionsByReason))
	for k, v := range o.rejectionsByReason {
		rejections[k] = v
	}

	return map[string]interface{}{
		"uploads_received":       o.uploadsReceived,
		"uploads_rejected":       o.uploadsRejected,
		"rejections_by_reason":   rejections,
		"total_analyses":         o.totalAnalyses,
		"successful_analyses":    o.successfulAnalyses,
		"failed_analyses":        o.failedAnalyses,
		"archive_failures":       o.archiveFailures,
		"total_processing_time":  o.totalProcessingTime.String(),
		"avg_processing_time_ms": avgProcessingTime.Milliseconds(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event without waiting for them.
// The event timestamp is filled in when unset.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Observers outlive the request, so they get a context that is never cancelled
	ctx = context.WithoutCancel(ctx)
	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
