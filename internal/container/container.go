package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"go-ultrasound-inspector/internal/analyzer"
	"go-ultrasound-inspector/internal/config"
	"go-ultrasound-inspector/internal/factory"
	"go-ultrasound-inspector/internal/logger"
	"go-ultrasound-inspector/internal/observer"
	"go-ultrasound-inspector/internal/provider"
	"go-ultrasound-inspector/internal/service"
	"go-ultrasound-inspector/internal/storage"
	"go-ultrasound-inspector/internal/transport"
	"go-ultrasound-inspector/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	model           provider.VisionModel
	orchestrator    *analyzer.Orchestrator
	archiver        storage.Archiver
	events          observer.Subject
	metrics         *observer.MetricsObserver
	analysisService service.AnalysisService
	handler         http.Handler
}

// Option overrides a dependency, used by tests to avoid real providers
type Option func(*options)

type options struct {
	providerFactory factory.ProviderFactory
	archiverFactory factory.ArchiverFactory
}

// WithProviderFactory replaces the default provider factory
func WithProviderFactory(f factory.ProviderFactory) Option {
	return func(o *options) { o.providerFactory = f }
}

// WithArchiverFactory replaces the default archiver factory
func WithArchiverFactory(f factory.ArchiverFactory) Option {
	return func(o *options) { o.archiverFactory = f }
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	o := &options{
		providerFactory: factory.NewProviderFactory(),
		archiverFactory: factory.NewArchiverFactory(),
	}
	for _, opt := range opts {
		opt(o)
	}

	prompt, err := config.LoadPromptFile(cfg.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt: %w", err)
	}

	// Observers
	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	// Build dependency graph
	model, err := o.providerFactory.CreateProvider(ctx, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	archiver, err := o.archiverFactory.CreateArchiver(ctx, cfg.Archive, func(record *storage.ArchiveRecord, err error) {
		events.NotifyObservers(context.Background(), observer.AnalysisEvent{
			EventType:    observer.ArchiveFailed,
			RequestID:    record.RequestID,
			Filename:     record.Filename,
			ErrorMessage: err.Error(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archiver: %w", err)
	}

	orchestrator := analyzer.NewOrchestrator(model, analyzer.FromConfig(cfg, prompt))
	validator := validation.NewImageValidatorWithOptions(validation.DefaultAllowedExtensions, cfg.MaxImagePixels)
	analysisOpts := orchestrator.Options()
	logger.WithFields(logrus.Fields{
		"provider":            model.Name(),
		"model":               model.Model(),
		"analysis_timeout":    analysisOpts.Timeout.String(),
		"max_image_dimension": analysisOpts.MaxImageDimension,
		"strict_extraction":   analysisOpts.StrictExtraction,
	}).Info("Analysis pipeline configured")

	analysisService := service.NewAnalysisService(validator, orchestrator, archiver, events)
	handler := transport.NewHandler(analysisService, metrics, cfg)

	return &Container{
		config:          cfg,
		model:           model,
		orchestrator:    orchestrator,
		archiver:        archiver,
		events:          events,
		metrics:         metrics,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Metrics returns the in-process pipeline counters
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Close drains background archive writes
func (c *Container) Close() error {
	return c.archiver.Close()
}
