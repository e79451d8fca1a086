package factory

import (
	"context"
	"fmt"

	"go-ultrasound-inspector/internal/config"
	"go-ultrasound-inspector/internal/provider"
	"go-ultrasound-inspector/internal/storage"
)

// ProviderFactory creates vision model clients
type ProviderFactory interface {
	CreateProvider(ctx context.Context, cfg config.ProviderConfig) (provider.VisionModel, error)
}

// ArchiverFactory creates upload archivers
type ArchiverFactory interface {
	CreateArchiver(ctx context.Context, cfg config.ArchiveConfig, onFailure storage.FailureHandler) (storage.Archiver, error)
}

// providerFactory implements ProviderFactory
type providerFactory struct{}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() ProviderFactory {
	return &providerFactory{}
}

// CreateProvider creates a provider based on the configured type
func (f *providerFactory) CreateProvider(ctx context.Context, cfg config.ProviderConfig) (provider.VisionModel, error) {
	switch cfg.Type {
	case config.ProviderGemini:
		return provider.NewGemini(ctx, provider.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
	case config.ProviderOpenAI:
		return provider.NewOpenAI(provider.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
}

// archiverFactory implements ArchiverFactory
type archiverFactory struct {
	newBlobArchiver func(ctx context.Context, account, key, container string) (storage.Archiver, error)
}

// NewArchiverFactory creates a new archiver factory
func NewArchiverFactory() ArchiverFactory {
	return &archiverFactory{newBlobArchiver: storage.NewAzureArchiver}
}

// CreateArchiver returns a no-op archiver unless Azure credentials are configured,
// in which case writes go to blob storage from a background worker pool
func (f *archiverFactory) CreateArchiver(ctx context.Context, cfg config.ArchiveConfig, onFailure storage.FailureHandler) (storage.Archiver, error) {
	if !cfg.Enabled() {
		return storage.NoopArchiver{}, nil
	}

	blobArchiver, err := f.newBlobArchiver(ctx, cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer)
	if err != nil {
		return nil, err
	}
	return storage.NewAsyncArchiver(blobArchiver, cfg.Workers, onFailure), nil
}
