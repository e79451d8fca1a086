package storage

import (
	"context"
	"time"

	"go-ultrasound-inspector/pkg/models"
)

// ArchiveRecord is a validated upload together with the analysis it produced
type ArchiveRecord struct {
	RequestID string
	Timestamp time.Time
	Filename  string
	Format    string
	MIMEType  string
	Image     []byte
	Analysis  *models.Analysis
}

// Archiver writes a record to external storage. Records are never read back.
type Archiver interface {
	Archive(ctx context.Context, record *ArchiveRecord) error
	Close() error
}

// NoopArchiver discards every record; used when archiving is not configured
type NoopArchiver struct{}

func (NoopArchiver) Archive(ctx context.Context, record *ArchiveRecord) error {
	return nil
}

func (NoopArchiver) Close() error {
	return nil
}
