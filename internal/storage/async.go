package storage

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"go-ultrasound-inspector/internal/logger"
	"go-ultrasound-inspector/internal/worker"
)

// DefaultArchiveTimeout bounds a single background archive write
const DefaultArchiveTimeout = 30 * time.Second

// FailureHandler is called from a worker goroutine when a background write fails
type FailureHandler func(record *ArchiveRecord, err error)

// AsyncArchiver runs archive writes off the request path on a worker pool
type AsyncArchiver struct {
	next      Archiver
	pool      *worker.Pool
	timeout   time.Duration
	onFailure FailureHandler
}

// NewAsyncArchiver wraps next so that Archive only queues the write. Close drains the queue.
func NewAsyncArchiver(next Archiver, workers int, onFailure FailureHandler) *AsyncArchiver {
	pool := worker.NewWorkerPool(workers)
	pool.Start()
	return &AsyncArchiver{
		next:      next,
		pool:      pool,
		timeout:   DefaultArchiveTimeout,
		onFailure: onFailure,
	}
}

// Archive queues the record. The request context is not used by the write,
// so a finished request does not cancel its archive upload.
func (a *AsyncArchiver) Archive(ctx context.Context, record *ArchiveRecord) error {
	queued := a.pool.Submit(func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.next.Archive(writeCtx, record); err != nil {
			logger.WithFields(logrus.Fields{
				"request_id": record.RequestID,
				"filename":   record.Filename,
			}).WithError(err).Error("Failed to archive upload")
			if a.onFailure != nil {
				a.onFailure(record, err)
			}
		}
	})
	if !queued {
		return ErrArchiveClosed
	}
	return nil
}

// Stats returns the background pool counters
func (a *AsyncArchiver) Stats() worker.Stats {
	return a.pool.GetStats()
}

// Close waits for queued writes to finish, then closes the wrapped archiver
func (a *AsyncArchiver) Close() error {
	a.pool.Close()
	return a.next.Close()
}
