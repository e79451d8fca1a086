package worker

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go-ultrasound-inspector/internal/logger"
)

// Stats is a point-in-time view of pool activity
type Stats struct {
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	ActiveWorkers int64 `json:"active_workers"`
	RejectedJobs  int64 `json:"rejected_jobs"`
}

// Pool runs submitted jobs on a fixed number of goroutines
type Pool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	workerWg sync.WaitGroup
	once     sync.Once

	mu     sync.RWMutex
	closed bool

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	activeWorkers atomic.Int64
	rejectedJobs  atomic.Int64
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start initializes and starts all workers in the pool
func (p *Pool) Start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.workerWg.Add(1)
			go p.worker()
		}
	})
}

func (p *Pool) worker() {
	defer p.workerWg.Done()
	for job := range p.jobQueue {
		p.run(job)
	}
}

func (p *Pool) run(job func()) {
	p.activeWorkers.Add(1)
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Worker job panicked")
		}
		p.activeWorkers.Add(-1)
		p.completedJobs.Add(1)
		p.wg.Done()
	}()
	job()
}

// Submit queues a job, blocking while the queue is full.
// It returns false once the pool has been closed.
func (p *Pool) Submit(job func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.rejectedJobs.Add(1)
		return false
	}

	p.wg.Add(1)
	p.totalJobs.Add(1)
	p.jobQueue <- job
	return true
}

// Wait waits for all submitted jobs to complete
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close stops accepting jobs, lets queued jobs finish and stops the workers
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.Start()
	p.workerWg.Wait()
}

// GetStats returns the current counters
func (p *Pool) GetStats() Stats {
	return Stats{
		TotalJobs:     p.totalJobs.Load(),
		CompletedJobs: p.completedJobs.Load(),
		ActiveWorkers: p.activeWorkers.Load(),
		RejectedJobs:  p.rejectedJobs.Load(),
	}
}
