// Package worker records finished relay sessions off the gateway's HTTP hot
// path: each job is persisted through a storage.Driver and announced on an
// eventstream.Publisher.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/burnes-center/fair/pkg/eventstream"
	"github.com/burnes-center/fair/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is one finished relay session.
type Job struct {
	Record *storage.Record
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver persists relay records.
	Driver storage.Driver

	// Publisher announces each stored record. Optional.
	Publisher eventstream.Publisher

	// Source is stamped on every published event.
	Source eventstream.EventSource

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool processes relay jobs asynchronously.
type Pool struct {
	config  *Config
	queue   chan Job
	wg      sync.WaitGroup
	logger  *zap.Logger
	dropped atomic.Int64
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("storage driver is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job without blocking. It returns false when the queue is
// full and the job was dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("relay job queued",
			zap.String("relay_id", job.Record.ID),
			zap.String("endpoint", job.Record.Endpoint),
		)
		return true
	default:
		p.dropped.Add(1)
		p.logger.Error("relay job not queued, queue full, job dropped",
			zap.String("relay_id", job.Record.ID),
			zap.String("endpoint", job.Record.Endpoint),
		)
		return false
	}
}

// Dropped reports how many jobs were dropped because the queue was full.
func (p *Pool) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops accepting jobs and waits for queued ones to drain.
// Call it after the gateway HTTP server and every in-flight relay stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("relay worker stopped", zap.Uint("worker_id", id))
}

// processJob stores the record, then publishes it. A storage failure skips
// the publish so consumers never see a relay that cannot be fetched.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	rec := job.Record

	if err := p.config.Driver.Put(ctx, rec); err != nil {
		p.logger.Error("storing relay record failed",
			zap.String("relay_id", rec.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("relay recorded",
		zap.String("relay_id", rec.ID),
		zap.String("endpoint", rec.Endpoint),
		zap.String("state", rec.State),
		zap.Int64("bytes_out", rec.BytesOut),
	)

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewRelayCompletedEvent(rec, p.config.Source)
	if err := p.config.Publisher.PublishRelay(ctx, event); err != nil {
		p.logger.Warn("publishing relay event failed",
			zap.String("relay_id", rec.ID),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}
