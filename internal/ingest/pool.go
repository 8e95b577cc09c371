// Package ingest consumes identity claims from Kafka and runs them
// through the matching engine on a worker pool.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"automated-identity-matching/internal/models"
	errs "automated-identity-matching/pkg/errors"
	"automated-identity-matching/pkg/logging"
	"automated-identity-matching/pkg/metrics"
)

// Matcher runs a single identity query against the reference data.
// Implemented by matcher.Engine.
type Matcher interface {
	Match(ctx context.Context, q models.QueryIdentity) (*models.MatchResult, error)
}

// Reporter delivers a finished result downstream. Implemented by
// notify.HTTPReporter.
type Reporter interface {
	Report(ctx context.Context, userID string, result *models.MatchResult) error
}

// ClaimJob is one claim pulled off the broker, ready for matching.
type ClaimJob struct {
	Claim     models.IdentityClaim
	RequestID string
	Received  time.Time
}

// PoolStats tracks claim processing counters for health reporting.
type PoolStats struct {
	TotalJobs     int64
	CompletedJobs int64
	FailedJobs    int64
	Matched       int64
	NoMatch       int64
	QueueSize     int64
	WorkerCount   int
	StartTime     time.Time
	LastActivity  time.Time
}

// PoolConfig holds configuration for the claim worker pool.
type PoolConfig struct {
	WorkerCount int
	JobTimeout  time.Duration
	QueueSize   int
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		WorkerCount: 4,
		JobTimeout:  60 * time.Second,
		QueueSize:   256,
	}
}

// Pool processes claims concurrently. Each job runs a full match
// against a fresh reference snapshot and reports the outcome.
type Pool struct {
	matcher  Matcher
	reporter Reporter

	workerCount int
	jobTimeout  time.Duration

	jobQueue chan ClaimJob
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	stats   PoolStats
	statsMu sync.RWMutex

	shutdownOnce sync.Once

	log *logging.ComponentLogger

	mCompleted *metrics.Counter
	mFailed    *metrics.Counter
	mMatched   *metrics.Counter
	mNoMatch   *metrics.Counter
	mLatency   *metrics.Histogram
}

func NewPool(matcher Matcher, reporter Reporter, cfg PoolConfig, log *logging.Logger) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultPoolConfig().WorkerCount
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultPoolConfig().JobTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultPoolConfig().QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		matcher:     matcher,
		reporter:    reporter,
		workerCount: cfg.WorkerCount,
		jobTimeout:  cfg.JobTimeout,
		jobQueue:    make(chan ClaimJob, cfg.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
		stats: PoolStats{
			WorkerCount:  cfg.WorkerCount,
			StartTime:    time.Now(),
			LastActivity: time.Now(),
		},
		mCompleted: metrics.Default.Counter("claims_completed_total", "Claims fully processed"),
		mFailed:    metrics.Default.Counter("claims_failed_total", "Claims that failed processing"),
		mMatched:   metrics.Default.Counter("claims_matched_total", "Claims with at least one matching category"),
		mNoMatch:   metrics.Default.Counter("claims_no_match_total", "Claims with no matching category"),
		mLatency: metrics.Default.Histogram("claim_processing_ms", "End to end claim processing time (ms)",
			[]float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}),
	}
	if log != nil {
		p.log = log.WithComponent("ingest.pool")
	}
	return p
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	if p.log != nil {
		p.log.Info("claim pool started", logging.Int("workers", p.workerCount))
	}
}

// Stop drains the queue and waits for workers, bounded by timeout.
func (p *Pool) Stop(timeout time.Duration) error {
	var err error
	p.shutdownOnce.Do(func() {
		close(p.jobQueue)

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(timeout):
			err = fmt.Errorf("claim pool shutdown timeout exceeded")
		}
		p.cancel()

		if p.log != nil {
			if err != nil {
				p.log.Warn("claim pool stopped with pending work")
			} else {
				p.log.Info("claim pool stopped")
			}
		}
	})
	return err
}

// Submit blocks until the job is queued or ctx is cancelled. Blocking
// here applies backpressure to the broker consumer.
func (p *Pool) Submit(ctx context.Context, job ClaimJob) error {
	select {
	case p.jobQueue <- job:
		atomic.AddInt64(&p.stats.QueueSize, 1)
		atomic.AddInt64(&p.stats.TotalJobs, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return fmt.Errorf("claim pool is shutting down")
	}
}

// Stats returns a snapshot of processing counters. Counter fields are
// read atomically; only the mutex-guarded fields are copied under lock.
func (p *Pool) Stats() PoolStats {
	p.statsMu.RLock()
	s := PoolStats{
		WorkerCount:  p.stats.WorkerCount,
		StartTime:    p.stats.StartTime,
		LastActivity: p.stats.LastActivity,
	}
	p.statsMu.RUnlock()

	s.TotalJobs = atomic.LoadInt64(&p.stats.TotalJobs)
	s.CompletedJobs = atomic.LoadInt64(&p.stats.CompletedJobs)
	s.FailedJobs = atomic.LoadInt64(&p.stats.FailedJobs)
	s.Matched = atomic.LoadInt64(&p.stats.Matched)
	s.NoMatch = atomic.LoadInt64(&p.stats.NoMatch)
	s.QueueSize = atomic.LoadInt64(&p.stats.QueueSize)
	return s
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			atomic.AddInt64(&p.stats.QueueSize, -1)
			p.processJob(job)
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) processJob(job ClaimJob) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(p.ctx, p.jobTimeout)
	defer cancel()

	p.statsMu.Lock()
	p.stats.LastActivity = time.Now()
	p.statsMu.Unlock()

	q := models.QueryFromClaim(job.Claim)
	result, err := p.matcher.Match(ctx, q)
	if err != nil {
		atomic.AddInt64(&p.stats.FailedJobs, 1)
		p.mFailed.Inc(1)
		if p.log != nil {
			if errs.Is(err, errs.ErrValidation) {
				p.log.Warn("claim rejected",
					logging.String("claim_id", job.RequestID),
					logging.String("user_id", job.Claim.UserID),
					logging.String("reason", err.Error()))
			} else {
				p.log.Error("claim processing failed", err,
					logging.String("claim_id", job.RequestID),
					logging.String("user_id", job.Claim.UserID))
			}
		}
		p.mLatency.Observe(float64(time.Since(start).Milliseconds()))
		return
	}

	if result.Empty() {
		atomic.AddInt64(&p.stats.NoMatch, 1)
		p.mNoMatch.Inc(1)
	} else {
		atomic.AddInt64(&p.stats.Matched, 1)
		p.mMatched.Inc(1)
	}

	if p.reporter != nil {
		if err := p.reporter.Report(ctx, job.Claim.UserID, result); err != nil {
			// delivery failures are logged by the reporter; the claim
			// itself still counts as processed
			atomic.AddInt64(&p.stats.FailedJobs, 1)
			p.mFailed.Inc(1)
			p.mLatency.Observe(float64(time.Since(start).Milliseconds()))
			return
		}
	}

	atomic.AddInt64(&p.stats.CompletedJobs, 1)
	p.mCompleted.Inc(1)
	p.mLatency.Observe(float64(time.Since(start).Milliseconds()))

	if p.log != nil {
		p.log.Info("claim processed",
			logging.String("claim_id", job.RequestID),
			logging.String("user_id", job.Claim.UserID),
			logging.Int("name_dob", len(result.NameDOB)),
			logging.Int("street", len(result.Street)),
			logging.Int("phone", len(result.Phone)),
			logging.Duration("took", time.Since(start)))
	}
}
