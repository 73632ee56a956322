// Package downloader runs the fetch-assess-write pipeline on a pool of
// concurrent workers.
package downloader

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"wallscraper/pkg/fingerprint"
	"wallscraper/pkg/logger"
	"wallscraper/pkg/models"
	"wallscraper/pkg/quality"
	"wallscraper/pkg/ratelimit"
)

// Hamming distance at or below which two perceptual hashes count as the
// same image.
const nearDuplicateThreshold = 10

// Job is a single candidate to run through the pipeline.
type Job struct {
	Candidate models.Candidate
	Category  string
}

// Status classifies a job's outcome.
type Status string

const (
	StatusSaved     Status = "saved"
	StatusDuplicate Status = "duplicate"
	StatusRejected  Status = "rejected"
	StatusReview    Status = "review"
	StatusFailed    Status = "failed"
)

// Result is the outcome of one pipeline job.
type Result struct {
	Job      Job
	Status   Status
	Reason   string
	Record   *models.Wallpaper
	Error    error
	Duration time.Duration
	Size     int
}

// ImageFetcher downloads raw image bytes.
type ImageFetcher interface {
	FetchImage(url string) ([]byte, error)
}

// Deduper tracks content identity across the run and across runs.
type Deduper interface {
	Contains(sha string) bool
	Add(sha string) bool
	Remove(sha string)
	AddPerceptual(sha string, phash uint64)
	NearDuplicate(phash uint64, threshold int) (string, bool)
}

// Assessor applies the quality policy to a decoded image.
type Assessor interface {
	Assess(img image.Image, format string, fileSize int64) quality.Result
}

// RecordWriter persists an accepted image and returns its record. Images
// flagged for manual review go to a separate holding area instead.
type RecordWriter interface {
	Write(cand models.Candidate, category string, img image.Image, data []byte, format string) (*models.Wallpaper, error)
	WriteReview(cand models.Candidate, category string, data []byte, format string, assessment quality.Result) (string, error)
}

// Pool manages the concurrent pipeline workers.
type Pool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     ImageFetcher
	dedup       Deduper
	gate        Assessor
	writer      RecordWriter
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewPool creates a pipeline worker pool.
func NewPool(
	numWorkers int,
	fetcher ImageFetcher,
	dedup Deduper,
	gate Assessor,
	writer RecordWriter,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	return &Pool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		dedup:       dedup,
		gate:        gate,
		writer:      writer,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	p.logger.InfoWithFields("starting worker pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the job queue, drains the in-flight jobs, and closes the
// result queue.
func (p *Pool) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()

	p.logger.Debug("worker pool stopped")
}

// Abort cancels in-flight work without waiting for the queue to drain.
func (p *Pool) Abort() {
	p.cancel()
}

// Submit queues a job. It fails once the pool is shutting down.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the channel results arrive on.
func (p *Pool) Results() <-chan Result {
	return p.resultQueue
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := p.processJob(job, id)

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

// processJob runs one candidate through fetch, dedup, quality gate, and
// write.
func (p *Pool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}
	finish := func(r Result) Result {
		r.Duration = time.Since(start)
		return r
	}

	if p.rateLimiter != nil {
		if !p.rateLimiter.Allow() {
			p.rateLimiter.Wait()
		}
	}

	data, err := p.fetcher.FetchImage(job.Candidate.URL)
	if err != nil {
		result.Status = StatusFailed
		result.Error = fmt.Errorf("download failed: %w", err)
		p.logger.WarnWithFields("download failed", map[string]interface{}{
			"worker_id": workerID,
			"url":       job.Candidate.URL,
			"source":    job.Candidate.Source,
			"error":     err.Error(),
		})
		return finish(result)
	}
	result.Size = len(data)

	sha := fingerprint.SHA256(data)
	if p.dedup.Contains(sha) {
		result.Status = StatusDuplicate
		result.Reason = "content hash already in ledger"
		return finish(result)
	}

	img, format, err := fingerprint.Decode(data)
	if err != nil {
		result.Status = StatusRejected
		result.Reason = "undecodable image data"
		result.Error = err
		return finish(result)
	}

	phash, err := fingerprint.Perceptual(img)
	if err == nil {
		if match, found := p.dedup.NearDuplicate(phash, nearDuplicateThreshold); found {
			result.Status = StatusDuplicate
			result.Reason = fmt.Sprintf("near-duplicate of %s", match)
			return finish(result)
		}
	}

	assessment := p.gate.Assess(img, format, int64(len(data)))
	switch assessment.Decision {
	case quality.DecisionRejected:
		result.Status = StatusRejected
		result.Reason = assessment.Reason
		return finish(result)
	case quality.DecisionManualReview:
		result.Status = StatusReview
		result.Reason = assessment.Reason
		// Park the bytes so a human pass can promote or discard them.
		if path, err := p.writer.WriteReview(job.Candidate, job.Category, data, format, assessment); err != nil {
			p.logger.WarnWithFields("failed to store review candidate", map[string]interface{}{
				"worker_id": workerID,
				"url":       job.Candidate.URL,
				"error":     err.Error(),
			})
		} else {
			p.logger.DebugWithFields("candidate held for review", map[string]interface{}{
				"worker_id": workerID,
				"path":      path,
			})
		}
		return finish(result)
	}

	// Claim the hash before writing so a racing worker with identical
	// bytes backs off instead of producing a second copy.
	if !p.dedup.Add(sha) {
		result.Status = StatusDuplicate
		result.Reason = "claimed by concurrent worker"
		return finish(result)
	}

	record, err := p.writer.Write(job.Candidate, job.Category, img, data, format)
	if err != nil {
		// Release the claim: nothing was written, so the same content must
		// stay downloadable on a later run.
		p.dedup.Remove(sha)
		result.Status = StatusFailed
		result.Error = fmt.Errorf("write failed: %w", err)
		p.logger.ErrorWithFields("failed to write wallpaper", map[string]interface{}{
			"worker_id": workerID,
			"category":  job.Category,
			"error":     err.Error(),
		})
		return finish(result)
	}
	p.dedup.AddPerceptual(sha, phash)

	result.Status = StatusSaved
	result.Record = record

	p.logger.DebugWithFields("job completed", map[string]interface{}{
		"worker_id": workerID,
		"id":        record.ID,
		"size":      result.Size,
	})
	return finish(result)
}

// QueueSize returns the number of queued jobs.
func (p *Pool) QueueSize() int {
	return len(p.jobQueue)
}

// Workers returns the worker count.
func (p *Pool) Workers() int {
	return p.numWorkers
}
