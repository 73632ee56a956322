// Package scraper orchestrates a scrape run: candidate gathering from the
// enabled sources, the concurrent fetch-assess-write pipeline, and the
// ledger flush at the end.
package scraper

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"wallscraper/internal/downloader"
	"wallscraper/pkg/category"
	"wallscraper/pkg/collection"
	"wallscraper/pkg/config"
	"wallscraper/pkg/fetch"
	"wallscraper/pkg/ledger"
	"wallscraper/pkg/logger"
	"wallscraper/pkg/models"
	"wallscraper/pkg/quality"
	"wallscraper/pkg/ratelimit"
	"wallscraper/pkg/sources"
)

// Report is the outcome of one scrape run. Reaching the target stops
// submission but jobs already queued still finish, so Saved can overshoot
// Target by up to the queue depth; every overshoot is a real saved file.
type Report struct {
	Category   string
	Target     int
	Saved      int
	Duplicates int
	Rejected   int
	Review     int
	Failed     int
	Elapsed    time.Duration
	Records    []*models.Wallpaper
}

// Scraper wires the pipeline components for scrape runs.
type Scraper struct {
	cfg     *config.Config
	client  *fetch.Client
	ledger  *ledger.Ledger
	gate    *quality.Gate
	writer  *collection.Writer
	sources []sources.Source
	pacer   *ratelimit.Pacer
	logger  logger.Logger
}

// New creates a scraper from configuration. The hash ledger is loaded
// eagerly so a broken ledger file surfaces before any network traffic.
func New(cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	client := fetch.NewClient(cfg.Download.DownloadTimeout, cfg.Sources.UserAgent, log)

	ledgerPath := cfg.Output.LedgerFile
	if !filepath.IsAbs(ledgerPath) {
		ledgerPath = filepath.Join(cfg.Output.CollectionRoot, ledgerPath)
	}
	led := ledger.New(ledgerPath, log)
	if err := led.Load(); err != nil {
		return nil, fmt.Errorf("failed to load hash ledger: %w", err)
	}

	return &Scraper{
		cfg:     cfg,
		client:  client,
		ledger:  led,
		gate:    quality.NewGate(&cfg.Quality),
		writer:  collection.NewWriter(&cfg.Output, log),
		sources: sources.Enabled(&cfg.Sources, client),
		pacer:   ratelimit.NewPacer(cfg.RateLimit.MinDelay, cfg.RateLimit.MaxDelay),
		logger:  log,
	}, nil
}

// Sources returns the enabled providers for this run.
func (s *Scraper) Sources() []sources.Source {
	return s.sources
}

// Run scrapes one category until target images are saved or candidates
// run out. Cancelling the context stops submission, drains the in-flight
// jobs, and still flushes the ledger.
func (s *Scraper) Run(ctx context.Context, cat string, target int) (*Report, error) {
	start := time.Now()

	if !category.IsValid(cat) {
		return nil, fmt.Errorf("unknown category: %s (valid: %v)", cat, category.Labels())
	}
	if len(s.sources) == 0 {
		return nil, fmt.Errorf("no image sources enabled; configure at least one API key")
	}

	candidates := s.gather(ctx, cat, target)
	s.logger.InfoWithFields("candidates gathered", map[string]interface{}{
		"category":   cat,
		"candidates": len(candidates),
		"target":     target,
	})

	report := &Report{Category: cat, Target: target}

	limiter := ratelimit.NewTokenBucket(s.cfg.RateLimit.RequestsPerMinute, time.Minute)
	pool := downloader.NewPool(
		s.cfg.Download.Workers,
		s.client,
		s.ledger,
		s.gate,
		s.writer,
		limiter,
		s.logger,
	)
	pool.Start()

	stop := make(chan struct{})
	var stopOnce sync.Once
	stopSubmitting := func() { stopOnce.Do(func() { close(stop) }) }

	var submitWG sync.WaitGroup
	submitWG.Add(1)
	go func() {
		defer submitWG.Done()
		for _, cand := range candidates {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			default:
			}
			if err := pool.Submit(downloader.Job{Candidate: cand, Category: cat}); err != nil {
				return
			}
		}
	}()

	go func() {
		submitWG.Wait()
		pool.Stop()
	}()

	for result := range pool.Results() {
		switch result.Status {
		case downloader.StatusSaved:
			report.Saved++
			report.Records = append(report.Records, result.Record)
			if report.Saved >= target {
				stopSubmitting()
			}
		case downloader.StatusDuplicate:
			report.Duplicates++
		case downloader.StatusRejected:
			report.Rejected++
		case downloader.StatusReview:
			report.Review++
		case downloader.StatusFailed:
			report.Failed++
		}

		if ctx.Err() != nil {
			stopSubmitting()
		}
	}

	if err := s.ledger.Flush(); err != nil {
		s.logger.ErrorWithFields("failed to flush hash ledger", map[string]interface{}{
			"error": err.Error(),
		})
		return report, fmt.Errorf("failed to flush hash ledger: %w", err)
	}

	report.Elapsed = time.Since(start)
	s.logger.InfoWithFields("scrape run finished", map[string]interface{}{
		"category":   cat,
		"saved":      report.Saved,
		"duplicates": report.Duplicates,
		"rejected":   report.Rejected,
		"review":     report.Review,
		"failed":     report.Failed,
		"elapsed":    report.Elapsed,
	})
	return report, nil
}

// gather queries every enabled source for candidates, pacing requests
// between providers. Source failures disable that provider for the run
// rather than aborting.
func (s *Scraper) gather(ctx context.Context, cat string, target int) []models.Candidate {
	// Overfetch: duplicates and rejects eat into the pool.
	perSource := target * 3
	if perSource < 10 {
		perSource = 10
	}

	var all []models.Candidate
	seen := make(map[string]bool)

	for _, src := range s.sources {
		if ctx.Err() != nil {
			break
		}
		s.pacer.Pace()

		term := searchTermFor(cat)
		candidates, err := src.Search(term, perSource)
		if err != nil {
			s.logger.WarnWithFields("source search failed", map[string]interface{}{
				"source": src.Name(),
				"term":   term,
				"error":  err.Error(),
			})
			continue
		}

		added := 0
		for _, c := range candidates {
			if c.URL == "" || seen[c.URL] {
				continue
			}
			// Skip obviously undersized candidates before downloading
			// anything; sources report dimensions up front.
			if c.Width > 0 && c.Height > 0 &&
				(c.Width < s.cfg.Quality.MinWidth || c.Height < s.cfg.Quality.MinHeight) {
				continue
			}
			seen[c.URL] = true
			all = append(all, c)
			added++
		}

		s.logger.DebugWithFields("source search completed", map[string]interface{}{
			"source":   src.Name(),
			"returned": len(candidates),
			"kept":     added,
		})
	}
	return all
}

// searchTermFor maps a category to its provider search term.
func searchTermFor(cat string) string {
	terms := map[string]string{
		"nature":       "nature landscape",
		"space":        "galaxy nebula space",
		"abstract":     "abstract art",
		"minimal":      "minimal design",
		"cyberpunk":    "cyberpunk neon city",
		"gaming":       "gaming concept art",
		"anime":        "anime art",
		"movies":       "cinema film still",
		"music":        "music instruments",
		"cars":         "sports car",
		"sports":       "sports action",
		"technology":   "technology circuit",
		"architecture": "architecture building",
		"art":          "digital art",
		"dark":         "dark moody",
		"neon":         "neon lights",
		"pastel":       "pastel soft",
		"vintage":      "vintage retro",
		"gradient":     "gradient color",
		"seasonal":     "seasonal holiday",
	}
	if term, ok := terms[cat]; ok {
		return term + " wallpaper"
	}
	return cat + " wallpaper"
}
