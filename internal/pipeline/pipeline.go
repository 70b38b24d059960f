// Package pipeline gathers alerts from the configured feeds, enriches them
// and drives the periodic alert refresh.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/weatherengine/maritime/config"
	"github.com/weatherengine/maritime/internal/alerts"
	apperrors "github.com/weatherengine/maritime/internal/errors"
	"github.com/weatherengine/maritime/internal/logger"
	"github.com/weatherengine/maritime/internal/metrics"
	"github.com/weatherengine/maritime/internal/models"
)

// Source defines a pluggable alert feed
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Alert, error)
}

// Classifier fills hazard type and risk label from alert text
type Classifier interface {
	ClassifyAlertText(alert *models.Alert)
}

// Geocoder resolves alert locations
type Geocoder interface {
	Geocode(alert *models.Alert) error
}

// Refresher is the alert service the pipeline keeps up to date
type Refresher interface {
	Refresh(ctx context.Context) (alerts.RefreshResult, error)
	AutoRefreshEnabled(ctx context.Context) bool
}

// Pipeline fetches every source concurrently and merges the results into
// one batch. It satisfies alerts.Source.
type Pipeline struct {
	classifier Classifier
	geocoder   Geocoder
	sources    []Source
	cfg        config.PipelineConfig
	sem        *semaphore.Weighted
	mu         sync.RWMutex
	running    bool
}

// New creates a new pipeline instance
func New(classifier Classifier, geocoder Geocoder, cfg config.PipelineConfig, sources ...Source) *Pipeline {
	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	p := &Pipeline{
		classifier: classifier,
		geocoder:   geocoder,
		sources:    sources,
		cfg:        cfg,
		sem:        semaphore.NewWeighted(int64(workers)),
	}

	logger.Info("Pipeline initialized",
		"sources", p.Name(),
		"workers", workers,
		"interval", cfg.Interval,
	)
	return p
}

// Name lists the configured sources, e.g. "seed+backend"
func (p *Pipeline) Name() string {
	names := make([]string, len(p.sources))
	for i, s := range p.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// Fetch runs every source and returns the merged batch. Sources are listed
// in priority order: when two report the same id the earlier one wins. Any
// failing source fails the whole fetch so a partial batch never replaces
// the collection.
func (p *Pipeline) Fetch(ctx context.Context) ([]models.Alert, error) {
	if len(p.sources) == 0 {
		return nil, apperrors.PipelineError{Source: "pipeline", Stage: "fetch", Err: fmt.Errorf("no sources configured")}
	}

	results := make([][]models.Alert, len(p.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range p.sources {
		i, src := i, src
		g.Go(func() error {
			batch, err := p.runOnce(gctx, src)
			if err != nil {
				return err
			}
			results[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var merged []models.Alert
	for _, batch := range results {
		for _, a := range batch {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			merged = append(merged, a)
		}
	}
	return merged, nil
}

// runOnce fetches and enriches one source
func (p *Pipeline) runOnce(ctx context.Context, src Source) ([]models.Alert, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire semaphore: %w", err)
	}
	defer p.sem.Release(1)

	start := time.Now()
	defer func() {
		duration := time.Since(start)
		metrics.RecordPipelineRun(src.Name(), duration)
		logger.Debug("Pipeline run completed",
			"source", src.Name(),
			"duration_ms", duration.Milliseconds(),
		)
	}()

	batch, err := src.Fetch(ctx)
	if err != nil {
		return nil, apperrors.PipelineError{Source: src.Name(), Stage: "fetch", Err: err}
	}
	p.processBatch(src.Name(), batch)
	return batch, nil
}

// processBatch enriches alerts in place
func (p *Pipeline) processBatch(sourceName string, batch []models.Alert) {
	for i := range batch {
		alert := &batch[i]
		if alert.Source == "" {
			alert.Source = sourceName
		}
		p.classifier.ClassifyAlertText(alert)
		if err := p.geocoder.Geocode(alert); err != nil {
			logger.Warn("Geocoding failed", "alert_id", alert.ID, "error", err)
		}
	}
}

// Run refreshes r on every interval tick while auto-refresh is on, either
// from configuration or from the operator's preferences. It returns when
// ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, r Refresher) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("pipeline already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	logger.Info("Starting alert refresh loop", "interval", p.cfg.Interval)
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Alert refresh loop stopping")
			return nil
		case <-ticker.C:
			if !p.cfg.AutoRefresh && !r.AutoRefreshEnabled(ctx) {
				continue
			}
			// A failed refresh waits for the next tick
			if _, err := r.Refresh(ctx); err != nil {
				logger.Error("Scheduled alert refresh failed", "error", err)
			}
		}
	}
}

// IsRunning returns whether the refresh loop is active
func (p *Pipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}
