package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/techvault/skoop/domain/repository"
	"github.com/techvault/skoop/domain/resource"
	domainservice "github.com/techvault/skoop/domain/service"
	"github.com/techvault/skoop/internal/config"
)

// BackfillReport counts the work done by one backfill pass.
type BackfillReport struct {
	Embedded   int
	Summarized int
	Failed     int
}

// Backfill embeds and summarizes resources that were saved without them.
type Backfill struct {
	store      resource.Store
	embedding  *domainservice.EmbeddingService
	summarizer domainservice.Summarizer
	index      domainservice.KeywordIndex
	logger     *slog.Logger
	limiter    *rate.Limiter
	interval   time.Duration
	batchSize  int
	enabled    bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBackfill creates a Backfill from config and dependencies. embedding,
// summarizer and index may each be nil to skip that step.
func NewBackfill(
	cfg config.BackfillConfig,
	store resource.Store,
	embedding *domainservice.EmbeddingService,
	summarizer domainservice.Summarizer,
	index domainservice.KeywordIndex,
	logger *slog.Logger,
) *Backfill {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.Rate() > 0 && !math.IsInf(cfg.Rate(), 1) {
		limit = rate.Limit(cfg.Rate())
	}
	batch := cfg.BatchSize()
	if batch <= 0 {
		batch = config.DefaultBackfillBatchSize
	}
	interval := cfg.Interval()
	if interval <= 0 {
		interval = config.DefaultBackfillInterval
	}
	return &Backfill{
		store:      store,
		embedding:  embedding,
		summarizer: summarizer,
		index:      index,
		logger:     logger,
		limiter:    rate.NewLimiter(limit, 1),
		interval:   interval,
		batchSize:  batch,
		enabled:    cfg.Enabled(),
	}
}

// Start runs a pass immediately and then on every interval in a background
// goroutine. If disabled, this is a no-op.
func (b *Backfill) Start(ctx context.Context) {
	if !b.enabled {
		b.logger.Info("backfill disabled")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return
	}

	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.run(ctx)
	}()

	b.logger.Info("backfill started", slog.Duration("interval", b.interval), slog.Int("batch_size", b.batchSize))
}

// Stop cancels the background goroutine and waits for it to finish.
func (b *Backfill) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	b.wg.Wait()
	b.logger.Info("backfill stopped")
}

func (b *Backfill) run(ctx context.Context) {
	b.pass(ctx)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.pass(ctx)
		}
	}
}

func (b *Backfill) pass(ctx context.Context) {
	report, err := b.RunOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.logger.Error("backfill pass failed", slog.String("error", err.Error()))
		return
	}
	if report.Embedded+report.Summarized+report.Failed > 0 {
		b.logger.Info("backfill pass complete",
			slog.Int("embedded", report.Embedded),
			slog.Int("summarized", report.Summarized),
			slog.Int("failed", report.Failed),
		)
	}
}

// RunOnce embeds up to one batch of resources lacking a current embedding,
// then summarizes up to one batch lacking a summary. Per-resource failures
// are logged and counted; only store errors and cancellation are returned.
func (b *Backfill) RunOnce(ctx context.Context) (BackfillReport, error) {
	var report BackfillReport
	if err := b.embedPending(ctx, &report); err != nil {
		return report, err
	}
	if err := b.summarizePending(ctx, &report); err != nil {
		return report, err
	}
	return report, nil
}

func (b *Backfill) embedPending(ctx context.Context, report *BackfillReport) error {
	if b.embedding == nil {
		return nil
	}

	pending, err := b.store.Find(ctx, b.batch(resource.WithoutEmbedding())...)
	if err != nil {
		return err
	}
	if room := b.batchSize - len(pending); room > 0 {
		stale, err := b.store.Find(ctx, append(b.batch(resource.WithStaleEmbedding(b.embedding.Model())), repository.WithLimit(room))...)
		if err != nil {
			return err
		}
		pending = append(pending, stale...)
	}
	if len(pending) == 0 {
		return nil
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	embedded, err := b.embedding.EmbedResources(ctx, pending)
	report.Embedded += len(embedded)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report.Failed += len(pending) - len(embedded)
		b.logger.Warn("backfill embedding failed", slog.Int("resources", len(pending)), slog.String("error", err.Error()))
	}
	return nil
}

func (b *Backfill) summarizePending(ctx context.Context, report *BackfillReport) error {
	if b.summarizer == nil {
		return nil
	}

	pending, err := b.store.Find(ctx, b.batch(resource.WithoutSummary())...)
	if err != nil {
		return err
	}

	for _, r := range pending {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		summary, err := b.summarizer.Summarize(ctx, r.SummaryText())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.Failed++
			b.logger.Warn("backfill summary failed", slog.String("resource_id", r.ID()), slog.String("error", err.Error()))
			continue
		}
		saved, err := b.store.UpdateSummary(ctx, r.ID(), summary)
		if errors.Is(err, repository.ErrNotFound) {
			b.logger.Debug("resource deleted before its summary was stored", slog.String("resource_id", r.ID()))
			continue
		}
		if err != nil {
			return err
		}
		report.Summarized++
		if b.index != nil {
			if err := b.index.Index(ctx, saved); err != nil {
				b.logger.Warn("failed to reindex resource", slog.String("resource_id", saved.ID()), slog.String("error", err.Error()))
			}
		}
	}
	return nil
}

func (b *Backfill) batch(filter repository.Option) []repository.Option {
	options := []repository.Option{filter}
	options = append(options, resource.WithOldestFirst()...)
	return append(options, repository.WithLimit(b.batchSize))
}
