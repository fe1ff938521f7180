// Package scan drives scan cycles: due computation, cost-aware retrieval
// routing, concurrent dispatch, and target-state updates.
package scan

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pricesentry/config"
	"pricesentry/extract"
	"pricesentry/fetch"
	"pricesentry/models"
)

// Sink is the external persistence collaborator. The engine emits
// observations and target updates through it and assumes it serializes
// writes per target.
type Sink interface {
	ListActiveTargets(ctx context.Context) ([]*models.ScanTarget, error)
	GetTarget(ctx context.Context, id int64) (*models.ScanTarget, error)
	SaveObservation(ctx context.Context, obs *models.PriceObservation) error
	UpdateTarget(ctx context.Context, target *models.ScanTarget) error
}

// Scanner owns one scan cycle at a time. Callers must not trigger
// overlapping cycles for the same target set; the scheduler loop below runs
// cycles back to back and never overlaps itself.
type Scanner struct {
	cfg     *config.Config
	fetcher *fetch.Fetcher
	sink    Sink
	Metrics *Metrics

	now func() time.Time
}

// New builds a scanner around its collaborators.
func New(cfg *config.Config, fetcher *fetch.Fetcher, sink Sink) *Scanner {
	return &Scanner{
		cfg:     cfg,
		fetcher: fetcher,
		sink:    sink,
		Metrics: NewMetrics(),
		now:     time.Now,
	}
}

// Vendors known to aggressively block plain retrieval. Only these ever cost
// relay credits.
var blockProneDomains = []string{"ebay.com", "ebay.co"}

func blockProne(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, domain := range blockProneDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

// Route decides the retrieval path for one scan. The metered relay is spent
// only where the free path is known to produce incomplete pages: a target's
// very first scan (auction detection needs the full page), or a known auction
// whose end time is still untracked. Everything else goes direct.
func Route(target *models.ScanTarget) models.RoutingDecision {
	if !blockProne(target.URL) {
		return models.RoutingDecision{Reason: "vendor_not_block_prone"}
	}
	if target.LastScannedAt == nil {
		return models.RoutingDecision{UseRelay: true, Reason: "first_scan"}
	}
	if target.IsAuction && target.AuctionEndTime == nil {
		return models.RoutingDecision{UseRelay: true, Reason: "auction_end_unknown"}
	}
	return models.RoutingDecision{Reason: "tracked"}
}

// ScanAllDue runs one cycle over every due target. force bypasses the due
// computation and scans everything. Individual failures never abort the
// cycle; the summary carries the counts.
func (s *Scanner) ScanAllDue(ctx context.Context, force bool) (models.CycleSummary, error) {
	targets, err := s.sink.ListActiveTargets(ctx)
	if err != nil {
		return models.CycleSummary{}, err
	}

	now := s.now()
	due := make([]*models.ScanTarget, 0, len(targets))
	for _, target := range targets {
		if force || target.Due(now) {
			due = append(due, target)
		}
	}

	s.Metrics.CycleStarted(len(due))
	if len(due) == 0 {
		return models.CycleSummary{}, nil
	}

	var succeeded int64
	var wg sync.WaitGroup
	for _, target := range due {
		wg.Add(1)
		go func(target *models.ScanTarget) {
			defer wg.Done()
			if s.scanOne(ctx, target) {
				atomic.AddInt64(&succeeded, 1)
			}
		}(target)
	}
	wg.Wait()

	summary := models.CycleSummary{
		Total:   len(due),
		Success: int(atomic.LoadInt64(&succeeded)),
	}
	summary.Failed = summary.Total - summary.Success

	slog.Info("scan cycle finished",
		slog.Int("total", summary.Total),
		slog.Int("success", summary.Success),
		slog.Int("failed", summary.Failed),
	)
	return summary, nil
}

// ScanTarget force-scans a single target by id, bypassing due computation.
func (s *Scanner) ScanTarget(ctx context.Context, id int64) bool {
	target, err := s.sink.GetTarget(ctx, id)
	if err != nil || target == nil {
		slog.Error("target lookup failed", slog.Int64("id", id), slog.Any("error", err))
		return false
	}
	return s.scanOne(ctx, target)
}

// TestURL performs dispatch, fetch and extraction for an arbitrary URL
// without any persistence side effect. It routes as a first scan would so
// block-prone vendors get a complete page.
func (s *Scanner) TestURL(ctx context.Context, rawURL string) (models.ExtractionResult, string, error) {
	useRelay := blockProne(rawURL)
	if useRelay && s.cfg.RelayConfigured() {
		s.Metrics.IncRelay()
	}
	html, err := s.fetcher.Fetch(ctx, rawURL, useRelay)
	if err != nil {
		return models.ExtractionResult{}, extract.ForURL(rawURL).Name(), err
	}
	result, profileName := extract.FromHTML(html, rawURL)
	return result, profileName, nil
}

// RunScheduler triggers a due-scan cycle every interval until ctx is done.
// The cycle runs synchronously inside the tick so cycles never overlap.
func (s *Scanner) RunScheduler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("scheduler started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.ScanAllDue(ctx, false); err != nil {
				slog.Error("scheduled cycle failed", slog.Any("error", err))
			}
		}
	}
}

func (s *Scanner) scanOne(ctx context.Context, target *models.ScanTarget) bool {
	decision := Route(target)
	// The counter tracks actual relay spend; an unconfigured relay means the
	// fetcher goes direct no matter what routing decided.
	if decision.UseRelay && s.cfg.RelayConfigured() {
		s.Metrics.IncRelay()
	}

	start := s.now()
	html, err := s.fetcher.Fetch(ctx, target.URL, decision.UseRelay)
	s.Metrics.ObserveFetch(time.Since(start))
	if err != nil {
		s.Metrics.IncFetchError(fetch.ErrorLabel(err))
		s.Metrics.IncScan("fetch_error")
		slog.Error("fetch failed",
			slog.String("url", target.URL),
			slog.String("route", decision.Reason),
			slog.Any("error", err),
		)
		return false
	}

	result, profileName := extract.FromHTML(html, target.URL)
	if result.Blocked {
		// Being blocked is not out-of-stock; record the miss and move on.
		s.Metrics.IncScan("blocked")
		slog.Warn("challenge page detected",
			slog.String("url", target.URL),
			slog.String("profile", profileName),
		)
		return false
	}
	if result.Price == nil {
		s.Metrics.IncScan("miss")
		slog.Warn("no price extracted",
			slog.String("url", target.URL),
			slog.String("profile", profileName),
		)
		return false
	}

	observedAt := s.now()
	obs := &models.PriceObservation{
		TargetID:   target.ID,
		Price:      *result.Price,
		Currency:   result.Currency,
		InStock:    result.InStock,
		ObservedAt: observedAt,
		BidCount:   result.BidCount,
	}
	if result.IsAuction {
		active := result.InStock
		obs.AuctionActive = &active
	}

	if err := s.sink.SaveObservation(ctx, obs); err != nil {
		s.Metrics.IncScan("sink_error")
		slog.Error("save observation failed", slog.Int64("target", target.ID), slog.Any("error", err))
		return false
	}

	s.applyResult(target, &result, observedAt)
	if err := s.sink.UpdateTarget(ctx, target); err != nil {
		s.Metrics.IncScan("sink_error")
		slog.Error("update target failed", slog.Int64("target", target.ID), slog.Any("error", err))
		return false
	}

	s.Metrics.IncScan("success")
	slog.Info("scan succeeded",
		slog.String("name", target.Name),
		slog.String("profile", profileName),
		slog.Float64("price", *result.Price),
		slog.Bool("in_stock", result.InStock),
		slog.String("route", decision.Reason),
	)
	return true
}

// applyResult folds an extraction into the target's metadata. Auction fields
// merge monotonically: an absent new value never erases a known one, since a
// direct fetch of a truncated page routinely misses the countdown.
func (s *Scanner) applyResult(target *models.ScanTarget, result *models.ExtractionResult, observedAt time.Time) {
	target.LastScannedAt = &observedAt

	if result.ImageURL != "" {
		target.ImageURL = result.ImageURL
	}

	if result.IsAuction {
		target.IsAuction = true
		if result.BidCount != nil {
			target.BidCount = result.BidCount
		}
		if result.AuctionEndTime != nil {
			target.AuctionEndTime = result.AuctionEndTime
		}
		if result.BuyItNowPrice != nil {
			target.BuyItNowPrice = result.BuyItNowPrice
		}
	}
}
