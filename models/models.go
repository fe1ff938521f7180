// Package models defines data structures shared by the scan engine.
package models

import "time"

// ScanTarget is a tracked product or listing awaiting periodic price checks.
// The persistence layer owns the record; the engine mutates the scan and
// auction metadata after each attempt and hands it back to the sink.
type ScanTarget struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	URL           string        `json:"url"`
	VendorDomain  string        `json:"vendor_domain"`
	ImageURL      string        `json:"image_url,omitempty"`
	ScanInterval  time.Duration `json:"scan_interval"`
	Active        bool          `json:"active"`
	CreatedAt     time.Time     `json:"created_at"`
	LastScannedAt *time.Time    `json:"last_scanned_at,omitempty"`

	// Auction tracking, populated only for bid-based listings.
	IsAuction      bool       `json:"is_auction"`
	AuctionEndTime *time.Time `json:"auction_end_time,omitempty"`
	BidCount       *int       `json:"bid_count,omitempty"`
	BuyItNowPrice  *float64   `json:"buy_it_now_price,omitempty"`
}

// PriceObservation is one immutable point-in-time price record. It is only
// created when an extraction produced a price; a missing price never becomes
// an observation claiming availability.
type PriceObservation struct {
	TargetID   int64     `json:"target_id"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	InStock    bool      `json:"in_stock"`
	ObservedAt time.Time `json:"observed_at"`

	BidCount      *int  `json:"bid_count,omitempty"`
	AuctionActive *bool `json:"auction_active,omitempty"`
}

// ExtractionResult is the ephemeral output of a single scrape attempt.
// Price == nil means extraction failed; it is never defaulted to zero.
type ExtractionResult struct {
	Price    *float64 `json:"price,omitempty"`
	Currency string   `json:"currency"`
	InStock  bool     `json:"in_stock"`
	ImageURL string   `json:"image_url,omitempty"`

	IsAuction      bool       `json:"is_auction"`
	BidCount       *int       `json:"bid_count,omitempty"`
	AuctionEndTime *time.Time `json:"auction_end_time,omitempty"`
	BuyItNowPrice  *float64   `json:"buy_it_now_price,omitempty"`

	// Blocked marks a detected challenge/interstitial page. A blocked fetch
	// keeps InStock true so a bot wall is never mistaken for out-of-stock.
	Blocked bool `json:"blocked"`
}

// RoutingDecision is the per-scan choice between the free direct path and the
// metered unlocking relay.
type RoutingDecision struct {
	UseRelay bool
	Reason   string
}

// CycleSummary aggregates one scan cycle's per-target outcomes.
type CycleSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Due reports whether the target's next scan interval has elapsed at now.
// A target that has never been scanned is always due.
func (t *ScanTarget) Due(now time.Time) bool {
	if t.LastScannedAt == nil {
		return true
	}
	return now.Sub(*t.LastScannedAt) >= t.ScanInterval
}
