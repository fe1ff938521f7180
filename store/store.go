// Package store persists scan targets and price observation history in
// SQLite. The engine only sees it through the scan.Sink interface.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pricesentry/models"
)

// Store wraps the database connection.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed and initializes the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite handles one writer at a time; keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS targets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    vendor_domain TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    scan_interval_seconds INTEGER NOT NULL,
    active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    last_scanned_at TIMESTAMP,

    is_auction INTEGER NOT NULL DEFAULT 0,
    auction_end_time TIMESTAMP,
    bid_count INTEGER,
    buy_it_now_price REAL
);

CREATE TABLE IF NOT EXISTS price_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    target_id INTEGER NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
    price REAL NOT NULL,
    currency TEXT NOT NULL DEFAULT 'USD',
    in_stock INTEGER NOT NULL DEFAULT 1,
    observed_at TIMESTAMP NOT NULL,

    bid_count INTEGER,
    auction_active INTEGER
);

CREATE INDEX IF NOT EXISTS idx_price_history_target
    ON price_history(target_id, observed_at DESC);
`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddTarget inserts a new scan target and fills in its assigned ID.
func (s *Store) AddTarget(ctx context.Context, target *models.ScanTarget) error {
	if target.CreatedAt.IsZero() {
		target.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO targets (name, url, vendor_domain, image_url, scan_interval_seconds, active, created_at,
                     is_auction, auction_end_time, bid_count, buy_it_now_price)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		target.Name, target.URL, target.VendorDomain, target.ImageURL,
		int64(target.ScanInterval.Seconds()), target.Active, target.CreatedAt,
		target.IsAuction, nullTime(target.AuctionEndTime),
		nullInt(target.BidCount), nullFloat(target.BuyItNowPrice),
	)
	if err != nil {
		return fmt.Errorf("insert target: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("target id: %w", err)
	}
	target.ID = id
	return nil
}

// GetTarget fetches one target by id; a missing row returns (nil, nil).
func (s *Store) GetTarget(ctx context.Context, id int64) (*models.ScanTarget, error) {
	row := s.db.QueryRowContext(ctx, targetSelect+` WHERE id = ?`, id)
	target, err := scanTargetRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get target %d: %w", id, err)
	}
	return target, nil
}

// ListActiveTargets returns every active target.
func (s *Store) ListActiveTargets(ctx context.Context) ([]*models.ScanTarget, error) {
	rows, err := s.db.QueryContext(ctx, targetSelect+` WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var targets []*models.ScanTarget
	for rows.Next() {
		target, err := scanTargetRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan target row: %w", err)
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

// UpdateTarget persists the mutable scan and auction metadata.
func (s *Store) UpdateTarget(ctx context.Context, target *models.ScanTarget) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE targets
SET name = ?, url = ?, vendor_domain = ?, image_url = ?, scan_interval_seconds = ?,
    active = ?, last_scanned_at = ?, is_auction = ?, auction_end_time = ?,
    bid_count = ?, buy_it_now_price = ?
WHERE id = ?`,
		target.Name, target.URL, target.VendorDomain, target.ImageURL,
		int64(target.ScanInterval.Seconds()), target.Active,
		nullTime(target.LastScannedAt), target.IsAuction,
		nullTime(target.AuctionEndTime), nullInt(target.BidCount),
		nullFloat(target.BuyItNowPrice), target.ID,
	)
	if err != nil {
		return fmt.Errorf("update target %d: %w", target.ID, err)
	}
	return nil
}

// SaveObservation appends one immutable price observation.
func (s *Store) SaveObservation(ctx context.Context, obs *models.PriceObservation) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO price_history (target_id, price, currency, in_stock, observed_at, bid_count, auction_active)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		obs.TargetID, obs.Price, obs.Currency, obs.InStock, obs.ObservedAt,
		nullInt(obs.BidCount), nullBool(obs.AuctionActive),
	)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// RecentObservations returns up to limit observations for a target, newest
// first.
func (s *Store) RecentObservations(ctx context.Context, targetID int64, limit int) ([]*models.PriceObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT target_id, price, currency, in_stock, observed_at, bid_count, auction_active
FROM price_history
WHERE target_id = ?
ORDER BY observed_at DESC
LIMIT ?`, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	var observations []*models.PriceObservation
	for rows.Next() {
		obs := &models.PriceObservation{}
		var bidCount sql.NullInt64
		var active sql.NullBool
		if err := rows.Scan(&obs.TargetID, &obs.Price, &obs.Currency, &obs.InStock,
			&obs.ObservedAt, &bidCount, &active); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		if bidCount.Valid {
			value := int(bidCount.Int64)
			obs.BidCount = &value
		}
		if active.Valid {
			value := active.Bool
			obs.AuctionActive = &value
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

const targetSelect = `
SELECT id, name, url, vendor_domain, image_url, scan_interval_seconds, active,
       created_at, last_scanned_at, is_auction, auction_end_time, bid_count, buy_it_now_price
FROM targets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTargetRow(row rowScanner) (*models.ScanTarget, error) {
	target := &models.ScanTarget{}
	var intervalSeconds int64
	var lastScanned, auctionEnd sql.NullTime
	var bidCount sql.NullInt64
	var buyItNow sql.NullFloat64

	err := row.Scan(&target.ID, &target.Name, &target.URL, &target.VendorDomain,
		&target.ImageURL, &intervalSeconds, &target.Active, &target.CreatedAt,
		&lastScanned, &target.IsAuction, &auctionEnd, &bidCount, &buyItNow)
	if err != nil {
		return nil, err
	}

	target.ScanInterval = time.Duration(intervalSeconds) * time.Second
	if lastScanned.Valid {
		value := lastScanned.Time
		target.LastScannedAt = &value
	}
	if auctionEnd.Valid {
		value := auctionEnd.Time
		target.AuctionEndTime = &value
	}
	if bidCount.Valid {
		value := int(bidCount.Int64)
		target.BidCount = &value
	}
	if buyItNow.Valid {
		value := buyItNow.Float64
		target.BuyItNowPrice = &value
	}
	return target, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
