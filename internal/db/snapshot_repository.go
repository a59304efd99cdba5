package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/unklstewy/nightsky/pkg/events"
)

// Snapshot is an event result persisted for a site and date.
type Snapshot struct {
	ID         int64          `json:"id"`
	SiteID     int            `json:"siteId"`
	Date       string         `json:"date"`
	Result     *events.Result `json:"result"`
	ComputedAt time.Time      `json:"computedAt"`
}

// SnapshotRepository stores engine results as JSONB.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new snapshot repository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save stores result for the site, replacing any earlier snapshot of the
// same date.
func (r *SnapshotRepository) Save(ctx context.Context, siteID int, result *events.Result) (*Snapshot, error) {
	if result == nil {
		return nil, errors.New("nil result")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	query := `
		INSERT INTO event_snapshots (site_id, date, result, computed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (site_id, date)
		DO UPDATE SET result = EXCLUDED.result, computed_at = EXCLUDED.computed_at
		RETURNING id
	`

	snap := &Snapshot{
		SiteID:     siteID,
		Date:       result.Date,
		Result:     result,
		ComputedAt: result.ComputedAt,
	}
	if err := r.db.QueryRowContext(ctx, query, siteID, result.Date, data, result.ComputedAt).Scan(&snap.ID); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return snap, nil
}

// Get returns the snapshot of a site for a YYYY-MM-DD date, or ErrNotFound.
func (r *SnapshotRepository) Get(ctx context.Context, siteID int, date string) (*Snapshot, error) {
	query := `
		SELECT id, site_id, date, result, computed_at
		FROM event_snapshots
		WHERE site_id = $1 AND date = $2
	`

	snap, err := scanSnapshot(r.db.QueryRowContext(ctx, query, siteID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return snap, nil
}

// ListForSite returns up to limit snapshots of a site, latest date first.
func (r *SnapshotRepository) ListForSite(ctx context.Context, siteID, limit int) ([]Snapshot, error) {
	query := `
		SELECT id, site_id, date, result, computed_at
		FROM event_snapshots
		WHERE site_id = $1
		ORDER BY date DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, siteID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snaps, nil
}

// Prune deletes snapshots computed more than maxAge ago.
func (r *SnapshotRepository) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	return r.db.PruneSnapshots(ctx, maxAge)
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var (
		s    Snapshot
		date time.Time
		data []byte
	)
	if err := row.Scan(&s.ID, &s.SiteID, &date, &data, &s.ComputedAt); err != nil {
		return nil, err
	}
	s.Date = date.Format(time.DateOnly)
	s.Result = &events.Result{}
	if err := json.Unmarshal(data, s.Result); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %d: %w", s.ID, err)
	}
	return &s, nil
}
