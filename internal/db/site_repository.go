package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/unklstewy/nightsky/pkg/coordinates"
)

var (
	// ErrNotFound is returned when a site or snapshot does not exist or
	// belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when a site name is already taken by the user
	ErrExists = errors.New("already exists")
)

// ObservationSite is a saved observing location of a user.
type ObservationSite struct {
	ID              int       `json:"id"`
	UserID          int       `json:"userId"`
	Name            string    `json:"name"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	ElevationMeters float64   `json:"elevationMeters"`
	Timezone        string    `json:"timezone,omitempty"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Observer returns the site as an engine observer.
func (s ObservationSite) Observer() coordinates.Observer {
	o := coordinates.NewObserver(s.Latitude, s.Longitude)
	o.Location.Altitude = s.ElevationMeters
	o.Timezone = s.Timezone
	return o
}

// Validate checks the site's name, coordinates and time zone.
func (s ObservationSite) Validate() error {
	if s.Name == "" {
		return errors.New("site name is required")
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("%w: time zone %q", coordinates.ErrInvalidObserver, s.Timezone)
		}
	}
	return s.Observer().Validate()
}

const siteColumns = `id, user_id, name, latitude, longitude, elevation_meters, timezone, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*ObservationSite, error) {
	var s ObservationSite
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.Latitude,
		&s.Longitude,
		&s.ElevationMeters,
		&s.Timezone,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SiteRepository provides methods for managing observation sites.
type SiteRepository struct {
	db *DB
}

// NewSiteRepository creates a new site repository.
func NewSiteRepository(db *DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// List returns all sites of a user, the active one first.
func (r *SiteRepository) List(ctx context.Context, userID int) ([]ObservationSite, error) {
	query := `
		SELECT ` + siteColumns + `
		FROM observation_sites
		WHERE user_id = $1
		ORDER BY is_active DESC, name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	sites := []ObservationSite{}
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sites: %w", err)
	}
	return sites, nil
}

// Active returns the active site of a user, or ErrNotFound.
func (r *SiteRepository) Active(ctx context.Context, userID int) (*ObservationSite, error) {
	query := `
		SELECT ` + siteColumns + `
		FROM observation_sites
		WHERE user_id = $1 AND is_active = TRUE
		LIMIT 1
	`

	s, err := scanSite(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active site: %w", err)
	}
	return s, nil
}

// Get returns one of the user's sites by ID.
func (r *SiteRepository) Get(ctx context.Context, siteID, userID int) (*ObservationSite, error) {
	query := `
		SELECT ` + siteColumns + `
		FROM observation_sites
		WHERE id = $1 AND user_id = $2
	`

	s, err := scanSite(r.db.QueryRowContext(ctx, query, siteID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return s, nil
}

// Create inserts a new, inactive site and fills in its ID and timestamps.
func (r *SiteRepository) Create(ctx context.Context, site *ObservationSite) error {
	if err := site.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO observation_sites (user_id, name, latitude, longitude, elevation_meters, timezone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		site.UserID,
		site.Name,
		site.Latitude,
		site.Longitude,
		site.ElevationMeters,
		site.Timezone,
	).Scan(&site.ID, &site.IsActive, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("site %q: %w", site.Name, ErrExists)
		}
		return fmt.Errorf("failed to create site: %w", err)
	}
	return nil
}

// Update changes a site's name and location. Activation goes through Activate.
func (r *SiteRepository) Update(ctx context.Context, site *ObservationSite) error {
	if err := site.Validate(); err != nil {
		return err
	}
	query := `
		UPDATE observation_sites
		SET name = $1, latitude = $2, longitude = $3, elevation_meters = $4, timezone = $5
		WHERE id = $6 AND user_id = $7
		RETURNING is_active, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		site.Name,
		site.Latitude,
		site.Longitude,
		site.ElevationMeters,
		site.Timezone,
		site.ID,
		site.UserID,
	).Scan(&site.IsActive, &site.CreatedAt, &site.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("site %q: %w", site.Name, ErrExists)
		}
		return fmt.Errorf("failed to update site: %w", err)
	}
	return nil
}

// Delete removes a site together with its snapshots.
func (r *SiteRepository) Delete(ctx context.Context, siteID, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM observation_sites WHERE id = $1 AND user_id = $2`,
		siteID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	return expectOneRow(result)
}

// Activate makes siteID the user's only active site.
func (r *SiteRepository) Activate(ctx context.Context, siteID, userID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE observation_sites SET is_active = FALSE WHERE user_id = $1 AND is_active AND id <> $2`,
		userID, siteID); err != nil {
		return fmt.Errorf("failed to deactivate sites: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE observation_sites SET is_active = TRUE WHERE id = $1 AND user_id = $2`,
		siteID, userID)
	if err != nil {
		return fmt.Errorf("failed to activate site: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}
	return nil
}

// expectOneRow maps a statement that touched no rows onto ErrNotFound.
func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
