package db

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/unklstewy/nightsky/pkg/config"
)

// maxBackoff caps the delay between reconnection attempts.
const maxBackoff = 60 * time.Second

// ReconnectWithRetry attempts to connect to the database with exponential backoff.
//
// Parameters:
//   - ctx: Cancels the retry loop
//   - cfg: Database configuration
//   - maxRetries: Maximum number of connection attempts (0 = until ctx is done)
//   - initialDelay: Initial wait time between retries
//
// Returns: Connected database or the last error once retries are exhausted
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration) (*DB, error) {
	delay := initialDelay
	for attempt := 1; ; attempt++ {
		log.Printf("Database connection attempt %d...", attempt)

		db, err := Connect(cfg)
		if err == nil {
			log.Println("✓ Database connected")
			return db, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			log.Printf("Failed to connect after %d attempts", attempt)
			return nil, err
		}

		log.Printf("Connection failed: %v (retry in %v)", err, delay)
		select {
		case <-ctx.Done():
			return nil, errors.Join(err, ctx.Err())
		case <-time.After(delay):
		}

		delay = nextBackoff(delay)
	}
}

// nextBackoff doubles d up to maxBackoff.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// EnsureConnection checks if the database connection is alive and reconnects if needed.
//
// Returns: Active database connection (either original or new) and error
func EnsureConnection(ctx context.Context, db *DB, cfg config.DatabaseConfig) (*DB, error) {
	if db == nil {
		log.Println("Database connection is nil, attempting to reconnect...")
		return ReconnectWithRetry(ctx, cfg, 3, time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		log.Printf("Database connection lost: %v", err)
		db.Close()
		return ReconnectWithRetry(ctx, cfg, 3, time.Second)
	}

	return db, nil
}

// HealthCheck reports whether the database answers a trivial query.
func HealthCheck(ctx context.Context, db *DB) bool {
	if db == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		log.Printf("Health check failed - query error: %v", err)
		return false
	}
	return result == 1
}

// connErrorPatterns are substrings of driver errors caused by a lost connection.
var connErrorPatterns = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"bad connection",
	"eof",
	"timeout",
}

// isConnectionError reports whether err looks like a transient connection failure.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// WithRetry executes a database operation, retrying it on connection failures.
// Other errors are returned immediately.
func WithRetry(ctx context.Context, operation func(context.Context) error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isConnectionError(err) {
			return err
		}

		if attempt < maxRetries {
			wait := time.Duration(attempt+1) * retryUnit
			log.Printf("Database operation failed (attempt %d/%d): %v (retry in %v)",
				attempt+1, maxRetries+1, err, wait)
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(wait):
			}
		}
	}

	return lastErr
}

// retryUnit is the linear backoff step of WithRetry. Tests shorten it.
var retryUnit = time.Second
