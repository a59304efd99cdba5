package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/go-chi/chi/v5"

	"github.com/unklstewy/nightsky/internal/auth"
	"github.com/unklstewy/nightsky/internal/db"
	"github.com/unklstewy/nightsky/internal/metrics"
	"github.com/unklstewy/nightsky/pkg/coordinates"
	"github.com/unklstewy/nightsky/pkg/events"
	"github.com/unklstewy/nightsky/pkg/meteors"
)

// snapshotListLimit bounds GET /sites/{id}/snapshots.
const snapshotListLimit = 60

// parseDate reads a YYYY-MM-DD query parameter. Empty means today (UTC).
func parseDate(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return time.Now().UTC(), nil
	}
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return d, nil
}

func parseCoordinate(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return f, nil
}

func parseID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid site id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// computeEvents runs the aggregator under the configured request timeout
// and maps its errors onto HTTP statuses.
func (s *Server) computeEvents(ctx context.Context, observer coordinates.Observer, date time.Time) (*events.Result, int, error) {
	if timeout := s.cfg.Server.RequestTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.events.EventsAt(ctx, observer, date)
	switch {
	case err == nil:
		metrics.ObserveEvents(res, time.Since(start))
		return res, http.StatusOK, nil
	case errors.Is(err, coordinates.ErrInvalidObserver):
		return nil, http.StatusBadRequest, err
	case errors.Is(err, context.DeadlineExceeded):
		return nil, http.StatusGatewayTimeout, errors.New("event computation timed out")
	default:
		ctxlog.Logger(ctx).Error("event computation failed", "error", err)
		return nil, http.StatusInternalServerError, errors.New("event computation failed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetEvents answers GET /api/v1/events?lat=&lon=&date=.
func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	lat, err := parseCoordinate(r, "lat")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := parseCoordinate(r, "lon")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, status, err := s.computeEvents(r.Context(), coordinates.NewObserver(lat, lon), date)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleGetShowers answers GET /api/v1/showers?date=.
func (s *Server) handleGetShowers(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Date    string                 `json:"date"`
		Showers []meteors.ActiveShower `json:"showers"`
	}{
		Date:    date.Format(time.DateOnly),
		Showers: s.events.Showers().Active(date),
	})
}

// handleLogin exchanges a username and password for a token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, db.ErrUserNotFound) {
			ctxlog.Logger(r.Context()).Error("user lookup failed", "error", err)
		}
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := s.authSvc.ComparePassword(user.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.IsActive {
		respondError(w, http.StatusForbidden, "account is disabled")
		return
	}

	token, err := s.authSvc.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		ctxlog.Logger(r.Context()).Error("token generation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	if err := s.store.users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		ctxlog.Logger(r.Context()).Warn("failed to record login", "error", err)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	user, err := s.store.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		ctxlog.Logger(r.Context()).Error("user lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Observation site handlers

type siteRequest struct {
	Name            string  `json:"name"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	ElevationMeters float64 `json:"elevationMeters"`
	Timezone        string  `json:"timezone"`
}

func (req siteRequest) site(id, userID int) *db.ObservationSite {
	return &db.ObservationSite{
		ID:              id,
		UserID:          userID,
		Name:            req.Name,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		ElevationMeters: req.ElevationMeters,
		Timezone:        req.Timezone,
	}
}

// siteError maps repository errors onto HTTP statuses.
func siteError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		respondError(w, http.StatusNotFound, "site not found")
	case errors.Is(err, db.ErrExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, coordinates.ErrInvalidObserver):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		ctxlog.Logger(r.Context()).Error("site operation failed", "op", op, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to "+op+" site")
	}
}

// canManageSites rejects read-only roles.
func canManageSites(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if !auth.CanManageSites(claims.Role) {
		respondError(w, http.StatusForbidden, auth.ErrUnauthorized.Error())
		return nil, false
	}
	return claims, true
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	sites, err := s.store.sites.List(r.Context(), claims.UserID)
	if err != nil {
		siteError(w, r, "list", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"sites": sites,
		"count": len(sites),
	})
}

func (s *Server) handleGetActiveSite(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	site, err := s.store.sites.Active(r.Context(), claims.UserID)
	if err != nil {
		siteError(w, r, "get active", err)
		return
	}
	respondJSON(w, http.StatusOK, site)
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	claims, ok := canManageSites(w, r)
	if !ok {
		return
	}
	var req siteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	site := req.site(0, claims.UserID)
	if err := site.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.sites.Create(r.Context(), site); err != nil {
		siteError(w, r, "create", err)
		return
	}
	respondJSON(w, http.StatusCreated, site)
}

func (s *Server) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	claims, ok := canManageSites(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req siteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	site := req.site(id, claims.UserID)
	if err := site.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.sites.Update(r.Context(), site); err != nil {
		siteError(w, r, "update", err)
		return
	}
	respondJSON(w, http.StatusOK, site)
}

func (s *Server) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	claims, ok := canManageSites(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.sites.Delete(r.Context(), id, claims.UserID); err != nil {
		siteError(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateSite(w http.ResponseWriter, r *http.Request) {
	claims, ok := canManageSites(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.sites.Activate(r.Context(), id, claims.UserID); err != nil {
		siteError(w, r, "activate", err)
		return
	}
	site, err := s.store.sites.Get(r.Context(), id, claims.UserID)
	if err != nil {
		siteError(w, r, "get", err)
		return
	}
	respondJSON(w, http.StatusOK, site)
}

// handleGetSiteEvents computes the events of a saved site and stores them
// as a snapshot.
func (s *Server) handleGetSiteEvents(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	site, err := s.store.sites.Get(r.Context(), id, claims.UserID)
	if err != nil {
		siteError(w, r, "get", err)
		return
	}

	res, status, err := s.computeEvents(r.Context(), site.Observer(), date)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}

	resp := struct {
		Site       *db.ObservationSite `json:"site"`
		Events     *events.Result      `json:"events"`
		SnapshotID int64               `json:"snapshot_id,omitempty"`
	}{Site: site, Events: res}

	if s.store.snapshots != nil {
		snap, err := s.store.snapshots.Save(r.Context(), site.ID, res)
		metrics.ObserveSnapshot(err)
		if err != nil {
			ctxlog.Logger(r.Context()).Warn("failed to save snapshot", "site_id", site.ID, "error", err)
		} else {
			resp.SnapshotID = snap.ID
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	id, err := parseID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.store.sites.Get(r.Context(), id, claims.UserID); err != nil {
		siteError(w, r, "get", err)
		return
	}
	if s.store.snapshots == nil {
		respondJSON(w, http.StatusOK, map[string]any{"snapshots": []db.Snapshot{}, "count": 0})
		return
	}
	snaps, err := s.store.snapshots.ListForSite(r.Context(), id, snapshotListLimit)
	if err != nil {
		ctxlog.Logger(r.Context()).Error("snapshot listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"snapshots": snaps,
		"count":     len(snaps),
	})
}

func (s *Server) handleGetSystemStatus(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if !auth.CanViewStatus(claims.Role) {
		respondError(w, http.StatusForbidden, auth.ErrUnauthorized.Error())
		return
	}

	status := map[string]any{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if cache := s.events.Cache(); cache != nil {
		status["cache"] = cache.Stats()
	}
	if s.limiter != nil {
		status["rate_limit_per_second"] = s.cfg.Server.RateLimitPerSecond
	}
	if s.store.stats != nil {
		stats, err := s.store.stats.GetStats(r.Context())
		if err != nil {
			ctxlog.Logger(r.Context()).Warn("database stats failed", "error", err)
			status["database"] = "unavailable"
		} else {
			status["database"] = stats
		}
	}
	respondJSON(w, http.StatusOK, status)
}
