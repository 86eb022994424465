// Package api provides the HTTP API for observing a running model.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/landform/internal/engine"
	"github.com/talgya/landform/internal/export"
	"github.com/talgya/landform/internal/grid"
	"github.com/talgya/landform/internal/persistence"
)

// Server serves the model state over HTTP.
type Server struct {
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; history is unavailable without it
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
	RunID    string
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	exportLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/river", s.handleRiver)
	mux.HandleFunc("/api/v1/grid", s.handleGrid)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)
	mux.HandleFunc("/api/v1/export", RateLimitMiddleware(exportLimiter, s.handleExport))

	// GET reads, POST (admin) replaces.
	mux.HandleFunc("/api/v1/params", s.adminOnly(s.handleParams))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server can
// be shut down by the caller.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no LANDSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"name":    "landform",
		"run_id":  s.RunID,
		"running": s.Eng.Running(),
	}
	s.Eng.WithModel(func(m *engine.Model) {
		status["step"] = m.Steps()
		status["seed"] = m.Seed()
		status["preset"] = m.Preset().String()
		status["diffusion"] = m.Diffusion()
		status["width"] = m.Grid().Width
		status["height"] = m.Grid().Height
		status["params"] = m.Params
	})
	writeJSON(w, status)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Eng.Snapshot())
}

func (s *Server) handleRiver(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Eng.River())
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("layer")
	if name == "" {
		name = "h"
	}

	var (
		values        []float64
		width, height int
		step          int
		err           error
	)
	s.Eng.WithModel(func(m *engine.Model) {
		values, err = m.Grid().Layer(name)
		width, height = m.Grid().Width, m.Grid().Height
		step = m.Steps()
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("%v (layers: %s)", err, strings.Join(grid.LayerNames, ", ")), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{
		"layer":  name,
		"step":   step,
		"width":  width,
		"height": height,
		"values": values,
	})
}

// historyRow is a persisted step with undefined exponents as null.
type historyRow struct {
	persistence.StepRecord
	HackSlope *float64 `json:"hack_slope"`
	Concavity *float64 `json:"concavity"`
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	recs, err := s.DB.RecentSteps(limit)
	if err != nil {
		slog.Error("stats history query failed", "error", err)
		writeJSON(w, []historyRow{})
		return
	}

	rows := make([]historyRow, 0, len(recs))
	for _, rec := range recs {
		row := historyRow{StepRecord: rec}
		if rec.HackSlope.Valid {
			row.HackSlope = &rec.HackSlope.Float64
		}
		if rec.Concavity.Valid {
			row.Concavity = &rec.Concavity.Float64
		}
		rows = append(rows, row)
	}
	writeJSON(w, rows)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var snapshot *grid.Grid
	var step int
	s.Eng.WithModel(func(m *engine.Model) {
		snapshot = m.Grid().Clone()
		step = m.Steps()
	})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="terrain_step%d.asc"`, step))
	if err := export.WriteASCII(w, snapshot); err != nil {
		slog.Error("grid export failed", "step", step, "error", err)
	}
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.Eng.Params())
	case http.MethodPost:
		// Fields absent from the body keep their current values.
		p := s.Eng.Params()
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		for name, v := range map[string]float64{
			"rain": p.Rain, "erode_k": p.Erode, "deposit_d": p.Deposit,
			"threshold_t": p.Threshold, "uplift_u": p.Uplift,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				http.Error(w, name+" must be finite", http.StatusBadRequest)
				return
			}
		}
		s.Eng.SetParams(p)
		slog.Info("parameters updated", "rain", p.Rain, "erode_k", p.Erode,
			"deposit_d", p.Deposit, "threshold_t", p.Threshold, "uplift_u", p.Uplift)
		writeJSON(w, p)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Seed int64 `json:"seed"` // 0 keeps the current seed
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}

	var seed int64
	s.Eng.WithModel(func(m *engine.Model) {
		m.Reset(req.Seed)
		seed = m.Seed()
	})
	slog.Info("model reset", "seed", seed)
	writeJSON(w, map[string]any{
		"step": 0,
		"seed": seed,
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}
