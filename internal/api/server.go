// Package api serves the HTTP control surface for IR lights together with
// health, readiness and Prometheus endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/ledger"
	"github.com/dokzlo13/irlightd/internal/light"
)

const defaultHistoryLimit = 50

// History is the part of the ledger the API reads.
type History interface {
	GetByLight(lightID string, limit int) ([]*ledger.Entry, error)
}

// Server is the HTTP API server.
type Server struct {
	addr       string
	registry   *light.Registry
	history    History
	httpServer *http.Server
}

// NewServer creates a new API server. history may be nil.
func NewServer(addr string, registry *light.Registry, history History) *Server {
	return &Server{
		addr:     addr,
		registry: registry,
		history:  history,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /lights", s.handleList)
	mux.HandleFunc("GET /lights/{id}", s.handleGet)
	mux.HandleFunc("GET /lights/{id}/history", s.handleHistory)
	mux.HandleFunc("POST /lights/{id}/turn_on", s.handleTurnOn)
	mux.HandleFunc("POST /lights/{id}/turn_off", s.handleTurnOff)

	return mux
}

// Run starts the server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	log.Info().Str("addr", s.addr).Msg("Starting API server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("API server shutdown error")
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// turnOnRequest is the body of POST /lights/{id}/turn_on. hs_color and
// hex_color are mutually exclusive.
type turnOnRequest struct {
	Brightness *int      `json:"brightness"`
	HSColor    []float64 `json:"hs_color"`
	HexColor   string    `json:"hex_color"`
	Effect     *string   `json:"effect"`
}

var errColorConflict = errors.New("hs_color and hex_color are mutually exclusive")

func (req turnOnRequest) intent() (light.Intent, error) {
	intent := light.Intent{Brightness: req.Brightness, Effect: req.Effect}

	switch {
	case req.HSColor != nil && req.HexColor != "":
		return intent, errColorConflict
	case req.HSColor != nil:
		if len(req.HSColor) != 2 {
			return intent, fmt.Errorf("hs_color needs 2 values, got %d", len(req.HSColor))
		}
		intent.Color = &light.HS{Hue: req.HSColor[0], Sat: req.HSColor[1]}
	case req.HexColor != "":
		c, err := colorful.Hex(req.HexColor)
		if err != nil {
			return intent, fmt.Errorf("invalid hex_color: %w", err)
		}
		h, sat, _ := c.Hsv()
		intent.Color = &light.HS{Hue: h, Sat: sat * 100}
	}

	if err := light.ValidateIntent(intent); err != nil {
		return intent, err
	}
	return intent, nil
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*light.Machine, bool) {
	id := r.PathValue("id")
	m, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown light %q", id))
		return nil, false
	}
	return m, true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	machines := s.registry.All()
	lights := make([]light.Snapshot, 0, len(machines))
	for _, m := range machines {
		lights = append(lights, m.Snapshot())
	}
	writeJSON(w, http.StatusOK, lights)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleTurnOn(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req turnOnRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	intent, err := req.intent()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	log.Debug().Str("light", m.ID()).Str("remote", r.RemoteAddr).Msg("API turn_on")
	m.Apply(r.Context(), intent)
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleTurnOff(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}

	log.Debug().Str("light", m.ID()).Str("remote", r.RemoteAddr).Msg("API turn_off")
	m.ApplyOff(r.Context())
	writeJSON(w, http.StatusOK, m.Snapshot())
}

type historyEntry struct {
	Type      ledger.EventType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	ApplyID   string           `json:"apply_id,omitempty"`
	Payload   map[string]any   `json:"payload,omitempty"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if s.history == nil {
		writeError(w, http.StatusNotFound, errors.New("history is not recorded"))
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	entries, err := s.history.GetByLight(m.ID(), limit)
	if err != nil {
		log.Error().Err(err).Str("light", m.ID()).Msg("Failed to read ledger")
		writeError(w, http.StatusInternalServerError, errors.New("failed to read history"))
		return
	}

	out := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntry{
			Type:      e.EventType,
			Timestamp: e.Timestamp,
			ApplyID:   e.ApplyID,
			Payload:   e.Payload,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
