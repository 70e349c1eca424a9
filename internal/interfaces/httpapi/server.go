package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"warrantfeed/internal/application/usecase/poller"
)

// Hub is the push-channel side the server exposes.
type Hub interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	Len() int
}

type Server struct {
	srv     *http.Server
	hub     Hub
	status  func() poller.Snapshot
	started time.Time
}

func NewServer(addr string, hub Hub, status func() poller.Snapshot) *Server {
	s := &Server{hub: hub, status: status, started: time.Now()}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	mux.HandleFunc("GET /socket", s.hub.ServeWS)
	mux.HandleFunc("GET /healthz", s.healthz)
	return cors(mux)
}

type health struct {
	Status    string          `json:"status"`
	UptimeSec int64           `json:"uptime_sec"`
	Clients   int             `json:"clients"`
	Poll      poller.Snapshot `json:"poll"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	h := health{
		Status:    "ok",
		UptimeSec: int64(time.Since(s.started).Seconds()),
		Clients:   s.hub.Len(),
	}
	if s.status != nil {
		h.Poll = s.status()
		if h.Poll.LastError != "" {
			h.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h); err != nil {
		log.Debug().Err(err).Msg("write healthz failed")
	}
}

// cors allows every origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe blocks until Shutdown.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
