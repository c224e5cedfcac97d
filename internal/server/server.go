package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/vibecheck/internal/model"
	"github.com/ppiankov/vibecheck/internal/score"
)

const shutdownTimeout = 10 * time.Second

// Views is the document source the server reads from
type Views interface {
	Raw(ctx context.Context, view model.View) ([]byte, error)
	Generate(ctx context.Context, views []model.View, force bool) error
	CarrierCHI(ctx context.Context, carrierID string) (model.CHIResult, error)
}

// Server exposes the cached views to the dashboard
type Server struct {
	views    Views
	carriers []model.Carrier
	config   model.ServerConfig
	log      logrus.FieldLogger
}

// New creates a server for views
func New(cfg model.ServerConfig, carriers []model.Carrier, views Views, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if len(carriers) == 0 {
		carriers = model.DefaultCarriers()
	}
	return &Server{
		views:    views,
		carriers: carriers,
		config:   cfg,
		log:      log,
	}
}

// Handler returns the routed handler with logging, recovery and CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, view := range model.AllViews() {
		mux.HandleFunc("GET /api/vibecheck/"+string(view), s.handleView(view))
	}
	mux.HandleFunc("GET /api/vibecheck/chi", s.handleCHI)
	mux.HandleFunc("POST /api/vibecheck/refresh", s.handleRefresh)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return s.logRequests(s.recoverPanics(s.cors(mux)))
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.config.Addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) handleView(view model.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.generateContext(r.Context())
		defer cancel()

		blob, err := s.views.Raw(ctx, view)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(blob)
	}
}

type chiResponse struct {
	Carrier string `json:"carrier"`
	model.CHIResult
	Breakdown model.CHIBreakdown `json:"breakdown"`
}

func (s *Server) handleCHI(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("carrier"))
	if id == "" {
		id = s.carriers[0].ID
	}
	carrier, ok := s.carrier(id)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown carrier %q", id)})
		return
	}

	ctx, cancel := s.generateContext(r.Context())
	defer cancel()

	chi, err := s.views.CarrierCHI(ctx, carrier.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	chi.Score = score.Round1(chi.Score)
	writeJSON(w, http.StatusOK, chiResponse{
		Carrier:   carrier.Display,
		CHIResult: chi,
		Breakdown: chi.Breakdown,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	views := model.AllViews()
	if names := r.URL.Query()["view"]; len(names) > 0 {
		views = nil
		for _, name := range names {
			view, err := model.ParseView(name)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			views = append(views, view)
		}
	}

	ctx, cancel := s.generateContext(r.Context())
	defer cancel()

	start := time.Now()
	if err := s.views.Generate(ctx, views, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"refreshed":   views,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) generateContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.config.GenerateTimeout > 0 {
		return context.WithTimeout(parent, s.config.GenerateTimeout)
	}
	return context.WithCancel(parent)
}

func (s *Server) carrier(id string) (model.Carrier, bool) {
	for _, c := range s.carriers {
		if strings.EqualFold(c.ID, id) {
			return c, true
		}
	}
	return model.Carrier{}, false
}
