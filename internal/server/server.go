package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sentinel/internal/config"
	"sentinel/internal/handlers"
	"sentinel/internal/logger"
	"sentinel/internal/middleware"
	"sentinel/internal/models"
	"sentinel/internal/notify"
	"sentinel/internal/service"
	"sentinel/internal/store"
	"sentinel/internal/thresholds"
)

// Server is the high-level coordinator: it wires the registry, store,
// dispatcher, and service, and serves the HTTP facade.
type Server struct {
	cfg        *config.Config
	svc        *service.Service
	dispatcher *notify.Dispatcher
	stream     *notify.StreamNotifier
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New constructs a Server from configuration
func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	registry := thresholds.New()
	if len(cfg.Thresholds) > 0 {
		if _, err := registry.Update(cfg.Thresholds); err != nil {
			return nil, fmt.Errorf("applying threshold overrides: %w", err)
		}
	}

	dispatcher, stream, err := buildDispatcher(cfg)
	if err != nil {
		return nil, err
	}
	s.dispatcher = dispatcher
	s.stream = stream

	s.svc = service.New(registry, store.New(cfg.Retention), dispatcher)
	s.initHTTPServer()
	return s, nil
}

// buildDispatcher registers every enabled channel from config
func buildDispatcher(cfg *config.Config) (*notify.Dispatcher, *notify.StreamNotifier, error) {
	log := logger.WithComponent("server")
	d := notify.NewDispatcher(notify.WithSendTimeout(cfg.DispatchTimeout.Std()))

	if cfg.Channels.Email.Enabled {
		n, err := notify.NewEmailNotifier(cfg.Channels.Email.EmailConfig)
		if err != nil {
			return nil, nil, err
		}
		d.Register(n, config.MinSeverityOf(cfg.Channels.Email.ChannelPolicy))
	}
	if cfg.Channels.Chat.Enabled {
		n, err := notify.NewChatNotifier(cfg.Channels.Chat.ChatConfig)
		if err != nil {
			return nil, nil, err
		}
		d.Register(n, config.MinSeverityOf(cfg.Channels.Chat.ChannelPolicy))
	}
	if cfg.Channels.Webhook.Enabled {
		n, err := notify.NewWebhookNotifier(cfg.Channels.Webhook.WebhookConfig)
		if err != nil {
			return nil, nil, err
		}
		d.Register(n, config.MinSeverityOf(cfg.Channels.Webhook.ChannelPolicy))
	}

	var stream *notify.StreamNotifier
	if cfg.Channels.Stream.Enabled {
		n, err := notify.NewStreamNotifier(cfg.Channels.Stream.StreamConfig)
		if err != nil {
			return nil, nil, err
		}
		d.Register(n, config.MinSeverityOf(cfg.Channels.Stream.ChannelPolicy))
		stream = n
	}

	log.Info().Strs("channels", d.Channels()).Msg("notification channels registered")
	return d, stream, nil
}

// initHTTPServer mounts the alert facade, health, and metrics endpoints
func (s *Server) initHTTPServer() {
	mux := http.NewServeMux()

	alertHandler := handlers.NewAlertHandler(s.svc)
	alertHandler.Register(mux)

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr: s.cfg.ListenAddr,
		Handler: middleware.Chain(mux,
			middleware.Recovery,
			middleware.Logging,
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Run serves until the context is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	log := logger.WithComponent("server")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info().Str("addr", s.cfg.ListenAddr).Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.reportStats(ctx)
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
	return s.shutdown()
}

// shutdown stops the HTTP server, waits for in-flight dispatches, and
// closes the stream channel.
func (s *Server) shutdown() error {
	log := logger.WithComponent("server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("stopping HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	done := make(chan struct{})
	go func() {
		s.svc.Close()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Msg("in-flight dispatches completed")
	case <-time.After(15 * time.Second):
		log.Warn().Msg("dispatch drain timeout")
	}

	if s.stream != nil {
		log.Info().Msg("closing stream notifier")
		if err := s.stream.Close(); err != nil {
			log.Error().Err(err).Msg("stream notifier close error")
		}
	}

	s.wg.Wait()
	log.Info().Msg("server stopped gracefully")
	return nil
}

// reportStats periodically logs alert statistics
func (s *Server) reportStats(ctx context.Context) {
	log := logger.WithComponent("server")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := s.svc.Stats()
			log.Info().
				Int("total_fired", st.TotalFired).
				Int("total_current", st.TotalCurrent).
				Int("critical", st.BySeverity[models.SeverityCritical]).
				Msg("alert stats")
		}
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
}
