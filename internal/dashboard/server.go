// Package dashboard assembles the data-orchestration core into the HTTP
// service browser clients talk to. It owns the shared time window, one
// coordinator-backed binding per panel and the refresh scheduler, and it
// serves panel snapshots plus a live event stream.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/matthianna/honeypot-dashboard-sub003/pkg/analytics"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/config"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/metrics"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/panel"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/refresh"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/threatintel"
	"github.com/matthianna/honeypot-dashboard-sub003/pkg/timewindow"
)

const shutdownTimeout = 10 * time.Second

// Notifier hears about panels crossing into or out of the degraded state.
// pkg/notify implements it against DataDog.
type Notifier interface {
	PanelSettled(id string, failed bool, message string)
}

type Server struct {
	logger   *zap.Logger
	cfg      *config.Config
	echo     *echo.Echo
	store    *timewindow.Store
	sched    *refresh.Scheduler
	hub      *hub
	metrics  *metrics.Metrics
	notifier Notifier

	panelList []panel.Panel
	panelByID map[string]panel.Panel
}

// New wires the whole dashboard: panels, scheduler, stream hub and routes.
// feed and notifier may be nil when their sections are disabled. Every
// panel issues its first fetch during construction.
func New(logger *zap.Logger, cfg *config.Config, client *analytics.Client, feed *threatintel.Feed, notifier Notifier, m *metrics.Metrics) (*Server, error) {
	initial, err := timewindow.FromPreset(timewindow.Preset(cfg.Window.Default))
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:    logger,
		cfg:       cfg,
		store:     timewindow.NewStore(initial),
		sched:     refresh.New(logger, clock.New(), cfg.Refresh.Interval),
		hub:       newHub(logger),
		metrics:   m,
		notifier:  notifier,
		panelByID: make(map[string]panel.Panel),
	}
	s.buildPanels(client, feed)
	m.RegisterTicks(s.sched.Ticks)
	m.RegisterStreamClients(s.hub.clients)
	m.RegisterDroppedEvents(s.hub.droppedEvents)
	m.SetActivePanels(len(s.panelList))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(s.logRequests)

	e.GET("/healthz", s.HealthCheck)
	e.GET("/api/version", s.GetVersion)
	e.GET("/api/window", s.GetWindow)
	e.PUT("/api/window", s.PutWindow)
	e.GET("/api/panels", s.GetPanels)
	e.GET("/api/panels/:id", s.GetPanelByID)
	e.PUT("/api/panels/:id/filters", s.PutPanelFilters)
	e.POST("/api/panels/:id/refresh", s.PostPanelRefresh)
	e.GET("/api/stream", s.StreamEvents)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	s.echo = e

	return s, nil
}

// Run starts the refresh scheduler, the window fan-out and the HTTP
// listener, then blocks until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.sched.Run(runCtx)
	go s.watchWindow(runCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.cfg.Server.Addr)
	}()
	s.logger.Info("dashboard listening", zap.String("addr", s.cfg.Server.Addr))

	select {
	case <-ctx.Done():
		return s.Close()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close tears every panel down and stops the HTTP listener. Fetches still
// in flight settle as discards.
func (s *Server) Close() error {
	for _, p := range s.panelList {
		p.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// watchWindow applies every window replacement to all panels. Bindings
// recompute their parameters from the store, so one replacement turns into
// at most one new fetch per panel.
func (s *Server) watchWindow(ctx context.Context) {
	updates := s.store.Subscribe()
	defer s.store.Unsubscribe(updates)
	for {
		select {
		case <-ctx.Done():
			return
		case w, ok := <-updates:
			if !ok {
				return
			}
			s.logger.Info("window replaced", zap.String("window", w.String()))
			s.metrics.WindowChanged()
			for _, p := range s.panelList {
				p.Update()
			}
		}
	}
}

// panelChanged is every binding's OnChange hook. Applied transitions reach
// the stream hub; the notifier hears about settled outcomes. Superseded
// fetches never land here. Loading snapshots carry no verdict, so they
// leave the notifier alone.
func (s *Server) panelChanged(id string, snap panel.Snapshot) {
	s.hub.publish(Event{Panel: id, Snapshot: snap})
	if s.notifier == nil {
		return
	}
	switch {
	case snap.Error != nil:
		go s.notifier.PanelSettled(id, true, snap.Error.Message)
	case !snap.Loading && snap.Data != nil:
		go s.notifier.PanelSettled(id, false, "")
	}
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)
		req := ctx.Request()
		s.logger.Debug("http request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", ctx.Response().Status),
			zap.Duration("elapsed", time.Since(start)))
		return err
	}
}
