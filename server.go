package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"devfestsched/broadcaster"
	"devfestsched/config"
	"devfestsched/model"
	"devfestsched/provider"
	"devfestsched/schedule"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve schedules over HTTP and push updates over websocket",
	Long: `Starts an HTTP server that keeps every configured schedule fresh.

  GET  /events                      configured events
  GET  /schedule/{event}            schedule as JSON (503 until data is available)
  GET  /schedule/{event}/text       schedule as plain text
  GET  /schedule/{event}/ics        schedule as iCalendar
  POST /schedule/{event}/refresh    refetch now and push to websocket clients
  GET  /ws                          websocket: current schedules, then every update`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	reg, err := newRegistry(cfg, logger)
	if err != nil {
		return err
	}
	hub := broadcaster.NewBroadcaster(logger)

	opts := []provider.LoaderOption{provider.WithPublisher(hub)}
	if cfg.Archive.Path != "" {
		store, err := openArchive(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, provider.WithArchiver(store))
	}
	loader := provider.NewLoader(reg, cfg.Server.GetRefreshInterval(), logger, opts...)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newScheduleServer(cfg, reg, loader, hub, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loader.Start()
	defer loader.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting schedule server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-cmd.Context().Done():
	}

	logger.Info("shutting down schedule server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

type scheduleServer struct {
	cfg    *config.Config
	reg    *provider.Registry
	loader *provider.Loader
	hub    *broadcaster.Broadcaster
	log    *zap.Logger
	now    func() time.Time
}

func newScheduleServer(c *config.Config, reg *provider.Registry, loader *provider.Loader, hub *broadcaster.Broadcaster, log *zap.Logger) *scheduleServer {
	return &scheduleServer{cfg: c, reg: reg, loader: loader, hub: hub, log: log, now: time.Now}
}

func (s *scheduleServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /schedule/{event}", s.handleSchedule)
	mux.HandleFunc("GET /schedule/{event}/text", s.handleScheduleText)
	mux.HandleFunc("GET /schedule/{event}/ics", s.handleScheduleICS)
	mux.HandleFunc("POST /schedule/{event}/refresh", s.handleRefresh)
	mux.HandleFunc("GET /ws", s.handleBrowserConnections)
	return mux
}

func (s *scheduleServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := make([]model.EventInfo, 0)
	for _, p := range s.reg.Providers() {
		events = append(events, p.Info())
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *scheduleServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	u := p.Update(r.Context())
	if u.Sessions == 0 {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"message": fmt.Sprintf("Schedule for %s not yet available or failed to load.", p.Name()),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, u)
}

func (s *scheduleServer) handleScheduleText(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	fmt.Fprintln(w, p.Text(r.Context()))
}

func (s *scheduleServer) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	c := p.Raw(r.Context())
	if c.IsEmpty() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": schedule.Unavailable(p.Name())})
		return
	}
	cal, err := schedule.ToICS(c, calendarInfo(s.cfg, p, s.now()))
	if err != nil {
		s.log.Error("error rendering calendar", zap.String("event", p.Location()), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="devfest_%s.ics"`, p.Location()))
	fmt.Fprint(w, cal)
}

func (s *scheduleServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	// a client hanging up must not abandon a refresh every subscriber shares
	s.writeJSON(w, http.StatusOK, s.loader.Refresh(context.WithoutCancel(r.Context()), p))
}

// handleBrowserConnections sends every current schedule, then keeps the
// client subscribed to updates.
func (s *scheduleServer) handleBrowserConnections(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleConnections(w, r, func() [][]byte {
		var initial [][]byte
		for _, p := range s.reg.Providers() {
			msg, err := broadcaster.Encode(p.Update(r.Context()))
			if err != nil {
				s.log.Error("error encoding initial schedule", zap.String("event", p.Location()), zap.Error(err))
				continue
			}
			initial = append(initial, msg)
		}
		return initial
	})
}

func (s *scheduleServer) provider(w http.ResponseWriter, r *http.Request) (*provider.Provider, bool) {
	p, err := s.reg.Get(r.PathValue("event"))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
		return nil, false
	}
	return p, true
}

func (s *scheduleServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("error encoding JSON response", zap.Error(err))
	}
}
