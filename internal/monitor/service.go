package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/forvines/metar-monitor/internal/config"
	"github.com/forvines/metar-monitor/internal/fetch"
	"github.com/forvines/metar-monitor/internal/observability"
	"github.com/forvines/metar-monitor/internal/websocket"
	"github.com/forvines/metar-monitor/internal/wx"
	"github.com/forvines/metar-monitor/pkg/logger"
)

// Service manages the periodic report refresh and status interpretation
type Service struct {
	cfg     *config.Config
	fetcher fetch.Fetcher
	cache   *Cache
	modes   *ModeMachine
	ws      *websocket.Server
	metrics *observability.Metrics
	clock   clockwork.Clock
	logger  *logger.Logger

	// Service lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex

	// Per-airport magnetic declination, resolved once at startup
	magvar map[string]float64

	// Initial data readiness
	initialDataReady chan struct{}
	initialDataOnce  sync.Once
}

// NewService creates a new monitor service
func NewService(cfg *config.Config, fetcher fetch.Fetcher, ws *websocket.Server, metrics *observability.Metrics, clock clockwork.Clock, log *logger.Logger) (*Service, error) {
	modes, err := NewModeMachine(cfg.Monitor.ForecastOffsetsHours)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		cfg:              cfg,
		fetcher:          fetcher,
		cache:            NewCache(log),
		modes:            modes,
		ws:               ws,
		metrics:          metrics,
		clock:            clock,
		logger:           log.Named("monitor-service"),
		ctx:              ctx,
		cancel:           cancel,
		magvar:           make(map[string]float64),
		initialDataReady: make(chan struct{}),
	}

	if cfg.Monitor.MagneticCorrection {
		now := clock.Now()
		for _, a := range cfg.Airports {
			if a.Latitude == 0 && a.Longitude == 0 {
				continue
			}
			s.magvar[a.ICAO] = wx.MagneticVariation(a.Latitude, a.Longitude, float64(a.ElevationFeet), now)
		}
	}

	return s, nil
}

// Start begins the monitor service background operations
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil // Already started
	}

	s.logger.Info("Starting monitor service",
		logger.Int("airports", len(s.cfg.Airports)),
		logger.Int("refresh_interval_minutes", s.cfg.Monitor.RefreshIntervalMinutes))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refreshLoop()
	}()

	s.started = true
	return nil
}

// Stop gracefully shuts down the monitor service
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil // Already stopped
	}

	s.logger.Info("Stopping monitor service")

	s.cancel()
	s.wg.Wait()

	s.started = false
	s.logger.Info("Monitor service stopped")
	return nil
}

// WaitReady blocks until the first refresh cycle has completed or the
// context expires
func (s *Service) WaitReady(ctx context.Context) error {
	select {
	case <-s.initialDataReady:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Mode returns the active display mode
func (s *Service) Mode() DisplayMode {
	return s.modes.Mode()
}

// Advance cycles the display mode and pushes the new view to clients.
// This is the external advance trigger (API handler or WebSocket message).
func (s *Service) Advance() DisplayMode {
	mode := s.modes.Advance()
	s.metrics.ModeAdvances.Inc()

	s.logger.Info("Display mode advanced", logger.String("mode", mode.String()))

	if s.ws != nil {
		s.ws.Broadcast(&websocket.Message{
			Type: websocket.MessageTypeModeChanged,
			Data: map[string]any{"mode": mode},
		})
	}
	s.broadcastStatus()
	return mode
}

// HandleMessage implements websocket.MessageHandler so connected dashboards
// can trigger a mode advance
func (s *Service) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	switch messageType {
	case websocket.MessageTypeAdvanceMode:
		s.Advance()
	default:
		s.logger.Debug("Ignoring unknown WebSocket message", logger.String("type", messageType))
	}
	return nil
}

// Records returns the status records for the active display mode, ordered
// by display slot
func (s *Service) Records() []StatusRecord {
	return s.recordsForMode(s.modes.Mode())
}

// Record returns the active-mode status record for one airport
func (s *Service) Record(icao string) (StatusRecord, bool) {
	for _, rec := range s.Records() {
		if rec.ICAO == icao {
			return rec, true
		}
	}
	return StatusRecord{}, false
}

// RefreshNow triggers an immediate refresh of all airports
func (s *Service) RefreshNow() {
	s.logger.Info("Manual refresh triggered")
	go s.refreshAll()
}

// refreshLoop runs the periodic report refresh
func (s *Service) refreshLoop() {
	interval := time.Duration(s.cfg.Monitor.RefreshIntervalMinutes) * time.Minute
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Background refresh started", logger.String("interval", interval.String()))

	s.refreshAll()
	s.initialDataOnce.Do(func() { close(s.initialDataReady) })

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Background refresh stopped")
			return
		case <-ticker.Chan():
			s.refreshAll()
		}
	}
}

// refreshAll fetches and reinterprets reports for every configured airport
func (s *Service) refreshAll() {
	start := s.clock.Now()

	for _, airport := range s.cfg.Airports {
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		s.refreshAirport(airport)
	}

	s.metrics.RefreshCycles.Inc()
	s.metrics.RefreshDuration.Observe(s.clock.Since(start).Seconds())
	s.metrics.StaleAirports.Set(float64(s.cache.StaleCount()))
	if s.ws != nil {
		s.metrics.ConnectedClients.Set(float64(s.ws.ClientCount()))
	}

	s.logger.Info("Refresh cycle completed",
		logger.Int("airports", len(s.cfg.Airports)),
		logger.String("duration", s.clock.Since(start).String()))

	s.broadcastStatus()
}

// refreshAirport fetches and parses both report types for one airport. A
// failure on either side marks that side stale and keeps the previous data;
// other airports are unaffected.
func (s *Service) refreshAirport(airport config.Airport) {
	icao := airport.ICAO
	now := s.clock.Now()

	raw, err := s.fetcher.FetchMETAR(s.ctx, icao)
	if err != nil {
		s.metrics.FetchesTotal.WithLabelValues("metar", "error").Inc()
		retained := s.cache.MarkObservationStale(icao)
		s.logger.Warn("METAR fetch failed, serving stale data",
			logger.String("airport", icao),
			logger.Bool("retained", retained),
			logger.Error(err))
	} else {
		s.metrics.FetchesTotal.WithLabelValues("metar", "success").Inc()
		obs, err := wx.ParseObservation(icao, raw, now)
		if err != nil {
			s.metrics.ParseFailures.WithLabelValues("metar").Inc()
			retained := s.cache.MarkObservationStale(icao)
			s.logger.Warn("METAR parse failed, serving stale data",
				logger.String("airport", icao),
				logger.String("raw", raw),
				logger.Bool("retained", retained),
				logger.Error(err))
		} else {
			s.cache.SetObservation(icao, obs, now)
		}
	}

	raw, err = s.fetcher.FetchTAF(s.ctx, icao)
	if err != nil {
		s.metrics.FetchesTotal.WithLabelValues("taf", "error").Inc()
		retained := s.cache.MarkForecastStale(icao)
		s.logger.Warn("TAF fetch failed, serving stale data",
			logger.String("airport", icao),
			logger.Bool("retained", retained),
			logger.Error(err))
	} else {
		s.metrics.FetchesTotal.WithLabelValues("taf", "success").Inc()
		periods, err := wx.ParseForecast(icao, raw, now)
		if err != nil {
			s.metrics.ParseFailures.WithLabelValues("taf").Inc()
			retained := s.cache.MarkForecastStale(icao)
			s.logger.Warn("TAF parse failed, serving stale data",
				logger.String("airport", icao),
				logger.String("raw", raw),
				logger.Bool("retained", retained),
				logger.Error(err))
		} else {
			s.cache.SetForecast(icao, periods, now)
		}
	}
}

// broadcastStatus pushes the active-mode records to all connected clients
func (s *Service) broadcastStatus() {
	if s.ws == nil {
		return
	}
	mode := s.modes.Mode()
	s.ws.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeStatusUpdate,
		Data: map[string]any{
			"mode":    mode,
			"records": s.recordsForMode(mode),
		},
	})
}

// recordsForMode interprets the cached data under the given display mode
func (s *Service) recordsForMode(mode DisplayMode) []StatusRecord {
	th := s.cfg.Monitor.Thresholds()
	records := make([]StatusRecord, 0, len(s.cfg.Airports))

	for _, airport := range s.cfg.Airports {
		data := s.cache.Get(airport.ICAO)
		if mode.Current {
			records = append(records, s.currentRecord(airport, data, th))
		} else {
			records = append(records, s.forecastRecord(airport, data, mode.OffsetHours, th))
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Slot < records[j].Slot })
	return records
}

func (s *Service) currentRecord(airport config.Airport, data *AirportData, th config.Thresholds) StatusRecord {
	if data == nil || data.Observation == nil {
		return MissingStatus(airport, false, 0, data != nil && data.ObservationStale)
	}
	rec := BuildStatus(airport, *data.Observation, th, s.crosswindOpts(airport))
	rec.Stale = data.ObservationStale
	return rec
}

func (s *Service) forecastRecord(airport config.Airport, data *AirportData, offsetHours int, th config.Thresholds) StatusRecord {
	if data == nil || len(data.Periods) == 0 {
		return MissingStatus(airport, true, offsetHours, data != nil && data.ForecastStale)
	}

	target := s.clock.Now().Add(time.Duration(offsetHours) * time.Hour)
	rc, err := wx.Resolve(data.Periods, target, wx.ResolverOptions{OverlayTieBreak: s.tieBreak()})
	if err != nil {
		s.logger.Debug("No forecast coverage",
			logger.String("airport", airport.ICAO),
			logger.Time("target", target),
			logger.Error(err))
		return MissingStatus(airport, true, offsetHours, data.ForecastStale)
	}

	rec := BuildForecastStatus(airport, rc, offsetHours, th, s.crosswindOpts(airport))
	rec.Stale = data.ForecastStale
	return rec
}

func (s *Service) crosswindOpts(airport config.Airport) wx.CrosswindOptions {
	return wx.CrosswindOptions{
		PrimaryRunway:        airport.PrimaryRunway,
		MagneticVariationDeg: s.magvar[airport.ICAO],
	}
}

func (s *Service) tieBreak() wx.OverlayTieBreak {
	if s.cfg.Monitor.OverlayTieBreak == "first_declared" {
		return wx.TieBreakFirstDeclared
	}
	return wx.TieBreakLastDeclared
}
