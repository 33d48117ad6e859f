package monitor

import (
	"sync"
	"time"

	"github.com/forvines/metar-monitor/internal/wx"
	"github.com/forvines/metar-monitor/pkg/logger"
)

// AirportData is the last interpreted state for one airport. On a fetch or
// parse failure the previous data is retained and the affected report type is
// marked stale instead of being dropped.
type AirportData struct {
	Observation      *wx.Observation
	Periods          []wx.ForecastPeriod
	ObservationStale bool
	ForecastStale    bool
	LastUpdated      time.Time
}

// Cache holds per-airport interpreted report data with thread-safe access
type Cache struct {
	mu     sync.RWMutex
	data   map[string]*AirportData
	logger *logger.Logger
}

// NewCache creates an empty airport data cache
func NewCache(log *logger.Logger) *Cache {
	return &Cache{
		data:   make(map[string]*AirportData),
		logger: log.Named("status-cache"),
	}
}

// SetObservation stores a freshly parsed observation and clears staleness
func (c *Cache) SetObservation(icao string, obs wx.Observation, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.entry(icao)
	d.Observation = &obs
	d.ObservationStale = false
	d.LastUpdated = now

	c.logger.Debug("Observation cached",
		logger.String("airport", icao),
		logger.Time("issued_at", obs.IssuedAt))
}

// SetForecast stores freshly parsed forecast periods and clears staleness
func (c *Cache) SetForecast(icao string, periods []wx.ForecastPeriod, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.entry(icao)
	d.Periods = periods
	d.ForecastStale = false
	d.LastUpdated = now

	c.logger.Debug("Forecast cached",
		logger.String("airport", icao),
		logger.Int("periods", len(periods)))
}

// MarkObservationStale flags the airport's observation as stale while
// retaining the previous data. Returns true if retained data exists.
func (c *Cache) MarkObservationStale(icao string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.entry(icao)
	d.ObservationStale = true
	return d.Observation != nil
}

// MarkForecastStale flags the airport's forecast as stale while retaining
// the previous periods. Returns true if retained data exists.
func (c *Cache) MarkForecastStale(icao string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.entry(icao)
	d.ForecastStale = true
	return len(d.Periods) > 0
}

// Get returns a copy of the airport's cached data, or nil if nothing has
// been stored yet
func (c *Cache) Get(icao string) *AirportData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.data[icao]
	if !ok {
		return nil
	}
	cp := *d
	if d.Observation != nil {
		obs := *d.Observation
		cp.Observation = &obs
	}
	if d.Periods != nil {
		cp.Periods = make([]wx.ForecastPeriod, len(d.Periods))
		copy(cp.Periods, d.Periods)
	}
	return &cp
}

// StaleCount returns how many airports currently serve stale data of either
// report type
func (c *Cache) StaleCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, d := range c.data {
		if d.ObservationStale || d.ForecastStale {
			count++
		}
	}
	return count
}

// entry returns the airport's slot, creating it if needed. Callers hold the
// write lock.
func (c *Cache) entry(icao string) *AirportData {
	d, ok := c.data[icao]
	if !ok {
		d = &AirportData{}
		c.data[icao] = d
	}
	return d
}
