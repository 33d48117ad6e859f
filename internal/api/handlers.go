package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forvines/metar-monitor/internal/config"
	"github.com/forvines/metar-monitor/internal/monitor"
	"github.com/forvines/metar-monitor/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	service *monitor.Service
	config  *config.Config
	logger  *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(service *monitor.Service, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		config:  cfg,
		logger:  log.Named("api-handler"),
	}
}

// GetStatus returns the status records of all airports under the active
// display mode
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	records := h.service.Records()
	h.writeJSON(w, map[string]any{
		"mode":    h.service.Mode(),
		"records": records,
	})
}

// GetAirportStatus returns the active-mode status record for one airport
func (h *Handler) GetAirportStatus(w http.ResponseWriter, r *http.Request) {
	icao := strings.ToUpper(chi.URLParam(r, "icao"))
	if icao == "" {
		http.Error(w, "Missing airport ICAO", http.StatusBadRequest)
		return
	}

	record, ok := h.service.Record(icao)
	if !ok {
		http.Error(w, "Airport not monitored", http.StatusNotFound)
		return
	}
	h.writeJSON(w, record)
}

// GetMode returns the active display mode
func (h *Handler) GetMode(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.service.Mode())
}

// AdvanceMode cycles the display mode and returns the new one. This is the
// endpoint external advance triggers (button bridges, cron) call.
func (h *Handler) AdvanceMode(w http.ResponseWriter, r *http.Request) {
	mode := h.service.Advance()
	h.logger.Info("Mode advance requested via API", logger.String("mode", mode.String()))
	h.writeJSON(w, mode)
}

// GetAirports returns the configured airports
func (h *Handler) GetAirports(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.config.Airports)
}

// GetHealth returns a liveness probe response
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}
