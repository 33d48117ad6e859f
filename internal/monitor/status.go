package monitor

import (
	"time"

	"github.com/forvines/metar-monitor/internal/config"
	"github.com/forvines/metar-monitor/internal/wx"
)

// StatusRecord is the interpreted condition of one airport, current or
// forecast, as handed to rendering collaborators.
type StatusRecord struct {
	ICAO            string              `json:"icao"`
	Name            string              `json:"name"`
	Slot            int                 `json:"slot"`
	Category        wx.FlightCategory   `json:"category"`
	CategoryLabel   string              `json:"category_label"`
	Color           string              `json:"color"`
	StrongWind      bool                `json:"strong_wind"`
	StrongGust      bool                `json:"strong_gust"`
	Thunderstorm    bool                `json:"thunderstorm"`
	ExcessCrosswind bool                `json:"excess_crosswind"`
	Wind            wx.WindInfo         `json:"wind"`
	VisibilitySM    float64             `json:"visibility_sm"`
	CeilingFt       int                 `json:"ceiling_ft"`
	Crosswind       *wx.CrosswindResult `json:"crosswind,omitempty"`
	ObservedAt      time.Time           `json:"observed_at"`
	Forecast        bool                `json:"forecast"`
	ForecastOffsetH int                 `json:"forecast_offset_hours,omitempty"`
	Stale           bool                `json:"stale"`
	Raw             string              `json:"raw,omitempty"`
}

// Warning reports whether any warning flag is raised
func (r StatusRecord) Warning() bool {
	return r.StrongWind || r.StrongGust || r.Thunderstorm || r.ExcessCrosswind
}

// BuildStatus interprets a live observation against the airport's runway
// geometry and the configured warning thresholds.
func BuildStatus(airport config.Airport, obs wx.Observation, th config.Thresholds, opts wx.CrosswindOptions) StatusRecord {
	rec := StatusRecord{
		ICAO:         airport.ICAO,
		Name:         airport.Name,
		Slot:         airport.Slot,
		Wind:         obs.Wind,
		VisibilitySM: obs.VisibilitySM,
		CeilingFt:    obs.CeilingFt,
		ObservedAt:   obs.IssuedAt,
		Thunderstorm: obs.Thunderstorm,
		Raw:          obs.Raw,
	}
	if obs.Missing {
		rec.Category = wx.CategoryUnknown
		rec.finish()
		return rec
	}

	rec.Category = wx.Classify(obs.CeilingFt, obs.VisibilitySM)
	applyWind(&rec, obs.Wind, airport, th, opts)
	rec.finish()
	return rec
}

// BuildForecastStatus interprets resolved forecast conditions at a look-ahead
// horizon the same way BuildStatus interprets a live observation.
func BuildForecastStatus(airport config.Airport, rc wx.ResolvedConditions, offsetHours int, th config.Thresholds, opts wx.CrosswindOptions) StatusRecord {
	rec := StatusRecord{
		ICAO:            airport.ICAO,
		Name:            airport.Name,
		Slot:            airport.Slot,
		Wind:            rc.Wind,
		VisibilitySM:    rc.VisibilitySM,
		CeilingFt:       rc.CeilingFt,
		ObservedAt:      rc.At,
		Thunderstorm:    rc.Thunderstorm,
		Forecast:        true,
		ForecastOffsetH: offsetHours,
	}
	rec.Category = wx.Classify(rc.CeilingFt, rc.VisibilitySM)
	applyWind(&rec, rc.Wind, airport, th, opts)
	rec.finish()
	return rec
}

// MissingStatus is the record for an airport with no interpretable data in
// the requested view
func MissingStatus(airport config.Airport, forecast bool, offsetHours int, stale bool) StatusRecord {
	rec := StatusRecord{
		ICAO:            airport.ICAO,
		Name:            airport.Name,
		Slot:            airport.Slot,
		Category:        wx.CategoryUnknown,
		VisibilitySM:    wx.VisibilityUnlimited,
		CeilingFt:       wx.CeilingNone,
		Wind:            wx.WindInfo{DirectionDeg: wx.DirectionVariable},
		Forecast:        forecast,
		ForecastOffsetH: offsetHours,
		Stale:           stale,
	}
	rec.finish()
	return rec
}

func applyWind(rec *StatusRecord, wind wx.WindInfo, airport config.Airport, th config.Thresholds, opts wx.CrosswindOptions) {
	rec.StrongWind = wind.SpeedKt > th.WindKt
	rec.StrongGust = wind.GustKt > th.GustKt

	runways := make([]wx.Runway, 0, len(airport.Runways))
	for _, r := range airport.Runways {
		runways = append(runways, wx.Runway{Name: r.Name, HeadingDeg: r.HeadingDeg})
	}
	xw, err := wx.ComputeCrosswind(wind, runways, opts)
	if err != nil {
		// No runway geometry configured: no crosswind data for this airport
		return
	}
	rec.Crosswind = xw
	rec.ExcessCrosswind = xw.Exceeds(float64(th.CrosswindKt))
}

// finish derives the display fields from the flags and category
func (r *StatusRecord) finish() {
	r.CategoryLabel = r.Category.String()
	switch {
	case r.Category == wx.CategoryUnknown:
		r.Color = r.Category.Color()
	case r.Warning():
		r.Color = "yellow"
	default:
		r.Color = r.Category.Color()
	}
}
