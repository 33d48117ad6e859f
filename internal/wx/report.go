// Package wx implements the report interpretation core: parsing raw
// METAR/TAF text into structured values, flight category classification,
// crosswind computation, and forecast period resolution. Everything in this
// package is a pure function of its inputs; fetching, configuration, and
// rendering live elsewhere.
package wx

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel values for fields a report may omit.
const (
	// DirectionVariable marks wind with no usable direction (VRB or calm).
	DirectionVariable = -1
	// VisibilityUnlimited marks visibility reported as unlimited or missing.
	VisibilityUnlimited float64 = -1
	// CeilingNone marks the absence of a broken/overcast layer.
	CeilingNone = -1
)

// WindInfo represents a wind group from an observation or forecast period.
type WindInfo struct {
	DirectionDeg int `json:"direction_deg"` // DirectionVariable when VRB or calm
	SpeedKt      int `json:"speed_kt"`
	GustKt       int `json:"gust_kt,omitempty"` // 0 when no gust reported
}

// Variable reports whether the wind has no usable direction.
func (w WindInfo) Variable() bool {
	return w.DirectionDeg == DirectionVariable
}

// Calm reports whether the wind is effectively calm.
func (w WindInfo) Calm() bool {
	return w.SpeedKt == 0 && w.GustKt == 0
}

// Observation is one decoded current-conditions (METAR-style) report.
// Instances are immutable; each fetch cycle produces a fresh value.
type Observation struct {
	ICAO         string    `json:"icao"`
	Raw          string    `json:"raw"`
	IssuedAt     time.Time `json:"issued_at"`
	Wind         WindInfo  `json:"wind"`
	VisibilitySM float64   `json:"visibility_sm"` // VisibilityUnlimited when not reported
	CeilingFt    int       `json:"ceiling_ft"`    // CeilingNone when no BKN/OVC layer
	Thunderstorm bool      `json:"thunderstorm"`
	Missing      bool      `json:"missing"` // data missing or stale
}

// ChangeKind is the closed taxonomy of forecast change groups.
type ChangeKind int

const (
	GroupBase ChangeKind = iota
	GroupFrom
	GroupBecoming
	GroupTempo
	GroupProb
)

// String returns the TAF-style label for the change group kind.
func (k ChangeKind) String() string {
	switch k {
	case GroupBase:
		return "BASE"
	case GroupFrom:
		return "FM"
	case GroupBecoming:
		return "BECMG"
	case GroupTempo:
		return "TEMPO"
	case GroupProb:
		return "PROB"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Overlay reports whether periods of this kind overlay (rather than replace)
// the base/FROM period active at the same instant.
func (k ChangeKind) Overlay() bool {
	return k == GroupTempo || k == GroupProb
}

// ForecastPeriod is one interval of a decoded forecast bulletin. Pointer
// fields are nil when the period's token stream did not specify the field;
// the resolver inherits the underlying period's value in that case.
type ForecastPeriod struct {
	ICAO         string     `json:"icao"`
	Kind         ChangeKind `json:"kind"`
	Probability  int        `json:"probability,omitempty"` // percent, PROB groups only
	From         time.Time  `json:"from"`
	To           time.Time  `json:"to"`
	Wind         *WindInfo  `json:"wind,omitempty"`
	VisibilitySM *float64   `json:"visibility_sm,omitempty"`
	CeilingFt    *int       `json:"ceiling_ft,omitempty"`
	Thunderstorm *bool      `json:"thunderstorm,omitempty"`
	Raw          string     `json:"raw"`
}

// Covers reports whether the period's [From, To) range contains at.
func (p ForecastPeriod) Covers(at time.Time) bool {
	return !p.From.After(at) && at.Before(p.To)
}

// MalformedReportError reports an unparseable mandatory field in a raw
// report: the time token, or a syntactically invalid wind/visibility group.
type MalformedReportError struct {
	Offset int    // byte offset of the offending token in the raw text
	Token  string // the offending token, empty when the token is absent
}

func (e *MalformedReportError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("malformed report: missing mandatory token at offset %d", e.Offset)
	}
	return fmt.Sprintf("malformed report: bad token %q at offset %d", e.Token, e.Offset)
}

// NoCoverageError reports that no base/FROM forecast period covers the
// requested instant.
type NoCoverageError struct {
	ICAO string
	At   time.Time
}

func (e *NoCoverageError) Error() string {
	return fmt.Sprintf("no forecast coverage for %s at %s", e.ICAO, e.At.UTC().Format(time.RFC3339))
}

// ErrNoRunways is returned when a crosswind is requested for an airport with
// no runways configured. Callers degrade to "no crosswind data".
var ErrNoRunways = errors.New("no runways configured")
