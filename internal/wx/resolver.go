package wx

import (
	"time"
)

// OverlayTieBreak selects which overlay wins when two TEMPO/PROB periods
// with the same valid-from both cover the requested instant.
type OverlayTieBreak int

const (
	// TieBreakLastDeclared prefers the overlay declared later in the
	// bulletin. This is the default.
	TieBreakLastDeclared OverlayTieBreak = iota
	// TieBreakFirstDeclared prefers the overlay declared earlier.
	TieBreakFirstDeclared
)

// ResolverOptions tune forecast resolution behavior.
type ResolverOptions struct {
	OverlayTieBreak OverlayTieBreak
}

// ResolvedConditions is the effective weather at one instant of a forecast
// bulletin, after overlay merging. It feeds the classifier and crosswind
// calculator identically to a live Observation.
type ResolvedConditions struct {
	ICAO         string     `json:"icao"`
	At           time.Time  `json:"at"`
	Wind         WindInfo   `json:"wind"`
	VisibilitySM float64    `json:"visibility_sm"`
	CeilingFt    int        `json:"ceiling_ft"`
	Thunderstorm bool       `json:"thunderstorm"`
	BaseKind     ChangeKind `json:"base_kind"`
	BaseFrom     time.Time  `json:"base_from"`
	BaseTo       time.Time  `json:"base_to"`
	OverlayKind  ChangeKind `json:"overlay_kind,omitempty"`
	Overlaid     bool       `json:"overlaid"`
}

// Resolve selects the forecast period applicable at the given instant and
// merges any overlay. The covering period is the single BASE/FROM period
// whose [valid-from, valid-to) contains at; if none exists the call fails
// with *NoCoverageError. BECOMING groups whose window has opened by at fold
// their specified fields into the base. Among TEMPO/PROBABILITY overlays
// covering at, the one with the latest valid-from wins, ties broken by
// declaration order per opts. Merging is per field: the overlay's value is
// used only where its token stream specified the field.
func Resolve(periods []ForecastPeriod, at time.Time, opts ResolverOptions) (ResolvedConditions, error) {
	icao := ""
	if len(periods) > 0 {
		icao = periods[0].ICAO
	}

	var base *ForecastPeriod
	for i := range periods {
		p := &periods[i]
		if (p.Kind == GroupBase || p.Kind == GroupFrom) && p.Covers(at) {
			base = p
			break
		}
	}
	if base == nil {
		return ResolvedConditions{}, &NoCoverageError{ICAO: icao, At: at}
	}

	rc := ResolvedConditions{
		ICAO:         icao,
		At:           at,
		Wind:         WindInfo{DirectionDeg: DirectionVariable},
		VisibilitySM: VisibilityUnlimited,
		CeilingFt:    CeilingNone,
		BaseKind:     base.Kind,
		BaseFrom:     base.From,
		BaseTo:       base.To,
	}
	rc.apply(base)

	// BECOMING conditions apply from the start of the transition window
	// onward, the pessimistic reading for warning display. A FROM group
	// restates the full forecast, so BECOMING windows that opened before
	// the covering segment began are already superseded.
	for i := range periods {
		p := &periods[i]
		if p.Kind != GroupBecoming || p.From.After(at) {
			continue
		}
		if p.From.Before(base.From) {
			continue
		}
		rc.apply(p)
	}

	overlay := selectOverlay(periods, at, opts.OverlayTieBreak)
	if overlay != nil {
		rc.apply(overlay)
		rc.OverlayKind = overlay.Kind
		rc.Overlaid = true
	}

	return rc, nil
}

// selectOverlay picks the winning TEMPO/PROB period covering at, or nil.
func selectOverlay(periods []ForecastPeriod, at time.Time, tieBreak OverlayTieBreak) *ForecastPeriod {
	var winner *ForecastPeriod
	for i := range periods {
		p := &periods[i]
		if !p.Kind.Overlay() || !p.Covers(at) {
			continue
		}
		switch {
		case winner == nil:
			winner = p
		case p.From.After(winner.From):
			winner = p
		case p.From.Equal(winner.From) && tieBreak == TieBreakLastDeclared:
			// Periods are in declaration order for equal valid-from, so a
			// later index is a later declaration.
			winner = p
		}
	}
	return winner
}

// apply merges a period's specified fields into the resolved conditions.
func (rc *ResolvedConditions) apply(p *ForecastPeriod) {
	if p.Wind != nil {
		rc.Wind = *p.Wind
	}
	if p.VisibilitySM != nil {
		rc.VisibilitySM = *p.VisibilitySM
	}
	if p.CeilingFt != nil {
		rc.CeilingFt = *p.CeilingFt
	}
	if p.Thunderstorm != nil {
		rc.Thunderstorm = *p.Thunderstorm
	}
}
