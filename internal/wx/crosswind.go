package wx

import (
	"math"
)

// Runway describes one runway surface for crosswind purposes.
type Runway struct {
	Name       string  `json:"name"`
	HeadingDeg float64 `json:"heading_deg"` // magnetic heading [0,360)
}

// CrosswindOptions control runway selection and wind direction correction.
type CrosswindOptions struct {
	// PrimaryRunway, when non-empty, names the runway whose component is
	// used exclusively instead of the minimum across all runways.
	PrimaryRunway string

	// MagneticVariationDeg is the magnetic declination at the airport
	// (+East). Reported wind directions are true north; runway headings are
	// magnetic, so the wind is corrected by this amount before comparison.
	MagneticVariationDeg float64
}

// CrosswindResult is the crosswind exposure of one wind vector against the
// selected runway.
type CrosswindResult struct {
	Runway          Runway  `json:"runway"`
	AngleDeg        float64 `json:"angle_deg"` // wind/runway incidence, folded to [0,90]
	ComponentKt     float64 `json:"component_kt"`
	GustComponentKt float64 `json:"gust_component_kt,omitempty"`
	HeadwindKt      float64 `json:"headwind_kt"` // negative means tailwind
}

// Exceeds reports whether either the sustained or gust crosswind component
// exceeds the given threshold.
func (r *CrosswindResult) Exceeds(thresholdKt float64) bool {
	if r == nil {
		return false
	}
	return r.ComponentKt > thresholdKt || r.GustComponentKt > thresholdKt
}

// ComputeCrosswind resolves a wind vector against the airport's runway
// geometry. Calm or variable-direction wind yields (nil, nil): no crosswind
// exposure can be attributed to any runway. With no runways configured it
// returns ErrNoRunways. Otherwise the runway with the minimum sustained
// component is reported, unless opts.PrimaryRunway designates one.
func ComputeCrosswind(wind WindInfo, runways []Runway, opts CrosswindOptions) (*CrosswindResult, error) {
	if len(runways) == 0 {
		return nil, ErrNoRunways
	}
	if wind.Variable() || wind.Calm() {
		return nil, nil
	}

	windDeg := normalizeDeg(float64(wind.DirectionDeg) - opts.MagneticVariationDeg)

	candidates := runways
	if opts.PrimaryRunway != "" {
		for _, rwy := range runways {
			if rwy.Name == opts.PrimaryRunway {
				candidates = []Runway{rwy}
				break
			}
		}
	}

	var best *CrosswindResult
	for _, rwy := range candidates {
		res := runwayComponents(wind, windDeg, rwy)
		if best == nil || res.ComponentKt < best.ComponentKt {
			best = &res
		}
	}
	return best, nil
}

// runwayComponents computes the wind components against one runway. The
// crosswind component folds to the smaller incidence angle of the runway's
// two aligned headings; the headwind keeps the signed cosine toward the
// named heading, so a wind from behind yields a negative value.
func runwayComponents(wind WindInfo, windDeg float64, rwy Runway) CrosswindResult {
	incidence := angularDifference(windDeg, rwy.HeadingDeg)
	angle := incidence
	if angle > 90 {
		angle = 180 - angle
	}
	rad := angle * math.Pi / 180

	res := CrosswindResult{
		Runway:      rwy,
		AngleDeg:    angle,
		ComponentKt: math.Abs(float64(wind.SpeedKt) * math.Sin(rad)),
		HeadwindKt:  float64(wind.SpeedKt) * math.Cos(incidence*math.Pi/180),
	}
	if wind.GustKt > 0 {
		res.GustComponentKt = math.Abs(float64(wind.GustKt) * math.Sin(rad))
	}
	return res
}

// angularDifference returns the absolute difference between two compass
// directions, in [0,180].
func angularDifference(a, b float64) float64 {
	return math.Abs(math.Mod(a-b+540, 360) - 180)
}

func normalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
