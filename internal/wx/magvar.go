package wx

import (
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// MagneticVariation calculates the magnetic declination (+East, -West) for a
// position and date using the World Magnetic Model. Runway headings are
// magnetic while reported wind directions are true; the crosswind calculator
// uses this to bring them into the same frame. Returns 0 when the model
// cannot produce a value.
func MagneticVariation(lat, lon, elevFt float64, date time.Time) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, elevFt*0.3048)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0.0
	}
	return mag.D()
}
