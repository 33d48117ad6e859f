package wx

// FlightCategory is the standard four-level severity classification derived
// from ceiling and visibility. The ordering is total: VFR is least severe,
// LIFR most severe. CategoryUnknown sorts below VFR and is only produced for
// records with no usable data, never by Classify.
type FlightCategory int

const (
	CategoryUnknown FlightCategory = iota
	CategoryVFR
	CategoryMVFR
	CategoryIFR
	CategoryLIFR
)

// Classification thresholds: ceiling in feet, visibility in statute miles.
const (
	lifrCeilingFt = 500
	ifrCeilingFt  = 1000
	mvfrCeilingFt = 3000

	lifrVisibilitySM = 1.0
	ifrVisibilitySM  = 3.0
	mvfrVisibilitySM = 5.0
)

// String returns the category's standard abbreviation.
func (c FlightCategory) String() string {
	switch c {
	case CategoryVFR:
		return "VFR"
	case CategoryMVFR:
		return "MVFR"
	case CategoryIFR:
		return "IFR"
	case CategoryLIFR:
		return "LIFR"
	default:
		return "Unknown"
	}
}

// Color returns the conventional display color for the category, used by
// rendering collaborators (green VFR, blue MVFR, red IFR, purple LIFR).
func (c FlightCategory) Color() string {
	switch c {
	case CategoryVFR:
		return "green"
	case CategoryMVFR:
		return "blue"
	case CategoryIFR:
		return "red"
	case CategoryLIFR:
		return "purple"
	default:
		return "off"
	}
}

// MoreSevere reports whether c is strictly more severe than other.
func (c FlightCategory) MoreSevere(other FlightCategory) bool {
	return c > other
}

// Classify maps a ceiling/visibility pair to a flight category. Both
// dimensions are evaluated and the more severe result wins, so a report with
// good ceiling but poor visibility classifies by the visibility. The
// CeilingNone and VisibilityUnlimited sentinels are treated as infinite and
// never worsen the category. Total and pure over all representable inputs.
func Classify(ceilingFt int, visibilitySM float64) FlightCategory {
	byCeiling := CategoryVFR
	if ceilingFt != CeilingNone {
		switch {
		case ceilingFt < lifrCeilingFt:
			byCeiling = CategoryLIFR
		case ceilingFt < ifrCeilingFt:
			byCeiling = CategoryIFR
		case ceilingFt <= mvfrCeilingFt:
			byCeiling = CategoryMVFR
		}
	}

	byVisibility := CategoryVFR
	if visibilitySM != VisibilityUnlimited {
		switch {
		case visibilitySM < lifrVisibilitySM:
			byVisibility = CategoryLIFR
		case visibilitySM < ifrVisibilitySM:
			byVisibility = CategoryIFR
		case visibilitySM <= mvfrVisibilitySM:
			byVisibility = CategoryMVFR
		}
	}

	if byVisibility.MoreSevere(byCeiling) {
		return byVisibility
	}
	return byCeiling
}
