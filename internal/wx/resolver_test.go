package wx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(hour int) time.Time {
	return time.Date(2024, time.March, 30, hour, 0, 0, 0, time.UTC)
}

func windPtr(dir, speed int) *WindInfo {
	return &WindInfo{DirectionDeg: dir, SpeedKt: speed}
}

func visPtr(v float64) *float64 { return &v }
func ceilPtr(c int) *int        { return &c }
func boolPtr(b bool) *bool      { return &b }

func TestResolve_overlayMerge(t *testing.T) {
	t.Parallel()

	periods := []ForecastPeriod{
		{
			ICAO: "KJFK", Kind: GroupBase, From: day(0), To: day(12),
			Wind: windPtr(180, 10), VisibilitySM: visPtr(6), CeilingFt: ceilPtr(4000),
		},
		{
			ICAO: "KJFK", Kind: GroupTempo, From: day(4), To: day(6),
			VisibilitySM: visPtr(1),
		},
	}

	// Inside the overlay window: the overlay's visibility applies, every
	// unspecified field inherits from the base.
	rc, err := Resolve(periods, day(5), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, rc.VisibilitySM)
	assert.Equal(t, WindInfo{DirectionDeg: 180, SpeedKt: 10}, rc.Wind)
	assert.Equal(t, 4000, rc.CeilingFt)
	assert.True(t, rc.Overlaid)
	assert.Equal(t, GroupTempo, rc.OverlayKind)

	// Outside the overlay window: pure base conditions.
	rc, err = Resolve(periods, day(8), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 6.0, rc.VisibilitySM)
	assert.False(t, rc.Overlaid)

	// Past the end of coverage.
	_, err = Resolve(periods, day(13), ResolverOptions{})
	var ncErr *NoCoverageError
	require.ErrorAs(t, err, &ncErr)
	assert.Equal(t, "KJFK", ncErr.ICAO)
}

func TestResolve_coverageBoundaries(t *testing.T) {
	t.Parallel()

	periods := []ForecastPeriod{
		{ICAO: "KJFK", Kind: GroupBase, From: day(0), To: day(12), VisibilitySM: visPtr(6)},
	}

	// Half-open interval: From inclusive, To exclusive.
	_, err := Resolve(periods, day(0), ResolverOptions{})
	assert.NoError(t, err)

	_, err = Resolve(periods, day(12), ResolverOptions{})
	var ncErr *NoCoverageError
	assert.ErrorAs(t, err, &ncErr)
}

func TestResolve_fromPeriodSelected(t *testing.T) {
	t.Parallel()

	periods := []ForecastPeriod{
		{ICAO: "KJFK", Kind: GroupBase, From: day(0), To: day(6), Wind: windPtr(180, 10), VisibilitySM: visPtr(6)},
		{ICAO: "KJFK", Kind: GroupFrom, From: day(6), To: day(12), Wind: windPtr(270, 20)},
	}

	rc, err := Resolve(periods, day(8), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, GroupFrom, rc.BaseKind)
	assert.Equal(t, WindInfo{DirectionDeg: 270, SpeedKt: 20}, rc.Wind)
	// A FROM group resets the state: the earlier period's visibility does
	// not carry over.
	assert.Equal(t, VisibilityUnlimited, rc.VisibilitySM)
}

func TestResolve_becomingFoldsFromWindowStart(t *testing.T) {
	t.Parallel()

	periods := []ForecastPeriod{
		{ICAO: "KJFK", Kind: GroupBase, From: day(0), To: day(12), VisibilitySM: visPtr(6), CeilingFt: ceilPtr(4000)},
		{ICAO: "KJFK", Kind: GroupBecoming, From: day(4), To: day(6), CeilingFt: ceilPtr(800)},
	}

	// Before the transition window opens: base ceiling.
	rc, err := Resolve(periods, day(3), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4000, rc.CeilingFt)

	// Inside the window: the becoming conditions already apply.
	rc, err = Resolve(periods, day(5), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 800, rc.CeilingFt)
	assert.Equal(t, 6.0, rc.VisibilitySM, "unspecified fields keep base values")

	// After the window: the change is permanent.
	rc, err = Resolve(periods, day(10), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 800, rc.CeilingFt)
}

func TestResolve_becomingSupersededByFrom(t *testing.T) {
	t.Parallel()

	periods := []ForecastPeriod{
		{ICAO: "KJFK", Kind: GroupBase, From: day(0), To: day(6), VisibilitySM: visPtr(6)},
		{ICAO: "KJFK", Kind: GroupBecoming, From: day(2), To: day(4), VisibilitySM: visPtr(2)},
		{ICAO: "KJFK", Kind: GroupFrom, From: day(6), To: day(12), VisibilitySM: visPtr(6)},
	}

	// Within the first segment the becoming visibility applies.
	rc, err := Resolve(periods, day(3), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, rc.VisibilitySM)

	// The FROM group restates the forecast; the earlier becoming window no
	// longer applies.
	rc, err = Resolve(periods, day(8), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 6.0, rc.VisibilitySM)
}

func TestResolve_overlayTieBreaks(t *testing.T) {
	t.Parallel()

	periods := []ForecastPeriod{
		{ICAO: "KJFK", Kind: GroupBase, From: day(0), To: day(12), VisibilitySM: visPtr(6)},
		{ICAO: "KJFK", Kind: GroupTempo, From: day(4), To: day(8), VisibilitySM: visPtr(3)},
		{ICAO: "KJFK", Kind: GroupProb, Probability: 30, From: day(4), To: day(8), VisibilitySM: visPtr(1)},
	}

	// Equal valid-from: last declared wins by default.
	rc, err := Resolve(periods, day(5), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, rc.VisibilitySM)

	rc, err = Resolve(periods, day(5), ResolverOptions{OverlayTieBreak: TieBreakFirstDeclared})
	require.NoError(t, err)
	assert.Equal(t, 3.0, rc.VisibilitySM)
}

func TestResolve_latestOverlayWins(t *testing.T) {
	t.Parallel()

	periods := []ForecastPeriod{
		{ICAO: "KJFK", Kind: GroupBase, From: day(0), To: day(12), VisibilitySM: visPtr(6)},
		{ICAO: "KJFK", Kind: GroupTempo, From: day(2), To: day(10), VisibilitySM: visPtr(3)},
		{ICAO: "KJFK", Kind: GroupTempo, From: day(4), To: day(8), VisibilitySM: visPtr(1)},
	}

	// Both overlays cover 05:00; the one starting later wins.
	rc, err := Resolve(periods, day(5), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, rc.VisibilitySM)

	// Only the earlier overlay covers 09:00.
	rc, err = Resolve(periods, day(9), ResolverOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3.0, rc.VisibilitySM)
}

func TestResolve_overlayThunderstorm(t *testing.T) {
	t.Parallel()

	periods := []ForecastPeriod{
		{ICAO: "KJFK", Kind: GroupBase, From: day(0), To: day(12), Thunderstorm: boolPtr(false)},
		{ICAO: "KJFK", Kind: GroupTempo, From: day(4), To: day(6), Thunderstorm: boolPtr(true)},
	}

	rc, err := Resolve(periods, day(5), ResolverOptions{})
	require.NoError(t, err)
	assert.True(t, rc.Thunderstorm)
}

func TestResolve_emptyPeriods(t *testing.T) {
	t.Parallel()

	_, err := Resolve(nil, day(5), ResolverOptions{})
	var ncErr *NoCoverageError
	assert.ErrorAs(t, err, &ncErr)
}
