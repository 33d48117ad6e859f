package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forvines/metar-monitor/internal/config"
	"github.com/forvines/metar-monitor/internal/wx"
)

var testThresholds = config.Thresholds{WindKt: 20, GustKt: 25, CrosswindKt: 10}

func testAirport() config.Airport {
	return config.Airport{
		ICAO: "KJFK",
		Name: "Kennedy",
		Slot: 0,
		Runways: []config.Runway{
			{Name: "04L", HeadingDeg: 43},
			{Name: "13L", HeadingDeg: 121},
		},
	}
}

func TestBuildStatus_calm(t *testing.T) {
	t.Parallel()

	obs := wx.Observation{
		ICAO:         "KJFK",
		IssuedAt:     time.Date(2024, time.March, 29, 17, 51, 0, 0, time.UTC),
		Wind:         wx.WindInfo{DirectionDeg: wx.DirectionVariable},
		VisibilitySM: 10,
		CeilingFt:    wx.CeilingNone,
	}

	rec := BuildStatus(testAirport(), obs, testThresholds, wx.CrosswindOptions{})
	assert.Equal(t, wx.CategoryVFR, rec.Category)
	assert.Equal(t, "green", rec.Color)
	assert.False(t, rec.Warning(), "calm wind must never raise a warning")
	assert.Nil(t, rec.Crosswind)
}

func TestBuildStatus_warnings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		wind  wx.WindInfo
		check func(t *testing.T, rec StatusRecord)
	}{
		{
			"sustained wind above threshold",
			wx.WindInfo{DirectionDeg: 40, SpeedKt: 22},
			func(t *testing.T, rec StatusRecord) {
				assert.True(t, rec.StrongWind)
				assert.False(t, rec.StrongGust)
			},
		},
		{
			"gust above threshold",
			wx.WindInfo{DirectionDeg: 40, SpeedKt: 15, GustKt: 28},
			func(t *testing.T, rec StatusRecord) {
				assert.False(t, rec.StrongWind)
				assert.True(t, rec.StrongGust)
			},
		},
		{
			"crosswind above threshold",
			// Midway between the 04L and 13L headings: 39 degrees off both,
			// so the best runway still sees about 12.6 kt across.
			wx.WindInfo{DirectionDeg: 82, SpeedKt: 20},
			func(t *testing.T, rec StatusRecord) {
				assert.True(t, rec.ExcessCrosswind)
				require.NotNil(t, rec.Crosswind)
			},
		},
		{
			"thresholds are exclusive",
			wx.WindInfo{DirectionDeg: 40, SpeedKt: 20, GustKt: 25},
			func(t *testing.T, rec StatusRecord) {
				assert.False(t, rec.StrongWind)
				assert.False(t, rec.StrongGust)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := wx.Observation{
				ICAO:         "KJFK",
				Wind:         tt.wind,
				VisibilitySM: 10,
				CeilingFt:    wx.CeilingNone,
			}
			rec := BuildStatus(testAirport(), obs, testThresholds, wx.CrosswindOptions{})
			tt.check(t, rec)
		})
	}
}

func TestBuildStatus_warningColor(t *testing.T) {
	t.Parallel()

	obs := wx.Observation{
		ICAO:         "KJFK",
		Wind:         wx.WindInfo{DirectionDeg: 40, SpeedKt: 30},
		VisibilitySM: 10,
		CeilingFt:    wx.CeilingNone,
	}

	rec := BuildStatus(testAirport(), obs, testThresholds, wx.CrosswindOptions{})
	assert.Equal(t, wx.CategoryVFR, rec.Category)
	assert.Equal(t, "yellow", rec.Color, "warnings override the category color")
}

func TestBuildStatus_missing(t *testing.T) {
	t.Parallel()

	obs := wx.Observation{ICAO: "KJFK", Missing: true}
	rec := BuildStatus(testAirport(), obs, testThresholds, wx.CrosswindOptions{})
	assert.Equal(t, wx.CategoryUnknown, rec.Category)
	assert.Equal(t, "off", rec.Color)
}

func TestBuildStatus_thunderstorm(t *testing.T) {
	t.Parallel()

	obs := wx.Observation{
		ICAO:         "KJFK",
		Wind:         wx.WindInfo{DirectionDeg: 40, SpeedKt: 5},
		VisibilitySM: 5,
		CeilingFt:    2000,
		Thunderstorm: true,
	}

	rec := BuildStatus(testAirport(), obs, testThresholds, wx.CrosswindOptions{})
	assert.Equal(t, wx.CategoryMVFR, rec.Category)
	assert.True(t, rec.Thunderstorm)
	assert.Equal(t, "yellow", rec.Color)
}

func TestBuildStatus_noRunways(t *testing.T) {
	t.Parallel()

	airport := config.Airport{ICAO: "KXYZ", Name: "No Geometry"}
	obs := wx.Observation{
		ICAO:         "KXYZ",
		Wind:         wx.WindInfo{DirectionDeg: 270, SpeedKt: 30},
		VisibilitySM: 10,
		CeilingFt:    wx.CeilingNone,
	}

	rec := BuildStatus(airport, obs, testThresholds, wx.CrosswindOptions{})
	assert.Nil(t, rec.Crosswind, "no runway geometry means no crosswind data")
	assert.False(t, rec.ExcessCrosswind)
	assert.True(t, rec.StrongWind, "other warnings still apply")
}

func TestBuildForecastStatus(t *testing.T) {
	t.Parallel()

	rc := wx.ResolvedConditions{
		ICAO:         "KJFK",
		At:           time.Date(2024, time.March, 30, 2, 0, 0, 0, time.UTC),
		Wind:         wx.WindInfo{DirectionDeg: 40, SpeedKt: 12},
		VisibilitySM: 0.5,
		CeilingFt:    wx.CeilingNone,
	}

	rec := BuildForecastStatus(testAirport(), rc, 8, testThresholds, wx.CrosswindOptions{})
	assert.True(t, rec.Forecast)
	assert.Equal(t, 8, rec.ForecastOffsetH)
	assert.Equal(t, wx.CategoryLIFR, rec.Category)
	assert.Equal(t, "purple", rec.Color)
}

func TestMissingStatus(t *testing.T) {
	t.Parallel()

	rec := MissingStatus(testAirport(), true, 4, true)
	assert.Equal(t, wx.CategoryUnknown, rec.Category)
	assert.Equal(t, "off", rec.Color)
	assert.True(t, rec.Forecast)
	assert.Equal(t, 4, rec.ForecastOffsetH)
	assert.True(t, rec.Stale)
}
