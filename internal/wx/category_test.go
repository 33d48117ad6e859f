package wx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		ceilingFt    int
		visibilitySM float64
		want         FlightCategory
	}{
		{"clear sky unlimited visibility", CeilingNone, VisibilityUnlimited, CategoryVFR},
		{"high ceiling good visibility", 10000, 10, CategoryVFR},
		{"mvfr ceiling boundary", 3000, 10, CategoryMVFR},
		{"just above mvfr ceiling", 3100, 10, CategoryVFR},
		{"mvfr visibility boundary", 10000, 5, CategoryMVFR},
		{"just above mvfr visibility", 10000, 5.5, CategoryVFR},
		{"ifr ceiling", 900, 10, CategoryIFR},
		{"ifr ceiling upper boundary excluded", 1000, 10, CategoryMVFR},
		{"ifr visibility", 10000, 2.5, CategoryIFR},
		{"lifr ceiling", 400, 10, CategoryLIFR},
		{"lifr ceiling upper boundary excluded", 500, 10, CategoryIFR},
		{"lifr visibility", 10000, 0.5, CategoryLIFR},
		{"worst dimension wins ceiling", 400, 10, CategoryLIFR},
		{"worst dimension wins visibility", 5000, 0.5, CategoryLIFR},
		{"both marginal", 2500, 4, CategoryMVFR},
		{"no ceiling poor visibility", CeilingNone, 0.25, CategoryLIFR},
		{"low ceiling unlimited visibility", 300, VisibilityUnlimited, CategoryLIFR},
		{"zero visibility", 10000, 0, CategoryLIFR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ceilingFt, tt.visibilitySM))
		})
	}
}

func TestFlightCategory_ordering(t *testing.T) {
	t.Parallel()

	assert.True(t, CategoryLIFR.MoreSevere(CategoryIFR))
	assert.True(t, CategoryIFR.MoreSevere(CategoryMVFR))
	assert.True(t, CategoryMVFR.MoreSevere(CategoryVFR))
	assert.True(t, CategoryVFR.MoreSevere(CategoryUnknown))
	assert.False(t, CategoryVFR.MoreSevere(CategoryVFR))
	assert.False(t, CategoryVFR.MoreSevere(CategoryLIFR))
}

func TestFlightCategory_display(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category FlightCategory
		label    string
		color    string
	}{
		{CategoryVFR, "VFR", "green"},
		{CategoryMVFR, "MVFR", "blue"},
		{CategoryIFR, "IFR", "red"},
		{CategoryLIFR, "LIFR", "purple"},
		{CategoryUnknown, "Unknown", "off"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.label, tt.category.String())
		assert.Equal(t, tt.color, tt.category.Color())
	}
}
