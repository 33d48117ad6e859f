// Package monitor runs the periodic refresh loop that turns raw reports into
// per-airport status records, and owns the display mode cycled by external
// advance triggers.
package monitor

import (
	"fmt"
	"sync"
)

// DisplayMode is the view the dashboard currently shows: either the latest
// observations or a forecast look-ahead at a fixed horizon.
type DisplayMode struct {
	Current     bool `json:"current"`
	OffsetHours int  `json:"offset_hours"` // 0 when Current
}

// String returns the mode label shown to clients
func (m DisplayMode) String() string {
	if m.Current {
		return "CURRENT"
	}
	return fmt.Sprintf("FORECAST+%dH", m.OffsetHours)
}

// ModeMachine cycles through CURRENT and the configured forecast horizons.
// It is the only piece of shared mutable state in the interpretation core.
type ModeMachine struct {
	mu      sync.Mutex
	offsets []int
	index   int // 0 = CURRENT, i>0 = offsets[i-1]
}

// NewModeMachine creates a mode machine for the given forecast horizons,
// which must be positive and strictly ascending
func NewModeMachine(offsetsHours []int) (*ModeMachine, error) {
	for i, h := range offsetsHours {
		if h <= 0 {
			return nil, fmt.Errorf("forecast offset must be positive, got %d", h)
		}
		if i > 0 && h <= offsetsHours[i-1] {
			return nil, fmt.Errorf("forecast offsets must be strictly ascending")
		}
	}
	offsets := make([]int, len(offsetsHours))
	copy(offsets, offsetsHours)
	return &ModeMachine{offsets: offsets}, nil
}

// Mode returns the active display mode
func (m *ModeMachine) Mode() DisplayMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modeLocked()
}

// Advance moves to the next mode in the cycle and returns it. After the last
// forecast horizon the cycle wraps back to CURRENT.
func (m *ModeMachine) Advance() DisplayMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index++
	if m.index > len(m.offsets) {
		m.index = 0
	}
	return m.modeLocked()
}

func (m *ModeMachine) modeLocked() DisplayMode {
	if m.index == 0 {
		return DisplayMode{Current: true}
	}
	return DisplayMode{OffsetHours: m.offsets[m.index-1]}
}
