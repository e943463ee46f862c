// Package timewindow holds the dashboard-wide reporting interval.
//
// A Window is an immutable value: one of the enumerated presets, or an
// explicit UTC range. Selection changes replace the value wholesale through
// Store.Replace, so readers observe either the old window or the new one,
// never a mix of both.
package timewindow

import (
	"fmt"
	"strings"
	"time"
)

// Preset is one of the fixed reporting intervals offered by the dashboard.
type Preset string

const (
	LastHour    Preset = "1h"
	Last6Hours  Preset = "6h"
	Last24Hours Preset = "24h"
	Last7Days   Preset = "7d"
	Last30Days  Preset = "30d"
)

var presetDurations = map[Preset]time.Duration{
	LastHour:    time.Hour,
	Last6Hours:  6 * time.Hour,
	Last24Hours: 24 * time.Hour,
	Last7Days:   7 * 24 * time.Hour,
	Last30Days:  30 * 24 * time.Hour,
}

// Presets lists the known presets in display order.
func Presets() []Preset {
	return []Preset{LastHour, Last6Hours, Last24Hours, Last7Days, Last30Days}
}

// Window is a selected reporting interval. The zero value is not valid;
// build one with FromPreset or Between.
type Window struct {
	preset Preset
	start  time.Time
	end    time.Time
}

func FromPreset(p Preset) (Window, error) {
	if _, ok := presetDurations[p]; !ok {
		return Window{}, fmt.Errorf("unknown window preset '%s'", p)
	}
	return Window{preset: p}, nil
}

func Between(start, end time.Time) (Window, error) {
	if start.IsZero() || end.IsZero() {
		return Window{}, fmt.Errorf("window bounds must both be set")
	}
	if !end.After(start) {
		return Window{}, fmt.Errorf("window end %s is not after start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Window{start: start.UTC(), end: end.UTC()}, nil
}

// Parse is the inverse of String: a preset name, or an explicit
// "start..end" pair of RFC 3339 instants.
func Parse(s string) (Window, error) {
	if !strings.Contains(s, "..") {
		return FromPreset(Preset(s))
	}
	bounds := strings.SplitN(s, "..", 2)
	start, err := time.Parse(time.RFC3339, bounds[0])
	if err != nil {
		return Window{}, fmt.Errorf("invalid window start '%s': %w", bounds[0], err)
	}
	end, err := time.Parse(time.RFC3339, bounds[1])
	if err != nil {
		return Window{}, fmt.Errorf("invalid window end '%s': %w", bounds[1], err)
	}
	return Between(start, end)
}

// AsPreset reports the preset when the window is one.
func (w Window) AsPreset() (Preset, bool) {
	return w.preset, w.preset != ""
}

// Explicit reports the explicit bounds when the window has them.
func (w Window) Explicit() (start, end time.Time, ok bool) {
	return w.start, w.end, w.preset == ""
}

// Bounds resolves the window against a reference instant. Presets count
// back from now; explicit windows return their own pair.
func (w Window) Bounds(now time.Time) (start, end time.Time) {
	if w.preset != "" {
		return now.Add(-presetDurations[w.preset]), now
	}
	return w.start, w.end
}

func (w Window) Equal(other Window) bool {
	return w.preset == other.preset &&
		w.start.Equal(other.start) &&
		w.end.Equal(other.end)
}

func (w Window) String() string {
	if w.preset != "" {
		return string(w.preset)
	}
	return w.start.Format(time.RFC3339) + ".." + w.end.Format(time.RFC3339)
}
