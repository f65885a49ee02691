package gpost

import (
	"strconv"
)

// Units is the unit system used for emitted values.
type Units int

const (
	Metric Units = iota
	Imperial
)

// UnitsFromCode maps G21 and G20 to a unit system.
func UnitsFromCode(code string) (Units, bool) {
	switch code {
	case "G21":
		return Metric, true
	case "G20":
		return Imperial, true
	}
	return Metric, false
}

func (u Units) Code() string {
	if u == Imperial {
		return "G20"
	}
	return "G21"
}

// SpeedLabel is the per-minute speed unit, used in comments.
func (u Units) SpeedLabel() string {
	if u == Imperial {
		return "in/min"
	}
	return "mm/min"
}

func (u Units) String() string {
	if u == Imperial {
		return "in"
	}
	return "mm"
}

// Length converts a length in millimeters to u.
func (u Units) Length(mm float64) float64 {
	if u == Imperial {
		return mm / mmPerInch
	}
	return mm
}

// Velocity converts a velocity in millimeters per second to u per minute.
func (u Units) Velocity(mmps float64) float64 {
	return u.Length(mmps * 60)
}

// FormatFixed formats v with exactly prec digits after the decimal point.
// strconv rounds to the nearest representable decimal, half to even.
func FormatFixed(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if isNegativeZero(s) {
		return s[1:]
	}
	return s
}

func isNegativeZero(s string) bool {
	if len(s) < 2 || s[0] != '-' {
		return false
	}
	for _, c := range s[1:] {
		if c != '0' && c != '.' {
			return false
		}
	}
	return true
}

// FormatLength formats a length held in millimeters.
func FormatLength(mm float64, u Units, prec int) string {
	return FormatFixed(u.Length(mm), prec)
}

// FormatVelocity formats a velocity held in millimeters per second as a
// per-minute value.
func FormatVelocity(mmps float64, u Units, prec int) string {
	return FormatFixed(u.Velocity(mmps), prec)
}

// formatDwell formats a time in seconds the way dwell words are written:
// the shortest form that round trips.
func formatDwell(sec float64) string {
	return strconv.FormatFloat(sec, 'g', -1, 64)
}
