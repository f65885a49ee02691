package gpost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatLength(t *testing.T) {
	cases := []struct {
		mm    float64
		units Units
		prec  int
		s     string
	}{
		{mm: 25.4, units: Imperial, prec: 4, s: "1.0000"},
		{mm: 25.4, units: Metric, prec: 3, s: "25.400"},
		{mm: 10, units: Metric, prec: 2, s: "10.00"},
		{mm: 10, units: Metric, prec: 0, s: "10"},
		{mm: 1.0005, units: Metric, prec: 3, s: "1.000"},
		{mm: 0.125, units: Metric, prec: 2, s: "0.12"},
		{mm: -0.0001, units: Metric, prec: 3, s: "0.000"},
		{mm: -1.5, units: Metric, prec: 1, s: "-1.5"},
		{mm: 12.7, units: Imperial, prec: 3, s: "0.500"},
	}

	for _, c := range cases {
		s := FormatLength(c.mm, c.units, c.prec)
		if s != c.s {
			t.Errorf("FormatLength(%v, %s, %d): got %s want %s", c.mm, c.units, c.prec, s, c.s)
		}
	}
}

func TestFormatVelocity(t *testing.T) {
	assert.Equal(t, "7380.000", FormatVelocity(123, Metric, 3))
	assert.Equal(t, "290.5512", FormatVelocity(123, Imperial, 4))
	assert.Equal(t, "60.0", FormatVelocity(1, Metric, 1))
}

func TestUnits(t *testing.T) {
	u, ok := UnitsFromCode("G20")
	assert.True(t, ok)
	assert.Equal(t, Imperial, u)
	assert.Equal(t, "G20", u.Code())
	assert.Equal(t, "in/min", u.SpeedLabel())

	u, ok = UnitsFromCode("G21")
	assert.True(t, ok)
	assert.Equal(t, Metric, u)
	assert.Equal(t, "mm/min", u.SpeedLabel())

	_, ok = UnitsFromCode("G22")
	assert.False(t, ok)
}

func TestFormatDwell(t *testing.T) {
	assert.Equal(t, "1.23456", formatDwell(1.23456))
	assert.Equal(t, "2", formatDwell(2))
	assert.Equal(t, "0.5", formatDwell(0.5))
}
