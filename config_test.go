package gpost

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gpost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "G21", cfg.Units)
	assert.Equal(t, Metric, cfg.UnitSystem())
	assert.Equal(t, 3, cfg.AxisPrecision)
	assert.Equal(t, 3, cfg.FeedPrecision)
	assert.Equal(t, "(", cfg.CommentSymbol)
	assert.Equal(t, " ", cfg.CommandSpace)
	assert.False(t, cfg.OutputLineNumbers)
	assert.False(t, cfg.Modal)
	assert.True(t, cfg.OutputDoubles)
	assert.True(t, cfg.UseTLO)
	assert.False(t, cfg.EnableCoolant)
	assert.False(t, cfg.TranslateDrillCycles)
	assert.Equal(t, 100, cfg.LineNumberStart)
	assert.Equal(t, 10, cfg.LineNumberIncrement)
	assert.Equal(t, 0.25, cfg.ChipbreakingAmount)
	assert.Equal(t, []string{"G0", "G00"}, cfg.RapidMoves)
	assert.Empty(t, cfg.SuppressCommands)
	assert.Equal(t, 100000, cfg.EditorMaxSize)
}

func TestDefaultIgnoresEnv(t *testing.T) {
	t.Setenv("GPOST_AXIS_PRECISION", "5")
	assert.Equal(t, 3, Default().AxisPrecision)
}

func TestSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("axis_precision", "2"))
	assert.Equal(t, 2, cfg.AxisPrecision)
	require.NoError(t, cfg.Set("modal", "true"))
	assert.True(t, cfg.Modal)
	require.NoError(t, cfg.Set("spindle_wait", "1.5"))
	assert.Equal(t, 1.5, cfg.SpindleWait)
	require.NoError(t, cfg.Set("parameter_order", "X Y, Z"))
	assert.Equal(t, []string{"X", "Y", "Z"}, cfg.ParameterOrder)
	require.NoError(t, cfg.Set("command_space", ""))
	assert.Equal(t, "", cfg.CommandSpace)
	require.NoError(t, cfg.Set("preamble", `G17\nG90`))
	assert.Equal(t, "G17\nG90", cfg.Preamble)
	require.NoError(t, cfg.Set("chipbreaking_amount", "1.23456 mm"))
	assert.Equal(t, 1.23456, cfg.ChipbreakingAmount)
	require.NoError(t, cfg.Set("chipbreaking_amount", "0.1 in"))
	assert.InDelta(t, 2.54, cfg.ChipbreakingAmount, 1e-9)

	s, err := cfg.Get("parameter_order")
	require.NoError(t, err)
	assert.Equal(t, "X,Y,Z", s)
}

func TestSetErrors(t *testing.T) {
	cases := []struct {
		name, value string
	}{
		{"no_such_option", "1"},
		{"axis_precision", "three"},
		{"modal", "maybe"},
		{"spindle_wait", "x"},
		{"chipbreaking_amount", "1 furlong"},
	}

	for _, c := range cases {
		cfg := Default()
		err := cfg.Set(c.name, c.value)
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Errorf("Set(%s, %s): got %v want ConfigError", c.name, c.value, err)
		} else if cerr.Option != c.name {
			t.Errorf("Set(%s, %s): got option %s", c.name, c.value, cerr.Option)
		}
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name, value string
		fail        bool
	}{
		{name: "units", value: "G20"},
		{name: "units", value: "inches", fail: true},
		{name: "end_of_line", value: "crlf"},
		{name: "end_of_line", value: "\n", fail: true},
		{name: "motion_mode", value: "G91"},
		{name: "motion_mode", value: "G92", fail: true},
		{name: "drill_retract_mode", value: "G99"},
		{name: "drill_retract_mode", value: "G97", fail: true},
		{name: "comment_symbol", value: ";"},
		{name: "comment_symbol", value: "", fail: true},
		{name: "axis_precision", value: "-1", fail: true},
		{name: "line_number_increment", value: "0", fail: true},
		{name: "spindle_wait", value: "-1", fail: true},
		{name: "parameter_order", value: "X,Y,E", fail: true},
		{name: "parameter_order", value: "X,X", fail: true},
		{name: "integer_params", value: "T,XY", fail: true},
		{name: "return_to", value: "0,0,0"},
		{name: "return_to", value: "12,34"},
		{name: "return_to", value: "12", fail: true},
		{name: "return_to", value: "a,b", fail: true},
	}

	for _, c := range cases {
		cfg := Default()
		require.NoError(t, cfg.Set(c.name, c.value))
		err := cfg.Validate()
		if c.fail && err == nil {
			t.Errorf("Validate(%s=%q) did not fail", c.name, c.value)
		} else if !c.fail && err != nil {
			t.Errorf("Validate(%s=%q) failed with %s", c.name, c.value, err)
		}
	}
}

func TestLineEnding(t *testing.T) {
	cfg := Default()
	for eol, want := range map[string]string{"lf": "\n", "crlf": "\r\n", "cr": "\r"} {
		cfg.EndOfLine = eol
		assert.Equal(t, want, cfg.LineEnding())
	}
}

func TestOptions(t *testing.T) {
	names := Options()
	assert.Contains(t, names, "translate_drill_cycles")
	assert.Contains(t, names, "chipbreaking_amount")

	cfg := Default()
	for _, name := range names {
		_, err := cfg.Get(name)
		assert.NoError(t, err, name)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeYAML(t, `
units: G20
axis_precision: 0
output_doubles: false
use_tlo: false
parameter_order: [X, Y, Z, F]
preamble: |
  G17
  G90
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Imperial, cfg.UnitSystem())
	assert.Equal(t, 0, cfg.AxisPrecision)
	assert.False(t, cfg.OutputDoubles)
	assert.False(t, cfg.UseTLO)
	assert.Equal(t, []string{"X", "Y", "Z", "F"}, cfg.ParameterOrder)
	assert.Equal(t, "G17\nG90\n", cfg.Preamble)
	assert.Equal(t, 3, cfg.FeedPrecision)
	assert.True(t, cfg.OutputToolChange)
}

func TestLoadFileEnvOverrides(t *testing.T) {
	path := writeYAML(t, "axis_precision: 2\nmodal: false\n")
	t.Setenv("GPOST_AXIS_PRECISION", "5")
	t.Setenv("GPOST_MODAL", "true")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.AxisPrecision)
	assert.True(t, cfg.Modal)
}

func TestLoadFileUnknownKey(t *testing.T) {
	path := writeYAML(t, "axis_precision: 2\nlaser_power: 11\n")

	_, err := LoadFile(path)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "laser_power", cerr.Option)
}

func TestLoadFileInvalid(t *testing.T) {
	path := writeYAML(t, "units: G22\n")
	_, err := LoadFile(path)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("GPOST_OUTPUT_LINE_NUMBERS", "true")
	t.Setenv("GPOST_LINE_NUMBER_START", "10")

	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.True(t, cfg.OutputLineNumbers)
	assert.Equal(t, 10, cfg.LineNumberStart)
	assert.Equal(t, 10, cfg.LineNumberIncrement)
	assert.Equal(t, Default().ParameterOrder, cfg.ParameterOrder)
}
