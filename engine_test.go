package gpost

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, logger *slog.Logger, settings map[string]string) *engine {
	t.Helper()
	cfg := Default()
	for name, value := range settings {
		require.NoError(t, cfg.Set(name, value))
	}
	require.NoError(t, cfg.Validate())
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return newEngine(&cfg, logger)
}

func TestEmitMessage(t *testing.T) {
	msg := NewCommand("message", Params{'X': 1})

	cases := []struct {
		settings map[string]string
		want     string
	}{
		{settings: nil, want: ""},
		{settings: map[string]string{"output_comments": "true"}, want: "X1.000\n"},
		{settings: map[string]string{"remove_messages": "false"}, want: "message X1.000\n"},
	}

	for _, c := range cases {
		e := testEngine(t, nil, c.settings)
		e.emit(msg)
		assert.Equal(t, c.want, e.out.String(), c.settings)
	}
}

func TestEmitPosition(t *testing.T) {
	e := testEngine(t, nil, nil)
	for _, cmd := range MustParseCommands("G0 X1 Y1 Z1\nG1 X2\nM3 S1000\nG91\nG0 X2 Y1\nG1 Z-3") {
		e.emit(cmd)
	}
	assert.Equal(t, Position{X: 4, Y: 2, Z: -2}, e.curPos)
	assert.Equal(t, "G91", e.motionMode)
	assert.Equal(t, "G1", e.lastCommand)
	assert.Equal(t, 1000.0, e.lastParams['S'])

	e = testEngine(t, nil, map[string]string{"motion_commands": "G1"})
	for _, cmd := range MustParseCommands("G0 X5\nG1 Y5") {
		e.emit(cmd)
	}
	assert.Equal(t, Position{Y: 5}, e.curPos)
}

func TestEmitAddedLines(t *testing.T) {
	cases := []struct {
		cmds     string
		settings map[string]string
		want     string
	}{
		{cmds: "M6 T2", want: "G43"},
		{cmds: "M6 T2", settings: map[string]string{"use_tlo": "false"}, want: "M6"},
		{cmds: "M3 S1000", settings: map[string]string{"spindle_wait": "2"}, want: "G4"},
		{cmds: "(MC_RUN_COMMAND: M42)",
			settings: map[string]string{"output_comments": "true",
				"enable_machine_specific_commands": "true"},
			want: "M42"},
	}

	for _, c := range cases {
		e := testEngine(t, nil, c.settings)
		for _, cmd := range MustParseCommands(c.cmds) {
			e.emit(cmd)
		}
		assert.Equal(t, c.want, e.lastCommand, c.cmds)
	}
}

func TestEmitRetractMode(t *testing.T) {
	e := testEngine(t, nil, nil)
	assert.Equal(t, "G98", e.retractMode)
	e.emit(NewCommand("G99", nil))
	assert.Equal(t, "G99", e.retractMode)
	assert.Equal(t, "G99\n", e.out.String())
}

func TestEmitWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	e := testEngine(t, logger, nil)
	e.emit(NewCommand("M6", nil))
	assert.Contains(t, buf.String(), "tool change without a tool number")
	assert.Equal(t, "M6\n", e.out.String())

	buf.Reset()
	e = testEngine(t, logger, map[string]string{"translate_drill_cycles": "true"})
	e.emit(NewCommand("G81", Params{'X': 1, 'Z': 5, 'R': 0}))
	assert.Contains(t, buf.String(), "drill cycle not translated")
	assert.Contains(t, buf.String(), "R less than Z")
}

func TestExpandDrillAtomic(t *testing.T) {
	e := testEngine(t, nil, map[string]string{"output_line_numbers": "true"})
	e.curPos = Position{X: 1, Y: 1, Z: 9}

	_, err := e.expandDrill("G83", Params{'Z': 0, 'R': 5})
	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "G83", cerr.Command)
	assert.Equal(t, Position{X: 1, Y: 1, Z: 9}, e.curPos)
	assert.Equal(t, 100, e.lineNumber)

	lines, err := e.expandDrill("G81", Params{'X': 2, 'Z': 0, 'R': 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"G0 X2.000 Y1.000", "G1 Z0.000", "G0 Z9.000"}, lines)
	assert.Equal(t, Position{X: 2, Y: 1, Z: 9}, e.curPos)
	assert.Equal(t, "G0", e.lastCommand)
	assert.Equal(t, 100, e.lineNumber)
}

func TestLeadingCode(t *testing.T) {
	cases := []struct {
		line, code string
	}{
		{"G0 Z5.000", "G0"},
		{"G1Z5.000", "G1"},
		{"G91", "G91"},
		{"M30", "M30"},
	}

	for _, c := range cases {
		if code := leadingCode(c.line); code != c.code {
			t.Errorf("leadingCode(%q): got %s want %s", c.line, code, c.code)
		}
	}
}

func TestMachineSpecific(t *testing.T) {
	e := testEngine(t, nil, map[string]string{"enable_machine_specific_commands": "true"})
	e.emit(NewCommand("(MC_RUN_COMMAND: M62 P1)", nil))
	assert.Equal(t, "", e.out.String())

	e = testEngine(t, nil, map[string]string{"enable_machine_specific_commands": "true",
		"output_comments": "true", "comment_symbol": ";"})
	e.emit(NewCommand("(MC_RUN_COMMAND: M62 P1)", nil))
	assert.Equal(t, ";MC_RUN_COMMAND: M62 P1\nM62 P1\n", e.out.String())
}
