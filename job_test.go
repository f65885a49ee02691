package gpost

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJobYAML = `
file: bracket.FCStd
tools:
  - {number: 1, name: 6mm endmill}
  - {number: 3, name: drill}
objects:
  - name: profile
    label: Profile
    coolant: Flood
    commands: |
      (profile)
      G0 X10 Y20 Z5
      G1 Z-1 F5
  - name: holes
    label: Holes
    children:
      - name: stock
        kind: stock
      - name: drill
        base: profile
        commands: G81 X1 Y1 Z-2 R1
      - name: off
        active: false
        commands: G0 X0
`

func TestReadJob(t *testing.T) {
	job, err := ReadJob(strings.NewReader(testJobYAML))
	require.NoError(t, err)

	assert.Equal(t, "bracket.FCStd", job.FileName())
	assert.Equal(t, []Tool{{Number: 1, Name: "6mm endmill"}, {Number: 3, Name: "drill"}},
		job.Tools())

	objects := job.Objects()
	require.Len(t, objects, 2)

	profile, ok := objects[0].(*Operation)
	require.True(t, ok)
	assert.Equal(t, "Profile", profile.Label())
	assert.Equal(t, "Flood", coolantMode(profile))
	require.Len(t, profile.Commands(), 3)
	assert.Equal(t, "(profile)", profile.Commands()[0].Name)
	assert.Equal(t, "G1 Z-1 F5", profile.Commands()[2].String())

	holes, ok := objects[1].(*Group)
	require.True(t, ok)
	children := holes.Children()
	require.Len(t, children, 3)
	assert.False(t, isPath(children[0]))
	assert.Equal(t, "Flood", coolantMode(children[1]))
	assert.False(t, isActive(children[2]))

	assert.Equal(t, "G81 X1 Y1 Z-2 R1", flatten(holes, false))
}

func TestReadJobErrors(t *testing.T) {
	cases := []string{
		"objects:\n  - label: nameless\n",
		"objects:\n  - name: a\n  - name: a\n",
		"objects:\n  - name: a\n    kind: fixture\n",
		"objects:\n  - name: a\n    base: missing\n",
		"objects:\n  - name: a\n    commands: G0 X1 X2\n",
		"objects:\n  - name: a\n    colour: red\n",
		"objects: [",
	}

	for _, c := range cases {
		if _, err := ReadJob(strings.NewReader(c)); err == nil {
			t.Errorf("ReadJob(%q) did not fail", c)
		}
	}
}

func TestReadJobEmpty(t *testing.T) {
	job, err := ReadJob(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, job.Objects())
}

func TestLoadJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.yaml")
	require.NoError(t, os.WriteFile(path, []byte("objects:\n  - name: a\n    commands: G0 X1\n"),
		0o644))

	job, err := LoadJob(path)
	require.NoError(t, err)
	assert.Equal(t, path, job.FileName())

	out, err := Export(job, Config{})
	assert.Error(t, err)
	assert.Empty(t, out)

	cfg := Default()
	cfg.EndOfLine = "lf"
	out, err = Export(job, cfg)
	require.NoError(t, err)
	assert.Equal(t, "G90\nG21\nG0 X1.000\n", out)

	_, err = LoadJob(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
