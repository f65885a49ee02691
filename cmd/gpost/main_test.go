package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leftmike/gpost/internal/cli"
)

func testFlags(t *testing.T, args ...string) *cli.Flags {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := cli.Register(fs)
	require.NoError(t, fs.Parse(args))
	return flags
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(options{dialect: "grbl"}, testFlags(t, "--no-comments"))
	require.NoError(t, err)
	assert.Equal(t, "GRBL", cfg.MachineName)
	assert.False(t, cfg.OutputComments)

	path := filepath.Join(t.TempDir(), "gpost.yaml")
	require.NoError(t, os.WriteFile(path, []byte("machine_name: mill\n"), 0o644))
	cfg, err = loadConfig(options{config: path}, testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "mill", cfg.MachineName)

	_, err = loadConfig(options{config: path, dialect: "grbl"}, testFlags(t))
	assert.Error(t, err)
	_, err = loadConfig(options{dialect: "fanuc"}, testFlags(t))
	assert.Error(t, err)
	_, err = loadConfig(options{}, testFlags(t, "--set=units=G22"))
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "bracket.nc"), outputPath("out", "jobs/bracket.yaml", 0))
	assert.Equal(t, filepath.Join("out", "job2.nc"), outputPath("out", "", 1))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a", "b"} {
		path := filepath.Join(dir, name+".yaml")
		job := "objects:\n  - name: " + name + "\n    commands: G0 X1\n"
		require.NoError(t, os.WriteFile(path, []byte(job), 0o644))
		paths = append(paths, path)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	outDir := filepath.Join(dir, "out")
	err := run(context.Background(), logger, io.Discard, options{outputDir: outDir},
		testFlags(t, "--end_of_line_characters=lf", "--line-numbers"), paths)
	require.NoError(t, err)

	for _, name := range []string{"a", "b"} {
		buf, err := os.ReadFile(filepath.Join(outDir, name+".nc"))
		require.NoError(t, err)
		assert.Equal(t, "N100 G90\nN110 G21\nN120 G0 X1.000\n", string(buf))
	}

	err = run(context.Background(), logger, io.Discard, options{output: "x.nc"}, testFlags(t),
		paths)
	assert.Error(t, err)

	var buf bytes.Buffer
	err = run(context.Background(), logger, &buf, options{dialect: "grbl"},
		testFlags(t, "--no-comments", "--no-header", "--set=end_of_line=lf"), paths)
	require.NoError(t, err)
	assert.Equal(t, "G17 G90\nG21\nG0 X1.000\nM5\nG17 G90\nM2\n"+
		"G17 G90\nG21\nG0 X1.000\nM5\nG17 G90\nM2\n", buf.String())
}

func TestRootCmd(t *testing.T) {
	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetArgs([]string{"dialects"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "linuxcnc")
	assert.Contains(t, buf.String(), `machine_name="GRBL"`)

	buf.Reset()
	root = newRootCmd()
	root.SetOut(&buf)
	root.SetArgs([]string{"options"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "chipbreaking_amount")

	buf.Reset()
	root = newRootCmd()
	root.SetOut(&buf)
	root.SetArgs([]string{"--version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "gpost version "+version+"\n", buf.String())

	root = newRootCmd()
	root.SetArgs([]string{"--dialect=fanuc", "job.yaml"})
	assert.Error(t, root.Execute())
}

func TestWriteAll(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAll(&buf, []string{"G90\n", "M2\n"}))
	assert.Equal(t, "G90\nM2\n", buf.String())
}
