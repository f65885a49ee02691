// Command gpost converts YAML job files into G-code.
//
//	gpost [--config file | --dialect name] [flags] [job.yaml ...]
//
// With no job files, a job is read from standard input. Jobs are exported
// concurrently; output is written in argument order.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leftmike/gpost"
	"github.com/leftmike/gpost/internal/cli"
	"github.com/leftmike/gpost/internal/review"
)

const version = "0.3.0"

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type options struct {
	config    string
	dialect   string
	output    string
	outputDir string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	var opts options
	var flags *cli.Flags

	root := &cobra.Command{
		Use:           "gpost [job.yaml ...]",
		Short:         "Convert tool path jobs into G-code",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
				&slog.HandlerOptions{Level: parseLevel(opts.logLevel)}))
			return run(cmd.Context(), logger, cmd.OutOrStdout(), opts, flags, args)
		},
	}
	root.SetVersionTemplate("gpost version {{.Version}}\n")

	fs := root.Flags()
	fs.StringVar(&opts.config, "config", "", "YAML configuration file")
	fs.StringVar(&opts.dialect, "dialect", "", "controller dialect; see gpost dialects")
	fs.StringVarP(&opts.output, "output", "o", "", "output file for a single job; - for stdout")
	fs.StringVar(&opts.outputDir, "output-dir", "", "directory for output files, one per job")
	fs.StringVar(&opts.logLevel, "log-level", os.Getenv("GPOST_LOG_LEVEL"),
		"log level: debug, info, warn or error")
	flags = cli.Register(fs)

	root.AddCommand(newDialectsCmd(), newOptionsCmd(), newUpdateCmd())
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gpost: %s\n", err)
		cancel()
		os.Exit(1)
	}
}

func loadConfig(opts options, flags *cli.Flags) (gpost.Config, error) {
	var cfg gpost.Config
	var err error
	switch {
	case opts.config != "" && opts.dialect != "":
		return gpost.Config{}, errors.New("use either --config or --dialect")
	case opts.config != "":
		cfg, err = gpost.LoadFile(opts.config)
	case opts.dialect != "":
		cfg, err = gpost.DialectConfig(opts.dialect)
	default:
		cfg, err = gpost.LoadEnv()
	}
	if err != nil {
		return gpost.Config{}, err
	}

	if err := flags.Apply(&cfg); err != nil {
		return gpost.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return gpost.Config{}, err
	}
	return cfg, nil
}

func loadJobs(paths []string) ([]*gpost.Job, error) {
	if len(paths) == 0 {
		job, err := gpost.ReadJob(os.Stdin)
		if err != nil {
			return nil, err
		}
		return []*gpost.Job{job}, nil
	}

	jobs := make([]*gpost.Job, 0, len(paths))
	for _, path := range paths {
		job, err := gpost.LoadJob(path)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func outputPath(dir, jobPath string, n int) string {
	base := strings.TrimSuffix(filepath.Base(jobPath), filepath.Ext(jobPath))
	if base == "" || base == "." {
		base = fmt.Sprintf("job%d", n+1)
	}
	return filepath.Join(dir, base+".nc")
}

func run(ctx context.Context, logger *slog.Logger, stdout io.Writer, opts options,
	flags *cli.Flags, paths []string) error {

	cfg, err := loadConfig(opts, flags)
	if err != nil {
		return err
	}
	if opts.output != "" && opts.outputDir != "" {
		return errors.New("use either --output or --output-dir")
	}
	if opts.output != "" && len(paths) > 1 {
		return errors.New("--output takes a single job; use --output-dir")
	}

	jobs, err := loadJobs(paths)
	if err != nil {
		return err
	}

	outs := make([]string, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.ShowEditor {
		// One review on the terminal at a time.
		g.SetLimit(1)
	}
	for i, job := range jobs {
		i, job := i, job // per-iteration copies (go directive is below 1.22)
		g.Go(func() error {
			exportOpts := []gpost.Option{
				gpost.WithLogger(logger.With(slog.String("job", job.FileName()))),
			}
			if cfg.ShowEditor {
				exportOpts = append(exportOpts,
					gpost.WithReviewSink(&review.Editor{Title: job.FileName()}))
			}

			out, err := gpost.ExportContext(gctx, job, cfg, exportOpts...)
			if err != nil {
				return fmt.Errorf("%s: %w", job.FileName(), err)
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	switch {
	case opts.outputDir != "":
		if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
			return err
		}
		for i, job := range jobs {
			path := outputPath(opts.outputDir, job.FileName(), i)
			if err := os.WriteFile(path, []byte(outs[i]), 0o644); err != nil {
				return err
			}
			logger.Info("wrote output", slog.String("job", job.FileName()),
				slog.String("path", path))
		}
	case opts.output != "" && opts.output != "-":
		if err := os.WriteFile(opts.output, []byte(outs[0]), 0o644); err != nil {
			return err
		}
		logger.Info("wrote output", slog.String("path", opts.output))
	default:
		return writeAll(stdout, outs)
	}
	return nil
}

func writeAll(w io.Writer, outs []string) error {
	for _, out := range outs {
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
	}
	return nil
}
