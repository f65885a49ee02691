package gpost

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// ReviewSink is shown the generated text before it is returned and may
// return an edited replacement. Returning the text unchanged accepts it.
type ReviewSink interface {
	Review(ctx context.Context, text string) (string, error)
}

type exporter struct {
	logger *slog.Logger
	review ReviewSink
	now    func() time.Time
}

type Option func(*exporter)

func WithLogger(logger *slog.Logger) Option {
	return func(ex *exporter) {
		ex.logger = logger
	}
}

func WithReviewSink(sink ReviewSink) Option {
	return func(ex *exporter) {
		ex.review = sink
	}
}

// WithClock sets the source of the time written in the header.
func WithClock(now func() time.Time) Option {
	return func(ex *exporter) {
		ex.now = now
	}
}

// Export converts the objects of src into G-code text.
func Export(src PathSource, cfg Config, opts ...Option) (string, error) {
	return ExportContext(context.Background(), src, cfg, opts...)
}

// ExportContext is Export with a context, which is passed to the review sink.
// Every export uses its own emitter state, so independent exports may run
// concurrently.
func ExportContext(ctx context.Context, src PathSource, cfg Config,
	opts ...Option) (string, error) {
	ex := exporter{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&ex)
	}

	if err := cfg.Validate(); err != nil {
		return "", err
	}
	objects := src.Objects()
	for _, obj := range objects {
		if isNil(obj) {
			return "", &UnsupportedObjectError{Name: "<nil>"}
		}
		if !isPath(obj) {
			return "", &UnsupportedObjectError{Name: obj.Name()}
		}
	}

	ex.logger.Debug("export started", slog.String("machine", cfg.MachineName),
		slog.String("file", src.FileName()), slog.Int("objects", len(objects)))

	e := newEngine(&cfg, ex.logger)
	ex.header(e, src)

	e.writeLines(cfg.SafetyBlock)
	if cfg.OutputComments {
		if cfg.ListToolsInPreamble {
			for _, t := range src.Tools() {
				e.writeComment(fmt.Sprintf("T%d=%s", t.Number, t.Name))
			}
		}
		e.writeComment("Begin preamble")
	}
	e.writeLines(cfg.Preamble)
	ex.modes(e, cfg.Preamble)

	for _, obj := range objects {
		if !isActive(obj) {
			continue
		}
		ex.operation(e, obj)
	}

	returnTo, _ := cfg.returnTo()
	if returnTo != nil {
		words := []string{"G0", "X" + returnTo[0], "Y" + returnTo[1]}
		if len(returnTo) == 3 {
			words = append(words, "Z"+returnTo[2])
		}
		e.writeLine(e.join(words))
	}

	if cfg.OutputBCNC {
		ex.bcncBlock(e, "post_amble")
	}
	if cfg.OutputComments {
		e.writeComment("Begin postamble")
	}
	e.writeLines(cfg.ToolReturn)
	e.writeLines(cfg.SafetyBlock)
	e.writeLines(cfg.Postamble)

	text := e.out.String()
	ex.logger.Debug("export finished", slog.String("file", src.FileName()),
		slog.Int("lines", strings.Count(text, "\n")))

	if cfg.ShowEditor && ex.review != nil {
		if len(text) > cfg.EditorMaxSize {
			ex.logger.Warn("skipping review: output too large",
				slog.Int("size", len(text)), slog.Int("max", cfg.EditorMaxSize))
		} else {
			edited, err := ex.review.Review(ctx, text)
			if err != nil {
				return "", fmt.Errorf("gpost: review: %w", err)
			}
			text = edited
		}
	}

	if eol := cfg.LineEnding(); eol != "\n" {
		text = strings.ReplaceAll(text, "\n", eol)
	}
	return text, nil
}

func (ex *exporter) header(e *engine, src PathSource) {
	if !e.cfg.OutputHeader {
		return
	}

	file := "<None>"
	if src.FileName() != "" {
		file = filepath.Base(src.FileName())
	}
	e.writeComment("Exported by gpost")
	e.writeComment("Post Processor: " + e.cfg.MachineName)
	e.writeComment("Cam File: " + file)
	e.writeComment("Output Time: " + ex.now().Format("2006-01-02 15:04:05"))
}

func hasWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if w == word {
			return true
		}
	}
	return false
}

// modes writes the motion mode and units lines unless the preamble already
// sets them, in which case the preamble's choice is used from here on.
func (ex *exporter) modes(e *engine, preamble string) {
	if hasWord(preamble, "G90") {
		e.motionMode = "G90"
	} else if hasWord(preamble, "G91") {
		e.motionMode = "G91"
	} else {
		e.writeLine(e.motionMode)
	}

	if hasWord(preamble, "G21") {
		e.units = Metric
	} else if hasWord(preamble, "G20") {
		e.units = Imperial
	} else {
		e.writeLine(e.units.Code())
	}
}

func (ex *exporter) bcncBlock(e *engine, name string) {
	e.writeComment("Block-name: " + name)
	e.writeComment("Block-expand: 0")
	e.writeComment("Block-enable: 1")
}

func (ex *exporter) operation(e *engine, obj Object) {
	cfg := e.cfg

	if cfg.OutputBCNC {
		ex.bcncBlock(e, obj.Label())
	}
	if cfg.OutputComments {
		if cfg.ShowOperationLabels {
			e.writeComment("Begin operation: " + obj.Label())
		} else {
			e.writeComment("Begin operation")
		}
		if cfg.ShowMachineUnits {
			e.writeComment("Machine units: " + e.units.SpeedLabel())
		}
		if cfg.OutputMachineName {
			e.writeComment("Machine: " + cfg.MachineName + ", " + e.units.SpeedLabel())
		}
	}
	e.writeLines(cfg.PreOperation)

	coolant := coolantMode(obj)
	coolantOn := cfg.EnableCoolant && (coolant == "Flood" || coolant == "Mist")
	if coolantOn {
		if cfg.OutputComments {
			e.writeComment("Coolant On: " + coolant)
		}
		switch coolant {
		case "Flood":
			e.writeLine("M8")
		case "Mist":
			e.writeLine("M7")
		}
	}

	for _, step := range Flatten(obj, cfg.OutputComments && cfg.OutputPathLabels) {
		if step.IsLabel() {
			e.writeComment(step.Label)
		} else {
			e.emit(step.Command)
		}
	}

	if cfg.OutputComments {
		e.writeComment(cfg.FinishLabel + " operation: " + obj.Label())
	}
	e.writeLines(cfg.PostOperation)

	if coolantOn {
		if cfg.OutputComments {
			e.writeComment("Coolant Off: " + coolant)
		}
		e.writeLine("M9")
	}
}
