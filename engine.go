package gpost

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var machineSpecificRE = regexp.MustCompile(`^\(MC_RUN_COMMAND: ([^)]+)\)$`)

func stringSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func isSpindleOn(command string) bool {
	switch command {
	case "M3", "M03", "M4", "M04":
		return true
	}
	return false
}

func isToolChange(command string) bool {
	return command == "M6" || command == "M06"
}

// engine holds everything that changes while one export is emitted. It is
// owned by a single export and updated strictly in command order.
type engine struct {
	cfg    *Config
	logger *slog.Logger
	out    strings.Builder

	units       Units
	motionMode  string // G90 or G91
	retractMode string // G98 or G99
	lineNumber  int

	lastCommand string
	haveLast    bool
	lastParams  Params
	curPos      Position

	order    []Letter
	integer  map[Letter]bool
	motion   map[string]bool
	rapid    map[string]bool
	drill    map[string]bool
	suppress map[string]bool
}

func newEngine(cfg *Config, logger *slog.Logger) *engine {
	e := &engine{
		cfg:         cfg,
		logger:      logger,
		units:       cfg.UnitSystem(),
		motionMode:  cfg.MotionMode,
		retractMode: cfg.DrillRetractMode,
		lineNumber:  cfg.LineNumberStart,
		lastParams:  Params{},
		integer:     map[Letter]bool{},
		motion:      stringSet(cfg.MotionCommands),
		rapid:       stringSet(cfg.RapidMoves),
		drill:       stringSet(cfg.DrillCyclesToTranslate),
		suppress:    stringSet(cfg.SuppressCommands),
	}
	for _, k := range cfg.ParameterOrder {
		e.order = append(e.order, Letter(k[0]))
	}
	for _, k := range cfg.IntegerParams {
		e.integer[Letter(k[0])] = true
	}
	if cfg.TranslateDrillCycles {
		for _, c := range []string{"G99", "G98", "G80"} {
			e.suppress[c] = true
		}
	}
	return e
}

func (e *engine) nextLineNumber(space string) string {
	if !e.cfg.OutputLineNumbers {
		return ""
	}
	n := e.lineNumber
	e.lineNumber += e.cfg.LineNumberIncrement
	return "N" + strconv.Itoa(n) + space
}

func (e *engine) writeLine(line string) {
	e.out.WriteString(e.nextLineNumber(e.cfg.CommandSpace))
	e.out.WriteString(line)
	e.out.WriteByte('\n')
}

// writeCode writes a line the engine adds on its own and makes its command
// the one later commands are compared against in modal output.
func (e *engine) writeCode(line string) {
	e.writeLine(line)
	if line == "" {
		return
	}
	if code := leadingCode(line); len(code) > 1 {
		e.lastCommand = code
		e.haveLast = true
	}
}

func (e *engine) writeCodes(block string) {
	if block == "" {
		return
	}
	block = strings.ReplaceAll(block, "\r\n", "\n")
	for _, line := range strings.Split(strings.TrimSuffix(block, "\n"), "\n") {
		e.writeCode(line)
	}
}

func (e *engine) writeLines(block string) {
	if block == "" {
		return
	}
	block = strings.ReplaceAll(block, "\r\n", "\n")
	for _, line := range strings.Split(strings.TrimSuffix(block, "\n"), "\n") {
		e.writeLine(line)
	}
}

func (e *engine) comment(text string) string {
	if e.cfg.CommentSymbol == "(" {
		return "(" + text + ")"
	}
	return e.cfg.CommentSymbol + text
}

func (e *engine) writeComment(text string) {
	e.writeLine(e.comment(text))
}

// rewriteComment converts a parenthesized comment to a single character
// comment symbol; longer symbols leave the comment as it is.
func (e *engine) rewriteComment(s string) string {
	if len(e.cfg.CommentSymbol) != 1 {
		return s
	}
	s = strings.ReplaceAll(s, "(", e.cfg.CommentSymbol)
	return strings.ReplaceAll(s, ")", "")
}

func (e *engine) join(words []string) string {
	return strings.Join(words, e.cfg.CommandSpace)
}

func (e *engine) length(mm float64) string {
	return FormatLength(mm, e.units, e.cfg.AxisPrecision)
}

func (e *engine) velocity(mmps float64) string {
	return FormatVelocity(mmps, e.units, e.cfg.FeedPrecision)
}

func (e *engine) isDouble(l Letter, v float64) bool {
	if e.cfg.OutputDoubles {
		return false
	}
	last, ok := e.lastParams[l]
	return ok && last == v
}

// paramWords formats the parameters of cmd in parameter order.
func (e *engine) paramWords(cmd Command) []string {
	var words []string
	for _, l := range e.order {
		v, ok := cmd.Params.Get(l)
		if !ok {
			continue
		}

		switch {
		case l == 'F':
			if e.rapid[cmd.Name] || e.isDouble(l, v) {
				continue
			}
			if e.units.Velocity(v) > 0 {
				words = append(words, "F"+e.velocity(v))
			}
		case e.integer[l]:
			words = append(words, l.String()+strconv.Itoa(int(v)))
		case l == 'S':
			words = append(words, "S"+FormatFixed(v, e.cfg.SpindleDecimals))
		default:
			if e.isDouble(l, v) {
				continue
			}
			words = append(words, l.String()+e.length(v))
		}
	}
	return words
}

func (e *engine) trackPosition(cmd Command) {
	pos := [3]*float64{&e.curPos.X, &e.curPos.Y, &e.curPos.Z}
	for i, l := range []Letter{'X', 'Y', 'Z'} {
		v, ok := cmd.Params.Get(l)
		if !ok {
			continue
		}
		if e.motionMode == "G91" {
			*pos[i] += v
		} else {
			*pos[i] = v
		}
	}
}

// emit formats one command and writes the resulting lines.
func (e *engine) emit(cmd Command) {
	command := cmd.Name
	if cmd.IsComment() {
		if !e.cfg.OutputComments {
			return
		}
		if e.cfg.CommentSymbol != "(" {
			command = e.rewriteComment(command)
		}
	}

	words := []string{command}
	haveToken := true
	if e.cfg.Modal && e.haveLast && command == e.lastCommand {
		words = words[:0]
		haveToken = false
	}
	words = append(words, e.paramWords(cmd)...)

	e.lastCommand = command
	e.haveLast = true
	for l, v := range cmd.Params {
		e.lastParams[l] = v
	}

	if e.motion[command] {
		e.trackPosition(cmd)
	}
	switch command {
	case "G98", "G99":
		e.retractMode = command
	case "G90", "G91":
		e.motionMode = command
	}

	if e.cfg.TranslateDrillCycles && e.drill[command] {
		e.translateDrill(command, cmd.Params, words)
		words = nil
	}

	if e.cfg.SpindleWait > 0 && isSpindleOn(command) && len(words) > 0 {
		e.writeLine(e.join(words))
		e.writeCode(e.join([]string{"G4", "P" + formatDwell(e.cfg.SpindleWait)}))
		words = nil
	}

	if isToolChange(command) {
		if e.cfg.OutputComments {
			e.writeComment("Begin toolchange")
		}
		if e.cfg.OutputToolChange {
			if e.cfg.StopSpindleForToolChange {
				e.writeCode("M5")
			}
			e.writeCodes(e.cfg.ToolChange)
			if !haveToken && e.lastCommand != command {
				words = append([]string{command}, words...)
				haveToken = true
			}
			e.lastCommand = command
		} else {
			if e.cfg.OutputComments {
				e.writeComment(e.join(words))
			}
			words = nil
		}
	}

	if command == "message" && e.cfg.RemoveMessages {
		if !e.cfg.OutputComments {
			return
		}
		if haveToken && len(words) > 0 {
			words = words[1:]
		}
	}

	if e.suppress[command] {
		if e.cfg.OutputComments {
			e.writeComment(e.join(words))
		}
		words = nil
	}

	if len(words) > 0 {
		e.writeLine(e.join(words))
	}

	if isToolChange(command) && e.cfg.UseTLO {
		if t, ok := cmd.Params.Get('T'); ok {
			e.writeCode("G43 H" + strconv.Itoa(int(t)))
		} else {
			e.logger.Warn("tool change without a tool number", slog.String("command", cmd.String()))
		}
	}

	if e.cfg.EnableMachineSpecific {
		if m := machineSpecificRE.FindStringSubmatch(cmd.Name); m != nil {
			e.writeCode(m[1])
		}
	}
}
