package gpost

import (
	"log/slog"
	"math"
)

// Fraction of the peck step left as clearance when rapiding back down to the
// bottom of the hole.
const peckClearance = 0.05

// translateDrill expands a canned drilling cycle into G0/G1 moves. Only Z
// drilling in the XY plane is handled. words is the formatted original
// command, written as a comment ahead of the expansion.
func (e *engine) translateDrill(command string, params Params, words []string) {
	if e.cfg.OutputComments {
		e.writeComment(e.join(words))
	}

	lines, err := e.expandDrill(command, params)
	if err != nil {
		e.logger.Warn("drill cycle not translated", slog.String("command", command),
			slog.String("error", err.Error()))
		e.writeComment(err.Error())
		return
	}
	for _, line := range lines {
		e.writeLine(line)
	}
}

type drillCycle struct {
	x, y, z, r float64
	feed       string
	step       float64
	dwell      float64
}

func (e *engine) drillParams(command string, params Params) (drillCycle, error) {
	var dc drillCycle

	z, ok := params.Get('Z')
	if !ok {
		return dc, &CycleError{Command: command, Reason: "missing Z"}
	}
	r, ok := params.Get('R')
	if !ok {
		return dc, &CycleError{Command: command, Reason: "missing R"}
	}
	if r < z {
		return dc, &CycleError{Command: command, Reason: "R less than Z"}
	}
	dc.z, dc.r = z, r

	if e.motionMode == "G91" {
		dc.x = e.curPos.X + params['X']
		dc.y = e.curPos.Y + params['Y']
		dc.z += e.curPos.Z
		dc.r += e.curPos.Z
	} else {
		dc.x, dc.y = e.curPos.X, e.curPos.Y
		if x, ok := params.Get('X'); ok {
			dc.x = x
		}
		if y, ok := params.Get('Y'); ok {
			dc.y = y
		}
	}

	if e.retractMode == "G98" && e.curPos.Z >= dc.r {
		dc.r = e.curPos.Z
	}

	if f, ok := params.Get('F'); ok && e.units.Velocity(f) > 0 {
		dc.feed = "F" + e.velocity(f)
	}

	switch command {
	case "G73", "G83":
		q, ok := params.Get('Q')
		if !ok {
			return dc, &CycleError{Command: command, Reason: "missing Q"}
		}
		if q < 0 {
			return dc, &CycleError{Command: command, Reason: "Q less than zero"}
		}
		dc.step = q
	case "G82":
		p, ok := params.Get('P')
		if !ok {
			return dc, &CycleError{Command: command, Reason: "missing P"}
		}
		dc.dwell = p
	}
	return dc, nil
}

func (e *engine) feedMove(z float64, feed string) string {
	words := []string{"G1", "Z" + e.length(z)}
	if feed != "" {
		words = append(words, feed)
	}
	return e.join(words)
}

func (e *engine) rapidZ(z float64) string {
	return e.join([]string{"G0", "Z" + e.length(z)})
}

// expandDrill returns the lines replacing a drill cycle; nothing is written
// unless the whole expansion succeeds.
func (e *engine) expandDrill(command string, params Params) ([]string, error) {
	dc, err := e.drillParams(command, params)
	if err != nil {
		return nil, err
	}

	var lines []string
	relative := e.motionMode == "G91"
	if relative {
		lines = append(lines, "G90")
	}

	if e.curPos.Z < dc.r {
		lines = append(lines, e.rapidZ(dc.r))
	}
	lines = append(lines, e.join([]string{"G0", "X" + e.length(dc.x), "Y" + e.length(dc.y)}))
	if e.curPos.Z > dc.r {
		// A rapid could hit the work when the retract plane is below the
		// surface.
		lines = append(lines, e.feedMove(dc.r, dc.feed))
	}

	switch command {
	case "G81", "G82":
		lines = append(lines, e.feedMove(dc.z, dc.feed))
		if command == "G82" {
			lines = append(lines, e.join([]string{"G4", "P" + formatDwell(dc.dwell)}))
		}
		lines = append(lines, e.rapidZ(dc.r))
	case "G73", "G83":
		lines = append(lines, e.peck(command, dc)...)
	default:
		return nil, &CycleError{Command: command, Reason: "not a drill cycle"}
	}

	if relative {
		lines = append(lines, "G91")
	}

	e.curPos = Position{X: dc.x, Y: dc.y, Z: dc.r}
	e.lastParams['X'] = dc.x
	e.lastParams['Y'] = dc.y
	e.lastParams['Z'] = dc.r
	e.lastCommand = leadingCode(lines[len(lines)-1])
	return lines, nil
}

// peck feeds down one step at a time. G83 retracts to R after every step;
// G73 only backs off by the chip breaking amount.
func (e *engine) peck(command string, dc drillCycle) []string {
	var lines []string
	if dc.step == 0 {
		return lines
	}

	// ceil(depth/step) passes; the last one feeds exactly to Z.
	n := int(math.Ceil((dc.r-dc.z)/dc.step - 1e-9))
	if n < 1 {
		n = 1
	}
	clearance := dc.step * peckClearance
	for i := 1; i <= n; i++ {
		if i > 1 {
			lines = append(lines, e.rapidZ(dc.r-float64(i-1)*dc.step+clearance))
		}
		if i == n {
			lines = append(lines, e.feedMove(dc.z, dc.feed))
			lines = append(lines, e.rapidZ(dc.r))
			break
		}
		next := dc.r - float64(i)*dc.step
		lines = append(lines, e.feedMove(next, dc.feed))
		if command == "G73" {
			lines = append(lines, e.rapidZ(next+e.cfg.ChipbreakingAmount))
		} else {
			lines = append(lines, e.rapidZ(dc.r))
		}
	}
	return lines
}

// leadingCode returns the command word at the start of line, such as G0.
func leadingCode(line string) string {
	n := 1
	for n < len(line) && line[n] >= '0' && line[n] <= '9' {
		n += 1
	}
	return line[:n]
}
