package gpost

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	mmPerInch = 25.4
)

// Letter is a single parameter key of a command.
type Letter byte

// The full parameter alphabet; keys outside of it are never emitted.
const Alphabet = "XYZABCUVWIJKFSTHDQRLP"

func (l Letter) Valid() bool {
	return l != 0 && strings.IndexByte(Alphabet, byte(l)) >= 0
}

func (l Letter) String() string {
	return string(rune(l))
}

// Params maps parameter letters to values in canonical units: millimeters
// for lengths and millimeters per second for feeds.
type Params map[Letter]float64

func (p Params) Has(l Letter) bool {
	_, ok := p[l]
	return ok
}

func (p Params) Get(l Letter) (float64, bool) {
	v, ok := p[l]
	return v, ok
}

// Command is a single motion, spindle, tool or comment instruction.
type Command struct {
	Name   string
	Params Params
}

// NewCommand returns a command holding a copy of params; keys outside of the
// alphabet are dropped.
func NewCommand(name string, params Params) Command {
	cmd := Command{Name: name, Params: Params{}}
	for l, v := range params {
		if l.Valid() {
			cmd.Params[l] = v
		}
	}
	return cmd
}

// IsComment returns true for commands whose name is a parenthesized comment.
func (c Command) IsComment() bool {
	return strings.HasPrefix(c.Name, "(")
}

func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Name)

	letters := make([]Letter, 0, len(c.Params))
	for l := range c.Params {
		letters = append(letters, l)
	}
	sort.Slice(letters, func(i, j int) bool {
		return strings.IndexByte(Alphabet, byte(letters[i])) <
			strings.IndexByte(Alphabet, byte(letters[j]))
	})
	for _, l := range letters {
		fmt.Fprintf(&b, " %c%s", l, strconv.FormatFloat(c.Params[l], 'f', -1, 64))
	}
	return b.String()
}

// Position is a tracked absolute machine position in canonical units.
type Position struct {
	X, Y, Z float64
}

func (pos Position) String() string {
	return fmt.Sprintf("{x: %g, y: %g, z: %g}", pos.X, pos.Y, pos.Z)
}
