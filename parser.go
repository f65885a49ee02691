package gpost

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
)

// Parser reads commands written as G-code text, one command per line:
//
//	G0 X10 Y20 Z30
//	(a comment)
//	M6 T2
//
// Values are taken as canonical units; no unit conversion is applied.
type Parser struct {
	Scanner io.ByteScanner

	physicalLine int
	column       int
	eof          bool
}

func NewParser(r io.Reader) *Parser {
	if bs, ok := r.(io.ByteScanner); ok {
		return &Parser{Scanner: bs, physicalLine: 1}
	}
	return &Parser{Scanner: bufio.NewReader(r), physicalLine: 1}
}

// ParseCommand parses a single command such as "G0 X10 Y20".
func ParseCommand(s string) (Command, error) {
	p := NewParser(strings.NewReader(s))
	cmd, err := p.Parse()
	if err == io.EOF {
		return Command{}, fmt.Errorf("gpost: no command in %q", s)
	} else if err != nil {
		return Command{}, err
	}
	if _, err := p.Parse(); err != io.EOF {
		return Command{}, fmt.Errorf("gpost: more than one command in %q", s)
	}
	return cmd, nil
}

// ParseCommands parses every command in r.
func ParseCommands(r io.Reader) ([]Command, error) {
	p := NewParser(r)
	var cmds []Command
	for {
		cmd, err := p.Parse()
		if err == io.EOF {
			return cmds, nil
		} else if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
}

// MustParseCommands is ParseCommands over a string; it panics on error.
func MustParseCommands(s string) []Command {
	cmds, err := ParseCommands(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return cmds
}

// Parse returns the next command, or io.EOF.
func (p *Parser) Parse() (cmd Command, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); ok {
				panic(r)
			}
			err = r.(error)
			cmd = Command{}
		}
	}()

	for {
		if p.eof {
			return Command{}, io.EOF
		}
		p.skipBlank()
		b := p.readByte()
		switch {
		case b == '\n':
			p.newLine()
		case b == ';' || b == '%':
			p.skipLine()
		case b == '(':
			return Command{Name: p.parseComment(), Params: Params{}}, nil
		case isLetter(b):
			p.unreadByte()
			return p.parseCode(), nil
		default:
			p.error(fmt.Sprintf("unexpected character: %q", b))
		}
	}
}

func (p *Parser) error(msg string) {
	panic(fmt.Errorf("gpost: %s: %s", p.where(), msg))
}

func (p *Parser) where() string {
	return fmt.Sprintf("%d:%d", p.physicalLine, p.column)
}

func (p *Parser) readByte() byte {
	if p.eof {
		return '\n'
	}
	b, err := p.Scanner.ReadByte()
	if err == io.EOF {
		p.eof = true
		return '\n'
	} else if err != nil {
		p.error(err.Error())
	}
	if b == '\r' {
		b = '\n'
	}
	p.column += 1
	return b
}

func (p *Parser) unreadByte() {
	if p.eof {
		return
	}
	err := p.Scanner.UnreadByte()
	if err != nil {
		p.error(err.Error())
	}
	p.column -= 1
}

func (p *Parser) newLine() {
	p.physicalLine += 1
	p.column = 0
}

func (p *Parser) skipBlank() {
	for {
		b := p.readByte()
		if b != ' ' && b != '\t' {
			p.unreadByte()
			return
		}
	}
}

func (p *Parser) skipLine() {
	for {
		if p.readByte() == '\n' {
			p.newLine()
			return
		}
	}
}

func (p *Parser) parseComment() string {
	var b strings.Builder
	b.WriteByte('(')
	for {
		c := p.readByte()
		if c == '\n' {
			p.error("unterminated comment")
		}
		b.WriteByte(c)
		if c == ')' {
			return b.String()
		}
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func isLower(b byte) bool {
	return b >= 'a' && b <= 'z'
}

func (p *Parser) parseWord() (byte, string) {
	letter := upper(p.readByte())
	return letter, p.parseNumber(letter)
}

func (p *Parser) parseNumber(letter byte) string {
	p.skipBlank()

	var num strings.Builder
	for {
		b := p.readByte()
		if (b >= '0' && b <= '9') || b == '.' || b == '-' || b == '+' {
			num.WriteByte(b)
		} else {
			p.unreadByte()
			break
		}
	}
	if num.Len() == 0 {
		p.error(fmt.Sprintf("expected a number after %c", letter))
	}
	return num.String()
}

// parseName reads the rest of a lowercase command name such as message.
func (p *Parser) parseName(prefix string) string {
	var name strings.Builder
	name.WriteString(prefix)
	for {
		b := p.readByte()
		if isLower(b) || b == '_' {
			name.WriteByte(b)
		} else {
			p.unreadByte()
			return name.String()
		}
	}
}

func (p *Parser) parseCode() Command {
	var cmd Command
	b := p.readByte()
	if isLower(b) {
		if c := p.readByte(); isLower(c) {
			cmd.Name = p.parseName(string([]byte{b, c}))
		} else {
			p.unreadByte()
		}
	}
	if cmd.Name == "" {
		letter := upper(b)
		num := p.parseNumber(letter)
		if _, err := strconv.ParseFloat(num, 64); err != nil {
			p.error(fmt.Sprintf("bad command number: %c%s", letter, num))
		}
		cmd.Name = string(letter) + num
	}
	cmd.Params = Params{}

	for {
		p.skipBlank()
		b := p.readByte()
		switch {
		case b == '\n':
			p.newLine()
			return cmd
		case b == ';' || b == '%':
			p.skipLine()
			return cmd
		case b == '(':
			// Inline comments on a code line are dropped.
			p.parseComment()
		case isLetter(b):
			p.unreadByte()
			letter, num := p.parseWord()
			l := Letter(letter)
			if !l.Valid() {
				p.error(fmt.Sprintf("unexpected parameter: %c", letter))
			}
			if cmd.Params.Has(l) {
				p.error(fmt.Sprintf("duplicate parameter: %c", letter))
			}
			val, err := strconv.ParseFloat(num, 64)
			if err != nil {
				p.error(fmt.Sprintf("expected a number: %c%s", letter, num))
			}
			cmd.Params[l] = val
		default:
			p.error(fmt.Sprintf("unexpected character: %q", b))
		}
	}
}
