package gpost

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// A job file describes a PathSource in YAML:
//
//	file: bracket.FCStd
//	tools:
//	  - {number: 1, name: 6mm endmill}
//	objects:
//	  - name: profile
//	    label: Profile
//	    coolant: Flood
//	    commands: |
//	      G0 X10 Y20 Z5
//	      G1 Z-1 F5
//	  - name: holes
//	    children:
//	      - name: stock
//	        kind: stock
//
// Lengths are millimeters and feeds millimeters per second.
type jobFile struct {
	File    string       `yaml:"file"`
	Tools   []Tool       `yaml:"tools"`
	Objects []objectFile `yaml:"objects"`
}

type objectFile struct {
	Name     string       `yaml:"name"`
	Label    string       `yaml:"label"`
	Kind     string       `yaml:"kind"`
	Active   *bool        `yaml:"active"`
	Coolant  string       `yaml:"coolant"`
	Base     string       `yaml:"base"`
	Commands string       `yaml:"commands"`
	Children []objectFile `yaml:"children"`
}

// LoadJob reads a job file.
func LoadJob(path string) (*Job, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gpost: job: %w", err)
	}
	job, err := ReadJob(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if job.file == "" {
		job.file = path
	}
	return job, nil
}

// ReadJob decodes a job from r. Unknown keys are an error.
func ReadJob(r io.Reader) (*Job, error) {
	var jf jobFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&jf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("gpost: job: %w", err)
	}

	b := jobBuilder{named: map[string]Object{}}
	var objects []Object
	for _, of := range jf.Objects {
		obj, err := b.build(of)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	if err := b.resolveBases(); err != nil {
		return nil, err
	}
	return NewJob(jf.File, objects, jf.Tools), nil
}

type pendingBase struct {
	op   *Operation
	base string
}

type jobBuilder struct {
	named   map[string]Object
	pending []pendingBase
}

func (b *jobBuilder) build(of objectFile) (Object, error) {
	if of.Name == "" {
		return nil, errors.New("gpost: job: object without a name")
	}
	if _, ok := b.named[of.Name]; ok {
		return nil, fmt.Errorf("gpost: job: duplicate object %s", of.Name)
	}

	kind := of.Kind
	if kind == "" {
		kind = "operation"
		if of.Children != nil {
			kind = "group"
		}
	}

	var obj Object
	switch kind {
	case "operation":
		cmds, err := ParseCommands(strings.NewReader(of.Commands))
		if err != nil {
			return nil, fmt.Errorf("gpost: job: object %s: %w", of.Name, err)
		}
		op := NewOperation(of.Name, of.Label, cmds)
		if of.Active != nil {
			op.SetActive(*of.Active)
		}
		if of.Coolant != "" {
			op.SetCoolantMode(of.Coolant)
		}
		if of.Base != "" {
			b.pending = append(b.pending, pendingBase{op: op, base: of.Base})
		}
		obj = op
	case "group":
		g := NewGroup(of.Name, of.Label)
		if of.Active != nil {
			g.SetActive(*of.Active)
		}
		for _, cf := range of.Children {
			child, err := b.build(cf)
			if err != nil {
				return nil, err
			}
			g.children = append(g.children, child)
		}
		obj = g
	case "stock":
		obj = NewStock(of.Name, of.Label)
	default:
		return nil, fmt.Errorf("gpost: job: object %s: unknown kind %q", of.Name, kind)
	}

	b.named[of.Name] = obj
	return obj, nil
}

func (b *jobBuilder) resolveBases() error {
	for _, p := range b.pending {
		base, ok := b.named[p.base]
		if !ok {
			return fmt.Errorf("gpost: job: object %s: unknown base %s", p.op.Name(), p.base)
		}
		p.op.SetBase(base)
	}
	return nil
}
