package gpost

import (
	"reflect"
)

// Object is a node of the tool-path tree supplied by the host application.
// The optional interfaces below describe what else a node may carry.
type Object interface {
	Name() string
	Label() string
}

type Activator interface {
	Active() bool
}

// Based is implemented by objects derived from another object, whose active
// flag and coolant mode also apply.
type Based interface {
	Base() Object
}

type CoolantModer interface {
	CoolantMode() string
}

type PathHolder interface {
	Commands() []Command
}

type Grouper interface {
	Children() []Object
}

// Tool is a tool controller listed in the preamble.
type Tool struct {
	Number int    `yaml:"number"`
	Name   string `yaml:"name"`
}

// PathSource is the read-only input to an export.
type PathSource interface {
	Objects() []Object
	Tools() []Tool
	FileName() string
}

// isNil catches nil interfaces as well as interfaces holding a nil pointer.
func isNil(obj Object) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func baseOf(obj Object) Object {
	if b, ok := obj.(Based); ok {
		if base := b.Base(); !isNil(base) {
			return base
		}
	}
	return nil
}

func isActive(obj Object) bool {
	if a, ok := obj.(Activator); ok && !a.Active() {
		return false
	}
	if a, ok := baseOf(obj).(Activator); ok && !a.Active() {
		return false
	}
	return true
}

// coolantMode returns the coolant mode of obj, or of its base when obj has
// none; an empty mode counts as none.
func coolantMode(obj Object) string {
	if c, ok := obj.(CoolantModer); ok && c.CoolantMode() != "" {
		return c.CoolantMode()
	}
	if c, ok := baseOf(obj).(CoolantModer); ok && c.CoolantMode() != "" {
		return c.CoolantMode()
	}
	return "None"
}

func isPath(obj Object) bool {
	if isNil(obj) {
		return false
	}
	if _, ok := obj.(Grouper); ok {
		return true
	}
	_, ok := obj.(PathHolder)
	return ok
}

// Operation is a single path: an ordered list of commands.
type Operation struct {
	name     string
	label    string
	active   bool
	coolant  string
	base     Object
	commands []Command
}

func NewOperation(name, label string, cmds []Command) *Operation {
	if label == "" {
		label = name
	}
	return &Operation{
		name:     name,
		label:    label,
		active:   true,
		commands: cmds,
	}
}

func (op *Operation) Name() string { return op.name }
func (op *Operation) Label() string { return op.label }
func (op *Operation) Active() bool { return op.active }
func (op *Operation) CoolantMode() string { return op.coolant }
func (op *Operation) Base() Object { return op.base }
func (op *Operation) Commands() []Command { return op.commands }

func (op *Operation) SetActive(active bool) { op.active = active }
func (op *Operation) SetCoolantMode(m string) { op.coolant = m }
func (op *Operation) SetBase(base Object) { op.base = base }

// Group is a compound: an ordered list of child objects.
type Group struct {
	name     string
	label    string
	active   bool
	children []Object
}

func NewGroup(name, label string, children ...Object) *Group {
	if label == "" {
		label = name
	}
	return &Group{
		name:     name,
		label:    label,
		active:   true,
		children: children,
	}
}

func (g *Group) Name() string { return g.name }
func (g *Group) Label() string { return g.label }
func (g *Group) Active() bool { return g.active }
func (g *Group) Children() []Object { return g.children }

func (g *Group) SetActive(active bool) { g.active = active }

// Stock is a non-path member of a group, such as the raw material.
type Stock struct {
	name  string
	label string
}

func NewStock(name, label string) *Stock {
	if label == "" {
		label = name
	}
	return &Stock{name: name, label: label}
}

func (s *Stock) Name() string { return s.name }
func (s *Stock) Label() string { return s.label }

// Job is a PathSource built in memory or loaded from a job file.
type Job struct {
	file    string
	objects []Object
	tools   []Tool
}

func NewJob(file string, objects []Object, tools []Tool) *Job {
	return &Job{file: file, objects: objects, tools: tools}
}

func (j *Job) Objects() []Object { return j.objects }
func (j *Job) Tools() []Tool { return j.tools }
func (j *Job) FileName() string { return j.file }
