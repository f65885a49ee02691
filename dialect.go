package gpost

import (
	"fmt"
	"sort"
)

// Setting is one option override of a dialect.
type Setting struct {
	Option string
	Value  string
}

// Dialect is a named controller variant: the default configuration plus a
// list of overrides.
type Dialect struct {
	Name        string
	Description string
	Settings    []Setting
}

// Overrides shared by the controller dialects, applied before their own.
var controllerSettings = []Setting{
	{"output_comments", "true"},
	{"output_header", "true"},
	{"show_operation_labels", "true"},
	{"show_machine_units", "true"},
	{"stop_spindle_for_tool_change", "true"},
}

var dialects = map[string]Dialect{
	"generic": {
		Name:        "generic",
		Description: "plain RS-274 output with the default options",
	},
	"linuxcnc": {
		Name:        "linuxcnc",
		Description: "LinuxCNC",
		Settings: append(append([]Setting{}, controllerSettings...),
			Setting{"machine_name", "LinuxCNC"},
			Setting{"enable_coolant", "true"},
			Setting{"parameter_order", "X,Y,Z,A,B,C,I,J,F,S,T,Q,R,L,H,D,P"},
			Setting{"integer_params", "T,H,D,P,L"},
			Setting{"preamble", "G17 G54 G40 G49 G80 G90"},
			Setting{"postamble", "M05\nG17 G54 G90 G80 G40\nM2"},
		),
	},
	"grbl": {
		Name:        "grbl",
		Description: "grbl; tool changes are written as comments",
		Settings: append(append([]Setting{}, controllerSettings...),
			Setting{"machine_name", "GRBL"},
			Setting{"enable_machine_specific_commands", "true"},
			Setting{"output_path_labels", "true"},
			Setting{"output_tool_change", "false"},
			Setting{"parameter_order", "X,Y,Z,A,B,C,U,V,W,I,J,K,F,S,T,Q,R,L,P"},
			Setting{"show_machine_units", "false"},
			Setting{"use_tlo", "false"},
			Setting{"preamble", "G17 G90"},
			Setting{"postamble", "M5\nG17 G90\nM2"},
		),
	},
	"centroid": {
		Name:        "centroid",
		Description: "Centroid; semicolon comments and a tool list in the preamble",
		Settings: append(append([]Setting{}, controllerSettings...),
			Setting{"machine_name", "Centroid"},
			Setting{"axis_precision", "4"},
			Setting{"feed_precision", "1"},
			Setting{"comment_symbol", ";"},
			Setting{"finish_label", "end"},
			Setting{"list_tools_in_preamble", "true"},
			Setting{"parameter_order", "X,Y,Z,A,B,I,J,F,S,T,Q,R,L,H"},
			Setting{"preamble", "G53 G00 G17"},
			Setting{"postamble", "M99"},
			Setting{"remove_messages", "false"},
			Setting{"safety_block", "G90 G80 G40 G49"},
			Setting{"show_machine_units", "false"},
			Setting{"show_operation_labels", "false"},
			Setting{"stop_spindle_for_tool_change", "false"},
			Setting{"tool_return", "M5\nM25\nG49 H0"},
			Setting{"use_tlo", "false"},
		),
	},
}

// Dialects returns every dialect, sorted by name.
func Dialects() []Dialect {
	list := make([]Dialect, 0, len(dialects))
	for _, d := range dialects {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

func LookupDialect(name string) (Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}

// Apply sets the dialect's overrides on cfg, in order.
func (d Dialect) Apply(cfg *Config) error {
	for _, s := range d.Settings {
		if err := cfg.Set(s.Option, s.Value); err != nil {
			return fmt.Errorf("gpost: dialect %s: %w", d.Name, err)
		}
	}
	return nil
}

// DialectConfig returns the default configuration with the overrides of the
// named dialect applied.
func DialectConfig(name string) (Config, error) {
	d, ok := dialects[name]
	if !ok {
		names := make([]string, 0, len(dialects))
		for _, d := range Dialects() {
			names = append(names, d.Name)
		}
		return Config{}, ErrInvalidChoice("dialect", name, names)
	}

	cfg := Default()
	if err := d.Apply(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
