// Package cli maps postprocessor command-line flags onto a gpost.Config.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/leftmike/gpost"
)

type toggle struct {
	on, off string
	option  string
	invert  bool
	help    string
}

var toggles = []toggle{
	{"comments", "no-comments", "output_comments", false, "output comments"},
	{"header", "no-header", "output_header", false, "output the header"},
	{"line-numbers", "no-line-numbers", "output_line_numbers", false,
		"prefix lines with line numbers"},
	{"modal", "no-modal", "modal", false,
		"don't repeat the command name if it is the same as the previous line"},
	{"axis-modal", "no-axis-modal", "output_doubles", true,
		"don't repeat axis values that are the same as the previous line"},
	{"show-editor", "no-show-editor", "show_editor", false, "review the output before writing it"},
	{"tlo", "no-tlo", "use_tlo", false, "output tool length offset (G43) after tool changes"},
	{"tool-change", "no-tool-change", "output_tool_change", false,
		"output M6 tool changes; otherwise they become comments"},
	{"bcnc", "no-bcnc", "output_bcnc", false, "output bCNC block headers"},
	{"enable_coolant", "disable_coolant", "enable_coolant", false,
		"output coolant on and off commands"},
	{"enable_machine_specific_commands", "disable_machine_specific_commands",
		"enable_machine_specific_commands", false, "pass through MC_RUN_COMMAND comments"},
	{"output_path_labels", "no-output_path_labels", "output_path_labels", false,
		"output a comment with the label of each path"},
	{"output_machine_name", "no-output_machine_name", "output_machine_name", false,
		"output the machine name at the start of each operation"},
	{"translate_drill", "no-translate_drill", "translate_drill_cycles", false,
		"translate drill cycles (G73, G81, G82, G83) into G0/G1 moves"},
	{"list_tools_in_preamble", "no-list_tools_in_preamble", "list_tools_in_preamble", false,
		"list the tools before the preamble"},
	{"show-operation-labels", "no-show-operation-labels", "show_operation_labels", false,
		"include the operation label in operation comments"},
	{"show-machine-units", "no-show-machine-units", "show_machine_units", false,
		"output the machine units at the start of each operation"},
}

type value struct {
	flag   string
	option string
	help   string
}

var values = []value{
	{"preamble", "preamble", `commands before the first command; \n separates lines`},
	{"postamble", "postamble", `commands after the last command; \n separates lines`},
	{"pre_operation", "pre_operation", "commands before every operation"},
	{"post_operation", "post_operation", "commands after every operation"},
	{"safety_block", "safety_block", "commands at the start and end of the output"},
	{"tool_return", "tool_return", "commands before the postamble"},
	{"feed-precision", "feed_precision", "digits of precision for feed rates"},
	{"axis-precision", "axis_precision", "digits of precision for axis moves"},
	{"wait-for-spindle", "spindle_wait", "seconds to wait (G4) after starting the spindle"},
	{"return-to", "return_to", "position to return to at the end, as X,Y[,Z]"},
	{"chipbreaking_amount", "chipbreaking_amount", "G73 back off distance, as 0.25 mm or 0.01 in"},
	{"line_number_start", "line_number_start", "first line number"},
	{"line_number_increment", "line_number_increment", "line number increment"},
	{"finish_label", "finish_label", "word used in the end of operation comment"},
	{"comment_symbol", "comment_symbol", "comment symbol"},
	{"command_space", "command_space", "separator between words"},
	{"machine_name", "machine_name", "machine name"},
}

// Flags holds the postprocessor flags registered on a flag set.
type Flags struct {
	fs *pflag.FlagSet

	metric    bool
	inches    bool
	precision int
	eol       string
	set       []string

	toggles map[string]*bool
	values  map[string]*string
}

// Register adds the postprocessor flags to fs.
func Register(fs *pflag.FlagSet) *Flags {
	f := &Flags{
		fs:      fs,
		toggles: map[string]*bool{},
		values:  map[string]*string{},
	}

	fs.BoolVar(&f.metric, "metric", false, "convert output for metric mode (G21)")
	fs.BoolVar(&f.inches, "inches", false,
		"convert output for imperial mode (G20); precision defaults to 4")
	fs.IntVar(&f.precision, "precision", 3, "digits of precision for axis moves and feed rates")
	fs.StringVar(&f.eol, "end_of_line_characters", "",
		`line ending: native, lf, crlf, cr, or \n, \r\n, \r`)
	fs.StringArrayVar(&f.set, "set", nil, "set any option, as name=value")

	for _, t := range toggles {
		f.toggles[t.on] = fs.Bool(t.on, false, t.help)
		f.toggles[t.off] = fs.Bool(t.off, false, "don't "+t.help)
	}
	for _, v := range values {
		f.values[v.flag] = fs.String(v.flag, "", v.help)
	}
	return f
}

func (f *Flags) changed(name string) bool {
	fl := f.fs.Lookup(name)
	return fl != nil && fl.Changed
}

var lineEndings = map[string]string{
	`\n`:   "lf",
	`\r\n`: "crlf",
	`\r`:   "cr",
	"\n":   "lf",
	"\r\n": "crlf",
	"\r":   "cr",
}

// Apply sets the options named by the flags that were given on the command
// line. Flags that were not given leave cfg unchanged. The result is not
// validated.
func (f *Flags) Apply(cfg *gpost.Config) error {
	for _, t := range toggles {
		if f.changed(t.on) {
			if err := cfg.Set(t.option, strconv.FormatBool(!t.invert)); err != nil {
				return err
			}
		}
		if f.changed(t.off) {
			if err := cfg.Set(t.option, strconv.FormatBool(t.invert)); err != nil {
				return err
			}
		}
	}

	for _, v := range values {
		if f.changed(v.flag) {
			if err := cfg.Set(v.option, *f.values[v.flag]); err != nil {
				return err
			}
		}
	}

	if f.changed("metric") && f.metric {
		cfg.Units = "G21"
		cfg.AxisPrecision = 3
		cfg.FeedPrecision = 3
	}
	if f.changed("precision") {
		if f.precision < 0 {
			return gpost.ErrOutOfRange("precision", float64(f.precision), "must be at least 0")
		}
		cfg.AxisPrecision = f.precision
		cfg.FeedPrecision = f.precision
	}
	if f.changed("inches") && f.inches {
		cfg.Units = "G20"
		if !f.changed("precision") {
			cfg.AxisPrecision = 4
			cfg.FeedPrecision = 4
		}
	}

	if f.changed("end_of_line_characters") {
		eol := f.eol
		if s, ok := lineEndings[eol]; ok {
			eol = s
		}
		if err := cfg.Set("end_of_line", eol); err != nil {
			return err
		}
	}

	for _, s := range f.set {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return gpost.ErrInvalidValue("set", s, "name=value")
		}
		if err := cfg.Set(strings.TrimSpace(name), value); err != nil {
			return err
		}
	}
	return nil
}

// Usage describes the options that can be given with --set.
func Usage() string {
	var b strings.Builder
	cfg := gpost.Default()
	for _, name := range gpost.Options() {
		v, _ := cfg.Get(name)
		fmt.Fprintf(&b, "  %-34s %q\n", name, v)
	}
	return b.String()
}
