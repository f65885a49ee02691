package gpost

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete set of named options controlling emission. Each
// option has a yaml key (its name), an environment variable and exactly one
// default, the env-default tag.
type Config struct {
	MachineName string `yaml:"machine_name" env:"GPOST_MACHINE_NAME" env-default:"generic"`

	Units           string `yaml:"units"            env:"GPOST_UNITS"            env-default:"G21"`
	AxisPrecision   int    `yaml:"axis_precision"   env:"GPOST_AXIS_PRECISION"   env-default:"3"`
	FeedPrecision   int    `yaml:"feed_precision"   env:"GPOST_FEED_PRECISION"   env-default:"3"`
	SpindleDecimals int    `yaml:"spindle_decimals" env:"GPOST_SPINDLE_DECIMALS" env-default:"0"`

	CommentSymbol  string `yaml:"comment_symbol"  env:"GPOST_COMMENT_SYMBOL"  env-default:"("`
	CommandSpace   string `yaml:"command_space"   env:"GPOST_COMMAND_SPACE"   env-default:" "`
	EndOfLine      string `yaml:"end_of_line"     env:"GPOST_END_OF_LINE"     env-default:"native"`
	OutputComments bool   `yaml:"output_comments" env:"GPOST_OUTPUT_COMMENTS" env-default:"false"`
	OutputHeader   bool   `yaml:"output_header"   env:"GPOST_OUTPUT_HEADER"   env-default:"false"`
	RemoveMessages bool   `yaml:"remove_messages" env:"GPOST_REMOVE_MESSAGES" env-default:"true"`

	ParameterOrder   []string `yaml:"parameter_order"   env:"GPOST_PARAMETER_ORDER"   env-default:"X,Y,Z,A,B,C,U,V,W,I,J,K,F,S,T,Q,R,L,P,H,D"`
	IntegerParams    []string `yaml:"integer_params"    env:"GPOST_INTEGER_PARAMS"    env-default:"T,H,D,P,L,Q"`
	MotionCommands   []string `yaml:"motion_commands"   env:"GPOST_MOTION_COMMANDS"   env-default:"G0,G00,G1,G01,G2,G02,G3,G03"`
	RapidMoves       []string `yaml:"rapid_moves"       env:"GPOST_RAPID_MOVES"       env-default:"G0,G00"`
	SuppressCommands []string `yaml:"suppress_commands" env:"GPOST_SUPPRESS_COMMANDS"`

	Modal         bool `yaml:"modal"          env:"GPOST_MODAL"          env-default:"false"`
	OutputDoubles bool `yaml:"output_doubles" env:"GPOST_OUTPUT_DOUBLES" env-default:"true"`

	OutputLineNumbers   bool `yaml:"output_line_numbers"   env:"GPOST_OUTPUT_LINE_NUMBERS"   env-default:"false"`
	LineNumberStart     int  `yaml:"line_number_start"     env:"GPOST_LINE_NUMBER_START"     env-default:"100"`
	LineNumberIncrement int  `yaml:"line_number_increment" env:"GPOST_LINE_NUMBER_INCREMENT" env-default:"10"`

	OutputToolChange         bool    `yaml:"output_tool_change"               env:"GPOST_OUTPUT_TOOL_CHANGE"               env-default:"true"`
	StopSpindleForToolChange bool    `yaml:"stop_spindle_for_tool_change"     env:"GPOST_STOP_SPINDLE_FOR_TOOL_CHANGE"     env-default:"false"`
	UseTLO                   bool    `yaml:"use_tlo"                          env:"GPOST_USE_TLO"                          env-default:"true"`
	SpindleWait              float64 `yaml:"spindle_wait"                     env:"GPOST_SPINDLE_WAIT"                     env-default:"0"`
	EnableCoolant            bool    `yaml:"enable_coolant"                   env:"GPOST_ENABLE_COOLANT"                   env-default:"false"`
	EnableMachineSpecific    bool    `yaml:"enable_machine_specific_commands" env:"GPOST_ENABLE_MACHINE_SPECIFIC_COMMANDS" env-default:"false"`

	TranslateDrillCycles   bool     `yaml:"translate_drill_cycles"    env:"GPOST_TRANSLATE_DRILL_CYCLES"    env-default:"false"`
	DrillCyclesToTranslate []string `yaml:"drill_cycles_to_translate" env:"GPOST_DRILL_CYCLES_TO_TRANSLATE" env-default:"G73,G81,G82,G83"`
	DrillRetractMode       string   `yaml:"drill_retract_mode"        env:"GPOST_DRILL_RETRACT_MODE"        env-default:"G98"`
	MotionMode             string   `yaml:"motion_mode"               env:"GPOST_MOTION_MODE"               env-default:"G90"`
	ChipbreakingAmount     float64  `yaml:"chipbreaking_amount"       env:"GPOST_CHIPBREAKING_AMOUNT"       env-default:"0.25"`

	Preamble      string `yaml:"preamble"       env:"GPOST_PREAMBLE"       env-default:""`
	Postamble     string `yaml:"postamble"      env:"GPOST_POSTAMBLE"      env-default:""`
	PreOperation  string `yaml:"pre_operation"  env:"GPOST_PRE_OPERATION"  env-default:""`
	PostOperation string `yaml:"post_operation" env:"GPOST_POST_OPERATION" env-default:""`
	ToolChange    string `yaml:"tool_change"    env:"GPOST_TOOL_CHANGE"    env-default:""`
	ToolReturn    string `yaml:"tool_return"    env:"GPOST_TOOL_RETURN"    env-default:""`
	SafetyBlock   string `yaml:"safety_block"   env:"GPOST_SAFETY_BLOCK"   env-default:""`

	OutputBCNC          bool   `yaml:"output_bcnc"            env:"GPOST_OUTPUT_BCNC"            env-default:"false"`
	OutputMachineName   bool   `yaml:"output_machine_name"    env:"GPOST_OUTPUT_MACHINE_NAME"    env-default:"false"`
	OutputPathLabels    bool   `yaml:"output_path_labels"     env:"GPOST_OUTPUT_PATH_LABELS"     env-default:"false"`
	ShowOperationLabels bool   `yaml:"show_operation_labels"  env:"GPOST_SHOW_OPERATION_LABELS"  env-default:"false"`
	ShowMachineUnits    bool   `yaml:"show_machine_units"     env:"GPOST_SHOW_MACHINE_UNITS"     env-default:"false"`
	FinishLabel         string `yaml:"finish_label"           env:"GPOST_FINISH_LABEL"           env-default:"Finish"`
	ListToolsInPreamble bool   `yaml:"list_tools_in_preamble" env:"GPOST_LIST_TOOLS_IN_PREAMBLE" env-default:"false"`
	ReturnTo            string `yaml:"return_to"              env:"GPOST_RETURN_TO"              env-default:""`

	ShowEditor    bool `yaml:"show_editor"     env:"GPOST_SHOW_EDITOR"     env-default:"false"`
	EditorMaxSize int  `yaml:"editor_max_size" env:"GPOST_EDITOR_MAX_SIZE" env-default:"100000"`
}

var nativeLineEnding = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

var (
	unitChoices        = []string{"G21", "G20"}
	endOfLineChoices   = []string{"native", "lf", "crlf", "cr"}
	motionModeChoices  = []string{"G90", "G91"}
	retractModeChoices = []string{"G98", "G99"}

	// Options holding multi-line text; a literal \n in a Set value is a line
	// break.
	blockOptions = map[string]bool{
		"preamble":       true,
		"postamble":      true,
		"pre_operation":  true,
		"post_operation": true,
		"tool_change":    true,
		"tool_return":    true,
		"safety_block":   true,
	}
)

// Default returns the configuration built from the documented defaults only;
// the environment is not consulted.
func Default() Config {
	var cfg Config
	v := reflect.ValueOf(&cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		def, ok := f.Tag.Lookup("env-default")
		if !ok {
			continue
		}
		if err := setField(v.Field(i), def, false); err != nil {
			panic(fmt.Sprintf("gpost: bad default for %s: %s", f.Name, err))
		}
	}
	return cfg
}

// Options returns the names of every option, in declaration order.
func Options() []string {
	t := reflect.TypeOf(Config{})
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name := optionName(t.Field(i)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func optionName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func (cfg *Config) field(name string) (reflect.Value, reflect.StructField, bool) {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if optionName(t.Field(i)) == name {
			return v.Field(i), t.Field(i), true
		}
	}
	return reflect.Value{}, reflect.StructField{}, false
}

// Set sets the option name from its textual form. Lists are separated by
// commas or blanks; chipbreaking_amount may carry an "mm" or "in" suffix.
func (cfg *Config) Set(name, value string) error {
	fv, _, ok := cfg.field(name)
	if !ok {
		return ErrUnknownOption(name)
	}

	switch {
	case name == "chipbreaking_amount":
		mm, err := parseLength(value)
		if err != nil {
			return ErrInvalidValue(name, value, "a length such as 0.25 mm or 0.01 in")
		}
		cfg.ChipbreakingAmount = mm
		return nil
	case blockOptions[name]:
		fv.SetString(strings.ReplaceAll(value, `\n`, "\n"))
		return nil
	}

	if err := setField(fv, value, true); err != nil {
		return ErrInvalidValue(name, value, kindName(fv.Kind()))
	}
	return nil
}

// Get returns the textual form of the option name.
func (cfg *Config) Get(name string) (string, error) {
	fv, _, ok := cfg.field(name)
	if !ok {
		return "", ErrUnknownOption(name)
	}
	switch fv.Kind() {
	case reflect.Slice:
		return strings.Join(fv.Interface().([]string), ","), nil
	case reflect.Float64:
		return strconv.FormatFloat(fv.Float(), 'g', -1, 64), nil
	default:
		return fmt.Sprint(fv.Interface()), nil
	}
}

func kindName(k reflect.Kind) string {
	switch k {
	case reflect.Bool:
		return "true or false"
	case reflect.Int:
		return "an integer"
	case reflect.Float64:
		return "a number"
	case reflect.Slice:
		return "a list"
	}
	return "a string"
}

func setField(fv reflect.Value, s string, trim bool) error {
	if trim && fv.Kind() != reflect.String {
		s = strings.TrimSpace(s)
	}
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		fv.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Slice:
		fv.Set(reflect.ValueOf(splitList(s)))
	default:
		return fmt.Errorf("unsupported kind %s", fv.Kind())
	}
	return nil
}

func splitList(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if words == nil {
		return []string{}
	}
	return words
}

func parseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "mm"):
		s = strings.TrimSuffix(s, "mm")
	case strings.HasSuffix(s, "in"):
		s = strings.TrimSuffix(s, "in")
		scale = mmPerInch
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return v * scale, nil
}

func oneOf(option, value string, choices []string) error {
	for _, c := range choices {
		if value == c {
			return nil
		}
	}
	return ErrInvalidChoice(option, value, choices)
}

func validLetters(option string, keys []string) error {
	seen := map[string]bool{}
	for _, k := range keys {
		if len(k) != 1 || !Letter(k[0]).Valid() {
			return ErrInvalidChoice(option, k, strings.Split(Alphabet, ""))
		}
		if seen[k] {
			return &ConfigError{Option: option, Value: k, Message: fmt.Sprintf("duplicate key %s", k)}
		}
		seen[k] = true
	}
	return nil
}

// Validate checks every option, returning the first problem found.
func (cfg *Config) Validate() error {
	if err := oneOf("units", cfg.Units, unitChoices); err != nil {
		return err
	}
	if err := oneOf("end_of_line", cfg.EndOfLine, endOfLineChoices); err != nil {
		return err
	}
	if err := oneOf("motion_mode", cfg.MotionMode, motionModeChoices); err != nil {
		return err
	}
	if err := oneOf("drill_retract_mode", cfg.DrillRetractMode, retractModeChoices); err != nil {
		return err
	}

	if cfg.CommentSymbol == "" {
		return &ConfigError{Option: "comment_symbol", Message: "must not be empty"}
	}
	for name, n := range map[string]int{
		"axis_precision":   cfg.AxisPrecision,
		"feed_precision":   cfg.FeedPrecision,
		"spindle_decimals": cfg.SpindleDecimals,
		"editor_max_size":  cfg.EditorMaxSize,
	} {
		if n < 0 {
			return ErrOutOfRange(name, float64(n), "must be >= 0")
		}
	}
	if cfg.LineNumberIncrement <= 0 {
		return ErrOutOfRange("line_number_increment", float64(cfg.LineNumberIncrement),
			"must be > 0")
	}
	if cfg.SpindleWait < 0 || math.IsNaN(cfg.SpindleWait) {
		return ErrOutOfRange("spindle_wait", cfg.SpindleWait, "must be >= 0")
	}
	if cfg.ChipbreakingAmount < 0 || math.IsNaN(cfg.ChipbreakingAmount) {
		return ErrOutOfRange("chipbreaking_amount", cfg.ChipbreakingAmount, "must be >= 0")
	}

	if err := validLetters("parameter_order", cfg.ParameterOrder); err != nil {
		return err
	}
	if err := validLetters("integer_params", cfg.IntegerParams); err != nil {
		return err
	}
	if _, err := cfg.returnTo(); err != nil {
		return err
	}
	return nil
}

// returnTo splits return_to into two or three verbatim coordinates.
func (cfg *Config) returnTo() ([]string, error) {
	if strings.TrimSpace(cfg.ReturnTo) == "" {
		return nil, nil
	}
	parts := strings.Split(cfg.ReturnTo, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, ErrInvalidValue("return_to", cfg.ReturnTo, "x,y or x,y,z")
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if _, err := strconv.ParseFloat(p, 64); err != nil {
			return nil, ErrInvalidValue("return_to", cfg.ReturnTo, "x,y or x,y,z")
		}
		parts[i] = p
	}
	return parts, nil
}

// LineEnding returns the characters terminating each output line.
func (cfg *Config) LineEnding() string {
	switch cfg.EndOfLine {
	case "lf":
		return "\n"
	case "crlf":
		return "\r\n"
	case "cr":
		return "\r"
	}
	return nativeLineEnding
}

// UnitSystem returns the configured output units.
func (cfg *Config) UnitSystem() Units {
	u, _ := UnitsFromCode(cfg.Units)
	return u
}

// LoadFile reads a YAML configuration file; environment variables override
// the file and the file overrides the defaults. Unknown keys are an error.
func LoadFile(path string) (Config, error) {
	keys, err := scanKeys(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("gpost: read %s: %w", path, err)
	}

	// cleanenv fills env-default into zero-valued fields, which hides an
	// explicit false or 0 in the file; reapply those from the file.
	for name, node := range keys {
		fv, f, _ := cfg.field(name)
		if _, ok := os.LookupEnv(f.Tag.Get("env")); ok {
			continue
		}
		if err := node.Decode(fv.Addr().Interface()); err != nil {
			return Config{}, WrapConfigError(name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnv builds a configuration from the defaults and the environment.
func LoadEnv() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("gpost: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func scanKeys(path string) (map[string]yaml.Node, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gpost: config: %w", err)
	}

	var keys map[string]yaml.Node
	if err := yaml.Unmarshal(buf, &keys); err != nil {
		return nil, fmt.Errorf("gpost: config %s: %w", path, err)
	}
	var cfg Config
	for name := range keys {
		if _, _, ok := cfg.field(name); !ok {
			return nil, ErrUnknownOption(name)
		}
	}
	return keys, nil
}
