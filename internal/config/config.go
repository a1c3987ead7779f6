// Package config layers tracecfg settings from defaults, a .tracecfg.yaml
// file, TRACECFG_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tracecfg/internal/logging"
)

// Output formats.
const (
	FormatDOT     = "dot"
	FormatLattice = "lattice"
	FormatCalls   = "calls"
	FormatListing = "listing"
	FormatJSON    = "json"
	FormatReport  = "report"
)

var Formats = []string{FormatDOT, FormatLattice, FormatCalls, FormatListing, FormatJSON, FormatReport}

var LogLevels = []string{"debug", "info", "warn", "warning", "error"}

// EnvPrefix prefixes environment overrides, e.g. TRACECFG_FORMAT.
const EnvPrefix = "TRACECFG"

// Config is the full set of tracecfg options. Keys match the long flag
// names.
type Config struct {
	Debug         bool     `mapstructure:"debug" json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
	Format        string   `mapstructure:"format" json:"format,omitempty" jsonschema:"title=Format,enum=dot,enum=lattice,enum=calls,enum=listing,enum=json,enum=report,default=dot"`
	Output        string   `mapstructure:"output" json:"output,omitempty" jsonschema:"title=Output,description=Output file (stdout when empty)"`
	Arch          string   `mapstructure:"arch" json:"arch,omitempty" jsonschema:"title=Architecture,description=Decode hexDump to recover missing text,enum=,enum=arm64,enum=amd64,enum=386"`
	InferBranches bool     `mapstructure:"infer-branches" json:"infer-branches,omitempty" jsonschema:"title=Infer Branches,description=Mark decoded control transfers as branches"`
	Dedup         bool     `mapstructure:"dedup" json:"dedup,omitempty" jsonschema:"title=Deduplicate,description=Merge structurally identical vertices"`
	Merge         []string `mapstructure:"merge" json:"merge,omitempty" jsonschema:"title=Merge,description=Explicit old=new address merges"`
	MergeUnion    bool     `mapstructure:"merge-union" json:"merge-union,omitempty" jsonschema:"title=Merge Union,description=Union outgoing edges on merge instead of replacing them"`
	ELF           string   `mapstructure:"elf" json:"elf,omitempty" jsonschema:"title=ELF,description=Image used to name foreign targets"`
	ELFBase       string   `mapstructure:"elf-base" json:"elf-base,omitempty" jsonschema:"title=ELF Base,description=Load address of the image in the traced process"`
	Theme         string   `mapstructure:"theme" json:"theme,omitempty" jsonschema:"title=Theme,enum=nasa,enum=night,default=nasa"`
	ReportStyle   string   `mapstructure:"report-style" json:"report-style,omitempty" jsonschema:"title=Report Style,enum=charm,enum=vscode,enum=plain,default=charm"`
	MaxLabelLines int      `mapstructure:"max-label-lines" json:"max-label-lines,omitempty" jsonschema:"title=Max Label Lines,description=Truncate DOT labels (0 keeps all),minimum=0"`
	NoColor       bool     `mapstructure:"no-color" json:"no-color,omitempty" jsonschema:"title=No Color,description=Disable terminal colors"`
	Check         bool     `mapstructure:"check" json:"check,omitempty" jsonschema:"title=Check,description=Validate graph invariants before export"`
	LogLevel      string   `mapstructure:"log-level" json:"log-level,omitempty" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
	LogPrefix     string   `mapstructure:"log-prefix" json:"log-prefix,omitempty" jsonschema:"title=Log Prefix,default=tracecfg "`
	LogFile       string   `mapstructure:"log-file" json:"log-file,omitempty" jsonschema:"title=Log File,description=Append log output to this file instead of stderr"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Format:      FormatDOT,
		Theme:       "nasa",
		ReportStyle: "charm",
		LogLevel:    "info",
	}
}

// keys lists every setting so that environment overrides reach Unmarshal
// even when no flag or file mentions the key.
var keys = []string{
	"debug", "format", "output", "arch", "infer-branches", "dedup", "merge",
	"merge-union", "elf", "elf-base", "theme", "report-style",
	"max-label-lines", "no-color", "check", "log-level", "log-prefix",
	"log-file",
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("format", d.Format)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("report-style", d.ReportStyle)
	v.SetDefault("max-label-lines", d.MaxLabelLines)
	v.SetDefault("log-level", d.LogLevel)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// Load resolves the configuration. file names an explicit config file;
// when empty, .tracecfg.yaml is looked up in the working directory and
// then in $HOME, and a missing file is not an error. flags may be nil.
func Load(flags *pflag.FlagSet, file string) (Config, string, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".tracecfg")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, "", fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, "", fmt.Errorf("bind flags: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, "", fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, "", err
	}
	return c, v.ConfigFileUsed(), nil
}

// Logging turns the log settings into logger options. Debug forces the
// debug level and caller reporting.
func (c Config) Logging() logging.Options {
	o := logging.Options{Level: c.LogLevel, Prefix: c.LogPrefix, File: c.LogFile}
	if c.Debug {
		o.Level, o.Caller = "debug", true
	}
	return o
}

// Validate rejects unknown formats, log levels and malformed addresses.
func (c Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(Formats, ", "))
	}
	if !slices.Contains(LogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("unknown log level %q (want one of %s)", c.LogLevel, strings.Join(LogLevels, ", "))
	}
	if c.MaxLabelLines < 0 {
		return fmt.Errorf("max-label-lines must not be negative")
	}
	if _, err := c.Base(); err != nil {
		return err
	}
	if _, err := ParseMerges(c.Merge); err != nil {
		return err
	}
	return nil
}

// Base parses ELFBase. An empty value is zero.
func (c Config) Base() (uint64, error) {
	if c.ELFBase == "" {
		return 0, nil
	}
	base, err := strconv.ParseUint(c.ELFBase, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("elf-base %q: %w", c.ELFBase, err)
	}
	return base, nil
}

// ParseMerges turns "old=new" pairs into a merge mapping. Addresses use Go
// integer syntax, so 0x prefixes are accepted.
func ParseMerges(pairs []string) (map[uint64]uint64, error) {
	out := make(map[uint64]uint64, len(pairs))
	for _, p := range pairs {
		oldS, newS, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("merge %q: want old=new", p)
		}
		oldA, err := strconv.ParseUint(strings.TrimSpace(oldS), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("merge %q: %w", p, err)
		}
		newA, err := strconv.ParseUint(strings.TrimSpace(newS), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("merge %q: %w", p, err)
		}
		if prev, dup := out[oldA]; dup && prev != newA {
			return nil, fmt.Errorf("merge %q: %#x already maps to %#x", p, oldA, prev)
		}
		out[oldA] = newA
	}
	return out, nil
}
