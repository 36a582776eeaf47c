package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	LogFormatJSON = "json"
	LogFormatText = "text"

	DefaultTool        = "mace4"
	DefaultTimeLimit   = 3600
	DefaultMaxMegs     = 20000
	DefaultConcurrency = 3
	DefaultSuffix      = ".out"
	DefaultWorkers     = 4
	DefaultDelimiter   = ","
)

// Environment overrides, applied on top of the config file.
const (
	EnvTool        = "MACEBATCH_TOOL"
	EnvConcurrency = "MACEBATCH_CONCURRENCY"
	EnvTimeLimit   = "MACEBATCH_TIME_LIMIT"
	EnvMaxMegs     = "MACEBATCH_MAX_MEGS"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("delimiter", isDelimiter); err != nil {
		panic(err)
	}
	return v
}

// isDelimiter accepts a single rune that encoding/csv can use as a separator.
func isDelimiter(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || n != len(s) {
		return false
	}
	switch r {
	case 0, '"', '\r', '\n', utf8.RuneError:
		return false
	}
	return true
}

type Config struct {
	Version   int      `yaml:"version" validate:"eq=0"` // fixed 0 for now
	Tool      Tool     `yaml:"tool"`
	Schedule  Schedule `yaml:"schedule"`
	Collect   Collect  `yaml:"collect"`
	Verbose   bool     `yaml:"verbose"`
	LogFormat string   `yaml:"log_format" validate:"oneof=json text"`
}

// Tool describes how the external model-finder is invoked.
type Tool struct {
	Path      string            `yaml:"path" validate:"required"`
	TimeLimit int               `yaml:"time_limit" validate:"gte=1"` // seconds, passed as -t
	MaxMegs   int               `yaml:"max_megs" validate:"gte=1"`   // megabytes, passed as -b
	Args      []string          `yaml:"args,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
	// Grace enables a supervisory kill at TimeLimit+Grace. Zero disables it.
	Grace time.Duration `yaml:"grace" validate:"gte=0"`
}

type Schedule struct {
	Concurrency int    `yaml:"concurrency" validate:"gte=1"`
	Suffix      string `yaml:"suffix" validate:"required"`
}

type Collect struct {
	Workers   int    `yaml:"workers" validate:"gte=1"`
	Delimiter string `yaml:"delimiter" validate:"delimiter"`
}

func DefaultConfig(_ context.Context) Config {
	return Config{
		Version: 0,
		Tool: Tool{
			Path:      DefaultTool,
			TimeLimit: DefaultTimeLimit,
			MaxMegs:   DefaultMaxMegs,
		},
		Schedule: Schedule{
			Concurrency: DefaultConcurrency,
			Suffix:      DefaultSuffix,
		},
		Collect: Collect{
			Workers:   DefaultWorkers,
			Delimiter: DefaultDelimiter,
		},
		LogFormat: LogFormatJSON,
	}
}

// LoadConfig decodes YAML from r on top of the defaults and validates the result.
// Unknown keys are rejected.
func LoadConfig(ctx context.Context, r io.Reader) (Config, error) {
	cfg := DefaultConfig(ctx)
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: decoding yaml: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides the configuration from MACEBATCH_* variables. Values which
// are not integers where one is expected are reported as configuration errors.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvTool); ok && v != "" {
		c.Tool.Path = v
	}
	ints := []struct {
		key string
		dst *int
	}{
		{EnvConcurrency, &c.Schedule.Concurrency},
		{EnvTimeLimit, &c.Tool.TimeLimit},
		{EnvMaxMegs, &c.Tool.MaxMegs},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, i.key, v)
		}
		*i.dst = n
	}
	return nil
}

// Validate checks the struct constraints and reports the first failing field
// in a single line.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed on %q (value %v)", ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("tool", c.Tool.Path),
		slog.Int("time_limit", c.Tool.TimeLimit),
		slog.Int("max_megs", c.Tool.MaxMegs),
		slog.Duration("grace", c.Tool.Grace),
		slog.Int("concurrency", c.Schedule.Concurrency),
		slog.String("suffix", c.Schedule.Suffix),
		slog.Int("workers", c.Collect.Workers),
	)
}
