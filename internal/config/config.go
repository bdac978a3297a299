// Package config loads the layered configuration (file > environment >
// defaults) the engine and CLI run against. It decodes the on-disk TOML
// document into a private wire struct, exactly as the teacher's
// internal/parser/toml decodes a schemaFile before converting it into the
// domain's core.Database — here the domain result is a Config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"difly/internal/core"
	"difly/internal/errs"
)

// SchemaMismatchPolicy controls how a SchemaMismatch ("phantom column") is
// surfaced, resolving the specification's open question about whether to
// escalate a warning to a fatal error.
type SchemaMismatchPolicy string

const (
	SchemaMismatchWarn SchemaMismatchPolicy = "warn"
	SchemaMismatchFail SchemaMismatchPolicy = "fail"
)

// Endpoint is one side's connection descriptor.
type Endpoint struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Schema   string
	Driver   core.Dialect
}

// TableConfig names one table to diff and its primary key.
type TableConfig struct {
	Name       string
	PrimaryKey core.PrimaryKey
}

// Config is the fully resolved, layered configuration.
type Config struct {
	Source Endpoint
	Target Endpoint

	DiffTables           []TableConfig
	SchemaMismatchPolicy SchemaMismatchPolicy

	OutputDir     string
	OutputFormats []string
	OutputDryRun  bool

	ConnectTimeout time.Duration
	QueryTimeout   time.Duration

	MaxConcurrentTables int
}

// configFile is the top-level TOML document shape.
type configFile struct {
	Source tomlEndpoint `toml:"source"`
	Target   tomlEndpoint `toml:"target"`
	Diff     tomlDiff     `toml:"diff"`
	Output   tomlOutput   `toml:"output"`
	Timeouts tomlTimeouts `toml:"timeouts"`
	Engine   tomlEngine   `toml:"engine"`
}

type tomlEndpoint struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"dbname"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Schema   string `toml:"schema"`
	Driver   string `toml:"driver"`
}

type tomlDiffTable struct {
	Name       string   `toml:"name"`
	PrimaryKey []string `toml:"primary_key"`
}

type tomlDiff struct {
	Tables               []tomlDiffTable `toml:"tables"`
	SchemaMismatchPolicy string          `toml:"schema_mismatch_policy"`
}

type tomlOutput struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
	DryRun  bool     `toml:"dry_run"`
}

type tomlTimeouts struct {
	ConnectMs int `toml:"connect_ms"`
	QueryMs   int `toml:"query_ms"`
}

type tomlEngine struct {
	MaxConcurrentTables int `toml:"max_concurrent_tables"`
}

// defaults mirrors the specification's documented defaults.
func defaults() Config {
	return Config{
		SchemaMismatchPolicy: SchemaMismatchWarn,
		OutputFormats:        []string{"json", "sql", "html"},
		ConnectTimeout:       5000 * time.Millisecond,
		QueryTimeout:         60000 * time.Millisecond,
		MaxConcurrentTables:  0, // 0 means "derive from GOMAXPROCS" at engine construction
	}
}

// Load reads path (if non-empty), applies DIFFLY_-prefixed environment
// overrides on top, and returns the resolved Config. A missing path is not
// an error — an all-environment or all-default configuration is valid for
// tests and CI.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		var cf configFile
		if _, err := toml.DecodeFile(path, &cf); err != nil {
			return Config{}, errs.New(errs.Config, "config: decode %q: %w", path, err)
		}
		if err := applyFile(&cfg, cf); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, cf configFile) error {
	src, err := convertEndpoint(cf.Source)
	if err != nil {
		return err
	}
	tgt, err := convertEndpoint(cf.Target)
	if err != nil {
		return err
	}
	cfg.Source = src
	cfg.Target = tgt

	for _, t := range cf.Diff.Tables {
		cfg.DiffTables = append(cfg.DiffTables, TableConfig{
			Name:       t.Name,
			PrimaryKey: core.PrimaryKey(t.PrimaryKey),
		})
	}
	if cf.Diff.SchemaMismatchPolicy != "" {
		p := SchemaMismatchPolicy(cf.Diff.SchemaMismatchPolicy)
		if p != SchemaMismatchWarn && p != SchemaMismatchFail {
			return errs.New(errs.Config, "config: diff.schema_mismatch_policy must be %q or %q, got %q", SchemaMismatchWarn, SchemaMismatchFail, p)
		}
		cfg.SchemaMismatchPolicy = p
	}

	if cf.Output.Dir != "" {
		cfg.OutputDir = cf.Output.Dir
	}
	if len(cf.Output.Formats) > 0 {
		cfg.OutputFormats = cf.Output.Formats
	}
	cfg.OutputDryRun = cf.Output.DryRun

	if cf.Timeouts.ConnectMs > 0 {
		cfg.ConnectTimeout = time.Duration(cf.Timeouts.ConnectMs) * time.Millisecond
	}
	if cf.Timeouts.QueryMs > 0 {
		cfg.QueryTimeout = time.Duration(cf.Timeouts.QueryMs) * time.Millisecond
	}
	if cf.Engine.MaxConcurrentTables > 0 {
		cfg.MaxConcurrentTables = cf.Engine.MaxConcurrentTables
	}

	return nil
}

func convertEndpoint(te tomlEndpoint) (Endpoint, error) {
	ep := Endpoint{
		Host:     te.Host,
		Port:     te.Port,
		Database: te.Database,
		User:     te.User,
		Password: te.Password,
		Schema:   te.Schema,
	}
	if te.Driver != "" {
		d, err := core.ParseDialect(te.Driver)
		if err != nil {
			return Endpoint{}, errs.Wrap(errs.Config, err)
		}
		ep.Driver = d
	}
	return ep, nil
}

// applyEnv applies DIFFLY_-prefixed, double-underscore-nested overrides,
// e.g. DIFFLY_SOURCE__PASSWORD, DIFFLY_OUTPUT__DRY_RUN.
func applyEnv(cfg *Config) error {
	overrides := map[string]func(string) error{
		"SOURCE__HOST":     assignString(&cfg.Source.Host),
		"SOURCE__PORT":     assignInt(&cfg.Source.Port),
		"SOURCE__DBNAME":   assignString(&cfg.Source.Database),
		"SOURCE__USER":     assignString(&cfg.Source.User),
		"SOURCE__PASSWORD": assignString(&cfg.Source.Password),
		"SOURCE__SCHEMA":   assignString(&cfg.Source.Schema),
		"SOURCE__DRIVER":   assignDialect(&cfg.Source.Driver),

		"TARGET__HOST":     assignString(&cfg.Target.Host),
		"TARGET__PORT":     assignInt(&cfg.Target.Port),
		"TARGET__DBNAME":   assignString(&cfg.Target.Database),
		"TARGET__USER":     assignString(&cfg.Target.User),
		"TARGET__PASSWORD": assignString(&cfg.Target.Password),
		"TARGET__SCHEMA":   assignString(&cfg.Target.Schema),
		"TARGET__DRIVER":   assignDialect(&cfg.Target.Driver),

		"OUTPUT__DIR":     assignString(&cfg.OutputDir),
		"OUTPUT__DRY_RUN": assignBool(&cfg.OutputDryRun),

		"DIFF__SCHEMA_MISMATCH_POLICY": assignSchemaMismatchPolicy(&cfg.SchemaMismatchPolicy),

		"TIMEOUTS__CONNECT_MS": assignMillis(&cfg.ConnectTimeout),
		"TIMEOUTS__QUERY_MS":   assignMillis(&cfg.QueryTimeout),

		"ENGINE__MAX_CONCURRENT_TABLES": assignInt(&cfg.MaxConcurrentTables),
	}

	for _, env := range os.Environ() {
		key, value, found := strings.Cut(env, "=")
		if !found || !strings.HasPrefix(key, "DIFFLY_") {
			continue
		}
		suffix := strings.TrimPrefix(key, "DIFFLY_")
		assign, ok := overrides[suffix]
		if !ok {
			continue
		}
		if err := assign(value); err != nil {
			return errs.New(errs.Config, "config: env %s: %w", key, err)
		}
	}

	if formats := os.Getenv("DIFFLY_OUTPUT__FORMATS"); formats != "" {
		cfg.OutputFormats = strings.Split(formats, ",")
	}

	return nil
}

func assignString(dst *string) func(string) error {
	return func(v string) error { *dst = v; return nil }
}

func assignBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func assignInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func assignMillis(dst *time.Duration) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = time.Duration(n) * time.Millisecond
		return nil
	}
}

func assignDialect(dst *core.Dialect) func(string) error {
	return func(v string) error {
		d, err := core.ParseDialect(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func assignSchemaMismatchPolicy(dst *SchemaMismatchPolicy) func(string) error {
	return func(v string) error {
		p := SchemaMismatchPolicy(v)
		if p != SchemaMismatchWarn && p != SchemaMismatchFail {
			return fmt.Errorf("must be %q or %q", SchemaMismatchWarn, SchemaMismatchFail)
		}
		*dst = p
		return nil
	}
}

// validate asserts the invariants the rest of the system relies on: an
// empty diff.tables list is explicitly allowed (a no-op run, not an error).
func validate(cfg Config) error {
	for _, t := range cfg.DiffTables {
		if t.Name == "" {
			return errs.New(errs.Config, "config: diff.tables entry missing name")
		}
		if len(t.PrimaryKey) == 0 {
			return errs.New(errs.Config, "config: table %q: primary_key must have at least one column", t.Name)
		}
	}
	for _, f := range cfg.OutputFormats {
		switch f {
		case "json", "sql", "html":
		default:
			return errs.New(errs.Config, "config: output.formats: unsupported format %q", f)
		}
	}
	return nil
}
