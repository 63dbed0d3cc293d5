// Package config provides Viper-based configuration loading for the dice roller.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Roller sources.
const (
	SourceSeeded = "seeded"
	SourceCrypto = "crypto"
)

// Parameter backends.
const (
	BackendMemory   = "memory"
	BackendYAML     = "yaml"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendLua      = "lua"
)

// RollerConfig holds dice roller settings.
type RollerConfig struct {
	// Source is the random source: "seeded" or "crypto".
	Source string `mapstructure:"source"`
	// Seed seeds the "seeded" source. Zero draws a fresh seed at startup.
	Seed int64 `mapstructure:"seed"`
	// MaxDice is the largest die count accepted in one dice term.
	MaxDice int `mapstructure:"max_dice"`
	// MaxRerolls bounds the redraws of one reroll modifier.
	MaxRerolls int `mapstructure:"max_rerolls"`
}

// ParamsConfig selects and configures the parameter backend.
type ParamsConfig struct {
	// Backend is one of memory, yaml, postgres, sqlite, lua.
	Backend string `mapstructure:"backend"`
	// Path is the YAML parameter file or Lua script, depending on Backend.
	Path string `mapstructure:"path"`
	// Values seeds the memory backend.
	Values map[string]string `mapstructure:"values"`
	// BudgetFactor is the substitutions allowed per distinct name. Zero uses the default.
	BudgetFactor int `mapstructure:"budget_factor"`
	// ScriptInstructionLimit bounds the Lua instructions of one lookup.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// SQLiteConfig holds embedded database settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Enabled turns the Telnet front end on.
	Enabled bool `mapstructure:"enabled"`
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// WebSocketConfig holds the WebSocket endpoint settings.
type WebSocketConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	// Path is the HTTP path upgraded to a WebSocket, e.g. "/roll".
	Path string `mapstructure:"path"`
}

// Addr returns the "host:port" listen address.
func (w WebSocketConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

// GRPCConfig holds the roll service gRPC settings.
type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when set, also writes logs to a rotated file.
	File string `mapstructure:"file"`
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAgeDays is the age after which rotated files are removed.
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// Config is the top-level application configuration.
type Config struct {
	Roller    RollerConfig    `mapstructure:"roller"`
	Params    ParamsConfig    `mapstructure:"params"`
	Database  DatabaseConfig  `mapstructure:"database"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Telnet    TelnetConfig    `mapstructure:"telnet"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate checks all configuration invariants. Sections are checked only
// when the selected backend or an enabled front end needs them.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	collect(validateRoller(c.Roller))
	collect(validateParams(c.Params))
	switch c.Params.Backend {
	case BackendPostgres:
		collect(validateDatabase(c.Database))
	case BackendSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, "sqlite.path must not be empty")
		}
	}
	if c.Telnet.Enabled {
		collect(validateTelnet(c.Telnet))
	}
	if c.WebSocket.Enabled {
		collect(validateWebSocket(c.WebSocket))
	}
	if c.GRPC.Enabled {
		collect(validatePort("grpc.port", c.GRPC.Port))
	}
	collect(validateLogging(c.Logging))

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be 1-65535, got %d", key, port)
	}
	return nil
}

func validateRoller(r RollerConfig) error {
	var errs []string
	if r.Source != SourceSeeded && r.Source != SourceCrypto {
		errs = append(errs, fmt.Sprintf("roller.source must be one of [seeded, crypto], got %q", r.Source))
	}
	if r.MaxDice < 1 {
		errs = append(errs, fmt.Sprintf("roller.max_dice must be >= 1, got %d", r.MaxDice))
	}
	if r.MaxRerolls < 1 {
		errs = append(errs, fmt.Sprintf("roller.max_rerolls must be >= 1, got %d", r.MaxRerolls))
	}
	return joined(errs)
}

func validateParams(p ParamsConfig) error {
	var errs []string
	switch p.Backend {
	case BackendMemory, BackendPostgres, BackendSQLite:
	case BackendYAML, BackendLua:
		if p.Path == "" {
			errs = append(errs, fmt.Sprintf("params.path must be set for backend %q", p.Backend))
		}
	default:
		errs = append(errs, fmt.Sprintf("params.backend must be one of [memory, yaml, postgres, sqlite, lua], got %q", p.Backend))
	}
	if p.BudgetFactor < 0 {
		errs = append(errs, "params.budget_factor must not be negative")
	}
	if p.ScriptInstructionLimit < 0 {
		errs = append(errs, "params.script_instruction_limit must not be negative")
	}
	return joined(errs)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if err := validatePort("database.port", d.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if err := validatePort("telnet.port", t.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	return joined(errs)
}

func validateWebSocket(w WebSocketConfig) error {
	var errs []string
	if err := validatePort("websocket.port", w.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if !strings.HasPrefix(w.Path, "/") {
		errs = append(errs, fmt.Sprintf("websocket.path must start with '/', got %q", w.Path))
	}
	return joined(errs)
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	if l.File != "" && l.MaxSizeMB < 1 {
		errs = append(errs, fmt.Sprintf("logging.max_size_mb must be >= 1 when logging.file is set, got %d", l.MaxSizeMB))
	}
	return joined(errs)
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and DNDDICE_ environment
// overrides applied, for callers that run without a config file.
func NewViper() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with DNDDICE_ prefix
	v.SetEnvPrefix("DNDDICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("roller.source", SourceSeeded)
	v.SetDefault("roller.seed", 0)
	v.SetDefault("roller.max_dice", 1000)
	v.SetDefault("roller.max_rerolls", 10000)

	v.SetDefault("params.backend", BackendMemory)
	v.SetDefault("params.budget_factor", 100)
	v.SetDefault("params.script_instruction_limit", 100000)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dnddice")
	v.SetDefault("database.password", "dnddice")
	v.SetDefault("database.name", "dnddice")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("sqlite.path", "dnddice.db")

	v.SetDefault("telnet.enabled", true)
	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "5m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("websocket.enabled", true)
	v.SetDefault("websocket.host", "0.0.0.0")
	v.SetDefault("websocket.port", 8080)
	v.SetDefault("websocket.path", "/roll")

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.host", "127.0.0.1")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}
