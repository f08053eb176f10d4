package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/skillstats/internal/skill"
)

// EnvPrefix is the prefix of environment overrides (SKILLSTATS_DATABASE_HOST, ...).
const EnvPrefix = "SKILLSTATS_"

// Driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration of the skillstats host.
type Config struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"` // debug, info, warn, error

	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	HTTP     HTTPConfig     `yaml:"http" envPrefix:"HTTP_"`

	// HTMLDir overrides the built-in templates; empty means built-in.
	HTMLDir string `yaml:"html_dir" env:"HTML_DIR"`

	Skills SkillsConfig `yaml:"skills"`
}

// DatabaseConfig holds storage parameters.
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`

	// PostgreSQL
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`

	// SQLite
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`

	SkillsTable   string `yaml:"skills_table" env:"SKILLS_TABLE"`
	AccountsTable string `yaml:"accounts_table" env:"ACCOUNTS_TABLE"`

	// Migrate applies host-table migrations (accounts) on startup.
	Migrate bool `yaml:"migrate" env:"MIGRATE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// HTTPConfig holds the serve endpoint parameters.
type HTTPConfig struct {
	BindAddress string `yaml:"bind_address" env:"BIND_ADDRESS"`
	Port        int    `yaml:"port" env:"PORT"`
}

// Addr returns host:port for net.Listen.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.BindAddress, h.Port)
}

// SkillsConfig holds per-skill visibility settings and static display overrides.
type SkillsConfig struct {
	// Settings maps enable_<key> to visibility; absent keys are visible.
	Settings map[string]bool `yaml:"settings"`

	// Overrides maps skill key to a static display override.
	Overrides map[string]OverrideConfig `yaml:"overrides"`
}

// LookupSetting implements skill.SettingsSource.
func (s SkillsConfig) LookupSetting(key skill.SettingKey) (bool, bool) {
	v, ok := s.Settings[string(key)]
	return v, ok
}

// OverrideConfig is a static override: only value replaces the value,
// label and value replace both. A nil field is absent.
type OverrideConfig struct {
	Label *string `yaml:"label"`
	Value *string `yaml:"value"`
}

// Default returns Config with sensible defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver:        DriverPostgres,
			Host:          "127.0.0.1",
			Port:          5432,
			User:          "skillstats",
			Password:      "skillstats",
			DBName:        "skillstats",
			SSLMode:       "disable",
			SQLitePath:    "skillstats.db",
			SkillsTable:   "skills",
			AccountsTable: "accounts",
			Migrate:       true,
		},
		HTTP: HTTPConfig{
			BindAddress: "127.0.0.1",
			Port:        8080,
		},
	}
}

// Load loads config from a YAML file, then applies SKILLSTATS_* environment overrides.
// If the file doesn't exist, defaults are used.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parsing env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted. Skill keys are checked against the built-in registry.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if strings.TrimSpace(c.Database.SQLitePath) == "" {
			return errors.New("database.sqlite_path is required for sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.SkillsTable == "" {
		return errors.New("database.skills_table is required")
	}
	if c.Database.AccountsTable == "" {
		return errors.New("database.accounts_table is required")
	}
	return c.Skills.validate(skill.DefaultRegistry())
}

// validate rejects settings and overrides that name no registered skill.
func (s SkillsConfig) validate(reg *skill.Registry) error {
	known := make(map[string]bool, reg.Len())
	for _, key := range reg.Keys() {
		known[string(key.SettingKey())] = true
	}
	for name := range s.Settings {
		if !known[name] {
			return fmt.Errorf("skills.settings: unknown setting %q: %w", name, skill.ErrUnknownSkill)
		}
	}
	for name := range s.Overrides {
		if _, ok := reg.Lookup(skill.Key(name)); !ok {
			return fmt.Errorf("skills.overrides: %q: %w", name, skill.ErrUnknownSkill)
		}
	}
	return nil
}
