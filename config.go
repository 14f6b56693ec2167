package litemap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/litemap/dialect/sql"
	"github.com/syssam/litemap/dialect/sqlite"
	"github.com/syssam/litemap/schema"
)

// Config is the file form of the DB options.
//
//	dsn: file:app.db?_pragma=foreign_keys(1)
//	naming: snake_plural
//	flags: [implicit_pk, autoinc_pk]
//	slow_threshold: 200ms
type Config struct {
	DSN           string        `yaml:"dsn"`
	Debug         bool          `yaml:"debug,omitempty"`
	SlowThreshold time.Duration `yaml:"slow_threshold,omitempty"`
	Naming        string        `yaml:"naming,omitempty"`
	Flags         FlagList      `yaml:"flags,omitempty"`
	MaxOpenConns  int           `yaml:"max_open_conns,omitempty"`
}

var flagNames = map[string]Flags{
	"none":           FlagNone,
	"implicit_pk":    FlagImplicitPK,
	"implicit_index": FlagImplicitIndex,
	"autoinc_pk":     FlagAutoIncPK,
	"all_implicit":   FlagAllImplicit,
	"fts3":           FlagFullTextSearch3,
	"fts4":           FlagFullTextSearch4,
	"fts5":           FlagFullTextSearch5,
	"without_rowid":  FlagWithoutRowID,
}

// ParseFlags combines flag names such as "implicit_pk" or "fts5".
func ParseFlags(names ...string) (Flags, error) {
	var f Flags
	for _, name := range names {
		v, ok := flagNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			known := make([]string, 0, len(flagNames))
			for k := range flagNames {
				known = append(known, k)
			}
			sort.Strings(known)
			return 0, fmt.Errorf("litemap: unknown flag %q (known: %s)", name, strings.Join(known, ", "))
		}
		f |= v
	}
	return f, nil
}

// FlagList is a YAML value that can be either a flag name or a list of
// flag names.
type FlagList []string

// UnmarshalYAML implements yaml.Unmarshaler for FlagList.
func (l *FlagList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	default:
		return fmt.Errorf("expected flag name or list, got %v", node.Kind)
	}
}

// MarshalYAML implements yaml.Marshaler for FlagList.
func (l FlagList) MarshalYAML() (any, error) {
	if len(l) == 1 {
		return l[0], nil
	}
	return []string(l), nil
}

// LoadConfig loads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read litemap config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse litemap config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal litemap config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Options converts the configuration into DB options. Statement
// statistics are enabled when a slow threshold is set; slow statements are
// logged to logger.
func (c *Config) Options(logger *slog.Logger) ([]Option, error) {
	var opts []Option
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	if c.Debug {
		opts = append(opts, Debug())
	}
	if c.SlowThreshold > 0 {
		opts = append(opts, WithStats(sql.WithSlowThreshold(c.SlowThreshold), sql.WithSlowQueryLog(logger)))
	}
	if c.Naming != "" {
		n, ok := schema.NamingByName(c.Naming)
		if !ok {
			return nil, fmt.Errorf("litemap: unknown naming strategy %q", c.Naming)
		}
		opts = append(opts, WithNaming(n))
	}
	if len(c.Flags) > 0 {
		f, err := ParseFlags(c.Flags...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithFlags(f))
	}
	return opts, nil
}

// OpenConfig opens the database described by cfg.
func OpenConfig(cfg *Config, logger *slog.Logger) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("litemap: config has no dsn")
	}
	opts, err := cfg.Options(logger)
	if err != nil {
		return nil, err
	}
	drv, err := sqlite.Open(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("litemap: opening %s: %w", cfg.DSN, err)
	}
	if cfg.MaxOpenConns > 0 {
		drv.DB().SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return NewDB(drv, opts...), nil
}
