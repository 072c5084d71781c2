// Package config loads autocode settings from defaults, an autocode.toml
// project file and AUTOCODE_* environment variables, in that order of
// precedence.
package config

import (
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/iancoleman/strcase"
	"github.com/pelletier/go-toml/v2"
	"github.com/sghaida/autocode/dispatch"
	"github.com/sghaida/autocode/strategy"
	"github.com/spf13/viper"
)

// FileName is the project configuration file searched for by Load.
const FileName = "autocode.toml"

// EnvPrefix prefixes environment overrides, e.g. AUTOCODE_GENERATION_DIR.
const EnvPrefix = "AUTOCODE"

// EnvVar names the environment variable that overrides key, e.g.
// "watch.debounce_ms" is AUTOCODE_WATCH_DEBOUNCE_MS.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strcase.ToScreamingSnake(strings.ReplaceAll(key, ".", "_"))
}

// Config is the full autocode configuration.
type Config struct {
	GenerationDir     string      `mapstructure:"generation_dir" toml:"generation_dir" yaml:"generation_dir"`
	SourceDir         string      `mapstructure:"source_dir" toml:"source_dir,omitempty" yaml:"source_dir"`
	Version           string      `mapstructure:"version" toml:"version" yaml:"version"`
	RootPackage       string      `mapstructure:"root_package" toml:"root_package" yaml:"root_package"`
	RuntimeImport     string      `mapstructure:"runtime_import" toml:"runtime_import" yaml:"runtime_import"`
	CascadeNeedsTrait bool        `mapstructure:"cascade_needs_trait" toml:"cascade_needs_trait" yaml:"cascade_needs_trait"`
	Scan              ScanConfig  `mapstructure:"scan" toml:"scan" yaml:"scan"`
	Watch             WatchConfig `mapstructure:"watch" toml:"watch" yaml:"watch"`
	Log               LogConfig   `mapstructure:"log" toml:"log" yaml:"log"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-" toml:"-" yaml:"-"`
}

type ScanConfig struct {
	Dirs []string `mapstructure:"dirs" toml:"dirs" yaml:"dirs"`
}

type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" toml:"debounce_ms" yaml:"debounce_ms"`
}

type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" yaml:"json"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("generation_dir", ".")
	v.SetDefault("source_dir", "")
	v.SetDefault("version", dispatch.DefaultVersion)
	v.SetDefault("root_package", "main")
	v.SetDefault("runtime_import", strategy.DefaultRuntimeImport)
	v.SetDefault("cascade_needs_trait", false)
	v.SetDefault("scan.dirs", []string{"."})
	v.SetDefault("watch.debounce_ms", 500)
	v.SetDefault("log.json", false)
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// Defaults always decode.
		panic(err)
	}
	return cfg
}

// Load reads configuration. An empty path searches for autocode.toml from
// the working directory upwards; a missing file is not an error in that case.
// Relative directories are resolved against the file's directory, or the
// working directory when there is no file.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = FindProjectConfig(wd)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	cfg.File = path

	base, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine working directory")
	}
	if path != "" {
		base = filepath.Dir(path)
	}
	cfg.resolve(base)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithViper decodes a prepared viper instance without validating it.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// FindProjectConfig walks up from start looking for autocode.toml and returns
// its path, or "" when there is none.
func FindProjectConfig(start string) string {
	dir := start
	for {
		p := filepath.Join(dir, FileName)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func (c *Config) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	c.GenerationDir = abs(c.GenerationDir)
	if c.SourceDir == "" {
		c.SourceDir = c.GenerationDir
	} else {
		c.SourceDir = abs(c.SourceDir)
	}
	for i, d := range c.Scan.Dirs {
		c.Scan.Dirs[i] = abs(d)
	}
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if c.GenerationDir == "" {
		return invalid("generation_dir", errors.New("generation_dir cannot be empty"))
	}
	if strings.TrimSpace(c.Version) == "" {
		return invalid("version", errors.New("version cannot be empty"))
	}
	if strings.ContainsAny(c.Version, "\r\n") {
		return invalid("version", errors.Newf("version must be a single line, got %q", c.Version))
	}
	if !token.IsIdentifier(c.RootPackage) {
		return invalid("root_package", errors.Newf("root_package must be a Go identifier, got %q", c.RootPackage))
	}
	if c.RuntimeImport == "" {
		return invalid("runtime_import", errors.New("runtime_import cannot be empty"))
	}
	if c.Watch.DebounceMS < 0 {
		return invalid("watch.debounce_ms", errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS))
	}
	return nil
}

func invalid(key string, err error) error {
	return errors.WithHintf(err, "set %s in %s or %s", key, FileName, EnvVar(key))
}

// Dispatch is the dispatcher configuration derived from c.
func (c *Config) Dispatch() dispatch.Config {
	return dispatch.Config{
		GenerationDir:     c.GenerationDir,
		Version:           c.Version,
		RootPackage:       c.RootPackage,
		RuntimeImport:     c.RuntimeImport,
		CascadeNeedsTrait: c.CascadeNeedsTrait,
	}
}

// Debounce is the watch quiet period.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// WriteDefault writes a starter configuration file to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.WithHint(errors.Newf("config file %s already exists", path), "pass --force to overwrite it")
	}

	cfg := Default()
	cfg.SourceDir = ""
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
