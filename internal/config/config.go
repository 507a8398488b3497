package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override, e.g.
// SHIT_OUTPUTDIR.
const EnvPrefix = "SHIT"

type Config struct {
	SiteTitle  string         `mapstructure:"siteTitle"`
	BaseURL    string         `mapstructure:"baseURL"`
	OutputDir  string         `mapstructure:"outputDir"`
	ContentDir string         `mapstructure:"contentDir"`
	LayoutsDir string         `mapstructure:"layoutsDir"`
	StaticDir  string         `mapstructure:"staticDir"`
	LogLevel   string         `mapstructure:"logLevel"`
	Params     map[string]any `mapstructure:"params"`
}

// Load reads configuration from cfgFile, or ./config.yaml when cfgFile is
// empty, layered over defaults and SHIT_* environment variables. A missing
// default config file is not an error; the returned path is then empty.
func Load(cfgFile string) (Config, string, error) {
	v := viper.New()

	v.SetDefault("siteTitle", "My Terrific SHIT Site")
	v.SetDefault("baseURL", "")
	v.SetDefault("outputDir", "public")
	v.SetDefault("contentDir", "content")
	v.SetDefault("layoutsDir", "layouts")
	v.SetDefault("staticDir", "static")
	v.SetDefault("logLevel", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return cfg, "", fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, "", fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	return cfg, used, nil
}

// Validate rejects configurations that would make a build destroy its own
// sources: the output directory is wiped at the start of every build, so it
// may neither contain nor sit inside a source directory.
func (c Config) Validate() error {
	dirs := map[string]string{
		"outputDir":  c.OutputDir,
		"contentDir": c.ContentDir,
		"layoutsDir": c.LayoutsDir,
		"staticDir":  c.StaticDir,
	}
	for key, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("config: %s must not be empty", key)
		}
	}

	if filepath.Clean(c.OutputDir) == "." {
		return fmt.Errorf("config: outputDir %q would remove the project root", c.OutputDir)
	}
	out, err := filepath.Abs(c.OutputDir)
	if err != nil {
		return fmt.Errorf("config: resolving outputDir %q: %w", c.OutputDir, err)
	}
	if filepath.Dir(out) == out {
		return fmt.Errorf("config: outputDir %q would remove the filesystem root", c.OutputDir)
	}
	for _, key := range []string{"contentDir", "layoutsDir", "staticDir"} {
		src, err := filepath.Abs(dirs[key])
		if err != nil {
			return fmt.Errorf("config: resolving %s %q: %w", key, dirs[key], err)
		}
		switch {
		case src == out:
			return fmt.Errorf("config: outputDir must differ from %s (%q)", key, dirs[key])
		case within(out, src):
			return fmt.Errorf("config: outputDir %q contains %s %q", c.OutputDir, key, dirs[key])
		case within(src, out):
			return fmt.Errorf("config: outputDir %q lies inside %s %q", c.OutputDir, key, dirs[key])
		}
	}
	return nil
}

// within reports whether path lies below dir. Both must be absolute.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// SlogLevel maps LogLevel to a slog.Level. ok is false for unrecognized
// values, in which case info is returned.
func (c Config) SlogLevel() (level slog.Level, ok bool) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
