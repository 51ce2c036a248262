// Package settings loads user-level modman settings from a YAML file and MODMAN_ environment variables.
package settings

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.trai.ch/modman/internal/build"
	"go.trai.ch/zerr"
)

// envPrefix is the environment variable prefix for modman settings.
const envPrefix = "MODMAN"

const (
	// DefaultRegistryURL is the Modrinth API v2 base URL.
	DefaultRegistryURL = "https://api.modrinth.com/v2"
	// DefaultHTTPTimeout bounds every registry request and artifact download.
	DefaultHTTPTimeout = 30 * time.Second
)

// Settings holds the user-level knobs that do not belong in a project's modman.toml.
type Settings struct {
	RegistryURL string        `mapstructure:"registry_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	Concurrency int           `mapstructure:"concurrency"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	MetricsFile string        `mapstructure:"metrics_file"`
	NoProgress  bool          `mapstructure:"no_progress"`
	// LogFormat is the default for --log-format.
	LogFormat string `mapstructure:"log_format"`
	// Tracing sends spans to the globally registered OpenTelemetry provider.
	Tracing bool `mapstructure:"tracing"`
}

// Loader handles loading settings from file and environment.
type Loader struct {
	v      *viper.Viper
	getenv func(string) string
}

// NewLoader creates a new settings loader bound to the process environment.
func NewLoader() *Loader {
	return newLoader(os.Getenv)
}

func newLoader(getenv func(string) string) *Loader {
	v := viper.New()

	v.SetDefault("registry_url", DefaultRegistryURL)
	v.SetDefault("user_agent", DefaultUserAgent())
	v.SetDefault("concurrency", runtime.NumCPU())
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("metrics_file", "")
	v.SetDefault("no_progress", false)
	v.SetDefault("tracing", false)
	v.SetDefault("log_format", "pretty")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, getenv: getenv}
}

// DefaultUserAgent identifies modman to the registry, as Modrinth asks clients to do.
func DefaultUserAgent() string {
	return "modman/" + build.Version + " (+https://go.trai.ch/modman)"
}

// Load reads settings. An empty path selects $XDG_CONFIG_HOME/modman/settings.yaml.
// A missing file is not an error; environment variables take precedence over file values.
func (l *Loader) Load(path string) (*Settings, error) {
	if path == "" {
		path = l.defaultPath()
	}

	if path != "" {
		l.v.SetConfigFile(path)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, zerr.With(zerr.Wrap(err, "failed to read settings file"), "path", path)
			}
		}
	}

	var s Settings
	if err := l.v.Unmarshal(&s); err != nil {
		return nil, zerr.Wrap(err, "failed to parse settings")
	}
	if s.Concurrency < 1 {
		s.Concurrency = 1
	}
	if s.HTTPTimeout <= 0 {
		s.HTTPTimeout = DefaultHTTPTimeout
	}
	s.RegistryURL = strings.TrimRight(s.RegistryURL, "/")

	return &s, nil
}

func (l *Loader) defaultPath() string {
	dir := l.getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "modman", "settings.yaml")
}
