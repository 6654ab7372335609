package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. NEXO_DATA_DIR or NEXO_TEMPLATES_UV_VERSION.
const EnvPrefix = "NEXO"

// Default download templates and pinned versions.
const (
	DefaultPythonTemplate    = "https://github.com/astral-sh/python-build-standalone/releases/download/{release_date}/cpython-{version}+{release_date}-{platform}-install_only.tar.gz"
	DefaultPythonReleaseDate = "20251217"
	DefaultUVTemplate        = "https://github.com/astral-sh/uv/releases/download/{version}/uv-{platform}.{ext}"
	DefaultUVVersion         = "0.9.21"
	DefaultNodeTemplate      = "https://nodejs.org/dist/v{version}/node-v{version}-{platform}.{ext}"

	DefaultIndexURL    = "https://raw.githubusercontent.com/nexo-app/nexo-addons/main/index.yaml"
	DefaultLogLevel    = "info"
	DefaultHTTPTimeout = 10 * time.Minute
)

// Templates holds the download URL templates and the values pinned alongside
// them. Placeholders are {version}, {platform}, {ext} and {release_date}.
type Templates struct {
	Python            string `mapstructure:"python" yaml:"python"`
	PythonReleaseDate string `mapstructure:"python_release_date" yaml:"python_release_date"`
	UV                string `mapstructure:"uv" yaml:"uv"`
	UVVersion         string `mapstructure:"uv_version" yaml:"uv_version"`
	Node              string `mapstructure:"node" yaml:"node"`
}

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() Templates {
	return Templates{
		Python:            DefaultPythonTemplate,
		PythonReleaseDate: DefaultPythonReleaseDate,
		UV:                DefaultUVTemplate,
		UVVersion:         DefaultUVVersion,
		Node:              DefaultNodeTemplate,
	}
}

// Settings is the application configuration.
type Settings struct {
	// DataDir is the per-user application data directory. Run-time
	// installations live under <DataDir>/<family>-runtimes/<version>.
	DataDir string `mapstructure:"data_dir"`
	// ProjectDir is the application project root used when bundling sidecars
	// into <ProjectDir>/binaries.
	ProjectDir string `mapstructure:"project_dir"`
	// IndexURL is the remote add-on index location.
	IndexURL string `mapstructure:"index_url"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// HTTPTimeout bounds a single archive download. Zero leaves the
	// transport default in place.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	Templates   Templates     `mapstructure:"templates"`
}

// DefaultDataDir returns <user config dir>/nexo.
func DefaultDataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "nexo"), nil
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	if dir, err := DefaultDataDir(); err == nil {
		v.SetDefault("data_dir", dir)
	}
	v.SetDefault("project_dir", ".")
	v.SetDefault("index_url", DefaultIndexURL)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)

	t := DefaultTemplates()
	v.SetDefault("templates.python", t.Python)
	v.SetDefault("templates.python_release_date", t.PythonReleaseDate)
	v.SetDefault("templates.uv", t.UV)
	v.SetDefault("templates.uv_version", t.UVVersion)
	v.SetDefault("templates.node", t.Node)
}

// Load reads settings from defaults, an optional config file and NEXO_*
// environment variables, in increasing order of precedence. Flags bound to v
// by the caller take precedence over all of them.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that required settings are present.
func (s *Settings) Validate() error {
	var errs []error
	if s.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if s.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("http_timeout must not be negative, got %s", s.HTTPTimeout))
	}
	t := s.Templates
	if t.Python == "" || t.UV == "" || t.Node == "" {
		errs = append(errs, errors.New("templates.python, templates.uv and templates.node are required"))
	}
	if t.UVVersion == "" {
		errs = append(errs, errors.New("templates.uv_version is required"))
	}
	if strings.Contains(t.Python, "{release_date}") && t.PythonReleaseDate == "" {
		errs = append(errs, errors.New("templates.python_release_date is required by templates.python"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
