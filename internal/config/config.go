package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/glintui/glint/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "glint.json"

	// DefaultDevtoolsAddr is the default listen address for the inspector.
	DefaultDevtoolsAddr = "127.0.0.1:6230"

	// DefaultNamespace is the default Prometheus metric namespace.
	DefaultNamespace = "glint"

	// DefaultBenchProfile is the bench preset used when none is configured.
	DefaultBenchProfile = "standard"
)

// Environment variables that override file values.
const (
	EnvAddr      = "GLINT_ADDR"
	EnvDebug     = "GLINT_DEBUG"
	EnvNamespace = "GLINT_NAMESPACE"
)

// Config represents the complete glint.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Debug enables verbose runtime traces and the graph debug registry.
	Debug bool `json:"debug,omitempty"`

	// Devtools contains inspector server configuration.
	Devtools DevtoolsConfig `json:"devtools,omitempty"`

	// Metrics contains Prometheus export configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Bench contains defaults for the bench command.
	Bench BenchConfig `json:"bench,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DevtoolsConfig contains inspector server settings.
type DevtoolsConfig struct {
	// Addr is the host:port the inspector listens on.
	Addr string `json:"addr,omitempty"`
}

// MetricsConfig contains Prometheus export settings.
type MetricsConfig struct {
	// Namespace is the metric name prefix.
	Namespace string `json:"namespace,omitempty"`

	// Subsystem is an optional second-level metric name prefix.
	Subsystem string `json:"subsystem,omitempty"`
}

// BenchConfig contains defaults for the bench command.
type BenchConfig struct {
	// Profile selects the bench preset (fast, standard, stress).
	Profile string `json:"profile,omitempty"`

	// Iterations overrides the preset's per-scenario operation count.
	Iterations int `json:"iterations,omitempty"`

	// FanOut overrides the preset's effect fan-out width.
	FanOut int `json:"fanOut,omitempty"`
}

// Default creates a new Config with default values.
func Default() *Config {
	return &Config{
		Devtools: DevtoolsConfig{
			Addr: DefaultDevtoolsAddr,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Bench: BenchConfig{
			Profile: DefaultBenchProfile,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for glint.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
// Defaults are filled in and GLINT_* environment overrides applied.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E120").
				WithDetail("No glint.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'glint init' to create a project or create glint.json manually")
		}
		return nil, errors.New("E100").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E100").
			WithDetail("Failed to parse glint.json: " + err.Error()).
			WithSuggestion("Check that glint.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E100").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E100").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = DefaultDevtoolsAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Bench.Profile == "" {
		c.Bench.Profile = DefaultBenchProfile
	}
}

// applyEnv applies GLINT_* environment overrides on top of file values.
func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvAddr); ok && v != "" {
		c.Devtools.Addr = v
	}
	if v, ok := os.LookupEnv(EnvNamespace); ok && v != "" {
		c.Metrics.Namespace = v
	}
	if v, ok := os.LookupEnv(EnvDebug); ok && v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("E103").
				WithDetail(EnvDebug + "=" + v + " is not a boolean value").
				WithSuggestion("Use GLINT_DEBUG=1 or GLINT_DEBUG=0")
		}
		c.Debug = on
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Devtools.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Devtools.Addr); err != nil {
			return errors.New("E101").
				WithDetail("devtools.addr " + strconv.Quote(c.Devtools.Addr) + " is not host:port").
				Wrap(err)
		}
	}
	if c.Bench.Iterations < 0 {
		return errors.New("E102").
			WithDetail("bench.iterations must not be negative")
	}
	if c.Bench.FanOut < 0 {
		return errors.New("E102").
			WithDetail("bench.fanOut must not be negative")
	}
	return nil
}

// DevtoolsAddr returns the address the inspector should listen on.
func (c *Config) DevtoolsAddr() string {
	if c.Devtools.Addr == "" {
		return DefaultDevtoolsAddr
	}
	return c.Devtools.Addr
}

// DevtoolsURL returns the full URL for the inspector.
func (c *Config) DevtoolsURL() string {
	return "http://" + c.DevtoolsAddr()
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing glint.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E120").
				WithDetail("No glint.json found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'glint init' to create a project")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

// LoadOrDefault loads the nearest project configuration, falling back to
// built-in defaults when no glint.json exists. Environment overrides apply
// either way; parse failures are still reported.
func LoadOrDefault() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		cfg := Default()
		if err := cfg.applyEnv(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return Load(root)
}
