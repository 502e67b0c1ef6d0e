package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Layout kinds.
const (
	LayoutStatic  = "static"
	LayoutOpossum = "opossum"
	LayoutChrome  = "chrome"
)

// Config holds all sparkleq configuration.
type Config struct {
	// 9P service name the ctl file is posted as
	Service string `yaml:"service"`
	// Mount point on Plan 9
	Mountpoint string `yaml:"mountpoint"`
	Debug      bool   `yaml:"debug"`
	// Script execution timeout, e.g. "10s"
	Timeout string `yaml:"timeout"`

	Layout LayoutConfig `yaml:"layout"`
}

// LayoutConfig selects where geometry and computed style come from.
type LayoutConfig struct {
	Kind    string       `yaml:"kind"` // static, opossum, chrome
	ScrollX float64      `yaml:"scroll_x"`
	ScrollY float64      `yaml:"scroll_y"`
	Chrome  ChromeConfig `yaml:"chrome"`
}

// ChromeConfig configures the headless Chrome layout.
type ChromeConfig struct {
	// DevTools websocket of a running browser; empty launches one
	RemoteURL string `yaml:"remote_url"`
	Headless  bool   `yaml:"headless"`
}

func Default() *Config {
	return &Config{
		Service:    "sparkleq",
		Mountpoint: "/mnt/sparkleq",
		Timeout:    "10s",
		Layout: LayoutConfig{
			Kind: LayoutStatic,
			Chrome: ChromeConfig{
				Headless: true,
			},
		},
	}
}

// Load reads configuration from a YAML file. A missing file gives the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if s := os.Getenv("SPARKLEQ_SERVICE"); s != "" {
		c.Service = s
	}
	if k := os.Getenv("SPARKLEQ_LAYOUT"); k != "" {
		c.Layout.Kind = k
	}
	if u := os.Getenv("SPARKLEQ_CHROME_URL"); u != "" {
		c.Layout.Chrome.RemoteURL = u
	}
}

// GetTimeout returns the script timeout, 10s if unset or malformed.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

var ValidLayouts = []string{LayoutStatic, LayoutOpossum, LayoutChrome}

func (c *Config) Validate() error {
	if c.Service == "" {
		return errors.New("service name not configured")
	}
	valid := false
	for _, k := range ValidLayouts {
		if c.Layout.Kind == k {
			valid = true
			break
		}
	}
	if !valid {
		return errors.Errorf("invalid layout kind: %s (valid: %v)", c.Layout.Kind, ValidLayouts)
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return errors.Wrapf(err, "invalid timeout %q", c.Timeout)
		}
	}
	return nil
}
