// ABOUTME: YAML configuration for the vsslctrl CLI
// ABOUTME: Zone hosts, optional model pinning, timeouts and logging
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsslctrl/vsslctrl/pkg/vssl"
)

// Duration wraps time.Duration so YAML can carry values like "15s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the CLI configuration.
type Config struct {
	// Zones maps zone ids (1..6) to IP addresses. Empty means discover.
	Zones map[int]string `yaml:"zones"`

	// Model pins the amplifier model by marketing name, e.g. "A.3x". Empty
	// lets the device report it.
	Model string `yaml:"model"`

	// InitTimeout bounds how long each zone may take to initialise.
	InitTimeout Duration `yaml:"init_timeout"`

	// DiscoveryTimeout bounds the mDNS browse when no zones are configured.
	DiscoveryTimeout Duration `yaml:"discovery_timeout"`

	LogFile string `yaml:"log_file"`
	NoTUI   bool   `yaml:"no_tui"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		InitTimeout:      Duration(vssl.DefaultInitTimeout),
		DiscoveryTimeout: Duration(5 * time.Second),
		LogFile:          "vsslctrl.log",
	}
}

// Load reads a YAML config file and fills unset fields with defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = Duration(vssl.DefaultInitTimeout)
	}
	if cfg.DiscoveryTimeout <= 0 {
		cfg.DiscoveryTimeout = Duration(5 * time.Second)
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the device cannot accept.
func (c Config) Validate() error {
	seen := make(map[string]int, len(c.Zones))
	for id, host := range c.Zones {
		if !vssl.ZoneID(id).Valid() {
			return fmt.Errorf("zone id %d out of range 1..6", id)
		}
		if host == "" {
			return fmt.Errorf("zone %d has no host", id)
		}
		if other, ok := seen[host]; ok {
			return fmt.Errorf("zones %d and %d share host %s", other, id, host)
		}
		seen[host] = id
	}

	if c.Model != "" && vssl.ModelByName(c.Model) == nil {
		return fmt.Errorf("unknown model %q", c.Model)
	}

	return nil
}

// ZoneModel resolves the pinned model, nil when not pinned.
func (c Config) ZoneModel() *vssl.Model {
	if c.Model == "" {
		return nil
	}
	return vssl.ModelByName(c.Model)
}
