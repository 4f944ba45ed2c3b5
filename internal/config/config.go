package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultConfigYAML []byte

// Config holds the upstream endpoints and defaults shared by all subcommands
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Attack   AttackConfig   `yaml:"attack"`
	Vault    VaultConfig    `yaml:"vault"`
	Calendar CalendarConfig `yaml:"calendar"`
}

type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// AttackConfig locates the ATT&CK STIX feed, its release tags and the public site.
// BundleURL contains a literal {version} placeholder.
type AttackConfig struct {
	BundleURL      string `yaml:"bundle_url"`
	DefaultVersion string `yaml:"default_version"`
	TagsURL        string `yaml:"tags_url"`
	SiteURL        string `yaml:"site_url"`
	KillChain      string `yaml:"kill_chain"`
}

type VaultConfig struct {
	Folder       string `yaml:"folder"`
	RenameSuffix string `yaml:"rename_suffix"`
}

type CalendarConfig struct {
	OutDir string `yaml:"out_dir"`
}

// Load loads configuration from YAML.
// If configPath is empty, uses the embedded defaults.
// If configPath is provided, values from that file override the defaults.
func Load(configPath string) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(defaultConfigYAML, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if !strings.Contains(c.Attack.BundleURL, "{version}") {
		return fmt.Errorf("attack.bundle_url must contain {version}: %q", c.Attack.BundleURL)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout)
	}
	return nil
}

// BundleURLFor expands the feed URL template for a branch or tag
func (c AttackConfig) BundleURLFor(version string) string {
	if version == "" {
		version = c.DefaultVersion
	}
	return strings.ReplaceAll(c.BundleURL, "{version}", version)
}
