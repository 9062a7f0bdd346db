// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads nightcore.yaml through viper, layered with
// NIGHTCORE_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the console configuration.
type Config struct {
	TrustRoot string `mapstructure:"trust_root" yaml:"trust_root"`
	ProDir    string `mapstructure:"pro_dir" yaml:"pro_dir"`
	Language  string `mapstructure:"language" yaml:"language"`

	Log struct {
		Level string `mapstructure:"level" yaml:"level"`
	} `mapstructure:"log" yaml:"log"`

	Approval struct {
		Actor string `mapstructure:"actor" yaml:"actor"`
	} `mapstructure:"approval" yaml:"approval"`

	License struct {
		Endpoint       string        `mapstructure:"endpoint" yaml:"endpoint"`
		ActivationName string        `mapstructure:"activation_name" yaml:"activation_name"`
		Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
		Retries        int           `mapstructure:"retries" yaml:"retries"`
	} `mapstructure:"license" yaml:"license"`

	Engine struct {
		Binary     string        `mapstructure:"binary" yaml:"binary"`
		SigningKey string        `mapstructure:"signing_key" yaml:"signing_key"`
		Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	} `mapstructure:"engine" yaml:"engine"`

	Secrets struct {
		Service    string `mapstructure:"service" yaml:"service"`
		UseKeyring bool   `mapstructure:"use_keyring" yaml:"use_keyring"`
	} `mapstructure:"secrets" yaml:"secrets"`

	Audit struct {
		Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
		DSN     string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"audit" yaml:"audit"`
}

// Defaults returns the viper defaults for Config. Paths left empty are
// derived from trust_root by Resolve.
func Defaults() map[string]any {
	return map[string]any{
		"trust_root":              "",
		"pro_dir":                 "",
		"language":                "en",
		"log.level":               "info",
		"approval.actor":          "gui",
		"license.endpoint":        "https://api.lemonsqueezy.com/v1/licenses/validate",
		"license.activation_name": "Night Core Console",
		"license.timeout":         "15s",
		"license.retries":         1,
		"engine.binary":           "",
		"engine.signing_key":      "",
		"engine.timeout":          "0s",
		"secrets.service":         "nightcore",
		"secrets.use_keyring":     true,
		"audit.enabled":           true,
		"audit.dsn":               "",
	}
}

// Resolve fills derived paths and expands a leading "~".
func (c *Config) Resolve() error {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if c.TrustRoot == "" {
		c.TrustRoot = filepath.Join(home, ".nightcore")
	}
	c.TrustRoot = expandHome(c.TrustRoot, home)
	if c.ProDir == "" {
		c.ProDir = filepath.Join(c.TrustRoot, "pro")
	}
	c.ProDir = expandHome(c.ProDir, home)
	if c.Engine.SigningKey != "" {
		c.Engine.SigningKey = expandHome(c.Engine.SigningKey, home)
	}
	if c.Audit.DSN == "" {
		c.Audit.DSN = filepath.Join(c.TrustRoot, "state", "audit.db")
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Approval.Actor == "" {
		c.Approval.Actor = "gui"
	}
	if c.Engine.Timeout < 0 || c.License.Timeout < 0 {
		return fmt.Errorf("config: timeouts must not be negative")
	}
	return nil
}

func expandHome(p, home string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		return filepath.Join(home, p[2:])
	}
	return p
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "NightCore")
		default:
			configDir = "/etc/nightcore"
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(dir, "nightcore")
	}
	return filepath.Join(configDir, "nightcore.yaml"), nil
}

// LoadConfig builds T from defaults, the first nightcore.yaml found (or the
// explicit path), NIGHTCORE_* variables and the command's flags.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicitPath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("nightcore")
	v.SetConfigType("yaml")
	if explicitPath != nil && *explicitPath != "" {
		v.SetConfigFile(*explicitPath)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	var notFound error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		notFound = err
	}

	mergeLocalOverride(v)

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("nightcore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	// The caller decides whether to write a default file.
	return c, notFound
}

// mergeLocalOverride merges a ".nightcore.yaml" in the working directory
// over whatever was read. A malformed override is ignored.
func mergeLocalOverride(v *viper.Viper) {
	const local = ".nightcore.yaml"
	if _, err := os.Stat(local); err != nil {
		return
	}
	v.SetConfigFile(local)
	_ = v.MergeInConfig()
	v.SetConfigFile("")
}

// WriteConfigFile writes c as YAML to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}
	return WriteConfigFileTo(c, path)
}

// WriteConfigFileTo writes c as YAML to path with owner-only permissions.
func WriteConfigFileTo[T any](c *T, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	return os.WriteFile(path, data, 0o600)
}
