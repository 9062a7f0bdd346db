// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cfg "github.com/xnfinite/nightcoreapp/internal/config"
)

func resetViper() {
	viper.Reset()
}

func TestLoadConfig_MissingFileReportsNotFound(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	chdir(t, tmp)

	resetViper()
	defer resetViper()

	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil)
	if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		t.Fatalf("expected ConfigFileNotFoundError, got: %T %v", err, err)
	}
	if c.Language != "en" || c.Approval.Actor != "gui" {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.License.Timeout != 15*time.Second {
		t.Fatalf("license timeout = %v, want 15s", c.License.Timeout)
	}
}

func TestWriteConfigFile_CreatesFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	resetViper()
	defer resetViper()

	c := cfg.Config{}
	c.TrustRoot = "/srv/nightcore"
	c.Language = "de"

	if err := cfg.WriteConfigFile(&c, false); err != nil {
		t.Fatalf("WriteConfigFile failed: %v", err)
	}

	path, err := cfg.GetConfigPath(false)
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	if filepath.Base(path) != "nightcore.yaml" {
		t.Fatalf("unexpected config file name %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file at %s, stat error: %v", path, err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("config perm = %o, want 600", info.Mode().Perm())
	}
}

func TestLoadConfig_ReadsExplicitFile(t *testing.T) {
	tmp := t.TempDir()
	chdir(t, tmp)
	yaml := "trust_root: /data/nc\nlanguage: de\nlicense:\n  retries: 3\n  timeout: 2s\nengine:\n  binary: /usr/bin/nightcore\n"
	file := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	resetViper()
	defer resetViper()

	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &file)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.TrustRoot != "/data/nc" || c.Language != "de" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.License.Retries != 3 || c.License.Timeout != 2*time.Second {
		t.Fatalf("license section not read: %+v", c.License)
	}
	if c.Engine.Binary != "/usr/bin/nightcore" {
		t.Fatalf("engine binary = %q", c.Engine.Binary)
	}
	if !c.Secrets.UseKeyring {
		t.Fatalf("expected keyring default to survive a partial file")
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	tmp := t.TempDir()
	chdir(t, tmp)
	file := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(file, []byte("approval:\n  actor: file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("NIGHTCORE_APPROVAL_ACTOR", "env")

	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &file)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Approval.Actor != "env" {
		t.Fatalf("actor = %q, want env", c.Approval.Actor)
	}
}

func TestResolve_DerivesPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var c cfg.Config
	if err := c.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.TrustRoot != filepath.Join(home, ".nightcore") {
		t.Fatalf("trust root = %q", c.TrustRoot)
	}
	if c.ProDir != filepath.Join(c.TrustRoot, "pro") {
		t.Fatalf("pro dir = %q", c.ProDir)
	}
	if c.Audit.DSN != filepath.Join(c.TrustRoot, "state", "audit.db") {
		t.Fatalf("audit dsn = %q", c.Audit.DSN)
	}

	c = cfg.Config{TrustRoot: "~/tenants", ProDir: "/opt/pro"}
	if err := c.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.TrustRoot != filepath.Join(home, "tenants") || c.ProDir != "/opt/pro" {
		t.Fatalf("unexpected resolve: %+v", c)
	}

	c = cfg.Config{}
	c.Engine.Timeout = -time.Second
	if err := c.Resolve(); err == nil {
		t.Fatalf("expected negative timeout to fail")
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
