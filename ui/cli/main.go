// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli sets up the nightcore command line with cobra. It defines
// the root command (which starts the TUI), the subcommands and their
// flags, and the shared service setup run before each command.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xnfinite/nightcoreapp/buildvars"
	"github.com/xnfinite/nightcoreapp/internal/config"
	"github.com/xnfinite/nightcoreapp/internal/core"
	"github.com/xnfinite/nightcoreapp/internal/i18n"
	"github.com/xnfinite/nightcoreapp/internal/logging"
	"github.com/xnfinite/nightcoreapp/internal/tui"
)

const modulePath = "github.com/xnfinite/nightcoreapp"

var version = "dev"   // set by the linker
var gitCommit = "dev" // short commit SHA, set at build time
var buildDate = ""    // RFC3339, set at build time

var cfgFile string
var verbose bool
var jsonOutput bool

var appConfig config.Config

// svc is built by setupDefaultServices and closed by Execute.
var svc *core.Service

// skipServices lists commands that never touch the trust root.
var skipServices = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

func setupDefaultServices(cmd *cobra.Command, _ []string) error {
	if skipServices[cmd.Name()] {
		return nil
	}
	if svc != nil {
		return nil
	}

	explicit, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, config.Defaults(), explicit)
	var notFound viper.ConfigFileNotFoundError
	switch {
	case errors.As(err, &notFound):
		// First run: keep defaults and let `nightcore init` persist them.
		log.Debug("no config file found, using defaults")
	case err != nil:
		return fmt.Errorf("%s", i18n.T("config.error_load", err))
	}
	if err := appConfig.Resolve(); err != nil {
		return err
	}

	i18n.Init(appConfig.Language)
	logging.Configure(appConfig.Log.Level, verbose)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	svc, err = core.New(cmd.Context(), appConfig)
	if err != nil {
		return errors.New(i18n.T("config.error_init_services", err))
	}
	return nil
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// Execute runs the CLI entrypoint. The main package handles process exit.
func Execute() error {
	defer closeServices()
	return NewRootCmd().Execute()
}

func closeServices() {
	if svc == nil {
		return
	}
	if err := svc.Close(); err != nil {
		log.Warnf("close: %v", err)
	}
	svc = nil
}

// NewRootCmd creates the root command with all subcommands attached. Tests
// call it repeatedly, so persistent flags are only defined once per root.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nightcore",
		Short: "NightCore is the local trust console for sandboxed WebAssembly tenants.",
		Long: `NightCore reconciles tenant manifests with the engine's decision log,
manages approvals and quarantine listings, and keeps a device-bound
license cache.

Running without a subcommand launches the interactive TUI.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupDefaultServices,
		RunE: func(cmd *cobra.Command, args []string) error {
			logFile, err := openConsoleLog(svc.Root)
			if err == nil {
				logging.SetOutput(logFile)
				defer func() {
					logging.SetOutput(os.Stderr)
					_ = logFile.Close()
				}()
			}
			return tui.Run(cmd.Context(), svc)
		},
	}
	cmd.Version = compositeVersion()

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON instead of tables")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("trust_root", "", "Trust root directory (default ~/.nightcore)")
	cmd.PersistentFlags().String("pro_dir", "", "License and policy directory (default <trust_root>/pro)")
	cmd.PersistentFlags().String("language", "", `Console language ("en", "de")`)

	cmd.AddCommand(
		tenantsCmd(),
		decisionsCmd(),
		quarantineCmd(),
		licenseCmd(),
		policiesCmd(),
		maskCmd(),
		importCmd(),
		snapshotCmd(),
		runtimeCmd(),
		auditCmd(),
		initCmd(),
		versionCmd(),
		debugCmd(),
	)
	return cmd
}

// openConsoleLog redirects logs away from the terminal the TUI owns.
func openConsoleLog(root string) (*os.File, error) {
	dir := filepath.Join(root, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "console.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}
}

func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	if c != "" && c != "dev" {
		v += " (" + c + ")"
	}
	if d != "" {
		v += " built: " + d
	}
	return v
}

// resolveBuildVersion computes the best-available version, commit and
// build date. A nil info reads build info from the runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}
	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		if resolvedVersion == "dev" || resolvedVersion == "(devel)" {
			for _, dep := range info.Deps {
				if dep.Path == modulePath && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}
