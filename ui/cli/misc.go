// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	log "github.com/charmbracelet/log"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xnfinite/nightcoreapp/internal/config"
	"github.com/xnfinite/nightcoreapp/internal/core"
	"github.com/xnfinite/nightcoreapp/internal/fsutil"
	"github.com/xnfinite/nightcoreapp/internal/i18n"
	"github.com/xnfinite/nightcoreapp/internal/snapshot"
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

func maskCmd() *cobra.Command {
	var copyOut bool
	cmd := &cobra.Command{
		Use:   "mask <path>",
		Short: "Print the worker:// token for a path under the trust root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := args[0]
			if abs, err := filepath.Abs(p); err == nil {
				p = abs
			}
			masked := svc.Mask(p)
			fmt.Fprintln(cmd.OutOrStdout(), masked)
			if copyOut {
				if err := copyToClipboard(masked); err != nil {
					return fmt.Errorf("%s", i18n.T("mask.copy_failed", err))
				}
				fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("mask.copied"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&copyOut, "copy", false, "Also copy the token to the clipboard")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.wasm|file.zip>",
		Short: "Import an artifact as a new manually ingested tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := svc.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("import.success", name))
			return nil
		},
	}
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or inspect a compressed trust-state snapshot",
	}
	export := &cobra.Command{
		Use:   "export [output-file]",
		Short: "Write a zstd-compressed JSON snapshot",
		Long: `Writes tenant states, quarantine items and the license tier to a
Zstandard-compressed JSON file. All paths are masked and no key material
is included. '.zst' is appended when missing; without a file name
'nightcore-snapshot-YYYY-MM-DD.json.zst' is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			path, err := svc.ExportSnapshot(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("%s", i18n.T("snapshot.error_write", err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("snapshot.success", path))
			return nil
		},
	}
	show := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the contents of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			if done, err := emitJSON(cmd, d); done {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, i18n.T("snapshot.header", d.ID, d.CreatedAt, d.Pro.Tier))
			rows := make([][]any, 0, len(d.Tenants))
			for _, st := range d.Tenants {
				rows = append(rows, []any{st.Name, st.Classification, st.Observation.CurrentThreatScore, st.Path})
			}
			if err := table(out, "TENANT\tCLASS\tSCORE\tPATH", rows); err != nil {
				return err
			}
			fmt.Fprintln(out, i18n.T("snapshot.quarantine_count", len(d.Quarantine)))
			return nil
		},
	}
	cmd.AddCommand(export, show)
	return cmd
}

func runtimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runtime",
		Short: "Read files from the trust root",
	}
	cat := &cobra.Command{
		Use:   "cat <relative-path>",
		Short: "Print a file below the trust root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := core.ReadRuntimeFile(svc.Root, args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.AddCommand(cat)
	return cmd
}

func auditCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recorded operator actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := svc.AuditLog(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("%s", i18n.T("audit.unavailable", err))
			}
			if done, err := emitJSON(cmd, entries); done {
				return err
			}
			rows := make([][]any, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []any{e.Timestamp, e.Username, e.Action, orDash(e.Details)})
			}
			return table(cmd.OutOrStdout(), "TIMESTAMP\tUSER\tACTION\tDETAILS", rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of entries")
	return cmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the trust root layout and a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := core.EnsureLayout(svc.Root); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, i18n.T("init.layout", len(core.LayoutDirs)))

			path, err := config.GetConfigPath(false)
			if err != nil {
				return err
			}
			if fsutil.Exists(path) {
				fmt.Fprintln(out, i18n.T("init.config_exists", path))
				return nil
			}
			if err := config.WriteConfigFile(&appConfig, false); err != nil {
				log.Warnf("could not write default config file: %v", err)
				return nil
			}
			fmt.Fprintln(out, i18n.T("init.config_written", path))
			return nil
		},
	}
}

func debugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Dump debug information about config, env and flags",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "--- NIGHTCORE DEBUG ---")
			if p, err := config.GetConfigPath(false); err == nil {
				fmt.Fprintf(out, "User config path: %s (exists: %t)\n", p, fsutil.Exists(p))
			}

			b, err := yaml.Marshal(appConfig)
			if err != nil {
				log.Errorf("could not marshal config: %v", err)
			} else {
				fmt.Fprintln(out, "-- effective config --")
				fmt.Fprint(out, string(b))
			}

			fmt.Fprintln(out, "-- flags --")
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				fmt.Fprintf(out, "%s = %s\n", f.Name, f.Value.String())
			})

			fmt.Fprintln(out, "-- environment (NIGHTCORE_*) --")
			for _, e := range os.Environ() {
				if strings.HasPrefix(e, "NIGHTCORE_") {
					fmt.Fprintln(out, e)
				}
			}
			fmt.Fprintln(out, "--- END DEBUG ---")
		},
	}
}
