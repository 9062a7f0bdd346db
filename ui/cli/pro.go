// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xnfinite/nightcoreapp/internal/i18n"
	"github.com/xnfinite/nightcoreapp/internal/model"
)

func quarantineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quarantine",
		Short: "Log-derived quarantine listing",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List decision-log entries that meet the quarantine policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := svc.Quarantine()
			if err != nil {
				return err
			}
			if done, err := emitJSON(cmd, items); done {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("quarantine.none"))
				return nil
			}
			rows := make([][]any, 0, len(items))
			for _, q := range items {
				rows = append(rows, []any{q.Name, q.ThreatScore, orDash(q.Reason), q.Path})
			}
			return table(cmd.OutOrStdout(), "NAME\tSCORE\tREASON\tPATH", rows)
		},
	}
	restore := &cobra.Command{
		Use:   "restore <name>",
		Short: "Restore a quarantined item (disabled in log-only mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return svc.RestoreQuarantine(args[0])
		},
	}
	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a quarantined item (disabled in log-only mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return svc.DeleteQuarantine(args[0])
		},
	}
	cmd.AddCommand(list, restore, del)
	return cmd
}

func licenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Manage the Guardian PRO license",
	}

	apply := &cobra.Command{
		Use:   "apply [key]",
		Short: "Validate and store a license key",
		Long: `Validates a license key and stores a device-bound signed record.
Offline keys (four dash-separated groups of eight hex digits) are checked
locally; all other keys are validated with the configured remote provider.
Without an argument the key is read from the terminal without echo.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				k, err := readKey(cmd)
				if err != nil {
					return err
				}
				key = k
			}
			st, err := svc.ApplyLicense(cmd.Context(), key)
			if err != nil {
				return err
			}
			if done, err := emitJSON(cmd, st); done {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("license.activated", st.Tier, st.Provider))
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the effective license tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := svc.ProStatus(cmd.Context())
			if err != nil {
				return err
			}
			if done, err := emitJSON(cmd, st); done {
				return err
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}

	deactivate := &cobra.Command{
		Use:   "deactivate",
		Short: "Remove the stored license",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.DeactivateLicense(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("license.deactivated"))
			return nil
		},
	}

	cmd.AddCommand(apply, status, deactivate)
	return cmd
}

func printStatus(out io.Writer, st model.ProStatus) {
	fmt.Fprintln(out, i18n.T("license.status_tier", st.Tier))
	if st.IsPro {
		fmt.Fprintln(out, i18n.T("license.status_provider", st.Provider, st.ActivatedAt))
		return
	}
	if st.Reason != "" {
		fmt.Fprintln(out, i18n.T("license.status_reason", st.Reason))
	}
}

// readKey prompts without echo on a terminal and reads one line otherwise.
func readKey(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), i18n.T("license.prompt"))
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read license key: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read license key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func policiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Show or replace the allow/block policy lists",
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Print policies.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := svc.Policies()
			if err != nil {
				return err
			}
			if done, err := emitJSON(cmd, pf); done {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, i18n.T("policies.allow", strings.Join(pf.Allow, ", ")))
			fmt.Fprintln(out, i18n.T("policies.block", strings.Join(pf.Block, ", ")))
			return nil
		},
	}
	var allow, block []string
	save := &cobra.Command{
		Use:   "save",
		Short: "Replace policies.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pf := model.PolicyFile{Allow: allow, Block: block}
			if pf.Allow == nil {
				pf.Allow = []string{}
			}
			if pf.Block == nil {
				pf.Block = []string{}
			}
			if err := svc.SavePolicies(cmd.Context(), pf); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("policies.saved", len(pf.Allow), len(pf.Block)))
			return nil
		},
	}
	save.Flags().StringSliceVar(&allow, "allow", nil, "Allowed entries (repeatable or comma-separated)")
	save.Flags().StringSliceVar(&block, "block", nil, "Blocked entries (repeatable or comma-separated)")
	cmd.AddCommand(show, save)
	return cmd
}
