// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xnfinite/nightcoreapp/internal/i18n"
	"github.com/xnfinite/nightcoreapp/internal/model"
)

func tenantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Inspect and approve tenants",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tenants with their reconciled classification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := svc.TenantStates()
			if err != nil {
				return err
			}
			if done, err := emitJSON(cmd, states); done {
				return err
			}
			if len(states) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("tenants.none"))
				return nil
			}
			rows := make([][]any, 0, len(states))
			for _, st := range states {
				score := "-"
				if st.Execution.HasExecuted {
					score = strconv.Itoa(int(st.Observation.CurrentThreatScore))
				}
				rows = append(rows, []any{
					st.Name, st.Classification, st.Ingestion.Channel,
					approvedLabel(st.Authorization), score,
					orDash(st.Execution.LastExecutionTime), st.Path,
				})
			}
			return table(cmd.OutOrStdout(), "TENANT\tCLASS\tCHANNEL\tAPPROVED\tSCORE\tLAST RUN\tPATH", rows)
		},
	}

	inbox := &cobra.Command{
		Use:   "inbox",
		Short: "List tenants pending approval or missing a manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := svc.Inbox()
			if err != nil {
				return err
			}
			if done, err := emitJSON(cmd, entries); done {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("tenants.inbox_empty"))
				return nil
			}
			rows := make([][]any, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []any{e.Tenant, e.Classification, e.Signed, e.Source.Channel, e.Source.Source, e.Source.Timestamp, e.Path})
			}
			return table(cmd.OutOrStdout(), "TENANT\tCLASS\tSIGNED\tCHANNEL\tSOURCE\tRECEIVED\tPATH", rows)
		},
	}

	approve := &cobra.Command{
		Use:   "approve <tenant>",
		Short: "Approve a tenant and sign it when an engine is configured",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc.Approve(cmd.Context(), args[0])
			if err != nil {
				if res.Authorization.Approved {
					fmt.Fprintln(cmd.OutOrStdout(), i18n.T("tenants.approved", args[0], res.Authorization.ApprovedAt))
				}
				return err
			}
			if done, err := emitJSON(cmd, res.Authorization); done {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("tenants.approved", args[0], res.Authorization.ApprovedAt))
			if res.Signed {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("tenants.signed", args[0]))
			}
			return nil
		},
	}

	scan := &cobra.Command{
		Use:   "scan",
		Short: "Report engine artifacts per tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := svc.Scan()
			if err != nil {
				return err
			}
			if done, err := emitJSON(cmd, rep); done {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, i18n.T("scan.decision_log", rep.DecisionLog, rep.HasDecisionLog))
			rows := make([][]any, 0, len(rep.Tenants))
			for _, a := range rep.Tenants {
				rows = append(rows, []any{a.Tenant, a.HasWasm, a.HasSig, a.HasSHA256, a.HasPubkey, a.Path})
			}
			return table(out, "TENANT\tWASM\tSIG\tSHA256\tPUBKEY\tPATH", rows)
		},
	}

	cmd.AddCommand(list, inbox, approve, scan)
	return cmd
}

func approvedLabel(a model.AuthorizationState) string {
	if !a.Approved {
		return "no"
	}
	if a.ApprovedBy != "" {
		return "yes (" + a.ApprovedBy + ")"
	}
	return "yes"
}

func decisionsCmd() *cobra.Command {
	var latest bool
	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "List decision-log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := svc.Decisions(latest)
			if err != nil {
				return err
			}
			if done, err := emitJSON(cmd, entries); done {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, i18n.T("decisions.source", svc.Mask(svc.DecisionLogPath())))
			rows := make([][]any, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []any{e.Timestamp, e.Tenant, e.ThreatScore, orDash(e.Reason)})
			}
			return table(out, "TIMESTAMP\tTENANT\tSCORE\tREASON", rows)
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "Only the latest entry per tenant")
	return cmd
}
