// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/xnfinite/nightcoreapp/internal/audit"
	"github.com/xnfinite/nightcoreapp/internal/decisionlog"
	"github.com/xnfinite/nightcoreapp/internal/engine"
	"github.com/xnfinite/nightcoreapp/internal/fsutil"
	"github.com/xnfinite/nightcoreapp/internal/ingest"
	"github.com/xnfinite/nightcoreapp/internal/logging"
	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/tenant"
)

// Engine artifact names inside a tenant directory.
const (
	ArtifactWasm   = "module.wasm"
	ArtifactSig    = "module.sig"
	ArtifactSHA256 = "module.sha256"
	ArtifactPubkey = "pubkey.b64"
)

// TenantStates reconciles every tenant against the decision log.
func (s *Service) TenantStates() ([]model.TenantState, error) {
	ix, err := s.index()
	if err != nil {
		return nil, err
	}
	return tenant.ListStates(s.Root, ix)
}

// TenantState reconciles a single tenant.
func (s *Service) TenantState(name string) (model.TenantState, error) {
	if err := tenant.ValidateName(name); err != nil {
		return model.TenantState{}, err
	}
	if !fsutil.Exists(tenant.Dir(s.Root, name)) {
		return model.TenantState{}, fmt.Errorf("tenant %s: %w", name, model.ErrNotFound)
	}
	ix, err := s.index()
	if err != nil {
		return model.TenantState{}, err
	}
	return tenant.State(s.Root, name, ix), nil
}

// Artifacts reports which engine artifacts exist for name.
func (s *Service) Artifacts(name string) model.TenantArtifacts {
	dir := tenant.Dir(s.Root, name)
	return model.TenantArtifacts{
		Tenant:    name,
		Path:      s.Mask(dir),
		HasWasm:   fsutil.Exists(filepath.Join(dir, ArtifactWasm)),
		HasSig:    fsutil.Exists(filepath.Join(dir, ArtifactSig)),
		HasSHA256: fsutil.Exists(filepath.Join(dir, ArtifactSHA256)),
		HasPubkey: fsutil.Exists(filepath.Join(dir, ArtifactPubkey)),
	}
}

// Inbox lists tenants awaiting approval.
func (s *Service) Inbox() ([]model.InboxEntry, error) {
	states, err := s.TenantStates()
	if err != nil {
		return nil, err
	}
	var out []model.InboxEntry
	for _, st := range states {
		if st.Classification != model.PendingApproval && st.Classification != model.Blocked {
			continue
		}
		out = append(out, model.InboxEntry{
			Tenant:         st.Name,
			Classification: st.Classification,
			Path:           st.Path,
			Signed:         s.Artifacts(st.Name).Signed(),
			Source:         st.Ingestion,
		})
	}
	return out, nil
}

// ScanReport is the result of a system scan.
type ScanReport struct {
	Tenants        []model.TenantArtifacts `json:"tenants"`
	DecisionLog    string                  `json:"decision_log"`
	HasDecisionLog bool                    `json:"has_decision_log"`
}

// Scan inspects every tenant directory for engine artifacts.
func (s *Service) Scan() (ScanReport, error) {
	names, err := tenant.List(s.Root)
	if err != nil {
		return ScanReport{}, err
	}
	rep := ScanReport{
		DecisionLog:    s.Mask(s.DecisionLogPath()),
		HasDecisionLog: fsutil.Exists(s.DecisionLogPath()),
	}
	for _, n := range names {
		rep.Tenants = append(rep.Tenants, s.Artifacts(n))
	}
	return rep, nil
}

// ApproveResult describes an approval and the optional signing step.
type ApproveResult struct {
	Authorization model.AuthorizationState
	Signed        bool
	SignOutput    engine.Result
}

// Approve marks name approved and, when an engine is configured, signs
// the tenant. A signing failure is returned after the approval persisted.
func (s *Service) Approve(ctx context.Context, name string) (ApproveResult, error) {
	auth, err := tenant.Approve(ctx, s.Root, name, s.Actor, s.clock().Now())
	if err != nil {
		return ApproveResult{}, err
	}
	res := ApproveResult{Authorization: auth}
	s.record(ctx, audit.ActionApproveTenant, fmt.Sprintf("tenant=%s by=%s", name, auth.ApprovedBy))

	if s.Signer == nil {
		return res, nil
	}
	out, err := s.Signer.SignTenant(ctx, name)
	res.SignOutput = out
	if err != nil {
		logging.Warnf("sign %s: %v", name, err)
		return res, fmt.Errorf("tenant %s approved but signing failed: %w", name, err)
	}
	res.Signed = true
	s.record(ctx, audit.ActionSignTenant, "tenant="+name)
	return res, nil
}

// Import ingests a .wasm or .zip artifact as a new manual tenant.
func (s *Service) Import(ctx context.Context, src string) (string, error) {
	if err := EnsureLayout(s.Root); err != nil {
		return "", err
	}
	name, err := ingest.Import(s.Root, src, s.clock().Now())
	if err != nil {
		return "", err
	}
	s.record(ctx, audit.ActionImportTenant, fmt.Sprintf("tenant=%s artifact=%s", name, filepath.Base(src)))
	return name, nil
}

// Decisions returns every decision-log entry in file order, or only the
// latest entry per tenant when latest is set.
func (s *Service) Decisions(latest bool) ([]model.DecisionLogEntry, error) {
	entries, err := decisionlog.ReadEntries(s.DecisionLogPath())
	if err != nil {
		return nil, err
	}
	if !latest {
		return entries, nil
	}
	best := make(map[string]int)
	var order []string
	for i, e := range entries {
		j, ok := best[e.Tenant]
		if !ok {
			order = append(order, e.Tenant)
			best[e.Tenant] = i
			continue
		}
		if e.Timestamp > entries[j].Timestamp {
			best[e.Tenant] = i
		}
	}
	out := make([]model.DecisionLogEntry, 0, len(order))
	for _, t := range order {
		out = append(out, entries[best[t]])
	}
	return out, nil
}
