// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xnfinite/nightcoreapp/internal/audit"
	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/policy"
	"github.com/xnfinite/nightcoreapp/internal/quarantine"
	"github.com/xnfinite/nightcoreapp/internal/snapshot"
)

// ApplyLicense validates and caches key. The key itself is never logged
// or audited.
func (s *Service) ApplyLicense(ctx context.Context, key string) (model.ProStatus, error) {
	rec, err := s.License.Apply(ctx, key)
	if err != nil {
		return model.ProStatus{}, err
	}
	s.record(ctx, audit.ActionLicenseApply, "provider="+rec.Provider)
	return model.ProStatus{
		IsPro:       true,
		Tier:        rec.Tier,
		Provider:    rec.Provider,
		ActivatedAt: rec.ActivatedAt,
	}, nil
}

// ProStatus reports the effective license tier.
func (s *Service) ProStatus(ctx context.Context) (model.ProStatus, error) {
	return s.License.Status(ctx)
}

// DeactivateLicense removes the cached license.
func (s *Service) DeactivateLicense(ctx context.Context) error {
	if err := s.License.Deactivate(); err != nil {
		return err
	}
	s.record(ctx, audit.ActionLicenseDeactivate, "")
	return nil
}

// Policies loads the allow/block lists.
func (s *Service) Policies() (model.PolicyFile, error) {
	return policy.Load(s.ProDir)
}

// SavePolicies replaces the allow/block lists.
func (s *Service) SavePolicies(ctx context.Context, pf model.PolicyFile) error {
	if err := policy.Save(s.ProDir, pf); err != nil {
		return err
	}
	s.record(ctx, audit.ActionPolicySave, fmt.Sprintf("allow=%d block=%d", len(pf.Allow), len(pf.Block)))
	return nil
}

// Quarantine lists log-derived quarantine items.
func (s *Service) Quarantine() ([]model.QuarantineEntry, error) {
	return quarantine.List(s.Root)
}

// RestoreQuarantine always fails in log-only mode.
func (s *Service) RestoreQuarantine(name string) error { return quarantine.Restore(name) }

// DeleteQuarantine always fails in log-only mode.
func (s *Service) DeleteQuarantine(name string) error { return quarantine.Delete(name) }

// AuditLog returns the most recent audit entries, newest first.
func (s *Service) AuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	l, ok := s.Audit.(*audit.Log)
	if !ok {
		return nil, fmt.Errorf("audit trail: %w", model.ErrNotFound)
	}
	return l.List(ctx, limit)
}

// Snapshot assembles the exportable trust state.
func (s *Service) Snapshot(ctx context.Context) (*snapshot.Data, error) {
	states, err := s.TenantStates()
	if err != nil {
		return nil, err
	}
	q, err := s.Quarantine()
	if err != nil {
		return nil, err
	}
	pro, err := s.ProStatus(ctx)
	if err != nil {
		pro = model.NotPro("license unreadable")
	}
	return &snapshot.Data{
		SchemaVersion: snapshot.SchemaVersion,
		ID:            uuid.NewString(),
		CreatedAt:     s.clock().Now().UTC().Format(time.RFC3339),
		Tenants:       states,
		Quarantine:    q,
		Pro:           pro,
	}, nil
}

// ExportSnapshot writes the current snapshot to path and returns the
// file name used.
func (s *Service) ExportSnapshot(ctx context.Context, path string) (string, error) {
	d, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	path = snapshot.FileName(path, s.clock().Now())
	if err := snapshot.WriteFile(path, d); err != nil {
		return "", err
	}
	s.record(ctx, audit.ActionSnapshotExport, fmt.Sprintf("id=%s tenants=%d", d.ID, len(d.Tenants)))
	return path, nil
}
