// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"

	"github.com/xnfinite/nightcoreapp/internal/model"
)

// DashboardData holds aggregated values for the console header.
type DashboardData struct {
	TenantCount     int
	ByClass         map[model.Classification]int
	QuarantineCount int
	MaxThreatScore  uint8
	Pro             model.ProStatus
	RecentLogs      []model.AuditLogEntry
	Tenants         []model.TenantState
}

// BuildDashboardData collects tenant states, quarantine items, the license
// tier and recent audit entries.
func (s *Service) BuildDashboardData(ctx context.Context) (DashboardData, error) {
	out := DashboardData{ByClass: make(map[model.Classification]int)}

	states, err := s.TenantStates()
	if err != nil {
		return out, err
	}
	out.Tenants = states
	out.TenantCount = len(states)
	for _, st := range states {
		out.ByClass[st.Classification]++
		if st.Observation.CurrentThreatScore > out.MaxThreatScore {
			out.MaxThreatScore = st.Observation.CurrentThreatScore
		}
	}

	q, err := s.Quarantine()
	if err != nil {
		return out, err
	}
	out.QuarantineCount = len(q)

	if out.Pro, err = s.ProStatus(ctx); err != nil {
		out.Pro = model.NotPro("license unreadable")
	}

	if logs, err := s.AuditLog(ctx, 5); err == nil {
		out.RecentLogs = logs
	}
	return out, nil
}
