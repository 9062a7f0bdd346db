// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xnfinite/nightcoreapp/internal/core"
	"github.com/xnfinite/nightcoreapp/internal/model"
)

type fakeBackend struct {
	states   []model.TenantState
	inbox    []model.InboxEntry
	approved []string
	err      error
}

func (f *fakeBackend) BuildDashboardData(context.Context) (core.DashboardData, error) {
	d := core.DashboardData{ByClass: map[model.Classification]int{}, Tenants: f.states, TenantCount: len(f.states)}
	for _, s := range f.states {
		d.ByClass[s.Classification]++
	}
	d.Pro = model.NotPro("")
	return d, f.err
}
func (f *fakeBackend) Inbox() ([]model.InboxEntry, error) { return f.inbox, nil }
func (f *fakeBackend) Quarantine() ([]model.QuarantineEntry, error) {
	return []model.QuarantineEntry{{Name: "t2-x", Tenant: "t2", ThreatScore: 90, Reason: "policy violation", Path: "worker:///quarantine/t2-x"}}, nil
}
func (f *fakeBackend) Decisions(bool) ([]model.DecisionLogEntry, error) { return nil, nil }
func (f *fakeBackend) AuditLog(context.Context, int) ([]model.AuditLogEntry, error) {
	return nil, errors.New("disabled")
}
func (f *fakeBackend) Approve(_ context.Context, name string) (core.ApproveResult, error) {
	f.approved = append(f.approved, name)
	return core.ApproveResult{Authorization: model.AuthorizationState{Approved: true}}, nil
}

func newFake() *fakeBackend {
	return &fakeBackend{
		states: []model.TenantState{
			{Name: "t1", Classification: model.PendingApproval, Path: "worker:///modules/t1"},
			{Name: "t2", Classification: model.Observed, Path: "worker:///modules/t2"},
		},
		inbox: []model.InboxEntry{{Tenant: "t1", Path: "worker:///modules/t1"}},
	}
}

// drive applies msg and runs any returned command synchronously once.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil {
		if out := cmd(); out != nil {
			if _, isBatch := out.(tea.BatchMsg); !isBatch {
				next, _ = m.Update(out)
				m = next.(Model)
			}
		}
	}
	return m
}

func loaded(t *testing.T, f *fakeBackend) Model {
	t.Helper()
	m := New(context.Background(), f, nil)
	m = drive(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	next, _ := m.Update(m.load()())
	return next.(Model)
}

func TestModel_LoadsTenants(t *testing.T) {
	m := loaded(t, newFake())
	v := m.View()
	for _, want := range []string{"t1", "t2", "pending_approval", "worker:///modules/t1"} {
		if !strings.Contains(v, want) {
			t.Fatalf("view missing %q:\n%s", want, v)
		}
	}
}

func TestModel_TabCyclesAndQuarantineShown(t *testing.T) {
	m := loaded(t, newFake())
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != tabQuarantine {
		t.Fatalf("tab = %d, want quarantine", m.tab)
	}
	if !strings.Contains(m.View(), "policy violation") {
		t.Fatalf("quarantine row not rendered")
	}
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.tab != tabInbox {
		t.Fatalf("tab = %d, want inbox", m.tab)
	}
}

func TestModel_ApproveSelectedTenant(t *testing.T) {
	f := newFake()
	m := loaded(t, f)
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if len(f.approved) != 1 || f.approved[0] != "t1" {
		t.Fatalf("approved = %v", f.approved)
	}
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
}

func TestModel_ApproveIgnoredOnQuarantineTab(t *testing.T) {
	f := newFake()
	m := loaded(t, f)
	m.tab = tabQuarantine
	m.rebuild()
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	if len(f.approved) != 0 {
		t.Fatalf("approve should be ignored, got %v", f.approved)
	}
}

func TestModel_LoadErrorShown(t *testing.T) {
	f := newFake()
	f.err = errors.New("boom")
	m := loaded(t, f)
	if !strings.Contains(m.View(), "boom") {
		t.Fatalf("error not rendered")
	}
}

func TestAlignFooter(t *testing.T) {
	if got := AlignFooter("a", "b", 5); got != "a   b" {
		t.Fatalf("AlignFooter = %q", got)
	}
	if got := AlignFooter("abc", "def", 2); got != "abc def" {
		t.Fatalf("AlignFooter narrow = %q", got)
	}
}

func TestWatch_SignalsOnWrite(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, dir)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "guardian_decisions.jsonl"), []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatalf("no change signal")
	}
}
