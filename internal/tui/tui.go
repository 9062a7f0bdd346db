// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package tui is the interactive trust console. It renders the reconciled
// tenant states, the approval inbox, quarantine items, raw decisions and
// the audit trail, and refreshes whenever the trust root changes on disk.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xnfinite/nightcoreapp/internal/core"
	"github.com/xnfinite/nightcoreapp/internal/i18n"
	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/quarantine"
)

// Backend is the slice of core.Service the console needs.
type Backend interface {
	BuildDashboardData(ctx context.Context) (core.DashboardData, error)
	Inbox() ([]model.InboxEntry, error)
	Quarantine() ([]model.QuarantineEntry, error)
	Decisions(latest bool) ([]model.DecisionLogEntry, error)
	AuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
	Approve(ctx context.Context, name string) (core.ApproveResult, error)
}

type tab int

const (
	tabTenants tab = iota
	tabInbox
	tabQuarantine
	tabDecisions
	tabAudit
	tabCount
)

func (t tab) title() string {
	switch t {
	case tabTenants:
		return i18n.T("tui.tab.tenants")
	case tabInbox:
		return i18n.T("tui.tab.inbox")
	case tabQuarantine:
		return i18n.T("tui.tab.quarantine")
	case tabDecisions:
		return i18n.T("tui.tab.decisions")
	default:
		return i18n.T("tui.tab.audit")
	}
}

type keyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Approve key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next:    key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", i18n.T("tui.help.next"))),
		Prev:    key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", i18n.T("tui.help.prev"))),
		Approve: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", i18n.T("tui.help.approve"))),
		Refresh: key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", i18n.T("tui.help.refresh"))),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", i18n.T("tui.help.quit"))),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Approve, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev}, {k.Approve, k.Refresh, k.Quit}}
}

// dataMsg carries a full reload.
type dataMsg struct {
	dash       core.DashboardData
	inbox      []model.InboxEntry
	quarantine []model.QuarantineEntry
	decisions  []model.DecisionLogEntry
	audit      []model.AuditLogEntry
	err        error
}

type approvedMsg struct {
	name string
	res  core.ApproveResult
	err  error
}

// changedMsg signals a file-system change under the trust root.
type changedMsg struct{}

// Model is the root bubbletea model.
type Model struct {
	ctx    context.Context
	svc    Backend
	events <-chan struct{}

	keys  keyMap
	help  help.Model
	table table.Model
	tab   tab

	data dataMsg

	status string
	err    error
	width  int
	height int
}

// New returns a console model. events may be nil to disable live refresh.
func New(ctx context.Context, svc Backend, events <-chan struct{}) Model {
	t := table.New(table.WithFocused(true), table.WithHeight(15))
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorWhite).
		Background(colorHighlight).
		Bold(false)
	t.SetStyles(s)

	return Model{
		ctx:    ctx,
		svc:    svc,
		events: events,
		keys:   defaultKeys(),
		help:   help.New(),
		table:  t,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.wait())
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		var d dataMsg
		if d.dash, d.err = m.svc.BuildDashboardData(m.ctx); d.err != nil {
			return d
		}
		if d.inbox, d.err = m.svc.Inbox(); d.err != nil {
			return d
		}
		if d.quarantine, d.err = m.svc.Quarantine(); d.err != nil {
			return d
		}
		if d.decisions, d.err = m.svc.Decisions(false); d.err != nil {
			return d
		}
		// Audit is optional; a disabled trail shows an empty tab.
		d.audit, _ = m.svc.AuditLog(m.ctx, 200)
		return d
	}
}

func (m Model) wait() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) approve(name string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.Approve(m.ctx, name)
		return approvedMsg{name: name, res: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		// title(1) + summary(1) + tabs(2) + status(1) + footer(1) + margins
		m.table.SetHeight(max(3, msg.Height-10))
		m.table.SetWidth(max(20, msg.Width-4))
		return m, nil

	case dataMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.data = msg
		m.rebuild()
		return m, nil

	case changedMsg:
		return m, tea.Batch(m.load(), m.wait())

	case approvedMsg:
		if msg.err != nil {
			m.err = msg.err
			if msg.res.Authorization.Approved {
				m.status = i18n.T("tui.status.approved_unsigned", msg.name)
			}
			return m, m.load()
		}
		m.err = nil
		if msg.res.Signed {
			m.status = i18n.T("tui.status.approved_signed", msg.name)
		} else {
			m.status = i18n.T("tui.status.approved", msg.name)
		}
		return m, m.load()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.tab = (m.tab + 1) % tabCount
			m.rebuild()
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.tab = (m.tab + tabCount - 1) % tabCount
			m.rebuild()
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.status = ""
			return m, m.load()
		case key.Matches(msg, m.keys.Approve):
			name := m.selectedTenant()
			if name == "" {
				m.status = i18n.T("tui.status.nothing_to_approve")
				return m, nil
			}
			m.status = i18n.T("tui.status.approving", name)
			return m, m.approve(name)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// selectedTenant returns the tenant under the cursor on tabs that allow
// approval.
func (m Model) selectedTenant() string {
	if m.tab != tabTenants && m.tab != tabInbox {
		return ""
	}
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (m *Model) rebuild() {
	cols, rows := m.tableData()
	// Rows must match the column count before columns change.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.GotoTop()
	}
}

func (m Model) tableData() ([]table.Column, []table.Row) {
	var rows []table.Row
	switch m.tab {
	case tabTenants:
		cols := []table.Column{
			{Title: i18n.T("tui.col.tenant"), Width: 24},
			{Title: i18n.T("tui.col.class"), Width: 18},
			{Title: i18n.T("tui.col.channel"), Width: 10},
			{Title: i18n.T("tui.col.score"), Width: 6},
			{Title: i18n.T("tui.col.last_run"), Width: 22},
			{Title: i18n.T("tui.col.path"), Width: 30},
		}
		for _, st := range m.data.dash.Tenants {
			score := "-"
			if st.Execution.HasExecuted {
				score = strconv.Itoa(int(st.Observation.CurrentThreatScore))
			}
			rows = append(rows, table.Row{
				st.Name,
				string(st.Classification),
				st.Ingestion.Channel,
				score,
				st.Execution.LastExecutionTime,
				st.Path,
			})
		}
		return cols, rows

	case tabInbox:
		cols := []table.Column{
			{Title: i18n.T("tui.col.tenant"), Width: 24},
			{Title: i18n.T("tui.col.class"), Width: 16},
			{Title: i18n.T("tui.col.signed"), Width: 8},
			{Title: i18n.T("tui.col.channel"), Width: 10},
			{Title: i18n.T("tui.col.source"), Width: 16},
			{Title: i18n.T("tui.col.timestamp"), Width: 20},
			{Title: i18n.T("tui.col.path"), Width: 30},
		}
		for _, e := range m.data.inbox {
			rows = append(rows, table.Row{e.Tenant, string(e.Classification), yesNo(e.Signed), e.Source.Channel, e.Source.Source, e.Source.Timestamp, e.Path})
		}
		return cols, rows

	case tabQuarantine:
		cols := []table.Column{
			{Title: i18n.T("tui.col.name"), Width: 36},
			{Title: i18n.T("tui.col.score"), Width: 6},
			{Title: i18n.T("tui.col.reason"), Width: 30},
			{Title: i18n.T("tui.col.path"), Width: 30},
		}
		for _, q := range m.data.quarantine {
			rows = append(rows, table.Row{q.Name, strconv.Itoa(int(q.ThreatScore)), q.Reason, q.Path})
		}
		return cols, rows

	case tabDecisions:
		cols := []table.Column{
			{Title: i18n.T("tui.col.timestamp"), Width: 22},
			{Title: i18n.T("tui.col.tenant"), Width: 24},
			{Title: i18n.T("tui.col.score"), Width: 6},
			{Title: i18n.T("tui.col.reason"), Width: 40},
		}
		for i := len(m.data.decisions) - 1; i >= 0; i-- {
			e := m.data.decisions[i]
			rows = append(rows, table.Row{e.Timestamp, e.Tenant, strconv.Itoa(int(e.ThreatScore)), e.Reason})
		}
		return cols, rows

	default:
		cols := []table.Column{
			{Title: i18n.T("tui.col.timestamp"), Width: 20},
			{Title: i18n.T("tui.col.user"), Width: 12},
			{Title: i18n.T("tui.col.action"), Width: 20},
			{Title: i18n.T("tui.col.details"), Width: 40},
		}
		for _, e := range m.data.audit {
			ts := e.Timestamp
			if len(ts) > 19 {
				ts = ts[:19]
			}
			rows = append(rows, table.Row{ts, e.Username, e.Action, e.Details})
		}
		return cols, rows
	}
}

func yesNo(b bool) string {
	if b {
		return i18n.T("common.yes")
	}
	return i18n.T("common.no")
}

func (m Model) View() string {
	var b strings.Builder

	d := m.data.dash
	tier := d.Pro.Tier
	if tier == "" {
		tier = model.TierOpenCore
	}
	b.WriteString(AlignFooter(mainTitleStyle.Render("NightCore"), helpStyle.Render(tier), max(0, m.width-4)))
	b.WriteString("\n")

	summary := fmt.Sprintf("%s %d  %s %d  %s %d  %s %d  %s %d  %s %s",
		i18n.T("tui.summary.tenants"), d.TenantCount,
		classStyle(model.Blocked).Render(string(model.Blocked)), d.ByClass[model.Blocked],
		classStyle(model.PendingApproval).Render(string(model.PendingApproval)), d.ByClass[model.PendingApproval],
		classStyle(model.Cleared).Render(string(model.Cleared)), d.ByClass[model.Cleared],
		classStyle(model.Observed).Render(string(model.Observed)), d.ByClass[model.Observed],
		i18n.T("tui.summary.max_score"),
		scoreStyle(d.MaxThreatScore, quarantine.Threshold).Render(strconv.Itoa(int(d.MaxThreatScore))),
	)
	b.WriteString(summary)
	b.WriteString("\n\n")

	var tabs []string
	for t := tab(0); t < tabCount; t++ {
		label := t.title()
		if t == tabQuarantine && d.QuarantineCount > 0 {
			label = fmt.Sprintf("%s (%d)", label, d.QuarantineCount)
		}
		if t == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(statusMessageStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return docStyle.Render(b.String())
}

// Run starts the console over svc and live-refreshes from the trust root.
func Run(ctx context.Context, svc *core.Service) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := Watch(ctx,
		filepath.Dir(svc.DecisionLogPath()),
		filepath.Join(svc.Root, "modules"),
	)
	if err != nil {
		events = nil
	}
	_, err = tea.NewProgram(New(ctx, svc, events), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
