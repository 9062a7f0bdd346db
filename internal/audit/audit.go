// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package audit records operator actions (approvals, license changes,
// imports) in a local SQLite database.
package audit

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/xnfinite/nightcoreapp/internal/logging"
	"github.com/xnfinite/nightcoreapp/internal/model"
)

// Actions recorded by the console.
const (
	ActionApproveTenant     = "APPROVE_TENANT"
	ActionSignTenant        = "SIGN_TENANT"
	ActionImportTenant      = "IMPORT_TENANT"
	ActionLicenseApply      = "LICENSE_APPLY"
	ActionLicenseDeactivate = "LICENSE_DEACTIVATE"
	ActionPolicySave        = "POLICY_SAVE"
	ActionSnapshotExport    = "SNAPSHOT_EXPORT"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Recorder is the write side used by the service layer.
type Recorder interface {
	Record(ctx context.Context, action, details string) error
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(context.Context, string, string) error { return nil }

// Model maps the audit_log table.
type Model struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	EventID       string `bun:"event_id"`
	Timestamp     string `bun:"timestamp"`
	Username      string `bun:"username"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// Log is the SQLite-backed audit trail.
type Log struct {
	sqlDB *sql.DB
	bun   *bun.DB
	// Now and User are overridable for tests.
	Now  func() time.Time
	User func() string
}

// DSN turns a file path into a modernc sqlite DSN. Values that already look
// like DSNs are returned unchanged.
func DSN(p string) string {
	if p == ":memory:" || strings.HasPrefix(p, "file:") {
		return p
	}
	return "file:" + filepath.ToSlash(p) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open opens (creating if needed) the audit database and applies migrations.
func Open(ctx context.Context, dsn string) (*Log, error) {
	if p := strings.TrimPrefix(strings.SplitN(dsn, "?", 2)[0], "file:"); p != ":memory:" && p != "" {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// A single connection keeps :memory: databases coherent and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := runMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &Log{sqlDB: sqlDB, bun: bun.NewDB(sqlDB, sqlitedialect.New())}, nil
}

// Close closes the database.
func (l *Log) Close() error { return l.bun.Close() }

// Record inserts one entry for the current OS user.
func (l *Log) Record(ctx context.Context, action, details string) error {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	who := currentUser
	if l.User != nil {
		who = l.User
	}
	m := &Model{
		EventID:   uuid.NewString(),
		Timestamp: now().UTC().Format(time.RFC3339Nano),
		Username:  who(),
		Action:    action,
		Details:   details,
	}
	if _, err := l.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("record audit %s: %w", action, err)
	}
	return nil
}

// List returns the newest entries first. limit <= 0 returns everything.
func (l *Log) List(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	var rows []Model
	q := l.bun.NewSelect().Model(&rows).OrderExpr("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	out := make([]model.AuditLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.AuditLogEntry{
			ID:        r.ID,
			EventID:   r.EventID,
			Timestamp: r.Timestamp,
			Username:  r.Username,
			Action:    r.Action,
			Details:   r.Details,
		})
	}
	return out, nil
}

// BestEffort wraps a recorder so failures are logged instead of returned.
// Audit trouble never blocks an operator action.
type BestEffort struct{ R Recorder }

func (b BestEffort) Record(ctx context.Context, action, details string) error {
	if b.R == nil {
		return nil
	}
	if err := b.R.Record(ctx, action, details); err != nil {
		logging.Warnf("audit: %v", err)
	}
	return nil
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	if parts := strings.Split(u.Username, `\`); len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return u.Username
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		version := strings.TrimSuffix(name, ".up.sql")
		var one int
		err := db.QueryRowContext(ctx, "SELECT 1 FROM schema_migrations WHERE version = ?", version).Scan(&one)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		data, err := migrations.ReadFile(path.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, stmt := range strings.Split(string(data), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("apply migration %s: %w", version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", version, err)
		}
		logging.Debugf("audit: applied migration %s", version)
	}
	return nil
}
