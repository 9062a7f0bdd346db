// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"net/http"

	"github.com/xnfinite/nightcoreapp/internal/audit"
	"github.com/xnfinite/nightcoreapp/internal/config"
	"github.com/xnfinite/nightcoreapp/internal/decisionlog"
	"github.com/xnfinite/nightcoreapp/internal/engine"
	"github.com/xnfinite/nightcoreapp/internal/license"
	"github.com/xnfinite/nightcoreapp/internal/logging"
	"github.com/xnfinite/nightcoreapp/internal/pathmask"
	"github.com/xnfinite/nightcoreapp/internal/secretstore"
)

// Service is the console facade used by the CLI and the TUI.
type Service struct {
	Root   string
	ProDir string
	// Actor is stamped into approved_by.
	Actor   string
	License *license.Manager
	// Signer is nil when no engine binary is configured.
	Signer *engine.Signer
	Audit  audit.Recorder
	Clock  Clock

	decisions *decisionlog.Cache
	closeFn   func() error
}

// New wires a Service from a resolved configuration. The audit database is
// opened only when enabled; failing to open it disables auditing.
func New(ctx context.Context, cfg config.Config) (*Service, error) {
	deviceID := license.DeviceID()

	var primary secretstore.Store
	if cfg.Secrets.UseKeyring {
		primary = secretstore.NewKeyring(cfg.Secrets.Service, deviceID)
	}
	chain := &secretstore.Chain{
		Primary:  primary,
		Fallback: secretstore.NewFile(cfg.ProDir, deviceID),
	}

	var remote license.Provider
	if cfg.License.Endpoint != "" {
		remote = &license.LemonSqueezy{
			Endpoint:       cfg.License.Endpoint,
			ActivationName: cfg.License.ActivationName,
			Client:         &http.Client{Timeout: cfg.License.Timeout},
			Retries:        cfg.License.Retries,
		}
	}

	s := &Service{
		Root:   cfg.TrustRoot,
		ProDir: cfg.ProDir,
		Actor:  cfg.Approval.Actor,
		License: &license.Manager{
			Dir:      cfg.ProDir,
			Secrets:  chain,
			Remote:   remote,
			DeviceID: func() string { return deviceID },
		},
		Audit: audit.Nop{},
		Clock: systemClock{},
	}

	if cfg.Engine.Binary != "" {
		s.Signer = &engine.Signer{
			Runner:  &engine.ExecRunner{Binary: cfg.Engine.Binary, Dir: cfg.TrustRoot, Timeout: cfg.Engine.Timeout},
			Root:    cfg.TrustRoot,
			KeyPath: cfg.Engine.SigningKey,
		}
	}

	if cfg.Audit.Enabled {
		l, err := audit.Open(ctx, audit.DSN(cfg.Audit.DSN))
		if err != nil {
			logging.Warnf("audit trail disabled: %v", err)
		} else {
			s.Audit = l
			s.closeFn = l.Close
		}
	}
	return s, nil
}

// Close releases the audit database, if open.
func (s *Service) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Mask renders p as a worker:// token relative to the trust root.
func (s *Service) Mask(p string) string { return pathmask.Mask(s.Root, p) }

// DecisionLogPath returns the decision log location.
func (s *Service) DecisionLogPath() string { return decisionlog.PathFor(s.Root) }

func (s *Service) clock() Clock {
	if s.Clock == nil {
		return systemClock{}
	}
	return s.Clock
}

func (s *Service) record(ctx context.Context, action, details string) {
	r := s.Audit
	if r == nil {
		return
	}
	_ = audit.BestEffort{R: r}.Record(ctx, action, details)
}

// index returns the current decision index through a cursor cache, so
// repeated calls only parse appended lines.
func (s *Service) index() (decisionlog.Index, error) {
	if s.decisions == nil {
		s.decisions = decisionlog.NewCache(s.DecisionLogPath())
	}
	return s.decisions.Load()
}
