// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package license

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/xnfinite/nightcoreapp/internal/fsutil"
	"github.com/xnfinite/nightcoreapp/internal/logging"
	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/security"
)

// FileName is the license cache inside the pro directory.
const FileName = "license.json"

// SecretSource yields the device-bound signing key.
type SecretSource interface {
	DeviceSecret(ctx context.Context) (security.Secret, error)
}

// Manager owns license.json in one pro directory.
type Manager struct {
	Dir     string
	Secrets SecretSource
	// Remote validates keys that are not offline-shaped. Nil disables
	// remote activation.
	Remote  Provider
	Offline Provider

	DeviceID func() string
	Now      func() time.Time
}

// Path returns the license file location.
func (m *Manager) Path() string { return filepath.Join(m.Dir, FileName) }

func (m *Manager) deviceID() string {
	if m.DeviceID != nil {
		return m.DeviceID()
	}
	return DeviceID()
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// SelectProvider picks the provider for a trimmed, non-empty key.
func (m *Manager) SelectProvider(key string) (Provider, error) {
	if IsOfflineShape(key) {
		if m.Offline != nil {
			return m.Offline, nil
		}
		return Offline{}, nil
	}
	if m.Remote == nil {
		return nil, fmt.Errorf("%w: no remote license provider configured", model.ErrNetwork)
	}
	return m.Remote, nil
}

// Apply validates key, then writes a signed record. Nothing is written
// when validation or signing fails.
func (m *Manager) Apply(ctx context.Context, key string) (model.LicenseRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return model.LicenseRecord{}, fmt.Errorf("%w: license key cannot be empty", model.ErrInvalidFormat)
	}
	if strings.IndexFunc(key, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return model.LicenseRecord{}, fmt.Errorf("%w: license key contains whitespace", model.ErrInvalidFormat)
	}

	p, err := m.SelectProvider(key)
	if err != nil {
		return model.LicenseRecord{}, err
	}
	if err := p.Validate(ctx, key); err != nil {
		return model.LicenseRecord{}, err
	}

	secret, err := m.Secrets.DeviceSecret(ctx)
	if err != nil {
		return model.LicenseRecord{}, fmt.Errorf("device secret: %w", err)
	}
	defer secret.Zero()

	rec := Sign(model.LicenseRecord{
		LicenseKey:  key,
		Tier:        model.TierPro,
		ActivatedAt: m.now().UTC().Format(time.RFC3339),
		Valid:       true,
		DeviceID:    m.deviceID(),
		Provider:    p.Name(),
	}, secret)

	if err := os.MkdirAll(m.Dir, 0o700); err != nil {
		return model.LicenseRecord{}, fmt.Errorf("create pro directory: %w", err)
	}
	if err := fsutil.WriteJSONAtomic(m.Path(), rec, 0o600); err != nil {
		return model.LicenseRecord{}, err
	}
	logging.Infof("license activated via %s provider", p.Name())
	return rec, nil
}

// Load reads license.json. Absent files wrap model.ErrNotFound; malformed
// files wrap model.ErrParse.
func (m *Manager) Load() (model.LicenseRecord, error) {
	var rec model.LicenseRecord
	data, err := os.ReadFile(m.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, fmt.Errorf("license: %w", model.ErrNotFound)
		}
		return rec, fmt.Errorf("read license: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("%w: license.json: %v", model.ErrParse, err)
	}
	return rec, nil
}

// Status reports the effective tier. Tampered, foreign or invalid records
// degrade to Open Core; only a malformed file is an error.
func (m *Manager) Status(ctx context.Context) (model.ProStatus, error) {
	rec, err := m.Load()
	if errors.Is(err, model.ErrNotFound) {
		return model.NotPro("no license installed"), nil
	}
	if err != nil {
		return model.ProStatus{}, err
	}
	if !rec.Valid {
		return model.NotPro("license marked invalid"), nil
	}
	if rec.DeviceID != m.deviceID() {
		logging.Warnf("license is bound to another device")
		return model.NotPro("license bound to another device"), nil
	}
	if strings.TrimSpace(rec.Signature) == "" {
		logging.Debugf("license has no signature, accepting as legacy record")
	} else {
		secret, err := m.Secrets.DeviceSecret(ctx)
		if err != nil {
			logging.Warnf("device secret unavailable, cannot verify license: %v", err)
			return model.NotPro("device secret unavailable"), nil
		}
		ok := Verify(rec, secret)
		secret.Zero()
		if !ok {
			logging.Warnf("license signature mismatch (%v)", model.ErrIntegrity)
			return model.NotPro("license signature mismatch"), nil
		}
	}
	return model.ProStatus{
		IsPro:       true,
		Tier:        rec.Tier,
		Provider:    rec.Provider,
		ActivatedAt: rec.ActivatedAt,
	}, nil
}

// Deactivate removes license.json. A missing file is success.
func (m *Manager) Deactivate() error {
	if err := os.Remove(m.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove license: %w", err)
	}
	return nil
}
