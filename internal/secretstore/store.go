// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package secretstore keeps the device-bound secret used to sign the license
// cache. The OS credential store is preferred; an encrypted owner-only file
// serves as fallback and as migration source.
package secretstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xnfinite/nightcoreapp/internal/logging"
	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/security"
)

// Store persists one secret. Get returns an error wrapping model.ErrNotFound
// when nothing is stored.
type Store interface {
	Name() string
	Get(ctx context.Context) (security.Secret, error)
	Set(ctx context.Context, s security.Secret) error
}

// Chain resolves the device secret from a preferred store with a fallback.
// Either store may be nil.
type Chain struct {
	Primary  Store
	Fallback Store
	// Generate defaults to security.Generate.
	Generate func() (security.Secret, error)

	mu sync.Mutex
}

// DeviceSecret returns the device secret, creating it on first use. Order:
// primary, then fallback (re-written into primary when primary is empty),
// then a new random secret persisted to both. A new secret is generated only
// when every configured store reports ErrNotFound; any other read failure is
// returned, since replacing a secret that exists but cannot be read would
// invalidate every signature made with it.
func (c *Chain) DeviceSecret(ctx context.Context) (security.Secret, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, primaryEmpty, err := c.get(ctx, c.Primary)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}
	s, _, err = c.get(ctx, c.Fallback)
	if err != nil {
		return nil, err
	}
	if s != nil {
		if c.Primary != nil && primaryEmpty {
			if err := c.Primary.Set(ctx, s); err != nil {
				logging.Debugf("secretstore: migration into %s failed: %v", c.Primary.Name(), err)
			} else {
				logging.Infof("secretstore: migrated device secret into %s", c.Primary.Name())
			}
		}
		return s, nil
	}

	gen := c.Generate
	if gen == nil {
		gen = security.Generate
	}
	s, err = gen()
	if err != nil {
		return nil, err
	}
	var errs []error
	stored := 0
	for _, st := range []Store{c.Primary, c.Fallback} {
		if st == nil {
			continue
		}
		if err := st.Set(ctx, s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.Name(), err))
			continue
		}
		stored++
	}
	if stored == 0 {
		if len(errs) == 0 {
			return nil, errors.New("secretstore: no store configured")
		}
		return nil, fmt.Errorf("secretstore: could not persist device secret: %w", errors.Join(errs...))
	}
	for _, e := range errs {
		logging.Warnf("secretstore: %v", e)
	}
	return s, nil
}

// get reads st. A nil store or an ErrNotFound result yields a nil secret
// with empty set; other failures are returned.
func (c *Chain) get(ctx context.Context, st Store) (security.Secret, bool, error) {
	if st == nil {
		return nil, false, nil
	}
	s, err := st.Get(ctx)
	switch {
	case err == nil:
		return s, false, nil
	case errors.Is(err, model.ErrNotFound):
		return nil, true, nil
	default:
		return nil, false, fmt.Errorf("secretstore: read %s: %w (set secrets.use_keyring=false if the OS keyring is not available)", st.Name(), err)
	}
}

// Memory is an in-process store, used in tests and when no persistent
// store is configured.
type Memory struct {
	mu     sync.Mutex
	secret security.Secret
	// Err, when set, is returned by every call.
	Err error
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Get(context.Context) (security.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.secret == nil {
		return nil, fmt.Errorf("memory secret: %w", model.ErrNotFound)
	}
	return security.FromBytes(m.secret), nil
}

func (m *Memory) Set(_ context.Context, s security.Secret) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.secret = security.FromBytes(s)
	return nil
}
