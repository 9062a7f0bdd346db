// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package secretstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/security"
)

// DefaultService is the credential store service name.
const DefaultService = "nightcore"

// Keyring stores the secret in the OS credential store (Secret Service,
// macOS Keychain, Windows Credential Manager).
type Keyring struct {
	Service string
	// Account is derived from the device identity so a copied profile
	// never resolves another machine's secret.
	Account string
}

// NewKeyring returns a keyring store for the given device identity.
func NewKeyring(service, deviceID string) *Keyring {
	if service == "" {
		service = DefaultService
	}
	return &Keyring{Service: service, Account: "device-secret:" + deviceID}
}

func (k *Keyring) Name() string { return "os-keyring" }

func (k *Keyring) Get(context.Context) (security.Secret, error) {
	v, err := keyring.Get(k.Service, k.Account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("keyring %s/%s: %w", k.Service, k.Account, model.ErrNotFound)
		}
		return nil, fmt.Errorf("keyring get: %w", err)
	}
	s, err := security.Decode(v)
	if err != nil {
		return nil, fmt.Errorf("keyring entry %s: %w", k.Account, err)
	}
	return s, nil
}

func (k *Keyring) Set(_ context.Context, s security.Secret) error {
	if err := keyring.Set(k.Service, k.Account, s.Encode()); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// Delete removes the entry; a missing entry is not an error.
func (k *Keyring) Delete() error {
	if err := keyring.Delete(k.Service, k.Account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}
