// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package tenant

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

	"github.com/gofrs/flock"

	"github.com/xnfinite/nightcoreapp/internal/fsutil"
	"github.com/xnfinite/nightcoreapp/internal/model"
)

// DefaultActor is recorded when no approver is named.
const DefaultActor = "gui"

const lockRetry = 25 * time.Millisecond

// ValidateName rejects names that would leave <root>/modules.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: invalid tenant name %q", model.ErrInvalidFormat, name)
	}
	return nil
}

// LockPath returns the advisory lock guarding a tenant's manifest,
// manifest.json.lock next to the manifest.
func LockPath(root, name string) string {
	return filepath.Join(Dir(root, name), ManifestName+".lock")
}

// Approve marks tenant as approved by actor at now and rewrites the whole
// manifest, keeping fields the console does not interpret. Concurrent
// approvals of one tenant are serialized by an advisory lock and each write
// is atomic. Re-approving refreshes approved_at.
func Approve(ctx context.Context, root, name, actor string, now time.Time) (model.AuthorizationState, error) {
	var auth model.AuthorizationState
	if err := ValidateName(name); err != nil {
		return auth, err
	}
	if actor == "" {
		actor = DefaultActor
	}
	dir := Dir(root, name)
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return auth, fmt.Errorf("manifest for %s: %w", name, model.ErrNotFound)
		}
		return auth, fmt.Errorf("stat manifest: %w", err)
	}

	fl := flock.New(LockPath(root, name))
	locked, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		return auth, fmt.Errorf("lock manifest for %s: %w", name, err)
	}
	if !locked {
		return auth, fmt.Errorf("lock manifest for %s: not acquired", name)
	}
	defer fl.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return auth, fmt.Errorf("manifest for %s: %w", name, model.ErrNotFound)
		}
		return auth, fmt.Errorf("read manifest: %w", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return auth, fmt.Errorf("%w: manifest for %s: %v", model.ErrParse, name, err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}

	auth = model.AuthorizationState{
		Approved:   true,
		ApprovedAt: now.UTC().Format(time.RFC3339Nano),
		ApprovedBy: actor,
	}
	for k, v := range map[string]any{
		"approved":    auth.Approved,
		"approved_at": auth.ApprovedAt,
		"approved_by": auth.ApprovedBy,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return model.AuthorizationState{}, err
		}
		doc[k] = raw
	}

	perm := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}
	if err := fsutil.WriteJSONAtomic(path, doc, perm); err != nil {
		return model.AuthorizationState{}, err
	}
	return auth, nil
}
