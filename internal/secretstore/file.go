// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package secretstore

import (
	"bytes"
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/xnfinite/nightcoreapp/internal/fsutil"
	"github.com/xnfinite/nightcoreapp/internal/logging"
	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/security"
)

// DefaultFileName is the fallback file inside the pro directory.
const DefaultFileName = "device.secret"

var fileMagic = []byte("NCDS1")

const hkdfSalt = "nightcore/secretstore/v1"

// File keeps the secret sealed with XChaCha20-Poly1305 in an owner-only
// file. The sealing key is derived from the device identity, so the file
// does not open on a machine with a different identity.
type File struct {
	Path     string
	DeviceID string
}

// NewFile returns a file store at dir/DefaultFileName.
func NewFile(dir, deviceID string) *File {
	return &File{Path: filepath.Join(dir, DefaultFileName), DeviceID: deviceID}
}

func (f *File) Name() string { return "file" }

func (f *File) Get(context.Context) (security.Secret, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("secret file %s: %w", f.Path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("read secret file: %w", err)
	}
	if runtime.GOOS != "windows" {
		if fi, err := os.Stat(f.Path); err == nil && fi.Mode().Perm()&0o077 != 0 {
			logging.Warnf("secret file %s is readable by others (mode %v), tightening to 0600", filepath.Base(f.Path), fi.Mode().Perm())
			_ = os.Chmod(f.Path, 0o600)
		}
	}
	return f.open(data)
}

func (f *File) Set(_ context.Context, s security.Secret) error {
	sealed, err := f.seal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create secret dir: %w", err)
	}
	return fsutil.WriteFileAtomic(f.Path, sealed, 0o600)
}

func (f *File) aead() (cipher.AEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(f.DeviceID), []byte(hkdfSalt), []byte("device-secret"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive file key: %w", err)
	}
	return chacha20poly1305.NewX(key)
}

func (f *File) seal(s security.Secret) ([]byte, error) {
	a, err := f.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, a.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	out := append([]byte{}, fileMagic...)
	out = append(out, nonce...)
	return a.Seal(out, nonce, s, fileMagic), nil
}

func (f *File) open(data []byte) (security.Secret, error) {
	if !bytes.HasPrefix(data, fileMagic) {
		return nil, fmt.Errorf("%w: secret file has unknown format", model.ErrParse)
	}
	a, err := f.aead()
	if err != nil {
		return nil, err
	}
	body := data[len(fileMagic):]
	if len(body) < a.NonceSize() {
		return nil, fmt.Errorf("%w: secret file truncated", model.ErrParse)
	}
	plain, err := a.Open(nil, body[:a.NonceSize()], body[a.NonceSize():], fileMagic)
	if err != nil {
		return nil, fmt.Errorf("%w: secret file does not open for this device", model.ErrIntegrity)
	}
	if len(plain) != security.DeviceSecretSize {
		return nil, fmt.Errorf("%w: secret file holds %d bytes", model.ErrParse, len(plain))
	}
	return security.Secret(plain), nil
}
