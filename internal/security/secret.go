// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds the redacting container for device-bound key
// material and the HMAC primitives built on it.
package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// DeviceSecretSize is the length of a device secret in bytes.
const DeviceSecretSize = 32

const redacted = "[SECRET]"

// Secret wraps sensitive bytes so fmt, logging and JSON never print them.
type Secret []byte

// String redacts the secret.
func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter so every verb is redacted.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

// MarshalJSON redacts secrets in JSON output.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// MarshalText redacts secrets for text encoding.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Bytes returns a copy of the underlying bytes.
func (s Secret) Bytes() []byte {
	out := make([]byte, len(s))
	copy(out, s)
	return out
}

// Zero overwrites the secret in place.
func (s *Secret) Zero() {
	if s == nil {
		return
	}
	clear(*s)
}

// Encode returns the secret as standard base64, for credential stores that
// only accept strings.
func (s Secret) Encode() string { return base64.StdEncoding.EncodeToString(s) }

// Decode parses a base64 secret and checks its length.
func Decode(in string) (Secret, error) {
	b, err := base64.StdEncoding.DecodeString(in)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}
	if len(b) != DeviceSecretSize {
		return nil, fmt.Errorf("decode secret: want %d bytes, got %d", DeviceSecretSize, len(b))
	}
	return Secret(b), nil
}

// FromBytes copies in into a new Secret.
func FromBytes(in []byte) Secret {
	out := make([]byte, len(in))
	copy(out, in)
	return Secret(out)
}

// Generate returns DeviceSecretSize cryptographically random bytes.
func Generate() (Secret, error) {
	b := make([]byte, DeviceSecretSize)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	return Secret(b), nil
}

// Sign returns the base64 HMAC-SHA256 of msg keyed by s.
func (s Secret) Sign(msg string) string {
	m := hmac.New(sha256.New, s)
	m.Write([]byte(msg))
	return base64.StdEncoding.EncodeToString(m.Sum(nil))
}

// Verify checks a base64 HMAC-SHA256 signature in constant time.
func (s Secret) Verify(msg, signature string) bool {
	want, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	m := hmac.New(sha256.New, s)
	m.Write([]byte(msg))
	return hmac.Equal(m.Sum(nil), want)
}
