// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "errors"

// Sentinel errors of the trust layer. Callers wrap them with %w and test
// with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrParse          = errors.New("parse error")
	ErrIntegrity      = errors.New("integrity failure")
	ErrNetwork        = errors.New("network error")
	ErrRemoteRejected = errors.New("license rejected by provider")
	ErrInvalidFormat  = errors.New("invalid format")
	ErrProcessFailure = errors.New("process failure")
	ErrPolicyDisabled = errors.New("disabled by policy")
)

// ProcessError reports a non-zero exit of an external collaborator. Its
// message is the collaborator's stderr, verbatim.
type ProcessError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	if e.Stderr == "" {
		return ErrProcessFailure.Error()
	}
	return e.Stderr
}

// Unwrap lets errors.Is match ErrProcessFailure.
func (e *ProcessError) Unwrap() error { return ErrProcessFailure }

// PolicyError is a PolicyDisabled rejection carrying an operator-facing message.
type PolicyError struct{ Message string }

func (e *PolicyError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrPolicyDisabled.
func (e *PolicyError) Unwrap() error { return ErrPolicyDisabled }
