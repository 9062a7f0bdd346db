// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures shared by the trust layer,
// the CLI and the TUI.
package model // import "github.com/xnfinite/nightcoreapp/internal/model"

import (
	"encoding/json"
	"fmt"
)

// Unknown is the placeholder used for ingestion facts that could not be read.
const Unknown = "unknown"

// Classification is the derived trust label of a tenant.
type Classification string

const (
	// Blocked tenants have no manifest and can never run.
	Blocked Classification = "blocked"
	// PendingApproval tenants arrived through a non-manual channel and
	// still wait for an operator decision.
	PendingApproval Classification = "pending_approval"
	// Cleared tenants are trusted but have no recorded execution yet.
	Cleared Classification = "cleared"
	// Observed tenants have at least one decision-log entry.
	Observed Classification = "observed"
)

// Ingestion channels known to the console. Other values are displayed as-is.
const (
	ChannelManual      = "manual"
	ChannelAutomated   = "automated"
	ChannelExternal    = "external"
	ChannelLegacy      = "legacy"
	ChannelUnspecified = "unspecified"
)

// IngestionState describes how a tenant entered the trust root.
type IngestionState struct {
	Channel   string `json:"channel"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// UnknownIngestion returns the conservative ingestion facts used when the
// manifest is absent or unreadable.
func UnknownIngestion() IngestionState {
	return IngestionState{Channel: Unknown, Source: Unknown, Timestamp: Unknown}
}

// AuthorizationState holds the operator approval fields of a manifest.
type AuthorizationState struct {
	Approved   bool   `json:"approved"`
	ApprovedAt string `json:"approved_at,omitempty"`
	ApprovedBy string `json:"approved_by,omitempty"`
}

// ExecutionState is derived from the decision log and never persisted.
type ExecutionState struct {
	HasExecuted       bool   `json:"has_executed"`
	LastExecutionTime string `json:"last_execution_time,omitempty"`
}

// ObservationState carries the most recent threat score for a tenant.
type ObservationState struct {
	CurrentThreatScore uint8 `json:"current_threat_score"`
}

// TenantState is the reconciled view of one tenant.
type TenantState struct {
	Name           string             `json:"name"`
	Path           string             `json:"path"`
	HasManifest    bool               `json:"has_manifest"`
	ManifestError  string             `json:"manifest_error,omitempty"`
	Ingestion      IngestionState     `json:"ingestion"`
	Authorization  AuthorizationState `json:"authorization"`
	Execution      ExecutionState     `json:"execution"`
	Observation    ObservationState   `json:"observation"`
	Classification Classification     `json:"classification"`
}

// DecisionLogEntry is one line of the engine's decision log. Fields the
// console does not interpret are kept in Metadata.
type DecisionLogEntry struct {
	Timestamp   string                     `json:"timestamp"`
	Tenant      string                     `json:"tenant"`
	ThreatScore uint8                      `json:"threat_score"`
	Reason      string                     `json:"reason,omitempty"`
	Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
}

// DecisionFact is the latest (timestamp, score) pair per tenant.
type DecisionFact struct {
	Timestamp   string
	ThreatScore uint8
}

// QuarantineEntry is one log-derived quarantine listing item.
type QuarantineEntry struct {
	Name        string `json:"name"`
	Tenant      string `json:"tenant"`
	Timestamp   string `json:"timestamp"`
	ThreatScore uint8  `json:"threat_score"`
	Reason      string `json:"reason"`
	Path        string `json:"path"`
}

// InboxEntry is a tenant waiting for an operator: pending approval, or
// blocked because its manifest is missing.
type InboxEntry struct {
	Tenant         string         `json:"tenant"`
	Classification Classification `json:"classification"`
	Path           string         `json:"path"`
	Signed         bool           `json:"signed"`
	Source         IngestionState `json:"ingestion"`
}

// TenantArtifacts reports which engine artifacts exist for a tenant.
type TenantArtifacts struct {
	Tenant    string `json:"tenant"`
	Path      string `json:"path"`
	HasWasm   bool   `json:"has_wasm"`
	HasSig    bool   `json:"has_sig"`
	HasSHA256 bool   `json:"has_sha256"`
	HasPubkey bool   `json:"has_pubkey"`
}

// Signed reports whether the tenant carries a signature produced by the engine.
func (a TenantArtifacts) Signed() bool { return a.HasSig }

// LicenseRecord is the on-disk license cache.
type LicenseRecord struct {
	LicenseKey  string `json:"license_key"`
	Tier        string `json:"tier"`
	ActivatedAt string `json:"activated_at"`
	Valid       bool   `json:"valid"`
	DeviceID    string `json:"device_id"`
	Provider    string `json:"provider"`
	Signature   string `json:"signature,omitempty"`
}

// Tier labels.
const (
	TierPro      = "Guardian PRO"
	TierOpenCore = "Open Core"
)

// ProStatus is the result of a license status query.
type ProStatus struct {
	IsPro       bool   `json:"is_pro"`
	Tier        string `json:"tier"`
	Provider    string `json:"provider,omitempty"`
	ActivatedAt string `json:"activated_at,omitempty"`
	// Reason explains a not-pro result without exposing key material.
	Reason string `json:"reason,omitempty"`
}

// NotPro returns the Open Core status with an optional reason.
func NotPro(reason string) ProStatus {
	return ProStatus{Tier: TierOpenCore, Reason: reason}
}

// PolicyFile is the passthrough allow/block list.
type PolicyFile struct {
	Allow []string `json:"allow"`
	Block []string `json:"block"`
}

// AuditLogEntry is one operator action recorded by the audit trail.
type AuditLogEntry struct {
	ID        int
	EventID   string
	Timestamp string
	Username  string
	Action    string
	Details   string
}

// String returns a compact single-line representation.
func (e AuditLogEntry) String() string {
	return fmt.Sprintf("%s %s %s: %s", e.Timestamp, e.Username, e.Action, e.Details)
}
