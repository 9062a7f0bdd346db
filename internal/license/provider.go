// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package license

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xnfinite/nightcoreapp/internal/model"
)

// Provider validates a license key against its issuing authority.
type Provider interface {
	Name() string
	Validate(ctx context.Context, key string) error
}

// Provider names recorded in license.json.
const (
	ProviderOffline      = "offline"
	ProviderLemonSqueezy = "lemonsqueezy"
)

// IsOfflineShape reports whether key has the four dash-separated groups of
// eight characters used by offline keys. Hex validity is checked separately.
func IsOfflineShape(key string) bool {
	parts := strings.Split(key, "-")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) != 8 {
			return false
		}
	}
	return true
}

// Offline accepts keys of the form XXXXXXXX-XXXXXXXX-XXXXXXXX-XXXXXXXX
// with hex groups, case-insensitive.
type Offline struct{}

func (Offline) Name() string { return ProviderOffline }

func (Offline) Validate(_ context.Context, key string) error {
	if !IsOfflineShape(key) {
		return fmt.Errorf("%w: offline keys have four groups of 8 hex characters", model.ErrInvalidFormat)
	}
	for _, c := range strings.ReplaceAll(key, "-", "") {
		if !isHex(c) {
			return fmt.Errorf("%w: offline key contains non-hex character %q", model.ErrInvalidFormat, c)
		}
	}
	return nil
}

func isHex(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// DefaultLemonEndpoint is the Lemon Squeezy license validation URL.
const DefaultLemonEndpoint = "https://api.lemonsqueezy.com/v1/licenses/validate"

// DefaultActivationName identifies this console to Lemon Squeezy.
const DefaultActivationName = "Night Core Console"

// LemonSqueezy validates keys with a remote HTTP round trip.
type LemonSqueezy struct {
	Endpoint       string
	ActivationName string
	Client         *http.Client
	// Retries applies to transport errors and 5xx responses.
	Retries    int
	RetryDelay time.Duration
}

type lemonResponse struct {
	Valid      bool    `json:"valid"`
	Error      *string `json:"error"`
	LicenseKey *struct {
		Status string `json:"status"`
	} `json:"license_key"`
}

func (l *LemonSqueezy) Name() string { return ProviderLemonSqueezy }

func (l *LemonSqueezy) Validate(ctx context.Context, key string) error {
	endpoint := l.Endpoint
	if endpoint == "" {
		endpoint = DefaultLemonEndpoint
	}
	name := l.ActivationName
	if name == "" {
		name = DefaultActivationName
	}
	form := url.Values{"license_key": {key}, "activation_name": {name}}

	status, body, err := l.post(ctx, endpoint, form.Encode())
	if err != nil {
		return fmt.Errorf("%w: contacting Lemon Squeezy: %v", model.ErrNetwork, err)
	}

	var resp lemonResponse
	decodeErr := json.Unmarshal(body, &resp)
	if status < 200 || status > 299 {
		// Rejections arrive as 4xx with a JSON body; anything else is transport.
		if decodeErr == nil && !resp.Valid && resp.Error != nil {
			return fmt.Errorf("%w: Lemon Squeezy: %s", model.ErrRemoteRejected, *resp.Error)
		}
		return fmt.Errorf("%w: Lemon Squeezy returned HTTP %d", model.ErrNetwork, status)
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: invalid response from Lemon Squeezy: %v", model.ErrNetwork, decodeErr)
	}
	if !resp.Valid {
		msg := "license is invalid"
		if resp.Error != nil && *resp.Error != "" {
			msg = *resp.Error
		}
		return fmt.Errorf("%w: Lemon Squeezy: %s", model.ErrRemoteRejected, msg)
	}
	if resp.LicenseKey == nil {
		return fmt.Errorf("%w: Lemon Squeezy: missing license status", model.ErrRemoteRejected)
	}
	if resp.LicenseKey.Status != "active" {
		return fmt.Errorf("%w: Lemon Squeezy: license status is %q (not active)", model.ErrRemoteRejected, resp.LicenseKey.Status)
	}
	return nil
}

func (l *LemonSqueezy) post(ctx context.Context, endpoint, form string) (int, []byte, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	retries := max(l.Retries, 0)
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(l.RetryDelay):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 && attempt < retries {
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			continue
		}
		return resp.StatusCode, body, nil
	}
	return 0, nil, lastErr
}
