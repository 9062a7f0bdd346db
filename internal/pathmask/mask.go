// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package pathmask turns real filesystem locations under the trust root into
// opaque display tokens before they reach the CLI or TUI.
package pathmask

import "strings"

// Scheme is the token prefix that replaces the trust root.
const Scheme = "worker://"

// Mask replaces a leading root with Scheme and normalizes separators to '/'.
// Paths outside root only get their separators normalized. The result never
// contains root; stray occurrences past the prefix are replaced as well.
func Mask(root, path string) string {
	if root == "" {
		return normalize(path)
	}
	nroot := normalize(root)

	var out string
	switch {
	case strings.HasPrefix(path, root):
		out = Scheme + normalize(path[len(root):])
	case strings.HasPrefix(normalize(path), nroot):
		out = Scheme + normalize(path)[len(nroot):]
	default:
		out = normalize(path)
	}

	// The prefix is exempt so the scheme itself is never rewritten.
	if strings.HasPrefix(out, Scheme) {
		rest, ok := scrub(out[len(Scheme):], root, nroot)
		if !ok {
			return Scheme
		}
		return Scheme + rest
	}
	rest, ok := scrub(out, root, nroot)
	if !ok {
		return Scheme
	}
	return rest
}

// Masker binds Mask to a fixed trust root.
type Masker struct{ Root string }

// Mask masks p against the bound root.
func (m Masker) Mask(p string) string { return Mask(m.Root, p) }

func normalize(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// scrubPasses bounds the replacement loop; a replacement can re-form root
// across the scheme boundary, e.g. root "/a" in "/aa".
const scrubPasses = 8

func scrub(s, root, nroot string) (string, bool) {
	for i := 0; i < scrubPasses; i++ {
		if !strings.Contains(s, root) && !strings.Contains(s, nroot) {
			return s, true
		}
		s = strings.ReplaceAll(s, root, Scheme)
		s = strings.ReplaceAll(s, nroot, Scheme)
	}
	return s, !strings.Contains(s, root) && !strings.Contains(s, nroot)
}
