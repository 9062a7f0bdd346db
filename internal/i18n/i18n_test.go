// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}

	av := GetAvailableLocales()
	for _, k := range []string{"en", "de"} {
		if _, ok := av[k]; !ok {
			t.Fatalf("expected available locale %q to be present", k)
		}
	}
	if av["de"] != "Deutsch" {
		t.Fatalf("unexpected display name for de: %q", av["de"])
	}
}

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")

	if got := T("common.yes"); got != "yes" {
		t.Fatalf("expected 'yes', got %q", got)
	}
	if got := T("import.success", "tenant-1"); got != "Imported as tenant-1." {
		t.Fatalf("unexpected formatted translation: %q", got)
	}
	if got := T("no.such.key"); got != "no.such.key" {
		t.Fatalf("unknown ids should fall back to the id, got %q", got)
	}

	SetLang("de")
	defer SetLang("en")
	if GetLang() != "de" {
		t.Fatalf("expected lang 'de', got %q", GetLang())
	}
	if got := T("common.yes"); got != "ja" {
		t.Fatalf("expected German 'ja', got %q", got)
	}
}

func TestT_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	Init("xx")
	defer Init("en")
	if got := T("common.no"); got != "no" {
		t.Fatalf("expected English fallback, got %q", got)
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	en := catalogKeys(t, "locales/en.yaml")
	de := catalogKeys(t, "locales/de.yaml")
	for k := range en {
		if !de[k] {
			t.Errorf("de.yaml missing %q", k)
		}
	}
	for k := range de {
		if !en[k] {
			t.Errorf("en.yaml missing %q", k)
		}
	}
}

func catalogKeys(t *testing.T, name string) map[string]bool {
	t.Helper()
	data, err := localeFS.ReadFile(name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	keys := make(map[string]bool, len(m))
	for k := range m {
		keys[k] = true
	}
	return keys
}
