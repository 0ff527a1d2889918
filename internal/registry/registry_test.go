package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brands.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write registry: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeRegistry(t, `
brands:
  acme:
    category: shopping
    patterns:
      - '\bacme\b'
`)
	reg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	b := reg.Get("acme")
	if b == nil {
		t.Fatal("brand acme not loaded")
	}
	if b.PatternWeight != DefaultPatternWeight {
		t.Errorf("pattern weight: got %v, want %v", b.PatternWeight, DefaultPatternWeight)
	}
	if b.SenderWeight != DefaultSenderWeight {
		t.Errorf("sender weight: got %v, want %v", b.SenderWeight, DefaultSenderWeight)
	}
	if b.SubjectWeight != DefaultSubjectWeight {
		t.Errorf("subject weight: got %v, want %v", b.SubjectWeight, DefaultSubjectWeight)
	}
	if b.Priority != 1 {
		t.Errorf("priority: got %d, want 1", b.Priority)
	}
}

func TestLoadPartialWeights(t *testing.T) {
	path := writeRegistry(t, `
brands:
  acme:
    category: shopping
    score_weights:
      pattern: 0.9
`)
	reg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	b := reg.Get("acme")
	if b.PatternWeight != 0.9 {
		t.Errorf("pattern weight: got %v, want 0.9", b.PatternWeight)
	}
	if b.SenderWeight != DefaultSenderWeight {
		t.Errorf("sender weight should default: got %v", b.SenderWeight)
	}
}

func TestLoadMissingCategory(t *testing.T) {
	path := writeRegistry(t, `
brands:
  acme:
    patterns:
      - acme
`)
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected error for missing category")
	} else if !strings.Contains(err.Error(), "category") {
		t.Errorf("error should mention category: %v", err)
	}
}

func TestBadPatternSkipped(t *testing.T) {
	path := writeRegistry(t, `
brands:
  acme:
    category: shopping
    patterns:
      - '[unclosed'
      - '\bacme\b'
`)
	reg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("bad pattern must not be fatal: %v", err)
	}

	b := reg.Get("acme")
	if !b.MatchesText("order from ACME today") {
		t.Error("valid pattern should still match after bad pattern is skipped")
	}
	if b.MatchesText("nothing here") {
		t.Error("unexpected match")
	}
}

func TestMatchesSenderAndSubject(t *testing.T) {
	path := writeRegistry(t, `
brands:
  acme:
    category: shopping
    sender_domains:
      - acme.com
    subject_contains:
      - Acme Order
`)
	reg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	b := reg.Get("acme")
	if !b.MatchesSender("Billing@ACME.COM") {
		t.Error("sender match should be case-insensitive")
	}
	if b.MatchesSender("billing@other.com") {
		t.Error("unexpected sender match")
	}
	if !b.MatchesSubject("your acme order has shipped") {
		t.Error("subject match should be case-insensitive")
	}
}

func TestNamesSorted(t *testing.T) {
	path := writeRegistry(t, `
brands:
  zeta:
    category: shopping
  alpha:
    category: shopping
  mid:
    category: shopping
`)
	reg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	names := reg.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d]: got %s, want %s", i, names[i], want[i])
		}
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.yaml": "brands:\n  alpha:\n    category: shopping\n",
		"b.yaml": "brands:\n  beta:\n    category: food\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	reg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if reg.Len() != 2 {
		t.Errorf("got %d brands, want 2", reg.Len())
	}
}

func TestLoadFromDirDuplicate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		content := "brands:\n  alpha:\n    category: shopping\n"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	if _, err := LoadFromDir(dir); err == nil {
		t.Fatal("expected error for duplicate brand across files")
	}
}
