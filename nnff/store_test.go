package nnff

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeModels(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n+".json"), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
}

func TestFindModel_ExactFirmwareMatch(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "HYUNDAI_SONATA 56310-L1010")
	s := NewStore(dir)

	m, err := s.FindModel("HYUNDAI_SONATA", "56310-L1010")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m == nil {
		t.Fatal("expected a match")
	}
	if !m.Exact {
		t.Errorf("expected exact match, got similarity %v", m.Similarity)
	}
	if m.Name != "HYUNDAI_SONATA 56310-L1010" {
		t.Errorf("unexpected name %q", m.Name)
	}
	if m.Path != filepath.Join(dir, "HYUNDAI_SONATA 56310-L1010.json") {
		t.Errorf("unexpected path %q", m.Path)
	}
}

func TestFindModel_FuzzyFirmwareRevision(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "HYUNDAI_SONATA 56310-L1000")
	s := NewStore(dir)

	m, err := s.FindModel("HYUNDAI_SONATA", "56310-L1010")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m == nil {
		t.Fatal("expected a fuzzy match across firmware revisions")
	}
	if m.Exact {
		t.Error("expected fuzzy, not exact")
	}
	if want := 50.0 / 52.0; math.Abs(m.Similarity-want) > 1e-9 {
		t.Errorf("expected similarity %v, got %v", want, m.Similarity)
	}
}

func TestFindModel_PrefersClosestFirmware(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "HYUNDAI_SONATA 56310-L1000", "HYUNDAI_SONATA 56310-L1010")
	s := NewStore(dir)

	m, err := s.FindModel("HYUNDAI_SONATA", "56310-L1010")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m == nil || !m.Exact {
		t.Fatalf("expected exact match for the matching revision, got %+v", m)
	}
	if m.Name != "HYUNDAI_SONATA 56310-L1010" {
		t.Errorf("picked %q over the exact revision", m.Name)
	}
}

func TestFindModel_FallsBackToBareFingerprint(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "CHEVROLET_BOLT")
	s := NewStore(dir)

	m, err := s.FindModel("CHEVROLET_BOLT", "12345-ABCDE")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m == nil || !m.Exact {
		t.Fatalf("expected exact fallback on the bare fingerprint, got %+v", m)
	}
}

func TestFindModel_ShortFirmwareSkipsQualifiedPath(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "HYUNDAI_SONATA 56310-L1000")
	s := NewStore(dir)

	m, err := s.FindModel("HYUNDAI_SONATA", "ab")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m != nil {
		t.Fatalf("expected no match without a usable firmware string, got %+v", m)
	}
}

func TestFindModel_StripsFirmwareBackslashes(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "HYUNDAI_SONATA 56310L1010")
	s := NewStore(dir)

	m, err := s.FindModel("HYUNDAI_SONATA", `56310\L1010`)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m == nil || !m.Exact {
		t.Fatalf("expected exact match after stripping backslashes, got %+v", m)
	}
}

func TestFindModel_RejectsLookalikePlatform(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "HYUNDAI_SONATA_X")
	s := NewStore(dir)

	// Scores 0.9375 but the name does not contain the fingerprint.
	m, err := s.FindModel("HYUNDAI_SONATA_N", "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m != nil {
		t.Fatalf("expected lookalike platform to be rejected, got %+v", m)
	}
}

func TestFindModel_EmptyStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("models"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewStore(dir)

	m, err := s.FindModel("HYUNDAI_SONATA", "56310-L1010")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m != nil {
		t.Fatalf("expected no match in an empty store, got %+v", m)
	}
}

func TestFindModel_MissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing"))
	if _, err := s.FindModel("HYUNDAI_SONATA", ""); err == nil {
		t.Fatal("expected error for missing model directory")
	}
}

func TestListModels(t *testing.T) {
	dir := t.TempDir()
	writeModels(t, dir, "KIA_EV6", "CHEVROLET_BOLT")
	if err := os.Mkdir(filepath.Join(dir, "archive"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	s := NewStore(dir)

	names, err := s.ListModels()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "CHEVROLET_BOLT" || names[1] != "KIA_EV6" {
		t.Fatalf("unexpected listing %v", names)
	}
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"abc", "abc", 1.0},
		{"abc", "abd", 4.0 / 6.0},
		{"abd", "abc", 4.0 / 6.0},
		{"", "", 1.0},
		{"abc", "", 0.0},
	}
	for _, tc := range cases {
		if got := Similarity(tc.a, tc.b); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Similarity(%q, %q): expected %v, got %v", tc.a, tc.b, tc.want, got)
		}
	}
}
