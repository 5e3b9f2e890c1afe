package gitmuxconfig

import "testing"

func TestParseMappingSpecBasic(t *testing.T) {
	m, err := ParseMappingSpec("src/lib:pkg/lib")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Source != "src/lib" || m.Destination != "pkg/lib" {
		t.Fatalf("got %+v", m)
	}
}

func TestParseMappingSpecEmptyDest(t *testing.T) {
	m, err := ParseMappingSpec("src/lib:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Source != "src/lib" || m.Destination != "" {
		t.Fatalf("got %+v", m)
	}
}

func TestParseMappingSpecEscapedColon(t *testing.T) {
	m, err := ParseMappingSpec(`weird\:path:dest`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Source != "weird:path" {
		t.Fatalf("expected de-escaped colon in source, got %q", m.Source)
	}
	if m.Destination != "dest" {
		t.Fatalf("got dest %q", m.Destination)
	}
}

func TestParseMappingSpecNoColon(t *testing.T) {
	if _, err := ParseMappingSpec("nocolonhere"); err == nil {
		t.Fatal("expected error for missing separator")
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		".":          "",
		"/":          "",
		"/a/b/":      "a/b",
		"a/b":        "a/b",
		"./a/b/":     "a/b",
		"":           "",
		"a//b":       "a//b", // internal separators preserved verbatim
	}
	for in, want := range cases {
		got := NormalizePath(in)
		if got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMappingRoundTrip(t *testing.T) {
	specs := []string{
		"src/lib:pkg/lib",
		`weird\:name:dest\:here`,
		"onlysrc:",
	}
	for _, spec := range specs {
		m, err := ParseMappingSpec(spec)
		if err != nil {
			t.Fatalf("parse(%q): %v", spec, err)
		}
		roundTripped := FormatMappingSpec(m)
		m2, err := ParseMappingSpec(roundTripped)
		if err != nil {
			t.Fatalf("re-parse(%q): %v", roundTripped, err)
		}
		if m != m2 {
			t.Errorf("round trip mismatch for %q: %+v != %+v", spec, m, m2)
		}
	}
}

func TestDestinationsOverlap(t *testing.T) {
	cases := []struct {
		a, b    string
		overlap bool
	}{
		{"a", "a", true},
		{"a", "a/b", true},
		{"a/b", "a", true},
		{"a", "ab", false},
		{"pkg/src", "pkg/tests", false},
		{"a/b", "a/c", false},
	}
	for _, c := range cases {
		got := destinationsOverlap(c.a, c.b)
		if got != c.overlap {
			t.Errorf("destinationsOverlap(%q, %q) = %v, want %v", c.a, c.b, got, c.overlap)
		}
	}
}
