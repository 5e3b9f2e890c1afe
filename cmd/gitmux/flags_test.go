package main

import (
	"testing"
)

func TestEnvDefaultBool(t *testing.T) {
	cases := map[string]bool{
		"true": true, "1": true, "yes": true, "TRUE": true,
		"false": false, "0": false, "": false, "nope": false,
	}
	for raw, want := range cases {
		t.Setenv("GITMUX_TEST_BOOL", raw)
		if got := envDefaultBool("TEST_BOOL"); got != want {
			t.Errorf("envDefaultBool(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestEnvDefaultSlice(t *testing.T) {
	t.Setenv("GITMUX_TEST_SLICE", "a, b ,c")
	got := envDefaultSlice("TEST_SLICE")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestEnvDefaultSliceEmpty(t *testing.T) {
	t.Setenv("GITMUX_TEST_SLICE_EMPTY", "")
	if got := envDefaultSlice("TEST_SLICE_EMPTY"); got != nil {
		t.Fatalf("expected nil for empty env var, got %v", got)
	}
}
