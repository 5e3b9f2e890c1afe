package filter

import (
	"context"
	"testing"

	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
)

type stubBackend struct{ name string }

func (s *stubBackend) Name() string { return s.name }
func (s *stubBackend) RewriteSingle(ctx context.Context, dir string, opts RewriteOptions, source, dest string, revListPaths []string) error {
	return nil
}
func (s *stubBackend) RewriteMultipath(ctx context.Context, dir string, opts RewriteOptions, mappings []gitmuxconfig.PathMapping) error {
	return nil
}

type stubProbe struct {
	version string
	ok      bool
}

func (p stubProbe) Available(ctx context.Context) (string, bool) { return p.version, p.ok }

func TestResolverAutoPrefersModernWhenAvailable(t *testing.T) {
	r := &Resolver{
		Legacy:      &stubBackend{name: "legacy"},
		Modern:      &stubBackend{name: "modern"},
		ModernProbe: stubProbe{version: "3.6.0", ok: true},
	}
	backend, err := r.Select(context.Background(), gitmuxconfig.BackendAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.Name() != "modern" {
		t.Fatalf("got %q, want modern", backend.Name())
	}
}

func TestResolverAutoFallsBackOnOldRuntime(t *testing.T) {
	r := &Resolver{
		Legacy:      &stubBackend{name: "legacy"},
		Modern:      &stubBackend{name: "modern"},
		ModernProbe: stubProbe{version: "3.4.0", ok: true},
	}
	backend, err := r.Select(context.Background(), gitmuxconfig.BackendAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.Name() != "legacy" {
		t.Fatalf("got %q, want legacy", backend.Name())
	}
}

func TestResolverModernExplicitErrorsWhenUnavailable(t *testing.T) {
	r := &Resolver{
		Legacy:      &stubBackend{name: "legacy"},
		Modern:      &stubBackend{name: "modern"},
		ModernProbe: stubProbe{ok: false},
	}
	if _, err := r.Select(context.Background(), gitmuxconfig.BackendModern); err == nil {
		t.Fatal("expected error for unavailable modern backend")
	}
}

func TestResolverCachesChoice(t *testing.T) {
	r := &Resolver{
		Legacy:      &stubBackend{name: "legacy"},
		Modern:      &stubBackend{name: "modern"},
		ModernProbe: stubProbe{version: "3.6.0", ok: true},
	}
	first, _ := r.Select(context.Background(), gitmuxconfig.BackendAuto)
	second, _ := r.Select(context.Background(), gitmuxconfig.BackendLegacy)
	if first.Name() != second.Name() {
		t.Fatalf("resolver did not cache: first=%q second=%q", first.Name(), second.Name())
	}
}

func TestVersionAtLeast(t *testing.T) {
	cases := []struct {
		version, min string
		want         bool
	}{
		{"3.6", "3.6", true},
		{"3.6.1", "3.6", true},
		{"3.5.9", "3.6", false},
		{"4.0", "3.6", true},
		{"", "3.6", false},
		{"not-a-version", "3.6", false},
	}
	for _, c := range cases {
		if got := VersionAtLeast(c.version, c.min); got != c.want {
			t.Errorf("VersionAtLeast(%q, %q) = %v, want %v", c.version, c.min, got, c.want)
		}
	}
}

func TestBackendErrorUnwrap(t *testing.T) {
	inner := context.DeadlineExceeded
	err := NewBackendError("legacy", 2, inner)
	if err.Unwrap() != inner {
		t.Fatalf("Unwrap did not return inner error")
	}
	if err.Error() == "" {
		t.Fatal("expected non-empty error message")
	}
}
