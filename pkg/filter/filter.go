// Package filter defines the Filter Backend abstraction: transforming a
// source clone's history so that only the content named by a run's
// path mappings remains, at the mapped destination paths, with
// optional author/committer and co-author trailer rewrites applied to
// every retained commit.
//
// Two concrete implementations exist, pkg/filter/legacy and
// pkg/filter/modern, chosen by Select. Both must produce semantically
// equivalent result trees and commit messages; neither the Resolver nor
// the rest of the pipeline may depend on SHA stability across backends.
package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
	"github.com/gitmux/gitmux/pkg/gmlog"
)

// RewriteOptions carries the per-run rewrite parameters into a backend
// invocation. It is a typed record rather than process-global state
// (spec.md section 7's cyclic/process-global-state concern): no
// environment variables are used to pass identity overrides between
// the orchestrator and a backend.
type RewriteOptions struct {
	AuthorOverride    gitmuxconfig.Identity
	CommitterOverride gitmuxconfig.Identity
	CoauthorAction    gitmuxconfig.CoauthorAction
}

// Backend is the Filter Backend interface. Implementations mutate the
// clone at dir in place; the destination is never touched by a backend.
type Backend interface {
	// Name identifies the backend for logging and error messages.
	Name() string

	// RewriteSingle rewrites history for a single source-to-destination
	// mapping, optionally restricted to revListPaths.
	RewriteSingle(ctx context.Context, dir string, opts RewriteOptions, source, dest string, revListPaths []string) error

	// RewriteMultipath rewrites history for two or more mappings in a
	// single pass, so each retained source commit appears exactly once
	// in the result regardless of how many mappings its files cross.
	RewriteMultipath(ctx context.Context, dir string, opts RewriteOptions, mappings []gitmuxconfig.PathMapping) error
}

// BackendError wraps a nonzero-status backend invocation with the
// mapping index and backend name it failed on, per spec.md section
// 4.4's error semantics: the run aborts with no partial results pushed.
type BackendError struct {
	Backend      string
	MappingIndex int
	Err          error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("filter backend %s failed on mapping %d: %v", e.Backend, e.MappingIndex, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError constructs a BackendError naming the failing mapping
// by its index in the run's mapping list (0 for single-mapping runs;
// -1 when a single-pass multipath rewrite fails and no one mapping can
// be named).
func NewBackendError(backend string, mappingIndex int, err error) *BackendError {
	return &BackendError{Backend: backend, MappingIndex: mappingIndex, Err: err}
}

// AvailabilityProbe reports whether a backend's external tool is
// present and, if so, its version string. Both concrete backends
// implement this so Resolver can compute the auto choice without
// importing backend internals.
type AvailabilityProbe interface {
	Available(ctx context.Context) (version string, ok bool)
}

// MinModernVersion is the lowest external rewriter runtime version the
// modern backend will accept, per spec.md section 4.3.
const MinModernVersion = "3.6"

// Resolver computes and caches the backend selection for a run. The
// choice is computed once, at first invocation, and reused for every
// mapping in the run (spec.md section 4.4) — the same lazy-once pattern
// the teacher uses for its GitHub client handle.
type Resolver struct {
	Legacy Backend
	Modern Backend

	ModernProbe AvailabilityProbe

	Logger *gmlog.Logger

	once     sync.Once
	resolved Backend
	err      error
}

// Select returns the backend to use for choice, resolving and caching
// "auto" on first call. Subsequent calls with the same Resolver return
// the cached result even if choice differs, since a run commits to one
// backend for its entire lifetime.
func (r *Resolver) Select(ctx context.Context, choice gitmuxconfig.FilterBackendChoice) (Backend, error) {
	r.once.Do(func() {
		r.resolved, r.err = r.resolve(ctx, choice)
	})
	return r.resolved, r.err
}

func (r *Resolver) resolve(ctx context.Context, choice gitmuxconfig.FilterBackendChoice) (Backend, error) {
	switch choice {
	case gitmuxconfig.BackendLegacy:
		return r.Legacy, nil

	case gitmuxconfig.BackendModern:
		if r.ModernProbe == nil {
			return nil, fmt.Errorf("modern filter backend unavailable: no availability probe configured")
		}
		version, ok := r.ModernProbe.Available(ctx)
		if !ok || !VersionAtLeast(version, MinModernVersion) {
			return nil, fmt.Errorf("modern filter backend unavailable or runtime below %s (found %q)", MinModernVersion, version)
		}
		return r.Modern, nil

	case gitmuxconfig.BackendAuto, "":
		if r.ModernProbe != nil {
			if version, ok := r.ModernProbe.Available(ctx); ok && VersionAtLeast(version, MinModernVersion) {
				return r.Modern, nil
			}
		}
		if r.Logger != nil {
			r.Logger.Info("filter backend auto-selection falling back to legacy", "reason", "modern backend unavailable or runtime too old")
		}
		return r.Legacy, nil

	default:
		return nil, fmt.Errorf("unknown filter backend choice %q", choice)
	}
}

// VersionAtLeast compares dotted version strings numerically component
// by component; a malformed version string is treated as too low.
func VersionAtLeast(version, min string) bool {
	if version == "" {
		return false
	}
	vParts := splitVersion(version)
	mParts := splitVersion(min)
	for i := 0; i < len(mParts); i++ {
		var v int
		if i < len(vParts) {
			v = vParts[i]
		}
		m := mParts[i]
		if v != m {
			return v > m
		}
	}
	return true
}

func splitVersion(s string) []int {
	var parts []int
	cur := 0
	seenDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			cur = cur*10 + int(r-'0')
			seenDigit = true
		case r == '.':
			parts = append(parts, cur)
			cur = 0
			seenDigit = false
		default:
			if seenDigit {
				parts = append(parts, cur)
			}
			return parts
		}
	}
	if seenDigit || len(parts) == 0 {
		parts = append(parts, cur)
	}
	return parts
}
