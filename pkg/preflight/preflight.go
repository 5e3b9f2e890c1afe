// Package preflight validates that a run can succeed before any
// state-mutating step. Checks are independent, read-only probes run
// concurrently (golang.org/x/sync/errgroup), and collected into a
// report whose ordering is fixed by check index regardless of which
// goroutine finishes first.
package preflight

import (
	"context"
	"fmt"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/gitmux/gitmux/pkg/filter"
	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
	"github.com/gitmux/gitmux/pkg/gitutil"
	"github.com/gitmux/gitmux/pkg/workspace"
)

// Status is a single check's outcome.
type Status string

const (
	Pass Status = "pass"
	Fail Status = "fail"
	Warn Status = "warn"
)

// Result is one check's outcome, named per spec.md section 4.3.
type Result struct {
	Check   string
	Status  Status
	Message string
}

// Report is the ordered list of check results. The run is gated by
// OK(): it must succeed unless skipped.
type Report []Result

// OK reports whether every check passed or warned (no Fail).
func (r Report) OK() bool {
	for _, res := range r {
		if res.Status == Fail {
			return false
		}
	}
	return true
}

const (
	checkTools        = "required tools reachable"
	checkSource       = "source readable"
	checkDestination  = "destination writable"
	checkFilterBackend = "filter backend availability"
	checkBranchName   = "integration branch name available"
	checkTeams        = "teams resolvable"
)

// TeamResolver checks whether org/team identifiers exist at a
// destination; implemented by pkg/ghclient, kept as an interface here
// so preflight does not depend on the GitHub client package.
type TeamResolver interface {
	TeamsExist(ctx context.Context, destination string, teams []string) (missing []string, err error)
}

// Deps bundles the external dependencies preflight's checks call
// through, so they can be faked in tests without a real git/gh/network
// environment.
type Deps struct {
	ModernProbe  filter.AvailabilityProbe
	TeamResolver TeamResolver

	// LookPath overrides exec.LookPath for testability; nil uses the
	// real exec.LookPath.
	LookPath func(string) (string, error)

	// ResolveSourceRef overrides gitutil.LsRemote for testability.
	ResolveSourceRef func(ctx context.Context, repo, ref string) (string, error)

	// RemoteRefExists overrides the destination branch-existence probe
	// for testability; given nil it shells out with a throwaway client.
	RemoteRefExists func(ctx context.Context, destination, branch string) (bool, error)
}

func (d Deps) lookPath(name string) (string, error) {
	if d.LookPath != nil {
		return d.LookPath(name)
	}
	return exec.LookPath(name)
}

func (d Deps) resolveSourceRef(ctx context.Context, repo, ref string) (string, error) {
	if d.ResolveSourceRef != nil {
		return d.ResolveSourceRef(ctx, repo, ref)
	}
	return gitutil.LsRemote(ctx, repo, ref)
}

func (d Deps) remoteRefExists(ctx context.Context, destination, branch string) (bool, error) {
	if d.RemoteRefExists != nil {
		return d.RemoteRefExists(ctx, destination, branch)
	}
	return gitutil.NewClient(".").RemoteRefExists(ctx, destination, branch)
}

// Run executes all applicable checks concurrently and returns an
// ordered Report. skip_preflight is handled by the caller: Run is
// never invoked when it is set. Run does execute on dry runs.
func Run(ctx context.Context, cfg *gitmuxconfig.RunConfig, deps Deps) (Report, error) {
	results := make([]Result, 6)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		results[0] = checkToolsReachable(cfg, deps)
		return nil
	})
	g.Go(func() error {
		results[1] = checkSourceReadable(gctx, cfg, deps)
		return nil
	})
	g.Go(func() error {
		results[2] = checkDestinationWritable(gctx, cfg, deps)
		return nil
	})
	g.Go(func() error {
		results[3] = checkFilterBackendAvailable(gctx, cfg, deps)
		return nil
	})
	g.Go(func() error {
		results[4] = checkIntegrationBranchAvailable(gctx, cfg, deps)
		return nil
	})
	g.Go(func() error {
		results[5] = checkTeamsResolvable(gctx, cfg, deps)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Report(results), nil
}

func checkToolsReachable(cfg *gitmuxconfig.RunConfig, deps Deps) Result {
	if _, err := deps.lookPath("git"); err != nil {
		return Result{checkTools, Fail, "git not found on PATH"}
	}
	if cfg.SubmitPR || cfg.CreateIfMissing {
		if _, err := deps.lookPath("gh"); err != nil {
			return Result{checkTools, Fail, "gh not found on PATH (required by --submit-pr/--create-if-missing)"}
		}
	}
	return Result{checkTools, Pass, "git" + toolsSuffix(cfg)}
}

func toolsSuffix(cfg *gitmuxconfig.RunConfig) string {
	if cfg.SubmitPR || cfg.CreateIfMissing {
		return " and gh reachable"
	}
	return " reachable"
}

func checkSourceReadable(ctx context.Context, cfg *gitmuxconfig.RunConfig, deps Deps) Result {
	sha, err := deps.resolveSourceRef(ctx, cfg.Source, cfg.SourceRef)
	if err != nil {
		return Result{checkSource, Fail, fmt.Sprintf("source %q not readable or ref %q does not resolve: %v", cfg.Source, cfg.SourceRef, err)}
	}
	return Result{checkSource, Pass, fmt.Sprintf("resolved to %s", gitutil.ShortSHA(sha, 7))}
}

// checkDestinationWritable verifies that the destination answers
// ls-remote and, when a destination base is set, that the base ref
// exists there. It does not probe push permission; a destination that
// is readable but not writable passes this check.
func checkDestinationWritable(ctx context.Context, cfg *gitmuxconfig.RunConfig, deps Deps) Result {
	if _, err := deps.resolveSourceRef(ctx, cfg.Destination, "HEAD"); err != nil {
		return Result{checkDestination, Fail, fmt.Sprintf("destination %q not reachable: %v", cfg.Destination, err)}
	}
	if cfg.DestinationBase != "" {
		if _, err := deps.resolveSourceRef(ctx, cfg.Destination, cfg.DestinationBase); err != nil {
			return Result{checkDestination, Fail, fmt.Sprintf("destination base %q does not exist at %q", cfg.DestinationBase, cfg.Destination)}
		}
	}
	return Result{checkDestination, Pass, "destination reachable"}
}

func checkFilterBackendAvailable(ctx context.Context, cfg *gitmuxconfig.RunConfig, deps Deps) Result {
	switch cfg.FilterBackend {
	case gitmuxconfig.BackendLegacy:
		return Result{checkFilterBackend, Pass, "legacy backend always available"}

	case gitmuxconfig.BackendModern:
		if deps.ModernProbe == nil {
			return Result{checkFilterBackend, Fail, "modern backend requested but no availability probe configured"}
		}
		version, ok := deps.ModernProbe.Available(ctx)
		if !ok || !filter.VersionAtLeast(version, filter.MinModernVersion) {
			return Result{checkFilterBackend, Fail, fmt.Sprintf("modern filter tool missing or runtime below %s (found %q)", filter.MinModernVersion, version)}
		}
		return Result{checkFilterBackend, Pass, fmt.Sprintf("modern backend available (%s)", version)}

	default: // auto
		if deps.ModernProbe != nil {
			if version, ok := deps.ModernProbe.Available(ctx); ok && filter.VersionAtLeast(version, filter.MinModernVersion) {
				return Result{checkFilterBackend, Pass, fmt.Sprintf("auto selected modern backend (%s)", version)}
			}
		}
		return Result{checkFilterBackend, Warn, "will use legacy backend (modern tool missing or runtime too old)"}
	}
}

func checkIntegrationBranchAvailable(ctx context.Context, cfg *gitmuxconfig.RunConfig, deps Deps) Result {
	sha, err := deps.resolveSourceRef(ctx, cfg.Source, cfg.SourceRef)
	if err != nil {
		// Check 1 (source readable) already reports this failure; avoid
		// a duplicate confusing message here.
		return Result{checkBranchName, Warn, "skipped: source ref could not be resolved"}
	}

	name := workspace.NewIntegrationBranchName(sourceBranchHint(cfg), sha, cfg.Rebase.Strategy)
	exists, err := deps.remoteRefExists(ctx, cfg.Destination, name)
	if err != nil {
		return Result{checkBranchName, Warn, fmt.Sprintf("could not verify branch availability: %v", err)}
	}
	if exists {
		return Result{checkBranchName, Fail, fmt.Sprintf("integration branch %q already exists at destination", name)}
	}
	return Result{checkBranchName, Pass, fmt.Sprintf("%q available", name)}
}

// sourceBranchHint falls back to the literal source_ref string (a
// branch name in the common case) since preflight runs before clone
// and cannot resolve a symbolic branch name purely from ls-remote.
func sourceBranchHint(cfg *gitmuxconfig.RunConfig) string {
	if cfg.SourceRef != "" {
		return cfg.SourceRef
	}
	return ""
}

func checkTeamsResolvable(ctx context.Context, cfg *gitmuxconfig.RunConfig, deps Deps) Result {
	if len(cfg.TeamsToAdd) == 0 {
		return Result{checkTeams, Pass, "no teams requested"}
	}
	if deps.TeamResolver == nil {
		return Result{checkTeams, Fail, "teams requested but no team resolver configured"}
	}
	missing, err := deps.TeamResolver.TeamsExist(ctx, cfg.Destination, cfg.TeamsToAdd)
	if err != nil {
		return Result{checkTeams, Fail, fmt.Sprintf("failed to resolve teams: %v", err)}
	}
	if len(missing) > 0 {
		return Result{checkTeams, Fail, fmt.Sprintf("teams not found at destination: %v", missing)}
	}
	return Result{checkTeams, Pass, "all teams resolvable"}
}
