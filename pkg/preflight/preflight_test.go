package preflight

import (
	"context"
	"errors"
	"testing"

	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
)

type stubProbe struct {
	version string
	ok      bool
}

func (p stubProbe) Available(ctx context.Context) (string, bool) { return p.version, p.ok }

type stubTeamResolver struct {
	missing []string
	err     error
}

func (s stubTeamResolver) TeamsExist(ctx context.Context, destination string, teams []string) ([]string, error) {
	return s.missing, s.err
}

func baseConfig() *gitmuxconfig.RunConfig {
	return &gitmuxconfig.RunConfig{
		Source:      "git@github.com:acme/src.git",
		Destination: "git@github.com:acme/dst.git",
		Mappings:    []gitmuxconfig.PathMapping{{Source: "a", Destination: "b"}},
		Rebase:      gitmuxconfig.RebaseOptions{Strategy: gitmuxconfig.DefaultRebaseStrategy},
	}
}

func allPassDeps() Deps {
	return Deps{
		LookPath:         func(string) (string, error) { return "/usr/bin/tool", nil },
		ResolveSourceRef: func(ctx context.Context, repo, ref string) (string, error) { return "abc1234567890", nil },
		RemoteRefExists:  func(ctx context.Context, destination, branch string) (bool, error) { return false, nil },
	}
}

func TestRunAllPass(t *testing.T) {
	cfg := baseConfig()
	report, err := Run(context.Background(), cfg, allPassDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected all-pass report, got %+v", report)
	}
	if len(report) != 6 {
		t.Fatalf("expected 6 checks, got %d", len(report))
	}
	if report[0].Check != checkTools {
		t.Fatalf("check ordering broken: %+v", report[0])
	}
}

func TestRunFailsWhenGitMissing(t *testing.T) {
	deps := allPassDeps()
	deps.LookPath = func(string) (string, error) { return "", errors.New("not found") }
	report, err := Run(context.Background(), baseConfig(), deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OK() {
		t.Fatal("expected failure when git missing")
	}
	if report[0].Status != Fail {
		t.Fatalf("got %+v", report[0])
	}
}

func TestRunRequiresGhOnlyWhenNeeded(t *testing.T) {
	deps := allPassDeps()
	deps.LookPath = func(name string) (string, error) {
		if name == "gh" {
			return "", errors.New("not found")
		}
		return "/usr/bin/git", nil
	}
	cfg := baseConfig()
	report, err := Run(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report[0].Status != Pass {
		t.Fatalf("gh should not be required without submit_pr/create_if_missing: %+v", report[0])
	}

	cfg.SubmitPR = true
	report, err = Run(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report[0].Status != Fail {
		t.Fatalf("gh should be required with submit_pr: %+v", report[0])
	}
}

func TestFilterBackendAutoWarnsOnFallback(t *testing.T) {
	deps := allPassDeps()
	deps.ModernProbe = stubProbe{ok: false}
	cfg := baseConfig()
	cfg.FilterBackend = gitmuxconfig.BackendAuto
	report, err := Run(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report[3].Status != Warn {
		t.Fatalf("expected warn on auto fallback, got %+v", report[3])
	}
}

func TestFilterBackendModernFailsWhenUnavailable(t *testing.T) {
	deps := allPassDeps()
	deps.ModernProbe = stubProbe{ok: false}
	cfg := baseConfig()
	cfg.FilterBackend = gitmuxconfig.BackendModern
	report, err := Run(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report[3].Status != Fail {
		t.Fatalf("expected fail for explicit modern backend unavailable, got %+v", report[3])
	}
}

func TestIntegrationBranchFailsWhenAlreadyExists(t *testing.T) {
	deps := allPassDeps()
	deps.RemoteRefExists = func(ctx context.Context, destination, branch string) (bool, error) { return true, nil }
	report, err := Run(context.Background(), baseConfig(), deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report[4].Status != Fail {
		t.Fatalf("expected fail when branch already exists, got %+v", report[4])
	}
}

func TestTeamsResolvableSkippedWhenNoneRequested(t *testing.T) {
	report, err := Run(context.Background(), baseConfig(), allPassDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report[5].Status != Pass {
		t.Fatalf("expected pass with no teams requested, got %+v", report[5])
	}
}

func TestTeamsResolvableFailsOnMissingTeam(t *testing.T) {
	deps := allPassDeps()
	deps.TeamResolver = stubTeamResolver{missing: []string{"acme/missing-team"}}
	cfg := baseConfig()
	cfg.TeamsToAdd = []string{"acme/missing-team"}
	report, err := Run(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report[5].Status != Fail {
		t.Fatalf("expected fail for missing team, got %+v", report[5])
	}
}

func TestTeamsResolvableFailsWithoutResolverConfigured(t *testing.T) {
	deps := allPassDeps()
	cfg := baseConfig()
	cfg.TeamsToAdd = []string{"acme/some-team"}
	report, err := Run(context.Background(), cfg, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report[5].Status != Fail {
		t.Fatalf("expected fail without a configured resolver, got %+v", report[5])
	}
}
