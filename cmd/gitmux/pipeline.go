package main

import (
	"context"
	"fmt"

	"github.com/gitmux/gitmux/pkg/filter"
	"github.com/gitmux/gitmux/pkg/filter/legacy"
	"github.com/gitmux/gitmux/pkg/filter/modern"
	"github.com/gitmux/gitmux/pkg/ghclient"
	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
	"github.com/gitmux/gitmux/pkg/gitutil"
	"github.com/gitmux/gitmux/pkg/gmlog"
	"github.com/gitmux/gitmux/pkg/planner"
	"github.com/gitmux/gitmux/pkg/prassembler"
	"github.com/gitmux/gitmux/pkg/preflight"
	"github.com/gitmux/gitmux/pkg/rebase"
	"github.com/gitmux/gitmux/pkg/workspace"
)

// preflightFailure reports exit code 3 (spec.md section 6) while still
// carrying the report that was already printed.
type preflightFailure struct {
	report preflight.Report
}

func (e *preflightFailure) Error() string {
	return "preflight failed; see report above"
}

func isConfigError(err error) bool {
	_, ok := err.(*gitmuxconfig.ConfigError)
	return ok
}

func isPreflightError(err error) bool {
	_, ok := err.(*preflightFailure)
	return ok
}

// isRemoteServiceError covers failures reaching an external service
// that is not the destination git push itself: PR find/create/update,
// repo creation, and team grants (any *prassembler.RemoteError whose Op
// is not the push). Other errors, including an unavailable modern
// backend, are not classified here.
func isRemoteServiceError(err error) bool {
	if remoteErr, ok := err.(*prassembler.RemoteError); ok {
		return remoteErr.Op != "push integration branch"
	}
	return false
}

func formatReport(report preflight.Report) []string {
	lines := make([]string, 0, len(report)+1)
	lines = append(lines, "preflight:")
	for _, r := range report {
		lines = append(lines, fmt.Sprintf("  [%s] %s: %s", r.Status, r.Check, r.Message))
	}
	return lines
}

func runPreflight(ctx context.Context, cfg *gitmuxconfig.RunConfig, logger *gmlog.Logger) (preflight.Report, error) {
	if cfg.SkipPreflight {
		return nil, nil
	}

	var teamResolver preflight.TeamResolver
	if len(cfg.TeamsToAdd) > 0 {
		if gh, err := ghclient.NewClientFromEnv(); err == nil {
			teamResolver = gh
		}
	}

	deps := preflight.Deps{
		ModernProbe:  modernProbe{logger: logger},
		TeamResolver: teamResolver,
	}

	return preflight.Run(ctx, cfg, deps)
}

// modernProbe adapts the modern filter backend's Available method to
// filter.AvailabilityProbe without constructing a full Backend value
// per call.
type modernProbe struct {
	logger *gmlog.Logger
}

func (p modernProbe) Available(ctx context.Context) (string, bool) {
	return modern.New().Available(ctx)
}

func runPipeline(ctx context.Context, cfg *gitmuxconfig.RunConfig, logger *gmlog.Logger, createdAt string) error {
	sourceRepo, err := gitmuxconfig.ParseRepoRef(cfg.Source)
	if err != nil {
		return err
	}
	destRepo, err := gitmuxconfig.ParseRepoRef(cfg.Destination)
	if err != nil {
		return err
	}

	ws, err := workspace.Create(ctx, workspace.Options{
		Source:    cfg.Source,
		SourceRef: cfg.SourceRef,
		Keep:      cfg.KeepWorkspace,
		Logger:    logger,
	}, createdAt)
	if err != nil {
		return err
	}
	defer func() {
		if tErr := ws.Teardown(); tErr != nil {
			logger.Warn("workspace teardown failed", "error", tErr.Error())
		}
	}()

	logger.Info("workspace ready", "path", ws.Root, "head", gitutil.ShortSHA(ws.OriginalHeadRef, 7))

	baseRef := cfg.DestinationBase
	if baseRef == "" {
		baseRef = "HEAD"
	}
	baseSHAAtStart, err := gitutil.LsRemote(ctx, cfg.Destination, baseRef)
	if err != nil {
		return fmt.Errorf("resolving destination base before rewrite: %w", err)
	}

	plan := planner.Build(cfg)

	resolver := &filter.Resolver{
		Legacy:      legacy.New(),
		Modern:      &modern.Backend{Executable: modern.DefaultExecutable, Logger: logger},
		ModernProbe: modernProbe{logger: logger},
		Logger:      logger,
	}
	backend, err := resolver.Select(ctx, cfg.FilterBackend)
	if err != nil {
		return err
	}
	logger.Info("filter backend selected", "backend", backend.Name())

	rewriteOpts := filter.RewriteOptions{
		AuthorOverride:    cfg.AuthorOverride,
		CommitterOverride: cfg.CommitterOverride,
		CoauthorAction:    cfg.CoauthorAction,
	}

	if plan.Mode == planner.ModeSingle {
		m := plan.Single()
		err = backend.RewriteSingle(ctx, ws.SourceClone, rewriteOpts, m.Source, m.Destination, plan.RevListPaths)
	} else {
		err = backend.RewriteMultipath(ctx, ws.SourceClone, rewriteOpts, plan.Mappings)
	}
	if err != nil {
		return err
	}
	logger.Info("history rewritten")

	branchName := workspace.NewIntegrationBranchName(ws.OriginalBranch, ws.OriginalHeadRef, cfg.Rebase.Strategy)

	destURL := cfg.Destination
	if err := rebase.Run(ctx, ws, branchName, rebase.Options{
		DestinationURL:  destURL,
		DestinationBase: cfg.DestinationBase,
		BaseSHAAtStart:  baseSHAAtStart,
		Rebase:          cfg.Rebase,
		Logger:          logger,
	}); err != nil {
		return err
	}
	logger.Info("rebased onto destination base", "branch", branchName, "base", cfg.DestinationBase)

	var gh *ghclient.Client
	if cfg.SubmitPR || cfg.CreateIfMissing || len(cfg.TeamsToAdd) > 0 {
		gh, err = ghclient.NewClientFromEnv()
		if err != nil {
			return err
		}
	}

	result, err := prassembler.Assemble(ctx, ws, gh, branchName, prassembler.Options{
		SourceRepo:      sourceRepo,
		SourceRef:       displayOrDefault(cfg.SourceRef, ws.OriginalBranch),
		SourceSHA:       ws.OriginalHeadRef,
		DestinationRepo: destRepo,
		DestinationBase: cfg.DestinationBase,
		Mappings:        cfg.Mappings,
		RebaseStrategy:  cfg.Rebase.Strategy,
		SubmitPR:        cfg.SubmitPR,
		CreateIfMissing: cfg.CreateIfMissing,
		TeamsToAdd:      cfg.TeamsToAdd,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	switch result.PRAction {
	case prassembler.PRActionCreated:
		fmt.Printf("opened pull request #%d: %s\n", result.PR.Number, result.PR.URL)
	case prassembler.PRActionUpdated:
		fmt.Printf("updated pull request #%d: %s\n", result.PR.Number, result.PR.URL)
	default:
		fmt.Printf("pushed branch %s to %s\n", branchName, cfg.Destination)
	}

	return nil
}
