// Package rebase implements the Rebase Engine: after the Filter
// Backend rewrites the clone's history, it creates the integration
// branch, adds the destination as a remote, fetches its base, and
// rebases the rewritten history onto it with a selectable conflict
// strategy.
package rebase

import (
	"context"
	"fmt"

	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
	"github.com/gitmux/gitmux/pkg/gitutil"
	"github.com/gitmux/gitmux/pkg/gmlog"
	"github.com/gitmux/gitmux/pkg/workspace"
)

// DestinationRemote is the remote name the engine configures in the
// clone for fetching and later pushing to the destination.
const DestinationRemote = "destination"

// BaseChangedError is returned when destination_base moved between the
// start of the run and the rebase step; per spec.md section 4.6 this
// is detected and reported, never force-overwritten.
type BaseChangedError struct {
	Base      string
	StartSHA  string
	CurrentSHA string
}

func (e *BaseChangedError) Error() string {
	return fmt.Sprintf("destination base %q changed during the run (was %s, now %s)", e.Base, gitutil.ShortSHA(e.StartSHA, 7), gitutil.ShortSHA(e.CurrentSHA, 7))
}

// Options configures Run.
type Options struct {
	DestinationURL  string
	DestinationBase string

	// BaseSHAAtStart is the destination_base commit SHA resolved before
	// the rewrite began (captured by the pipeline with ls-remote right
	// after the workspace is created), used to detect upstream changes.
	BaseSHAAtStart string

	Rebase gitmuxconfig.RebaseOptions
	Logger *gmlog.Logger
}

// Run creates ws's integration branch at its current HEAD (the
// rewritten tip), adds/fetches the destination remote, checks the base
// hasn't moved, and rebases onto it.
func Run(ctx context.Context, ws *workspace.Workspace, branchName string, opts Options) error {
	if err := ws.SetIntegrationBranch(ctx, branchName); err != nil {
		return err
	}

	if err := ws.Client.SetRemote(ctx, DestinationRemote, opts.DestinationURL); err != nil {
		return fmt.Errorf("rebase engine: %w", err)
	}

	base := opts.DestinationBase
	if base == "" {
		base = "HEAD"
	}
	if err := ws.Client.Fetch(ctx, DestinationRemote, base); err != nil {
		return fmt.Errorf("rebase engine: %w", err)
	}

	fetchedRef := DestinationRemote + "/" + base
	if base == "HEAD" {
		fetchedRef = "FETCH_HEAD"
	}

	if opts.BaseSHAAtStart != "" {
		currentSHA, err := ws.Client.ResolveRef(ctx, fetchedRef)
		if err != nil {
			return fmt.Errorf("rebase engine: resolving current destination base: %w", err)
		}
		if currentSHA != opts.BaseSHAAtStart {
			return &BaseChangedError{Base: base, StartSHA: opts.BaseSHAAtStart, CurrentSHA: currentSHA}
		}
	}

	rebaseOpts := gitutil.RebaseOptions{
		Strategy:      strategyFlag(opts.Rebase.Strategy),
		DiffAlgorithm: opts.Rebase.DiffAlgorithm,
		ExtraOptions:  opts.Rebase.ExtraOptions,
		Interactive:   opts.Rebase.Interactive,
	}

	if err := ws.Client.Rebase(ctx, fetchedRef, rebaseOpts); err != nil {
		if conflict, ok := err.(*gitutil.RebaseConflict); ok {
			if opts.Logger != nil {
				opts.Logger.Error("rebase stopped on conflict", "workspace", ws.Root, "onto", conflict.Onto)
			}
			return conflict
		}
		return fmt.Errorf("rebase engine: %w", err)
	}

	return nil
}

// strategyFlag maps a RebaseStrategy to the recursive-merge strategy
// option git expects for -X. "theirs" and "ours" are passed straight
// through; "patience" maps to the patience diff strategy option
// instead of a merge-side preference.
func strategyFlag(s gitmuxconfig.RebaseStrategy) string {
	switch s {
	case gitmuxconfig.StrategyTheirs:
		return "theirs"
	case gitmuxconfig.StrategyOurs:
		return "ours"
	case gitmuxconfig.StrategyPatience:
		return "patience"
	default:
		return "theirs"
	}
}
