package gitutil

import (
	"context"
	"fmt"
)

// RebaseOptions mirrors gitmuxconfig.RebaseOptions without importing
// it, so gitutil stays a leaf package with no dependency on the
// config model.
type RebaseOptions struct {
	// Strategy selects the conflict-resolution side: "theirs", "ours",
	// or "patience" (all three are passed as -X strategy options; the
	// recursive merge strategy supports all of them).
	Strategy string

	// DiffAlgorithm is passed through as a strategy option
	// (-X diff-algorithm=<value>).
	DiffAlgorithm string

	// ExtraOptions are appended verbatim after the built-in options.
	ExtraOptions []string

	// Interactive requests an interactive rebase; the caller is
	// responsible for handling the resulting pause.
	Interactive bool
}

// RebaseConflict indicates the rebase stopped because of an
// unresolved conflict, distinct from any other nonzero exit.
type RebaseConflict struct {
	Onto string
	Diag string
}

func (e *RebaseConflict) Error() string {
	return fmt.Sprintf("rebase onto %s stopped on conflict", e.Onto)
}

// Rebase rebases the current branch onto onto using the given
// options. On a conflict it returns *RebaseConflict (with diagnostic
// output already attached) rather than aborting, so the caller can
// decide whether to report the workspace path or abort it.
func (c *Client) Rebase(ctx context.Context, onto string, opts RebaseOptions) error {
	args := []string{"rebase"}

	if opts.Strategy != "" {
		args = append(args, "-X", opts.Strategy)
	}
	if opts.DiffAlgorithm != "" {
		args = append(args, "-X", "diff-algorithm="+opts.DiffAlgorithm)
	}
	args = append(args, opts.ExtraOptions...)
	if opts.Interactive {
		args = append(args, "--interactive")
	}
	args = append(args, onto)

	_, err := c.execCommand(ctx, args...)
	if err == nil {
		return nil
	}

	if c.IsRebaseInProgress() {
		return &RebaseConflict{Onto: onto, Diag: c.DiagnoseConflicts(ctx)}
	}
	return fmt.Errorf("rebase onto %s failed: %w", onto, err)
}
