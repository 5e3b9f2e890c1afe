// Package workspace manages the ephemeral scratch directory a run
// clones the source repository into, rewrites in place, and (unless
// keep_workspace is set) destroys on exit. Adapted from the teacher's
// pkg/workspace, generalized from "prepare a container workspace" to
// "prepare a rewrite workspace": a single clone used for the lifetime
// of one run, even for multi-mapping runs (spec.md section 4.2).
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
	"github.com/gitmux/gitmux/pkg/gitutil"
	"github.com/gitmux/gitmux/pkg/gmlog"
)

// Workspace is the scratch directory and the git client bound to the
// source clone inside it. It mirrors spec.md section 3's Workspace
// record: {root, source_clone, original_head_ref, integration_branch,
// created_at}.
type Workspace struct {
	// Root is the scratch directory's absolute path.
	Root string

	// SourceClone is the path to the cloned source repo, the "source"
	// subdirectory of Root (a single clone per run).
	SourceClone string

	// OriginalHeadRef is the commit SHA the source was at immediately
	// after clone/checkout, before any rewrite.
	OriginalHeadRef string

	// OriginalBranch is the symbolic branch name resolved at clone
	// time, used to derive the integration branch name. Empty if HEAD
	// was detached (a bare SHA or tag was checked out).
	OriginalBranch string

	// IntegrationBranch is the deterministic branch name the rewrite
	// and rebase stages operate on and push.
	IntegrationBranch string

	// CreatedAt records when the workspace was created, for
	// diagnostics.
	CreatedAt string

	// Client is the git client bound to SourceClone.
	Client *gitutil.Client

	keep bool
	log  *gmlog.Logger
}

// Options configures Create.
type Options struct {
	Source    string
	SourceRef string
	Keep      bool
	Logger    *gmlog.Logger
}

// Create makes a unique scratch directory, clones Source into it,
// checks out SourceRef (or HEAD), and captures the resulting HEAD SHA
// and branch name. The caller must call Teardown (directly, or via a
// deferred call) exactly once.
func Create(ctx context.Context, opts Options, createdAt string) (*Workspace, error) {
	root, err := os.MkdirTemp("", "gitmux-workspace-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	cloneDir := filepath.Join(root, "source")
	headSHA, err := gitutil.Clone(ctx, gitutil.CloneOptions{
		Source: opts.Source,
		Dest:   cloneDir,
		Ref:    opts.SourceRef,
		Local:  isLocalPath(opts.Source),
	})
	if err != nil {
		os.RemoveAll(root)
		return nil, fmt.Errorf("failed to clone source into workspace: %w", err)
	}

	client := gitutil.NewClient(cloneDir)
	branch, err := client.CurrentBranch(ctx)
	if err != nil {
		// A detached HEAD (bare SHA/tag checkout) is not an error; the
		// integration branch name falls back to a fixed token.
		branch = ""
	}

	ws := &Workspace{
		Root:              root,
		SourceClone:       cloneDir,
		OriginalHeadRef:   headSHA,
		OriginalBranch:    branch,
		IntegrationBranch: "",
		CreatedAt:         createdAt,
		Client:            client,
		keep:              opts.Keep,
		log:               opts.Logger,
	}
	return ws, nil
}

// SetIntegrationBranch records the deterministic branch name computed
// by NewIntegrationBranchName, and creates/checks it out in the clone.
func (w *Workspace) SetIntegrationBranch(ctx context.Context, name string) error {
	if err := w.Client.CreateBranch(ctx, name); err != nil {
		return fmt.Errorf("failed to create integration branch %q: %w", name, err)
	}
	w.IntegrationBranch = name
	return nil
}

// Teardown removes the scratch directory unless the workspace was
// created with Keep set, in which case it logs the retained path. It
// is safe to call from any termination path, including on error and on
// interrupt (spec.md section 4.2: "removed... in all termination paths
// including failure and user cancellation; on interrupt the path is
// printed to the operator log").
func (w *Workspace) Teardown() error {
	if w.keep {
		if w.log != nil {
			w.log.Info("keeping workspace", "path", w.Root)
		}
		return nil
	}
	if err := os.RemoveAll(w.Root); err != nil {
		return fmt.Errorf("failed to remove workspace %q: %w", w.Root, err)
	}
	return nil
}

// ReportInterrupted logs the workspace path without removing it, for
// use from a signal handler that is about to terminate the process;
// the deferred Teardown in the normal control-flow path still decides
// whether to actually remove it.
func (w *Workspace) ReportInterrupted() {
	if w.log != nil {
		w.log.Warn("run interrupted, workspace left in place for inspection", "path", w.Root)
	}
}

// isLocalPath reports whether ref looks like a local filesystem path
// rather than an SSH/HTTPS remote, so Clone can pass --local when it's
// safe to. It is looser than gitmuxconfig.ParseRepoRef's classification:
// any leading "." and a leading "~" also count as local.
func isLocalPath(ref string) bool {
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "git@") {
		return false
	}
	return strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, ".") || strings.HasPrefix(ref, "~")
}

// NewIntegrationBranchName derives the deterministic integration branch
// name per spec.md section 3: "update-from-{base_source_branch}-
// {short_sha}[-rebase-strategy-{strategy}]", with the rebase suffix
// omitted for the default strategy.
func NewIntegrationBranchName(baseSourceBranch, headSHA string, strategy gitmuxconfig.RebaseStrategy) string {
	branch := baseSourceBranch
	if branch == "" {
		branch = "detached"
	}
	name := fmt.Sprintf("update-from-%s-%s", branch, gitutil.ShortSHA(headSHA, 7))
	if strategy != "" && strategy != gitmuxconfig.DefaultRebaseStrategy {
		name += "-rebase-strategy-" + string(strategy)
	}
	return name
}
