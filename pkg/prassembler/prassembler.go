// Package prassembler implements the PR Assembler: the final pipeline
// stage that pushes the rebased integration branch to the destination
// and, when requested, opens or updates a pull request describing the
// sync. Adapted from the teacher's githubpr.PRPublisher.Publish flow
// (create/checkout branch → push → find-or-create PR), generalized
// from a single-patch publisher into gitmux's multi-mapping,
// multi-commit sync.
package prassembler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/gitmux/gitmux/pkg/ghclient"
	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
	"github.com/gitmux/gitmux/pkg/gitutil"
	"github.com/gitmux/gitmux/pkg/gmlog"
	"github.com/gitmux/gitmux/pkg/rebase"
	"github.com/gitmux/gitmux/pkg/workspace"
)

// RemoteError wraps a failure reaching the destination remote (push,
// repo creation, team grant, or PR create/update), per spec.md section
// 7's RemoteError kind.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string { return fmt.Sprintf("remote error during %s: %v", e.Op, e.Err) }
func (e *RemoteError) Unwrap() error { return e.Err }

// Options configures Assemble.
type Options struct {
	SourceRepo *gitmuxconfig.RepoRef
	SourceRef  string // the resolved ref/branch named on the source
	SourceSHA  string // full source HEAD SHA, before rewrite

	DestinationRepo *gitmuxconfig.RepoRef
	DestinationBase string

	Mappings       []gitmuxconfig.PathMapping
	RebaseStrategy gitmuxconfig.RebaseStrategy

	SubmitPR        bool
	CreateIfMissing bool
	TeamsToAdd      []string

	Logger *gmlog.Logger
}

// PRAction reports what Assemble did with the pull request, if anything.
type PRAction string

const (
	PRActionNone    PRAction = "none"
	PRActionCreated PRAction = "created"
	PRActionUpdated PRAction = "updated"
)

// Result reports the outcome of the assembly step.
type Result struct {
	BranchName string
	Pushed     bool
	PRAction   PRAction
	PR         *ghclient.PRInfo
}

// Assemble pushes ws's integration branch (already created and
// rebased by pkg/rebase) to the destination remote and, if
// opts.SubmitPR, opens or updates the matching pull request. gh may be
// nil when opts.SubmitPR, opts.CreateIfMissing, and opts.TeamsToAdd are
// all unset, since no GitHub API call is needed in that case.
func Assemble(ctx context.Context, ws *workspace.Workspace, gh *ghclient.Client, branchName string, opts Options) (*Result, error) {
	result := &Result{BranchName: branchName, PRAction: PRActionNone}

	if opts.CreateIfMissing {
		if gh == nil {
			return nil, &RemoteError{Op: "create destination repository", Err: fmt.Errorf("create_if_missing set but no GitHub client configured")}
		}
		if err := ensureDestinationExists(ctx, gh, opts.DestinationRepo); err != nil {
			return nil, &RemoteError{Op: "create destination repository", Err: err}
		}
	}

	if err := pushIntegrationBranch(ctx, ws, gh, branchName); err != nil {
		return nil, &RemoteError{Op: "push integration branch", Err: err}
	}
	result.Pushed = true
	if opts.Logger != nil {
		opts.Logger.Info("pushed integration branch", "branch", branchName, "destination", opts.DestinationRepo.FullName())
	}

	if len(opts.TeamsToAdd) > 0 {
		if gh == nil {
			return result, &RemoteError{Op: "grant team access", Err: fmt.Errorf("teams_to_add set but no GitHub client configured")}
		}
		if err := grantTeams(ctx, gh, opts.DestinationRepo, opts.TeamsToAdd); err != nil {
			return result, &RemoteError{Op: "grant team access", Err: err}
		}
	}

	if !opts.SubmitPR {
		return result, nil
	}
	if gh == nil {
		return result, &RemoteError{Op: "open pull request", Err: fmt.Errorf("submit_pr set but no GitHub client configured")}
	}

	body := buildPRBody(opts)
	title := prTitle(opts)

	existing, err := gh.FindPullRequestByBranch(ctx, opts.DestinationRepo.Owner, opts.DestinationRepo.Project, branchName)
	if err != nil {
		return result, &RemoteError{Op: "find existing pull request", Err: err}
	}

	if existing != nil {
		pr, err := gh.UpdatePullRequest(ctx, opts.DestinationRepo.Owner, opts.DestinationRepo.Project, existing.Number, title, body)
		if err != nil {
			return result, &RemoteError{Op: "update pull request", Err: err}
		}
		result.PR = pr
		result.PRAction = PRActionUpdated
		if opts.Logger != nil {
			opts.Logger.Info("updated pull request", "number", pr.Number, "url", pr.URL)
		}
		return result, nil
	}

	base := opts.DestinationBase
	if base == "" {
		base = "main"
	}
	pr, err := gh.CreatePullRequest(ctx, opts.DestinationRepo.Owner, opts.DestinationRepo.Project, ghclient.NewPullRequest{
		Title: title,
		Head:  branchName,
		Base:  base,
		Body:  body,
	})
	if err != nil {
		return result, &RemoteError{Op: "create pull request", Err: err}
	}
	result.PR = pr
	result.PRAction = PRActionCreated
	if opts.Logger != nil {
		opts.Logger.Info("created pull request", "number", pr.Number, "url", pr.URL)
	}
	return result, nil
}

// pushIntegrationBranch pushes branchName to rebase.DestinationRemote.
// When gh carries a resolved GitHub token, the push goes through
// go-git with HTTP basic auth (token as password, per GitHub's
// convention) instead of relying on whatever credential helper the
// host git binary has configured — the same explicit-token-over-ambient-
// auth posture the teacher's publisher took for its push step. Runs
// with no GitHub integration configured (gh == nil, e.g. a plain
// mirror to a destination reachable over SSH) fall back to the
// workspace's git-CLI client.
func pushIntegrationBranch(ctx context.Context, ws *workspace.Workspace, gh *ghclient.Client, branchName string) error {
	if gh == nil || gh.Token() == "" {
		return ws.Client.Push(ctx, rebase.DestinationRemote, branchName, branchName, false)
	}

	repo, err := git.PlainOpen(ws.SourceClone)
	if err != nil {
		return fmt.Errorf("opening workspace repository for authenticated push: %w", err)
	}

	refspec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branchName, branchName))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: rebase.DestinationRemote,
		RefSpecs:   []config.RefSpec{refspec},
		Auth: &githttp.BasicAuth{
			Username: "x-access-token",
			Password: gh.Token(),
		},
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

func prTitle(opts Options) string {
	return fmt.Sprintf("Sync from %s@%s", opts.SourceRepo.FullName(), opts.SourceRef)
}

// buildPRBody assembles the PR description spec.md section 4.7 and 6
// require: source URL/ref/short SHA, destination URL/base branch, the
// full mapping table, and the rebase strategy used.
func buildPRBody(opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Synced from %s (`%s` at `%s`).\n\n", opts.SourceRepo.Raw, opts.SourceRef, gitutil.ShortSHA(opts.SourceSHA, 7))
	fmt.Fprintf(&b, "Destination: %s, base branch `%s`.\n\n", opts.DestinationRepo.Raw, destinationBaseOrDefault(opts.DestinationBase))

	b.WriteString("| Source path | Destination path |\n")
	b.WriteString("| --- | --- |\n")
	mappings := append([]gitmuxconfig.PathMapping(nil), opts.Mappings...)
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].Source < mappings[j].Source })
	for _, m := range mappings {
		fmt.Fprintf(&b, "| `%s` | `%s` |\n", displayPath(m.Source), displayPath(m.Destination))
	}

	strategy := opts.RebaseStrategy
	if strategy == "" {
		strategy = gitmuxconfig.DefaultRebaseStrategy
	}
	fmt.Fprintf(&b, "\nRebase strategy: `%s`.\n", strategy)

	return b.String()
}

func destinationBaseOrDefault(base string) string {
	if base == "" {
		return "main"
	}
	return base
}

func displayPath(p string) string {
	if p == "" {
		return "."
	}
	return p
}

func ensureDestinationExists(ctx context.Context, gh *ghclient.Client, repo *gitmuxconfig.RepoRef) error {
	exists, err := gh.RepositoryExists(ctx, repo.Owner, repo.Project)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return gh.CreateRepository(ctx, repo.Owner, repo.Project)
}

func grantTeams(ctx context.Context, gh *ghclient.Client, repo *gitmuxconfig.RepoRef, teams []string) error {
	for _, team := range teams {
		if err := gh.GrantTeamPush(ctx, repo.Owner, repo.Project, team); err != nil {
			return fmt.Errorf("granting %q push access: %w", team, err)
		}
	}
	return nil
}
