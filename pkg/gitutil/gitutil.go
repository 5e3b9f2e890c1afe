// Package gitutil provides a shared utility layer for git operations,
// used by the workspace manager, the rebase engine, the preflight
// validator, and the PR assembler. It wraps the system git binary,
// constructing argv lists structurally and never shell-interpolating
// caller-supplied paths or identities.
package gitutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Client represents a git client bound to a single working directory.
type Client struct {
	// Dir is the working directory of the git repository.
	Dir string

	// Quiet suppresses non-essential output from git commands.
	Quiet bool
}

// NewClient creates a new git client for the given directory.
func NewClient(dir string) *Client {
	return &Client{Dir: dir, Quiet: true}
}

// execCommand executes a git command in c.Dir with structural argv
// construction, returning combined stdout+stderr on failure for
// diagnostics.
func (c *Client) execCommand(ctx context.Context, args ...string) ([]byte, error) {
	cmdArgs := append([]string{"-C", c.Dir}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// ExecCommand is a safe wrapper allowing callers to run arbitrary git
// subcommands with a structural argv (never shell-interpolated).
func (c *Client) ExecCommand(ctx context.Context, args ...string) ([]byte, error) {
	return c.execCommand(ctx, args...)
}

func (c *Client) quietFlag() []string {
	if c.Quiet {
		return []string{"--quiet"}
	}
	return nil
}

// CloneOptions configures Clone.
type CloneOptions struct {
	Source     string
	Dest       string
	Ref        string
	Local      bool
	Submodules bool
}

// Clone clones Source into Dest, checking out Ref (or HEAD) afterward.
// It uses --no-checkout first so a failed checkout doesn't leave a
// partially-populated working tree in an ambiguous state.
func Clone(ctx context.Context, opts CloneOptions) (string, error) {
	args := []string{"clone", "--quiet", "--no-checkout"}
	if opts.Local {
		args = append(args, "--local")
	}
	args = append(args, opts.Source, opts.Dest)

	cmd := exec.CommandContext(ctx, "git", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git clone failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	client := NewClient(opts.Dest)
	ref := opts.Ref
	if ref == "" {
		ref = "HEAD"
	}
	if err := client.Checkout(ctx, ref); err != nil {
		return "", fmt.Errorf("checkout of %q failed after clone: %w", ref, err)
	}

	if opts.Submodules {
		if _, err := client.execCommand(ctx, "submodule", "update", "--init", "--recursive", "--quiet"); err != nil {
			return "", fmt.Errorf("submodule init failed: %w", err)
		}
	}

	return client.HeadSHA(ctx)
}

// LsRemote resolves ref against repo without cloning it, returning the
// commit SHA it points to. Used by preflight to check source
// readability and resolve the commit the integration branch name will
// be derived from, before any clone exists.
func LsRemote(ctx context.Context, repo, ref string) (string, error) {
	if ref == "" || ref == "HEAD" {
		out, err := exec.CommandContext(ctx, "git", "ls-remote", "--symref", repo, "HEAD").CombinedOutput()
		if err != nil {
			return "", fmt.Errorf("git ls-remote %s failed: %w: %s", repo, err, strings.TrimSpace(string(out)))
		}
		return firstSHA(string(out))
	}

	out, err := exec.CommandContext(ctx, "git", "ls-remote", repo, ref).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git ls-remote %s %s failed: %w: %s", repo, ref, err, strings.TrimSpace(string(out)))
	}
	sha, err := firstSHA(string(out))
	if err == nil {
		return sha, nil
	}

	// ref may be a full commit SHA rather than a branch/tag name, which
	// ls-remote cannot resolve directly; accept it if it looks like one.
	if looksLikeSHA(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("ref %q not found at %s", ref, repo)
}

func firstSHA(lsRemoteOutput string) (string, error) {
	for _, line := range strings.Split(lsRemoteOutput, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "ref:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return fields[0], nil
		}
	}
	return "", fmt.Errorf("no ref found in ls-remote output")
}

func looksLikeSHA(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}

// Checkout checks out a reference (branch, tag, or commit).
func (c *Client) Checkout(ctx context.Context, ref string) error {
	args := append([]string{"checkout"}, c.quietFlag()...)
	args = append(args, ref)
	_, err := c.execCommand(ctx, args...)
	return err
}

// CreateBranch creates and checks out a new branch at the current HEAD.
func (c *Client) CreateBranch(ctx context.Context, name string) error {
	args := append([]string{"checkout"}, c.quietFlag()...)
	args = append(args, "-b", name)
	_, err := c.execCommand(ctx, args...)
	return err
}

// HeadSHA returns the full SHA of the current HEAD.
func (c *Client) HeadSHA(ctx context.Context) (string, error) {
	out, err := c.execCommand(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD SHA: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ResolveRef resolves ref (branch, tag, or SHA) to a full commit SHA,
// failing if it does not exist.
func (c *Client) ResolveRef(ctx context.Context, ref string) (string, error) {
	out, err := c.execCommand(ctx, "rev-parse", "--verify", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("failed to resolve ref %q: %w", ref, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ShortSHA truncates a full SHA to the given length (minimum 7, per
// the integration branch contract in spec.md section 6).
func ShortSHA(sha string, length int) string {
	if length < 7 {
		length = 7
	}
	if len(sha) <= length {
		return sha
	}
	return sha[:length]
}

// CurrentBranch returns the symbolic branch name of HEAD, or an error
// if HEAD is detached.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.execCommand(ctx, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("HEAD is detached or branch name unavailable: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// SetRemote ensures a remote with the given name points at url,
// creating or updating it as needed.
func (c *Client) SetRemote(ctx context.Context, name, url string) error {
	out, err := c.execCommand(ctx, "remote")
	if err != nil {
		return fmt.Errorf("failed to list remotes: %w", err)
	}

	exists := false
	for _, remote := range strings.Fields(string(out)) {
		if remote == name {
			exists = true
			break
		}
	}

	if exists {
		_, err = c.execCommand(ctx, "remote", "set-url", name, url)
	} else {
		_, err = c.execCommand(ctx, "remote", "add", name, url)
	}
	if err != nil {
		return fmt.Errorf("failed to configure remote %s: %w", name, err)
	}
	return nil
}

// Fetch fetches refspecs from the given remote.
func (c *Client) Fetch(ctx context.Context, remote string, refspecs ...string) error {
	args := append([]string{"fetch", "--quiet", remote}, refspecs...)
	_, err := c.execCommand(ctx, args...)
	if err != nil {
		return fmt.Errorf("fetch from %s failed: %w", remote, err)
	}
	return nil
}

// Push pushes a local branch to remote, optionally forcing the update.
func (c *Client) Push(ctx context.Context, remote, localBranch, remoteBranch string, force bool) error {
	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	refspec := localBranch
	if remoteBranch != "" && remoteBranch != localBranch {
		refspec = localBranch + ":" + remoteBranch
	}
	args = append(args, remote, refspec)
	_, err := c.execCommand(ctx, args...)
	if err != nil {
		return fmt.Errorf("push to %s failed: %w", remote, err)
	}
	return nil
}

// RemoteRefExists checks whether refName exists on remote, without
// mutating local state (used by preflight to check integration-branch
// name availability).
func (c *Client) RemoteRefExists(ctx context.Context, remote, refName string) (bool, error) {
	out, err := c.execCommand(ctx, "ls-remote", "--heads", remote, refName)
	if err != nil {
		return false, fmt.Errorf("ls-remote against %s failed: %w", remote, err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// IsRebaseInProgress reports whether the working directory has an
// interrupted rebase (either the classic or interactive machinery).
func (c *Client) IsRebaseInProgress() bool {
	for _, sub := range []string{"rebase-merge", "rebase-apply"} {
		if info, err := os.Stat(c.Dir + "/.git/" + sub); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// RebaseAbort aborts an in-progress rebase.
func (c *Client) RebaseAbort(ctx context.Context) error {
	_, err := c.execCommand(ctx, "rebase", "--abort")
	return err
}

// FileStatus represents the status of a single file in the working tree.
type FileStatus struct {
	Path       string
	Status     string
	StatusCode string
}

// WorkingTreeStatus returns git status --porcelain parsed into
// FileStatus entries, used to produce conflict diagnostics.
func (c *Client) WorkingTreeStatus(ctx context.Context) ([]FileStatus, error) {
	out, err := c.execCommand(ctx, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to get working tree status: %w", err)
	}
	return parseFileStatus(string(out)), nil
}

func parseFileStatus(output string) []FileStatus {
	var statuses []FileStatus
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || len(line) < 3 {
			continue
		}
		code := line[0:2]
		path := line[3:]
		if idx := strings.Index(path, " -> "); idx != -1 {
			path = path[idx+4:]
		}
		statuses = append(statuses, FileStatus{Path: path, Status: decodeStatus(code), StatusCode: code})
	}
	return statuses
}

func decodeStatus(code string) string {
	switch code {
	case "UU":
		return "both modified (conflict)"
	case "AA":
		return "both added (conflict)"
	case "DD":
		return "both deleted (conflict)"
	case "AU":
		return "added by us, unmerged"
	case "UA":
		return "added by them, unmerged"
	case "DU":
		return "deleted by us, unmerged"
	case "UD":
		return "deleted by them, unmerged"
	case " M":
		return "modified (worktree)"
	case "M ":
		return "modified (index)"
	case "A ":
		return "added (index)"
	case "??":
		return "untracked"
	default:
		return fmt.Sprintf("status_%s", code)
	}
}

// DiagnoseConflicts renders a human-readable summary of unmerged files,
// used by RebaseConflict to give an operator enough information
// to finish a conflicted rebase by hand.
func (c *Client) DiagnoseConflicts(ctx context.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "workspace: %s\n", c.Dir)

	statuses, err := c.WorkingTreeStatus(ctx)
	if err != nil {
		fmt.Fprintf(&b, "failed to read working tree status: %v\n", err)
		return b.String()
	}

	fmt.Fprintf(&b, "%d file(s) with conflict or pending state:\n", len(statuses))
	for _, s := range statuses {
		fmt.Fprintf(&b, "  - %s: %s\n", s.Path, s.Status)
	}
	return b.String()
}
