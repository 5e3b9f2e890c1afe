// Package legacy implements the Filter Backend on top of git's
// built-in filter-branch rewriting primitive (--subdirectory-filter,
// --index-filter, --env-filter, --msg-filter). It favors availability
// over speed: every git installation this tool targets ships
// filter-branch, unlike the modern backend's external dependency.
package legacy

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/gitmux/gitmux/pkg/filter"
	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
)

// Name identifies this backend in logs and BackendError messages.
const Name = "legacy"

// Backend is the legacy Filter Backend implementation.
type Backend struct{}

// New constructs a legacy Backend.
func New() *Backend { return &Backend{} }

// Name implements filter.Backend.
func (b *Backend) Name() string { return Name }

// RewriteSingle implements filter.Backend.
func (b *Backend) RewriteSingle(ctx context.Context, dir string, opts filter.RewriteOptions, source, dest string, revListPaths []string) error {
	mappings := []gitmuxconfig.PathMapping{{Source: source, Destination: dest}}
	if err := b.run(ctx, dir, opts, mappings, revListPaths); err != nil {
		return filter.NewBackendError(Name, 0, err)
	}
	return nil
}

// RewriteMultipath implements filter.Backend.
func (b *Backend) RewriteMultipath(ctx context.Context, dir string, opts filter.RewriteOptions, mappings []gitmuxconfig.PathMapping) error {
	if err := b.run(ctx, dir, opts, mappings, nil); err != nil {
		// filter-branch processes all mappings in one pass; a failure
		// cannot be attributed to a single mapping index.
		return filter.NewBackendError(Name, -1, err)
	}
	return nil
}

func (b *Backend) run(ctx context.Context, dir string, opts filter.RewriteOptions, mappings []gitmuxconfig.PathMapping, revListPaths []string) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving own executable path for message filter: %w", err)
	}

	args := []string{"filter-branch", "-f"}

	if len(mappings) == 1 && mappings[0].Destination == "" && len(revListPaths) == 0 {
		args = append(args, "--subdirectory-filter", mappings[0].Source)
	} else {
		args = append(args, "--index-filter", indexFilterScript)
	}

	if opts.AuthorOverride.Name != "" || opts.CommitterOverride.Name != "" {
		args = append(args, "--env-filter", envFilterScript)
	}

	if opts.CoauthorAction != "" && opts.CoauthorAction != gitmuxconfig.CoauthorKeep {
		args = append(args, "--msg-filter", fmt.Sprintf("%s __filter-msg --coauthor-action=%s", shellQuote(exePath), string(opts.CoauthorAction)))
	}

	args = append(args, "--prune-empty", "--", "HEAD")

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), buildMappingEnv(mappings, revListPaths)...)
	cmd.Env = append(cmd.Env, identityEnv(opts)...)

	out, runErr := cmd.CombinedOutput()
	if runErr != nil {
		return fmt.Errorf("git filter-branch failed: %w: %s", runErr, strings.TrimSpace(string(out)))
	}
	return nil
}

func identityEnv(opts filter.RewriteOptions) []string {
	var env []string
	if opts.AuthorOverride.Name != "" {
		env = append(env, "GITMUX_AUTHOR_NAME="+opts.AuthorOverride.Name, "GITMUX_AUTHOR_EMAIL="+opts.AuthorOverride.Email)
	}
	if opts.CommitterOverride.Name != "" {
		env = append(env, "GITMUX_COMMITTER_NAME="+opts.CommitterOverride.Name, "GITMUX_COMMITTER_EMAIL="+opts.CommitterOverride.Email)
	}
	return env
}

// buildMappingEnv passes mapping and whitelist data into the
// filter-branch subshell through environment variables rather than by
// interpolating path text into the script string itself (spec.md
// section 7's process-global/quoting-fragility concern): the script is
// a fixed constant, and caller-supplied paths travel only as data.
func buildMappingEnv(mappings []gitmuxconfig.PathMapping, revListPaths []string) []string {
	var lines []string
	for _, m := range mappings {
		lines = append(lines, m.Source+"\t"+m.Destination)
	}
	env := []string{"GITMUX_MAPPINGS=" + strings.Join(lines, "\n")}
	if len(revListPaths) > 0 {
		env = append(env, "GITMUX_REVLIST_PATHS="+strings.Join(revListPaths, "\n"))
	}
	return env
}

// shellQuote single-quotes s for safe inclusion in a POSIX shell
// command line, escaping embedded single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// envFilterScript applies identity overrides passed via GITMUX_* env
// vars, leaving GIT_AUTHOR_DATE/GIT_COMMITTER_DATE untouched so the
// original timestamp survives the rewrite.
const envFilterScript = `
if [ -n "$GITMUX_AUTHOR_NAME" ]; then
  export GIT_AUTHOR_NAME="$GITMUX_AUTHOR_NAME"
  export GIT_AUTHOR_EMAIL="$GITMUX_AUTHOR_EMAIL"
fi
if [ -n "$GITMUX_COMMITTER_NAME" ]; then
  export GIT_COMMITTER_NAME="$GITMUX_COMMITTER_NAME"
  export GIT_COMMITTER_EMAIL="$GITMUX_COMMITTER_EMAIL"
fi
`

// indexFilterScript rewrites the index for a commit: every entry is
// tested against each mapping's source path (the first matching
// mapping in list order wins; source paths are not checked for
// overlap) and, if within rev-list whitelist when one is set,
// re-emitted at its mapped destination path. Entries matching no
// mapping are dropped.
const indexFilterScript = `
git ls-files -s | while IFS=$'\t' read -r meta path; do
  if [ -n "$GITMUX_REVLIST_PATHS" ]; then
    keep=0
    while IFS= read -r wl; do
      [ -z "$wl" ] && continue
      case "$path" in
        "$wl"|"$wl"/*) keep=1 ;;
      esac
    done <<< "$GITMUX_REVLIST_PATHS"
    [ "$keep" -eq 0 ] && continue
  fi

  newpath=""
  while IFS=$'\t' read -r src dst; do
    [ -z "$src" ] && [ -z "$dst" ] && continue
    rel=""
    matched=0
    if [ -z "$src" ]; then
      rel="$path"
      matched=1
    else
      case "$path" in
        "$src"/*) rel="${path#$src/}"; matched=1 ;;
        "$src") rel=""; matched=1 ;;
      esac
    fi
    [ "$matched" -eq 0 ] && continue
    if [ -n "$dst" ]; then
      if [ -n "$rel" ]; then newpath="$dst/$rel"; else newpath="$dst"; fi
    else
      newpath="$rel"
    fi
    break
  done <<< "$GITMUX_MAPPINGS"

  [ -n "$newpath" ] && printf '%s\t%s\n' "$meta" "$newpath"
done | GIT_INDEX_FILE="$GIT_INDEX_FILE.new" git update-index --index-info &&
mv "$GIT_INDEX_FILE.new" "$GIT_INDEX_FILE"
`
