// Package modern implements the Filter Backend on top of the external
// single-pass history rewriter (git-filter-repo), trading the legacy
// backend's universal availability for much higher throughput on large
// histories.
package modern

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/gitmux/gitmux/pkg/filter"
	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
	"github.com/gitmux/gitmux/pkg/gmlog"
)

// Name identifies this backend in logs and BackendError messages.
const Name = "modern"

// DefaultExecutable is the binary name this backend looks for on PATH.
const DefaultExecutable = "git-filter-repo"

// Backend is the modern Filter Backend implementation. It also
// satisfies filter.AvailabilityProbe so Resolver can probe it without
// importing backend internals.
type Backend struct {
	// Executable overrides the binary name/path; empty uses DefaultExecutable.
	Executable string

	Logger *gmlog.Logger
}

// New constructs a modern Backend.
func New() *Backend { return &Backend{Executable: DefaultExecutable} }

func (b *Backend) exe() string {
	if b.Executable != "" {
		return b.Executable
	}
	return DefaultExecutable
}

// Name implements filter.Backend.
func (b *Backend) Name() string { return Name }

// Available implements filter.AvailabilityProbe: it shells out to
// `--version` and reports whether the binary exists and what version
// it reports.
func (b *Backend) Available(ctx context.Context) (string, bool) {
	out, err := exec.CommandContext(ctx, b.exe(), "--version").Output()
	if err != nil {
		return "", false
	}
	return parseVersion(string(out)), true
}

func parseVersion(out string) string {
	for _, field := range strings.Fields(out) {
		if field != "" && field[0] >= '0' && field[0] <= '9' {
			return field
		}
	}
	return strings.TrimSpace(out)
}

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
		return filter.NewBackendError(Name, -1, err)
	}
	return nil
}

func (b *Backend) run(ctx context.Context, dir string, opts filter.RewriteOptions, mappings []gitmuxconfig.PathMapping, revListPaths []string) error {
	args := []string{"--force", "--quiet"}
	args = append(args, pathArgs(mappings, revListPaths)...)

	if opts.AuthorOverride.Name != "" || opts.CommitterOverride.Name != "" {
		if opts.AuthorOverride.Name != "" && opts.CommitterOverride.Name != "" && b.Logger != nil {
			b.Logger.Warn("modern filter backend applies one identity per pass; author override will also be used as committer")
		}
		mailmapPath, cleanup, err := writeMailmap(opts)
		if err != nil {
			return fmt.Errorf("preparing mailmap: %w", err)
		}
		defer cleanup()
		args = append(args, "--mailmap", mailmapPath)
	}

	if opts.CoauthorAction != "" && opts.CoauthorAction != gitmuxconfig.CoauthorKeep {
		args = append(args, "--message-callback", messageCallback(opts.CoauthorAction))
	}

	cmd := exec.CommandContext(ctx, b.exe(), args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", b.exe(), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// pathArgs builds the --path/--path-rename/--subdirectory-filter/
// --to-subdirectory-filter argument set for one or more mappings, per
// spec.md section 4.4's per-backend rewrite rules.
func pathArgs(mappings []gitmuxconfig.PathMapping, revListPaths []string) []string {
	var args []string

	if len(mappings) == 1 {
		m := mappings[0]
		switch {
		case m.Source != "" && m.Destination == "":
			args = append(args, "--subdirectory-filter", m.Source)
		case m.Source == "" && m.Destination != "":
			args = append(args, "--to-subdirectory-filter", m.Destination)
		case m.Source != "" && m.Destination != "":
			args = append(args, "--path", m.Source)
			if m.Source != m.Destination {
				args = append(args, "--path-rename", m.Source+":"+m.Destination)
			}
		}
	} else {
		for _, m := range mappings {
			if m.Source != "" {
				args = append(args, "--path", m.Source)
			}
			if m.Source != m.Destination && m.Destination != "" {
				rename := m.Source + ":" + m.Destination
				if m.Source == "" {
					rename = ":" + m.Destination
				}
				args = append(args, "--path-rename", rename)
			}
		}
	}

	for _, p := range revListPaths {
		args = append(args, "--path", p)
	}

	return args
}

// writeMailmap renders the identity override as a mailmap file and
// returns its path plus a cleanup func to remove it.
func writeMailmap(opts filter.RewriteOptions) (string, func(), error) {
	id := opts.AuthorOverride
	if id.Name == "" {
		id = opts.CommitterOverride
	}

	f, err := os.CreateTemp("", "gitmux-mailmap-*")
	if err != nil {
		return "", func() {}, err
	}
	content := fmt.Sprintf("%s <%s>\n", id.Name, id.Email)
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", func() {}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", func() {}, err
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

// messageCallback renders the Python source for filter-repo's
// --message-callback hook, compiling the same scrubbing rules
// pkg/filter/trailer applies natively as ordered regular-expression
// substitutions, per spec.md section 4.4.
func messageCallback(action gitmuxconfig.CoauthorAction) string {
	var subs []string
	switch action {
	case gitmuxconfig.CoauthorAll:
		subs = []string{
			`re.sub(r'(?im)^Co-authored-by:\s*.+$\n?', '', text)`,
			`re.sub(r'(?im)^.*Generated with.*$\n?', '', text)`,
		}
	case gitmuxconfig.CoauthorClaude:
		subs = []string{
			`re.sub(r'(?im)^Co-authored-by:\s*Claude( Code)?\s*(<[^>]*>)?\s*$\n?', '', text)`,
			`re.sub(r'(?im)^Co-authored-by:\s*.*<[^>]*@anthropic\.com>\s*$\n?', '', text)`,
			`re.sub(r'(?im)^.*Generated with.*Claude.*$\n?', '', text)`,
		}
	}

	var b strings.Builder
	b.WriteString("import re\n")
	b.WriteString("text = message.decode('utf-8', 'replace')\n")
	for _, sub := range subs {
		b.WriteString("text = " + sub + "\n")
	}
	b.WriteString("return text.encode('utf-8')\n")
	return b.String()
}
