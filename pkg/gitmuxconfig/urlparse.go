package gitmuxconfig

import (
	"regexp"
	"strings"
)

// RepoRef identifies a repository by host/owner/project, extracted
// from any of the accepted URL forms.
type RepoRef struct {
	// Raw is the original, unmodified input string.
	Raw string

	// Host is the git host (e.g. "github.com"). Empty for local paths.
	Host string

	// Owner is the repository owner/org. Empty for local paths.
	Owner string

	// Project is the repository name, with any ".git" suffix stripped.
	Project string

	// Local is true when Raw is a filesystem path (absolute, or
	// relative starting with "./" or "../") rather than a remote URL.
	Local bool
}

var (
	sshRepoRegex   = regexp.MustCompile(`^[\w.-]+@([\w.-]+):([\w.-]+)/([\w.-]+?)(?:\.git)?$`)
	httpsRepoRegex = regexp.MustCompile(`^https://([\w.-]+)/([\w.-]+)/([\w.-]+?)(?:\.git)?/?$`)
)

// ParseRepoRef parses a repository reference in one of the three
// accepted forms: SSH (git@host:owner/repo[.git]), HTTPS
// (https://host/owner/repo[.git]), or a local filesystem path that is
// absolute or starts with "./" or "../". Any other form is a
// ConfigError with the exact input echoed.
func ParseRepoRef(raw string) (*RepoRef, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, NewConfigError(raw, "repository reference is empty")
	}

	if m := sshRepoRegex.FindStringSubmatch(trimmed); m != nil {
		return &RepoRef{Raw: raw, Host: m[1], Owner: m[2], Project: m[3]}, nil
	}

	if m := httpsRepoRegex.FindStringSubmatch(trimmed); m != nil {
		return &RepoRef{Raw: raw, Host: m[1], Owner: m[2], Project: m[3]}, nil
	}

	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "./") || strings.HasPrefix(trimmed, "../") {
		return &RepoRef{Raw: raw, Project: lastPathElement(trimmed), Local: true}, nil
	}

	return nil, NewConfigError(raw, "unrecognized repository reference: expected git@host:owner/repo[.git], https://host/owner/repo[.git], or a local path (absolute, ./ or ../)")
}

func lastPathElement(p string) string {
	p = strings.TrimRight(p, "/")
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}

// FullName returns "owner/project" for remote refs, or the raw path
// for local refs.
func (r *RepoRef) FullName() string {
	if r.Local {
		return r.Raw
	}
	return r.Owner + "/" + r.Project
}
