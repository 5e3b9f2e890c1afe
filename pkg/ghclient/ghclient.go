// Package ghclient is gitmux's GitHub API client: it wraps go-github
// behind a small surface (pull request create/update/find, team
// existence checks) adapted from the teacher's unified github.Client,
// trimmed to what the PR Assembler and Preflight Validator need.
package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the default GitHub API base URL.
	DefaultBaseURL = "https://api.github.com"

	// TokenEnv is the standard GitHub token environment variable,
	// automatically set in GitHub Actions CI.
	TokenEnv = "GITHUB_TOKEN"

	// GitmuxTokenEnv takes priority over TokenEnv, letting a run
	// override a CI-provided token with one carrying broader scopes.
	GitmuxTokenEnv = "GITMUX_GITHUB_TOKEN"

	// DefaultTimeout is the default HTTP timeout for API calls.
	DefaultTimeout = 30 * time.Second
)

// ghAuthToken shells out to `gh auth token`, returning "" if gh isn't
// installed or isn't authenticated.
func ghAuthToken() string {
	if _, err := exec.LookPath("gh"); err != nil {
		return ""
	}
	out, err := exec.Command("gh", "auth", "token").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// ResolveToken returns a token and whether it came from the gh CLI,
// checking GITMUX_GITHUB_TOKEN, then GITHUB_TOKEN, then `gh auth token`.
func ResolveToken() (token string, fromGh bool) {
	if t := os.Getenv(GitmuxTokenEnv); t != "" {
		return t, false
	}
	if t := os.Getenv(TokenEnv); t != "" {
		return t, false
	}
	if t := ghAuthToken(); t != "" {
		return t, true
	}
	return "", false
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a GitHub Enterprise API base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client backing API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// Client is gitmux's GitHub API client: a thin, lazily-initialized
// wrapper around go-github, mirroring the teacher's lazy-client field
// so credentials are never resolved until the first API call.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration

	gh *github.Client // lazy-loaded
}

// NewClient constructs a Client for token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Timeout = c.timeout
	return c
}

// NewClientFromEnv resolves a token via ResolveToken and constructs a
// Client, erroring only if no token can be found anywhere.
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	token, _ := ResolveToken()
	if token == "" {
		return nil, fmt.Errorf("no GitHub token found: set %s or %s, or run `gh auth login`", GitmuxTokenEnv, TokenEnv)
	}
	return NewClient(token, opts...), nil
}

// Token returns the token this client authenticates with, for callers
// (the PR Assembler's authenticated push path) that need it outside
// the go-github/oauth2 transport this client builds internally.
func (c *Client) Token() string {
	return c.token
}

// GitHubClient returns the underlying go-github client, constructing
// it on first use from the configured token and base URL.
func (c *Client) GitHubClient() *github.Client {
	if c.gh != nil {
		return c.gh
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
	tc := &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: c.httpClient.Transport},
		Timeout:   c.httpClient.Timeout,
	}
	gh := github.NewClient(tc)
	if c.baseURL != "" && c.baseURL != DefaultBaseURL {
		if enterprise, err := gh.WithEnterpriseURLs(c.baseURL, c.baseURL); err == nil {
			gh = enterprise
		}
	}
	c.gh = gh
	return c.gh
}

// PRInfo is the subset of a pull request's fields the PR Assembler and
// CLI output report, adapted from the teacher's PRInfo.
type PRInfo struct {
	Number  int
	Title   string
	Body    string
	State   string
	URL     string
	BaseRef string
	HeadRef string
}

func convertFromGitHubPR(pr *github.PullRequest) *PRInfo {
	info := &PRInfo{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		State:  pr.GetState(),
		URL:    pr.GetHTMLURL(),
	}
	if base := pr.GetBase(); base != nil {
		info.BaseRef = base.GetRef()
	}
	if head := pr.GetHead(); head != nil {
		info.HeadRef = head.GetRef()
	}
	return info
}

// NewPullRequest is the input to CreatePullRequest.
type NewPullRequest struct {
	Title string
	Head  string
	Base  string
	Body  string
}

// CreatePullRequest opens a PR from newPR.Head onto newPR.Base.
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, newPR NewPullRequest) (*PRInfo, error) {
	pr, _, err := c.GitHubClient().PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: &newPR.Title,
		Head:  &newPR.Head,
		Base:  &newPR.Base,
		Body:  &newPR.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("creating pull request: %w", err)
	}
	return convertFromGitHubPR(pr), nil
}

// UpdatePullRequest replaces an existing PR's title and body.
func (c *Client) UpdatePullRequest(ctx context.Context, owner, repo string, number int, title, body string) (*PRInfo, error) {
	pr, _, err := c.GitHubClient().PullRequests.Edit(ctx, owner, repo, number, &github.PullRequest{
		Title: &title,
		Body:  &body,
	})
	if err != nil {
		return nil, fmt.Errorf("updating pull request #%d: %w", number, err)
	}
	return convertFromGitHubPR(pr), nil
}

// ListPullRequests lists PRs in the given state ("open", "closed", "all").
func (c *Client) ListPullRequests(ctx context.Context, owner, repo, state string) ([]*PRInfo, error) {
	opts := &github.PullRequestListOptions{
		State:       state,
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var all []*PRInfo
	for {
		prs, resp, err := c.GitHubClient().PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests: %w", err)
		}
		for _, pr := range prs {
			all = append(all, convertFromGitHubPR(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// FindPullRequestByBranch returns the open PR whose head ref matches
// branch, or nil if none exists, implementing the find-or-create step
// of spec.md section 4.7.
func (c *Client) FindPullRequestByBranch(ctx context.Context, owner, repo, branch string) (*PRInfo, error) {
	open, err := c.ListPullRequests(ctx, owner, repo, "open")
	if err != nil {
		return nil, err
	}
	for _, pr := range open {
		if pr.HeadRef == branch {
			return pr, nil
		}
	}
	return nil, nil
}

// TeamsExist reports which of teams (each "org/slug") do not exist as
// real GitHub teams, for Preflight's team-grant validation. destination
// is accepted for interface symmetry with preflight.TeamResolver but is
// not otherwise consulted: team existence is organization-scoped, not
// repository-scoped.
func (c *Client) TeamsExist(ctx context.Context, destination string, teams []string) ([]string, error) {
	var missing []string
	for _, team := range teams {
		org, slug, ok := splitTeamSlug(team)
		if !ok {
			missing = append(missing, team)
			continue
		}
		_, resp, err := c.GitHubClient().Teams.GetTeamBySlug(ctx, org, slug)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				missing = append(missing, team)
				continue
			}
			return nil, fmt.Errorf("checking team %q: %w", team, err)
		}
	}
	return missing, nil
}

// RepositoryExists reports whether owner/repo exists and is reachable
// with the client's token.
func (c *Client) RepositoryExists(ctx context.Context, owner, repo string) (bool, error) {
	_, resp, err := c.GitHubClient().Repositories.Get(ctx, owner, repo)
	if err == nil {
		return true, nil
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("checking repository %s/%s: %w", owner, repo, err)
}

// CreateRepository creates repo under owner, private by default, per
// spec.md section 4.7's create_if_missing side effect. owner is passed
// to go-github as an organization; if that call fails the error is
// returned as is, with no retry under the authenticated user's own
// account.
func (c *Client) CreateRepository(ctx context.Context, owner, repo string) error {
	private := true
	newRepo := &github.Repository{
		Name:    &repo,
		Private: &private,
	}
	_, _, err := c.GitHubClient().Repositories.Create(ctx, owner, newRepo)
	if err == nil {
		return nil
	}
	// Repositories.Create treats "" as "create under the authenticated
	// user"; orgs must be passed explicitly. If owner creation failed,
	// the caller's token may lack org-create rights — surface as-is.
	return fmt.Errorf("creating repository %s/%s: %w", owner, repo, err)
}

// GrantTeamPush gives team ("org/slug") push access to owner/repo.
func (c *Client) GrantTeamPush(ctx context.Context, owner, repo, team string) error {
	_, slug, ok := splitTeamSlug(team)
	if !ok {
		return fmt.Errorf("invalid team reference %q (want org/slug)", team)
	}
	org, _, _ := splitTeamSlug(team)
	_, err := c.GitHubClient().Teams.AddTeamRepoBySlug(ctx, org, slug, owner, repo, &github.TeamAddTeamRepoOptions{
		Permission: "push",
	})
	if err != nil {
		return fmt.Errorf("granting team %s push access to %s/%s: %w", team, owner, repo, err)
	}
	return nil
}

func splitTeamSlug(team string) (org, slug string, ok bool) {
	parts := strings.SplitN(team, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
