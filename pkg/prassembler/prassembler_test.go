package prassembler

import (
	"strings"
	"testing"

	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
)

func testOptions() Options {
	return Options{
		SourceRepo:      &gitmuxconfig.RepoRef{Raw: "git@github.com:acme/monorepo.git", Host: "github.com", Owner: "acme", Project: "monorepo"},
		SourceRef:       "main",
		SourceSHA:       "abcdef0123456789",
		DestinationRepo: &gitmuxconfig.RepoRef{Raw: "git@github.com:acme/sublib.git", Host: "github.com", Owner: "acme", Project: "sublib"},
		DestinationBase: "main",
		Mappings: []gitmuxconfig.PathMapping{
			{Source: "libs/widget", Destination: ""},
		},
		RebaseStrategy: gitmuxconfig.StrategyTheirs,
	}
}

func TestBuildPRBodyContainsRequiredFacts(t *testing.T) {
	body := buildPRBody(testOptions())

	for _, want := range []string{
		"git@github.com:acme/monorepo.git",
		"main",
		"abcdef0",
		"git@github.com:acme/sublib.git",
		"libs/widget",
		"theirs",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("PR body missing %q:\n%s", want, body)
		}
	}
}

func TestBuildPRBodyListsEveryMapping(t *testing.T) {
	opts := testOptions()
	opts.Mappings = []gitmuxconfig.PathMapping{
		{Source: "a", Destination: "x"},
		{Source: "b", Destination: "y"},
	}
	body := buildPRBody(opts)
	if !strings.Contains(body, "`a`") || !strings.Contains(body, "`x`") {
		t.Errorf("missing mapping a->x in body:\n%s", body)
	}
	if !strings.Contains(body, "`b`") || !strings.Contains(body, "`y`") {
		t.Errorf("missing mapping b->y in body:\n%s", body)
	}
}

func TestBuildPRBodyDefaultsBaseBranchWhenUnset(t *testing.T) {
	opts := testOptions()
	opts.DestinationBase = ""
	body := buildPRBody(opts)
	if !strings.Contains(body, "`main`") {
		t.Errorf("expected default base branch main in body:\n%s", body)
	}
}

func TestPRTitleNamesSourceAndRef(t *testing.T) {
	title := prTitle(testOptions())
	if !strings.Contains(title, "acme/monorepo") || !strings.Contains(title, "main") {
		t.Errorf("title %q missing source repo or ref", title)
	}
}

func TestRemoteErrorUnwrap(t *testing.T) {
	inner := &gitmuxconfig.ConfigError{}
	err := &RemoteError{Op: "push", Err: inner}
	if err.Unwrap() != inner {
		t.Fatal("Unwrap did not return inner error")
	}
	if err.Error() == "" {
		t.Fatal("expected non-empty error message")
	}
}
