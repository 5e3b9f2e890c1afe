package workspace

import (
	"testing"

	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
)

func TestNewIntegrationBranchNameDefaultStrategyOmitsSuffix(t *testing.T) {
	name := NewIntegrationBranchName("main", "abc1234567890", gitmuxconfig.StrategyTheirs)
	if name != "update-from-main-abc1234" {
		t.Fatalf("got %q", name)
	}
}

func TestNewIntegrationBranchNameNonDefaultStrategyAddsSuffix(t *testing.T) {
	name := NewIntegrationBranchName("main", "abc1234567890", gitmuxconfig.StrategyOurs)
	if name != "update-from-main-abc1234-rebase-strategy-ours" {
		t.Fatalf("got %q", name)
	}
}

func TestNewIntegrationBranchNameDetachedHead(t *testing.T) {
	name := NewIntegrationBranchName("", "abc1234567890", gitmuxconfig.StrategyTheirs)
	if name != "update-from-detached-abc1234" {
		t.Fatalf("got %q", name)
	}
}

func TestIsLocalPath(t *testing.T) {
	cases := map[string]bool{
		"git@github.com:acme/repo.git":   false,
		"https://github.com/acme/repo":   false,
		"/home/user/repos/monorepo":      true,
		"./relative/repo":                true,
		"~/repos/monorepo":               true,
	}
	for ref, want := range cases {
		if got := isLocalPath(ref); got != want {
			t.Errorf("isLocalPath(%q) = %v, want %v", ref, got, want)
		}
	}
}
