package ghclient

import "testing"

func TestSplitTeamSlug(t *testing.T) {
	cases := []struct {
		in       string
		org      string
		slug     string
		wantOK   bool
	}{
		{"acme/platform", "acme", "platform", true},
		{"acme/", "", "", false},
		{"/platform", "", "", false},
		{"no-slash", "", "", false},
	}
	for _, c := range cases {
		org, slug, ok := splitTeamSlug(c.in)
		if ok != c.wantOK {
			t.Fatalf("splitTeamSlug(%q) ok = %v, want %v", c.in, ok, c.wantOK)
		}
		if ok && (org != c.org || slug != c.slug) {
			t.Fatalf("splitTeamSlug(%q) = (%q, %q), want (%q, %q)", c.in, org, slug, c.org, c.slug)
		}
	}
}

func TestResolveTokenPrefersGitmuxToken(t *testing.T) {
	t.Setenv(GitmuxTokenEnv, "gitmux-token")
	t.Setenv(TokenEnv, "standard-token")
	token, fromGh := ResolveToken()
	if token != "gitmux-token" || fromGh {
		t.Fatalf("got (%q, %v), want (\"gitmux-token\", false)", token, fromGh)
	}
}

func TestResolveTokenFallsBackToStandardEnv(t *testing.T) {
	t.Setenv(GitmuxTokenEnv, "")
	t.Setenv(TokenEnv, "standard-token")
	token, fromGh := ResolveToken()
	if token != "standard-token" || fromGh {
		t.Fatalf("got (%q, %v), want (\"standard-token\", false)", token, fromGh)
	}
}

func TestNewClientFromEnvErrorsWithoutToken(t *testing.T) {
	t.Setenv(GitmuxTokenEnv, "")
	t.Setenv(TokenEnv, "")
	t.Setenv("PATH", "")
	if _, err := NewClientFromEnv(); err == nil {
		t.Fatal("expected error with no token and no gh CLI on PATH")
	}
}
