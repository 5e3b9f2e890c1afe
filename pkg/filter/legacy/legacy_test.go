package legacy

import (
	"strings"
	"testing"

	"github.com/gitmux/gitmux/pkg/filter"
	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
)

func TestBuildMappingEnvEncodesMappingsAsData(t *testing.T) {
	mappings := []gitmuxconfig.PathMapping{
		{Source: "services/api", Destination: "api"},
		{Source: "services/web", Destination: "web"},
	}
	env := buildMappingEnv(mappings, []string{"README.md"})

	var mappingsLine, revListLine string
	for _, e := range env {
		if strings.HasPrefix(e, "GITMUX_MAPPINGS=") {
			mappingsLine = e
		}
		if strings.HasPrefix(e, "GITMUX_REVLIST_PATHS=") {
			revListLine = e
		}
	}
	if !strings.Contains(mappingsLine, "services/api\tapi") {
		t.Fatalf("mappings env missing entry: %q", mappingsLine)
	}
	if !strings.Contains(revListLine, "README.md") {
		t.Fatalf("revlist env missing entry: %q", revListLine)
	}
}

func TestShellQuoteEscapesSingleQuotes(t *testing.T) {
	got := shellQuote(`it's a path`)
	want := `'it'\''s a path'`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIdentityEnvOnlyAppliesSetOverrides(t *testing.T) {
	opts := filter.RewriteOptions{
		AuthorOverride: gitmuxconfig.Identity{Name: "Bot", Email: "bot@example.com"},
	}
	env := identityEnv(opts)
	joined := strings.Join(env, ";")
	if !strings.Contains(joined, "GITMUX_AUTHOR_NAME=Bot") {
		t.Fatalf("missing author override: %v", env)
	}
	if strings.Contains(joined, "GITMUX_COMMITTER_NAME") {
		t.Fatalf("unexpected committer override: %v", env)
	}
}

func TestNameIsLegacy(t *testing.T) {
	if (&Backend{}).Name() != "legacy" {
		t.Fatal("Name() mismatch")
	}
}
