package main

import (
	"strings"
	"testing"

	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
	"github.com/gitmux/gitmux/pkg/prassembler"
	"github.com/gitmux/gitmux/pkg/preflight"
)

func TestIsConfigError(t *testing.T) {
	if !isConfigError(gitmuxconfig.NewConfigError("", "bad")) {
		t.Fatal("expected ConfigError to be classified as a config error")
	}
	if isConfigError(&preflightFailure{}) {
		t.Fatal("did not expect preflightFailure to be classified as a config error")
	}
}

func TestIsPreflightError(t *testing.T) {
	if !isPreflightError(&preflightFailure{report: preflight.Report{{Check: "x", Status: preflight.Fail}}}) {
		t.Fatal("expected preflightFailure to be classified as a preflight error")
	}
}

func TestIsRemoteServiceErrorExcludesPush(t *testing.T) {
	pushErr := &prassembler.RemoteError{Op: "push integration branch"}
	if isRemoteServiceError(pushErr) {
		t.Fatal("push failures should map to the generic runtime exit code, not remote-service")
	}
	prErr := &prassembler.RemoteError{Op: "create pull request"}
	if !isRemoteServiceError(prErr) {
		t.Fatal("PR-create failures should map to the remote-service exit code")
	}
}

func TestFormatReportIncludesEveryCheck(t *testing.T) {
	report := preflight.Report{
		{Check: "required tools reachable", Status: preflight.Pass, Message: "ok"},
		{Check: "teams resolvable", Status: preflight.Fail, Message: "missing team"},
	}
	lines := formatReport(report)
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "required tools reachable") || !strings.Contains(joined, "missing team") {
		t.Fatalf("report formatting dropped a check:\n%s", joined)
	}
}

func TestDisplayPathDefaultsToDot(t *testing.T) {
	if got := displayPath(""); got != "." {
		t.Fatalf("displayPath(\"\") = %q, want \".\"", got)
	}
	if got := displayPath("libs/widget"); got != "libs/widget" {
		t.Fatalf("displayPath(%q) = %q", "libs/widget", got)
	}
}

func TestDisplayOrDefault(t *testing.T) {
	if got := displayOrDefault("", "main"); got != "main" {
		t.Fatalf("displayOrDefault(\"\", \"main\") = %q", got)
	}
	if got := displayOrDefault("feature", "main"); got != "feature" {
		t.Fatalf("displayOrDefault(\"feature\", \"main\") = %q", got)
	}
}
