package ghclient

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// setupRecordedClient builds a Client whose HTTP transport replays a
// fixture under testdata/fixtures/. Fixtures aren't checked in for
// every case (recording requires a live token), so this skips rather
// than fails when the cassette is absent, matching the teacher's
// graceful-skip convention for VCR-backed tests.
func setupRecordedClient(t *testing.T, fixtureName string) *Client {
	t.Helper()

	if _, err := os.Stat(filepath.Join("testdata", "fixtures")); os.IsNotExist(err) {
		t.Skipf("fixtures directory not found; to record, run GITMUX_VCR_MODE=record GITHUB_TOKEN=... go test ./pkg/ghclient/... -run %s", t.Name())
	}

	rec, err := NewRecorder(t, fixtureName)
	if err != nil {
		if os.IsNotExist(err) {
			t.Skipf("fixture %q not found", fixtureName)
		}
		t.Fatalf("failed to create recorder: %v", err)
	}
	t.Cleanup(func() {
		if err := rec.Stop(); err != nil {
			t.Errorf("failed to stop recorder: %v", err)
		}
	})

	return NewClient("test-token", WithHTTPClient(rec.HTTPClient()))
}

func TestFindPullRequestByBranchAgainstRecordedFixture(t *testing.T) {
	client := setupRecordedClient(t, "find_pull_request_by_branch")

	pr, err := client.FindPullRequestByBranch(context.Background(), "acme", "widgets", "update-from-main-abc1234")
	if err != nil {
		t.Fatalf("FindPullRequestByBranch returned error: %v", err)
	}
	if pr == nil {
		t.Fatal("expected a matching open pull request")
	}
	if pr.HeadRef != "update-from-main-abc1234" {
		t.Errorf("got head ref %q", pr.HeadRef)
	}
}
