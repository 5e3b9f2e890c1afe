package gitmuxconfig

import "testing"

func TestParseRepoRefSSH(t *testing.T) {
	ref, err := ParseRepoRef("git@github.com:acme/monorepo.git")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Host != "github.com" || ref.Owner != "acme" || ref.Project != "monorepo" {
		t.Fatalf("got %+v", ref)
	}
}

func TestParseRepoRefHTTPS(t *testing.T) {
	ref, err := ParseRepoRef("https://github.com/acme/monorepo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Host != "github.com" || ref.Owner != "acme" || ref.Project != "monorepo" {
		t.Fatalf("got %+v", ref)
	}
}

func TestParseRepoRefHTTPSWithGitSuffix(t *testing.T) {
	ref, err := ParseRepoRef("https://github.com/acme/monorepo.git")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Project != "monorepo" {
		t.Fatalf("expected .git suffix stripped, got %q", ref.Project)
	}
}

func TestParseRepoRefLocal(t *testing.T) {
	ref, err := ParseRepoRef("/home/user/repos/monorepo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ref.Local || ref.Project != "monorepo" {
		t.Fatalf("got %+v", ref)
	}
}

func TestParseRepoRefInvalid(t *testing.T) {
	if _, err := ParseRepoRef("not a valid ref at all"); err == nil {
		t.Fatal("expected error for malformed reference")
	}
}

func TestParseRepoRefEmpty(t *testing.T) {
	if _, err := ParseRepoRef(""); err == nil {
		t.Fatal("expected error for empty reference")
	}
}
