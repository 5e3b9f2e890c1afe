package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	repoRoot  string
	gitmuxBin string
)

func TestMain(m *testing.M) {
	var err error
	repoRoot, err = findRepoRoot()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	binDir, err := os.MkdirTemp("", "gitmux-bin-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	gitmuxBin = filepath.Join(binDir, "gitmux")
	if runtime.GOOS == "windows" {
		gitmuxBin += ".exe"
	}

	cmd := exec.Command("go", "build", "-o", gitmuxBin, "./cmd/gitmux")
	cmd.Dir = repoRoot
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build gitmux: %v\n%s\n", err, string(out))
		_ = os.RemoveAll(binDir)
		os.Exit(2)
	}

	exitCode := m.Run()
	_ = os.RemoveAll(binDir)
	os.Exit(exitCode)
}

// TestIntegration runs every scenario under testdata/ through the real
// gitmux binary against local bare repositories, covering spec.md
// section 8's S1-S6 scenarios plus a backend-equivalence check (S7),
// end to end (clone, rewrite, rebase, push) with no GitHub API calls:
// every scenario destination is a local path and
// submit_pr/create_if_missing/teams_to_add stay unset.
func TestIntegration(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join(repoRoot, "tests", "integration", "testdata"),
		Setup: func(env *testscript.Env) error {
			home := filepath.Join(env.WorkDir, "home")
			tmp := filepath.Join(env.WorkDir, "tmp")
			if err := os.MkdirAll(home, 0o755); err != nil {
				return err
			}
			if err := os.MkdirAll(tmp, 0o755); err != nil {
				return err
			}

			env.Setenv("HOME", home)
			env.Setenv("TMPDIR", tmp)
			env.Setenv("TEMP", tmp)
			env.Setenv("TMP", tmp)

			pathVar := os.Getenv("PATH")
			env.Setenv("PATH", filepath.Dir(gitmuxBin)+string(os.PathListSeparator)+pathVar)
			env.Setenv("GITMUX_BIN", gitmuxBin)

			// Every scenario commits as this identity so commits are
			// deterministic regardless of the host's git config.
			env.Setenv("GIT_AUTHOR_NAME", "Scenario Author")
			env.Setenv("GIT_AUTHOR_EMAIL", "author@example.com")
			env.Setenv("GIT_COMMITTER_NAME", "Scenario Author")
			env.Setenv("GIT_COMMITTER_EMAIL", "author@example.com")
			return nil
		},
	})
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("unable to locate repo root (go.mod not found)")
}
