package main

import (
	"os"
	"strings"
)

// envDefault returns the value of the GITMUX_<name> environment
// variable, or "" if unset. Every long flag has a matching
// GITMUX_<UPPER_SNAKE> variable (spec.md section 6); flags are
// registered with this as their default so an explicit CLI value
// always overrides the environment, and an unset CLI value falls back
// to it.
func envDefault(name string) string {
	return os.Getenv("GITMUX_" + name)
}

func envDefaultBool(name string) bool {
	v := strings.ToLower(strings.TrimSpace(envDefault(name)))
	return v == "1" || v == "true" || v == "yes"
}

func envDefaultSlice(name string) []string {
	v := envDefault(name)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// flagSet holds every CLI-bound value, in spec.md section 6's order.
type flagSet struct {
	source          string
	destination     string
	mappings        []string
	sourceSubdir    string
	destSubdir      string
	sourceRef       string
	revListPaths    []string
	destinationBase string
	createIfMissing bool
	rebaseStrategy  string
	diffAlgorithm   string
	extraRebaseOpts []string
	interactive     bool
	submitPR        bool
	teamsToAdd      []string
	keepWorkspace   bool
	verbose         bool
	dryRun          bool
	skipPreflight   bool
	logLevel        string
	filterBackend   string
	authorName      string
	authorEmail     string
	committerName   string
	committerEmail  string
	coauthorAction  string
}

var flags flagSet

func registerFlags() {
	fs := rootCmd.Flags()

	fs.StringVarP(&flags.source, "source", "r", envDefault("SOURCE"), "source repository (required)")
	fs.StringVarP(&flags.destination, "destination", "t", envDefault("DESTINATION"), "destination repository (required)")
	fs.StringSliceVarP(&flags.mappings, "mapping", "m", envDefaultSlice("MAPPING"), "explicit src:dst path mapping (repeatable)")
	fs.StringVarP(&flags.sourceSubdir, "source-subdir", "d", envDefault("SOURCE_SUBDIR"), "legacy single-mapping source subdirectory")
	fs.StringVarP(&flags.destSubdir, "dest-subdir", "p", envDefault("DEST_SUBDIR"), "legacy single-mapping destination subdirectory")
	fs.StringVarP(&flags.sourceRef, "ref", "g", envDefault("REF"), "source ref to sync (default: source HEAD)")
	fs.StringSliceVarP(&flags.revListPaths, "rev-list-path", "l", envDefaultSlice("REV_LIST_PATH"), "restrict history rewrite to these source paths")
	fs.StringVarP(&flags.destinationBase, "base-branch", "b", envDefault("BASE_BRANCH"), "destination branch to rebase onto")
	fs.BoolVarP(&flags.createIfMissing, "create-if-missing", "c", envDefaultBool("CREATE_IF_MISSING"), "create the destination repository if it does not exist")
	fs.StringVarP(&flags.rebaseStrategy, "rebase-strategy", "X", envDefault("REBASE_STRATEGY"), "rebase conflict strategy: theirs, ours, or patience")
	fs.StringVar(&flags.diffAlgorithm, "diff-algorithm", envDefault("DIFF_ALGORITHM"), "diff algorithm passed to git rebase (default: histogram)")
	fs.StringSliceVarP(&flags.extraRebaseOpts, "extra-rebase-opt", "o", envDefaultSlice("EXTRA_REBASE_OPT"), "extra options passed through to git rebase")
	fs.BoolVarP(&flags.interactive, "interactive", "i", envDefaultBool("INTERACTIVE"), "pause for manual conflict resolution instead of failing")
	fs.BoolVarP(&flags.submitPR, "submit-pr", "s", envDefaultBool("SUBMIT_PR"), "open or update a pull request on destination")
	fs.StringSliceVarP(&flags.teamsToAdd, "team", "z", envDefaultSlice("TEAM"), "org/team to grant push access to (repeatable)")
	fs.BoolVarP(&flags.keepWorkspace, "keep-workspace", "k", envDefaultBool("KEEP_WORKSPACE"), "do not remove the scratch workspace on exit")
	fs.BoolVarP(&flags.verbose, "verbose", "v", envDefaultBool("VERBOSE"), "force debug-level logging")
	fs.BoolVarP(&flags.dryRun, "dry-run", "D", envDefaultBool("DRY_RUN"), "resolve and print configuration, then exit before any clone")
	fs.BoolVarP(&flags.skipPreflight, "skip-preflight", "S", envDefaultBool("SKIP_PREFLIGHT"), "skip preflight validation")
	fs.StringVarP(&flags.logLevel, "log-level", "L", envDefault("LOG_LEVEL"), "debug, info, warning, or error")
	fs.StringVar(&flags.filterBackend, "filter-backend", envDefault("FILTER_BACKEND"), "auto, legacy, or modern")
	fs.StringVar(&flags.authorName, "author-name", envDefault("AUTHOR_NAME"), "rewrite every retained commit's author name")
	fs.StringVar(&flags.authorEmail, "author-email", envDefault("AUTHOR_EMAIL"), "rewrite every retained commit's author email")
	fs.StringVar(&flags.committerName, "committer-name", envDefault("COMMITTER_NAME"), "rewrite every retained commit's committer name")
	fs.StringVar(&flags.committerEmail, "committer-email", envDefault("COMMITTER_EMAIL"), "rewrite every retained commit's committer email")
	fs.StringVar(&flags.coauthorAction, "coauthor-action", envDefault("COAUTHOR_ACTION"), "claude, all, or keep")
}
