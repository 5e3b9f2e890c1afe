// Command gitmux is a repository-sync orchestrator: given a source
// repository, a destination repository, and a set of path mappings, it
// produces a branch on the destination containing the selected source
// content with full commit history, rebased onto the destination's
// target branch, and optionally opened as a pull request.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitmux/gitmux/pkg/gitmuxconfig"
	"github.com/gitmux/gitmux/pkg/gmlog"
)

// Exit codes, per spec.md section 6.
const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitConfigError   = 2
	exitPreflight     = 3
	exitRemoteService = 4
)

var rootCmd = &cobra.Command{
	Use:           "gitmux",
	Short:         "Sync a source repository's history into a destination repository along path mappings",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context())
	},
}

func init() {
	registerFlags()
	rootCmd.AddCommand(filterMsgCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(handleTopLevelError(err))
	}
}

// handleTopLevelError logs a one-line error message and maps it to the
// exit code taxonomy in spec.md section 7.
func handleTopLevelError(err error) int {
	code, logger := classifyError(err)
	logger.Error(err.Error())
	return code
}

func classifyError(err error) (int, *gmlog.Logger) {
	logger := gmlog.Default()
	switch {
	case isConfigError(err):
		return exitConfigError, logger
	case isPreflightError(err):
		return exitPreflight, logger
	case isRemoteServiceError(err):
		return exitRemoteService, logger
	default:
		return exitRuntimeError, logger
	}
}

// applyProjectDefaults fills in RebaseStrategy, LogLevel,
// CoauthorAction, and FilterBackend from .gitmux/config.yaml wherever
// the CLI/env surface left them unset, per the CLI > project config >
// default precedence described in spec.md section 6. A missing or
// unreadable project config is not fatal here; New still applies its
// own hard-coded defaults for anything left empty.
func applyProjectDefaults(p gitmuxconfig.Params) gitmuxconfig.Params {
	projectCfg, err := gitmuxconfig.LoadProjectConfigFromCurrentDir()
	if err != nil {
		return p
	}
	p.RebaseStrategy = gitmuxconfig.ResolveString(p.RebaseStrategy, projectCfg.RebaseStrategy, "")
	p.LogLevel = gitmuxconfig.ResolveString(p.LogLevel, projectCfg.LogLevel, "")
	p.CoauthorAction = gitmuxconfig.ResolveString(p.CoauthorAction, projectCfg.CoauthorAction, "")
	p.FilterBackend = gitmuxconfig.ResolveString(p.FilterBackend, projectCfg.FilterBackend, "")
	return p
}

func buildParams() gitmuxconfig.Params {
	return gitmuxconfig.Params{
		Source:             flags.source,
		Destination:        flags.destination,
		SourceRef:          flags.sourceRef,
		DestinationBase:    flags.destinationBase,
		MappingSpecs:       flags.mappings,
		SourceSubdir:       flags.sourceSubdir,
		DestSubdir:         flags.destSubdir,
		RevListPaths:       flags.revListPaths,
		RebaseStrategy:     flags.rebaseStrategy,
		DiffAlgorithm:      flags.diffAlgorithm,
		ExtraRebaseOptions: flags.extraRebaseOpts,
		Interactive:        flags.interactive,
		AuthorName:         flags.authorName,
		AuthorEmail:        flags.authorEmail,
		CommitterName:      flags.committerName,
		CommitterEmail:     flags.committerEmail,
		CoauthorAction:     flags.coauthorAction,
		FilterBackend:      flags.filterBackend,
		SubmitPR:           flags.submitPR,
		CreateIfMissing:    flags.createIfMissing,
		KeepWorkspace:      flags.keepWorkspace,
		SkipPreflight:      flags.skipPreflight,
		DryRun:             flags.dryRun,
		LogLevel:           flags.logLevel,
		TeamsToAdd:         flags.teamsToAdd,
	}
}

func newLogger(cfg *gitmuxconfig.RunConfig) *gmlog.Logger {
	level := gmlog.LevelInfo
	if parsed, err := gmlog.ParseLevel(string(cfg.LogLevel)); err == nil {
		level = parsed
	}
	if flags.verbose {
		level = gmlog.LevelDebug
	}
	logger := gmlog.New(level)
	gmlog.SetDefault(logger)
	return logger
}

func runSync(ctx context.Context) error {
	cfg, err := gitmuxconfig.New(applyProjectDefaults(buildParams()))
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	report, err := runPreflight(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if report != nil {
		for _, line := range formatReport(report) {
			fmt.Println(line)
		}
		if !report.OK() {
			return &preflightFailure{report: report}
		}
	}

	if cfg.DryRun {
		fmt.Println(describeConfig(cfg))
		return nil
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	return runPipeline(ctx, cfg, logger, createdAt)
}

func describeConfig(cfg *gitmuxconfig.RunConfig) string {
	var mappingLines string
	for _, m := range cfg.Mappings {
		mappingLines += fmt.Sprintf("  %s -> %s\n", displayPath(m.Source), displayPath(m.Destination))
	}
	return fmt.Sprintf(
		"source: %s\ndestination: %s\nsource_ref: %s\ndestination_base: %s\nmappings:\n%sfilter_backend: %s\nrebase_strategy: %s\ndiff_algorithm: %s\ncoauthor_action: %s\nsubmit_pr: %v\ncreate_if_missing: %v\nteams_to_add: %v\n",
		cfg.Source, cfg.Destination, displayOrDefault(cfg.SourceRef, "HEAD"), displayOrDefault(cfg.DestinationBase, "main"),
		mappingLines, cfg.FilterBackend, cfg.Rebase.Strategy, cfg.Rebase.DiffAlgorithm, cfg.CoauthorAction, cfg.SubmitPR, cfg.CreateIfMissing, cfg.TeamsToAdd,
	)
}

func displayPath(p string) string {
	if p == "" {
		return "."
	}
	return p
}

func displayOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
