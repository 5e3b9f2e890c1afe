// Package gitmuxconfig defines gitmux's frozen run configuration: the
// validated, immutable set of parameters that drives the entire
// pipeline (URL/path parsing, the RunConfig model, and its invariants).
package gitmuxconfig

import (
	"fmt"
	"regexp"
)

// RebaseStrategy selects the merge-resolution policy used when
// replaying rewritten commits onto the destination base.
type RebaseStrategy string

const (
	StrategyTheirs   RebaseStrategy = "theirs"
	StrategyOurs     RebaseStrategy = "ours"
	StrategyPatience RebaseStrategy = "patience"
)

// DefaultRebaseStrategy is used when the run does not specify one.
const DefaultRebaseStrategy = StrategyTheirs

// DefaultDiffAlgorithm is the most robust diff algorithm available,
// used unless overridden.
const DefaultDiffAlgorithm = "histogram"

// CoauthorAction controls co-author trailer scrubbing during rewrite.
type CoauthorAction string

const (
	CoauthorClaude CoauthorAction = "claude"
	CoauthorAll    CoauthorAction = "all"
	CoauthorKeep   CoauthorAction = "keep"
)

// FilterBackendChoice selects which Filter Backend implementation to use.
type FilterBackendChoice string

const (
	BackendAuto   FilterBackendChoice = "auto"
	BackendLegacy FilterBackendChoice = "legacy"
	BackendModern FilterBackendChoice = "modern"
)

// LogLevel mirrors gmlog.Level as a config-surface string enum.
type LogLevel string

const (
	LogDebug   LogLevel = "debug"
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// Identity is a git author or committer override. Both Name and Email
// must be set together; a half-specified Identity is a ConfigError.
type Identity struct {
	Name  string
	Email string
}

func (i Identity) isZero() bool { return i.Name == "" && i.Email == "" }

// RebaseOptions configures the Rebase Engine.
type RebaseOptions struct {
	Strategy      RebaseStrategy
	DiffAlgorithm string
	ExtraOptions  []string
	Interactive   bool
}

// RunConfig is the complete, validated set of parameters for a single
// gitmux run. It is constructed once via New and never mutated
// afterward.
type RunConfig struct {
	Source          string
	Destination     string
	SourceRef       string
	DestinationBase string

	Mappings     []PathMapping
	RevListPaths []string

	Rebase RebaseOptions

	AuthorOverride    Identity
	CommitterOverride Identity
	CoauthorAction    CoauthorAction

	FilterBackend FilterBackendChoice

	SubmitPR        bool
	CreateIfMissing bool
	KeepWorkspace   bool
	SkipPreflight   bool
	DryRun          bool

	LogLevel LogLevel

	TeamsToAdd []string
}

// Params is the raw, unvalidated input to New. It mirrors the CLI/env
// surface described in spec.md section 6 before mapping resolution.
type Params struct {
	Source          string
	Destination     string
	SourceRef       string
	DestinationBase string

	// Mapping specs, exactly one of which must be populated per the
	// legacy/explicit xor rule.
	MappingSpecs  []string // -m, repeated
	SourceSubdir  string   // -d
	DestSubdir    string   // -p (only meaningful with -d)
	RevListPaths  []string

	RebaseStrategy      string
	DiffAlgorithm       string
	ExtraRebaseOptions  []string
	Interactive         bool

	AuthorName      string
	AuthorEmail     string
	CommitterName   string
	CommitterEmail  string
	CoauthorAction  string

	FilterBackend string

	SubmitPR        bool
	CreateIfMissing bool
	KeepWorkspace   bool
	SkipPreflight   bool
	DryRun          bool

	LogLevel string

	TeamsToAdd []string
}

// identityUnsafeChars rejects shell metacharacters that could break
// out of subprocess argument context once an identity reaches a git
// CLI invocation (spec.md section 7, injection safety).
var identityUnsafeChars = regexp.MustCompile("[`'$;&|<>\\\\\"\\n]")

func validateIdentityField(field, value string) error {
	if value == "" {
		return nil
	}
	if identityUnsafeChars.MatchString(value) {
		return fmt.Errorf("%s contains disallowed characters: %q", field, value)
	}
	return nil
}

// New constructs and validates a RunConfig from raw Params. All
// invariants from spec.md section 3 are enforced here; any violation
// returns a *ConfigError.
func New(p Params) (*RunConfig, error) {
	cfg := &RunConfig{
		Source:          p.Source,
		Destination:     p.Destination,
		SourceRef:       p.SourceRef,
		DestinationBase: p.DestinationBase,
		RevListPaths:    append([]string(nil), p.RevListPaths...),
		SubmitPR:        p.SubmitPR,
		CreateIfMissing: p.CreateIfMissing,
		KeepWorkspace:   p.KeepWorkspace,
		SkipPreflight:   p.SkipPreflight,
		DryRun:          p.DryRun,
		TeamsToAdd:      append([]string(nil), p.TeamsToAdd...),
	}

	if cfg.Source == "" {
		return nil, NewConfigError("", "source repository (-r) is required")
	}
	if cfg.Destination == "" {
		return nil, NewConfigError("", "destination repository (-t) is required")
	}

	mappings, err := resolveMappings(p)
	if err != nil {
		return nil, err
	}
	if err := validateDisjoint(mappings); err != nil {
		return nil, err
	}
	cfg.Mappings = mappings

	strategy := RebaseStrategy(p.RebaseStrategy)
	if strategy == "" {
		strategy = DefaultRebaseStrategy
	}
	switch strategy {
	case StrategyTheirs, StrategyOurs, StrategyPatience:
	default:
		return nil, NewConfigError(p.RebaseStrategy, "unknown rebase strategy (want theirs, ours, or patience)")
	}

	diffAlgo := p.DiffAlgorithm
	if diffAlgo == "" {
		diffAlgo = DefaultDiffAlgorithm
	}

	cfg.Rebase = RebaseOptions{
		Strategy:      strategy,
		DiffAlgorithm: diffAlgo,
		ExtraOptions:  append([]string(nil), p.ExtraRebaseOptions...),
		Interactive:   p.Interactive,
	}

	author := Identity{Name: p.AuthorName, Email: p.AuthorEmail}
	if (author.Name == "") != (author.Email == "") {
		return nil, NewConfigError("", "author override requires both --author-name and --author-email")
	}
	if err := validateIdentityField("--author-name", author.Name); err != nil {
		return nil, NewConfigError(author.Name, "%s", err.Error())
	}
	if err := validateIdentityField("--author-email", author.Email); err != nil {
		return nil, NewConfigError(author.Email, "%s", err.Error())
	}
	cfg.AuthorOverride = author

	committer := Identity{Name: p.CommitterName, Email: p.CommitterEmail}
	if (committer.Name == "") != (committer.Email == "") {
		return nil, NewConfigError("", "committer override requires both --committer-name and --committer-email")
	}
	if err := validateIdentityField("--committer-name", committer.Name); err != nil {
		return nil, NewConfigError(committer.Name, "%s", err.Error())
	}
	if err := validateIdentityField("--committer-email", committer.Email); err != nil {
		return nil, NewConfigError(committer.Email, "%s", err.Error())
	}
	cfg.CommitterOverride = committer

	coauthor := CoauthorAction(p.CoauthorAction)
	if coauthor == "" {
		if !author.isZero() || !committer.isZero() {
			coauthor = CoauthorClaude
		} else {
			coauthor = CoauthorKeep
		}
	}
	switch coauthor {
	case CoauthorClaude, CoauthorAll, CoauthorKeep:
	default:
		return nil, NewConfigError(p.CoauthorAction, "unknown coauthor action (want claude, all, or keep)")
	}
	cfg.CoauthorAction = coauthor

	backend := FilterBackendChoice(p.FilterBackend)
	if backend == "" {
		backend = BackendAuto
	}
	switch backend {
	case BackendAuto, BackendLegacy, BackendModern:
	default:
		return nil, NewConfigError(p.FilterBackend, "unknown filter backend (want auto, legacy, or modern)")
	}
	cfg.FilterBackend = backend

	level := LogLevel(p.LogLevel)
	if level == "" {
		level = LogInfo
	}
	switch level {
	case LogDebug, LogInfo, LogWarning, LogError:
	default:
		return nil, NewConfigError(p.LogLevel, "unknown log level (want debug, info, warning, or error)")
	}
	cfg.LogLevel = level

	return cfg, nil
}

// resolveMappings implements the legacy-vs-explicit xor rule: exactly
// one of (a) a single mapping derived from -d/-p, or (b) one or more
// explicit -m specs, must be present.
func resolveMappings(p Params) ([]PathMapping, error) {
	hasLegacy := p.SourceSubdir != "" || p.DestSubdir != ""
	hasExplicit := len(p.MappingSpecs) > 0

	if hasLegacy && hasExplicit {
		return nil, NewConfigError("", "-m and -d/-p are mutually exclusive; specify one mapping form")
	}

	if hasLegacy {
		return []PathMapping{{
			Source:      NormalizePath(p.SourceSubdir),
			Destination: NormalizePath(p.DestSubdir),
		}}, nil
	}

	if !hasExplicit {
		return nil, NewConfigError("", "at least one mapping is required: use -m src:dst (repeatable) or -d source_subdir [-p dest_subdir]")
	}

	mappings := make([]PathMapping, 0, len(p.MappingSpecs))
	for _, spec := range p.MappingSpecs {
		m, err := ParseMappingSpec(spec)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// validateDisjoint enforces: destinations are pairwise non-overlapping
// under the prefix-or-equal relation, and an empty destination must be
// the only mapping.
func validateDisjoint(mappings []PathMapping) error {
	if len(mappings) == 0 {
		return NewConfigError("", "at least one mapping is required")
	}

	emptyCount := 0
	for _, m := range mappings {
		if m.Destination == "" {
			emptyCount++
		}
	}
	if emptyCount > 0 && len(mappings) > 1 {
		return NewConfigError("", "a mapping with an empty destination must be the only mapping")
	}

	for i := 0; i < len(mappings); i++ {
		for j := i + 1; j < len(mappings); j++ {
			a, b := mappings[i].Destination, mappings[j].Destination
			if destinationsOverlap(a, b) {
				return NewConfigError("", "mapping destinations %q and %q overlap", a, b)
			}
		}
	}

	return nil
}
