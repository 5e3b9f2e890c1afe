// Package planner selects single- vs multi-path execution for a run's
// mappings. It performs no I/O: mapping validation (disjointness,
// normalization) already happened in gitmuxconfig.New, so Plan is pure
// data transformation over an already-valid mapping list.
package planner

import "github.com/gitmux/gitmux/pkg/gitmuxconfig"

// Mode distinguishes the two Filter Backend call shapes.
type Mode string

const (
	// ModeSingle means exactly one mapping; the backend's
	// RewriteSingle is called.
	ModeSingle Mode = "single"

	// ModeMultipath means two or more mappings; the backend's
	// RewriteMultipath is called so every retained commit is produced
	// exactly once regardless of how many mappings its files cross.
	ModeMultipath Mode = "multipath"
)

// Plan is the execution plan derived from a RunConfig's mappings.
type Plan struct {
	Mode     Mode
	Mappings []gitmuxconfig.PathMapping

	// RevListPaths is only set in ModeSingle. Multipath plans carry no
	// whitelist, so rev-list paths are not applied to multipath runs.
	RevListPaths []string
}

// Build builds the execution plan for cfg's already-validated mappings.
// Legacy single-subdir/single-dest arguments have already folded into
// a one-element mapping list by gitmuxconfig.New, so Build only needs to
// look at the list length.
func Build(cfg *gitmuxconfig.RunConfig) Plan {
	if len(cfg.Mappings) == 1 {
		return Plan{
			Mode:         ModeSingle,
			Mappings:     cfg.Mappings,
			RevListPaths: cfg.RevListPaths,
		}
	}
	return Plan{
		Mode:     ModeMultipath,
		Mappings: cfg.Mappings,
	}
}

// Single returns the plan's sole mapping; callers must only call this
// when Mode == ModeSingle.
func (p Plan) Single() gitmuxconfig.PathMapping {
	return p.Mappings[0]
}
