package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitmux/gitmux/pkg/filter/trailer"
)

var filterMsgCoauthorAction string

// filterMsgCmd is the hidden re-entry point git filter-branch's
// --msg-filter hook shells out to: it reads a commit message from
// stdin, scrubs co-author trailers per --coauthor-action, and writes
// the result to stdout. Kept as a subcommand of the same binary so the
// trailer-scrubbing logic lives in one place (pkg/filter/trailer)
// instead of being reimplemented in the filter-branch shell script.
var filterMsgCmd = &cobra.Command{
	Use:    "__filter-msg",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading commit message from stdin: %w", err)
		}
		scrubbed := trailer.Scrub(string(input), trailer.Action(filterMsgCoauthorAction))
		_, err = os.Stdout.WriteString(scrubbed)
		return err
	},
}

func init() {
	filterMsgCmd.Flags().StringVar(&filterMsgCoauthorAction, "coauthor-action", string(trailer.ActionKeep), "claude, all, or keep")
}
