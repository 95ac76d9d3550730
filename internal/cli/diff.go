package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/finalbiome/finalbiome-impex/internal/gamespec"
	"github.com/spf13/cobra"
)

type DiffCmd struct{}

func NewDiffCmd() *DiffCmd {
	return &DiffCmd{}
}

func (c *DiffCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "diff <old-game-spec> <new-game-spec>",
		Short:        "Show the entities that differ between two game spec files",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := gamespec.Load(args[0])
			if err != nil {
				return err
			}
			updated, err := gamespec.Load(args[1])
			if err != nil {
				return err
			}
			diffs, err := gamespec.Diff(old, updated)
			if err != nil {
				return err
			}
			renderDiffs(os.Stdout, diffs)
			return nil
		},
	}
	return cmd
}

func renderDiffs(w io.Writer, diffs []gamespec.EntityDiff) {
	if len(diffs) == 0 {
		fmt.Fprintln(w, "No differences")
		return
	}
	for _, d := range diffs {
		fmt.Fprint(w, d.Diff)
	}
	fmt.Fprintf(w, "%d entities differ\n", len(diffs))
}
