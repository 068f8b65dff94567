package main

import (
	"fmt"

	"github.com/gritvc/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	var deleteName string

	cmd := &cobra.Command{
		Use:   "branch [name] [start-point]",
		Short: "List, create or delete branches",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if deleteName != "" {
				if len(args) > 0 {
					return fmt.Errorf("cannot combine -d with positional arguments")
				}
				return r.DeleteBranch(deleteName)
			}

			if len(args) == 0 {
				names, err := r.ListBranches()
				if err != nil {
					return err
				}
				current, _ := r.CurrentBranch()

				out := cmd.OutOrStdout()
				for _, name := range names {
					marker := "  "
					if name == current {
						marker = "* "
					}
					fmt.Fprintf(out, "%s%s\n", marker, name)
				}
				return nil
			}

			startSpec := "HEAD"
			if len(args) == 2 {
				startSpec = args[1]
			}
			target, err := r.ResolvePeel(startSpec)
			if err != nil {
				return fmt.Errorf("start point %q: %w", startSpec, err)
			}
			return r.CreateBranch(args[0], target)
		},
	}

	cmd.Flags().StringVarP(&deleteName, "delete", "d", "", "delete the named branch")

	return cmd
}
