package main

import (
	"fmt"

	"github.com/gritvc/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newRevParseCmd() *cobra.Command {
	var peel bool

	cmd := &cobra.Command{
		Use:   "rev-parse <spec>",
		Short: "Resolve a name to an object identifier",
		Long: "Resolve a name specification (full hash, unique prefix, branch, tag,\n" +
			"HEAD or explicit ref path) to a full object identifier.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			resolve := r.Resolve
			if peel {
				resolve = r.ResolvePeel
			}
			h, err := resolve(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVar(&peel, "peel", false, "peel annotated tags to their target object")

	return cmd
}
