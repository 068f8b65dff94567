package main

import (
	"fmt"

	"github.com/gritvc/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	var dest string
	var clean bool

	cmd := &cobra.Command{
		Use:   "checkout <target>",
		Short: "Switch the working tree to a branch, tag or commit",
		Long: "Switch the working tree to a branch, tag or commit. With --dest the\n" +
			"snapshot is exported into the given directory instead, leaving the\n" +
			"repository's own working tree and HEAD untouched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			target := args[0]

			if dest != "" {
				return r.CheckoutSnapshot(target, dest, clean)
			}

			if err := r.Checkout(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "switched to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "export the snapshot into this directory")
	cmd.Flags().BoolVar(&clean, "clean", false, "with --dest, empty the directory first")

	return cmd
}
