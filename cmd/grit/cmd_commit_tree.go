package main

import (
	"fmt"
	"time"

	"github.com/gritvc/grit/pkg/object"
	"github.com/gritvc/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitTreeCmd() *cobra.Command {
	var message string
	var parentSpecs []string

	cmd := &cobra.Command{
		Use:   "commit-tree <tree>",
		Short: "Create a commit object from an existing tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			treeHash, err := r.Resolve(args[0])
			if err != nil {
				return err
			}

			// Parent order is meaningful and preserved as given.
			parents := make([]object.Hash, 0, len(parentSpecs))
			for _, spec := range parentSpecs {
				p, err := r.Resolve(spec)
				if err != nil {
					return fmt.Errorf("parent %q: %w", spec, err)
				}
				parents = append(parents, p)
			}

			cfg, err := loadUserConfig()
			if err != nil {
				return err
			}

			h, err := r.CommitTree(treeHash, parents, message, cfg.authorString(), time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringArrayVarP(&parentSpecs, "parent", "p", nil, "parent commit (repeatable, order preserved)")

	return cmd
}
