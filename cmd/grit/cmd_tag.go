package main

import (
	"fmt"

	"github.com/gritvc/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newTagCmd() *cobra.Command {
	var annotate bool
	var message string
	var deleteName string
	var force bool

	cmd := &cobra.Command{
		Use:   "tag [name] [target]",
		Short: "List, create or delete tags",
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
				return r.DeleteTag(deleteName)
			}

			if len(args) == 0 {
				names, err := r.ListTags()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			targetSpec := "HEAD"
			if len(args) == 2 {
				targetSpec = args[1]
			}
			target, err := r.Resolve(targetSpec)
			if err != nil {
				return fmt.Errorf("target %q: %w", targetSpec, err)
			}

			if annotate {
				if message == "" {
					return fmt.Errorf("annotated tags require a message (-m)")
				}
				cfg, err := loadUserConfig()
				if err != nil {
					return err
				}
				tagHash, err := r.CreateAnnotatedTag(args[0], target, cfg.authorString(), message, force)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tagHash)
				return nil
			}
			return r.CreateTag(args[0], target, force)
		},
	}

	cmd.Flags().BoolVarP(&annotate, "annotate", "a", false, "create an annotated tag object")
	cmd.Flags().StringVarP(&message, "message", "m", "", "annotated tag message")
	cmd.Flags().StringVarP(&deleteName, "delete", "d", "", "delete the named tag")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing tag")

	return cmd
}
