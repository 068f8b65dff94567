package main

import (
	"fmt"
	"sort"

	"github.com/gritvc/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newUpdateRefCmd() *cobra.Command {
	var symbolic bool
	var oldValue string

	cmd := &cobra.Command{
		Use:   "update-ref <ref> <value>",
		Short: "Write an object identifier or symbolic target into a ref",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			name, value := args[0], args[1]

			if symbolic {
				return r.SetSymbolicRef(name, value)
			}

			h, err := r.Resolve(value)
			if err != nil {
				return err
			}
			if oldValue != "" {
				old, err := r.Resolve(oldValue)
				if err != nil {
					return fmt.Errorf("old value %q: %w", oldValue, err)
				}
				return r.UpdateRefCAS(name, h, old)
			}
			return r.UpdateRef(name, h)
		},
	}

	cmd.Flags().BoolVar(&symbolic, "symbolic", false, "store a symbolic target instead of a hash")
	cmd.Flags().StringVar(&oldValue, "old", "", "only update if the ref currently resolves to this value")

	return cmd
}

func newShowRefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-ref [prefix]",
		Short: "List references and their targets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			refs, err := r.ListRefs(prefix)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(refs))
			for name := range refs {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%s refs/%s\n", refs[name], name)
			}
			return nil
		},
	}
}
