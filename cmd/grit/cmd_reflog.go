package main

import (
	"fmt"
	"time"

	"github.com/gritvc/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newReflogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reflog [ref]",
		Short: "Show the update history of a ref",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			ref := "HEAD"
			if len(args) == 1 {
				ref = args[0]
			}
			entries, err := r.ReadReflog(ref, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				when := time.Unix(e.Timestamp, 0).UTC().Format("2006-01-02 15:04:05")
				fmt.Fprintf(out, "%s %s -> %s %s (%s)\n",
					when, shortHash(e.OldHash), shortHash(e.NewHash), e.Ref, e.Reason)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of entries to show (0 = all)")

	return cmd
}
