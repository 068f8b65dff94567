package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gritvc/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newRmCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Remove files from the index and the working tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			// Normalize every argument up front so the index update and the
			// deletion loop operate on the same repo-relative paths.
			absPaths := make([]string, len(args))
			for i, p := range args {
				rel, err := r.RelPath(p)
				if err != nil {
					return fmt.Errorf("resolve path %q: %w", p, err)
				}
				absPaths[i] = filepath.Join(r.RootDir, filepath.FromSlash(rel))
			}

			if err := r.Unstage(absPaths); err != nil {
				return err
			}
			if cached {
				return nil
			}

			for i, abs := range absPaths {
				if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove %q: %w", args[i], err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "only remove from the index, keep the file on disk")

	return cmd
}
