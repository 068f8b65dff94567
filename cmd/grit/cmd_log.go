package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gritvc/grit/pkg/object"
	"github.com/gritvc/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int
	var firstParent bool

	cmd := &cobra.Command{
		Use:   "log [spec]",
		Short: "Show commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			spec := "HEAD"
			if len(args) == 1 {
				spec = args[0]
			}
			startHash, err := r.ResolvePeel(spec)
			if err != nil {
				return fmt.Errorf("cannot resolve %q: %w", spec, err)
			}

			var entries []*repo.WalkEntry
			if firstParent {
				entries, err = r.Log(startHash, limit)
			} else {
				var w *repo.Walker
				w, err = r.NewWalker(startHash)
				if err != nil {
					return err
				}
				entries, err = w.Collect(limit)
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			branchName := ""
			if head, err := r.Head(); err == nil && strings.HasPrefix(head, "refs/heads/") {
				branchName = strings.TrimPrefix(head, "refs/heads/")
			}
			headHash, _ := r.ResolveRef("HEAD")

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				decoration := buildDecoration(entry.Hash, headHash, branchName)
				c := entry.Commit

				if oneline {
					line := shortHash(entry.Hash)
					if decoration != "" {
						line += " " + decoration
					}
					fmt.Fprintf(out, "%s %s\n", line, firstLine(c.Message))
					continue
				}

				if decoration != "" {
					fmt.Fprintf(out, "commit %s %s\n", entry.Hash, decoration)
				} else {
					fmt.Fprintf(out, "commit %s\n", entry.Hash)
				}
				if len(c.Parents) > 1 {
					parents := make([]string, len(c.Parents))
					for i, p := range c.Parents {
						parents[i] = shortHash(p)
					}
					fmt.Fprintf(out, "Merge:  %s\n", strings.Join(parents, " "))
				}
				fmt.Fprintf(out, "Author: %s\n", c.Author)
				fmt.Fprintf(out, "Date:   %s\n", time.Unix(c.CommitTime, 0).UTC().Format("2006-01-02 15:04:05"))
				fmt.Fprintln(out)
				for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show")
	cmd.Flags().BoolVar(&firstParent, "first-parent", false, "follow only the first parent of merges")

	return cmd
}

// buildDecoration returns "(HEAD -> main)" when the commit is the current
// HEAD, or "" otherwise.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if headHash == "" || commitHash != headHash {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
