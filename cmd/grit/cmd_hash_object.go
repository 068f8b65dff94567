package main

import (
	"fmt"
	"os"

	"github.com/gritvc/grit/pkg/object"
	"github.com/gritvc/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newHashObjectCmd() *cobra.Command {
	var write bool
	var objTypeStr string

	cmd := &cobra.Command{
		Use:   "hash-object <file>",
		Short: "Compute an object identifier, optionally storing the object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := parseObjectType(objTypeStr)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %q: %w", args[0], err)
			}
			if objType != object.TypeBlob {
				// Decode and re-encode non-blob input so the stored payload
				// is canonical even when the raw file is not (unsorted tree
				// entries, stray ordering). Re-encoding also rejects
				// duplicate paths and malformed fields.
				data, err = canonicalPayload(objType, data)
				if err != nil {
					return err
				}
			}

			var h object.Hash
			if write {
				r, err := repo.Open(".")
				if err != nil {
					return err
				}
				h, err = r.Store.Write(objType, data)
				if err != nil {
					return err
				}
			} else {
				h = object.HashObject(objType, data)
			}

			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "store the object, not just hash it")
	cmd.Flags().StringVarP(&objTypeStr, "type", "t", "blob", "object type (blob, tree, commit, tag)")

	return cmd
}

func parseObjectType(s string) (object.ObjectType, error) {
	switch object.ObjectType(s) {
	case object.TypeBlob, object.TypeTree, object.TypeCommit, object.TypeTag:
		return object.ObjectType(s), nil
	}
	return "", fmt.Errorf("unknown object type %q", s)
}

func canonicalPayload(objType object.ObjectType, data []byte) ([]byte, error) {
	switch objType {
	case object.TypeTree:
		tr, err := object.UnmarshalTree(data)
		if err != nil {
			return nil, err
		}
		return object.MarshalTree(tr)
	case object.TypeCommit:
		c, err := object.UnmarshalCommit(data)
		if err != nil {
			return nil, err
		}
		return object.MarshalCommit(c)
	case object.TypeTag:
		tg, err := object.UnmarshalTag(data)
		if err != nil {
			return nil, err
		}
		return object.MarshalTag(tg)
	}
	return data, nil
}
