package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gritvc/grit/pkg/object"
	"github.com/gritvc/grit/pkg/repo"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"generic", errors.New("boom"), exitGeneric},
		{"not found", object.ErrNotFound, exitNotFound},
		{"wrapped not found", fmt.Errorf("resolve: %w", object.ErrNotFound), exitNotFound},
		{"ambiguous", &repo.AmbiguousError{Prefix: "ab12"}, exitAmbiguous},
		{"corrupt", &object.CorruptError{Reason: "bad length"}, exitCorrupt},
		{"ref cycle", fmt.Errorf("head: %w", repo.ErrRefCycle), exitRefCycle},
	}
	for _, tc := range cases {
		if got := exitCodeFor(tc.err); got != tc.want {
			t.Errorf("%s: exitCodeFor = %d, want %d", tc.name, got, tc.want)
		}
	}
}
