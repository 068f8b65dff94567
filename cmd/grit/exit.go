package main

import (
	"errors"

	"github.com/gritvc/grit/pkg/object"
	"github.com/gritvc/grit/pkg/repo"
)

// Process exit codes. The core never exits; every command error funnels
// through this mapping.
const (
	exitOK        = 0
	exitGeneric   = 1
	exitNotFound  = 2
	exitAmbiguous = 3
	exitCorrupt   = 4
	exitRefCycle  = 5
)

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, object.ErrNotFound):
		return exitNotFound
	case errors.Is(err, repo.ErrAmbiguous):
		return exitAmbiguous
	case errors.Is(err, object.ErrCorrupt):
		return exitCorrupt
	case errors.Is(err, repo.ErrRefCycle):
		return exitRefCycle
	}
	return exitGeneric
}
