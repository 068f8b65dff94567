package repo

import (
	"github.com/gritvc/grit/pkg/object"
)

// Repo represents an opened grit repository. It is the explicit repository
// context threaded through every core operation; there is no ambient
// process-wide "current repository".
type Repo struct {
	RootDir string        // working directory root
	GritDir string        // .grit/ directory
	Store   *object.Store // content-addressed object store
	Config  *Config       // parsed .grit/config
}
