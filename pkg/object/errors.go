package object

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound marks a lookup for an object that is not in the store.
var ErrNotFound = errors.New("object not found")

// ErrCorrupt marks any structural violation found while decoding: a missing
// header, a length mismatch, a hash that does not match the stored bytes, or
// a malformed payload.
var ErrCorrupt = errors.New("corrupt object")

// CorruptError carries the offending hash (when known) and the reason a
// decode was rejected. errors.Is(err, ErrCorrupt) matches it.
type CorruptError struct {
	Hash   Hash
	Reason string
}

func (e *CorruptError) Error() string {
	if e.Hash == "" {
		return fmt.Sprintf("corrupt object: %s", e.Reason)
	}
	return fmt.Sprintf("corrupt object %s: %s", e.Hash, e.Reason)
}

func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

func corruptf(format string, args ...any) *CorruptError {
	return &CorruptError{Reason: fmt.Sprintf(format, args...)}
}

// ValidHash reports whether s is a full-length lowercase hex identifier.
func ValidHash(s string) bool {
	return len(s) == 64 && isHex(s)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// NormalizeHex lowercases a candidate hex string so prefix lookups accept
// uppercase input.
func NormalizeHex(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
