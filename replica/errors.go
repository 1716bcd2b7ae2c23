package replica

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrCycle       = errors.New("replica: cycle detected")
	ErrMaxDepth    = errors.New("replica: max depth exceeded")
	ErrUnsupported = errors.New("replica: unsupported type")
)

// PathError reports where in a value a walk failed.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s at %s", e.Err.Error(), e.Path)
}

func (e *PathError) Unwrap() error { return e.Err }

// ============================================================
// Paths
// ============================================================
//
// Paths are rendered JSONPath style: $, $.key, $[3], $["odd key"].

const rootPath = "$"

func keyPath(parent, key string) string {
	if isIdent(key) {
		return parent + "." + key
	}
	return parent + "[" + strconv.Quote(key) + "]"
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
