package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier as string. It is a
// variable so tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier.
func New() string { return NewFunc() }

// SuffixFunc returns a short random identifier fragment of the requested
// length, upper-cased. Work-order numbers embed it next to a timestamp
// component. It is a variable so tests can stub it.
var SuffixFunc = func(size int) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	if size > len(id) {
		size = len(id)
	}
	return strings.ToUpper(id[:size])
}

// Suffix returns a short random identifier fragment.
func Suffix(size int) string { return SuffixFunc(size) }
