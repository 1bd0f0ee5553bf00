// Package linkx provides lookups that demand a unique match.
//
// Hypermedia payloads describe navigation as lists of relation-tagged links.
// The server guarantees at most one link per relation, so a lookup has exactly
// three outcomes: no match, one match, or a contract violation when more than
// one element matches. FindUnique encodes that policy once for every caller.
package linkx

import "errors"

var (
	// ErrNotFound is returned when no element satisfies the predicate.
	ErrNotFound = errors.New("no matching element")

	// ErrAmbiguous is returned when more than one element satisfies the
	// predicate.
	ErrAmbiguous = errors.New("more than one matching element")
)

// FindUnique returns the single element of items for which match reports true.
//
// Returns ErrNotFound when nothing matches and ErrAmbiguous when two or more
// elements match; in both cases the zero value of T is returned.
func FindUnique[T any](items []T, match func(T) bool) (T, error) {
	var (
		found T
		count int
	)
	for _, it := range items {
		if !match(it) {
			continue
		}
		count++
		if count > 1 {
			var zero T
			return zero, ErrAmbiguous
		}
		found = it
	}
	if count == 0 {
		return found, ErrNotFound
	}
	return found, nil
}
