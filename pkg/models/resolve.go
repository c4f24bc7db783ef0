package models

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a reference that does not name any entity in scope.
var ErrNotFound = errors.New("models: not found")

// Keyed is implemented by every entity that is looked up by name or id.
type Keyed interface {
	Key() string
}

// Find returns the first element of scope whose key equals key, and its index.
func Find[T Keyed](scope []T, key string) (T, int, bool) {
	for i, v := range scope {
		if v.Key() == key {
			return v, i, true
		}
	}
	var zero T
	return zero, -1, false
}

// Keys returns the key of every element of scope.
func Keys[T Keyed](scope []T) []string {
	keys := make([]string, len(scope))
	for i, v := range scope {
		keys[i] = v.Key()
	}
	return keys
}

// Ref refers to an entity either by value or by identifier.
// The zero Ref resolves to nothing.
type Ref[T Keyed] struct {
	entity *T
	ident  string
}

// Resolved wraps an entity the caller already holds.
func Resolved[T Keyed](v T) Ref[T] {
	return Ref[T]{entity: &v}
}

// ByKey wraps a bare identifier.
func ByKey[T Keyed](key string) Ref[T] {
	return Ref[T]{ident: key}
}

// Key returns the identifier the reference points at.
func (r Ref[T]) Key() string {
	if r.entity != nil {
		return (*r.entity).Key()
	}
	return r.ident
}

// IsResolved reports whether the reference carries an entity value.
func (r Ref[T]) IsResolved() bool {
	return r.entity != nil
}

// String implements fmt.Stringer.
func (r Ref[T]) String() string {
	return r.Key()
}

// Resolve returns the canonical entity from scope for ref. An already resolved
// reference is re-read from scope so callers never act on a stale copy.
func Resolve[T Keyed](ref Ref[T], scope []T) (T, error) {
	key := ref.Key()
	v, _, ok := Find(scope, key)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return v, nil
}
