package model

import "github.com/oklog/ulid/v2"

// NewID returns a lexicographically sortable identifier.
func NewID() string {
	return ulid.Make().String()
}
