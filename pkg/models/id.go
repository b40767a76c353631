package models

import "github.com/oklog/ulid/v2"

// NewBlockID returns a fresh client-generated block identifier. Block ids
// are opaque strings as far as the server is concerned; ULIDs keep them
// unique across clients and roughly sortable by creation time.
func NewBlockID() string {
	return ulid.Make().String()
}
