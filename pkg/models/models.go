// Package models holds the data model shared between the HTTP resource
// boundary, the gateway protocol and the local stores.
package models

import "time"

// JSONMap is the opaque structured payload of a block. Its shape depends on
// the block type (a paragraph block carries a "text" field, a heading block
// a "text" and a "level", and so on). The server stores it verbatim.
type JSONMap map[string]any

// Page is a top-level document container owned by a user.
//
// ID, Author, Created and Edited are server-assigned and immutable. Title
// and Active are mutable; every mutation returns the canonical Page which
// overwrites any cached copy.
type Page struct {
	ID      int       `json:"id"`
	Title   string    `json:"title"`
	Author  int       `json:"author"`
	Created time.Time `json:"created"`
	Edited  time.Time `json:"edited"`
	Active  bool      `json:"active"`
}

// PageCreation is the payload for creating a page or changing its title.
type PageCreation struct {
	Title string `json:"title"`
}

// Block is an ordered content unit belonging to a page.
//
// Sequence is maintained by the server and is the single source of truth
// for block order within a page. Clients must not assume contiguity or any
// particular numeric spacing of sequence values.
type Block struct {
	ID       string  `json:"id"`
	PageID   int     `json:"page_id"`
	Type     string  `json:"type"`
	Data     JSONMap `json:"data"`
	Sequence int     `json:"sequence"`
}

// BlockCreation is the payload for creating a block. The id is supplied by
// the client alongside, see NewBlockID.
type BlockCreation struct {
	Type string  `json:"type"`
	Data JSONMap `json:"data"`
}

// BlockUpdate is a partial block mutation. Nil fields are left untouched.
type BlockUpdate struct {
	Type *string `json:"type,omitempty"`
	Data JSONMap `json:"data,omitempty"`
}

// User is the public profile summary of an account.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserInfo is the authenticated identity, as returned by /users/me.
type UserInfo struct {
	User
	Has2FA bool `json:"has2fa"`
}

// UserCreation is the payload for registering an account.
type UserCreation struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
