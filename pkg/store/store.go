// Package store holds the local caches the SDK keeps consistent with the
// server: pages, blocks, the authenticated session, channel presence and
// the theme preference. Stores are explicit service objects wired together
// by the composition root; they expose their state as observable refs and
// mirror request failures into per-operation error slots for UI display.
package store

import "errors"

// ErrNoCurrentPage is returned by block operations when no page is active.
// Blocks are always page-scoped; there is no page-less block.
var ErrNoCurrentPage = errors.New("store: no page is currently active")

// ErrTitleTooShort is returned by ChangeTitle before any network call when
// the new title has fewer than three characters.
var ErrTitleTooShort = errors.New("store: page title must be at least 3 characters")

// Navigator abstracts the embedding application's routing, letting stores
// keep the visible location consistent with persisted state.
type Navigator interface {
	// Current returns the path currently displayed.
	Current() string
	// Push navigates to path, keeping history.
	Push(path string)
	// Replace navigates to path, replacing the current history entry.
	Replace(path string)
}

type nopNavigator struct{}

func (nopNavigator) Current() string { return "/" }
func (nopNavigator) Push(string)     {}
func (nopNavigator) Replace(string)  {}

// NopNavigator returns a Navigator that ignores every call, for embedders
// without a routing layer.
func NopNavigator() Navigator { return nopNavigator{} }
