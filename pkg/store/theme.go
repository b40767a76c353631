package store

import (
	"fmt"

	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/ref"
	"github.com/notefold/notefold.go/pkg/state"
)

const stateKeyTheme = "theme"

// Scheme is a color scheme preference.
type Scheme string

const (
	SchemeLight  Scheme = "light"
	SchemeDark   Scheme = "dark"
	SchemeSystem Scheme = "system"
)

// ThemeStore keeps the color scheme preference, persisted across restarts.
type ThemeStore struct {
	state  *state.Store
	logger logger.Logger

	system *ref.Ref[Scheme]

	// Theme publishes the stored preference, SchemeSystem by default.
	Theme *ref.Ref[Scheme]
}

// NewThemeStore creates a ThemeStore, restoring a persisted preference
// when one exists.
func NewThemeStore(st *state.Store, log logger.Logger) *ThemeStore {
	s := &ThemeStore{
		state:  st,
		logger: log,
		system: ref.New(SchemeLight),
		Theme:  ref.New(SchemeSystem),
	}
	if st != nil {
		var saved Scheme
		if ok, err := st.Get(stateKeyTheme, &saved); err != nil {
			log.Warn("theme: persisted preference unreadable", "error", err)
		} else if ok && validScheme(saved) {
			s.Theme.Set(saved)
		}
	}
	return s
}

// Set stores and persists the preference.
func (s *ThemeStore) Set(scheme Scheme) error {
	if !validScheme(scheme) {
		return fmt.Errorf("store: unknown color scheme %q", scheme)
	}
	s.Theme.Set(scheme)
	if s.state != nil {
		if err := s.state.Set(stateKeyTheme, scheme); err != nil {
			s.logger.Warn("theme: persisting preference failed", "error", err)
		}
	}
	return nil
}

// SetSystemScheme records what the platform currently prefers, resolved
// when the preference is SchemeSystem.
func (s *ThemeStore) SetSystemScheme(scheme Scheme) {
	if scheme == SchemeLight || scheme == SchemeDark {
		s.system.Set(scheme)
	}
}

// Effective resolves the preference to a concrete light or dark scheme.
func (s *ThemeStore) Effective() Scheme {
	if pref := s.Theme.Get(); pref != SchemeSystem {
		return pref
	}
	return s.system.Get()
}

func validScheme(s Scheme) bool {
	return s == SchemeLight || s == SchemeDark || s == SchemeSystem
}
