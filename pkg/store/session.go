package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/models"
	"github.com/notefold/notefold.go/pkg/ref"
	"github.com/notefold/notefold.go/pkg/state"
)

// stateKeyUser is the persisted-state key for the cached identity.
const stateKeyUser = "user"

// placeholderEmail stands in for addresses the server never exposes for
// other users.
const placeholderEmail = "***@***.***"

// Paths reachable without a session. Losing the identity anywhere else
// redirects to the login page.
var unauthenticatedPaths = map[string]bool{
	"/login":    true,
	"/register": true,
}

// SessionStore holds the authenticated identity and a cache of other
// users' profiles. The identity survives restarts through the persisted
// state file; profiles resolve lazily with a placeholder until the fetch
// lands.
type SessionStore struct {
	api    *api.Client
	state  *state.Store
	nav    Navigator
	logger logger.Logger

	mu    sync.Mutex
	users map[int]*ref.Ref[models.User]

	// User publishes the authenticated identity, nil when logged out.
	User *ref.Ref[*models.UserInfo]

	ReloadErr *ref.Ref[string]
}

// NewSessionStore creates a SessionStore, restoring a previously persisted
// identity when one exists.
func NewSessionStore(client *api.Client, st *state.Store, nav Navigator, log logger.Logger) *SessionStore {
	if nav == nil {
		nav = NopNavigator()
	}
	s := &SessionStore{
		api:       client,
		state:     st,
		nav:       nav,
		logger:    log,
		users:     make(map[int]*ref.Ref[models.User]),
		User:      ref.New[*models.UserInfo](nil),
		ReloadErr: ref.New(""),
	}

	if st != nil {
		var cached models.UserInfo
		if ok, err := st.Get(stateKeyUser, &cached); err != nil {
			log.Warn("session: persisted identity unreadable", "error", err)
		} else if ok {
			s.User.Set(&cached)
			s.users[cached.ID] = ref.New(cached.User)
		}
	}
	return s
}

// Identity returns a copy of the authenticated identity, or nil.
func (s *SessionStore) Identity() *models.UserInfo {
	info := s.User.Get()
	if info == nil {
		return nil
	}
	copied := *info
	return &copied
}

// Reload refreshes the identity from the server. A failure clears the
// identity, since the token evidently no longer works.
func (s *SessionStore) Reload(ctx context.Context) error {
	info, err := s.api.Me(ctx)
	if err != nil {
		s.ReloadErr.Set(err.Error())
		s.setIdentity(nil)
		return err
	}
	s.ReloadErr.Set("")
	s.setIdentity(info)
	return nil
}

// SetIdentity installs the authenticated identity, persisting it. Passing
// nil logs out locally and redirects to the login page unless the current
// path is reachable unauthenticated.
func (s *SessionStore) SetIdentity(info *models.UserInfo) {
	s.setIdentity(info)
}

func (s *SessionStore) setIdentity(info *models.UserInfo) {
	var refresh *ref.Ref[models.User]
	s.mu.Lock()
	if prev := s.User.Get(); prev != nil && (info == nil || prev.ID != info.ID) {
		delete(s.users, prev.ID)
	}
	if info != nil {
		copied := *info
		info = &copied
		if r, ok := s.users[info.ID]; ok {
			refresh = r
		} else {
			s.users[info.ID] = ref.New(info.User)
		}
	}
	s.mu.Unlock()
	if refresh != nil {
		refresh.Set(info.User)
	}

	s.User.Set(info)
	if s.state != nil {
		var err error
		if info == nil {
			err = s.state.Delete(stateKeyUser)
		} else {
			err = s.state.Set(stateKeyUser, info)
		}
		if err != nil {
			s.logger.Warn("session: persisting identity failed", "error", err)
		}
	}
	if info == nil && !unauthenticatedPaths[s.nav.Current()] {
		s.nav.Push("/login")
	}
}

// GetUser returns an observable profile for the given user id. The first
// call for an id yields a placeholder immediately and refines it in the
// background once the fetch completes; later calls return the same ref.
func (s *SessionStore) GetUser(id int) *ref.Ref[models.User] {
	s.mu.Lock()
	if r, ok := s.users[id]; ok {
		s.mu.Unlock()
		return r
	}
	r := ref.New(models.User{
		ID:       id,
		Username: fmt.Sprintf("User#%d", id),
		Email:    placeholderEmail,
	})
	s.users[id] = r
	s.mu.Unlock()

	go func() {
		user, err := s.api.GetUser(context.Background(), id)
		if err != nil {
			s.logger.Warn("session: user lookup failed", "user_id", id, "error", err)
			return
		}
		r.Set(*user)
	}()
	return r
}
