package store

import (
	"sync"

	"github.com/notefold/notefold.go/pkg/gateway"
	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/ref"
)

// Participant is another session present in the current page's channel.
// The connection id, not the user id, identifies it: one user can hold
// several sessions on the same page.
type Participant struct {
	CID      int
	UID      int
	Username string
}

// PresenceStore tracks who else is in the current channel. It is driven
// entirely by gateway notifications.
type PresenceStore struct {
	logger logger.Logger

	mu           sync.Mutex
	participants []Participant

	// Participants publishes the channel roster in join order.
	Participants *ref.Ref[[]Participant]
}

// NewPresenceStore creates an empty PresenceStore.
func NewPresenceStore(log logger.Logger) *PresenceStore {
	return &PresenceStore{
		logger:       log,
		Participants: ref.New([]Participant(nil)),
	}
}

// Register subscribes the store to channel membership notifications. A
// join confirmation resets the roster: the server re-announces everyone
// already present.
func (s *PresenceStore) Register(d *gateway.Dispatcher) {
	gateway.On(d, gateway.KindJoinedChannel, func(gateway.JoinedChannel) {
		s.reset()
	})
	gateway.On(d, gateway.KindLeftChannel, func(gateway.LeftChannel) {
		s.reset()
	})
	gateway.On(d, gateway.KindUserJoinedChannel, func(msg gateway.UserJoinedChannel) {
		s.add(Participant{CID: msg.CID, UID: msg.UID, Username: msg.Username})
	})
	gateway.On(d, gateway.KindUserLeftChannel, func(msg gateway.UserLeftChannel) {
		s.remove(msg.CID)
	})
}

// Roster returns a copy of the current participants.
func (s *PresenceStore) Roster() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	roster := make([]Participant, len(s.participants))
	copy(roster, s.participants)
	return roster
}

func (s *PresenceStore) reset() {
	s.mu.Lock()
	s.participants = nil
	s.mu.Unlock()
	s.publish()
}

func (s *PresenceStore) add(p Participant) {
	s.mu.Lock()
	replaced := false
	for i := range s.participants {
		if s.participants[i].CID == p.CID {
			s.participants[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		s.participants = append(s.participants, p)
	}
	s.mu.Unlock()
	s.publish()
}

func (s *PresenceStore) remove(cid int) {
	s.mu.Lock()
	for i := range s.participants {
		if s.participants[i].CID == cid {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.publish()
}

func (s *PresenceStore) publish() {
	s.Participants.Set(s.Roster())
}
