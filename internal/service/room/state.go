package room

import (
	"sort"
	"sync"
	"time"

	"github.com/viberoom/server/internal/repository/record"
	"github.com/viberoom/server/internal/service/identity"
)

const defaultTrackLabel = "No music playing"

type participant struct {
	identity identity.Identity
	position Position
	isMuted  bool
	isOwner  bool
	joinedAt time.Time
}

// roomState is the authoritative live state of one room. Every mutation
// happens under mu, so intents against the same room serialize while intents
// against different rooms run concurrently. closed marks a state that has
// been removed from the store; a holder that observes it must retry through
// the store instead of mutating.
type roomState struct {
	mu            sync.Mutex
	closed        bool
	ownerId       string
	currentTrack  string
	isPlaying     bool
	trackPosition int
	participants  map[string]*participant
}

// users returns the roster ordered by join time. Callers must hold mu.
func (rs *roomState) users() []User {
	users := make([]User, 0, len(rs.participants))
	for connectionId, p := range rs.participants {
		users = append(users, User{
			Id:           p.identity.Id,
			Name:         p.identity.Name,
			Avatar:       p.identity.AvatarURL,
			ConnectionId: connectionId,
			Position:     p.position,
			IsMuted:      p.isMuted,
			IsOwner:      p.isOwner,
			JoinedAt:     p.joinedAt,
		})
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinedAt.Equal(users[j].JoinedAt) {
			return users[i].ConnectionId < users[j].ConnectionId
		}
		return users[i].JoinedAt.Before(users[j].JoinedAt)
	})

	return users
}

// connectionIds returns the connection ids of all participants except the
// given one. Callers must hold mu.
func (rs *roomState) connectionIds(except string) []string {
	ids := make([]string, 0, len(rs.participants))
	for connectionId := range rs.participants {
		if connectionId == except {
			continue
		}
		ids = append(ids, connectionId)
	}

	return ids
}

// music snapshots the playback state. Callers must hold mu.
func (rs *roomState) music() MusicState {
	return MusicState{
		CurrentTrack:  rs.currentTrack,
		IsPlaying:     rs.isPlaying,
		TrackPosition: rs.trackPosition,
	}
}

// stateStore is the registry of live rooms. It holds no authorization or
// broadcast logic: rooms materialize on first participant and disappear with
// the last one, nothing else.
type stateStore struct {
	mu    sync.RWMutex
	rooms map[string]*roomState
}

func newStateStore() *stateStore {
	return &stateStore{rooms: make(map[string]*roomState)}
}

func (s *stateStore) get(roomId string) (*roomState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, ok := s.rooms[roomId]
	return rs, ok
}

// getOrCreate returns the live state for roomId, materializing it from the
// durable room record when no live state exists yet.
func (s *stateStore) getOrCreate(roomId string, seed record.Room) *roomState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rs, ok := s.rooms[roomId]; ok {
		return rs
	}

	currentTrack := seed.CurrentTrack
	if currentTrack == "" {
		currentTrack = defaultTrackLabel
	}

	rs := &roomState{
		ownerId:       seed.OwnerId,
		currentTrack:  currentTrack,
		isPlaying:     true,
		trackPosition: 0,
		participants:  make(map[string]*participant),
	}
	s.rooms[roomId] = rs

	return rs
}

// remove deletes roomId only if it still maps to rs, so a room recreated
// concurrently under the same id is left alone.
func (s *stateStore) remove(roomId string, rs *roomState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.rooms[roomId]; ok && current == rs {
		delete(s.rooms, roomId)
	}
}

func (s *stateStore) has(roomId string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rooms[roomId]
	return ok
}
