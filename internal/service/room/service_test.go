package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	conninmemory "github.com/viberoom/server/internal/repository/connection/inmemory"
	"github.com/viberoom/server/internal/repository/record"
	recordredis "github.com/viberoom/server/internal/repository/record/redis"
	"github.com/viberoom/server/internal/service/identity"
	"github.com/viberoom/server/pkg/wsrouter"
)

type recordRepo interface {
	iRecordRepo
	SetUser(ctx context.Context, params *record.SetUserParams) error
	SetRoom(ctx context.Context, params *record.SetRoomParams) error
	AddPlaylistEntry(ctx context.Context, params *record.AddPlaylistEntryParams) error
	GetParticipantIds(ctx context.Context, roomId string) ([]string, error)
	GetParticipant(ctx context.Context, roomId, userId string) (record.Participant, error)
	GetMessages(ctx context.Context, roomId string) ([]record.Message, error)
}

func newTestService(t *testing.T) (*service, recordRepo) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := recordredis.NewRepo(rc, slog.Default())
	connRepo := conninmemory.NewRepo(slog.Default())

	return NewService(repo, connRepo, 64, slog.Default()), repo
}

func seedRoom(t *testing.T, repo recordRepo, roomId, ownerId string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repo.SetUser(ctx, &record.SetUserParams{
		UserId: ownerId,
		Name:   "owner of " + roomId,
		Email:  ownerId + "@example.com",
	}))
	require.NoError(t, repo.SetRoom(ctx, &record.SetRoomParams{
		RoomId:   roomId,
		Name:     "room " + roomId,
		OwnerId:  ownerId,
		MaxUsers: 10,
	}))
}

func connect(t *testing.T, s *service, connectionId string) *wsrouter.Conn {
	t.Helper()

	conn := wsrouter.NewConn(nil)
	require.NoError(t, s.Connect(context.Background(), &ConnectParams{
		Conn:         conn,
		ConnectionId: connectionId,
	}))

	return conn
}

func TestRoomLifecycle(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	seedRoom(t, repo, "r1", "u1")
	require.NoError(t, repo.SetUser(ctx, &record.SetUserParams{UserId: "u2", Name: "bob"}))

	identA := identity.Identity{Id: "u1", Name: "alice", AvatarURL: "a.png"}
	identB := identity.Identity{Id: "u2", Name: "bob", AvatarURL: "b.png"}

	connect(t, s, "c1")
	connect(t, s, "c2")

	// join an unknown room
	_, err := s.JoinRoom(ctx, &JoinRoomParams{ConnectionId: "c2", Identity: identB, RoomId: "nope"})
	require.ErrorIs(t, err, ErrRoomNotFound)

	// first join materializes the room
	joinAResp, err := s.JoinRoom(ctx, &JoinRoomParams{ConnectionId: "c1", Identity: identA, RoomId: "r1"})
	require.NoError(t, err)
	assert.True(t, s.state.has("r1"), "room must be live after first join")
	assert.Len(t, joinAResp.Users, 1)
	assert.Empty(t, joinAResp.OthersConns)
	assert.True(t, joinAResp.JoinedUser.IsOwner, "owner identity must join as owner")
	assert.True(t, joinAResp.Music.IsPlaying)
	assert.Equal(t, "No music playing", joinAResp.Music.CurrentTrack)
	assert.Equal(t, 0, joinAResp.Music.TrackPosition)
	assert.GreaterOrEqual(t, joinAResp.JoinedUser.Position.X, 200.0)
	assert.Less(t, joinAResp.JoinedUser.Position.X, 600.0)
	assert.GreaterOrEqual(t, joinAResp.JoinedUser.Position.Y, 200.0)
	assert.Less(t, joinAResp.JoinedUser.Position.Y, 500.0)

	// a connection holds at most one membership: duplicate join is rejected
	// without side effects
	_, err = s.JoinRoom(ctx, &JoinRoomParams{ConnectionId: "c1", Identity: identA, RoomId: "r1"})
	require.ErrorIs(t, err, ErrAlreadyInRoom)
	rs, ok := s.state.get("r1")
	require.True(t, ok)
	rs.mu.Lock()
	assert.Len(t, rs.participants, 1)
	rs.mu.Unlock()

	joinBResp, err := s.JoinRoom(ctx, &JoinRoomParams{ConnectionId: "c2", Identity: identB, RoomId: "r1"})
	require.NoError(t, err)
	assert.Len(t, joinBResp.Users, 2)
	assert.Len(t, joinBResp.OthersConns, 1)
	assert.False(t, joinBResp.JoinedUser.IsOwner)
	assert.Equal(t, "u1", joinBResp.Users[0].Id, "roster is ordered by join time")
	assert.Equal(t, "u2", joinBResp.Users[1].Id)

	// chat echoes to everyone including the sender
	sendResp, err := s.SendMessage(ctx, &SendMessageParams{ConnectionId: "c1", Content: "hi"})
	require.NoError(t, err)
	assert.Len(t, sendResp.Conns, 2)
	assert.Equal(t, "hi", sendResp.Message.Content)
	assert.Equal(t, "u1", sendResp.Message.UserId)
	assert.Equal(t, "alice", sendResp.Message.UserName)
	assert.NotEmpty(t, sendResp.Message.Id)
	assert.NotEmpty(t, sendResp.Message.Timestamp)

	_, err = s.SendMessage(ctx, &SendMessageParams{ConnectionId: "c1", Content: "   "})
	require.ErrorIs(t, err, ErrEmptyContent)

	// movement reaches the rest of the room only
	moveResp, err := s.Move(ctx, &MoveParams{ConnectionId: "c1", Position: Position{X: 42, Y: 7}})
	require.NoError(t, err)
	assert.Len(t, moveResp.OthersConns, 1)
	assert.Equal(t, Position{X: 42, Y: 7}, moveResp.Position)
	assert.Equal(t, "u1", moveResp.UserId)

	// repeating a mute is idempotent on state but still broadcast
	for i := 0; i < 2; i++ {
		muteResp, err := s.ToggleMute(ctx, &ToggleMuteParams{ConnectionId: "c2", IsMuted: true})
		require.NoError(t, err)
		assert.True(t, muteResp.IsMuted)
		assert.Len(t, muteResp.OthersConns, 1)
	}
	rs.mu.Lock()
	assert.True(t, rs.participants["c2"].isMuted)
	rs.mu.Unlock()

	// playback control from a non-owner changes nothing
	_, err = s.MusicControl(ctx, &MusicControlParams{ConnectionId: "c2", Action: ActionPause})
	require.ErrorIs(t, err, ErrNotOwner)
	rs.mu.Lock()
	assert.True(t, rs.isPlaying)
	rs.mu.Unlock()

	pauseResp, err := s.MusicControl(ctx, &MusicControlParams{ConnectionId: "c1", Action: ActionPause})
	require.NoError(t, err)
	assert.False(t, pauseResp.Music.IsPlaying)
	assert.Len(t, pauseResp.Conns, 2)

	playResp, err := s.MusicControl(ctx, &MusicControlParams{ConnectionId: "c1", Action: ActionPlay})
	require.NoError(t, err)
	assert.True(t, playResp.Music.IsPlaying)

	nextResp, err := s.MusicControl(ctx, &MusicControlParams{ConnectionId: "c1", Action: ActionNext, TrackId: "t9"})
	require.NoError(t, err)
	assert.Equal(t, "t9", nextResp.Music.CurrentTrack)
	assert.Equal(t, 0, nextResp.Music.TrackPosition)

	// non-last disconnect keeps the room alive
	leaveBResp, err := s.Disconnect(ctx, &DisconnectParams{ConnectionId: "c2"})
	require.NoError(t, err)
	assert.True(t, leaveBResp.Left)
	assert.False(t, leaveBResp.RoomDeleted)
	assert.Equal(t, "u2", leaveBResp.UserId)
	assert.Len(t, leaveBResp.OthersConns, 1)
	assert.True(t, s.state.has("r1"))

	// last disconnect removes the room from the store
	leaveAResp, err := s.Disconnect(ctx, &DisconnectParams{ConnectionId: "c1"})
	require.NoError(t, err)
	assert.True(t, leaveAResp.Left)
	assert.True(t, leaveAResp.RoomDeleted)
	assert.False(t, s.state.has("r1"))

	// drain the reconciler, then check the durable mirror
	s.Close()

	participantIds, err := repo.GetParticipantIds(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, participantIds)

	messages, err := repo.GetMessages(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, "u1", messages[0].UserId)

	roomRecord, err := repo.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "t9", roomRecord.CurrentTrack)
	assert.Equal(t, 0, roomRecord.CurrentUsers)
}

func TestIntentsRequireMembership(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	seedRoom(t, repo, "r1", "u1")
	connect(t, s, "c1")

	_, err := s.SendMessage(ctx, &SendMessageParams{ConnectionId: "c1", Content: "hi"})
	assert.ErrorIs(t, err, ErrNotInRoom)

	_, err = s.Move(ctx, &MoveParams{ConnectionId: "c1", Position: Position{X: 1, Y: 2}})
	assert.ErrorIs(t, err, ErrNotInRoom)

	_, err = s.ToggleMute(ctx, &ToggleMuteParams{ConnectionId: "c1", IsMuted: true})
	assert.ErrorIs(t, err, ErrNotInRoom)

	_, err = s.MusicControl(ctx, &MusicControlParams{ConnectionId: "c1", Action: ActionPlay})
	assert.ErrorIs(t, err, ErrNotInRoom)

	// leaving without a room is a no-op, not an error
	leaveResp, err := s.LeaveRoom(ctx, &LeaveRoomParams{ConnectionId: "c1"})
	require.NoError(t, err)
	assert.False(t, leaveResp.Left)

	s.Close()
}

func TestRoomsAreIsolated(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	seedRoom(t, repo, "r1", "u1")
	seedRoom(t, repo, "r2", "u2")

	connect(t, s, "c1")
	connect(t, s, "c2")

	_, err := s.JoinRoom(ctx, &JoinRoomParams{
		ConnectionId: "c1",
		Identity:     identity.Identity{Id: "u1", Name: "alice"},
		RoomId:       "r1",
	})
	require.NoError(t, err)
	_, err = s.JoinRoom(ctx, &JoinRoomParams{
		ConnectionId: "c2",
		Identity:     identity.Identity{Id: "u2", Name: "bob"},
		RoomId:       "r2",
	})
	require.NoError(t, err)

	// a move in r1 is invisible to r2
	moveResp, err := s.Move(ctx, &MoveParams{ConnectionId: "c1", Position: Position{X: 5, Y: 5}})
	require.NoError(t, err)
	assert.Empty(t, moveResp.OthersConns)

	sendResp, err := s.SendMessage(ctx, &SendMessageParams{ConnectionId: "c2", Content: "solo"})
	require.NoError(t, err)
	assert.Len(t, sendResp.Conns, 1)

	s.Close()
}

func TestNextTrackFollowsPlaylist(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	seedRoom(t, repo, "r1", "u1")
	for i, trackId := range []string{"t1", "t2", "t3"} {
		require.NoError(t, repo.AddPlaylistEntry(ctx, &record.AddPlaylistEntryParams{
			RoomId:    "r1",
			TrackId:   trackId,
			PlayOrder: i + 1,
		}))
	}

	connect(t, s, "c1")
	_, err := s.JoinRoom(ctx, &JoinRoomParams{
		ConnectionId: "c1",
		Identity:     identity.Identity{Id: "u1", Name: "alice"},
		RoomId:       "r1",
	})
	require.NoError(t, err)

	// the current track is not in the playlist, so "next" starts it over
	resp, err := s.MusicControl(ctx, &MusicControlParams{ConnectionId: "c1", Action: ActionNext})
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.Music.CurrentTrack)

	resp, err = s.MusicControl(ctx, &MusicControlParams{ConnectionId: "c1", Action: ActionNext})
	require.NoError(t, err)
	assert.Equal(t, "t2", resp.Music.CurrentTrack)

	resp, err = s.MusicControl(ctx, &MusicControlParams{ConnectionId: "c1", Action: ActionNext})
	require.NoError(t, err)
	assert.Equal(t, "t3", resp.Music.CurrentTrack)

	// wraps at the end
	resp, err = s.MusicControl(ctx, &MusicControlParams{ConnectionId: "c1", Action: ActionNext})
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.Music.CurrentTrack)

	s.Close()
}

// Intents against the same room serialize on the room lock while intents
// against different rooms proceed independently. Run with -race.
func TestConcurrentIntentsAcrossRooms(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	seedRoom(t, repo, "r1", "owner1")
	seedRoom(t, repo, "r2", "owner2")

	// resident owners keep both rooms alive while the others churn
	for i, roomId := range []string{"r1", "r2"} {
		ownerId := fmt.Sprintf("owner%d", i+1)
		connect(t, s, "resident-"+roomId)
		_, err := s.JoinRoom(ctx, &JoinRoomParams{
			ConnectionId: "resident-" + roomId,
			Identity:     identity.Identity{Id: ownerId, Name: ownerId},
			RoomId:       roomId,
		})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()

			roomId := "r1"
			if w%2 == 1 {
				roomId = "r2"
			}
			connectionId := fmt.Sprintf("churn-conn-%d", w)
			userId := fmt.Sprintf("churn-user-%d", w)

			if !assert.NoError(t, s.Connect(ctx, &ConnectParams{
				Conn:         wsrouter.NewConn(nil),
				ConnectionId: connectionId,
			})) {
				return
			}
			_, err := s.JoinRoom(ctx, &JoinRoomParams{
				ConnectionId: connectionId,
				Identity:     identity.Identity{Id: userId, Name: userId},
				RoomId:       roomId,
			})
			if !assert.NoError(t, err) {
				return
			}

			for i := 0; i < 20; i++ {
				_, err := s.Move(ctx, &MoveParams{
					ConnectionId: connectionId,
					Position:     Position{X: float64(i), Y: float64(i)},
				})
				assert.NoError(t, err)

				sendResp, err := s.SendMessage(ctx, &SendMessageParams{
					ConnectionId: connectionId,
					Content:      fmt.Sprintf("m-%d-%d", w, i),
				})
				if assert.NoError(t, err) {
					// sender plus at most the resident and three other churners
					assert.GreaterOrEqual(t, len(sendResp.Conns), 1)
					assert.LessOrEqual(t, len(sendResp.Conns), 5)
				}

				_, err = s.ToggleMute(ctx, &ToggleMuteParams{
					ConnectionId: connectionId,
					IsMuted:      i%2 == 0,
				})
				assert.NoError(t, err)
			}

			leaveResp, err := s.Disconnect(ctx, &DisconnectParams{ConnectionId: connectionId})
			if assert.NoError(t, err) {
				assert.True(t, leaveResp.Left)
				// the resident keeps the room alive
				assert.False(t, leaveResp.RoomDeleted)
			}
		}()
	}
	wg.Wait()

	// only the residents remain
	for i, roomId := range []string{"r1", "r2"} {
		require.True(t, s.state.has(roomId))
		rs, ok := s.state.get(roomId)
		require.True(t, ok)
		rs.mu.Lock()
		users := rs.users()
		rs.mu.Unlock()
		require.Len(t, users, 1)
		assert.Equal(t, fmt.Sprintf("owner%d", i+1), users[0].Id)
	}

	for _, roomId := range []string{"r1", "r2"} {
		leaveResp, err := s.Disconnect(ctx, &DisconnectParams{ConnectionId: "resident-" + roomId})
		require.NoError(t, err)
		assert.True(t, leaveResp.RoomDeleted)
		assert.False(t, s.state.has(roomId))
	}

	s.Close()
}

func TestReconnectIsAFreshParticipant(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	seedRoom(t, repo, "r1", "u1")
	ident := identity.Identity{Id: "u1", Name: "alice"}

	connect(t, s, "c1")
	first, err := s.JoinRoom(ctx, &JoinRoomParams{ConnectionId: "c1", Identity: ident, RoomId: "r1"})
	require.NoError(t, err)

	_, err = s.Disconnect(ctx, &DisconnectParams{ConnectionId: "c1"})
	require.NoError(t, err)
	assert.False(t, s.state.has("r1"))

	connect(t, s, "c9")
	second, err := s.JoinRoom(ctx, &JoinRoomParams{ConnectionId: "c9", Identity: ident, RoomId: "r1"})
	require.NoError(t, err)

	assert.NotEqual(t, first.JoinedUser.ConnectionId, second.JoinedUser.ConnectionId)
	assert.Len(t, second.Users, 1, "no stale participant survives a reconnect")

	s.Close()
}
