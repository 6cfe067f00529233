package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/viberoom/server/internal/repository/record"
	"github.com/viberoom/server/internal/service/identity"
	"github.com/viberoom/server/pkg/wsrouter"
)

// Joiners spawn at a random spot inside the canvas area the client renders
// avatars in.
const (
	spawnBaseX = 200
	spawnSpanX = 400
	spawnBaseY = 200
	spawnSpanY = 300
)

func randomPosition() Position {
	return Position{
		X: spawnBaseX + rand.Float64()*spawnSpanX,
		Y: spawnBaseY + rand.Float64()*spawnSpanY,
	}
}

type ConnectParams struct {
	Conn         *wsrouter.Conn
	ConnectionId string
}

// Connect registers a freshly authenticated connection as a session with no
// room membership yet.
func (s *service) Connect(ctx context.Context, params *ConnectParams) error {
	if err := s.connRepo.Add(params.Conn, params.ConnectionId); err != nil {
		s.logger.InfoContext(ctx, "failed to add connection", "error", err)
		return fmt.Errorf("failed to add connection: %w", err)
	}

	return nil
}

type JoinRoomParams struct {
	ConnectionId string
	Identity     identity.Identity
	RoomId       string
}

type JoinRoomResponse struct {
	RoomId      string
	Users       []User
	Music       MusicState
	JoinedUser  User
	OthersConns []*wsrouter.Conn
}

// JoinRoom inserts the connection into the room, materializing the live room
// from the durable record on first join. A connection already in a room is
// rejected, never silently merged.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	currentRoomId, err := s.connRepo.GetRoomId(params.ConnectionId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get session room: %w", err)
	}
	if currentRoomId != "" {
		return JoinRoomResponse{}, ErrAlreadyInRoom
	}

	roomRecord, err := s.recordRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, record.ErrRoomNotFound) {
			return JoinRoomResponse{}, ErrRoomNotFound
		}
		s.logger.InfoContext(ctx, "failed to get room record", "error", err)
		return JoinRoomResponse{}, fmt.Errorf("failed to get room record: %w", err)
	}

	p := &participant{
		identity: params.Identity,
		position: randomPosition(),
		isOwner:  params.Identity.Id == roomRecord.OwnerId,
		joinedAt: time.Now(),
	}

	var (
		users     []User
		music     MusicState
		othersIds []string
		count     int
	)
	for {
		rs := s.state.getOrCreate(params.RoomId, roomRecord)
		rs.mu.Lock()
		if rs.closed {
			rs.mu.Unlock()
			continue
		}

		rs.participants[params.ConnectionId] = p
		users = rs.users()
		music = rs.music()
		othersIds = rs.connectionIds(params.ConnectionId)
		count = len(rs.participants)
		rs.mu.Unlock()
		break
	}

	if err := s.connRepo.SetRoomId(params.ConnectionId, params.RoomId); err != nil {
		s.logger.InfoContext(ctx, "failed to set session room", "error", err)
	}

	upsertParams := record.UpsertParticipantParams{
		RoomId:    params.RoomId,
		UserId:    params.Identity.Id,
		PositionX: p.position.X,
		PositionY: p.position.Y,
		IsMuted:   false,
		JoinedAt:  p.joinedAt.Unix(),
	}
	s.reconciler.enqueue("upsert participant", func(ctx context.Context) error {
		return s.recordRepo.UpsertParticipant(ctx, &upsertParams)
	})
	s.userCountChanged(params.RoomId, count)

	return JoinRoomResponse{
		RoomId: params.RoomId,
		Users:  users,
		Music:  music,
		JoinedUser: User{
			Id:           params.Identity.Id,
			Name:         params.Identity.Name,
			Avatar:       params.Identity.AvatarURL,
			ConnectionId: params.ConnectionId,
			Position:     p.position,
			IsMuted:      false,
			IsOwner:      p.isOwner,
			JoinedAt:     p.joinedAt,
		},
		OthersConns: s.conns(ctx, othersIds),
	}, nil
}

type LeaveRoomParams struct {
	ConnectionId string
}

type LeaveRoomResponse struct {
	Left        bool
	RoomId      string
	UserId      string
	RoomDeleted bool
	OthersConns []*wsrouter.Conn
}

// LeaveRoom removes the connection's participant from its current room and
// deletes the room when the last participant is gone. A connection with no
// current room is a no-op.
func (s *service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	roomId, err := s.connRepo.GetRoomId(params.ConnectionId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to get session room: %w", err)
	}
	if roomId == "" {
		return LeaveRoomResponse{}, nil
	}

	// the session always gets its membership cleared, even if the live room
	// is already gone
	defer func() {
		if err := s.connRepo.SetRoomId(params.ConnectionId, ""); err != nil {
			s.logger.DebugContext(ctx, "failed to clear session room", "error", err)
		}
	}()

	rs, ok := s.state.get(roomId)
	if !ok {
		return LeaveRoomResponse{}, nil
	}

	rs.mu.Lock()
	p, ok := rs.participants[params.ConnectionId]
	if !ok {
		rs.mu.Unlock()
		return LeaveRoomResponse{}, nil
	}

	delete(rs.participants, params.ConnectionId)
	count := len(rs.participants)
	empty := count == 0
	if empty {
		rs.closed = true
	}
	othersIds := rs.connectionIds(params.ConnectionId)
	rs.mu.Unlock()

	if empty {
		s.state.remove(roomId, rs)
	}

	deleteParams := record.DeleteParticipantParams{
		RoomId: roomId,
		UserId: p.identity.Id,
	}
	s.reconciler.enqueue("delete participant", func(ctx context.Context) error {
		return s.recordRepo.DeleteParticipant(ctx, &deleteParams)
	})
	s.userCountChanged(roomId, count)

	return LeaveRoomResponse{
		Left:        true,
		RoomId:      roomId,
		UserId:      p.identity.Id,
		RoomDeleted: empty,
		OthersConns: s.conns(ctx, othersIds),
	}, nil
}

type DisconnectParams struct {
	ConnectionId string
}

// Disconnect runs the leave path for a closed transport connection and drops
// its session. There is no grace period: a reconnect is a brand-new session.
func (s *service) Disconnect(ctx context.Context, params *DisconnectParams) (LeaveRoomResponse, error) {
	leaveResp, err := s.LeaveRoom(ctx, &LeaveRoomParams{ConnectionId: params.ConnectionId})
	if err != nil {
		s.logger.InfoContext(ctx, "failed to leave room on disconnect", "error", err)
	}

	if err := s.connRepo.RemoveByConnectionId(params.ConnectionId); err != nil {
		s.logger.DebugContext(ctx, "failed to remove connection", "error", err)
	}

	return leaveResp, err
}

func (s *service) userCountChanged(roomId string, count int) {
	s.reconciler.enqueue("update room user count", func(ctx context.Context) error {
		return s.recordRepo.UpdateRoomUserCount(ctx, roomId, count)
	})
}
