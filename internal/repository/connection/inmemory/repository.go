package inmemory

import (
	"log/slog"
	"sync"

	"github.com/viberoom/server/internal/repository/connection"
	"github.com/viberoom/server/pkg/wsrouter"
)

type session struct {
	conn   *wsrouter.Conn
	roomId string
}

type repo struct {
	sessions map[string]*session
	connIds  map[*wsrouter.Conn]string
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		sessions: make(map[string]*session),
		connIds:  make(map[*wsrouter.Conn]string),
		logger:   logger,
	}
}

func (r *repo) Add(conn *wsrouter.Conn, connectionId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("connection.inmemory.Add", "connection_id", connectionId)
	if _, ok := r.connIds[conn]; ok {
		return connection.ErrAlreadyExists
	}
	if _, ok := r.sessions[connectionId]; ok {
		return connection.ErrAlreadyExists
	}

	r.sessions[connectionId] = &session{conn: conn}
	r.connIds[conn] = connectionId

	return nil
}

func (r *repo) RemoveByConnectionId(connectionId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("connection.inmemory.RemoveByConnectionId", "connection_id", connectionId)
	sess, ok := r.sessions[connectionId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connIds, sess.conn)
	delete(r.sessions, connectionId)

	return nil
}

func (r *repo) GetConn(connectionId string) (*wsrouter.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[connectionId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return sess.conn, nil
}

func (r *repo) GetConnectionId(conn *wsrouter.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connectionId, ok := r.connIds[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return connectionId, nil
}

// SetRoomId records the room the session is currently a member of.
// An empty roomId clears the membership.
func (r *repo) SetRoomId(connectionId, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("connection.inmemory.SetRoomId", "connection_id", connectionId, "room_id", roomId)
	sess, ok := r.sessions[connectionId]
	if !ok {
		return connection.ErrNotFound
	}

	sess.roomId = roomId

	return nil
}

func (r *repo) GetRoomId(connectionId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[connectionId]
	if !ok {
		return "", connection.ErrNotFound
	}

	return sess.roomId, nil
}
