package inmemory

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viberoom/server/internal/repository/connection"
	"github.com/viberoom/server/pkg/wsrouter"
)

func TestSessions(t *testing.T) {
	r := NewRepo(slog.Default())
	conn := wsrouter.NewConn(nil)

	require.NoError(t, r.Add(conn, "c1"))

	got, err := r.GetConn("c1")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	id, err := r.GetConnectionId(conn)
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	// fresh sessions have no room
	roomId, err := r.GetRoomId("c1")
	require.NoError(t, err)
	assert.Empty(t, roomId)

	require.NoError(t, r.SetRoomId("c1", "r1"))
	roomId, err = r.GetRoomId("c1")
	require.NoError(t, err)
	assert.Equal(t, "r1", roomId)

	// empty room id clears the membership
	require.NoError(t, r.SetRoomId("c1", ""))
	roomId, err = r.GetRoomId("c1")
	require.NoError(t, err)
	assert.Empty(t, roomId)

	require.NoError(t, r.RemoveByConnectionId("c1"))

	_, err = r.GetConn("c1")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.GetConnectionId(conn)
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

func TestAddRejectsDuplicates(t *testing.T) {
	r := NewRepo(slog.Default())
	conn := wsrouter.NewConn(nil)

	require.NoError(t, r.Add(conn, "c1"))

	assert.ErrorIs(t, r.Add(conn, "c2"), connection.ErrAlreadyExists)
	assert.ErrorIs(t, r.Add(wsrouter.NewConn(nil), "c1"), connection.ErrAlreadyExists)

	// a removed connection can be registered again
	require.NoError(t, r.RemoveByConnectionId("c1"))
	require.NoError(t, r.Add(conn, "c1"))
}

func TestUnknownSession(t *testing.T) {
	r := NewRepo(slog.Default())

	assert.ErrorIs(t, r.RemoveByConnectionId("ghost"), connection.ErrNotFound)
	assert.ErrorIs(t, r.SetRoomId("ghost", "r1"), connection.ErrNotFound)

	_, err := r.GetRoomId("ghost")
	assert.ErrorIs(t, err, connection.ErrNotFound)
}
