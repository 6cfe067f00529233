package room

import (
	"context"

	"github.com/viberoom/server/pkg/wsrouter"
)

const (
	ActionPlay  = "play"
	ActionPause = "pause"
	ActionNext  = "next"
)

// fallback label when "next" is requested with no explicit track and the
// playlist gives no answer
const nextTrackFallback = "Next Track"

type MusicControlParams struct {
	ConnectionId string
	Action       string
	TrackId      string
}

type MusicControlResponse struct {
	Music MusicState
	Conns []*wsrouter.Conn
}

// MusicControl applies a playback action on behalf of the room owner. A
// non-owner gets ErrNotOwner, which the caller drops without a broadcast, an
// error frame, or any state change. The server keeps only the logical track
// reference: playback progress ticks on each client, not here.
func (s *service) MusicControl(ctx context.Context, params *MusicControlParams) (MusicControlResponse, error) {
	roomId, rs, err := s.roomOf(params.ConnectionId)
	if err != nil {
		return MusicControlResponse{}, err
	}

	rs.mu.Lock()
	p, ok := rs.participants[params.ConnectionId]
	if !ok {
		rs.mu.Unlock()
		return MusicControlResponse{}, ErrNotInRoom
	}
	if !p.isOwner {
		rs.mu.Unlock()
		return MusicControlResponse{}, ErrNotOwner
	}
	currentTrack := rs.currentTrack
	rs.mu.Unlock()

	// resolve the next track outside the room lock: the playlist lives in the
	// durable store
	track := params.TrackId
	if params.Action == ActionNext && track == "" {
		track = s.nextTrack(ctx, roomId, currentTrack)
	}

	rs.mu.Lock()
	if _, ok := rs.participants[params.ConnectionId]; !ok {
		rs.mu.Unlock()
		return MusicControlResponse{}, ErrNotInRoom
	}

	switch params.Action {
	case ActionPlay:
		rs.isPlaying = true
	case ActionPause:
		rs.isPlaying = false
	case ActionNext:
		rs.currentTrack = track
		rs.trackPosition = 0
	}

	music := rs.music()
	connectionIds := rs.connectionIds("")
	rs.mu.Unlock()

	s.reconciler.enqueue("update room track", func(ctx context.Context) error {
		return s.recordRepo.UpdateRoomTrack(ctx, roomId, music.CurrentTrack)
	})

	return MusicControlResponse{
		Music: music,
		Conns: s.conns(ctx, connectionIds),
	}, nil
}

// nextTrack picks the playlist entry after the current track, in play order,
// wrapping at the end. An unknown current track starts the playlist over.
func (s *service) nextTrack(ctx context.Context, roomId, currentTrack string) string {
	entries, err := s.recordRepo.GetPlaylist(ctx, roomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get playlist", "room_id", roomId, "error", err)
		return nextTrackFallback
	}
	if len(entries) == 0 {
		return nextTrackFallback
	}

	for i, entry := range entries {
		if entry.TrackId == currentTrack {
			return entries[(i+1)%len(entries)].TrackId
		}
	}

	return entries[0].TrackId
}
