package controller

import (
	"github.com/viberoom/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdMw)
	mux.Use(c.wsLoggingMw)

	mux.Handle("alive", c.handleAlive)

	// membership
	mux.Handle("join-room", c.handleJoinRoom)
	mux.Handle("leave-room", c.handleLeaveRoom)

	// chat
	mux.Handle("send-message", c.handleSendMessage)

	// presence
	mux.Handle("user-move", c.handleUserMove)
	mux.Handle("toggle-mute", c.handleToggleMute)

	// playback
	mux.Handle("music-control", c.handleMusicControl)

	return mux
}
