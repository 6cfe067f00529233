package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/viberoom/server/internal/service/identity"
	"github.com/viberoom/server/internal/service/room"
	"github.com/viberoom/server/pkg/validator"
	"github.com/viberoom/server/pkg/wsrouter"
)

type iRoomService interface {
	Connect(ctx context.Context, params *room.ConnectParams) error
	Disconnect(ctx context.Context, params *room.DisconnectParams) (room.LeaveRoomResponse, error)
	JoinRoom(ctx context.Context, params *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(ctx context.Context, params *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	SendMessage(ctx context.Context, params *room.SendMessageParams) (room.SendMessageResponse, error)
	Move(ctx context.Context, params *room.MoveParams) (room.MoveResponse, error)
	ToggleMute(ctx context.Context, params *room.ToggleMuteParams) (room.ToggleMuteResponse, error)
	MusicControl(ctx context.Context, params *room.MusicControlParams) (room.MusicControlResponse, error)
}

type iIdentityVerifier interface {
	Verify(ctx context.Context, token string) (identity.Identity, error)
}

type controller struct {
	roomService iRoomService
	verifier    iIdentityVerifier
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, verifier iIdentityVerifier, logger *slog.Logger) *controller {
	c := controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		verifier:    verifier,
		validate:    validator.NewValidator(),
		logger:      logger,
	}

	c.wsmux = c.getWSRouter()

	return &c
}
