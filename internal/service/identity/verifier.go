package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viberoom/server/internal/repository/record"
)

// ErrAuthentication is returned for any credential failure: missing or
// malformed token, bad signature, expiry, or an unknown user. Connection
// setup must fail hard on it.
var ErrAuthentication = errors.New("authentication error")

const defaultAvatarURL = "/placeholder.svg?height=40&width=40"

// Identity is the resolved, immutable view of the connecting user.
type Identity struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar"`
}

type iUserRepo interface {
	GetUser(ctx context.Context, userId string) (record.User, error)
}

type Verifier struct {
	secret   []byte
	userRepo iUserRepo
	logger   *slog.Logger
}

func NewVerifier(secret string, userRepo iUserRepo, logger *slog.Logger) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		userRepo: userRepo,
		logger:   logger,
	}
}

type claims struct {
	UserId string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Verify parses the bearer token and resolves it to an Identity through the
// record store. It never mutates anything and is safe to call repeatedly.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrAuthentication
	}

	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		v.logger.DebugContext(ctx, "token rejected", "error", err)
		return Identity{}, ErrAuthentication
	}

	if c.UserId == "" {
		return Identity{}, ErrAuthentication
	}

	user, err := v.userRepo.GetUser(ctx, c.UserId)
	if err != nil {
		v.logger.DebugContext(ctx, "failed to resolve user", "user_id", c.UserId, "error", err)
		return Identity{}, ErrAuthentication
	}

	avatarURL := user.AvatarURL
	if avatarURL == "" {
		avatarURL = defaultAvatarURL
	}

	return Identity{
		Id:        c.UserId,
		Name:      user.Name,
		AvatarURL: avatarURL,
	}, nil
}
