package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "trackfit-session||"
	tokensSetKey     = "trackfit-sessions"

	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"
)

var ErrSessionNotFound = errors.New("session not found")

var _ Checker = (*SessionChecker)(nil)
var _ Checker = (*SessionTestChecker)(nil)

// Checker resolves a session token into the ID of the user owning it.
type Checker interface {
	UserID(ctx context.Context, token string) (string, error)
}

// SessionChecker reads the sessions the identity provider bridge stores in redis.
type SessionChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewSessionChecker(ttl time.Duration, redisClient *redis.Client) *SessionChecker {
	return &SessionChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

// UserID returns ErrSessionNotFound for unknown, malformed and expired sessions.
func (c *SessionChecker) UserID(ctx context.Context, token string) (string, error) {
	session, err := readSession(ctx, c.redisClient, token)
	if err != nil {
		return "", err
	}
	if time.Since(session.CreatedAt) > c.ttl {
		return "", ErrSessionNotFound
	}
	return session.UserID, nil
}

type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
}

func readSession(ctx context.Context, redisClient *redis.Client, token string) (*Session, error) {
	fields, err := redisClient.HGetAll(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	userID := fields[fieldUserID]
	if userID == "" {
		return nil, ErrSessionNotFound
	}
	createdAtUnix, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	return &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}

type SessionTestChecker struct {
	Sessions map[string]string
}

func NewSessionTestChecker() *SessionTestChecker {
	return &SessionTestChecker{
		Sessions: map[string]string{},
	}
}

func (c *SessionTestChecker) UserID(_ context.Context, token string) (string, error) {
	userID, ok := c.Sessions[token]
	if !ok {
		return "", ErrSessionNotFound
	}
	return userID, nil
}
