package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Service manages the stored sessions: the identity provider bridge registers
// them, and expired ones are cleaned up periodically.
type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewService(ttl time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func (s *Service) Register(ctx context.Context, token, userID string, createdAt time.Time) error {
	if token == "" || userID == "" {
		return errors.New("token and user id must be set")
	}

	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.HSet(
		ctx, sessionKey,
		fieldUserID, userID,
		fieldCreatedAt, createdAt.Unix(),
	).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	// add token to list of sessions
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return fmt.Errorf("add session token: %w", err)
	}

	return nil
}

func (s *Service) Revoke(ctx context.Context, token string) error {
	if err := s.redisClient.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return fmt.Errorf("remove session token: %w", err)
	}
	return nil
}

// ScanAndClean revokes the expired and the broken sessions.
func (s *Service) ScanAndClean(ctx context.Context) {
	tokens, err := s.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("scan and clean sessions: get tokens: %s", err)
		return
	}

	log.Debugf("scan and clean sessions: checking %d tokens", len(tokens))
	cleaned := 0
	for _, token := range tokens {
		session, err := readSession(ctx, s.redisClient, token)
		switch {
		case errors.Is(err, ErrSessionNotFound):
		case err != nil:
			log.Errorf("scan and clean sessions: read session: %s", err)
			continue
		case time.Since(session.CreatedAt) <= s.ttl:
			continue
		}

		if err := s.Revoke(ctx, token); err != nil {
			log.Errorf("scan and clean sessions: %s", err)
			continue
		}
		cleaned++
	}
	log.Debugf("scan and clean sessions: %d sessions removed", cleaned)
}
