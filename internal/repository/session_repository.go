package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

// GameSessionRepository keeps mini-game session state in Redis so that a
// session survives restarts and never lives as ambient process state.
type GameSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameSessionRepository constructs a GameSessionRepository.
func NewGameSessionRepository(client *redis.Client, ttl time.Duration) *GameSessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &GameSessionRepository{client: client, ttl: ttl}
}

func gameSessionKey(sessionID string) string {
	return "game:session:" + sessionID
}

// Get loads the session state for the given session ID.
func (r *GameSessionRepository) Get(ctx context.Context, sessionID string) (*models.GameSession, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, gameSessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get game session: %w", err)
	}
	var session models.GameSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal game session: %w", err)
	}
	return &session, nil
}

// Save stores the session state, refreshing its TTL.
func (r *GameSessionRepository) Save(ctx context.Context, session *models.GameSession) error {
	if r.client == nil {
		return nil
	}
	session.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal game session: %w", err)
	}
	if err := r.client.Set(ctx, gameSessionKey(session.SessionID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set game session: %w", err)
	}
	return nil
}

// Delete removes a session once the game is over.
func (r *GameSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, gameSessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete game session: %w", err)
	}
	return nil
}
