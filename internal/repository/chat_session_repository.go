package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChatMessage is one turn of a chatbot conversation kept in Redis.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatSessionRepository keeps per-user chatbot history in Redis with a
// sliding TTL so stale conversations expire on their own.
type ChatSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewChatSessionRepository constructs a ChatSessionRepository.
func NewChatSessionRepository(client *redis.Client, ttl time.Duration) *ChatSessionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ChatSessionRepository{client: client, ttl: ttl}
}

func chatSessionKey(userID string) string {
	return "chat:session:" + userID
}

// History returns the stored conversation for a user, oldest first.
func (r *ChatSessionRepository) History(ctx context.Context, userID string) ([]ChatMessage, error) {
	if r.client == nil {
		return nil, nil
	}
	raw, err := r.client.LRange(ctx, chatSessionKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis chat history: %w", err)
	}
	messages := make([]ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Append adds messages to the conversation and refreshes the TTL.
func (r *ChatSessionRepository) Append(ctx context.Context, userID string, messages ...ChatMessage) error {
	if r.client == nil {
		return nil
	}
	key := chatSessionKey(userID)
	for _, msg := range messages {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal chat message: %w", err)
		}
		if err := r.client.RPush(ctx, key, payload).Err(); err != nil {
			return fmt.Errorf("redis append chat message: %w", err)
		}
	}
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis expire chat session: %w", err)
	}
	return nil
}

// Reset discards the stored conversation for a user.
func (r *ChatSessionRepository) Reset(ctx context.Context, userID string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, chatSessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis reset chat session: %w", err)
	}
	return nil
}
