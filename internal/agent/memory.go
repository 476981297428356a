// internal/agent/memory.go
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studynet-advisor/internal/common/logger"
)

const sessionKeyPrefix = "advisor:session:"

// Conversation roles stored in session memory.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Message is a single conversation turn kept in session memory.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionMemory keeps a sliding window of recent conversation turns per
// session in Redis. A nil client disables memory, every call becomes a
// no-op.
type SessionMemory struct {
	redis  *redis.Client
	window int
	ttl    time.Duration
	logger logger.Logger
}

func NewSessionMemory(client *redis.Client, window int, ttl time.Duration, log logger.Logger) *SessionMemory {
	if window <= 0 {
		window = 6
	}
	return &SessionMemory{
		redis:  client,
		window: window,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "session_memory"}),
	}
}

// EnsureSessionID returns the given session ID, or a fresh UUID when empty.
func EnsureSessionID(sessionID string) string {
	if sessionID == "" {
		return uuid.NewString()
	}
	return sessionID
}

// Append records one turn and trims the window. Memory failures are logged
// and swallowed, a lost turn must not fail the query.
func (m *SessionMemory) Append(ctx context.Context, sessionID, role, content string) {
	if m.redis == nil || sessionID == "" {
		return
	}

	payload, err := json.Marshal(Message{Role: role, Content: content})
	if err != nil {
		return
	}

	key := sessionKeyPrefix + sessionID
	pipe := m.redis.Pipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-m.window), -1)
	pipe.Expire(ctx, key, m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		m.logger.Warn("failed to persist session turn", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

// History returns the windowed conversation for the session, oldest first.
func (m *SessionMemory) History(ctx context.Context, sessionID string) []Message {
	if m.redis == nil || sessionID == "" {
		return nil
	}

	raw, err := m.redis.LRange(ctx, sessionKeyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		if err != redis.Nil {
			m.logger.Warn("failed to load session history", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		return nil
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

// Clear drops the session's stored history.
func (m *SessionMemory) Clear(ctx context.Context, sessionID string) error {
	if m.redis == nil || sessionID == "" {
		return nil
	}
	if err := m.redis.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	return nil
}
