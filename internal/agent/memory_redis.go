package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"job-applier-go/internal/constants"
	"job-applier-go/internal/types"
)

// RedisChatMemory 每个会话一个 LIST，元素是 JSON 编码的 ChatTurn
type RedisChatMemory struct {
	client   redis.Cmdable
	ttl      time.Duration
	maxTurns int
}

// NewRedisChatMemory ttl 为 0 时不过期，maxTurns<=0 时不裁剪
func NewRedisChatMemory(client redis.Cmdable, ttl time.Duration, maxTurns int) (*RedisChatMemory, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &RedisChatMemory{client: client, ttl: ttl, maxTurns: maxTurns}, nil
}

// SessionKey 会话在 Redis 中的键
func SessionKey(sessionID string) string {
	return fmt.Sprintf(constants.KeyChatSession, sessionID)
}

// History 实现 ChatMemory
func (r *RedisChatMemory) History(ctx context.Context, sessionID string, limit int) ([]types.ChatTurn, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := r.client.LRange(ctx, SessionKey(sessionID), start, -1).Result()
	if err == redis.Nil {
		return []types.ChatTurn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chat history %s: %w", sessionID, err)
	}

	turns := make([]types.ChatTurn, 0, len(raw))
	for _, item := range raw {
		var t types.ChatTurn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("decode chat turn for session %s: %w", sessionID, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Append 实现 ChatMemory，RPUSH + LTRIM + EXPIRE 在一个事务里执行
func (r *RedisChatMemory) Append(ctx context.Context, sessionID string, turns ...types.ChatTurn) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode chat turn for session %s: %w", sessionID, err)
		}
		values = append(values, b)
	}

	key := SessionKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if r.maxTurns > 0 {
		pipe.LTrim(ctx, key, -int64(r.maxTurns), -1)
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat history %s: %w", sessionID, err)
	}
	return nil
}

// Clear 实现 ChatMemory
func (r *RedisChatMemory) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, SessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear chat history %s: %w", sessionID, err)
	}
	return nil
}
