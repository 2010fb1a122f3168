package agent

import (
	"context"
	"fmt"
	"sync"

	"job-applier-go/internal/types"
)

// ChatMemory 对话历史存储
type ChatMemory interface {
	// History 返回会话最近 limit 轮，会话不存在时返回空切片
	History(ctx context.Context, sessionID string, limit int) ([]types.ChatTurn, error)
	// Append 追加若干轮，超过保留上限的旧记录被丢弃
	Append(ctx context.Context, sessionID string, turns ...types.ChatTurn) error
	// Clear 删除会话，会话不存在时静默成功
	Clear(ctx context.Context, sessionID string) error
}

// InMemoryChatMemory 进程内实现，Redis 不可用时使用
type InMemoryChatMemory struct {
	mu        sync.RWMutex
	histories map[string][]types.ChatTurn
	maxTurns  int
}

// NewInMemoryChatMemory maxTurns<=0 表示不限制
func NewInMemoryChatMemory(maxTurns int) *InMemoryChatMemory {
	return &InMemoryChatMemory{
		histories: make(map[string][]types.ChatTurn),
		maxTurns:  maxTurns,
	}
}

// History 实现 ChatMemory
func (m *InMemoryChatMemory) History(_ context.Context, sessionID string, limit int) ([]types.ChatTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.histories[sessionID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	cpy := make([]types.ChatTurn, len(history))
	copy(cpy, history)
	return cpy, nil
}

// Append 实现 ChatMemory
func (m *InMemoryChatMemory) Append(_ context.Context, sessionID string, turns ...types.ChatTurn) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if len(turns) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.histories[sessionID], turns...)
	if m.maxTurns > 0 && len(history) > m.maxTurns {
		history = append([]types.ChatTurn(nil), history[len(history)-m.maxTurns:]...)
	}
	m.histories[sessionID] = history
	return nil
}

// Clear 实现 ChatMemory
func (m *InMemoryChatMemory) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.histories, sessionID)
	return nil
}
