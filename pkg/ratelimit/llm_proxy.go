package ratelimit

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	defaultQPM      = 30
	qpmSafetyFactor = 0.9
)

// RateLimitedLLMModel 对 LLM 调用限流的代理
type RateLimitedLLMModel struct {
	original    model.ToolCallingChatModel
	rateLimiter *TokenBucket
}

// NewRateLimitedLLMModel 创建限流代理，桶容量为 QPM 的一半
func NewRateLimitedLLMModel(original model.ToolCallingChatModel, qpm int) *RateLimitedLLMModel {
	return &RateLimitedLLMModel{
		original:    original,
		rateLimiter: NewTokenBucket(qpm, qpm/2),
	}
}

// WithRetryPolicy 设置重试策略
func (rl *RateLimitedLLMModel) WithRetryPolicy(waitTime time.Duration, maxRetries int) *RateLimitedLLMModel {
	rl.rateLimiter.WithRetryPolicy(waitTime, maxRetries)
	return rl
}

// Generate 实现 model.ChatModel
func (rl *RateLimitedLLMModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	var response *schema.Message
	err := rl.rateLimiter.RetryWithBackoff(ctx, func() error {
		var genErr error
		response, genErr = rl.original.Generate(ctx, messages, options...)
		return genErr
	})
	return response, err
}

// Stream 实现 model.ChatModel
func (rl *RateLimitedLLMModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var stream *schema.StreamReader[*schema.Message]
	err := rl.rateLimiter.RetryWithBackoff(ctx, func() error {
		var streamErr error
		stream, streamErr = rl.original.Stream(ctx, messages, options...)
		return streamErr
	})
	return stream, err
}

// WithTools 绑定工具后共享同一个限流器
func (rl *RateLimitedLLMModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	newModel, err := rl.original.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &RateLimitedLLMModel{
		original:    newModel,
		rateLimiter: rl.rateLimiter,
	}, nil
}

// ResolveQPM customQPM 优先；否则取 limits 中该模型配额的 90%；都没有时为 30
func ResolveQPM(modelName string, limits map[string]int, customQPM int) int {
	qpm := customQPM
	if modelQPM, ok := limits[modelName]; ok && modelQPM > 0 && customQPM <= 0 {
		qpm = int(float64(modelQPM) * qpmSafetyFactor)
	}
	if qpm <= 0 {
		qpm = defaultQPM
	}
	return qpm
}

// NewLLMWithRateLimit 按配置包装模型；maxRetries<=0 时不重试
func NewLLMWithRateLimit(original model.ToolCallingChatModel, modelName string, limits map[string]int, customQPM int, maxRetries int, retryWaitTime time.Duration) model.ToolCallingChatModel {
	limited := NewRateLimitedLLMModel(original, ResolveQPM(modelName, limits, customQPM))
	limited.WithRetryPolicy(retryWaitTime, maxRetries)
	return limited
}

var _ model.ToolCallingChatModel = (*RateLimitedLLMModel)(nil)
