package agent

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"job-applier-go/internal/tracing"
	"job-applier-go/internal/types"
)

var tracer = otel.Tracer("job-applier/agent")

const defaultCallTimeout = 60 * time.Second

// PromptAgent 单轮提示词代理：系统提示 + 输入消息 -> 一次模型调用
type PromptAgent struct {
	Name         string
	SystemPrompt string

	llm         model.ToolCallingChatModel
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *log.Logger
}

// PromptOption PromptAgent 选项
type PromptOption func(*PromptAgent)

// WithTemperature 采样温度
func WithTemperature(t float32) PromptOption {
	return func(a *PromptAgent) {
		a.temperature = t
	}
}

// WithMaxTokens 最大输出 token
func WithMaxTokens(n int) PromptOption {
	return func(a *PromptAgent) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithCallTimeout 单次调用超时
func WithCallTimeout(d time.Duration) PromptOption {
	return func(a *PromptAgent) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithAgentLogger 设置日志
func WithAgentLogger(l *log.Logger) PromptOption {
	return func(a *PromptAgent) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewPromptAgent 创建代理
func NewPromptAgent(name, systemPrompt string, llm model.ToolCallingChatModel, opts ...PromptOption) *PromptAgent {
	a := &PromptAgent{
		Name:         name,
		SystemPrompt: systemPrompt,
		llm:          llm,
		temperature:  0.7,
		maxTokens:    2000,
		timeout:      defaultCallTimeout,
		logger:       log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run 以单条用户消息调用模型
func (a *PromptAgent) Run(ctx context.Context, input string) (string, error) {
	return a.RunMessages(ctx, a.SystemPrompt, []*schema.Message{schema.UserMessage(input)})
}

// RunMessages 用给定的系统提示和对话调用模型，system 为空时不发送系统消息
func (a *PromptAgent) RunMessages(ctx context.Context, system string, turns []*schema.Message) (string, error) {
	ctx, span := tracer.Start(ctx, "Agent.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.name", a.Name),
		attribute.Int("agent.turns", len(turns)),
	)

	if a.llm == nil {
		tracing.RecordError(span, ErrModelUnavailable, tracing.ErrorTypeLLM)
		return "", fmt.Errorf("agent %s: %w", a.Name, ErrModelUnavailable)
	}

	messages := make([]*schema.Message, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	messages = append(messages, turns...)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.llm.Generate(callCtx, messages,
		model.WithTemperature(a.temperature),
		model.WithMaxTokens(a.maxTokens),
	)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		a.logger.Printf("代理 '%s' 调用模型失败: %v", a.Name, err)
		return "", fmt.Errorf("agent %s: %w", a.Name, err)
	}
	if resp == nil {
		return "", fmt.Errorf("agent %s: empty model response", a.Name)
	}

	out := strings.TrimSpace(resp.Content)
	a.logger.Printf("代理 '%s' 完成，输出 %d 个字符 (用时 %.2f秒)", a.Name, len(out), time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("agent.output_len", len(out)))
	return out, nil
}

// turnMessages 把对话记录转换成模型消息，未知角色按用户处理
func turnMessages(turns []types.ChatTurn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch strings.ToLower(t.Role) {
		case "assistant":
			out = append(out, schema.AssistantMessage(t.Content, nil))
		case "system":
			out = append(out, schema.SystemMessage(t.Content))
		default:
			out = append(out, schema.UserMessage(t.Content))
		}
	}
	return out
}
