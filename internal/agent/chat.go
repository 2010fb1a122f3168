package agent

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"

	"job-applier-go/internal/parser"
	"job-applier-go/internal/tracing"
	"job-applier-go/internal/types"
)

// ChatRequest 一次对话请求
type ChatRequest struct {
	Message   string
	Context   types.ChatContext
	History   []types.ChatTurn
	SessionID string
}

// ChatReply 助手回复，ProfileUpdate 只有在识别到更新时才非空
type ChatReply struct {
	Response      string
	ProfileUpdate *types.ProfileUpdate
	SessionID     string
}

// ChatOption ChatAgent 选项
type ChatOption func(*ChatAgent)

// WithPersona 覆盖人设提示，需要包含 {{USER_CONTEXT}}
func WithPersona(instructions string) ChatOption {
	return func(c *ChatAgent) {
		if strings.TrimSpace(instructions) != "" {
			c.persona = instructions
		}
	}
}

// WithHistoryTurns 携带的历史轮数
func WithHistoryTurns(n int) ChatOption {
	return func(c *ChatAgent) {
		if n > 0 {
			c.historyTurns = n
		}
	}
}

// WithMemory 启用会话记忆
func WithMemory(m ChatMemory) ChatOption {
	return func(c *ChatAgent) {
		c.memory = m
	}
}

// WithDetector 档案更新识别使用的模型，nil 表示关闭
func WithDetector(llm model.ToolCallingChatModel) ChatOption {
	return func(c *ChatAgent) {
		c.detectorModel = llm
	}
}

// WithChatLogger 设置日志
func WithChatLogger(l *log.Logger) ChatOption {
	return func(c *ChatAgent) {
		if l != nil {
			c.logger = l
		}
	}
}

// ChatAgent 职业助手对话，回复和档案更新识别并发执行
type ChatAgent struct {
	chat          *PromptAgent
	detector      *PromptAgent
	detectorModel model.ToolCallingChatModel
	persona       string
	historyTurns  int
	memory        ChatMemory
	logger        *log.Logger
}

// NewChatAgent 创建对话代理
func NewChatAgent(llm model.ToolCallingChatModel, opts ...ChatOption) *ChatAgent {
	c := &ChatAgent{
		persona:      DefaultPersonaInstructions,
		historyTurns: 10,
		logger:       log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.chat = NewPromptAgent("Neilwe Chat", "", llm,
		WithTemperature(0.7), WithMaxTokens(800), WithAgentLogger(c.logger))
	if c.detectorModel != nil {
		c.detector = NewPromptAgent("Profile Update Detector", detectorInstructions, c.detectorModel,
			WithTemperature(0), WithMaxTokens(400), WithAgentLogger(c.logger))
	}
	return c
}

// Instructions 把用户上下文填入人设提示
func (c *ChatAgent) Instructions(cc types.ChatContext) string {
	return strings.ReplaceAll(c.persona, UserContextPlaceholder, BuildChatContext(cc))
}

// Chat 生成回复
func (c *ChatAgent) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, invalid("Message is required")
	}

	ctx, span := tracer.Start(ctx, "ChatAgent.Chat")
	defer span.End()

	history := req.History
	if len(history) == 0 && req.SessionID != "" && c.memory != nil {
		loaded, err := c.memory.History(ctx, req.SessionID, c.historyTurns)
		if err != nil {
			c.logger.Printf("加载会话 %s 历史失败: %v", req.SessionID, err)
		} else {
			history = loaded
		}
	}
	history = lastN(history, c.historyTurns)
	span.SetAttributes(attribute.Int("chat.history_turns", len(history)))

	turns := turnMessages(history)
	turns = append(turns, schema.UserMessage(req.Message))

	var (
		wg       sync.WaitGroup
		response string
		chatErr  error
		update   *types.ProfileUpdate
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		response, chatErr = c.chat.RunMessages(ctx, c.Instructions(req.Context), turns)
	}()
	if c.detector != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			update = c.DetectProfileUpdate(ctx, req.Message, &req.Context.Profile)
		}()
	}
	wg.Wait()

	if chatErr != nil {
		tracing.RecordError(span, chatErr, tracing.ErrorTypeLLM)
		return nil, chatErr
	}

	if req.SessionID != "" && c.memory != nil {
		err := c.memory.Append(ctx, req.SessionID,
			types.ChatTurn{Role: "user", Content: req.Message},
			types.ChatTurn{Role: "assistant", Content: response},
		)
		if err != nil {
			c.logger.Printf("保存会话 %s 失败: %v", req.SessionID, err)
		}
	}

	span.SetAttributes(attribute.Bool("chat.profile_update", update != nil))
	return &ChatReply{Response: response, ProfileUpdate: update, SessionID: req.SessionID}, nil
}

// lastN 保留最后 n 轮
func lastN(turns []types.ChatTurn, n int) []types.ChatTurn {
	if n > 0 && len(turns) > n {
		return turns[len(turns)-n:]
	}
	return turns
}

// DetectProfileUpdate 判断消息里是否有新的档案信息
// 任何失败或 has_update 为 false 时返回 nil，调用方负责让用户确认
func (c *ChatAgent) DetectProfileUpdate(ctx context.Context, message string, profile *types.UserProfile) *types.ProfileUpdate {
	if c.detector == nil {
		return nil
	}
	prompt := fmt.Sprintf("User message: %q\n\nCurrent profile:\n%s\n\n"+
		"Does this message contain new profile information the user wants to add?",
		message, BuildUserContext(profile))

	content, err := c.detector.Run(ctx, prompt)
	if err != nil {
		c.logger.Printf("档案更新识别失败: %v", err)
		return nil
	}
	var update types.ProfileUpdate
	if err := parser.DecodeLLMJSON(content, &update); err != nil {
		c.logger.Printf("档案更新识别结果无法解析: %v", err)
		return nil
	}
	if !update.HasUpdate {
		return nil
	}
	return &update
}
