package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse 定义了 MockChatClient 的单次预期响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatClient 是一个用于测试的 model.ToolCallingChatModel 模拟实现
// 可以返回固定响应、按顺序返回，或者根据提示词内容路由
type MockChatClient struct {
	mu sync.Mutex

	// 固定响应
	ExpectedResponse string
	ExpectedError    error

	// 按顺序响应
	SequentialResponses []MockResponse
	ResponseIndex       int
	IsSequential        bool

	// Router 不为空时优先使用，根据本次调用的消息决定返回内容
	Router func(messages []*schema.Message) MockResponse

	Calls            [][]*schema.Message
	ReceivedOptions  []*model.Options
	ReceivedMessages []*schema.Message
	// ReceivedOpenAIOptions 每次调用携带的 OpenAIOptions
	ReceivedOpenAIOptions []*OpenAIOptions
}

// NewMockChatClient 创建一个返回固定响应的 MockChatClient
func NewMockChatClient(expectedResponse string, expectedError error) *MockChatClient {
	return &MockChatClient{
		ExpectedResponse: expectedResponse,
		ExpectedError:    expectedError,
	}
}

// NewMockChatClientSequential 创建一个按顺序返回不同响应的 MockChatClient
func NewMockChatClientSequential(responses []MockResponse) *MockChatClient {
	if len(responses) == 0 {
		responses = []MockResponse{{Error: errors.New("mock client has no responses configured")}}
	}
	return &MockChatClient{
		SequentialResponses: responses,
		IsSequential:        true,
	}
}

// NewMockChatClientRouter 创建根据消息内容返回响应的 MockChatClient
func NewMockChatClientRouter(router func(messages []*schema.Message) MockResponse) *MockChatClient {
	return &MockChatClient{Router: router}
}

// Generate 模拟 LLM 的 Generate 方法
func (m *MockChatClient) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := make([]*schema.Message, len(input))
	copy(call, input)
	m.Calls = append(m.Calls, call)
	m.ReceivedMessages = append(m.ReceivedMessages, call...)
	m.ReceivedOptions = append(m.ReceivedOptions, model.GetCommonOptions(&model.Options{}, opts...))
	m.ReceivedOpenAIOptions = append(m.ReceivedOpenAIOptions, model.GetImplSpecificOptions(&OpenAIOptions{}, opts...))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var resp MockResponse
	switch {
	case m.Router != nil:
		resp = m.Router(call)
	case m.IsSequential:
		if m.ResponseIndex >= len(m.SequentialResponses) {
			return nil, errors.New("mock client has run out of sequential responses")
		}
		resp = m.SequentialResponses[m.ResponseIndex]
		m.ResponseIndex++
	default:
		resp = MockResponse{Content: m.ExpectedResponse, Error: m.ExpectedError}
	}

	if resp.Error != nil {
		return nil, resp.Error
	}
	return schema.AssistantMessage(resp.Content, nil), nil
}

// Stream 模拟 LLM 的 Stream 方法，未实现
func (m *MockChatClient) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming not implemented in MockChatClient")
}

// WithTools 满足 model.ToolCallingChatModel，模拟实现忽略工具
func (m *MockChatClient) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// CallCount 已发生的 Generate 调用次数
func (m *MockChatClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// GetReceivedMessages 返回所有调用中累积的已接收消息
func (m *MockChatClient) GetReceivedMessages() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*schema.Message, len(m.ReceivedMessages))
	copy(out, m.ReceivedMessages)
	return out
}

// LastUserContent 返回一次调用中最后一条用户消息
func LastUserContent(messages []*schema.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == schema.User {
			return messages[i].Content
		}
	}
	return ""
}

// SystemContent 返回一次调用中的系统消息
func SystemContent(messages []*schema.Message) string {
	var parts []string
	for _, msg := range messages {
		if msg.Role == schema.System {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, "\n")
}

var _ model.ToolCallingChatModel = (*MockChatClient)(nil)
