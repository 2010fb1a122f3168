package agent

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/cloudwego/eino/components/model"

	"job-applier-go/internal/parser"
)

// TitleExtractor 根据简历推荐求职职位名称
type TitleExtractor struct {
	agent    *PromptAgent
	fallback string
	logger   *log.Logger
}

// NewTitleExtractor fallback 为没有偏好职位时的默认职位
func NewTitleExtractor(llm model.ToolCallingChatModel, fallback string, logger *log.Logger) *TitleExtractor {
	if fallback == "" {
		fallback = "Software Engineer"
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &TitleExtractor{
		agent: NewPromptAgent("Job Title Extractor", jobTitleInstructions, llm,
			WithTemperature(0.3), WithMaxTokens(300), WithAgentLogger(logger)),
		fallback: fallback,
		logger:   logger,
	}
}

// Extract 返回推荐职位列表和主职位
// 模型失败或输出不是字符串数组时退回到偏好职位或默认职位
func (t *TitleExtractor) Extract(ctx context.Context, cvText, preferredRole string) ([]string, string, error) {
	if err := requireText(cvText, "CV text", 0); err != nil {
		return nil, "", err
	}

	titles, err := t.ask(ctx, cvText, preferredRole)
	if err != nil {
		t.logger.Printf("职位名称提取失败，使用默认值: %v", err)
		titles = []string{t.primaryFallback(preferredRole)}
	}

	primary := preferredRole
	if primary == "" {
		primary = t.fallback
		if len(titles) > 0 {
			primary = titles[0]
		}
	}
	return titles, primary, nil
}

func (t *TitleExtractor) primaryFallback(preferredRole string) string {
	if preferredRole != "" {
		return preferredRole
	}
	return t.fallback
}

func (t *TitleExtractor) ask(ctx context.Context, cvText, preferredRole string) ([]string, error) {
	content, err := t.agent.Run(ctx, fmt.Sprintf("CV Content:\n%s\n\nPreferred role: %s\n\nExtract relevant job titles:", cvText, preferredRole))
	if err != nil {
		return nil, err
	}
	var titles []string
	if err := parser.DecodeLLMJSON(content, &titles); err != nil {
		return nil, err
	}
	if titles == nil {
		return nil, fmt.Errorf("model returned null instead of a list")
	}
	return titles, nil
}
