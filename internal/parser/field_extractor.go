package parser

import (
	"context"
	"encoding/json"
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
	"job-applier-go/pkg/agent"
)

// FieldSpec 单个待抽取字段及其说明
type FieldSpec struct {
	Name        string
	Description string
}

// FieldSchema 有序的字段列表
type FieldSchema []FieldSpec

// Defaults 返回所有字段均为空字符串的结果
func (s FieldSchema) Defaults() map[string]string {
	out := make(map[string]string, len(s))
	for _, f := range s {
		out[f.Name] = ""
	}
	return out
}

// Names 字段名列表
func (s FieldSchema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// 各分节使用的字段
var (
	ExperienceFields = FieldSchema{
		{"title", "Job title/role"},
		{"company", "Company name"},
		{"description", "Full description as written"},
	}
	EducationFields = FieldSchema{
		{"degree", "Degree name"},
		{"institution", "School/university name"},
		{"field", "Field of study"},
		{"description", "Additional details"},
	}
	ProjectFields = FieldSchema{
		{"name", "Project name"},
		{"description", "Full description"},
	}
	CertificationFields = FieldSchema{
		{"name", "Certification name"},
		{"issuer", "Issuing organization"},
	}
	NameFields = FieldSchema{
		{"firstName", "First name"},
		{"lastName", "Last name"},
	}
	SkillFields = FieldSchema{
		{"skills", "Comma-separated list of all skills"},
	}
)

// FieldExtractor 按字段说明从文本片段中抽取字段
// 返回的 map 总是包含全部字段；出错时同时返回默认值和错误
type FieldExtractor interface {
	Extract(ctx context.Context, fragment string, fields FieldSchema) (map[string]string, error)
}

const (
	defaultFragmentBudget  = 1500
	defaultFieldMaxTokens  = 500
	defaultFieldTemp       = 0.1
	defaultFieldLLMTimeout = 60 * time.Second

	fieldSystemPrompt = "Extract CV info. Return only JSON."
)

// LLMFieldExtractor 每次调用发起一次窄范围的模型请求
type LLMFieldExtractor struct {
	llm         model.ToolCallingChatModel
	logger      *log.Logger
	charBudget  int
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// FieldExtractorOption 配置 LLMFieldExtractor
type FieldExtractorOption func(*LLMFieldExtractor)

// WithFieldLogger 设置日志
func WithFieldLogger(logger *log.Logger) FieldExtractorOption {
	return func(e *LLMFieldExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCharBudget 单个片段送给模型的最大字符数
func WithCharBudget(n int) FieldExtractorOption {
	return func(e *LLMFieldExtractor) {
		if n > 0 {
			e.charBudget = n
		}
	}
}

// WithFieldCallTimeout 单次模型调用超时
func WithFieldCallTimeout(d time.Duration) FieldExtractorOption {
	return func(e *LLMFieldExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewLLMFieldExtractor 创建字段抽取器
func NewLLMFieldExtractor(llm model.ToolCallingChatModel, options ...FieldExtractorOption) *LLMFieldExtractor {
	e := &LLMFieldExtractor{
		llm:         llm,
		logger:      log.New(io.Discard, "", 0),
		charBudget:  defaultFragmentBudget,
		maxTokens:   defaultFieldMaxTokens,
		temperature: defaultFieldTemp,
		timeout:     defaultFieldLLMTimeout,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// BuildFieldPrompt 构造字段抽取提示词
func BuildFieldPrompt(fragment string, fields FieldSchema) string {
	desc := make([]string, len(fields))
	structure := make([]string, len(fields))
	for i, f := range fields {
		desc[i] = fmt.Sprintf("%s (%s)", f.Name, f.Description)
		structure[i] = fmt.Sprintf("%q: \"\"", f.Name)
	}
	return fmt.Sprintf("Extract ONLY the requested fields from this CV text.\n\n"+
		"Return ONLY valid JSON with these exact fields: %s\n\n"+
		"Text:\n%s\n\n"+
		"Format: {%s}",
		strings.Join(desc, ", "), fragment, strings.Join(structure, ", "))
}

// Extract 实现 FieldExtractor
func (e *LLMFieldExtractor) Extract(ctx context.Context, fragment string, fields FieldSchema) (map[string]string, error) {
	result := fields.Defaults()
	if strings.TrimSpace(fragment) == "" {
		return result, nil
	}

	ctx, span := otel.Tracer("job-applier/parser").Start(ctx, "FieldExtractor.Extract")
	defer span.End()
	span.SetAttributes(
		attribute.StringSlice("extract.fields", fields.Names()),
		attribute.Int("extract.fragment_len", len(fragment)),
	)

	if e.llm == nil {
		return result, fmt.Errorf("field extractor: chat model not configured")
	}

	messages := []*schema.Message{
		schema.SystemMessage(fieldSystemPrompt),
		schema.UserMessage(BuildFieldPrompt(truncateRunes(fragment, e.charBudget), fields)),
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.llm.Generate(callCtx, messages,
		model.WithTemperature(e.temperature),
		model.WithMaxTokens(e.maxTokens),
		agent.WithJSONObjectResponse(),
	)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		e.logger.Printf("字段抽取模型调用失败 fields=%v: %v", fields.Names(), err)
		return result, fmt.Errorf("field extraction call: %w", err)
	}
	if resp == nil {
		return result, fmt.Errorf("field extraction: empty model response")
	}

	var raw map[string]any
	if err := DecodeLLMJSON(resp.Content, &raw); err != nil {
		tracing.RecordFallback(span, err, tracing.ErrorTypeLLMParse, "empty-fields")
		e.logger.Printf("字段抽取结果解析失败 fields=%v: %v, 原始输出: %.200s", fields.Names(), err, resp.Content)
		return result, err
	}

	for _, f := range fields {
		result[f.Name] = stringifyField(raw[f.Name])
	}
	return result, nil
}

// stringifyField 模型偶尔返回数组或数字，统一转换成字符串
func stringifyField(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringifyField(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if name, ok := val["name"]; ok {
			return stringifyField(name)
		}
		b, _ := json.Marshal(val)
		return string(b)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
