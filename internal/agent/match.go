package agent

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"go.opentelemetry.io/otel/attribute"

	"job-applier-go/internal/constants"
	"job-applier-go/internal/parser"
	"job-applier-go/internal/tracing"
	"job-applier-go/internal/types"
	"job-applier-go/pkg/utils"
)

// 匹配分权重，三项之和为 1
const (
	KeywordWeight  = 0.3
	SemanticWeight = 0.3
	ModelWeight    = 0.4
)

// BlendMatchScore 0.3*关键词重合 + 0.3*语义相似 + 0.4*模型分，每项先截断到 [0,1]
func BlendMatchScore(keyword, semantic, modelScore float64) float64 {
	return KeywordWeight*clamp01(keyword) + SemanticWeight*clamp01(semantic) + ModelWeight*clamp01(modelScore)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

var keywordToken = regexp.MustCompile(`[a-z][a-z0-9+#.]*[a-z0-9+#]|[a-z]`)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the and for with you your our are will have has from that this
		who what when where which their they them into onto about able work working team teams
		role roles job jobs including include includes within across other such must should
		would could can may also all any each more most some than then there these those very
		experience years year strong good great excellent ability skills skill knowledge using
		use used per etc not but its been being was were one two three new well need needs
		looking seeking required requirement requirements preferred plus know knows
		we to is in on of an as at be by or if it do so us up no my me`) {
		stopwords[w] = struct{}{}
	}
}

// keywords 小写、长度至少 2、去掉常见虚词后的去重词集合
func keywords(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range keywordToken.FindAllString(strings.ToLower(text), -1) {
		if len(tok) < 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

// KeywordOverlap 职位描述关键词中出现在简历里的比例
func KeywordOverlap(resume, jobDescription string) float64 {
	jd := keywords(jobDescription)
	if len(jd) == 0 {
		return 0
	}
	cv := keywords(resume)
	hit := 0
	for k := range jd {
		if _, ok := cv[k]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(jd))
}

// EmbeddingCache 文本向量缓存
type EmbeddingCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
}

// MatchRequest 匹配评分请求
type MatchRequest struct {
	ResumeText     string
	JobDescription string
	Profile        *types.UserProfile
}

// MatcherOption Matcher 选项
type MatcherOption func(*Matcher)

// WithEmbedder 启用语义相似度，modelName 参与缓存键
func WithEmbedder(e embedding.Embedder, modelName string) MatcherOption {
	return func(m *Matcher) {
		m.embedder = e
		m.embeddingModel = modelName
	}
}

// WithEmbeddingCache 缓存简历和职位描述的向量
func WithEmbeddingCache(c EmbeddingCache, ttl time.Duration) MatcherOption {
	return func(m *Matcher) {
		m.cache = c
		if ttl > 0 {
			m.cacheTTL = ttl
		}
	}
}

// WithSemanticFallback 无法计算语义相似度时使用的值
func WithSemanticFallback(v float64) MatcherOption {
	return func(m *Matcher) {
		m.semanticFallback = clamp01(v)
	}
}

// WithMinJobDescriptionLength 职位描述最少字符数
func WithMinJobDescriptionLength(n int) MatcherOption {
	return func(m *Matcher) {
		m.minJDLength = n
	}
}

// WithMatcherLogger 设置日志
func WithMatcherLogger(l *log.Logger) MatcherOption {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// Matcher 简历与职位匹配评分
type Matcher struct {
	agent            *PromptAgent
	embedder         embedding.Embedder
	embeddingModel   string
	cache            EmbeddingCache
	cacheTTL         time.Duration
	semanticFallback float64
	minJDLength      int
	logger           *log.Logger
}

// NewMatcher 创建匹配评分代理
func NewMatcher(llm model.ToolCallingChatModel, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		cacheTTL:         constants.EmbeddingCacheDuration,
		semanticFallback: 0.5,
		logger:           log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.agent = NewPromptAgent("Match Analyst", matchInstructions, llm,
		WithTemperature(0.2), WithMaxTokens(1200), WithAgentLogger(m.logger))
	return m
}

type modelMatch struct {
	ATSScore           *float64 `json:"ats_score"`
	MatchScore         *float64 `json:"match_score"`
	Strengths          []string `json:"strengths"`
	Gaps               []string `json:"gaps"`
	KeywordsToAdd      []string `json:"keywords_to_add"`
	RecommendedBullets []string `json:"recommended_bullets"`
}

// Score 计算匹配结果
// 模型调用失败或输出无法解析时返回固定的默认结果
func (m *Matcher) Score(ctx context.Context, req MatchRequest) (*types.MatchResult, error) {
	if err := requireText(req.ResumeText, "Resume text", 0); err != nil {
		return nil, err
	}
	if err := requireText(req.JobDescription, "Job description", m.minJDLength); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Matcher.Score")
	defer span.End()

	var (
		wg       sync.WaitGroup
		semantic float64
		content  string
		callErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		semantic = m.semanticSimilarity(ctx, req.ResumeText, req.JobDescription)
	}()
	go func() {
		defer wg.Done()
		content, callErr = m.agent.Run(ctx, buildMatchPrompt(req))
	}()
	wg.Wait()

	keyword := KeywordOverlap(req.ResumeText, req.JobDescription)
	span.SetAttributes(
		attribute.Float64("match.keyword", keyword),
		attribute.Float64("match.semantic", semantic),
	)

	if callErr != nil {
		tracing.RecordFallback(span, callErr, tracing.ErrorTypeLLM, "default-match")
		m.logger.Printf("匹配评分模型调用失败，返回默认结果: %v", callErr)
		return defaultMatch(), nil
	}

	var parsed modelMatch
	if err := parser.DecodeLLMJSON(content, &parsed); err != nil || parsed.MatchScore == nil {
		if err == nil {
			err = fmt.Errorf("match_score missing from model output")
		}
		tracing.RecordFallback(span, err, tracing.ErrorTypeLLMParse, "default-match")
		m.logger.Printf("匹配评分结果解析失败，返回默认结果: %v, 原始输出: %.200s", err, content)
		return defaultMatch(), nil
	}

	modelScore := normaliseScore(*parsed.MatchScore)
	result := &types.MatchResult{
		MatchScore:         BlendMatchScore(keyword, semantic, modelScore),
		Strengths:          nonNil(parsed.Strengths),
		Gaps:               nonNil(parsed.Gaps),
		KeywordsToAdd:      nonNil(parsed.KeywordsToAdd),
		RecommendedBullets: nonNil(parsed.RecommendedBullets),
		KeywordScore:       keyword,
		SemanticScore:      semantic,
		ModelScore:         modelScore,
	}
	if parsed.ATSScore != nil {
		result.ATSScore = math.Max(0, math.Min(100, *parsed.ATSScore))
	} else {
		result.ATSScore = math.Round(result.MatchScore * 100)
	}
	span.SetAttributes(attribute.Float64("match.final", result.MatchScore))
	return result, nil
}

func defaultMatch() *types.MatchResult {
	r := types.DefaultMatchResult()
	return &r
}

// normaliseScore 模型偶尔按百分制给分
func normaliseScore(v float64) float64 {
	if v > 1 && v <= 100 {
		v /= 100
	}
	return clamp01(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func buildMatchPrompt(req MatchRequest) string {
	return fmt.Sprintf("USER PROFILE:\n%s\n\nRESUME:\n%s\n\nJOB DESCRIPTION:\n%s\n\n"+
		"Analyse the match. Return JSON with keys:\n"+
		"  ats_score (0-100), match_score (0.0-1.0), strengths (list), gaps (list),\n"+
		"  keywords_to_add (list), recommended_bullets (list)\n",
		BuildUserContext(req.Profile), req.ResumeText, req.JobDescription)
}

// semanticSimilarity 两段文本向量的余弦相似度，失败时返回回退值
func (m *Matcher) semanticSimilarity(ctx context.Context, resume, jd string) float64 {
	if m.embedder == nil {
		return m.semanticFallback
	}
	vectors, err := m.embed(ctx, []string{resume, jd})
	if err != nil {
		m.logger.Printf("计算语义相似度失败，使用回退值 %.2f: %v", m.semanticFallback, err)
		return m.semanticFallback
	}
	return clamp01(parser.CosineSimilarity(vectors[0], vectors[1]))
}

func (m *Matcher) embeddingKey(text string) string {
	return fmt.Sprintf(constants.KeyMatchEmbedding, m.embeddingModel, utils.CalculateMD5([]byte(text)))
}

// embed 先查缓存，只为未命中的文本调用向量模型
func (m *Matcher) embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var missing []int
	for i, text := range texts {
		if m.cache != nil {
			var vec []float64
			found, err := m.cache.GetJSON(ctx, m.embeddingKey(text), &vec)
			if err != nil {
				m.logger.Printf("读取向量缓存失败: %v", err)
			}
			if found && len(vec) > 0 {
				out[i] = vec
				continue
			}
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	vectors, err := m.embedder.EmbedStrings(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
	}
	for j, i := range missing {
		out[i] = vectors[j]
		if m.cache != nil {
			if err := m.cache.SetJSON(ctx, m.embeddingKey(texts[i]), vectors[j], m.cacheTTL); err != nil {
				m.logger.Printf("写入向量缓存失败: %v", err)
			}
		}
	}
	return out, nil
}
