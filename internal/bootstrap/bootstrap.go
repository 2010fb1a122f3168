// Package bootstrap 按配置装配模型、服务和处理器，供 HTTP 服务和命令行共用
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"

	"job-applier-go/internal/agent"
	"job-applier-go/internal/api/handler"
	"job-applier-go/internal/api/router"
	"job-applier-go/internal/config"
	"job-applier-go/internal/constants"
	"job-applier-go/internal/jobsearch"
	"job-applier-go/internal/parser"
	"job-applier-go/internal/processor"
	"job-applier-go/internal/storage"
	llm "job-applier-go/pkg/agent"
	"job-applier-go/pkg/ratelimit"
)

// 任务名，对应 llm.task_models 的 key
const (
	TaskExtraction  = "extraction"
	TaskChat        = "chat"
	TaskDetector    = "detector"
	TaskTitles      = "titles"
	TaskTailor      = "tailor"
	TaskCoverLetter = "cover_letter"
	TaskEmail       = "email"
	TaskMatch       = "match"
)

// Loggers 组件日志来源，nil 时丢弃
type Loggers struct {
	Std     func(component string) *log.Logger
	Service *zerolog.Logger
}

func (l Loggers) std(component string) *log.Logger {
	if l.Std == nil {
		return log.New(io.Discard, "", 0)
	}
	return l.Std(component)
}

func (l Loggers) service() *zerolog.Logger {
	if l.Service == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return l.Service
}

// ModelFactory 为任务创建限流后的对话模型
type ModelFactory func(task string) (model.ToolCallingChatModel, error)

// OpenAIModels 使用 OpenAI 兼容接口，按模型名共享限流配额
func OpenAIModels(cfg *config.Config, logs Loggers) ModelFactory {
	cache := make(map[string]model.ToolCallingChatModel)
	return func(task string) (model.ToolCallingChatModel, error) {
		name := cfg.GetModelForTask(task)
		if m, ok := cache[name]; ok {
			return m, nil
		}
		base, err := llm.NewOpenAIChatModel(cfg.LLM.APIKey, name, cfg.LLM.APIURL,
			llm.WithChatLogger(logs.std("llm")))
		if err != nil {
			return nil, fmt.Errorf("创建任务 %s 的模型失败: %w", task, err)
		}
		m := ratelimit.NewLLMWithRateLimit(base, name, cfg.ModelQPMLimits, cfg.LLM.QPM,
			cfg.LLM.MaxRetries, config.GetDuration(cfg.LLM.RetryWait, 2*time.Second))
		cache[name] = m
		return m, nil
	}
}

// ProfileService 组装文本提取、字段抽取和可选的缓存、归档、记录
func ProfileService(ctx context.Context, cfg *config.Config, models ModelFactory, store *storage.Storage, logs Loggers) (*processor.ProfileService, error) {
	extractionModel, err := models(TaskExtraction)
	if err != nil {
		return nil, err
	}
	callTimeout := config.GetDuration(cfg.LLM.Timeout, 60*time.Second)

	text, err := parser.NewDocumentTextExtractor(ctx,
		parser.WithExtractorLogger(logs.std("text-extractor")),
		parser.WithExtractTimeout(callTimeout))
	if err != nil {
		return nil, fmt.Errorf("创建文本提取器失败: %w", err)
	}

	fields := parser.NewLLMFieldExtractor(extractionModel,
		parser.WithCharBudget(cfg.Extraction.FragmentCharBudget),
		parser.WithFieldLogger(logs.std("field-extractor")),
		parser.WithFieldCallTimeout(callTimeout))

	extractor := processor.NewProfileExtractor(fields,
		processor.WithLimits(processor.LimitsFromConfig(cfg.Extraction)),
		processor.WithSectionMerge(cfg.Extraction.SectionMerge),
		processor.WithNameCharBudget(cfg.Extraction.NameCharBudget),
		processor.WithExtractorLogger(logs.std("profile-extractor")))

	opts := []processor.ServiceOption{
		processor.WithMinTextLength(cfg.Extraction.MinTextLength),
		processor.WithServiceLogger(logs.service()),
	}
	if store != nil {
		if store.Redis != nil {
			opts = append(opts, processor.WithCache(store.Redis, store.Redis.ProfileCacheTTL()))
		}
		if store.MinIO != nil {
			opts = append(opts, processor.WithArchiver(store.MinIO))
		}
		if store.MySQL != nil {
			target := processor.EventTarget{}
			if store.RabbitMQ != nil {
				target = processor.EventTarget{
					Exchange:   cfg.RabbitMQ.ProfileEventsExchange,
					RoutingKey: cfg.RabbitMQ.ExtractedRoutingKey,
				}
			}
			opts = append(opts, processor.WithRecorder(store.MySQL, target))
		}
	}
	return processor.NewProfileService(text, extractor, opts...), nil
}

// Agents 生成类代理
type Agents struct {
	Chat    *agent.ChatAgent
	Titles  *agent.TitleExtractor
	Writer  *agent.Writer
	Matcher *agent.Matcher
}

// NewAgents 按任务创建代理，Redis 可用时对话会话存 Redis
func NewAgents(cfg *config.Config, models ModelFactory, store *storage.Storage, logs Loggers) (*Agents, error) {
	chatModel, err := models(TaskChat)
	if err != nil {
		return nil, err
	}
	tailor, err := models(TaskTailor)
	if err != nil {
		return nil, err
	}
	coverLetter, err := models(TaskCoverLetter)
	if err != nil {
		return nil, err
	}
	email, err := models(TaskEmail)
	if err != nil {
		return nil, err
	}
	titles, err := models(TaskTitles)
	if err != nil {
		return nil, err
	}
	matchModel, err := models(TaskMatch)
	if err != nil {
		return nil, err
	}

	callTimeout := config.GetDuration(cfg.LLM.Timeout, 60*time.Second)
	historyTurns := cfg.Agents.ChatHistoryTurns

	var memory agent.ChatMemory
	if store != nil && store.Redis != nil {
		memory, err = agent.NewRedisChatMemory(store.Redis.Client, store.Redis.ChatSessionTTL(), historyTurns)
		if err != nil {
			return nil, err
		}
	} else {
		memory = agent.NewInMemoryChatMemory(historyTurns)
	}

	chatOpts := []agent.ChatOption{
		agent.WithHistoryTurns(historyTurns),
		agent.WithMemory(memory),
		agent.WithChatLogger(logs.std("chat")),
	}
	if cfg.Agents.ChatPersonaInstructions != "" {
		chatOpts = append(chatOpts, agent.WithPersona(cfg.Agents.ChatPersonaInstructions))
	}
	if cfg.Agents.ProfileDetectorEnabled {
		detector, err := models(TaskDetector)
		if err != nil {
			return nil, err
		}
		chatOpts = append(chatOpts, agent.WithDetector(detector))
	}

	matcherOpts := []agent.MatcherOption{
		agent.WithMinJobDescriptionLength(cfg.Agents.MinJobDescriptionLength),
		agent.WithSemanticFallback(cfg.Agents.SemanticSimilarityOnFail),
		agent.WithMatcherLogger(logs.std("matcher")),
	}
	if cfg.Embedding.Enabled {
		embedder, err := parser.NewOpenAIEmbedder(cfg.EmbeddingAPIKey(), cfg.Embedding,
			parser.WithEmbedderLogger(logs.std("embedder")))
		if err != nil {
			return nil, fmt.Errorf("创建向量模型失败: %w", err)
		}
		matcherOpts = append(matcherOpts, agent.WithEmbedder(embedder, cfg.Embedding.Model))
		if store != nil && store.Redis != nil {
			matcherOpts = append(matcherOpts, agent.WithEmbeddingCache(store.Redis, constants.EmbeddingCacheDuration))
		}
	}

	writerOpts := []agent.PromptOption{
		agent.WithCallTimeout(callTimeout),
		agent.WithAgentLogger(logs.std("writer")),
	}
	if cfg.LLM.MaxTokens > 0 {
		writerOpts = append(writerOpts, agent.WithMaxTokens(cfg.LLM.MaxTokens))
	}

	return &Agents{
		Chat:   agent.NewChatAgent(chatModel, chatOpts...),
		Titles: agent.NewTitleExtractor(titles, cfg.Agents.DefaultJobTitleFallback, logs.std("titles")),
		Writer: agent.NewWriter(agent.WriterModels{
			Tailor:      tailor,
			CoverLetter: coverLetter,
			Email:       email,
		}, cfg.Agents.MinJobDescriptionLength, writerOpts...),
		Matcher: agent.NewMatcher(matchModel, matcherOpts...),
	}, nil
}

// JobSearch 职位搜索服务，Redis 可用时缓存结果，MySQL 可用时记录历史
func JobSearch(cfg *config.Config, store *storage.Storage, logs Loggers) (*jobsearch.Service, error) {
	scraper, err := jobsearch.NewHTTPScraper(cfg.Scraper.BaseURL,
		jobsearch.WithScrapeTimeout(config.GetDuration(cfg.Scraper.Timeout, 120*time.Second)),
		jobsearch.WithScrapeQPM(cfg.Scraper.QPM))
	if err != nil {
		return nil, err
	}

	opts := []jobsearch.Option{jobsearch.WithLogger(logs.service())}
	if store != nil && store.Redis != nil {
		opts = append(opts, jobsearch.WithCache(store.Redis, store.Redis.SearchCacheTTL(), store.Redis.SearchLockWait()))
	}
	if store != nil && store.MySQL != nil {
		opts = append(opts, jobsearch.WithRecorder(store.MySQL))
	}
	return jobsearch.NewService(scraper, jobsearch.Defaults{
		Location:      cfg.Scraper.DefaultLocation,
		Sites:         cfg.Scraper.DefaultSites,
		CountryIndeed: cfg.Scraper.CountryIndeed,
	}, opts...), nil
}

// Handlers 组装路由需要的全部处理器
func Handlers(ctx context.Context, cfg *config.Config, models ModelFactory, store *storage.Storage, logs Loggers) (router.Handlers, error) {
	profiles, err := ProfileService(ctx, cfg, models, store, logs)
	if err != nil {
		return router.Handlers{}, err
	}
	agents, err := NewAgents(cfg, models, store, logs)
	if err != nil {
		return router.Handlers{}, err
	}
	search, err := JobSearch(cfg, store, logs)
	if err != nil {
		return router.Handlers{}, err
	}

	serviceName := cfg.Server.ServiceName
	if serviceName == "" {
		serviceName = constants.ServiceAIName
	}
	return router.Handlers{
		Health:    handler.NewHealthHandler(serviceName, store.Status),
		Profile:   handler.NewProfileHandler(profiles, cfg.Extraction.MaxUploadSizeMB),
		Agent:     handler.NewAgentHandler(agents.Chat, agents.Titles, agents.Writer, agents.Matcher),
		JobSearch: handler.NewJobSearchHandler(search),
	}, nil
}
