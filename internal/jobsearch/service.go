package jobsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"job-applier-go/internal/constants"
	"job-applier-go/internal/storage/models"
	"job-applier-go/internal/tracing"
	"job-applier-go/internal/types"
	"job-applier-go/pkg/utils"
)

var tracer = otel.Tracer("job-applier/jobsearch")

// ErrKeywordRequired 搜索关键词为空
var ErrKeywordRequired = errors.New("keyword is required")

// 搜索记录类型
const (
	KindKeyword = "keyword"
	KindProfile = "profile"
)

const (
	defaultMaxResults = 20
	defaultDaysOld    = 30
	defaultRole       = "Software Engineer"
	profileTitleTerms = 3
	lockExpiration    = 2 * time.Minute
	lockPollInterval  = 200 * time.Millisecond
)

// SearchCache 搜索结果缓存和抓取锁
type SearchCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
	AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error)
	ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error)
}

// SearchRecorder 保存搜索历史
type SearchRecorder interface {
	SaveSearchRecord(ctx context.Context, rec *models.SearchRecord) error
}

// Defaults 请求未指定时使用的搜索参数
type Defaults struct {
	Location      string
	Sites         []string
	CountryIndeed string
}

// Option Service 选项
type Option func(*Service)

// WithCache 启用结果缓存，lockWait 为等待其他请求完成同一抓取的最长时间
func WithCache(c SearchCache, ttl, lockWait time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
		if lockWait >= 0 {
			s.lockWait = lockWait
		}
	}
}

// WithRecorder 启用搜索历史
func WithRecorder(r SearchRecorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithLogger 设置日志
func WithLogger(l *zerolog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service 职位搜索: 多搜索词抓取、打分、去重、排序
type Service struct {
	scraper  Scraper
	defaults Defaults
	cache    SearchCache
	cacheTTL time.Duration
	lockWait time.Duration
	recorder SearchRecorder
	logger   *zerolog.Logger
}

// NewService 创建搜索服务
func NewService(scraper Scraper, defaults Defaults, opts ...Option) *Service {
	if defaults.Location == "" {
		defaults.Location = "Johannesburg, South Africa"
	}
	if len(defaults.Sites) == 0 {
		defaults.Sites = []string{"indeed", "linkedin", "google"}
	}
	if defaults.CountryIndeed == "" {
		defaults.CountryIndeed = "south africa"
	}
	nop := zerolog.Nop()
	s := &Service{
		scraper:  scraper,
		defaults: defaults,
		cacheTTL: constants.SearchCacheDuration,
		lockWait: 5 * time.Second,
		logger:   &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize 校验关键词并补齐默认值
func (s *Service) Normalize(req types.JobSearchRequest) (types.JobSearchRequest, error) {
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		return req, ErrKeywordRequired
	}
	if strings.TrimSpace(req.Location) == "" {
		req.Location = s.defaults.Location
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultMaxResults
	}
	if req.DaysOld <= 0 {
		req.DaysOld = defaultDaysOld
	}
	if len(req.Sites) == 0 {
		req.Sites = append([]string(nil), s.defaults.Sites...)
	}
	return req, nil
}

// Search 按关键词搜索职位，结果按 match_score 降序且不超过 max_results
// 单个搜索词失败会被跳过，全部失败时返回 ErrScrapeFailed
func (s *Service) Search(ctx context.Context, req types.JobSearchRequest) ([]types.JobListing, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	jobs, hit, err := s.search(ctx, req)
	s.record(ctx, KindKeyword, req, SearchTerms(req.Keyword, req.AdditionalKeywords), jobs, hit, start, err)
	return jobs, err
}

// SearchByProfile 用档案和偏好构造搜索，描述中命中的技能会提高分数
func (s *Service) SearchByProfile(ctx context.Context, req types.SearchByProfileRequest) (*types.SearchByProfileResponse, error) {
	prefs := req.Preferences
	primary := strings.TrimSpace(prefs.PreferredRole)
	if primary == "" {
		primary = strings.TrimSpace(req.Profile.Title)
	}
	if primary == "" {
		primary = defaultRole
	}

	titles := req.Profile.SuggestedJobTitles
	if len(titles) > profileTitleTerms {
		titles = titles[:profileTitleTerms]
	}

	var jobType string
	if len(prefs.ContractTypes) > 0 {
		jobType = prefs.ContractTypes[0]
	}

	searchReq, err := s.Normalize(types.JobSearchRequest{
		Keyword:            primary,
		Location:           prefs.Location,
		Remote:             prefs.RemoteOrDefault(true),
		JobType:            jobType,
		MaxResults:         req.MaxResults,
		DaysOld:            prefs.DaysOld,
		AdditionalKeywords: titles,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	jobs, hit, err := s.search(ctx, searchReq)
	termsUsed := append([]string{primary}, titles...)
	if err == nil {
		BoostBySkills(jobs, req.Profile.Skills)
	}
	s.record(ctx, KindProfile, searchReq, termsUsed, jobs, hit, start, err)
	if err != nil {
		return nil, err
	}

	return &types.SearchByProfileResponse{
		Jobs:            jobs,
		SearchTermsUsed: termsUsed,
		TotalFound:      len(jobs),
	}, nil
}

// search 先查缓存，未命中时抢锁抓取，锁被占用则等待对方写入缓存
func (s *Service) search(ctx context.Context, req types.JobSearchRequest) ([]types.JobListing, bool, error) {
	ctx, span := tracer.Start(ctx, "JobSearch.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.keyword", req.Keyword),
		attribute.Int("search.max_results", req.MaxResults),
	)

	if s.cache == nil {
		jobs, err := s.scrapeAll(ctx, req)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeScraper)
		}
		return jobs, false, err
	}

	hash, err := hashRequest(req)
	if err != nil {
		return nil, false, fmt.Errorf("hash search request: %w", err)
	}
	cacheKey := fmt.Sprintf(constants.KeySearchResult, hash)
	lockKey := fmt.Sprintf(constants.KeySearchLock, hash)

	if jobs, ok := s.fromCache(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return jobs, true, nil
	}

	lockValue, err := s.cache.AcquireLock(ctx, lockKey, lockExpiration)
	if err != nil {
		s.logger.Warn().Err(err).Str("lock_key", lockKey).Msg("获取搜索锁失败，直接抓取")
	} else if lockValue == "" {
		if jobs, ok := s.waitForCache(ctx, cacheKey); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return jobs, true, nil
		}
		s.logger.Info().Str("lock_key", lockKey).Msg("等待其他请求的抓取结果超时，直接抓取")
	} else {
		defer func() {
			if _, err := s.cache.ReleaseLock(context.Background(), lockKey, lockValue); err != nil {
				s.logger.Warn().Err(err).Str("lock_key", lockKey).Msg("释放搜索锁失败")
			}
		}()
	}

	jobs, err := s.scrapeAll(ctx, req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeScraper)
		return nil, false, err
	}
	if err := s.cache.SetJSON(ctx, cacheKey, jobs, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("写入搜索缓存失败")
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	return jobs, false, nil
}

// hashRequest 归一化后的请求摘要，作为缓存键和锁键
func hashRequest(req types.JobSearchRequest) (string, error) {
	return utils.HashJSON(req)
}

func (s *Service) fromCache(ctx context.Context, key string) ([]types.JobListing, bool) {
	var jobs []types.JobListing
	found, err := s.cache.GetJSON(ctx, key, &jobs)
	if err != nil {
		s.logger.Warn().Err(err).Msg("读取搜索缓存失败")
		return nil, false
	}
	if !found {
		return nil, false
	}
	if jobs == nil {
		jobs = []types.JobListing{}
	}
	return jobs, true
}

func (s *Service) waitForCache(ctx context.Context, key string) ([]types.JobListing, bool) {
	deadline := time.Now().Add(s.lockWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(lockPollInterval):
		}
		if jobs, ok := s.fromCache(ctx, key); ok {
			return jobs, true
		}
	}
	return nil, false
}

// scrapeAll 依次抓取每个搜索词并汇总排序
func (s *Service) scrapeAll(ctx context.Context, req types.JobSearchRequest) ([]types.JobListing, error) {
	terms := SearchTerms(req.Keyword, req.AdditionalKeywords)
	perTerm := max(1, req.MaxResults/len(terms))

	all := make([]types.JobListing, 0, req.MaxResults)
	var failures []error
	for _, term := range terms {
		rows, err := s.scraper.Scrape(ctx, types.ScrapeQuery{
			SiteName:      req.Sites,
			SearchTerm:    term,
			Location:      req.Location,
			ResultsWanted: perTerm,
			HoursOld:      req.DaysOld * 24,
			CountryIndeed: s.defaults.CountryIndeed,
			IsRemote:      req.Remote,
			JobType:       MapJobType(req.JobType),
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("term", term).Msg("搜索词抓取失败，跳过")
			failures = append(failures, fmt.Errorf("%s: %w", term, err))
			continue
		}
		s.logger.Debug().Str("term", term).Int("rows", len(rows)).Msg("搜索词抓取完成")
		for i, row := range rows {
			all = append(all, ToListing(row, term, i, req.Keyword, req.AdditionalKeywords))
		}
	}
	if len(failures) == len(terms) {
		return nil, fmt.Errorf("%w: %w", ErrScrapeFailed, errors.Join(failures...))
	}

	ranked := Rank(all, req.MaxResults)
	s.logger.Info().
		Str("keyword", req.Keyword).
		Int("scraped", len(all)).
		Int("returned", len(ranked)).
		Msg("职位搜索完成")
	return ranked, nil
}

func (s *Service) record(ctx context.Context, kind string, req types.JobSearchRequest, terms []string,
	jobs []types.JobListing, cacheHit bool, start time.Time, searchErr error) {
	if s.recorder == nil {
		return
	}
	hash, _ := hashRequest(req)
	rec := &models.SearchRecord{
		SearchID:    uuid.Must(uuid.NewV7()).String(),
		Kind:        kind,
		Keyword:     req.Keyword,
		Location:    req.Location,
		SearchTerms: utils.ConvertArrayToJSON(terms),
		RequestHash: hash,
		ResultCount: len(jobs),
		CacheHit:    cacheHit,
		DurationMS:  time.Since(start).Milliseconds(),
	}
	if len(jobs) > 0 {
		rec.TopScore = jobs[0].MatchScore
	}
	if searchErr != nil {
		rec.ErrorMessage = searchErr.Error()
	}
	if err := s.recorder.SaveSearchRecord(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("search_id", rec.SearchID).Msg("保存搜索记录失败")
	}
}
