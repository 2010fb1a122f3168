package processor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"job-applier-go/internal/constants"
	"job-applier-go/internal/outbox"
	"job-applier-go/internal/parser"
	"job-applier-go/internal/storage"
	"job-applier-go/internal/storage/models"
	"job-applier-go/internal/tracing"
	"job-applier-go/internal/types"
	"job-applier-go/pkg/utils"
)

var tracer = otel.Tracer("job-applier/processor/service")

// 抽取来源
const (
	SourceUpload   = "upload"
	SourceAutofill = "autofill"
)

// ProfileCache 结构化档案缓存
type ProfileCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
}

// OriginalArchiver 保存上传的原始文件
type OriginalArchiver interface {
	UploadOriginal(ctx context.Context, recordID, filename string, data []byte) (string, error)
}

// ExtractionRecorder 持久化抽取记录和事件
type ExtractionRecorder interface {
	SaveExtraction(ctx context.Context, rec *models.ExtractionRecord, event *models.OutboxMessage) error
}

// EventTarget 档案事件投递目标，Exchange 为空时不写 outbox
type EventTarget struct {
	Exchange   string
	RoutingKey string
}

// ServiceOption ProfileService 选项
type ServiceOption func(*ProfileService)

// WithCache 启用档案缓存
func WithCache(c ProfileCache, ttl time.Duration) ServiceOption {
	return func(s *ProfileService) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithArchiver 启用原始文件归档
func WithArchiver(a OriginalArchiver) ServiceOption {
	return func(s *ProfileService) {
		s.archiver = a
	}
}

// WithRecorder 启用抽取记录，target 非空时同时写 outbox 事件
func WithRecorder(r ExtractionRecorder, target EventTarget) ServiceOption {
	return func(s *ProfileService) {
		s.recorder = r
		s.events = target
	}
}

// WithMinTextLength 最少字符数
func WithMinTextLength(n int) ServiceOption {
	return func(s *ProfileService) {
		if n > 0 {
			s.minTextLength = n
		}
	}
}

// WithServiceLogger 设置日志
func WithServiceLogger(l *zerolog.Logger) ServiceOption {
	return func(s *ProfileService) {
		if l != nil {
			s.logger = l
		}
	}
}

// ProfileService 简历档案抽取服务
// 文本提取、校验、缓存、抽取、归档、记录，存储相关步骤失败只记日志
type ProfileService struct {
	text          parser.TextExtractor
	extractor     *ProfileExtractor
	cache         ProfileCache
	cacheTTL      time.Duration
	archiver      OriginalArchiver
	recorder      ExtractionRecorder
	events        EventTarget
	minTextLength int
	logger        *zerolog.Logger
}

// NewProfileService 创建服务
func NewProfileService(text parser.TextExtractor, extractor *ProfileExtractor, opts ...ServiceOption) *ProfileService {
	nop := zerolog.Nop()
	s := &ProfileService{
		text:          text,
		extractor:     extractor,
		cacheTTL:      constants.ProfileCacheDuration,
		minTextLength: 50,
		logger:        &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsAllowedExtension 是否是支持的简历扩展名
func IsAllowedExtension(filename string) bool {
	return slices.Contains(constants.AllowedCVExtensions, parser.FileExtension(filename))
}

// MinTextLength 当前的最少字符数
func (s *ProfileService) MinTextLength() int {
	return s.minTextLength
}

// ExtractFromFile 从上传文件生成档案
func (s *ProfileService) ExtractFromFile(ctx context.Context, filename string, data []byte) (*types.StructuredProfile, error) {
	if !IsAllowedExtension(filename) {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedFileType, parser.FileExtension(filename))
	}
	if s.text == nil {
		return nil, fmt.Errorf("%w: text extractor not configured", ErrTextExtraction)
	}
	text, err := s.text.Extract(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTextExtraction, err)
	}
	return s.process(ctx, text, SourceUpload, filename, data)
}

// ExtractFromText 从粘贴的文本生成档案
func (s *ProfileService) ExtractFromText(ctx context.Context, text string) (*types.StructuredProfile, error) {
	return s.process(ctx, text, SourceAutofill, "", nil)
}

func (s *ProfileService) process(ctx context.Context, text, source, filename string, original []byte) (*types.StructuredProfile, error) {
	ctx, span := tracer.Start(ctx, "ProfileService.Process")
	defer span.End()
	span.SetAttributes(attribute.String("extraction.source", source))

	if utf8.RuneCountInString(strings.TrimSpace(text)) < s.minTextLength {
		err := fmt.Errorf("%w: need at least %d characters", ErrInsufficientText, s.minTextLength)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	textMD5 := utils.CalculateMD5([]byte(text))
	cacheKey := fmt.Sprintf(constants.KeyProfileExtraction, constants.PipelineHybrid, textMD5)

	profile, cacheHit := s.fromCache(ctx, cacheKey)
	if !cacheHit {
		profile = s.extractor.Extract(ctx, text)
		s.toCache(ctx, cacheKey, profile)
	}
	profile.RawText = text
	profile.Normalize()
	span.SetAttributes(attribute.Bool("cache.hit", cacheHit))

	recordID := uuid.Must(uuid.NewV7()).String()
	objectKey := s.archive(ctx, recordID, filename, original)
	s.record(ctx, &models.ExtractionRecord{
		RecordID:          recordID,
		Source:            source,
		OriginalFilename:  filename,
		OriginalObjectKey: objectKey,
		TextMD5:           textMD5,
		Pipeline:          constants.PipelineHybrid,
		CandidateName:     strings.TrimSpace(profile.ContactInfo.FirstName + " " + profile.ContactInfo.LastName),
		CandidateEmail:    profile.ContactInfo.Email,
		ExperienceCount:   len(profile.Experiences),
		EducationCount:    len(profile.Education),
		SkillCount:        len(profile.Skills),
		ProfileJSON:       utils.ToJSON(profile),
		CacheHit:          cacheHit,
	})

	s.logger.Info().
		Str("record_id", recordID).
		Str("source", source).
		Bool("cache_hit", cacheHit).
		Int("experiences", len(profile.Experiences)).
		Int("skills", len(profile.Skills)).
		Msg("档案抽取完成")
	return profile, nil
}

func (s *ProfileService) fromCache(ctx context.Context, key string) (*types.StructuredProfile, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached types.StructuredProfile
	found, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Msg("读取档案缓存失败")
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &cached, true
}

func (s *ProfileService) toCache(ctx context.Context, key string, p *types.StructuredProfile) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, p, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("写入档案缓存失败")
	}
}

func (s *ProfileService) archive(ctx context.Context, recordID, filename string, data []byte) string {
	if s.archiver == nil || len(data) == 0 {
		return ""
	}
	key, err := s.archiver.UploadOriginal(ctx, recordID, filename, data)
	if err != nil {
		s.logger.Warn().Err(newProfileError(recordID, "archive", ErrArchiveFailed, err)).Msg("原始文件归档失败")
		return ""
	}
	return key
}

func (s *ProfileService) record(ctx context.Context, rec *models.ExtractionRecord) {
	if s.recorder == nil {
		return
	}

	var event *models.OutboxMessage
	if s.events.Exchange != "" {
		var err error
		event, err = outbox.NewEvent(rec.RecordID, storage.EventProfileExtracted, s.events.Exchange, s.events.RoutingKey,
			storage.ProfileExtractedMessage{
				RecordID:          rec.RecordID,
				Source:            rec.Source,
				OriginalFilename:  rec.OriginalFilename,
				OriginalObjectKey: rec.OriginalObjectKey,
				TextMD5:           rec.TextMD5,
				Pipeline:          rec.Pipeline,
				CandidateName:     rec.CandidateName,
				CandidateEmail:    rec.CandidateEmail,
				ExperienceCount:   rec.ExperienceCount,
				EducationCount:    rec.EducationCount,
				SkillCount:        rec.SkillCount,
				ExtractedAt:       time.Now(),
			})
		if err != nil {
			s.logger.Warn().Err(err).Msg("构造档案事件失败")
		}
	}

	if err := s.recorder.SaveExtraction(ctx, rec, event); err != nil {
		s.logger.Warn().Err(newProfileError(rec.RecordID, "record", ErrRecordFailed, err)).Msg("保存抽取记录失败")
	}
}
