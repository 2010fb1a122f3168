package processor

import (
	"context"
	"io"
	"log"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"job-applier-go/internal/config"
	"job-applier-go/internal/parser"
	"job-applier-go/internal/types"
	"job-applier-go/pkg/utils"
)

var extractorTracer = otel.Tracer("job-applier/processor")

// Limits 每个列表字段最多保留的条目数
type Limits struct {
	Experiences    int
	Education      int
	Projects       int
	Certifications int
	Languages      int
	Skills         int
}

// DefaultLimits 5/3/5/5/5，技能 20
func DefaultLimits() Limits {
	return Limits{Experiences: 5, Education: 3, Projects: 5, Certifications: 5, Languages: 5, Skills: 20}
}

// LimitsFromConfig 从抽取配置读取上限
func LimitsFromConfig(cfg config.ExtractionConfig) Limits {
	l := DefaultLimits()
	setIfPositive := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	setIfPositive(&l.Experiences, cfg.MaxExperiences)
	setIfPositive(&l.Education, cfg.MaxEducation)
	setIfPositive(&l.Projects, cfg.MaxProjects)
	setIfPositive(&l.Certifications, cfg.MaxCertifications)
	setIfPositive(&l.Languages, cfg.MaxLanguages)
	setIfPositive(&l.Skills, cfg.MaxSkills)
	return l
}

// ExtractorOption ProfileExtractor 选项
type ExtractorOption func(*ProfileExtractor)

// WithLimits 覆盖列表上限
func WithLimits(l Limits) ExtractorOption {
	return func(p *ProfileExtractor) {
		p.limits = l
	}
}

// WithSectionMerge 重复分节的合并策略
func WithSectionMerge(policy string) ExtractorOption {
	return func(p *ProfileExtractor) {
		p.concatenate = policy == config.SectionMergeConcatenate
	}
}

// WithNameCharBudget 姓名回退抽取时取全文的前 n 个字符
func WithNameCharBudget(n int) ExtractorOption {
	return func(p *ProfileExtractor) {
		if n > 0 {
			p.nameBudget = n
		}
	}
}

// WithExtractorLogger 设置日志
func WithExtractorLogger(l *log.Logger) ExtractorOption {
	return func(p *ProfileExtractor) {
		if l != nil {
			p.logger = l
		}
	}
}

// ProfileExtractor 正则+LLM 混合抽取流水线
// 联系方式和时间段走正则，其余字段逐条目交给 FieldExtractor
type ProfileExtractor struct {
	fields      parser.FieldExtractor
	limits      Limits
	concatenate bool
	nameBudget  int
	logger      *log.Logger
}

// NewProfileExtractor 创建抽取流水线
func NewProfileExtractor(fields parser.FieldExtractor, opts ...ExtractorOption) *ProfileExtractor {
	p := &ProfileExtractor{
		fields:     fields,
		limits:     DefaultLimits(),
		nameBudget: 500,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract 生成结构化档案
// 单个条目抽取失败只会让该条目退化为默认值，整份档案总能构建出来
func (p *ProfileExtractor) Extract(ctx context.Context, text string) *types.StructuredProfile {
	ctx, span := extractorTracer.Start(ctx, "ProfileExtractor.Extract")
	defer span.End()

	profile := types.NewStructuredProfile(text)
	profile.ContactInfo = parser.ExtractContactInfo(text)

	sections := parser.SplitSections(text, parser.WithConcatenateRepeats(p.concatenate))
	span.SetAttributes(attribute.Int("cv.text_len", len(text)))

	profile.Experiences = p.experiences(ctx, sections.Get(types.SectionExperience))
	profile.Education = p.education(ctx, sections.Get(types.SectionEducation))
	profile.Projects = p.projects(ctx, sections.Get(types.SectionProjects))
	profile.Certifications = p.certifications(ctx, sections.Get(types.SectionCertifications))
	profile.Skills = p.skills(ctx, sections.Get(types.SectionSkills))
	profile.Languages = p.languages(sections.Get(types.SectionLanguages))

	if first, last := p.name(ctx, sections.Get(types.SectionHeader), text); first != "" {
		profile.ContactInfo.FirstName = first
		profile.ContactInfo.LastName = last
	}

	span.SetAttributes(
		attribute.Int("profile.experiences", len(profile.Experiences)),
		attribute.Int("profile.education", len(profile.Education)),
		attribute.Int("profile.skills", len(profile.Skills)),
	)
	return profile
}

// extract 调用字段抽取器，失败时记录日志并使用默认值
func (p *ProfileExtractor) extract(ctx context.Context, fragment string, fields parser.FieldSchema) map[string]string {
	if p.fields == nil {
		return fields.Defaults()
	}
	got, err := p.fields.Extract(ctx, fragment, fields)
	if err != nil {
		p.logger.Printf("字段抽取失败 fields=%v: %v", fields.Names(), err)
	}
	if got == nil {
		return fields.Defaults()
	}
	return got
}

func entriesOf(section string, label types.SectionLabel, max int) []string {
	entries := parser.SplitEntries(section, label)
	if len(entries) > max {
		entries = entries[:max]
	}
	return entries
}

func orFallback(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func (p *ProfileExtractor) experiences(ctx context.Context, section string) []types.ExperienceItem {
	items := []types.ExperienceItem{}
	for i, entry := range entriesOf(section, types.SectionExperience, p.limits.Experiences) {
		f := p.extract(ctx, entry, parser.ExperienceFields)
		items = append(items, types.ExperienceItem{
			ID:          strconv.Itoa(i + 1),
			Title:       f["title"],
			Company:     f["company"],
			Duration:    parser.ExtractDateRange(entry),
			Description: orFallback(f["description"], entry),
		})
	}
	return items
}

func (p *ProfileExtractor) education(ctx context.Context, section string) []types.EducationItem {
	items := []types.EducationItem{}
	for i, entry := range entriesOf(section, types.SectionEducation, p.limits.Education) {
		f := p.extract(ctx, entry, parser.EducationFields)
		items = append(items, types.EducationItem{
			ID:          strconv.Itoa(i + 1),
			Degree:      f["degree"],
			Institution: f["institution"],
			Field:       f["field"],
			Duration:    parser.ExtractDateRange(entry),
			Description: orFallback(f["description"], entry),
		})
	}
	return items
}

func (p *ProfileExtractor) projects(ctx context.Context, section string) []types.ProjectItem {
	items := []types.ProjectItem{}
	for i, entry := range entriesOf(section, types.SectionProjects, p.limits.Projects) {
		f := p.extract(ctx, entry, parser.ProjectFields)
		items = append(items, types.ProjectItem{
			ID:          strconv.Itoa(i + 1),
			Name:        f["name"],
			Description: orFallback(f["description"], entry),
			Link:        parser.URLPattern.FindString(entry),
		})
	}
	return items
}

func (p *ProfileExtractor) certifications(ctx context.Context, section string) []types.CertificationItem {
	items := []types.CertificationItem{}
	for i, entry := range entriesOf(section, types.SectionCertifications, p.limits.Certifications) {
		f := p.extract(ctx, entry, parser.CertificationFields)
		items = append(items, types.CertificationItem{
			ID:     strconv.Itoa(i + 1),
			Name:   f["name"],
			Issuer: f["issuer"],
			Date:   parser.ExtractDateRange(entry),
		})
	}
	return items
}

// skills 对整个技能分节只调用一次模型
func (p *ProfileExtractor) skills(ctx context.Context, section string) []types.SkillItem {
	items := []types.SkillItem{}
	if strings.TrimSpace(section) == "" {
		return items
	}
	for i, name := range SplitSkillList(p.extract(ctx, section, parser.SkillFields)["skills"]) {
		if i == p.limits.Skills {
			break
		}
		items = append(items, types.SkillItem{ID: strconv.Itoa(i + 1), Name: name, Level: ""})
	}
	return items
}

// SplitSkillList 含换行时按行切分，否则按逗号
func SplitSkillList(s string) []string {
	sep := ","
	if strings.Contains(s, "\n") {
		sep = "\n"
	}
	out := []string{}
	for _, part := range strings.Split(s, sep) {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// languages 不调用模型，按条目拆分后每条一项，"名称 - 水平" 或 "名称 (水平)"
// 没有项目符号时整节是一条，这时按行拆分
func (p *ProfileExtractor) languages(section string) []types.LanguageItem {
	items := []types.LanguageItem{}
	for _, entry := range entriesOf(section, types.SectionLanguages, p.limits.Languages) {
		lines := []string{entry}
		if !parser.StartsWithBullet(entry) {
			lines = strings.Split(entry, "\n")
		}
		for _, line := range lines {
			if len(items) == p.limits.Languages {
				return items
			}
			name, level := ParseLanguageLine(strings.Join(strings.Fields(line), " "))
			if name == "" {
				continue
			}
			items = append(items, types.LanguageItem{
				ID:          strconv.Itoa(len(items) + 1),
				Name:        name,
				Proficiency: level,
			})
		}
	}
	return items
}

// ParseLanguageLine 拆分一行语言描述
func ParseLanguageLine(line string) (name, proficiency string) {
	line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "•-*"))
	if line == "" {
		return "", ""
	}
	if open := strings.Index(line, "("); open > 0 && strings.HasSuffix(line, ")") {
		return strings.TrimSpace(line[:open]), strings.TrimSpace(line[open+1 : len(line)-1])
	}
	for _, sep := range []string{" - ", " – ", ":", "-"} {
		if idx := strings.Index(line, sep); idx > 0 {
			return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+len(sep):])
		}
	}
	return line, ""
}

// name 先用 header 分节，失败再用全文前缀
func (p *ProfileExtractor) name(ctx context.Context, header, text string) (string, string) {
	f := p.extract(ctx, utils.TruncateRunes(header, p.nameBudget), parser.NameFields)
	if f["firstName"] == "" {
		f = p.extract(ctx, utils.TruncateRunes(text, p.nameBudget), parser.NameFields)
	}
	return f["firstName"], f["lastName"]
}
