package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"job-applier-go/internal/types"
)

// SplitOption 分节选项
type SplitOption func(*splitConfig)

type splitConfig struct {
	concatenateRepeats bool
}

// WithConcatenateRepeats 重复出现的分节标题追加内容而不是覆盖
func WithConcatenateRepeats(enabled bool) SplitOption {
	return func(c *splitConfig) {
		c.concatenateRepeats = enabled
	}
}

// SplitSections 单次遍历把简历文本切分为带标签的文本块
// 初始标签为 header，遇到标题行时把缓冲区写入当前标签并切换
func SplitSections(text string, opts ...SplitOption) *types.SectionMap {
	cfg := &splitConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	sections := types.NewSectionMap()
	current := types.SectionHeader
	var buf []string

	flush := func() {
		block := strings.TrimSpace(strings.Join(buf, "\n"))
		if cfg.concatenateRepeats {
			sections.Append(current, block)
		} else {
			sections.Set(current, block)
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if label, ok := MatchSectionHeader(stripped); ok {
			flush()
			current = label
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}

// EntryRule 判断一行是否开始新条目的规则
type EntryRule struct {
	Name  string
	Match func(line string) bool
}

func regexRule(name string, re *regexp.Regexp) EntryRule {
	return EntryRule{Name: name, Match: re.MatchString}
}

var (
	roleTitleLine = regexp.MustCompile(`^[A-Z][a-zA-Z\s]+(?:Engineer|Developer|Manager|Lead|Director|Analyst|Consultant|Specialist|Coordinator|Intern)`)
	roleAtCompany = regexp.MustCompile(`^[A-Z][a-zA-Z\s]+(?:at|@)\s+[A-Z]`)
	degreeLine    = regexp.MustCompile(`^(?:Bachelor|Master|PhD|B\.|M\.|MBA|BSc|MSc|BA|MA|High School|Diploma|Certificate)`)
	bulletLine    = regexp.MustCompile(`^[•\-*]`)
)

const shortTitleMaxLen = 60

// shortCapitalizedLine 短的、首字母大写、非项目符号开头的行，通常是独立的职位名
func shortCapitalizedLine(line string) bool {
	if utf8.RuneCountInString(line) >= shortTitleMaxLen {
		return false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if first == '-' || first == '•' || first == '*' {
		return false
	}
	return unicode.IsUpper(first)
}

var (
	experienceRules = []EntryRule{
		regexRule("role-title", roleTitleLine),
		regexRule("role-at-company", roleAtCompany),
		{Name: "short-capitalized", Match: shortCapitalizedLine},
	}
	educationRules = []EntryRule{
		regexRule("degree-keyword", degreeLine),
	}
	bulletRules = []EntryRule{
		regexRule("bullet", bulletLine),
	}
)

// StartsWithBullet 去掉前导空白后是否以项目符号开头
func StartsWithBullet(text string) bool {
	return bulletLine.MatchString(strings.TrimSpace(text))
}

// EntryRulesFor 返回分节对应的条目边界规则，按优先级排列
func EntryRulesFor(label types.SectionLabel) []EntryRule {
	switch label {
	case types.SectionExperience:
		return experienceRules
	case types.SectionEducation:
		return educationRules
	default:
		return bulletRules
	}
}

// StartsEntry 依次评估规则，返回第一个命中的规则名
func StartsEntry(rules []EntryRule, line string) (string, bool) {
	for _, r := range rules {
		if r.Match(line) {
			return r.Name, true
		}
	}
	return "", false
}

// SplitEntries 把分节文本切分为条目
// 空文本返回空列表；找不到边界时整段(去首尾空白)作为唯一条目
func SplitEntries(section string, label types.SectionLabel) []string {
	if strings.TrimSpace(section) == "" {
		return []string{}
	}

	rules := EntryRulesFor(label)
	var entries []string
	var current []string

	for _, line := range strings.Split(section, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if _, isNew := StartsEntry(rules, stripped); isNew && len(current) > 0 {
			entries = append(entries, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, stripped)
	}
	if len(current) > 0 {
		entries = append(entries, strings.Join(current, "\n"))
	}

	if len(entries) <= 1 {
		return []string{strings.TrimSpace(section)}
	}
	return entries
}

// ExtractDateRange 提取时间段
// 优先匹配完整日期区间，否则退回到年份：两个及以上取前两个，一个取其本身
func ExtractDateRange(text string) string {
	if m := DateRangePattern.FindStringSubmatch(text); m != nil {
		return m[1] + " - " + m[2]
	}
	years := YearPattern.FindAllString(text, 2)
	switch len(years) {
	case 0:
		return ""
	case 1:
		return years[0]
	default:
		return years[0] + " - " + years[1]
	}
}
