package parser

import (
	"regexp"

	"job-applier-go/internal/types"
)

// 可预测字段的正则，全部在包初始化时编译，只读
var (
	EmailPattern     = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	PhonePattern     = regexp.MustCompile(`(?:\+27|27|0)[\s-]?(?:\d{2})[\s-]?(?:\d{3})[\s-]?(?:\d{4})`)
	LinkedInPattern  = regexp.MustCompile(`(?i)linkedin\.com/in/[a-zA-Z0-9_-]+`)
	GitHubPattern    = regexp.MustCompile(`(?i)github\.com/[a-zA-Z0-9_-]+`)
	PortfolioPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?[a-zA-Z0-9-]+\.(?:com|co\.za|dev|io)[^\s]*`)
	URLPattern       = regexp.MustCompile(`https?://[^\s]+`)

	// DateRangePattern 两个日期记号，中间由 - – — 或 to 分隔，结束可为 present/current/now
	DateRangePattern = regexp.MustCompile(`(?i)(` + dateToken + `)[\s\-–—to]+(` + dateToken + `|present|current|now)`)
	YearPattern      = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

const dateToken = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[\s\.\-/]+\d{2,4}|\d{1,2}[/\-\.]\d{2,4}|\d{4}`

// SectionHeader 单个分节标题规则
type SectionHeader struct {
	Label   types.SectionLabel
	Pattern *regexp.Regexp
}

func headerPattern(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(?:` + alternatives + `)[:\s]*$`)
}

// SectionHeaders 按匹配优先级排列的分节标题规则
var SectionHeaders = []SectionHeader{
	{types.SectionExperience, headerPattern(`experience|work\s+experience|employment|career\s+history|professional\s+experience|work\s+history`)},
	{types.SectionEducation, headerPattern(`education|academic|qualifications|academic\s+background|degrees`)},
	{types.SectionSkills, headerPattern(`skills|technical\s+skills|technologies|core\s+competencies|expertise`)},
	{types.SectionProjects, headerPattern(`projects|personal\s+projects|relevant\s+projects|key\s+projects`)},
	{types.SectionCertifications, headerPattern(`certifications|licenses|certs|accreditations|professional\s+certifications`)},
	{types.SectionSummary, headerPattern(`summary|professional\s+summary|profile|objective|about`)},
	{types.SectionLanguages, headerPattern(`languages|language\s+proficiency`)},
	{types.SectionAwards, headerPattern(`awards|honors|achievements|recognitions`)},
}

// MatchSectionHeader 返回行匹配的分节标签
func MatchSectionHeader(line string) (types.SectionLabel, bool) {
	for _, h := range SectionHeaders {
		if h.Pattern.MatchString(line) {
			return h.Label, true
		}
	}
	return "", false
}
