package jobsearch

import (
	"fmt"
	"sort"
	"strings"

	"job-applier-go/internal/types"
	"job-applier-go/pkg/utils"
)

// 单条职位的相关度权重
const (
	titleKeywordWeight      = 0.5
	titleAdditionalWeight   = 0.3
	descriptionKeywordScore = 0.2
	skillMatchWeight        = 0.1

	descriptionPreviewChars = 500
	maxAdditionalTerms      = 2
)

var jobTypeMap = map[string]string{
	"full-time":  "fulltime",
	"part-time":  "parttime",
	"contract":   "contract",
	"internship": "internship",
}

// MapJobType 把前端的合同类型转换为抓取后端的取值，未知类型返回空串
func MapJobType(jobType string) string {
	return jobTypeMap[strings.ToLower(strings.TrimSpace(jobType))]
}

// SearchTerms 关键词加上前两个附加关键词
func SearchTerms(keyword string, additional []string) []string {
	terms := []string{keyword}
	for _, kw := range additional {
		if len(terms) > maxAdditionalTerms {
			break
		}
		if kw = strings.TrimSpace(kw); kw != "" {
			terms = append(terms, kw)
		}
	}
	return terms
}

// Relevance 按标题和描述里出现的关键词打分，上限 1.0
func Relevance(title, description, keyword string, additional []string) float64 {
	title = strings.ToLower(title)
	description = strings.ToLower(description)
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	var score float64
	if keyword != "" && strings.Contains(title, keyword) {
		score += titleKeywordWeight
	}
	for _, kw := range additional {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(title, kw) {
			score += titleAdditionalWeight
			break
		}
	}
	if keyword != "" && strings.Contains(description, keyword) {
		score += descriptionKeywordScore
	}
	return min(score, 1.0)
}

// ToListing 把抓取结果行转换为职位，缺失字段使用默认值
func ToListing(row types.ScrapedRow, term string, index int, keyword string, additional []string) types.JobListing {
	title := utils.Deref(row.Title, "")
	description := utils.Deref(row.Description, "")

	return types.JobListing{
		ID:          fmt.Sprintf("%s-%d-%s", term, index, utils.Deref(row.ID, "")),
		Title:       utils.Deref(row.Title, "Unknown Title"),
		Company:     utils.Deref(row.Company, "Unknown Company"),
		Location:    utils.Deref(row.Location, "Unknown Location"),
		Description: utils.TruncateRunes(description, descriptionPreviewChars) + "...",
		ApplyURL:    utils.Deref(row.JobURL, ""),
		DatePosted:  utils.Deref(row.DatePosted, ""),
		JobType:     utils.StringPtr(utils.Deref(row.JobType, "")),
		Salary:      utils.StringPtr(utils.Deref(row.Compensation, "")),
		Source:      utils.Deref(row.Site, "unknown"),
		MatchScore:  Relevance(title, description, keyword, additional),
	}
}

// Dedupe 按投递链接去重，保留第一次出现的职位
func Dedupe(jobs []types.JobListing) []types.JobListing {
	seen := make(map[string]struct{}, len(jobs))
	unique := make([]types.JobListing, 0, len(jobs))
	for _, job := range jobs {
		if _, ok := seen[job.ApplyURL]; ok {
			continue
		}
		seen[job.ApplyURL] = struct{}{}
		unique = append(unique, job)
	}
	return unique
}

// SortByScore 按匹配分降序，同分保持原有顺序
func SortByScore(jobs []types.JobListing) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].MatchScore > jobs[j].MatchScore
	})
}

// Rank 去重、排序并截断到 limit 条
func Rank(jobs []types.JobListing, limit int) []types.JobListing {
	unique := Dedupe(jobs)
	SortByScore(unique)
	if limit >= 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

// BoostBySkills 描述中每出现一个技能加 0.1，上限 1.0，然后重新排序
func BoostBySkills(jobs []types.JobListing, skills []types.SkillItem) {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		if name := strings.ToLower(strings.TrimSpace(s.Name)); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return
	}
	for i := range jobs {
		desc := strings.ToLower(jobs[i].Description)
		matches := 0
		for _, name := range names {
			if strings.Contains(desc, name) {
				matches++
			}
		}
		jobs[i].MatchScore = min(1.0, jobs[i].MatchScore+float64(matches)*skillMatchWeight)
	}
	SortByScore(jobs)
}
