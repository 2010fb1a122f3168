package types

import (
	"encoding/json"
)

// JobSearchRequest 职位搜索请求，蛇形与驼峰字段名都可以
type JobSearchRequest struct {
	Keyword            string   `json:"keyword"`
	Location           string   `json:"location"`
	Remote             bool     `json:"remote"`
	JobType            string   `json:"job_type,omitempty"`
	MaxResults         int      `json:"max_results"`
	DaysOld            int      `json:"days_old"`
	Sites              []string `json:"sites"`
	AdditionalKeywords []string `json:"additional_keywords"`
}

// UnmarshalJSON 兼容 jobType/maxResults/daysOld/additionalKeywords
func (r *JobSearchRequest) UnmarshalJSON(data []byte) error {
	type plain JobSearchRequest
	var w struct {
		plain
		JobTypeCamel            string   `json:"jobType"`
		MaxResultsCamel         int      `json:"maxResults"`
		DaysOldCamel            int      `json:"daysOld"`
		AdditionalKeywordsCamel []string `json:"additionalKeywords"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = JobSearchRequest(w.plain)
	if r.JobType == "" {
		r.JobType = w.JobTypeCamel
	}
	if r.MaxResults == 0 {
		r.MaxResults = w.MaxResultsCamel
	}
	if r.DaysOld == 0 {
		r.DaysOld = w.DaysOldCamel
	}
	if len(r.AdditionalKeywords) == 0 {
		r.AdditionalKeywords = w.AdditionalKeywordsCamel
	}
	return nil
}

// JobListing 聚合后的职位
type JobListing struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
	ApplyURL    string  `json:"apply_url"`
	DatePosted  string  `json:"date_posted"`
	JobType     *string `json:"job_type"`
	Salary      *string `json:"salary"`
	Source      string  `json:"source"`
	MatchScore  float64 `json:"match_score"`
}

// ScrapedRow 抓取后端返回的原始行，缺失字段为 nil
type ScrapedRow struct {
	ID           *string `json:"id"`
	Title        *string `json:"title"`
	Company      *string `json:"company"`
	Location     *string `json:"location"`
	Description  *string `json:"description"`
	JobURL       *string `json:"job_url"`
	DatePosted   *string `json:"date_posted"`
	JobType      *string `json:"job_type"`
	Compensation *string `json:"compensation"`
	Site         *string `json:"site"`
}

// ScrapeQuery 单个搜索词发给抓取后端的参数
type ScrapeQuery struct {
	SiteName      []string `json:"site_name"`
	SearchTerm    string   `json:"search_term"`
	Location      string   `json:"location"`
	ResultsWanted int      `json:"results_wanted"`
	HoursOld      int      `json:"hours_old"`
	CountryIndeed string   `json:"country_indeed"`
	IsRemote      bool     `json:"is_remote"`
	JobType       string   `json:"job_type,omitempty"`
}

// SearchByProfileRequest 按档案搜索职位
type SearchByProfileRequest struct {
	Profile     UserProfile    `json:"profile"`
	Preferences JobPreferences `json:"preferences"`
	MaxResults  int            `json:"max_results"`
}

// UnmarshalJSON 兼容 maxResults
func (r *SearchByProfileRequest) UnmarshalJSON(data []byte) error {
	type plain SearchByProfileRequest
	var w struct {
		plain
		MaxResultsCamel int `json:"maxResults"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = SearchByProfileRequest(w.plain)
	if r.MaxResults == 0 {
		r.MaxResults = w.MaxResultsCamel
	}
	return nil
}

// SearchByProfileResponse 按档案搜索的结果
type SearchByProfileResponse struct {
	Jobs            []JobListing `json:"jobs"`
	SearchTermsUsed []string     `json:"search_terms_used"`
	TotalFound      int          `json:"total_found"`
}
