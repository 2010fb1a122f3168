package types

import (
	"encoding/json"
)

// MatchResult 简历与职位匹配分析结果
type MatchResult struct {
	ATSScore           float64  `json:"ats_score"`
	MatchScore         float64  `json:"match_score"`
	Strengths          []string `json:"strengths"`
	Gaps               []string `json:"gaps"`
	KeywordsToAdd      []string `json:"keywords_to_add"`
	RecommendedBullets []string `json:"recommended_bullets"`

	// 组成最终分数的三项，默认结果中为空
	KeywordScore  float64 `json:"keyword_score,omitempty"`
	SemanticScore float64 `json:"semantic_score,omitempty"`
	ModelScore    float64 `json:"model_score,omitempty"`
}

// DefaultMatchResult 模型输出无法解析时使用的默认结果
func DefaultMatchResult() MatchResult {
	return MatchResult{
		ATSScore:           75,
		MatchScore:         0.75,
		Strengths:          []string{"Relevant experience"},
		Gaps:               []string{"Could add more keywords"},
		KeywordsToAdd:      []string{"Leadership", "Communication"},
		RecommendedBullets: []string{"Led cross-functional teams"},
	}
}

// ProfileUpdate 对话中识别出的档案更新建议，需要用户确认后才会应用
type ProfileUpdate struct {
	HasUpdate      bool            `json:"has_update"`
	Field          string          `json:"field"`
	SuggestedValue json.RawMessage `json:"suggested_value"`
	UserPrompt     string          `json:"user_prompt"`
}

// ChatTurn 一轮对话消息
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RecentJob 最近浏览的职位
type RecentJob struct {
	Title   string `json:"title"`
	Company string `json:"company"`
}

// ChatContext 对话使用的档案上下文
// 请求里的 profile/context 可以是裸档案，也可以是 {userProfile, jobPreferences, recentJobs}
type ChatContext struct {
	Profile        UserProfile
	JobPreferences JobPreferences
	RecentJobs     []RecentJob
}

// UnmarshalJSON 识别两种档案形态
func (c *ChatContext) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if _, ok := probe["userProfile"]; !ok {
		c.JobPreferences = JobPreferences{}
		c.RecentJobs = nil
		return json.Unmarshal(data, &c.Profile)
	}

	var envelope struct {
		UserProfile    UserProfile    `json:"userProfile"`
		JobPreferences JobPreferences `json:"jobPreferences"`
		RecentJobs     []RecentJob    `json:"recentJobs"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	c.Profile = envelope.UserProfile
	c.JobPreferences = envelope.JobPreferences
	c.RecentJobs = envelope.RecentJobs
	return nil
}

// IsEmpty 没有档案、偏好和最近职位
func (c *ChatContext) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.Profile.IsEmpty() && c.JobPreferences.IsEmpty() && len(c.RecentJobs) == 0
}
