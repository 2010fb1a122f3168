package constants

import "time"

const (
	// ServiceAIName AI 代理服务名
	ServiceAIName = "ai-service"
	// ServiceJobSearchName 职位抓取服务名
	ServiceJobSearchName = "jobspy"

	// PipelineHybrid 正则+LLM混合抽取流水线版本，参与缓存键计算
	PipelineHybrid = "hybrid-v1"

	// ProfileCacheDuration 结构化档案缓存默认时长
	ProfileCacheDuration = 24 * time.Hour
	// SearchCacheDuration 职位搜索结果缓存默认时长
	SearchCacheDuration = 15 * time.Minute
	// ChatSessionDuration 对话会话默认保留时长
	ChatSessionDuration = 72 * time.Hour
	// SearchLockWaitDuration 等待并发搜索写入缓存的默认时长
	SearchLockWaitDuration = 5 * time.Second
	// EmbeddingCacheDuration 文本向量缓存时长
	EmbeddingCacheDuration = 24 * time.Hour
)

// 允许上传的简历扩展名
var AllowedCVExtensions = []string{".pdf", ".docx", ".doc", ".txt"}
