package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "jobapplier"

	// ProfileModulePrefix 档案抽取模块
	ProfileModulePrefix = "profile"
	// SearchModulePrefix 职位搜索模块
	SearchModulePrefix = "search"
	// ChatModulePrefix 对话模块
	ChatModulePrefix = "chat"
	// MatchModulePrefix 匹配评分模块
	MatchModulePrefix = "match"

	// EntityExtraction 抽取结果实体
	EntityExtraction = "extraction"
	// EntityResult 搜索结果实体
	EntityResult = "result"
	// EntitySession 会话实体
	EntitySession = "session"
	// EntityEmbedding 文本向量实体
	EntityEmbedding = "embedding"
	// EntityLock 分布式锁实体
	EntityLock = "lock"

	// KeyProfileExtraction 结构化档案缓存 (STRING, JSON)
	// 格式: jobapplier:profile:extraction:{pipeline}:{textMD5}
	KeyProfileExtraction = AppPrefix + ":" + ProfileModulePrefix + ":" + EntityExtraction + ":%s:%s"

	// KeySearchResult 职位搜索结果缓存 (STRING, JSON)
	// 格式: jobapplier:search:result:{requestHash}
	KeySearchResult = AppPrefix + ":" + SearchModulePrefix + ":" + EntityResult + ":%s"

	// KeySearchLock 同一搜索请求的抓取锁 (STRING)
	// 格式: jobapplier:search:lock:{requestHash}
	KeySearchLock = AppPrefix + ":" + SearchModulePrefix + ":" + EntityLock + ":%s"

	// KeyChatSession 对话历史 (LIST)
	// 格式: jobapplier:chat:session:{sessionID}
	KeyChatSession = AppPrefix + ":" + ChatModulePrefix + ":" + EntitySession + ":%s"

	// KeyMatchEmbedding 简历/职位描述文本向量缓存 (STRING, JSON)
	// 格式: jobapplier:match:embedding:{model}:{textMD5}
	KeyMatchEmbedding = AppPrefix + ":" + MatchModulePrefix + ":" + EntityEmbedding + ":%s:%s"
)
