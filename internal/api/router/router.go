package router

import (
	"context"
	"slices"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"job-applier-go/internal/api/handler"
)

// APIKeyHeader 携带 API key 的请求头
const APIKeyHeader = "X-API-Key"

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Health    *handler.HealthHandler
	Profile   *handler.ProfileHandler
	Agent     *handler.AgentHandler
	JobSearch *handler.JobSearchHandler
}

// RegisterRoutes 注册 API 路由，apiKeys 非空时除 /health 外都需要鉴权
func RegisterRoutes(h *server.Hertz, hs Handlers, apiKeys []string) {
	h.Use(AccessLog())

	h.GET("/health", hs.Health.HandleHealth)

	var auth []app.HandlerFunc
	if len(apiKeys) > 0 {
		auth = append(auth, APIKeyAuth(apiKeys))
	}

	agents := h.Group("/agents", auth...)
	agents.POST("/extract-cv", hs.Profile.HandleExtractCV)
	agents.POST("/autofill", hs.Profile.HandleAutofill)
	agents.POST("/neilwe-chat", hs.Agent.HandleChat)
	agents.POST("/extract-job-titles", hs.Agent.HandleExtractJobTitles)
	agents.POST("/tailor-resume", hs.Agent.HandleTailorResume)
	agents.POST("/generate-cover-letter", hs.Agent.HandleCoverLetter)
	agents.POST("/generate-email", hs.Agent.HandleEmail)
	agents.POST("/match-score", hs.Agent.HandleMatchScore)

	h.POST("/search", chain(auth, hs.JobSearch.HandleSearch)...)
	h.POST("/search/export", chain(auth, hs.JobSearch.HandleExport)...)
	h.POST("/search-by-profile", chain(auth, hs.JobSearch.HandleSearchByProfile)...)
}

func chain(middleware []app.HandlerFunc, h app.HandlerFunc) []app.HandlerFunc {
	return append(slices.Clone(middleware), h)
}

// AccessLog 记录方法、路径、状态码和耗时
func AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		hlog.CtxInfof(ctx, "%s %s %d %s", c.Method(), c.Path(), c.Response.StatusCode(), time.Since(start))
	}
}

// APIKeyAuth 校验 X-API-Key 请求头
func APIKeyAuth(keys []string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithValidator(func(_ context.Context, _ *app.RequestContext, key string) (bool, error) {
			return slices.Contains(keys, key), nil
		}),
		keyauth.WithErrorHandler(func(_ context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"detail": "Invalid or missing API key"})
		}),
	)
}
