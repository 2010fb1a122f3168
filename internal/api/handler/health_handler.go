package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// DependencyStatus 返回各存储后端的状态
type DependencyStatus func(ctx context.Context) map[string]string

// HealthHandler GET /health
type HealthHandler struct {
	service string
	status  DependencyStatus
}

// NewHealthHandler status 为 nil 时 dependencies 为空对象
func NewHealthHandler(service string, status DependencyStatus) *HealthHandler {
	return &HealthHandler{service: service, status: status}
}

// HandleHealth 服务始终返回 healthy，后端状态只作参考
func (h *HealthHandler) HandleHealth(ctx context.Context, c *app.RequestContext) {
	deps := map[string]string{}
	if h.status != nil {
		deps = h.status(ctx)
	}
	c.JSON(consts.StatusOK, utils.H{
		"status":       "healthy",
		"service":      h.service,
		"timestamp":    timestamp(),
		"dependencies": deps,
	})
}
