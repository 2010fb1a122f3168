package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"job-applier-go/internal/agent"
	"job-applier-go/internal/types"
)

// errInvalidBody 请求体不是合法 JSON
var errInvalidBody = errors.New("invalid JSON body")

// abortWithDetail 以 {"detail": ...} 的形式返回错误
func abortWithDetail(c *app.RequestContext, status int, detail string) {
	c.AbortWithStatusJSON(status, utils.H{"detail": detail})
}

// respondError 校验错误返回 400，其它错误返回 500 并带上前缀
func respondError(ctx context.Context, c *app.RequestContext, prefix string, err error) {
	var vErr *agent.ValidationError
	if errors.As(err, &vErr) {
		abortWithDetail(c, consts.StatusBadRequest, vErr.Detail)
		return
	}
	if errors.Is(err, errInvalidBody) {
		abortWithDetail(c, consts.StatusBadRequest, err.Error())
		return
	}
	hlog.CtxErrorf(ctx, "%s: %v", prefix, err)
	abortWithDetail(c, consts.StatusInternalServerError, fmt.Sprintf("%s: %s", prefix, err.Error()))
}

// bindJSON 解析请求体，空请求体视为 {}
func bindJSON(c *app.RequestContext, dest any) error {
	body := bytes.TrimSpace(c.Request.Body())
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %s", errInvalidBody, err.Error())
	}
	return nil
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstProfile(profiles ...*types.UserProfile) *types.UserProfile {
	for _, p := range profiles {
		if !p.IsEmpty() {
			return p
		}
	}
	return nil
}
