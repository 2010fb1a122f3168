package handler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"job-applier-go/internal/jobsearch"
	"job-applier-go/internal/types"
)

// JobSearchHandler 职位搜索、按档案搜索和结果导出
type JobSearchHandler struct {
	svc *jobsearch.Service
}

// NewJobSearchHandler 创建处理器
func NewJobSearchHandler(svc *jobsearch.Service) *JobSearchHandler {
	return &JobSearchHandler{svc: svc}
}

// HandleSearch POST /search
func (h *JobSearchHandler) HandleSearch(ctx context.Context, c *app.RequestContext) {
	jobs, ok := h.search(ctx, c)
	if !ok {
		return
	}
	c.JSON(consts.StatusOK, jobs)
}

// HandleSearchByProfile POST /search-by-profile
func (h *JobSearchHandler) HandleSearchByProfile(ctx context.Context, c *app.RequestContext) {
	var req types.SearchByProfileRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(ctx, c, "Search failed", err)
		return
	}
	resp, err := h.svc.SearchByProfile(ctx, req)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleExport POST /search/export，返回 xlsx 工作簿
func (h *JobSearchHandler) HandleExport(ctx context.Context, c *app.RequestContext) {
	jobs, ok := h.search(ctx, c)
	if !ok {
		return
	}
	data, err := jobsearch.ExportXLSX(jobs)
	if err != nil {
		respondError(ctx, c, "Export failed", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(c)))
	c.Data(consts.StatusOK, jobsearch.XLSXContentType, data)
}

func (h *JobSearchHandler) search(ctx context.Context, c *app.RequestContext) ([]types.JobListing, bool) {
	var req types.JobSearchRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(ctx, c, "Search failed", err)
		return nil, false
	}
	jobs, err := h.svc.Search(ctx, req)
	if err != nil {
		h.fail(ctx, c, err)
		return nil, false
	}
	c.Set("search_keyword", req.Keyword)
	return jobs, true
}

func (h *JobSearchHandler) fail(ctx context.Context, c *app.RequestContext, err error) {
	if errors.Is(err, jobsearch.ErrKeywordRequired) {
		abortWithDetail(c, consts.StatusBadRequest, "Keyword is required")
		return
	}
	hlog.CtxErrorf(ctx, "职位搜索失败: %v", err)
	abortWithDetail(c, consts.StatusInternalServerError, err.Error())
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

func exportFilename(c *app.RequestContext) string {
	keyword := strings.ToLower(c.GetString("search_keyword"))
	slug := strings.Trim(unsafeFilename.ReplaceAllString(keyword, "-"), "-")
	if slug == "" {
		return "jobs.xlsx"
	}
	return "jobs-" + slug + ".xlsx"
}
