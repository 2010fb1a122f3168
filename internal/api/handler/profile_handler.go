package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"job-applier-go/internal/constants"
	"job-applier-go/internal/parser"
	"job-applier-go/internal/processor"
	"job-applier-go/internal/types"
)

const (
	msgInsufficientCV = "Could not extract sufficient text. Please upload a valid CV."
	defaultUploadMB   = 10
)

// ProfileExtractor 从文件或文本生成结构化档案
type ProfileExtractor interface {
	ExtractFromFile(ctx context.Context, filename string, data []byte) (*types.StructuredProfile, error)
	ExtractFromText(ctx context.Context, text string) (*types.StructuredProfile, error)
	MinTextLength() int
}

// ProfileHandler 处理简历上传和文本自动填充
type ProfileHandler struct {
	svc            ProfileExtractor
	maxUploadBytes int64
}

// NewProfileHandler 创建处理器，maxUploadMB<=0 时使用 10MB
func NewProfileHandler(svc ProfileExtractor, maxUploadMB int) *ProfileHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = defaultUploadMB
	}
	return &ProfileHandler{
		svc:            svc,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// HandleExtractCV POST /agents/extract-cv
func (h *ProfileHandler) HandleExtractCV(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithDetail(c, consts.StatusBadRequest, "No file uploaded")
		return
	}
	if !processor.IsAllowedExtension(fileHeader.Filename) {
		abortWithDetail(c, consts.StatusBadRequest,
			fmt.Sprintf("Invalid file type. Allowed: %s", strings.Join(constants.AllowedCVExtensions, ", ")))
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		abortWithDetail(c, consts.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large. Maximum size is %d MB", h.maxUploadBytes>>20))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(ctx, c, "Extraction failed", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		respondError(ctx, c, "Extraction failed", err)
		return
	}

	profile, err := h.svc.ExtractFromFile(ctx, fileHeader.Filename, data)
	switch {
	case err == nil:
		c.JSON(consts.StatusOK, profile)
	case errors.Is(err, parser.ErrUnsupportedFileType):
		abortWithDetail(c, consts.StatusBadRequest,
			fmt.Sprintf("Invalid file type. Allowed: %s", strings.Join(constants.AllowedCVExtensions, ", ")))
	case errors.Is(err, processor.ErrInsufficientText), errors.Is(err, parser.ErrEmptyDocument):
		hlog.CtxInfof(ctx, "上传文件 %s 文本不足: %v", fileHeader.Filename, err)
		abortWithDetail(c, consts.StatusBadRequest, msgInsufficientCV)
	default:
		respondError(ctx, c, "Extraction failed", err)
	}
}

// HandleAutofill POST /agents/autofill，表单字段 text_content
func (h *ProfileHandler) HandleAutofill(ctx context.Context, c *app.RequestContext) {
	text := string(c.FormValue("text_content"))

	profile, err := h.svc.ExtractFromText(ctx, text)
	switch {
	case err == nil:
		c.JSON(consts.StatusOK, profile)
	case errors.Is(err, processor.ErrInsufficientText):
		abortWithDetail(c, consts.StatusBadRequest,
			fmt.Sprintf("Please provide at least %d characters", h.svc.MinTextLength()))
	default:
		respondError(ctx, c, "Autofill failed", err)
	}
}
