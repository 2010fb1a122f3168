package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"job-applier-go/internal/agent"
	"job-applier-go/internal/types"
)

// AgentHandler 对话、职位名称、文书生成和匹配评分
type AgentHandler struct {
	chat    *agent.ChatAgent
	titles  *agent.TitleExtractor
	writer  *agent.Writer
	matcher *agent.Matcher
}

// NewAgentHandler 创建处理器
func NewAgentHandler(chat *agent.ChatAgent, titles *agent.TitleExtractor, writer *agent.Writer, matcher *agent.Matcher) *AgentHandler {
	return &AgentHandler{chat: chat, titles: titles, writer: writer, matcher: matcher}
}

type chatBody struct {
	Message        string             `json:"message"`
	Profile        *types.ChatContext `json:"profile"`
	Context        *types.ChatContext `json:"context"`
	ChatHistory    []types.ChatTurn   `json:"chatHistory"`
	SessionID      string             `json:"sessionId"`
	SessionIDSnake string             `json:"session_id"`
}

type chatResponse struct {
	Response      string               `json:"response"`
	ProfileUpdate *types.ProfileUpdate `json:"profileUpdate"`
	Timestamp     string               `json:"timestamp"`
	SessionID     string               `json:"sessionId,omitempty"`
}

// HandleChat POST /agents/neilwe-chat
func (h *AgentHandler) HandleChat(ctx context.Context, c *app.RequestContext) {
	var body chatBody
	if err := bindJSON(c, &body); err != nil {
		respondError(ctx, c, "Chat failed", err)
		return
	}

	var cc types.ChatContext
	switch {
	case body.Profile != nil && !body.Profile.IsEmpty():
		cc = *body.Profile
	case body.Context != nil:
		cc = *body.Context
	}

	reply, err := h.chat.Chat(ctx, agent.ChatRequest{
		Message:   body.Message,
		Context:   cc,
		History:   body.ChatHistory,
		SessionID: firstNonEmpty(body.SessionID, body.SessionIDSnake),
	})
	if err != nil {
		respondError(ctx, c, "Chat failed", err)
		return
	}
	c.JSON(consts.StatusOK, chatResponse{
		Response:      reply.Response,
		ProfileUpdate: reply.ProfileUpdate,
		Timestamp:     timestamp(),
		SessionID:     reply.SessionID,
	})
}

type titlesBody struct {
	CVText             string `json:"cv_text"`
	CVTextCamel        string `json:"cvText"`
	PreferredRole      string `json:"preferred_role"`
	PreferredRoleCamel string `json:"preferredRole"`
}

// HandleExtractJobTitles POST /agents/extract-job-titles
func (h *AgentHandler) HandleExtractJobTitles(ctx context.Context, c *app.RequestContext) {
	var body titlesBody
	if err := bindJSON(c, &body); err != nil {
		respondError(ctx, c, "Job title extraction failed", err)
		return
	}

	titles, primary, err := h.titles.Extract(ctx,
		firstNonEmpty(body.CVText, body.CVTextCamel),
		firstNonEmpty(body.PreferredRole, body.PreferredRoleCamel))
	if err != nil {
		respondError(ctx, c, "Job title extraction failed", err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"job_titles":    titles,
		"primary_title": primary,
		"timestamp":     timestamp(),
	})
}

// writerBody 三类文书共用的请求体，蛇形与驼峰键都可以
type writerBody struct {
	OriginalResume      string             `json:"original_resume"`
	OriginalCV          string             `json:"originalCV"`
	ResumeText          string             `json:"resume_text"`
	ResumeTextCamel     string             `json:"resumeText"`
	JobDescription      string             `json:"job_description"`
	JobDescriptionCamel string             `json:"jobDescription"`
	UserProfile         *types.UserProfile `json:"user_profile"`
	UserProfileCamel    *types.UserProfile `json:"userProfile"`
	CompanyName         string             `json:"company_name"`
	CompanyNameCamel    string             `json:"companyName"`
	RecipientType       string             `json:"recipient_type"`
	RecipientTypeCamel  string             `json:"recipientType"`
}

func (b writerBody) jobDescription() string {
	return firstNonEmpty(b.JobDescription, b.JobDescriptionCamel)
}

func (b writerBody) profile() *types.UserProfile {
	return firstProfile(b.UserProfile, b.UserProfileCamel)
}

// HandleTailorResume POST /agents/tailor-resume
func (h *AgentHandler) HandleTailorResume(ctx context.Context, c *app.RequestContext) {
	var body writerBody
	if err := bindJSON(c, &body); err != nil {
		respondError(ctx, c, "Tailoring failed", err)
		return
	}
	text, err := h.writer.TailorResume(ctx, agent.TailorRequest{
		OriginalResume: firstNonEmpty(body.OriginalResume, body.OriginalCV),
		JobDescription: body.jobDescription(),
		Profile:        body.profile(),
	})
	if err != nil {
		respondError(ctx, c, "Tailoring failed", err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"tailored_resume": text, "timestamp": timestamp()})
}

// HandleCoverLetter POST /agents/generate-cover-letter
func (h *AgentHandler) HandleCoverLetter(ctx context.Context, c *app.RequestContext) {
	var body writerBody
	if err := bindJSON(c, &body); err != nil {
		respondError(ctx, c, "Generation failed", err)
		return
	}
	text, err := h.writer.CoverLetter(ctx, agent.CoverLetterRequest{
		JobDescription: body.jobDescription(),
		CompanyName:    firstNonEmpty(body.CompanyName, body.CompanyNameCamel),
		Profile:        body.profile(),
	})
	if err != nil {
		respondError(ctx, c, "Generation failed", err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"cover_letter": text, "timestamp": timestamp()})
}

// HandleEmail POST /agents/generate-email
func (h *AgentHandler) HandleEmail(ctx context.Context, c *app.RequestContext) {
	var body writerBody
	if err := bindJSON(c, &body); err != nil {
		respondError(ctx, c, "Email generation failed", err)
		return
	}
	text, err := h.writer.Email(ctx, agent.EmailRequest{
		JobDescription: body.jobDescription(),
		RecipientType:  firstNonEmpty(body.RecipientTypeCamel, body.RecipientType),
		Profile:        body.profile(),
	})
	if err != nil {
		respondError(ctx, c, "Email generation failed", err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"email": text, "timestamp": timestamp()})
}

// HandleMatchScore POST /agents/match-score
func (h *AgentHandler) HandleMatchScore(ctx context.Context, c *app.RequestContext) {
	var body writerBody
	if err := bindJSON(c, &body); err != nil {
		respondError(ctx, c, "Match score failed", err)
		return
	}
	result, err := h.matcher.Score(ctx, agent.MatchRequest{
		ResumeText:     firstNonEmpty(body.ResumeText, body.ResumeTextCamel),
		JobDescription: body.jobDescription(),
		Profile:        body.profile(),
	})
	if err != nil {
		respondError(ctx, c, "Match score failed", err)
		return
	}
	c.JSON(consts.StatusOK, result)
}
