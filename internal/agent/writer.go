package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"job-applier-go/internal/types"
)

// TailorRequest 简历定制请求
type TailorRequest struct {
	OriginalResume string
	JobDescription string
	Profile        *types.UserProfile
}

// CoverLetterRequest 求职信请求
type CoverLetterRequest struct {
	JobDescription string
	CompanyName    string
	Profile        *types.UserProfile
}

// EmailRequest 联系邮件请求
type EmailRequest struct {
	JobDescription string
	RecipientType  string
	Profile        *types.UserProfile
}

// WriterModels 三类文书各自使用的模型
type WriterModels struct {
	Tailor      model.ToolCallingChatModel
	CoverLetter model.ToolCallingChatModel
	Email       model.ToolCallingChatModel
}

// Writer 生成定制简历、求职信和联系邮件
type Writer struct {
	tailor      *PromptAgent
	coverLetter *PromptAgent
	email       *PromptAgent
	minJDLength int
}

// NewWriter minJDLength 为职位描述的最少字符数，0 表示只要求非空
func NewWriter(models WriterModels, minJDLength int, opts ...PromptOption) *Writer {
	return &Writer{
		tailor:      NewPromptAgent("CVTailorAgent", tailorInstructions, models.Tailor, opts...),
		coverLetter: NewPromptAgent("Cover Letter", coverLetterInstructions, models.CoverLetter, opts...),
		email:       NewPromptAgent("Email Generator", emailInstructions, models.Email, opts...),
		minJDLength: minJDLength,
	}
}

// TailorResume 按职位描述改写简历
func (w *Writer) TailorResume(ctx context.Context, req TailorRequest) (string, error) {
	if err := requireText(req.OriginalResume, "Original resume", 0); err != nil {
		return "", err
	}
	if err := requireText(req.JobDescription, "Job description", w.minJDLength); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("USER PROFILE:\n%s\n\nORIGINAL RESUME:\n%s\n\nJOB DESCRIPTION:\n%s\n\n"+
		"Tailor the resume to best match the job description.\n",
		BuildUserContext(req.Profile), req.OriginalResume, req.JobDescription)
	return w.tailor.Run(ctx, prompt)
}

// CoverLetter 生成求职信
func (w *Writer) CoverLetter(ctx context.Context, req CoverLetterRequest) (string, error) {
	if err := requireText(req.JobDescription, "Job description", w.minJDLength); err != nil {
		return "", err
	}
	company := req.CompanyName
	if company == "" {
		company = "Not specified"
	}

	prompt := fmt.Sprintf("USER PROFILE:\n%s\n\nJOB DESCRIPTION:\n%s\n\nCOMPANY: %s\n\n"+
		"Generate a professional cover letter for this candidate.\n",
		BuildUserContext(req.Profile), req.JobDescription, company)
	return w.coverLetter.Run(ctx, prompt)
}

// Email 生成给招聘方的联系邮件
func (w *Writer) Email(ctx context.Context, req EmailRequest) (string, error) {
	if err := requireText(req.JobDescription, "Job description", w.minJDLength); err != nil {
		return "", err
	}
	recipient := req.RecipientType
	if recipient == "" {
		recipient = "recruiter"
	}

	prompt := fmt.Sprintf("USER PROFILE:\n%s\n\nJOB DESCRIPTION:\n%s\n\nRECIPIENT: %s\n\n"+
		"Generate a professional outreach email.\n",
		BuildUserContext(req.Profile), req.JobDescription, recipient)
	return w.email.Run(ctx, prompt)
}
