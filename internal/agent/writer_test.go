package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/types"
	llm "job-applier-go/pkg/agent"
)

const sampleJD = "Backend Engineer: Go, PostgreSQL, Kubernetes. Remote friendly."

func newTestWriter(model *llm.MockChatClient) *Writer {
	return NewWriter(WriterModels{Tailor: model, CoverLetter: model, Email: model}, 20)
}

func TestTailorResume(t *testing.T) {
	model := llm.NewMockChatClient("JANE DOE\nSUMMARY\n...", nil)
	w := newTestWriter(model)

	out, err := w.TailorResume(context.Background(), TailorRequest{
		OriginalResume: "Jane Doe, Go developer",
		JobDescription: sampleJD,
		Profile:        &types.UserProfile{Title: "Engineer", ContactInfo: types.UserContact{FirstName: "Jane"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "JANE DOE\nSUMMARY\n...", out)

	call := model.Calls[0]
	assert.Contains(t, llm.SystemContent(call), "expert CV/Resume Tailor")
	assert.Equal(t, "USER PROFILE:\nPERSONAL INFO:\n  Name: Jane\n\nORIGINAL RESUME:\nJane Doe, Go developer\n\n"+
		"JOB DESCRIPTION:\n"+sampleJD+"\n\nTailor the resume to best match the job description.\n", llm.LastUserContent(call))
}

func TestTailorResumeValidation(t *testing.T) {
	model := llm.NewMockChatClient("x", nil)
	w := newTestWriter(model)
	var vErr *ValidationError

	_, err := w.TailorResume(context.Background(), TailorRequest{JobDescription: sampleJD})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Original resume is required", vErr.Detail)

	_, err = w.TailorResume(context.Background(), TailorRequest{OriginalResume: "cv"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Job description is required", vErr.Detail)

	_, err = w.TailorResume(context.Background(), TailorRequest{OriginalResume: "cv", JobDescription: "Go dev"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Job description must be at least 20 characters", vErr.Detail)

	assert.Zero(t, model.CallCount())
}

func TestCoverLetterDefaultsCompany(t *testing.T) {
	model := llm.NewMockChatClient("Dear Hiring Manager", nil)
	w := newTestWriter(model)

	out, err := w.CoverLetter(context.Background(), CoverLetterRequest{JobDescription: sampleJD})
	require.NoError(t, err)
	assert.Equal(t, "Dear Hiring Manager", out)
	assert.Contains(t, llm.LastUserContent(model.Calls[0]), "COMPANY: Not specified")
	assert.Contains(t, llm.LastUserContent(model.Calls[0]), "USER PROFILE:\n"+NoProfileContext)

	_, err = w.CoverLetter(context.Background(), CoverLetterRequest{JobDescription: sampleJD, CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Contains(t, llm.LastUserContent(model.Calls[1]), "COMPANY: Acme")
}

func TestEmailRecipient(t *testing.T) {
	model := llm.NewMockChatClient("Subject: Backend role", nil)
	w := newTestWriter(model)

	_, err := w.Email(context.Background(), EmailRequest{JobDescription: sampleJD})
	require.NoError(t, err)
	assert.Contains(t, llm.LastUserContent(model.Calls[0]), "RECIPIENT: recruiter")
	assert.Contains(t, llm.SystemContent(model.Calls[0]), "under 200 words")

	_, err = w.Email(context.Background(), EmailRequest{JobDescription: sampleJD, RecipientType: "hiring manager"})
	require.NoError(t, err)
	assert.Contains(t, llm.LastUserContent(model.Calls[1]), "RECIPIENT: hiring manager")
}

func TestWriterPropagatesModelErrors(t *testing.T) {
	w := newTestWriter(llm.NewMockChatClient("", errors.New("quota exceeded")))
	_, err := w.Email(context.Background(), EmailRequest{JobDescription: sampleJD})
	assert.ErrorContains(t, err, "quota exceeded")
}
