package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/url"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"job-applier-go/internal/agent"
	"job-applier-go/internal/api/handler"
	"job-applier-go/internal/api/router"
	"job-applier-go/internal/jobsearch"
	"job-applier-go/internal/parser"
	"job-applier-go/internal/processor"
	"job-applier-go/internal/types"
	llm "job-applier-go/pkg/agent"
)

const janeDoeCV = "Jane Doe\njane@x.com\n+27 82 123 4567\n\nExperience\nSoftware Engineer at Acme, Jan 2020 - Present\n- Built APIs in Go\n"

const sampleJD = "We are hiring a backend engineer with Go and PostgreSQL experience."

type scraperFunc func(ctx context.Context, q types.ScrapeQuery) ([]types.ScrapedRow, error)

func (f scraperFunc) Scrape(ctx context.Context, q types.ScrapeQuery) ([]types.ScrapedRow, error) {
	return f(ctx, q)
}

func noRows(context.Context, types.ScrapeQuery) ([]types.ScrapedRow, error) {
	return nil, nil
}

type testAPI struct {
	engine *server.Hertz
	model  *llm.MockChatClient
}

// newTestAPI 用 mock 模型和假抓取后端装配完整路由
func newTestAPI(t *testing.T, route func([]*schema.Message) llm.MockResponse, scraper jobsearch.Scraper, apiKeys ...string) *testAPI {
	t.Helper()
	if route == nil {
		route = func([]*schema.Message) llm.MockResponse { return llm.MockResponse{Content: "{}"} }
	}
	model := llm.NewMockChatClientRouter(route)
	if scraper == nil {
		scraper = scraperFunc(noRows)
	}

	text, err := parser.NewDocumentTextExtractor(context.Background())
	require.NoError(t, err)
	profiles := processor.NewProfileService(text,
		processor.NewProfileExtractor(parser.NewLLMFieldExtractor(model)))

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	router.RegisterRoutes(h, router.Handlers{
		Health: handler.NewHealthHandler("ai-service", func(context.Context) map[string]string {
			return map[string]string{"redis": "disabled"}
		}),
		Profile: handler.NewProfileHandler(profiles, 1),
		Agent: handler.NewAgentHandler(
			agent.NewChatAgent(model),
			agent.NewTitleExtractor(model, "", nil),
			agent.NewWriter(agent.WriterModels{Tailor: model, CoverLetter: model, Email: model}, 20),
			agent.NewMatcher(model),
		),
		JobSearch: handler.NewJobSearchHandler(jobsearch.NewService(scraper, jobsearch.Defaults{})),
	}, apiKeys)
	return &testAPI{engine: h, model: model}
}

func (a *testAPI) postJSON(path string, body any, headers ...ut.Header) *ut.ResponseRecorder {
	b, _ := json.Marshal(body)
	headers = append(headers, ut.Header{Key: "Content-Type", Value: "application/json"})
	return ut.PerformRequest(a.engine.Engine, "POST", path, &ut.Body{Body: bytes.NewReader(b), Len: len(b)}, headers...)
}

func (a *testAPI) upload(filename, content string) *ut.ResponseRecorder {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, _ := w.CreateFormFile("file", filename)
	_, _ = part.Write([]byte(content))
	_ = w.Close()
	return ut.PerformRequest(a.engine.Engine, "POST", "/agents/extract-cv",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: w.FormDataContentType()})
}

func detailOf(t *testing.T, resp *ut.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), resp.Body.String())
	return body.Detail
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := ut.PerformRequest(api.engine.Engine, "GET", "/health", nil)
	require.Equal(t, 200, resp.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ai-service", body["service"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, map[string]any{"redis": "disabled"}, body["dependencies"])
}

func TestExtractCVTextFileEndToEnd(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := api.upload("jane.txt", janeDoeCV)
	require.Equal(t, 200, resp.Code, resp.Body.String())

	var profile types.StructuredProfile
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &profile))
	assert.Equal(t, "jane@x.com", profile.ContactInfo.Email)
	assert.Equal(t, janeDoeCV, profile.RawText)
	assert.NotNil(t, profile.Skills)
}

func TestExtractCVRejectsExtension(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := api.upload("cv.png", janeDoeCV)
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "Invalid file type. Allowed: .pdf, .docx, .doc, .txt", detailOf(t, resp))
}

func TestExtractCVInsufficientText(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := api.upload("short.txt", "Jane Doe\njane@x.com")
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "Could not extract sufficient text. Please upload a valid CV.", detailOf(t, resp))
	assert.Zero(t, api.model.CallCount())
}

func TestExtractCVTooLarge(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := api.upload("big.txt", strings.Repeat("a", 2<<20))
	assert.Equal(t, 413, resp.Code)
	assert.Equal(t, "File too large. Maximum size is 1 MB", detailOf(t, resp))
}

func TestExtractCVMissingFile(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := api.postJSON("/agents/extract-cv", map[string]string{})
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "No file uploaded", detailOf(t, resp))
}

func TestAutofill(t *testing.T) {
	api := newTestAPI(t, nil, nil)

	form := url.Values{"text_content": {"too short"}}.Encode()
	resp := ut.PerformRequest(api.engine.Engine, "POST", "/agents/autofill",
		&ut.Body{Body: strings.NewReader(form), Len: len(form)},
		ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"})
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "Please provide at least 50 characters", detailOf(t, resp))

	form = url.Values{"text_content": {janeDoeCV}}.Encode()
	resp = ut.PerformRequest(api.engine.Engine, "POST", "/agents/autofill",
		&ut.Body{Body: strings.NewReader(form), Len: len(form)},
		ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"})
	require.Equal(t, 200, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"email":"jane@x.com"`)
}

func TestTailorResume(t *testing.T) {
	api := newTestAPI(t, func([]*schema.Message) llm.MockResponse {
		return llm.MockResponse{Content: "TAILORED"}
	}, nil)

	resp := api.postJSON("/agents/tailor-resume", map[string]any{"jobDescription": sampleJD})
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "Original resume is required", detailOf(t, resp))

	resp = api.postJSON("/agents/tailor-resume", map[string]any{
		"originalCV":     "Jane Doe, Go engineer",
		"jobDescription": sampleJD,
		"userProfile":    map[string]any{"skills": []string{"Go"}},
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "TAILORED", body["tailored_resume"])
	assert.NotEmpty(t, body["timestamp"])

	prompt := llm.LastUserContent(api.model.Calls[0])
	assert.Contains(t, prompt, "Jane Doe, Go engineer")
	assert.Contains(t, prompt, "SKILLS")
}

func TestCoverLetterModelFailure(t *testing.T) {
	api := newTestAPI(t, func([]*schema.Message) llm.MockResponse {
		return llm.MockResponse{Error: errors.New("upstream 503")}
	}, nil)

	resp := api.postJSON("/agents/generate-cover-letter", map[string]any{"job_description": sampleJD})
	assert.Equal(t, 500, resp.Code)
	assert.Contains(t, detailOf(t, resp), "Generation failed: ")
	assert.Contains(t, detailOf(t, resp), "upstream 503")
}

func TestGenerateEmailRequiresJobDescription(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := api.postJSON("/agents/generate-email", map[string]any{"recipientType": "hiring manager"})
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "Job description is required", detailOf(t, resp))
}

func TestMatchScoreFallsBackToDefault(t *testing.T) {
	api := newTestAPI(t, func([]*schema.Message) llm.MockResponse {
		return llm.MockResponse{Content: "I think it is a good fit!"}
	}, nil)

	resp := api.postJSON("/agents/match-score", map[string]any{
		"resumeText":     "Go engineer with PostgreSQL",
		"jobDescription": sampleJD,
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())

	var result types.MatchResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, types.DefaultMatchResult(), result)
}

func TestChat(t *testing.T) {
	api := newTestAPI(t, func([]*schema.Message) llm.MockResponse {
		return llm.MockResponse{Content: "Hi Jane!"}
	}, nil)

	resp := api.postJSON("/agents/neilwe-chat", map[string]any{
		"message": "hello",
		"context": map[string]any{
			"userProfile": map[string]any{"contactInfo": map[string]string{"firstName": "Jane"}},
			"recentJobs":  []map[string]string{{"title": "Go Dev", "company": "Acme"}},
		},
		"chatHistory": []map[string]string{{"role": "assistant", "content": "Welcome"}},
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "Hi Jane!", body["response"])
	assert.Contains(t, body, "profileUpdate")
	assert.Nil(t, body["profileUpdate"])
	assert.NotEmpty(t, body["timestamp"])

	system := llm.SystemContent(api.model.Calls[0])
	assert.Contains(t, system, "Jane")
	assert.Contains(t, system, "Go Dev at Acme")
}

func TestChatRequiresMessage(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := api.postJSON("/agents/neilwe-chat", map[string]any{"message": "  "})
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "Message is required", detailOf(t, resp))
}

func TestExtractJobTitles(t *testing.T) {
	api := newTestAPI(t, func([]*schema.Message) llm.MockResponse {
		return llm.MockResponse{Content: "```json\n[\"Backend Engineer\", \"Go Developer\"]\n```"}
	}, nil)

	resp := api.postJSON("/agents/extract-job-titles", map[string]any{"preferred_role": "SRE"})
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "CV text is required", detailOf(t, resp))

	resp = api.postJSON("/agents/extract-job-titles", map[string]any{"cvText": janeDoeCV})
	require.Equal(t, 200, resp.Code, resp.Body.String())
	var body struct {
		JobTitles    []string `json:"job_titles"`
		PrimaryTitle string   `json:"primary_title"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, []string{"Backend Engineer", "Go Developer"}, body.JobTitles)
	assert.Equal(t, "Backend Engineer", body.PrimaryTitle)
}

func TestInvalidJSONBody(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := ut.PerformRequest(api.engine.Engine, "POST", "/agents/match-score",
		&ut.Body{Body: strings.NewReader("{not json"), Len: 9},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	assert.Equal(t, 400, resp.Code)
	assert.Contains(t, detailOf(t, resp), "invalid JSON body")
}

func TestSearchZeroRows(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := api.postJSON("/search", map[string]any{"keyword": "go developer"})
	require.Equal(t, 200, resp.Code, resp.Body.String())
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestSearchAllTermsFail(t *testing.T) {
	api := newTestAPI(t, nil, scraperFunc(func(context.Context, types.ScrapeQuery) ([]types.ScrapedRow, error) {
		return nil, errors.New("rate limited by site")
	}))
	resp := api.postJSON("/search", map[string]any{"keyword": "go"})
	assert.Equal(t, 500, resp.Code)
	assert.Contains(t, detailOf(t, resp), "rate limited by site")
}

func TestSearchRequiresKeyword(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	resp := api.postJSON("/search", map[string]any{"location": "Durban"})
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "Keyword is required", detailOf(t, resp))
}

func strp(s string) *string { return &s }

func listingScraper(context.Context, types.ScrapeQuery) ([]types.ScrapedRow, error) {
	return []types.ScrapedRow{
		{ID: strp("1"), Title: strp("Go Developer"), Company: strp("Acme"), JobURL: strp("https://x/1"), Description: strp("go and kubernetes")},
		{ID: strp("2"), Title: strp("Accountant"), Company: strp("Globex"), JobURL: strp("https://x/2")},
	}, nil
}

func TestSearchByProfile(t *testing.T) {
	api := newTestAPI(t, nil, scraperFunc(listingScraper))
	resp := api.postJSON("/search-by-profile", map[string]any{
		"profile":     map[string]any{"skills": []any{"Kubernetes"}},
		"preferences": map[string]any{"preferredRole": "Go Developer"},
		"max_results": 5,
	})
	require.Equal(t, 200, resp.Code, resp.Body.String())

	var body types.SearchByProfileResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, []string{"Go Developer"}, body.SearchTermsUsed)
	assert.Equal(t, 2, body.TotalFound)
	assert.Equal(t, "Go Developer", body.Jobs[0].Title)
	assert.InDelta(t, 0.6, body.Jobs[0].MatchScore, 1e-9)
}

func TestSearchExport(t *testing.T) {
	api := newTestAPI(t, nil, scraperFunc(listingScraper))
	resp := api.postJSON("/search/export", map[string]any{"keyword": "Go Developer"})
	require.Equal(t, 200, resp.Code, resp.Body.String())

	assert.Equal(t, jobsearch.XLSXContentType, resp.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="jobs-go-developer.xlsx"`, resp.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(jobsearch.ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Go Developer", rows[1][1])
}

func TestAPIKeyAuth(t *testing.T) {
	api := newTestAPI(t, nil, nil, "secret")

	resp := api.postJSON("/search", map[string]any{"keyword": "go"})
	assert.Equal(t, 401, resp.Code)
	assert.Equal(t, "Invalid or missing API key", detailOf(t, resp))

	resp = api.postJSON("/search", map[string]any{"keyword": "go"}, ut.Header{Key: router.APIKeyHeader, Value: "wrong"})
	assert.Equal(t, 401, resp.Code)

	resp = api.postJSON("/search", map[string]any{"keyword": "go"}, ut.Header{Key: router.APIKeyHeader, Value: "secret"})
	assert.Equal(t, 200, resp.Code)

	resp = ut.PerformRequest(api.engine.Engine, "GET", "/health", nil)
	assert.Equal(t, 200, resp.Code, "health stays public")
}
