package jobsearch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/types"
)

func strp(s string) *string { return &s }

func TestRelevance(t *testing.T) {
	cases := []struct {
		name        string
		title, desc string
		keyword     string
		additional  []string
		want        float64
	}{
		{"title only", "Senior Go Developer", "", "go developer", nil, 0.5},
		{"description only", "Backend Engineer", "we need a Go Developer", "go developer", nil, 0.2},
		{"additional in title", "Platform Engineer", "", "go developer", []string{"platform"}, 0.3},
		{"additional counted once", "Platform Cloud Engineer", "", "x", []string{"platform", "cloud"}, 0.3},
		{"all signals", "Go Developer / Platform", "Go Developer wanted", "go developer", []string{"platform"}, 1.0},
		{"nothing", "Chef", "kitchen", "go developer", []string{"platform"}, 0},
		{"empty additional ignored", "Chef", "", "go", []string{""}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.want, Relevance(c.title, c.desc, c.keyword, c.additional), 1e-9)
		})
	}
}

func TestSearchTerms(t *testing.T) {
	assert.Equal(t, []string{"go"}, SearchTerms("go", nil))
	assert.Equal(t, []string{"go", "rust", "zig"}, SearchTerms("go", []string{"rust", "zig", "c"}))
	assert.Equal(t, []string{"go", "rust", "c"}, SearchTerms("go", []string{" ", "rust", "c"}))
}

func TestMapJobType(t *testing.T) {
	assert.Equal(t, "fulltime", MapJobType("full-time"))
	assert.Equal(t, "parttime", MapJobType("Part-Time"))
	assert.Equal(t, "internship", MapJobType("internship"))
	assert.Equal(t, "", MapJobType("freelance"))
	assert.Equal(t, "", MapJobType(""))
}

func TestToListingDefaults(t *testing.T) {
	job := ToListing(types.ScrapedRow{}, "go", 3, "go", nil)

	assert.Equal(t, "go-3-", job.ID)
	assert.Equal(t, "Unknown Title", job.Title)
	assert.Equal(t, "Unknown Company", job.Company)
	assert.Equal(t, "Unknown Location", job.Location)
	assert.Equal(t, "unknown", job.Source)
	assert.Equal(t, "...", job.Description)
	assert.Equal(t, "", job.ApplyURL)
	assert.Nil(t, job.JobType)
	assert.Nil(t, job.Salary)
	assert.Zero(t, job.MatchScore)
}

func TestToListingFields(t *testing.T) {
	row := types.ScrapedRow{
		ID:           strp("in-42"),
		Title:        strp("Go Developer"),
		Company:      strp("Acme"),
		Location:     strp("Cape Town"),
		Description:  strp(strings.Repeat("a", 600)),
		JobURL:       strp("https://jobs.example/1"),
		DatePosted:   strp("2026-10-01"),
		JobType:      strp("fulltime"),
		Compensation: strp("R50k"),
		Site:         strp("indeed"),
	}
	job := ToListing(row, "golang", 0, "go developer", nil)

	assert.Equal(t, "golang-0-in-42", job.ID)
	assert.Equal(t, strings.Repeat("a", 500)+"...", job.Description)
	require.NotNil(t, job.JobType)
	assert.Equal(t, "fulltime", *job.JobType)
	require.NotNil(t, job.Salary)
	assert.Equal(t, "R50k", *job.Salary)
	assert.Equal(t, "indeed", job.Source)
	assert.InDelta(t, 0.5, job.MatchScore, 1e-9)
}

func TestRankDedupesByApplyURL(t *testing.T) {
	jobs := []types.JobListing{
		{ID: "a", ApplyURL: "u1", MatchScore: 0.2},
		{ID: "b", ApplyURL: "u2", MatchScore: 0.7},
		{ID: "c", ApplyURL: "u1", MatchScore: 0.9},
		{ID: "d", ApplyURL: "u1", MatchScore: 0.1},
		{ID: "e", ApplyURL: "u3", MatchScore: 0.2},
	}
	// N=5, M=3 共享 u1
	ranked := Rank(jobs, 10)
	require.Len(t, ranked, 5-(3-1))

	ids := make([]string, len(ranked))
	for i, j := range ranked {
		ids[i] = j.ID
	}
	assert.Equal(t, []string{"b", "a", "e"}, ids, "first occurrence kept, stable order on ties")
}

func TestRankTruncates(t *testing.T) {
	jobs := []types.JobListing{
		{ApplyURL: "1", MatchScore: 0.1},
		{ApplyURL: "2", MatchScore: 0.3},
		{ApplyURL: "3", MatchScore: 0.2},
	}
	ranked := Rank(jobs, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "2", ranked[0].ApplyURL)
	assert.Equal(t, "3", ranked[1].ApplyURL)

	assert.Equal(t, []types.JobListing{}, Rank(nil, 5))
}

func TestBoostBySkills(t *testing.T) {
	jobs := []types.JobListing{
		{ID: "plain", Description: "we use java", MatchScore: 0.5},
		{ID: "match", Description: "Go and PostgreSQL and Kubernetes", MatchScore: 0.1},
		{ID: "capped", Description: "go postgresql", MatchScore: 0.95},
	}
	BoostBySkills(jobs, []types.SkillItem{{Name: "Go"}, {Name: "postgresql"}, {Name: "Kubernetes"}, {Name: " "}})

	assert.Equal(t, "capped", jobs[0].ID)
	assert.InDelta(t, 1.0, jobs[0].MatchScore, 1e-9)
	assert.Equal(t, "plain", jobs[1].ID)
	assert.InDelta(t, 0.5, jobs[1].MatchScore, 1e-9)
	assert.Equal(t, "match", jobs[2].ID)
	assert.InDelta(t, 0.4, jobs[2].MatchScore, 1e-9)
}
