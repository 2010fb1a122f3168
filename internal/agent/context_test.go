package agent

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/types"
)

func decodeProfile(t *testing.T, raw string) *types.UserProfile {
	t.Helper()
	var p types.UserProfile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return &p
}

func TestBuildUserContextEmpty(t *testing.T) {
	assert.Equal(t, NoProfileContext, BuildUserContext(nil))
	assert.Equal(t, NoProfileContext, BuildUserContext(&types.UserProfile{}))
}

func TestBuildUserContextFullProfile(t *testing.T) {
	p := decodeProfile(t, `{
		"contactInfo": {"firstName": "Jane", "lastName": "Doe", "email": "jane@x.com", "phoneNumber": "082 123 4567"},
		"skills": ["Go", {"name": "SQL", "level": "Advanced"}],
		"experience": [{"title": "Engineer", "company": "Acme", "duration": "2020 - Present", "description": "Built APIs"}],
		"education": [{"degree": "BSc", "field": "CS", "institution": "UCT", "duration": "2016"}],
		"projects": [{"name": "JobBot", "description": "Scraper", "link": "https://x.dev"}, {"description": "No name"}],
		"certifications": [{"name": "CKA", "issuer": "CNCF", "date": "2022"}],
		"languages": [{"name": "English", "proficiency": "Native"}],
		"preferredRole": "Backend Engineer",
		"location": "Cape Town",
		"openToRemote": true,
		"contractTypes": ["permanent", "contract"]
	}`)

	want := strings.Join([]string{
		"PERSONAL INFO:\n  Name: Jane Doe\n  Email: jane@x.com\n  Phone: 082 123 4567",
		"SKILLS:\n  - Go (Intermediate)\n  - SQL (Advanced)",
		"WORK EXPERIENCE:\n  - Engineer at Acme (2020 - Present)\n    Built APIs",
		"EDUCATION:\n  - BSc in CS — UCT (2016)",
		"PROJECTS:\n  - JobBot: Scraper\n    Link: https://x.dev\n  - Unnamed: No name",
		"CERTIFICATIONS:\n  - CKA — CNCF (2022)",
		"LANGUAGES:\n  - English (Native)",
		"JOB PREFERENCES:\n  Target Role: Backend Engineer\n  Location: Cape Town\n  Open to Remote: Yes\n  Contract Types: permanent, contract",
	}, "\n\n")
	assert.Equal(t, want, BuildUserContext(p))
	assert.Equal(t, BuildUserContext(p), BuildUserContext(p))
}

func TestBuildUserContextLimits(t *testing.T) {
	p := &types.UserProfile{}
	for i := 0; i < 40; i++ {
		p.Skills = append(p.Skills, types.SkillItem{Name: "s"})
	}
	for i := 0; i < 8; i++ {
		p.Experiences = append(p.Experiences, types.ExperienceItem{Title: "t", Description: strings.Repeat("d", 300)})
	}
	out := BuildUserContext(p)

	assert.Equal(t, 30, strings.Count(out, "  - s (Intermediate)"))
	assert.Equal(t, 6, strings.Count(out, "  - t at"))
	assert.Contains(t, out, "    "+strings.Repeat("d", 200)+"\n")
	assert.NotContains(t, out, strings.Repeat("d", 201))
}

func TestBuildUserContextNestedPreferences(t *testing.T) {
	p := decodeProfile(t, `{"preferences": {"location": "Durban"}}`)
	assert.Equal(t, "JOB PREFERENCES:\n  Location: Durban\n  Open to Remote: No", BuildUserContext(p))
}

func TestBuildChatContextEnvelope(t *testing.T) {
	var cc types.ChatContext
	require.NoError(t, json.Unmarshal([]byte(`{
		"userProfile": {"contactInfo": {"firstName": "Jane"}},
		"jobPreferences": {"preferredRole": "SRE", "openToRemote": true},
		"recentJobs": [{"title": "A", "company": "X"}, {"company": "Y"}, {"title": "C"}, {"title": "D"}]
	}`), &cc))

	out := BuildChatContext(cc)
	assert.True(t, strings.HasPrefix(out, "PERSONAL INFO:\n  Name: Jane"))
	assert.Contains(t, out, "JOB PREFERENCES:\n  Target Role: SRE\n  Open to Remote: Yes")
	assert.Contains(t, out, "RECENT JOB APPLICATIONS (4 jobs viewed recently):\n  1. A at X\n  2. Unknown at Y\n  3. C at Unknown")
	assert.NotContains(t, out, "4. D")
}

func TestBuildChatContextBareProfile(t *testing.T) {
	var cc types.ChatContext
	require.NoError(t, json.Unmarshal([]byte(`{"contactInfo": {"email": "a@b.co"}}`), &cc))
	assert.Equal(t, "PERSONAL INFO:\n  Email: a@b.co", BuildChatContext(cc))
}
