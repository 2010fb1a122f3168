package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillItemAcceptsBareString(t *testing.T) {
	var skills []SkillItem
	require.NoError(t, json.Unmarshal([]byte(`["Go", {"id":"7","name":"Python","level":"Advanced"}]`), &skills))
	require.Len(t, skills, 2)
	assert.Equal(t, SkillItem{Name: "Go"}, skills[0])
	assert.Equal(t, SkillItem{ID: "7", Name: "Python", Level: "Advanced"}, skills[1])

	out, err := json.Marshal(skills[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"","name":"Go","level":""}`, string(out))
}

func TestStructuredProfileNeverEmitsNullLists(t *testing.T) {
	var p StructuredProfile
	require.NoError(t, json.Unmarshal([]byte(`{"skills":["Go","SQL"]}`), &p))
	p.Normalize()

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "null")
	assert.Equal(t, "1", p.Skills[0].ID)
	assert.Equal(t, "2", p.Skills[1].ID)

	fresh, err := json.Marshal(NewStructuredProfile("raw"))
	require.NoError(t, err)
	assert.Contains(t, string(fresh), `"experiences":[]`)
	assert.Contains(t, string(fresh), `"rawText":"raw"`)
}

func TestUserProfileLenientShapes(t *testing.T) {
	var u UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{
		"contactInfo": {"firstName": "Jane", "phoneNumber": "0821234567"},
		"experience": [{"title": "Engineer", "company": "Acme"}],
		"preferredRole": "Backend Engineer",
		"openToRemote": true
	}`), &u))

	assert.Equal(t, "0821234567", u.ContactInfo.Phone)
	require.Len(t, u.Experiences, 1)
	assert.Equal(t, "Acme", u.Experiences[0].Company)
	assert.Equal(t, "Backend Engineer", u.Preferences.PreferredRole)
	assert.True(t, u.Preferences.RemoteOrDefault(false))
	assert.False(t, u.IsEmpty())

	var nested UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{
		"experiences": [{"title": "Analyst"}],
		"preferredRole": "ignored",
		"preferences": {"preferredRole": "Data Analyst", "contractTypes": ["full-time"]}
	}`), &nested))
	assert.Equal(t, "Data Analyst", nested.Preferences.PreferredRole)
	assert.Equal(t, []string{"full-time"}, nested.Preferences.ContractTypes)
	assert.Equal(t, "Analyst", nested.Experiences[0].Title)

	var empty UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.IsEmpty())
}

func TestSectionMapOrderAndMerge(t *testing.T) {
	m := NewSectionMap()
	m.Set(SectionHeader, "Jane Doe")
	m.Set(SectionExperience, "first")
	m.Set(SectionSkills, "Go")
	m.Set(SectionExperience, "second")

	assert.Equal(t, "second", m.Get(SectionExperience))
	assert.Equal(t, []SectionLabel{SectionHeader, SectionExperience, SectionSkills}, m.Labels())
	assert.Equal(t, "", m.Get(SectionAwards))
	assert.False(t, m.Has(SectionAwards))

	m.Append(SectionExperience, "third")
	assert.Equal(t, "second\nthird", m.Get(SectionExperience))

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"header":"Jane Doe","experience":"second\nthird","skills":"Go"}`, string(out))
}

func TestJobSearchRequestCamelCase(t *testing.T) {
	var r JobSearchRequest
	require.NoError(t, json.Unmarshal([]byte(`{"keyword":"Go","maxResults":10,"jobType":"full-time","additionalKeywords":["Backend"]}`), &r))
	assert.Equal(t, 10, r.MaxResults)
	assert.Equal(t, "full-time", r.JobType)
	assert.Equal(t, []string{"Backend"}, r.AdditionalKeywords)

	var s JobSearchRequest
	require.NoError(t, json.Unmarshal([]byte(`{"keyword":"Go","max_results":5,"days_old":7}`), &s))
	assert.Equal(t, 5, s.MaxResults)
	assert.Equal(t, 7, s.DaysOld)
}

func TestChatContextEnvelope(t *testing.T) {
	var bare ChatContext
	require.NoError(t, json.Unmarshal([]byte(`{"contactInfo":{"firstName":"Jane"}}`), &bare))
	assert.Equal(t, "Jane", bare.Profile.ContactInfo.FirstName)
	assert.Empty(t, bare.RecentJobs)

	var env ChatContext
	require.NoError(t, json.Unmarshal([]byte(`{
		"userProfile": {"contactInfo":{"firstName":"Sipho"}},
		"jobPreferences": {"preferredRole":"DevOps Engineer"},
		"recentJobs": [{"title":"SRE","company":"Acme"}]
	}`), &env))
	assert.Equal(t, "Sipho", env.Profile.ContactInfo.FirstName)
	assert.Equal(t, "DevOps Engineer", env.JobPreferences.PreferredRole)
	require.Len(t, env.RecentJobs, 1)
}
