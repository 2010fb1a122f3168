package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/types"
)

const sampleCV = `Jane Doe
jane@x.com | +27 82 123 4567
linkedin.com/in/janedoe | github.com/janedoe | https://janedoe.dev

Summary
Backend engineer who likes distributed systems.

Experience
Senior Software Engineer
Acme Corp
Jan 2020 - Present
- Built payment APIs in Go

Data Analyst at Globex
2017 - 2019
- Reported on sales

Education
BSc Computer Science, University of Cape Town, 2013 - 2016

Skills
Go, Python, PostgreSQL

Projects
• JobBot - https://github.com/janedoe/jobbot
• CVParse - resume parser

Languages
English - Native
`

func TestSplitSections(t *testing.T) {
	sections := SplitSections(sampleCV)

	assert.Equal(t, "Jane Doe\njane@x.com | +27 82 123 4567\nlinkedin.com/in/janedoe | github.com/janedoe | https://janedoe.dev", sections.Get(types.SectionHeader))
	assert.Equal(t, "Backend engineer who likes distributed systems.", sections.Get(types.SectionSummary))
	assert.Contains(t, sections.Get(types.SectionExperience), "Senior Software Engineer")
	assert.Contains(t, sections.Get(types.SectionExperience), "Data Analyst at Globex")
	assert.Equal(t, "Go, Python, PostgreSQL", sections.Get(types.SectionSkills))
	assert.Equal(t, "English - Native", sections.Get(types.SectionLanguages))
	assert.Equal(t, "", sections.Get(types.SectionAwards))

	assert.Equal(t, []types.SectionLabel{
		types.SectionHeader, types.SectionSummary, types.SectionExperience,
		types.SectionEducation, types.SectionSkills, types.SectionProjects, types.SectionLanguages,
	}, sections.Labels())
}

func TestSplitSectionsHeaderVariants(t *testing.T) {
	text := "Name Here\nWORK EXPERIENCE:\nEngineer at Foo\nTechnical Skills\nGo\nProfessional Certifications\nCKA"
	sections := SplitSections(text)
	assert.Equal(t, "Engineer at Foo", sections.Get(types.SectionExperience))
	assert.Equal(t, "Go", sections.Get(types.SectionSkills))
	assert.Equal(t, "CKA", sections.Get(types.SectionCertifications))
}

func TestSplitSectionsRepeatedHeader(t *testing.T) {
	text := "Experience\nFirst Job\nSkills\nGo\nExperience\nSecond Job"

	overwrite := SplitSections(text)
	assert.Equal(t, "Second Job", overwrite.Get(types.SectionExperience))

	concatenated := SplitSections(text, WithConcatenateRepeats(true))
	assert.Equal(t, "First Job\nSecond Job", concatenated.Get(types.SectionExperience))
	assert.Equal(t, "Go", concatenated.Get(types.SectionSkills))
}

func TestSplitEntriesEmpty(t *testing.T) {
	assert.Equal(t, []string{}, SplitEntries("", types.SectionExperience))
	assert.Equal(t, []string{}, SplitEntries("  \n\t ", types.SectionProjects))
}

func TestSplitEntriesSingleEntryIsTrimmedInput(t *testing.T) {
	section := "  - wrote some code\n\n  - reviewed PRs  \n"
	entries := SplitEntries(section, types.SectionExperience)
	require.Len(t, entries, 1)
	assert.Equal(t, strings.TrimSpace(section), entries[0])

	projects := "just one paragraph about a project"
	assert.Equal(t, []string{projects}, SplitEntries(projects, types.SectionProjects))
}

func TestSplitEntriesExperience(t *testing.T) {
	sections := SplitSections(sampleCV)
	entries := SplitEntries(sections.Get(types.SectionExperience), types.SectionExperience)

	// 短的首字母大写行都会开启新条目
	require.GreaterOrEqual(t, len(entries), 2)
	assert.True(t, strings.HasPrefix(entries[0], "Senior Software Engineer"))

	var found bool
	for _, e := range entries {
		if strings.HasPrefix(e, "Data Analyst at Globex") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSplitEntriesEducation(t *testing.T) {
	section := "BSc Computer Science\nUniversity of Cape Town\nMaster of Data Science\nWits\nHigh School Diploma"
	entries := SplitEntries(section, types.SectionEducation)
	assert.Equal(t, []string{
		"BSc Computer Science\nUniversity of Cape Town",
		"Master of Data Science\nWits",
		"High School Diploma",
	}, entries)
}

func TestSplitEntriesBullets(t *testing.T) {
	section := "• JobBot - scraper\n  written in Go\n- CVParse\n* Infra"
	entries := SplitEntries(section, types.SectionProjects)
	assert.Equal(t, []string{"• JobBot - scraper\nwritten in Go", "- CVParse", "* Infra"}, entries)
}

func TestEntryRulesPriority(t *testing.T) {
	rules := EntryRulesFor(types.SectionExperience)

	name, ok := StartsEntry(rules, "Senior Backend Developer")
	assert.True(t, ok)
	assert.Equal(t, "role-title", name)

	name, ok = StartsEntry(rules, "Analyst at Globex")
	assert.True(t, ok)
	assert.Equal(t, "role-at-company", name)

	name, ok = StartsEntry(rules, "Acme Corp")
	assert.True(t, ok)
	assert.Equal(t, "short-capitalized", name)

	_, ok = StartsEntry(rules, "- built things")
	assert.False(t, ok)
	_, ok = StartsEntry(rules, "lowercase line")
	assert.False(t, ok)

	_, ok = StartsEntry(EntryRulesFor(types.SectionProjects), "Acme Corp")
	assert.False(t, ok, "short capitalized rule only applies to experience")
}

func TestExtractDateRange(t *testing.T) {
	cases := map[string]string{
		"Jan 2020 - Present":             "Jan 2020 - Present",
		"worked March 2018 to June 2019": "March 2018 - June 2019",
		"01/2019 – 12/2021":              "01/2019 - 12/2021",
		"2015 - 2017":                    "2015 - 2017",
		"Graduated 2016, honours 2018":   "2016 - 2018",
		"Certified in 2021":              "2021",
		"no dates here":                  "",
	}
	for input, want := range cases {
		assert.Equal(t, want, ExtractDateRange(input), input)
	}
}
