package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"job-applier-go/internal/types"
)

func TestExtractContactInfo(t *testing.T) {
	contact := ExtractContactInfo(sampleCV)

	assert.Equal(t, "Jane", contact.FirstName)
	assert.Equal(t, "Doe", contact.LastName)
	assert.Equal(t, "jane@x.com", contact.Email)
	assert.Equal(t, "+27 82 123 4567", contact.Phone)
	assert.Equal(t, "linkedin.com/in/janedoe", contact.LinkedIn)
	assert.Equal(t, "github.com/janedoe", contact.GitHub)
	assert.Equal(t, "https://janedoe.dev", contact.Portfolio)
}

func TestExtractContactInfoEmptyInput(t *testing.T) {
	assert.Equal(t, types.ContactInfo{}, ExtractContactInfo(""))
	assert.Equal(t, types.ContactInfo{}, ExtractContactInfo("nothing useful in here at all"))
}

func TestExtractContactInfoEmailLowercased(t *testing.T) {
	contact := ExtractContactInfo("Reach me: Jane.DOE@Example.COM or other@x.com")
	assert.Equal(t, "jane.doe@example.com", contact.Email)
}

func TestExtractContactInfoPortfolioSkipsSocialLinks(t *testing.T) {
	contact := ExtractContactInfo("https://www.linkedin.com/in/jd https://github.com/jd www.portfolio.io/work")
	assert.Equal(t, "www.portfolio.io/work", contact.Portfolio)
}

func TestExtractContactInfoLocalPhone(t *testing.T) {
	contact := ExtractContactInfo("Cell: 082-123-4567")
	assert.Equal(t, "082-123-4567", contact.Phone)
}

func TestExtractNameFromHeader(t *testing.T) {
	cases := []struct {
		text        string
		first, last string
	}{
		{"Curriculum Vitae\nMary-Jane Watson\nmj@x.com", "Mary-Jane", "Watson"},
		{"Jean Luc Picard\nCaptain", "Jean", "Luc Picard"},
		{"RESUME\nExperience\nJohn Smith", "John", "Smith"},
		{"+27 82 123 4567\njane@x.com\nhttp://x.dev\nlowercase name\nTHREE WORDS HERE TOO\nLate Name", "", ""},
		{"", "", ""},
	}
	for _, c := range cases {
		first, last := ExtractNameFromHeader(c.text)
		assert.Equal(t, c.first, first, c.text)
		assert.Equal(t, c.last, last, c.text)
	}
}

func TestExtractContactInfoPortfolioIgnoresEmailDomain(t *testing.T) {
	contact := ExtractContactInfo("jane@acme.com\nhttps://jane.dev")
	assert.Equal(t, "https://jane.dev", contact.Portfolio)
}

func TestExtractContactInfoPortfolioSkipsAnyPartOfEmail(t *testing.T) {
	cases := map[string]string{
		"j@sub.x.io":                        "",
		"jane.dev@gmail.com":                "",
		"j@sub.x.io https://jane.dev/work":  "https://jane.dev/work",
		"jane.doe@mail.acme.co.za\nzulu.io": "zulu.io",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractContactInfo(in).Portfolio, in)
	}
}
