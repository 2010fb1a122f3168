package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"fenced", "Here you go:\n```json\n{\"a\": 1}\n```\nthanks", `{"a": 1}`},
		{"fenced without language", "```\n[\"x\", \"y\"]\n```", `["x", "y"]`},
		{"bare object with prose", `Sure! {"title": "Dev", "nested": {"k": "}"}} trailing`, `{"title": "Dev", "nested": {"k": "}"}}`},
		{"array", `["Backend Engineer", "Go Developer"]`, `["Backend Engineer", "Go Developer"]`},
		{"bom", "\uFEFF{\"a\":\"b\"}", `{"a":"b"}`},
		{"none", "no json at all", ""},
		{"unbalanced", `{"a": "b"`, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ExtractJSON(c.in))
		})
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var out map[string]string
	require.NoError(t, DecodeLLMJSON("```json\n{\"title\": \"Engineer\", \"company\": \"Acme\"}\n```", &out))
	assert.Equal(t, "Engineer", out["title"])
	assert.Equal(t, "Acme", out["company"])
}

func TestDecodeLLMJSONRepairsUnescapedQuotes(t *testing.T) {
	var out map[string]string
	require.NoError(t, DecodeLLMJSON(`{"description": "Built the "Atlas" platform", "title": "Lead"}`, &out))
	assert.Equal(t, `Built the "Atlas" platform`, out["description"])
	assert.Equal(t, "Lead", out["title"])
}

func TestDecodeLLMJSONNoJSON(t *testing.T) {
	var out map[string]string
	err := DecodeLLMJSON("I could not find anything.", &out)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecodeLLMJSONGarbage(t *testing.T) {
	var out map[string]string
	assert.Error(t, DecodeLLMJSON(`{"title": Engineer}`, &out))
}

func TestSanitizeJSONLeavesValidJSONAlone(t *testing.T) {
	valid := `{"a": "b", "c": ["d", "e\"f"]}`
	assert.Equal(t, valid, sanitizeJSON(valid))
}
