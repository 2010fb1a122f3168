package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	p := StringPtr("fulltime")
	require.NotNil(t, p)
	assert.Equal(t, "fulltime", *p)
	assert.Equal(t, "fulltime", Deref(p, "x"))
	assert.Equal(t, "x", Deref(nil, "x"))
}

func TestCalculateMD5(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", CalculateMD5(nil))
	a, err := HashJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	b, err := HashJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestJSONColumns(t *testing.T) {
	assert.Equal(t, "[]", string(ConvertArrayToJSON(nil)))
	assert.Equal(t, `["a","b"]`, string(ConvertArrayToJSON([]string{"a", "b"})))
	assert.Equal(t, "null", string(ToJSON(func() {})))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", TruncateRunes("héllo", 4))
	assert.Equal(t, "hi", TruncateRunes("hi", 10))
}
