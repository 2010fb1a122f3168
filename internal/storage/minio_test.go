package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginalObjectKey(t *testing.T) {
	assert.Equal(t, "cv/abc/original.pdf", OriginalObjectKey("abc", "Jane CV.PDF"))
	assert.Equal(t, "cv/abc/original", OriginalObjectKey("abc", "noext"))
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", getContentType(".PDF"))
	assert.Equal(t, "application/msword", getContentType(".doc"))
	assert.Equal(t, "text/plain", getContentType(".txt"))
	assert.Equal(t, "application/octet-stream", getContentType(".rtf"))
}
