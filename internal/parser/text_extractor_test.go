package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTextExtractor(t *testing.T) *DocumentTextExtractor {
	t.Helper()
	ex, err := NewDocumentTextExtractor(context.Background())
	require.NoError(t, err)
	return ex
}

func TestDocumentTextExtractorTXT(t *testing.T) {
	ex := newTestTextExtractor(t)
	text, err := ex.Extract(context.Background(), "cv.TXT", []byte("\uFEFF"+sampleCV))
	require.NoError(t, err)
	assert.Equal(t, sampleCV, text)
}

func TestDocumentTextExtractorUnsupported(t *testing.T) {
	ex := newTestTextExtractor(t)
	_, err := ex.Extract(context.Background(), "cv.rtf", []byte("{\\rtf1}"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestDocumentTextExtractorBrokenPDF(t *testing.T) {
	ex := newTestTextExtractor(t)
	_, err := ex.Extract(context.Background(), "cv.pdf", []byte("not really a pdf"))
	assert.Error(t, err)
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:document><w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>R&amp;D Engineer</w:t><w:tab/><w:t>2020</w:t><w:br/><w:t>Acme</w:t></w:r></w:p></w:body></w:document>`
	assert.Equal(t, "Jane Doe\nR&D Engineer\t2020\nAcme", docxXMLToText(xml))
}

func TestFileExtension(t *testing.T) {
	assert.Equal(t, ".pdf", FileExtension("My CV.PDF"))
	assert.Equal(t, "", FileExtension("README"))
}
