package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"code.sajari.com/docconv"
	einopdf "github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	lpdf "github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"job-applier-go/internal/tracing"
)

var (
	// ErrUnsupportedFileType 不支持的简历文件类型
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrEmptyDocument 文件里没有可提取的文本
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// TextExtractor 把上传的文件内容转换为纯文本
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// DocumentTextExtractor 根据扩展名选择解析方式
// PDF 优先用 eino 解析器，失败时回退到逐页读取；DOCX 读取 document.xml；DOC 交给 docconv
type DocumentTextExtractor struct {
	pdfParser *einopdf.PDFParser
	logger    *log.Logger
	timeout   time.Duration
}

// TextExtractorOption 配置 DocumentTextExtractor
type TextExtractorOption func(*DocumentTextExtractor)

// WithExtractorLogger 设置日志
func WithExtractorLogger(logger *log.Logger) TextExtractorOption {
	return func(e *DocumentTextExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExtractTimeout 单个文件解析超时
func WithExtractTimeout(d time.Duration) TextExtractorOption {
	return func(e *DocumentTextExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewDocumentTextExtractor 创建文本提取器
// PDF 不按页切分，整份文档作为一段连续文本
func NewDocumentTextExtractor(ctx context.Context, options ...TextExtractorOption) (*DocumentTextExtractor, error) {
	p, err := einopdf.NewPDFParser(ctx, &einopdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}
	e := &DocumentTextExtractor{
		pdfParser: p,
		logger:    log.New(io.Discard, "", 0),
		timeout:   30 * time.Second,
	}
	for _, opt := range options {
		opt(e)
	}
	return e, nil
}

// FileExtension 返回小写扩展名
func FileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Extract 实现 TextExtractor
func (e *DocumentTextExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ctx, span := otel.Tracer("job-applier/parser").Start(ctx, "TextExtractor.Extract")
	defer span.End()

	ext := FileExtension(filename)
	span.SetAttributes(
		attribute.String("file.extension", ext),
		attribute.Int("file.size", len(data)),
	)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = e.extractPDF(ctx, filename, data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".doc":
		text, err = extractDOC(data)
	case ".txt":
		text = strings.ToValidUTF8(string(data), "")
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		e.logger.Printf("文件解析失败 %s: %v", filename, err)
		return "", err
	}

	text = strings.TrimPrefix(text, "\uFEFF")
	e.logger.Printf("文件解析完成 %s: %d 个字符 (用时 %.2f秒)", filename, len(text), time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("text.length", len(text)))
	return text, nil
}

func (e *DocumentTextExtractor) extractPDF(ctx context.Context, uri string, data []byte) (string, error) {
	if e.pdfParser != nil {
		docs, err := e.pdfParser.Parse(ctx, bytes.NewReader(data),
			einoParser.WithURI(uri),
			einoParser.WithExtraMeta(map[string]any{"source": uri}),
		)
		if err == nil {
			var sb strings.Builder
			for i, doc := range docs {
				if i > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(doc.Content)
			}
			if strings.TrimSpace(sb.String()) != "" {
				return sb.String(), nil
			}
			e.logger.Printf("eino PDF 解析结果为空，改用逐页解析: %s", uri)
		} else {
			e.logger.Printf("eino PDF 解析失败，改用逐页解析: %s: %v", uri, err)
		}
	}
	return extractPDFPages(data)
}

// extractPDFPages 逐页读取 PDF 纯文本
func extractPDFPages(data []byte) (string, error) {
	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyDocument
	}
	return sb.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxLineBreak    = regexp.MustCompile(`<w:(?:br|cr)\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()
	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText 把 document.xml 转成按段落换行的纯文本
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxLineBreak.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}

func extractDOC(data []byte) (string, error) {
	resp, err := docconv.Convert(bytes.NewReader(data), "application/msword", true)
	if err != nil {
		return "", fmt.Errorf("failed to convert doc: %w", err)
	}
	return resp.Body, nil
}
