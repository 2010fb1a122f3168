package jobsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"job-applier-go/internal/types"
	"job-applier-go/pkg/ratelimit"
)

// ErrScrapeFailed 抓取后端调用失败
var ErrScrapeFailed = errors.New("job scrape failed")

// Scraper 按单个搜索词抓取职位
type Scraper interface {
	Scrape(ctx context.Context, q types.ScrapeQuery) ([]types.ScrapedRow, error)
}

// ScraperOption HTTPScraper 选项
type ScraperOption func(*HTTPScraper)

// WithScrapeTimeout 单次抓取超时
func WithScrapeTimeout(d time.Duration) ScraperOption {
	return func(s *HTTPScraper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithScrapeQPM 限制每分钟抓取次数，0 表示不限
func WithScrapeQPM(qpm int) ScraperOption {
	return func(s *HTTPScraper) {
		if qpm > 0 {
			s.limiter = ratelimit.NewTokenBucket(qpm, 0)
		}
	}
}

// HTTPScraper 通过 HTTP 调用抓取后端 POST {base}/scrape
type HTTPScraper struct {
	endpoint string
	client   *client.Client
	timeout  time.Duration
	limiter  *ratelimit.TokenBucket
}

type scrapeResponse struct {
	Jobs []types.ScrapedRow `json:"jobs"`
}

// NewHTTPScraper 创建抓取客户端
func NewHTTPScraper(baseURL string, opts ...ScraperOption) (*HTTPScraper, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("scraper base url is required")
	}
	c, err := client.NewClient(client.WithDialTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("create scraper client: %w", err)
	}
	c.Use(hertztracing.ClientMiddleware())

	s := &HTTPScraper{
		endpoint: strings.TrimRight(baseURL, "/") + "/scrape",
		client:   c,
		timeout:  90 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Scrape 实现 Scraper
func (s *HTTPScraper) Scrape(ctx context.Context, q types.ScrapeQuery) ([]types.ScrapedRow, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScrapeFailed, err)
		}
	}

	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode scrape query: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetRequestURI(s.endpoint)
	req.SetMethod(consts.MethodPost)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(body)

	if err := s.client.DoTimeout(ctx, req, resp, s.timeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScrapeFailed, err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrScrapeFailed, resp.StatusCode(), truncateBody(resp.Body()))
	}

	var out scrapeResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrScrapeFailed, err)
	}
	return out.Jobs, nil
}

func truncateBody(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
