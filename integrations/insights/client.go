// Package insights talks to the analytics service for audience peaks and
// historically best posting hours.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client implements both provider contracts against one HTTP service.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *fasthttp.Client
}

var (
	_ domain.IAudienceProvider    = (*Client)(nil)
	_ domain.IPerformanceProvider = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: cfg.Timeout,
		http: &fasthttp.Client{
			Name:                "click-scheduler",
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
	}
}

type peaksResponse struct {
	Peaks []domain.PeakHour `json:"peaks"`
}

type bestHoursResponse struct {
	Hours []int `json:"hours"`
}

func (c *Client) PeakHours(ctx context.Context, userID, platform string) ([]domain.PeakHour, error) {
	var res peaksResponse
	if err := c.get(ctx, "/v1/audience/"+url.PathEscape(userID)+"/"+url.PathEscape(platform)+"/peaks", &res); err != nil {
		return nil, err
	}
	peaks := res.Peaks[:0]
	for _, p := range res.Peaks {
		if p.Hour >= 0 && p.Hour < 24 {
			peaks = append(peaks, p)
		}
	}
	return peaks, nil
}

func (c *Client) BestHours(ctx context.Context, userID, platform string) ([]int, error) {
	var res bestHoursResponse
	if err := c.get(ctx, "/v1/performance/"+url.PathEscape(userID)+"/"+url.PathEscape(platform)+"/best-hours", &res); err != nil {
		return nil, err
	}
	hours := res.Hours[:0]
	for _, h := range res.Hours {
		if h >= 0 && h < 24 {
			hours = append(hours, h)
		}
	}
	return hours, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("[INSIGHTS] Request failed")
		return fmt.Errorf("insights request %s: %w", path, err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return fmt.Errorf("insights request %s: unexpected status %d", path, code)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("insights request %s: decode: %w", path, err)
	}
	return nil
}
