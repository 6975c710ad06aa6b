package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgError "github.com/Droze-svj/click-platform-sub013/pkg/error"
	pkgUtils "github.com/Droze-svj/click-platform-sub013/pkg/utils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const SignatureHeader = "X-Hub-Signature-256"

// WebhookSink POSTs the event JSON to each URL. With a secret the body is
// signed with HMAC-SHA256 in SignatureHeader.
type WebhookSink struct {
	urls        []string
	secret      []byte
	client      *fasthttp.Client
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
}

func NewWebhookSink(urls []string, secret string) *WebhookSink {
	return &WebhookSink{
		urls:   urls,
		secret: []byte(secret),
		client: &fasthttp.Client{
			Name:                "click-scheduler",
			MaxIdleConnDuration: 30 * time.Second,
		},
		timeout:     10 * time.Second,
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Deliver(ctx context.Context, evt domain.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return pkgError.WebhookError(fmt.Sprintf("Failed to marshal body: %v", err))
	}

	var signature string
	if len(s.secret) > 0 {
		signature, err = pkgUtils.GetMessageDigestOrSignature(body, s.secret)
		if err != nil {
			return pkgError.WebhookError(fmt.Sprintf("error when create signature %v", err))
		}
	}

	var firstErr error
	for _, url := range s.urls {
		if err := s.submit(ctx, url, body, signature); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *WebhookSink) submit(ctx context.Context, url string, body []byte, signature string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, "sha256="+signature)
	}
	req.SetBody(body)

	var err error
	sleep := s.backoff
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.client.DoTimeout(req, resp, s.timeout)
		if err == nil {
			code := resp.StatusCode()
			if code >= 200 && code < 300 {
				logrus.Debugf("[NOTIFY] Webhook %s accepted on attempt %d", url, attempt)
				return nil
			}
			err = fmt.Errorf("webhook returned status %d", code)
		}
		logrus.Warnf("[NOTIFY] Attempt %d to submit webhook %s failed: %v", attempt, url, err)
		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return pkgError.WebhookError(ctx.Err().Error())
		case <-time.After(sleep):
			sleep *= 2
		}
	}
	return pkgError.WebhookError(fmt.Sprintf("error when submit webhook after %d attempts: %v", s.maxAttempts, err))
}
