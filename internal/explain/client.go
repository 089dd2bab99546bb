// Package explain calls the external explanation service that turns a fraud
// verdict into rationale text. Calls are best effort: one attempt, a hard
// timeout, and every failure mapped to a Result instead of an error.
package explain

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"fraud-scorer/internal/common"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Request is the payload sent to POST /explain.
type Request struct {
	TransactionAmount          float64 `json:"transactionAmount"`
	TransactionAmountDeviation float64 `json:"transactionAmountDeviation"`
	TimeAnomaly                float64 `json:"timeAnomaly"`
	LocationDistance           float64 `json:"locationDistance"`
	MerchantNovelty            float64 `json:"merchantNovelty"`
	TransactionFrequency       float64 `json:"transactionFrequency"`
	IsFraud                    bool    `json:"isFraud"`
	RiskScore                  float64 `json:"riskScore"`
}

// MetricsInterface defines metrics methods needed by the client
type MetricsInterface interface {
	ExplanationOutcomeInc(outcome string)
	ExplanationLatencyObserve(seconds float64)
}

// Config configures the client. Zero values fall back to defaults.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Metrics MetricsInterface
}

// Client is safe for concurrent use.
type Client struct {
	rest    *resty.Client
	url     string
	timeout time.Duration
	metrics MetricsInterface
}

// New creates an explanation client.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = common.DefaultExplanationServiceURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = common.DefaultExplanationTimeout
	}

	r := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{})

	return &Client{
		rest:    r,
		url:     base + "/explain",
		timeout: timeout,
		metrics: cfg.Metrics,
	}
}

// URL is the full endpoint the client posts to.
func (c *Client) URL() string {
	return c.url
}

// Explain asks the service for an explanation. It never returns an error and
// never panics; see Result for the possible outcomes.
func (c *Client) Explain(ctx context.Context, req Request) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("url", c.url).Msg("unexpected error getting explanation")
			res = Absent(ReasonUnexpected)
		}
		c.observe(res, time.Since(start))
	}()

	body, err := json.Marshal(req)
	if err != nil {
		log.Error().Err(err).Msg("unexpected error encoding explanation request")
		return Absent(ReasonUnexpected)
	}

	r := c.rest.R().SetContext(ctx).SetBody(body)
	if id := middleware.GetReqID(ctx); id != "" {
		r.SetHeader(common.HeaderRequestID, id)
	}

	resp, err := r.Post(c.url)
	if err != nil {
		reason := classify(err)
		event := log.Error().Err(err).Str("url", c.url).Str("reason", string(reason))
		switch reason {
		case ReasonTimeout:
			event.Dur("timeout", c.timeout).Msg("explanation service timeout")
		case ReasonUnavailable:
			event.Msg("could not connect to explanation service")
		default:
			event.Msg("error calling explanation service")
		}
		return Degraded(reason)
	}

	if !resp.IsSuccess() {
		log.Error().
			Int("status", resp.StatusCode()).
			Str("url", c.url).
			Str("body", truncate(resp.String(), 256)).
			Msg("explanation service returned an error status")
		return Degraded(ReasonError)
	}

	return parseBody(resp.Body())
}

func parseBody(data []byte) Result {
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		log.Error().Err(err).Str("body", truncate(string(data), 256)).Msg("explanation service returned invalid JSON")
		return Degraded(ReasonError)
	}

	obj, ok := body.(map[string]any)
	if !ok {
		log.Error().Str("body", truncate(string(data), 256)).Msg("unexpected explanation response shape")
		return Absent(ReasonUnexpected)
	}

	text, _ := obj["explanation"].(string)
	if text == "" {
		log.Warn().Msg("explanation service returned empty explanation")
		return Absent(ReasonEmpty)
	}
	return Text(text)
}

// classify maps a transport error onto a degraded reason. Timeouts are
// checked first because timeout errors also satisfy the network error types.
func classify(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return ReasonUnavailable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ReasonUnavailable
	}

	return ReasonError
}

func (c *Client) observe(res Result, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.ExplanationOutcomeInc(res.Outcome())
	c.metrics.ExplanationLatencyObserve(elapsed.Seconds())
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// restyLogger routes resty's internal logging through zerolog.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	log.Debug().Str("component", "resty").Msgf(format, v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	log.Debug().Str("component", "resty").Msgf(format, v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	log.Debug().Str("component", "resty").Msgf(format, v...)
}
