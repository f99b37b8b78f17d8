package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrUpstreamBody is returned when the workflow backend answers with a body
// that is not JSON.
var ErrUpstreamBody = errors.New("upstream returned a non-JSON body")

var (
	upstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casechat_upstream_requests_total",
		Help: "Calls forwarded to the workflow backend.",
	}, []string{"endpoint", "code"})
	upstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "casechat_upstream_request_duration_seconds",
		Help:    "Latency of calls forwarded to the workflow backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// WebhookService forwards proxy calls to the remote workflow backend.
type WebhookService struct {
	baseURL string // e.g. http://localhost:5678/webhook
	client  *http.Client
}

func NewWebhookService(baseURL string, timeout time.Duration) *WebhookService {
	return &WebhookService{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

// Call is one request to forward. Body may be nil.
type Call struct {
	Method      string
	Endpoint    string
	Body        io.Reader
	ContentType string
	Auth        string
}

// Reply is the upstream status and JSON body, relayed unchanged.
type Reply struct {
	Status   int
	Body     json.RawMessage
	Duration time.Duration
}

func (s *WebhookService) Forward(ctx context.Context, call Call) (*Reply, error) {
	start := time.Now()
	reply, err := s.do(ctx, call)
	elapsed := time.Since(start)

	code := "error"
	if reply != nil {
		reply.Duration = elapsed
		code = strconv.Itoa(reply.Status)
	}
	upstreamCalls.WithLabelValues(call.Endpoint, code).Inc()
	upstreamLatency.WithLabelValues(call.Endpoint).Observe(elapsed.Seconds())
	return reply, err
}

func (s *WebhookService) do(ctx context.Context, call Call) (*Reply, error) {
	req, err := http.NewRequestWithContext(ctx, call.Method, s.baseURL+call.Endpoint, call.Body)
	if err != nil {
		return nil, err
	}
	if call.ContentType != "" {
		req.Header.Set("Content-Type", call.ContentType)
	}
	if call.Auth != "" {
		req.Header.Set("Authorization", call.Auth)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook %s %s: %w", call.Method, call.Endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("webhook %s %s: read body: %w", call.Method, call.Endpoint, err)
	}
	reply := &Reply{Status: resp.StatusCode}
	if !json.Valid(data) {
		return reply, fmt.Errorf("webhook %s %s: status %d: %w", call.Method, call.Endpoint, resp.StatusCode, ErrUpstreamBody)
	}
	reply.Body = data
	return reply, nil
}
