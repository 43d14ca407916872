package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/napryag/clinic_booking_bot/pkg/observability/metrics"
	"github.com/napryag/clinic_booking_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
)

const (
	PathAuthenticate = "/authenticate"
	PathSlots        = "/slots"
	PathBook         = "/book"

	defaultTimeout = 15 * time.Second
)

// Client is the shared HTTP transport to the scheduling service. It knows
// nothing about sessions; see Facade.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
	metrics    *metrics.BookingMetrics
}

func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger, m *metrics.BookingMetrics) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:     logger.With().Str("component", "remote").Logger(),
		metrics:    m,
	}
}

// doJSON performs one round-trip and decodes the response body into out.
// Network errors, 5xx statuses and undecodable bodies are transport failures.
// 4xx responses carrying an envelope are decoded and left to the caller.
func (c *Client) doJSON(ctx context.Context, op, method, path, bearer string, body, out interface{}) (int, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, errs.New("marshal request").Arg("op", op).Wrap(err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, errs.New("build request").Arg("op", op).WithKind(errs.KindTransport).Wrap(err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	log := c.logger.With().Str("op", op).Str("request_id", reqID).Logger()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("request failed")
		return 0, errs.New("http request").Arg("op", op).WithKind(errs.KindTransport).Wrap(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errs.New("read response").Arg("op", op).WithKind(errs.KindTransport).Wrap(err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		log.Warn().Int("status", resp.StatusCode).Str("body", msg).Msg("scheduling service error")
		return resp.StatusCode, errs.Newf("scheduling service returned %d", resp.StatusCode).
			Arg("op", op).WithKind(errs.KindTransport)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		log.Warn().Err(err).Int("status", resp.StatusCode).Msg("undecodable response")
		return resp.StatusCode, errs.New("decode response").Arg("op", op).Arg("status", resp.StatusCode).
			WithKind(errs.KindTransport).Wrap(err)
	}

	log.Debug().Int("status", resp.StatusCode).Msg("round-trip done")
	return resp.StatusCode, nil
}

func (c *Client) observe(op, outcome string, started time.Time) {
	c.metrics.ObserveRemoteCall(op, outcome, time.Since(started).Seconds())
}
