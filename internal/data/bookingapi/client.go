package bookingapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrEnrichment covers every failure of the live status lookup. Callers
// absorb it and fall back to the locally computed status.
var ErrEnrichment = errors.New("booking status lookup failed")

// Client reads booking state from the marketplace backend. The scanner only
// ever needs one call: booking-by-ID.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With(zap.String("client", "bookingapi")),
	}
}

// BookingStatus fetches the authoritative status for a booking. The
// caller's opaque Authorization value is forwarded as-is. The backend nests
// the status at different locations depending on the endpoint version, so
// the body is probed at result.status, data.status, booking.status and
// top-level status, in that order.
func (c *Client) BookingStatus(ctx context.Context, bookingID, authToken string) (string, error) {
	if bookingID == "" {
		return "", fmt.Errorf("empty booking ID: %w", ErrEnrichment)
	}

	endpoint := c.baseURL + "/bookings/" + url.PathEscape(bookingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", ErrEnrichment)
	}
	if authToken != "" {
		req.Header.Set("Authorization", authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("booking lookup request failed",
			zap.String("booking_id", bookingID),
			zap.Error(err),
		)
		return "", fmt.Errorf("request booking %s: %w", bookingID, ErrEnrichment)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("booking %s: status %d: %w", bookingID, resp.StatusCode, ErrEnrichment)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read body: %w", ErrEnrichment)
	}

	status := probeStatus(body)
	if status == "" {
		return "", fmt.Errorf("booking %s: no status in response: %w", bookingID, ErrEnrichment)
	}

	return status, nil
}

// statusPaths is the probe order; the first non-empty match wins.
var statusPaths = [][]string{
	{"result", "status"},
	{"data", "status"},
	{"booking", "status"},
	{"status"},
}

func probeStatus(body []byte) string {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}

	for _, path := range statusPaths {
		if v := lookupString(doc, path); v != "" {
			return v
		}
	}
	return ""
}

func lookupString(doc map[string]any, path []string) string {
	current := any(doc)
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = obj[key]
		if !ok {
			return ""
		}
	}

	s, _ := current.(string)
	return strings.TrimSpace(s)
}
