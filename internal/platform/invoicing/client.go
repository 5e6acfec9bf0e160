// Package invoicing is the outbound client for the practice-management
// platform's invoicing API. The claims core treats it as a collaborator:
// invoices live upstream, this service only reads balances and records
// insurance payments against them.
//
// The wire format uses minor currency units (cents); everything above this
// package works in dollars.
package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/caresuite/claims-api/internal/platform/errs"
)

// Invoice is the subset of the upstream invoice the allocator needs.
type Invoice struct {
	ID         string
	Total      float64 // dollars
	AmountPaid float64 // dollars
	Status     string
}

// Outstanding returns the unpaid balance in dollars.
func (i Invoice) Outstanding() float64 {
	return i.Total - i.AmountPaid
}

// RecordPaymentRequest describes one payment to record against an invoice.
type RecordPaymentRequest struct {
	Amount         float64 // dollars
	Notes          string
	IdempotencyKey string
}

// Client fetches invoices and records payments against them.
type Client interface {
	GetInvoice(ctx context.Context, locationID, invoiceID string) (*Invoice, error)
	RecordPayment(ctx context.Context, locationID, invoiceID string, req RecordPaymentRequest) error
}

// DefaultTimeout bounds each upstream call, retries included.
const DefaultTimeout = 10 * time.Second

// HTTPClient is the production Client over the upstream REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.HTTPClient.Timeout = d }
}

// NewHTTPClient builds a Client for the given upstream base URL. Transient
// failures are retried with backoff; the overall call is still bounded by
// the client timeout.
func NewHTTPClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = DefaultTimeout
	rc.Logger = nil
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			logger.Warn().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("attempt", attempt).
				Msg("retrying invoicing call")
		}
	}

	c := &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    rc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// invoicePayload mirrors the upstream invoice document. Amounts in cents.
type invoicePayload struct {
	ID         string `json:"_id"`
	Total      int64  `json:"total"`
	AmountPaid int64  `json:"amountPaid"`
	Status     string `json:"status"`
}

type recordPaymentPayload struct {
	Amount int64  `json:"amount"`
	Mode   string `json:"mode"`
	Notes  string `json:"notes,omitempty"`
}

func (c *HTTPClient) GetInvoice(ctx context.Context, locationID, invoiceID string) (*Invoice, error) {
	url := fmt.Sprintf("%s/invoices/%s?altId=%s&altType=location", c.baseURL, invoiceID, locationID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build invoice request")
	}
	c.setHeaders(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch invoice %s", invoiceID)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errs.NewNotFound("invoice", invoiceID)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("fetch invoice %s: upstream status %d: %s", invoiceID, resp.StatusCode, body)
	}

	var payload invoicePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrapf(err, "decode invoice %s", invoiceID)
	}

	return &Invoice{
		ID:         payload.ID,
		Total:      FromCents(payload.Total),
		AmountPaid: FromCents(payload.AmountPaid),
		Status:     payload.Status,
	}, nil
}

func (c *HTTPClient) RecordPayment(ctx context.Context, locationID, invoiceID string, r RecordPaymentRequest) error {
	payload := recordPaymentPayload{
		Amount: ToCents(r.Amount),
		Mode:   "cheque",
		Notes:  r.Notes,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode payment payload")
	}

	url := fmt.Sprintf("%s/invoices/%s/record-payment?altId=%s&altType=location", c.baseURL, invoiceID, locationID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build payment request")
	}
	c.setHeaders(req, r.IdempotencyKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "record payment on invoice %s", invoiceID)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errs.NewNotFound("invoice", invoiceID)
	case resp.StatusCode >= 300:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("record payment on invoice %s: upstream status %d: %s", invoiceID, resp.StatusCode, respBody)
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *retryablehttp.Request, idempotencyKey string) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
}

// ToCents converts a dollar amount to minor units, rounding half away
// from zero so 149.995 does not silently lose a cent.
func ToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// FromCents converts minor units back to dollars.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// PaymentIdempotencyKey builds the stable key for one (payment, invoice)
// pair so upstream retries never double-record.
func PaymentIdempotencyKey(paymentID, invoiceID string) string {
	return fmt.Sprintf("payment:%s:%s", paymentID, invoiceID)
}
