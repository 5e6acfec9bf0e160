package invoicing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caresuite/claims-api/internal/platform/errs"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func TestGetInvoice_ConvertsCents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices/inv-1", r.URL.Path)
		assert.Equal(t, "loc_1", r.URL.Query().Get("altId"))
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"inv-1","total":15000,"amountPaid":2550,"status":"partially_paid"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key-123", testLogger())
	inv, err := client.GetInvoice(context.Background(), "loc_1", "inv-1")
	require.NoError(t, err)

	assert.Equal(t, 150.00, inv.Total)
	assert.Equal(t, 25.50, inv.AmountPaid)
	assert.Equal(t, 124.50, inv.Outstanding())
}

func TestGetInvoice_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key", testLogger())
	_, err := client.GetInvoice(context.Background(), "loc_1", "missing")

	var nf *errs.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "invoice", nf.Resource)
}

func TestRecordPayment_SendsCentsAndIdempotencyKey(t *testing.T) {
	var gotKey string
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key", testLogger())
	err := client.RecordPayment(context.Background(), "loc_1", "inv-1", RecordPaymentRequest{
		Amount:         125.50,
		Notes:          "insurance payment",
		IdempotencyKey: PaymentIdempotencyKey("pay-9", "inv-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, "payment:pay-9:inv-1", gotKey)
	assert.Contains(t, gotBody, `"amount":12550`)
}

func TestRecordPayment_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"invoice is void"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key", testLogger())
	err := client.RecordPayment(context.Background(), "loc_1", "inv-void", RecordPaymentRequest{Amount: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
}

func TestCentsRoundTrip(t *testing.T) {
	cases := []struct {
		dollars float64
		cents   int64
	}{
		{150.00, 15000},
		{0.01, 1},
		{149.995, 15000}, // rounds up, never truncates
		{33.335, 3334},
		{0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.cents, ToCents(tc.dollars), "ToCents(%v)", tc.dollars)
	}
	assert.Equal(t, 124.50, FromCents(12450))
}
