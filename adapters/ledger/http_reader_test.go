package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaxm/walletgate/core"
)

func TestInboundTransfers(t *testing.T) {
	since := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transfers", r.URL.Path)
		assert.Equal(t, "axm1depqqq", r.URL.Query().Get("recipient"))
		assert.Equal(t, "2026-08-01T12:00:00Z", r.URL.Query().Get("since"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transfers":[
			{"sender":"axm1qqsyqcyq5rqwzqf","recipient":"axm1depqqq","memo":" f3a9 ","amount":"0.1","hash":"abc123","timestamp":"2026-08-01T12:05:00Z"}
		]}`))
	}))
	defer srv.Close()

	reader := NewHTTPReader(srv.URL, 2*time.Second)
	transfers, err := reader.InboundTransfers(context.Background(), "axm1depqqq", since)
	require.NoError(t, err)
	require.Len(t, transfers, 1)

	tr := transfers[0]
	assert.Equal(t, "axm1qqsyqcyq5rqwzqf", tr.Sender)
	assert.Equal(t, "axm1depqqq", tr.Recipient)
	assert.Equal(t, " f3a9 ", tr.Memo)
	assert.Equal(t, "0.1", tr.Amount.String())
	assert.Equal(t, "abc123", tr.Hash)
}

func TestInboundTransfersUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	reader := NewHTTPReader(srv.URL, 2*time.Second)
	_, err := reader.InboundTransfers(context.Background(), "axm1depqqq", time.Now())
	assert.ErrorIs(t, err, core.ErrLedgerUnavailable)
}

func TestInboundTransfersUnreachable(t *testing.T) {
	reader := NewHTTPReader("http://127.0.0.1:1", time.Second)
	_, err := reader.InboundTransfers(context.Background(), "axm1depqqq", time.Now())
	assert.ErrorIs(t, err, core.ErrLedgerUnavailable)
}

func TestInboundTransfersBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transfers":[{"amount":"not-a-number"}]}`))
	}))
	defer srv.Close()

	reader := NewHTTPReader(srv.URL, 2*time.Second)
	_, err := reader.InboundTransfers(context.Background(), "axm1depqqq", time.Now())
	assert.ErrorIs(t, err, core.ErrLedgerUnavailable)
}
