package http

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaxm/walletgate/adapters/store"
	"github.com/openaxm/walletgate/adapters/tokenizer"
	"github.com/openaxm/walletgate/core"
	"github.com/openaxm/walletgate/service"
)

const (
	claimant = "axm1qqsyqcyq5rqwzqf"
	deposit  = "axm1depqqqqqqqqqqqq"
)

type scriptedLedger struct {
	mu        sync.Mutex
	transfers []core.Transfer
	err       error
}

func (l *scriptedLedger) InboundTransfers(ctx context.Context, recipient string, since time.Time) ([]core.Transfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transfers, l.err
}

func (l *scriptedLedger) set(transfers []core.Transfer, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transfers = transfers
	l.err = err
}

func newTestRouter(t *testing.T) (*gin.Engine, *scriptedLedger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	ledger := &scriptedLedger{}
	svc := service.NewVerificationService(
		store.NewMemoryStore(),
		ledger,
		tokenizer.NewJWTTokenizer(key, 7*24*time.Hour),
		nil,
		service.Config{
			DepositAddress: deposit,
			RequiredAmount: decimal.NewFromFloat(0.1),
			EnforceAmount:  true,
			AddressPrefix:  "axm",
		},
		zerolog.Nop(),
	)
	return SetupRouter(svc), ledger
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func issueChallenge(t *testing.T, router *gin.Engine) map[string]interface{} {
	t.Helper()
	w, body := doJSON(t, router, http.MethodPost, "/challenges", `{"address":"`+claimant+`","user_id":"user-7"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	return body
}

func TestIssueChallengeEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	body := issueChallenge(t, router)
	assert.NotEmpty(t, body["correlation_token"])
	assert.Len(t, body["code"], core.CodeLength)
	assert.Equal(t, deposit, body["deposit_address"])
	assert.Equal(t, "0.1", body["required_amount"])
	assert.NotEmpty(t, body["expires_at"])
}

func TestIssueChallengeEndpointRejectsBadInput(t *testing.T) {
	router, _ := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPost, "/challenges", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := doJSON(t, router, http.MethodPost, "/challenges", `{"address":"0xDEADBEEF"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request", body["error"])
}

func TestStatusEndpointFlow(t *testing.T) {
	router, ledger := newTestRouter(t)

	issued := issueChallenge(t, router)
	token := issued["correlation_token"].(string)
	code := issued["code"].(string)

	statusURL := "/challenges/status?address=" + claimant + "&token=" + token

	// Still waiting.
	w, body := doJSON(t, router, http.MethodGet, statusURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["verified"])

	// The proof transfer lands, memo case-folded and padded.
	ledger.set([]core.Transfer{{
		Sender:    claimant,
		Recipient: deposit,
		Memo:      "  " + strings.ToLower(code) + "  ",
		Amount:    decimal.NewFromFloat(0.1),
		Hash:      "abc123",
		Timestamp: time.Now(),
	}}, nil)

	w, body = doJSON(t, router, http.MethodGet, statusURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["verified"])
	assert.Equal(t, claimant, body["wallet_address"])
	sessionToken := body["session_token"].(string)
	require.NotEmpty(t, sessionToken)

	// Polling is idempotent.
	w, body = doJSON(t, router, http.MethodGet, statusURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["verified"])

	// The session token opens the protected surface.
	w, body = doJSON(t, router, http.MethodGet, "/session/me", "", map[string]string{
		"Authorization": "Bearer " + sessionToken,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, claimant, body["wallet_address"])
	assert.Equal(t, "user-7", body["user_id"])
	assert.Equal(t, true, body["verified"])
}

func TestStatusEndpointErrors(t *testing.T) {
	router, ledger := newTestRouter(t)

	issued := issueChallenge(t, router)
	token := issued["correlation_token"].(string)

	// Missing params.
	w, _ := doJSON(t, router, http.MethodGet, "/challenges/status", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Forged token.
	w, body := doJSON(t, router, http.MethodGet, "/challenges/status?address="+claimant+"&token=garbage", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request", body["error"])

	// Token bound to a different address.
	w, body = doJSON(t, router, http.MethodGet, "/challenges/status?address=axm1xyzqqqqqqqqqqqq&token="+token, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request", body["error"])

	// Ledger outage surfaces as retryable, not as a negative result.
	ledger.set(nil, core.ErrLedgerUnavailable)
	w, _ = doJSON(t, router, http.MethodGet, "/challenges/status?address="+claimant+"&token="+token, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionMiddleware(t *testing.T) {
	router, _ := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodGet, "/session/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/session/me", "", map[string]string{
		"Authorization": "Bearer forged.token.value",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/session/me", "", map[string]string{
		"Authorization": "Basic abc",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
