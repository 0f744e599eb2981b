package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openaxm/walletgate/core"
	"github.com/openaxm/walletgate/ports"
)

// HTTPReader queries the chain's read API for inbound transfers. The
// upstream is eventually consistent and rate limited; every failure mode
// (network, timeout, non-2xx, bad payload) collapses into
// core.ErrLedgerUnavailable so callers treat it as transient, never as a
// negative verification result.
type HTTPReader struct {
	baseURL string
	client  *http.Client
}

// NewHTTPReader creates a reader against the given API base URL with a
// bounded per-request timeout.
func NewHTTPReader(baseURL string, timeout time.Duration) *HTTPReader {
	return &HTTPReader{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type transferDTO struct {
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Memo      string    `json:"memo"`
	Amount    string    `json:"amount"`
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
}

type transfersResponse struct {
	Transfers []transferDTO `json:"transfers"`
}

// InboundTransfers fetches transfers received by recipient since the given
// time, in chain order.
func (r *HTTPReader) InboundTransfers(ctx context.Context, recipient string, since time.Time) ([]core.Transfer, error) {
	q := url.Values{}
	q.Set("recipient", recipient)
	q.Set("since", since.UTC().Format(time.RFC3339))

	endpoint := fmt.Sprintf("%s/v1/transfers?%s", r.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build transfers request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", core.ErrLedgerUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transfers query returned %d: %w", resp.StatusCode, core.ErrLedgerUnavailable)
	}

	var body transfersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode transfers response: %w", core.ErrLedgerUnavailable)
	}

	transfers := make([]core.Transfer, 0, len(body.Transfers))
	for _, dto := range body.Transfers {
		amount, err := decimal.NewFromString(dto.Amount)
		if err != nil {
			return nil, fmt.Errorf("bad transfer amount %q: %w", dto.Amount, core.ErrLedgerUnavailable)
		}
		transfers = append(transfers, core.Transfer{
			Sender:    dto.Sender,
			Recipient: dto.Recipient,
			Memo:      dto.Memo,
			Amount:    amount,
			Hash:      dto.Hash,
			Timestamp: dto.Timestamp,
		})
	}
	return transfers, nil
}

var _ ports.LedgerReader = (*HTTPReader)(nil)
