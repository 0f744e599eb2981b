package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/openaxm/walletgate/core"
	"github.com/openaxm/walletgate/ports"
)

// DefaultChallengeTTL is how long a claimant has to broadcast the proof
// transfer.
const DefaultChallengeTTL = 15 * time.Minute

// codeRetries bounds regeneration attempts when a freshly generated code
// collides with another pending challenge. At 100 bits of entropy a single
// collision is already extraordinary.
const codeRetries = 3

// Config holds the deployment policy for the verification protocol.
type Config struct {
	// DepositAddress is the single server-controlled address all proof
	// transfers are sent to; disambiguation happens via the memo code.
	DepositAddress string

	// RequiredAmount is the advertised minimal transfer amount.
	RequiredAmount decimal.Decimal

	// EnforceAmount controls whether matching checks amount >=
	// RequiredAmount. The memo code carries the actual entropy, so some
	// deployments treat the amount as a UX nudge only.
	EnforceAmount bool

	// AddressPrefix is the bech32 human-readable prefix claimed
	// addresses must carry.
	AddressPrefix string

	// ChallengeTTL overrides DefaultChallengeTTL when positive.
	ChallengeTTL time.Duration
}

// IssuedChallenge is what a claimant needs to complete verification.
type IssuedChallenge struct {
	CorrelationToken string
	Code             string
	DepositAddress   string
	RequiredAmount   decimal.Decimal
	ExpiresAt        time.Time
}

// VerificationService orchestrates the challenge-deposit-session protocol:
// it issues challenges, reconciles observed ledger transfers against them,
// and converts a consumed challenge into a session credential.
type VerificationService struct {
	store     ports.Store
	ledger    ports.LedgerReader
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher
	cfg       Config
	log       zerolog.Logger
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	store ports.Store,
	ledger ports.LedgerReader,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	cfg Config,
	log zerolog.Logger,
) *VerificationService {
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = DefaultChallengeTTL
	}
	if cfg.AddressPrefix == "" {
		cfg.AddressPrefix = "axm"
	}
	return &VerificationService{
		store:     store,
		ledger:    ledger,
		tokenizer: tokenizer,
		eventPub:  eventPub,
		cfg:       cfg,
		log:       log,
	}
}

// IssueChallenge creates a new challenge for the claimed address,
// replacing any pending one the address already holds. The superseded
// challenge is discarded and can never be matched again.
func (s *VerificationService) IssueChallenge(ctx context.Context, address, userID string) (*IssuedChallenge, error) {
	if !core.ValidAddress(address, s.cfg.AddressPrefix) {
		return nil, core.ErrInvalidAddress
	}

	now := time.Now().UTC()

	// All pending challenges share one deposit address, so codes must be
	// effectively unique among them to keep matches unambiguous.
	var code string
	for attempt := 0; ; attempt++ {
		code = core.GenerateCode()
		existing, err := s.store.FindPendingByCode(ctx, code, now)
		if err != nil {
			return nil, fmt.Errorf("check code uniqueness: %w", err)
		}
		if existing == nil {
			break
		}
		if attempt+1 >= codeRetries {
			return nil, fmt.Errorf("could not generate a unique code: %w", core.ErrStoreUnavailable)
		}
		s.log.Warn().Str("address", address).Msg("one-time code collision, regenerating")
	}

	ch := &core.Challenge{
		ID:             uuid.New().String(),
		Address:        address,
		UserID:         userID,
		Code:           code,
		DepositAddress: s.cfg.DepositAddress,
		RequiredAmount: s.cfg.RequiredAmount,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.cfg.ChallengeTTL),
		Status:         core.StatusPending,
	}

	if err := s.store.Put(ctx, ch); err != nil {
		return nil, fmt.Errorf("persist challenge: %w", err)
	}

	token, err := s.tokenizer.MintCorrelationToken(ch)
	if err != nil {
		return nil, fmt.Errorf("mint correlation token: %w", err)
	}

	s.log.Info().
		Str("address", address).
		Str("challenge_id", ch.ID).
		Time("expires_at", ch.ExpiresAt).
		Msg("challenge issued")

	return &IssuedChallenge{
		CorrelationToken: token,
		Code:             ch.Code,
		DepositAddress:   ch.DepositAddress,
		RequiredAmount:   ch.RequiredAmount,
		ExpiresAt:        ch.ExpiresAt,
	}, nil
}

// CheckStatus polls the verification state of a challenge. It is
// idempotent: repeated calls after success keep returning a verified
// outcome without consuming anything again, and an unverified outcome has
// no side effects.
func (s *VerificationService) CheckStatus(ctx context.Context, address, token string) (*core.VerificationOutcome, error) {
	challengeID, err := s.tokenizer.VerifyCorrelationToken(token, address)
	if err != nil {
		return nil, err
	}

	// The consume below targets this exact id. If the challenge has been
	// superseded or evicted in the meantime the poll fails closed as
	// unverified, which keeps the supersede race safe without locking.
	ch, err := s.store.GetByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	if ch == nil || ch.Address != address {
		return &core.VerificationOutcome{}, nil
	}

	if ch.Status == core.StatusConsumed {
		return s.consumedOutcome(ch)
	}

	now := time.Now().UTC()
	if ch.Expired(now) {
		return nil, core.ErrChallengeExpired
	}

	// The ledger query has its own bounded timeout and holds no store
	// state while waiting.
	transfers, err := s.ledger.InboundTransfers(ctx, ch.DepositAddress, ch.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("read inbound transfers: %w", err)
	}

	for _, tr := range transfers {
		if !s.matches(ch, tr) {
			// A transfer from a stranger neither consumes nor
			// invalidates the challenge; the owner can still
			// complete verification afterwards.
			continue
		}

		ok, err := s.store.TryConsume(ctx, ch.ID, tr.Hash, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("consume challenge: %w", err)
		}
		if !ok {
			// Lost the race to a concurrent poll, or expired in the
			// interim. The winner's outcome stands; this poll stays
			// unverified and the client simply polls again.
			return &core.VerificationOutcome{}, nil
		}

		s.log.Info().
			Str("address", ch.Address).
			Str("challenge_id", ch.ID).
			Str("tx_hash", tr.Hash).
			Msg("wallet verified")

		if s.eventPub != nil {
			if err := s.eventPub.PublishWalletVerified(ctx, ch.Address, ch.UserID, tr.Hash); err != nil {
				// The consume already happened; the identity store
				// catches up out of band.
				s.log.Warn().Err(err).Str("address", ch.Address).Msg("failed to publish wallet.verified")
			}
		}

		ch.Status = core.StatusConsumed
		ch.ConsumedTxHash = tr.Hash
		return s.consumedOutcome(ch)
	}

	return &core.VerificationOutcome{}, nil
}

// VerifySession validates a session credential for downstream callers.
func (s *VerificationService) VerifySession(token string) (*core.SessionClaims, error) {
	return s.tokenizer.VerifySessionToken(token)
}

// RunSweeper periodically evicts expired challenges until ctx is done.
// Housekeeping only: lazy expiry checks on read already prevent late
// consumption.
func (s *VerificationService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := s.store.Sweep(ctx, now.UTC())
			if err != nil {
				s.log.Warn().Err(err).Msg("challenge sweep failed")
				continue
			}
			if removed > 0 {
				s.log.Debug().Int("removed", removed).Msg("swept expired challenges")
			}
		}
	}
}

// matches applies the reconciliation predicate: sender, recipient, memo,
// and (when enforced) amount.
func (s *VerificationService) matches(ch *core.Challenge, tr core.Transfer) bool {
	if tr.Sender != ch.Address || tr.Recipient != ch.DepositAddress {
		return false
	}
	if !ch.MatchesMemo(tr.Memo) {
		return false
	}
	if s.cfg.EnforceAmount && tr.Amount.LessThan(ch.RequiredAmount) {
		return false
	}
	return true
}

// consumedOutcome re-derives the success response for a consumed
// challenge. The session token is re-minted on repeated polls; each mint
// is independently valid and nothing is consumed twice.
func (s *VerificationService) consumedOutcome(ch *core.Challenge) (*core.VerificationOutcome, error) {
	sessionToken, err := s.tokenizer.MintSessionToken(ch.Address, ch.UserID)
	if err != nil {
		return nil, fmt.Errorf("mint session token: %w", err)
	}
	return &core.VerificationOutcome{
		Verified:      true,
		SessionToken:  sessionToken,
		WalletAddress: ch.Address,
		TxHash:        ch.ConsumedTxHash,
	}, nil
}
