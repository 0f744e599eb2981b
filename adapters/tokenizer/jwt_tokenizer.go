package tokenizer

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/openaxm/walletgate/core"
	"github.com/openaxm/walletgate/ports"
)

const AudienceCorrelation = "walletgate:challenge"
const AudienceSession = "walletgate:session"

// correlationSlack extends a correlation token's validity past its
// challenge's expiry, so a late poll surfaces "challenge expired" (client
// should re-issue) instead of the generic invalid-token rejection.
const correlationSlack = 10 * time.Minute

// JWTTokenizer implements the Tokenizer interface using ES256 JWTs
type JWTTokenizer struct {
	signKey    *ecdsa.PrivateKey
	sessionTTL time.Duration
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, sessionTTL time.Duration) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey, sessionTTL: sessionTTL}
}

// MintCorrelationToken converts a challenge into a signed polling handle.
// The raw code never appears in the token; only the challenge id and the
// claimed address do.
func (j *JWTTokenizer) MintCorrelationToken(ch *core.Challenge) (string, error) {
	claims := CorrelationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ch.Address,
			ID:        ch.ID,
			ExpiresAt: jwt.NewNumericDate(ch.ExpiresAt.Add(correlationSlack)),
			IssuedAt:  jwt.NewNumericDate(ch.CreatedAt),
			Audience:  jwt.ClaimStrings{AudienceCorrelation},
		},
		UserID: ch.UserID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign correlation token: %w", err)
	}

	return signedToken, nil
}

// VerifyCorrelationToken validates the handle and its address binding and
// returns the challenge id. Every failure collapses into
// core.ErrTokenInvalid: callers must not learn which check failed.
func (j *JWTTokenizer) VerifyCorrelationToken(tokenStr, address string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CorrelationClaims{}, j.keyFunc,
		jwt.WithAudience(AudienceCorrelation), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", core.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*CorrelationClaims)
	if !ok {
		return "", core.ErrTokenInvalid
	}

	// The token must have been minted for exactly this address, or any
	// client could probe other addresses' challenges.
	if claims.Subject == "" || claims.Subject != address {
		return "", core.ErrTokenInvalid
	}
	if claims.ID == "" {
		return "", core.ErrTokenInvalid
	}

	return claims.ID, nil
}

// MintSessionToken creates a signed session credential for a verified
// wallet address.
func (j *JWTTokenizer) MintSessionToken(walletAddress, userID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   walletAddress,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Audience:  jwt.ClaimStrings{AudienceSession},
		},
		UserID:   userID,
		Verified: true,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signedToken, nil
}

// VerifySessionToken validates a session credential by signature and
// expiry alone; forged and expired tokens are indistinguishable to the
// caller.
func (j *JWTTokenizer) VerifySessionToken(tokenStr string) (*core.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, j.keyFunc,
		jwt.WithAudience(AudienceSession), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, core.ErrSessionInvalid
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !claims.Verified || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, core.ErrSessionInvalid
	}

	return &core.SessionClaims{
		WalletAddress: claims.Subject,
		UserID:        claims.UserID,
		Verified:      claims.Verified,
		IssuedAt:      claims.IssuedAt.Time,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}

// keyFunc validates the signing method before handing jwt the public key
func (j *JWTTokenizer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return &j.signKey.PublicKey, nil
}
