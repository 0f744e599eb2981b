package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openaxm/walletgate/core"
	"github.com/openaxm/walletgate/service"
)

// VerificationHandlers contains HTTP handlers for the challenge endpoints
type VerificationHandlers struct {
	svc *service.VerificationService
}

// NewVerificationHandlers creates new verification handlers
func NewVerificationHandlers(svc *service.VerificationService) *VerificationHandlers {
	return &VerificationHandlers{svc: svc}
}

// IssueChallenge handles POST /challenges
func (h *VerificationHandlers) IssueChallenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
		UserID  string `json:"user_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	issued, err := h.svc.IssueChallenge(c.Request.Context(), req.Address, req.UserID)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAddress) {
			// Deliberately generic: no hint about which check failed.
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"correlation_token": issued.CorrelationToken,
		"code":              issued.Code,
		"deposit_address":   issued.DepositAddress,
		"required_amount":   issued.RequiredAmount.String(),
		"expires_at":        issued.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// CheckStatus handles GET /challenges/status. Safe to call repeatedly.
func (h *VerificationHandlers) CheckStatus(c *gin.Context) {
	address := c.Query("address")
	token := c.Query("token")
	if address == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	outcome, err := h.svc.CheckStatus(c.Request.Context(), address, token)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrTokenInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		case errors.Is(err, core.ErrChallengeExpired):
			// Terminal: the client must issue a new challenge.
			c.JSON(http.StatusGone, gin.H{"error": "Challenge expired"})
		case errors.Is(err, core.ErrLedgerUnavailable):
			// Transient: retry with backoff, do not restart the flow.
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ledger temporarily unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification check failed"})
		}
		return
	}

	if !outcome.Verified {
		c.JSON(http.StatusOK, gin.H{"verified": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verified":       true,
		"session_token":  outcome.SessionToken,
		"wallet_address": outcome.WalletAddress,
	})
}

// Me handles GET /session/me, returning the verified-session claims.
// Reaching this handler means the session middleware accepted the token.
func (h *VerificationHandlers) Me(c *gin.Context) {
	claims, exists := c.Get(contextKeySession)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session not found in context"})
		return
	}

	session := claims.(*core.SessionClaims)
	c.JSON(http.StatusOK, gin.H{
		"wallet_address": session.WalletAddress,
		"user_id":        session.UserID,
		"verified":       session.Verified,
	})
}
