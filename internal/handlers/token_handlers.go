package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"qr_review_backend/internal/models"
	"qr_review_backend/internal/services"
	"qr_review_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TokenHandler holds the token service for the admin QR surfaces.
type TokenHandler struct {
	tokenService services.TokenService
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(ts services.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: ts}
}

type mintTokensRequest struct {
	Count int `json:"count"`
}

type assignTokenRequest struct {
	ClientID int64 `json:"client_id" binding:"required"`
}

// MintTokens creates a batch of fresh unassigned tokens for printing.
// The count comes from ?count=N or from a JSON body {"count": N}.
func (h *TokenHandler) MintTokens(c *gin.Context) {
	var req mintTokensRequest
	if countStr := c.Query("count"); countStr != "" {
		count, err := strconv.Atoi(countStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid count format.", err.Error()))
			return
		}
		req.Count = count
	} else if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "MintTokens: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	tokens, err := h.tokenService.MintBatch(req.Count)
	if err != nil {
		utils.LogError(err, "MintTokens: Error from tokenService.MintBatch")
		if errors.Is(err, services.ErrTokenValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to mint tokens.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tokens": tokens, "count": len(tokens)})
}

// GetTokens lists all tokens.
func (h *TokenHandler) GetTokens(c *gin.Context) {
	tokens, err := h.tokenService.ListTokens()
	if err != nil {
		utils.LogError(err, "GetTokens: Error from tokenService.ListTokens")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch tokens.", "Internal error"))
		return
	}
	if tokens == nil {
		tokens = []models.QrToken{}
	}
	c.JSON(http.StatusOK, tokens)
}

// GetFreeTokens lists active tokens with no client, available for new cards.
func (h *TokenHandler) GetFreeTokens(c *gin.Context) {
	tokens, err := h.tokenService.ListFreeTokens()
	if err != nil {
		utils.LogError(err, "GetFreeTokens: Error from tokenService.ListFreeTokens")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch free tokens.", "Internal error"))
		return
	}
	if tokens == nil {
		tokens = []models.QrToken{}
	}
	c.JSON(http.StatusOK, tokens)
}

// GetToken fetches one token row.
func (h *TokenHandler) GetToken(c *gin.Context) {
	token := c.Param("token")

	t, err := h.tokenService.GetToken(token)
	if err != nil {
		utils.LogError(err, "GetToken: Error from tokenService.GetToken for "+token)
		if errors.Is(err, services.ErrTokenNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Token not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch token.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, t)
}

// AssignToken points a token at a client. A token that already has a
// client is not overwritten silently: the admin must pass ?force=true to
// supersede the existing association.
func (h *TokenHandler) AssignToken(c *gin.Context) {
	token := c.Param("token")

	var req assignTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AssignToken: Failed to bind JSON for "+token)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	existing, err := h.tokenService.GetToken(token)
	if err != nil {
		utils.LogError(err, "AssignToken: Error from tokenService.GetToken for "+token)
		if errors.Is(err, services.ErrTokenNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Token not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to assign token.", "Internal error"))
		}
		return
	}
	if existing.ClientID != nil && c.Query("force") != "true" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "QR already assigned", "Pass force=true to overwrite the existing assignment."))
		return
	}

	if err := h.tokenService.Assign(token, req.ClientID); err != nil {
		utils.LogError(err, "AssignToken: Error from tokenService.Assign for "+token)
		if errors.Is(err, services.ErrTokenNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Token not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to assign token.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token assigned successfully"})
}

// UnassignToken frees a token for reuse on another card.
func (h *TokenHandler) UnassignToken(c *gin.Context) {
	token := c.Param("token")

	if err := h.tokenService.Unassign(token); err != nil {
		utils.LogError(err, "UnassignToken: Error from tokenService.Unassign for "+token)
		if errors.Is(err, services.ErrTokenNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Token not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to unassign token.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token unassigned successfully"})
}

// DisableToken switches a token off permanently.
func (h *TokenHandler) DisableToken(c *gin.Context) {
	token := c.Param("token")

	if err := h.tokenService.Disable(token); err != nil {
		utils.LogError(err, "DisableToken: Error from tokenService.Disable for "+token)
		if errors.Is(err, services.ErrTokenNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Token not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to disable token.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token disabled successfully"})
}
