package handlers

import (
	"errors"
	"net/http"

	"qr_review_backend/internal/services"
	"qr_review_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the unauthenticated funnel endpoints hit from
// scanned QR codes. Every failure on these routes collapses into the same
// "Invalid or expired QR" response: the public must not be able to tell a
// missing token from a disabled one or from an expired subscription.
type PublicHandler struct {
	tokenService  services.TokenService
	clientService services.ClientService
	reviewService services.ReviewService
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(ts services.TokenService, cs services.ClientService, rs services.ReviewService) *PublicHandler {
	return &PublicHandler{
		tokenService:  ts,
		clientService: cs,
		reviewService: rs,
	}
}

// ResolveToken resolves a scanned token to its client id for the funnel
// page.
func (h *PublicHandler) ResolveToken(c *gin.Context) {
	token := c.Param("token")

	clientID, err := h.tokenService.Resolve(token)
	if err != nil {
		utils.LogInfo("ResolveToken: rejected token " + token + ": " + err.Error())
		utils.RespondInvalidQR(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client_id": clientID})
}

// RedirectToken is the physical QR landing endpoint. It hands the scanner
// the canonical funnel path for the resolved client.
func (h *PublicHandler) RedirectToken(c *gin.Context) {
	token := c.Param("token")

	target, err := h.tokenService.RedirectTarget(token)
	if err != nil {
		utils.LogInfo("RedirectToken: rejected token " + token + ": " + err.Error())
		utils.RespondInvalidQR(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect_url": target})
}

// GetPublicClient returns the public projection of a live client. Blocked,
// expired and unknown clients all produce the same invalid response.
func (h *PublicHandler) GetPublicClient(c *gin.Context) {
	idStr := c.Param("client_id")
	clientID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondInvalidQR(c)
		return
	}

	client, err := h.clientService.GetPublicClient(clientID)
	if err != nil {
		utils.LogInfo("GetPublicClient: rejected client " + idStr + ": " + err.Error())
		utils.RespondInvalidQR(c)
		return
	}
	c.JSON(http.StatusOK, client)
}

// GenerateReview handles the funnel's generation request. The rating gate
// and the service-period gate are both enforced here regardless of what
// the page already checked.
func (h *PublicHandler) GenerateReview(c *gin.Context) {
	var req services.GenerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "GenerateReview: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if req.ClientID == 0 {
		utils.RespondValidationFailed(c, "client_id is required")
		return
	}

	review, err := h.reviewService.Generate(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "GenerateReview: Error from reviewService.Generate")
		switch {
		case errors.Is(err, services.ErrRatingOutOfRange):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Rating must be between 3 and 5.", err.Error()))
		case errors.Is(err, services.ErrClientNotFound),
			errors.Is(err, services.ErrServiceInactive),
			errors.Is(err, services.ErrServiceNotStarted),
			errors.Is(err, services.ErrServiceExpired):
			utils.RespondInvalidQR(c)
		case errors.Is(err, services.ErrGenerationFailed):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeInternalServerError, "Failed to generate review. Please try again.", ""))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to generate review.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}

// GetQrStats returns scan and rating aggregates for the admin dashboard.
func (h *PublicHandler) GetQrStats(c *gin.Context) {
	idStr := c.Param("client_id")
	clientID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid client ID format.", err.Error()))
		return
	}

	stats, err := h.reviewService.GetStats(clientID)
	if err != nil {
		utils.LogError(err, "GetQrStats: Error from reviewService.GetStats for client "+idStr)
		if errors.Is(err, services.ErrClientNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch QR stats.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, stats)
}
