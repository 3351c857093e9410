package handlers

import (
	"errors"
	"net/http"

	"qr_review_backend/internal/models"
	"qr_review_backend/internal/services"
	"qr_review_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ClientTypeHandler holds the client type service.
type ClientTypeHandler struct {
	typeService services.ClientTypeService
}

// NewClientTypeHandler creates a new ClientTypeHandler.
func NewClientTypeHandler(ts services.ClientTypeService) *ClientTypeHandler {
	return &ClientTypeHandler{typeService: ts}
}

// CreateClientType handles the creation of a new client type.
func (h *ClientTypeHandler) CreateClientType(c *gin.Context) {
	var req services.CreateClientTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateClientType: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	clientType, err := h.typeService.CreateClientType(req)
	if err != nil {
		utils.LogError(err, "CreateClientType: Error from typeService.CreateClientType")
		if errors.Is(err, services.ErrClientTypeNameExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Client type name already exists.", err.Error()))
		} else if errors.Is(err, services.ErrClientTypeValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create client type.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, clientType)
}

// GetClientTypes handles fetching all client types.
func (h *ClientTypeHandler) GetClientTypes(c *gin.Context) {
	clientTypes, err := h.typeService.GetClientTypes()
	if err != nil {
		utils.LogError(err, "GetClientTypes: Error from typeService.GetClientTypes")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch client types.", "Internal error"))
		return
	}
	if clientTypes == nil {
		clientTypes = []models.ClientType{}
	}
	c.JSON(http.StatusOK, clientTypes)
}

// GetClientTypeByID handles fetching a single client type by ID.
func (h *ClientTypeHandler) GetClientTypeByID(c *gin.Context) {
	idStr := c.Param("id")
	typeID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid client type ID format.", err.Error()))
		return
	}

	clientType, err := h.typeService.GetClientTypeByID(typeID)
	if err != nil {
		utils.LogError(err, "GetClientTypeByID: Error from typeService.GetClientTypeByID for ID "+idStr)
		if errors.Is(err, services.ErrClientTypeNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client type not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch client type.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, clientType)
}

// UpdateClientType handles updating a client type.
func (h *ClientTypeHandler) UpdateClientType(c *gin.Context) {
	idStr := c.Param("id")
	typeID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid client type ID format.", err.Error()))
		return
	}

	var req services.UpdateClientTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateClientType: Failed to bind JSON for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	clientType, err := h.typeService.UpdateClientType(typeID, req)
	if err != nil {
		utils.LogError(err, "UpdateClientType: Error from typeService.UpdateClientType for ID "+idStr)
		if errors.Is(err, services.ErrClientTypeNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client type not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrClientTypeNameExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Client type name already exists.", err.Error()))
		} else if errors.Is(err, services.ErrClientTypeValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update client type.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, clientType)
}

// DeleteClientType handles deleting a client type.
func (h *ClientTypeHandler) DeleteClientType(c *gin.Context) {
	idStr := c.Param("id")
	typeID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid client type ID format.", err.Error()))
		return
	}

	err = h.typeService.DeleteClientType(typeID)
	if err != nil {
		utils.LogError(err, "DeleteClientType: Error from typeService.DeleteClientType for ID "+idStr)
		if errors.Is(err, services.ErrClientTypeNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Client type not found to delete.", err.Error()))
		} else if errors.Is(err, services.ErrClientTypeInUse) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Client type is referenced by existing clients.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete client type.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client type deleted successfully"})
}
