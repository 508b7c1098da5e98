// internal/handlers/store.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/dealboard/dealboard-backend/internal/i18n"
	"github.com/dealboard/dealboard-backend/internal/services"
	"github.com/dealboard/dealboard-backend/internal/utils"
)

type StoreHandler struct {
	storeService *services.StoreService
}

func NewStoreHandler(storeService *services.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// GET /stores
func (h *StoreHandler) GetStores(c *gin.Context) {
	stores, err := h.storeService.ListStores()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	utils.SuccessResponse(c, gin.H{"stores": stores})
}

// GET /stores/:idOrSlug
func (h *StoreHandler) GetStore(c *gin.Context) {
	store, err := h.storeService.GetStore(c.Param("idOrSlug"))
	if err != nil {
		if errors.Is(err, services.ErrStoreNotFound) {
			utils.NotFoundResponse(c, "store")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	utils.SuccessResponse(c, store)
}

// POST /admin/stores
func (h *StoreHandler) CreateStore(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	store, err := h.storeService.CreateStore(&req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyStoreCreated),
		"store":   store,
	})
}
