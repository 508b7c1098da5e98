// internal/handlers/admin.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dealboard/dealboard-backend/internal/i18n"
	"github.com/dealboard/dealboard-backend/internal/models"
	"github.com/dealboard/dealboard-backend/internal/services"
	"github.com/dealboard/dealboard-backend/internal/utils"
)

type AdminHandler struct {
	dealService *services.DealService
}

func NewAdminHandler(dealService *services.DealService) *AdminHandler {
	return &AdminHandler{dealService: dealService}
}

// GET /admin/deals
func (h *AdminHandler) GetDeals(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.DealSearchParams{
		PaginationParams: params,
		AnyStatus:        true,
		IncludeDead:      true,
	}

	if statusStr := c.DefaultQuery("status", string(models.DealStatusPending)); statusStr != "" {
		status := models.DealStatus(statusStr)
		searchParams.Status = &status
	}

	deals, total, err := h.dealService.SearchDeals(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(deals, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/deals/:id/approve
func (h *AdminHandler) ApproveDeal(c *gin.Context) {
	h.setStatus(c, models.DealStatusPublished, i18n.KeyDealApproved)
}

// PUT /admin/deals/:id/reject
func (h *AdminHandler) RejectDeal(c *gin.Context) {
	h.setStatus(c, models.DealStatusRejected, i18n.KeyDealRejected)
}

func (h *AdminHandler) setStatus(c *gin.Context, status models.DealStatus, messageKey string) {
	lang := utils.GetLangFromContext(c)

	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid deal ID", nil)
		return
	}

	deal, err := h.dealService.SetDealStatus(dealID, status)
	if err != nil {
		if errors.Is(err, services.ErrDealNotFound) {
			utils.NotFoundResponse(c, "deal")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, messageKey),
		"deal":    deal,
	})
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.dealService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	utils.SuccessResponse(c, stats)
}
