// internal/handlers/deal.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dealboard/dealboard-backend/internal/config"
	"github.com/dealboard/dealboard-backend/internal/i18n"
	"github.com/dealboard/dealboard-backend/internal/models"
	"github.com/dealboard/dealboard-backend/internal/services"
	"github.com/dealboard/dealboard-backend/internal/utils"
)

type DealHandler struct {
	dealService    *services.DealService
	storageService *services.StorageService
	policyCfg      config.PolicyConfig
}

func NewDealHandler(dealService *services.DealService, storageService *services.StorageService, policyCfg config.PolicyConfig) *DealHandler {
	return &DealHandler{
		dealService:    dealService,
		storageService: storageService,
		policyCfg:      policyCfg,
	}
}

// GET /deals/policy
//
// The submission dashboard mirrors the server's rule engine; it reads
// these knobs at load time so both sides make the same decisions.
func (h *DealHandler) GetPolicy(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"deal_type_blocking":                 h.policyCfg.DealTypeBlocking,
		"short_description_case_insensitive": h.policyCfg.ShortDescriptionCaseInsensitive,
		"duplicate_check_debounce_ms":        h.policyCfg.DuplicateCheckDebounceMs,
	})
}

// GET /deals
func (h *DealHandler) GetDeals(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.DealSearchParams{
		PaginationParams: params,
	}

	if storeIDStr := c.Query("store_id"); storeIDStr != "" {
		if storeID, err := uuid.Parse(storeIDStr); err == nil {
			searchParams.StoreID = &storeID
		}
	}
	if dealType := c.Query("deal_type"); dealType != "" {
		searchParams.DealType = dealType
	}
	if tag := c.Query("tag"); tag != "" {
		searchParams.Tag = tag
	}
	if flashStr := c.Query("flash"); flashStr != "" {
		if flash, err := strconv.ParseBool(flashStr); err == nil {
			searchParams.FlashOnly = flash
		}
	}
	if hotStr := c.Query("hot_trend"); hotStr != "" {
		if hot, err := strconv.ParseBool(hotStr); err == nil {
			searchParams.HotTrend = hot
		}
	}
	if holidayStr := c.Query("holiday"); holidayStr != "" {
		if holiday, err := strconv.ParseBool(holidayStr); err == nil {
			searchParams.HolidayDeals = holiday
		}
	}
	if seasonalStr := c.Query("seasonal"); seasonalStr != "" {
		if seasonal, err := strconv.ParseBool(seasonalStr); err == nil {
			searchParams.SeasonalDeals = seasonal
		}
	}

	deals, total, err := h.dealService.SearchDeals(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(deals, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /deals/flash
func (h *DealHandler) GetFlashDeals(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	deals, total, err := h.dealService.SearchDeals(services.DealSearchParams{
		PaginationParams: params,
		FlashOnly:        true,
	})
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(deals, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /deals/mine
func (h *DealHandler) GetMyDeals(c *gin.Context) {
	authorID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	searchParams := services.DealSearchParams{
		PaginationParams: params,
		AuthorID:         &authorID,
		IncludeDead:      true,
	}

	// Contributors see their own drafts in every status.
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.DealStatus(statusStr)
		searchParams.Status = &status
	} else {
		searchParams.AnyStatus = true
	}

	deals, total, err := h.dealService.SearchDeals(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(deals, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /deals/:idOrSlug
func (h *DealHandler) GetDeal(c *gin.Context) {
	deal, err := h.dealService.GetDeal(c.Param("idOrSlug"))
	if err != nil {
		if errors.Is(err, services.ErrDealNotFound) {
			utils.NotFoundResponse(c, "deal")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, deal)
}

// GET /deal-types
func (h *DealHandler) GetDealTypes(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{"deal_types": models.DealTypeVocabulary})
}

// POST /deals/batch
func (h *DealHandler) BatchCreateDeals(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	authorID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var drafts []services.DealDraftInput
	if err := c.ShouldBindJSON(&drafts); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	deals, err := h.dealService.BatchCreateDeals(authorID, drafts)
	if err != nil {
		h.respondDealError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDealCreated),
		"count":   len(deals),
		"deals":   deals,
	})
}

// PATCH /deals/:id
func (h *DealHandler) UpdateDeal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	dealID, err := uuid.Parse(c.Param("idOrSlug"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid deal ID", nil)
		return
	}

	var req services.UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	deal, err := h.dealService.UpdateDeal(dealID, userID, h.isAdmin(c), &req)
	if err != nil {
		h.respondDealError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDealUpdated),
		"deal":    deal,
	})
}

// DELETE /deals/:id
func (h *DealHandler) DeleteDeal(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	dealID, err := uuid.Parse(c.Param("idOrSlug"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid deal ID", nil)
		return
	}

	if err := h.dealService.DeleteDeal(dealID, userID, h.isAdmin(c)); err != nil {
		h.respondDealError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDealDeleted),
	})
}

type checkDuplicatesRequest struct {
	PurchaseLink     string `json:"purchase_link"`
	ShortDescription string `json:"short_description"`
	ExcludeID        string `json:"exclude_id"`
}

// POST /deals/check-duplicates
//
// Backs the submission form's debounced availability probe: both fields
// travel in one request so one keystroke pause costs one round trip.
func (h *DealHandler) CheckDuplicates(c *gin.Context) {
	var req checkDuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	var excludeID *uuid.UUID
	if req.ExcludeID != "" {
		id, err := uuid.Parse(req.ExcludeID)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid exclude_id", nil)
			return
		}
		excludeID = &id
	}

	result, err := h.dealService.CheckAvailabilityExcluding(req.PurchaseLink, req.ShortDescription, excludeID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"purchase_link_taken":     result.PurchaseLinkTaken,
		"short_description_taken": result.ShortDescriptionTaken,
	})
}

// POST /deals/upload-picture
func (h *DealHandler) UploadPicture(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided", nil)
		return
	}
	defer file.Close()

	if err := h.storageService.ValidateImage(file); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), nil)
		return
	}

	result, err := h.storageService.UploadFile(file, header, h.storageService.DealPictureOptions())
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFileUploadSuccess),
		"upload":  result,
	})
}

func (h *DealHandler) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, false
	}
	return userID, true
}

func (h *DealHandler) isAdmin(c *gin.Context) bool {
	userType, _ := utils.GetUserTypeFromContext(c)
	return userType == string(models.UserTypeAdmin)
}

// respondDealError maps service errors onto the response envelope: 409
// for duplicates (with the colliding values), 400 for per-draft rule
// failures, 404/403 for ownership problems.
func (h *DealHandler) respondDealError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var dupErr *services.DuplicateError
	if errors.As(err, &dupErr) {
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyDealDuplicate), gin.H{
			"purchase_links":     dupErr.Duplicates.PurchaseLinks,
			"short_descriptions": dupErr.Duplicates.ShortDescriptions,
		})
		return
	}

	var batchErr *services.BatchValidationError
	if errors.As(err, &batchErr) {
		utils.ErrorResponse(c, 400, "VALIDATION_ERROR", i18n.T(lang, i18n.KeyDealBatchFailed), batchErr.Errors)
		return
	}

	switch {
	case errors.Is(err, services.ErrDealNotFound):
		utils.NotFoundResponse(c, "deal")
	case errors.Is(err, services.ErrNotDealOwner):
		utils.ForbiddenResponse(c, "You can only modify your own deals")
	case errors.Is(err, services.ErrEmptyBatch):
		utils.BadRequestResponse(c, "At least one deal is required", nil)
	case errors.Is(err, services.ErrEmptyUpdate):
		utils.BadRequestResponse(c, "At least one field must be updated", nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
