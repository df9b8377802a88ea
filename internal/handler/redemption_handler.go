package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RedemptionHandler struct {
	redemptionService service.RedemptionService
}

func NewRedemptionHandler(redemptionService service.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService}
}

func (h *RedemptionHandler) RegisterRoutes(router *gin.RouterGroup) {
	redemptions := router.Group("/api/redemptions")
	{
		redemptions.POST("", middleware.RequireRole(model.RoleCitizen, model.RoleAdmin), h.Redeem)
		redemptions.GET("/mine", middleware.RequireRole(model.RoleCitizen, model.RoleAdmin), h.ListMine)
		redemptions.GET("", middleware.RequireRole(model.RoleAdmin), h.List)
		redemptions.GET("/:id", middleware.RequireRole(model.RoleAdmin), h.Get)
		redemptions.PATCH("/:id/status", middleware.RequireRole(model.RoleAdmin), h.UpdateStatus)
	}
}

type redeemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// Redeem exchanges points for a product
// @Summary      Redeem product
// @Description  Atomically creates the redemption, deducts points and decrements stock
// @Tags         redemptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      redeemRequest  true  "Redeem payload"
// @Success      201      {object}  response.Response{data=service.RedeemResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/redemptions [post]
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product_id"))
		return
	}

	result, err := h.redemptionService.Redeem(c.Request.Context(), userID, productID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListMine returns the caller's redemptions
// @Summary      List own redemptions
// @Tags         redemptions
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/redemptions/mine [get]
func (h *RedemptionHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	redemptions, total, err := h.redemptionService.ListByUser(c.Request.Context(), userID, params.Page, params.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"redemptions": redemptions,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
	}))
}

// List returns all redemptions, optionally filtered by status
// @Summary      List redemptions
// @Tags         redemptions
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/redemptions [get]
func (h *RedemptionHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	redemptions, total, err := h.redemptionService.List(c.Request.Context(), params.Page, params.Limit, c.Query("status"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"redemptions": redemptions,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
	}))
}

// Get returns one redemption
// @Summary      Get redemption
// @Tags         redemptions
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Redemption ID"
// @Success      200  {object}  response.Response{data=model.Redemption}
// @Failure      404  {object}  response.Response
// @Router       /api/redemptions/{id} [get]
func (h *RedemptionHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	redemption, err := h.redemptionService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, redemption))
}

// UpdateStatus advances a redemption through its workflow
// @Summary      Update redemption status
// @Description  pending -> processing -> completed, rejected from any non-terminal state
// @Tags         redemptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                           true  "Redemption ID"
// @Param        payload  body  service.UpdateRedemptionRequest  true  "Status payload"
// @Success      200  {object}  response.Response{data=model.Redemption}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/redemptions/{id}/status [patch]
func (h *RedemptionHandler) UpdateStatus(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	redemption, err := h.redemptionService.UpdateStatus(c.Request.Context(), id, req.Status, adminID, req.Notes)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, redemption))
}
