package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PointsHandler struct {
	pointsService service.PointsService
}

func NewPointsHandler(pointsService service.PointsService) *PointsHandler {
	return &PointsHandler{pointsService: pointsService}
}

func (h *PointsHandler) RegisterRoutes(router *gin.RouterGroup) {
	points := router.Group("/api/points")
	{
		points.GET("/balance", middleware.RequireRole(model.RoleCitizen, model.RoleAdmin), h.Balance)
		points.GET("/history", middleware.RequireRole(model.RoleCitizen, model.RoleAdmin), h.History)
		points.POST("/adjust", middleware.RequireRole(model.RoleAdmin), h.Adjust)
	}
}

// Balance returns the caller's current point balance
// @Summary      Get balance
// @Tags         points
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Failure      401  {object}  response.Response
// @Router       /api/points/balance [get]
func (h *PointsHandler) Balance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	balance, err := h.pointsService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"balance": balance}))
}

// History returns the caller's points transaction history
// @Summary      Get points history
// @Tags         points
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Param        type    query  string  false  "Filter by type (earn, redeem)"
// @Param        source  query  string  false  "Filter by source"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/points/history [get]
func (h *PointsHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)
	filter := repository.PointsHistoryFilter{
		Type:   c.Query("type"),
		Source: c.Query("source"),
	}

	txs, total, err := h.pointsService.GetHistory(c.Request.Context(), userID, params.Page, params.Limit, filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
		"page":         params.Page,
		"limit":        params.Limit,
	}))
}

type adjustPointsRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	Amount      int    `json:"amount" binding:"required,gt=0"`
	Description string `json:"description"`
}

// Adjust credits points to a user as a manual admin adjustment
// @Summary      Adjust points
// @Tags         points
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      adjustPointsRequest  true  "Adjustment payload"
// @Success      200      {object}  response.Response{data=service.LedgerResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/points/adjust [post]
func (h *PointsHandler) Adjust(c *gin.Context) {
	var req adjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid user_id"))
		return
	}

	result, err := h.pointsService.Earn(c.Request.Context(), userID, req.Amount,
		model.SourceAdminAdjustment, nil, req.Description)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
