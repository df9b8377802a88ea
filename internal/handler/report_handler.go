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
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	{
		reports.POST("", middleware.RequireRole(model.RoleCitizen, model.RoleAdmin), h.Create)
		reports.GET("", middleware.RequireRole(model.RoleAdmin), h.List)
		reports.GET("/mine", middleware.RequireRole(model.RoleCitizen, model.RoleAdmin), h.ListMine)
		reports.GET("/:id", middleware.RequireRole(model.RoleCitizen, model.RoleAdmin), h.Get)
		reports.DELETE("/:id", middleware.RequireRole(model.RoleCitizen, model.RoleAdmin), h.Delete)
		reports.PATCH("/:id/status", middleware.RequireRole(model.RoleAdmin), h.TransitionStatus)
		reports.PATCH("/:id/urgency", middleware.RequireRole(model.RoleAdmin), h.SetUrgency)
	}
}

// Create files a new infrastructure issue report
// @Summary      Create report
// @Description  Creates a report in status pending and credits the submission reward
// @Tags         reports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateReportRequest  true  "Report payload"
// @Success      201      {object}  response.Response{data=model.Report}
// @Failure      400      {object}  response.Response
// @Router       /api/reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, report))
}

// List returns all reports with optional filters
// @Summary      List reports
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        limit     query  int     false  "Items per page (default 20)"
// @Param        status    query  string  false  "Filter by status"
// @Param        category  query  string  false  "Filter by category"
// @Param        city      query  string  false  "Filter by city"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.ReportFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		City:     c.Query("city"),
	}

	reports, total, err := h.reportService.List(c.Request.Context(), params.Page, params.Limit, filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"reports": reports,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// ListMine returns the authenticated user's reports
// @Summary      List own reports
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/reports/mine [get]
func (h *ReportHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	reports, total, err := h.reportService.ListByReporter(c.Request.Context(), userID, params.Page, params.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"reports": reports,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// Get returns a report with its status history
// @Summary      Get report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Report ID"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      404  {object}  response.Response
// @Router       /api/reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	report, err := h.reportService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Delete removes a pending report owned by the caller
// @Summary      Delete report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Report ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.reportService.Delete(c.Request.Context(), id, userID); err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// TransitionStatus moves a report through the status state machine
// @Summary      Update report status
// @Description  pending -> in-progress -> resolved | rejected; resolving credits the reporter
// @Tags         reports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                           true  "Report ID"
// @Param        payload  body  service.TransitionStatusRequest  true  "Status payload"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/reports/{id}/status [patch]
func (h *ReportHandler) TransitionStatus(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.TransitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.TransitionStatus(c.Request.Context(), id, req.Status, adminID, req.Note)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// SetUrgency overrides a report's urgency
// @Summary      Set report urgency
// @Tags         reports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Report ID"
// @Param        payload  body  service.SetUrgencyRequest  true  "Urgency payload"
// @Success      200  {object}  response.Response{data=model.Report}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/reports/{id}/urgency [patch]
func (h *ReportHandler) SetUrgency(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.SetUrgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	report, err := h.reportService.SetUrgency(c.Request.Context(), id, req.Urgency, adminID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
