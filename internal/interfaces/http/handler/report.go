package handler

import (
	"github.com/dividas/backend/internal/application/report"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the company reports
type ReportHandler struct {
	BaseHandler
	reports *report.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *report.Service) *ReportHandler {
	return &ReportHandler{reports: reportService}
}

// Dashboard handles GET /reports/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	d, err := h.reports.Dashboard(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDashboardResponse(d))
}

// Statistics handles GET /reports/statistics
func (h *ReportHandler) Statistics(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	s, err := h.reports.Statistics(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toStatisticsResponse(s))
}

// Overdue handles GET /reports/overdue
func (h *ReportHandler) Overdue(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	r, err := h.reports.Overdue(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOverdueReportResponse(r))
}
