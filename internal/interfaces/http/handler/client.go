package handler

import (
	"net/http"

	"github.com/dividas/backend/internal/application/access"
	"github.com/dividas/backend/internal/interfaces/http/dto"
	"github.com/dividas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ClientHandler serves client listing, search and detail endpoints. What a
// caller sees depends on whether it is a company member or external.
type ClientHandler struct {
	BaseHandler
	access *access.Service
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(accessService *access.Service) *ClientHandler {
	return &ClientHandler{access: accessService}
}

// ListClientsRequest holds the listing query parameters
type ListClientsRequest struct {
	dto.PageRequest
	Query     string `form:"q" binding:"max=20"`
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
}

// SearchClientsRequest holds the autocomplete query
type SearchClientsRequest struct {
	Query string `form:"q" binding:"max=20"`
}

// List handles GET /clients
func (h *ClientHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req ListClientsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	companyID, err := parseOptionalID(req.CompanyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.access.ListVisibleClients(c.Request.Context(), actor, access.ListQuery{
		Query:     req.Query,
		CompanyID: companyID,
		Page:      req.ToPage(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page, toClientSummaryResponses(page.Items)))
}

// Search handles GET /clients/search
func (h *ClientHandler) Search(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req SearchClientsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	results, err := h.access.SearchClients(c.Request.Context(), actor, req.Query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toClientSummaryResponses(results))
}

// Detail handles GET /clients/:id
func (h *ClientHandler) Detail(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "client")
	if !ok {
		return
	}
	detail, err := h.access.GetClientDetail(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toClientDetailResponse(detail))
}

// Debts handles GET /clients/:id/debts
func (h *ClientHandler) Debts(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "client")
	if !ok {
		return
	}
	views, err := h.access.ListClientDebts(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]DebtViewResponse, len(views))
	for i := range views {
		out[i] = DebtViewResponse{
			DebtResponse: toDebtResponse(&views[i].Debt),
			CanSettle:    views[i].CanSettle,
			Overdue:      views[i].Overdue,
		}
	}
	h.Success(c, out)
}
