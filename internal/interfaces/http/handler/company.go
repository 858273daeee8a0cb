package handler

import (
	"strconv"

	"github.com/dividas/backend/internal/application/company"
	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CompanyHandler handles company administration endpoints
type CompanyHandler struct {
	BaseHandler
	companies *company.Service
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companyService *company.Service) *CompanyHandler {
	return &CompanyHandler{companies: companyService}
}

// CreateCompanyRequest creates a company
type CreateCompanyRequest struct {
	Name   string `json:"name" binding:"required,max=100"`
	TaxID  string `json:"tax_id" binding:"max=18"`
	Phone  string `json:"phone" binding:"max=15"`
	Email  string `json:"email" binding:"omitempty,email,max=254"`
	Active *bool  `json:"active"`
}

// AddMemberRequest binds a user to a company
type AddMemberRequest struct {
	UserID  string `json:"user_id" binding:"required,uuid"`
	IsAdmin bool   `json:"is_admin"`
}

// Create handles POST /companies
func (h *CompanyHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	created, err := h.companies.Create(c.Request.Context(), actor, company.CreateCommand{
		CompanyData: debt.CompanyData{
			Name:  req.Name,
			TaxID: req.TaxID,
			Phone: req.Phone,
			Email: req.Email,
		},
		Active: req.Active,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCompanyResponse(created))
}

// List handles GET /companies. ?active=false includes inactive companies.
func (h *CompanyHandler) List(c *gin.Context) {
	activeOnly := true
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "active must be a boolean")
			return
		}
		activeOnly = v
	}
	companies, err := h.companies.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]CompanyResponse, len(companies))
	for i := range companies {
		out[i] = toCompanyResponse(&companies[i])
	}
	h.Success(c, out)
}

// Get handles GET /companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id", "company")
	if !ok {
		return
	}
	found, err := h.companies.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCompanyResponse(found))
}

// AddMember handles POST /companies/:id/members
func (h *CompanyHandler) AddMember(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	companyID, ok := h.pathID(c, "id", "company")
	if !ok {
		return
	}
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	m, err := h.companies.AddMember(c.Request.Context(), actor, companyID, uuid.MustParse(req.UserID), req.IsAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toMembershipResponse(m))
}

// ListMembers handles GET /companies/:id/members
func (h *CompanyHandler) ListMembers(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	companyID, ok := h.pathID(c, "id", "company")
	if !ok {
		return
	}
	members, err := h.companies.ListMembers(c.Request.Context(), actor, companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]MembershipResponse, len(members))
	for i := range members {
		out[i] = toMembershipResponse(&members[i])
	}
	h.Success(c, out)
}

// Me handles GET /me
func (h *CompanyHandler) Me(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	profile, err := h.companies.Me(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProfileResponse(profile))
}
