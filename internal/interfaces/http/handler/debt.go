package handler

import (
	"context"
	"strings"
	"time"

	"github.com/dividas/backend/internal/application/ledger"
	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the optional key of a payment request
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// DebtHandler handles debt ledger endpoints
type DebtHandler struct {
	BaseHandler
	ledger *ledger.Service
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(ledgerService *ledger.Service) *DebtHandler {
	return &DebtHandler{ledger: ledgerService}
}

// RegisterDebtRequest registers a debt for an existing client
type RegisterDebtRequest struct {
	ClientID  string `json:"client_id" binding:"required,uuid"`
	CompanyID string `json:"company_id" binding:"omitempty,uuid"`
	Amount    string `json:"amount" binding:"required,max=20"`
	DueDate   string `json:"due_date" binding:"required,datetime=2006-01-02"`
	Note      string `json:"note" binding:"max=1000"`
}

// ClientDataRequest carries the fields of a client to find or create
type ClientDataRequest struct {
	FullName   string `json:"full_name" binding:"required,max=200"`
	DocumentID string `json:"document_id" binding:"required,max=14"`
	BirthDate  string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Email      string `json:"email" binding:"omitempty,email,max=254"`
	Phone      string `json:"phone" binding:"max=15"`
	Address    string `json:"address" binding:"max=500"`
}

// RegisterClientDebtRequest registers a debt, creating the client when its
// document id is unknown
type RegisterClientDebtRequest struct {
	Client    ClientDataRequest `json:"client" binding:"required"`
	CompanyID string            `json:"company_id" binding:"omitempty,uuid"`
	Amount    string            `json:"amount" binding:"required,max=20"`
	DueDate   string            `json:"due_date" binding:"required,datetime=2006-01-02"`
	Note      string            `json:"note" binding:"max=1000"`
}

// RegisterPaymentRequest registers a payment. An empty payment date means today.
type RegisterPaymentRequest struct {
	Amount      string `json:"amount" binding:"required,max=20"`
	PaymentDate string `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
	Note        string `json:"note" binding:"max=1000"`
}

// EditDebtRequest is an administrative edit; omitted fields stay unchanged
type EditDebtRequest struct {
	Balance *string `json:"balance" binding:"omitempty,max=20"`
	DueDate *string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Status  *string `json:"status" binding:"omitempty,oneof=ACTIVE IN_NEGOTIATION PAID CANCELLED"`
	Note    *string `json:"note" binding:"omitempty,max=1000"`
	Comment string  `json:"comment" binding:"max=500"`
}

// StatusChangeRequest carries the comment of a status transition
type StatusChangeRequest struct {
	Comment string `json:"comment" binding:"max=500"`
}

// ClientDebtResponse is the outcome of registering a debt with client data
type ClientDebtResponse struct {
	Client        ClientResponse `json:"client"`
	Debt          DebtResponse   `json:"debt"`
	ClientCreated bool           `json:"client_created"`
}

// Register handles POST /debts
func (h *DebtHandler) Register(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req RegisterDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	cmd := ledger.RegisterDebtCommand{Note: req.Note}
	var err error
	cmd.ClientID = uuid.MustParse(req.ClientID)
	if cmd.CompanyID, err = parseOptionalID(req.CompanyID); err != nil {
		h.HandleError(c, err)
		return
	}
	if cmd.Amount, err = parseAmount(req.Amount); err != nil {
		h.HandleError(c, err)
		return
	}
	if cmd.DueDate, err = parseDate(req.DueDate); err != nil {
		h.HandleError(c, err)
		return
	}

	d, err := h.ledger.RegisterDebt(c.Request.Context(), actor, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toDebtResponse(d))
}

// RegisterForClient handles POST /debts/with-client
func (h *DebtHandler) RegisterForClient(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req RegisterClientDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	cmd := ledger.RegisterClientDebtCommand{
		Client: debt.ClientData{
			FullName:   req.Client.FullName,
			DocumentID: req.Client.DocumentID,
			Email:      req.Client.Email,
			Phone:      req.Client.Phone,
			Address:    req.Client.Address,
		},
		Note: req.Note,
	}
	if req.Client.BirthDate != "" {
		birth, err := parseDate(req.Client.BirthDate)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		cmd.Client.BirthDate = &birth
	}
	var err error
	if cmd.CompanyID, err = parseOptionalID(req.CompanyID); err != nil {
		h.HandleError(c, err)
		return
	}
	if cmd.Amount, err = parseAmount(req.Amount); err != nil {
		h.HandleError(c, err)
		return
	}
	if cmd.DueDate, err = parseDate(req.DueDate); err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.ledger.RegisterClientDebt(c.Request.Context(), actor, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ClientDebtResponse{
		Client:        toClientResponse(result.Client),
		Debt:          toDebtResponse(result.Debt),
		ClientCreated: result.ClientCreated,
	})
}

// Get handles GET /debts/:id
func (h *DebtHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "debt")
	if !ok {
		return
	}
	d, err := h.ledger.GetDebt(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDebtResponse(d))
}

// RegisterPayment handles POST /debts/:id/payments. A repeated
// Idempotency-Key header is rejected with 409.
func (h *DebtHandler) RegisterPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "debt")
	if !ok {
		return
	}
	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	date, err := parseDate(req.PaymentDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	d, err := h.ledger.RegisterPayment(c.Request.Context(), actor, ledger.RegisterPaymentCommand{
		DebtID:         id,
		Amount:         amount,
		PaymentDate:    date,
		Note:           req.Note,
		IdempotencyKey: key,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDebtResponse(d))
}

// Edit handles PATCH /debts/:id
func (h *DebtHandler) Edit(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "debt")
	if !ok {
		return
	}
	var req EditDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	cmd := ledger.EditDebtCommand{DebtID: id, Note: req.Note, Comment: req.Comment}
	var err error
	if cmd.Balance, err = parseAmountPtr(req.Balance); err != nil {
		h.HandleError(c, err)
		return
	}
	if cmd.DueDate, err = parseDatePtr(req.DueDate); err != nil {
		h.HandleError(c, err)
		return
	}
	if req.Status != nil {
		status := debt.Status(*req.Status)
		cmd.Status = &status
	}

	d, err := h.ledger.EditDebt(c.Request.Context(), actor, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDebtResponse(d))
}

// StartNegotiation handles POST /debts/:id/negotiation
func (h *DebtHandler) StartNegotiation(c *gin.Context) {
	h.transition(c, h.ledger.StartNegotiation)
}

// Cancel handles POST /debts/:id/cancel
func (h *DebtHandler) Cancel(c *gin.Context) {
	h.transition(c, h.ledger.CancelDebt)
}

// Reactivate handles POST /debts/:id/reactivate
func (h *DebtHandler) Reactivate(c *gin.Context) {
	h.transition(c, h.ledger.ReactivateDebt)
}

type transitionFunc func(ctx context.Context, actor debt.Actor, debtID uuid.UUID, comment string) (*debt.Debt, error)

func (h *DebtHandler) transition(c *gin.Context, apply transitionFunc) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "debt")
	if !ok {
		return
	}
	var req StatusChangeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}
	d, err := apply(c.Request.Context(), actor, id, req.Comment)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDebtResponse(d))
}

// History handles GET /debts/:id/history
func (h *DebtHandler) History(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "debt")
	if !ok {
		return
	}
	entries, err := h.ledger.History(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryResponse{
			ID:           e.ID.String(),
			Action:       string(e.Action),
			PriorBalance: moneyPtr(e.PriorBalance),
			NewBalance:   moneyPtr(e.NewBalance),
			Description:  e.Description,
			ActorID:      e.ActorID.String(),
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		}
	}
	h.Success(c, out)
}
