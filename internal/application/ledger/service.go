package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/domain/shared"
	"github.com/dividas/backend/internal/infrastructure/logger"
	"github.com/dividas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "LedgerService"

// Options tunes the ledger service
type Options struct {
	// Location decides the calendar day used as "today".
	Location       *time.Location
	IdempotencyTTL time.Duration
	Now            func() time.Time
}

// Service registers debts and payments and keeps their history
type Service struct {
	companies   debt.CompanyRepository
	clients     debt.ClientRepository
	debts       debt.DebtRepository
	events      shared.EventPublisher
	idempotency shared.IdempotencyStore
	loc         *time.Location
	ttl         time.Duration
	now         func() time.Time
}

// NewService creates a ledger service
func NewService(
	companies debt.CompanyRepository,
	clients debt.ClientRepository,
	debts debt.DebtRepository,
	events shared.EventPublisher,
	idempotency shared.IdempotencyStore,
	opts Options,
) *Service {
	s := &Service{
		companies:   companies,
		clients:     clients,
		debts:       debts,
		events:      events,
		idempotency: idempotency,
		loc:         opts.Location,
		ttl:         opts.IdempotencyTTL,
		now:         opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Today returns the current calendar date of the ledger
func (s *Service) Today() time.Time {
	return debt.DateOf(s.now().In(s.loc))
}

// RegisterDebt registers a debt for an existing client
func (s *Service) RegisterDebt(ctx context.Context, actor debt.Actor, cmd RegisterDebtCommand) (*debt.Debt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "RegisterDebt")
	defer span.End()
	telemetry.SetAttributes(span, "client.id", cmd.ClientID, "debt.amount", cmd.Amount.StringFixed(2))

	company, err := s.companyFor(ctx, actor, cmd.CompanyID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	client, err := s.clients.FindByID(ctx, cmd.ClientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	d, entry, err := debt.RegisterDebt(debt.Registration{
		Client:  client,
		Company: company,
		Amount:  cmd.Amount,
		DueDate: cmd.DueDate,
		Note:    cmd.Note,
	}, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.debts.Create(ctx, d, entry); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save debt: %w", err)
	}

	s.publish(ctx, d)
	logger.L(ctx).Info("debt registered",
		zap.String("debt_id", d.ID.String()),
		zap.String("client_id", client.ID.String()),
		zap.String("amount", d.OriginalAmount.StringFixed(2)),
	)
	return d, nil
}

// RegisterClientDebt finds the client by document id or creates it, then
// registers the debt. A new client and its debt are stored together.
func (s *Service) RegisterClientDebt(ctx context.Context, actor debt.Actor, cmd RegisterClientDebtCommand) (*ClientDebtResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "RegisterClientDebt")
	defer span.End()

	company, err := s.companyFor(ctx, actor, cmd.CompanyID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	documentID, err := debt.ParseDocumentID(cmd.Client.DocumentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := s.registerClientDebt(ctx, actor, company, documentID, cmd)
	if errors.Is(err, debt.ErrDuplicateClient) {
		// another request created the client first
		result, err = s.registerClientDebt(ctx, actor, company, documentID, cmd)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, result.Debt)
	telemetry.SetAttributes(span, "client.created", result.ClientCreated, "debt.id", result.Debt.ID)
	logger.L(ctx).Info("client debt registered",
		zap.String("debt_id", result.Debt.ID.String()),
		zap.String("client_id", result.Client.ID.String()),
		zap.Bool("client_created", result.ClientCreated),
	)
	return result, nil
}

func (s *Service) registerClientDebt(ctx context.Context, actor debt.Actor, company *debt.Company, documentID string, cmd RegisterClientDebtCommand) (*ClientDebtResult, error) {
	client, err := s.clients.FindByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up client: %w", err)
	}
	created := client == nil
	if created {
		if client, err = debt.NewClient(cmd.Client); err != nil {
			return nil, err
		}
	}

	d, entry, err := debt.RegisterDebt(debt.Registration{
		Client:  client,
		Company: company,
		Amount:  cmd.Amount,
		DueDate: cmd.DueDate,
		Note:    cmd.Note,
	}, actor)
	if err != nil {
		return nil, err
	}

	if created {
		err = s.debts.CreateWithClient(ctx, client, d, entry)
	} else {
		err = s.debts.Create(ctx, d, entry)
	}
	if err != nil {
		if errors.Is(err, debt.ErrDuplicateClient) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save debt: %w", err)
	}
	return &ClientDebtResult{Client: client, Debt: d, ClientCreated: created}, nil
}

// RegisterPayment deducts a payment from a debt's balance. A key already
// claimed within the TTL fails with ErrDuplicateRequest; the key is released
// again when the payment fails so the client can retry it.
func (s *Service) RegisterPayment(ctx context.Context, actor debt.Actor, cmd RegisterPaymentCommand) (_ *debt.Debt, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "RegisterPayment")
	defer span.End()
	telemetry.SetAttributes(span, "debt.id", cmd.DebtID, "payment.amount", cmd.Amount.StringFixed(2))
	defer func() { telemetry.RecordError(span, err) }()

	if cmd.IdempotencyKey != "" {
		key := idempotencyKey(actor, cmd.IdempotencyKey)
		claimed, claimErr := s.idempotency.Claim(ctx, key, s.ttl)
		if claimErr != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", claimErr)
		}
		if !claimed {
			return nil, debt.ErrDuplicateRequest
		}
		defer func() {
			if err == nil {
				return
			}
			if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
				logger.L(ctx).Warn("failed to release idempotency key", zap.Error(releaseErr))
			}
		}()
	}

	d, err := s.debts.FindByID(ctx, cmd.DebtID)
	if err != nil {
		return nil, err
	}
	entry, err := d.RegisterPayment(debt.PaymentInput{
		Amount:      cmd.Amount,
		PaymentDate: cmd.PaymentDate,
		Note:        cmd.Note,
	}, s.Today(), actor)
	if err != nil {
		return nil, err
	}
	if err := s.debts.SaveWithLock(ctx, d, entry); err != nil {
		if errors.Is(err, debt.ErrConcurrentUpdate) {
			logger.L(ctx).Warn("payment lost a concurrent update", zap.String("debt_id", d.ID.String()))
			return nil, err
		}
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	s.publish(ctx, d)
	logger.L(ctx).Info("payment registered",
		zap.String("debt_id", d.ID.String()),
		zap.String("action", string(entry.Action)),
		zap.String("amount", cmd.Amount.StringFixed(2)),
		zap.String("balance", d.CurrentBalance.StringFixed(2)),
	)
	return d, nil
}

// EditDebt applies an administrative edit
func (s *Service) EditDebt(ctx context.Context, actor debt.Actor, cmd EditDebtCommand) (*debt.Debt, error) {
	return s.mutate(ctx, "EditDebt", cmd.DebtID, func(d *debt.Debt, today time.Time) (*debt.HistoryEntry, error) {
		return d.Edit(debt.EditInput{
			Balance: cmd.Balance,
			DueDate: cmd.DueDate,
			Status:  cmd.Status,
			Note:    cmd.Note,
			Comment: cmd.Comment,
		}, today, actor)
	})
}

// StartNegotiation moves an ACTIVE debt to IN_NEGOTIATION
func (s *Service) StartNegotiation(ctx context.Context, actor debt.Actor, debtID uuid.UUID, comment string) (*debt.Debt, error) {
	return s.mutate(ctx, "StartNegotiation", debtID, func(d *debt.Debt, today time.Time) (*debt.HistoryEntry, error) {
		return d.StartNegotiation(comment, today, actor)
	})
}

// CancelDebt cancels an open debt
func (s *Service) CancelDebt(ctx context.Context, actor debt.Actor, debtID uuid.UUID, comment string) (*debt.Debt, error) {
	return s.mutate(ctx, "CancelDebt", debtID, func(d *debt.Debt, today time.Time) (*debt.HistoryEntry, error) {
		return d.Cancel(comment, today, actor)
	})
}

// ReactivateDebt returns a CANCELLED or IN_NEGOTIATION debt to ACTIVE
func (s *Service) ReactivateDebt(ctx context.Context, actor debt.Actor, debtID uuid.UUID, comment string) (*debt.Debt, error) {
	return s.mutate(ctx, "ReactivateDebt", debtID, func(d *debt.Debt, today time.Time) (*debt.HistoryEntry, error) {
		return d.Reactivate(comment, today, actor)
	})
}

// GetDebt returns a debt of the actor's company
func (s *Service) GetDebt(ctx context.Context, actor debt.Actor, debtID uuid.UUID) (*debt.Debt, error) {
	d, err := s.debts.FindByID(ctx, debtID)
	if err != nil {
		return nil, err
	}
	if err := debt.RequireMembership(actor, d.CompanyID); err != nil {
		return nil, err
	}
	return d, nil
}

// History returns a debt's history entries, newest first
func (s *Service) History(ctx context.Context, actor debt.Actor, debtID uuid.UUID) ([]debt.HistoryEntry, error) {
	if _, err := s.GetDebt(ctx, actor, debtID); err != nil {
		return nil, err
	}
	entries, err := s.debts.FindHistory(ctx, debtID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

func (s *Service) mutate(ctx context.Context, op string, debtID uuid.UUID, apply func(*debt.Debt, time.Time) (*debt.HistoryEntry, error)) (*debt.Debt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, op)
	defer span.End()
	telemetry.SetAttributes(span, "debt.id", debtID)

	d, err := s.debts.FindByID(ctx, debtID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	entry, err := apply(d, s.Today())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.debts.SaveWithLock(ctx, d, entry); err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, debt.ErrConcurrentUpdate) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save debt: %w", err)
	}

	s.publish(ctx, d)
	logger.L(ctx).Info("debt updated",
		zap.String("operation", op),
		zap.String("debt_id", d.ID.String()),
		zap.String("action", string(entry.Action)),
		zap.String("status", string(d.Status)),
	)
	return d, nil
}

// companyFor resolves the target company: the explicit one when given, the
// actor's company otherwise. Membership is checked by the domain.
func (s *Service) companyFor(ctx context.Context, actor debt.Actor, explicit *uuid.UUID) (*debt.Company, error) {
	var companyID uuid.UUID
	switch {
	case explicit != nil:
		companyID = *explicit
	default:
		id, ok := debt.CompanyOf(actor)
		if !ok {
			return nil, debt.ErrMembershipNeeded
		}
		companyID = id
	}
	return s.companies.FindByID(ctx, companyID)
}

// publish delivers the aggregate's pending events after commit
func (s *Service) publish(ctx context.Context, d *debt.Debt) {
	events := d.GetDomainEvents()
	d.ClearDomainEvents()
	if len(events) == 0 || s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Error("failed to publish debt events", zap.String("debt_id", d.ID.String()), zap.Error(err))
	}
}

func idempotencyKey(actor debt.Actor, key string) string {
	return "payment:" + actor.UserID().String() + ":" + key
}
