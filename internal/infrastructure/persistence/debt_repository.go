package persistence

import (
	"context"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDebtRepository implements debt.DebtRepository using GORM
type GormDebtRepository struct {
	db *gorm.DB
}

// NewGormDebtRepository creates a new GormDebtRepository
func NewGormDebtRepository(db *gorm.DB) *GormDebtRepository {
	return &GormDebtRepository{db: db}
}

// FindByID finds a debt by its ID
func (r *GormDebtRepository) FindByID(ctx context.Context, id uuid.UUID) (*debt.Debt, error) {
	var model models.DebtModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, debt.ErrDebtNotFound, nil)
	}
	return model.ToDomain(), nil
}

// FindByClientIDs returns every debt of the given clients, latest due date first
func (r *GormDebtRepository) FindByClientIDs(ctx context.Context, clientIDs []uuid.UUID) ([]debt.Debt, error) {
	if len(clientIDs) == 0 {
		return []debt.Debt{}, nil
	}
	var rows []models.DebtModel
	if err := r.db.WithContext(ctx).
		Where("client_id IN ?", clientIDs).
		Order("due_date DESC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDebts(rows), nil
}

// FindByCompany returns every debt registered by a company
func (r *GormDebtRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]debt.Debt, error) {
	var rows []models.DebtModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("due_date DESC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDebts(rows), nil
}

// FindHistory returns the history of a debt, newest first
func (r *GormDebtRepository) FindHistory(ctx context.Context, debtID uuid.UUID) ([]debt.HistoryEntry, error) {
	var rows []models.DebtHistoryModel
	if err := r.db.WithContext(ctx).
		Where("debt_id = ?", debtID).
		Order("created_at DESC, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]debt.HistoryEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Create stores a new debt and its registration entry
func (r *GormDebtRepository) Create(ctx context.Context, d *debt.Debt, entry *debt.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertDebt(tx, d, entry)
	})
}

// CreateWithClient stores a new client together with its first debt
func (r *GormDebtRepository) CreateWithClient(ctx context.Context, c *debt.Client, d *debt.Debt, entry *debt.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.ClientModelFromDomain(c)).Error; err != nil {
			return translate(err, nil, debt.ErrDuplicateClient)
		}
		return insertDebt(tx, d, entry)
	})
}

// SaveWithLock applies a debt mutation guarded by its version
func (r *GormDebtRepository) SaveWithLock(ctx context.Context, d *debt.Debt, entry *debt.HistoryEntry) error {
	model := models.DebtModelFromDomain(d)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DebtModel{}).
			Where("id = ? AND version = ?", d.ID, d.Version-1).
			Updates(model.MutableColumns())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return debt.ErrConcurrentUpdate
		}
		if entry == nil {
			return nil
		}
		return tx.Create(models.DebtHistoryModelFromDomain(entry)).Error
	})
}

func insertDebt(tx *gorm.DB, d *debt.Debt, entry *debt.HistoryEntry) error {
	if err := tx.Create(models.DebtModelFromDomain(d)).Error; err != nil {
		return translate(err, nil, nil)
	}
	if entry == nil {
		return nil
	}
	return tx.Create(models.DebtHistoryModelFromDomain(entry)).Error
}

func toDebts(rows []models.DebtModel) []debt.Debt {
	out := make([]debt.Debt, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
