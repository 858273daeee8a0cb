package persistence

import (
	"context"
	"strings"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements debt.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*debt.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, debt.ErrClientNotFound, nil)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given clients; unknown ids are skipped
func (r *GormClientRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]debt.Client, error) {
	if len(ids) == 0 {
		return []debt.Client{}, nil
	}
	var rows []models.ClientModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toClients(rows), nil
}

// FindByDocumentID finds a client by its stored document id
func (r *GormClientRepository) FindByDocumentID(ctx context.Context, documentID string) (*debt.Client, error) {
	var rows []models.ClientModel
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// SearchByDocument runs a classified document query over all clients
func (r *GormClientRepository) SearchByDocument(ctx context.Context, q debt.DocumentQuery) ([]debt.Client, error) {
	terms := q.Terms()
	if len(terms) == 0 {
		return []debt.Client{}, nil
	}

	query := r.db.WithContext(ctx).Model(&models.ClientModel{})
	switch q.Match {
	case debt.DocumentMatchExact:
		query = query.Where("document_id IN ?", terms)
	case debt.DocumentMatchPartial:
		cond := r.db.Where("document_id LIKE ? ESCAPE '\\'", likeContains(terms[0]))
		for _, term := range terms[1:] {
			cond = cond.Or("document_id LIKE ? ESCAPE '\\'", likeContains(term))
		}
		query = query.Where(cond)
	}

	var rows []models.ClientModel
	if err := query.Order("full_name, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toClients(rows), nil
}

// FindWithOpenDebtsIn lists clients with an open debt at companyID
func (r *GormClientRepository) FindWithOpenDebtsIn(ctx context.Context, companyID uuid.UUID) ([]debt.Client, error) {
	open := r.db.Model(&models.DebtModel{}).
		Select("client_id").
		Where("company_id = ? AND status IN ?", companyID, debt.OpenStatuses)

	var rows []models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", open).
		Order("full_name, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toClients(rows), nil
}

func likeContains(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

func toClients(rows []models.ClientModel) []debt.Client {
	out := make([]debt.Client, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
