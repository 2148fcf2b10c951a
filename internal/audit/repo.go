package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ooprato/ooprato-backend/internal/repo"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
)

// Repository persists audit rows. Rows are never updated or deleted.
type Repository struct {
	repo.Base
}

// NewRepository binds the audit repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Insert(ctx context.Context, row *models.AuditLog) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.DB(ctx).Create(row).Error
}

// ListBySubject returns the subject's audit trail, oldest first.
func (r *Repository) ListBySubject(ctx context.Context, tenantID uuid.UUID, subjectType string, subjectID uuid.UUID) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := r.DB(ctx).
		Where("tenant_id = ? AND subject_type = ? AND subject_id = ?", tenantID, subjectType, subjectID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
