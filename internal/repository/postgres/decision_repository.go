package postgres

import (
	"context"

	"gorm.io/gorm"

	"marketRepricer/business/repricer"
	"marketRepricer/domain"
)

type DecisionRepository struct {
	DB *gorm.DB
}

var _ repricer.DecisionRepository = (*DecisionRepository)(nil)

func NewDecisionRepository(db *gorm.DB) *DecisionRepository {
	return &DecisionRepository{DB: db}
}

func (r *DecisionRepository) SaveBatch(ctx context.Context, records []domain.RepriceDecisionRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.DB.WithContext(ctx).Create(&records).Error
}

func (r *DecisionRepository) FindByJob(ctx context.Context, jobID string) ([]domain.RepriceDecisionRecord, error) {
	var records []domain.RepriceDecisionRecord

	err := r.DB.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("product_id, min_qty").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// FindLatestByProduct returns the most recent decisions for a product,
// newest first.
func (r *DecisionRepository) FindLatestByProduct(ctx context.Context, productID string, limit int) ([]domain.RepriceDecisionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []domain.RepriceDecisionRecord

	err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}
