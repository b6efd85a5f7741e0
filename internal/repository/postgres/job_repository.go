package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"marketRepricer/business/repricer"
	"marketRepricer/domain"
)

type JobRepository struct {
	DB *gorm.DB
}

var _ repricer.JobRepository = (*JobRepository)(nil)

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{DB: db}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.RepriceJob) error {
	return r.DB.WithContext(ctx).Create(job).Error
}

func (r *JobRepository) Update(ctx context.Context, job *domain.RepriceJob) error {
	result := r.DB.WithContext(ctx).
		Model(&domain.RepriceJob{}).
		Where("id = ?", job.ID).
		Select("status", "products_total", "products_failed", "decisions_total", "prices_pushed", "finished_at").
		Updates(job)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("reprice job not found")
	}

	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id string) (domain.RepriceJob, error) {
	var job domain.RepriceJob

	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RepriceJob{}, errors.New("reprice job not found")
		}
		return domain.RepriceJob{}, err
	}

	return job, nil
}

func (r *JobRepository) FindRecent(ctx context.Context, limit int) ([]domain.RepriceJob, error) {
	var jobs []domain.RepriceJob

	err := r.DB.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	return jobs, nil
}
