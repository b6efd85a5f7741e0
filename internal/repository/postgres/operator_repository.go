package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"marketRepricer/domain"
)

type OperatorRepository struct {
	DB *gorm.DB
}

func NewOperatorRepository(db *gorm.DB) *OperatorRepository {
	return &OperatorRepository{DB: db}
}

func (r *OperatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	if err := r.DB.WithContext(ctx).Create(operator).Error; err != nil {
		return err
	}

	return nil
}

func (r *OperatorRepository) FindByID(ctx context.Context, id uint) (domain.Operator, error) {
	var operator domain.Operator

	err := r.DB.WithContext(ctx).First(&operator, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Operator{}, errors.New("operator not found")
		}
		return domain.Operator{}, err
	}

	return operator, nil
}

func (r *OperatorRepository) FindByEmail(ctx context.Context, email string) (domain.Operator, error) {
	var operator domain.Operator

	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&operator).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Operator{}, errors.New("operator not found")
		}
		return domain.Operator{}, err
	}

	return operator, nil
}
