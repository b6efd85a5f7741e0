package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketRepricer/business/repricer"
	"marketRepricer/domain"
)

type SettingsRepository struct {
	DB *gorm.DB
}

var _ repricer.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

func (r *SettingsRepository) GetSettings(ctx context.Context, productID, vendorID string) (domain.ProductSettings, bool, error) {
	var st domain.ProductSettings

	err := r.DB.WithContext(ctx).
		Where("product_id = ? AND vendor_id = ?", productID, vendorID).
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ProductSettings{}, false, nil
	}
	if err != nil {
		return domain.ProductSettings{}, false, err
	}

	return st, true, nil
}

// GetDefault returns the vendor's global default row, stored with an empty
// product id.
func (r *SettingsRepository) GetDefault(ctx context.Context, vendorID string) (domain.ProductSettings, bool, error) {
	var st domain.ProductSettings

	err := r.DB.WithContext(ctx).
		Where("product_id = '' AND vendor_id = ?", vendorID).
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ProductSettings{}, false, nil
	}
	if err != nil {
		return domain.ProductSettings{}, false, err
	}

	return st, true, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, settings *domain.ProductSettings) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "vendor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"floor_price",
				"max_price",
				"price_offset",
				"percentage_down",
				"badge_percentage",
				"badge_indicator",
				"excluded_vendor_ids",
				"sister_vendor_ids",
				"buybox_vendor_ids",
				"compete_all",
				"compete_with_next",
				"repricing_rule",
				"ignore_phantom_qbreak",
				"inventory_threshold",
				"include_inactive_vendors",
				"handling_time_filter",
				"keep_position",
				"min_increase_percent",
				"beat_q_threshold",
				"suppress_qbreak_override",
				"abort_q_deactivation",
				"updated_at",
			}),
		}).
		Create(settings).Error
}
