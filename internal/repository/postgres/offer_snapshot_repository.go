package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketRepricer/business/repricer"
	"marketRepricer/domain"
)

type OfferSnapshotRepository struct {
	DB *gorm.DB
}

var _ repricer.OfferSnapshotRepository = (*OfferSnapshotRepository)(nil)

func NewOfferSnapshotRepository(db *gorm.DB) *OfferSnapshotRepository {
	return &OfferSnapshotRepository{DB: db}
}

// ListProductIDs returns every product the vendor currently has a snapshot
// for. These are the candidates of a batch run.
func (r *OfferSnapshotRepository) ListProductIDs(ctx context.Context, vendorID string) ([]string, error) {
	var productIDs []string

	err := r.DB.WithContext(ctx).
		Model(&domain.OfferSnapshot{}).
		Where("vendor_id = ?", vendorID).
		Distinct("product_id").
		Order("product_id").
		Pluck("product_id", &productIDs).Error
	if err != nil {
		return nil, err
	}

	return productIDs, nil
}

func (r *OfferSnapshotRepository) FindByProduct(ctx context.Context, productID string) ([]domain.Offer, error) {
	var rows []domain.OfferSnapshot

	err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	offers := make([]domain.Offer, 0, len(rows))
	for _, row := range rows {
		offer, err := row.ToOffer()
		if err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %d: %w", row.ID, err)
		}
		offers = append(offers, offer)
	}

	return offers, nil
}

// UpsertBatch replaces the stored snapshot per (product, vendor) with the
// latest scrape.
func (r *OfferSnapshotRepository) UpsertBatch(ctx context.Context, snapshots []domain.OfferSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "vendor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"vendor_name",
				"price_breaks",
				"standard_shipping",
				"free_shipping_threshold",
				"badge_id",
				"badge_name",
				"inventory",
				"in_stock",
				"handling_days",
				"captured_at",
			}),
		}).
		Create(&snapshots).Error
}
