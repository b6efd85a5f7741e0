package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PriceBreak is one (minQty, unitPrice) tier of an offer. A buyer ordering
// at least MinQty units pays UnitPrice per unit.
type PriceBreak struct {
	MinQty     int             `json:"min_qty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Active     bool            `json:"active"`
	PromoDescr string          `json:"promo_descr,omitempty"`
}

// Offer is one vendor's current listing for a product, immutable for the
// duration of a single decision run.
type Offer struct {
	VendorID              string           `json:"vendor_id"`
	VendorName            string           `json:"vendor_name"`
	PriceBreaks           []PriceBreak     `json:"price_breaks"`
	StandardShipping      decimal.Decimal  `json:"standard_shipping"`
	FreeShippingThreshold *decimal.Decimal `json:"free_shipping_threshold,omitempty"`
	BadgeID               int              `json:"badge_id,omitempty"`
	BadgeName             string           `json:"badge_name,omitempty"`
	Inventory             *int             `json:"inventory,omitempty"`
	InStock               bool             `json:"in_stock"`
	HandlingDays          *int             `json:"handling_days,omitempty"`
}

// HasBadge reports whether the marketplace assigned this offer a merit badge.
func (o Offer) HasBadge() bool {
	return o.BadgeID > 0 && o.BadgeName != ""
}

// BreakAt returns the first active price break at exactly minQty.
func (o Offer) BreakAt(minQty int) (PriceBreak, bool) {
	for _, pb := range o.PriceBreaks {
		if pb.Active && pb.MinQty == minQty {
			return pb, true
		}
	}
	return PriceBreak{}, false
}

// ClonePriceBreaks returns a copy of the offer with its own price-break
// slice, so filtering stages never mutate the caller's snapshot.
func (o Offer) ClonePriceBreaks() Offer {
	out := o
	out.PriceBreaks = make([]PriceBreak, len(o.PriceBreaks))
	copy(out.PriceBreaks, o.PriceBreaks)
	return out
}

// OfferSnapshot is the persisted form of a scraped competitor offer.
// Price breaks are stored as jsonb.
type OfferSnapshot struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	ProductID             string          `gorm:"column:product_id;uniqueIndex:idx_offer_product_vendor;not null" json:"product_id"`
	VendorID              string          `gorm:"column:vendor_id;uniqueIndex:idx_offer_product_vendor;not null" json:"vendor_id"`
	VendorName            string          `gorm:"column:vendor_name;type:text" json:"vendor_name"`
	PriceBreaksRaw        datatypes.JSON  `gorm:"column:price_breaks;type:jsonb" json:"price_breaks"`
	StandardShipping      decimal.Decimal `gorm:"column:standard_shipping;type:numeric" json:"standard_shipping"`
	FreeShippingThreshold *decimal.Decimal `gorm:"column:free_shipping_threshold;type:numeric" json:"free_shipping_threshold,omitempty"`
	BadgeID               int             `gorm:"column:badge_id" json:"badge_id"`
	BadgeName             string          `gorm:"column:badge_name;type:text" json:"badge_name"`
	Inventory             *int            `gorm:"column:inventory" json:"inventory,omitempty"`
	InStock               bool            `gorm:"column:in_stock" json:"in_stock"`
	HandlingDays          *int            `gorm:"column:handling_days" json:"handling_days,omitempty"`
	CapturedAt            time.Time       `gorm:"column:captured_at;autoCreateTime" json:"captured_at"`
}

func (OfferSnapshot) TableName() string {
	return "offer_snapshots"
}

// ToOffer decodes the snapshot row into the value type the engine consumes.
func (s OfferSnapshot) ToOffer() (Offer, error) {
	var breaks []PriceBreak
	if len(s.PriceBreaksRaw) > 0 {
		if err := json.Unmarshal(s.PriceBreaksRaw, &breaks); err != nil {
			return Offer{}, err
		}
	}

	return Offer{
		VendorID:              s.VendorID,
		VendorName:            s.VendorName,
		PriceBreaks:           breaks,
		StandardShipping:      s.StandardShipping,
		FreeShippingThreshold: s.FreeShippingThreshold,
		BadgeID:               s.BadgeID,
		BadgeName:             s.BadgeName,
		Inventory:             s.Inventory,
		InStock:               s.InStock,
		HandlingDays:          s.HandlingDays,
	}, nil
}
