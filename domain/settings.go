package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BadgeIndicator selects which offers compete based on marketplace badges.
type BadgeIndicator string

const (
	BadgeIndicatorNone          BadgeIndicator = "NONE"
	BadgeIndicatorBadgeOnly     BadgeIndicator = "BADGE_ONLY"
	BadgeIndicatorNonBadgeOnly  BadgeIndicator = "NON_BADGE_ONLY"
	BadgeIndicatorAllPercentage BadgeIndicator = "ALL_PERCENTAGE"
)

// RepricingRule restricts the allowed price movement direction.
type RepricingRule string

const (
	RepricingRuleOnlyUp   RepricingRule = "ONLY_UP"
	RepricingRuleOnlyDown RepricingRule = "ONLY_DOWN"
	RepricingRuleBoth     RepricingRule = "BOTH"
)

// HandlingTimeFilter buckets competitors by their handling days.
type HandlingTimeFilter string

const (
	HandlingTimeAny          HandlingTimeFilter = ""
	HandlingTimeFastShipping HandlingTimeFilter = "FAST_SHIPPING"
	HandlingTimeStocked      HandlingTimeFilter = "STOCKED"
	HandlingTimeLongHandling HandlingTimeFilter = "LONG_HANDLING"
)

// ProductSettings is the per (product, vendor) business-rule configuration.
// A row with ProductID == "" is the global default; product-specific rows
// override it. Read-only inside the engine.
//
// PercentageDown arrives from the upstream feed as raw text and may be
// malformed; the context price calculator falls back to the offset
// strategy when it does not parse.
type ProductSettings struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID string `gorm:"column:product_id;uniqueIndex:idx_settings_product_vendor" json:"product_id" validate:"omitempty"`
	VendorID  string `gorm:"column:vendor_id;uniqueIndex:idx_settings_product_vendor;not null" json:"vendor_id" validate:"required"`

	FloorPrice      decimal.Decimal `gorm:"column:floor_price;type:numeric" json:"floor_price"`
	MaxPrice        decimal.Decimal `gorm:"column:max_price;type:numeric" json:"max_price"`
	PriceOffset     decimal.Decimal `gorm:"column:price_offset;type:numeric" json:"price_offset"`
	PercentageDown  string          `gorm:"column:percentage_down;type:text" json:"percentage_down"`
	BadgePercentage decimal.Decimal `gorm:"column:badge_percentage;type:numeric" json:"badge_percentage"`
	BadgeIndicator  BadgeIndicator  `gorm:"column:badge_indicator;type:text;default:NONE" json:"badge_indicator" validate:"omitempty,oneof=NONE BADGE_ONLY NON_BADGE_ONLY ALL_PERCENTAGE"`

	ExcludedVendorIDs datatypes.JSONSlice[string] `gorm:"column:excluded_vendor_ids;type:jsonb" json:"excluded_vendor_ids"`
	SisterVendorIDs   datatypes.JSONSlice[string] `gorm:"column:sister_vendor_ids;type:jsonb" json:"sister_vendor_ids"`
	BuyBoxVendorIDs   datatypes.JSONSlice[string] `gorm:"column:buybox_vendor_ids;type:jsonb" json:"buybox_vendor_ids"`

	CompeteAll          bool          `gorm:"column:compete_all" json:"compete_all"`
	CompeteWithNext     bool          `gorm:"column:compete_with_next" json:"compete_with_next"`
	RepricingRule       RepricingRule `gorm:"column:repricing_rule;type:text;default:BOTH" json:"repricing_rule" validate:"omitempty,oneof=ONLY_UP ONLY_DOWN BOTH"`
	IgnorePhantomQBreak bool          `gorm:"column:ignore_phantom_qbreak" json:"ignore_phantom_qbreak"`

	InventoryThreshold     *int               `gorm:"column:inventory_threshold" json:"inventory_threshold,omitempty"`
	IncludeInactiveVendors bool               `gorm:"column:include_inactive_vendors" json:"include_inactive_vendors"`
	HandlingTimeFilter     HandlingTimeFilter `gorm:"column:handling_time_filter;type:text" json:"handling_time_filter" validate:"omitempty,oneof=FAST_SHIPPING STOCKED LONG_HANDLING"`

	KeepPosition           bool            `gorm:"column:keep_position" json:"keep_position"`
	MinIncreasePercent     decimal.Decimal `gorm:"column:min_increase_percent;type:numeric" json:"min_increase_percent"`
	BeatQThreshold         decimal.Decimal `gorm:"column:beat_q_threshold;type:numeric" json:"beat_q_threshold"`
	SuppressQBreakOverride bool            `gorm:"column:suppress_qbreak_override" json:"suppress_qbreak_override"`
	AbortQDeactivation     bool            `gorm:"column:abort_q_deactivation" json:"abort_q_deactivation"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ProductSettings) TableName() string {
	return "product_settings"
}

// IsExcluded reports whether vendorID is on the exclusion list. CompeteAll
// disables exclusion entirely.
func (s ProductSettings) IsExcluded(vendorID string) bool {
	if s.CompeteAll {
		return false
	}
	for _, id := range s.ExcludedVendorIDs {
		if id == vendorID {
			return true
		}
	}
	return false
}

// IsSister reports whether vendorID is grouped as commonly-owned with the
// evaluating vendor.
func (s ProductSettings) IsSister(vendorID string) bool {
	for _, id := range s.SisterVendorIDs {
		if id == vendorID {
			return true
		}
	}
	return false
}

// IsBuyBoxProtected reports whether vendorID holds a protected buy-box slot.
func (s ProductSettings) IsBuyBoxProtected(vendorID string) bool {
	for _, id := range s.BuyBoxVendorIDs {
		if id == vendorID {
			return true
		}
	}
	return false
}
