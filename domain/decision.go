package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Explanation codes carried on RepriceDecision.Explained. These values are
// persisted and shown to operators; treat them as a stable wire format.
const (
	CodeNoCompetitor             = "NO_COMPETITOR"
	CodeNoCompetitorSisterVendor = "NO_COMPETITOR_SISTER_VENDOR"
	CodePriceUpNext              = "PRICE_UP_NEXT"
	CodeRepriceDefault           = "REPRICE_DEFAULT"
	CodePriceMaxed               = "PRICE_MAXED"
	CodePriceMaxedManual         = "PRICE_MAXED_MANUAL"
	CodeIgnoreOwn                = "IGNORE_OWN"
	CodeIgnoreAlreadyMaxed       = "IGNORE_ALREADY_MAXED"
	CodeIgnoredFloorReached      = "IGNORED_FLOOR_REACHED"
	CodeShutDownFloorReached     = "SHUT_DOWN_FLOOR_REACHED"
	CodePriceChangeBadgePct      = "PRICE_CHANGE_BADGE_PERCENTAGE"
	CodeIgnoredOneQtySetting     = "IGNORED_ONE_QTY_SETTING"
	CodeIgnoredAbortDeactivation = "IGNORED_ABORT_Q_DEACTIVATION"
)

// Audit tags appended to Explained by the engine and the rule chain.
const (
	TagTie                 = " #TIE"
	TagPercentDown         = " #%Down"
	TagFloorMoved          = " #Floor-MovedFrom%to$"
	TagSisterSamePrice     = " #SISTERSAMEPRICE"
	TagSamePriceSuggested  = "_IGNORED_#SAMEPRICESUGGESTED"
	TagInExpressCron       = " #INEXPRESSCRON"
	TagPriceTooLow         = " Can't match the price. #PriceTooLow"
	TagBuyBox              = " #BUYBOX"
	TagFloorCheck          = " #FLOORCHECK"
	TagKeepPosition        = " #KEEPPOSITION"
	TagBeatQ               = " #BEATQ"
	TagMinPercent          = " #MINPERCENT"
)

// PriceValue is a price that may be absent. On the wire an absent price is
// the literal string "N/A"; a present one is a 2-decimal fixed string.
type PriceValue struct {
	Valid  bool
	Amount decimal.Decimal
}

// SomePrice wraps a concrete amount.
func SomePrice(amount decimal.Decimal) PriceValue {
	return PriceValue{Valid: true, Amount: amount}
}

// NoPrice is the "N/A" value.
func NoPrice() PriceValue {
	return PriceValue{}
}

func (p PriceValue) String() string {
	if !p.Valid {
		return "N/A"
	}
	return p.Amount.StringFixed(2)
}

// Equal compares two price values; two absent prices are equal.
func (p PriceValue) Equal(other PriceValue) bool {
	if p.Valid != other.Valid {
		return false
	}
	if !p.Valid {
		return true
	}
	return p.Amount.Equal(other.Amount)
}

func (p PriceValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *PriceValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" || s == "N/A" {
		*p = PriceValue{}
		return nil
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*p = PriceValue{Valid: true, Amount: amount}
	return nil
}

// RepriceDecision is the engine output for one quantity break. Created
// fresh per invocation; the badge adjuster and rule chain produce modified
// copies, never shared state.
//
// Invariants: !NewPrice.Valid implies !IsRepriced; a valid NewPrice is
// never below the configured floor once rule post-processing completes.
type RepriceDecision struct {
	MinQty            int             `json:"min_qty"`
	OldPrice          decimal.Decimal `json:"old_price"`
	NewPrice          PriceValue      `json:"new_price"`
	GoToPrice         PriceValue      `json:"go_to_price,omitempty"`
	IsRepriced        bool            `json:"is_repriced"`
	Active            bool            `json:"active"`
	Explained         string          `json:"explained"`
	LowestVendor      string          `json:"lowest_vendor,omitempty"`
	LowestVendorID    string          `json:"lowest_vendor_id,omitempty"`
	LowestVendorPrice PriceValue      `json:"lowest_vendor_price,omitempty"`
	TriggeredByVendor string          `json:"triggered_by_vendor,omitempty"`
}

// Revert nulls the suggested price, stashing it in GoToPrice for audit.
func (d *RepriceDecision) Revert() {
	if d.NewPrice.Valid {
		d.GoToPrice = d.NewPrice
	}
	d.NewPrice = NoPrice()
	d.IsRepriced = false
}

// RepriceDecisionRecord is the persisted form of one decision, keyed by
// the run that produced it.
type RepriceDecisionRecord struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	JobID             string            `gorm:"column:job_id;index:idx_decision_job;not null" json:"job_id"`
	ProductID         string            `gorm:"column:product_id;not null" json:"product_id"`
	VendorID          string            `gorm:"column:vendor_id;not null" json:"vendor_id"`
	MinQty            int               `gorm:"column:min_qty" json:"min_qty"`
	OldPrice          decimal.Decimal   `gorm:"column:old_price;type:numeric" json:"old_price"`
	NewPrice          string            `gorm:"column:new_price;type:text" json:"new_price"`
	GoToPrice         string            `gorm:"column:go_to_price;type:text" json:"go_to_price"`
	IsRepriced        bool              `gorm:"column:is_repriced" json:"is_repriced"`
	Active            bool              `gorm:"column:active" json:"active"`
	Explained         string            `gorm:"column:explained;type:text" json:"explained"`
	LowestVendor      string            `gorm:"column:lowest_vendor;type:text" json:"lowest_vendor"`
	LowestVendorPrice string            `gorm:"column:lowest_vendor_price;type:text" json:"lowest_vendor_price"`
	TriggeredByVendor string            `gorm:"column:triggered_by_vendor;type:text" json:"triggered_by_vendor"`
	Context           datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (RepriceDecisionRecord) TableName() string {
	return "reprice_decisions"
}
