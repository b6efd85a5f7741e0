package repricer

import (
	"github.com/shopspring/decimal"
)

// Config tunes the decision engine. Per-product business rules live in
// domain.ProductSettings; Config carries the knobs that are global to a
// deployment.
type Config struct {
	// Mode selects unit-only or shipping-aware comparison.
	Mode ComparisonMode
	// IgnoreTie disables tie detection entirely.
	IgnoreTie bool
	// ForceBadgeAdjust runs the badge adjuster even when the settings
	// badge indicator is not ALL_PERCENTAGE.
	ForceBadgeAdjust bool
	// DefaultOffset is used when settings carry no price offset.
	DefaultOffset decimal.Decimal
	// Workers bounds concurrent per-product decisions in a batch run.
	Workers int
}

const (
	defaultOffsetCents = 1
	defaultWorkers     = 8
)

func DefaultConfig() Config {
	return Config{
		Mode:          ModeUnitOnly,
		DefaultOffset: decimal.New(defaultOffsetCents, -2),
		Workers:       defaultWorkers,
	}
}

// offsetFor resolves the repricing offset for one product.
func (c Config) offsetFor(priceOffset decimal.Decimal) decimal.Decimal {
	if priceOffset.IsPositive() {
		return priceOffset
	}
	return c.DefaultOffset
}
