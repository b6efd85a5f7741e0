package repricer

import (
	"strings"

	"github.com/shopspring/decimal"

	"marketRepricer/domain"
)

// PriceFactor names the strategy that produced a context price.
type PriceFactor string

const (
	FactorOffset      PriceFactor = "OFFSET"
	FactorPercentage  PriceFactor = "PERCENTAGE"
	FactorFloorOffset PriceFactor = "FLOOR_OFFSET"
)

// ContextPrice is a target price derived from a reference competitor
// price, together with the strategy that produced it.
type ContextPrice struct {
	Price  decimal.Decimal
	Factor PriceFactor
}

// CalcContextPrice derives the target price from a reference price.
//
// The percentage strategy only applies to the one-unit break and only when
// percentageDown parses to a non-zero fraction; anything else, including a
// malformed feed value, is recovered by the offset strategy rather than
// surfaced as an error.
func CalcContextPrice(referencePrice, offset, floorPrice decimal.Decimal, percentageDown string, minQty int, heavyShippingPrice decimal.Decimal) ContextPrice {
	offsetPrice := ContextPrice{
		Price:  referencePrice.Sub(offset).Sub(heavyShippingPrice),
		Factor: FactorOffset,
	}

	if minQty != 1 {
		return offsetPrice
	}

	pd, err := decimal.NewFromString(strings.TrimSpace(percentageDown))
	if err != nil || pd.IsZero() {
		return offsetPrice
	}

	percentagePrice := referencePrice.Mul(decimal.NewFromInt(1).Sub(pd))
	if percentagePrice.LessThanOrEqual(floorPrice) {
		return ContextPrice{Price: floorPrice, Factor: FactorFloorOffset}
	}
	return ContextPrice{Price: percentagePrice, Factor: FactorPercentage}
}

// AppendPriceFactorTag appends the human-readable audit tag for the
// strategy that produced the price. No-op for the offset strategy.
func AppendPriceFactorTag(explained string, factor PriceFactor) string {
	switch factor {
	case FactorPercentage:
		return explained + domain.TagPercentDown
	case FactorFloorOffset:
		return explained + domain.TagFloorMoved
	}
	return explained
}
