package repricer

import (
	"sort"

	"github.com/shopspring/decimal"

	"marketRepricer/domain"
)

// ComparisonMode selects how two offers are compared.
type ComparisonMode int

const (
	// ModeUnitOnly compares bare unit prices.
	ModeUnitOnly ComparisonMode = iota
	// ModeShippingAware compares shipping-inclusive prices.
	ModeShippingAware
)

// EffectivePrice returns the all-in price of an offer at minQty. In
// shipping-aware mode the standard shipping charge is added unless the
// unit price clears the offer's free-shipping threshold; a missing
// threshold never grants free shipping. The second return is false when
// the offer has no active break at minQty.
func EffectivePrice(o domain.Offer, minQty int, mode ComparisonMode) (decimal.Decimal, bool) {
	pb, ok := o.BreakAt(minQty)
	if !ok {
		return decimal.Decimal{}, false
	}

	price := pb.UnitPrice
	if mode == ModeShippingAware {
		if o.FreeShippingThreshold == nil || price.LessThan(*o.FreeShippingThreshold) {
			price = price.Add(o.StandardShipping)
		}
	}

	return price, true
}

// sortByEffectivePrice orders offers ascending by effective price at
// minQty. The sort is stable so equal-priced offers keep their input
// order; the tie detector handles the rest.
func sortByEffectivePrice(offers []domain.Offer, minQty int, mode ComparisonMode) {
	sort.SliceStable(offers, func(i, j int) bool {
		pi, _ := EffectivePrice(offers[i], minQty, mode)
		pj, _ := EffectivePrice(offers[j], minQty, mode)
		return pi.LessThan(pj)
	})
}
