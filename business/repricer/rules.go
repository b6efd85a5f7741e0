package repricer

import (
	"sort"

	"github.com/shopspring/decimal"

	"marketRepricer/domain"
)

// Rule is one post-processing transform over a product's decisions. Rules
// are pure: they work on a copy of the slice and return it, so the caller
// composes them in any order without hidden coupling.
type Rule func([]domain.RepriceDecision) []domain.RepriceDecision

// Chain composes rules left to right.
func Chain(rules ...Rule) Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		out := cloneDecisions(decs)
		for _, r := range rules {
			out = r(out)
		}
		return out
	}
}

func cloneDecisions(decs []domain.RepriceDecision) []domain.RepriceDecision {
	out := make([]domain.RepriceDecision, len(decs))
	copy(out, decs)
	return out
}

// resultingPrice is the price a break ends up at if the decision stands.
func resultingPrice(d domain.RepriceDecision) decimal.Decimal {
	if d.NewPrice.Valid {
		return d.NewPrice.Amount
	}
	return d.OldPrice
}

// DirectionRule enforces the configured price-movement direction. A
// blocked move is reverted to "N/A" with the would-be price kept in
// GoToPrice. A zero old price is exempt from the only-up guard, since it
// marks a break that has never been priced.
func DirectionRule(rule domain.RepricingRule) Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		if rule != domain.RepricingRuleOnlyUp && rule != domain.RepricingRuleOnlyDown {
			return decs
		}
		out := cloneDecisions(decs)
		for i := range out {
			d := &out[i]
			if !d.NewPrice.Valid {
				continue
			}
			down := d.NewPrice.Amount.LessThan(d.OldPrice)
			up := d.NewPrice.Amount.GreaterThan(d.OldPrice)
			if rule == domain.RepricingRuleOnlyUp && down && !d.OldPrice.IsZero() {
				d.Revert()
			}
			if rule == domain.RepricingRuleOnlyDown && up {
				d.Revert()
			}
		}
		return out
	}
}

// MultiBreakConsistencyRule discards quantity breaks whose resulting
// price is not strictly lower than the next-smaller break's price. Such
// breaks are economically invalid. The one-unit break is always retained.
func MultiBreakConsistencyRule() Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		out := cloneDecisions(decs)
		sort.SliceStable(out, func(i, j int) bool { return out[i].MinQty < out[j].MinQty })

		kept := make([]domain.RepriceDecision, 0, len(out))
		for _, d := range out {
			if d.MinQty == 1 || len(kept) == 0 {
				kept = append(kept, d)
				continue
			}
			prev := kept[len(kept)-1]
			if resultingPrice(d).LessThan(resultingPrice(prev)) {
				kept = append(kept, d)
			}
		}
		return kept
	}
}

// SuppressPriceBreakRule nulls changes to higher quantity breaks while
// the one-unit break stands still, unless the override is enabled. With
// the override on, breaks that have never been priced are dropped.
func SuppressPriceBreakRule(overrideEnabled bool) Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		out := cloneDecisions(decs)

		oneQtyChanged := false
		for _, d := range out {
			if d.MinQty == 1 && d.IsRepriced {
				oneQtyChanged = true
			}
		}

		if !overrideEnabled && !oneQtyChanged {
			for i := range out {
				d := &out[i]
				if d.MinQty > 1 && d.NewPrice.Valid {
					d.Revert()
					d.Explained += " " + domain.CodeIgnoredOneQtySetting
				}
			}
			return out
		}

		if overrideEnabled {
			kept := out[:0]
			for _, d := range out {
				if d.MinQty > 1 && d.OldPrice.IsZero() {
					continue
				}
				kept = append(kept, d)
			}
			return kept
		}
		return out
	}
}

// BeatQPriceRule nulls an increase on the one-unit break that does not
// beat the configured absolute threshold.
func BeatQPriceRule(threshold decimal.Decimal) Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		if !threshold.IsPositive() {
			return decs
		}
		out := cloneDecisions(decs)
		for i := range out {
			d := &out[i]
			if d.MinQty != 1 || !d.NewPrice.Valid {
				continue
			}
			increase := d.NewPrice.Amount.Sub(d.OldPrice)
			if increase.IsPositive() && increase.LessThan(threshold) {
				d.Revert()
				d.Explained += domain.TagBeatQ
			}
		}
		return out
	}
}

// MinPercentIncreaseRule nulls any increase below the configured minimum
// percentage of the old price.
func MinPercentIncreaseRule(minPercent decimal.Decimal) Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		if !minPercent.IsPositive() {
			return decs
		}
		hundred := decimal.NewFromInt(100)
		out := cloneDecisions(decs)
		for i := range out {
			d := &out[i]
			if !d.NewPrice.Valid || d.OldPrice.IsZero() {
				continue
			}
			increase := d.NewPrice.Amount.Sub(d.OldPrice)
			if !increase.IsPositive() {
				continue
			}
			pct := increase.Div(d.OldPrice).Mul(hundred)
			if pct.LessThan(minPercent) {
				d.Revert()
				d.Explained += domain.TagMinPercent
			}
		}
		return out
	}
}

// DeactivateQBreakRule aborts a zero-price suggestion, which would
// deactivate the break on the marketplace, when the setting forbids it.
// A simultaneous change to the one-unit break lifts the abort.
func DeactivateQBreakRule(abortDeactivation bool) Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		if !abortDeactivation {
			return decs
		}
		out := cloneDecisions(decs)

		oneQtyChanged := false
		for _, d := range out {
			if d.MinQty == 1 && d.IsRepriced {
				oneQtyChanged = true
			}
		}
		if oneQtyChanged {
			return out
		}

		for i := range out {
			d := &out[i]
			if d.NewPrice.Valid && d.NewPrice.Amount.IsZero() {
				d.Revert()
				d.Explained += " " + domain.CodeIgnoredAbortDeactivation
			}
		}
		return out
	}
}

// BuyBoxRule nulls a decrease triggered by a vendor holding a protected
// buy-box slot.
func BuyBoxRule(st domain.ProductSettings) Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		if len(st.BuyBoxVendorIDs) == 0 {
			return decs
		}
		out := cloneDecisions(decs)
		for i := range out {
			d := &out[i]
			if !d.NewPrice.Valid || !d.NewPrice.Amount.LessThan(d.OldPrice) {
				continue
			}
			if st.IsBuyBoxProtected(d.LowestVendorID) {
				d.Revert()
				d.Explained += domain.TagBuyBox
			}
		}
		return out
	}
}

// FloorCheckRule nulls a decrease that would land at or under the floor.
// The engine already respects the floor; this is the independent safety
// net that upholds the floor invariant whatever ran before it.
func FloorCheckRule(floor decimal.Decimal) Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		if !floor.IsPositive() {
			return decs
		}
		out := cloneDecisions(decs)
		for i := range out {
			d := &out[i]
			if !d.NewPrice.Valid || !d.NewPrice.Amount.LessThan(d.OldPrice) {
				continue
			}
			if d.NewPrice.Amount.LessThan(floor) {
				d.Revert()
				d.Explained += domain.TagFloorCheck
			}
		}
		return out
	}
}

// KeepPositionRule nulls a decrease that would not actually improve the
// vendor's rank against the recorded lowest offer.
func KeepPositionRule(enabled bool) Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		if !enabled {
			return decs
		}
		out := cloneDecisions(decs)
		for i := range out {
			d := &out[i]
			if !d.NewPrice.Valid || !d.NewPrice.Amount.LessThan(d.OldPrice) {
				continue
			}
			if d.LowestVendorPrice.Valid && d.NewPrice.Amount.GreaterThanOrEqual(d.LowestVendorPrice.Amount) {
				d.Revert()
				d.Explained += domain.TagKeepPosition
			}
		}
		return out
	}
}

// SisterComparisonRule tags a decision whose candidate price equals a
// sister vendor's price at the same quantity break. Informational only.
func SisterComparisonRule(sisterPrices map[int][]decimal.Decimal) Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		if len(sisterPrices) == 0 {
			return decs
		}
		out := cloneDecisions(decs)
		for i := range out {
			d := &out[i]
			if !d.NewPrice.Valid {
				continue
			}
			for _, p := range sisterPrices[d.MinQty] {
				if p.Equal(d.NewPrice.Amount) {
					d.Explained += domain.TagSisterSamePrice
					break
				}
			}
		}
		return out
	}
}

// AlignIsRepricedRule is the final consistency pass: a suggestion equal
// to the current price is no reprice at all.
func AlignIsRepricedRule() Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		out := cloneDecisions(decs)
		for i := range out {
			d := &out[i]
			if d.NewPrice.Valid && d.NewPrice.Amount.Equal(d.OldPrice) {
				d.IsRepriced = false
				d.Explained += domain.TagSamePriceSuggested
			}
		}
		return out
	}
}

// ExpressCronOverrideRule converts every decision into a dry-run no-op,
// preserving the would-be price for audit.
func ExpressCronOverrideRule() Rule {
	return func(decs []domain.RepriceDecision) []domain.RepriceDecision {
		out := cloneDecisions(decs)
		for i := range out {
			d := &out[i]
			d.Revert()
			d.Explained += domain.TagInExpressCron
		}
		return out
	}
}

// SisterPricesAt collects sister vendors' effective prices per quantity
// break, for SisterComparisonRule.
func SisterPricesAt(offers []domain.Offer, minQtys []int, st domain.ProductSettings, mode ComparisonMode) map[int][]decimal.Decimal {
	out := make(map[int][]decimal.Decimal)
	for _, o := range offers {
		if !st.IsSister(o.VendorID) {
			continue
		}
		for _, q := range minQtys {
			if price, ok := EffectivePrice(o, q, mode); ok {
				out[q] = append(out[q], price)
			}
		}
	}
	return out
}
