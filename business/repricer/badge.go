package repricer

import (
	"github.com/shopspring/decimal"

	"marketRepricer/domain"
)

// applyBadgeAdjustment optionally overrides a numeric decision so the
// vendor undercuts the cheapest badge holder by the configured
// percentage. Runs only when badge-percentage repricing is switched on
// and the decision already produced a price.
func (e *Engine) applyBadgeAdjustment(dec *domain.RepriceDecision, eligible []domain.Offer, minQty int, st domain.ProductSettings, own domain.Offer) {
	if !e.cfg.ForceBadgeAdjust && st.BadgeIndicator != domain.BadgeIndicatorAllPercentage {
		return
	}
	if !st.BadgePercentage.IsPositive() || !dec.NewPrice.Valid {
		return
	}

	holder, holderPrice, found := lowestBadgedOffer(eligible, minQty, own.VendorID, e.cfg.Mode)
	if !found {
		return
	}

	hundred := decimal.NewFromInt(100)
	allowed := holderPrice.Mul(hundred.Sub(st.BadgePercentage)).Div(hundred)
	if e.cfg.Mode == ModeShippingAware {
		// The holder's price was shipping-inclusive; bring the target back
		// to a unit price for our own listing.
		if own.FreeShippingThreshold == nil || allowed.LessThan(*own.FreeShippingThreshold) {
			allowed = allowed.Sub(own.StandardShipping)
		}
	}

	if dec.NewPrice.Amount.LessThan(allowed) {
		return
	}

	switch {
	case allowed.GreaterThanOrEqual(st.FloorPrice):
		dec.NewPrice = domain.SomePrice(allowed)
		dec.IsRepriced = true
		dec.TriggeredByVendor = holder.VendorName
		dec.Explained += " " + domain.CodePriceChangeBadgePct
	case e.cfg.Mode == ModeShippingAware:
		dec.Revert()
		dec.Explained += " " + domain.CodeIgnoredFloorReached
	default:
		dec.Explained += domain.TagPriceTooLow
	}
}

// lowestBadgedOffer finds the cheapest badge-holding competitor at
// minQty, excluding the evaluating vendor.
func lowestBadgedOffer(eligible []domain.Offer, minQty int, ownVendorID string, mode ComparisonMode) (domain.Offer, decimal.Decimal, bool) {
	var (
		best      domain.Offer
		bestPrice decimal.Decimal
		found     bool
	)
	for _, o := range eligible {
		if o.VendorID == ownVendorID || !o.HasBadge() {
			continue
		}
		price, ok := EffectivePrice(o, minQty, mode)
		if !ok {
			continue
		}
		if !found || price.LessThan(bestPrice) {
			best, bestPrice, found = o, price, true
		}
	}
	return best, bestPrice, found
}
