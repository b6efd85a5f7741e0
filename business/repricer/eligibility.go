package repricer

import (
	"strings"

	"marketRepricer/domain"
)

// EligibleOffers reduces a raw offer list to the set eligible for
// comparison at minQty under the active settings. Every stage preserves
// the relative order of the offers it keeps; stages run only when their
// trigger condition holds. The returned offers own their price-break
// slices, so later stages never touch the caller's snapshot.
func EligibleOffers(offers []domain.Offer, minQty int, st domain.ProductSettings, ownVendorID string) []domain.Offer {
	out := filterExistence(offers, minQty)
	out = dropDuplicateBreaks(out, minQty)
	out = filterExcludedVendors(out, st, ownVendorID)
	out = filterInventory(out, st)
	out = filterHandlingTime(out, st, ownVendorID)
	out = filterBadge(out, st, ownVendorID)
	out = filterPhantomBreak(out, minQty, st)
	out = filterSisterVendors(out, st, ownVendorID)
	return out
}

// shortExpiryPromo matches promo descriptions for short-lived promotions
// that should not anchor a repricing decision.
func shortExpiryPromo(descr string) bool {
	up := strings.ToUpper(descr)
	return strings.Contains(up, "EXP") || strings.Contains(up, "SHORT")
}

// filterExistence keeps offers having an active break at exactly minQty.
// When an offer carries both a promotional and a non-promotional break at
// that quantity, the short-expiry promotional ones are dropped so the
// durable price wins.
func filterExistence(offers []domain.Offer, minQty int) []domain.Offer {
	out := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		countAtQty := 0
		hasDurable := false
		for _, pb := range o.PriceBreaks {
			if !pb.Active || pb.MinQty != minQty {
				continue
			}
			countAtQty++
			if !shortExpiryPromo(pb.PromoDescr) {
				hasDurable = true
			}
		}
		if countAtQty == 0 {
			continue
		}

		kept := o.ClonePriceBreaks()
		if hasDurable {
			breaks := make([]domain.PriceBreak, 0, len(kept.PriceBreaks))
			for _, pb := range kept.PriceBreaks {
				if pb.Active && pb.MinQty == minQty && shortExpiryPromo(pb.PromoDescr) {
					continue
				}
				breaks = append(breaks, pb)
			}
			kept.PriceBreaks = breaks
		}
		out = append(out, kept)
	}
	return out
}

// dropDuplicateBreaks keeps only the first active break per offer at
// minQty. Multiple breaks at one quantity are a feed anomaly. Offers here
// already own their break slices, so mutation is safe.
func dropDuplicateBreaks(offers []domain.Offer, minQty int) []domain.Offer {
	for i, o := range offers {
		seen := false
		breaks := make([]domain.PriceBreak, 0, len(o.PriceBreaks))
		for _, pb := range o.PriceBreaks {
			if pb.Active && pb.MinQty == minQty {
				if seen {
					continue
				}
				seen = true
			}
			breaks = append(breaks, pb)
		}
		offers[i].PriceBreaks = breaks
	}
	return offers
}

func filterExcludedVendors(offers []domain.Offer, st domain.ProductSettings, ownVendorID string) []domain.Offer {
	if st.CompeteAll || len(st.ExcludedVendorIDs) == 0 {
		return offers
	}
	out := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if o.VendorID != ownVendorID && st.IsExcluded(o.VendorID) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// filterInventory drops offers below the configured inventory threshold.
// Offers with an unknown inventory count pass, since the threshold can
// only be applied to a reported figure. Out-of-stock offers are dropped
// unless inactive vendors are explicitly included.
func filterInventory(offers []domain.Offer, st domain.ProductSettings) []domain.Offer {
	if st.InventoryThreshold == nil && st.IncludeInactiveVendors {
		return offers
	}
	out := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if st.InventoryThreshold != nil && o.Inventory != nil && *o.Inventory < *st.InventoryThreshold {
			continue
		}
		if !st.IncludeInactiveVendors && !o.InStock {
			continue
		}
		out = append(out, o)
	}
	return out
}

func handlingBucketKeeps(filter domain.HandlingTimeFilter, handlingDays *int) bool {
	if handlingDays == nil {
		return false
	}
	switch filter {
	case domain.HandlingTimeFastShipping:
		return *handlingDays <= 2
	case domain.HandlingTimeStocked:
		return *handlingDays <= 5
	case domain.HandlingTimeLongHandling:
		return *handlingDays >= 6
	}
	return true
}

// filterHandlingTime applies the handling-time bucket. The evaluating
// vendor's own offer is re-included if the bucket filtered it out, so
// self-comparison remains possible.
func filterHandlingTime(offers []domain.Offer, st domain.ProductSettings, ownVendorID string) []domain.Offer {
	if st.HandlingTimeFilter == domain.HandlingTimeAny {
		return offers
	}
	out := make([]domain.Offer, 0, len(offers))
	ownKept := false
	for _, o := range offers {
		if !handlingBucketKeeps(st.HandlingTimeFilter, o.HandlingDays) {
			continue
		}
		if o.VendorID == ownVendorID {
			ownKept = true
		}
		out = append(out, o)
	}
	return reincludeOwn(out, offers, ownKept, ownVendorID)
}

// filterBadge keeps badged offers (BADGE_ONLY) or their complement
// (NON_BADGE_ONLY), re-including the evaluating vendor either way.
func filterBadge(offers []domain.Offer, st domain.ProductSettings, ownVendorID string) []domain.Offer {
	if st.BadgeIndicator != domain.BadgeIndicatorBadgeOnly && st.BadgeIndicator != domain.BadgeIndicatorNonBadgeOnly {
		return offers
	}
	wantBadge := st.BadgeIndicator == domain.BadgeIndicatorBadgeOnly
	out := make([]domain.Offer, 0, len(offers))
	ownKept := false
	for _, o := range offers {
		if o.HasBadge() != wantBadge {
			continue
		}
		if o.VendorID == ownVendorID {
			ownKept = true
		}
		out = append(out, o)
	}
	return reincludeOwn(out, offers, ownKept, ownVendorID)
}

// reincludeOwn appends the evaluating vendor's offer from the stage input
// when the stage dropped it.
func reincludeOwn(kept, stageInput []domain.Offer, ownKept bool, ownVendorID string) []domain.Offer {
	if ownKept {
		return kept
	}
	for _, o := range stageInput {
		if o.VendorID == ownVendorID {
			return append(kept, o)
		}
	}
	return kept
}

// filterPhantomBreak drops offers that advertise a quantity break they
// cannot actually fill.
func filterPhantomBreak(offers []domain.Offer, minQty int, st domain.ProductSettings) []domain.Offer {
	if !st.IgnorePhantomQBreak || minQty == 1 {
		return offers
	}
	out := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if !o.InStock {
			continue
		}
		if o.Inventory == nil || *o.Inventory < minQty {
			continue
		}
		out = append(out, o)
	}
	return out
}

// filterSisterVendors suppresses commonly-owned vendors. Applies only
// when competing with the next vendor or when both directions are open.
func filterSisterVendors(offers []domain.Offer, st domain.ProductSettings, ownVendorID string) []domain.Offer {
	if !st.CompeteWithNext && st.RepricingRule != domain.RepricingRuleBoth {
		return offers
	}
	if len(st.SisterVendorIDs) == 0 {
		return offers
	}
	out := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if o.VendorID != ownVendorID && st.IsSister(o.VendorID) {
			continue
		}
		out = append(out, o)
	}
	return out
}
