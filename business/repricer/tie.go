package repricer

import "marketRepricer/domain"

// TieInfo describes whether the top two eligible offers are priced
// identically, and whether the tie sits entirely among excluded/own
// vendors.
type TieInfo struct {
	Tied bool
	// ResolvedByExclusion is true when both tied vendors are already
	// excluded (or the evaluating vendor itself), so the exclusion list
	// settles the tie on its own.
	ResolvedByExclusion bool
}

// DetectTie inspects the head of the sorted eligible list. When the tie is
// NOT entirely among excluded/own vendors, the caller must clear the
// exclusion set for the remainder of this decision so genuine competitors
// break the tie fairly; that clearing affects every downstream
// next-competitor lookup, which is the documented historical behavior.
func DetectTie(sorted []domain.Offer, minQty int, mode ComparisonMode, st domain.ProductSettings, ownVendorID string, ignoreTie bool) TieInfo {
	if ignoreTie || len(sorted) < 2 {
		return TieInfo{}
	}

	first, ok1 := EffectivePrice(sorted[0], minQty, mode)
	second, ok2 := EffectivePrice(sorted[1], minQty, mode)
	if !ok1 || !ok2 || !first.Equal(second) {
		return TieInfo{}
	}

	excludedOrOwn := func(vendorID string) bool {
		return vendorID == ownVendorID || st.IsExcluded(vendorID)
	}

	return TieInfo{
		Tied:                true,
		ResolvedByExclusion: excludedOrOwn(sorted[0].VendorID) && excludedOrOwn(sorted[1].VendorID),
	}
}
