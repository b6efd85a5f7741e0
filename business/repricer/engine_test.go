package repricer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"marketRepricer/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func simpleOffer(vendorID, price string) domain.Offer {
	return domain.Offer{
		VendorID:   vendorID,
		VendorName: "Vendor " + vendorID,
		InStock:    true,
		PriceBreaks: []domain.PriceBreak{
			{MinQty: 1, UnitPrice: dec(price), Active: true},
		},
	}
}

func withBreak(o domain.Offer, minQty int, price string) domain.Offer {
	o.PriceBreaks = append(o.PriceBreaks, domain.PriceBreak{
		MinQty: minQty, UnitPrice: dec(price), Active: true,
	})
	return o
}

func TestDecideBreak_CompetitorLowest_RepriceDefault(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "10.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00")},
		Settings:    domain.ProductSettings{VendorID: "A", RepricingRule: domain.RepricingRuleBoth},
	}, 1)

	require.True(t, got.IsRepriced)
	require.True(t, got.NewPrice.Valid)
	require.True(t, got.NewPrice.Amount.Equal(dec("7.99")), "got %s", got.NewPrice)
	require.Equal(t, domain.CodeRepriceDefault, got.Explained)
	require.Equal(t, "Vendor B", got.LowestVendor)
	require.Equal(t, "Vendor B", got.TriggeredByVendor)
	require.True(t, got.Active)
}

func TestDecideBreak_OwnLowest_NoCap_PriceUpNext(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "5.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00")},
		Settings:    domain.ProductSettings{VendorID: "A"},
	}, 1)

	require.True(t, got.IsRepriced)
	require.True(t, got.NewPrice.Valid)
	require.True(t, got.NewPrice.Amount.Equal(dec("7.99")), "got %s", got.NewPrice)
	require.Equal(t, domain.CodePriceUpNext, got.Explained)
	require.Equal(t, "Vendor B", got.TriggeredByVendor)
}

func TestDecideBreak_OwnLowest_OffsetUnderFloor_IgnoreOwn(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "5.00"),
		Competitors: []domain.Offer{simpleOffer("B", "6.01")},
		Settings: domain.ProductSettings{
			VendorID:    "A",
			FloorPrice:  dec("6.00"),
			PriceOffset: dec("0.02"),
			MaxPrice:    dec("10.00"),
		},
	}, 1)

	require.False(t, got.IsRepriced)
	require.False(t, got.NewPrice.Valid)
	require.Equal(t, domain.CodeIgnoreOwn, got.Explained)
	require.True(t, got.GoToPrice.Valid)
	require.True(t, got.GoToPrice.Amount.Equal(dec("5.99")))
}

func TestDecideBreak_OwnLowest_CapSet_PriceUpNext(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "5.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00")},
		Settings: domain.ProductSettings{
			VendorID: "A",
			MaxPrice: dec("10.00"),
		},
	}, 1)

	require.True(t, got.IsRepriced)
	require.True(t, got.NewPrice.Amount.Equal(dec("7.99")))
	require.Equal(t, domain.CodePriceUpNext, got.Explained)
	require.Equal(t, "Vendor B", got.TriggeredByVendor)
}

func TestDecideBreak_OwnAlone_NoCap_NoCompetitor(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID: "P1",
		Own:       simpleOffer("A", "5.00"),
		Settings:  domain.ProductSettings{VendorID: "A"},
	}, 1)

	require.False(t, got.IsRepriced)
	require.Equal(t, domain.CodeNoCompetitor, got.Explained)
}

func TestDecideBreak_OwnAlone_CapSet_MovesToMax(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID: "P1",
		Own:       simpleOffer("A", "5.00"),
		Settings: domain.ProductSettings{
			VendorID: "A",
			MaxPrice: dec("10.00"),
		},
	}, 1)

	require.True(t, got.IsRepriced)
	require.True(t, got.NewPrice.Amount.Equal(dec("10.00")))
	require.Equal(t, domain.CodePriceMaxedManual, got.Explained)
}

func TestDecideBreak_OldPriceAboveCap_ForcedDown(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "12.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00")},
		Settings: domain.ProductSettings{
			VendorID: "A",
			MaxPrice: dec("9.00"),
		},
	}, 1)

	require.True(t, got.IsRepriced)
	require.True(t, got.NewPrice.Amount.Equal(dec("9.00")))
	require.Equal(t, domain.CodePriceMaxed, got.Explained)
}

func TestDecideBreak_PercentageDown(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "10.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00")},
		Settings: domain.ProductSettings{
			VendorID:       "A",
			FloorPrice:     dec("1.00"),
			PercentageDown: "0.05",
		},
	}, 1)

	require.True(t, got.IsRepriced)
	require.True(t, got.NewPrice.Amount.Equal(dec("7.60")), "got %s", got.NewPrice)
	require.Equal(t, domain.CodeRepriceDefault+domain.TagPercentDown, got.Explained)
}

func TestDecideBreak_PercentageClampedToFloor(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "10.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00")},
		Settings: domain.ProductSettings{
			VendorID:       "A",
			FloorPrice:     dec("7.80"),
			PercentageDown: "0.05",
		},
	}, 1)

	// 8.00 * 0.95 = 7.60 is under the floor, so the price lands exactly
	// on the floor instead of diverting to the undercut path.
	require.True(t, got.IsRepriced)
	require.True(t, got.NewPrice.Amount.Equal(dec("7.80")))
	require.Equal(t, domain.CodeRepriceDefault+domain.TagFloorMoved, got.Explained)
}

func TestDecideBreak_FloorUndercut_RetargetsNextCompetitor(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID: "P1",
		Own:       simpleOffer("A", "10.00"),
		Competitors: []domain.Offer{
			simpleOffer("B", "5.00"),
			simpleOffer("C", "8.00"),
		},
		Settings: domain.ProductSettings{
			VendorID:   "A",
			FloorPrice: dec("6.00"),
		},
	}, 1)

	require.True(t, got.IsRepriced)
	require.True(t, got.NewPrice.Amount.Equal(dec("7.99")), "got %s", got.NewPrice)
	require.Equal(t, domain.CodeRepriceDefault, got.Explained)
	require.Equal(t, "Vendor C", got.TriggeredByVendor)
	// the floor undercutter is still the recorded lowest offer
	require.Equal(t, "Vendor B", got.LowestVendor)
}

func TestDecideBreak_FloorUndercut_NoNext_Ignored(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "10.00"),
		Competitors: []domain.Offer{simpleOffer("B", "5.00")},
		Settings: domain.ProductSettings{
			VendorID:   "A",
			FloorPrice: dec("6.00"),
		},
	}, 1)

	require.False(t, got.IsRepriced)
	require.False(t, got.NewPrice.Valid)
	require.Equal(t, domain.CodeIgnoredFloorReached, got.Explained)
}

func TestDecideBreak_SisterLowest_StandsPat(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "10.00"),
		Competitors: []domain.Offer{simpleOffer("S", "8.00")},
		Settings: domain.ProductSettings{
			VendorID:        "A",
			RepricingRule:   domain.RepricingRuleOnlyUp,
			SisterVendorIDs: datatypes.NewJSONSlice([]string{"S"}),
		},
	}, 1)

	require.False(t, got.IsRepriced)
	require.Equal(t, domain.CodeNoCompetitorSisterVendor, got.Explained)
	require.True(t, got.GoToPrice.Valid)
	require.True(t, got.GoToPrice.Amount.Equal(dec("7.99")))
}

func TestDecideBreak_TieWithOwn_Tagged(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "8.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00")},
		Settings:    domain.ProductSettings{VendorID: "A"},
	}, 1)

	require.Equal(t, domain.CodeIgnoreOwn+domain.TagTie, got.Explained)
}

func TestDecideBreak_QtyBreakWithoutGenuineCompetitor_ShutsDown(t *testing.T) {
	e := NewEngine(DefaultConfig())

	own := withBreak(simpleOffer("A", "10.00"), 4, "9.00")

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         own,
		Competitors: []domain.Offer{simpleOffer("B", "8.00")}, // only a 1-unit break
		Settings:    domain.ProductSettings{VendorID: "A"},
	}, 4)

	require.False(t, got.Active)
	require.False(t, got.IsRepriced)
	require.Equal(t, domain.CodeShutDownFloorReached, got.Explained)
}

func TestDecideBreak_MissingOwnBreak_NoCompetitor(t *testing.T) {
	e := NewEngine(DefaultConfig())

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "10.00"),
		Competitors: []domain.Offer{withBreak(simpleOffer("B", "8.00"), 4, "7.00")},
		Settings:    domain.ProductSettings{VendorID: "A"},
	}, 4)

	require.False(t, got.IsRepriced)
	require.Equal(t, domain.CodeNoCompetitor, got.Explained)
}

func TestDecideBreak_BadgeAdjustmentOverrides(t *testing.T) {
	e := NewEngine(DefaultConfig())

	holder := simpleOffer("C", "9.50")
	holder.BadgeID = 3
	holder.BadgeName = "Top Seller"

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "10.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00"), holder},
		Settings: domain.ProductSettings{
			VendorID:        "A",
			BadgeIndicator:  domain.BadgeIndicatorAllPercentage,
			BadgePercentage: dec("30"),
		},
	}, 1)

	// 9.50 minus 30% beats the offset-derived 7.99
	require.True(t, got.IsRepriced)
	require.True(t, got.NewPrice.Amount.Equal(dec("6.65")), "got %s", got.NewPrice)
	require.Contains(t, got.Explained, domain.CodePriceChangeBadgePct)
	require.Equal(t, "Vendor C", got.TriggeredByVendor)
}

func TestDecideBreak_BadgeTargetUnderFloor_PriceTooLow(t *testing.T) {
	e := NewEngine(DefaultConfig())

	holder := simpleOffer("C", "8.50")
	holder.BadgeID = 3
	holder.BadgeName = "Top Seller"

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "10.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00"), holder},
		Settings: domain.ProductSettings{
			VendorID:        "A",
			FloorPrice:      dec("6.00"),
			BadgeIndicator:  domain.BadgeIndicatorAllPercentage,
			BadgePercentage: dec("30"),
		},
	}, 1)

	// 8.50 minus 30% is 5.95, under the 6.00 floor: the badge target is
	// unreachable, the offset-derived price stands and gets tagged.
	require.True(t, got.IsRepriced)
	require.True(t, got.NewPrice.Amount.Equal(dec("7.99")), "got %s", got.NewPrice)
	require.Equal(t, domain.CodeRepriceDefault+domain.TagPriceTooLow, got.Explained)
}

func TestDecideBreak_BadgeTargetUnderFloor_ShippingAware_Reverts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeShippingAware
	e := NewEngine(cfg)

	holder := simpleOffer("C", "8.50")
	holder.BadgeID = 3
	holder.BadgeName = "Top Seller"

	got := e.DecideBreak(DecideInput{
		ProductID:   "P1",
		Own:         simpleOffer("A", "10.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00"), holder},
		Settings: domain.ProductSettings{
			VendorID:        "A",
			FloorPrice:      dec("6.00"),
			BadgeIndicator:  domain.BadgeIndicatorAllPercentage,
			BadgePercentage: dec("30"),
		},
	}, 1)

	require.False(t, got.IsRepriced)
	require.False(t, got.NewPrice.Valid)
	require.True(t, got.GoToPrice.Valid)
	require.True(t, got.GoToPrice.Amount.Equal(dec("7.99")))
	require.Contains(t, got.Explained, domain.CodeIgnoredFloorReached)
}

func TestDecideBreak_TieSymmetry(t *testing.T) {
	e := NewEngine(DefaultConfig())

	own := simpleOffer("A", "10.00")
	b := simpleOffer("B", "8.00")
	c := simpleOffer("C", "8.00")
	st := domain.ProductSettings{VendorID: "A", RepricingRule: domain.RepricingRuleBoth}

	first := e.DecideBreak(DecideInput{
		ProductID: "P1", Own: own, Competitors: []domain.Offer{b, c}, Settings: st,
	}, 1)
	second := e.DecideBreak(DecideInput{
		ProductID: "P1", Own: own, Competitors: []domain.Offer{c, b}, Settings: st,
	}, 1)

	require.Equal(t, domain.CodeRepriceDefault+domain.TagTie, first.Explained)
	require.Equal(t, first.Explained, second.Explained)
	require.Equal(t, first.IsRepriced, second.IsRepriced)
	require.True(t, first.NewPrice.Valid)
	require.True(t, first.NewPrice.Amount.Equal(second.NewPrice.Amount))
	require.True(t, first.NewPrice.Amount.Equal(dec("7.99")))
}

func TestDecideBreak_PanicRecovered(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.eligibility = func([]domain.Offer, int, domain.ProductSettings, string) []domain.Offer {
		panic("bad snapshot")
	}

	var got domain.RepriceDecision
	require.NotPanics(t, func() {
		got = e.DecideBreak(DecideInput{
			ProductID:   "P1",
			Own:         simpleOffer("A", "10.00"),
			Competitors: []domain.Offer{simpleOffer("B", "8.00")},
			Settings:    domain.ProductSettings{VendorID: "A"},
		}, 1)
	})

	require.Equal(t, 1, got.MinQty)
	require.False(t, got.IsRepriced)
	require.False(t, got.NewPrice.Valid)
	require.False(t, got.GoToPrice.Valid)
}

func TestDecide_Deterministic(t *testing.T) {
	e := NewEngine(DefaultConfig())

	in := DecideInput{
		ProductID: "P1",
		Own:       withBreak(simpleOffer("A", "10.00"), 4, "9.00"),
		Competitors: []domain.Offer{
			withBreak(simpleOffer("B", "8.00"), 4, "7.50"),
			simpleOffer("C", "9.00"),
		},
		Settings: domain.ProductSettings{
			VendorID:   "A",
			FloorPrice: dec("2.00"),
			MaxPrice:   dec("20.00"),
		},
	}

	first := e.Decide(in)
	second := e.Decide(in)
	require.Equal(t, first, second)
	require.Len(t, first, 2)
	require.Equal(t, 1, first[0].MinQty)
	require.Equal(t, 4, first[1].MinQty)
}

func TestDecide_ExplicitMinQtys(t *testing.T) {
	e := NewEngine(DefaultConfig())

	in := DecideInput{
		ProductID:   "P1",
		Own:         withBreak(simpleOffer("A", "10.00"), 4, "9.00"),
		Competitors: []domain.Offer{simpleOffer("B", "8.00")},
		Settings:    domain.ProductSettings{VendorID: "A"},
		MinQtys:     []int{4},
	}

	got := e.Decide(in)
	require.Len(t, got, 1)
	require.Equal(t, 4, got[0].MinQty)
}
