package repricer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"marketRepricer/domain"
)

func repricedDecision(minQty int, oldPrice, newPrice string) domain.RepriceDecision {
	return domain.RepriceDecision{
		MinQty:     minQty,
		OldPrice:   dec(oldPrice),
		NewPrice:   domain.SomePrice(dec(newPrice)),
		IsRepriced: true,
		Active:     true,
		Explained:  domain.CodeRepriceDefault,
	}
}

func TestDirectionRule(t *testing.T) {
	t.Run("only up reverts decrease", func(t *testing.T) {
		got := DirectionRule(domain.RepricingRuleOnlyUp)([]domain.RepriceDecision{
			repricedDecision(1, "10.00", "8.00"),
		})
		require.False(t, got[0].IsRepriced)
		require.False(t, got[0].NewPrice.Valid)
		require.True(t, got[0].GoToPrice.Amount.Equal(dec("8.00")))
	})

	t.Run("only up keeps increase", func(t *testing.T) {
		got := DirectionRule(domain.RepricingRuleOnlyUp)([]domain.RepriceDecision{
			repricedDecision(1, "10.00", "11.00"),
		})
		require.True(t, got[0].IsRepriced)
	})

	t.Run("only up exempts unpriced break", func(t *testing.T) {
		got := DirectionRule(domain.RepricingRuleOnlyUp)([]domain.RepriceDecision{
			repricedDecision(1, "0", "8.00"),
		})
		require.True(t, got[0].IsRepriced)
	})

	t.Run("only down reverts increase", func(t *testing.T) {
		got := DirectionRule(domain.RepricingRuleOnlyDown)([]domain.RepriceDecision{
			repricedDecision(1, "10.00", "11.00"),
		})
		require.False(t, got[0].IsRepriced)
	})

	t.Run("both is a no-op", func(t *testing.T) {
		in := []domain.RepriceDecision{repricedDecision(1, "10.00", "8.00")}
		got := DirectionRule(domain.RepricingRuleBoth)(in)
		require.Equal(t, in, got)
	})
}

func TestMultiBreakConsistencyRule(t *testing.T) {
	got := MultiBreakConsistencyRule()([]domain.RepriceDecision{
		repricedDecision(1, "10.00", "9.00"),
		repricedDecision(4, "8.50", "8.00"),
		repricedDecision(8, "8.20", "8.00"), // equal to qty-4 result, invalid
		repricedDecision(12, "7.00", "6.00"),
	})

	require.Len(t, got, 3)
	require.Equal(t, 1, got[0].MinQty)
	require.Equal(t, 4, got[1].MinQty)
	require.Equal(t, 12, got[2].MinQty)
}

func TestSuppressPriceBreakRule(t *testing.T) {
	t.Run("suppresses quantity breaks while one-unit stands still", func(t *testing.T) {
		unchanged := domain.RepriceDecision{MinQty: 1, OldPrice: dec("10.00"), Active: true, Explained: domain.CodeIgnoreOwn}
		got := SuppressPriceBreakRule(false)([]domain.RepriceDecision{
			unchanged,
			repricedDecision(4, "9.00", "8.00"),
		})
		require.False(t, got[1].IsRepriced)
		require.Contains(t, got[1].Explained, domain.CodeIgnoredOneQtySetting)
	})

	t.Run("one-unit change releases the others", func(t *testing.T) {
		got := SuppressPriceBreakRule(false)([]domain.RepriceDecision{
			repricedDecision(1, "10.00", "9.50"),
			repricedDecision(4, "9.00", "8.00"),
		})
		require.True(t, got[1].IsRepriced)
	})

	t.Run("override drops never-priced quantity breaks", func(t *testing.T) {
		got := SuppressPriceBreakRule(true)([]domain.RepriceDecision{
			repricedDecision(1, "10.00", "9.50"),
			repricedDecision(4, "0", "8.00"),
		})
		require.Len(t, got, 1)
		require.Equal(t, 1, got[0].MinQty)
	})
}

func TestBeatQPriceRule(t *testing.T) {
	rule := BeatQPriceRule(dec("0.50"))

	got := rule([]domain.RepriceDecision{
		repricedDecision(1, "10.00", "10.20"), // +0.20, under threshold
		repricedDecision(4, "9.00", "9.20"),   // quantity break, untouched
	})
	require.False(t, got[0].IsRepriced)
	require.Contains(t, got[0].Explained, domain.TagBeatQ)
	require.True(t, got[1].IsRepriced)

	got = rule([]domain.RepriceDecision{repricedDecision(1, "10.00", "10.60")})
	require.True(t, got[0].IsRepriced)

	// decreases never trip the threshold
	got = rule([]domain.RepriceDecision{repricedDecision(1, "10.00", "9.90")})
	require.True(t, got[0].IsRepriced)
}

func TestMinPercentIncreaseRule(t *testing.T) {
	rule := MinPercentIncreaseRule(dec("5"))

	got := rule([]domain.RepriceDecision{
		repricedDecision(1, "10.00", "10.20"), // +2%
		repricedDecision(4, "10.00", "11.00"), // +10%
		repricedDecision(8, "10.00", "9.00"),  // decrease, untouched
	})
	require.False(t, got[0].IsRepriced)
	require.Contains(t, got[0].Explained, domain.TagMinPercent)
	require.True(t, got[1].IsRepriced)
	require.True(t, got[2].IsRepriced)
}

func TestDeactivateQBreakRule(t *testing.T) {
	zeroPrice := repricedDecision(4, "9.00", "0")

	t.Run("aborts deactivation", func(t *testing.T) {
		got := DeactivateQBreakRule(true)([]domain.RepriceDecision{zeroPrice})
		require.False(t, got[0].IsRepriced)
		require.Contains(t, got[0].Explained, domain.CodeIgnoredAbortDeactivation)
	})

	t.Run("one-unit change lifts the abort", func(t *testing.T) {
		got := DeactivateQBreakRule(true)([]domain.RepriceDecision{
			repricedDecision(1, "10.00", "9.50"),
			zeroPrice,
		})
		require.True(t, got[1].IsRepriced)
	})

	t.Run("disabled is a no-op", func(t *testing.T) {
		got := DeactivateQBreakRule(false)([]domain.RepriceDecision{zeroPrice})
		require.True(t, got[0].IsRepriced)
	})
}

func TestBuyBoxRule(t *testing.T) {
	st := domain.ProductSettings{
		BuyBoxVendorIDs: datatypes.NewJSONSlice([]string{"B"}),
	}

	protected := repricedDecision(1, "10.00", "8.00")
	protected.LowestVendorID = "B"

	unprotected := repricedDecision(4, "9.00", "8.00")
	unprotected.LowestVendorID = "C"

	got := BuyBoxRule(st)([]domain.RepriceDecision{protected, unprotected})
	require.False(t, got[0].IsRepriced)
	require.Contains(t, got[0].Explained, domain.TagBuyBox)
	require.True(t, got[1].IsRepriced)
}

func TestFloorCheckRule(t *testing.T) {
	rule := FloorCheckRule(dec("7.00"))

	got := rule([]domain.RepriceDecision{
		repricedDecision(1, "10.00", "6.50"), // under floor
		repricedDecision(4, "9.00", "7.50"),  // above floor
	})
	require.False(t, got[0].IsRepriced)
	require.Contains(t, got[0].Explained, domain.TagFloorCheck)
	require.True(t, got[1].IsRepriced)
}

func TestKeepPositionRule(t *testing.T) {
	pointless := repricedDecision(1, "10.00", "9.00")
	pointless.LowestVendorPrice = domain.SomePrice(dec("8.00")) // still above the lowest

	useful := repricedDecision(4, "10.00", "7.50")
	useful.LowestVendorPrice = domain.SomePrice(dec("8.00"))

	got := KeepPositionRule(true)([]domain.RepriceDecision{pointless, useful})
	require.False(t, got[0].IsRepriced)
	require.Contains(t, got[0].Explained, domain.TagKeepPosition)
	require.True(t, got[1].IsRepriced)

	got = KeepPositionRule(false)([]domain.RepriceDecision{pointless})
	require.True(t, got[0].IsRepriced)
}

func TestSisterComparisonRule(t *testing.T) {
	sisterPrices := SisterPricesAt(
		[]domain.Offer{simpleOffer("S", "8.00"), simpleOffer("C", "9.00")},
		[]int{1},
		domain.ProductSettings{SisterVendorIDs: datatypes.NewJSONSlice([]string{"S"})},
		ModeUnitOnly,
	)

	got := SisterComparisonRule(sisterPrices)([]domain.RepriceDecision{
		repricedDecision(1, "10.00", "8.00"),
	})
	require.True(t, got[0].IsRepriced, "tag is informational only")
	require.Contains(t, got[0].Explained, domain.TagSisterSamePrice)
}

func TestAlignIsRepricedRule(t *testing.T) {
	got := AlignIsRepricedRule()([]domain.RepriceDecision{
		repricedDecision(1, "10.00", "10.00"),
		repricedDecision(4, "9.00", "8.00"),
	})
	require.False(t, got[0].IsRepriced)
	require.Contains(t, got[0].Explained, domain.TagSamePriceSuggested)
	require.True(t, got[1].IsRepriced)
}

func TestExpressCronOverrideRule(t *testing.T) {
	got := ExpressCronOverrideRule()([]domain.RepriceDecision{
		repricedDecision(1, "10.00", "9.00"),
	})
	require.False(t, got[0].IsRepriced)
	require.False(t, got[0].NewPrice.Valid)
	require.True(t, got[0].GoToPrice.Amount.Equal(dec("9.00")))
	require.Contains(t, got[0].Explained, domain.TagInExpressCron)
}

func TestChain_DoesNotMutateInput(t *testing.T) {
	in := []domain.RepriceDecision{repricedDecision(1, "10.00", "8.00")}
	chain := Chain(
		DirectionRule(domain.RepricingRuleOnlyUp),
		AlignIsRepricedRule(),
	)

	got := chain(in)
	require.False(t, got[0].IsRepriced)
	require.True(t, in[0].IsRepriced, "input slice must stay intact")
}
