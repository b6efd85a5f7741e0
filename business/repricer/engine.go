package repricer

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"marketRepricer/domain"
	"marketRepricer/pkg/logger"
)

// Engine computes repricing decisions. It is pure: no I/O, no shared
// state between invocations, byte-identical output for identical input.
type Engine struct {
	cfg Config
	// eligibility filters the competing offers before the decision runs.
	// Swappable for alternative filter stacks; defaults to EligibleOffers.
	eligibility func(offers []domain.Offer, minQty int, st domain.ProductSettings, ownVendorID string) []domain.Offer
}

func NewEngine(cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if !cfg.DefaultOffset.IsPositive() {
		cfg.DefaultOffset = DefaultConfig().DefaultOffset
	}
	return &Engine{cfg: cfg, eligibility: EligibleOffers}
}

// DecideInput is everything one decision run operates on. The engine
// treats all of it as read-only.
type DecideInput struct {
	ProductID   string
	Own         domain.Offer
	Competitors []domain.Offer
	Settings    domain.ProductSettings
	// MinQtys lists the quantity breaks to evaluate. Empty means every
	// active break of the own offer.
	MinQtys []int
}

// Decide evaluates every requested quantity break and returns one
// decision per break, ordered by ascending quantity.
func (e *Engine) Decide(in DecideInput) []domain.RepriceDecision {
	qtys := in.MinQtys
	if len(qtys) == 0 {
		qtys = activeBreakQtys(in.Own)
	}

	out := make([]domain.RepriceDecision, 0, len(qtys))
	for _, q := range qtys {
		out = append(out, e.DecideBreak(in, q))
	}
	return out
}

func activeBreakQtys(o domain.Offer) []int {
	seen := map[int]bool{}
	var qtys []int
	for _, pb := range o.PriceBreaks {
		if pb.Active && !seen[pb.MinQty] {
			seen[pb.MinQty] = true
			qtys = append(qtys, pb.MinQty)
		}
	}
	sort.Ints(qtys)
	return qtys
}

// DecideBreak runs the decision state machine for a single quantity
// break. It never panics outward: an unexpected failure is logged with
// product context and surfaced as a "no change" decision, so one
// product's failure cannot abort a batch.
func (e *Engine) DecideBreak(in DecideInput, minQty int) (dec domain.RepriceDecision) {
	dec = domain.RepriceDecision{MinQty: minQty, Active: true}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("repricing decision panicked",
				"product_id", in.ProductID,
				"vendor_id", in.Own.VendorID,
				"min_qty", minQty,
				"panic", r,
			)
			RepriceProductFailuresTotal.Inc()
			dec.NewPrice = domain.NoPrice()
			dec.GoToPrice = domain.NoPrice()
			dec.IsRepriced = false
		}
	}()

	ownBreak, ok := in.Own.BreakAt(minQty)
	if !ok {
		// Feed anomaly: nothing to reprice at this quantity.
		dec.Explained = domain.CodeNoCompetitor
		countDecision(dec)
		return dec
	}
	dec.OldPrice = ownBreak.UnitPrice

	st := in.Settings

	all := make([]domain.Offer, 0, 1+len(in.Competitors))
	all = append(all, in.Own)
	all = append(all, in.Competitors...)

	eligible := e.eligibility(all, minQty, st, in.Own.VendorID)
	if len(eligible) == 0 {
		dec.Explained = domain.CodeNoCompetitor
		countDecision(dec)
		return dec
	}

	sortByEffectivePrice(eligible, minQty, e.cfg.Mode)

	tie := DetectTie(eligible, minQty, e.cfg.Mode, st, in.Own.VendorID, e.cfg.IgnoreTie)
	if tie.Tied && !tie.ResolvedByExclusion {
		// Historical rule, kept on purpose: the whole exclusion set is
		// cleared for the remainder of this decision, not just the tied
		// vendor, so genuine competitors break the tie fairly.
		st.ExcludedVendorIDs = nil
	}

	head := eligible[0]
	headPrice, _ := EffectivePrice(head, minQty, e.cfg.Mode)
	dec.LowestVendor = head.VendorName
	dec.LowestVendorID = head.VendorID
	dec.LowestVendorPrice = domain.SomePrice(headPrice)

	offset := e.cfg.offsetFor(st.PriceOffset)

	// Quantity breaks beyond the one-unit break shut down when nobody
	// genuine is priced at them; the break is deactivated, never
	// destructively repriced.
	if minQty != 1 && !hasGenuineCompetitor(eligible, st, in.Own.VendorID) {
		dec.Active = false
		dec.Explained = domain.CodeShutDownFloorReached
		if tie.Tied {
			dec.Explained += domain.TagTie
		}
		countDecision(dec)
		return dec
	}

	switch {
	case head.VendorID == in.Own.VendorID:
		e.decideOwnLowest(&dec, eligible, minQty, st, offset)
	case st.IsExcluded(head.VendorID) || st.IsSister(head.VendorID):
		// Lowest offer is ours in all but name; record what we would have
		// done for the audit trail and stand pat.
		cp := CalcContextPrice(headPrice, offset, st.FloorPrice, st.PercentageDown, minQty, decimal.Decimal{})
		dec.Explained = domain.CodeNoCompetitorSisterVendor
		dec.GoToPrice = domain.SomePrice(cp.Price)
	default:
		e.decideCompetitorLowest(&dec, eligible, minQty, st, offset, head, headPrice, in.Own.VendorID)
	}

	e.applyBadgeAdjustment(&dec, eligible, minQty, st, in.Own)

	if tie.Tied {
		dec.Explained += domain.TagTie
	}
	countDecision(dec)
	return dec
}

// decideOwnLowest handles the evaluating vendor already holding the best
// price: walk forward to the first genuine competitor and consider moving
// up toward it.
func (e *Engine) decideOwnLowest(dec *domain.RepriceDecision, eligible []domain.Offer, minQty int, st domain.ProductSettings, offset decimal.Decimal) {
	old := dec.OldPrice

	next, nextPrice, ok := e.nextCompetitor(eligible[1:], minQty, st, eligible[0].VendorID)
	if !ok {
		if st.MaxPrice.IsPositive() && old.LessThan(st.MaxPrice) {
			dec.NewPrice = domain.SomePrice(st.MaxPrice)
			dec.IsRepriced = true
			dec.Explained = domain.CodePriceMaxedManual
		} else {
			dec.Explained = domain.CodeNoCompetitor
		}
		return
	}

	cp := CalcContextPrice(nextPrice, offset, st.FloorPrice, st.PercentageDown, minQty, decimal.Decimal{})
	dec.TriggeredByVendor = next.VendorName

	// An offset result at or under the floor cannot be used to move up.
	// The clamp-to-floor factor already sits exactly on the floor.
	if st.FloorPrice.IsPositive() && cp.Price.LessThanOrEqual(st.FloorPrice) && cp.Factor != FactorFloorOffset {
		dec.Explained = domain.CodeIgnoreOwn
		dec.GoToPrice = domain.SomePrice(cp.Price)
		return
	}

	switch {
	case nextPrice.GreaterThan(cp.Price) && cp.Price.GreaterThan(old) &&
		(!st.MaxPrice.IsPositive() || cp.Price.LessThanOrEqual(st.MaxPrice)):
		dec.NewPrice = domain.SomePrice(cp.Price)
		dec.IsRepriced = true
		dec.Explained = AppendPriceFactorTag(domain.CodePriceUpNext, cp.Factor)
	case st.MaxPrice.IsPositive() && cp.Price.GreaterThan(st.MaxPrice) && old.LessThan(st.MaxPrice):
		dec.NewPrice = domain.SomePrice(st.MaxPrice)
		dec.IsRepriced = true
		dec.Explained = domain.CodePriceMaxedManual
	default:
		dec.Explained = domain.CodeIgnoreOwn
		dec.GoToPrice = domain.SomePrice(cp.Price)
	}
}

// decideCompetitorLowest handles a genuine competitor holding the best
// price.
func (e *Engine) decideCompetitorLowest(dec *domain.RepriceDecision, eligible []domain.Offer, minQty int, st domain.ProductSettings, offset decimal.Decimal, head domain.Offer, headPrice decimal.Decimal, ownVendorID string) {
	old := dec.OldPrice

	cp := CalcContextPrice(headPrice, offset, st.FloorPrice, st.PercentageDown, minQty, decimal.Decimal{})
	dec.TriggeredByVendor = head.VendorName

	// FLOOR_OFFSET is a deliberate clamp to the floor, not a violation;
	// only an offset/percentage result under the floor diverts here.
	if st.FloorPrice.IsPositive() && cp.Price.LessThanOrEqual(st.FloorPrice) && cp.Factor != FactorFloorOffset {
		e.decideFloorUndercut(dec, eligible, minQty, st, offset, ownVendorID)
		return
	}

	switch {
	case st.MaxPrice.IsPositive() && old.GreaterThan(st.MaxPrice):
		// Existing price already violates the cap: force down.
		dec.NewPrice = domain.SomePrice(st.MaxPrice)
		dec.IsRepriced = true
		dec.Explained = domain.CodePriceMaxed
	case !st.MaxPrice.IsPositive() || cp.Price.LessThan(st.MaxPrice):
		dec.NewPrice = domain.SomePrice(cp.Price)
		dec.IsRepriced = true
		code := domain.CodeRepriceDefault
		if cp.Price.GreaterThan(old) {
			code = domain.CodePriceUpNext
		}
		dec.Explained = AppendPriceFactorTag(code, cp.Factor)
	case old.GreaterThanOrEqual(st.MaxPrice):
		dec.Explained = domain.CodeIgnoreAlreadyMaxed
		dec.GoToPrice = domain.SomePrice(cp.Price)
	default:
		dec.NewPrice = domain.SomePrice(st.MaxPrice)
		dec.IsRepriced = true
		dec.Explained = domain.CodePriceMaxedManual
	}
}

// decideFloorUndercut handles the lowest genuine competitor dragging the
// context price through the floor: retarget on the next-best competitor,
// or fall back to the cap.
func (e *Engine) decideFloorUndercut(dec *domain.RepriceDecision, eligible []domain.Offer, minQty int, st domain.ProductSettings, offset decimal.Decimal, ownVendorID string) {
	old := dec.OldPrice

	next, nextPrice, ok := e.nextCompetitor(eligible[1:], minQty, st, ownVendorID)
	if !ok {
		if st.MaxPrice.IsPositive() {
			if old.GreaterThanOrEqual(st.MaxPrice) {
				dec.Explained = domain.CodeIgnoreAlreadyMaxed
			} else {
				dec.NewPrice = domain.SomePrice(st.MaxPrice)
				dec.IsRepriced = true
				dec.Explained = domain.CodePriceMaxed
			}
		} else {
			dec.Explained = domain.CodeIgnoredFloorReached
		}
		return
	}

	cp := CalcContextPrice(nextPrice, offset, st.FloorPrice, st.PercentageDown, minQty, decimal.Decimal{})
	dec.TriggeredByVendor = next.VendorName

	if cp.Price.LessThanOrEqual(st.FloorPrice) && cp.Factor != FactorFloorOffset {
		dec.GoToPrice = domain.SomePrice(cp.Price)
		if sisterAtOrBelowFloor(eligible, minQty, st, e.cfg.Mode) {
			dec.Explained = domain.CodeNoCompetitorSisterVendor
		} else {
			dec.Explained = domain.CodeIgnoredFloorReached
		}
		return
	}

	switch {
	case !st.MaxPrice.IsPositive() || cp.Price.LessThanOrEqual(st.MaxPrice):
		dec.NewPrice = domain.SomePrice(cp.Price)
		dec.IsRepriced = true
		code := domain.CodeRepriceDefault
		if cp.Price.GreaterThan(old) {
			code = domain.CodePriceUpNext
		}
		dec.Explained = AppendPriceFactorTag(code, cp.Factor)
	case old.LessThan(st.MaxPrice):
		dec.NewPrice = domain.SomePrice(st.MaxPrice)
		dec.IsRepriced = true
		dec.Explained = domain.CodePriceMaxed
	default:
		dec.Explained = domain.CodeIgnoredFloorReached
	}
}

// nextCompetitor walks forward to the first offer that is a real
// comparison target: not the skipped vendor, not excluded, not a sister,
// priced above the floor.
func (e *Engine) nextCompetitor(offers []domain.Offer, minQty int, st domain.ProductSettings, skipVendorID string) (domain.Offer, decimal.Decimal, bool) {
	for _, o := range offers {
		if skipVendorID != "" && o.VendorID == skipVendorID {
			continue
		}
		if st.IsExcluded(o.VendorID) || st.IsSister(o.VendorID) {
			continue
		}
		price, ok := EffectivePrice(o, minQty, e.cfg.Mode)
		if !ok {
			continue
		}
		if st.FloorPrice.IsPositive() && price.LessThanOrEqual(st.FloorPrice) {
			continue
		}
		return o, price, true
	}
	return domain.Offer{}, decimal.Decimal{}, false
}

// sisterAtOrBelowFloor reports a "floor + sister" situation: a sister
// vendor is itself priced at or below the floor, so the undercut is
// in-house rather than competitive.
func sisterAtOrBelowFloor(eligible []domain.Offer, minQty int, st domain.ProductSettings, mode ComparisonMode) bool {
	if !st.FloorPrice.IsPositive() {
		return false
	}
	for _, o := range eligible {
		if !st.IsSister(o.VendorID) {
			continue
		}
		if price, ok := EffectivePrice(o, minQty, mode); ok && price.LessThanOrEqual(st.FloorPrice) {
			return true
		}
	}
	return false
}

func hasGenuineCompetitor(eligible []domain.Offer, st domain.ProductSettings, ownVendorID string) bool {
	for _, o := range eligible {
		if o.VendorID == ownVendorID || st.IsExcluded(o.VendorID) || st.IsSister(o.VendorID) {
			continue
		}
		return true
	}
	return false
}

func countDecision(dec domain.RepriceDecision) {
	code := dec.Explained
	if i := strings.IndexByte(code, ' '); i > 0 {
		code = code[:i]
	}
	repriced := "false"
	if dec.IsRepriced {
		repriced = "true"
	}
	RepriceDecisionsTotal.WithLabelValues(code, repriced).Inc()
}
