package repricer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"marketRepricer/domain"
)

type fakeSettingsRepo struct {
	byProduct map[string]domain.ProductSettings
	byVendor  map[string]domain.ProductSettings
}

func (f *fakeSettingsRepo) GetSettings(_ context.Context, productID, vendorID string) (domain.ProductSettings, bool, error) {
	st, ok := f.byProduct[productID+"|"+vendorID]
	return st, ok, nil
}

func (f *fakeSettingsRepo) GetDefault(_ context.Context, vendorID string) (domain.ProductSettings, bool, error) {
	st, ok := f.byVendor[vendorID]
	return st, ok, nil
}

func (f *fakeSettingsRepo) Upsert(_ context.Context, st *domain.ProductSettings) error {
	if f.byProduct == nil {
		f.byProduct = map[string]domain.ProductSettings{}
	}
	f.byProduct[st.ProductID+"|"+st.VendorID] = *st
	return nil
}

type fakeOfferRepo struct {
	offers map[string][]domain.Offer
}

func (f *fakeOfferRepo) ListProductIDs(_ context.Context, _ string) ([]string, error) {
	ids := make([]string, 0, len(f.offers))
	for id := range f.offers {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeOfferRepo) FindByProduct(_ context.Context, productID string) ([]domain.Offer, error) {
	return f.offers[productID], nil
}

type fakeDecisionRepo struct {
	mu      sync.Mutex
	records []domain.RepriceDecisionRecord
}

func (f *fakeDecisionRepo) SaveBatch(_ context.Context, records []domain.RepriceDecisionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeDecisionRepo) FindByJob(_ context.Context, jobID string) ([]domain.RepriceDecisionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RepriceDecisionRecord
	for _, r := range f.records {
		if r.JobID == jobID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]domain.RepriceJob
}

func (f *fakeJobRepo) Create(_ context.Context, job *domain.RepriceJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jobs == nil {
		f.jobs = map[string]domain.RepriceJob{}
	}
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobRepo) Update(_ context.Context, job *domain.RepriceJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	return nil
}

func (f *fakeJobRepo) FindByID(_ context.Context, id string) (domain.RepriceJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return domain.RepriceJob{}, errors.New("reprice job not found")
	}
	return job, nil
}

func (f *fakeJobRepo) FindRecent(_ context.Context, limit int) ([]domain.RepriceJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.RepriceJob, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeMarketplace struct {
	mu     sync.Mutex
	pushed []domain.RepriceDecision
	err    error
}

func (f *fakeMarketplace) PushPrices(_ context.Context, _, _ string, decisions []domain.RepriceDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.pushed = append(f.pushed, decisions...)
	return nil
}

type fakeFlags struct {
	express bool
}

func (f *fakeFlags) ExpressModeActive(_ context.Context, _ string) (bool, error) {
	return f.express, nil
}

type serviceFixture struct {
	svc         *repricerService
	settings    *fakeSettingsRepo
	offers      *fakeOfferRepo
	decisions   *fakeDecisionRepo
	jobs        *fakeJobRepo
	marketplace *fakeMarketplace
	flags       *fakeFlags
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		settings:    &fakeSettingsRepo{},
		offers:      &fakeOfferRepo{offers: map[string][]domain.Offer{}},
		decisions:   &fakeDecisionRepo{},
		jobs:        &fakeJobRepo{},
		marketplace: &fakeMarketplace{},
		flags:       &fakeFlags{},
	}
	f.svc = NewRepricerService(
		DefaultConfig(),
		f.settings,
		f.offers,
		f.decisions,
		f.jobs,
		f.marketplace,
		f.flags,
	)
	return f
}

func TestRunBatch_HappyPath(t *testing.T) {
	f := newServiceFixture()
	f.offers.offers["P1"] = []domain.Offer{
		simpleOffer("A", "10.00"),
		simpleOffer("B", "8.00"),
	}

	job, err := f.svc.RunBatch(context.Background(), "A")
	require.NoError(t, err)
	require.Equal(t, domain.JobStatusFinished, job.Status)
	require.Equal(t, 1, job.ProductsTotal)
	require.Equal(t, 0, job.ProductsFailed)
	require.Equal(t, 1, job.DecisionsTotal)
	require.Equal(t, 1, job.PricesPushed)
	require.NotNil(t, job.FinishedAt)

	require.Len(t, f.marketplace.pushed, 1)
	require.Equal(t, "7.99", f.marketplace.pushed[0].NewPrice.String())

	require.Len(t, f.decisions.records, 1)
	rec := f.decisions.records[0]
	require.Equal(t, job.ID, rec.JobID)
	require.Equal(t, "P1", rec.ProductID)
	require.Equal(t, "7.99", rec.NewPrice)
	require.True(t, rec.IsRepriced)
}

func TestRunBatch_ExpressModeRevertsEverything(t *testing.T) {
	f := newServiceFixture()
	f.flags.express = true
	f.offers.offers["P1"] = []domain.Offer{
		simpleOffer("A", "10.00"),
		simpleOffer("B", "8.00"),
	}

	job, err := f.svc.RunBatch(context.Background(), "A")
	require.NoError(t, err)
	require.True(t, job.ExpressMode)
	require.Equal(t, 0, job.PricesPushed)
	require.Empty(t, f.marketplace.pushed)

	require.Len(t, f.decisions.records, 1)
	rec := f.decisions.records[0]
	require.False(t, rec.IsRepriced)
	require.Equal(t, "N/A", rec.NewPrice)
	require.Equal(t, "7.99", rec.GoToPrice)
	require.Contains(t, rec.Explained, "#INEXPRESSCRON")
}

func TestRunBatch_MissingOwnOfferCountsAsFailure(t *testing.T) {
	f := newServiceFixture()
	f.offers.offers["P1"] = []domain.Offer{simpleOffer("B", "8.00")}
	f.offers.offers["P2"] = []domain.Offer{
		simpleOffer("A", "10.00"),
		simpleOffer("B", "8.00"),
	}

	job, err := f.svc.RunBatch(context.Background(), "A")
	require.NoError(t, err)
	require.Equal(t, domain.JobStatusFinished, job.Status)
	require.Equal(t, 2, job.ProductsTotal)
	require.Equal(t, 1, job.ProductsFailed)
	require.Equal(t, 1, job.DecisionsTotal)
}

func TestRunBatch_PushFailureCountsProductFailed(t *testing.T) {
	f := newServiceFixture()
	f.marketplace.err = errors.New("boom")
	f.offers.offers["P1"] = []domain.Offer{
		simpleOffer("A", "10.00"),
		simpleOffer("B", "8.00"),
	}

	job, err := f.svc.RunBatch(context.Background(), "A")
	require.NoError(t, err)
	require.Equal(t, 1, job.ProductsFailed)
	require.Equal(t, 0, job.PricesPushed)
}

func TestDecideProduct_DryRunPersistsNothing(t *testing.T) {
	f := newServiceFixture()
	f.offers.offers["P1"] = []domain.Offer{
		simpleOffer("A", "10.00"),
		simpleOffer("B", "8.00"),
	}

	decisions, err := f.svc.DecideProduct(context.Background(), "A", "P1")
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	require.True(t, decisions[0].IsRepriced)
	require.Equal(t, "7.99", decisions[0].NewPrice.String())

	require.Empty(t, f.decisions.records)
	require.Empty(t, f.marketplace.pushed)
	require.Empty(t, f.jobs.jobs)
}

func TestSettingsFor_FallbackChain(t *testing.T) {
	f := newServiceFixture()
	f.settings.byProduct = map[string]domain.ProductSettings{
		"P1|A": {ProductID: "P1", VendorID: "A", FloorPrice: dec("5.00")},
	}
	f.settings.byVendor = map[string]domain.ProductSettings{
		"A": {VendorID: "A", FloorPrice: dec("2.00"), RepricingRule: domain.RepricingRuleOnlyDown},
	}

	st, err := f.svc.GetEffectiveSettings(context.Background(), "A", "P1")
	require.NoError(t, err)
	require.True(t, st.FloorPrice.Equal(dec("5.00")), "product row wins")
	require.Equal(t, domain.RepricingRuleBoth, st.RepricingRule, "normalized default")

	st, err = f.svc.GetEffectiveSettings(context.Background(), "A", "P2")
	require.NoError(t, err)
	require.True(t, st.FloorPrice.Equal(dec("2.00")), "vendor default backs up")
	require.Equal(t, "P2", st.ProductID)
	require.Equal(t, domain.RepricingRuleOnlyDown, st.RepricingRule)

	f2 := newServiceFixture()
	st, err = f2.svc.GetEffectiveSettings(context.Background(), "A", "P3")
	require.NoError(t, err)
	require.Equal(t, domain.RepricingRuleBoth, st.RepricingRule)
	require.Equal(t, domain.BadgeIndicatorNone, st.BadgeIndicator)
}

func TestUpsertSettings_RequiresVendor(t *testing.T) {
	f := newServiceFixture()

	err := f.svc.UpsertSettings(context.Background(), &domain.ProductSettings{ProductID: "P1"})
	require.Error(t, err)

	err = f.svc.UpsertSettings(context.Background(), &domain.ProductSettings{ProductID: "P1", VendorID: "A"})
	require.NoError(t, err)

	st, found, err := f.settings.GetSettings(context.Background(), "P1", "A")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "P1", st.ProductID)
}
