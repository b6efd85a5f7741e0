package repricer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"golang.org/x/sync/errgroup"

	"marketRepricer/domain"
	"marketRepricer/pkg/logger"
)

// SettingsRepository contract interface
type SettingsRepository interface {
	GetSettings(ctx context.Context, productID, vendorID string) (domain.ProductSettings, bool, error)
	GetDefault(ctx context.Context, vendorID string) (domain.ProductSettings, bool, error)
	Upsert(ctx context.Context, settings *domain.ProductSettings) error
}

// OfferSnapshotRepository contract interface
type OfferSnapshotRepository interface {
	ListProductIDs(ctx context.Context, vendorID string) ([]string, error)
	FindByProduct(ctx context.Context, productID string) ([]domain.Offer, error)
}

// DecisionRepository contract interface
type DecisionRepository interface {
	SaveBatch(ctx context.Context, records []domain.RepriceDecisionRecord) error
	FindByJob(ctx context.Context, jobID string) ([]domain.RepriceDecisionRecord, error)
}

// JobRepository contract interface
type JobRepository interface {
	Create(ctx context.Context, job *domain.RepriceJob) error
	Update(ctx context.Context, job *domain.RepriceJob) error
	FindByID(ctx context.Context, id string) (domain.RepriceJob, error)
	FindRecent(ctx context.Context, limit int) ([]domain.RepriceJob, error)
}

// MarketplaceClient contract interface
type MarketplaceClient interface {
	PushPrices(ctx context.Context, vendorID, productID string, decisions []domain.RepriceDecision) error
}

// FlagRepository contract interface
type FlagRepository interface {
	ExpressModeActive(ctx context.Context, vendorID string) (bool, error)
}

type repricerService struct {
	engine       *Engine
	cfg          Config
	settingsRepo SettingsRepository
	offerRepo    OfferSnapshotRepository
	decisionRepo DecisionRepository
	jobRepo      JobRepository
	marketplace  MarketplaceClient
	flagRepo     FlagRepository
}

func NewRepricerService(
	cfg Config,
	settingsRepo SettingsRepository,
	offerRepo OfferSnapshotRepository,
	decisionRepo DecisionRepository,
	jobRepo JobRepository,
	marketplace MarketplaceClient,
	flagRepo FlagRepository,
) *repricerService {
	return &repricerService{
		engine:       NewEngine(cfg),
		cfg:          cfg,
		settingsRepo: settingsRepo,
		offerRepo:    offerRepo,
		decisionRepo: decisionRepo,
		jobRepo:      jobRepo,
		marketplace:  marketplace,
		flagRepo:     flagRepo,
	}
}

// RunBatch reprices every known product of the vendor under a fresh job
// record. Products are fanned out over a bounded worker group; a failing
// product is counted and logged but never aborts the run.
func (s *repricerService) RunBatch(ctx context.Context, vendorID string) (domain.RepriceJob, error) {
	if err := ctx.Err(); err != nil {
		return domain.RepriceJob{}, err
	}

	express, err := s.flagRepo.ExpressModeActive(ctx, vendorID)
	if err != nil {
		logger.Warn("Failed to read express mode flag, assuming off", "vendor_id", vendorID, "error", err)
		express = false
	}

	job := domain.RepriceJob{
		ID:          uuid.NewString(),
		Status:      domain.JobStatusRunning,
		ExpressMode: express,
	}
	if err := s.jobRepo.Create(ctx, &job); err != nil {
		return domain.RepriceJob{}, fmt.Errorf("failed to create reprice job: %w", err)
	}

	ctx = context.WithValue(ctx, JobIDKey, job.ID)

	productIDs, err := s.offerRepo.ListProductIDs(ctx, vendorID)
	if err != nil {
		s.finishJob(ctx, &job, domain.JobStatusFailed)
		return job, fmt.Errorf("failed to list products for vendor %s: %w", vendorID, err)
	}
	job.ProductsTotal = len(productIDs)

	var (
		mu             sync.Mutex
		failed         int
		decisionsTotal int
		pushed         int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, productID := range productIDs {
		g.Go(func() error {
			decisions, pushedCount, perr := s.repriceProduct(gctx, job.ID, vendorID, productID, express)

			mu.Lock()
			defer mu.Unlock()
			if perr != nil {
				failed++
				RepriceProductFailuresTotal.Inc()
				logger.Error("Failed to reprice product",
					"job_id", job.ID,
					"product_id", productID,
					"vendor_id", vendorID,
					"error", perr,
				)
				return nil
			}
			decisionsTotal += len(decisions)
			pushed += pushedCount
			return nil
		})
	}

	// workers never return errors, so Wait only reports ctx cancellation
	waitErr := g.Wait()

	job.ProductsFailed = failed
	job.DecisionsTotal = decisionsTotal
	job.PricesPushed = pushed

	status := domain.JobStatusFinished
	if waitErr != nil || ctx.Err() != nil {
		status = domain.JobStatusFailed
	}
	s.finishJob(context.WithoutCancel(ctx), &job, status)

	logger.Info("Reprice batch finished",
		"job_id", job.ID,
		"status", job.Status,
		"products_total", job.ProductsTotal,
		"products_failed", job.ProductsFailed,
		"decisions_total", job.DecisionsTotal,
		"prices_pushed", job.PricesPushed,
		"express", express,
	)

	return job, waitErr
}

// DecideProduct computes decisions for one product without persisting or
// pushing anything. Used by the dry-run endpoint.
func (s *repricerService) DecideProduct(ctx context.Context, vendorID, productID string) ([]domain.RepriceDecision, error) {
	own, competitors, err := s.loadOffers(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}

	st, err := s.settingsFor(ctx, productID, vendorID)
	if err != nil {
		return nil, err
	}

	decisions := s.engine.Decide(DecideInput{
		ProductID:   productID,
		Own:         own,
		Competitors: competitors,
		Settings:    st,
	})

	chain := s.buildChain(st, allOffers(own, competitors), decisions, false)
	return chain(decisions), nil
}

func (s *repricerService) GetJob(ctx context.Context, jobID string) (domain.RepriceJob, []domain.RepriceDecisionRecord, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return domain.RepriceJob{}, nil, err
	}

	records, err := s.decisionRepo.FindByJob(ctx, jobID)
	if err != nil {
		return domain.RepriceJob{}, nil, err
	}

	return job, records, nil
}

func (s *repricerService) GetRecentJobs(ctx context.Context, limit int) ([]domain.RepriceJob, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.jobRepo.FindRecent(ctx, limit)
}

// GetEffectiveSettings returns the settings the engine would actually use
// for the product, after default fallback and normalization.
func (s *repricerService) GetEffectiveSettings(ctx context.Context, vendorID, productID string) (domain.ProductSettings, error) {
	return s.settingsFor(ctx, productID, vendorID)
}

func (s *repricerService) UpsertSettings(ctx context.Context, settings *domain.ProductSettings) error {
	if settings.VendorID == "" {
		return errors.New("vendor id is required")
	}
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		logger.Error("Failed to upsert product settings",
			"product_id", settings.ProductID,
			"vendor_id", settings.VendorID,
			"error", err,
		)
		return err
	}
	return nil
}

func (s *repricerService) repriceProduct(ctx context.Context, jobID, vendorID, productID string, express bool) ([]domain.RepriceDecision, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	own, competitors, err := s.loadOffers(ctx, vendorID, productID)
	if err != nil {
		return nil, 0, err
	}

	st, err := s.settingsFor(ctx, productID, vendorID)
	if err != nil {
		return nil, 0, err
	}

	decisions := s.engine.Decide(DecideInput{
		ProductID:   productID,
		Own:         own,
		Competitors: competitors,
		Settings:    st,
	})

	chain := s.buildChain(st, allOffers(own, competitors), decisions, express)
	decisions = chain(decisions)

	records := make([]domain.RepriceDecisionRecord, 0, len(decisions))
	for _, d := range decisions {
		records = append(records, decisionRecord(jobID, productID, vendorID, express, d))
	}
	if err := s.decisionRepo.SaveBatch(ctx, records); err != nil {
		return nil, 0, fmt.Errorf("failed to persist decisions: %w", err)
	}

	pushable := repricedOnly(decisions)
	if len(pushable) == 0 {
		return decisions, 0, nil
	}

	if err := s.marketplace.PushPrices(ctx, vendorID, productID, pushable); err != nil {
		return nil, 0, fmt.Errorf("failed to push prices: %w", err)
	}

	return decisions, len(pushable), nil
}

// buildChain assembles the per-product rule pipeline. Order matters: the
// direction guard runs first so later consistency rules see only allowed
// moves, and the express override runs last so it wins over everything.
func (s *repricerService) buildChain(st domain.ProductSettings, offers []domain.Offer, decisions []domain.RepriceDecision, express bool) Rule {
	minQtys := make([]int, 0, len(decisions))
	for _, d := range decisions {
		minQtys = append(minQtys, d.MinQty)
	}

	rules := []Rule{
		DirectionRule(st.RepricingRule),
		MultiBreakConsistencyRule(),
		SuppressPriceBreakRule(st.SuppressQBreakOverride),
		BeatQPriceRule(st.BeatQThreshold),
		MinPercentIncreaseRule(st.MinIncreasePercent),
		DeactivateQBreakRule(st.AbortQDeactivation),
		BuyBoxRule(st),
		FloorCheckRule(st.FloorPrice),
		KeepPositionRule(st.KeepPosition),
		SisterComparisonRule(SisterPricesAt(offers, minQtys, st, s.cfg.Mode)),
		AlignIsRepricedRule(),
	}
	if express {
		rules = append(rules, ExpressCronOverrideRule())
	}
	return Chain(rules...)
}

func (s *repricerService) loadOffers(ctx context.Context, vendorID, productID string) (domain.Offer, []domain.Offer, error) {
	offers, err := s.offerRepo.FindByProduct(ctx, productID)
	if err != nil {
		return domain.Offer{}, nil, fmt.Errorf("failed to load offers: %w", err)
	}

	var (
		own      domain.Offer
		foundOwn bool
	)
	competitors := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if o.VendorID == vendorID {
			own = o
			foundOwn = true
			continue
		}
		competitors = append(competitors, o)
	}
	if !foundOwn {
		return domain.Offer{}, nil, errors.New("own offer not found in snapshot")
	}

	return own, competitors, nil
}

// settingsFor resolves effective settings: the product-specific row wins,
// the vendor's global default row backs it up, and absent both the engine
// runs with conservative zero-value settings.
func (s *repricerService) settingsFor(ctx context.Context, productID, vendorID string) (domain.ProductSettings, error) {
	st, found, err := s.settingsRepo.GetSettings(ctx, productID, vendorID)
	if err != nil {
		return domain.ProductSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if found {
		return normalizeSettings(st), nil
	}

	st, found, err = s.settingsRepo.GetDefault(ctx, vendorID)
	if err != nil {
		return domain.ProductSettings{}, fmt.Errorf("failed to load default settings: %w", err)
	}
	if found {
		st.ProductID = productID
		return normalizeSettings(st), nil
	}

	return normalizeSettings(domain.ProductSettings{
		ProductID: productID,
		VendorID:  vendorID,
	}), nil
}

func normalizeSettings(st domain.ProductSettings) domain.ProductSettings {
	if st.RepricingRule == "" {
		st.RepricingRule = domain.RepricingRuleBoth
	}
	if st.BadgeIndicator == "" {
		st.BadgeIndicator = domain.BadgeIndicatorNone
	}
	return st
}

func (s *repricerService) finishJob(ctx context.Context, job *domain.RepriceJob, status string) {
	now := time.Now()
	job.Status = status
	job.FinishedAt = &now
	if err := s.jobRepo.Update(ctx, job); err != nil {
		logger.Error("Failed to finalize reprice job", "job_id", job.ID, "error", err)
	}
}

func allOffers(own domain.Offer, competitors []domain.Offer) []domain.Offer {
	all := make([]domain.Offer, 0, 1+len(competitors))
	all = append(all, own)
	all = append(all, competitors...)
	return all
}

func repricedOnly(decisions []domain.RepriceDecision) []domain.RepriceDecision {
	out := make([]domain.RepriceDecision, 0, len(decisions))
	for _, d := range decisions {
		if d.IsRepriced && d.NewPrice.Valid {
			out = append(out, d)
		}
	}
	return out
}

func decisionRecord(jobID, productID, vendorID string, express bool, d domain.RepriceDecision) domain.RepriceDecisionRecord {
	return domain.RepriceDecisionRecord{
		JobID:             jobID,
		ProductID:         productID,
		VendorID:          vendorID,
		MinQty:            d.MinQty,
		OldPrice:          d.OldPrice,
		NewPrice:          d.NewPrice.String(),
		GoToPrice:         d.GoToPrice.String(),
		IsRepriced:        d.IsRepriced,
		Active:            d.Active,
		Explained:         d.Explained,
		LowestVendor:      d.LowestVendor,
		LowestVendorPrice: d.LowestVendorPrice.String(),
		TriggeredByVendor: d.TriggeredByVendor,
		Context: datatypes.JSONMap{
			"express":          express,
			"lowest_vendor_id": d.LowestVendorID,
		},
	}
}
