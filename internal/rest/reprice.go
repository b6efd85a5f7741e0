package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"marketRepricer/domain"
	"marketRepricer/pkg/logger"
	"marketRepricer/pkg/metrics"
)

type (
	RepriceHandler struct {
		validate *validator.Validate
		service  RepricerService
		vendorID string
	}

	RepricerService interface {
		RunBatch(ctx context.Context, vendorID string) (domain.RepriceJob, error)
		DecideProduct(ctx context.Context, vendorID, productID string) ([]domain.RepriceDecision, error)
		GetJob(ctx context.Context, jobID string) (domain.RepriceJob, []domain.RepriceDecisionRecord, error)
		GetRecentJobs(ctx context.Context, limit int) ([]domain.RepriceJob, error)
	}

	DecideQuery struct {
		VendorID string `query:"vendor_id"`
	}
)

// NewRepriceHandler wires the handler; vendorID is the operating vendor
// used when a request does not name one.
func NewRepriceHandler(svc RepricerService, vendorID string) *RepriceHandler {
	return &RepriceHandler{
		validate: validator.New(),
		service:  svc,
		vendorID: vendorID,
	}
}

// RunBatch kicks off a synchronous batch run over every known product.
func (h *RepriceHandler) RunBatch(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.RepriceRequestLatency.Observe(time.Since(start).Seconds())
	}()

	metrics.BatchRunsTotal.WithLabelValues("api").Inc()

	job, err := h.service.RunBatch(c.Request().Context(), h.vendorID)
	if err != nil {
		logger.Error("Batch run failed", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(job))
}

// DecideProduct is the dry-run endpoint: it computes and returns decisions
// for one product without persisting or pushing anything.
func (h *RepriceHandler) DecideProduct(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.RepriceRequestLatency.Observe(time.Since(start).Seconds())
	}()

	productID := c.Param("id")
	if productID == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "missing product id"})
	}

	var q DecideQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	vendorID := q.VendorID
	if vendorID == "" {
		vendorID = h.vendorID
	}

	decisions, err := h.service.DecideProduct(c.Request().Context(), vendorID, productID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		logger.Error("Dry-run decision failed", "product_id", productID, "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(decisions))
}

func (h *RepriceHandler) GetJob(c echo.Context) error {
	jobID := c.Param("id")
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "missing job id"})
	}

	job, records, err := h.service.GetJob(c.Request().Context(), jobID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"job":       job,
		"decisions": records,
	}))
}

func (h *RepriceHandler) GetRecentJobs(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid limit"})
		}
		limit = parsed
	}

	jobs, err := h.service.GetRecentJobs(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(jobs))
}
