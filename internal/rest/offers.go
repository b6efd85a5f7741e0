package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"marketRepricer/domain"
	"marketRepricer/pkg/logger"
)

type (
	OfferHandler struct {
		validate *validator.Validate
		store    SnapshotStore
	}

	SnapshotStore interface {
		FindByProduct(ctx context.Context, productID string) ([]domain.Offer, error)
		UpsertBatch(ctx context.Context, snapshots []domain.OfferSnapshot) error
	}

	OfferIngestRequest struct {
		ProductID string         `json:"product_id" validate:"required"`
		Offers    []OfferPayload `json:"offers" validate:"required,min=1,dive"`
	}

	OfferPayload struct {
		VendorID              string              `json:"vendor_id" validate:"required"`
		VendorName            string              `json:"vendor_name"`
		PriceBreaks           []domain.PriceBreak `json:"price_breaks" validate:"required,min=1"`
		StandardShipping      string              `json:"standard_shipping"`
		FreeShippingThreshold *string             `json:"free_shipping_threshold"`
		BadgeID               int                 `json:"badge_id"`
		BadgeName             string              `json:"badge_name"`
		Inventory             *int                `json:"inventory"`
		InStock               bool                `json:"in_stock"`
		HandlingDays          *int                `json:"handling_days"`
	}
)

func NewOfferHandler(store SnapshotStore) *OfferHandler {
	return &OfferHandler{
		validate: validator.New(),
		store:    store,
	}
}

// Ingest replaces the stored snapshot of a product with a fresh scrape.
func (h *OfferHandler) Ingest(c echo.Context) error {
	var req OfferIngestRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	snapshots := make([]domain.OfferSnapshot, 0, len(req.Offers))
	now := time.Now()
	for _, o := range req.Offers {
		snapshot, err := o.toSnapshot(req.ProductID, now)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := h.store.UpsertBatch(c.Request().Context(), snapshots); err != nil {
		logger.Error("Failed to store offer snapshots", "product_id", req.ProductID, "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(map[string]interface{}{
		"product_id": req.ProductID,
		"offers":     len(snapshots),
	}))
}

func (h *OfferHandler) GetByProduct(c echo.Context) error {
	productID := c.Param("id")
	if productID == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "missing product id"})
	}

	offers, err := h.store.FindByProduct(c.Request().Context(), productID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(offers))
}

func (o OfferPayload) toSnapshot(productID string, capturedAt time.Time) (domain.OfferSnapshot, error) {
	breaksRaw, err := json.Marshal(o.PriceBreaks)
	if err != nil {
		return domain.OfferSnapshot{}, err
	}

	shipping, err := parseDecimalField(o.StandardShipping)
	if err != nil {
		return domain.OfferSnapshot{}, err
	}

	var threshold *decimal.Decimal
	if o.FreeShippingThreshold != nil {
		t, err := decimal.NewFromString(*o.FreeShippingThreshold)
		if err != nil {
			return domain.OfferSnapshot{}, err
		}
		threshold = &t
	}

	return domain.OfferSnapshot{
		ProductID:             productID,
		VendorID:              o.VendorID,
		VendorName:            o.VendorName,
		PriceBreaksRaw:        breaksRaw,
		StandardShipping:      shipping,
		FreeShippingThreshold: threshold,
		BadgeID:               o.BadgeID,
		BadgeName:             o.BadgeName,
		Inventory:             o.Inventory,
		InStock:               o.InStock,
		HandlingDays:          o.HandlingDays,
		CapturedAt:            capturedAt,
	}, nil
}
