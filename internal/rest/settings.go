package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"marketRepricer/domain"
	"marketRepricer/pkg/logger"
)

type (
	SettingsHandler struct {
		validate *validator.Validate
		service  SettingsService
		vendorID string
	}

	SettingsService interface {
		GetEffectiveSettings(ctx context.Context, vendorID, productID string) (domain.ProductSettings, error)
		UpsertSettings(ctx context.Context, settings *domain.ProductSettings) error
	}

	SettingsUpsertRequest struct {
		ProductID              string   `json:"product_id"`
		VendorID               string   `json:"vendor_id"`
		FloorPrice             string   `json:"floor_price"`
		MaxPrice               string   `json:"max_price"`
		PriceOffset            string   `json:"price_offset"`
		PercentageDown         string   `json:"percentage_down"`
		BadgePercentage        string   `json:"badge_percentage"`
		BadgeIndicator         string   `json:"badge_indicator" validate:"omitempty,oneof=NONE BADGE_ONLY NON_BADGE_ONLY ALL_PERCENTAGE"`
		ExcludedVendorIDs      []string `json:"excluded_vendor_ids"`
		SisterVendorIDs        []string `json:"sister_vendor_ids"`
		BuyBoxVendorIDs        []string `json:"buybox_vendor_ids"`
		CompeteAll             bool     `json:"compete_all"`
		CompeteWithNext        bool     `json:"compete_with_next"`
		RepricingRule          string   `json:"repricing_rule" validate:"omitempty,oneof=ONLY_UP ONLY_DOWN BOTH"`
		IgnorePhantomQBreak    bool     `json:"ignore_phantom_qbreak"`
		InventoryThreshold     *int     `json:"inventory_threshold"`
		IncludeInactiveVendors bool     `json:"include_inactive_vendors"`
		HandlingTimeFilter     string   `json:"handling_time_filter" validate:"omitempty,oneof=FAST_SHIPPING STOCKED LONG_HANDLING"`
		KeepPosition           bool     `json:"keep_position"`
		MinIncreasePercent     string   `json:"min_increase_percent"`
		BeatQThreshold         string   `json:"beat_q_threshold"`
		SuppressQBreakOverride bool     `json:"suppress_qbreak_override"`
		AbortQDeactivation     bool     `json:"abort_q_deactivation"`
	}
)

func NewSettingsHandler(svc SettingsService, vendorID string) *SettingsHandler {
	return &SettingsHandler{
		validate: validator.New(),
		service:  svc,
		vendorID: vendorID,
	}
}

// GetSettings returns the effective settings for a product, after the
// global default fallback is applied.
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	productID := c.Param("id")
	vendorID := c.QueryParam("vendor_id")
	if vendorID == "" {
		vendorID = h.vendorID
	}

	st, err := h.service.GetEffectiveSettings(c.Request().Context(), vendorID, productID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(st))
}

func (h *SettingsHandler) UpsertSettings(c echo.Context) error {
	var req SettingsUpsertRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	st, err := req.toSettings(h.vendorID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.service.UpsertSettings(c.Request().Context(), &st); err != nil {
		if strings.Contains(err.Error(), "required") {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(st))
}

func (r SettingsUpsertRequest) toSettings(defaultVendorID string) (domain.ProductSettings, error) {
	vendorID := r.VendorID
	if vendorID == "" {
		vendorID = defaultVendorID
	}

	floor, err := parseDecimalField(r.FloorPrice)
	if err != nil {
		return domain.ProductSettings{}, err
	}
	maxPrice, err := parseDecimalField(r.MaxPrice)
	if err != nil {
		return domain.ProductSettings{}, err
	}
	offset, err := parseDecimalField(r.PriceOffset)
	if err != nil {
		return domain.ProductSettings{}, err
	}
	badgePct, err := parseDecimalField(r.BadgePercentage)
	if err != nil {
		return domain.ProductSettings{}, err
	}
	minIncrease, err := parseDecimalField(r.MinIncreasePercent)
	if err != nil {
		return domain.ProductSettings{}, err
	}
	beatQ, err := parseDecimalField(r.BeatQThreshold)
	if err != nil {
		return domain.ProductSettings{}, err
	}

	return domain.ProductSettings{
		ProductID:              r.ProductID,
		VendorID:               vendorID,
		FloorPrice:             floor,
		MaxPrice:               maxPrice,
		PriceOffset:            offset,
		PercentageDown:         r.PercentageDown,
		BadgePercentage:        badgePct,
		BadgeIndicator:         domain.BadgeIndicator(r.BadgeIndicator),
		ExcludedVendorIDs:      datatypes.NewJSONSlice(r.ExcludedVendorIDs),
		SisterVendorIDs:        datatypes.NewJSONSlice(r.SisterVendorIDs),
		BuyBoxVendorIDs:        datatypes.NewJSONSlice(r.BuyBoxVendorIDs),
		CompeteAll:             r.CompeteAll,
		CompeteWithNext:        r.CompeteWithNext,
		RepricingRule:          domain.RepricingRule(r.RepricingRule),
		IgnorePhantomQBreak:    r.IgnorePhantomQBreak,
		InventoryThreshold:     r.InventoryThreshold,
		IncludeInactiveVendors: r.IncludeInactiveVendors,
		HandlingTimeFilter:     domain.HandlingTimeFilter(r.HandlingTimeFilter),
		KeepPosition:           r.KeepPosition,
		MinIncreasePercent:     minIncrease,
		BeatQThreshold:         beatQ,
		SuppressQBreakOverride: r.SuppressQBreakOverride,
		AbortQDeactivation:     r.AbortQDeactivation,
	}, nil
}

func parseDecimalField(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
