package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"marketRepricer/pkg/logger"
)

type (
	FlagHandler struct {
		validate *validator.Validate
		flags    FlagStore
		vendorID string
	}

	FlagStore interface {
		ExpressModeActive(ctx context.Context, vendorID string) (bool, error)
		SetExpressMode(ctx context.Context, vendorID string, active bool, ttl time.Duration) error
	}

	ExpressModeRequest struct {
		Active     bool `json:"active"`
		TTLMinutes int  `json:"ttl_minutes" validate:"omitempty,gt=0"`
	}
)

const defaultExpressTTL = 60 * time.Minute

func NewFlagHandler(flags FlagStore, vendorID string) *FlagHandler {
	return &FlagHandler{
		validate: validator.New(),
		flags:    flags,
		vendorID: vendorID,
	}
}

func (h *FlagHandler) GetExpressMode(c echo.Context) error {
	active, err := h.flags.ExpressModeActive(c.Request().Context(), h.vendorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"express_mode": active,
	}))
}

// SetExpressMode toggles the express override. While raised, batch runs
// record their decisions but revert every suggested price unpushed.
func (h *FlagHandler) SetExpressMode(c echo.Context) error {
	var req ExpressModeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ttl := defaultExpressTTL
	if req.TTLMinutes > 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}

	if err := h.flags.SetExpressMode(c.Request().Context(), h.vendorID, req.Active, ttl); err != nil {
		logger.Error("Failed to toggle express mode", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"express_mode": req.Active,
	}))
}
