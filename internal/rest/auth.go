package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"marketRepricer/domain"
	"marketRepricer/pkg/logger"
)

type OperatorService interface {
	Register(ctx context.Context, operator *domain.Operator) (domain.Operator, error)
	Login(ctx context.Context, email, password string) (string, domain.Operator, error)
	GetOperatorByID(ctx context.Context, id uint) (domain.Operator, error)
}

type AuthHandler struct {
	operatorService OperatorService
	validator       *validator.Validate
	timeout         time.Duration
}

func NewAuthHandler(operatorService OperatorService) *AuthHandler {
	return &AuthHandler{
		operatorService: operatorService,
		validator:       validator.New(),
		timeout:         10 * time.Second,
	}
}

type OperatorRegisterRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=viewer admin"`
}

type OperatorLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req OperatorRegisterRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate operator register", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	operator, err := h.operatorService.Register(ctx, &domain.Operator{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		logger.Error("Failed to register operator", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":  "Operator registered successfully",
		"operator": operator,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req OperatorLoginRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate operator login", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	token, operator, err := h.operatorService.Login(ctx, req.Email, req.Password)
	if err != nil {
		logger.Error("Failed to login operator", "error", err)
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "Login successful",
		"token":    token,
		"operator": operator,
	})
}

func (h *AuthHandler) GetOperatorByID(c echo.Context) error {
	id := c.Param("id")

	var operatorID uint
	if _, err := fmt.Sscan(id, &operatorID); err != nil {
		logger.Error("Invalid operator ID", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid operator ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	operator, err := h.operatorService.GetOperatorByID(ctx, operatorID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "Operator retrieved successfully",
		"operator": operator,
	})
}
