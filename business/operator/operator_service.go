package operator

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"

	"marketRepricer/domain"
	"marketRepricer/pkg/logger"
	"marketRepricer/pkg/utils"
)

// OperatorRepository contract interface
type OperatorRepository interface {
	Create(ctx context.Context, operator *domain.Operator) error
	FindByID(ctx context.Context, id uint) (domain.Operator, error)
	FindByEmail(ctx context.Context, email string) (domain.Operator, error)
}

const (
	RoleViewer = "viewer"
	RoleAdmin  = "admin"
)

var validRoles = map[string]bool{
	RoleViewer: true,
	RoleAdmin:  true,
}

type operatorService struct {
	operatorRepo OperatorRepository
	validate     *validator.Validate
}

func NewOperatorService(operatorRepo OperatorRepository, validate *validator.Validate) *operatorService {
	return &operatorService{
		operatorRepo: operatorRepo,
		validate:     validate,
	}
}

func (s *operatorService) Register(ctx context.Context, operator *domain.Operator) (domain.Operator, error) {
	if err := s.validate.Var(operator.Email, "required,email"); err != nil {
		logger.Error("Invalid email format", "error", err)
		return domain.Operator{}, errors.New("invalid email format")
	}

	if err := s.validate.Var(operator.Password, "required,min=6"); err != nil {
		logger.Error("Invalid operator password", "error", err)
		return domain.Operator{}, errors.New("password must be at least 6 characters")
	}

	if operator.Role != "" && !validRoles[operator.Role] {
		return domain.Operator{}, errors.New("invalid role")
	}

	existing, err := s.operatorRepo.FindByEmail(ctx, operator.Email)
	if err == nil && existing.ID > 0 {
		logger.Error("Email already exists", "email", operator.Email)
		return domain.Operator{}, errors.New("email already exists")
	}

	passwordHash, err := utils.HashPassword(operator.Password)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return domain.Operator{}, errors.New("failed to hash password")
	}

	newOperator := domain.Operator{
		FullName: operator.FullName,
		Email:    operator.Email,
		Password: string(passwordHash),
		Role:     operator.Role,
	}
	if newOperator.Role == "" {
		newOperator.Role = RoleViewer
	}

	if err := s.operatorRepo.Create(ctx, &newOperator); err != nil {
		logger.Error("Failed to create operator", "error", err)
		return domain.Operator{}, err
	}

	newOperator.Password = ""
	return newOperator, nil
}

func (s *operatorService) Login(ctx context.Context, email, password string) (string, domain.Operator, error) {
	operator, err := s.operatorRepo.FindByEmail(ctx, email)
	if err != nil {
		logger.Error("Invalid operator credentials", "error", err)
		return "", domain.Operator{}, err
	}

	if !utils.CheckPassword(password, operator.Password) {
		logger.Error("Operator password incorrect", "email", email)
		return "", domain.Operator{}, errors.New("incorrect password")
	}

	operatorIDStr := strconv.FormatUint(uint64(operator.ID), 10)
	token, err := utils.GenerateJWT(operatorIDStr, operator.Role)
	if err != nil {
		logger.Error("Failed to generate token", "error", err)
		return "", domain.Operator{}, errors.New("failed to generate token")
	}

	operator.Password = ""
	return token, operator, nil
}

func (s *operatorService) GetOperatorByID(ctx context.Context, id uint) (domain.Operator, error) {
	operator, err := s.operatorRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get operator by ID", "error", err)
		return domain.Operator{}, err
	}

	operator.Password = ""
	return operator, nil
}
