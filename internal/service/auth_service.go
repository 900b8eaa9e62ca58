// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"os"
	"time"

	"ai-deskmate-be/internal/dto"
	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/pkg/logger"
	"ai-deskmate-be/internal/repository/specification"
	"ai-deskmate-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 1. Check if operator exists
	operator, err := uow.OperatorRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, errors.New("invalid credentials")
	}
	if operator == nil {
		return nil, errors.New("invalid credentials")
	}

	// 2. Seeded accounts always carry a hash, but guard anyway
	if operator.PasswordHash == nil {
		return nil, errors.New("invalid credentials")
	}

	// 3. Compare passwords
	err = bcrypt.CompareHashAndPassword([]byte(*operator.PasswordHash), []byte(req.Password))
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	// 4. Check if operator is disabled
	if operator.Status == entity.OperatorStatusDisabled {
		return nil, errors.New("operator account is disabled")
	}

	// 5. Generate JWT
	accessTokenExpiry := time.Hour * 24

	claims := jwt.MapClaims{
		"operator_id": operator.Id.String(),
		"email":       operator.Email,
		"role":        string(operator.Role),
		"exp":         time.Now().Add(accessTokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_secret"
	}
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	// 6. Record the login time, best effort
	now := time.Now()
	operator.LastLoginAt = &now
	if err := uow.OperatorRepository().Update(ctx, operator); err != nil {
		s.logger.Warn("AuthService", "Failed to record last login", map[string]interface{}{
			"operator_id": operator.Id,
			"error":       err,
		})
	}

	return &dto.AdminLoginResponse{
		Token:    signedToken,
		Email:    operator.Email,
		FullName: operator.FullName,
		Role:     string(operator.Role),
	}, nil
}
