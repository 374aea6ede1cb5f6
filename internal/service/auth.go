package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/royaljewels/shop/internal/hash"
	"github.com/royaljewels/shop/internal/models"
	"github.com/royaljewels/shop/internal/repo"
	"github.com/royaljewels/shop/internal/tokens"
	"github.com/royaljewels/shop/internal/transport"
)

const accessTokenTTL = 24 * time.Hour

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("%w: valid email required", ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	if _, err := s.Repo.UserByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
		Address:      req.Address,
		Phone:        req.Phone,
		IsActive:     true,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*transport.LoginResponse, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown email or wrong password", ErrInvalidCredentials)
		}
		return nil, err
	}

	if user.IsBanned {
		return nil, fmt.Errorf("%w: account is banned", ErrForbidden)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: unknown email or wrong password", ErrInvalidCredentials)
	}

	exp := time.Now().Add(accessTokenTTL)
	token, err := tokens.NewAccessToken(user.ID, user.Role, s.JWTSecret, exp)
	if err != nil {
		return nil, err
	}

	return &transport.LoginResponse{
		Token:     token,
		ExpiresAt: exp,
		IsAdmin:   user.Role == models.RoleAdmin,
	}, nil
}
