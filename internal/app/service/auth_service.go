package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bandroom/internal/common"
	"bandroom/internal/common/security"
	"bandroom/internal/domain/model"
	"bandroom/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo repository.UserRepository
	throttle *LoginThrottle
}

func NewAuthService(userRepo repository.UserRepository, throttle *LoginThrottle) *AuthService {
	return &AuthService{userRepo: userRepo, throttle: throttle}
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=64"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	// Explicit existence check for a clean conflict; the unique constraint on
	// users.email is the arbiter when two registrations race, and the loser
	// surfaces the same conflict.
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashedPassword,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Phone:          strings.TrimSpace(req.Phone),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict on the unique-violation race
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = "" // Clear password before returning
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	if !s.throttle.Allow(ctx, email) {
		return nil, fmt.Errorf("login attempts exceeded: %w", common.ErrTooManyRequests)
	}

	// "No such user" and "wrong password" must stay indistinguishable to the
	// caller to prevent account enumeration.
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.throttle.RecordFailure(ctx, email)
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	match, err := security.VerifyPassword(req.Password, user.HashedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		s.throttle.RecordFailure(ctx, email)
		return nil, common.ErrUnauthorized
	}

	s.throttle.Reset(ctx, email)

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
