package auth

import (
	"context"
	"fmt"

	"ca-backoffice/internal/database"
)

// Service provides staff authentication and account management
type Service struct {
	repo       *database.Repository
	config     Config
	jwtManager *JWTManager
	passwords  *PasswordManager
}

// NewService creates a new authentication service
func NewService(repo *database.Repository, config Config) *Service {
	return &Service{
		repo:       repo,
		config:     config,
		jwtManager: NewJWTManager(config.JWTSecret, config.AccessTokenDuration),
		passwords:  NewPasswordManager(config.BcryptCost, config.MinPasswordLength),
	}
}

// GetJWTManager returns the JWT manager for use by middleware
func (s *Service) GetJWTManager() *JWTManager {
	return s.jwtManager
}

// Login authenticates a staff member and issues a session token
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	staff, err := s.repo.GetStaffByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up staff: %w", err)
	}
	if staff == nil {
		return nil, ErrInvalidCredentials
	}
	if !s.passwords.VerifyPassword(req.Password, staff.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if staff.Status != database.StaffActive {
		return nil, ErrAccountInactive
	}

	token, err := s.jwtManager.GenerateAccessToken(StaffClaims{
		StaffID: staff.ID,
		Email:   staff.Email,
		Name:    staff.Name,
		Role:    staff.Role,
		IsAdmin: staff.Role == database.RoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &LoginResponse{
		StaffID:     staff.ID,
		Name:        staff.Name,
		Email:       staff.Email,
		Role:        staff.Role,
		AccessToken: token,
		ExpiresIn:   s.jwtManager.GetAccessTokenDuration(),
		TokenType:   "Bearer",
	}, nil
}

// CreateStaff registers a new staff account with a hashed password
func (s *Service) CreateStaff(ctx context.Context, staff *database.Staff, password string) error {
	existing, err := s.repo.GetStaffByEmail(ctx, staff.Email)
	if err != nil {
		return fmt.Errorf("failed to look up staff: %w", err)
	}
	if existing != nil {
		return ErrEmailExists
	}

	if err := s.passwords.ValidatePasswordStrength(password); err != nil {
		return err
	}
	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		return err
	}
	staff.PasswordHash = hash

	return s.repo.CreateStaff(ctx, staff)
}

// ChangePassword verifies the current password and replaces it
func (s *Service) ChangePassword(ctx context.Context, staffID string, req ChangePasswordRequest) error {
	staff, err := s.repo.GetStaffByID(ctx, staffID)
	if err != nil {
		return fmt.Errorf("failed to look up staff: %w", err)
	}
	if staff == nil {
		return ErrStaffNotFound
	}
	if !s.passwords.VerifyPassword(req.CurrentPassword, staff.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := s.passwords.ValidatePasswordStrength(req.NewPassword); err != nil {
		return err
	}

	hash, err := s.passwords.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdateStaffPassword(ctx, staffID, hash)
}

// GetStaffByID fetches a staff profile
func (s *Service) GetStaffByID(ctx context.Context, staffID string) (*database.Staff, error) {
	return s.repo.GetStaffByID(ctx, staffID)
}

// SeedAdmin creates the initial admin account when no staff exist yet.
// Without it a fresh install has no identity able to activate a license.
func (s *Service) SeedAdmin(ctx context.Context, name, email, password string) error {
	existing, err := s.repo.GetStaffByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	staff := &database.Staff{
		Name:   name,
		Email:  email,
		Role:   database.RoleAdmin,
		Status: database.StaffActive,
	}
	return s.CreateStaff(ctx, staff, password)
}
