package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jpdavalos423/pokecollect/internal/auth"
)

const minPasswordLength = 8

var (
	errMissingDatabase = errors.New("database handle is required")

	// ErrInvalidRegistration indicates a missing email or a password below
	// the minimum length.
	ErrInvalidRegistration = errors.New("users: email and password (min 8 chars) are required")
	// ErrEmailTaken indicates the email already belongs to an account.
	ErrEmailTaken = errors.New("users: email already registered")
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrAccountNotFound indicates no account exists for the identifier.
	ErrAccountNotFound = errors.New("users: account not found")
)

// ServiceConfig describes the account service dependencies.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages account registration and credential verification.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

func sanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account for the email and password.
func (s *Service) Register(ctx context.Context, email, password string) (Account, error) {
	normalized := sanitizeEmail(email)
	if normalized == "" || len(password) < minPasswordLength {
		return Account{}, ErrInvalidRegistration
	}

	var existing int64
	if err := s.db.WithContext(ctx).
		Model(&Account{}).
		Where("email = ?", normalized).
		Count(&existing).Error; err != nil {
		return Account{}, fmt.Errorf("users: lookup failed: %w", err)
	}
	if existing > 0 {
		return Account{}, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Account{}, fmt.Errorf("users: hash password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Account{}, fmt.Errorf("users: generate id: %w", err)
	}

	account := Account{
		ID:           id.String(),
		Email:        normalized,
		PasswordHash: hash,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Account{}, ErrEmailTaken
		}
		s.logger.Error("account creation failed", zap.String("email", normalized), zap.Error(err))
		return Account{}, fmt.Errorf("users: create failed: %w", err)
	}

	return account, nil
}

// Authenticate verifies the credentials and returns the matching account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	normalized := sanitizeEmail(email)
	if normalized == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}

	var account Account
	err := s.db.WithContext(ctx).Where("email = ?", normalized).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, fmt.Errorf("users: lookup failed: %w", err)
	}

	if !auth.VerifyPassword(account.PasswordHash, password) {
		return Account{}, ErrInvalidCredentials
	}

	return account, nil
}

// GetByID returns the account for the identifier.
func (s *Service) GetByID(ctx context.Context, userID string) (Account, error) {
	var account Account
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("users: lookup failed: %w", err)
	}
	return account, nil
}
