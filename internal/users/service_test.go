package users

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/jpdavalos423/pokecollect/internal/auth"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("unexpected database error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unexpected database error: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Account{}); err != nil {
		t.Fatalf("unexpected migration error: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	service, err := NewService(ServiceConfig{Database: db, Clock: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service
}

func TestRegisterCreatesAccount(t *testing.T) {
	service := newTestService(t)

	account, err := service.Register(context.Background(), "  Ash@Example.COM ", "pikachu-forever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.ID == "" {
		t.Fatalf("expected a generated account id")
	}
	if account.Email != "ash@example.com" {
		t.Fatalf("expected normalized email, got %q", account.Email)
	}
	if account.PasswordHash == "pikachu-forever" || account.PasswordHash == "" {
		t.Fatalf("expected a stored hash, got %q", account.PasswordHash)
	}
	if !auth.VerifyPassword(account.PasswordHash, "pikachu-forever") {
		t.Fatalf("stored hash must verify the original password")
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, "", "pikachu-forever"); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("expected ErrInvalidRegistration for empty email, got %v", err)
	}
	if _, err := service.Register(ctx, "ash@example.com", "short"); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("expected ErrInvalidRegistration for short password, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, "ash@example.com", "pikachu-forever"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.Register(ctx, "ASH@example.com", "different-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, "ash@example.com", "pikachu-forever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	account, err := service.Authenticate(ctx, "Ash@Example.com", "pikachu-forever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.ID != registered.ID {
		t.Fatalf("expected the registered account, got %s", account.ID)
	}

	if _, err := service.Authenticate(ctx, "ash@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := service.Authenticate(ctx, "misty@example.com", "pikachu-forever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := service.Authenticate(ctx, "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for blank input, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, "ash@example.com", "pikachu-forever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	account, err := service.GetByID(ctx, registered.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Email != "ash@example.com" {
		t.Fatalf("unexpected account: %+v", account)
	}

	if _, err := service.GetByID(ctx, "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
