package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/predyx/exchange/internal/config"
	"github.com/predyx/exchange/internal/domain"
	"github.com/predyx/exchange/internal/repository"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// JWT claims
// ──────────────────────────────────────────────────────────────────────────────

// AppClaims extends jwt.RegisteredClaims with application-specific fields.
type AppClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthService
// ──────────────────────────────────────────────────────────────────────────────

// AuthService issues and validates bearer tokens and provisions trader
// accounts via the admin dev-script. There is no password flow; identity is
// asserted by whoever holds the admin token.
type AuthService struct {
	db         *sqlx.DB
	userRepo   *repository.UserRepository
	walletRepo *repository.WalletRepository
	cfg        *config.Config
}

// NewAuthService creates an AuthService.
func NewAuthService(
	db *sqlx.DB,
	userRepo *repository.UserRepository,
	walletRepo *repository.WalletRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		db:         db,
		userRepo:   userRepo,
		walletRepo: walletRepo,
		cfg:        cfg,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ProvisionUser — admin dev-script
// ──────────────────────────────────────────────────────────────────────────────

// ProvisionUser returns a signed token for the user with the given email,
// creating the account with seeded wallets on first use. The user row, the
// three wallet rows, and the seed audit records are written in one atomic
// transaction.
func (s *AuthService) ProvisionUser(ctx context.Context, email string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, fmt.Errorf("auth_service.ProvisionUser: lookup: %w", err)
		}
		user, err = s.createUser(ctx, email)
		if errors.Is(err, domain.ErrUserExists) {
			// Lost a provisioning race; the row exists now.
			user, err = s.userRepo.GetByEmail(ctx, email)
		}
		if err != nil {
			return "", nil, fmt.Errorf("auth_service.ProvisionUser: create: %w", err)
		}
	}

	token, err := s.IssueToken(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("auth_service.ProvisionUser: token: %w", err)
	}
	return token, user, nil
}

// createUser inserts the user with the three seeded wallets atomically.
func (s *AuthService) createUser(ctx context.Context, email string) (*domain.User, error) {
	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Role:      domain.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	seeds := map[domain.WalletKind]decimal.Decimal{
		domain.WalletTopup:  decimal.NewFromFloat(s.cfg.Wallet.SeedTopup),
		domain.WalletProfit: decimal.NewFromFloat(s.cfg.Wallet.SeedProfit),
		domain.WalletBonus:  decimal.NewFromFloat(s.cfg.Wallet.SeedBonus),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("auth_service.createUser: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.userRepo.Create(ctx, tx, user); err != nil {
		return nil, err
	}
	if err = s.walletRepo.CreateSet(ctx, tx, user.ID, seeds); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("auth_service.createUser: commit: %w", err)
	}
	return user, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Token helpers
// ──────────────────────────────────────────────────────────────────────────────

// IssueToken creates a signed bearer token for the given user and role.
func (s *AuthService) IssueToken(userID uuid.UUID, role domain.UserRole) (string, error) {
	now := time.Now().UTC()
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.TTL)),
		},
		Role: string(role),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", fmt.Errorf("auth_service.IssueToken: sign: %w", err)
	}
	return token, nil
}

// ParseToken validates the token signature, algorithm, and expiry.
func (s *AuthService) ParseToken(tokenString string) (*AppClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, domain.ErrTokenInvalid
	}
	claims, ok := tok.Claims.(*AppClaims)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
