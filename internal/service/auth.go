package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/hash"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
	"github.com/Skotchmaster/quickcommerce/pkg/tokens"
)

const minPasswordLen = 8

type AuthService struct {
	core
	Issuer tokens.Issuer
}

type AuthResult struct {
	User   *models.User `json:"user"`
	Tokens tokens.Pair  `json:"tokens"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return email, nil
}

func newAccount(name, email, phone, password, role string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: pwHash,
		Role:         role,
		ReferralCode: shortCode("", 8),
		IsActive:     true,
	}, nil
}

// Register signs up a customer. A referral code, when given, is applied in
// the same transaction so a bad code leaves no account behind.
func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	user, err := newAccount(req.Name, req.Email, req.Phone, req.Password, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.ReferralCode)
	if code != "" && (req.OrganizationID == nil || *req.OrganizationID == 0) {
		return nil, fmt.Errorf("%w: organization_id required with referral_code", ErrValidation)
	}

	err = s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		taken, err := tx.EmailTaken(ctx, user.Email)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		if code != "" {
			if _, err := applyReferral(ctx, tx, user.ID, code, *req.OrganizationID, s.now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Info("register_success", "user_id", user.ID)
	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if !user.IsActive {
		l.Warn("login_failed", "status", 401, "reason", "account disabled", "user_id", user.ID)
		return nil, fmt.Errorf("%w: account disabled", ErrUnauthorized)
	}
	return s.issue(ctx, user)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued. A revoked or unknown token is rejected.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*AuthResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(raw, s.Issuer.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	var user *models.User
	err = s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		stored, err := tx.GetRefreshToken(ctx, claims.ID)
		if err != nil {
			if repo.IsNotFound(err) {
				return fmt.Errorf("%w: refresh token not found", ErrUnauthorized)
			}
			return err
		}
		if stored.Revoked || stored.TokenHash != tokens.Sha256Hex(raw) || !stored.ExpiresAt.After(s.now()) {
			return fmt.Errorf("%w: refresh token revoked or expired", ErrUnauthorized)
		}
		ok, err := tx.RevokeRefreshToken(ctx, claims.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: refresh token already used", ErrUnauthorized)
		}
		user, err = tx.GetUser(ctx, stored.UserID)
		if err != nil {
			return notFound(err, "user")
		}
		if !user.IsActive {
			return fmt.Errorf("%w: account disabled", ErrUnauthorized)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// Logout revokes the refresh token. Unknown or already revoked tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	claims, err := tokens.RefreshClaimsFromToken(raw, s.Issuer.RefreshSecret)
	if err != nil {
		return nil
	}
	_, err = s.Repo.RevokeRefreshToken(ctx, claims.ID)
	return err
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	pair, err := s.Issuer.Issue(user.ID, user.Role, user.OrganizationID, user.StoreID, s.now())
	if err != nil {
		return nil, err
	}
	rt := &models.RefreshToken{
		JTI:       pair.RefreshJTI,
		TokenHash: tokens.Sha256Hex(pair.RefreshToken),
		UserID:    user.ID,
		ExpiresAt: pair.RefreshExp,
	}
	if err := s.Repo.CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

// PurgeExpiredTokens removes refresh tokens past their expiry.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpiredRefreshTokens(ctx, s.now())
}
