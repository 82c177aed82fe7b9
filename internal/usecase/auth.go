package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/polkiloo/creditledger/internal/config"
	domainErrors "github.com/polkiloo/creditledger/internal/domain/errors"
	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/domain/repository"
	pkgAuth "github.com/polkiloo/creditledger/internal/pkg/auth"
)

// AuthUseCase handles user lifecycle and token management.
type AuthUseCase struct {
	users  repository.UserRepository
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.Strategy
	cfg    *config.Config
}

// NewAuthUseCase constructs AuthUseCase. Logins listed in cfg.AdminLogins are
// reserved: they register only with cfg.AdminSecret and then act as administrators.
func NewAuthUseCase(users repository.UserRepository, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy, cfg *config.Config) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: strategy, cfg: cfg}
}

// Register creates a new user with login/password and returns auth token.
// adminSecret is only checked for reserved admin logins.
func (u *AuthUseCase) Register(ctx context.Context, login, password, adminSecret string) (*model.User, string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	role := model.RoleUser
	if u.isAdminLogin(login) {
		if !u.adminSecretMatches(adminSecret) {
			return nil, "", domainErrors.ErrForbidden
		}
		role = model.RoleAdmin
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	usr, err := u.users.Create(ctx, login, hash, role)
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, "", domainErrors.ErrAlreadyExists
		}
		return nil, "", err
	}

	token, err := u.tokens.IssueToken(usr.ID)
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// Authenticate validates credentials and returns auth token.
func (u *AuthUseCase) Authenticate(ctx context.Context, login, password string) (*model.User, string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	token, err := u.tokens.IssueToken(usr.ID)
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// ParseToken extracts user ID from provided token.
func (u *AuthUseCase) ParseToken(token string) (int64, error) {
	if token == "" {
		return 0, pkgAuth.ErrInvalidToken
	}
	return u.tokens.ParseToken(token)
}

// GetByID fetches user by identifier.
func (u *AuthUseCase) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return u.users.GetByID(ctx, id)
}

// UserRole returns the role of the user with given id. Admin rights need both
// the stored role and a login still listed in the configuration, so removing
// a login from the list revokes them without touching the database.
func (u *AuthUseCase) UserRole(ctx context.Context, id int64) (model.Role, error) {
	usr, err := u.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if usr.IsAdmin() && u.isAdminLogin(usr.Login) {
		return model.RoleAdmin, nil
	}
	return model.RoleUser, nil
}

func (u *AuthUseCase) isAdminLogin(login string) bool {
	return u.cfg != nil && u.cfg.IsAdminLogin(login)
}

func (u *AuthUseCase) adminSecretMatches(secret string) bool {
	if u.cfg == nil || u.cfg.AdminSecret == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(u.cfg.AdminSecret)) == 1
}
