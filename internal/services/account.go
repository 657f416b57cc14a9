package services

import (
	"context"
	"errors"

	"github.com/madr-project/apiserver/internal/auth"
	"github.com/madr-project/apiserver/internal/sanitize"
	"github.com/madr-project/apiserver/internal/store"
	"github.com/madr-project/apiserver/types"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id int) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	Update(ctx context.Context, account types.Account) (types.Account, error)
	Delete(ctx context.Context, id int) error
}

// AccountService encapsulates registration, login and the self-only
// mutation policy for accounts.
type AccountService struct {
	repo   AccountRepository
	hasher *auth.Hasher
	tokens *auth.TokenService
}

func NewAccountService(repo AccountRepository, hasher *auth.Hasher, tokens *auth.TokenService) *AccountService {
	return &AccountService{repo: repo, hasher: hasher, tokens: tokens}
}

// Register creates an account with a sanitized username and a hashed
// password. A duplicate username or email surfaces as store.ErrConflict
// from the database constraint, which is the authoritative guard against
// racing registrations.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (types.Account, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return types.Account{}, err
	}

	return s.repo.Create(ctx, types.Account{
		Username:     sanitize.String(username),
		Email:        email,
		PasswordHash: hashed,
	})
}

// Authenticate verifies the email/password pair and issues an access
// token for the account. An unknown email and a wrong password both fail
// with the same auth.ErrBadCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (string, error) {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", auth.ErrBadCredentials
		}
		return "", err
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return "", auth.ErrBadCredentials
	}

	return s.IssueToken(account)
}

// IssueToken signs a fresh access token for an already-resolved account.
func (s *AccountService) IssueToken(account types.Account) (string, error) {
	return s.tokens.Issue(map[string]any{auth.ClaimSubject: account.Email})
}

// Update replaces the target account's username, email and password.
// Only the owner may update an account; anyone else gets
// auth.ErrForbidden even with a valid token.
func (s *AccountService) Update(ctx context.Context, identity types.Account, id int, username, email, password string) (types.Account, error) {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Account{}, err
	}
	if target.ID != identity.ID {
		return types.Account{}, auth.ErrForbidden
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return types.Account{}, err
	}

	target.Username = sanitize.String(username)
	target.Email = email
	target.PasswordHash = hashed
	return s.repo.Update(ctx, target)
}

// Delete removes the target account. Only the owner may delete it.
// Outstanding tokens are not revoked; they die at the identity-resolution
// step once the account is gone.
func (s *AccountService) Delete(ctx context.Context, identity types.Account, id int) error {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target.ID != identity.ID {
		return auth.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

// LookupByEmail adapts the repository for auth.IdentityResolver.
func (s *AccountService) LookupByEmail(ctx context.Context, email string) (types.Account, error) {
	return s.repo.GetByEmail(ctx, email)
}
