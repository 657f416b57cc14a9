package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/madr-project/apiserver/internal/auth"
	"github.com/madr-project/apiserver/internal/store"
	"github.com/madr-project/apiserver/types"
)

// fakeAccountRepo is an in-memory AccountRepository. It enforces the same
// uniqueness rules the database schema does.
type fakeAccountRepo struct {
	nextID   int
	accounts map[int]types.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{nextID: 1, accounts: map[int]types.Account{}}
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id int) (types.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (r *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	for _, account := range r.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (r *fakeAccountRepo) Create(ctx context.Context, account types.Account) (types.Account, error) {
	for _, existing := range r.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return types.Account{}, store.ErrConflict
		}
	}
	account.ID = r.nextID
	account.CreatedAt = time.Now()
	r.nextID++
	r.accounts[account.ID] = account
	return account, nil
}

func (r *fakeAccountRepo) Update(ctx context.Context, account types.Account) (types.Account, error) {
	if _, ok := r.accounts[account.ID]; !ok {
		return types.Account{}, store.ErrNotFound
	}
	for _, existing := range r.accounts {
		if existing.ID == account.ID {
			continue
		}
		if existing.Username == account.Username || existing.Email == account.Email {
			return types.Account{}, store.ErrConflict
		}
	}
	r.accounts[account.ID] = account
	return account, nil
}

func (r *fakeAccountRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.accounts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

const (
	testSalt   = "$2b$10$N9qo8uLOickgx2ZMRZoMye"
	testSecret = "test-secret"
)

func newTestAccountService() (*AccountService, *fakeAccountRepo, *auth.TokenService) {
	repo := newFakeAccountRepo()
	tokens := auth.NewTokenService(testSecret, "HS256", time.Hour)
	svc := NewAccountService(repo, auth.NewHasher(testSalt), tokens)
	return svc, repo, tokens
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, repo, _ := newTestAccountService()

	account, err := svc.Register(ctx, "Fausto", "fausto@fausto.com", "1234567")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if account.ID < 1 {
		t.Fatalf("expected assigned id, got %d", account.ID)
	}
	if account.Username != "fausto" {
		t.Fatalf("expected sanitized username, got %q", account.Username)
	}

	stored := repo.accounts[account.ID]
	if stored.PasswordHash == "1234567" {
		t.Fatalf("password stored in plaintext")
	}
	if !auth.IsHashed(stored.PasswordHash) {
		t.Fatalf("stored password %q is not a hash", stored.PasswordHash)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, _ := newTestAccountService()

	if _, err := svc.Register(ctx, "fausto", "fausto@fausto.com", "1234567"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if _, err := svc.Register(ctx, "fausto", "fausto@fausto.com", "1234567"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, tokens := newTestAccountService()

	account, err := svc.Register(ctx, "fausto", "fausto@fausto.com", "1234567")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	token, err := svc.Authenticate(ctx, "fausto@fausto.com", "1234567")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}

	resolver := auth.NewIdentityResolver(tokens, svc.LookupByEmail)
	resolved, err := resolver.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if resolved.ID != account.ID {
		t.Fatalf("resolved wrong account: %+v", resolved)
	}
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, _ := newTestAccountService()

	if _, err := svc.Register(ctx, "fausto", "fausto@fausto.com", "1234567"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	// Wrong password and unknown email fail identically.
	if _, err := svc.Authenticate(ctx, "fausto@fausto.com", "wrong"); !errors.Is(err, auth.ErrBadCredentials) {
		t.Fatalf("wrong password: expected ErrBadCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "mistermonk@police.com", "trudy"); !errors.Is(err, auth.ErrBadCredentials) {
		t.Fatalf("unknown email: expected ErrBadCredentials, got %v", err)
	}
}

func TestUpdateOwnership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, _ := newTestAccountService()

	alpha, err := svc.Register(ctx, "alpha", "alpha@example.com", "1234567")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	beta, err := svc.Register(ctx, "beta", "beta@example.com", "1234567")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	// Beta may not touch alpha's account, valid token or not.
	if _, err := svc.Update(ctx, beta, alpha.ID, "hacked", "hacked@example.com", "pwned"); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	updated, err := svc.Update(ctx, alpha, alpha.ID, "alpha2", "alpha2@example.com", "7654321")
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Username != "alpha2" || updated.Email != "alpha2@example.com" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestDeleteOwnership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, repo, tokens := newTestAccountService()

	alpha, err := svc.Register(ctx, "alpha", "alpha@example.com", "1234567")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	beta, err := svc.Register(ctx, "beta", "beta@example.com", "1234567")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := svc.Delete(ctx, beta, alpha.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	token, err := svc.Authenticate(ctx, "alpha@example.com", "1234567")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}

	if err := svc.Delete(ctx, alpha, alpha.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok := repo.accounts[alpha.ID]; ok {
		t.Fatalf("account still present after delete")
	}

	// The unexpired token no longer resolves once the account is gone.
	resolver := auth.NewIdentityResolver(tokens, svc.LookupByEmail)
	if _, err := resolver.Resolve(ctx, token); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after deletion, got %v", err)
	}
}
