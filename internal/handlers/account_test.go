package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/madr-project/apiserver/internal/auth"
	"github.com/madr-project/apiserver/internal/services"
	"github.com/madr-project/apiserver/internal/store"
	"github.com/madr-project/apiserver/types"
)

const (
	testSalt   = "$2b$10$N9qo8uLOickgx2ZMRZoMye"
	testSecret = "test-secret"
)

type memAccountRepo struct {
	nextID   int
	accounts map[int]types.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{nextID: 1, accounts: map[int]types.Account{}}
}

func (r *memAccountRepo) GetByID(ctx context.Context, id int) (types.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (r *memAccountRepo) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	for _, account := range r.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (r *memAccountRepo) Create(ctx context.Context, account types.Account) (types.Account, error) {
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

func (r *memAccountRepo) Update(ctx context.Context, account types.Account) (types.Account, error) {
	if _, ok := r.accounts[account.ID]; !ok {
		return types.Account{}, store.ErrNotFound
	}
	r.accounts[account.ID] = account
	return account, nil
}

func (r *memAccountRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.accounts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *memAccountRepo) {
	t.Helper()

	repo := newMemAccountRepo()
	tokens := auth.NewTokenService(testSecret, "HS256", time.Hour)
	accountService := services.NewAccountService(repo, auth.NewHasher(testSalt), tokens)
	resolver := auth.NewIdentityResolver(tokens, accountService.LookupByEmail)
	authMiddleware := RequireAuth(resolver)

	router := chi.NewRouter()
	router.Route("/accounts", func(r chi.Router) {
		AccountRouter(r, accountService, authMiddleware)
	})
	return router, repo
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = strings.NewReader(string(encoded))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, router http.Handler, username, email, password string) AccountResponse {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/accounts/", "", AccountRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("register: decode response: %v", err)
	}
	return resp
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req := httptest.NewRequest(http.MethodPost, "/accounts/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login: decode response: %v", err)
	}
	if resp.TokenType != "bearer" {
		t.Fatalf("login: expected token_type bearer, got %q", resp.TokenType)
	}
	if resp.AccessToken == "" {
		t.Fatalf("login: empty access token")
	}
	return resp.AccessToken
}

func TestRegisterAccount(t *testing.T) {
	t.Parallel()

	router, repo := newTestRouter(t)

	resp := register(t, router, "fausto", "fausto@fausto.com", "1234567")
	if resp.ID < 1 {
		t.Fatalf("expected id > 0, got %d", resp.ID)
	}
	if resp.Username != "fausto" || resp.Email != "fausto@fausto.com" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// The stored record carries a hash, never the plaintext, and the
	// response body never mentions a password.
	stored := repo.accounts[resp.ID]
	if stored.PasswordHash == "1234567" || !auth.IsHashed(stored.PasswordHash) {
		t.Fatalf("password not hashed in storage: %q", stored.PasswordHash)
	}

	rec := doJSON(t, router, http.MethodPost, "/accounts/", "", AccountRequest{
		Username: "fausto",
		Email:    "fausto@fausto.com",
		Password: "1234567",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", rec.Code)
	}
}

func TestRegisterInvalidPayload(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	cases := []AccountRequest{
		{Username: "fausto", Email: "BATATA-FRITA", Password: "1234567"},
		{Username: "fausto", Password: "1234567"},
		{Email: "a@b.com", Password: "1234567"},
		{Username: "fausto", Email: "a@b.com"},
	}
	for _, payload := range cases {
		rec := doJSON(t, router, http.MethodPost, "/accounts/", "", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %+v: expected 400, got %d", payload, rec.Code)
		}
	}
}

func TestLoginAndRefresh(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	register(t, router, "fausto", "fausto@fausto.com", "1234567")

	token := login(t, router, "fausto@fausto.com", "1234567")

	rec := doJSON(t, router, http.MethodPost, "/accounts/refresh-token", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("refresh: decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Fatalf("refresh: unexpected response: %+v", resp)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	register(t, router, "fausto", "fausto@fausto.com", "1234567")

	// Unknown email and wrong password produce the same failure.
	for _, creds := range [][2]string{
		{"mistermonk@police.com", "trudy"},
		{"fausto@fausto.com", "ABC"},
	} {
		form := url.Values{}
		form.Set("username", creds[0])
		form.Set("password", creds[1])

		req := httptest.NewRequest(http.MethodPost, "/accounts/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("login %v: expected 400, got %d", creds, rec.Code)
		}
	}
}

func TestUpdateAccountOwnership(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	alpha := register(t, router, "alpha", "alpha@example.com", "1234567")
	register(t, router, "beta", "beta@example.com", "1234567")

	betaToken := login(t, router, "beta@example.com", "1234567")
	alphaToken := login(t, router, "alpha@example.com", "1234567")

	payload := AccountRequest{Username: "alpha2", Email: "alpha2@example.com", Password: "7654321"}
	path := fmt.Sprintf("/accounts/%d", alpha.ID)

	// Authenticated but not the owner: 403, not 401.
	rec := doJSON(t, router, http.MethodPut, path, betaToken, payload)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, path, alphaToken, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPut, path, "", payload)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestDeleteAccountInvalidatesTokens(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	account := register(t, router, "fausto", "fausto@fausto.com", "1234567")
	token := login(t, router, "fausto@fausto.com", "1234567")

	rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/accounts/%d", account.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The token has not expired, but its subject is gone.
	rec = doJSON(t, router, http.MethodPost, "/accounts/refresh-token", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after account deletion, got %d", rec.Code)
	}
}
