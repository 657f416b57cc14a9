package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/madr-project/apiserver/internal/auth"
	"github.com/madr-project/apiserver/internal/services"
	"github.com/madr-project/apiserver/internal/store"
	"github.com/madr-project/apiserver/types"
)

const tokenTypeBearer = "bearer"

// AccountHandler provides registration, login and account self-management.
type AccountHandler struct {
	accountService *services.AccountService
}

// NewAccountHandler constructs an AccountHandler with the provided dependencies.
func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// AccountRouter registers account routes on the given router.
func AccountRouter(r chi.Router, accountService *services.AccountService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewAccountHandler(accountService)

	r.Post("/", handler.Register)
	r.Post("/token", handler.Login)
	r.With(authMiddleware).Post("/refresh-token", handler.RefreshToken)
	r.Route("/{accountID}", func(r chi.Router) {
		r.With(authMiddleware).Put("/", handler.Update)
		r.With(authMiddleware).Delete("/", handler.Delete)
	})
}

// Register creates a new account.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accountService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "account already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, newAccountResponse(account))
}

// Login verifies form-encoded credentials and returns a bearer token.
// The username field carries the account email.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	email := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	token, err := h.accountService.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			writeError(w, http.StatusBadRequest, "incorrect email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: tokenTypeBearer})
}

// RefreshToken issues a fresh access token for the authenticated account.
func (h *AccountHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	token, err := h.accountService.IssueToken(account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: tokenTypeBearer})
}

// Update replaces an account's username, email and password. Only the
// owning account may do this.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, err := accountFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accountService.Update(r.Context(), identity, id, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		case errors.Is(err, auth.ErrForbidden):
			writeError(w, http.StatusForbidden, "cannot modify another account")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "account already exists")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update account")
		}
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account))
}

// Delete removes an account. Only the owning account may do this.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := accountFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.accountService.Delete(r.Context(), identity, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		case errors.Is(err, auth.ErrForbidden):
			writeError(w, http.StatusForbidden, "cannot delete another account")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete account")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "account deleted"})
}

// AccountRequest is the registration/update payload.
type AccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *AccountRequest) validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if r.Username == "" || r.Email == "" || r.Password == "" {
		return errors.New("missing required fields")
	}
	at := strings.Index(r.Email, "@")
	if at < 1 || at == len(r.Email)-1 {
		return errors.New("invalid email")
	}
	return nil
}

// AccountResponse is the public view of an account. The password hash is
// never part of it.
type AccountResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newAccountResponse(account types.Account) AccountResponse {
	return AccountResponse{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
	}
}

// TokenResponse is the login/refresh payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
