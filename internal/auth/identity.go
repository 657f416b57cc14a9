package auth

import (
	"context"
	"strings"

	"github.com/madr-project/apiserver/types"
)

// AccountLookup resolves an account by email. The store layer provides the
// real implementation; tests inject fakes.
type AccountLookup func(ctx context.Context, email string) (types.Account, error)

// IdentityResolver turns an inbound bearer token into the account it was
// issued for. It is the sole mechanism establishing the current user for
// protected endpoints: a pure function of the token and the currently
// persisted accounts, with no session state.
type IdentityResolver struct {
	tokens *TokenService
	lookup AccountLookup
}

func NewIdentityResolver(tokens *TokenService, lookup AccountLookup) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, lookup: lookup}
}

// Resolve verifies the token, extracts its subject email and loads the
// matching account. Tokens are not revoked on account deletion, so a valid
// token whose subject no longer exists still fails here. Every failure is
// ErrUnauthorized.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (types.Account, error) {
	if strings.TrimSpace(token) == "" {
		return types.Account{}, ErrUnauthorized
	}

	claims, err := r.tokens.Verify(token)
	if err != nil {
		return types.Account{}, ErrUnauthorized
	}

	email, ok := claims[ClaimSubject].(string)
	if !ok || strings.TrimSpace(email) == "" {
		return types.Account{}, ErrUnauthorized
	}

	account, err := r.lookup(ctx, email)
	if err != nil {
		return types.Account{}, ErrUnauthorized
	}
	return account, nil
}
