package auth

import "errors"

// ErrBadCredentials is returned for every login failure. Whether the email
// exists or the password is wrong is deliberately not distinguishable.
var ErrBadCredentials = errors.New("bad credentials")

// ErrUnauthorized is returned for every token or identity failure: missing,
// malformed, badly signed, expired, empty-payload tokens and tokens whose
// subject no longer resolves to an account all look the same to the caller.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when an authenticated identity attempts to
// mutate an account it does not own.
var ErrForbidden = errors.New("forbidden")
