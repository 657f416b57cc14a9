package auth

import (
	"regexp"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and verifies salted bcrypt password hashes. The
// deployment salt parameterizes every hash: its cost factor selects the
// bcrypt work factor and its random portion is folded into the hashed
// input, so hashes from one deployment do not verify under another salt.
type Hasher struct {
	salt string
	cost int
}

// NewHasher builds a Hasher from a bcrypt-format salt string such as
// "$2b$12$abcdefghijklmnopqrstuv". The two-digit cost field is honored
// when it falls inside bcrypt's supported range.
func NewHasher(salt string) *Hasher {
	return &Hasher{
		salt: salt,
		cost: costFromSalt(salt),
	}
}

// Hash returns the bcrypt hash of plaintext under the configured salt.
// bcrypt embeds its own per-call random salt, so two calls with the same
// plaintext produce different bytes; only Verify round-trips.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(h.salt+plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext reproduces hash under the configured
// salt. Malformed hashes verify as false rather than failing loudly, so a
// corrupt stored hash is indistinguishable from a wrong password.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(h.salt+plaintext)) == nil
}

// hashPattern matches the bcrypt output format: version marker, two-digit
// cost, then the 53-character salt+digest block.
var hashPattern = regexp.MustCompile(`^\$2[aby]?\$[0-9]{2}\$.{53}$`)

// IsHashed is a structural recognizer for bcrypt hashes. It is meant for
// diagnostics and tests, never for security decisions.
func IsHashed(value string) bool {
	return hashPattern.MatchString(value)
}

func costFromSalt(salt string) int {
	if len(salt) < 6 {
		return bcrypt.DefaultCost
	}
	start := 4
	if salt[2] == '$' {
		start = 3
	}
	cost, err := strconv.Atoi(salt[start : start+2])
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}
