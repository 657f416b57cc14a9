package auth

import "testing"

const testSalt = "$2b$10$N9qo8uLOickgx2ZMRZoMye"

func TestHashRoundTrip(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(testSalt)

	hash, err := hasher.Hash("1234567")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hash == "1234567" {
		t.Fatalf("hash equals plaintext")
	}
	if !hasher.Verify("1234567", hash) {
		t.Fatalf("expected round-trip verification to succeed")
	}
	if hasher.Verify("7654321", hash) {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestVerifyDifferentSalt(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(testSalt)
	other := NewHasher("$2b$10$abcdefghijklmnopqrstuv")

	hash, err := hasher.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if other.Verify("correct horse", hash) {
		t.Fatalf("hash verified under a different salt")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(testSalt)
	if hasher.Verify("anything", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash verified")
	}
	if hasher.Verify("", "") {
		t.Fatalf("empty hash verified")
	}
}

func TestIsHashed(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(testSalt)
	hash, err := hasher.Hash("some password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !IsHashed(hash) {
		t.Fatalf("expected IsHashed to recognize %q", hash)
	}
	if IsHashed("plaintext") {
		t.Fatalf("IsHashed accepted plaintext")
	}
	if IsHashed("") {
		t.Fatalf("IsHashed accepted empty string")
	}
}

func TestCostFromSalt(t *testing.T) {
	t.Parallel()

	if got := costFromSalt("$2b$10$N9qo8uLOickgx2ZMRZoMye"); got != 10 {
		t.Fatalf("expected cost 10, got %d", got)
	}
	if got := costFromSalt("garbage"); got != 10 {
		t.Fatalf("expected default cost for garbage salt, got %d", got)
	}
	if got := costFromSalt("$2b$99$N9qo8uLOickgx2ZMRZoMye"); got != 10 {
		t.Fatalf("expected default cost for out-of-range cost, got %d", got)
	}
}
