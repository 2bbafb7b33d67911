package application

import (
	"errors"
	"strings"
	"testing"
)

// testArgon2idParams keeps key derivation cheap in tests.
var testArgon2idParams = Argon2idParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestPasswordHash_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("correct horse battery", testArgon2idParams)
	if err != nil {
		t.Fatalf("expected hashing to succeed, got %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("expected PHC-formatted hash, got %q", hash)
	}

	if err := VerifyPassword(hash, "correct horse battery"); err != nil {
		t.Fatalf("expected the original password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for a wrong password, got %v", err)
	}
}

func TestPasswordHash_SaltsDiffer(t *testing.T) {
	t.Parallel()

	first, err := CreatePasswordHash("secret", testArgon2idParams)
	if err != nil {
		t.Fatalf("expected hashing to succeed, got %v", err)
	}
	second, err := CreatePasswordHash("secret", testArgon2idParams)
	if err != nil {
		t.Fatalf("expected hashing to succeed, got %v", err)
	}
	if first == second {
		t.Fatalf("expected fresh salts to produce distinct hashes")
	}
}

func TestVerifyPassword_RejectsMalformedHashes(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":          "",
		"wrong scheme":   "$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"missing fields": "$argon2id$v=19$m=8192,t=1,p=1",
		"bad salt":       "$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
	}
	for name, hash := range cases {
		if err := VerifyPassword(hash, "secret"); !errors.Is(err, ErrInvalidPasswordHash) {
			t.Fatalf("%s: expected ErrInvalidPasswordHash, got %v", name, err)
		}
	}
}

func TestVerifyPassword_RejectsUnknownVersion(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("secret", testArgon2idParams)
	if err != nil {
		t.Fatalf("expected hashing to succeed, got %v", err)
	}
	downgraded := strings.Replace(hash, "$v=19$", "$v=18$", 1)

	if err := VerifyPassword(downgraded, "secret"); !errors.Is(err, ErrIncompatiblePasswordVersion) {
		t.Fatalf("expected ErrIncompatiblePasswordVersion, got %v", err)
	}
}
