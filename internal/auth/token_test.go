package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, exp, err := tm.GenerateToken("jo@example.com", "Jo Park")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Errorf("expiry too close: %v", exp)
	}

	email, err := tm.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if email != "jo@example.com" {
		t.Errorf("email = %q", email)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 60)
	verifier := NewTokenManager("secret-b", 60)

	token, _, err := issuer.GenerateToken("jo@example.com", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.VerifyToken(token); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := tm.VerifyToken(token); err == nil {
			t.Errorf("expected %q to fail verification", token)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash must not equal the password")
	}
	if err := ComparePassword(hash, "hunter2"); err != nil {
		t.Errorf("matching password rejected: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Error("wrong password accepted")
	}
}
