package credentials

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, version, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if version != HashVersionBcrypt {
		t.Fatalf("expected version %s, got %s", HashVersionBcrypt, version)
	}
	if hash == "correct horse battery" {
		t.Fatal("hash must not equal plaintext")
	}

	if err := VerifyPassword(hash, "correct horse battery"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := VerifyPassword(hash, "wrong password"); err == nil {
		t.Fatal("expected verification failure for wrong password")
	}
}

func TestHashPasswordRejectsShort(t *testing.T) {
	if _, _, err := HashPassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}
}
