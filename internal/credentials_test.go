package internal

import "testing"

func TestPasswordVerify(t *testing.T) {
	digest, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(digest, "secret") {
		t.Fatalf("expected matching password to verify")
	}
	if VerifyPassword(digest, "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
	if VerifyPassword(digest, "") {
		t.Fatalf("expected empty password to fail")
	}
}

func TestDistinctDigests(t *testing.T) {
	first, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	second, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	// salted digests differ, but both verify the same input
	if !VerifyPassword(first, "secret") || !VerifyPassword(second, "secret") {
		t.Fatalf("expected both digests to verify the original password")
	}
	if string(first) == string(second) {
		t.Fatalf("expected salted digests to differ")
	}
}
