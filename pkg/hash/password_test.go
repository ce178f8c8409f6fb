package hash

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func withCost(t *testing.T, cost int) {
	t.Helper()
	prev := Cost
	Cost = cost
	t.Cleanup(func() { Cost = prev })
}

func TestHash_UsesConfiguredCost(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost, bcrypt.MinCost + 1} {
		withCost(t, cost)

		hashed, err := Hash("hunter22")
		if err != nil {
			t.Fatalf("Hash() error = %v", err)
		}

		got, err := bcrypt.Cost([]byte(hashed))
		if err != nil {
			t.Fatalf("bcrypt.Cost() error = %v", err)
		}
		if got != cost {
			t.Errorf("hash cost = %d, want %d", got, cost)
		}
	}
}

func TestHash_RejectsEmptyPassword(t *testing.T) {
	withCost(t, bcrypt.MinCost)

	hashed, err := Hash("")
	if err == nil {
		t.Fatalf("Hash(\"\") = %q, want error", hashed)
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("error = %q, want it to mention the empty password", err)
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	withCost(t, bcrypt.MinCost)

	_, err := Hash(strings.Repeat("p", 73))
	if !errors.Is(err, bcrypt.ErrPasswordTooLong) {
		t.Errorf("error = %v, want bcrypt.ErrPasswordTooLong", err)
	}
}

func TestHash_SaltsEachCall(t *testing.T) {
	withCost(t, bcrypt.MinCost)

	first, err := Hash("пароль123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := Hash("пароль123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if first == second {
		t.Error("two hashes of one password are identical")
	}
	for _, h := range []string{first, second} {
		if err := Compare(h, "пароль123"); err != nil {
			t.Errorf("Compare() error = %v", err)
		}
	}
}

func TestCompare(t *testing.T) {
	withCost(t, bcrypt.MinCost)

	hashed, err := Hash("secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := Compare(hashed, "secret"); err != nil {
		t.Errorf("Compare(matching) error = %v", err)
	}
	if err := Compare(hashed, "Secret"); !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		t.Errorf("Compare(mismatch) error = %v, want ErrMismatchedHashAndPassword", err)
	}
	if err := Compare("not-a-hash", "secret"); err == nil {
		t.Error("Compare(malformed hash) expected error")
	}
}
