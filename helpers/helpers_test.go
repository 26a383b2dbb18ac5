package helpers

import (
	"math/big"
	"testing"
)

func TestUnitToRaw(t *testing.T) {
	t.Parallel()
	raw := UnitToRaw(big.NewInt(30000000))
	if raw.String() != "30000000000" {
		t.Fatalf("got %s, want 30000000000", raw)
	}
}

func TestStringToBigInt(t *testing.T) {
	t.Parallel()
	if StringToBigInt("12345").Cmp(big.NewInt(12345)) != 0 {
		t.Fatal("wrong conversion")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on empty string")
		}
	}()
	StringToBigInt("")
}

func TestIsValidBigInt(t *testing.T) {
	t.Parallel()
	for s, want := range map[string]bool{
		"0":     true,
		"100":   true,
		"-1":    false,
		"":      false,
		"x":     false,
		"1.5":   false,
	} {
		if got := IsValidBigInt(s); got != want {
			t.Fatalf("IsValidBigInt(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestFee(t *testing.T) {
	t.Parallel()
	// 1% of 500 raw units
	fee := Fee(big.NewInt(500), 100)
	if fee.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("got %s, want 5", fee)
	}

	// rounds down
	fee = Fee(big.NewInt(99), 100)
	if fee.Cmp(big.NewInt(0)) != 0 {
		t.Fatalf("got %s, want 0", fee)
	}
}
