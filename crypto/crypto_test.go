package crypto

import (
	"testing"
)

func TestSignAndRecover(t *testing.T) {
	t.Parallel()
	priv, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	addr := PubkeyToAddress(priv.PubKey())
	hash := Keccak256Hash([]byte("payload"))

	sig, err := Sign(hash.Bytes(), priv)
	if err != nil {
		t.Fatal(err)
	}

	recovered, err := Ecrecover(hash.Bytes(), sig)
	if err != nil {
		t.Fatal(err)
	}

	if recovered != addr {
		t.Fatalf("recovered %s, want %s", recovered.String(), addr.String())
	}
}

func TestRecoverRejectsWrongHash(t *testing.T) {
	t.Parallel()
	priv, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	hash := Keccak256Hash([]byte("payload"))
	sig, err := Sign(hash.Bytes(), priv)
	if err != nil {
		t.Fatal(err)
	}

	other := Keccak256Hash([]byte("tampered"))
	recovered, err := Ecrecover(other.Bytes(), sig)
	if err == nil && recovered == PubkeyToAddress(priv.PubKey()) {
		t.Fatal("signature over different hash recovered the same signer")
	}
}

func TestSignRequires32ByteHash(t *testing.T) {
	t.Parallel()
	priv, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Sign([]byte("short"), priv); err == nil {
		t.Fatal("expected error for short hash")
	}
}
