package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec"
	"github.com/luminaworld/lumina-go-node/core/types"
	"golang.org/x/crypto/sha3"
)

// SignatureLength is the length of a recoverable compact signature
const SignatureLength = 65

// PrivateKey is a secp256k1 private key
type PrivateKey = btcec.PrivateKey

// PublicKey is a secp256k1 public key
type PublicKey = btcec.PublicKey

// GenerateKey returns a fresh secp256k1 private key
func GenerateKey() (*PrivateKey, error) {
	return btcec.NewPrivateKey(btcec.S256())
}

// PrivKeyFromBytes restores a private key from its 32-byte form
func PrivKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("invalid private key length %d", len(b))
	}
	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), b)
	return priv, nil
}

// PubkeyToAddress derives the account address from a public key:
// the last 20 bytes of keccak256 over the uncompressed key body
func PubkeyToAddress(pub *PublicKey) types.Address {
	raw := pub.SerializeUncompressed()
	return types.BytesToAddress(Keccak256(raw[1:])[12:])
}

// Sign produces a recoverable compact signature over the given 32-byte hash
func Sign(hash []byte, prv *PrivateKey) ([]byte, error) {
	if len(hash) != types.HashLength {
		return nil, fmt.Errorf("hash is required to be exactly 32 bytes (%d)", len(hash))
	}
	return btcec.SignCompact(btcec.S256(), prv, hash, false)
}

// Ecrecover returns the address whose key produced the signature
func Ecrecover(hash, sig []byte) (types.Address, error) {
	if len(sig) != SignatureLength {
		return types.Address{}, errors.New("invalid signature length")
	}
	pub, _, err := btcec.RecoverCompact(btcec.S256(), sig, hash)
	if err != nil {
		return types.Address{}, err
	}
	return PubkeyToAddress(pub), nil
}

// Keccak256 calculates and returns the keccak256 hash of the input data
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash calculates the keccak256 hash of the input data as a Hash
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}
