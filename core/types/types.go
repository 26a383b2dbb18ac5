package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

const (
	// AddressLength is the expected length of an address in bytes
	AddressLength = 20
	// HashLength is the expected length of a hash in bytes
	HashLength = 32
)

// addressPrefix is prepended to the hex form of every rendered address
const addressPrefix = "Lx"

// Address of an account, derived from the keccak256 of its public key
type Address [AddressLength]byte

// BytesToAddress converts given byte slice to Address
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts "Lx"-prefixed hex string to Address
func HexToAddress(s string) Address {
	return BytesToAddress(FromHex(s, addressPrefix))
}

// SetBytes sets the address to the value of b. If b is larger than
// AddressLength, b will be cropped from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Bytes returns address as bytes
func (a Address) Bytes() []byte { return a[:] }

func (a Address) String() string {
	return addressPrefix + hex.EncodeToString(a[:])
}

// Compare returns an integer comparing two addresses lexicographically
func (a Address) Compare(a2 Address) int {
	return bytes.Compare(a.Bytes(), a2.Bytes())
}

// IsZero reports whether the address is the zero address
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalJSON renders the address in its prefixed hex form
func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", a.String())), nil
}

// UnmarshalJSON parses an address from its prefixed hex form
func (a *Address) UnmarshalJSON(input []byte) error {
	if len(input) < 2 || input[0] != '"' || input[len(input)-1] != '"' {
		return fmt.Errorf("invalid address %s", input)
	}
	b := FromHex(string(input[1:len(input)-1]), addressPrefix)
	if len(b) != AddressLength {
		return fmt.Errorf("invalid address length %d", len(b))
	}
	a.SetBytes(b)
	return nil
}

// Hash is the keccak256 digest of an encoded payload
type Hash [HashLength]byte

// BytesToHash converts given byte slice to Hash
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts hex string to Hash
func HexToHash(s string) Hash {
	return BytesToHash(FromHex(s, ""))
}

// SetBytes sets the hash to the value of b. If b is larger than HashLength,
// b will be cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Bytes returns hash as bytes
func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is the zero hash
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalJSON renders the hash in hex form
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", h.String())), nil
}

// UnmarshalJSON parses a hash from hex form
func (h *Hash) UnmarshalJSON(input []byte) error {
	if len(input) < 2 || input[0] != '"' || input[len(input)-1] != '"' {
		return fmt.Errorf("invalid hash %s", input)
	}
	b := FromHex(string(input[1:len(input)-1]), "")
	if len(b) != HashLength {
		return fmt.Errorf("invalid hash length %d", len(b))
	}
	h.SetBytes(b)
	return nil
}

// FromHex decodes a hex string, dropping the given prefix or "0x" if present.
// Invalid input yields nil.
func FromHex(s string, prefix string) []byte {
	if prefix != "" && len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		s = s[len(prefix):]
	} else if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
