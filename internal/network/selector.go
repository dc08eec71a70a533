package network

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

// Entry point names with a fixed selector of zero.
const (
	DefaultEntryPoint   = "__default__"
	L1DefaultEntryPoint = "__l1_default__"
)

var mask250 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// Keccak returns keccak256(data) truncated to 250 bits, so the result is
// always a valid felt.
func Keccak(data []byte) *big.Int {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	v := new(big.Int).SetBytes(h.Sum(nil))
	return v.And(v, mask250)
}

// Selector returns the entry point selector for a function name.
func Selector(name string) *big.Int {
	if name == DefaultEntryPoint || name == L1DefaultEntryPoint {
		return new(big.Int)
	}
	return Keccak([]byte(name))
}
