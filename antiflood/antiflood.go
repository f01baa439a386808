// Package antiflood implements the structural antiflood token checks every
// CRDT delta validator enforces (spec §4.1, §6: non-empty nonce, difficulty
// in 1..=255), plus an advisory proof-of-work verifier for tooling that
// mints tokens before submission. The CRDT validators never call the PoW
// verifier — acceptance is structural only (spec §7: antiflood only raises
// cost, it does not eliminate spam) — so a token's actual hash difficulty
// is never re-checked by a peer accepting a delta. Grounded on
// contract-catalog/src/lib.rs::validate_delta's token checks, with the PoW
// hash itself modeled on consensus/pow.go::PowCheck.
package antiflood

import (
	"bytes"

	"golang.org/x/crypto/sha3"
)

// Token is a proof-of-work rate-limiting token. Difficulty is the number of
// leading zero bits the advisory check requires of SHA3-256(pubkey ∥ nonce).
type Token struct {
	Nonce      []byte
	Difficulty uint8
}

// ValidateStructure enforces the only checks a CRDT validator performs: a
// non-empty nonce and a non-zero difficulty. Grounded on spec §6's delta
// validation rule for antiflood_token.
func ValidateStructure(t Token) bool {
	return len(t.Nonce) > 0 && t.Difficulty > 0
}

// Mint searches for a nonce such that SHA3-256(pubkey ∥ nonce) has at least
// difficulty leading zero bits, incrementing a big-endian counter starting
// from zero. Intended for a miner/CLI that produces tokens before
// submission, never for the CRDT's own acceptance path.
func Mint(pubkey [32]byte, difficulty uint8, maxAttempts uint64) (Token, bool) {
	nonce := make([]byte, 8)
	for attempt := uint64(0); attempt < maxAttempts; attempt++ {
		putUint64BE(nonce, attempt)
		if meetsDifficulty(pubkey, nonce, difficulty) {
			out := make([]byte, 8)
			copy(out, nonce)
			return Token{Nonce: out, Difficulty: difficulty}, true
		}
	}
	return Token{}, false
}

// VerifyProofOfWork reports whether token's nonce actually satisfies its
// claimed difficulty against pubkey — an advisory check for tooling, not
// part of the contract's acceptance path.
func VerifyProofOfWork(pubkey [32]byte, token Token) bool {
	if !ValidateStructure(token) {
		return false
	}
	return meetsDifficulty(pubkey, token.Nonce, token.Difficulty)
}

func meetsDifficulty(pubkey [32]byte, nonce []byte, difficulty uint8) bool {
	h := sha3.New256()
	h.Write(pubkey[:])
	h.Write(nonce)
	sum := h.Sum(nil)
	return leadingZeroBits(sum) >= uint(difficulty)
}

func leadingZeroBits(data []byte) uint {
	var total uint
	for _, b := range data {
		if b == 0 {
			total += 8
			continue
		}
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			if b&mask != 0 {
				return total
			}
			total++
		}
	}
	return total
}

func putUint64BE(dst []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

// Equal reports whether two tokens carry the same nonce and difficulty.
func Equal(a, b Token) bool {
	return a.Difficulty == b.Difficulty && bytes.Equal(a.Nonce, b.Nonce)
}
