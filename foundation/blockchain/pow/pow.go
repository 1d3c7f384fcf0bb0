// Package pow implements the proof of work puzzle that binds the proof of a
// new block to the proof of the block before it.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Difficulty is the number of leading hex zeros a solution must produce.
const Difficulty = 4

// Solve searches the candidates 0, 1, 2, ... and returns the first one that
// satisfies Verify for the specified last proof. The search is unbounded, the
// context only exists so a shutdown can stop the search.
func Solve(ctx context.Context, lastProof int64) (int64, error) {
	var candidate int64
	for {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		if Verify(lastProof, candidate) {
			return candidate, nil
		}

		candidate++
	}
}

// Verify checks if hashing the decimal text of the last proof followed by the
// candidate produces a hex digest starting with Difficulty zeros.
func Verify(lastProof int64, candidate int64) bool {
	guess := strconv.AppendInt(nil, lastProof, 10)
	guess = strconv.AppendInt(guess, candidate, 10)

	sum := sha256.Sum256(guess)
	return isHashSolved(hex.EncodeToString(sum[:]))
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(hash string) bool {
	const match = "0000000000000000"

	if len(hash) != 64 {
		return false
	}

	return hash[:Difficulty] == match[:Difficulty]
}
