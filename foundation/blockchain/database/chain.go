package database

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
)

// ErrInvalidChain is returned when a chain fails validation.
var ErrInvalidChain = errors.New("invalid chain")

// ValidateChain walks the chain and checks every block holds its position,
// links to the hash of its predecessor and carries a proof that solves the
// puzzle against the predecessor's proof. The genesis block is not checked
// against anything. The chain is only read.
func ValidateChain(chain []Block) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: chain has no blocks", ErrInvalidChain)
	}

	if chain[0].Index != 1 {
		return fmt.Errorf("%w: first block has index %d", ErrInvalidChain, chain[0].Index)
	}

	for i := 1; i < len(chain); i++ {
		prev, block := chain[i-1], chain[i]

		if exp := int64(i) + 1; block.Index != exp {
			return fmt.Errorf("%w: block at position %d has index %d", ErrInvalidChain, exp, block.Index)
		}

		if hash := prev.Hash(); string(block.PrevHash) != hash {
			return fmt.Errorf("%w: block %d previous hash doesn't match, got %s, exp %s", ErrInvalidChain, block.Index, block.PrevHash, hash)
		}

		if !pow.Verify(prev.Proof, block.Proof) {
			return fmt.Errorf("%w: block %d proof %d does not solve the puzzle for %d", ErrInvalidChain, block.Index, block.Proof, prev.Proof)
		}
	}

	return nil
}

// IsValidChain reports if the chain passes ValidateChain.
func IsValidChain(chain []Block) bool {
	return ValidateChain(chain) == nil
}

// CopyChain returns a deep copy of the chain.
func CopyChain(chain []Block) []Block {
	cpy := make([]Block, len(chain))
	for i, block := range chain {
		cpy[i] = block.Copy()
	}
	return cpy
}
