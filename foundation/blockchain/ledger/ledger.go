// Package ledger owns the chain of blocks and the pending transactions for a
// node. Every read-modify-write sequence runs under a single lock so sealing
// a block, queueing a transaction and replacing the chain never interleave.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/mempool"
)

// Set of error variables for ledger operations.
var (
	ErrEmptyChain = errors.New("chain has no blocks")
	ErrTipChanged = errors.New("chain tip changed while mining")
	ErrNotLonger  = errors.New("chain is not longer than the local chain")
)

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Ledger manages the chain and the pool of pending transactions.
type Ledger struct {
	mu        sync.RWMutex
	chain     []database.Block
	mempool   *mempool.Mempool
	evHandler EventHandler
}

// New constructs a ledger holding only a freshly created genesis block.
func New(evHandler EventHandler) *Ledger {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	genesis := database.NewGenesis()
	ev("ledger: New: genesis: blk[%s]", genesis.Hash())

	return &Ledger{
		chain:     []database.Block{genesis},
		mempool:   mempool.New(),
		evHandler: ev,
	}
}

// QueueTransaction adds the transaction to the pending pool and returns the
// index of the block that will hold it.
func (l *Ledger) QueueTransaction(tx database.Tx) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mempool.Add(tx)
	l.evHandler("ledger: QueueTransaction: tx[%s]: pending[%d]", tx, l.mempool.Count())

	return l.nextIndex()
}

// SealBlock constructs the next block from the pending transactions, the
// proof and the previous hash, then appends it to the chain and empties the
// pending pool. The caller is responsible for solving the proof and hashing
// the current tip.
func (l *Ledger) SealBlock(proof int64, prevHash database.Link) database.Block {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.seal(proof, prevHash)
}

// Forge queues the reward transaction and seals the next block, but only if
// the tip is still the block the proof was solved against. ErrTipChanged is
// returned otherwise and nothing is modified.
func (l *Ledger) Forge(tip database.Block, proof int64, reward database.Tx) (database.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.chain) == 0 {
		return database.Block{}, ErrEmptyChain
	}

	hash := tip.Hash()
	if current := l.chain[len(l.chain)-1]; current.Index != tip.Index || current.Hash() != hash {
		return database.Block{}, ErrTipChanged
	}

	l.mempool.Add(reward)

	return l.seal(proof, database.Link(hash)), nil
}

// Tip returns a copy of the last block in the chain.
func (l *Ledger) Tip() (database.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.chain) == 0 {
		return database.Block{}, ErrEmptyChain
	}

	return l.chain[len(l.chain)-1].Copy(), nil
}

// ReplaceChain swaps the held chain for the specified one. The caller is
// responsible for validating the chain.
func (l *Ledger) ReplaceChain(chain []database.Block) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.replace(chain)
}

// ReplaceIfLonger validates the chain and swaps it in, but only if it is
// still longer than the held chain at the time of the swap.
func (l *Ledger) ReplaceIfLonger(chain []database.Block) error {
	if err := database.ValidateChain(chain); err != nil {
		return fmt.Errorf("replace chain: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(chain) <= len(l.chain) {
		return ErrNotLonger
	}

	l.replace(chain)

	return nil
}

// Chain returns a copy of the chain.
func (l *Ledger) Chain() []database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return database.CopyChain(l.chain)
}

// Length returns the number of blocks in the chain.
func (l *Ledger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.chain)
}

// Pending returns a copy of the transactions waiting for the next block.
func (l *Ledger) Pending() []database.Tx {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.mempool.Copy()
}

// PendingCount returns the number of transactions waiting for the next block.
func (l *Ledger) PendingCount() int {
	return l.mempool.Count()
}

// =============================================================================

// nextIndex returns the index the next sealed block will have. The lock
// must be held by the caller.
func (l *Ledger) nextIndex() int64 {
	if len(l.chain) == 0 {
		return 1
	}
	return l.chain[len(l.chain)-1].Index + 1
}

// seal builds and appends the next block. The lock must be held by the caller.
func (l *Ledger) seal(proof int64, prevHash database.Link) database.Block {
	block := database.NewBlock(len(l.chain), l.mempool.Drain(), proof, prevHash)
	l.chain = append(l.chain, block)

	l.evHandler("ledger: SealBlock: blk[%d]: prevBlk[%s]: numTrans[%d]", block.Index, block.PrevHash, len(block.Transactions))

	return block.Copy()
}

// replace swaps the chain. The lock must be held by the caller.
func (l *Ledger) replace(chain []database.Block) {
	l.evHandler("ledger: ReplaceChain: length[%d] -> length[%d]", len(l.chain), len(chain))

	l.chain = database.CopyChain(chain)
}
