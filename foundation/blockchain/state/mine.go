package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
)

// maxMineAttempts bounds how many times mining restarts when the chain
// changes underneath a solve.
const maxMineAttempts = 10

// ErrNoTransactions is returned when a block is requested to be mined
// and there are no pending transactions.
var ErrNoTransactions = errors.New("no transactions pending")

// MineNewBlock solves the puzzle for the current tip, rewards this node and
// seals the pending transactions into a new block. If the chain changes
// while solving, the work is thrown away and mining starts over on the new
// tip.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started")
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	for attempt := 1; attempt <= maxMineAttempts; attempt++ {
		tip, err := s.ledger.Tip()
		if err != nil {
			return database.Block{}, err
		}

		s.evHandler("state: MineNewBlock: MINING: solve: prevBlk[%d]: lastProof[%d]", tip.Index, tip.Proof)

		proof, err := pow.Solve(ctx, tip.Proof)
		if err != nil {
			return database.Block{}, fmt.Errorf("solve: %w", err)
		}

		block, err := s.ledger.Forge(tip, proof, database.NewRewardTx(s.nodeID))
		if err != nil {
			if errors.Is(err, ledger.ErrTipChanged) {
				s.evHandler("state: MineNewBlock: MINING: WARNING: tip changed: attempt[%d]", attempt)
				continue
			}
			return database.Block{}, err
		}

		s.evHandler("viewer: block: blk[%d]: hash[%s]: numTrans[%d]", block.Index, block.Hash(), len(block.Transactions))

		return block, nil
	}

	return database.Block{}, fmt.Errorf("mine: gave up after %d attempts: %w", maxMineAttempts, ledger.ErrTipChanged)
}

// MinePendingBlock mines a new block only if there are transactions waiting.
func (s *State) MinePendingBlock(ctx context.Context) (database.Block, error) {
	if s.ledger.PendingCount() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	return s.MineNewBlock(ctx)
}
