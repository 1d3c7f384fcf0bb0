package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// SubmitTransaction queues the transaction for the next block and returns
// the index of that block. When auto mining is on, the worker is signaled.
func (s *State) SubmitTransaction(tx database.Tx) int64 {
	index := s.ledger.QueueTransaction(tx)

	s.evHandler("viewer: tx: %s: block[%d]", tx, index)

	if s.autoMine && s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return index
}
