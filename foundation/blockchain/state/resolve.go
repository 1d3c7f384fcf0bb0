package state

import (
	"context"
	"errors"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/ledger"
)

// ResolveConflicts asks every known peer for its chain and replaces the local
// chain with the longest valid one, if that is longer than the local chain.
// It reports whether the chain was replaced along with the resulting chain.
func (s *State) ResolveConflicts(ctx context.Context) (bool, []database.Block) {
	s.evHandler("state: ResolveConflicts: started")
	defer s.evHandler("state: ResolveConflicts: completed")

	candidate, found := s.resolver.Resolve(ctx, s.RetrieveKnownPeers(), s.ledger.Length())
	if !found {
		return false, s.ledger.Chain()
	}

	// The local chain may have grown while the peers were being asked.
	if err := s.ledger.ReplaceIfLonger(candidate); err != nil {
		if !errors.Is(err, ledger.ErrNotLonger) {
			s.evHandler("state: ResolveConflicts: WARNING: %s", err)
		}
		return false, s.ledger.Chain()
	}

	chain := s.ledger.Chain()
	s.evHandler("viewer: chain: replaced: length[%d]", len(chain))

	return true, chain
}
