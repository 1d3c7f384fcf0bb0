package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

// RetrieveNodeID returns the identifier rewards are paid to.
func (s *State) RetrieveNodeID() string {
	return s.nodeID
}

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveChain returns a copy of the full chain.
func (s *State) RetrieveChain() []database.Block {
	return s.ledger.Chain()
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (database.Block, error) {
	return s.ledger.Tip()
}

// RetrievePending returns a copy of the transactions waiting for the
// next block.
func (s *State) RetrievePending() []database.Tx {
	return s.ledger.Pending()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// Status returns what this node reports to its peers.
func (s *State) Status() peer.PeerStatus {
	chain := s.ledger.Chain()

	status := peer.PeerStatus{
		NodeID:     s.nodeID,
		Length:     len(chain),
		Pending:    s.ledger.PendingCount(),
		KnownPeers: s.RetrieveKnownPeers(),
	}

	if len(chain) > 0 {
		latest := chain[len(chain)-1]
		status.LatestBlockHash = latest.Hash()
		status.LatestBlockNumber = latest.Index
	}

	return status
}
