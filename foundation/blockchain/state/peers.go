package state

import (
	"context"

	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

// RegisterPeers normalizes and adds the addresses to the set of known peers.
// Nothing is added if any address is invalid. The full list of known peers
// is returned.
func (s *State) RegisterPeers(addresses []string) ([]peer.Peer, error) {
	added, err := s.knownPeers.AddAddresses(addresses)
	if err != nil {
		return nil, err
	}

	s.evHandler("state: RegisterPeers: added[%d]: total[%d]", added, s.knownPeers.Len())

	return s.RetrieveKnownPeers(), nil
}

// AddKnownPeer provides the ability to add a new peer to
// the known peer list.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	if pr.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(pr)
}

// RemoveKnownPeer provides the ability to remove a peer from
// the known peer list.
func (s *State) RemoveKnownPeer(pr peer.Peer) {
	s.knownPeers.Remove(pr)
}

// NetDiscoverPeers asks every known peer for its status and adds the peers
// they know about to this node's list. Peers that can't be reached are
// skipped. The number of peers added is returned.
func (s *State) NetDiscoverPeers(ctx context.Context) int {
	s.evHandler("state: NetDiscoverPeers: started")
	defer s.evHandler("state: NetDiscoverPeers: completed")

	var added int
	for _, pr := range s.RetrieveKnownPeers() {
		statusCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		status, err := s.fetcher.FetchStatus(statusCtx, pr)
		cancel()

		if err != nil {
			s.evHandler("state: NetDiscoverPeers: peer[%s]: WARNING: %s", pr, err)
			continue
		}

		for _, known := range status.KnownPeers {
			if s.AddKnownPeer(known) {
				s.evHandler("state: NetDiscoverPeers: peer[%s]: adding peer-node %s", pr, known)
				added++
			}
		}
	}

	return added
}
