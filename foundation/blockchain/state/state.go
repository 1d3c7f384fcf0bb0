// Package state is the core API for the node and implements all the
// business rules for mining, transactions and conflict resolution.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/powledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

// ErrNoNodeID is returned when the node is started without an identifier.
var ErrNoNodeID = errors.New("node id is required")

// EventHandler defines a function that is called when events
// occur in the processing of the node.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and peer polling.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// Fetcher represents the behavior required to talk to peers.
type Fetcher interface {
	consensus.Fetcher
	FetchStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error)
}

// =============================================================================

// Config represents the configuration required to start
// the node.
type Config struct {
	NodeID       string
	Host         string
	KnownPeers   *peer.PeerSet
	FetchTimeout time.Duration
	AutoMine     bool
	Fetcher      Fetcher
	EvHandler    EventHandler
}

// State manages the ledger and the set of known peers for the node.
type State struct {
	nodeID    string
	host      string
	autoMine  bool
	evHandler EventHandler

	knownPeers   *peer.PeerSet
	ledger       *ledger.Ledger
	resolver     *consensus.Resolver
	fetcher      Fetcher
	fetchTimeout time.Duration

	Worker Worker
}

// New constructs the node state holding a chain with only the genesis block.
func New(cfg Config) (*State, error) {
	if cfg.NodeID == "" {
		return nil, ErrNoNodeID
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = consensus.DefaultFetchTimeout
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Peers are reached over HTTP unless a different fetcher is provided.
	var fetcher Fetcher = NewNetFetcher(ev)
	if cfg.Fetcher != nil {
		fetcher = cfg.Fetcher
	}

	state := State{
		nodeID:    cfg.NodeID,
		host:      cfg.Host,
		autoMine:  cfg.AutoMine,
		evHandler: ev,

		knownPeers:   knownPeers,
		ledger:       ledger.New(ledger.EventHandler(ev)),
		resolver:     consensus.NewResolver(fetcher, fetchTimeout, consensus.EventHandler(ev)),
		fetcher:      fetcher,
		fetchTimeout: fetchTimeout,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: Shutdown: started")
	defer s.evHandler("state: Shutdown: completed")

	// Stop all background activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// IsAutoMine reports if the node mines a block as soon as transactions
// are pending.
func (s *State) IsAutoMine() bool {
	return s.autoMine
}
