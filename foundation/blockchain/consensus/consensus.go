// Package consensus implements the longest valid chain rule. Candidate
// chains are pulled from the known peers and the longest one that passes
// full validation wins, as long as it is strictly longer than the local one.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

// DefaultFetchTimeout bounds a single peer fetch when no timeout is configured.
const DefaultFetchTimeout = 10 * time.Second

// ErrLengthMismatch is returned when a peer reports a length that does not
// match the chain it sent.
var ErrLengthMismatch = errors.New("reported length does not match chain")

// EventHandler defines a function that is called when events
// occur in the processing of a resolution.
type EventHandler func(v string, args ...any)

// =============================================================================

// RemoteChain is what a peer reports when asked for its chain.
type RemoteChain struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

// Fetcher represents the behavior required to retrieve the chain of a peer.
type Fetcher interface {
	FetchChain(ctx context.Context, pr peer.Peer) (RemoteChain, error)
}

// FetcherFunc allows a function to be used as a Fetcher.
type FetcherFunc func(ctx context.Context, pr peer.Peer) (RemoteChain, error)

// FetchChain implements the Fetcher interface.
func (f FetcherFunc) FetchChain(ctx context.Context, pr peer.Peer) (RemoteChain, error) {
	return f(ctx, pr)
}

// =============================================================================

// Resolver finds the longest valid chain among a set of peers.
type Resolver struct {
	fetcher   Fetcher
	timeout   time.Duration
	evHandler EventHandler
}

// NewResolver constructs a resolver that uses the fetcher to pull chains.
// Each fetch is bounded by the timeout.
func NewResolver(fetcher Fetcher, timeout time.Duration, evHandler EventHandler) *Resolver {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Resolver{
		fetcher:   fetcher,
		timeout:   timeout,
		evHandler: ev,
	}
}

// Resolve fetches the chain of every peer concurrently and returns the
// longest valid one that is strictly longer than localLength. Peers that
// can't be reached or send an invalid chain are skipped. The bool reports
// whether a candidate was found.
func (r *Resolver) Resolve(ctx context.Context, peers []peer.Peer, localLength int) ([]database.Block, bool) {
	r.evHandler("consensus: Resolve: started: peers[%d]: localLength[%d]", len(peers), localLength)
	defer r.evHandler("consensus: Resolve: completed")

	type result struct {
		remote RemoteChain
		err    error
	}

	results := make([]result, len(peers))

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for i, pr := range peers {
		go func(i int, pr peer.Peer) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			remote, err := r.fetcher.FetchChain(fetchCtx, pr)
			results[i] = result{remote: remote, err: err}
		}(i, pr)
	}

	wg.Wait()

	best := localLength
	var winner []database.Block

	for i, res := range results {
		pr := peers[i]

		if res.err != nil {
			r.evHandler("consensus: Resolve: peer[%s]: WARNING: skipped: %s", pr, res.err)
			continue
		}

		length := res.remote.Length
		if length <= best {
			r.evHandler("consensus: Resolve: peer[%s]: length[%d]: not longer than [%d]", pr, length, best)
			continue
		}

		if err := check(res.remote); err != nil {
			r.evHandler("consensus: Resolve: peer[%s]: WARNING: rejected: %s", pr, err)
			continue
		}

		r.evHandler("consensus: Resolve: peer[%s]: length[%d]: new candidate", pr, length)

		best = length
		winner = res.remote.Chain
	}

	return winner, winner != nil
}

// check validates the remote chain is what the peer claims it to be.
func check(remote RemoteChain) error {
	if remote.Length != len(remote.Chain) {
		return fmt.Errorf("%w: reported %d, got %d", ErrLengthMismatch, remote.Length, len(remote.Chain))
	}

	return database.ValidateChain(remote.Chain)
}
