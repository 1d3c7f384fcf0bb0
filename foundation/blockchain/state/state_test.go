package state_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func ifErrFailNow(t *testing.T, err error) {
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

func newState(t *testing.T, nodeID string, cfg state.Config) *state.State {
	cfg.NodeID = nodeID

	st, err := state.New(cfg)
	ifErrFailNow(t, err)

	return st
}

func mineBlocks(t *testing.T, st *state.State, n int) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for i := 0; i < n; i++ {
		_, err := st.MineNewBlock(ctx)
		ifErrFailNow(t, err)
	}
}

// serveNode exposes the private node routes of the state over HTTP.
func serveNode(t *testing.T, st *state.State) string {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/node/chain", func(w http.ResponseWriter, r *http.Request) {
		chain := st.RetrieveChain()
		json.NewEncoder(w).Encode(consensus.RemoteChain{Chain: chain, Length: len(chain)})
	})

	mux.HandleFunc("/v1/node/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(st.Status())
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return strings.TrimPrefix(srv.URL, "http://")
}

type mockWorker struct {
	signals atomic.Int32
}

func (w *mockWorker) Shutdown()          {}
func (w *mockWorker) SignalStartMining() { w.signals.Add(1) }

type mockFetcher struct {
	statuses map[string]peer.PeerStatus
}

func (m *mockFetcher) FetchChain(ctx context.Context, pr peer.Peer) (consensus.RemoteChain, error) {
	return consensus.RemoteChain{}, errors.New("not implemented")
}

func (m *mockFetcher) FetchStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	status, exists := m.statuses[pr.Host]
	if !exists {
		return peer.PeerStatus{}, errors.New("connection refused")
	}
	return status, nil
}

// =============================================================================

func Test_New(t *testing.T) {
	if _, err := state.New(state.Config{}); !errors.Is(err, state.ErrNoNodeID) {
		t.Fatalf("%s\tShould require a node id, got %v.", failed, err)
	}
}

func Test_MineNewBlock(t *testing.T) {
	t.Log("Given the need to mine blocks.")
	{
		st := newState(t, "node-1", state.Config{})

		t.Logf("\tTest 0:\tWhen mining with a pending transaction.")
		{
			index := st.SubmitTransaction(database.NewTx("A", "B", database.NewAmount(10)))
			if index != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould report block 2, got %d.", failed, index)
			}
			t.Logf("\t%s\tTest 0:\tShould report block 2.", success)

			mineBlocks(t, st, 1)

			latest, err := st.RetrieveLatestBlock()
			ifErrFailNow(t, err)

			if len(latest.Transactions) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould hold the transaction and the reward, got %d.", failed, len(latest.Transactions))
			}
			t.Logf("\t%s\tTest 0:\tShould hold the transaction and the reward.", success)

			reward := latest.Transactions[1]
			if reward.Sender != database.RewardSender || reward.Recipient != "node-1" || reward.Amount != database.RewardAmount {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, reward)
				t.Fatalf("\t%s\tTest 0:\tShould pay the reward to the node.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould pay the reward to the node.", success)

			if len(st.RetrievePending()) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould empty the pending pool.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould empty the pending pool.", success)
		}

		t.Logf("\tTest 1:\tWhen mining with nothing pending.")
		{
			if _, err := st.MinePendingBlock(context.Background()); !errors.Is(err, state.ErrNoTransactions) {
				t.Fatalf("\t%s\tTest 1:\tShould get ErrNoTransactions, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get ErrNoTransactions.", success)

			mineBlocks(t, st, 1)

			if err := database.ValidateChain(st.RetrieveChain()); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould keep a valid chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould keep a valid chain.", success)
		}

		t.Logf("\tTest 2:\tWhen mining is cancelled.")
		{
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := st.MineNewBlock(ctx); !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest 2:\tShould get context.Canceled, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould get context.Canceled.", success)
		}
	}
}

func Test_AutoMineSignal(t *testing.T) {
	var w mockWorker

	st := newState(t, "node-1", state.Config{AutoMine: true})
	st.Worker = &w

	st.SubmitTransaction(database.NewTx("A", "B", database.NewAmount(1)))

	if w.signals.Load() != 1 {
		t.Fatalf("%s\tShould signal the worker to mine.", failed)
	}

	off := newState(t, "node-2", state.Config{})
	off.Worker = &w
	off.SubmitTransaction(database.NewTx("A", "B", database.NewAmount(1)))

	if w.signals.Load() != 1 {
		t.Fatalf("%s\tShould not signal the worker when auto mining is off.", failed)
	}
}

func Test_RegisterPeers(t *testing.T) {
	st := newState(t, "node-1", state.Config{Host: "localhost:9080"})

	peers, err := st.RegisterPeers([]string{"http://node1:5000", "node1:5000", "node2:5000"})
	ifErrFailNow(t, err)

	if len(peers) != 2 {
		t.Fatalf("%s\tShould hold two peers, got %v.", failed, peers)
	}

	if _, err := st.RegisterPeers([]string{"node3:5000", "http://"}); !errors.Is(err, peer.ErrInvalidAddress) {
		t.Fatalf("%s\tShould reject an invalid address, got %v.", failed, err)
	}

	if len(st.RetrieveKnownPeers()) != 2 {
		t.Fatalf("%s\tShould not add peers from a rejected list.", failed)
	}

	if st.AddKnownPeer(peer.New("localhost:9080")) {
		t.Fatalf("%s\tShould not add itself as a peer.", failed)
	}
}

func Test_ResolveConflicts(t *testing.T) {
	t.Log("Given the need to resolve conflicts between nodes.")
	{
		remote := newState(t, "remote", state.Config{})
		mineBlocks(t, remote, 2)

		host := serveNode(t, remote)

		local := newState(t, "local", state.Config{FetchTimeout: 5 * time.Second})
		_, err := local.RegisterPeers([]string{"http://" + host, "127.0.0.1:1"})
		ifErrFailNow(t, err)

		t.Logf("\tTest 0:\tWhen a peer holds a longer valid chain.")
		{
			replaced, chain := local.ResolveConflicts(context.Background())
			if !replaced {
				t.Fatalf("\t%s\tTest 0:\tShould replace the chain.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould replace the chain.", success)

			exp := remote.RetrieveChain()
			if len(chain) != len(exp) || chain[len(chain)-1].Hash() != exp[len(exp)-1].Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould hold the chain of the peer.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould hold the chain of the peer.", success)
		}

		t.Logf("\tTest 1:\tWhen the local chain is as long as the peer's.")
		{
			replaced, chain := local.ResolveConflicts(context.Background())
			if replaced {
				t.Fatalf("\t%s\tTest 1:\tShould keep the local chain.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the local chain.", success)

			if len(chain) != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould return the local chain, got %d blocks.", failed, len(chain))
			}
			t.Logf("\t%s\tTest 1:\tShould return the local chain.", success)
		}

		t.Logf("\tTest 2:\tWhen the local chain is longer.")
		{
			mineBlocks(t, local, 1)

			if replaced, _ := local.ResolveConflicts(context.Background()); replaced {
				t.Fatalf("\t%s\tTest 2:\tShould keep the local chain.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould keep the local chain.", success)
		}
	}
}

func Test_NetDiscoverPeers(t *testing.T) {
	fetcher := mockFetcher{
		statuses: map[string]peer.PeerStatus{
			"node1:5000": {KnownPeers: []peer.Peer{peer.New("node2:5000"), peer.New("self:9080")}},
		},
	}

	st := newState(t, "node-1", state.Config{Host: "self:9080", Fetcher: &fetcher})
	_, err := st.RegisterPeers([]string{"node1:5000", "down:5000"})
	ifErrFailNow(t, err)

	if added := st.NetDiscoverPeers(context.Background()); added != 1 {
		t.Fatalf("%s\tShould add one peer, got %d.", failed, added)
	}

	if len(st.RetrieveKnownPeers()) != 3 {
		t.Fatalf("%s\tShould know three peers, got %v.", failed, st.RetrieveKnownPeers())
	}
}

func Test_NetFetcher(t *testing.T) {
	remote := newState(t, "remote", state.Config{})
	mineBlocks(t, remote, 1)

	host := serveNode(t, remote)
	nf := state.NewNetFetcher(nil)

	rc, err := nf.FetchChain(context.Background(), peer.New(host))
	ifErrFailNow(t, err)

	if rc.Length != 2 || !database.IsValidChain(rc.Chain) {
		t.Fatalf("%s\tShould fetch a valid chain of two blocks, got %d.", failed, rc.Length)
	}

	status, err := nf.FetchStatus(context.Background(), peer.New(host))
	ifErrFailNow(t, err)

	if status.NodeID != "remote" || status.LatestBlockNumber != 2 {
		t.Fatalf("%s\tShould fetch the status, got %+v.", failed, status)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := nf.FetchChain(ctx, peer.New(host)); err == nil {
		t.Fatalf("%s\tShould fail on a cancelled context.", failed)
	}
}
