package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/powledger/app/services/node/handlers"
	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type node struct {
	state   *state.State
	public  http.Handler
	private http.Handler
}

func newNode(t *testing.T, nodeID string) node {
	st, err := state.New(state.Config{NodeID: nodeID, Host: nodeID + ":9080"})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}

	cfg := handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New(),
	}

	return node{
		state:   st,
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
	}
}

func call(t *testing.T, h http.Handler, method string, path string, body string, resp any) int {
	var r *http.Request
	switch body {
	case "":
		r = httptest.NewRequest(method, path, nil)
	default:
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if resp != nil {
		if err := json.Unmarshal(w.Body.Bytes(), resp); err != nil {
			t.Fatalf("Should be able to unmarshal the response %q: %v", w.Body.String(), err)
		}
	}

	return w.Code
}

// =============================================================================

func Test_Transactions(t *testing.T) {
	type table struct {
		name   string
		body   string
		status int
	}

	tt := []table{
		{name: "valid", body: `{"sender":"A","recipient":"B","amount":10}`, status: http.StatusOK},
		{name: "float", body: `{"sender":"A","recipient":"B","amount":10.25}`, status: http.StatusOK},
		{name: "missing-amount", body: `{"sender":"A","recipient":"B"}`, status: http.StatusBadRequest},
		{name: "missing-sender", body: `{"recipient":"B","amount":1}`, status: http.StatusBadRequest},
		{name: "string-amount", body: `{"sender":"A","recipient":"B","amount":"10"}`, status: http.StatusBadRequest},
		{name: "bad-json", body: `{"sender":`, status: http.StatusBadRequest},
	}

	t.Log("Given the need to submit transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen submitting a %s transaction.", testID, tst.name)
				{
					n := newNode(t, "node-1")

					status := call(t, n.public, http.MethodPost, "/v1/transactions/new", tst.body, nil)
					if status != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould receive status %d, got %d.", failed, testID, tst.status, status)
					}
					t.Logf("\t%s\tTest %d:\tShould receive status %d.", success, testID, tst.status)

					exp := 0
					if tst.status == http.StatusOK {
						exp = 1
					}

					if got := len(n.state.RetrievePending()); got != exp {
						t.Fatalf("\t%s\tTest %d:\tShould have %d pending transactions, got %d.", failed, testID, exp, got)
					}
					t.Logf("\t%s\tTest %d:\tShould have %d pending transactions.", success, testID, exp)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_MineAndChain(t *testing.T) {
	t.Log("Given the need to mine blocks over the api.")
	{
		n := newNode(t, "node-1")

		t.Logf("\tTest 0:\tWhen a transaction is submitted.")
		{
			var resp struct {
				Message string `json:"message"`
			}
			call(t, n.public, http.MethodPost, "/v1/transactions/new", `{"sender":"A","recipient":"B","amount":10}`, &resp)

			if resp.Message != "Transaction will be added to Block 2" {
				t.Fatalf("\t%s\tTest 0:\tShould report the block index, got %q.", failed, resp.Message)
			}
			t.Logf("\t%s\tTest 0:\tShould report the block index.", success)
		}

		t.Logf("\tTest 1:\tWhen a block is mined.")
		{
			var resp struct {
				Message      string        `json:"message"`
				Index        int64         `json:"index"`
				Transactions []database.Tx `json:"transactions"`
				Proof        int64         `json:"proof"`
				PrevHash     database.Link `json:"previous_hash"`
			}

			if status := call(t, n.public, http.MethodGet, "/v1/mine", "", &resp); status != http.StatusOK {
				t.Fatalf("\t%s\tTest 1:\tShould receive status 200, got %d.", failed, status)
			}
			t.Logf("\t%s\tTest 1:\tShould receive status 200.", success)

			if resp.Message != "New Block Forged" || resp.Index != 2 || len(resp.Transactions) != 2 {
				t.Logf("\t%s\tTest 1:\tgot: %+v", failed, resp)
				t.Fatalf("\t%s\tTest 1:\tShould forge block 2 with the reward.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould forge block 2 with the reward.", success)

			if resp.Proof != 35293 {
				t.Fatalf("\t%s\tTest 1:\tShould solve the puzzle for the genesis proof, got %d.", failed, resp.Proof)
			}
			t.Logf("\t%s\tTest 1:\tShould solve the puzzle for the genesis proof.", success)
		}

		t.Logf("\tTest 2:\tWhen the chain is requested.")
		{
			var resp struct {
				Chain  []database.Block `json:"chain"`
				Length int              `json:"length"`
			}
			call(t, n.public, http.MethodGet, "/v1/chain", "", &resp)

			if resp.Length != 2 || len(resp.Chain) != 2 {
				t.Fatalf("\t%s\tTest 2:\tShould get two blocks, got %d.", failed, resp.Length)
			}
			t.Logf("\t%s\tTest 2:\tShould get two blocks.", success)

			if err := database.ValidateChain(resp.Chain); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould get a valid chain after the round trip: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould get a valid chain after the round trip.", success)

			var pend struct {
				Length int `json:"length"`
			}
			call(t, n.public, http.MethodGet, "/v1/tx/pending", "", &pend)

			if pend.Length != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould have nothing pending.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould have nothing pending.", success)
		}
	}
}

func Test_RegisterNodes(t *testing.T) {
	n := newNode(t, "node-1")

	var resp struct {
		Message    string   `json:"message"`
		TotalNodes []string `json:"total_nodes"`
	}

	status := call(t, n.public, http.MethodPost, "/v1/nodes/register", `{"nodes":["http://node1:5000","http://node1:5000"]}`, &resp)
	if status != http.StatusOK || resp.Message != "New nodes have been added" {
		t.Fatalf("%s\tShould register the nodes, got %d %q.", failed, status, resp.Message)
	}

	if len(resp.TotalNodes) != 1 || resp.TotalNodes[0] != "node1:5000" {
		t.Fatalf("%s\tShould hold a single normalized node, got %v.", failed, resp.TotalNodes)
	}

	for _, body := range []string{`{}`, `{"nodes":[]}`, `{"nodes":["http://"]}`} {
		var er errs.Response
		if status := call(t, n.public, http.MethodPost, "/v1/nodes/register", body, &er); status != http.StatusBadRequest {
			t.Fatalf("%s\tShould reject %s, got %d.", failed, body, status)
		}
	}
}

func Test_Resolve(t *testing.T) {
	remote := newNode(t, "remote")
	for i := 0; i < 2; i++ {
		call(t, remote.public, http.MethodGet, "/v1/mine", "", nil)
	}

	srv := httptest.NewServer(remote.private)
	defer srv.Close()

	local := newNode(t, "local")
	call(t, local.public, http.MethodPost, "/v1/nodes/register", `{"nodes":["`+srv.URL+`"]}`, nil)

	var resp struct {
		Message  string           `json:"message"`
		NewChain []database.Block `json:"new_chain"`
	}

	call(t, local.public, http.MethodGet, "/v1/nodes/resolve", "", &resp)
	if resp.Message != "Our chain was replaced" || len(resp.NewChain) != 3 {
		t.Fatalf("%s\tShould replace the chain, got %q with %d blocks.", failed, resp.Message, len(resp.NewChain))
	}

	call(t, local.public, http.MethodGet, "/v1/nodes/resolve", "", &resp)
	if resp.Message != "Our chain is authoritative" || len(resp.NewChain) != 3 {
		t.Fatalf("%s\tShould keep the chain, got %q with %d blocks.", failed, resp.Message, len(resp.NewChain))
	}
}

func Test_Private(t *testing.T) {
	n := newNode(t, "node-1")
	n.state.RegisterPeers([]string{"node2:9080"})

	var rc consensus.RemoteChain
	if status := call(t, n.private, http.MethodGet, "/v1/node/chain", "", &rc); status != http.StatusOK || rc.Length != 1 {
		t.Fatalf("%s\tShould get the genesis chain, got %d %d.", failed, status, rc.Length)
	}

	var ps peer.PeerStatus
	call(t, n.private, http.MethodGet, "/v1/node/status", "", &ps)

	if ps.NodeID != "node-1" || ps.LatestBlockNumber != 1 || len(ps.KnownPeers) != 1 {
		t.Fatalf("%s\tShould get the node status, got %+v.", failed, ps)
	}

	if status := call(t, n.public, http.MethodGet, "/v1/node/chain", "", nil); status == http.StatusOK {
		t.Fatalf("%s\tShould not serve node routes on the public api, got %d.", failed, status)
	}
}

func Test_Debug(t *testing.T) {
	mux := handlers.DebugMux("test", zap.NewNop().Sugar())

	var resp struct {
		Status string `json:"status"`
		Build  string `json:"build"`
	}

	if status := call(t, mux, http.MethodGet, "/debug/liveness", "", &resp); status != http.StatusOK || resp.Build != "test" {
		t.Fatalf("%s\tShould report liveness, got %d %+v.", failed, status, resp)
	}

	if status := call(t, mux, http.MethodGet, "/debug/readiness", "", &resp); status != http.StatusOK || resp.Status != "ok" {
		t.Fatalf("%s\tShould report readiness, got %d %+v.", failed, status, resp)
	}
}
