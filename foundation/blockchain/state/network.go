package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// NetFetcher retrieves the chain and status of peers over HTTP. It
// implements the consensus.Fetcher interface.
type NetFetcher struct {
	client    *http.Client
	evHandler EventHandler
}

// NewNetFetcher constructs a fetcher for talking to peers. Requests are
// bounded by the context handed to each call.
func NewNetFetcher(evHandler EventHandler) *NetFetcher {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &NetFetcher{
		client:    &http.Client{},
		evHandler: ev,
	}
}

// FetchChain asks the peer for its full chain and the length it reports.
func (nf *NetFetcher) FetchChain(ctx context.Context, pr peer.Peer) (consensus.RemoteChain, error) {
	nf.evHandler("state: NetRequestPeerChain: started: %s", pr)
	defer nf.evHandler("state: NetRequestPeerChain: completed: %s", pr)

	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Host))

	var remote consensus.RemoteChain
	if err := send(ctx, nf.client, http.MethodGet, url, nil, &remote); err != nil {
		return consensus.RemoteChain{}, err
	}

	nf.evHandler("state: NetRequestPeerChain: peer-node[%s]: length[%d]", pr, remote.Length)

	return remote, nil
}

// FetchStatus asks the peer for its current status.
func (nf *NetFetcher) FetchStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	nf.evHandler("state: NetRequestPeerStatus: started: %s", pr)
	defer nf.evHandler("state: NetRequestPeerStatus: completed: %s", pr)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := send(ctx, nf.client, http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	nf.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blknum[%d]: peer-list[%s]", pr, ps.LatestBlockNumber, ps.KnownPeers)

	return ps, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(ctx context.Context, client *http.Client, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader

	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %w", resp.StatusCode, errors.New(string(msg)))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
