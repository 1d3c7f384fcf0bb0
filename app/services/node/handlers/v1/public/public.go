// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/powledger/business/sys/validate"
	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// Mine solves the puzzle for the current tip and forges a new block holding
// the pending transactions and the reward for this node.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.MineNewBlock(ctx)
	if err != nil {
		return fmt.Errorf("mine: %w", err)
	}

	resp := mined{
		Message:      "New Block Forged",
		Index:        block.Index,
		Transactions: block.Transactions,
		Proof:        block.Proof,
		PrevHash:     block.PrevHash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitTransaction queues a new transaction for the next block.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nt newTx
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewTrustedf(http.StatusBadRequest, "unable to decode payload: %s", err)
	}

	if err := validate.Check(nt); err != nil {
		return err
	}

	tx := database.NewTx(*nt.Sender, *nt.Recipient, *nt.Amount)
	index := h.State.SubmitTransaction(tx)

	h.Log.Infow("add tran", "traceid", web.GetTraceID(ctx), "tx", tx, "block", index)

	resp := message{
		Message: fmt.Sprintf("Transaction will be added to Block %d", index),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full chain held by this node.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.RetrieveChain()

	resp := chain{
		Chain:  blocks,
		Length: len(blocks),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterNodes adds the addresses to the set of known peers.
func (h Handlers) RegisterNodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var rn registerNodes
	if err := web.Decode(r, &rn); err != nil {
		return errs.NewTrustedf(http.StatusBadRequest, "unable to decode payload: %s", err)
	}

	if err := validate.Check(rn); err != nil {
		return errs.NewTrusted(errors.New("Error: Please supply a valid list of nodes"), http.StatusBadRequest)
	}

	peers, err := h.State.RegisterPeers(rn.Nodes)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := registered{
		Message:    "New nodes have been added",
		TotalNodes: make([]string, len(peers)),
	}
	for i, pr := range peers {
		resp.TotalNodes[i] = pr.Host
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ResolveConflicts replaces the local chain with the longest valid chain held
// by the known peers.
func (h Handlers) ResolveConflicts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	replaced, blocks := h.State.ResolveConflicts(ctx)

	resp := resolved{
		Message:  "Our chain is authoritative",
		NewChain: blocks,
	}
	if replaced {
		resp.Message = "Our chain was replaced"
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Pending returns the transactions waiting for the next block.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrievePending()

	resp := pending{
		Transactions: txs,
		Length:       len(txs),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
