package worker

import "time"

// peerOperations handles polling the peers on the ticker.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	// A nil channel blocks forever when polling is turned off.
	var tick <-chan time.Time
	if w.ticker != nil {
		tick = w.ticker.C
	}

	for {
		select {
		case <-tick:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation updates the peer list and resolves conflicts with
// the known peers.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	if added := w.state.NetDiscoverPeers(w.ctx); added > 0 {
		w.evHandler("worker: runPeersOperation: added peers[%d]", added)
	}

	replaced, chain := w.state.ResolveConflicts(w.ctx)
	if replaced {
		w.evHandler("worker: runPeersOperation: chain replaced: length[%d]", len(chain))
	}
}
