package public

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// newTx is what clients send to queue a transaction. The fields are pointers
// so a missing field can be told apart from an empty one.
type newTx struct {
	Sender    *string          `json:"sender" validate:"required"`
	Recipient *string          `json:"recipient" validate:"required"`
	Amount    *database.Amount `json:"amount" validate:"required"`
}

type registerNodes struct {
	Nodes []string `json:"nodes" validate:"required,min=1"`
}

// =============================================================================

type message struct {
	Message string `json:"message"`
}

type mined struct {
	Message      string        `json:"message"`
	Index        int64         `json:"index"`
	Transactions []database.Tx `json:"transactions"`
	Proof        int64         `json:"proof"`
	PrevHash     database.Link `json:"previous_hash"`
}

type chain struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

type registered struct {
	Message    string   `json:"message"`
	TotalNodes []string `json:"total_nodes"`
}

type resolved struct {
	Message  string           `json:"message"`
	NewChain []database.Block `json:"new_chain"`
}

type pending struct {
	Transactions []database.Tx `json:"transactions"`
	Length       int           `json:"length"`
}
