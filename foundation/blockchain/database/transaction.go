package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/ardanlabs/powledger/foundation/blockchain/canonical"
)

// RewardSender is the sender recorded on the transaction that pays a miner
// for solving a block.
const RewardSender = "0"

// RewardAmount is the amount paid to a miner for solving a block.
var RewardAmount = NewAmount(1)

// =============================================================================

// Amount is the value moved by a transaction. It holds the normalized JSON
// number text so the value hashes the same on every node.
type Amount struct {
	lit string
}

// NewAmount constructs an amount from an integer.
func NewAmount(v int64) Amount {
	return Amount{lit: strconv.FormatInt(v, 10)}
}

// numberLit matches the JSON number grammar.
var numberLit = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// ParseAmount constructs an amount from a JSON number literal.
func ParseAmount(lit string) (Amount, error) {
	if !numberLit.MatchString(lit) {
		return Amount{}, fmt.Errorf("parsing amount: invalid number %q", lit)
	}

	norm, err := canonical.NormalizeNumber(lit)
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount: %w", err)
	}

	return Amount{lit: norm}, nil
}

// String returns the number text of the amount.
func (a Amount) String() string {
	if a.lit == "" {
		return "0"
	}
	return a.lit
}

// IsZero reports if the amount was never set.
func (a Amount) IsZero() bool {
	return a.lit == ""
}

// MarshalJSON implements the json.Marshaler interface.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface. Only JSON numbers
// are accepted.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' || bytes.Equal(data, []byte("null")) {
		return errors.New("amount must be a number")
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("amount must be a number: %w", err)
	}

	amount, err := ParseAmount(num.String())
	if err != nil {
		return err
	}

	*a = amount
	return nil
}

// =============================================================================

// Tx is the transactional information between two parties.
type Tx struct {
	Sender    string `json:"sender"`    // Account sending the value, RewardSender for mining rewards.
	Recipient string `json:"recipient"` // Account receiving the value.
	Amount    Amount `json:"amount"`    // Value moved by the transaction.
}

// NewTx constructs a new transaction.
func NewTx(sender string, recipient string, amount Amount) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}
}

// NewRewardTx constructs the transaction that pays the miner of a block.
func NewRewardTx(nodeID string) Tx {
	return NewTx(RewardSender, nodeID, RewardAmount)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%s", tx.Sender, tx.Recipient, tx.Amount)
}

// canonical returns the value used when hashing the block holding the
// transaction.
func (tx Tx) canonical() canonical.Value {
	return canonical.Object{
		"sender":    canonical.String(tx.Sender),
		"recipient": canonical.String(tx.Recipient),
		"amount":    canonical.Raw(tx.Amount.String()),
	}
}
