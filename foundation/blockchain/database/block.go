package database

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/canonical"
)

// Genesis sentinel values. The genesis block does not link to a real hash
// and its proof is never validated against a previous proof.
const (
	GenesisLink  Link  = "1"
	GenesisProof int64 = 100
)

// =============================================================================

// Link is the reference a block holds to the hash of its predecessor. The
// genesis sentinel travels as the JSON number 1, any other link as a string.
type Link string

// MarshalJSON implements the json.Marshaler interface.
func (l Link) MarshalJSON() ([]byte, error) {
	if l == GenesisLink {
		return []byte(GenesisLink), nil
	}
	return json.Marshal(string(l))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (l *Link) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty previous hash")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Link(s)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("previous hash must be a string or number: %w", err)
	}

	norm, err := canonical.NormalizeNumber(num.String())
	if err != nil {
		return err
	}
	*l = Link(norm)

	return nil
}

// canonical returns the value used when hashing the block.
func (l Link) canonical() canonical.Value {
	if l == GenesisLink {
		return canonical.Raw(GenesisLink)
	}
	return canonical.String(l)
}

// =============================================================================

// Timestamp is the number of seconds since the epoch, with fractions.
type Timestamp float64

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp(float64(time.Now().UnixNano()) / float64(time.Second))
}

// Time converts the timestamp into a time value.
func (ts Timestamp) Time() time.Time {
	sec := int64(ts)
	nsec := int64((float64(ts) - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// MarshalJSON implements the json.Marshaler interface. Whole seconds keep
// their fraction so other nodes decode the value as a float.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(canonical.FormatFloat(float64(ts))), nil
}

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	Index        int64     `json:"index"`         // Position of the block in the chain, starting at 1.
	TimeStamp    Timestamp `json:"timestamp"`     // Time the block was sealed.
	Transactions []Tx      `json:"transactions"`  // Transactions in the order they were queued.
	Proof        int64     `json:"proof"`         // Solution of the POW puzzle against the previous proof.
	PrevHash     Link      `json:"previous_hash"` // Hash of the previous block in the chain.
}

// NewGenesis constructs the first block of a chain.
func NewGenesis() Block {
	return Block{
		Index:        1,
		TimeStamp:    Now(),
		Transactions: []Tx{},
		Proof:        GenesisProof,
		PrevHash:     GenesisLink,
	}
}

// NewBlock constructs the block that follows a chain of the specified length.
// The transactions are copied so later changes to the caller's slice do not
// alter the block.
func NewBlock(length int, trans []Tx, proof int64, prevHash Link) Block {
	cpy := make([]Tx, len(trans))
	copy(cpy, trans)

	return Block{
		Index:        int64(length) + 1,
		TimeStamp:    Now(),
		Transactions: cpy,
		Proof:        proof,
		PrevHash:     prevHash,
	}
}

// Hash returns the unique hash for the Block. The hash is the SHA-256 of the
// canonical JSON for the block, rendered as lowercase hex.
func (b Block) Hash() string {
	sum := sha256.Sum256([]byte(b.Canonical()))
	return hex.EncodeToString(sum[:])
}

// Canonical returns the text the block hash is computed over.
func (b Block) Canonical() string {
	trans := make(canonical.Array, len(b.Transactions))
	for i, tx := range b.Transactions {
		trans[i] = tx.canonical()
	}

	value := canonical.Object{
		"index":         canonical.Int(b.Index),
		"timestamp":     canonical.Float(b.TimeStamp),
		"transactions":  trans,
		"proof":         canonical.Int(b.Proof),
		"previous_hash": b.PrevHash.canonical(),
	}

	return canonical.Encode(value)
}

// Copy returns a copy of the block that shares no memory with the original.
func (b Block) Copy() Block {
	cpy := b
	cpy.Transactions = make([]Tx, len(b.Transactions))
	copy(cpy.Transactions, b.Transactions)
	return cpy
}
