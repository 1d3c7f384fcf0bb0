// Package peer maintains the peer related information such as the set
// of know peers and their status.
package peer

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrInvalidAddress is returned when an address has no host.
var ErrInvalidAddress = errors.New("address has no host")

// Peer represents information about a Node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New contructs a new info value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Parse normalizes an address into a peer. Both "http://node1:5000" and
// "node1:5000" produce the host "node1:5000".
func Parse(address string) (Peer, error) {
	address = strings.TrimSpace(address)

	host := address
	if strings.Contains(address, "://") {
		u, err := url.Parse(address)
		if err != nil {
			return Peer{}, fmt.Errorf("parsing address %q: %w", address, err)
		}
		host = u.Host
	}

	host = strings.TrimSuffix(host, "/")
	if host == "" || strings.ContainsAny(host, "/ ") {
		return Peer{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	return New(host), nil
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// String implements the fmt.Stringer interface.
func (p Peer) String() string {
	return p.Host
}

// =============================================================================

// PeerStatus represents information about the status
// of any given peer.
type PeerStatus struct {
	NodeID            string `json:"node_id"`
	LatestBlockHash   string `json:"latest_block_hash"`
	LatestBlockNumber int64  `json:"latest_block_number"`
	Length            int    `json:"length"`
	Pending           int    `json:"pending"`
	KnownPeers        []Peer `json:"known_peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// AddAddresses normalizes each address and adds it to the set. The number of
// peers that were new to the set is returned. No peer is added if any of the
// addresses is invalid.
func (ps *PeerSet) AddAddresses(addresses []string) (int, error) {
	peers := make([]Peer, len(addresses))
	for i, address := range addresses {
		peer, err := Parse(address)
		if err != nil {
			return 0, err
		}
		peers[i] = peer
	}

	var added int
	for _, peer := range peers {
		if ps.Add(peer) {
			added++
		}
	}

	return added, nil
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
}

// Len returns the number of peers in the set.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers, leaving out the specified host.
// The list is sorted by host so callers see a stable order.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, len(ps.set))
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Host < peers[j].Host })

	return peers
}

// =============================================================================

// seedFile is the document format of a seed peers file.
type seedFile struct {
	Peers []string `yaml:"peers"`
}

// LoadFile reads the list of seed addresses from a YAML file of the form
// "peers: [host:port, ...]". A missing file produces an empty list.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading peers file: %w", err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing peers file: %w", err)
	}

	return sf.Peers, nil
}
