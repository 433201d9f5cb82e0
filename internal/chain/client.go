package chain

import (
	"context"      // Context for chain operations
	"encoding/hex" // Hash decoding
	"math/big"     // Contract return values
	"strings"      // ABI parsing and error inspection
	"time"         // Call timeouts and block times

	"credexa/internal/credential" // Core error taxonomy and record types

	"github.com/ethereum/go-ethereum/accounts/abi"      // Contract ABI parsing
	"github.com/ethereum/go-ethereum/accounts/abi/bind" // Bound contract calls
	"github.com/ethereum/go-ethereum/common"            // Address handling
	"github.com/ethereum/go-ethereum/crypto"            // Key parsing
	"github.com/ethereum/go-ethereum/ethclient"         // JSON-RPC client
)

// anchorABI is the interface of the deployed anchor contract: a write-once
// bytes32 -> (sender, block time) mapping. store reverts on an occupied slot.
const anchorABI = `[
	{"inputs":[{"internalType":"bytes32","name":"hash","type":"bytes32"}],"name":"store","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"bytes32","name":"hash","type":"bytes32"}],"name":"retrieve","outputs":[{"internalType":"address","name":"issuer","type":"address"},{"internalType":"uint256","name":"timestamp","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// Config holds the chain client configuration, injected at startup
type Config struct {
	RPCURL          string        // Blockchain JSON-RPC endpoint
	PrivateKey      string        // Hex-encoded signing key
	ContractAddress string        // Deployed anchor contract address
	Timeout         time.Duration // Per-call timeout, zero disables
}

// Client talks to the anchor contract. It implements credential.ChainClient.
type Client struct {
	contract *bind.BoundContract // Bound anchor contract
	opts     *bind.TransactOpts  // Keyed transactor for store calls
	timeout  time.Duration       // Per-call timeout
}

// Compile-time check that Client satisfies the core's collaborator contract
var _ credential.ChainClient = (*Client)(nil)

// New constructs a Client: dials the RPC endpoint, parses the signing key
// and binds the contract. Transport failures surface as ChainUnavailableError
// so the caller can distinguish them from configuration mistakes.
func New(cfg Config) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(anchorABI)) // Parse the contract ABI
	if err != nil {
		return nil, err
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x")) // Parse the signing key
	if err != nil {
		return nil, err
	}
	eth, err := ethclient.Dial(cfg.RPCURL) // Dial the JSON-RPC endpoint
	if err != nil {
		return nil, &credential.ChainUnavailableError{Cause: err}
	}
	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	chainID, err := eth.ChainID(ctx) // The transactor needs the chain id for signing
	if err != nil {
		return nil, &credential.ChainUnavailableError{Cause: err}
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID) // Keyed transactor
	if err != nil {
		return nil, err
	}
	return &Client{
		contract: bind.NewBoundContract(common.HexToAddress(cfg.ContractAddress), parsed, eth, eth, eth),
		opts:     opts,
		timeout:  cfg.Timeout,
	}, nil
}

// Anchor submits the hash to the contract and returns the transaction hash.
// The write is append-only: an occupied slot surfaces as
// ErrAlreadyAnchoredOnChain, never as a silent overwrite.
func (c *Client) Anchor(ctx context.Context, hash string) (string, error) {
	key, err := parseHash(hash) // Validate before touching the network
	if err != nil {
		return "", err
	}
	ctx, cancel := c.bound(ctx) // Bound by the configured timeout
	defer cancel()
	// Read the slot first so a store/chain divergence is caught before
	// paying for a doomed transaction
	rec, err := c.lookup(ctx, key)
	if err != nil {
		return "", err
	}
	if rec != nil {
		return "", credential.ErrAlreadyAnchoredOnChain
	}
	opts := *c.opts    // Shallow copy so the shared transactor stays untouched
	opts.Context = ctx // Carry the bounded context into the transaction
	tx, err := c.contract.Transact(&opts, "store", key)
	if err != nil {
		// A revert means the contract rejected the write: the slot filled
		// between the read above and the transaction landing
		if strings.Contains(err.Error(), "execution reverted") {
			return "", credential.ErrAlreadyAnchoredOnChain
		}
		return "", &credential.ChainUnavailableError{Cause: err}
	}
	return tx.Hash().Hex(), nil
}

// Lookup returns the anchor record for a hash, or nil if the slot is empty.
// Absence is not an error.
func (c *Client) Lookup(ctx context.Context, hash string) (*credential.AnchorRecord, error) {
	key, err := parseHash(hash) // Validate before touching the network
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.bound(ctx) // Bound by the configured timeout
	defer cancel()
	return c.lookup(ctx, key)
}

// lookup reads the contract slot for a key
func (c *Client) lookup(ctx context.Context, key [32]byte) (*credential.AnchorRecord, error) {
	var out []interface{} // Raw ABI outputs
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "retrieve", key); err != nil {
		return nil, &credential.ChainUnavailableError{Cause: err}
	}
	return recordFromOutputs(out), nil
}

// bound derives a context bounded by the configured timeout
func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// parseHash validates the canonical wire format and decodes it into the
// contract's bytes32 key. Returns ErrInvalidInput without any network call
// for malformed input.
func parseHash(hash string) ([32]byte, error) {
	var key [32]byte
	h, err := credential.NormalizeHash(hash)
	if err != nil {
		return key, err
	}
	b, err := hex.DecodeString(h[2:]) // Strip the 0x prefix
	if err != nil {
		return key, credential.ErrInvalidInput
	}
	copy(key[:], b)
	return key, nil
}

// recordFromOutputs maps the retrieve outputs onto an AnchorRecord. A zero
// timestamp is the contract's empty-slot default and reads as absent, not as
// a valid zero-timestamp anchor.
func recordFromOutputs(out []interface{}) *credential.AnchorRecord {
	if len(out) != 2 {
		return nil
	}
	addr, ok := out[0].(common.Address) // Anchoring sender
	ts, ok2 := out[1].(*big.Int)        // Block time in seconds
	if !ok || !ok2 || ts.Sign() == 0 {
		return nil
	}
	return &credential.AnchorRecord{
		Issuer:    addr.Hex(),                     // Checksummed chain address
		Timestamp: time.Unix(ts.Int64(), 0).UTC(), // Block time as UTC instant
	}
}
