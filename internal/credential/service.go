package credential

import (
	"context" // Context for chain and store operations
	"time"    // Anchor record timestamps

	"credexa/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
)

// AnchorRecord is the on-chain record for a hash: who anchored it and when.
// Written once per hash by the contract, read-only afterwards.
type AnchorRecord struct {
	Issuer    string    // Chain address of the anchoring sender
	Timestamp time.Time // Block time of the anchoring transaction
}

// ChainClient is the chain collaborator of the anchoring and verification
// services. Implementations must treat a zero-timestamp slot as absent and
// return a nil record rather than an error for it.
type ChainClient interface {
	// Anchor submits the hash to the contract and returns the transaction hash.
	// ErrInvalidInput for a malformed hash, ErrAlreadyAnchoredOnChain if the
	// slot is occupied, ErrChainUnavailable on transport failure.
	Anchor(ctx context.Context, hash string) (string, error)
	// Lookup returns the anchor record for a hash, or nil if the hash is not
	// anchored. Absence is not an error.
	Lookup(ctx context.Context, hash string) (*AnchorRecord, error)
}

// Service orchestrates hash derivation, the chain write and the store write
// to anchor a credential exactly once.
type Service struct {
	store Store       // Credential record store
	chain ChainClient // Chain anchor client
}

// NewService constructs an anchoring Service with its collaborators injected,
// so tests can substitute fakes for both.
func NewService(store Store, chain ChainClient) *Service {
	return &Service{store: store, chain: chain}
}

// AnchorCredential anchors the credential on chain and persists the hash
// pair. The chain write strictly precedes the store write: a transaction
// hash is never persisted speculatively, and a chain failure leaves the
// credential completely unmodified.
func (s *Service) AnchorCredential(ctx context.Context, credentialID string, userID uint) (*domain.Credential, error) {
	cred, err := s.store.FindByID(ctx, credentialID) // Load the credential
	if err != nil {
		return nil, err
	}
	// Ownership is folded into not-found so a foreign credential id leaks nothing
	if cred.UserID != userID {
		return nil, ErrNotFound
	}
	// Anchoring is at-most-once per credential
	if cred.TransactionHash != nil {
		return nil, ErrAlreadyAnchored
	}
	// Derive the content hash from the immutable identity triple
	hash, err := DeriveHash(cred.ID, cred.Issuer, cred.IssueDate)
	if err != nil {
		return nil, err
	}
	// Chain write first; on failure the credential stays untouched
	txHash, err := s.chain.Anchor(ctx, hash)
	if err != nil {
		return nil, err
	}
	// Guarded store write; a concurrent anchor that won the race surfaces
	// here as ErrAlreadyAnchored
	if err := s.store.MarkAnchored(ctx, cred.ID, hash, txHash); err != nil {
		return nil, err
	}
	// Log successful anchoring
	logrus.WithFields(logrus.Fields{
		"credential_id": cred.ID, // Credential ID
		"user_id":       userID,  // Owner user ID
		"hash":          hash,    // Anchored content hash
		"tx_hash":       txHash,  // Chain transaction hash
	}).Info("Credential anchored")
	// Return the updated record
	cred.CredentialHash = &hash
	cred.TransactionHash = &txHash
	cred.Status = domain.StatusVerified
	return cred, nil
}
