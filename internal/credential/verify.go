package credential

import (
	"context" // Context for chain and store operations
	"errors"  // Error matching
	"time"    // Fallback timestamps

	"github.com/sirupsen/logrus" // Logging library
)

// Provenance labels for a verification result. The chain is authoritative;
// the database is a lower-trust fallback and the caller must be able to tell
// the two apart.
const (
	SourceBlockchain = "blockchain" // Result backed by the on-chain anchor
	SourceDatabase   = "database"   // Result backed only by the local record
)

// CredentialPublic is the public-safe projection of a credential returned
// to unauthenticated verifiers.
type CredentialPublic struct {
	ID          string    `json:"id"`          // Credential ID
	Title       string    `json:"title"`       // Credential title
	Issuer      string    `json:"issuer"`      // Issuing platform or institution
	IssueDate   time.Time `json:"issue_date"`  // Issue instant per the local record
	Description string    `json:"description"` // Free-form description
	Skills      string    `json:"skills"`      // Comma-separated skills
	ImageURL    string    `json:"image_url"`   // Certificate image URL
	Status      string    `json:"status"`      // pending, verified or expired
}

// HolderPublic is the public-safe projection of the owning user, shown only
// when the owner's privacy settings allow it. Never email, never the
// credential list.
type HolderPublic struct {
	Name           string `json:"name"`            // Display name
	ProfilePicture string `json:"profile_picture"` // Profile picture URL
	Institute      string `json:"institute"`       // Institute or university name
}

// VerificationResult reconciles the chain and the local store for one hash.
// Source labels where Issuer and Timestamp came from so the two trust levels
// cannot be confused.
type VerificationResult struct {
	Verified   bool              `json:"verified"`             // True only when the chain holds the hash
	Source     string            `json:"source"`               // blockchain or database
	Issuer     string            `json:"issuer"`               // Chain sender address, or the record's issuer
	Timestamp  time.Time         `json:"timestamp"`            // Block time, or the record's issue date
	Credential *CredentialPublic `json:"credential,omitempty"` // Local record metadata, when a record exists
	Holder     *HolderPublic     `json:"holder,omitempty"`     // Owner projection, when privacy allows
}

// Verifier reconciles on-chain state and local record state for a presented
// hash. Publicly callable: no authentication and no caller identity.
type Verifier struct {
	store Store       // Credential record store
	users Users       // User collaborator for the holder projection
	chain ChainClient // Chain anchor client
}

// NewVerifier constructs a Verifier with its collaborators injected
func NewVerifier(store Store, users Users, chain ChainClient) *Verifier {
	return &Verifier{store: store, users: users, chain: chain}
}

// Verify checks a presented hash against the chain and the local store.
// Malformed input fails before any lookup. A chain failure degrades to a
// database-only result instead of failing the request; only when neither
// source knows the hash does Verify return ErrNotFound.
func (v *Verifier) Verify(ctx context.Context, hash string) (*VerificationResult, error) {
	h, err := NormalizeHash(hash) // Fail fast on garbage input
	if err != nil {
		return nil, err
	}
	// Local record lookup; absence is fine, store failures propagate
	cred, err := v.store.FindByHash(ctx, h)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	// Independent chain lookup; any chain error degrades to database-only
	rec, chainErr := v.chain.Lookup(ctx, h)
	if chainErr != nil {
		logrus.WithFields(logrus.Fields{
			"hash":  h,                // Presented hash
			"error": chainErr.Error(), // Chain failure cause
		}).Warn("Chain lookup failed, degrading to database-only verification")
		rec = nil
	}
	// Neither source knows the hash
	if rec == nil && cred == nil {
		return nil, ErrNotFound
	}
	result := &VerificationResult{}
	if rec != nil {
		// Chain record is authoritative
		result.Verified = true
		result.Source = SourceBlockchain
		result.Issuer = rec.Issuer
		result.Timestamp = rec.Timestamp
	}
	if cred != nil {
		if rec == nil {
			// Database-only fallback, explicitly labeled lower trust
			result.Verified = false
			result.Source = SourceDatabase
			result.Issuer = cred.Issuer
			result.Timestamp = cred.IssueDate
		}
		result.Credential = &CredentialPublic{
			ID:          cred.ID,          // Credential ID
			Title:       cred.Title,       // Credential title
			Issuer:      cred.Issuer,      // Issuing platform or institution
			IssueDate:   cred.IssueDate,   // Issue instant
			Description: cred.Description, // Free-form description
			Skills:      cred.Skills,      // Comma-separated skills
			ImageURL:    cred.ImageURL,    // Certificate image URL
			Status:      cred.Status,      // Anchoring status
		}
		// Holder projection only when the owner opted into a public profile
		owner, err := v.users.FindByID(ctx, cred.UserID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if owner != nil && owner.PublicProfile {
			result.Holder = &HolderPublic{
				Name:           owner.Name,           // Display name
				ProfilePicture: owner.ProfilePicture, // Profile picture URL
				Institute:      owner.Institute,      // Institute name
			}
		}
	}
	return result, nil
}
