package credential

import (
	"context" // Context for store operations
	"errors"  // Error matching

	"credexa/internal/domain" // Importing domain models

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Locking reads
)

// descriptiveColumns are the credential fields a generic update may touch.
// The hash pair is excluded unconditionally: anchoring is the only write
// path that may set it.
var descriptiveColumns = map[string]bool{
	"title":       true,
	"description": true,
	"skills":      true,
	"image_url":   true,
}

// identityColumns become immutable once a credential is anchored, since the
// anchored hash was derived from them
var identityColumns = map[string]bool{
	"issuer":     true,
	"issue_date": true,
}

// Store is the credential record collaborator of the anchoring and
// verification services.
type Store interface {
	// FindByID loads a credential by id, ErrNotFound if absent
	FindByID(ctx context.Context, id string) (*domain.Credential, error)
	// FindByHash loads a credential by its anchored hash, ErrNotFound if absent
	FindByHash(ctx context.Context, hash string) (*domain.Credential, error)
	// MarkAnchored writes credential_hash, transaction_hash and the verified
	// status in one guarded update. ErrAlreadyAnchored if the credential
	// already carries a transaction hash or the hash is taken.
	MarkAnchored(ctx context.Context, id, hash, txHash string) error
	// UpdateDescriptive applies a descriptive-field update. Identity fields
	// are accepted only while the credential is unanchored; hash fields never.
	UpdateDescriptive(ctx context.Context, id string, fields map[string]any) error
}

// Users is the user collaborator consulted for the public holder projection.
type Users interface {
	// FindByID loads a user by id, ErrNotFound if absent
	FindByID(ctx context.Context, id uint) (*domain.User, error)
}

// GormStore implements Store on a GORM database handle
type GormStore struct {
	db *gorm.DB // Database handle
}

// NewGormStore constructs a GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindByID loads a credential by id
func (s *GormStore) FindByID(ctx context.Context, id string) (*domain.Credential, error) {
	var cred domain.Credential // Credential struct to hold data
	if err := s.db.WithContext(ctx).First(&cred, "id = ?", id).Error; err != nil {
		// Map the GORM sentinel onto the core taxonomy
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// FindByHash loads a credential by its anchored hash
func (s *GormStore) FindByHash(ctx context.Context, hash string) (*domain.Credential, error) {
	var cred domain.Credential // Credential struct to hold data
	if err := s.db.WithContext(ctx).First(&cred, "credential_hash = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// MarkAnchored persists the hash pair and the verified status in a single
// guarded update. The WHERE clause re-validates the unanchored precondition
// at write time, so of two concurrent anchoring attempts exactly one row
// update succeeds; the sparse unique index on credential_hash backs this up
// across credentials.
func (s *GormStore) MarkAnchored(ctx context.Context, id, hash, txHash string) error {
	res := s.db.WithContext(ctx).Model(&domain.Credential{}).
		Where("id = ? AND transaction_hash IS NULL", id).
		Updates(map[string]any{
			"credential_hash":  hash,                  // Content hash
			"transaction_hash": txHash,                // Chain transaction reference
			"status":           domain.StatusVerified, // Status transition
		})
	if res.Error != nil {
		// A duplicate key on credential_hash means another credential
		// already holds this hash
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrAlreadyAnchored
		}
		return res.Error
	}
	// Zero rows means the precondition failed: the credential is gone or a
	// concurrent anchor won the race
	if res.RowsAffected == 0 {
		return ErrAlreadyAnchored
	}
	return nil
}

// filterCredentialUpdates applies the column whitelist to a requested field
// set. Hash columns never pass; unknown columns are dropped silently. The
// second return reports whether any identity column is included, which the
// caller must re-check against the anchoring state at write time.
func filterCredentialUpdates(fields map[string]any) (map[string]any, bool) {
	updates := map[string]any{} // Whitelisted column set
	hasIdentity := false        // Whether issuer or issue_date is touched
	for col, val := range fields {
		switch {
		case descriptiveColumns[col]:
			updates[col] = val // Always editable
		case identityColumns[col]:
			updates[col] = val // Editable only while unanchored
			hasIdentity = true
		}
	}
	return updates, hasIdentity
}

// UpdateDescriptive applies a whitelisted update to a credential. Identity
// columns on an anchored credential fail with ErrInvalidInput since editing
// them would invalidate the anchor. The anchoring check and the write happen
// under a locking read in one transaction, so a concurrent MarkAnchored
// cannot commit between the check and the write and let an identity edit
// land on a just-anchored row.
func (s *GormStore) UpdateDescriptive(ctx context.Context, id string, fields map[string]any) error {
	updates, hasIdentity := filterCredentialUpdates(fields)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cred domain.Credential // Locked row for the anchoring check
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&cred, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		// Identity fields freeze once anchored; the row lock holds this
		// state stable until the update below commits
		if hasIdentity && cred.TransactionHash != nil {
			return ErrInvalidInput
		}
		if len(updates) == 0 {
			return nil // Nothing to write
		}
		return tx.Model(&domain.Credential{}).
			Where("id = ?", id).
			Updates(updates).Error
	})
}

// GormUsers implements Users on a GORM database handle
type GormUsers struct {
	db *gorm.DB // Database handle
}

// NewGormUsers constructs a GormUsers
func NewGormUsers(db *gorm.DB) *GormUsers {
	return &GormUsers{db: db}
}

// FindByID loads a user by id
func (u *GormUsers) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User // User struct to hold data
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
