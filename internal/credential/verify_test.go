package credential_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"credexa/internal/credential"
	"credexa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anchoredCredential returns a credential whose hash pair is already set,
// together with its canonical hash.
func anchoredCredential(t *testing.T, owner uint) (*domain.Credential, string) {
	t.Helper()
	cred := pendingCredential()
	cred.UserID = owner
	hash, err := credential.DeriveHash(cred.ID, cred.Issuer, cred.IssueDate)
	require.NoError(t, err)
	tx := "0x4e1c7b4f1e2d3c4b5a6978879695a4b3c2d1e0f1a2b3c4d5e6f708192a3b4c5d"
	cred.CredentialHash = &hash
	cred.TransactionHash = &tx
	cred.Status = domain.StatusVerified
	return cred, hash
}

func publicOwner() *domain.User {
	return &domain.User{
		ID:             1,
		Name:           "Asha Rao",
		Email:          "asha@example.com",
		Institute:      "NIT Trichy",
		ProfilePicture: "https://cdn.example.com/asha.png",
		PublicProfile:  true,
	}
}

func TestVerifyChainOnly(t *testing.T) {
	hash := "0x3b1bfb6e06a78d262cd0ab480fc574be4b611bc76f1c1ec737077be86a961de9"
	chain := newFakeChain()
	chain.records[hash] = credential.AnchorRecord{
		Issuer:    "0x9aF2E4C1D8b3A5F6079c8D1e2F3a4B5C6d7E8F90",
		Timestamp: time.Unix(1715300000, 0).UTC(),
	}
	v := credential.NewVerifier(newFakeStore(), newFakeUsers(), chain)

	result, err := v.Verify(context.Background(), hash)
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, credential.SourceBlockchain, result.Source)
	assert.Equal(t, "0x9aF2E4C1D8b3A5F6079c8D1e2F3a4B5C6d7E8F90", result.Issuer)
	assert.Equal(t, time.Unix(1715300000, 0).UTC(), result.Timestamp)
	// No local record, so no metadata and no holder
	assert.Nil(t, result.Credential)
	assert.Nil(t, result.Holder)
}

func TestVerifyChainAndDatabase(t *testing.T) {
	cred, hash := anchoredCredential(t, 1)
	chain := newFakeChain()
	chain.records[hash] = credential.AnchorRecord{
		Issuer:    "0x9aF2E4C1D8b3A5F6079c8D1e2F3a4B5C6d7E8F90",
		Timestamp: time.Unix(1715300000, 0).UTC(),
	}
	v := credential.NewVerifier(newFakeStore(cred), newFakeUsers(publicOwner()), chain)

	result, err := v.Verify(context.Background(), hash)
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, credential.SourceBlockchain, result.Source)
	// Chain data stays authoritative for issuer and timestamp even with a
	// local record attached
	assert.Equal(t, "0x9aF2E4C1D8b3A5F6079c8D1e2F3a4B5C6d7E8F90", result.Issuer)
	require.NotNil(t, result.Credential)
	assert.Equal(t, cred.ID, result.Credential.ID)
	assert.Equal(t, cred.Title, result.Credential.Title)
	// The owner opted into a public profile
	require.NotNil(t, result.Holder)
	assert.Equal(t, "Asha Rao", result.Holder.Name)
	assert.Equal(t, "NIT Trichy", result.Holder.Institute)
}

func TestVerifyDatabaseOnly(t *testing.T) {
	cred, hash := anchoredCredential(t, 1)
	// Chain has no record for the hash at all
	v := credential.NewVerifier(newFakeStore(cred), newFakeUsers(publicOwner()), newFakeChain())

	result, err := v.Verify(context.Background(), hash)
	require.NoError(t, err)
	// A database hit without a chain anchor is explicitly lower trust
	assert.False(t, result.Verified)
	assert.Equal(t, credential.SourceDatabase, result.Source)
	assert.Equal(t, cred.Issuer, result.Issuer)
	assert.Equal(t, cred.IssueDate, result.Timestamp)
	require.NotNil(t, result.Credential)
	assert.Equal(t, cred.ID, result.Credential.ID)
}

func TestVerifyDegradesWhenChainDown(t *testing.T) {
	cred, hash := anchoredCredential(t, 1)
	chain := newFakeChain()
	chain.lookupErr = &credential.ChainUnavailableError{Cause: context.DeadlineExceeded}
	v := credential.NewVerifier(newFakeStore(cred), newFakeUsers(publicOwner()), chain)

	// The chain failure must not fail the request; it degrades to the
	// database-only result
	result, err := v.Verify(context.Background(), hash)
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, credential.SourceDatabase, result.Source)
	require.NotNil(t, result.Credential)
}

func TestVerifyUnknownHash(t *testing.T) {
	v := credential.NewVerifier(newFakeStore(), newFakeUsers(), newFakeChain())

	_, err := v.Verify(context.Background(), "0x3b1bfb6e06a78d262cd0ab480fc574be4b611bc76f1c1ec737077be86a961de9")
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestVerifyMalformedHashShortCircuits(t *testing.T) {
	store := newFakeStore()
	users := newFakeUsers()
	chain := newFakeChain()
	v := credential.NewVerifier(store, users, chain)

	_, err := v.Verify(context.Background(), "not-a-hash")
	assert.ErrorIs(t, err, credential.ErrInvalidInput)

	// Validation failed before any lookup happened
	assert.Equal(t, 0, store.findCalls)
	assert.Equal(t, 0, chain.lookupCalls)
	assert.Equal(t, 0, users.findCalls)
}

func TestVerifyHonorsPrivateProfile(t *testing.T) {
	cred, hash := anchoredCredential(t, 1)
	owner := publicOwner()
	owner.PublicProfile = false
	v := credential.NewVerifier(newFakeStore(cred), newFakeUsers(owner), newFakeChain())

	result, err := v.Verify(context.Background(), hash)
	require.NoError(t, err)
	// Metadata is public, the holder is not
	require.NotNil(t, result.Credential)
	assert.Nil(t, result.Holder)
}

func TestVerifyNormalizesHashCase(t *testing.T) {
	cred, hash := anchoredCredential(t, 1)
	v := credential.NewVerifier(newFakeStore(cred), newFakeUsers(publicOwner()), newFakeChain())

	// An uppercase presentation of the same digest still resolves
	result, err := v.Verify(context.Background(), "0x"+strings.ToUpper(hash[2:]))
	require.NoError(t, err)
	require.NotNil(t, result.Credential)
	assert.Equal(t, cred.ID, result.Credential.ID)
}
