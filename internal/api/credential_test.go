package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"credexa/internal/api"
	"credexa/internal/credential"
	"credexa/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockStore struct {
	cred    *domain.Credential
	markErr error
}

func (m *mockStore) FindByID(_ context.Context, id string) (*domain.Credential, error) {
	if m.cred == nil || m.cred.ID != id {
		return nil, credential.ErrNotFound
	}
	cp := *m.cred
	return &cp, nil
}

func (m *mockStore) FindByHash(_ context.Context, hash string) (*domain.Credential, error) {
	if m.cred == nil || m.cred.CredentialHash == nil || *m.cred.CredentialHash != hash {
		return nil, credential.ErrNotFound
	}
	cp := *m.cred
	return &cp, nil
}

func (m *mockStore) MarkAnchored(_ context.Context, _, hash, txHash string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.cred.CredentialHash = &hash
	m.cred.TransactionHash = &txHash
	m.cred.Status = domain.StatusVerified
	return nil
}

func (m *mockStore) UpdateDescriptive(_ context.Context, id string, fields map[string]any) error {
	if m.cred == nil || m.cred.ID != id {
		return credential.ErrNotFound
	}
	// Identity columns are frozen once the credential carries a transaction
	for col := range fields {
		if (col == "issuer" || col == "issue_date") && m.cred.TransactionHash != nil {
			return credential.ErrInvalidInput
		}
	}
	for col, val := range fields {
		switch col {
		case "title":
			m.cred.Title = val.(string)
		case "issuer":
			m.cred.Issuer = val.(string)
		case "issue_date":
			m.cred.IssueDate = val.(time.Time)
		}
	}
	return nil
}

type mockUsers struct {
	user *domain.User
}

func (m *mockUsers) FindByID(_ context.Context, id uint) (*domain.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, credential.ErrNotFound
	}
	cp := *m.user
	return &cp, nil
}

type mockChain struct {
	tx        string
	rec       *credential.AnchorRecord
	anchorErr error
	lookupErr error
}

func (m *mockChain) Anchor(_ context.Context, _ string) (string, error) {
	if m.anchorErr != nil {
		return "", m.anchorErr
	}
	return m.tx, nil
}

func (m *mockChain) Lookup(_ context.Context, _ string) (*credential.AnchorRecord, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.rec, nil
}

// --- Router wiring ---

func testCredential() *domain.Credential {
	return &domain.Credential{
		ID:        "5f6e7d8c-1a2b-4c3d-9e0f-a1b2c3d4e5f6",
		UserID:    1,
		Issuer:    "Coursera",
		IssueDate: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Title:     "Machine Learning Specialization",
		Status:    domain.StatusPending,
	}
}

// authAs injects the userID a passing JWT middleware would have set
func authAs(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func newRouter(store credential.Store, users credential.Users, chain credential.ChainClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := credential.NewService(store, chain)
	verifier := credential.NewVerifier(store, users, chain)
	r.POST("/api/credentials/:id/anchor", authAs(1), api.AnchorCredentialHandler(svc, nil))
	r.PUT("/api/credentials/:id", authAs(1), api.UpdateCredentialHandler(store))
	r.GET("/credentials/verify/:hash", api.VerifyHandler(verifier, nil))
	return r
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func doJSONRequest(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// --- Anchor endpoint ---

func TestAnchorEndpointSuccess(t *testing.T) {
	cred := testCredential()
	store := &mockStore{cred: cred}
	chain := &mockChain{tx: "0x4e1c7b4f1e2d3c4b5a6978879695a4b3c2d1e0f1a2b3c4d5e6f708192a3b4c5d"}
	r := newRouter(store, &mockUsers{}, chain)

	w := doRequest(r, http.MethodPost, "/api/credentials/"+cred.ID+"/anchor")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Credential domain.Credential `json:"credential"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Credential.TransactionHash)
	assert.Equal(t, chain.tx, *body.Credential.TransactionHash)
	assert.Equal(t, domain.StatusVerified, body.Credential.Status)
}

func TestAnchorEndpointNotFound(t *testing.T) {
	r := newRouter(&mockStore{}, &mockUsers{}, &mockChain{})

	w := doRequest(r, http.MethodPost, "/api/credentials/unknown-id/anchor")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnchorEndpointAlreadyAnchored(t *testing.T) {
	cred := testCredential()
	hash := "0x3b1bfb6e06a78d262cd0ab480fc574be4b611bc76f1c1ec737077be86a961de9"
	tx := "0x4e1c7b4f1e2d3c4b5a6978879695a4b3c2d1e0f1a2b3c4d5e6f708192a3b4c5d"
	cred.CredentialHash = &hash
	cred.TransactionHash = &tx
	cred.Status = domain.StatusVerified
	r := newRouter(&mockStore{cred: cred}, &mockUsers{}, &mockChain{})

	w := doRequest(r, http.MethodPost, "/api/credentials/"+cred.ID+"/anchor")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAnchorEndpointChainUnavailable(t *testing.T) {
	cred := testCredential()
	chain := &mockChain{anchorErr: &credential.ChainUnavailableError{Cause: context.DeadlineExceeded}}
	r := newRouter(&mockStore{cred: cred}, &mockUsers{}, chain)

	w := doRequest(r, http.MethodPost, "/api/credentials/"+cred.ID+"/anchor")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// The failed attempt left no partial write behind
	assert.Nil(t, cred.CredentialHash)
	assert.Nil(t, cred.TransactionHash)
}

// --- Update endpoint ---

func TestUpdateEndpointIssuerAfterAnchoring(t *testing.T) {
	cred := testCredential()
	hash := "0x3b1bfb6e06a78d262cd0ab480fc574be4b611bc76f1c1ec737077be86a961de9"
	tx := "0x4e1c7b4f1e2d3c4b5a6978879695a4b3c2d1e0f1a2b3c4d5e6f708192a3b4c5d"
	cred.CredentialHash = &hash
	cred.TransactionHash = &tx
	cred.Status = domain.StatusVerified
	r := newRouter(&mockStore{cred: cred}, &mockUsers{}, &mockChain{})

	w := doJSONRequest(t, r, http.MethodPut, "/api/credentials/"+cred.ID,
		gin.H{"issuer": "edX"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot change after anchoring")

	// The anchored identity survived the rejected edit
	assert.Equal(t, "Coursera", cred.Issuer)
}

func TestUpdateEndpointTitleAfterAnchoring(t *testing.T) {
	cred := testCredential()
	hash := "0x3b1bfb6e06a78d262cd0ab480fc574be4b611bc76f1c1ec737077be86a961de9"
	tx := "0x4e1c7b4f1e2d3c4b5a6978879695a4b3c2d1e0f1a2b3c4d5e6f708192a3b4c5d"
	cred.CredentialHash = &hash
	cred.TransactionHash = &tx
	cred.Status = domain.StatusVerified
	r := newRouter(&mockStore{cred: cred}, &mockUsers{}, &mockChain{})

	w := doJSONRequest(t, r, http.MethodPut, "/api/credentials/"+cred.ID,
		gin.H{"title": "Deep Learning Specialization"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Deep Learning Specialization", cred.Title)
}

func TestUpdateEndpointIssuerBeforeAnchoring(t *testing.T) {
	cred := testCredential()
	r := newRouter(&mockStore{cred: cred}, &mockUsers{}, &mockChain{})

	w := doJSONRequest(t, r, http.MethodPut, "/api/credentials/"+cred.ID,
		gin.H{"issuer": "edX", "issue_date": "2024-06-01T00:00:00Z"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "edX", cred.Issuer)
}

func TestUpdateEndpointForeignCredential(t *testing.T) {
	cred := testCredential()
	cred.UserID = 2 // Owned by somebody else; the caller authenticates as user 1
	r := newRouter(&mockStore{cred: cred}, &mockUsers{}, &mockChain{})

	w := doJSONRequest(t, r, http.MethodPut, "/api/credentials/"+cred.ID,
		gin.H{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Machine Learning Specialization", cred.Title)
}

// --- Verify endpoint ---

func TestVerifyEndpointMalformedHash(t *testing.T) {
	r := newRouter(&mockStore{}, &mockUsers{}, &mockChain{})

	w := doRequest(r, http.MethodGet, "/credentials/verify/not-a-hash")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyEndpointUnknownHash(t *testing.T) {
	r := newRouter(&mockStore{}, &mockUsers{}, &mockChain{})

	w := doRequest(r, http.MethodGet, "/credentials/verify/0x3b1bfb6e06a78d262cd0ab480fc574be4b611bc76f1c1ec737077be86a961de9")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyEndpointDatabaseOnly(t *testing.T) {
	cred := testCredential()
	hash := "0x3b1bfb6e06a78d262cd0ab480fc574be4b611bc76f1c1ec737077be86a961de9"
	tx := "0x4e1c7b4f1e2d3c4b5a6978879695a4b3c2d1e0f1a2b3c4d5e6f708192a3b4c5d"
	cred.CredentialHash = &hash
	cred.TransactionHash = &tx
	owner := &domain.User{ID: 1, Name: "Asha Rao", PublicProfile: true}
	r := newRouter(&mockStore{cred: cred}, &mockUsers{user: owner}, &mockChain{})

	w := doRequest(r, http.MethodGet, "/credentials/verify/"+hash)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Result credential.VerificationResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Result.Verified)
	assert.Equal(t, credential.SourceDatabase, body.Result.Source)
	require.NotNil(t, body.Result.Credential)
	require.NotNil(t, body.Result.Holder)
	assert.Equal(t, "Asha Rao", body.Result.Holder.Name)
}

func TestVerifyEndpointChainVerified(t *testing.T) {
	hash := "0x3b1bfb6e06a78d262cd0ab480fc574be4b611bc76f1c1ec737077be86a961de9"
	chain := &mockChain{rec: &credential.AnchorRecord{
		Issuer:    "0x9aF2E4C1D8b3A5F6079c8D1e2F3a4B5C6d7E8F90",
		Timestamp: time.Unix(1715300000, 0).UTC(),
	}}
	r := newRouter(&mockStore{}, &mockUsers{}, chain)

	w := doRequest(r, http.MethodGet, "/credentials/verify/"+hash)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Result credential.VerificationResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Result.Verified)
	assert.Equal(t, credential.SourceBlockchain, body.Result.Source)
	assert.Nil(t, body.Result.Credential)
}
