package services

import (
	"testing"
	"time"

	"qr_review_backend/internal/models"
	"qr_review_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenRepo struct {
	tokens map[string]*models.QrToken
}

var _ repositories.TokenRepository = (*fakeTokenRepo)(nil)

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*models.QrToken{}}
}

func (f *fakeTokenRepo) CreateTokens(_ repositories.SQLExecutor, tokens []models.QrToken) error {
	for i := range tokens {
		t := tokens[i]
		f.tokens[t.Token] = &t
	}
	return nil
}

func (f *fakeTokenRepo) GetToken(token string) (*models.QrToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTokenRepo) GetTokens() ([]models.QrToken, error) {
	out := []models.QrToken{}
	for _, t := range f.tokens {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTokenRepo) GetFreeTokens() ([]models.QrToken, error) {
	out := []models.QrToken{}
	for _, t := range f.tokens {
		if t.ClientID == nil && t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) SetAssignment(_ repositories.SQLExecutor, token string, clientID *int64, assignedAt *time.Time) error {
	t, ok := f.tokens[token]
	if !ok {
		return repositories.ErrNotFound
	}
	t.ClientID = clientID
	t.AssignedAt = assignedAt
	return nil
}

func (f *fakeTokenRepo) SetActive(_ repositories.SQLExecutor, token string, active bool) error {
	t, ok := f.tokens[token]
	if !ok {
		return repositories.ErrNotFound
	}
	t.IsActive = active
	return nil
}

func seedToken(repo *fakeTokenRepo, token string, clientID *int64, active bool) {
	repo.tokens[token] = &models.QrToken{
		Token:     token,
		ClientID:  clientID,
		IsActive:  active,
		CreatedAt: time.Now(),
	}
}

func TestMintBatch(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, nil)

	tokens, err := svc.MintBatch(5)
	require.NoError(t, err)
	require.Len(t, tokens, 5)

	seen := map[string]bool{}
	for _, tok := range tokens {
		assert.Len(t, tok.Token, 12)
		assert.True(t, tok.IsActive)
		assert.Nil(t, tok.ClientID)
		assert.False(t, seen[tok.Token], "minted tokens must be unique")
		seen[tok.Token] = true
	}

	_, err = svc.MintBatch(0)
	assert.ErrorIs(t, err, ErrTokenValidation)
}

func TestResolve(t *testing.T) {
	repo := newFakeTokenRepo()
	clientID := int64(42)
	seedToken(repo, "assigned", &clientID, true)
	seedToken(repo, "blank", nil, true)
	seedToken(repo, "disabled", &clientID, false)

	svc := NewTokenService(repo, nil)

	id, err := svc.Resolve("assigned")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = svc.Resolve("blank")
	assert.ErrorIs(t, err, ErrTokenUnassigned)

	_, err = svc.Resolve("disabled")
	assert.ErrorIs(t, err, ErrTokenDisabled)

	_, err = svc.Resolve("missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAssignReassignUnassign(t *testing.T) {
	repo := newFakeTokenRepo()
	seedToken(repo, "T1", nil, true)
	svc := NewTokenService(repo, nil)

	clientA := int64(1)
	clientB := int64(2)

	require.NoError(t, svc.Assign("T1", clientA))
	id, err := svc.Resolve("T1")
	require.NoError(t, err)
	assert.Equal(t, clientA, id)
	firstAssignedAt := *repo.tokens["T1"].AssignedAt

	// Reassignment supersedes A with B, no residual trace of A.
	require.NoError(t, svc.Assign("T1", clientB))
	id, err = svc.Resolve("T1")
	require.NoError(t, err)
	assert.Equal(t, clientB, id)
	assert.False(t, repo.tokens["T1"].AssignedAt.Before(firstAssignedAt))

	require.NoError(t, svc.Unassign("T1"))
	_, err = svc.Resolve("T1")
	assert.ErrorIs(t, err, ErrTokenUnassigned)
	assert.Nil(t, repo.tokens["T1"].AssignedAt)

	// Unassigned tokens can be reassigned arbitrarily many times.
	require.NoError(t, svc.Assign("T1", clientA))
	id, err = svc.Resolve("T1")
	require.NoError(t, err)
	assert.Equal(t, clientA, id)

	assert.ErrorIs(t, svc.Assign("missing", clientA), ErrTokenNotFound)
	assert.ErrorIs(t, svc.Unassign("missing"), ErrTokenNotFound)
}

func TestDisable(t *testing.T) {
	repo := newFakeTokenRepo()
	clientID := int64(7)
	seedToken(repo, "T1", &clientID, true)
	svc := NewTokenService(repo, nil)

	require.NoError(t, svc.Disable("T1"))
	_, err := svc.Resolve("T1")
	assert.ErrorIs(t, err, ErrTokenDisabled)
}

func TestRedirectTarget(t *testing.T) {
	repo := newFakeTokenRepo()
	clientID := int64(99)
	seedToken(repo, "T1", &clientID, true)
	seedToken(repo, "blank", nil, true)
	svc := NewTokenService(repo, nil)

	path, err := svc.RedirectTarget("T1")
	require.NoError(t, err)
	assert.Equal(t, "/review/99", path)

	_, err = svc.RedirectTarget("blank")
	assert.ErrorIs(t, err, ErrTokenUnassigned)

	_, err = svc.RedirectTarget("missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
