package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"qr_review_backend/internal/models"
	"qr_review_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenService struct {
	tokens      map[string]*models.QrToken
	assignCalls int
}

var _ services.TokenService = (*fakeTokenService)(nil)

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{tokens: map[string]*models.QrToken{}}
}

func (f *fakeTokenService) MintBatch(count int) ([]models.QrToken, error) { return nil, nil }

func (f *fakeTokenService) Resolve(token string) (int64, error) {
	t, ok := f.tokens[token]
	if !ok {
		return 0, services.ErrTokenNotFound
	}
	if t.ClientID == nil {
		return 0, services.ErrTokenUnassigned
	}
	return *t.ClientID, nil
}

func (f *fakeTokenService) Assign(token string, clientID int64) error {
	t, ok := f.tokens[token]
	if !ok {
		return services.ErrTokenNotFound
	}
	f.assignCalls++
	now := time.Now()
	t.ClientID = &clientID
	t.AssignedAt = &now
	return nil
}

func (f *fakeTokenService) Unassign(token string) error {
	t, ok := f.tokens[token]
	if !ok {
		return services.ErrTokenNotFound
	}
	t.ClientID = nil
	t.AssignedAt = nil
	return nil
}

func (f *fakeTokenService) Disable(token string) error { return nil }

func (f *fakeTokenService) GetToken(token string) (*models.QrToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, services.ErrTokenNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTokenService) ListTokens() ([]models.QrToken, error)     { return nil, nil }
func (f *fakeTokenService) ListFreeTokens() ([]models.QrToken, error) { return nil, nil }

func (f *fakeTokenService) RedirectTarget(token string) (string, error) { return "", nil }

func newAssignTestRouter(svc *fakeTokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewTokenHandler(svc)
	engine.POST("/qr/:token/assign", handler.AssignToken)
	return engine
}

func postAssign(t *testing.T, engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestAssignTokenRejectsAlreadyAssignedWithoutForce(t *testing.T) {
	svc := newFakeTokenService()
	clientA := int64(1)
	svc.tokens["T1"] = &models.QrToken{Token: "T1", ClientID: &clientA, IsActive: true}
	engine := newAssignTestRouter(svc)

	recorder := postAssign(t, engine, "/qr/T1/assign", `{"client_id":2}`)

	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "QR already assigned")
	assert.Equal(t, 0, svc.assignCalls, "the existing assignment must not be touched")
	assert.Equal(t, clientA, *svc.tokens["T1"].ClientID)
}

func TestAssignTokenForceOverwritesExistingAssignment(t *testing.T) {
	svc := newFakeTokenService()
	clientA := int64(1)
	svc.tokens["T1"] = &models.QrToken{Token: "T1", ClientID: &clientA, IsActive: true}
	engine := newAssignTestRouter(svc)

	recorder := postAssign(t, engine, "/qr/T1/assign?force=true", `{"client_id":2}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, svc.assignCalls)
	assert.Equal(t, int64(2), *svc.tokens["T1"].ClientID)
}

func TestAssignTokenFreeTokenNeedsNoForce(t *testing.T) {
	svc := newFakeTokenService()
	svc.tokens["T1"] = &models.QrToken{Token: "T1", IsActive: true}
	engine := newAssignTestRouter(svc)

	recorder := postAssign(t, engine, "/qr/T1/assign", `{"client_id":2}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, svc.assignCalls)
	assert.Equal(t, int64(2), *svc.tokens["T1"].ClientID)
}

func TestAssignTokenUnknownTokenIs404(t *testing.T) {
	svc := newFakeTokenService()
	engine := newAssignTestRouter(svc)

	recorder := postAssign(t, engine, "/qr/missing/assign", `{"client_id":2}`)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, 0, svc.assignCalls)
}
