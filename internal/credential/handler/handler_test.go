package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credentia/internal/credential/handler/mocks"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/credential-mocks.go -package=mocks Service
type CredentialHandlerSuite struct {
	suite.Suite
}

func TestCredentialHandlerSuite(t *testing.T) {
	suite.Run(t, new(CredentialHandlerSuite))
}

func newTestHandler(t *testing.T) (*chi.Mux, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(mockService, logger)
	r := chi.NewRouter()
	handler.Register(r)
	return r, mockService
}

func authed(req *http.Request, caller domain.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

func (s *CredentialHandlerSuite) TestHandleIssue() {
	router, mockService := newTestHandler(s.T())
	issuer := domain.Address("addr-admin")
	mockService.EXPECT().Issue(
		gomock.Any(),
		issuer,
		domain.Address("addr-student"),
		uint64(7),
		"go",
		uint32(85),
		uint64(92),
		time.Time{},
	).Return(uint64(1), nil)

	body, err := json.Marshal(map[string]any{
		"student":          "addr-student",
		"course_id":        7,
		"skill_achieved":   "go",
		"competency_level": 85,
		"assessment_score": 92,
	})
	require.NoError(s.T(), err)

	req := authed(httptest.NewRequest(http.MethodPost, "/credentials", bytes.NewReader(body)), issuer)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp map[string]uint64
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), uint64(1), resp["token_id"])
}

func (s *CredentialHandlerSuite) TestHandleIssueRejectsMalformedBody() {
	router, _ := newTestHandler(s.T())

	req := authed(httptest.NewRequest(http.MethodPost, "/credentials", bytes.NewReader([]byte("{not json"))), "addr-admin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "bad_request", resp["error"])
}

func (s *CredentialHandlerSuite) TestHandleVerify() {
	router, mockService := newTestHandler(s.T())
	verifier := domain.Address("addr-verifier")
	mockService.EXPECT().Verify(gomock.Any(), verifier, uint64(3)).Return(false, nil)

	req := authed(httptest.NewRequest(http.MethodPost, "/credentials/3/verify", nil), verifier)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]bool
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(s.T(), resp["valid"])
}

func (s *CredentialHandlerSuite) TestHandleVerifyUnknownToken() {
	router, mockService := newTestHandler(s.T())
	mockService.EXPECT().Verify(gomock.Any(), gomock.Any(), uint64(42)).
		Return(false, dErrors.New(dErrors.CodeNotFound, "credential not found"))

	req := authed(httptest.NewRequest(http.MethodPost, "/credentials/42/verify", nil), "addr-verifier")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "not_found", resp["error"])
}

func (s *CredentialHandlerSuite) TestHandleRevokeConflict() {
	router, mockService := newTestHandler(s.T())
	mockService.EXPECT().Revoke(gomock.Any(), domain.Address("addr-admin"), uint64(5)).
		Return(dErrors.New(dErrors.CodeInvalidState, "credential is already revoked"))

	req := authed(httptest.NewRequest(http.MethodPost, "/credentials/5/revoke", nil), "addr-admin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *CredentialHandlerSuite) TestHandleTokenLookup() {
	router, mockService := newTestHandler(s.T())
	owner := domain.Address("addr-student")
	mockService.EXPECT().OwnerOf(uint64(1)).Return(owner, nil)
	mockService.EXPECT().TokenURI(uint64(1)).Return("credential://course/7/skill/go", nil)
	mockService.EXPECT().BalanceOf(owner).Return(uint64(1))

	req := authed(httptest.NewRequest(http.MethodGet, "/tokens/1", nil), "addr-verifier")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "addr-student", resp["owner"])
	assert.Contains(s.T(), resp["uri"], "go")
}
