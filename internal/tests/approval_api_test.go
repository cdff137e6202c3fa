// internal/tests/approval_api_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tphpa/portal-backend/internal/config"
	"github.com/tphpa/portal-backend/internal/database"
	"github.com/tphpa/portal-backend/internal/i18n"
	"github.com/tphpa/portal-backend/internal/models"
	"github.com/tphpa/portal-backend/internal/router"
)

type ApprovalAPITestSuite struct {
	suite.Suite
	db      *gorm.DB
	engine  *gin.Engine
	traceIP string
}

func (s *ApprovalAPITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(i18n.Initialize("../i18n/locales"))
}

func (s *ApprovalAPITestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(database.RunMigrations(db))
	s.db = db

	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1},
		Email:       config.EmailConfig{FromEmail: "noreply@test.local", FromName: "Test Portal", SendTimeout: 1},
		Approval: config.ApprovalConfig{
			TokenTTLHours: 24,
			ApproverRole:  "director",
			VerifyBaseURL: "http://localhost:4200/approvals/verify",
		},
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:4200"},
	}
	s.engine = router.Setup(db, cfg)

	// Distinct client IP per test so the per-IP rate limiter state from
	// earlier tests never bleeds into this one.
	s.traceIP = fmt.Sprintf("10.1.%d.%d", time.Now().UnixNano()%200, time.Now().UnixNano()/1000%200)
}

func (s *ApprovalAPITestSuite) request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", s.traceIP)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *ApprovalAPITestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (s *ApprovalAPITestSuite) errorCode(w *httptest.ResponseRecorder) string {
	body := s.decode(w)
	errObj, _ := body["error"].(map[string]interface{})
	code, _ := errObj["code"].(string)
	return code
}

func (s *ApprovalAPITestSuite) createApproval() (approvalID, token string) {
	w := s.request(http.MethodPost, "/api/approvals", gin.H{
		"form_id":        "42",
		"field_name":     "director_signature",
		"approver_email": "boss@test.local",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	data := s.decode(w)["data"].(map[string]interface{})
	link := data["approval_url"].(string)
	idx := strings.Index(link, "token=")
	s.Require().GreaterOrEqual(idx, 0)

	approval := data["approval"].(map[string]interface{})
	return approval["id"].(string), link[idx+len("token="):]
}

func (s *ApprovalAPITestSuite) TestCreateVerifyConfirmFlow() {
	_, token := s.createApproval()

	w := s.request(http.MethodGet, "/api/approvals/verify?token="+token, nil)
	s.Equal(http.StatusOK, w.Code, w.Body.String())
	data := s.decode(w)["data"].(map[string]interface{})
	s.Equal("director_signature", data["field_name"])
	s.Equal("pending", data["status"])

	w = s.request(http.MethodPost, "/api/approvals/confirm", gin.H{
		"token":         token,
		"decision":      "approved",
		"comment":       "Approved remotely",
		"approver_name": "Big Boss",
	})
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	// The settled request no longer verifies or confirms.
	w = s.request(http.MethodGet, "/api/approvals/verify?token="+token, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("ALREADY_DECIDED", s.errorCode(w))

	w = s.request(http.MethodPost, "/api/approvals/confirm", gin.H{
		"token":    token,
		"decision": "rejected",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("ALREADY_DECIDED", s.errorCode(w))
}

func (s *ApprovalAPITestSuite) TestVerifyUnknownToken() {
	s.createApproval()

	w := s.request(http.MethodGet, "/api/approvals/verify?token=deadbeef", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("INVALID_TOKEN", s.errorCode(w))
}

func (s *ApprovalAPITestSuite) TestVerifyMissingToken() {
	w := s.request(http.MethodGet, "/api/approvals/verify", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ApprovalAPITestSuite) TestCreateValidation() {
	w := s.request(http.MethodPost, "/api/approvals", gin.H{
		"form_id": "42",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", s.errorCode(w))
}

func (s *ApprovalAPITestSuite) TestCreateWithoutApprover() {
	// No override, no default, no director on file.
	w := s.request(http.MethodPost, "/api/approvals", gin.H{
		"form_id":    "42",
		"field_name": "director_signature",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("NO_APPROVER", s.errorCode(w))
}

func (s *ApprovalAPITestSuite) TestConfirmRejectsBadDecision() {
	_, token := s.createApproval()

	w := s.request(http.MethodPost, "/api/approvals/confirm", gin.H{
		"token":    token,
		"decision": "maybe",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", s.errorCode(w))
}

func (s *ApprovalAPITestSuite) TestConfirmExpiredToken() {
	approvalID, token := s.createApproval()

	past := time.Now().Add(-time.Hour)
	s.Require().NoError(s.db.Model(&models.ApprovalRequest{}).
		Where("id = ?", approvalID).
		Update("token_expires_at", past).Error)

	w := s.request(http.MethodPost, "/api/approvals/confirm", gin.H{
		"token":    token,
		"decision": "approved",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("TOKEN_EXPIRED", s.errorCode(w))
}

func (s *ApprovalAPITestSuite) TestGetApprovalRequiresAuth() {
	approvalID, _ := s.createApproval()

	w := s.request(http.MethodGet, "/api/approvals/requests/"+approvalID, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *ApprovalAPITestSuite) TestHealth() {
	w := s.request(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, w.Code)
}

func TestApprovalAPITestSuite(t *testing.T) {
	suite.Run(t, new(ApprovalAPITestSuite))
}
