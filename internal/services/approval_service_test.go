// internal/services/approval_service_test.go
package services

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tphpa/portal-backend/internal/config"
	"github.com/tphpa/portal-backend/internal/models"
)

type ApprovalServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	cfg       *config.Config
	approvals *ApprovalService
	forms     *FormService
	users     *UserService
	requestor *models.User
}

func (s *ApprovalServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.cfg = newTestConfig()

	notifications := NewNotificationService(s.db, s.cfg)
	s.users = NewUserService(s.db, s.cfg, notifications)
	store := NewApprovalStore(s.db)
	signatures := NewSignatureService(s.db)
	s.approvals = NewApprovalService(store, s.users, signatures, notifications, s.cfg)
	s.forms = NewFormService(s.db)

	s.requestor = newTestUser(s.T(), s.db, "employee@test.local", models.UserRoleEmployee)
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	idx := strings.Index(link, "token=")
	if idx < 0 {
		t.Fatalf("link carries no token: %s", link)
	}
	return link[idx+len("token="):]
}

func (s *ApprovalServiceTestSuite) createPending(approverEmail string) (*models.ApprovalRequest, string) {
	req, link, err := s.approvals.CreateRequest(CreateApprovalInput{
		FormID:        "42",
		FieldName:     "director_signature",
		RequestorID:   &s.requestor.ID,
		ApproverEmail: approverEmail,
	})
	s.Require().NoError(err)
	return req, tokenFromLink(s.T(), link)
}

func (s *ApprovalServiceTestSuite) TestCreateRequestStoresHashNotToken() {
	req, rawToken := s.createPending("boss@test.local")

	s.Equal(models.ApprovalStatusPending, req.Status)
	s.Equal("boss@test.local", req.ApproverEmail)
	s.Require().NotNil(req.InstanceID)
	s.Equal(int64(42), *req.InstanceID)

	s.Len(rawToken, 64)
	s.NotEqual(rawToken, req.TokenHash)
	s.NotContains(req.TokenHash, rawToken)

	// The raw token must not appear anywhere in the stored row.
	var stored models.ApprovalRequest
	s.Require().NoError(s.db.First(&stored, "id = ?", req.ID).Error)
	s.NotEqual(rawToken, stored.TokenHash)
	s.True(stored.TokenExpiresAt.After(time.Now()))
}

func (s *ApprovalServiceTestSuite) TestCreateRequestWithTypeCodeFallback() {
	req, _, err := s.approvals.CreateRequest(CreateApprovalInput{
		FormID:        "SAFARI_IMPREST",
		FieldName:     "director_signature",
		ApproverEmail: "boss@test.local",
	})
	s.Require().NoError(err)
	s.Nil(req.InstanceID)
	s.Equal("SAFARI_IMPREST", req.FormTypeCode)
}

func (s *ApprovalServiceTestSuite) TestCreateRequestResolvesApproverByRole() {
	director := newTestUser(s.T(), s.db, "director@test.local", models.UserRoleDirector)

	req, _ := s.createPending("")
	s.Equal(director.Email, req.ApproverEmail)
}

func (s *ApprovalServiceTestSuite) TestCreateRequestNoApprover() {
	_, _, err := s.approvals.CreateRequest(CreateApprovalInput{
		FormID:    "42",
		FieldName: "director_signature",
	})
	s.ErrorIs(err, ErrNoApprover)
}

func (s *ApprovalServiceTestSuite) TestCreateRequestValidation() {
	_, _, err := s.approvals.CreateRequest(CreateApprovalInput{
		FormID:        "42",
		ApproverEmail: "boss@test.local",
	})
	s.ErrorIs(err, ErrValidation)

	_, _, err = s.approvals.CreateRequest(CreateApprovalInput{
		FieldName:     "director_signature",
		ApproverEmail: "boss@test.local",
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *ApprovalServiceTestSuite) TestVerifyToken() {
	req, rawToken := s.createPending("boss@test.local")

	projection, err := s.approvals.VerifyToken(rawToken)
	s.Require().NoError(err)
	s.Equal(req.ID, projection.ID)
	s.Equal("director_signature", projection.FieldName)
	s.Equal(models.ApprovalStatusPending, projection.Status)
}

func (s *ApprovalServiceTestSuite) TestVerifyUnknownToken() {
	s.createPending("boss@test.local")

	_, err := s.approvals.VerifyToken("deadbeef")
	s.ErrorIs(err, ErrInvalidToken)

	_, err = s.approvals.VerifyToken("")
	s.ErrorIs(err, ErrValidation)
}

func (s *ApprovalServiceTestSuite) TestVerifyExpiredToken() {
	req, rawToken := s.createPending("boss@test.local")

	past := time.Now().Add(-time.Hour)
	s.Require().NoError(s.db.Model(&models.ApprovalRequest{}).
		Where("id = ?", req.ID).
		Update("token_expires_at", past).Error)

	_, err := s.approvals.VerifyToken(rawToken)
	s.ErrorIs(err, ErrExpired)
}

func (s *ApprovalServiceTestSuite) TestConfirmApproveAttachesSignature() {
	// A submission must exist for the signature to land on.
	_, err := s.forms.Submit(s.requestor.ID, SubmitFormInput{
		InstanceID: 42,
		FormType:   "SAFARI_IMPREST",
		FormData:   map[string]interface{}{"amount": 1500.0},
	})
	s.Require().NoError(err)

	req, rawToken := s.createPending("boss@test.local")

	updated, err := s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken:          rawToken,
		Decision:          models.ApprovalStatusApproved,
		Comment:           "Looks good",
		ApproverName:      "Big Boss",
		ApproverIP:        "203.0.113.9",
		ApproverUserAgent: "test-agent",
	})
	s.Require().NoError(err)
	s.Equal(models.ApprovalStatusApproved, updated.Status)
	s.Equal("Looks good", updated.DecisionComment)
	s.NotNil(updated.ApprovedAt)
	s.Equal("203.0.113.9", updated.ApproverIP)
	s.NotNil(updated.SignaturePayload)

	// A new external-approval revision carries the signature.
	var revisions []models.FormSubmission
	s.Require().NoError(s.db.Where("instance_id = ?", 42).
		Order("created_at ASC").Find(&revisions).Error)
	s.Require().Len(revisions, 2)

	latest := revisions[1]
	s.Equal(models.SubmissionActionExternalApproval, latest.ActionType)
	s.Equal(1500.0, latest.FormData["amount"])

	payload, err := models.ParseSignaturePayload(latest.FormData["director_signature"])
	s.Require().NoError(err)
	s.Equal("Big Boss", payload.SignedByName)
	s.Equal(models.SignatureTypeExternal, payload.SignatureType)
	s.Require().NotNil(payload.ApprovalRecordID)
	s.Equal(req.ID, *payload.ApprovalRecordID)

	// The original revision is untouched.
	s.Equal(models.SubmissionActionSubmit, revisions[0].ActionType)
	s.Nil(revisions[0].FormData["director_signature"])
}

func (s *ApprovalServiceTestSuite) TestConfirmRejectSkipsSignature() {
	_, err := s.forms.Submit(s.requestor.ID, SubmitFormInput{
		InstanceID: 42,
		FormType:   "SAFARI_IMPREST",
		FormData:   map[string]interface{}{"amount": 1500.0},
	})
	s.Require().NoError(err)

	_, rawToken := s.createPending("boss@test.local")

	updated, err := s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken: rawToken,
		Decision: models.ApprovalStatusRejected,
		Comment:  "Over budget",
	})
	s.Require().NoError(err)
	s.Equal(models.ApprovalStatusRejected, updated.Status)
	s.Nil(updated.SignaturePayload)

	var count int64
	s.Require().NoError(s.db.Model(&models.FormSubmission{}).
		Where("instance_id = ?", 42).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *ApprovalServiceTestSuite) TestConfirmApproveWithoutSubmissionStillDecides() {
	_, rawToken := s.createPending("boss@test.local")

	updated, err := s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken: rawToken,
		Decision: models.ApprovalStatusApproved,
	})
	s.Require().NoError(err)
	s.Equal(models.ApprovalStatusApproved, updated.Status)
}

func (s *ApprovalServiceTestSuite) TestConfirmTwice() {
	_, rawToken := s.createPending("boss@test.local")

	_, err := s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken: rawToken,
		Decision: models.ApprovalStatusApproved,
	})
	s.Require().NoError(err)

	_, err = s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken: rawToken,
		Decision: models.ApprovalStatusRejected,
	})
	s.ErrorIs(err, ErrAlreadyDecided)
}

func (s *ApprovalServiceTestSuite) TestConfirmExpired() {
	req, rawToken := s.createPending("boss@test.local")

	past := time.Now().Add(-time.Hour)
	s.Require().NoError(s.db.Model(&models.ApprovalRequest{}).
		Where("id = ?", req.ID).
		Update("token_expires_at", past).Error)

	_, err := s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken: rawToken,
		Decision: models.ApprovalStatusApproved,
	})
	s.ErrorIs(err, ErrExpired)

	// The row stays pending; expiry is evaluated on access, not stored.
	stored, err := s.approvals.GetApproval(req.ID)
	s.Require().NoError(err)
	s.Equal(models.ApprovalStatusPending, stored.Status)
}

func (s *ApprovalServiceTestSuite) TestConfirmInvalidDecision() {
	_, rawToken := s.createPending("boss@test.local")

	_, err := s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken: rawToken,
		Decision: models.ApprovalStatusCancelled,
	})
	s.ErrorIs(err, ErrValidation)
}

func (s *ApprovalServiceTestSuite) TestConcurrentConfirmDecidesOnce() {
	_, rawToken := s.createPending("boss@test.local")

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = s.approvals.ConfirmDecision(ConfirmDecisionInput{
				RawToken: rawToken,
				Decision: models.ApprovalStatusApproved,
			})
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case assert.ErrorIs(s.T(), err, ErrAlreadyDecided):
			lost++
		}
	}
	s.Equal(1, won)
	s.Equal(attempts-1, lost)
}

func (s *ApprovalServiceTestSuite) TestDecisionNoticeFallsBackToLog() {
	_, rawToken := s.createPending("boss@test.local")

	updated, err := s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken: rawToken,
		Decision: models.ApprovalStatusApproved,
	})
	s.Require().NoError(err)

	// No SMTP transport configured: the notice lands in the fallback log
	// and the notified timestamp stays unset.
	s.Nil(updated.NotifiedAt)

	var entries []models.NotificationLog
	s.Require().NoError(s.db.Where("recipient = ?", s.requestor.Email).Find(&entries).Error)
	s.Require().Len(entries, 1)
	s.False(entries[0].Delivered)
	s.Contains(entries[0].TextBody, "approved")
}

func (s *ApprovalServiceTestSuite) TestDuplicateRequestsDecideIndependently() {
	// Two pending requests on the same field: deciding the first one does
	// not cancel or settle the second.
	first, firstToken := s.createPending("boss@test.local")
	second, secondToken := s.createPending("boss@test.local")
	s.NotEqual(first.ID, second.ID)

	_, err := s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken: firstToken,
		Decision: models.ApprovalStatusApproved,
	})
	s.Require().NoError(err)

	projection, err := s.approvals.VerifyToken(secondToken)
	s.Require().NoError(err)
	s.Equal(models.ApprovalStatusPending, projection.Status)

	updated, err := s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken: secondToken,
		Decision: models.ApprovalStatusRejected,
	})
	s.Require().NoError(err)
	s.Equal(models.ApprovalStatusRejected, updated.Status)
}

func (s *ApprovalServiceTestSuite) TestCancelPendingRequest() {
	req, rawToken := s.createPending("boss@test.local")

	updated, err := s.approvals.Cancel(req.ID, "requested in error")
	s.Require().NoError(err)
	s.Equal(models.ApprovalStatusCancelled, updated.Status)

	_, err = s.approvals.ConfirmDecision(ConfirmDecisionInput{
		RawToken: rawToken,
		Decision: models.ApprovalStatusApproved,
	})
	s.ErrorIs(err, ErrAlreadyDecided)
}

func TestApprovalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ApprovalServiceTestSuite))
}
