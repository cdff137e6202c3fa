// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthPasswordReset      = "auth.password_reset"
	KeyAccessDenied           = "auth.access_denied"

	// Approvals
	KeyApprovalCreated        = "approval.created"
	KeyApprovalNotFound       = "approval.not_found"
	KeyApprovalInvalidToken   = "approval.invalid_token"
	KeyApprovalAlreadyDecided = "approval.already_decided"
	KeyApprovalExpired        = "approval.expired"
	KeyApprovalNoApprover     = "approval.no_approver"
	KeyApprovalApproved       = "approval.approved"
	KeyApprovalRejected       = "approval.rejected"

	// Forms
	KeyFormSubmitted = "form.submitted"
	KeyFormNotFound  = "form.not_found"
	KeyFormApproved  = "form.approved"
	KeyFormRejected  = "form.rejected"

	// Reports
	KeyReportSubmitted = "report.submitted"
	KeyReportNotFound  = "report.not_found"
	KeyReportApproved  = "report.approved"
	KeyReportRejected  = "report.rejected"

	// Advertisements
	KeyAdCreated  = "advertisement.created"
	KeyAdNotFound = "advertisement.not_found"

	// Users
	KeyUserNotFound = "user.not_found"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
