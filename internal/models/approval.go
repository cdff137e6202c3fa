// internal/models/approval.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ApprovalRequest tracks one pending human decision on one form field. Rows
// are never deleted; terminal rows remain as the audit trail of the decision.
type ApprovalRequest struct {
	BaseModel
	InstanceID        *int64         `json:"instance_id" gorm:"index"`
	FormTypeCode      string         `json:"form_type_code,omitempty" gorm:"size:50;index"`
	FieldName         string         `json:"field_name" gorm:"size:100;not null"`
	RequestorUserID   *uuid.UUID     `json:"requestor_user_id" gorm:"type:uuid;index"`
	ApproverEmail     string         `json:"approver_email" gorm:"size:255;not null"`
	TokenHash         string         `json:"-" gorm:"size:64;uniqueIndex;not null"`
	TokenExpiresAt    time.Time      `json:"token_expires_at" gorm:"not null"`
	Status            ApprovalStatus `json:"status" gorm:"type:varchar(20);default:'pending';not null;index"`
	DecisionComment   string         `json:"decision_comment,omitempty" gorm:"type:text"`
	ApprovedAt        *time.Time     `json:"approved_at"`
	NotifiedAt        *time.Time     `json:"notified_at"`
	ApproverIP        string         `json:"approver_ip,omitempty" gorm:"size:45"`
	ApproverUserAgent string         `json:"approver_user_agent,omitempty" gorm:"type:text"`
	SignaturePayload  JSONB          `json:"signature_payload,omitempty" gorm:"type:jsonb"`

	// Relationships
	Requestor *User `json:"requestor,omitempty" gorm:"foreignKey:RequestorUserID"`
}

// Expired reports whether the token is past its expiry at the given instant.
// Expiry is evaluated lazily on access; the stored status may still read
// pending for a request whose token can no longer be redeemed.
func (r *ApprovalRequest) Expired(now time.Time) bool {
	return now.After(r.TokenExpiresAt)
}

// SignaturePayload is the auditable record of a decision, embedded into the
// approval row and mirrored into the signed form field.
type SignaturePayload struct {
	SignedByName      string        `json:"signed_by_name"`
	SignatureType     SignatureType `json:"signature_type"`
	SignedAt          time.Time     `json:"signed_at"`
	ApproverComment   string        `json:"approver_comment,omitempty"`
	ApproverIP        string        `json:"approver_ip,omitempty"`
	ApproverUserAgent string        `json:"approver_user_agent,omitempty"`
	// Set for external signatures only; dashboard signatures have no
	// backing approval record.
	ApprovalRecordID *uuid.UUID `json:"approval_record_id,omitempty"`
}

// AsJSONB converts the payload to the loosely-typed map stored in jsonb
// columns and form data blobs.
func (p *SignaturePayload) AsJSONB() JSONB {
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	var out JSONB
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// ParseSignaturePayload decodes a form-data value back into a typed payload.
func ParseSignaturePayload(value interface{}) (*SignaturePayload, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var payload SignaturePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
