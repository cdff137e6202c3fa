// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	// Undecodable blobs read as empty rather than failing the row scan.
	if err := json.Unmarshal(bytes, j); err != nil {
		*j = nil
	}
	return nil
}

// Enums
type UserRole string

const (
	UserRoleEmployee        UserRole = "employee"
	UserRoleUnitManager     UserRole = "unit_manager"
	UserRoleDirector        UserRole = "director"
	UserRoleDirectorGeneral UserRole = "director_general"
	UserRoleAdmin           UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "pending"
	ApprovalStatusApproved  ApprovalStatus = "approved"
	ApprovalStatusRejected  ApprovalStatus = "rejected"
	ApprovalStatusExpired   ApprovalStatus = "expired"
	ApprovalStatusCancelled ApprovalStatus = "cancelled"
)

// IsTerminal reports whether no further decision may land on a request.
func (s ApprovalStatus) IsTerminal() bool {
	return s != ApprovalStatusPending
}

type SignatureType string

const (
	SignatureTypeDashboard SignatureType = "dashboard"
	SignatureTypeExternal  SignatureType = "external"
)

type SubmissionAction string

const (
	SubmissionActionSubmit           SubmissionAction = "submit"
	SubmissionActionApprove          SubmissionAction = "approve"
	SubmissionActionReject           SubmissionAction = "reject"
	SubmissionActionExternalApproval SubmissionAction = "external_approval"
)

type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "PENDING"
	ReportStatusApproved ReportStatus = "APPROVED"
	ReportStatusRejected ReportStatus = "REJECTED"
)
