// internal/models/form.go
package models

import "github.com/google/uuid"

// FormType is the registry of known form kinds, keyed by a stable code such
// as SAFARI_IMPREST. The code doubles as the loose correlation key used when
// a submission predates its durable instance id.
type FormType struct {
	BaseModel
	Code string `json:"form_type_code" gorm:"size:50;uniqueIndex;not null"`
	Name string `json:"form_type_name" gorm:"size:255;not null"`
}

// FormSubmission is one revision in the append-only log of a form instance.
// Revisions are never updated in place; every action (submit, dashboard
// decision, external approval) appends a new row carrying the full form data.
type FormSubmission struct {
	BaseModel
	InstanceID int64            `json:"instance_id" gorm:"not null;index"`
	FormType   string           `json:"form_type" gorm:"size:50;index"`
	ActionType SubmissionAction `json:"action_type" gorm:"type:varchar(30);not null;index"`
	ActionBy   *uuid.UUID       `json:"action_by" gorm:"type:uuid"`
	Comments   string           `json:"comments,omitempty" gorm:"type:text"`
	FormData   JSONB            `json:"form_data" gorm:"type:jsonb"`
}
