// internal/models/report.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Report struct {
	BaseModel
	Title           string       `json:"title" gorm:"size:255;not null"`
	SubmitterID     uuid.UUID    `json:"submitter_id" gorm:"type:uuid;not null;index"`
	SubmitterName   string       `json:"submitter_name" gorm:"size:255;not null"`
	SubmitterUnitID *uuid.UUID   `json:"submitter_unit_id" gorm:"type:uuid;index"`
	Type            string       `json:"type" gorm:"size:100;not null;index"`
	Status          ReportStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`
	Comments        string       `json:"comments,omitempty" gorm:"type:text"`
	SubmittedDate   time.Time    `json:"submitted_date"`

	// Relationships
	Submitter User `json:"submitter,omitempty" gorm:"foreignKey:SubmitterID"`
}
