// internal/models/advertisement.go
package models

import "time"

type Advertisement struct {
	BaseModel
	Title       string     `json:"title" gorm:"size:255;not null"`
	Description string     `json:"description" gorm:"type:text"`
	ImageURL    string     `json:"image_url" gorm:"size:512"`
	LinkURL     string     `json:"link_url" gorm:"size:512"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    bool       `json:"is_active" gorm:"default:true;index"`
}
