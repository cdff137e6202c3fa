// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	FirstName    string     `json:"first_name" gorm:"size:100;not null"`
	LastName     string     `json:"last_name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(30);not null;index"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	OrgUnitID    *uuid.UUID `json:"org_unit_id" gorm:"type:uuid;index"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	OrgUnit *OrganizationUnit `json:"org_unit,omitempty" gorm:"foreignKey:OrgUnitID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type OrganizationUnit struct {
	BaseModel
	UnitName     string     `json:"unit_name" gorm:"size:255;not null"`
	ParentUnitID *uuid.UUID `json:"parent_unit_id" gorm:"type:uuid;index"`
}
