// internal/services/user_service.go
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tphpa/portal-backend/internal/config"
	"github.com/tphpa/portal-backend/internal/models"
	"github.com/tphpa/portal-backend/internal/utils"
)

type UserService struct {
	db            *gorm.DB
	cfg           *config.Config
	notifications *NotificationService
}

func NewUserService(db *gorm.DB, cfg *config.Config, notifications *NotificationService) *UserService {
	return &UserService{db: db, cfg: cfg, notifications: notifications}
}

// Authenticate verifies credentials and returns the user with a fresh JWT.
func (s *UserService) Authenticate(email, password string) (*models.User, string, error) {
	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := user.CheckPassword(password); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return nil, "", ErrUserSuspended
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		logrus.WithError(err).Warn("Failed to record last login")
	}
	user.LastLoginAt = &now

	return &user, token, nil
}

func (s *UserService) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.Preload("OrgUnit").Where("id = ?", id).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByRole lists active users holding a role, oldest account first
// so approver resolution is stable.
func (s *UserService) FindActiveByRole(role models.UserRole) ([]models.User, error) {
	var users []models.User
	err := s.db.Where("role = ? AND status = ?", role, models.UserStatusActive).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

type CreateUserInput struct {
	FirstName string          `json:"first_name" binding:"required"`
	LastName  string          `json:"last_name" binding:"required"`
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,strong_password"`
	Role      models.UserRole `json:"role" binding:"required"`
	OrgUnitID *uuid.UUID      `json:"org_unit_id"`
}

func (s *UserService) Create(input CreateUserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	user := &models.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     email,
		Role:      input.Role,
		Status:    models.UserStatusActive,
		OrgUnitID: input.OrgUnitID,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return nil, err
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset emails a reset link when the account exists. The
// response is identical either way so the endpoint cannot be used to probe
// for registered addresses.
func (s *UserService) RequestPasswordReset(email string) error {
	user, err := s.FindByEmail(email)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	resetToken, err := utils.GenerateJWT(user.ID, user.Email, "password_reset", 1)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.Frontend.BaseURL, resetToken)

	subject := "Password reset"
	textBody := fmt.Sprintf(
		"Hello %s,\n\nA password reset was requested for your account.\n"+
			"Reset it here (valid for one hour):\n%s\n\n"+
			"If you did not request this, ignore this email.",
		user.FullName(), link)
	s.notifications.Send(user.Email, subject, textBody, "")
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (s *UserService) ResetPassword(resetToken, newPassword string) error {
	claims, err := utils.ValidateJWT(resetToken)
	if err != nil || claims.Role != "password_reset" {
		return ErrInvalidCredentials
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ErrInvalidCredentials
	}
	user, err := s.FindByID(userID)
	if err != nil {
		return ErrInvalidCredentials
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.db.Model(user).Update("password_hash", user.PasswordHash).Error
}

// ListOrganizationUnits returns the full unit tree as a flat list.
func (s *UserService) ListOrganizationUnits() ([]models.OrganizationUnit, error) {
	var units []models.OrganizationUnit
	err := s.db.Order("unit_name ASC").Find(&units).Error
	return units, err
}
