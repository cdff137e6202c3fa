// internal/services/advertisement_service.go
package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphpa/portal-backend/internal/models"
)

type AdvertisementService struct {
	db *gorm.DB
}

func NewAdvertisementService(db *gorm.DB) *AdvertisementService {
	return &AdvertisementService{db: db}
}

type CreateAdvertisementInput struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	LinkURL     string     `json:"link_url"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func (s *AdvertisementService) Create(input CreateAdvertisementInput) (*models.Advertisement, error) {
	ad := &models.Advertisement{
		Title:       input.Title,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		LinkURL:     input.LinkURL,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsActive:    true,
	}
	if err := s.db.Create(ad).Error; err != nil {
		return nil, err
	}
	return ad, nil
}

// ListActive returns advertisements currently in their display window.
func (s *AdvertisementService) ListActive() ([]models.Advertisement, error) {
	now := time.Now()
	var ads []models.Advertisement
	err := s.db.Where("is_active = ?", true).
		Where("start_date IS NULL OR start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("created_at DESC").
		Find(&ads).Error
	return ads, err
}

func (s *AdvertisementService) Deactivate(id uuid.UUID) error {
	result := s.db.Model(&models.Advertisement{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
