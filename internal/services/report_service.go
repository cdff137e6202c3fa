// internal/services/report_service.go
package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphpa/portal-backend/internal/models"
	"github.com/tphpa/portal-backend/internal/utils"
)

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

type SubmitReportInput struct {
	Title string `json:"title" binding:"required"`
	Type  string `json:"type" binding:"required"`
}

func (s *ReportService) Submit(submitter *models.User, input SubmitReportInput) (*models.Report, error) {
	report := &models.Report{
		Title:         input.Title,
		Type:          input.Type,
		SubmitterID:   submitter.ID,
		SubmitterName: submitter.FullName(),
		Status:        models.ReportStatusPending,
		SubmittedDate: time.Now(),
	}
	if submitter.OrgUnitID != nil {
		report.SubmitterUnitID = submitter.OrgUnitID
	}
	if err := s.db.Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportService) FindByID(id uuid.UUID) (*models.Report, error) {
	var report models.Report
	err := s.db.Where("id = ?", id).First(&report).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) ListBySubmitter(submitterID uuid.UUID, params utils.PaginationParams) ([]models.Report, int64, error) {
	query := s.db.Model(&models.Report{}).Where("submitter_id = ?", submitterID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.Report
	err := utils.ApplyPagination(query.Order("submitted_date DESC"), params).Find(&reports).Error
	return reports, total, err
}

// ListPendingForUnit is the manager queue: pending reports from a unit and
// its immediate children.
func (s *ReportService) ListPendingForUnit(unitID uuid.UUID, params utils.PaginationParams) ([]models.Report, int64, error) {
	unitIDs := s.db.Model(&models.OrganizationUnit{}).
		Select("id").
		Where("id = ? OR parent_unit_id = ?", unitID, unitID)

	query := s.db.Model(&models.Report{}).
		Where("status = ? AND submitter_unit_id IN (?)", models.ReportStatusPending, unitIDs)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.Report
	err := utils.ApplyPagination(query.Order("submitted_date ASC"), params).Find(&reports).Error
	return reports, total, err
}

// Decide settles a pending report. Terminal reports reject further
// decisions with ErrAlreadyDecided.
func (s *ReportService) Decide(id uuid.UUID, status models.ReportStatus, comment string) (*models.Report, error) {
	if status != models.ReportStatusApproved && status != models.ReportStatusRejected {
		return nil, ErrValidation
	}

	result := s.db.Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportStatusPending).
		Updates(map[string]interface{}{
			"status":   status,
			"comments": comment,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := s.FindByID(id); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyDecided
	}

	return s.FindByID(id)
}
