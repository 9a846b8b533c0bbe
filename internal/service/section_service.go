package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type sectionRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Section, error)
	FindByCode(ctx context.Context, code string) (*models.Section, error)
	ListByOffering(ctx context.Context, offeringID int64) ([]models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	UpdateStatus(ctx context.Context, id int64, status models.SectionStatus) error
}

// CreateSectionRequest describes a staff-created section.
type CreateSectionRequest struct {
	SubjectOfferingID int64   `json:"subject_offering_id" validate:"required,gt=0"`
	Name              string  `json:"name" validate:"required,max=32"`
	Capacity          int     `json:"capacity" validate:"omitempty,gt=0,lte=500"`
	InstructorID      *int64  `json:"instructor_id" validate:"omitempty,gt=0"`
	Schedule          *string `json:"schedule" validate:"omitempty,max=120"`
	Room              *string `json:"room" validate:"omitempty,max=64"`
}

// UpdateSectionStatusRequest describes a soft status transition.
type UpdateSectionStatusRequest struct {
	Status models.SectionStatus `json:"status" validate:"required,oneof=active closed archived"`
}

// SectionService orchestrates section workflows.
type SectionService struct {
	repo            sectionRepository
	codes           codeGenerator
	defaultCapacity int
	validator       *validator.Validate
	logger          *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(repo sectionRepository, codes codeGenerator, defaultCapacity int, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCapacity <= 0 {
		defaultCapacity = 40
	}
	return &SectionService{repo: repo, codes: codes, defaultCapacity: defaultCapacity, validator: validate, logger: logger}
}

// Create registers a section and assigns it a fresh enrollment code.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	code, err := s.codes.Generate(ctx)
	if err != nil {
		return nil, err
	}
	capacity := req.Capacity
	if capacity == 0 {
		capacity = s.defaultCapacity
	}
	section := &models.Section{
		SubjectOfferingID: req.SubjectOfferingID,
		Name:              req.Name,
		Capacity:          capacity,
		EnrollmentCode:    &code,
		Status:            models.SectionStatusActive,
		InstructorID:      req.InstructorID,
		Schedule:          req.Schedule,
		Room:              req.Room,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	s.logger.Info("section created", zap.Int64("section_id", section.ID), zap.Int64("subject_offering_id", section.SubjectOfferingID), zap.String("enrollment_code", code))
	return section, nil
}

// Get returns a section by ID.
func (s *SectionService) Get(ctx context.Context, id int64) (*models.Section, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// ListByOffering returns the sections of a subject offering.
func (s *SectionService) ListByOffering(ctx context.Context, offeringID int64) ([]models.Section, error) {
	sections, err := s.repo.ListByOffering(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// FindByCode resolves the section a student joins with an enrollment code.
func (s *SectionService) FindByCode(ctx context.Context, code string) (*models.Section, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !ValidEnrollmentCode(code) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "malformed enrollment code")
	}
	section, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.Status != models.SectionStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "section is not accepting enrollments")
	}
	return section, nil
}

// UpdateStatus applies a soft status transition and returns the updated section.
func (s *SectionService) UpdateStatus(ctx context.Context, id int64, req UpdateSectionStatusRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section status")
	}
	return s.Get(ctx, id)
}
