package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type reconcileSectionRepository interface {
	FindFirstByOffering(ctx context.Context, offeringID int64) (*models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	ListMissingCode(ctx context.Context) ([]models.Section, error)
	AssignCode(ctx context.Context, id int64, code string) (bool, error)
}

type reconcileEnrollmentRepository interface {
	ListOrphanedOfferings(ctx context.Context) ([]models.OrphanedOffering, error)
	ReassignOrphaned(ctx context.Context, offeringID, sectionID int64) (int64, error)
}

type codeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// SectionDefaults describes the section created for an offering that has none.
type SectionDefaults struct {
	Name     string
	Capacity int
}

// ReconcileService repairs enrollments that lack a valid section and backfills missing enrollment codes.
// Offerings are processed one at a time and each statement commits on its own.
type ReconcileService struct {
	sections    reconcileSectionRepository
	enrollments reconcileEnrollmentRepository
	codes       codeGenerator
	reports     *ReportCacheService
	metrics     *MetricsService
	defaults    SectionDefaults
	logger      *zap.Logger
	now         func() time.Time
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(sections reconcileSectionRepository, enrollments reconcileEnrollmentRepository, codes codeGenerator, reports *ReportCacheService, metrics *MetricsService, defaults SectionDefaults, logger *zap.Logger) *ReconcileService {
	if defaults.Name == "" {
		defaults.Name = "A"
	}
	if defaults.Capacity <= 0 {
		defaults.Capacity = 40
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{
		sections:    sections,
		enrollments: enrollments,
		codes:       codes,
		reports:     reports,
		metrics:     metrics,
		defaults:    defaults,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Pending lists the offerings that currently have orphaned enrollments.
func (s *ReconcileService) Pending(ctx context.Context) ([]models.OrphanedOffering, error) {
	offerings, err := s.enrollments.ListOrphanedOfferings(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orphaned offerings")
	}
	return offerings, nil
}

// Reconcile gives every orphaned offering a section and points its orphaned enrollments at it.
// progress, when set, receives each offering result as soon as it is known. The returned error is
// only set when the batch could not start; per-offering failures are recorded in the report.
func (s *ReconcileService) Reconcile(ctx context.Context, progress func(models.OfferingResult)) (*models.ReconcileReport, error) {
	report := &models.ReconcileReport{RunID: uuid.NewString(), StartedAt: s.now(), Offerings: []models.OfferingResult{}}
	logger := s.logger.With(zap.String("run_id", report.RunID))

	offerings, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("reconcile started", zap.Int("offerings", len(offerings)))

	for _, offering := range offerings {
		result := s.reconcileOffering(ctx, offering)
		report.Add(result)
		s.metrics.RecordOffering(result)
		if result.Outcome == models.OutcomeFailed {
			logger.Error("offering reconcile failed",
				zap.Int64("subject_offering_id", result.SubjectOfferingID),
				zap.String("error", result.Error))
		} else {
			logger.Info("offering reconciled",
				zap.Int64("subject_offering_id", result.SubjectOfferingID),
				zap.Int64("section_id", result.SectionID),
				zap.Bool("section_created", result.SectionCreated),
				zap.Int64("enrollments", result.EnrollmentsAffected))
		}
		if progress != nil {
			progress(result)
		}
	}

	report.FinishedAt = s.now()
	s.metrics.ObserveRun(ReportKindReconcile, report.FinishedAt.Sub(report.StartedAt))
	logger.Info("reconcile finished",
		zap.Int("repaired", report.Repaired),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("sections_created", report.SectionsCreated))
	if err := s.reports.Save(ctx, ReportKindReconcile, report); err != nil {
		logger.Warn("reconcile report not cached", zap.Error(err))
	}
	return report, nil
}

func (s *ReconcileService) reconcileOffering(ctx context.Context, offering models.OrphanedOffering) models.OfferingResult {
	result := models.OfferingResult{SubjectOfferingID: offering.SubjectOfferingID}
	fail := func(err error) models.OfferingResult {
		result.Outcome = models.OutcomeFailed
		result.Error = err.Error()
		return result
	}

	section, err := s.sections.FindFirstByOffering(ctx, offering.SubjectOfferingID)
	if err != nil {
		return fail(err)
	}
	if section == nil {
		// The code is drawn before the insert so a failed generation never leaves a code-less section behind.
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return fail(err)
		}
		section = &models.Section{
			SubjectOfferingID: offering.SubjectOfferingID,
			Name:              s.defaults.Name,
			Capacity:          s.defaults.Capacity,
			EnrollmentCode:    &code,
			Status:            models.SectionStatusActive,
		}
		if err := s.sections.Create(ctx, section); err != nil {
			return fail(err)
		}
		result.SectionCreated = true
	}
	result.SectionID = section.ID
	result.EnrollmentCode = section.Code()

	affected, err := s.enrollments.ReassignOrphaned(ctx, offering.SubjectOfferingID, section.ID)
	if err != nil {
		return fail(err)
	}
	result.EnrollmentsAffected = affected

	if affected > 0 || result.SectionCreated {
		result.Outcome = models.OutcomeRepaired
	} else {
		result.Outcome = models.OutcomeSkipped
	}
	return result
}

// BackfillCodes assigns an enrollment code to every section stored without one.
// Each section costs one existence check per candidate and one write.
func (s *ReconcileService) BackfillCodes(ctx context.Context, progress func(models.SectionCodeResult)) (*models.CodeBackfillReport, error) {
	report := &models.CodeBackfillReport{RunID: uuid.NewString(), StartedAt: s.now(), Sections: []models.SectionCodeResult{}}
	logger := s.logger.With(zap.String("run_id", report.RunID))

	sections, err := s.sections.ListMissingCode(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections without code")
	}
	logger.Info("code backfill started", zap.Int("sections", len(sections)))

	for _, section := range sections {
		result := models.SectionCodeResult{SectionID: section.ID}
		code, err := s.codes.Generate(ctx)
		if err != nil {
			result.Error = err.Error()
		} else {
			assigned, err := s.sections.AssignCode(ctx, section.ID, code)
			switch {
			case err != nil:
				result.Error = err.Error()
			case assigned:
				result.Assigned = true
				result.EnrollmentCode = code
			}
		}
		report.Add(result)
		if result.Error != "" {
			logger.Error("section code backfill failed", zap.Int64("section_id", section.ID), zap.String("error", result.Error))
		}
		if progress != nil {
			progress(result)
		}
	}

	report.FinishedAt = s.now()
	s.metrics.ObserveRun(ReportKindCodeBackfill, report.FinishedAt.Sub(report.StartedAt))
	logger.Info("code backfill finished",
		zap.Int("assigned", report.Assigned),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	if err := s.reports.Save(ctx, ReportKindCodeBackfill, report); err != nil {
		logger.Warn("code backfill report not cached", zap.Error(err))
	}
	return report, nil
}

// LastReconcile returns the cached report of the most recent reconcile run.
func (s *ReconcileService) LastReconcile(ctx context.Context) (*models.ReconcileReport, error) {
	var report models.ReconcileReport
	hit, err := s.reports.Load(ctx, ReportKindReconcile, &report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load last reconcile report")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no reconcile report recorded")
	}
	return &report, nil
}
