package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-api/internal/models"
)

// orphanedPredicate matches enrollments that do not reference a section of their own offering.
// NULL, zero and dangling section ids all fall through the NOT EXISTS.
const orphanedPredicate = `NOT EXISTS (
    SELECT 1 FROM sections s
    WHERE s.id = ss.section_id AND s.subject_offering_id = ss.subject_offering_id)`

// EnrollmentRepository handles persistence of student-subject enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListOrphanedOfferings returns the distinct offerings that have enrollments without a valid section.
func (r *EnrollmentRepository) ListOrphanedOfferings(ctx context.Context) ([]models.OrphanedOffering, error) {
	query := `SELECT ss.subject_offering_id, COUNT(*) AS orphaned_count
        FROM student_subjects ss
        WHERE ` + orphanedPredicate + `
        GROUP BY ss.subject_offering_id
        ORDER BY ss.subject_offering_id ASC`
	var offerings []models.OrphanedOffering
	if err := r.db.SelectContext(ctx, &offerings, query); err != nil {
		return nil, fmt.Errorf("list orphaned offerings: %w", err)
	}
	return offerings, nil
}

// ReassignOrphaned points every orphaned enrollment of the offering at the section and returns the rows touched.
func (r *EnrollmentRepository) ReassignOrphaned(ctx context.Context, offeringID, sectionID int64) (int64, error) {
	query := `UPDATE student_subjects ss SET section_id = $2
        WHERE ss.subject_offering_id = $1 AND ` + orphanedPredicate
	res, err := r.db.ExecContext(ctx, query, offeringID, sectionID)
	if err != nil {
		return 0, fmt.Errorf("reassign orphaned enrollments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign orphaned enrollments rows: %w", err)
	}
	return affected, nil
}
