package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-api/internal/models"
)

const sectionColumns = `id, subject_offering_id, name, capacity, enrollment_code, status, instructor_id, schedule, room, created_at, updated_at`

// SectionRepository handles persistence of course sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// FindByID returns a section by its ID.
func (r *SectionRepository) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// FindByCode returns the section holding the enrollment code.
func (r *SectionRepository) FindByCode(ctx context.Context, code string) (*models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE enrollment_code = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, code); err != nil {
		return nil, err
	}
	return &section, nil
}

// FindFirstByOffering returns the oldest section of an offering or nil when the offering has none.
func (r *SectionRepository) FindFirstByOffering(ctx context.Context, offeringID int64) (*models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE subject_offering_id = $1 ORDER BY id ASC LIMIT 1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, offeringID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find section for offering %d: %w", offeringID, err)
	}
	return &section, nil
}

// ListByOffering returns every section of an offering ordered by name.
func (r *SectionRepository) ListByOffering(ctx context.Context, offeringID int64) ([]models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE subject_offering_id = $1 ORDER BY name ASC, id ASC`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, offeringID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// CodeExists checks whether any section already holds the code.
func (r *SectionRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM sections WHERE enrollment_code = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment code: %w", err)
	}
	return true, nil
}

// Create inserts a section and populates its generated ID and timestamps.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = section.CreatedAt
	if section.Status == "" {
		section.Status = models.SectionStatusActive
	}
	const query = `INSERT INTO sections (subject_offering_id, name, capacity, enrollment_code, status, instructor_id, schedule, room, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		section.SubjectOfferingID,
		section.Name,
		section.Capacity,
		section.EnrollmentCode,
		section.Status,
		section.InstructorID,
		section.Schedule,
		section.Room,
		section.CreatedAt,
		section.UpdatedAt,
	).Scan(&section.ID)
	if err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// AssignCode sets the enrollment code on a section that has none. Assigned codes are never overwritten.
func (r *SectionRepository) AssignCode(ctx context.Context, id int64, code string) (bool, error) {
	const query = `UPDATE sections SET enrollment_code = $2, updated_at = $3
        WHERE id = $1 AND (enrollment_code IS NULL OR enrollment_code = '')`
	res, err := r.db.ExecContext(ctx, query, id, code, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("assign enrollment code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign enrollment code rows: %w", err)
	}
	return affected > 0, nil
}

// ListMissingCode returns sections that were created without an enrollment code.
func (r *SectionRepository) ListMissingCode(ctx context.Context) ([]models.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections WHERE enrollment_code IS NULL OR enrollment_code = '' ORDER BY id ASC`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list sections missing code: %w", err)
	}
	return sections, nil
}

// UpdateStatus performs a soft status transition.
func (r *SectionRepository) UpdateStatus(ctx context.Context, id int64, status models.SectionStatus) error {
	const query = `UPDATE sections SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update section status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update section status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
