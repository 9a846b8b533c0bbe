package models

import "time"

// EnrollmentStatus represents the lifecycle of a student-subject link.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusEnrolled EnrollmentStatus = "enrolled"
	EnrollmentStatusDropped  EnrollmentStatus = "dropped"
	EnrollmentStatusComplete EnrollmentStatus = "completed"
)

// Enrollment links a student to a subject offering and, ideally, one of its sections.
type Enrollment struct {
	ID                int64            `db:"id" json:"id"`
	StudentID         int64            `db:"student_id" json:"student_id"`
	SubjectOfferingID int64            `db:"subject_offering_id" json:"subject_offering_id"`
	SectionID         *int64           `db:"section_id" json:"section_id,omitempty"`
	Status            EnrollmentStatus `db:"status" json:"status"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
}

// OrphanedOffering summarises a subject offering with enrollments lacking a valid section.
type OrphanedOffering struct {
	SubjectOfferingID int64 `db:"subject_offering_id" json:"subject_offering_id"`
	OrphanedCount     int   `db:"orphaned_count" json:"orphaned_count"`
}
