package models

import "time"

// SectionStatus captures the soft lifecycle of a section.
type SectionStatus string

// Section statuses. Sections are never hard-deleted.
const (
	SectionStatusActive   SectionStatus = "active"
	SectionStatusClosed   SectionStatus = "closed"
	SectionStatusArchived SectionStatus = "archived"
)

// Section is a concrete scheduled instance of a subject offering that students enroll into.
type Section struct {
	ID                int64         `db:"id" json:"id"`
	SubjectOfferingID int64         `db:"subject_offering_id" json:"subject_offering_id"`
	Name              string        `db:"name" json:"name"`
	Capacity          int           `db:"capacity" json:"capacity"`
	EnrollmentCode    *string       `db:"enrollment_code" json:"enrollment_code,omitempty"`
	Status            SectionStatus `db:"status" json:"status"`
	InstructorID      *int64        `db:"instructor_id" json:"instructor_id,omitempty"`
	Schedule          *string       `db:"schedule" json:"schedule,omitempty"`
	Room              *string       `db:"room" json:"room,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// Code returns the enrollment code or an empty string when none was assigned.
func (s *Section) Code() string {
	if s == nil || s.EnrollmentCode == nil {
		return ""
	}
	return *s.EnrollmentCode
}
