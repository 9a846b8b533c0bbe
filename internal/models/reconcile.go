package models

import "time"

// OfferingOutcome describes what the reconciler did for one subject offering.
type OfferingOutcome string

const (
	OutcomeRepaired OfferingOutcome = "repaired"
	OutcomeSkipped  OfferingOutcome = "skipped"
	OutcomeFailed   OfferingOutcome = "failed"
)

// OfferingResult is the per-offering line of a reconcile run.
type OfferingResult struct {
	SubjectOfferingID   int64           `json:"subject_offering_id"`
	Outcome             OfferingOutcome `json:"outcome"`
	SectionID           int64           `json:"section_id,omitempty"`
	EnrollmentCode      string          `json:"enrollment_code,omitempty"`
	SectionCreated      bool            `json:"section_created"`
	EnrollmentsAffected int64           `json:"enrollments_affected"`
	Error               string          `json:"error,omitempty"`
}

// ReconcileReport aggregates the outcome of a reconcile run.
type ReconcileReport struct {
	RunID                string           `json:"run_id"`
	StartedAt            time.Time        `json:"started_at"`
	FinishedAt           time.Time        `json:"finished_at"`
	Offerings            []OfferingResult `json:"offerings"`
	Repaired             int              `json:"repaired"`
	Skipped              int              `json:"skipped"`
	Failed               int              `json:"failed"`
	SectionsCreated      int              `json:"sections_created"`
	EnrollmentsRewritten int64            `json:"enrollments_rewritten"`
}

// Add records an offering result and updates the summary counters.
func (r *ReconcileReport) Add(result OfferingResult) {
	r.Offerings = append(r.Offerings, result)
	switch result.Outcome {
	case OutcomeRepaired:
		r.Repaired++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	if result.SectionCreated {
		r.SectionsCreated++
	}
	r.EnrollmentsRewritten += result.EnrollmentsAffected
}

// SectionCodeResult is the per-section line of a code backfill run.
type SectionCodeResult struct {
	SectionID      int64  `json:"section_id"`
	EnrollmentCode string `json:"enrollment_code,omitempty"`
	Assigned       bool   `json:"assigned"`
	Error          string `json:"error,omitempty"`
}

// CodeBackfillReport aggregates a code backfill run over legacy sections.
type CodeBackfillReport struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Sections   []SectionCodeResult `json:"sections"`
	Assigned   int                 `json:"assigned"`
	Skipped    int                 `json:"skipped"`
	Failed     int                 `json:"failed"`
}

// Add records a section result and updates the summary counters.
func (r *CodeBackfillReport) Add(result SectionCodeResult) {
	r.Sections = append(r.Sections, result)
	switch {
	case result.Error != "":
		r.Failed++
	case result.Assigned:
		r.Assigned++
	default:
		r.Skipped++
	}
}
