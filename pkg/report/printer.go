// Package report renders maintenance runs as operator-facing text.
// The output is meant for humans reading a terminal and is not a stable format.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/noah-isme/lms-api/internal/models"
)

// Printer writes progress lines and summaries.
type Printer struct {
	out     io.Writer
	heading *color.Color
	ok      *color.Color
	muted   *color.Color
	fail    *color.Color
}

// NewPrinter returns a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		ok:      color.New(color.FgGreen),
		muted:   color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
	}
}

// Heading prints a section title.
func (p *Printer) Heading(title string) {
	p.heading.Fprintf(p.out, "\n=== %s ===\n", title)
}

// Pending lists offerings with orphaned enrollments.
func (p *Printer) Pending(offerings []models.OrphanedOffering) {
	if len(offerings) == 0 {
		p.ok.Fprintln(p.out, "No subject offerings need repair.")
		return
	}
	fmt.Fprintf(p.out, "%d subject offering(s) have enrollments without a valid section.\n", len(offerings))
	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Offering", "Orphaned enrollments"})
	for _, o := range offerings {
		table.Append([]string{strconv.FormatInt(o.SubjectOfferingID, 10), strconv.Itoa(o.OrphanedCount)})
	}
	table.Render()
}

// Offering prints the progress line for one reconciled offering.
func (p *Printer) Offering(r models.OfferingResult) {
	prefix := fmt.Sprintf("[offering %d] ", r.SubjectOfferingID)
	switch r.Outcome {
	case models.OutcomeFailed:
		p.fail.Fprintf(p.out, "%sFAILED: %s\n", prefix, r.Error)
	case models.OutcomeSkipped:
		p.muted.Fprintf(p.out, "%sskipped: section #%d already in place, nothing to update\n", prefix, r.SectionID)
	default:
		verb := "reused"
		if r.SectionCreated {
			verb = "created"
		}
		p.ok.Fprintf(p.out, "%s%s section #%d code %s; %d enrollment(s) updated\n", prefix, verb, r.SectionID, codeOrDash(r.EnrollmentCode), r.EnrollmentsAffected)
	}
}

// ReconcileSummary prints the per-offering table and the closing counts.
func (p *Printer) ReconcileSummary(report *models.ReconcileReport) {
	if len(report.Offerings) == 0 {
		p.ok.Fprintln(p.out, "No subject offerings need repair.")
	} else {
		table := tablewriter.NewWriter(p.out)
		table.SetHeader([]string{"Offering", "Outcome", "Section", "Code", "Created", "Enrollments"})
		for _, r := range report.Offerings {
			table.Append([]string{
				strconv.FormatInt(r.SubjectOfferingID, 10),
				string(r.Outcome),
				sectionOrDash(r.SectionID),
				codeOrDash(r.EnrollmentCode),
				strconv.FormatBool(r.SectionCreated),
				strconv.FormatInt(r.EnrollmentsAffected, 10),
			})
		}
		table.Render()
	}
	fmt.Fprintf(p.out, "Run %s finished in %s\n", report.RunID, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(p.out, "Summary: %d repaired, %d skipped, %d failed (%d section(s) created, %d enrollment(s) updated)\n",
		report.Repaired, report.Skipped, report.Failed, report.SectionsCreated, report.EnrollmentsRewritten)
}

// SectionCode prints the progress line for one backfilled section.
func (p *Printer) SectionCode(r models.SectionCodeResult) {
	prefix := fmt.Sprintf("[section %d] ", r.SectionID)
	switch {
	case r.Error != "":
		p.fail.Fprintf(p.out, "%sFAILED: %s\n", prefix, r.Error)
	case r.Assigned:
		p.ok.Fprintf(p.out, "%sassigned code %s\n", prefix, r.EnrollmentCode)
	default:
		p.muted.Fprintf(p.out, "%sskipped: code assigned concurrently\n", prefix)
	}
}

// BackfillSummary prints the closing counts of a code backfill.
func (p *Printer) BackfillSummary(report *models.CodeBackfillReport) {
	if len(report.Sections) == 0 {
		p.ok.Fprintln(p.out, "Every section already has an enrollment code.")
	}
	fmt.Fprintf(p.out, "Summary: %d assigned, %d skipped, %d failed\n", report.Assigned, report.Skipped, report.Failed)
}

// Error prints an unrecoverable error.
func (p *Printer) Error(err error) {
	p.fail.Fprintf(p.out, "Error: %v\n", err)
}

func codeOrDash(code string) string {
	if code == "" {
		return "-"
	}
	return code
}

func sectionOrDash(id int64) string {
	if id == 0 {
		return "-"
	}
	return "#" + strconv.FormatInt(id, 10)
}
