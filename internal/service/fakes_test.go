package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

// fakeLMS keeps sections and student_subjects in memory and mirrors the repository queries.
type fakeLMS struct {
	sections    map[int64]*models.Section
	enrollments []models.Enrollment
	nextID      int64

	listErr        error
	createErr      map[int64]error
	reassignErr    map[int64]error
	creates        int
	codeExistCalls int
}

func newFakeLMS() *fakeLMS {
	return &fakeLMS{sections: map[int64]*models.Section{}, nextID: 100}
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func (f *fakeLMS) addSection(id, offeringID int64, code string) {
	section := &models.Section{ID: id, SubjectOfferingID: offeringID, Name: "A", Capacity: 40, Status: models.SectionStatusActive}
	if code != "" {
		section.EnrollmentCode = strPtr(code)
	}
	f.sections[id] = section
}

func (f *fakeLMS) enroll(id, offeringID int64, sectionID *int64) {
	f.enrollments = append(f.enrollments, models.Enrollment{ID: id, StudentID: id * 10, SubjectOfferingID: offeringID, SectionID: sectionID, Status: models.EnrollmentStatusEnrolled})
}

func (f *fakeLMS) orphaned(e models.Enrollment) bool {
	if e.SectionID == nil {
		return true
	}
	section, ok := f.sections[*e.SectionID]
	return !ok || section.SubjectOfferingID != e.SubjectOfferingID
}

func (f *fakeLMS) sectionsFor(offeringID int64) []*models.Section {
	var out []*models.Section
	for _, s := range f.sections {
		if s.SubjectOfferingID == offeringID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeLMS) snapshot() string {
	ids := make([]int64, 0, len(f.sections))
	for id := range f.sections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	sections := make([]models.Section, 0, len(ids))
	for _, id := range ids {
		sections = append(sections, *f.sections[id])
	}
	raw, _ := json.Marshal(struct {
		Sections    []models.Section
		Enrollments []models.Enrollment
	}{sections, f.enrollments})
	return string(raw)
}

func (f *fakeLMS) ListOrphanedOfferings(ctx context.Context) ([]models.OrphanedOffering, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	counts := map[int64]int{}
	for _, e := range f.enrollments {
		if f.orphaned(e) {
			counts[e.SubjectOfferingID]++
		}
	}
	out := make([]models.OrphanedOffering, 0, len(counts))
	for id, n := range counts {
		out = append(out, models.OrphanedOffering{SubjectOfferingID: id, OrphanedCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectOfferingID < out[j].SubjectOfferingID })
	return out, nil
}

func (f *fakeLMS) ReassignOrphaned(ctx context.Context, offeringID, sectionID int64) (int64, error) {
	if err := f.reassignErr[offeringID]; err != nil {
		return 0, err
	}
	var affected int64
	for i, e := range f.enrollments {
		if e.SubjectOfferingID == offeringID && f.orphaned(e) {
			f.enrollments[i].SectionID = int64Ptr(sectionID)
			affected++
		}
	}
	return affected, nil
}

func (f *fakeLMS) FindFirstByOffering(ctx context.Context, offeringID int64) (*models.Section, error) {
	list := f.sectionsFor(offeringID)
	if len(list) == 0 {
		return nil, nil
	}
	cp := *list[0]
	return &cp, nil
}

func (f *fakeLMS) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	section, ok := f.sections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *section
	return &cp, nil
}

func (f *fakeLMS) FindByCode(ctx context.Context, code string) (*models.Section, error) {
	for _, s := range f.sections {
		if s.Code() == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLMS) ListByOffering(ctx context.Context, offeringID int64) ([]models.Section, error) {
	var out []models.Section
	for _, s := range f.sectionsFor(offeringID) {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeLMS) Create(ctx context.Context, section *models.Section) error {
	if err := f.createErr[section.SubjectOfferingID]; err != nil {
		return err
	}
	f.nextID++
	section.ID = f.nextID
	section.CreatedAt = time.Now().UTC()
	section.UpdatedAt = section.CreatedAt
	stored := *section
	f.sections[section.ID] = &stored
	f.creates++
	return nil
}

func (f *fakeLMS) UpdateStatus(ctx context.Context, id int64, status models.SectionStatus) error {
	section, ok := f.sections[id]
	if !ok {
		return sql.ErrNoRows
	}
	section.Status = status
	return nil
}

func (f *fakeLMS) CodeExists(ctx context.Context, code string) (bool, error) {
	f.codeExistCalls++
	for _, s := range f.sections {
		if s.Code() == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLMS) ListMissingCode(ctx context.Context) ([]models.Section, error) {
	var out []models.Section
	for _, s := range f.sections {
		if s.Code() == "" {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLMS) AssignCode(ctx context.Context, id int64, code string) (bool, error) {
	section, ok := f.sections[id]
	if !ok || section.Code() != "" {
		return false, nil
	}
	section.EnrollmentCode = strPtr(code)
	return true, nil
}

// scriptedGenerator fails on the listed call numbers and otherwise delegates.
type scriptedGenerator struct {
	next   codeGenerator
	failOn map[int]error
	calls  int
}

func (g *scriptedGenerator) Generate(ctx context.Context) (string, error) {
	g.calls++
	if err := g.failOn[g.calls]; err != nil {
		return "", err
	}
	return g.next.Generate(ctx)
}

type memoryReportRepo struct {
	reports map[string][]byte
	saveErr error
}

func (m *memoryReportRepo) LoadReport(ctx context.Context, kind string, dest interface{}) error {
	raw, ok := m.reports[kind]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryReportRepo) SaveReport(ctx context.Context, kind string, report interface{}, ttl time.Duration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.reports == nil {
		m.reports = map[string][]byte{}
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	m.reports[kind] = raw
	return nil
}

var errBoom = errors.New("boom")
