package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

func newTestReconciler(store *fakeLMS, gen codeGenerator, reports *ReportCacheService) *ReconcileService {
	if gen == nil {
		gen = NewEnrollmentCodeGenerator(store, DefaultCodeMaxAttempts, rand.New(rand.NewSource(5)), nil, nil)
	}
	return NewReconcileService(store, store, gen, reports, nil, SectionDefaults{}, nil)
}

func assertNoOrphans(t *testing.T, store *fakeLMS) {
	t.Helper()
	for _, e := range store.enrollments {
		require.NotNil(t, e.SectionID, "enrollment %d has no section", e.ID)
		section, ok := store.sections[*e.SectionID]
		require.True(t, ok, "enrollment %d points at missing section %d", e.ID, *e.SectionID)
		require.Equal(t, e.SubjectOfferingID, section.SubjectOfferingID, "enrollment %d crosses offerings", e.ID)
	}
}

func TestReconcileCreatesDefaultSectionForOrphanedOffering(t *testing.T) {
	store := newFakeLMS()
	for i := int64(1); i <= 5; i++ {
		store.enroll(i, 8, nil)
	}
	svc := newTestReconciler(store, nil, nil)

	report, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)

	sections := store.sectionsFor(8)
	require.Len(t, sections, 1)
	section := sections[0]
	assert.Equal(t, "A", section.Name)
	assert.Equal(t, 40, section.Capacity)
	assert.Nil(t, section.Schedule)
	assert.Nil(t, section.Room)
	assert.True(t, ValidEnrollmentCode(section.Code()))
	for _, e := range store.enrollments {
		require.NotNil(t, e.SectionID)
		assert.Equal(t, section.ID, *e.SectionID)
	}

	assert.Equal(t, 1, report.Repaired)
	assert.Equal(t, 1, report.SectionsCreated)
	assert.Equal(t, int64(5), report.EnrollmentsRewritten)
	require.Len(t, report.Offerings, 1)
	assert.Equal(t, section.Code(), report.Offerings[0].EnrollmentCode)
	assert.NotEmpty(t, report.RunID)
}

func TestReconcileReusesExistingSection(t *testing.T) {
	store := newFakeLMS()
	store.addSection(30, 3, "KLM-4411")
	store.enroll(1, 3, nil)
	store.enroll(2, 3, int64Ptr(0))
	store.enroll(3, 3, int64Ptr(30))
	svc := newTestReconciler(store, nil, nil)

	report, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, store.creates)
	assert.Len(t, store.sectionsFor(3), 1)
	for _, e := range store.enrollments {
		assert.Equal(t, int64(30), *e.SectionID)
	}
	require.Len(t, report.Offerings, 1)
	assert.False(t, report.Offerings[0].SectionCreated)
	assert.Equal(t, int64(2), report.Offerings[0].EnrollmentsAffected)
	assert.Equal(t, 0, report.SectionsCreated)
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newFakeLMS()
	store.addSection(30, 3, "KLM-4411")
	store.enroll(1, 3, nil)
	store.enroll(2, 8, nil)
	store.enroll(3, 8, nil)
	svc := newTestReconciler(store, nil, nil)

	first, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Repaired)
	afterFirst := store.snapshot()

	second, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Repaired)
	assert.Equal(t, 0, second.SectionsCreated)
	assert.Empty(t, second.Offerings)
	assert.Equal(t, afterFirst, store.snapshot())
}

func TestReconcileRepairsDanglingAndCrossOfferingReferences(t *testing.T) {
	store := newFakeLMS()
	store.addSection(10, 1, "ABC-1000")
	store.addSection(20, 2, "ABC-2000")
	store.enroll(1, 1, int64Ptr(999))
	store.enroll(2, 1, int64Ptr(20))
	store.enroll(3, 2, int64Ptr(20))
	store.enroll(4, 4, int64Ptr(10))
	store.enroll(5, 5, nil)
	svc := newTestReconciler(store, nil, nil)

	report, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Repaired)
	assert.Equal(t, 2, report.SectionsCreated)
	assertNoOrphans(t, store)
	assert.Equal(t, int64(20), *store.enrollments[2].SectionID)
}

func TestReconcileContinuesAfterOfferingFailure(t *testing.T) {
	store := newFakeLMS()
	store.enroll(1, 4, nil)
	store.enroll(2, 5, nil)
	store.enroll(3, 6, nil)
	gen := &scriptedGenerator{
		next:   NewEnrollmentCodeGenerator(store, DefaultCodeMaxAttempts, rand.New(rand.NewSource(9)), nil, nil),
		failOn: map[int]error{2: appErrors.Clone(appErrors.ErrCodeExhausted, "")},
	}
	svc := newTestReconciler(store, gen, nil)

	var lines []models.OfferingResult
	report, err := svc.Reconcile(context.Background(), func(r models.OfferingResult) { lines = append(lines, r) })
	require.NoError(t, err)

	require.Len(t, lines, 3)
	assert.Equal(t, models.OutcomeRepaired, lines[0].Outcome)
	assert.Equal(t, models.OutcomeFailed, lines[1].Outcome)
	assert.Equal(t, int64(5), lines[1].SubjectOfferingID)
	assert.NotEmpty(t, lines[1].Error)
	assert.Equal(t, models.OutcomeRepaired, lines[2].Outcome)

	assert.Equal(t, 2, report.Repaired)
	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, store.sectionsFor(5), "exhaustion must not leave a section without code")
	assert.Nil(t, store.enrollments[1].SectionID)

	retry, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Repaired)
	assertNoOrphans(t, store)
}

func TestReconcileRecordsDatabaseErrorsPerOffering(t *testing.T) {
	store := newFakeLMS()
	store.enroll(1, 1, nil)
	store.enroll(2, 2, nil)
	store.createErr = map[int64]error{1: errors.New("insert failed")}
	store.reassignErr = map[int64]error{2: errors.New("update failed")}
	svc := newTestReconciler(store, nil, nil)

	report, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, "insert failed", report.Offerings[0].Error)
	assert.True(t, report.Offerings[1].SectionCreated)
	assert.Equal(t, 1, report.SectionsCreated)
}

func TestReconcileNothingToDo(t *testing.T) {
	store := newFakeLMS()
	store.addSection(1, 1, "ABC-1234")
	store.enroll(1, 1, int64Ptr(1))
	svc := newTestReconciler(store, nil, nil)

	report, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Offerings)
	assert.Equal(t, 0, report.Repaired+report.Skipped+report.Failed)
}

func TestReconcileListFailureAborts(t *testing.T) {
	store := newFakeLMS()
	store.listErr = errBoom
	svc := newTestReconciler(store, nil, nil)

	report, err := svc.Reconcile(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, errBoom)
}

func TestReconcileCachesLastReport(t *testing.T) {
	store := newFakeLMS()
	store.enroll(1, 8, nil)
	repo := &memoryReportRepo{}
	reports := NewReportCacheService(repo, nil, 0, nil, true)
	svc := newTestReconciler(store, nil, reports)

	_, err := svc.LastReconcile(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	report, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)

	last, err := svc.LastReconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, last.RunID)
	assert.Equal(t, 1, last.Repaired)
}

func TestReconcileIgnoresCacheWriteFailure(t *testing.T) {
	store := newFakeLMS()
	store.enroll(1, 8, nil)
	reports := NewReportCacheService(&memoryReportRepo{saveErr: errBoom}, nil, 0, nil, true)
	svc := newTestReconciler(store, nil, reports)

	report, err := svc.Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Repaired)
}

func TestBackfillCodesAssignsMissingCodes(t *testing.T) {
	store := newFakeLMS()
	store.addSection(1, 1, "")
	store.addSection(2, 2, "ABC-2222")
	store.addSection(3, 3, "")
	svc := newTestReconciler(store, nil, nil)

	var lines []models.SectionCodeResult
	report, err := svc.BackfillCodes(context.Background(), func(r models.SectionCodeResult) { lines = append(lines, r) })
	require.NoError(t, err)
	assert.Equal(t, 2, report.Assigned)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, lines, 2)
	assert.Equal(t, "ABC-2222", store.sections[2].Code())
	assert.True(t, ValidEnrollmentCode(store.sections[1].Code()))
	assert.True(t, ValidEnrollmentCode(store.sections[3].Code()))
	assert.NotEqual(t, store.sections[1].Code(), store.sections[3].Code())

	again, err := svc.BackfillCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, again.Sections)
}

func TestBackfillCodesReportsExhaustion(t *testing.T) {
	store := newFakeLMS()
	store.addSection(1, 1, "")
	store.addSection(2, 2, "")
	gen := &scriptedGenerator{
		next:   NewEnrollmentCodeGenerator(store, DefaultCodeMaxAttempts, nil, nil, nil),
		failOn: map[int]error{1: appErrors.Clone(appErrors.ErrCodeExhausted, "")},
	}
	svc := newTestReconciler(store, gen, nil)

	report, err := svc.BackfillCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Assigned)
	assert.Empty(t, store.sections[1].Code())
}
