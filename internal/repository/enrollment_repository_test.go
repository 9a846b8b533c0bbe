package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentRepositoryListOrphanedOfferings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"subject_offering_id", "orphaned_count"}).
		AddRow(int64(3), 2).
		AddRow(int64(8), 5)
	mock.ExpectQuery(`SELECT ss.subject_offering_id, COUNT\(\*\) AS orphaned_count\s+FROM student_subjects ss\s+WHERE NOT EXISTS`).
		WillReturnRows(rows)

	offerings, err := repo.ListOrphanedOfferings(context.Background())
	require.NoError(t, err)
	require.Len(t, offerings, 2)
	assert.Equal(t, int64(8), offerings[1].SubjectOfferingID)
	assert.Equal(t, 5, offerings[1].OrphanedCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryReassignOrphaned(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(`UPDATE student_subjects ss SET section_id = \$2\s+WHERE ss.subject_offering_id = \$1 AND NOT EXISTS`).
		WithArgs(int64(8), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 5))

	affected, err := repo.ReassignOrphaned(context.Background(), 8, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(5), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryReassignOrphanedError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(`UPDATE student_subjects`).
		WithArgs(int64(4), int64(9)).
		WillReturnError(errors.New("deadlock detected"))

	_, err := repo.ReassignOrphaned(context.Background(), 4, 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reassign orphaned enrollments")
	require.NoError(t, mock.ExpectationsWereMet())
}
