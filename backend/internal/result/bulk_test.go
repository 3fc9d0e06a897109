package result

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"college_portal/backend/internal/grading"
	"college_portal/backend/internal/metrics"
	"college_portal/backend/internal/roster"
	"college_portal/backend/internal/shared"
)

func batch(rows ...shared.BulkRow) shared.BulkSubmission {
	return shared.BulkSubmission{Semester: 3, AcademicYear: "2024-25", Rows: rows}
}

func row(studentID string, subjects ...shared.SubjectSubmission) shared.BulkRow {
	return shared.BulkRow{StudentID: studentID, Subjects: subjects}
}

func TestBulkSubmitIsolatesFailures(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.BulkSubmit(ctx, batch(
		row("stu-1", subject("CS301", 45, 50)),
		row("ghost", subject("CS301", 45, 50)),
		row("stu-2", subject("CS301", 30, 50)),
	))
	require.NoError(t, err)

	want := &BulkResult{
		ProcessedCount: 2,
		Errors:         []RowError{{StudentID: "ghost", Error: shared.MsgStudentNotFound}},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("BulkSubmit mismatch (-want +got):\n%s", diff)
	}

	all, err := f.svc.List(ctx, shared.ResultFilter{Semester: 3})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBulkSubmitReportsErrorsInInputOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t, WithConcurrency(3))

	rows := []shared.BulkRow{
		row("missing-a", subject("CS301", 45, 50)),
		row("stu-1", subject("CS301", 45, 50)),
		row("stu-2", subject("CS301", 45, 0)),
		row("stu-3", subject("CS301", 45, 50)),
		row("missing-b", subject("CS301", 45, 50)),
		row("", subject("CS301", 45, 50)),
		row("stu-4"),
	}
	out, err := f.svc.BulkSubmit(context.Background(), batch(rows...))
	require.NoError(t, err)

	assert.Equal(t, 2, out.ProcessedCount)
	var failed []string
	for _, e := range out.Errors {
		failed = append(failed, e.StudentID)
		assert.NotEmpty(t, e.Error)
	}
	assert.Equal(t, []string{"missing-a", "stu-2", "missing-b", "", "stu-4"}, failed)
}

func TestBulkSubmitRecordsRowFailures(t *testing.T) {
	defer goleak.VerifyNone(t)
	rec := metrics.New()
	f := newFixture(t, WithMetrics(rec))

	out, err := f.svc.BulkSubmit(context.Background(), batch(
		row("stu-1", subject("CS301", 45, 50)),
		row("", subject("CS301", 45, 50)),
		row("stu-4"),
		row("ghost", subject("CS301", 45, 50)),
	))
	require.NoError(t, err)
	assert.Equal(t, 1, out.ProcessedCount)

	// Rows rejected by validation count like a rejected single submit.
	assert.Equal(t, map[string]float64{
		metrics.OutcomeCreated: 1,
		metrics.OutcomeFailed:  3,
	}, counterValues(t, rec, "results_upserts_total"))
	assert.Equal(t, map[string]float64{
		"processed": 1,
		"failed":    3,
	}, counterValues(t, rec, "results_bulk_rows_total"))
}

func TestBulkSubmitRepeatedStudentLastRowWins(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.BulkSubmit(ctx, batch(
		row("stu-1", subject("CS301", 10, 50)),
		row("stu-2", subject("CS301", 45, 50)),
		row("stu-1", subject("CS301", 45, 50)),
	))
	require.NoError(t, err)
	assert.Equal(t, 3, out.ProcessedCount)
	assert.Empty(t, out.Errors)

	res, err := f.store.Get(ctx, shared.ResultKey{StudentID: "stu-1", Semester: 3, AcademicYear: "2024-25"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Revision)
	assert.Equal(t, shared.StatusPass, res.OverallStatus)
	assert.Equal(t, 10.0, res.SGPA)
}

func TestBulkSubmitRejectsInvalidBatch(t *testing.T) {
	f := newFixture(t)

	tests := map[string]shared.BulkSubmission{
		"semester zero":      {Semester: 0, AcademicYear: "2024-25", Rows: []shared.BulkRow{row("stu-1", subject("A", 1, 2))}},
		"semester too large": {Semester: 12, AcademicYear: "2024-25", Rows: []shared.BulkRow{row("stu-1", subject("A", 1, 2))}},
		"bad academic year":  {Semester: 3, AcademicYear: "2024/25", Rows: []shared.BulkRow{row("stu-1", subject("A", 1, 2))}},
		"no rows":            {Semester: 3, AcademicYear: "2024-25"},
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.BulkSubmit(context.Background(), b)
			assert.True(t, shared.IsKind(err, shared.KindValidation), "got %v", err)
		})
	}

	all, err := f.svc.List(context.Background(), shared.ResultFilter{Semester: 3})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBulkSubmitIgnoresCallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := f.svc.BulkSubmit(ctx, batch(
		row("stu-1", subject("CS301", 45, 50)),
		row("stu-2", subject("CS301", 45, 50)),
	))
	require.NoError(t, err)
	assert.Equal(t, 2, out.ProcessedCount)
}

func TestBulkSubmitLargeBatch(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := roster.NewMemoryRoster()
	var rows []shared.BulkRow
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("bulk-%03d", i)
		dir.Put(shared.User{ID: id, Role: shared.RoleStudent})
		rows = append(rows, row(id, subject("CS301", float64(i%50), 50), subject("CS302", 40, 50)))
	}

	svc := NewService(NewMemoryStore(), dir, grading.DefaultPolicy(), WithConcurrency(4))

	out, err := svc.BulkSubmit(context.Background(), batch(rows...))
	require.NoError(t, err)
	assert.Equal(t, 200, out.ProcessedCount)
	assert.Empty(t, out.Errors)

	all, err := svc.List(context.Background(), shared.ResultFilter{Semester: 3})
	require.NoError(t, err)
	assert.Len(t, all, 200)
}

func TestGroupByStudent(t *testing.T) {
	groups := groupByStudent([]shared.BulkRow{
		{StudentID: "a"}, {StudentID: "b"}, {StudentID: "a"}, {StudentID: "c"}, {StudentID: "b"},
	})
	assert.Equal(t, [][]int{{0, 2}, {1, 4}, {3}}, groups)
}
