package result

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"college_portal/backend/internal/shared"
)

func TestTranscriptUsesPublishedSemesters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Semester 1: 4 credits at SGPA 10.
	s1 := submission("stu-1", shared.SubjectSubmission{SubjectID: "MA101", SubjectName: "Maths", Credits: 4, MarksObtained: 95, MaxMarks: 100})
	s1.Semester = 1
	// Semester 2: 2 credits at SGPA 7.
	s2 := submission("stu-1", shared.SubjectSubmission{SubjectID: "MA201", SubjectName: "Maths II", Credits: 2, MarksObtained: 65, MaxMarks: 100})
	s2.Semester = 2
	// Semester 3 stays unpublished.
	s3 := submission("stu-1", subject("CS301", 10, 50))

	for _, s := range []shared.ResultSubmission{s1, s2, s3} {
		out, err := f.svc.Submit(ctx, s)
		require.NoError(t, err)
		if s.Semester != 3 {
			_, err = f.svc.Publish(ctx, out.Result.ID)
			require.NoError(t, err)
		}
	}

	tr, err := f.svc.Transcript(ctx, "stu-1")
	require.NoError(t, err)

	assert.Equal(t, "stu-1", tr.StudentID)
	require.Len(t, tr.Entries, 2)
	assert.Equal(t, int32(1), tr.Entries[0].Semester)
	assert.Equal(t, int32(2), tr.Entries[1].Semester)
	assert.Equal(t, 6.0, tr.TotalCredits)
	assert.Equal(t, 9.0, tr.CGPA)
}

func TestTranscriptEmptyAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr, err := f.svc.Transcript(ctx, "stu-2")
	require.NoError(t, err)
	assert.Empty(t, tr.Entries)
	assert.Zero(t, tr.CGPA)

	_, err = f.svc.Transcript(ctx, "ghost")
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// SGPAs 10, 8, 6, 0 (atkt) and 0 (fail).
	submissions := []shared.ResultSubmission{
		submission("stu-1", subject("A", 45, 50)),
		submission("stu-2", subject("A", 36, 50)),
		submission("stu-3", subject("A", 26, 50)),
		submission("stu-4", subject("A", 5, 50)),
		submission("stu-5", subject("A", 5, 50), subject("B", 5, 50), subject("C", 5, 50)),
	}
	for _, s := range submissions {
		_, err := f.svc.Submit(ctx, s)
		require.NoError(t, err)
	}
	_, err := f.svc.PublishBatch(ctx, shared.PublishFilter{Semester: 3, Cohort: shared.Cohort{Stream: "BSc-CS"}})
	require.NoError(t, err)

	rep, err := f.svc.Report(ctx, shared.ResultFilter{Semester: 3, AcademicYear: "2024-25"})
	require.NoError(t, err)

	want := &Report{
		Semester:     3,
		AcademicYear: "2024-25",
		Total:        5,
		Published:    3,
		StatusCounts: map[shared.ResultStatus]int{
			shared.StatusPass: 3,
			shared.StatusATKT: 1,
			shared.StatusFail: 1,
		},
		PassRate: 60,
		SGPA: SGPAStats{
			Mean:   4.8,
			Median: 6,
			StdDev: 4.12,
			Min:    0,
			Max:    10,
		},
	}
	if diff := cmp.Diff(want, rep); diff != "" {
		t.Errorf("Report mismatch (-want +got):\n%s", diff)
	}
}

func TestReportEmptySemester(t *testing.T) {
	f := newFixture(t)

	rep, err := f.svc.Report(context.Background(), shared.ResultFilter{Semester: 2})
	require.NoError(t, err)
	assert.Zero(t, rep.Total)
	assert.Zero(t, rep.PassRate)
	assert.Equal(t, 0, rep.StatusCounts[shared.StatusPass])
}
