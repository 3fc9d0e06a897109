package grading

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"college_portal/backend/internal/shared"
)

func int32p(v int32) *int32 { return &v }

func TestGrade(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name     string
		obtained float64
		max      float64
		want     SubjectGrade
	}{
		{"top band", 45, 50, SubjectGrade{Percentage: 90, Grade: "O", GradePoint: 10, Passed: true}},
		{"mid band", 38, 50, SubjectGrade{Percentage: 76, Grade: "A", GradePoint: 8, Passed: true}},
		{"exact pass threshold", 20, 50, SubjectGrade{Percentage: 40, Grade: "P", GradePoint: 4, Passed: true}},
		{"just below pass", 39.99, 100, SubjectGrade{Percentage: 39.99, Grade: "F", GradePoint: 0, Passed: false}},
		{"fail", 10, 50, SubjectGrade{Percentage: 20, Grade: "F", GradePoint: 0, Passed: false}},
		{"zero marks", 0, 100, SubjectGrade{Percentage: 0, Grade: "F", GradePoint: 0, Passed: false}},
		{"clamped above max", 120, 100, SubjectGrade{Percentage: 100, Grade: "O", GradePoint: 10, Passed: true}},
		{"rounded to two places", 2, 3, SubjectGrade{Percentage: 66.67, Grade: "B+", GradePoint: 7, Passed: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.Grade(tt.obtained, tt.max)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Grade(%v, %v) mismatch (-want +got):\n%s", tt.obtained, tt.max, diff)
			}
		})
	}
}

func TestGradeRejectsInvalidMarks(t *testing.T) {
	policy := DefaultPolicy()

	_, err := policy.Grade(10, 0)
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = policy.Grade(10, -5)
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = policy.Grade(-1, 50)
	assert.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestGradePassedMatchesThreshold(t *testing.T) {
	policy := DefaultPolicy()
	for marks := 0.0; marks <= 100; marks += 0.5 {
		got, err := policy.Grade(marks, 100)
		require.NoError(t, err)
		assert.Equal(t, got.Percentage >= policy.PassPercentage, got.Passed, "marks %v", marks)
		assert.Equal(t, got.GradePoint > 0, got.Passed, "marks %v", marks)
	}
}

func TestEvaluateSubjectComponents(t *testing.T) {
	policy := DefaultPolicy()

	got, err := policy.EvaluateSubject(shared.SubjectSubmission{
		SubjectID:   "CS301",
		SubjectName: "Operating Systems",
		Credits:     4,
		Components: []shared.MarkComponent{
			{Category: shared.CategoryInternal, MarksObtained: 18, MaxMarks: 25},
			{Category: shared.CategoryExternal, MarksObtained: 52, MaxMarks: 75},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 70.0, got.MarksObtained)
	assert.Equal(t, 100.0, got.MaxMarks)
	assert.Equal(t, 70.0, got.Percentage)
	assert.Equal(t, "A", got.Grade)
	assert.Equal(t, 4.0, got.Credits)
	assert.True(t, got.Passed)
	assert.Nil(t, got.AttendancePercentage)
}

func TestEvaluateSubjectCapsMarksAtMaximum(t *testing.T) {
	policy := DefaultPolicy()

	got, err := policy.EvaluateSubject(shared.SubjectSubmission{
		SubjectID: "CS302", SubjectName: "Networks", MarksObtained: 62, MaxMarks: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.MarksObtained)
	assert.Equal(t, 100.0, got.Percentage)

	// An over-max internal must not make up for a weak external.
	got, err = policy.EvaluateSubject(shared.SubjectSubmission{
		SubjectID:   "CS303",
		SubjectName: "Databases",
		Components: []shared.MarkComponent{
			{Category: shared.CategoryInternal, MarksObtained: 40, MaxMarks: 25},
			{Category: shared.CategoryExternal, MarksObtained: 20, MaxMarks: 75},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 45.0, got.MarksObtained)
	assert.Equal(t, 45.0, got.Percentage)
	assert.Equal(t, "C", got.Grade)
}

func TestEvaluateSubjectDefaultsCredits(t *testing.T) {
	got, err := DefaultPolicy().EvaluateSubject(shared.SubjectSubmission{
		SubjectID: "MA101", SubjectName: "Calculus", MarksObtained: 30, MaxMarks: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Credits)
}

func TestEvaluateSubjectAttendance(t *testing.T) {
	policy := DefaultPolicy()
	policy.MinAttendance = 75
	require.NoError(t, policy.Validate())

	sub := shared.SubjectSubmission{
		SubjectID: "PH101", SubjectName: "Physics", MarksObtained: 45, MaxMarks: 50,
		AttendedClasses: int32p(30), TotalClasses: int32p(50),
	}

	got, err := policy.EvaluateSubject(sub)
	require.NoError(t, err)
	require.NotNil(t, got.AttendancePercentage)
	assert.Equal(t, 60.0, *got.AttendancePercentage)
	assert.True(t, got.Detained)
	assert.False(t, got.Passed)
	assert.Equal(t, DefaultFailGrade, got.Grade)
	assert.Zero(t, got.GradePoint)

	sub.AttendedClasses = int32p(40)
	got, err = policy.EvaluateSubject(sub)
	require.NoError(t, err)
	assert.False(t, got.Detained)
	assert.True(t, got.Passed)
	assert.Equal(t, "O", got.Grade)
}

func TestEvaluateSubjectRejectsHalfAttendance(t *testing.T) {
	_, err := DefaultPolicy().EvaluateSubject(shared.SubjectSubmission{
		SubjectID: "PH101", SubjectName: "Physics", MarksObtained: 45, MaxMarks: 50,
		AttendedClasses: int32p(30),
	})
	assert.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestEvaluateSubjectRejectsMissingMaxMarks(t *testing.T) {
	_, err := DefaultPolicy().EvaluateSubject(shared.SubjectSubmission{
		SubjectID: "PH101", SubjectName: "Physics", MarksObtained: 45,
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindValidation))
	assert.Contains(t, err.Error(), "PH101")
}
