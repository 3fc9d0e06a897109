package result

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"college_portal/backend/internal/grading"
	"college_portal/backend/internal/metrics"
	"college_portal/backend/internal/roster"
	"college_portal/backend/internal/shared"
)

var testNow = time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	store  *MemoryStore
	roster *roster.MemoryRoster
	now    time.Time
}

// tick advances the fixture clock by one minute.
func (f *fixture) tick() {
	f.now = f.now.Add(time.Minute)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store: NewMemoryStore(),
		roster: roster.NewMemoryRoster(
			shared.User{ID: "stu-1", Role: shared.RoleStudent, Name: "Asha", Stream: "BSc-CS", YearLevel: 2},
			shared.User{ID: "stu-2", Role: shared.RoleStudent, Name: "Rahul", Stream: "BSc-CS", YearLevel: 2},
			shared.User{ID: "stu-3", Role: shared.RoleStudent, Name: "Meera", Stream: "BCom", YearLevel: 2},
			shared.User{ID: "stu-4", Role: shared.RoleStudent, Name: "Kiran", Stream: "BCom", YearLevel: 1},
			shared.User{ID: "stu-5", Role: shared.RoleStudent, Name: "Sana", Stream: "BSc-CS", YearLevel: 1},
			shared.User{ID: "tch-1", Role: shared.RoleTeacher, Name: "Prof. Rao"},
		),
		now: testNow,
	}
	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	f.svc = NewService(f.store, f.roster, grading.DefaultPolicy(), opts...)
	return f
}

func subject(id string, obtained, outOf float64) shared.SubjectSubmission {
	return shared.SubjectSubmission{
		SubjectID:     id,
		SubjectName:   "Subject " + id,
		MarksObtained: obtained,
		MaxMarks:      outOf,
	}
}

func submission(studentID string, subjects ...shared.SubjectSubmission) shared.ResultSubmission {
	return shared.ResultSubmission{
		StudentID:    studentID,
		Semester:     3,
		AcademicYear: "2024-25",
		Subjects:     subjects,
	}
}

// counterValues returns the values of a labelled counter keyed by its label.
func counterValues(t *testing.T, rec *metrics.Recorder, name string) map[string]float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			counts[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	return counts
}
