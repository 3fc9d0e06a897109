package result

import (
	"context"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"college_portal/backend/internal/shared"
)

// ============================================================================
// Transcript
// ============================================================================

// TranscriptEntry is one published semester on a transcript.
type TranscriptEntry struct {
	ResultID      string              `json:"result_id"`
	Semester      int32               `json:"semester"`
	AcademicYear  string              `json:"academic_year"`
	TotalCredits  float64             `json:"total_credits"`
	SGPA          float64             `json:"sgpa"`
	Percentage    float64             `json:"percentage"`
	OverallStatus shared.ResultStatus `json:"overall_status"`
}

// Transcript lists a student's published semesters with the cumulative GPA.
type Transcript struct {
	StudentID    string            `json:"student_id"`
	Entries      []TranscriptEntry `json:"entries"`
	TotalCredits float64           `json:"total_credits"`
	CGPA         float64           `json:"cgpa"`
}

// Transcript builds the student's transcript from published results only.
// CGPA is the credit-weighted mean of semester SGPAs, recomputed per call.
func (s *Service) Transcript(ctx context.Context, studentID string) (*Transcript, error) {
	if _, err := s.roster.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	results, err := s.StudentResults(ctx, studentID, 0)
	if err != nil {
		return nil, err
	}

	t := &Transcript{StudentID: studentID, Entries: make([]TranscriptEntry, 0, len(results))}
	var weighted, credits decimal.Decimal
	for _, r := range results {
		t.Entries = append(t.Entries, TranscriptEntry{
			ResultID:      r.ID,
			Semester:      r.Semester,
			AcademicYear:  r.AcademicYear,
			TotalCredits:  r.TotalCredits,
			SGPA:          r.SGPA,
			Percentage:    r.Percentage,
			OverallStatus: r.OverallStatus,
		})
		w := decimal.NewFromFloat(r.TotalCredits)
		weighted = weighted.Add(decimal.NewFromFloat(r.SGPA).Mul(w))
		credits = credits.Add(w)
	}

	if credits.IsPositive() {
		t.CGPA = weighted.Div(credits).Round(2).InexactFloat64()
	}
	t.TotalCredits = credits.InexactFloat64()
	return t, nil
}

// ============================================================================
// Semester report
// ============================================================================

// SGPAStats describes the SGPA distribution of a report.
type SGPAStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Report summarizes the results of one semester.
type Report struct {
	Semester     int32                       `json:"semester"`
	AcademicYear string                      `json:"academic_year,omitempty"`
	Total        int                         `json:"total"`
	Published    int                         `json:"published"`
	StatusCounts map[shared.ResultStatus]int `json:"status_counts"`
	PassRate     float64                     `json:"pass_rate"`
	SGPA         SGPAStats                   `json:"sgpa"`
}

// Report computes status counts, pass rate and SGPA statistics over the
// results matching filter. Nothing is cached; every call reads the store.
func (s *Service) Report(ctx context.Context, filter shared.ResultFilter) (*Report, error) {
	results, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Semester:     filter.Semester,
		AcademicYear: filter.AcademicYear,
		Total:        len(results),
		StatusCounts: map[shared.ResultStatus]int{
			shared.StatusPass: 0,
			shared.StatusATKT: 0,
			shared.StatusFail: 0,
		},
	}
	if len(results) == 0 {
		return rep, nil
	}

	sgpas := make(stats.Float64Data, 0, len(results))
	for _, r := range results {
		rep.StatusCounts[r.OverallStatus]++
		if r.IsPublished {
			rep.Published++
		}
		sgpas = append(sgpas, r.SGPA)
	}

	rep.PassRate = round2(float64(rep.StatusCounts[shared.StatusPass]) / float64(rep.Total) * 100)

	// The inputs are non-empty, so stats only fails on empty data.
	mean, _ := sgpas.Mean()
	median, _ := sgpas.Median()
	stddev, _ := sgpas.StandardDeviationPopulation()
	lo, _ := sgpas.Min()
	hi, _ := sgpas.Max()
	rep.SGPA = SGPAStats{
		Mean:   round2(mean),
		Median: round2(median),
		StdDev: round2(stddev),
		Min:    lo,
		Max:    hi,
	}
	return rep, nil
}

func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}
