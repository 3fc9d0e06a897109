package grading

import (
	"github.com/shopspring/decimal"

	"college_portal/backend/internal/shared"
)

// Summary is the aggregate of one semester's subject results.
type Summary struct {
	SGPA           float64
	Percentage     float64
	Status         shared.ResultStatus
	TotalCredits   float64
	FailedSubjects int
}

// Aggregate computes SGPA, aggregate percentage and overall status for the
// given subjects. SGPA is the credit-weighted mean of grade points. The
// aggregate percentage follows p.PercentageMode. Both are rounded to two
// places.
func (p *Policy) Aggregate(subjects []shared.SubjectResult) (Summary, error) {
	if len(subjects) == 0 {
		return Summary{}, shared.NewValidationError("at least one subject is required")
	}

	var (
		weighted, credits decimal.Decimal
		pctSum            decimal.Decimal
		obtained, outOf   decimal.Decimal
		failures          int
	)
	for _, s := range subjects {
		if s.Credits <= 0 {
			return Summary{}, shared.NewValidationError("subject %s: credits must be positive", s.SubjectID)
		}
		w := decimal.NewFromFloat(s.Credits)
		weighted = weighted.Add(decimal.NewFromFloat(s.GradePoint).Mul(w))
		credits = credits.Add(w)
		pctSum = pctSum.Add(decimal.NewFromFloat(s.Percentage))
		obtained = obtained.Add(decimal.NewFromFloat(min(s.MarksObtained, s.MaxMarks)))
		outOf = outOf.Add(decimal.NewFromFloat(s.MaxMarks))
		if !s.Passed {
			failures++
		}
	}

	var pct decimal.Decimal
	switch p.PercentageMode {
	case PercentageMaxMarks:
		if !outOf.IsPositive() {
			return Summary{}, shared.NewValidationError("total max marks must be positive")
		}
		pct = obtained.Div(outOf).Mul(hundred)
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
	default:
		pct = pctSum.Div(decimal.NewFromInt(int64(len(subjects))))
	}

	return Summary{
		SGPA:           weighted.Div(credits).Round(2).InexactFloat64(),
		Percentage:     pct.Round(2).InexactFloat64(),
		Status:         p.Status(failures),
		TotalCredits:   credits.InexactFloat64(),
		FailedSubjects: failures,
	}, nil
}

// Status maps a count of failed subjects onto the overall result status.
func (p *Policy) Status(failures int) shared.ResultStatus {
	switch {
	case failures == 0:
		return shared.StatusPass
	case failures <= p.ATKTMaxFailures:
		return shared.StatusATKT
	default:
		return shared.StatusFail
	}
}
