package grading

import (
	"github.com/shopspring/decimal"

	"college_portal/backend/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// SubjectGrade is the outcome of grading one subject's marks.
type SubjectGrade struct {
	Percentage float64
	Grade      string
	GradePoint float64
	Passed     bool
}

// Grade converts marks into a percentage, letter grade and grade point.
// The percentage is clamped to [0, 100] and rounded to two places before
// the band lookup.
func (p *Policy) Grade(marksObtained, maxMarks float64) (SubjectGrade, error) {
	if maxMarks <= 0 {
		return SubjectGrade{}, shared.NewValidationError("max marks must be positive, got %v", maxMarks)
	}
	if marksObtained < 0 {
		return SubjectGrade{}, shared.NewValidationError("marks obtained must not be negative, got %v", marksObtained)
	}

	pct := percentOf(marksObtained, maxMarks)
	band := p.bandFor(pct)

	return SubjectGrade{
		Percentage: pct,
		Grade:      band.Grade,
		GradePoint: band.Point,
		Passed:     band.Point > 0,
	}, nil
}

func (p *Policy) bandFor(pct float64) Band {
	for _, b := range p.Bands {
		if pct >= b.MinPercentage {
			return b
		}
	}
	return p.failBand()
}

// ValidSemester reports whether semester lies in 1..MaxSemester.
func (p *Policy) ValidSemester(semester int32) bool {
	return semester >= 1 && semester <= p.MaxSemester
}

// EvaluateSubject grades a submitted subject, folding in its mark components
// and attendance. Marks above a maximum are capped at that maximum.
func (p *Policy) EvaluateSubject(sub shared.SubjectSubmission) (shared.SubjectResult, error) {
	obtained, outOf := sub.MarksObtained, sub.MaxMarks
	if len(sub.Components) > 0 {
		obtained, outOf = 0, 0
		for _, c := range sub.Components {
			if c.MaxMarks <= 0 || c.MarksObtained < 0 {
				return shared.SubjectResult{}, shared.NewValidationError("subject %s: invalid %s component marks", sub.SubjectID, c.Category)
			}
			obtained += min(c.MarksObtained, c.MaxMarks)
			outOf += c.MaxMarks
		}
	}

	graded, err := p.Grade(obtained, outOf)
	if err != nil {
		return shared.SubjectResult{}, shared.NewValidationError("subject %s: %s", sub.SubjectID, shared.Message(err))
	}

	// Stored marks never exceed the maximum, matching the clamped percentage.
	obtained = min(obtained, outOf)

	credits := sub.Credits
	if credits == 0 {
		credits = 1
	}

	result := shared.SubjectResult{
		SubjectID:     sub.SubjectID,
		SubjectName:   sub.SubjectName,
		Credits:       credits,
		MarksObtained: obtained,
		MaxMarks:      outOf,
		Percentage:    graded.Percentage,
		Grade:         graded.Grade,
		GradePoint:    graded.GradePoint,
		Passed:        graded.Passed,
	}

	attendance, err := attendancePercentage(sub)
	if err != nil {
		return shared.SubjectResult{}, err
	}
	if attendance != nil {
		result.AttendancePercentage = attendance
		if p.MinAttendance > 0 && *attendance < p.MinAttendance {
			fail := p.failBand()
			result.Detained = true
			result.Grade = fail.Grade
			result.GradePoint = fail.Point
			result.Passed = false
		}
	}

	return result, nil
}

func attendancePercentage(sub shared.SubjectSubmission) (*float64, error) {
	switch {
	case sub.AttendedClasses == nil && sub.TotalClasses == nil:
		return nil, nil
	case sub.AttendedClasses == nil || sub.TotalClasses == nil:
		return nil, shared.NewValidationError("subject %s: attended_classes and total_classes must be given together", sub.SubjectID)
	case *sub.TotalClasses <= 0 || *sub.AttendedClasses < 0:
		return nil, shared.NewValidationError("subject %s: invalid attendance counts", sub.SubjectID)
	case *sub.AttendedClasses > *sub.TotalClasses:
		return nil, shared.NewValidationError("subject %s: attended classes exceed total classes", sub.SubjectID)
	}
	pct := percentOf(float64(*sub.AttendedClasses), float64(*sub.TotalClasses))
	return &pct, nil
}

// percentOf returns part/whole*100 clamped to [0, 100], rounded to 2 places.
func percentOf(part, whole float64) float64 {
	pct := decimal.NewFromFloat(part).Div(decimal.NewFromFloat(whole)).Mul(hundred)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	return pct.Round(2).InexactFloat64()
}
