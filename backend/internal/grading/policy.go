// Package grading converts raw subject marks into grades and aggregates a
// semester's subjects into SGPA, percentage and an overall status. Every
// function here is pure; the same Policy and input always produce the same
// output.
package grading

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"college_portal/backend/internal/shared"
)

// PercentageMode selects how the aggregate percentage is computed.
type PercentageMode string

const (
	// PercentageMean averages the subject percentages.
	PercentageMean PercentageMode = "mean"
	// PercentageMaxMarks divides total marks obtained by total max marks.
	PercentageMaxMarks PercentageMode = "max_marks"
)

// Defaults of the built-in policy.
const (
	DefaultPassPercentage  = 40.0
	DefaultATKTMaxFailures = 2
	DefaultMaxSemester     = 8
	DefaultFailGrade       = "F"
)

// Band maps every percentage at or above MinPercentage (and below the
// previous band) to a letter grade and grade point.
type Band struct {
	MinPercentage float64 `yaml:"min_percentage" json:"min_percentage"`
	Grade         string  `yaml:"grade" json:"grade"`
	Point         float64 `yaml:"point" json:"point"`
}

// Policy is the full grading configuration. ATKTMaxFailures is the largest
// number of failed subjects that still yields ATKT instead of fail; zero
// disables ATKT. MinAttendance of zero disables attendance detention.
type Policy struct {
	Bands           []Band         `yaml:"bands" json:"bands"`
	PassPercentage  float64        `yaml:"pass_percentage" json:"pass_percentage"`
	ATKTMaxFailures int            `yaml:"atkt_max_failures" json:"atkt_max_failures"`
	MinAttendance   float64        `yaml:"min_attendance" json:"min_attendance"`
	PercentageMode  PercentageMode `yaml:"percentage_mode" json:"percentage_mode"`
	MaxSemester     int32          `yaml:"max_semester" json:"max_semester"`
}

// DefaultPolicy returns the 10-point table used when no policy file is set.
func DefaultPolicy() *Policy {
	return &Policy{
		Bands: []Band{
			{MinPercentage: 90, Grade: "O", Point: 10},
			{MinPercentage: 80, Grade: "A+", Point: 9},
			{MinPercentage: 70, Grade: "A", Point: 8},
			{MinPercentage: 60, Grade: "B+", Point: 7},
			{MinPercentage: 50, Grade: "B", Point: 6},
			{MinPercentage: 45, Grade: "C", Point: 5},
			{MinPercentage: 40, Grade: "P", Point: 4},
			{MinPercentage: 0, Grade: DefaultFailGrade, Point: 0},
		},
		PassPercentage:  DefaultPassPercentage,
		ATKTMaxFailures: DefaultATKTMaxFailures,
		PercentageMode:  PercentageMean,
		MaxSemester:     DefaultMaxSemester,
	}
}

// LoadPolicy reads a YAML policy file. Fields missing from the file keep
// their default values. An empty path returns DefaultPolicy.
func LoadPolicy(path string) (*Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grading policy: %w", err)
	}
	if err := yaml.Unmarshal(raw, policy); err != nil {
		return nil, fmt.Errorf("parse grading policy %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("grading policy %s: %w", path, err)
	}
	return policy, nil
}

// Validate checks that the band table is monotonic and consistent with the
// pass threshold, so that passed == (grade point > 0) always holds.
func (p *Policy) Validate() error {
	if len(p.Bands) == 0 {
		return shared.NewValidationError("grading policy needs at least one band")
	}
	if p.PassPercentage <= 0 || p.PassPercentage > 100 {
		return shared.NewValidationError("pass_percentage must be in (0, 100], got %v", p.PassPercentage)
	}
	if p.ATKTMaxFailures < 0 {
		return shared.NewValidationError("atkt_max_failures must not be negative")
	}
	if p.MinAttendance < 0 || p.MinAttendance > 100 {
		return shared.NewValidationError("min_attendance must be in [0, 100]")
	}
	if p.MaxSemester < 1 {
		return shared.NewValidationError("max_semester must be at least 1")
	}
	switch p.PercentageMode {
	case PercentageMean, PercentageMaxMarks:
	default:
		return shared.NewValidationError("unknown percentage_mode %q", p.PercentageMode)
	}

	seen := make(map[string]bool, len(p.Bands))
	for i, b := range p.Bands {
		if b.Grade == "" {
			return shared.NewValidationError("band %d has no grade", i)
		}
		if seen[b.Grade] {
			return shared.NewValidationError("grade %q appears twice", b.Grade)
		}
		seen[b.Grade] = true

		if i > 0 {
			prev := p.Bands[i-1]
			if b.MinPercentage >= prev.MinPercentage {
				return shared.NewValidationError("bands must be ordered by descending min_percentage (%q after %q)", b.Grade, prev.Grade)
			}
			if b.Point > prev.Point {
				return shared.NewValidationError("grade point of %q exceeds %q", b.Grade, prev.Grade)
			}
		}

		passing := b.MinPercentage >= p.PassPercentage
		if passing && b.Point <= 0 {
			return shared.NewValidationError("band %q is above the pass threshold but has no grade point", b.Grade)
		}
		if !passing && b.Point != 0 {
			return shared.NewValidationError("band %q is below the pass threshold but has grade point %v", b.Grade, b.Point)
		}
	}

	if last := p.Bands[len(p.Bands)-1]; last.MinPercentage != 0 {
		return shared.NewValidationError("last band must start at 0, got %v", last.MinPercentage)
	}
	if !hasBandAt(p.Bands, p.PassPercentage) {
		return shared.NewValidationError("pass_percentage %v must be the lower bound of a band", p.PassPercentage)
	}
	return nil
}

func hasBandAt(bands []Band, pct float64) bool {
	for _, b := range bands {
		if b.MinPercentage == pct {
			return true
		}
	}
	return false
}

// failBand is the band awarded to detained subjects.
func (p *Policy) failBand() Band {
	return p.Bands[len(p.Bands)-1]
}
