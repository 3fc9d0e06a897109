package result

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"college_portal/backend/internal/grading"
	"college_portal/backend/internal/shared"
)

var academicYearPattern = regexp.MustCompile(`^(\d{4})-(\d{2}|\d{4})$`)

// ValidAcademicYear accepts "2024-25" or "2024-2025" where the second year
// follows the first.
func ValidAcademicYear(s string) bool {
	m := academicYearPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if len(m[2]) == 2 {
		return end == (start+1)%100
	}
	return end == start+1
}

// Validator checks submission payloads before anything is graded.
type Validator struct {
	validate *validator.Validate
	policy   *grading.Policy
}

// NewValidator builds a validator that reports JSON field names and checks
// semesters against the policy.
func NewValidator(policy *grading.Policy) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("academic_year", func(fl validator.FieldLevel) bool {
		return ValidAcademicYear(fl.Field().String())
	})
	return &Validator{validate: v, policy: policy}
}

// Submission validates a single result submission.
func (v *Validator) Submission(sub *shared.ResultSubmission) error {
	if err := v.validate.Struct(sub); err != nil {
		return translate(err)
	}
	return v.semester(sub.Semester)
}

// Batch validates the shared fields of a bulk submission. Rows are checked
// one by one during ingestion.
func (v *Validator) Batch(batch *shared.BulkSubmission) error {
	if err := v.validate.Struct(batch); err != nil {
		return translate(err)
	}
	return v.semester(batch.Semester)
}

func (v *Validator) semester(semester int32) error {
	if !v.policy.ValidSemester(semester) {
		return shared.NewValidationError("semester must be between 1 and %d, got %d", v.policy.MaxSemester, semester)
	}
	return nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return shared.NewValidationError("%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return shared.NewValidationError("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "academic_year":
		return fmt.Sprintf("%s must look like 2024-25", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
}
