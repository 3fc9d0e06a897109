// ============================================================================
// backend/internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"time"
)

// ============================================================================
// User Models
// ============================================================================

// User represents a roster entry (student, teacher, or admin)
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Role      string    `bson:"role" json:"role"` // student, teacher, admin
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	// Student-specific fields
	EnrollmentNo string `bson:"enrollment_no,omitempty" json:"enrollment_no,omitempty"`
	Stream       string `bson:"stream,omitempty" json:"stream,omitempty"`
	YearLevel    int32  `bson:"year_level,omitempty" json:"year_level,omitempty"`

	IsActive bool `bson:"is_active" json:"is_active"`
}

// IsStudent reports whether the user holds the student role.
func (u *User) IsStudent() bool {
	return u != nil && u.Role == RoleStudent
}

// ============================================================================
// Submission Models (engine input)
// ============================================================================

// MarkComponent is one assessed part of a subject (internal or external exam).
type MarkComponent struct {
	Category      string  `json:"category" validate:"required,oneof=internal external"`
	MarksObtained float64 `json:"marks_obtained" validate:"gte=0"`
	MaxMarks      float64 `json:"max_marks" validate:"gt=0"`
}

// SubjectSubmission carries the raw marks for one subject. Either the flat
// MarksObtained/MaxMarks pair or Components is used; Components win when set.
type SubjectSubmission struct {
	SubjectID     string          `json:"subject_id" validate:"required"`
	SubjectName   string          `json:"subject_name" validate:"required"`
	Credits       float64         `json:"credits,omitempty" validate:"gte=0"`
	MarksObtained float64         `json:"marks_obtained" validate:"gte=0"`
	MaxMarks      float64         `json:"max_marks" validate:"gte=0"`
	Components    []MarkComponent `json:"components,omitempty" validate:"omitempty,dive"`

	// Attendance is optional; both counts must be provided together.
	AttendedClasses *int32 `json:"attended_classes,omitempty" validate:"omitempty,gte=0"`
	TotalClasses    *int32 `json:"total_classes,omitempty" validate:"omitempty,gt=0"`
}

// ResultSubmission is the marks payload for a single (student, semester, year).
type ResultSubmission struct {
	StudentID    string              `json:"student_id" validate:"required"`
	Semester     int32               `json:"semester" validate:"required,gte=1"`
	AcademicYear string              `json:"academic_year" validate:"required,academic_year"`
	Subjects     []SubjectSubmission `json:"subjects" validate:"required,min=1,dive"`
}

// BulkRow is one student's subjects inside a bulk submission.
type BulkRow struct {
	StudentID string              `json:"student_id"`
	Subjects  []SubjectSubmission `json:"subjects"`
}

// BulkSubmission shares one (semester, academic year) across many students.
type BulkSubmission struct {
	Semester     int32     `json:"semester" validate:"required,gte=1"`
	AcademicYear string    `json:"academic_year" validate:"required,academic_year"`
	Rows         []BulkRow `json:"rows" validate:"required,min=1"`
}

// ============================================================================
// Result Models (engine-owned documents)
// ============================================================================

// ResultStatus is the overall outcome of a semester result.
type ResultStatus string

const (
	StatusPass ResultStatus = "pass"
	StatusFail ResultStatus = "fail"
	StatusATKT ResultStatus = "atkt"
)

// SubjectResult is the derived per-subject grade embedded in a Result.
type SubjectResult struct {
	SubjectID            string   `bson:"subject_id" json:"subject_id"`
	SubjectName          string   `bson:"subject_name" json:"subject_name"`
	Credits              float64  `bson:"credits" json:"credits"`
	MarksObtained        float64  `bson:"marks_obtained" json:"marks_obtained"`
	MaxMarks             float64  `bson:"max_marks" json:"max_marks"`
	Percentage           float64  `bson:"percentage" json:"percentage"`
	Grade                string   `bson:"grade" json:"grade"`
	GradePoint           float64  `bson:"grade_point" json:"grade_point"`
	Passed               bool     `bson:"passed" json:"passed"`
	AttendancePercentage *float64 `bson:"attendance_percentage,omitempty" json:"attendance_percentage,omitempty"`
	Detained             bool     `bson:"detained,omitempty" json:"detained,omitempty"`
}

// Result is one student's semester result. Aggregates are only ever written
// together with the Subjects they were computed from.
type Result struct {
	ID            string          `bson:"_id" json:"id"`
	StudentID     string          `bson:"student_id" json:"student_id"`
	Semester      int32           `bson:"semester" json:"semester"`
	AcademicYear  string          `bson:"academic_year" json:"academic_year"`
	Subjects      []SubjectResult `bson:"subjects" json:"subjects"`
	TotalCredits  float64         `bson:"total_credits" json:"total_credits"`
	SGPA          float64         `bson:"sgpa" json:"sgpa"`
	Percentage    float64         `bson:"percentage" json:"percentage"`
	OverallStatus ResultStatus    `bson:"overall_status" json:"overall_status"`
	IsPublished   bool            `bson:"is_published" json:"is_published"`
	PublishedAt   *time.Time      `bson:"published_at,omitempty" json:"published_at,omitempty"`
	Revision      int64           `bson:"revision" json:"revision"`
	CreatedAt     time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at" json:"updated_at"`
}

// ResultKey is the unique identity of a Result.
type ResultKey struct {
	StudentID    string
	Semester     int32
	AcademicYear string
}

// Key returns the unique identity of the result.
func (r *Result) Key() ResultKey {
	return ResultKey{StudentID: r.StudentID, Semester: r.Semester, AcademicYear: r.AcademicYear}
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Subjects = make([]SubjectResult, len(r.Subjects))
	for i, s := range r.Subjects {
		if s.AttendancePercentage != nil {
			v := *s.AttendancePercentage
			s.AttendancePercentage = &v
		}
		out.Subjects[i] = s
	}
	if r.PublishedAt != nil {
		t := *r.PublishedAt
		out.PublishedAt = &t
	}
	return &out
}

// ============================================================================
// Filter/Query Models
// ============================================================================

// Cohort narrows a filter to a group of students known to the roster.
type Cohort struct {
	Stream    string `json:"stream,omitempty"`
	YearLevel int32  `json:"year_level,omitempty"`
}

// IsZero reports whether no cohort restriction is set.
func (c Cohort) IsZero() bool {
	return c.Stream == "" && c.YearLevel == 0
}

// ResultFilter is the read filter surface for listing and reports.
type ResultFilter struct {
	Semester     int32  `json:"semester"`
	AcademicYear string `json:"academic_year,omitempty"`
	Cohort
	IsPublished *bool  `json:"is_published,omitempty"`
	StudentID   string `json:"student_id,omitempty"`

	// StudentIDs is filled in from the roster when a cohort is requested.
	StudentIDs []string `json:"-"`
}

// PublishFilter selects results for a batch publish.
type PublishFilter struct {
	Semester     int32  `json:"semester"`
	AcademicYear string `json:"academic_year,omitempty"`
	Cohort
}

// ============================================================================
// Validation Constants
// ============================================================================

const (
	// User roles
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"

	// Mark component categories
	CategoryInternal = "internal"
	CategoryExternal = "external"

	// Collections
	CollectionUsers   = "users"
	CollectionResults = "results"
)
