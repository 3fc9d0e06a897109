package result

import (
	"context"
	"time"

	"go.uber.org/zap"

	"college_portal/backend/internal/grading"
	"college_portal/backend/internal/metrics"
	"college_portal/backend/internal/roster"
	"college_portal/backend/internal/shared"
)

// DefaultConcurrency bounds bulk ingestion when no option overrides it.
const DefaultConcurrency = 8

// Service is the result engine: it grades submissions, keeps exactly one
// result per (student, semester, academic year) and controls publication.
type Service struct {
	store       Store
	roster      roster.Directory
	policy      *grading.Policy
	validator   *Validator
	logger      *zap.Logger
	metrics     *metrics.Recorder
	now         func() time.Time
	concurrency int
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithConcurrency sets how many students bulk ingestion processes at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService wires the engine. policy must already be validated.
func NewService(store Store, dir roster.Directory, policy *grading.Policy, opts ...Option) *Service {
	s := &Service{
		store:       store,
		roster:      dir,
		policy:      policy,
		validator:   NewValidator(policy),
		logger:      zap.NewNop(),
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the grading policy in use.
func (s *Service) Policy() *grading.Policy {
	return s.policy
}

// ============================================================================
// Writes
// ============================================================================

// SubmitResult is the outcome of a single upsert.
type SubmitResult struct {
	Result  *shared.Result `json:"result"`
	Created bool           `json:"created"`
}

// Submit grades the submitted subjects and upserts the student's result for
// the semester. Resubmission replaces subjects and aggregates but never
// touches publication state.
func (s *Service) Submit(ctx context.Context, sub shared.ResultSubmission) (*SubmitResult, error) {
	if err := s.validator.Submission(&sub); err != nil {
		s.metrics.Upsert(metrics.OutcomeFailed)
		return nil, err
	}
	return s.upsert(ctx, sub)
}

// upsert runs the roster check, grading and store write for an already
// validated submission.
func (s *Service) upsert(ctx context.Context, sub shared.ResultSubmission) (*SubmitResult, error) {
	if _, err := s.roster.GetStudent(ctx, sub.StudentID); err != nil {
		s.metrics.Upsert(metrics.OutcomeFailed)
		return nil, err
	}

	w, err := s.derive(sub.Subjects)
	if err != nil {
		s.metrics.Upsert(metrics.OutcomeFailed)
		return nil, err
	}

	key := shared.ResultKey{StudentID: sub.StudentID, Semester: sub.Semester, AcademicYear: sub.AcademicYear}
	res, created, err := s.store.Upsert(ctx, key, w)
	if err != nil {
		s.metrics.Upsert(metrics.OutcomeFailed)
		s.logger.Error("result upsert failed",
			zap.String("student_id", key.StudentID),
			zap.Int32("semester", key.Semester),
			zap.String("academic_year", key.AcademicYear),
			zap.Error(err))
		return nil, err
	}

	outcome := metrics.OutcomeUpdated
	if created {
		outcome = metrics.OutcomeCreated
	}
	s.metrics.Upsert(outcome)
	s.logger.Debug("result upserted",
		zap.String("result_id", res.ID),
		zap.String("student_id", key.StudentID),
		zap.Int32("semester", key.Semester),
		zap.String("outcome", outcome),
		zap.Float64("sgpa", res.SGPA),
		zap.String("status", string(res.OverallStatus)))

	return &SubmitResult{Result: res, Created: created}, nil
}

// derive grades every subject and aggregates them into one store write.
func (s *Service) derive(subjects []shared.SubjectSubmission) (Write, error) {
	graded := make([]shared.SubjectResult, 0, len(subjects))
	seen := make(map[string]bool, len(subjects))
	for _, sub := range subjects {
		if seen[sub.SubjectID] {
			return Write{}, shared.NewValidationError("subject %s appears more than once", sub.SubjectID)
		}
		seen[sub.SubjectID] = true

		r, err := s.policy.EvaluateSubject(sub)
		if err != nil {
			return Write{}, err
		}
		graded = append(graded, r)
	}

	summary, err := s.policy.Aggregate(graded)
	if err != nil {
		return Write{}, err
	}

	return Write{
		Subjects:      graded,
		TotalCredits:  summary.TotalCredits,
		SGPA:          summary.SGPA,
		Percentage:    summary.Percentage,
		OverallStatus: summary.Status,
		At:            s.now(),
	}, nil
}

// ============================================================================
// Staff reads
// ============================================================================

// Get returns a result by id regardless of publication state.
func (s *Service) Get(ctx context.Context, id string) (*shared.Result, error) {
	if id == "" {
		return nil, shared.NewValidationError("result id is required")
	}
	return s.store.GetByID(ctx, id)
}

// List returns the results matching filter. Semester is required; cohort
// fields are resolved through the roster.
func (s *Service) List(ctx context.Context, filter shared.ResultFilter) ([]*shared.Result, error) {
	if err := s.checkScope(filter.Semester, filter.AcademicYear); err != nil {
		return nil, err
	}
	resolved, empty, err := s.resolveCohort(ctx, filter)
	if err != nil {
		return nil, err
	}
	if empty {
		return []*shared.Result{}, nil
	}
	return s.store.List(ctx, resolved)
}

func (s *Service) checkScope(semester int32, academicYear string) error {
	if semester == 0 {
		return shared.NewValidationError("semester is required")
	}
	if err := s.validator.semester(semester); err != nil {
		return err
	}
	if academicYear != "" && !ValidAcademicYear(academicYear) {
		return shared.NewValidationError("academic_year must look like 2024-25, got %q", academicYear)
	}
	return nil
}

// resolveCohort turns stream / year level into the matching student ids.
// empty reports that the cohort has no students, so nothing can match.
func (s *Service) resolveCohort(ctx context.Context, filter shared.ResultFilter) (shared.ResultFilter, bool, error) {
	if filter.Cohort.IsZero() {
		return filter, false, nil
	}
	ids, err := s.roster.ListStudentIDs(ctx, filter.Cohort)
	if err != nil {
		return filter, false, err
	}
	if len(ids) == 0 {
		return filter, true, nil
	}
	filter.StudentIDs = ids
	return filter, false, nil
}

// ============================================================================
// Publication
// ============================================================================

// PublishResult is the outcome of publishing one result.
type PublishResult struct {
	Result       *shared.Result `json:"result"`
	Transitioned bool           `json:"transitioned"`
}

// Publish makes one result visible to its student. Publishing an already
// published result is a no-op that keeps the original published_at.
func (s *Service) Publish(ctx context.Context, id string) (*PublishResult, error) {
	if id == "" {
		return nil, shared.NewValidationError("result id is required")
	}

	res, transitioned, err := s.store.Publish(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	if transitioned {
		s.metrics.Published(1)
		s.logger.Info("result published",
			zap.String("result_id", res.ID),
			zap.String("student_id", res.StudentID),
			zap.Int32("semester", res.Semester))
	}
	return &PublishResult{Result: res, Transitioned: transitioned}, nil
}

// PublishBatch publishes every unpublished result matching filter and
// returns the number that transitioned. Already published results are
// neither counted nor modified.
func (s *Service) PublishBatch(ctx context.Context, filter shared.PublishFilter) (int64, error) {
	if err := s.checkScope(filter.Semester, filter.AcademicYear); err != nil {
		return 0, err
	}

	resolved, empty, err := s.resolveCohort(ctx, shared.ResultFilter{
		Semester:     filter.Semester,
		AcademicYear: filter.AcademicYear,
		Cohort:       filter.Cohort,
	})
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, nil
	}

	n, err := s.store.PublishMany(ctx, resolved, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.Published(n)
	s.logger.Info("batch published",
		zap.Int32("semester", filter.Semester),
		zap.String("academic_year", filter.AcademicYear),
		zap.String("stream", filter.Stream),
		zap.Int64("transitioned", n))
	return n, nil
}

// ============================================================================
// Student reads (published only)
// ============================================================================

// StudentResults returns the student's published results, optionally
// narrowed to one semester.
func (s *Service) StudentResults(ctx context.Context, studentID string, semester int32) ([]*shared.Result, error) {
	if studentID == "" {
		return nil, shared.NewValidationError("student id is required")
	}
	if semester != 0 {
		if err := s.validator.semester(semester); err != nil {
			return nil, err
		}
	}

	published := true
	return s.store.List(ctx, shared.ResultFilter{
		Semester:    semester,
		StudentID:   studentID,
		IsPublished: &published,
	})
}

// StudentResult returns one published result of the student. Unpublished
// results are reported as not found.
func (s *Service) StudentResult(ctx context.Context, key shared.ResultKey) (*shared.Result, error) {
	if key.StudentID == "" {
		return nil, shared.NewValidationError("student id is required")
	}
	res, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !res.IsPublished {
		return nil, shared.NewNotFoundError(msgResultNotFound)
	}
	return res, nil
}
