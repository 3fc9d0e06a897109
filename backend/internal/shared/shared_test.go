package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorGRPCStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{NewValidationError("bad"), codes.InvalidArgument},
		{NewNotFoundError(MsgStudentNotFound), codes.NotFound},
		{NewConflictError("dup"), codes.AlreadyExists},
		{NewStoreError("op", errors.New("socket closed")), codes.Unavailable},
		{NewStoreError("op", context.DeadlineExceeded), codes.DeadlineExceeded},
		{NewStoreError("op", context.Canceled), codes.Canceled},
		{&Error{Kind: "other", Message: "x"}, codes.Internal},
	}
	for _, tt := range tests {
		st, ok := status.FromError(tt.err)
		require.True(t, ok, tt.err.Error())
		assert.Equal(t, tt.want, st.Code(), tt.err.Error())
	}
}

func TestStoreErrorWrapping(t *testing.T) {
	assert.Nil(t, NewStoreError("op", nil))

	cause := errors.New("connection reset")
	err := NewStoreError("result upsert", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, KindStore))
	assert.Equal(t, "result upsert failed", Message(err))

	// Engine errors pass through unchanged.
	nf := NewNotFoundError("gone")
	assert.Same(t, nf, NewStoreError("op", nf))

	wrapped := fmt.Errorf("context: %w", NewValidationError("bad semester"))
	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.Equal(t, "bad semester", Message(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, "", Message(nil))
}

func TestResultClone(t *testing.T) {
	att := 80.0
	at := time.Now()
	orig := &Result{
		ID:           "r-1",
		StudentID:    "stu-1",
		Semester:     3,
		AcademicYear: "2024-25",
		Subjects:     []SubjectResult{{SubjectID: "A", AttendancePercentage: &att}},
		PublishedAt:  &at,
	}

	clone := orig.Clone()
	clone.Subjects[0].SubjectID = "B"
	*clone.Subjects[0].AttendancePercentage = 10
	*clone.PublishedAt = at.Add(time.Hour)

	assert.Equal(t, "A", orig.Subjects[0].SubjectID)
	assert.Equal(t, 80.0, *orig.Subjects[0].AttendancePercentage)
	assert.Equal(t, at, *orig.PublishedAt)
	assert.Nil(t, (*Result)(nil).Clone())
	assert.Equal(t, ResultKey{StudentID: "stu-1", Semester: 3, AcademicYear: "2024-25"}, orig.Key())
}

func TestLoadServiceConfig(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("INGEST_CONCURRENCY", "3")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://portal.example.edu, https://admin.example.edu")
	t.Setenv("GRADING_POLICY_FILE", "policy.yaml")

	cfg, err := LoadServiceConfig("results-service")
	require.NoError(t, err)

	assert.Equal(t, "results-service", cfg.ServiceName)
	assert.Equal(t, DefaultHTTPPort, cfg.HTTPPort)
	assert.Equal(t, "CollegePortal", cfg.MongoDB.Database)
	assert.Equal(t, 3, cfg.Ingest.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"https://portal.example.edu", "https://admin.example.edu"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "policy.yaml", cfg.Grading.PolicyFile)
	require.NoError(t, ValidateServiceConfig(cfg))

	// The server additionally needs a JWT secret.
	assert.Error(t, ValidateServerConfig(cfg))
	cfg.Security.JWTSecret = "s3cret"
	assert.NoError(t, ValidateServerConfig(cfg))

	cfg.Ingest.Concurrency = 0
	assert.Error(t, ValidateServiceConfig(cfg))
}

func TestLoadServiceConfigRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	_, err := LoadServiceConfig("results-service")
	assert.Error(t, err)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "12")
	t.Setenv("X_BAD_INT", "twelve")
	t.Setenv("X_BOOL", "false")
	t.Setenv("X_DUR", "5m")

	assert.Equal(t, 12, GetIntEnv("X_INT", 1))
	assert.Equal(t, 1, GetIntEnv("X_BAD_INT", 1))
	assert.False(t, GetBoolEnv("X_BOOL", true))
	assert.True(t, GetBoolEnv("X_MISSING", true))
	assert.Equal(t, 5*time.Minute, GetDurationEnv("X_DUR", time.Second))
	assert.Equal(t, "fallback", GetEnv("X_MISSING", "fallback"))
	assert.Equal(t, []string{"a"}, GetStringSliceEnv("X_MISSING", []string{"a"}))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&ServiceConfig{ServiceName: "results", Environment: "production", LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1)) // debug
	assert.True(t, logger.Core().Enabled(1))   // warn
}
