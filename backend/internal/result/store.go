// Package result owns semester results: the keyed upsert path, bulk
// ingestion, publication and the read side used by staff and students.
package result

import (
	"context"
	"time"

	"college_portal/backend/internal/shared"
)

// Write is the complete derived state stored for one key. Aggregates are
// never written without the subjects they were computed from.
type Write struct {
	Subjects      []shared.SubjectResult
	TotalCredits  float64
	SGPA          float64
	Percentage    float64
	OverallStatus shared.ResultStatus
	At            time.Time
}

// Store persists results. Implementations must make Upsert atomic per
// ResultKey so that at most one document exists for each key.
type Store interface {
	// Upsert creates the result for key (unpublished, revision 1) or replaces
	// its subjects and aggregates. Publication state is left untouched.
	// created reports whether a new document was inserted.
	Upsert(ctx context.Context, key shared.ResultKey, w Write) (res *shared.Result, created bool, err error)

	Get(ctx context.Context, key shared.ResultKey) (*shared.Result, error)
	GetByID(ctx context.Context, id string) (*shared.Result, error)

	// List returns matching results ordered by student id then semester.
	List(ctx context.Context, filter shared.ResultFilter) ([]*shared.Result, error)

	// Publish marks one result published at the given time. An already
	// published result is returned unchanged with transitioned=false.
	Publish(ctx context.Context, id string, at time.Time) (res *shared.Result, transitioned bool, err error)

	// PublishMany publishes every unpublished result matching filter and
	// returns how many actually transitioned. filter.IsPublished is ignored.
	PublishMany(ctx context.Context, filter shared.ResultFilter, at time.Time) (int64, error)

	EnsureIndexes(ctx context.Context) error
}

const msgResultNotFound = "Result not found"
