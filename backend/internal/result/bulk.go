package result

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"college_portal/backend/internal/metrics"
	"college_portal/backend/internal/shared"
)

// RowError reports why one bulk row was not applied.
type RowError struct {
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
}

// BulkResult summarizes a bulk submission. Errors follow input row order.
type BulkResult struct {
	ProcessedCount int        `json:"processed_count"`
	Errors         []RowError `json:"errors"`
}

// BulkSubmit applies every row of the batch through the single-result upsert
// path. A failing row is recorded and never stops the others. Rows for
// different students run concurrently; rows repeating a student run in input
// order so the last one wins. Once started, a batch runs to completion even
// if ctx is cancelled.
func (s *Service) BulkSubmit(ctx context.Context, batch shared.BulkSubmission) (*BulkResult, error) {
	if err := s.validator.Batch(&batch); err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	outcomes := make([]error, len(batch.Rows))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, rows := range groupByStudent(batch.Rows) {
		rows := rows
		g.Go(func() error {
			for _, i := range rows {
				outcomes[i] = s.applyRow(ctx, batch, batch.Rows[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	out := &BulkResult{Errors: []RowError{}}
	for i, err := range outcomes {
		if err == nil {
			out.ProcessedCount++
			continue
		}
		out.Errors = append(out.Errors, RowError{
			StudentID: batch.Rows[i].StudentID,
			Error:     shared.Message(err),
		})
	}

	s.metrics.BulkRows(out.ProcessedCount, len(out.Errors))
	s.logger.Info("bulk submission applied",
		zap.Int32("semester", batch.Semester),
		zap.String("academic_year", batch.AcademicYear),
		zap.Int("rows", len(batch.Rows)),
		zap.Int("processed", out.ProcessedCount),
		zap.Int("failed", len(out.Errors)))
	return out, nil
}

func (s *Service) applyRow(ctx context.Context, batch shared.BulkSubmission, row shared.BulkRow) error {
	sub := shared.ResultSubmission{
		StudentID:    row.StudentID,
		Semester:     batch.Semester,
		AcademicYear: batch.AcademicYear,
		Subjects:     row.Subjects,
	}
	if err := s.validator.Submission(&sub); err != nil {
		s.metrics.Upsert(metrics.OutcomeFailed)
		return err
	}
	_, err := s.upsert(ctx, sub)
	return err
}

// groupByStudent returns row indexes grouped by student id, groups ordered
// by first appearance and indexes in input order.
func groupByStudent(rows []shared.BulkRow) [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, row := range rows {
		g, ok := pos[row.StudentID]
		if !ok {
			g = len(groups)
			pos[row.StudentID] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
