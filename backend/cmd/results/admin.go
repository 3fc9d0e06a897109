package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"college_portal/backend/internal/shared"
)

var (
	opTimeout    time.Duration
	semester     int32
	academicYear string
	stream       string
	yearLevel    int32
)

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create the results collection indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(shared.ValidateServiceConfig)
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
		defer cancel()
		if err := rt.store.EnsureIndexes(ctx); err != nil {
			return err
		}
		rt.logger.Info("indexes ensured", zap.String("collection", shared.CollectionResults))
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish every unpublished result of a semester",
	Long: `Publishes the results matching the semester and optional academic year
and cohort. Results that are already published are left untouched.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(shared.ValidateServiceConfig)
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
		defer cancel()

		n, err := rt.service.PublishBatch(ctx, shared.PublishFilter{
			Semester:     semester,
			AcademicYear: academicYear,
			Cohort:       shared.Cohort{Stream: stream, YearLevel: yearLevel},
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %d result(s)\n", n)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the semester summary report as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(shared.ValidateServiceConfig)
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
		defer cancel()

		report, err := rt.service.Report(ctx, shared.ResultFilter{
			Semester:     semester,
			AcademicYear: academicYear,
			Cohort:       shared.Cohort{Stream: stream, YearLevel: yearLevel},
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{ensureIndexesCmd, publishCmd, reportCmd} {
		cmd.Flags().DurationVar(&opTimeout, "timeout", 2*time.Minute, "Operation timeout")
	}

	for _, cmd := range []*cobra.Command{publishCmd, reportCmd} {
		cmd.Flags().Int32Var(&semester, "semester", 0, "Semester number (required)")
		cmd.Flags().StringVar(&academicYear, "academic-year", "", "Academic year, e.g. 2024-25")
		cmd.Flags().StringVar(&stream, "stream", "", "Restrict to a stream")
		cmd.Flags().Int32Var(&yearLevel, "year-level", 0, "Restrict to a year level")
		_ = cmd.MarkFlagRequired("semester")
	}
}
