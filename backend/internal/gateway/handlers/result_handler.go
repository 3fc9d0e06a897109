package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"college_portal/backend/internal/gateway/util"
	"college_portal/backend/internal/result"
	"college_portal/backend/internal/shared"
)

// maxBodyBytes bounds submission payloads, bulk batches included.
const maxBodyBytes = 8 << 20

// ResultHandler exposes the result engine over HTTP.
type ResultHandler struct {
	Service *result.Service
	Timeout time.Duration
}

func (h *ResultHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.Timeout)
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// filterFromQuery reads the shared list / report query parameters.
func filterFromQuery(r *http.Request) (shared.ResultFilter, error) {
	q := r.URL.Query()
	filter := shared.ResultFilter{
		AcademicYear: q.Get("academic_year"),
		StudentID:    q.Get("student_id"),
	}
	filter.Stream = q.Get("stream")

	var err error
	if filter.Semester, err = util.QueryInt32(r, "semester"); err != nil {
		return filter, err
	}
	if filter.YearLevel, err = util.QueryInt32(r, "year_level"); err != nil {
		return filter, err
	}
	if filter.IsPublished, err = util.QueryBool(r, "is_published"); err != nil {
		return filter, err
	}
	return filter, nil
}

// ============================================================================
// Staff
// ============================================================================

// SubmitResult handles POST /results
// Creates or replaces one student's semester result.
func (h *ResultHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var req shared.ResultSubmission
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	out, err := h.Service.Submit(ctx, req)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	code := http.StatusOK
	if out.Created {
		code = http.StatusCreated
	}
	util.WriteJSON(w, code, out)
}

// BulkSubmit handles POST /results/bulk
// Rows are applied independently; per-row failures are reported, not fatal.
func (h *ResultHandler) BulkSubmit(w http.ResponseWriter, r *http.Request) {
	var req shared.BulkSubmission
	if !decode(w, r, &req) {
		return
	}

	// A started batch always completes, so no request timeout here.
	out, err := h.Service.BulkSubmit(r.Context(), req)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, out)
}

// ListResults handles GET /results
// Query Params: semester (required), academic_year, stream, year_level,
// is_published, student_id
func (h *ResultHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	results, err := h.Service.List(ctx, filter)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, results)
}

// GetReport handles GET /results/report
func (h *ResultHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		util.HandleError(w, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	report, err := h.Service.Report(ctx, filter)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, report)
}

// GetResult handles GET /results/{id}
func (h *ResultHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.Service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, res)
}

// PublishResult handles POST /results/{id}/publish
func (h *ResultHandler) PublishResult(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	out, err := h.Service.Publish(ctx, chi.URLParam(r, "id"))
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, out)
}

// PublishBatch handles POST /results/publish
// Body: {"semester": 3, "academic_year": "2024-25", "stream": "...", "year_level": 2}
func (h *ResultHandler) PublishBatch(w http.ResponseWriter, r *http.Request) {
	var req shared.PublishFilter
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	n, err := h.Service.PublishBatch(ctx, req)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]int64{"transitioned_count": n})
}

// ============================================================================
// Student
// ============================================================================

// GetMyResults handles GET /me/results
// Query Params: semester (optional). Only published results are returned.
func (h *ResultHandler) GetMyResults(w http.ResponseWriter, r *http.Request) {
	user := util.UserFromContext(r.Context())

	semester, err := util.QueryInt32(r, "semester")
	if err != nil {
		util.HandleError(w, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	results, err := h.Service.StudentResults(ctx, user.UserID, semester)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, results)
}

// GetMyResult handles GET /me/results/{academic_year}/{semester}
func (h *ResultHandler) GetMyResult(w http.ResponseWriter, r *http.Request) {
	user := util.UserFromContext(r.Context())

	semester, err := strconv.ParseInt(chi.URLParam(r, "semester"), 10, 32)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "semester must be an integer")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.Service.StudentResult(ctx, shared.ResultKey{
		StudentID:    user.UserID,
		Semester:     int32(semester),
		AcademicYear: chi.URLParam(r, "academic_year"),
	})
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, res)
}

// GetMyTranscript handles GET /me/transcript
func (h *ResultHandler) GetMyTranscript(w http.ResponseWriter, r *http.Request) {
	user := util.UserFromContext(r.Context())

	ctx, cancel := h.requestContext(r)
	defer cancel()

	transcript, err := h.Service.Transcript(ctx, user.UserID)
	if err != nil {
		util.HandleError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, transcript)
}
