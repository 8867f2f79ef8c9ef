package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ethpandaops/jsbench/pkg/apperr"
	"github.com/ethpandaops/jsbench/pkg/revision"
	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    []apperr.Detail `json:"data"`
}

// handleRoot redirects to the test case listing.
func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.cfg.Server.BaseURL+"/tests.json", http.StatusSeeOther)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.WithError(err).Warn("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable,
			map[string]string{"status": "unavailable"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleListTests(w http.ResponseWriter, r *http.Request) {
	revs, err := s.svc.List(r.Context())
	if err != nil {
		s.writeError(w, r, 0, err)

		return
	}

	writeJSON(w, http.StatusOK, documents(revs))
}

// handleFindTest serves the latest revision of a slug, or the one named by
// the optional revision path parameter.
func (s *server) handleFindTest(w http.ResponseWriter, r *http.Request) {
	number, ok := s.revisionParam(w, r)
	if !ok {
		return
	}

	rev, err := s.svc.Find(r.Context(), chi.URLParam(r, "slug"), number)
	if err != nil {
		s.writeError(w, r, 0, err)

		return
	}

	writeJSON(w, http.StatusOK, rev.Document())
}

func (s *server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	revs, err := s.svc.Revisions(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, 0, err)

		return
	}

	writeJSON(w, http.StatusOK, documents(revs))
}

func (s *server) handleReportByBrowser(w http.ResponseWriter, r *http.Request) {
	number, ok := s.revisionParam(w, r)
	if !ok {
		return
	}

	report, err := s.svc.ReportByBrowser(r.Context(), chi.URLParam(r, "slug"), number)
	if err != nil {
		s.writeError(w, r, 0, err)

		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleSubmit stores a submission. On /test/{slug}.json the path slug names
// the test case being updated, which may be renamed by the body's slug.
func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	input, err := revision.Parse(body)
	if err != nil {
		s.writeError(w, r, 0, err)

		return
	}

	rev, err := s.svc.Submit(r.Context(), input, chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, 0, err)

		return
	}

	writeJSON(w, http.StatusOK, rev.Document())
}

func (s *server) handleListErrorLog(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.ListErrorLogEntries(r.Context())
	if err != nil {
		s.writeError(w, r, 0, err)

		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handleAddErrorLog(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		s.writeError(w, r, 0, invalidStructure())

		return
	}

	if err := s.svc.AddErrorLogEntry(r.Context(), payload); err != nil {
		s.writeError(w, r, 0, err)

		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (s *server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, 0, apperr.New(apperr.CodeNotFound, "Not found."))
}

func (s *server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed,
		apperr.New(apperr.CodeInvalidRequestBody, "Method not allowed."))
}

// revisionParam parses the optional revision number path parameter. Zero
// means the latest revision.
func (s *server) revisionParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "revision")
	if raw == "" {
		return 0, true
	}

	number, err := strconv.Atoi(raw)
	if err != nil || number < 1 {
		s.writeError(w, r, 0, apperr.New(apperr.CodeNotFound, "Not found."))

		return 0, false
	}

	return number, true
}

// readBody reads the request body, answering 413 when it exceeds the
// configured limit.
func (s *server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err == nil {
		return body, true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge,
			apperr.New(apperr.CodeInvalidRequestBody, "Invalid input.").
				WithDetails(apperr.Detail{
					Reason: "Request body too large.",
					Code:   apperr.CodeInvalidStructure,
				}))

		return nil, false
	}

	s.writeError(w, r, 0, invalidStructure())

	return nil, false
}

func invalidStructure() *apperr.Error {
	return apperr.New(apperr.CodeInvalidRequestBody, "Invalid input.").
		WithDetails(apperr.Detail{
			Reason: "Invalid structure.",
			Code:   apperr.CodeInvalidStructure,
		})
}

// documents serializes a list of revisions.
func documents(revs []*revision.Revision) []revision.Document {
	docs := make([]revision.Document, 0, len(revs))
	for _, rev := range revs {
		docs = append(docs, rev.Document())
	}

	return docs
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err *apperr.Error) int {
	if apperr.IsCode(err, apperr.CodeExistingSlug) {
		return http.StatusConflict
	}

	switch err.Code {
	case apperr.CodeInvalidRequestBody, apperr.CodeInvalidUpdate:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err in the error envelope. A zero status is derived
// from the error code. Errors outside the domain taxonomy are logged and
// reported as APPLICATION_ERROR.
func (s *server) writeError(
	w http.ResponseWriter, r *http.Request, status int, err error,
) {
	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) {
		s.log.WithError(err).
			WithField("path", r.URL.Path).
			WithField("request_id", requestIDFromContext(r.Context())).
			Error("Request failed")

		domainErr = apperr.New(apperr.CodeApplicationError, "An application error occurred.")
	}

	if status == 0 {
		status = statusFor(domainErr)
	}

	data := domainErr.Details
	if data == nil {
		data = make([]apperr.Detail, 0)
	}

	writeJSON(w, status, errorResponse{
		Error: errorPayload{
			Message: domainErr.Message,
			Code:    domainErr.Code,
			Data:    data,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}
