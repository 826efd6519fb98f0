package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appai "github.com/bryanwahyu/techsupport-portal/internal/application/ai"
	appsessions "github.com/bryanwahyu/techsupport-portal/internal/application/sessions"
	domai "github.com/bryanwahyu/techsupport-portal/internal/domain/ai"
	domain "github.com/bryanwahyu/techsupport-portal/internal/domain/sessions"
	"github.com/bryanwahyu/techsupport-portal/internal/middleware"
)

// Uploaded bundles can reach a couple hundred MB; anything past this is
// buffered to disk by the multipart reader.
const maxUploadMemory = 64 << 20

type Router struct {
	sessionsSvc *appsessions.Service
	aiSvc       *appai.Service
	async       bool
}

func NewRouter(sessionsSvc *appsessions.Service, aiSvc *appai.Service, async bool) http.Handler {
	r := &Router{sessionsSvc: sessionsSvc, aiSvc: aiSvc, async: async}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Route("/v1/{user}", func(rt chi.Router) {
		rt.Post("/sessions", r.wrap(r.handleUpload))
		rt.Get("/sessions", r.wrap(r.handleList))
		rt.Get("/sessions/latest", r.wrap(r.handleLatest))
		rt.Get("/sessions/{id}", r.wrap(r.handleGet))
		rt.Get("/sessions/{id}/errors", r.wrap(r.handleErrors))
		rt.Get("/sessions/{id}/summary", r.wrap(r.handleSessionSummary))
		rt.Get("/sessions/{id}/reports/{analysis}", r.wrap(r.handleReport))
		rt.Get("/sessions/{id}/reports/{analysis}/download", r.wrap(r.handleReportDownload))
		rt.Post("/sessions/{id}/reports/{analysis}/email", r.wrap(r.handleReportEmail))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Post("/ai/summarize", r.wrap(r.handleAISummarize))
		rt.Get("/ai/summaries", r.wrap(r.handleAISummaryList))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			var be badRequestError
			if errors.As(err, &be) {
				http.Error(w, be.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

// owner resolves the portal user for the request. When auth is enabled the
// authenticated user must match the one in the URL.
func (r *Router) owner(req *http.Request) (string, error) {
	user := chi.URLParam(req, "user")
	if err := middleware.ValidateUser(user); err != nil {
		return "", badRequest("%v", err)
	}
	if auth := middleware.GetUserFromContext(req.Context()); auth != "" && auth != user {
		return "", badRequest("user mismatch")
	}
	return user, nil
}

// POST /v1/{user}/sessions
// multipart form: archive (file), case_number, analysis (repeated)
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	user, err := r.owner(req)
	if err != nil {
		return err
	}

	if err := req.ParseMultipartForm(maxUploadMemory); err != nil {
		return badRequest("parsing upload: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("archive")
	if err != nil {
		return badRequest("archive file is required")
	}
	defer file.Close()

	if err := middleware.ValidateArchiveName(header.Filename); err != nil {
		return badRequest("%v", err)
	}

	caseNumber := middleware.SanitizeString(req.FormValue("case_number"))
	if err := middleware.ValidateCaseNumber(caseNumber); err != nil {
		return badRequest("%v", err)
	}

	rawAnalyses := req.MultipartForm.Value["analysis"]
	if len(rawAnalyses) == 0 {
		return badRequest("at least one analysis is required")
	}
	var analyses []domain.AnalysisType
	for _, raw := range rawAnalyses {
		if err := middleware.ValidateAnalysisType(raw); err != nil {
			return badRequest("%v", err)
		}
		t, _ := domain.ParseAnalysisType(raw)
		analyses = append(analyses, t)
	}

	sess, err := r.sessionsSvc.CreateSession(req.Context(), appsessions.UploadCommand{
		Owner:      user,
		CaseNumber: caseNumber,
		FileName:   header.Filename,
		Archive:    file,
		Analyses:   analyses,
	})
	if err != nil {
		return err
	}

	middleware.IncrementSessions()

	if r.async {
		// jalan di background, langsung balikin respons ke client
		r.sessionsSvc.RunDetached(sess)
		resp := map[string]any{
			"status":    "queued",
			"id":        sess.ID,
			"owner":     sess.Owner,
			"case":      sess.CaseNumber,
			"message":   "analysis started in background",
			"queued_at": time.Now(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		return json.NewEncoder(w).Encode(resp)
	}

	if err := r.sessionsSvc.Run(req.Context(), sess); err != nil {
		middleware.IncrementSessionsFailed()
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(sess)
}

// GET /v1/{user}/sessions?page=&page_size=&status=&case_number=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	user, err := r.owner(req)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	filters := map[string]interface{}{}
	if v := req.URL.Query().Get("status"); v != "" {
		filters["status"] = v
	}
	if v := req.URL.Query().Get("case_number"); v != "" {
		filters["case_number"] = middleware.SanitizeString(v)
	}

	list, err := r.sessionsSvc.Paginate(req.Context(), user, page, middleware.ValidateLimit(size), filters)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{user}/sessions/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	user, err := r.owner(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.sessionsSvc.Latest(req.Context(), user, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{user}/sessions/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	user, err := r.owner(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return badRequest("%v", err)
	}

	sess, err := r.sessionsSvc.Get(req.Context(), user, domain.SessionID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(sess)
}

// GET /v1/{user}/sessions/{id}/errors?limit=
func (r *Router) handleErrors(w http.ResponseWriter, req *http.Request) error {
	user, err := r.owner(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return badRequest("%v", err)
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.sessionsSvc.ListErrors(req.Context(), user, domain.SessionID(id), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{user}/sessions/{id}/summary
// Newest stored AI digest for the session. 404 when none exists yet.
func (r *Router) handleSessionSummary(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		return badRequest("ai summaries are not configured")
	}
	user, err := r.owner(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return badRequest("%v", err)
	}

	sum, err := r.aiSvc.LatestForSession(req.Context(), user, id)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(sum)
}

func (r *Router) reportPath(req *http.Request) (string, string, error) {
	user, err := r.owner(req)
	if err != nil {
		return "", "", err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return "", "", badRequest("%v", err)
	}
	raw := chi.URLParam(req, "analysis")
	if err := middleware.ValidateAnalysisType(raw); err != nil {
		return "", "", badRequest("%v", err)
	}
	analysis, _ := domain.ParseAnalysisType(raw)

	path, err := r.sessionsSvc.ReportFile(req.Context(), user, domain.SessionID(id), analysis)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", badRequest("report not available")
		}
		return "", "", err
	}
	return path, string(analysis), nil
}

// GET /v1/{user}/sessions/{id}/reports/{analysis}
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	path, _, err := r.reportPath(req)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, req, path)
	return nil
}

// GET /v1/{user}/sessions/{id}/reports/{analysis}/download
func (r *Router) handleReportDownload(w http.ResponseWriter, req *http.Request) error {
	path, name, err := r.reportPath(req)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".html"))
	http.ServeFile(w, req, path)
	return nil
}

// POST /v1/{user}/sessions/{id}/reports/{analysis}/email
func (r *Router) handleReportEmail(w http.ResponseWriter, req *http.Request) error {
	user, err := r.owner(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		return badRequest("%v", err)
	}
	raw := chi.URLParam(req, "analysis")
	if err := middleware.ValidateAnalysisType(raw); err != nil {
		return badRequest("%v", err)
	}
	analysis, _ := domain.ParseAnalysisType(raw)

	if err := r.sessionsSvc.EmailReport(req.Context(), user, domain.SessionID(id), analysis); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
}

// GET /v1/{user}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	user, err := r.owner(req)
	if err != nil {
		return err
	}
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.sessionsSvc.Summary(req.Context(), user, middleware.ValidateDays(days))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}

// POST /v1/{user}/ai/summarize
// Body: {"session_id": "<id>", "analysis": "<ccr|chr|bucket|keyword>"}
func (r *Router) handleAISummarize(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		return badRequest("ai summaries are not configured")
	}
	user, err := r.owner(req)
	if err != nil {
		return err
	}
	var body struct {
		SessionID string `json:"session_id"`
		Analysis  string `json:"analysis"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("decoding body: %v", err)
	}
	if err := middleware.ValidateSessionID(body.SessionID); err != nil {
		return badRequest("%v", err)
	}
	if err := middleware.ValidateAnalysisType(body.Analysis); err != nil {
		return badRequest("%v", err)
	}
	analysis, _ := domain.ParseAnalysisType(body.Analysis)

	sess, err := r.sessionsSvc.Get(req.Context(), user, domain.SessionID(body.SessionID))
	if err != nil {
		return err
	}
	path, err := r.sessionsSvc.ReportFile(req.Context(), user, sess.ID, analysis)
	if err != nil {
		return badRequest("report not available for %s", body.Analysis)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}
	reportURL := path
	if out, ok := sess.Outcomes[analysis]; ok && out.MirrorURL != "" {
		reportURL = out.MirrorURL
	}

	sum, err := r.aiSvc.SummarizeAndStore(req.Context(), user, body.SessionID, body.Analysis, reportURL, string(content))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(sum)
}

// GET /v1/{user}/ai/summaries?page=&page_size=
func (r *Router) handleAISummaryList(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		return badRequest("ai summaries are not configured")
	}
	user, err := r.owner(req)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.aiSvc.ListSummaries(req.Context(), user, page, middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}
