package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-resume-screener/internal/adapter/export"
	"github.com/fairyhunter13/ai-resume-screener/internal/config"
	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
	"github.com/fairyhunter13/ai-resume-screener/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg      config.Config
	Batch    usecase.BatchService
	Quick    usecase.QuickService
	Results  usecase.ResultService
	Ingest   usecase.IngestService
	Admins   domain.AdminRepository
	Sessions *SessionManager
	DBCheck  func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, batch usecase.BatchService, quick usecase.QuickService, results usecase.ResultService, ingest usecase.IngestService, admins domain.AdminRepository, sessions *SessionManager, dbCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Batch: batch, Quick: quick, Results: results, Ingest: ingest, Admins: admins, Sessions: sessions, DBCheck: dbCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// allowedExt enforces an allowlist for uploads: .pdf, .doc, .docx, .txt
func allowedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".doc", ".docx", ".txt":
		return true
	}
	return false
}

func allowedMIMEFor(m, filename string) bool {
	m = strings.ToLower(m)
	if strings.HasSuffix(strings.ToLower(filename), ".txt") && strings.HasPrefix(m, "text/") {
		return true
	}
	if strings.HasPrefix(m, "text/plain") {
		return true
	}
	return m == "application/pdf" ||
		m == "application/msword" ||
		m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginHandler verifies the admin credential and opens a session.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		admin, err := s.Admins.Get(r.Context(), req.Username)
		if err != nil || !VerifyPassword(req.Password, admin.PasswordHash) {
			// Same response either way so usernames cannot be probed.
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: apiError{Code: "UNAUTHENTICATED", Message: "invalid credentials"}})
			return
		}
		session, err := s.Sessions.CreateSession(admin.Username)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		s.Sessions.SetSessionCookie(w, session)
		writeJSON(w, http.StatusOK, map[string]any{"username": admin.Username})
	}
}

// LogoutHandler drops the session cookie.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.Sessions.ClearSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ChangePasswordHandler rotates the stored admin hash.
func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sd, ok := SessionFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: apiError{Code: "UNAUTHENTICATED", Message: "login required"}})
			return
		}
		var req changePasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		admin, err := s.Admins.Get(r.Context(), sd.Username)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if !VerifyPassword(req.CurrentPassword, admin.PasswordHash) {
			writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: apiError{Code: "UNAUTHENTICATED", Message: "current password incorrect"}})
			return
		}
		hash, err := HashPassword(req.NewPassword, DefaultArgon2Params)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := s.Admins.UpdatePassword(r.Context(), sd.Username, hash); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProcessHandler runs one batch pass over the JD directory.
func (s *Server) ProcessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := s.Batch.Run(r.Context())
		if err != nil {
			writeError(w, r, err, sum)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

// QuickHandler screens one uploaded resume against pasted job text.
func (s *Server) QuickHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{Code: "PAYLOAD_TOO_LARGE", Message: "upload exceeds limit"}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: bad multipart form", domain.ErrInvalidArgument), nil)
			return
		}
		file, header, err := r.FormFile("resume")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume file required", domain.ErrInvalidArgument), nil)
			return
		}
		defer func() { _ = file.Close() }()

		if !allowedExt(header.Filename) {
			writeError(w, r, fmt.Errorf("%w: ext=%s", domain.ErrUnsupportedFormat, filepath.Ext(header.Filename)), nil)
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: read upload", domain.ErrInvalidArgument), nil)
			return
		}
		if mt := mimetype.Detect(data); !allowedMIMEFor(mt.String(), header.Filename) {
			writeError(w, r, fmt.Errorf("%w: mime=%s", domain.ErrUnsupportedFormat, mt.String()), nil)
			return
		}

		res, err := s.Quick.Analyze(r.Context(), header.Filename,
			data, r.FormValue("job_title"), r.FormValue("job_description"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		switch res.Outcome {
		case usecase.OutcomeStored:
			writeJSON(w, http.StatusCreated, map[string]any{"outcome": res.Outcome, "record": recordDTO(res.Record)})
		case usecase.OutcomeFailed:
			writeError(w, r, fmt.Errorf("%w: resume yielded no name", domain.ErrNoIdentifiableCandidate), nil)
		default:
			writeJSON(w, http.StatusOK, map[string]any{"outcome": res.Outcome})
		}
	}
}

type mailFetchRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
	After   string `json:"after" validate:"omitempty,datetime=2006-01-02"`
	Before  string `json:"before" validate:"omitempty,datetime=2006-01-02"`
}

// MailFetchHandler downloads resume attachments for one job subject.
func (s *Server) MailFetchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mailFetchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		after, before := parseDay(req.After), parseDay(req.Before)
		res, err := s.Ingest.Fetch(r.Context(), req.Subject, after, before)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ResultsHandler returns the filtered dashboard window plus metrics.
func (s *Server) ResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, f, err := resultQuery(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		recs, metrics, err := s.Results.List(r.Context(), c, f)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]map[string]any, 0, len(recs))
		for _, rec := range recs {
			out = append(out, recordDTO(rec))
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": out, "metrics": metrics})
	}
}

// ExportHandler streams the filtered window as an xlsx workbook.
func (s *Server) ExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, f, err := resultQuery(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		recs, _, err := s.Results.List(r.Context(), c, f)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		buf, err := export.Excel(recs)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		name := fmt.Sprintf("results_%s_%s.xlsx", c, time.Now().UTC().Format("20060102"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		_, _ = w.Write(buf.Bytes())
	}
}

// ResumeHandler serves a stored resume file referenced by a record.
func (s *Server) ResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("path")
		if raw == "" {
			writeError(w, r, fmt.Errorf("%w: path required", domain.ErrInvalidArgument), nil)
			return
		}
		clean := filepath.Clean(raw)
		// Only files under the resume root (quick uploads included) are served.
		if strings.Contains(clean, "..") ||
			!strings.HasPrefix(clean, filepath.Clean(s.Cfg.ResumeDir)+string(filepath.Separator)) {
			writeError(w, r, fmt.Errorf("%w: path outside resume storage", domain.ErrInvalidArgument), nil)
			return
		}
		if _, err := os.Stat(clean); err != nil {
			writeError(w, r, fmt.Errorf("%w: resume file no longer on disk; it may have been moved or deleted", domain.ErrNotFound), nil)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(clean)+`"`)
		http.ServeFile(w, r, clean)
	}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler reports readiness of hard dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type check struct {
			Name    string `json:"name"`
			OK      bool   `json:"ok"`
			Details string `json:"details,omitempty"`
		}
		checks := []check{}
		allOK := true
		if s.DBCheck != nil {
			c := check{Name: "db", OK: true}
			if err := s.DBCheck(r.Context()); err != nil {
				c.OK, c.Details = false, err.Error()
				allOK = false
			}
			checks = append(checks, c)
		}
		status := http.StatusOK
		if !allOK {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"ready": allOK, "checks": checks})
	}
}

func recordDTO(rec domain.ResumeRecord) map[string]any {
	return map[string]any{
		"id":             rec.ID,
		"name":           rec.Name,
		"email":          rec.Email,
		"mobile":         rec.Mobile,
		"strengths":      rec.Strengths,
		"gaps":           rec.Gaps,
		"recommendation": rec.Recommendation,
		"score":          rec.Score,
		"status":         rec.Status,
		"resume_path":    rec.ResumePath,
		"job_title":      rec.JobTitle,
		"date_added":     rec.DateAdded.Format("2006-01-02"),
	}
}

func resultQuery(r *http.Request) (domain.Collection, usecase.ResultFilter, error) {
	q := r.URL.Query()
	c := domain.Collection(q.Get("collection"))
	if c == "" {
		c = domain.CollectionBatch
	}
	if !c.Valid() {
		return "", usecase.ResultFilter{}, fmt.Errorf("%w: collection=%q", domain.ErrInvalidArgument, c)
	}
	f := usecase.ResultFilter{
		JobTitle: q.Get("job_title"),
	}
	switch status := q.Get("status"); status {
	case "":
	case string(domain.StatusShortlisted), string(domain.StatusRejected):
		f.Status = domain.CandidateStatus(status)
	default:
		return "", usecase.ResultFilter{}, fmt.Errorf("%w: status=%q", domain.ErrInvalidArgument, status)
	}
	for _, p := range []struct {
		key  string
		dest *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		if v := q.Get(p.key); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return "", usecase.ResultFilter{}, fmt.Errorf("%w: %s=%q", domain.ErrInvalidArgument, p.key, v)
			}
			*p.dest = t
		}
	}
	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return "", usecase.ResultFilter{}, fmt.Errorf("%w: top=%q", domain.ErrInvalidArgument, v)
		}
		f.TopN = n
	}
	return c, f, nil
}

func parseDay(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func decodeJSON(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		return fmt.Errorf("%w: content-type must be application/json", domain.ErrInvalidArgument)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", domain.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: malformed json", domain.ErrInvalidArgument)
	}
	return nil
}
