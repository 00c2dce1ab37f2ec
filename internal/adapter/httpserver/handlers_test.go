package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-resume-screener/internal/config"
	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
	"github.com/fairyhunter13/ai-resume-screener/internal/service/candidate"
	"github.com/fairyhunter13/ai-resume-screener/internal/service/report"
	"github.com/fairyhunter13/ai-resume-screener/internal/usecase"
)

const sampleResume = "Ali Khan is a data scientist based in Lahore.\n" +
	"Email: ali.khan@example.com\n" +
	"Phone: 03001234567\n"

type testEnv struct {
	srv    *Server
	repo   *repoStub
	admins *adminStub
	cfg    config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	resumeDir := filepath.Join(t.TempDir(), "Resumes")
	require.NoError(t, os.MkdirAll(resumeDir, 0o755))

	cfg := config.Config{
		AppEnv:             "dev",
		JDDir:              filepath.Join(filepath.Dir(resumeDir), "JDs"),
		ResumeDir:          resumeDir,
		AdminUsername:      "admin",
		AdminPassword:      "initial-pass",
		AdminSessionSecret: "unit-secret",
		MaxUploadMB:        1,
		DashboardLimit:     20,
	}

	repo := newRepoStub()
	admins := newAdminStub()
	require.NoError(t, SeedAdmin(context.Background(), cfg, admins))

	parser, err := report.NewParserFromFile("")
	require.NoError(t, err)

	screen := usecase.NewScreenService(repo, fileExtractor{}, candidate.NewExtractor(), scorerStub{}, parser, nil)
	batch := usecase.NewBatchService(screen, fileExtractor{}, cfg.JDDir, cfg.ResumeDir)
	quick := usecase.NewQuickService(screen, filepath.Join(cfg.ResumeDir, "quick_uploads"))
	results := usecase.NewResultService(repo, cfg.DashboardLimit)
	ingest := usecase.NewIngestService(mailStub{ids: []string{"m1", "m2"}}, cfg.ResumeDir)

	srv := NewServer(cfg, batch, quick, results, ingest, admins, NewSessionManager(cfg), nil)
	return &testEnv{srv: srv, repo: repo, admins: admins, cfg: cfg}
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestLoginHandler(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.LoginHandler()

	rr := postJSON(t, h, "/admin/login", map[string]string{"username": "admin", "password": "initial-pass"})
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)

	rr = postJSON(t, h, "/admin/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	wrongPass := rr.Body.String()

	// Unknown username yields the same response as a wrong password.
	rr = postJSON(t, h, "/admin/login", map[string]string{"username": "ghost", "password": "initial-pass"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, wrongPass, rr.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	h(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, h, "/admin/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogoutHandlerClearsCookie(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()
	env.srv.LogoutHandler()(rr, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestChangePasswordHandler(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.ChangePasswordHandler()

	withSession := func(body any) *httptest.ResponseRecorder {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/admin/password", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		ctx := context.WithValue(req.Context(), sessionKey{}, &SessionData{Username: "admin"})
		rr := httptest.NewRecorder()
		h(rr, req.WithContext(ctx))
		return rr
	}

	// No session on the context at all.
	rr := postJSON(t, h, "/admin/password", map[string]string{"current_password": "initial-pass", "new_password": "brand-new-pass"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = withSession(map[string]string{"current_password": "wrong", "new_password": "brand-new-pass"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = withSession(map[string]string{"current_password": "initial-pass", "new_password": "short"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = withSession(map[string]string{"current_password": "initial-pass", "new_password": "brand-new-pass"})
	require.Equal(t, http.StatusNoContent, rr.Code)

	stored, err := env.admins.Get(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, VerifyPassword("brand-new-pass", stored.PasswordHash))
	assert.False(t, VerifyPassword("initial-pass", stored.PasswordHash))
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("resume", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/quick", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func quickFields() map[string]string {
	return map[string]string{
		"job_title":       "Data Scientist",
		"job_description": "Builds models and pipelines.",
	}
}

func TestQuickHandlerStoresRecord(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.QuickHandler()

	rr := httptest.NewRecorder()
	h(rr, multipartUpload(t, "cv.txt", []byte(sampleResume), quickFields()))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, "stored", body["outcome"])
	rec, ok := body["record"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ali Khan", rec["name"])
	assert.Equal(t, "ali.khan@example.com", rec["email"])
	assert.Equal(t, "03001234567", rec["mobile"])
	assert.Equal(t, "Shortlisted", rec["status"])
	assert.InDelta(t, 7.0, rec["score"], 0.001)

	// The saved path sits under the resume root so it can be served later.
	path, _ := rec["resume_path"].(string)
	assert.True(t, strings.HasPrefix(path, env.cfg.ResumeDir))

	require.Len(t, env.repo.records[domain.CollectionQuick], 1)
	assert.Empty(t, env.repo.records[domain.CollectionBatch])
}

func TestQuickHandlerRepeatUploadSkipped(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.QuickHandler()

	rr := httptest.NewRecorder()
	h(rr, multipartUpload(t, "cv.txt", []byte(sampleResume), quickFields()))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h(rr, multipartUpload(t, "cv.txt", []byte(sampleResume), quickFields()))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "already_processed", decodeBody(t, rr)["outcome"])
	require.Len(t, env.repo.records[domain.CollectionQuick], 1)
}

func TestQuickHandlerNoIdentifiableCandidate(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()
	env.srv.QuickHandler()(rr, multipartUpload(t, "cv.txt", []byte("lowercase text only, no capitalized name"), quickFields()))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decodeBody(t, rr)
	errObj, _ := body["error"].(map[string]any)
	assert.Equal(t, "NO_IDENTIFIABLE_CANDIDATE", errObj["code"])
	assert.Empty(t, env.repo.records[domain.CollectionQuick])
}

func TestQuickHandlerRejectsBadUploads(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.QuickHandler()

	// Not multipart at all.
	req := httptest.NewRequest(http.MethodPost, "/v1/quick", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Disallowed extension.
	rr = httptest.NewRecorder()
	h(rr, multipartUpload(t, "cv.exe", []byte(sampleResume), quickFields()))
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)

	// Binary payload wearing a .txt name.
	rr = httptest.NewRecorder()
	h(rr, multipartUpload(t, "cv.docx", []byte{0x7f, 0x45, 0x4c, 0x46, 0x02, 0x01}, quickFields()))
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)

	// Missing job fields.
	rr = httptest.NewRecorder()
	h(rr, multipartUpload(t, "cv.txt", []byte(sampleResume), map[string]string{"job_title": "Data Scientist"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Over the 1 MB test limit.
	rr = httptest.NewRecorder()
	h(rr, multipartUpload(t, "cv.txt", bytes.Repeat([]byte("a"), 2*1024*1024), quickFields()))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestProcessHandler(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.ProcessHandler()

	// Empty JD dir: nothing usable to process.
	require.NoError(t, os.MkdirAll(env.cfg.JDDir, 0o755))
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/v1/process", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	jdFile := filepath.Join(env.cfg.JDDir, "Application for Data Scientist.txt")
	require.NoError(t, os.WriteFile(jdFile, []byte("Builds models."), 0o644))
	sub := filepath.Join(env.cfg.ResumeDir, "application_for_data_scientist")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "ali.txt"), []byte(sampleResume), 0o644))

	rr = httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/v1/process", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var sum usecase.BatchSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.ProcessedJDs)
	assert.Equal(t, 1, sum.Stored)

	// A second pass skips everything already stored.
	rr = httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/v1/process", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sum))
	assert.Equal(t, 0, sum.Stored)
	assert.Equal(t, 1, sum.Skipped)
}

func TestMailFetchHandler(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.MailFetchHandler()

	rr := postJSON(t, h, "/v1/mail/fetch", map[string]string{"subject": "Application for Data Scientist"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res usecase.IngestResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Messages)
	assert.Equal(t, 2, res.Downloaded)
	assert.Equal(t, "application_for_data_scientist", res.Folder)

	rr = postJSON(t, h, "/v1/mail/fetch", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, h, "/v1/mail/fetch", map[string]string{"subject": "Application for X", "after": "31-12-2024"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Subject outside the naming contract is rejected by the usecase.
	rr = postJSON(t, h, "/v1/mail/fetch", map[string]string{"subject": "Weekly newsletter"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func seedRecords(t *testing.T, env *testEnv) {
	t.Helper()
	for i, rec := range []domain.ResumeRecord{
		{Name: "Ali Khan", Email: "ali@example.com", Mobile: "03001234567", Score: 7.5, JobTitle: "Data Scientist"},
		{Name: "Sara Ahmed", Email: "sara@example.com", Mobile: "03007654321", Score: 3.0, JobTitle: "Data Scientist"},
		{Name: "Omar Farooq", Email: "omar@example.com", Mobile: "03009998877", Score: 9.0, JobTitle: "Backend Engineer"},
	} {
		rec.Status = domain.StatusForScore(rec.Score)
		rec.ResumePath = fmt.Sprintf("%s/cv_%d.pdf", env.cfg.ResumeDir, i)
		rec.DateAdded = mustDay(t, "2026-08-30")
		_, err := env.repo.Insert(context.Background(), domain.CollectionBatch, rec)
		require.NoError(t, err)
	}
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	day, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return day
}

func TestResultsHandler(t *testing.T) {
	env := newTestEnv(t)
	seedRecords(t, env)
	h := env.srv.ResultsHandler()

	get := func(query string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h(rr, httptest.NewRequest(http.MethodGet, "/v1/results"+query, nil))
		return rr
	}

	rr := get("")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	records, _ := body["records"].([]any)
	assert.Len(t, records, 3)
	metrics, _ := body["metrics"].(map[string]any)
	assert.InDelta(t, 2, metrics["shortlisted"], 0.001)
	assert.InDelta(t, 1, metrics["rejected"], 0.001)

	rr = get("?status=Shortlisted&job_title=data")
	require.Equal(t, http.StatusOK, rr.Code)
	records, _ = decodeBody(t, rr)["records"].([]any)
	assert.Len(t, records, 1)

	rr = get("?top=1")
	require.Equal(t, http.StatusOK, rr.Code)
	records, _ = decodeBody(t, rr)["records"].([]any)
	require.Len(t, records, 1)
	first, _ := records[0].(map[string]any)
	assert.Equal(t, "Omar Farooq", first["name"])

	assert.Equal(t, http.StatusBadRequest, get("?collection=archive").Code)
	assert.Equal(t, http.StatusBadRequest, get("?status=Maybe").Code)
	assert.Equal(t, http.StatusBadRequest, get("?from=yesterday").Code)
	assert.Equal(t, http.StatusBadRequest, get("?top=-1").Code)

	rr = get("?collection=quick")
	require.Equal(t, http.StatusOK, rr.Code)
	records, _ = decodeBody(t, rr)["records"].([]any)
	assert.Empty(t, records)
}

func TestExportHandler(t *testing.T) {
	env := newTestEnv(t)
	seedRecords(t, env)
	rr := httptest.NewRecorder()
	env.srv.ExportHandler()(rr, httptest.NewRequest(http.MethodGet, "/v1/results/export", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "results_batch_")
	assert.NotZero(t, rr.Body.Len())
}

func TestResumeHandler(t *testing.T) {
	env := newTestEnv(t)
	h := env.srv.ResumeHandler()

	sub := filepath.Join(env.cfg.ResumeDir, "application_for_data_scientist")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	stored := filepath.Join(sub, "cv.txt")
	require.NoError(t, os.WriteFile(stored, []byte(sampleResume), 0o644))

	get := func(path string) *httptest.ResponseRecorder {
		q := url.Values{"path": {path}}
		rr := httptest.NewRecorder()
		h(rr, httptest.NewRequest(http.MethodGet, "/v1/resume?"+q.Encode(), nil))
		return rr
	}

	rr := get(stored)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="cv.txt"`)
	assert.Equal(t, sampleResume, rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, get("").Code)
	assert.Equal(t, http.StatusBadRequest, get("../etc/passwd").Code)
	assert.Equal(t, http.StatusBadRequest, get(env.cfg.ResumeDir+"/../secrets.txt").Code)
	assert.Equal(t, http.StatusBadRequest, get("/etc/passwd").Code)

	rr = get(filepath.Join(sub, "gone.txt"))
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "no longer on disk")
}

func TestHealthzHandler(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()
	env.srv.HealthzHandler()(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReadyzHandler(t *testing.T) {
	env := newTestEnv(t)

	env.srv.DBCheck = func(context.Context) error { return nil }
	rr := httptest.NewRecorder()
	env.srv.ReadyzHandler()(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	env.srv.DBCheck = func(context.Context) error { return fmt.Errorf("connection refused") }
	rr = httptest.NewRecorder()
	env.srv.ReadyzHandler()(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")
}
