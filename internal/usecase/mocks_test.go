package usecase_test

import (
	"time"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

// fakeRepo is an in-memory AnalysisRepository good enough for pipeline tests.
type fakeRepo struct {
	records   map[domain.Collection][]domain.ResumeRecord
	insertErr error
	checkErr  error
	nextID    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[domain.Collection][]domain.ResumeRecord{}}
}

func (r *fakeRepo) Insert(_ domain.Context, c domain.Collection, rec domain.ResumeRecord) (int64, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.nextID++
	rec.ID = r.nextID
	r.records[c] = append(r.records[c], rec)
	return rec.ID, nil
}

func (r *fakeRepo) AlreadyProcessed(_ domain.Context, c domain.Collection, resumePath, jobTitle string) (bool, error) {
	if r.checkErr != nil {
		return false, r.checkErr
	}
	for _, rec := range r.records[c] {
		if rec.ResumePath == resumePath && rec.JobTitle == jobTitle {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) IsDuplicateSubmission(_ domain.Context, c domain.Collection, name, email, mobile string, day time.Time) (bool, error) {
	if r.checkErr != nil {
		return false, r.checkErr
	}
	for _, rec := range r.records[c] {
		if rec.Name == name && rec.Email == email && rec.Mobile == mobile &&
			rec.DateAdded.Format("2006-01-02") == day.Format("2006-01-02") {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListRecent(_ domain.Context, c domain.Collection, limit int) ([]domain.ResumeRecord, error) {
	recs := r.records[c]
	out := make([]domain.ResumeRecord, 0, limit)
	for i := len(recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}

// fakeExtractor maps paths to canned text.
type fakeExtractor struct {
	texts map[string]string
	err   error
}

func (e *fakeExtractor) ExtractPath(_ domain.Context, path string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	if t, ok := e.texts[path]; ok {
		return t, nil
	}
	return "", domain.ErrExtractionFailed
}

// fakeScorer returns a fixed report and records inputs.
type fakeScorer struct {
	report string
	calls  int
	lastJD string
}

func (s *fakeScorer) Score(_ domain.Context, _, jobDescription string) string {
	s.calls++
	s.lastJD = jobDescription
	return s.report
}

// fakeMirror records pushes.
type fakeMirror struct {
	pushes int
	err    error
}

func (m *fakeMirror) Push(domain.Context) error {
	m.pushes++
	return m.err
}

// fakeMailbox returns canned message IDs and a fixed download count.
type fakeMailbox struct {
	ids       []string
	saved     int
	searchErr error
	lastQuery string
	lastDest  string
}

func (m *fakeMailbox) Search(_ domain.Context, subjectContains string, _, _ time.Time) ([]string, error) {
	m.lastQuery = subjectContains
	return m.ids, m.searchErr
}

func (m *fakeMailbox) FetchAttachments(_ domain.Context, _ []string, destDir string) (int, error) {
	m.lastDest = destDir
	return m.saved, nil
}
