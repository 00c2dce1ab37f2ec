package httpserver

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

// repoStub is an in-memory AnalysisRepository.
type repoStub struct {
	mu      sync.Mutex
	nextID  int64
	records map[domain.Collection][]domain.ResumeRecord
	listErr error
}

func newRepoStub() *repoStub {
	return &repoStub{records: map[domain.Collection][]domain.ResumeRecord{}}
}

func (r *repoStub) Insert(_ domain.Context, c domain.Collection, rec domain.ResumeRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	r.records[c] = append(r.records[c], rec)
	return rec.ID, nil
}

func (r *repoStub) AlreadyProcessed(_ domain.Context, c domain.Collection, resumePath, jobTitle string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records[c] {
		if rec.ResumePath == resumePath && rec.JobTitle == jobTitle {
			return true, nil
		}
	}
	return false, nil
}

func (r *repoStub) IsDuplicateSubmission(_ domain.Context, c domain.Collection, name, email, mobile string, day time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records[c] {
		if rec.Name == name && rec.Email == email && rec.Mobile == mobile &&
			rec.DateAdded.Format("2006-01-02") == day.Format("2006-01-02") {
			return true, nil
		}
	}
	return false, nil
}

func (r *repoStub) ListRecent(_ domain.Context, c domain.Collection, limit int) ([]domain.ResumeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	recs := r.records[c]
	out := make([]domain.ResumeRecord, 0, limit)
	for i := len(recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}

// adminStub is an in-memory AdminRepository.
type adminStub struct {
	mu     sync.Mutex
	admins map[string]domain.Admin
}

func newAdminStub() *adminStub { return &adminStub{admins: map[string]domain.Admin{}} }

func (a *adminStub) Get(_ domain.Context, username string) (domain.Admin, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ad, ok := a.admins[username]
	if !ok {
		return domain.Admin{}, fmt.Errorf("op=adminStub.Get: %w", domain.ErrNotFound)
	}
	return ad, nil
}

func (a *adminStub) EnsureDefault(_ domain.Context, ad domain.Admin) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.admins[ad.Username]; !ok {
		a.admins[ad.Username] = ad
	}
	return nil
}

func (a *adminStub) UpdatePassword(_ domain.Context, username, passwordHash string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	ad, ok := a.admins[username]
	if !ok {
		return fmt.Errorf("op=adminStub.UpdatePassword: %w", domain.ErrNotFound)
	}
	ad.PasswordHash = passwordHash
	a.admins[username] = ad
	return nil
}

// fileExtractor reads the file verbatim; handler tests upload plain text.
type fileExtractor struct{}

func (fileExtractor) ExtractPath(_ domain.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("op=fileExtractor.ExtractPath: %w", domain.ErrExtractionFailed)
	}
	return string(b), nil
}

// scorerStub returns a fixed well-formed report.
type scorerStub struct {
	report string
}

func (s scorerStub) Score(domain.Context, string, string) string {
	if s.report == "" {
		return "Score: 7\nRecommendation: Strong fit for the role\nStrengths: Solid Go background\nGaps: No cloud exposure"
	}
	return s.report
}

// mailStub returns canned message ids and pretends to download attachments.
type mailStub struct {
	ids       []string
	searchErr error
}

func (m mailStub) Search(_ domain.Context, _ string, _, _ time.Time) ([]string, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.ids, nil
}

func (m mailStub) FetchAttachments(_ domain.Context, messageIDs []string, _ string) (int, error) {
	return len(messageIDs), nil
}
