package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

// ResultFilter narrows the recent-records window. Zero values mean "no
// constraint". Filtering happens in memory over the fixed-size window, so
// the filters refine the dashboard view rather than search all history.
type ResultFilter struct {
	From     time.Time
	To       time.Time
	JobTitle string
	Status   domain.CandidateStatus
	TopN     int
}

// ResultMetrics summarizes a filtered record set.
type ResultMetrics struct {
	Total       int `json:"total"`
	Shortlisted int `json:"shortlisted"`
	Rejected    int `json:"rejected"`
}

// ResultService reads back stored analyses for the dashboard.
type ResultService struct {
	Repo  domain.AnalysisRepository
	Limit int
}

// NewResultService constructs a ResultService; limit caps the window of
// recent records fetched per query.
func NewResultService(repo domain.AnalysisRepository, limit int) ResultService {
	if limit <= 0 {
		limit = 20
	}
	return ResultService{Repo: repo, Limit: limit}
}

// List returns the filtered window of recent records, newest first, plus
// summary metrics over the filtered set.
func (s ResultService) List(ctx domain.Context, c domain.Collection, f ResultFilter) ([]domain.ResumeRecord, ResultMetrics, error) {
	recs, err := s.Repo.ListRecent(ctx, c, s.Limit)
	if err != nil {
		return nil, ResultMetrics{}, fmt.Errorf("op=result.List: %w", err)
	}

	filtered := make([]domain.ResumeRecord, 0, len(recs))
	for _, r := range recs {
		if !f.From.IsZero() && r.DateAdded.Before(truncateDay(f.From)) {
			continue
		}
		if !f.To.IsZero() && r.DateAdded.After(endOfDay(f.To)) {
			continue
		}
		if f.JobTitle != "" && !strings.Contains(strings.ToLower(r.JobTitle), strings.ToLower(f.JobTitle)) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		filtered = append(filtered, r)
	}

	if f.TopN > 0 {
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Score > filtered[j].Score })
		if len(filtered) > f.TopN {
			filtered = filtered[:f.TopN]
		}
	}

	m := ResultMetrics{Total: len(filtered)}
	for _, r := range filtered {
		switch r.Status {
		case domain.StatusShortlisted:
			m.Shortlisted++
		case domain.StatusRejected:
			m.Rejected++
		}
	}
	return filtered, m, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}
