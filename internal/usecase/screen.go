// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/ai-resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
	"github.com/fairyhunter13/ai-resume-screener/internal/service/candidate"
	"github.com/fairyhunter13/ai-resume-screener/internal/service/report"
	"github.com/fairyhunter13/ai-resume-screener/pkg/textx"
)

// ScreenOutcome names what happened to one resume.
type ScreenOutcome string

const (
	// OutcomeStored means a new record was written.
	OutcomeStored ScreenOutcome = "stored"
	// OutcomeAlreadyProcessed means the (path, title) pair was seen before;
	// no model call was made.
	OutcomeAlreadyProcessed ScreenOutcome = "already_processed"
	// OutcomeDuplicate means the same candidate identity was stored earlier
	// the same day; the scoring work is discarded.
	OutcomeDuplicate ScreenOutcome = "duplicate"
	// OutcomeFailed means extraction produced no identifiable candidate.
	OutcomeFailed ScreenOutcome = "failed"
)

// ScreenResult is the outcome of one pipeline run plus the stored record
// when the outcome is OutcomeStored.
type ScreenResult struct {
	Outcome ScreenOutcome
	Record  domain.ResumeRecord
}

// ScreenService runs the resume-to-decision pipeline for a single file:
// idempotency guard, text extraction, field extraction, the identity gate,
// scoring, report parsing, the duplicate guard, and the final insert.
type ScreenService struct {
	Repo      domain.AnalysisRepository
	Extractor domain.TextExtractor
	Fields    *candidate.Extractor
	Scorer    domain.Scorer
	Reports   *report.Parser
	Mirror    domain.Mirror
}

// NewScreenService constructs a ScreenService with its dependencies.
func NewScreenService(repo domain.AnalysisRepository, ex domain.TextExtractor, fields *candidate.Extractor, scorer domain.Scorer, reports *report.Parser, mirror domain.Mirror) ScreenService {
	return ScreenService{Repo: repo, Extractor: ex, Fields: fields, Scorer: scorer, Reports: reports, Mirror: mirror}
}

// ProcessResume runs the pipeline for one resume file against one job.
//
// The two guards are independent and deliberate: AlreadyProcessed fires
// before any model call, IsDuplicateSubmission fires right before insert.
// A resume whose extracted name is the "Not found" sentinel is counted
// failed and never scored.
func (s ScreenService) ProcessResume(ctx domain.Context, c domain.Collection, resumePath, jobTitle, jobDescription string) (ScreenResult, error) {
	if !c.Valid() {
		return ScreenResult{}, fmt.Errorf("op=screen.ProcessResume: collection=%q: %w", c, domain.ErrInvalidArgument)
	}
	if resumePath == "" || jobTitle == "" {
		return ScreenResult{}, fmt.Errorf("op=screen.ProcessResume: path and title required: %w", domain.ErrInvalidArgument)
	}
	lg := observability.LoggerFromContext(ctx)

	seen, err := s.Repo.AlreadyProcessed(ctx, c, resumePath, jobTitle)
	if err != nil {
		return ScreenResult{}, fmt.Errorf("op=screen.ProcessResume: %w", err)
	}
	if seen {
		observability.ResumesSkippedTotal.WithLabelValues(string(c), "already_processed").Inc()
		return ScreenResult{Outcome: OutcomeAlreadyProcessed}, nil
	}

	text, err := s.Extractor.ExtractPath(ctx, resumePath)
	if err != nil {
		observability.ResumesFailedTotal.WithLabelValues(string(c)).Inc()
		lg.Warn("resume extraction failed", slog.String("path", resumePath), slog.Any("error", err))
		return ScreenResult{Outcome: OutcomeFailed}, nil
	}

	fields := s.Fields.Extract(text)
	if fields.Name == textx.NotFound {
		observability.ResumesFailedTotal.WithLabelValues(string(c)).Inc()
		lg.Warn("no identifiable candidate", slog.String("path", resumePath))
		return ScreenResult{Outcome: OutcomeFailed}, nil
	}

	raw := s.Scorer.Score(ctx, text, jobDescription)
	rep := s.Reports.Parse(raw)

	now := time.Now().UTC()
	dup, err := s.Repo.IsDuplicateSubmission(ctx, c, fields.Name, fields.Email, fields.Mobile, now)
	if err != nil {
		return ScreenResult{}, fmt.Errorf("op=screen.ProcessResume: %w", err)
	}
	if dup {
		observability.ResumesSkippedTotal.WithLabelValues(string(c), "duplicate").Inc()
		return ScreenResult{Outcome: OutcomeDuplicate}, nil
	}

	rec := domain.ResumeRecord{
		Name:           fields.Name,
		Email:          fields.Email,
		Mobile:         fields.Mobile,
		Strengths:      rep.Strengths,
		Gaps:           rep.Gaps,
		Recommendation: rep.Recommendation,
		Score:          rep.Score,
		Status:         domain.StatusForScore(rep.Score),
		ResumePath:     resumePath,
		JobTitle:       jobTitle,
		DateAdded:      now,
	}
	id, err := s.Repo.Insert(ctx, c, rec)
	if err != nil {
		return ScreenResult{}, fmt.Errorf("op=screen.ProcessResume: %w", err)
	}
	rec.ID = id
	observability.ResumesProcessedTotal.WithLabelValues(string(c)).Inc()
	observability.ObserveScore(rec.Score)

	if s.Mirror != nil {
		if err := s.Mirror.Push(ctx); err != nil {
			lg.Warn("mirror push failed after insert", slog.Any("error", err))
		}
	}
	return ScreenResult{Outcome: OutcomeStored, Record: rec}, nil
}
