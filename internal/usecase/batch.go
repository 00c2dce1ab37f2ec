package usecase

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fairyhunter13/ai-resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
	"github.com/fairyhunter13/ai-resume-screener/pkg/textx"
)

// BatchSummary aggregates one run over the job-description directory.
type BatchSummary struct {
	ProcessedJDs int `json:"processed_jds"`
	Stored       int `json:"stored"`
	Failed       int `json:"failed"`
	Skipped      int `json:"skipped"`
}

// BatchService walks the JD directory and screens every resume in each
// job's subfolder, strictly sequentially.
type BatchService struct {
	Screen    ScreenService
	Extractor domain.TextExtractor
	JDDir     string
	ResumeDir string
}

// NewBatchService constructs a BatchService.
func NewBatchService(screen ScreenService, ex domain.TextExtractor, jdDir, resumeDir string) BatchService {
	return BatchService{Screen: screen, Extractor: ex, JDDir: jdDir, ResumeDir: resumeDir}
}

// Run processes every job description that has a matching resume subfolder.
//
// A JD file is skipped entirely when its filename does not follow the
// "application for" contract, when no resume subfolder exists for it, or
// when its text cannot be extracted. Per-resume failures never abort the
// run.
func (s BatchService) Run(ctx domain.Context) (BatchSummary, error) {
	entries, err := os.ReadDir(s.JDDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("op=batch.Run: read jd dir: %w", err)
	}
	lg := observability.LoggerFromContext(ctx)

	var sum BatchSummary
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		jdPath := filepath.Join(s.JDDir, entry.Name())

		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		subfolder := filepath.Join(s.ResumeDir, textx.NormalizeFolderName(base))
		if _, err := os.Stat(subfolder); err != nil {
			continue
		}

		jobTitle := textx.JobTitleFromFilename(entry.Name())
		if jobTitle == textx.NotFound {
			lg.Warn("jd filename outside naming contract", slog.String("file", entry.Name()))
			continue
		}

		jobDescription, err := s.Extractor.ExtractPath(ctx, jdPath)
		if err != nil || jobDescription == "" {
			lg.Warn("jd extraction failed", slog.String("file", entry.Name()), slog.Any("error", err))
			continue
		}

		if err := s.runJD(ctx, subfolder, jobTitle, jobDescription, &sum); err != nil {
			return sum, err
		}
		sum.ProcessedJDs++
	}
	if sum.ProcessedJDs == 0 {
		return sum, fmt.Errorf("op=batch.Run: no usable job descriptions in %s: %w", s.JDDir, domain.ErrNotFound)
	}
	return sum, nil
}

func (s BatchService) runJD(ctx domain.Context, subfolder, jobTitle, jobDescription string, sum *BatchSummary) error {
	files, err := os.ReadDir(subfolder)
	if err != nil {
		return fmt.Errorf("op=batch.runJD: read resumes: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		res, err := s.Screen.ProcessResume(ctx, domain.CollectionBatch, filepath.Join(subfolder, f.Name()), jobTitle, jobDescription)
		if err != nil {
			return fmt.Errorf("op=batch.runJD: %w", err)
		}
		switch res.Outcome {
		case OutcomeStored:
			sum.Stored++
		case OutcomeFailed:
			sum.Failed++
		case OutcomeAlreadyProcessed, OutcomeDuplicate:
			sum.Skipped++
		}
	}
	return nil
}
