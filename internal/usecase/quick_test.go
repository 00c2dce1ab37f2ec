package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
	"github.com/fairyhunter13/ai-resume-screener/internal/service/candidate"
	"github.com/fairyhunter13/ai-resume-screener/internal/service/report"
	"github.com/fairyhunter13/ai-resume-screener/internal/usecase"
)

type passthroughExtractor struct{}

func (passthroughExtractor) ExtractPath(_ domain.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func TestQuickAnalyzeStoresInQuickCollection(t *testing.T) {
	quickDir := filepath.Join(t.TempDir(), "quick")
	repo := newFakeRepo()
	sc := &fakeScorer{report: "Score: 8\nRecommendation: hire\nStrengths: s\nGaps: g"}
	screen := usecase.NewScreenService(repo, passthroughExtractor{}, candidate.NewExtractor(), sc, report.NewParser(), nil)
	svc := usecase.NewQuickService(screen, quickDir)

	content := []byte("Ali Khan applied.\nali@example.com\n03001234567")
	res, err := svc.Analyze(context.Background(), "cv.txt", content, "Data Scientist", "jd text")
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeStored, res.Outcome)
	assert.Equal(t, filepath.Join(quickDir, "cv.txt"), res.Record.ResumePath)
	assert.Len(t, repo.records[domain.CollectionQuick], 1)
	assert.Empty(t, repo.records[domain.CollectionBatch])
}

func TestQuickAnalyzeValidation(t *testing.T) {
	svc := usecase.NewQuickService(usecase.ScreenService{}, t.TempDir())
	_, err := svc.Analyze(context.Background(), "cv.txt", []byte("x"), " ", "jd")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.Analyze(context.Background(), "cv.txt", []byte("x"), "t", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.Analyze(context.Background(), "cv.txt", nil, "t", "jd")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestQuickAnalyzeNoNameNotStored(t *testing.T) {
	repo := newFakeRepo()
	sc := &fakeScorer{report: "Score: 8"}
	screen := usecase.NewScreenService(repo, passthroughExtractor{}, candidate.NewExtractor(), sc, report.NewParser(), nil)
	svc := usecase.NewQuickService(screen, filepath.Join(t.TempDir(), "quick"))

	res, err := svc.Analyze(context.Background(), "cv.txt", []byte("no name here"), "Data Scientist", "jd")
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeFailed, res.Outcome)
	assert.Empty(t, repo.records[domain.CollectionQuick])
}
