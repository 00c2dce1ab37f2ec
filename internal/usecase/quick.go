package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

// QuickService screens a single uploaded resume against pasted job text.
// Results land in the quick collection, independent of batch records.
type QuickService struct {
	Screen   ScreenService
	QuickDir string
}

// NewQuickService constructs a QuickService.
func NewQuickService(screen ScreenService, quickDir string) QuickService {
	return QuickService{Screen: screen, QuickDir: quickDir}
}

// Analyze writes the uploaded bytes under the quick uploads directory and
// runs the shared pipeline on the saved file.
func (s QuickService) Analyze(ctx domain.Context, filename string, content []byte, jobTitle, jobDescription string) (ScreenResult, error) {
	if strings.TrimSpace(jobTitle) == "" || strings.TrimSpace(jobDescription) == "" {
		return ScreenResult{}, fmt.Errorf("op=quick.Analyze: job title and description required: %w", domain.ErrInvalidArgument)
	}
	if len(content) == 0 {
		return ScreenResult{}, fmt.Errorf("op=quick.Analyze: empty file: %w", domain.ErrInvalidArgument)
	}
	if err := os.MkdirAll(s.QuickDir, 0o755); err != nil {
		return ScreenResult{}, fmt.Errorf("op=quick.Analyze: mkdir: %w", err)
	}
	dest := filepath.Join(s.QuickDir, filepath.Base(filename))
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		return ScreenResult{}, fmt.Errorf("op=quick.Analyze: save upload: %w", err)
	}
	return s.Screen.ProcessResume(ctx, domain.CollectionQuick, dest, strings.TrimSpace(jobTitle), jobDescription)
}
