package usecase

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
	"github.com/fairyhunter13/ai-resume-screener/pkg/textx"
)

// IngestService pulls resume attachments from the mailbox into the resume
// subfolder matching the mail subject.
type IngestService struct {
	Mail      domain.Mailbox
	ResumeDir string
}

// NewIngestService constructs an IngestService.
func NewIngestService(mail domain.Mailbox, resumeDir string) IngestService {
	return IngestService{Mail: mail, ResumeDir: resumeDir}
}

// IngestResult reports one mailbox fetch.
type IngestResult struct {
	Messages   int    `json:"messages"`
	Downloaded int    `json:"downloaded"`
	Folder     string `json:"folder"`
}

// Fetch searches for messages whose subject contains subject and saves all
// their attachments. The subject must follow the "application for" naming
// contract so the destination subfolder lines up with batch processing.
func (s IngestService) Fetch(ctx domain.Context, subject string, after, before time.Time) (IngestResult, error) {
	if s.Mail == nil {
		return IngestResult{}, fmt.Errorf("op=ingest.Fetch: mailbox not configured: %w", domain.ErrInvalidArgument)
	}
	subject = strings.TrimSpace(subject)
	if !strings.Contains(strings.ToLower(subject), "application for") {
		return IngestResult{}, fmt.Errorf("op=ingest.Fetch: subject must contain %q: %w", "application for", domain.ErrInvalidArgument)
	}

	ids, err := s.Mail.Search(ctx, subject, after, before)
	if err != nil {
		return IngestResult{}, fmt.Errorf("op=ingest.Fetch: %w", err)
	}
	folder := textx.NormalizeFolderName(subject)
	dest := filepath.Join(s.ResumeDir, folder)
	n, err := s.Mail.FetchAttachments(ctx, ids, dest)
	if err != nil {
		return IngestResult{}, fmt.Errorf("op=ingest.Fetch: %w", err)
	}
	return IngestResult{Messages: len(ids), Downloaded: n, Folder: folder}, nil
}
