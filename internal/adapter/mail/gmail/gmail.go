// Package gmail implements the mailbox port against the Gmail API.
//
// OAuth material lives in two local files: the client credentials and a
// cached user token. There is no interactive flow here; the token file must
// be provisioned out of band.
package gmail

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/fairyhunter13/ai-resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/ai-resume-screener/internal/config"
	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

const gmailUser = "me"

// Mailbox implements domain.Mailbox using a Gmail service client.
type Mailbox struct {
	svc *gmailapi.Service
}

// New builds a Mailbox from the configured credential and token files.
func New(ctx domain.Context, cfg config.Config) (*Mailbox, error) {
	raw, err := os.ReadFile(cfg.GmailCredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("op=gmail.New: read credentials: %w", err)
	}
	oc, err := google.ConfigFromJSON(raw, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("op=gmail.New: parse credentials: %w", err)
	}
	tok, err := tokenFromFile(cfg.GmailTokenPath)
	if err != nil {
		return nil, fmt.Errorf("op=gmail.New: load token: %w", err)
	}
	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(oc.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("op=gmail.New: build service: %w", err)
	}
	return &Mailbox{svc: svc}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// Search returns the IDs of messages whose subject contains subjectContains,
// optionally bounded by after/before (zero values mean unbounded).
func (m *Mailbox) Search(ctx domain.Context, subjectContains string, after, before time.Time) ([]string, error) {
	query := fmt.Sprintf("subject:%q", subjectContains)
	if !after.IsZero() {
		query += " after:" + after.Format("2006/01/02")
	}
	if !before.IsZero() {
		query += " before:" + before.Format("2006/01/02")
	}

	var ids []string
	call := m.svc.Users.Messages.List(gmailUser).Q(query)
	err := call.Pages(ctx, func(page *gmailapi.ListMessagesResponse) error {
		for _, msg := range page.Messages {
			ids = append(ids, msg.Id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("op=gmail.Search: %w", err)
	}
	return ids, nil
}

// FetchAttachments downloads every attachment of the given messages into
// destDir. A failing message or part is logged and skipped; the pipeline
// would rather process a partial batch than none.
func (m *Mailbox) FetchAttachments(ctx domain.Context, messageIDs []string, destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("op=gmail.FetchAttachments: mkdir: %w", err)
	}
	lg := observability.LoggerFromContext(ctx)

	saved := 0
	for _, id := range messageIDs {
		msg, err := m.svc.Users.Messages.Get(gmailUser, id).Context(ctx).Do()
		if err != nil {
			lg.Warn("fetch message failed", slog.String("message_id", id), slog.Any("error", err))
			continue
		}
		if msg.Payload == nil {
			continue
		}
		for _, part := range msg.Payload.Parts {
			if part.Filename == "" || part.Body == nil || part.Body.AttachmentId == "" {
				continue
			}
			att, err := m.svc.Users.Messages.Attachments.Get(gmailUser, id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				lg.Warn("fetch attachment failed", slog.String("message_id", id), slog.Any("error", err))
				continue
			}
			data, err := base64.URLEncoding.DecodeString(att.Data)
			if err != nil {
				lg.Warn("decode attachment failed", slog.String("filename", part.Filename), slog.Any("error", err))
				continue
			}
			dest := filepath.Join(destDir, filepath.Base(strings.TrimSpace(part.Filename)))
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				lg.Warn("write attachment failed", slog.String("path", dest), slog.Any("error", err))
				continue
			}
			saved++
		}
	}
	return saved, nil
}
