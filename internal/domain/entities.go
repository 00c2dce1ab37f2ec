package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrNotFound                = errors.New("not found")
	ErrConflict                = errors.New("conflict")
	ErrUnsupportedFormat       = errors.New("unsupported format")
	ErrExtractionFailed        = errors.New("extraction failed")
	ErrNoIdentifiableCandidate = errors.New("no identifiable candidate")
	ErrStoreUnavailable        = errors.New("store unavailable")
	ErrInternal                = errors.New("internal error")
)

// Collection identifies one of the two independent result sets. Records in
// one collection never dedupe against the other.
type Collection string

const (
	// CollectionBatch holds results from bulk mail ingestion.
	CollectionBatch Collection = "batch"
	// CollectionQuick holds results from one-off manual uploads.
	CollectionQuick Collection = "quick"
)

// Valid reports whether c names a known collection.
func (c Collection) Valid() bool { return c == CollectionBatch || c == CollectionQuick }

// CandidateStatus is derived from the score at insert time and stored, never
// recomputed on read.
type CandidateStatus string

const (
	StatusShortlisted CandidateStatus = "Shortlisted"
	StatusRejected    CandidateStatus = "Rejected"
)

// ShortlistThreshold is the minimum score that shortlists a candidate.
const ShortlistThreshold = 5.0

// StatusForScore derives the stored status from a report score.
func StatusForScore(score float64) CandidateStatus {
	if score >= ShortlistThreshold {
		return StatusShortlisted
	}
	return StatusRejected
}

// CandidateFields holds the identity fields pulled out of resume text.
// Each field is either the first pattern match or the "Not found" sentinel.
type CandidateFields struct {
	Name   string
	Email  string
	Mobile string
}

// Report is the structured form of the scorer's free-text output.
// A report that could not be parsed is the zero value: score 0, empty lines.
type Report struct {
	Score          float64
	Recommendation string
	Strengths      string
	Gaps           string
}

// ResumeRecord is one scored candidate-per-job-title row.
// Records are created once by the pipeline and never mutated or deleted.
type ResumeRecord struct {
	ID             int64
	Name           string
	Email          string
	Mobile         string
	Strengths      string
	Gaps           string
	Recommendation string
	Score          float64
	Status         CandidateStatus
	ResumePath     string
	JobTitle       string
	DateAdded      time.Time
}

// Repositories (ports)

// AnalysisRepository persists scored records per collection and answers the
// two independent idempotency questions:
//
//   - AlreadyProcessed guards (resumePath, jobTitle) and must be consulted
//     before scoring so duplicate work never reaches the scorer.
//   - IsDuplicateSubmission guards (name, email, mobile, day) and is
//     consulted immediately before insert.
type AnalysisRepository interface {
	Insert(ctx Context, c Collection, rec ResumeRecord) (int64, error)
	AlreadyProcessed(ctx Context, c Collection, resumePath, jobTitle string) (bool, error)
	IsDuplicateSubmission(ctx Context, c Collection, name, email, mobile string, day time.Time) (bool, error)
	ListRecent(ctx Context, c Collection, limit int) ([]ResumeRecord, error)
}

// Admin is the single credential record gating the API.
type Admin struct {
	Username     string
	PasswordHash string
}

// AdminRepository stores the admin credential record.
type AdminRepository interface {
	Get(ctx Context, username string) (Admin, error)
	// EnsureDefault inserts the record only when no row for username exists.
	EnsureDefault(ctx Context, a Admin) error
	UpdatePassword(ctx Context, username, passwordHash string) error
}

// Scorer (port)
//
// Score sends resume text and a job description to the model and returns the
// raw report text. Failures are normalized into the same four-line textual
// shape ("Score: 0\nRecommendation: ...") so callers always have a report to
// parse; Score never returns an empty string.
type Scorer interface {
	Score(ctx Context, resumeText, jobDescription string) string
}

// TextExtractor (port)
// ExtractPath converts a PDF or DOC-family file into plain text.
// Unrecognized extensions fail with ErrUnsupportedFormat; parser failures
// with ErrExtractionFailed.
type TextExtractor interface {
	ExtractPath(ctx Context, path string) (string, error)
}

// Mailbox (port): the external mail collaborator.
type Mailbox interface {
	Search(ctx Context, subjectContains string, after, before time.Time) ([]string, error)
	// FetchAttachments downloads the attachments of the given messages into
	// destDir and returns the number of files written.
	FetchAttachments(ctx Context, messageIDs []string, destDir string) (int, error)
}

// Mirror (port): optional best-effort replication of stored state after each
// insert. Not part of the pipeline's correctness; implementations must not
// block the pipeline on failure.
type Mirror interface {
	Push(ctx Context) error
}

// Context is an alias to allow decoupling from std context in domain.
// Adapters and usecases pass context.Context through.
type Context = context.Context
