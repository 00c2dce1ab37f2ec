// Package postgres provides PostgreSQL database adapters.
//
// It implements the repository ports for the two analysis collections and
// the admin credential record.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-resume-screener/internal/domain"
)

// AnalysisRepo persists scored records using a minimal pgx pool.
type AnalysisRepo struct{ Pool PgxPool }

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewAnalysisRepo constructs an AnalysisRepo with the given pool.
func NewAnalysisRepo(p PgxPool) *AnalysisRepo { return &AnalysisRepo{Pool: p} }

// tableFor maps a collection onto its table. Table names never come from
// request input.
func tableFor(c domain.Collection) (string, error) {
	switch c {
	case domain.CollectionBatch:
		return "batch_analyses", nil
	case domain.CollectionQuick:
		return "quick_analyses", nil
	default:
		return "", fmt.Errorf("op=postgres.tableFor: collection=%q: %w", c, domain.ErrInvalidArgument)
	}
}

func spanAttrs(op, table string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", table),
	}
}

// Insert stores a record and returns its generated id.
func (r *AnalysisRepo) Insert(ctx domain.Context, c domain.Collection, rec domain.ResumeRecord) (int64, error) {
	table, err := tableFor(c)
	if err != nil {
		return 0, err
	}
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.Insert")
	defer span.End()
	span.SetAttributes(spanAttrs("INSERT", table)...)

	added := rec.DateAdded
	if added.IsZero() {
		added = time.Now().UTC()
	}
	q := fmt.Sprintf(`INSERT INTO %s (name, email, mobile, strengths, gaps, recommendation, score, status, resume_path, job_title, date_added)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`, table)
	var id int64
	err = r.Pool.QueryRow(ctx, q,
		rec.Name, rec.Email, rec.Mobile, rec.Strengths, rec.Gaps, rec.Recommendation,
		rec.Score, string(rec.Status), rec.ResumePath, rec.JobTitle, added,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("op=analyses.insert: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return id, nil
}

// AlreadyProcessed reports whether a record for (resumePath, jobTitle) exists.
func (r *AnalysisRepo) AlreadyProcessed(ctx domain.Context, c domain.Collection, resumePath, jobTitle string) (bool, error) {
	table, err := tableFor(c)
	if err != nil {
		return false, err
	}
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.AlreadyProcessed")
	defer span.End()
	span.SetAttributes(spanAttrs("SELECT", table)...)

	q := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE resume_path=$1 AND job_title=$2)`, table)
	var exists bool
	if err := r.Pool.QueryRow(ctx, q, resumePath, jobTitle).Scan(&exists); err != nil {
		return false, fmt.Errorf("op=analyses.already_processed: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return exists, nil
}

// IsDuplicateSubmission reports whether a record with the same identity
// fields was stored on the same calendar day.
func (r *AnalysisRepo) IsDuplicateSubmission(ctx domain.Context, c domain.Collection, name, email, mobile string, day time.Time) (bool, error) {
	table, err := tableFor(c)
	if err != nil {
		return false, err
	}
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.IsDuplicateSubmission")
	defer span.End()
	span.SetAttributes(spanAttrs("SELECT", table)...)

	q := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE name=$1 AND email=$2 AND mobile=$3 AND date_added=$4::date)`, table)
	var exists bool
	if err := r.Pool.QueryRow(ctx, q, name, email, mobile, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("op=analyses.is_duplicate: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return exists, nil
}

// ListRecent returns up to limit records, newest first by id.
func (r *AnalysisRepo) ListRecent(ctx domain.Context, c domain.Collection, limit int) ([]domain.ResumeRecord, error) {
	table, err := tableFor(c)
	if err != nil {
		return nil, err
	}
	tracer := otel.Tracer("repo.analyses")
	ctx, span := tracer.Start(ctx, "analyses.ListRecent")
	defer span.End()
	span.SetAttributes(spanAttrs("SELECT", table)...)

	q := fmt.Sprintf(`SELECT id, name, email, mobile, strengths, gaps, recommendation, score, status, resume_path, job_title, date_added
		FROM %s ORDER BY id DESC LIMIT $1`, table)
	rows, err := r.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("op=analyses.list_recent: %v: %w", err, domain.ErrStoreUnavailable)
	}
	defer rows.Close()

	var out []domain.ResumeRecord
	for rows.Next() {
		var rec domain.ResumeRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Mobile, &rec.Strengths, &rec.Gaps,
			&rec.Recommendation, &rec.Score, &status, &rec.ResumePath, &rec.JobTitle, &rec.DateAdded); err != nil {
			return nil, fmt.Errorf("op=analyses.list_recent: scan: %v: %w", err, domain.ErrStoreUnavailable)
		}
		rec.Status = domain.CandidateStatus(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=analyses.list_recent: rows: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return out, nil
}

// AdminRepo stores the single admin credential record.
type AdminRepo struct{ Pool PgxPool }

// NewAdminRepo constructs an AdminRepo with the given pool.
func NewAdminRepo(p PgxPool) *AdminRepo { return &AdminRepo{Pool: p} }

// Get loads the admin record by username.
func (r *AdminRepo) Get(ctx domain.Context, username string) (domain.Admin, error) {
	tracer := otel.Tracer("repo.admin")
	ctx, span := tracer.Start(ctx, "admin.Get")
	defer span.End()
	span.SetAttributes(spanAttrs("SELECT", "admin_users")...)

	q := `SELECT username, password_hash FROM admin_users WHERE username=$1`
	var a domain.Admin
	if err := r.Pool.QueryRow(ctx, q, username).Scan(&a.Username, &a.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Admin{}, fmt.Errorf("op=admin.get: username=%s: %w", username, domain.ErrNotFound)
		}
		return domain.Admin{}, fmt.Errorf("op=admin.get: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return a, nil
}

// EnsureDefault inserts the record only when no row for the username exists.
func (r *AdminRepo) EnsureDefault(ctx domain.Context, a domain.Admin) error {
	tracer := otel.Tracer("repo.admin")
	ctx, span := tracer.Start(ctx, "admin.EnsureDefault")
	defer span.End()
	span.SetAttributes(spanAttrs("INSERT", "admin_users")...)

	q := `INSERT INTO admin_users (username, password_hash) VALUES ($1,$2) ON CONFLICT (username) DO NOTHING`
	if _, err := r.Pool.Exec(ctx, q, a.Username, a.PasswordHash); err != nil {
		return fmt.Errorf("op=admin.ensure_default: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}

// UpdatePassword replaces the stored hash for username.
func (r *AdminRepo) UpdatePassword(ctx domain.Context, username, passwordHash string) error {
	tracer := otel.Tracer("repo.admin")
	ctx, span := tracer.Start(ctx, "admin.UpdatePassword")
	defer span.End()
	span.SetAttributes(spanAttrs("UPDATE", "admin_users")...)

	q := `UPDATE admin_users SET password_hash=$2 WHERE username=$1`
	tag, err := r.Pool.Exec(ctx, q, username, passwordHash)
	if err != nil {
		return fmt.Errorf("op=admin.update_password: %v: %w", err, domain.ErrStoreUnavailable)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=admin.update_password: username=%s: %w", username, domain.ErrNotFound)
	}
	return nil
}
