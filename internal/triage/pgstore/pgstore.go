// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/herald/internal/postgres"
	"github.com/linnemanlabs/herald/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/herald/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage results in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, applies the schema, and returns a ready Store.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const triageColumns = `id, fingerprint, status, sender, recipients, subject, body,
	outcome, logic, error, draft, draft_action, prompt, model,
	created_at, completed_at, duration_s, tokens_in, tokens_out`

// Get retrieves a triage result by ID.
//
//nolint:dupl // similar structure to GetByFingerprint is intentional
func (s *Store) Get(ctx context.Context, id string) (*triage.Result, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + triageColumns + ` FROM triage_runs WHERE id = $1`
	r, err := s.scanTriageRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// GetByFingerprint retrieves the most recent triage result for a fingerprint.
//
//nolint:dupl // similar structure to Get is intentional
func (s *Store) GetByFingerprint(ctx context.Context, fingerprint string) (*triage.Result, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetByFingerprint", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + triageColumns + ` FROM triage_runs WHERE fingerprint = $1 ORDER BY created_at DESC LIMIT 1`
	r, err := s.scanTriageRow(s.pool.QueryRow(ctx, query, fingerprint))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// Put inserts or updates a triage result (upsert on id).
func (s *Store) Put(ctx context.Context, r *triage.Result) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	recipientsJSON, err := json.Marshal(r.To)
	if err != nil {
		return fmt.Errorf("marshal recipients: %w", err)
	}
	if r.To == nil {
		recipientsJSON = []byte("[]")
	}

	var completedAt *time.Time
	if !r.CompletedAt.IsZero() {
		completedAt = &r.CompletedAt
	}

	query := `INSERT INTO triage_runs (
		id, fingerprint, status, sender, recipients, subject, body,
		outcome, logic, error, draft, draft_action, prompt, model,
		created_at, completed_at, duration_s, tokens_in, tokens_out
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	ON CONFLICT (id) DO UPDATE SET
		fingerprint  = EXCLUDED.fingerprint,
		status       = EXCLUDED.status,
		sender       = EXCLUDED.sender,
		recipients   = EXCLUDED.recipients,
		subject      = EXCLUDED.subject,
		body         = EXCLUDED.body,
		outcome      = EXCLUDED.outcome,
		logic        = EXCLUDED.logic,
		error        = EXCLUDED.error,
		draft        = EXCLUDED.draft,
		draft_action = EXCLUDED.draft_action,
		prompt       = EXCLUDED.prompt,
		model        = EXCLUDED.model,
		completed_at = EXCLUDED.completed_at,
		duration_s   = EXCLUDED.duration_s,
		tokens_in    = EXCLUDED.tokens_in,
		tokens_out   = EXCLUDED.tokens_out`

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.Fingerprint, string(r.Status), r.From, recipientsJSON, r.Subject, r.Body,
		string(r.Outcome), r.Logic, r.Error, r.Draft, r.DraftAction, r.Prompt, r.Model,
		r.CreatedAt, completedAt, r.Duration, r.TokensIn, r.TokensOut,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert triage: %w", err)
	}
	return nil
}

// RecentCompleted returns up to limit completed results, newest first.
func (s *Store) RecentCompleted(ctx context.Context, limit int) ([]*triage.Result, error) {
	ctx, span := tracer.Start(ctx, "pgstore.RecentCompleted", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + triageColumns + ` FROM triage_runs
		WHERE status = 'complete' ORDER BY created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query completed: %w", err)
	}
	defer rows.Close()

	var out []*triage.Result
	for rows.Next() {
		r, err := scanTriage(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate completed: %w", err)
	}
	return out, nil
}

// scanTriageRow scans a single row into a triage.Result.
// Returns (nil, nil) when no row is found.
func (s *Store) scanTriageRow(row pgx.Row) (*triage.Result, error) {
	r, err := scanTriage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

func scanTriage(row pgx.Row) (*triage.Result, error) {
	var (
		r              triage.Result
		status         string
		outcome        string
		recipientsJSON []byte
		completedAt    *time.Time
	)

	err := row.Scan(
		&r.ID, &r.Fingerprint, &status, &r.From, &recipientsJSON, &r.Subject, &r.Body,
		&outcome, &r.Logic, &r.Error, &r.Draft, &r.DraftAction, &r.Prompt, &r.Model,
		&r.CreatedAt, &completedAt, &r.Duration, &r.TokensIn, &r.TokensOut,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	r.Status = triage.Status(status)
	r.Outcome = triage.Outcome(outcome)

	if completedAt != nil {
		r.CompletedAt = *completedAt
	}

	if err := json.Unmarshal(recipientsJSON, &r.To); err != nil {
		return nil, fmt.Errorf("unmarshal recipients: %w", err)
	}

	return &r, nil
}
