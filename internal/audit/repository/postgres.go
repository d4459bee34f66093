package repository

import (
	"context"
	"database/sql"
	"errors"

	"zero-trust-otp/backend/internal/audit/domain"
)

const (
	insertAuditLog = `INSERT INTO otp_audit_logs (id, recipient, challenge_id, action, outcome, ip, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	selectAuditLog = `SELECT id, recipient, challenge_id, action, outcome, ip, metadata, created_at
FROM otp_audit_logs WHERE id = $1`

	listAuditLogsByRecipient = `SELECT id, recipient, challenge_id, action, outcome, ip, metadata, created_at
FROM otp_audit_logs WHERE recipient = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the audit log for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	a, err := scanAuditLog(r.db.QueryRowContext(ctx, selectAuditLog, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListByRecipient returns audit logs for recipient, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByRecipient(ctx context.Context, recipient string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, listAuditLogsByRecipient, recipient, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	cid := sql.NullString{String: a.ChallengeID, Valid: a.ChallengeID != ""}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.db.ExecContext(ctx, insertAuditLog,
		a.ID, a.Recipient, cid, a.Action, a.Outcome, a.IP, meta, a.CreatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditLog(s rowScanner) (*domain.AuditLog, error) {
	var (
		a    domain.AuditLog
		cid  sql.NullString
		meta sql.NullString
	)
	if err := s.Scan(&a.ID, &a.Recipient, &cid, &a.Action, &a.Outcome, &a.IP, &meta, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ChallengeID = cid.String
	a.Metadata = meta.String
	return &a, nil
}
