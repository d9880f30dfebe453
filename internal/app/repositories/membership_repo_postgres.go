package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/campuslink/campuslink-api/internal/domain/membership"
	"github.com/campuslink/campuslink-api/internal/domain/resource"
	"github.com/lib/pq"
)

type postgresMembershipRepo struct {
	db *sql.DB
}

// NewPostgresMembershipRepo builds a membership repository backed by PostgreSQL.
func NewPostgresMembershipRepo(db *sql.DB) (MembershipRepository, error) {
	repo := &postgresMembershipRepo{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *postgresMembershipRepo) ensureSchema() error {
	const createTable = `
        CREATE TABLE IF NOT EXISTS membership_requests (
            id TEXT PRIMARY KEY,
            resource_id TEXT NOT NULL,
            resource_type TEXT NOT NULL,
            user_id TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            role TEXT NOT NULL DEFAULT '',
            message TEXT NOT NULL DEFAULT '',
            requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            decided_at TIMESTAMPTZ NULL
        )`
	if _, err := r.db.Exec(createTable); err != nil {
		return err
	}
	// Withdrawn rows are history; only one live record per pair may exist.
	if _, err := r.db.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS idx_membership_requests_live
        ON membership_requests (resource_id, user_id)
        WHERE status <> 'withdrawn'`); err != nil {
		return err
	}
	if _, err := r.db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_membership_requests_resource_status
        ON membership_requests (resource_id, status, requested_at)`); err != nil {
		return err
	}
	return nil
}

const membershipColumns = `id, resource_id, resource_type, user_id, status, role, message, requested_at, decided_at`

func scanMembership(row interface{ Scan(...any) error }) (*membership.Request, error) {
	var (
		req          membership.Request
		resourceType string
		status       string
		decidedAt    sql.NullTime
	)
	if err := row.Scan(&req.ID, &req.ResourceID, &resourceType, &req.UserID, &status, &req.Role, &req.Message, &req.RequestedAt, &decidedAt); err != nil {
		return nil, err
	}
	req.ResourceType = resource.Type(resourceType)
	req.Status = membership.Status(status)
	req.RequestedAt = req.RequestedAt.UTC()
	if decidedAt.Valid {
		t := decidedAt.Time.UTC()
		req.DecidedAt = &t
	}
	return &req, nil
}

func (r *postgresMembershipRepo) Create(ctx context.Context, req *membership.Request) error {
	const query = `
        INSERT INTO membership_requests (id, resource_id, resource_type, user_id, status, role, message, requested_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.ResourceID,
		string(req.ResourceType),
		req.UserID,
		string(req.Status),
		req.Role,
		req.Message,
		req.RequestedAt.UTC(),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateRequest
	}
	return err
}

func (r *postgresMembershipRepo) GetByID(ctx context.Context, id string) (*membership.Request, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+membershipColumns+`
        FROM membership_requests
        WHERE id = $1`, id)
	req, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	return req, err
}

func (r *postgresMembershipRepo) FindCurrent(ctx context.Context, resourceID, userID string) (*membership.Request, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+membershipColumns+`
        FROM membership_requests
        WHERE resource_id = $1 AND user_id = $2 AND status <> 'withdrawn'`, resourceID, userID)
	req, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	return req, err
}

func (r *postgresMembershipRepo) UpdateStatus(ctx context.Context, id string, from, to membership.Status, decidedAt time.Time) (*membership.Request, error) {
	// Conditional on the prior status so concurrent deciders serialize:
	// whichever update lands first wins, the loser sees a status conflict.
	row := r.db.QueryRowContext(ctx, `
        UPDATE membership_requests
        SET status = $1, decided_at = $2
        WHERE id = $3 AND status = $4
        RETURNING `+membershipColumns,
		string(to), decidedAt.UTC(), id, string(from))
	req, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrStatusConflict
	}
	return req, err
}

func (r *postgresMembershipRepo) ListByResource(ctx context.Context, resourceID string, status membership.Status) ([]*membership.Request, error) {
	order := "requested_at ASC, id ASC"
	if status == membership.StatusPending {
		order = "requested_at DESC, id ASC"
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+membershipColumns+`
        FROM membership_requests
        WHERE resource_id = $1 AND status = $2
        ORDER BY `+order, resourceID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*membership.Request
	for rows.Next() {
		req, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
