package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// PostgresAssignmentsRepo AssignmentsRepo on PostgreSQL.
type PostgresAssignmentsRepo struct {
	db *sql.DB
}

func NewPostgresAssignmentsRepo(db *sql.DB) *PostgresAssignmentsRepo {
	return &PostgresAssignmentsRepo{db: db}
}

const assignmentSelect = `
	SELECT a.id, a.radio_tei, a.endpoint_id, a.start_at, a.end_at, a.reason,
	       a.ticket_id, a.replaces_tei, a.note
	FROM assignments a`

func scanAssignment(scanner interface{ Scan(...any) error }) (*domain.Assignment, error) {
	var a domain.Assignment
	err := scanner.Scan(
		&a.ID, &a.RadioTEI, &a.EndpointID, &a.StartAt, &a.EndAt, &a.Reason,
		&a.TicketID, &a.ReplacesTEI, &a.Note,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresAssignmentsRepo) Assign(ctx context.Context, p AssignParams) (*domain.Assignment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var allowsMultiple bool
	err = tx.QueryRowContext(ctx,
		`SELECT allows_multiple FROM endpoints WHERE id = $1`, p.EndpointID,
	).Scan(&allowsMultiple)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// A radio is never in two places: placing it elsewhere is a move.
	if _, err := tx.ExecContext(ctx,
		`UPDATE assignments SET end_at = $2 WHERE radio_tei = $1 AND end_at IS NULL`,
		p.RadioTEI, now,
	); err != nil {
		return nil, err
	}

	if !allowsMultiple {
		if _, err := tx.ExecContext(ctx,
			`UPDATE assignments SET end_at = $2 WHERE endpoint_id = $1 AND end_at IS NULL`,
			p.EndpointID, now,
		); err != nil {
			return nil, err
		}
	}

	a := &domain.Assignment{
		ID:          uuid.NewString(),
		RadioTEI:    p.RadioTEI,
		EndpointID:  p.EndpointID,
		StartAt:     now,
		Reason:      p.Reason,
		TicketID:    p.TicketID,
		ReplacesTEI: p.ReplacesTEI,
		Note:        p.Note,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignments (id, radio_tei, endpoint_id, start_at, end_at, reason, ticket_id, replaces_tei, note)
		 VALUES ($1, $2, $3, $4, NULL, $5, $6, $7, $8)`,
		a.ID, a.RadioTEI, a.EndpointID, a.StartAt, string(a.Reason), a.TicketID, a.ReplacesTEI, a.Note,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			// partial unique index on open assignments lost a race
			return nil, ErrConflict
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *PostgresAssignmentsRepo) Close(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE assignments SET end_at = $2 WHERE id = $1 AND end_at IS NULL`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// already closed, or unknown id: closing is idempotent either way,
		// but an unknown id is a caller bug worth surfacing
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM assignments WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

func (r *PostgresAssignmentsRepo) CurrentOccupant(ctx context.Context, endpointID int64) (*domain.Assignment, error) {
	return scanAssignment(r.db.QueryRowContext(ctx,
		assignmentSelect+`
		WHERE a.endpoint_id = $1 AND a.end_at IS NULL
		ORDER BY a.start_at DESC
		LIMIT 1`, endpointID,
	))
}

func (r *PostgresAssignmentsRepo) OpenByRadio(ctx context.Context, tei int64) (*domain.Assignment, error) {
	return scanAssignment(r.db.QueryRowContext(ctx,
		assignmentSelect+`
		WHERE a.radio_tei = $1 AND a.end_at IS NULL
		LIMIT 1`, tei,
	))
}

func (r *PostgresAssignmentsRepo) History(ctx context.Context, endpointID int64, limit int) ([]*domain.Assignment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		assignmentSelect+`
		WHERE a.endpoint_id = $1
		ORDER BY a.start_at DESC
		LIMIT $2`, endpointID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
