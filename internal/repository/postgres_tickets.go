package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// PostgresTicketsRepo TicketsRepo on PostgreSQL.
type PostgresTicketsRepo struct {
	db *sql.DB
}

func NewPostgresTicketsRepo(db *sql.DB) *PostgresTicketsRepo {
	return &PostgresTicketsRepo{db: db}
}

const ticketSelect = `
	SELECT t.id, t.request_type, t.status, t.title, t.description,
	       t.radio_tei, t.old_radio_tei, t.old_issi, t.new_issi,
	       t.external_reference, t.created_by, t.created_at, t.updated_at
	FROM tickets t`

func scanTicket(scanner interface{ Scan(...any) error }) (*domain.Ticket, error) {
	var t domain.Ticket
	err := scanner.Scan(
		&t.ID, &t.RequestType, &t.Status, &t.Title, &t.Description,
		&t.RadioTEI, &t.OldRadioTEI, &t.OldISSI, &t.NewISSI,
		&t.ExternalReference, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresTicketsRepo) Create(ctx context.Context, t *domain.Ticket) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = domain.TicketStatusOpen
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (id, request_type, status, title, description,
		                      radio_tei, old_radio_tei, old_issi, new_issi,
		                      external_reference, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, string(t.RequestType), string(t.Status), t.Title, t.Description,
		t.RadioTEI, t.OldRadioTEI, t.OldISSI, t.NewISSI,
		t.ExternalReference, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil && isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

func (r *PostgresTicketsRepo) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRowContext(ctx, ticketSelect+` WHERE t.id = $1`, id))
}

func (r *PostgresTicketsRepo) List(ctx context.Context, filters TicketFilters, page, size int) ([]*domain.Ticket, int, error) {
	where := []string{}
	args := []any{}
	argN := 1

	if filters.Status != "" {
		where = append(where, fmt.Sprintf("t.status = $%d", argN))
		args = append(args, string(filters.Status))
		argN++
	}
	if filters.OpenOnly {
		where = append(where, fmt.Sprintf("t.status <> $%d", argN))
		args = append(args, string(domain.TicketStatusClosed))
		argN++
	}
	if filters.RequestType != "" {
		where = append(where, fmt.Sprintf("t.request_type = $%d", argN))
		args = append(args, string(filters.RequestType))
		argN++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets t `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	args = append(args, size, (page-1)*size)

	query := ticketSelect + `
		` + whereClause + `
		ORDER BY t.created_at DESC
		LIMIT $` + fmt.Sprintf("%d", argN) + ` OFFSET $` + fmt.Sprintf("%d", argN+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []*domain.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *PostgresTicketsRepo) SetExternalReference(ctx context.Context, id, ref string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET external_reference = $2, updated_at = $3 WHERE id = $1`,
		id, ref, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresTicketsRepo) Transition(ctx context.Context, id string, to domain.TicketStatus, actor sql.NullString, note string) (*domain.TicketLog, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current domain.TicketStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM tickets WHERE id = $1 FOR UPDATE`, id,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(current, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
	}

	now := time.Now().UTC()
	log := &domain.TicketLog{
		ID:           uuid.NewString(),
		TicketID:     id,
		Timestamp:    now,
		Actor:        actor,
		StatusBefore: current,
		StatusAfter:  to,
		Note:         note,
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ticket_logs (id, ticket_id, timestamp, actor, status_before, status_after, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.TicketID, log.Timestamp, log.Actor, string(log.StatusBefore), string(log.StatusAfter), log.Note,
	); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(to), now,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return log, nil
}

func (r *PostgresTicketsRepo) Logs(ctx context.Context, ticketID string) ([]*domain.TicketLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ticket_id, timestamp, actor, status_before, status_after, note
		 FROM ticket_logs
		 WHERE ticket_id = $1
		 ORDER BY timestamp`, ticketID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.TicketLog{}
	for rows.Next() {
		var l domain.TicketLog
		if err := rows.Scan(&l.ID, &l.TicketID, &l.Timestamp, &l.Actor, &l.StatusBefore, &l.StatusAfter, &l.Note); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *PostgresTicketsRepo) FindOpenConflict(ctx context.Context, teis []int64, issis []int64) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRowContext(ctx,
		ticketSelect+`
		WHERE t.status <> $1
		  AND (t.radio_tei = ANY($2) OR t.old_radio_tei = ANY($2)
		       OR t.old_issi = ANY($3) OR t.new_issi = ANY($3))
		ORDER BY t.created_at
		LIMIT 1`,
		string(domain.TicketStatusClosed), pq.Array(teis), pq.Array(issis),
	))
}
