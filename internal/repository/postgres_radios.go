package repository

import (
	"context"
	"database/sql"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// PostgresRadiosRepo RadiosRepo on PostgreSQL.
type PostgresRadiosRepo struct {
	db *sql.DB
}

func NewPostgresRadiosRepo(db *sql.DB) *PostgresRadiosRepo {
	return &PostgresRadiosRepo{db: db}
}

const radioSelect = `
	SELECT r.tei, r.fireplan_id, r.model_id, m.name,
	       s.id IS NOT NULL AND s.active, s.issi_number, COALESCE(NULLIF(s.astrid_alias, ''), i.alias)
	FROM radios r
	LEFT JOIN radio_models m ON r.model_id = m.id
	LEFT JOIN subscriptions s ON s.radio_tei = r.tei
	LEFT JOIN issis i ON s.issi_number = i.number`

func scanRadio(scanner interface{ Scan(...any) error }) (*domain.Radio, error) {
	var r domain.Radio
	var active sql.NullBool
	err := scanner.Scan(&r.TEI, &r.FireplanID, &r.ModelID, &r.ModelName, &active, &r.ISSI, &r.Alias)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Active = active.Valid && active.Bool
	return &r, nil
}

func (r *PostgresRadiosRepo) Get(ctx context.Context, tei int64) (*domain.Radio, error) {
	return scanRadio(r.db.QueryRowContext(ctx, radioSelect+` WHERE r.tei = $1`, tei))
}

func (r *PostgresRadiosRepo) Create(ctx context.Context, tei int64) (*domain.Radio, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := ensureRadioTx(ctx, tx, tei); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.Get(ctx, tei)
}

func (r *PostgresRadiosRepo) SetFireplanID(ctx context.Context, tei, fireplanID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE radios SET fireplan_id = $2 WHERE tei = $1`, tei, fireplanID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRadiosRepo) Search(ctx context.Context, query string, limit int) ([]*domain.Radio, error) {
	if limit <= 0 {
		limit = 20
	}

	q := radioSelect + `
		WHERE r.tei::text ILIKE $1
		   OR s.issi_number::text ILIKE $1
		   OR i.alias ILIKE $1
		   OR s.astrid_alias ILIKE $1
		ORDER BY r.tei
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, q, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Radio{}
	for rows.Next() {
		radio, err := scanRadio(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, radio)
	}
	return out, rows.Err()
}
