package repository

import (
	"context"
	"database/sql"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// PostgresISSIsRepo ISSIsRepo on PostgreSQL.
type PostgresISSIsRepo struct {
	db *sql.DB
}

func NewPostgresISSIsRepo(db *sql.DB) *PostgresISSIsRepo {
	return &PostgresISSIsRepo{db: db}
}

const issiSelect = `
	SELECT i.number, i.alias, i.customer_id, i.discipline_id, c.name, d.name
	FROM issis i
	LEFT JOIN customers c ON i.customer_id = c.id
	LEFT JOIN disciplines d ON i.discipline_id = d.id`

func (r *PostgresISSIsRepo) Get(ctx context.Context, number int64) (*domain.ISSI, error) {
	var i domain.ISSI
	err := r.db.QueryRowContext(ctx, issiSelect+` WHERE i.number = $1`, number).Scan(
		&i.Number, &i.Alias, &i.CustomerID, &i.DisciplineID, &i.CustomerName, &i.DisciplineName,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *PostgresISSIsRepo) Ensure(ctx context.Context, number int64) (*domain.ISSI, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := ensureISSITx(ctx, tx, number); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.Get(ctx, number)
}
