package repository

import (
	"context"
	"database/sql"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// PostgresEndpointsRepo EndpointsRepo on PostgreSQL.
type PostgresEndpointsRepo struct {
	db *sql.DB
}

func NewPostgresEndpointsRepo(db *sql.DB) *PostgresEndpointsRepo {
	return &PostgresEndpointsRepo{db: db}
}

const endpointSelect = `
	SELECT e.id, e.container_id, e.name, e.allows_multiple, c.name
	FROM endpoints e
	JOIN containers c ON e.container_id = c.id`

func (r *PostgresEndpointsRepo) GetEndpoint(ctx context.Context, id int64) (*domain.Endpoint, error) {
	var e domain.Endpoint
	err := r.db.QueryRowContext(ctx, endpointSelect+` WHERE e.id = $1`, id).Scan(
		&e.ID, &e.ContainerID, &e.Name, &e.AllowsMultiple, &e.ContainerName,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresEndpointsRepo) SearchEndpoints(ctx context.Context, query string, limit int) ([]*domain.Endpoint, error) {
	if limit <= 0 {
		limit = 20
	}
	q := endpointSelect + `
		WHERE e.name ILIKE $1 OR c.name ILIKE $1
		ORDER BY c.name, e.name
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, q, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Endpoint{}
	for rows.Next() {
		var e domain.Endpoint
		if err := rows.Scan(&e.ID, &e.ContainerID, &e.Name, &e.AllowsMultiple, &e.ContainerName); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *PostgresEndpointsRepo) ListContainers(ctx context.Context) ([]*domain.Container, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, parent_id, show_in_listing, vehicle_id
		 FROM containers
		 WHERE show_in_listing
		 ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Container{}
	for rows.Next() {
		var c domain.Container
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.ShowInListing, &c.VehicleID); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
