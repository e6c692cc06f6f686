package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// PostgresVehiclesRepo VehiclesRepo on PostgreSQL.
type PostgresVehiclesRepo struct {
	db *sql.DB
}

func NewPostgresVehiclesRepo(db *sql.DB) *PostgresVehiclesRepo {
	return &PostgresVehiclesRepo{db: db}
}

func (r *PostgresVehiclesRepo) Upsert(ctx context.Context, vehicles []*domain.Vehicle) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	count := 0
	for _, v := range vehicles {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO vehicles (id, number, num_letter, num_value, plate, utilisation, chassis, status, synced_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO UPDATE SET
			   number = EXCLUDED.number,
			   num_letter = EXCLUDED.num_letter,
			   num_value = EXCLUDED.num_value,
			   plate = EXCLUDED.plate,
			   utilisation = EXCLUDED.utilisation,
			   chassis = EXCLUDED.chassis,
			   status = EXCLUDED.status,
			   synced_at = EXCLUDED.synced_at`,
			v.ID, v.Number, v.NumLetter, v.NumValue, v.Plate, v.Utilisation, v.Chassis, v.Status, now,
		)
		if err != nil {
			return 0, err
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresVehiclesRepo) MatchByNumber(ctx context.Context, name string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := r.db.QueryRowContext(ctx,
		`SELECT id, number, num_letter, num_value, plate, utilisation, chassis, status, synced_at
		 FROM vehicles
		 WHERE number = $1 OR number LIKE $1 || ' -%'
		 ORDER BY number
		 LIMIT 1`, name,
	).Scan(&v.ID, &v.Number, &v.NumLetter, &v.NumValue, &v.Plate, &v.Utilisation, &v.Chassis, &v.Status, &v.SyncedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PostgresVehiclesRepo) ReplaceVectors(ctx context.Context, vectors []*domain.Vector) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	count := 0
	codes := []string{}
	for _, vec := range vectors {
		// a vector moving to another vehicle leaves its old one first
		if vec.VehicleID.Valid {
			_, err := tx.ExecContext(ctx,
				`UPDATE vectors SET vehicle_id = NULL
				 WHERE vehicle_id = $1 AND resource_code <> $2`,
				vec.VehicleID.Int64, vec.ResourceCode)
			if err != nil {
				return 0, err
			}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO vectors (resource_code, vehicle_id, name, abbreviation, service_code, resource_type_code, status_code)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (resource_code) DO UPDATE SET
			   vehicle_id = EXCLUDED.vehicle_id,
			   name = EXCLUDED.name,
			   abbreviation = EXCLUDED.abbreviation,
			   service_code = EXCLUDED.service_code,
			   resource_type_code = EXCLUDED.resource_type_code,
			   status_code = EXCLUDED.status_code`,
			vec.ResourceCode, vec.VehicleID, vec.Name, vec.Abbreviation,
			vec.ServiceCode, vec.ResourceTypeCode, vec.StatusCode,
		)
		if err != nil {
			return 0, err
		}
		codes = append(codes, vec.ResourceCode)
		count++
	}

	if len(codes) == 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM vectors`)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM vectors WHERE NOT (resource_code = ANY($1))`, pq.Array(codes))
	}
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresVehiclesRepo) ListVectors(ctx context.Context) ([]*domain.Vector, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT resource_code, vehicle_id, name, abbreviation, service_code, resource_type_code, status_code
		 FROM vectors ORDER BY resource_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Vector{}
	for rows.Next() {
		var vec domain.Vector
		if err := rows.Scan(&vec.ResourceCode, &vec.VehicleID, &vec.Name, &vec.Abbreviation,
			&vec.ServiceCode, &vec.ResourceTypeCode, &vec.StatusCode); err != nil {
			return nil, err
		}
		out = append(out, &vec)
	}
	return out, rows.Err()
}

func (r *PostgresVehiclesRepo) List(ctx context.Context, search string, limit int) ([]*domain.Vehicle, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, number, num_letter, num_value, plate, utilisation, chassis, status, synced_at
		FROM vehicles`
	args := []any{}
	if search != "" {
		query += ` WHERE number ILIKE $1 OR plate ILIKE $1`
		args = append(args, "%"+search+"%")
		query += ` ORDER BY number LIMIT $2`
	} else {
		query += ` ORDER BY number LIMIT $1`
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Vehicle{}
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.Number, &v.NumLetter, &v.NumValue, &v.Plate, &v.Utilisation, &v.Chassis, &v.Status, &v.SyncedAt); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}
