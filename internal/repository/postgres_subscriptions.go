package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// PostgresSubscriptionsRepo SubscriptionsRepo on PostgreSQL.
type PostgresSubscriptionsRepo struct {
	db *sql.DB
}

func NewPostgresSubscriptionsRepo(db *sql.DB) *PostgresSubscriptionsRepo {
	return &PostgresSubscriptionsRepo{db: db}
}

func scopeClause(scope domain.SubscriptionScope) string {
	where := []string{}
	if scope.OwnersOnly {
		where = append(where, "COALESCE(c.owner, false)")
	}
	if !scope.IncludeDMOOnly {
		where = append(where, "NOT s.dmo_only")
	}
	if len(where) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(where, " AND ")
}

func (r *PostgresSubscriptionsRepo) ListPairs(ctx context.Context, scope domain.SubscriptionScope) ([]LivePair, error) {
	query := `
		SELECT s.radio_tei, s.issi_number, s.astrid_alias
		FROM subscriptions s
		JOIN issis i ON s.issi_number = i.number
		LEFT JOIN customers c ON i.customer_id = c.id
		` + scopeClause(scope) + `
		ORDER BY s.radio_tei`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LivePair{}
	for rows.Next() {
		var p LivePair
		if err := rows.Scan(&p.Pair.TEI, &p.Pair.ISSI, &p.AstridAlias); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresSubscriptionsRepo) ApplyReconciliation(ctx context.Context, plan *ReconcilePlan) (*ReconcileOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	outcome := &ReconcileOutcome{}

	// Deletes go first: a radio freed by this feed can be rebound to a new
	// ISSI in the same run without tripping the uniqueness constraint.
	for _, d := range plan.Deletes {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM subscriptions WHERE radio_tei = $1 AND issi_number = $2`,
			d.TEI, d.ISSI,
		)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			outcome.Deleted++
		}
	}

	for _, c := range plan.Creates {
		created, takenOver, err := createSubscriptionTx(ctx, tx, c.Pair, c.Alias)
		if err != nil {
			if err == ErrNoModelForTEI {
				outcome.Unclassified = append(outcome.Unclassified, c.Pair)
				continue
			}
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("reconciliation constraint violation on TEI=%d ISSI=%d: %w", c.Pair.TEI, c.Pair.ISSI, ErrConflict)
			}
			return nil, err
		}
		if created {
			outcome.Created++
		}
		outcome.Deleted += int(takenOver)
	}

	for _, u := range plan.AliasUpdates {
		res, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET astrid_alias = $3 WHERE radio_tei = $1 AND issi_number = $2`,
			u.Pair.TEI, u.Pair.ISSI, u.Alias,
		)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			outcome.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return outcome, nil
}

// createSubscriptionTx creates one pair inside the reconciliation
// transaction. The ISSI side is exclusive: whatever subscription holds the
// ISSI is deleted first, regardless of scope. The radio and the ISSI are
// get-or-created with their classifications re-derived.
func createSubscriptionTx(ctx context.Context, tx *sql.Tx, pair domain.Pair, alias string) (bool, int64, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE issi_number = $1`, pair.ISSI,
	)
	if err != nil {
		return false, 0, err
	}
	takenOver, _ := res.RowsAffected()

	if err := ensureRadioTx(ctx, tx, pair.TEI); err != nil {
		return false, takenOver, err
	}
	if err := ensureISSITx(ctx, tx, pair.ISSI); err != nil {
		return false, takenOver, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO subscriptions (radio_tei, issi_number, astrid_alias, active, dmo_only)
		 VALUES ($1, $2, $3, true, false)`,
		pair.TEI, pair.ISSI, alias,
	); err != nil {
		return false, takenOver, err
	}
	return true, takenOver, nil
}

// ensureRadioTx get-or-creates the radio, classifying it against the TEI
// ranges. A new radio without a matching range is rejected.
func ensureRadioTx(ctx context.Context, tx *sql.Tx, tei int64) error {
	var modelID sql.NullInt64
	err := tx.QueryRowContext(ctx,
		`SELECT model_id FROM tei_ranges WHERE min_tei <= $1 AND max_tei >= $1 LIMIT 1`, tei,
	).Scan(&modelID)
	if err == sql.ErrNoRows {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM radios WHERE tei = $1)`, tei,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNoModelForTEI
		}
		return nil
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO radios (tei, model_id) VALUES ($1, $2)
		 ON CONFLICT (tei) DO UPDATE SET model_id = EXCLUDED.model_id`,
		tei, modelID,
	)
	return err
}

// ensureISSITx get-or-creates the ISSI, re-deriving customer and discipline
// from their range tables. No match leaves the field null.
func ensureISSITx(ctx context.Context, tx *sql.Tx, issi int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO issis (number, customer_id, discipline_id)
		 VALUES (
			$1,
			(SELECT customer_id FROM issi_customer_ranges WHERE min_issi <= $1 AND max_issi >= $1 LIMIT 1),
			(SELECT discipline_id FROM issi_discipline_ranges WHERE min_issi <= $1 AND max_issi >= $1 LIMIT 1)
		 )
		 ON CONFLICT (number) DO UPDATE
		 SET customer_id = EXCLUDED.customer_id, discipline_id = EXCLUDED.discipline_id`,
		issi,
	)
	return err
}

const subscriptionSelect = `
	SELECT s.id, s.radio_tei, s.issi_number, s.astrid_alias, s.active, s.dmo_only, s.created_at,
	       i.alias, c.name, c.owner
	FROM subscriptions s
	JOIN issis i ON s.issi_number = i.number
	LEFT JOIN customers c ON i.customer_id = c.id`

func scanSubscription(row *sql.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.ID, &s.RadioTEI, &s.ISSINumber, &s.AstridAlias, &s.Active, &s.DMOOnly, &s.CreatedAt,
		&s.ISSIAlias, &s.CustomerName, &s.CustomerOwner,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresSubscriptionsRepo) GetByISSI(ctx context.Context, issi int64) (*domain.Subscription, error) {
	return scanSubscription(r.db.QueryRowContext(ctx, subscriptionSelect+` WHERE s.issi_number = $1`, issi))
}

func (r *PostgresSubscriptionsRepo) GetByTEI(ctx context.Context, tei int64) (*domain.Subscription, error) {
	return scanSubscription(r.db.QueryRowContext(ctx, subscriptionSelect+` WHERE s.radio_tei = $1`, tei))
}

func (r *PostgresSubscriptionsRepo) Create(ctx context.Context, tei, issi int64, alias string) (*domain.Subscription, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := ensureRadioTx(ctx, tx, tei); err != nil {
		return nil, err
	}
	if err := ensureISSITx(ctx, tx, issi); err != nil {
		return nil, err
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO subscriptions (radio_tei, issi_number, astrid_alias, active, dmo_only)
		 VALUES ($1, $2, $3, true, false)
		 RETURNING id`,
		tei, issi, alias,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByTEI(ctx, tei)
}

func (r *PostgresSubscriptionsRepo) Rebind(ctx context.Context, id int64, tei, issi int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureRadioTx(ctx, tx, tei); err != nil {
		return err
	}
	if err := ensureISSITx(ctx, tx, issi); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE subscriptions SET radio_tei = $2, issi_number = $3 WHERE id = $1`,
		id, tei, issi,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r *PostgresSubscriptionsRepo) List(ctx context.Context, filters SubscriptionFilters, page, size int) ([]*domain.Subscription, int, error) {
	where := []string{}
	args := []any{}
	argN := 1

	if filters.Search != "" {
		where = append(where, fmt.Sprintf(
			"(s.radio_tei::text ILIKE $%d OR s.issi_number::text ILIKE $%d OR s.astrid_alias ILIKE $%d OR i.alias ILIKE $%d)",
			argN, argN, argN, argN))
		args = append(args, "%"+filters.Search+"%")
		argN++
	}
	if filters.Active != nil {
		where = append(where, fmt.Sprintf("s.active = $%d", argN))
		args = append(args, *filters.Active)
		argN++
	}
	if filters.DMOOnly != nil {
		where = append(where, fmt.Sprintf("s.dmo_only = $%d", argN))
		args = append(args, *filters.DMOOnly)
		argN++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	queryCount := `
		SELECT COUNT(*)
		FROM subscriptions s
		JOIN issis i ON s.issi_number = i.number
		LEFT JOIN customers c ON i.customer_id = c.id
		` + whereClause

	var total int
	if err := r.db.QueryRowContext(ctx, queryCount, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 100
	}
	offset := (page - 1) * size

	args = append(args, size, offset)
	query := subscriptionSelect + `
		` + whereClause + `
		ORDER BY s.issi_number
		LIMIT $` + fmt.Sprintf("%d", argN) + ` OFFSET $` + fmt.Sprintf("%d", argN+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []*domain.Subscription{}
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(
			&s.ID, &s.RadioTEI, &s.ISSINumber, &s.AstridAlias, &s.Active, &s.DMOOnly, &s.CreatedAt,
			&s.ISSIAlias, &s.CustomerName, &s.CustomerOwner,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, &s)
	}
	return out, total, rows.Err()
}
