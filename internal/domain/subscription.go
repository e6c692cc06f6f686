package domain

import (
	"database/sql"
	"time"
)

// Subscription the live 1:1 binding between a radio (TEI) and an ISSI.
// Both sides are unique: a radio holds at most one subscription and an ISSI
// belongs to at most one subscription at any time.
type Subscription struct {
	ID          int64        `db:"id"`
	RadioTEI    int64        `db:"radio_tei"`
	ISSINumber  int64        `db:"issi_number"`
	AstridAlias string       `db:"astrid_alias"`
	Active      bool         `db:"active"`
	DMOOnly     bool         `db:"dmo_only"`
	CreatedAt   sql.NullTime `db:"created_at"`

	ISSIAlias     sql.NullString `db:"issi_alias"` // joined
	CustomerName  sql.NullString `db:"customer_name"`
	CustomerOwner sql.NullBool   `db:"customer_owner"`
}

func (s *Subscription) ToJSON() map[string]any {
	m := map[string]any{
		"id":           s.ID,
		"tei":          s.RadioTEI,
		"issi":         s.ISSINumber,
		"astrid_alias": s.AstridAlias,
		"active":       s.Active,
		"dmo_only":     s.DMOOnly,
	}
	if s.CreatedAt.Valid {
		m["created_at"] = s.CreatedAt.Time.Format(time.RFC3339)
	}
	if s.ISSIAlias.Valid {
		m["issi_alias"] = s.ISSIAlias.String
	}
	if s.CustomerName.Valid {
		m["customer"] = s.CustomerName.String
	}
	return m
}

// Pair the (TEI, ISSI) identity of a subscription, the unit of the
// feed reconciliation diff.
type Pair struct {
	TEI  int64
	ISSI int64
}

// SubscriptionScope selects which live subscriptions a feed is
// authoritative for. Subscriptions outside the scope are never touched by
// reconciliation, so independent feeds over disjoint identity ranges can
// coexist.
type SubscriptionScope struct {
	// OwnersOnly limits the scope to subscriptions whose ISSI belongs to a
	// customer flagged as owner.
	OwnersOnly bool
	// IncludeDMOOnly widens the scope to DMO-only subscriptions, which the
	// provisioning export does not carry.
	IncludeDMOOnly bool
}

// Key is the lock key component for this scope.
func (s SubscriptionScope) Key() string {
	k := "all"
	if s.OwnersOnly {
		k = "owners"
	}
	if s.IncludeDMOOnly {
		k += "+dmo"
	}
	return k
}
