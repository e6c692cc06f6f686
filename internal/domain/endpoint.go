package domain

import "database/sql"

// Container a physical or organizational holder of endpoints: a vehicle,
// a dispatch post, a storage cabinet. Containers nest.
type Container struct {
	ID            int64          `db:"id"`
	Name          string         `db:"name"`
	ParentID      sql.NullInt64  `db:"parent_id"`
	ShowInListing bool           `db:"show_in_listing"`
	VehicleID     sql.NullString `db:"vehicle_id"` // linked fleet vehicle, if any
}

func (c *Container) ToJSON() map[string]any {
	m := map[string]any{
		"id":              c.ID,
		"name":            c.Name,
		"show_in_listing": c.ShowInListing,
	}
	if c.ParentID.Valid {
		m["parent_id"] = c.ParentID.Int64
	}
	if c.VehicleID.Valid {
		m["vehicle_id"] = c.VehicleID.String
	}
	return m
}

// Endpoint a logical slot inside a container that holds at most one radio
// at a time, unless AllowsMultiple is set (e.g. a spare drawer).
type Endpoint struct {
	ID             int64  `db:"id"`
	ContainerID    int64  `db:"container_id"`
	Name           string `db:"name"`
	AllowsMultiple bool   `db:"allows_multiple"`

	ContainerName sql.NullString `db:"container_name"` // joined
}

// Label the "container – endpoint" display form used in search results.
func (e *Endpoint) Label() string {
	if e.ContainerName.Valid {
		return e.ContainerName.String + " – " + e.Name
	}
	return e.Name
}

func (e *Endpoint) ToJSON() map[string]any {
	m := map[string]any{
		"id":              e.ID,
		"container_id":    e.ContainerID,
		"name":            e.Name,
		"allows_multiple": e.AllowsMultiple,
		"label":           e.Label(),
	}
	return m
}
