package repository

import (
	"context"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// VehiclesRepo mirror of the fireplan fleet.
type VehiclesRepo interface {
	// Upsert writes one sync batch, keyed on the fireplan vehicle id.
	Upsert(ctx context.Context, vehicles []*domain.Vehicle) (int, error)

	List(ctx context.Context, search string, limit int) ([]*domain.Vehicle, error)

	// MatchByNumber resolves a dispatch name to a vehicle. The feed names
	// vehicles either by their exact number or by the prefix before " -".
	MatchByNumber(ctx context.Context, name string) (*domain.Vehicle, error)

	// ReplaceVectors writes the full vector set of one sync run; vectors
	// absent from the batch are removed.
	ReplaceVectors(ctx context.Context, vectors []*domain.Vector) (int, error)

	ListVectors(ctx context.Context) ([]*domain.Vector, error)
}
