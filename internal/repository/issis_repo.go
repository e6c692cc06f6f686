package repository

import (
	"context"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// ISSIsRepo reference data for subscriber identities.
type ISSIsRepo interface {
	Get(ctx context.Context, number int64) (*domain.ISSI, error)

	// Ensure get-or-creates the ISSI with customer/discipline re-derived
	// from the range tables.
	Ensure(ctx context.Context, number int64) (*domain.ISSI, error)
}
