package repository

import (
	"context"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// RadiosRepo reference data for physical radio units.
type RadiosRepo interface {
	// Get returns the radio with its subscription state resolved.
	Get(ctx context.Context, tei int64) (*domain.Radio, error)

	// Create inserts a radio, classifying it against the TEI ranges.
	// ErrNoModelForTEI when no range matches.
	Create(ctx context.Context, tei int64) (*domain.Radio, error)

	// Search matches TEI, ISSI number or alias, the way the lookup widget
	// queries radios.
	Search(ctx context.Context, query string, limit int) ([]*domain.Radio, error)

	// SetFireplanID links a radio to its inventory record.
	SetFireplanID(ctx context.Context, tei, fireplanID int64) error
}
