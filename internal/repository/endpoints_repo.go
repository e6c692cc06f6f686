package repository

import (
	"context"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/domain"
)

// EndpointsRepo containers and their slots.
type EndpointsRepo interface {
	GetEndpoint(ctx context.Context, id int64) (*domain.Endpoint, error)

	// SearchEndpoints matches endpoint name or container name, for the
	// lookup widget.
	SearchEndpoints(ctx context.Context, query string, limit int) ([]*domain.Endpoint, error)

	ListContainers(ctx context.Context) ([]*domain.Container, error)
}
