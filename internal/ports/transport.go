package ports

import (
	"context"

	"epages-rest-layer/internal/domain"
)

// Transport performs exactly one HTTP call against the connected shop.
//
// A non-nil Response may come with a KindEmptyBody error when the status was
// accepted but the body carried no JSON.
type Transport interface {
	Do(ctx context.Context, req domain.Request) (*domain.Response, error)
}
