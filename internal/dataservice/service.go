// Package dataservice is the client side of the world data API: the
// Service interface consumed by the renderers and the overlay, an HTTP
// implementation and a static in-memory implementation.
package dataservice

import (
	"context"

	"github.com/spacehole-rogue/starview/internal/apperr"
	"github.com/spacehole-rogue/starview/internal/world"
)

// Result is the envelope every data-service call answers with.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// OK wraps data in a successful Result.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds an unsuccessful Result.
func Fail[T any](message string) Result[T] {
	return Result[T]{Message: message}
}

// Service is the read side of the game server the view draws from.
type Service interface {
	FetchUniverseSummary(ctx context.Context, server string) (Result[world.UniverseSummary], error)
	FetchGalaxyRegions(ctx context.Context, server string, galaxy int) (Result[[]world.RegionSummary], error)
	FetchRegionSystems(ctx context.Context, server string, galaxy, region int) (Result[[]world.SystemSummary], error)
	FetchSystemBodies(ctx context.Context, server string, galaxy, region, system int) (Result[[]world.Body], error)
	// FetchEntities lists dynamic entities inside scope.
	FetchEntities(ctx context.Context, scope world.SpatialAddress) (Result[[]world.EntityRecord], error)
	// FetchEntityDetail returns the entity's movement order, if any.
	FetchEntityDetail(ctx context.Context, id string) (Result[world.EntityDetail], error)
}

// Unwrap folds an unsuccessful Result and a returned error into the same
// transient fetch failure, so callers handle both in one branch.
func Unwrap[T any](op string, r Result[T], err error) (T, error) {
	if err != nil {
		var zero T
		return zero, apperr.Transient(op, "request failed", err)
	}
	if !r.Success {
		var zero T
		msg := r.Message
		if msg == "" {
			msg = "unsuccessful response"
		}
		return zero, apperr.Transient(op, msg, nil)
	}
	return r.Data, nil
}
