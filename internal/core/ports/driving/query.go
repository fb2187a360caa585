package driving

import (
	"context"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// QueryRouter classifies questions and runs their data templates.
type QueryRouter interface {
	// Classify maps query text to an intent and template. It is pure.
	Classify(query string) domain.Route

	// Execute runs a route's template against the profile store.
	Execute(ctx context.Context, route domain.Route) (*domain.QueryResult, error)

	// Retrieve classifies and executes in one step.
	Retrieve(ctx context.Context, query string) (domain.Route, *domain.QueryResult, error)
}

// RetrievalService answers questions from retrieved data.
type RetrievalService interface {
	// Ask never fails; it falls back to a deterministic answer.
	Ask(ctx context.Context, query string) domain.Answer
}

// FloatService exposes the float catalogue.
type FloatService interface {
	// Profiles returns every profile recorded by a float.
	Profiles(ctx context.Context, instrumentID int64) ([]domain.Profile, error)

	// Locations returns the latest position of every float.
	Locations(ctx context.Context) ([]domain.FloatPosition, error)

	// Stats summarises store contents.
	Stats(ctx context.Context) (domain.FloatStats, error)
}
