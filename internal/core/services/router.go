package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
)

// Ensure Router implements the interface.
var _ driving.QueryRouter = (*Router)(nil)

// Template limits and windows.
const (
	LatestLimit   = 1
	DeepestLimit  = 5
	LocationLimit = 10
	RecentWindow  = 7 * 24 * time.Hour
)

// RouteRule maps a keyword predicate to an intent and its query template.
// A rule matches when every AllOf keyword is present, or any AnyOf keyword
// is present. The rule with neither set always matches.
type RouteRule struct {
	AllOf    []string
	AnyOf    []string
	Template domain.QueryTemplate
}

// Matches reports whether the rule applies to lower-cased text.
func (r RouteRule) Matches(text string) bool {
	switch {
	case len(r.AllOf) > 0:
		for _, kw := range r.AllOf {
			if !strings.Contains(text, kw) {
				return false
			}
		}
		return true
	case len(r.AnyOf) > 0:
		for _, kw := range r.AnyOf {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// Predicate describes the rule in words.
func (r RouteRule) Predicate() string {
	quote := func(kws []string, sep string) string {
		q := make([]string, len(kws))
		for i, kw := range kws {
			q[i] = fmt.Sprintf("%q", kw)
		}
		return strings.Join(q, sep)
	}
	switch {
	case len(r.AllOf) > 0:
		return quote(r.AllOf, " AND ")
	case len(r.AnyOf) > 0:
		return quote(r.AnyOf, " OR ")
	default:
		return "otherwise"
	}
}

// defaultRules is the priority-ordered rule table. The first match wins.
var defaultRules = []RouteRule{
	{
		AllOf: []string{"average", "temperature"},
		Template: domain.QueryTemplate{
			Intent:      domain.IntentAverageTemperature,
			Shape:       domain.ShapeAggregate,
			Measurement: domain.MeasurementTemperature,
		},
	},
	{
		AnyOf: []string{"latest", "most recent"},
		Template: domain.QueryTemplate{
			Intent: domain.IntentLatest,
			Shape:  domain.ShapeTopN,
			Limit:  LatestLimit,
		},
	},
	{
		AnyOf: []string{"depth", "deep"},
		Template: domain.QueryTemplate{
			Intent:      domain.IntentDepth,
			Shape:       domain.ShapeGroupBy,
			Measurement: domain.MeasurementPressure,
			Limit:       DeepestLimit,
		},
	},
	{
		AnyOf: []string{"salinity"},
		Template: domain.QueryTemplate{
			Intent:      domain.IntentSalinity,
			Shape:       domain.ShapeAggregate,
			Measurement: domain.MeasurementSalinity,
		},
	},
	{
		AnyOf: []string{"location", "where"},
		Template: domain.QueryTemplate{
			Intent: domain.IntentLocation,
			Shape:  domain.ShapeTopN,
			Limit:  LocationLimit,
		},
	},
	{
		AnyOf: []string{"how many", "count"},
		Template: domain.QueryTemplate{
			Intent: domain.IntentCount,
			Shape:  domain.ShapeCount,
		},
	},
	{
		AnyOf: []string{"today", "recent"},
		Template: domain.QueryTemplate{
			Intent: domain.IntentRecentWindow,
			Shape:  domain.ShapeCount,
			Window: RecentWindow,
		},
	},
	{
		Template: domain.QueryTemplate{Intent: domain.IntentUnclassified},
	},
}

// Router classifies questions by an ordered keyword rule table and runs the
// matching read-only template. Classification is pure; Execute only reads.
type Router struct {
	rules   []RouteRule
	queries driven.ProfileQueries
	now     func() time.Time
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterClock sets the clock that count windows are relative to.
func WithRouterClock(now func() time.Time) RouterOption {
	return func(r *Router) {
		r.now = now
	}
}

// NewRouter creates a router over the default rule table.
func NewRouter(queries driven.ProfileQueries, opts ...RouterOption) *Router {
	r := &Router{
		rules:   defaultRules,
		queries: queries,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rules returns a copy of the rule table in priority order.
func (r *Router) Rules() []RouteRule {
	out := make([]RouteRule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Classify maps query text to the first matching rule.
func (r *Router) Classify(query string) domain.Route {
	text := strings.ToLower(query)
	for _, rule := range r.rules {
		if rule.Matches(text) {
			return domain.Route{Intent: rule.Template.Intent, Template: rule.Template}
		}
	}
	return domain.Route{Intent: domain.IntentUnclassified}
}

// Execute runs a route's template. An empty template yields an empty result.
func (r *Router) Execute(ctx context.Context, route domain.Route) (*domain.QueryResult, error) {
	ctx, sampled := driven.WithSampleTracking(ctx)

	tpl := route.Template
	result := &domain.QueryResult{Intent: route.Intent}

	switch tpl.Shape {
	case domain.ShapeNone:
		return result, nil

	case domain.ShapeAggregate:
		agg, err := r.queries.AverageMeasurement(ctx, tpl.Measurement)
		if err != nil {
			return nil, fmt.Errorf("average %s: %w", tpl.Measurement, err)
		}
		if agg.Samples > 0 {
			result.Aggregate = &agg
		}

	case domain.ShapeTopN:
		profiles, err := r.queries.LatestProfiles(ctx, tpl.Limit)
		if err != nil {
			return nil, fmt.Errorf("latest profiles: %w", err)
		}
		result.Profiles = profiles

	case domain.ShapeGroupBy:
		depths, err := r.queries.DeepestFloats(ctx, tpl.Limit)
		if err != nil {
			return nil, fmt.Errorf("deepest floats: %w", err)
		}
		result.Depths = depths

	case domain.ShapeCount:
		var since time.Time
		if tpl.Window > 0 {
			since = r.now().Add(-tpl.Window)
		}
		counts, err := r.queries.CountProfiles(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("count profiles: %w", err)
		}
		counts.Window = tpl.Window
		if tpl.Window > 0 {
			// Distinct floats are only reported for all-time counts.
			counts.Floats = 0
		}
		result.Counts = &counts

	default:
		return nil, fmt.Errorf("%w: template shape %q", domain.ErrInvalidInput, tpl.Shape)
	}

	result.Demo = sampled()
	return result, nil
}

// Retrieve classifies and executes in one step.
func (r *Router) Retrieve(ctx context.Context, query string) (domain.Route, *domain.QueryResult, error) {
	route := r.Classify(query)
	result, err := r.Execute(ctx, route)
	return route, result, err
}
