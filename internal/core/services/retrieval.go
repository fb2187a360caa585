package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Retrieval defaults.
const (
	DefaultRelatedFloats  = 3
	DefaultAnswerTimeout  = 30 * time.Second
	defaultAnswerTemplate = "Context data from database:\n%s\n\nUser's question:\n%s"
)

// Fallback messages for questions the data cannot answer.
const (
	MessageNoData     = "No data available to answer this question: the profile database returned no matching records."
	MessageNoSpecific = "I don't have specific data to answer that question. " +
		"Try asking about average temperature or salinity, the latest profile, the deepest floats, " +
		"float locations or profile counts."
)

// RetrievalConfig holds optional retrieval settings.
type RetrievalConfig struct {
	// RelatedFloats is how many nearest floats are attached. Zero uses the default.
	RelatedFloats int

	// Timeout bounds the generation call. Zero uses the default.
	Timeout time.Duration
}

// RetrievalService grounds answers in data selected by the query router.
// The vector search and LLM services are optional (can be nil).
type RetrievalService struct {
	router  driving.QueryRouter
	search  driving.VectorSearchService
	llm     driven.LLMService
	prompts driven.PromptStore
	k       int
	timeout time.Duration
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	router driving.QueryRouter,
	search driving.VectorSearchService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg RetrievalConfig,
) *RetrievalService {
	if cfg.RelatedFloats <= 0 {
		cfg.RelatedFloats = DefaultRelatedFloats
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAnswerTimeout
	}
	return &RetrievalService{
		router:  router,
		search:  search,
		llm:     llm,
		prompts: prompts,
		k:       cfg.RelatedFloats,
		timeout: cfg.Timeout,
	}
}

// Ask answers a question. It never fails: every error degrades to the
// deterministic fallback for the classified intent.
func (s *RetrievalService) Ask(ctx context.Context, query string) domain.Answer {
	logger.Section("Ask")

	route, result, err := s.router.Retrieve(ctx, query)
	if err != nil {
		logger.Warn("query execution failed", "intent", route.Intent, "error", err)
		result = &domain.QueryResult{Intent: route.Intent}
	}
	logger.Debug("query routed", "intent", route.Intent, "shape", route.Template.Shape, "empty", result.IsEmpty())

	answer := domain.Answer{
		Query:   query,
		Intent:  route.Intent,
		Context: result,
	}
	if s.search != nil {
		answer.RelatedFloats = s.search.Search(ctx, query, s.k)
	}

	if text, ok := s.generate(ctx, query, result); ok {
		answer.Text = text
		answer.Source = domain.AnswerGenerated
		return answer
	}

	answer.Text = Fallback(route.Intent, result)
	answer.Source = domain.AnswerFallback
	return answer
}

// generate asks the LLM for an answer. It reports false when no usable
// reply arrived within the timeout.
func (s *RetrievalService) generate(ctx context.Context, query string, result *domain.QueryResult) (string, bool) {
	if s.llm == nil {
		return "", false
	}

	contextJSON, err := json.Marshal(result)
	if err != nil {
		logger.Warn("encoding answer context failed", "error", err)
		return "", false
	}

	prompt := fmt.Sprintf(s.answerTemplate(), string(contextJSON), query)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		logger.Warn("answer generation failed, using fallback",
			"model", s.llm.ModelName(), "elapsed", time.Since(start), "error", err)
		return "", false
	}
	if strings.TrimSpace(reply) == "" {
		logger.Warn("answer generation returned nothing, using fallback", "model", s.llm.ModelName())
		return "", false
	}
	return reply, true
}

func (s *RetrievalService) answerTemplate() string {
	if s.prompts == nil {
		return defaultAnswerTemplate
	}
	tpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil || strings.Count(tpl, "%s") != 2 {
		logger.Debug("answer prompt unavailable, using default", "error", err)
		return defaultAnswerTemplate
	}
	return tpl
}

// Fallback renders a deterministic answer from a query result.
// It is a pure function of its inputs.
func Fallback(intent domain.QueryIntent, result *domain.QueryResult) string {
	if intent == domain.IntentUnclassified {
		return MessageNoSpecific
	}
	if result.IsEmpty() {
		return MessageNoData
	}

	var text string
	switch {
	case result.Aggregate != nil:
		agg := result.Aggregate
		text = fmt.Sprintf("The average %s is %.2f %s across %d measurements.",
			agg.Measurement, agg.Mean, agg.Measurement.Unit(), agg.Samples)

	case result.Counts != nil:
		c := result.Counts
		if c.Window > 0 {
			text = fmt.Sprintf("%d profiles were recorded in the last %s.", c.Profiles, formatWindow(c.Window))
		} else {
			text = fmt.Sprintf("The database holds %d profiles from %d distinct floats.", c.Profiles, c.Floats)
		}

	case len(result.Depths) > 0:
		parts := make([]string, len(result.Depths))
		for i, d := range result.Depths {
			parts[i] = fmt.Sprintf("float %d (%.1f dbar)", d.InstrumentID, d.MaxPressure)
		}
		text = "The deepest floats by maximum pressure are " + strings.Join(parts, ", ") + "."

	case intent == domain.IntentLatest:
		p := result.Profiles[0]
		text = fmt.Sprintf("The most recent profile is cycle %d of float %d, observed %s at latitude %.2f, longitude %.2f.",
			p.CycleNumber, p.InstrumentID, p.Timestamp.UTC().Format(time.RFC3339), p.Latitude, p.Longitude)

	default:
		parts := make([]string, len(result.Profiles))
		for i, p := range result.Profiles {
			parts[i] = fmt.Sprintf("float %d at (%.2f, %.2f) on %s",
				p.InstrumentID, p.Latitude, p.Longitude, p.Timestamp.UTC().Format(time.DateOnly))
		}
		text = "Recent float positions: " + strings.Join(parts, "; ") + "."
	}

	if result.Demo {
		text += " (Sample data: the profile database is unavailable.)"
	}
	return text
}

func formatWindow(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "day"
		}
		return fmt.Sprintf("%d days", days)
	}
	return d.String()
}
