package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// defaultSearchLimit is the number of floats search_floats returns when no limit is given.
const defaultSearchLimit = 5

// SearchFloatsInput is the input schema for the search_floats tool.
type SearchFloatsInput struct {
	Query string `json:"query" jsonschema:"free text describing the floats to find, e.g. a platform number or region"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of floats to return (default 5)"`
}

// SearchFloatsOutput is the output schema for the search_floats tool.
type SearchFloatsOutput struct {
	Matches []FloatMatchOutput `json:"matches"`
	Count   int                `json:"count"`
}

// FloatMatchOutput is a single search_floats match.
type FloatMatchOutput struct {
	FloatID  int64   `json:"float_id"`
	Distance float64 `json:"distance"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"a question about the ARGO float database"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer        string              `json:"answer"`
	Intent        string              `json:"intent"`
	Source        string              `json:"source"`
	Demo          bool                `json:"demo,omitempty"`
	Context       *domain.QueryResult `json:"context,omitempty"`
	RelatedFloats []int64             `json:"related_floats,omitempty"`
}

// FloatProfilesInput is the input schema for the float_profiles tool.
type FloatProfilesInput struct {
	FloatID int64 `json:"float_id" jsonschema:"the float platform number, e.g. 1902672"`
}

// FloatProfilesOutput is the output schema for the float_profiles tool.
type FloatProfilesOutput struct {
	FloatID  int64           `json:"float_id"`
	Profiles []ProfileOutput `json:"profiles"`
	Count    int             `json:"count"`
}

// ProfileOutput summarises one profile without its measurement arrays.
type ProfileOutput struct {
	CycleNumber int       `json:"cycle_number"`
	ObservedAt  time.Time `json:"profile_time"`
	TimeSource  string    `json:"time_source"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Levels      int       `json:"levels"`
	MaxPressure float64   `json:"max_pressure"`
}

// ClassifyQueryInput is the input schema for the classify_query tool.
type ClassifyQueryInput struct {
	Question string `json:"question" jsonschema:"the question to classify"`
}

// ClassifyQueryOutput is the output schema for the classify_query tool.
type ClassifyQueryOutput struct {
	Intent      string `json:"intent"`
	Description string `json:"description"`
	Shape       string `json:"shape,omitempty"`
	Measurement string `json:"measurement,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Window      string `json:"window,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_floats",
		Description: "Find ARGO floats whose description is closest to the query",
	}, s.handleSearchFloats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the ARGO profile database",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "float_profiles",
		Description: "List every profile recorded by a float",
	}, s.handleFloatProfiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_query",
		Description: "Show which data query a question maps to",
	}, s.handleClassifyQuery)
}

// handleSearchFloats handles the search_floats tool invocation.
func (s *Server) handleSearchFloats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchFloatsInput,
) (*mcp.CallToolResult, SearchFloatsOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchFloatsOutput{}, errors.New("query is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	output := SearchFloatsOutput{Matches: []FloatMatchOutput{}}
	if s.ports.Search == nil {
		return nil, output, nil
	}

	for _, m := range s.ports.Search.Nearest(ctx, input.Query, limit) {
		output.Matches = append(output.Matches, FloatMatchOutput{FloatID: m.InstrumentID, Distance: float64(m.Distance)})
	}
	output.Count = len(output.Matches)

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	answer := s.ports.Retrieval.Ask(ctx, input.Question)

	output := AskOutput{
		Answer:        answer.Text,
		Intent:        answer.Intent.String(),
		Source:        string(answer.Source),
		Context:       answer.Context,
		RelatedFloats: answer.RelatedFloats,
	}
	if answer.Context != nil {
		output.Demo = answer.Context.Demo
	}

	return nil, output, nil
}

// handleFloatProfiles handles the float_profiles tool invocation.
func (s *Server) handleFloatProfiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FloatProfilesInput,
) (*mcp.CallToolResult, FloatProfilesOutput, error) {
	if s.ports.Floats == nil {
		return nil, FloatProfilesOutput{}, errors.New("float catalogue is not available")
	}

	profiles, err := s.ports.Floats.Profiles(ctx, input.FloatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, FloatProfilesOutput{}, fmt.Errorf("no data found for ARGO float %d", input.FloatID)
		}
		return nil, FloatProfilesOutput{}, err
	}

	output := FloatProfilesOutput{
		FloatID:  input.FloatID,
		Profiles: make([]ProfileOutput, len(profiles)),
		Count:    len(profiles),
	}
	for i := range profiles {
		output.Profiles[i] = summariseProfile(&profiles[i])
	}

	return nil, output, nil
}

// handleClassifyQuery handles the classify_query tool invocation.
func (s *Server) handleClassifyQuery(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyQueryInput,
) (*mcp.CallToolResult, ClassifyQueryOutput, error) {
	route := s.ports.Router.Classify(input.Question)

	output := ClassifyQueryOutput{
		Intent:      route.Intent.String(),
		Description: route.Intent.Description(),
		Shape:       string(route.Template.Shape),
		Measurement: string(route.Template.Measurement),
		Limit:       route.Template.Limit,
	}
	if route.Template.Window > 0 {
		output.Window = route.Template.Window.String()
	}

	return nil, output, nil
}

func summariseProfile(p *domain.Profile) ProfileOutput {
	out := ProfileOutput{
		CycleNumber: p.CycleNumber,
		ObservedAt:  p.Timestamp,
		TimeSource:  p.TimeSource.String(),
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Levels:      p.Levels(),
	}
	for _, v := range p.Pressure {
		if v > out.MaxPressure {
			out.MaxPressure = v
		}
	}
	return out
}
