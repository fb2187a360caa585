package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for OceanAI resources.
	uriScheme = "oceanai://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the latest float positions.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "floats/locations",
		Name:        "float-locations",
		Description: "Latest known position of every ARGO float",
		MIMEType:    "application/json",
	}, s.handleLocationsResource)

	// Template for a float's profiles.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "floats/{floatId}/profiles",
		Name:        "float-profiles",
		Description: "Every profile recorded by a float, with measurement arrays",
		MIMEType:    "application/json",
	}, s.handleProfilesResource)
}

// handleLocationsResource returns the latest position of every float.
func (s *Server) handleLocationsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Floats == nil {
		return jsonResult(req.Params.URI, []domain.FloatPosition{})
	}

	positions, err := s.ports.Floats.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing float locations: %w", err)
	}
	if positions == nil {
		positions = []domain.FloatPosition{}
	}

	return jsonResult(req.Params.URI, positions)
}

// profileResource is the JSON shape of one profile in a resource.
type profileResource struct {
	CycleNumber int       `json:"cycle_number"`
	ObservedAt  string    `json:"profile_time"`
	TimeSource  string    `json:"time_source"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Pressure    []float64 `json:"pressure"`
	Temperature []float64 `json:"temperature"`
	Salinity    []float64 `json:"salinity"`
	SourceFile  string    `json:"source_file"`
}

// handleProfilesResource returns every profile of one float.
func (s *Server) handleProfilesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Floats == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	floatID := extractFloatID(req.Params.URI)
	if floatID <= 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	profiles, err := s.ports.Floats.Profiles(ctx, floatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("listing profiles: %w", err)
	}

	out := make([]profileResource, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		out[i] = profileResource{
			CycleNumber: p.CycleNumber,
			ObservedAt:  p.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			TimeSource:  p.TimeSource.String(),
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
			Pressure:    p.Pressure,
			Temperature: p.Temperature,
			Salinity:    p.Salinity,
			SourceFile:  p.SourceFile,
		}
	}

	return jsonResult(req.Params.URI, out)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractFloatID extracts the float ID from a URI like oceanai://floats/{floatId}/profiles.
// It returns 0 when the URI does not match.
func extractFloatID(uri string) int64 {
	const prefix = uriScheme + "floats/"
	const suffix = "/profiles"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return 0
	}

	raw := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
