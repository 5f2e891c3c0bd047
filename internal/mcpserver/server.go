// Package mcpserver exposes pick validation and grid placement as MCP tools
// so an agent can check its own picks before handing them over.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/omarshaarawi/poolpicks/internal/pool"
)

type Service interface {
	ImportPicks(data []byte) ([]pool.Pick, error)
	Check(week int, picks []pool.Pick) pool.ValidationResult
	Layout() pool.Layout
	ScaleFor(week int) int
	WeekPicks(ctx context.Context, week int) ([]pool.Pick, error)
}

type ValidatePicksArgs struct {
	Week  int    `json:"week" jsonschema:"NFL week the picks are for (required)"`
	Picks string `json:"picks" jsonschema:"Pick list as JSON: an array or an object with a picks array (required)"`
}

type CellForArgs struct {
	Confidence    int `json:"confidence" jsonschema:"Confidence value (required)"`
	Week          int `json:"week" jsonschema:"NFL week (required)"`
	ConfidenceMax int `json:"confidence_max,omitempty" jsonschema:"Scale of the week (0 = configured scale)"`
}

type WeekArgs struct {
	Week int `json:"week" jsonschema:"NFL week (required)"`
}

type validation struct {
	Week          int         `json:"week"`
	ConfidenceMax int         `json:"confidence_max"`
	Valid         bool        `json:"valid"`
	Errors        []string    `json:"errors,omitempty"`
	Picks         []pool.Pick `json:"picks,omitempty"`
}

type cellResult struct {
	Cell string `json:"cell"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

type tools struct {
	service Service
}

func New(service Service, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "poolpicks",
			Version: version,
		},
		nil,
	)

	t := &tools{service: service}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_picks",
		Description: "Validate a week's confidence picks and list every problem found",
	}, t.validatePicks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cell_for",
		Description: "Spreadsheet cell (A1 notation) a confidence value occupies for a week",
	}, t.cellFor)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "week_picks",
		Description: "Picks currently recorded in the grid for a week, highest confidence first",
	}, t.weekPicks)

	return server
}

func (t *tools) validatePicks(ctx context.Context, req *mcp.CallToolRequest, args ValidatePicksArgs) (*mcp.CallToolResult, any, error) {
	if args.Week == 0 {
		return toolError(fmt.Errorf("week is required")), nil, nil
	}
	picks, err := t.service.ImportPicks([]byte(args.Picks))
	if err != nil {
		return toolError(err), nil, nil
	}

	result := t.service.Check(args.Week, picks)
	out := validation{
		Week:          args.Week,
		ConfidenceMax: result.ConfidenceMax,
		Valid:         result.Valid(),
	}
	for _, e := range result.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	if out.Valid {
		out.Picks = picks
		pool.SortByConfidence(out.Picks)
	}
	return toolJSON(out)
}

func (t *tools) cellFor(ctx context.Context, req *mcp.CallToolRequest, args CellForArgs) (*mcp.CallToolResult, any, error) {
	confidenceMax := args.ConfidenceMax
	if confidenceMax == 0 {
		confidenceMax = t.service.ScaleFor(args.Week)
	}
	cell, err := t.service.Layout().CellFor(args.Confidence, args.Week, confidenceMax)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(cellResult{Cell: cell.String(), Row: cell.Row, Col: cell.Col})
}

func (t *tools) weekPicks(ctx context.Context, req *mcp.CallToolRequest, args WeekArgs) (*mcp.CallToolResult, any, error) {
	picks, err := t.service.WeekPicks(ctx, args.Week)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(picks)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	res, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(res)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
