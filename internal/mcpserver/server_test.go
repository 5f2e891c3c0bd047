package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/poolpicks/internal/pool"
)

type fakeService struct {
	layout pool.Layout
	grid   map[int][]pool.Pick
}

func (f *fakeService) ImportPicks(data []byte) ([]pool.Pick, error) {
	picks, err := pool.ParsePicks(data)
	if err != nil {
		return nil, err
	}
	return pool.NormalizePicks(picks, pool.DefaultVocabulary()), nil
}

func (f *fakeService) Check(week int, picks []pool.Pick) pool.ValidationResult {
	return pool.Validate(picks, f.ScaleFor(week), pool.WithVocabulary(pool.DefaultVocabulary()))
}

func (f *fakeService) Layout() pool.Layout { return f.layout }

func (f *fakeService) ScaleFor(week int) int { return f.layout.ScaleFor(week) }

func (f *fakeService) WeekPicks(ctx context.Context, week int) ([]pool.Pick, error) {
	return f.grid[week], nil
}

func newTools() *tools {
	layout := pool.DefaultLayout()
	layout.Scales = map[int]int{14: 14, 18: 17}
	return &tools{service: &fakeService{
		layout: layout,
		grid:   map[int][]pool.Pick{3: {{Team: "KC", Confidence: 2}, {Team: "BUF", Confidence: 1}}},
	}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestValidatePicks(t *testing.T) {
	tl := newTools()
	ctx := context.Background()

	res, _, err := tl.validatePicks(ctx, nil, ValidatePicksArgs{Week: 3, Picks: `[{"game":"KC@NYG","team":"Chiefs","confidence":20}]`})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var out validation
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.False(t, out.Valid)
	assert.Equal(t, 20, out.ConfidenceMax)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "incomplete pick set")
	assert.Empty(t, out.Picks)

	res, _, err = tl.validatePicks(ctx, nil, ValidatePicksArgs{Week: 3, Picks: "not json"})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, _, err = tl.validatePicks(ctx, nil, ValidatePicksArgs{Picks: "[]"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestCellFor(t *testing.T) {
	tl := newTools()
	ctx := context.Background()

	tests := []struct {
		args CellForArgs
		want string
	}{
		{CellForArgs{Confidence: 20, Week: 1}, "B3"},
		{CellForArgs{Confidence: 1, Week: 18}, "S19"},
		{CellForArgs{Confidence: 14, Week: 14}, "O3"},
		{CellForArgs{Confidence: 1, Week: 1, ConfidenceMax: 20}, "B22"},
	}
	for _, tt := range tests {
		res, _, err := tl.cellFor(ctx, nil, tt.args)
		require.NoError(t, err)
		var out cellResult
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
		assert.Equal(t, tt.want, out.Cell)
	}

	res, _, err := tl.cellFor(ctx, nil, CellForArgs{Confidence: 21, Week: 1})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "error:")
}

func TestWeekPicks(t *testing.T) {
	res, _, err := newTools().weekPicks(context.Background(), nil, WeekArgs{Week: 3})
	require.NoError(t, err)

	var picks []pool.Pick
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &picks))
	assert.Equal(t, []pool.Pick{{Team: "KC", Confidence: 2}, {Team: "BUF", Confidence: 1}}, picks)
}

func TestServerOverTransport(t *testing.T) {
	ctx := context.Background()
	server := New(newTools().service, "test")

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "cell_for",
		Arguments: map[string]any{"confidence": 17, "week": 18},
	})
	require.NoError(t, err)
	assert.Contains(t, text(t, res), `"cell": "S3"`)
}
