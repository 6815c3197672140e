package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/treetrim/pkg/adapters/memory"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/aretw0/treetrim/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	applied []domain.ParameterAdjustment
	retrain int
}

func (g *stubGateway) ApplyAdjustment(_ context.Context, p domain.Parameter, v float64) error {
	g.applied = append(g.applied, domain.ParameterAdjustment{Parameter: p, Value: v})
	return nil
}

func (g *stubGateway) Retrain(context.Context) error {
	g.retrain++
	return nil
}

func leafPayload() map[string]any {
	return map[string]any{
		"id":                "7",
		"node_depth":        3.0,
		"impurity":          []any{"entropy", 0.0},
		"n_node_samples":    12.0,
		"node_class_counts": []any{[]any{"virginica", 12.0}},
	}
}

func newTestServer(t *testing.T) (*Server, *stubGateway, string) {
	t.Helper()
	gw := &stubGateway{}
	s := NewServer(session.NewManager(memory.NewStore(), gw))

	resp, err := s.handleCreateSession(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, domain.PhaseIdle, resp.Phase)
	return s, gw, resp.SessionID
}

func TestServer_Tools(t *testing.T) {
	ctx := context.Background()
	s, gw, id := newTestServer(t)

	resp, err := s.handleSelectNode(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": id,
		"node":       leafPayload(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInspecting, resp.Phase)
	require.Len(t, resp.OfferedReasons, 2)
	assert.Equal(t, domain.ReasonInsufficientLeafSamples, resp.OfferedReasons[0].ID)
	assert.Contains(t, resp.Summary, "Number of samples: 12")

	resp, err = s.handleSelectReason(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": id,
		"reason":     "insufficient_leaf_samples",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseStaged, resp.Phase)
	assert.True(t, resp.RetrainEnabled)
	assert.Equal(t, &domain.ParameterAdjustment{Parameter: domain.ParamMinSamplesLeaf, Value: 13}, resp.Staged)

	resp, err = s.handleCancel(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": id})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInspecting, resp.Phase)

	_, err = s.handleSelectReason(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": id, "reason": "limit_depth"})
	require.NoError(t, err)

	resp, err = s.handleConfirmRetrain(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": id})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, resp.Phase)
	assert.Empty(t, resp.OfferedReasons)
	assert.Equal(t, []domain.ParameterAdjustment{{Parameter: domain.ParamMaxDepth, Value: 3}}, gw.applied)
	assert.Equal(t, 1, gw.retrain)

	resp, err = s.handleGetState(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": id})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, resp.Phase)
}

func TestServer_NodeAsJSONString(t *testing.T) {
	s, _, id := newTestServer(t)
	raw, err := json.Marshal(leafPayload())
	require.NoError(t, err)

	resp, err := s.handleSelectNode(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"session_id": id,
		"node":       string(raw),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInspecting, resp.Phase)
}

func TestServer_Errors(t *testing.T) {
	ctx := context.Background()
	s, _, id := newTestServer(t)

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"missing session", func() error {
			_, err := s.handleGetState(ctx, mcp.CallToolRequest{}, map[string]any{})
			return err
		}, nil},
		{"unknown session", func() error {
			_, err := s.handleGetState(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "ghost"})
			return err
		}, domain.ErrSessionNotFound},
		{"reason while idle", func() error {
			_, err := s.handleSelectReason(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": id, "reason": "limit_depth"})
			return err
		}, domain.ErrNoActiveNode},
		{"confirm while idle", func() error {
			_, err := s.handleConfirmRetrain(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": id})
			return err
		}, domain.ErrNothingStaged},
		{"bad node", func() error {
			_, err := s.handleSelectNode(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": id, "node": 42})
			return err
		}, domain.ErrInvalidSnapshot},
		{"node string not json", func() error {
			_, err := s.handleSelectNode(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": id, "node": "{"})
			return err
		}, domain.ErrInvalidSnapshot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestServer_ListReasons(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"leaf": true}
	res, err := s.handleListReasons(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var reasons []domain.TrimReason
	require.NoError(t, json.Unmarshal([]byte(text.Text), &reasons))
	assert.Len(t, reasons, 2)
}

func TestServer_ReasonsResource(t *testing.T) {
	s, _, _ := newTestServer(t)

	contents, err := s.handleReasonsResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, reasonsURI, text.URI)
	var reasons []domain.TrimReason
	require.NoError(t, json.Unmarshal([]byte(text.Text), &reasons))
	assert.Len(t, reasons, 4)
}
