package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wireloop/llmcore/pkg/events"
	"github.com/wireloop/llmcore/pkg/provider"
	"github.com/wireloop/llmcore/pkg/provider/types"
	"github.com/wireloop/llmcore/pkg/testutil"
)

func TestScanStops_FindsMatchWithinSingleChunk(t *testing.T) {
	hit, idx, matched := scanStops("", "hello\nUser: hi", []string{"\nUser:"})
	require.True(t, hit)
	require.Equal(t, "hello", "hello\nUser: hi"[:idx])
	require.Equal(t, "\nUser:", matched)
}

func TestScanStops_FindsMatchStraddlingChunkBoundary(t *testing.T) {
	// The stop sequence "\nUser:" splits across the already-accumulated tail
	// ("hello\n") and the new chunk ("User: hi") — the carried-over tail is
	// what makes this detectable at all.
	hit, idx, matched := scanStops("hello\n", "User: hi", []string{"\nUser:"})
	require.True(t, hit)
	require.Equal(t, 0, idx)
	require.Equal(t, "\nUser:", matched)
}

func TestScanStops_NoMatch(t *testing.T) {
	hit, _, _ := scanStops("hello ", "world", []string{"\nUser:", "\nBot:"})
	require.False(t, hit)
}

func TestScanStops_EmptyStopListNeverMatches(t *testing.T) {
	hit, _, _ := scanStops("anything", "more text", nil)
	require.False(t, hit)
}

// Native tool mode (§9 note 5): tool calls arrive as typed chunks, and the
// loop terminates on FinishReasonToolCalls rather than a stop-sequence match.
func TestStream_NativeToolMode(t *testing.T) {
	callCount := 0
	model := &testutil.MockLanguageModel{
		DoStreamFunc: func(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
			callCount++
			if callCount == 1 {
				return testutil.NewMockTextStream([]provider.StreamChunk{
					{Type: provider.ChunkTypeToolCall, ToolCall: &types.ToolCall{
						ID: "call-1", ToolName: "add", Arguments: map[string]interface{}{"a": float64(2), "b": float64(3)},
					}},
					{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonToolCalls},
				}), nil
			}
			return testutil.NewMockTextStream([]provider.StreamChunk{
				{Type: provider.ChunkTypeText, Text: "The answer is 5."},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStop},
			}), nil
		},
	}
	o := New(model)

	router := &events.Router{
		OnToolCalls: func(ctx context.Context, calls []types.ToolCall) []events.ToolResult {
			out := make([]events.ToolResult, len(calls))
			for i, c := range calls {
				out[i] = events.ToolResult{ToolCallID: c.ID, Content: []types.ToolResultContentBlock{types.TextContentBlock{Text: "5"}}}
			}
			return out
		},
	}

	res, err := o.Stream(context.Background(), types.NormalizedRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: "what is 2+3?"}}}},
		Tools:    []types.ToolDefinition{{Name: "add"}},
		ToolMode: types.ToolModeNative,
	}, Options{Router: router})
	require.NoError(t, err)
	require.Nil(t, res.Aborted)
	require.Equal(t, 2, callCount)
	require.Equal(t, types.FinishReasonStop, res.FinishReason)
	require.Len(t, res.ToolCalls, 1)
	require.Equal(t, "add", res.ToolCalls[0].ToolName)
}
