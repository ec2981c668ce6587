package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wireloop/llmcore/pkg/ai"
	"github.com/wireloop/llmcore/pkg/events"
	"github.com/wireloop/llmcore/pkg/provider"
	"github.com/wireloop/llmcore/pkg/provider/types"
	"github.com/wireloop/llmcore/pkg/testutil"
)

// sequencedStream hands DoStream calls a fresh pre-built MockTextStream per
// backend round-trip, in order, so a test can script a multi-iteration
// conversation (§8 S3/S4 scenarios need two distinct backend round-trips).
func sequencedStream(t *testing.T, rounds [][]provider.StreamChunk) func(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
	i := 0
	return func(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
		if i >= len(rounds) {
			t.Fatalf("backend called more times (%d) than scripted (%d)", i+1, len(rounds))
		}
		chunks := rounds[i]
		i++
		return testutil.NewMockTextStream(chunks), nil
	}
}

func textOf(t *testing.T, res *Result) string {
	t.Helper()
	var out string
	for _, c := range res.Content {
		if tc, ok := c.(types.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}

// S1 — Plain text streaming (§8).
func TestStream_PlainText(t *testing.T) {
	model := &testutil.MockLanguageModel{
		DoStreamFunc: sequencedStream(t, [][]provider.StreamChunk{
			{
				{Type: provider.ChunkTypeText, Text: "Hello "},
				{Type: provider.ChunkTypeText, Text: "world"},
				{Type: provider.ChunkTypeText, Text: "!"},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStop},
			},
		}),
	}
	o := New(model)

	var chunkTexts []string
	var blocks []types.BlockEvent
	router := &events.Router{
		OnChunk: []ai.Listener[events.OnChunkEvent]{
			func(ctx context.Context, e events.OnChunkEvent) { chunkTexts = append(chunkTexts, e.Chunk.Text) },
		},
		OnBlock: []ai.Listener[events.OnBlockEvent]{
			func(ctx context.Context, e events.OnBlockEvent) { blocks = append(blocks, e.Block) },
		},
	}

	res, err := o.Stream(context.Background(), types.NormalizedRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: "hi"}}}},
	}, Options{Router: router})
	require.NoError(t, err)
	require.Nil(t, res.Aborted)

	require.Equal(t, []string{"Hello ", "world", "!"}, chunkTexts)
	require.Equal(t, "Hello world!", res.AccumulatedText)
	require.Equal(t, "Hello world!", textOf(t, res))

	require.Len(t, blocks, 2)
	require.Equal(t, types.BlockStart, blocks[0].Kind)
	require.Equal(t, types.BlockText, blocks[0].Type)
	require.Equal(t, 0, blocks[0].Index)
	require.Equal(t, types.BlockComplete, blocks[1].Kind)
	require.Equal(t, "Hello world!", blocks[1].Content)
}

// S2 — Thinking region (§8).
func TestStream_ThinkingRegion(t *testing.T) {
	model := &testutil.MockLanguageModel{
		DoStreamFunc: sequencedStream(t, [][]provider.StreamChunk{
			{
				{Type: provider.ChunkTypeText, Text: "<thi"},
				{Type: provider.ChunkTypeText, Text: "nking>deep</thinking>answer"},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStop},
			},
		}),
	}
	o := New(model)

	var visibleChunks []string
	router := &events.Router{
		OnChunk: []ai.Listener[events.OnChunkEvent]{
			func(ctx context.Context, e events.OnChunkEvent) {
				if e.Chunk.Visible {
					visibleChunks = append(visibleChunks, e.Chunk.Text)
				}
			},
		},
	}

	res, err := o.Stream(context.Background(), types.NormalizedRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: "hi"}}}},
	}, Options{Router: router})
	require.NoError(t, err)

	require.Equal(t, []string{"answer"}, visibleChunks)
	require.Len(t, res.Content, 2)
	reasoning, ok := res.Content[0].(types.ReasoningContent)
	require.True(t, ok)
	require.Equal(t, "deep", reasoning.Text)
	text, ok := res.Content[1].(types.TextContent)
	require.True(t, ok)
	require.Equal(t, "answer", text.Text)
}

// S3 — Tool loop (§8): one tool call round-trip, then a final plain-text
// iteration.
func TestStream_ToolLoop(t *testing.T) {
	invokeText := `<function_calls><invoke name="add"><parameter name="a">2</parameter>` +
		`<parameter name="b">3</parameter></invoke>`

	model := &testutil.MockLanguageModel{
		DoStreamFunc: sequencedStream(t, [][]provider.StreamChunk{
			{
				{Type: provider.ChunkTypeText, Text: invokeText},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStopSequence, StopSequence: "</function_calls>"},
			},
			{
				{Type: provider.ChunkTypeText, Text: "The answer is 5."},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStop},
			},
		}),
	}
	o := New(model)

	var gotCalls []types.ToolCall
	var gotPreamble string
	router := &events.Router{
		OnPreToolContent: []ai.Listener[events.OnPreToolContentEvent]{
			func(ctx context.Context, e events.OnPreToolContentEvent) { gotPreamble = e.Text },
		},
		OnToolCalls: func(ctx context.Context, calls []types.ToolCall) []events.ToolResult {
			gotCalls = calls
			out := make([]events.ToolResult, len(calls))
			for i, c := range calls {
				out[i] = events.ToolResult{
					ToolCallID: c.ID,
					Content:    []types.ToolResultContentBlock{types.TextContentBlock{Text: "5"}},
				}
			}
			return out
		},
	}

	res, err := o.Stream(context.Background(), types.NormalizedRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: "what is 2+3?"}}}},
		Tools:    []types.ToolDefinition{{Name: "add"}},
	}, Options{Router: router})
	require.NoError(t, err)
	require.Nil(t, res.Aborted)

	require.Len(t, model.StreamCalls, 2)
	require.Len(t, gotCalls, 1)
	require.Equal(t, "add", gotCalls[0].ToolName)
	require.Equal(t, float64(2), gotCalls[0].Arguments["a"])
	require.Equal(t, float64(3), gotCalls[0].Arguments["b"])
	require.Empty(t, gotPreamble)

	require.Contains(t, res.AccumulatedText, "</function_calls>")
	require.Contains(t, res.AccumulatedText, "<function_results>")
	require.Contains(t, res.AccumulatedText, "The answer is 5.")

	var sawToolUse, sawToolResult, sawText bool
	for _, c := range res.Content {
		switch v := c.(type) {
		case types.ToolUseContent:
			sawToolUse = v.ToolName == "add"
		case types.ToolResultContent:
			sawToolResult = v.ToolCallID == gotCalls[0].ID
		case types.TextContent:
			if v.Text == "The answer is 5." {
				sawText = true
			}
		}
	}
	require.True(t, sawToolUse, "expected a ToolUseContent block")
	require.True(t, sawToolResult, "expected a ToolResultContent block")
	require.True(t, sawText, "expected the final text block")
}

// S4 — False-positive stop (§8): a stop sequence matches inside an open
// tool-result region and must not terminate the run.
func TestStream_FalsePositiveStopResumesInsideOpenRegion(t *testing.T) {
	model := &testutil.MockLanguageModel{
		DoStreamFunc: sequencedStream(t, [][]provider.StreamChunk{
			{
				{
					Type: provider.ChunkTypeText,
					Text: "<function_results><result tool_use_id=\"x\">chatlog:\nUser: hi\nBot: hello</result>",
				},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStopSequence, StopSequence: "\nUser:"},
			},
			{
				{Type: provider.ChunkTypeText, Text: " more</function_results>done."},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStop},
			},
		}),
	}
	o := New(model)

	res, err := o.Stream(context.Background(), types.NormalizedRequest{
		Messages: []types.Message{
			{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: "hi"}}},
		},
		Tools:    []types.ToolDefinition{{Name: "noop"}},
		ToolMode: types.ToolModeStructural,
	}, Options{MultiParticipant: true})
	require.NoError(t, err)
	require.Nil(t, res.Aborted)

	require.Len(t, model.StreamCalls, 2)
	require.Equal(t, types.FinishReasonStop, res.FinishReason)
	require.Contains(t, res.AccumulatedText, "\nUser: hi")
	require.Contains(t, res.AccumulatedText, "done.")
}

// S5 — Cancellation mid-tool (§8).
func TestStream_CancellationDuringToolCalls(t *testing.T) {
	invokeText := `<function_calls><invoke name="add"><parameter name="a">2</parameter></invoke>`

	model := &testutil.MockLanguageModel{
		DoStreamFunc: sequencedStream(t, [][]provider.StreamChunk{
			{
				{Type: provider.ChunkTypeText, Text: invokeText},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStopSequence, StopSequence: "</function_calls>"},
			},
		}),
	}
	o := New(model)

	cancel := make(chan struct{})
	router := &events.Router{
		OnToolCalls: func(ctx context.Context, calls []types.ToolCall) []events.ToolResult {
			close(cancel)
			return nil
		},
	}

	res, err := o.Stream(context.Background(), types.NormalizedRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: "hi"}}}},
		Tools:    []types.ToolDefinition{{Name: "add"}},
	}, Options{Router: router, Cancel: cancel})
	require.NoError(t, err)

	// The handler ran synchronously inside Stream and closed cancel before
	// returning nil results; the next suspension point (the following loop
	// iteration) observes it and aborts.
	require.NotNil(t, res.Aborted)
	require.Equal(t, types.AbortReasonUser, res.Aborted.Reason)
}

// S6 — Image-bearing tool result (§8): structural mode cannot carry an image
// inside the text prefill, so the tool-result turn splits into a synthetic
// assistant/user/assistant sequence and accumulated text must still gain the
// synthetic closing portion.
func TestStream_ImageToolResultSplitsTurn(t *testing.T) {
	invokeText := `<function_calls><invoke name="chart"><parameter name="q">sales</parameter></invoke>`

	model := &testutil.MockLanguageModel{
		DoStreamFunc: sequencedStream(t, [][]provider.StreamChunk{
			{
				{Type: provider.ChunkTypeText, Text: invokeText},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStopSequence, StopSequence: "</function_calls>"},
			},
			{
				{Type: provider.ChunkTypeText, Text: "Done."},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStop},
			},
		}),
	}
	o := New(model)

	router := &events.Router{
		OnToolCalls: func(ctx context.Context, calls []types.ToolCall) []events.ToolResult {
			out := make([]events.ToolResult, len(calls))
			for i, c := range calls {
				out[i] = events.ToolResult{
					ToolCallID: c.ID,
					Content: []types.ToolResultContentBlock{
						types.TextContentBlock{Text: "see chart"},
						types.ImageContentBlock{MediaType: "image/png", Data: []byte{1, 2, 3}},
					},
				}
			}
			return out
		},
	}

	res, err := o.Stream(context.Background(), types.NormalizedRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: "show me sales"}}}},
		Tools:    []types.ToolDefinition{{Name: "chart"}},
		ToolMode: types.ToolModeStructural,
	}, Options{Router: router})
	require.NoError(t, err)
	require.Nil(t, res.Aborted)
	require.Len(t, model.StreamCalls, 2)

	msgs := model.StreamCalls[1].Prompt.Messages
	require.GreaterOrEqual(t, len(msgs), 3)
	tail := msgs[len(msgs)-3:]

	require.Equal(t, types.RoleAssistant, tail[0].Role)
	firstText, ok := tail[0].Content[0].(types.TextContent)
	require.True(t, ok)
	require.Contains(t, firstText.Text, "<function_results>")
	require.Contains(t, firstText.Text, "see chart")

	require.Equal(t, types.RoleUser, tail[1].Role)
	img, ok := tail[1].Content[0].(types.ImageContent)
	require.True(t, ok)
	require.Equal(t, "image/png", img.MimeType)
	require.Equal(t, []byte{1, 2, 3}, img.Image)

	require.Equal(t, types.RoleAssistant, tail[2].Role)
	lastText, ok := tail[2].Content[0].(types.TextContent)
	require.True(t, ok)
	require.Contains(t, lastText.Text, "</function_results>")

	require.Contains(t, res.AccumulatedText, "see chart")
	require.Contains(t, res.AccumulatedText, "</function_results>")
	require.Contains(t, res.AccumulatedText, "Done.")
}

// Iteration bound (§4.3 "Iteration bound"): a backend that keeps matching
// the tool-call close tag without ever terminating must stop after
// max_tool_depth rounds instead of looping forever.
func TestStream_MaxToolDepthCapsLoop(t *testing.T) {
	round := []provider.StreamChunk{
		{Type: provider.ChunkTypeText, Text: `<function_calls><invoke name="noop"></invoke>`},
		{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStopSequence, StopSequence: "</function_calls>"},
	}
	rounds := make([][]provider.StreamChunk, 0, 5)
	for i := 0; i < 5; i++ {
		rounds = append(rounds, round)
	}
	model := &testutil.MockLanguageModel{DoStreamFunc: sequencedStream(t, rounds)}
	o := New(model)

	router := &events.Router{
		OnToolCalls: func(ctx context.Context, calls []types.ToolCall) []events.ToolResult {
			out := make([]events.ToolResult, len(calls))
			for i, c := range calls {
				out[i] = events.ToolResult{ToolCallID: c.ID, Content: []types.ToolResultContentBlock{types.TextContentBlock{Text: "ok"}}}
			}
			return out
		},
	}

	res, err := o.Stream(context.Background(), types.NormalizedRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: "hi"}}}},
		Tools:    []types.ToolDefinition{{Name: "noop"}},
	}, Options{Router: router, MaxToolDepth: 3})
	require.NoError(t, err)
	require.Nil(t, res.Aborted)
	require.LessOrEqual(t, len(model.StreamCalls), 4)
}

// Empty tool-call region (§8 boundary behavior): zero calls produces no
// tool-handler invocation and does not loop forever.
func TestStream_EmptyToolCallRegionDoesNotLoop(t *testing.T) {
	model := &testutil.MockLanguageModel{
		DoStreamFunc: sequencedStream(t, [][]provider.StreamChunk{
			{
				{Type: provider.ChunkTypeText, Text: "<function_calls>"},
				{Type: provider.ChunkTypeFinish, FinishReason: types.FinishReasonStopSequence, StopSequence: "</function_calls>"},
			},
		}),
	}
	o := New(model)

	called := false
	router := &events.Router{
		OnToolCalls: func(ctx context.Context, calls []types.ToolCall) []events.ToolResult {
			called = true
			return nil
		},
	}

	res, err := o.Stream(context.Background(), types.NormalizedRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: "hi"}}}},
		Tools:    []types.ToolDefinition{{Name: "noop"}},
	}, Options{Router: router})
	require.NoError(t, err)
	require.False(t, called)
	require.Len(t, model.StreamCalls, 1)
	require.Nil(t, res.Aborted)
}
