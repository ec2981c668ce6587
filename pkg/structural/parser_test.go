package structural

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wireloop/llmcore/pkg/provider/types"
)

func feedAll(t *testing.T, p *Parser, chunks []string) ([]types.ChunkEmission, []types.BlockEvent) {
	t.Helper()
	var allChunks []types.ChunkEmission
	var allEvents []types.BlockEvent
	for _, c := range chunks {
		cs, es := p.Feed(c)
		allChunks = append(allChunks, cs...)
		allEvents = append(allEvents, es...)
	}
	fc, fe := p.Finalize()
	allChunks = append(allChunks, fc...)
	allEvents = append(allEvents, fe...)
	return allChunks, allEvents
}

func concatText(chunks []types.ChunkEmission) string {
	var s string
	for _, c := range chunks {
		s += c.Text
	}
	return s
}

// S1 — plain text streaming.
func TestParser_PlainText(t *testing.T) {
	p := New(nil)
	chunks, events := feedAll(t, p, []string{"Hello ", "world", "!"})

	require.Len(t, events, 2)
	require.Equal(t, types.BlockStart, events[0].Kind)
	require.Equal(t, types.BlockText, events[0].Type)
	require.Equal(t, 0, events[0].Index)
	require.Equal(t, types.BlockComplete, events[1].Kind)
	require.Equal(t, "Hello world!", events[1].Content)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		require.True(t, c.Visible)
		require.Equal(t, types.BlockText, c.Type)
		require.Equal(t, 0, c.BlockIndex)
	}
	require.Equal(t, "Hello world!", concatText(chunks))
}

// S2 — thinking region, tag split across chunk boundaries.
func TestParser_ThinkingRegionSplitAcrossChunks(t *testing.T) {
	p := New(nil)
	chunks, events := feedAll(t, p, []string{"<thi", "nking>deep</thinking>answer"})

	require.Len(t, events, 4)
	require.Equal(t, types.BlockStart, events[0].Kind)
	require.Equal(t, types.BlockThinking, events[0].Type)
	require.Equal(t, 0, events[0].Index)

	require.Equal(t, types.BlockComplete, events[1].Kind)
	require.Equal(t, types.BlockThinking, events[1].Type)
	require.Equal(t, "deep", events[1].Content)

	require.Equal(t, types.BlockStart, events[2].Kind)
	require.Equal(t, types.BlockText, events[2].Type)
	require.Equal(t, 1, events[2].Index)

	require.Equal(t, types.BlockComplete, events[3].Kind)
	require.Equal(t, "answer", events[3].Content)

	require.Len(t, chunks, 2)
	require.Equal(t, "deep", chunks[0].Text)
	require.False(t, chunks[0].Visible)
	require.Equal(t, "answer", chunks[1].Text)
	require.True(t, chunks[1].Visible)
}

// Tag split at every possible byte boundary must parse identically.
func TestParser_TagSplitAtEveryBoundary(t *testing.T) {
	full := "<thinking>deep</thinking>answer"
	for i := 1; i < len(full); i++ {
		p := New(nil)
		chunks, _ := feedAll(t, p, []string{full[:i], full[i:]})
		require.Equal(t, "deepanswer", concatText(chunks), "split at byte %d", i)
	}
}

func TestParser_NoTagLeakage(t *testing.T) {
	p := New(nil)
	chunks, _ := feedAll(t, p, []string{"<thinking>deep</thinking>answer <b>not a tag</b>"})
	for _, c := range chunks {
		require.NotContains(t, c.Text, "<thinking>")
		require.NotContains(t, c.Text, "</thinking>")
	}
	require.Equal(t, "deepanswer <b>not a tag</b>", concatText(chunks))
}

func TestParser_UnknownAngleBracketConstructIsContent(t *testing.T) {
	p := New(nil)
	chunks, events := feedAll(t, p, []string{"a <b> b <|eot|> c"})
	require.Equal(t, "a <b> b <|eot|> c", concatText(chunks))
	require.Len(t, events, 2)
}

// Boundary: empty tool-call region produces one block_start/block_complete
// pair with zero calls and does not loop.
func TestParser_EmptyToolCallRegion(t *testing.T) {
	p := New(nil)
	_, events := feedAll(t, p, []string{"<function_calls></function_calls>"})
	require.Len(t, events, 2)
	require.Equal(t, types.BlockToolCall, events[0].Type)
	require.Equal(t, "", events[1].Content)
}

// Boundary: unclosed structural region at EOS produces a block_complete at
// finalize().
func TestParser_UnclosedRegionFlushedAtFinalize(t *testing.T) {
	p := New(nil)
	_, events := feedAll(t, p, []string{"<thinking>partial"})
	require.Len(t, events, 2)
	require.Equal(t, types.BlockComplete, events[1].Kind)
	require.Equal(t, "partial", events[1].Content)
}

// Boundary: unmatched closing tags do not produce negative depth and do not
// spuriously close an unrelated block.
func TestParser_UnmatchedCloseDoesNotGoNegative(t *testing.T) {
	p := New(nil)
	chunks, events := feedAll(t, p, []string{"</thinking>hello"})
	require.False(t, p.InsideAnyBlock())
	require.Equal(t, "hello", concatText(chunks))
	// Only the implicit text block opens/closes; no thinking block appears.
	for _, e := range events {
		require.NotEqual(t, types.BlockThinking, e.Type)
	}
}

// Tool-call region with invoke/parameter sub-tags: nested tags move depth
// but never open a second consumer block, and parameter values are emitted
// as non-visible content at the right depth.
func TestParser_ToolCallNestedDepth(t *testing.T) {
	p := New(nil)
	input := `<function_calls><invoke name="add"><parameter name="a">2</parameter><parameter name="b">3</parameter></invoke>`
	chunks, events := feedAll(t, p, []string{input})

	require.Len(t, events, 1) // block_start only; region not yet closed
	require.Equal(t, types.BlockToolCall, events[0].Type)

	var paramChunks []types.ChunkEmission
	for _, c := range chunks {
		if c.Text == "2" || c.Text == "3" {
			paramChunks = append(paramChunks, c)
		}
	}
	require.Len(t, paramChunks, 2)
	for _, c := range paramChunks {
		require.False(t, c.Visible)
		require.Equal(t, types.BlockToolCall, c.Type)
		require.Equal(t, 2, c.Depth) // function_calls(1) + invoke(2)
	}
	require.Equal(t, 2, p.toolCallDepth) // still open: function_calls + invoke
}

// A stop-sequence string embedded inside a tool-result region must not be
// mistaken for a structural tag, and inside_any_block() must report true.
func TestParser_InsideAnyBlockDuringToolResult(t *testing.T) {
	p := New(nil)
	_, _ = p.Feed(`<function_results><result tool_use_id="x">chatlog:` + "\n" + `User: hi`)
	require.True(t, p.InsideAnyBlock())
}

func TestParser_ResetForIterationPreservesDepth(t *testing.T) {
	p := New(nil)
	p.Feed("<thinking>partial")
	require.True(t, p.InsideAnyBlock())
	p.ResetForIteration()
	require.True(t, p.InsideAnyBlock(), "depth counters must survive reset_for_iteration")
}

func TestParser_InsideAnyBlockSinceSnapshot(t *testing.T) {
	p := New(nil)
	p.Feed("<thinking>partial")
	snap := p.Snapshot()
	require.False(t, p.InsideAnyBlockSince(snap), "no new region opened since snapshot")
	p.Feed("<function_calls>")
	require.True(t, p.InsideAnyBlockSince(snap))
}

func TestParser_ResetFullClearsEverything(t *testing.T) {
	p := New(nil)
	p.Feed("<thinking>partial")
	p.ResetFull()
	require.False(t, p.InsideAnyBlock())
	require.Equal(t, 0, p.BlockIndex())
}

func TestParser_NamespacedTagsAccepted(t *testing.T) {
	p := New(DefaultTags("ns"))
	_, events := feedAll(t, p, []string{"<ns:thinking>deep</ns:thinking>text"})
	require.Equal(t, types.BlockThinking, events[0].Type)

	// Bare form must still work even when a namespace is configured.
	p2 := New(DefaultTags("ns"))
	_, events2 := feedAll(t, p2, []string{"<thinking>deep</thinking>text"})
	require.Equal(t, types.BlockThinking, events2[0].Type)
}

func TestParser_ParseAllHelper(t *testing.T) {
	chunks, events := ParseAll(nil, "Hello world!")
	require.Equal(t, "Hello world!", concatText(chunks))
	require.Len(t, events, 2)
}
