package toolresult

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wireloop/llmcore/pkg/provider/types"
)

func TestFormat_SingleTextResult(t *testing.T) {
	segs := Format([]Result{
		{ToolUseID: "abc", Content: []types.ToolResultContentBlock{
			types.TextContentBlock{Text: "5"},
		}},
	})
	require.False(t, HasImage(segs))
	require.Equal(t, `<function_results><result tool_use_id="abc">5</result></function_results>`, Text(segs))
}

func TestFormat_ErrorResult(t *testing.T) {
	segs := Format([]Result{
		{ToolUseID: "abc", IsError: true, Content: []types.ToolResultContentBlock{
			types.TextContentBlock{Text: "boom"},
		}},
	})
	require.Equal(t, `<function_results><error tool_use_id="abc">boom</error></function_results>`, Text(segs))
}

func TestFormat_EscapesEntities(t *testing.T) {
	segs := Format([]Result{
		{ToolUseID: "x", Content: []types.ToolResultContentBlock{
			types.TextContentBlock{Text: `<a & "b" 'c'>`},
		}},
	})
	text := Text(segs)
	require.NotContains(t, text, "<a")
	require.Contains(t, text, "&lt;a")
	require.Contains(t, text, "&amp;")
	require.Contains(t, text, "&#34;")
	require.Contains(t, text, "&#39;")
}

func TestFormat_MultipleResultsMerge(t *testing.T) {
	segs := Format([]Result{
		{ToolUseID: "1", Content: []types.ToolResultContentBlock{types.TextContentBlock{Text: "a"}}},
		{ToolUseID: "2", Content: []types.ToolResultContentBlock{types.TextContentBlock{Text: "b"}}},
	})
	// All-text segment runs should coalesce into a single TextSegment.
	require.Len(t, segs, 1)
}

func TestFormat_ImageSplitsSegment(t *testing.T) {
	segs := Format([]Result{
		{ToolUseID: "img", Content: []types.ToolResultContentBlock{
			types.TextContentBlock{Text: "before"},
			types.ImageContentBlock{Data: []byte{1, 2, 3}, MediaType: "image/png"},
			types.TextContentBlock{Text: "after"},
		}},
	})
	require.True(t, HasImage(segs))

	var kinds []string
	for _, s := range segs {
		switch v := s.(type) {
		case TextSegment:
			kinds = append(kinds, "text:"+v.Text)
		case ImageSegment:
			kinds = append(kinds, "image:"+v.MediaType)
		}
	}
	require.Contains(t, kinds, "image:image/png")
}

func TestFormat_FileFallsBackToDescription(t *testing.T) {
	segs := Format([]Result{
		{ToolUseID: "f", Content: []types.ToolResultContentBlock{
			types.FileContentBlock{Filename: "report.pdf", MediaType: "application/pdf"},
		}},
	})
	require.Contains(t, Text(segs), "report.pdf")
}
