// Package prefill builds the next backend-ready request from a normalized
// request plus the growing accumulated text (§4.2 component B): the
// continuation loop's "seed the assistant's reply" mechanism.
package prefill

import (
	"fmt"
	"strings"

	"github.com/wireloop/llmcore/pkg/provider/types"
	"github.com/wireloop/llmcore/pkg/toolresult"
)

// Options configures one builder for the lifetime of a stream() call.
type Options struct {
	// AssistantPreface seeds the very first iteration's prefill, e.g.
	// "Claude: ".
	AssistantPreface string

	// ThinkingOpenTag, if thinking is enabled, is appended after the preface
	// on the first iteration only.
	ThinkingOpenTag string

	// MultiParticipant, when true, prefixes non-assistant message text with
	// "{name}: ".
	MultiParticipant bool

	// ToolCallCloseTag is included as a stop sequence only when tool-call
	// parsing is active (structural tool mode).
	ToolCallCloseTag string

	// MaxStopSequences truncates the generated stop-sequence set when the
	// backend advertises a limit. Zero means unlimited. The tool-call close
	// tag is kept in preference to participant stops (§4.2).
	MaxStopSequences int
}

// Build produces the message list and stop-sequence set for one backend
// round-trip. iteration is 1 on the first call, incrementing thereafter.
func Build(messages []types.Message, accumulatedText string, iteration int, opts Options) ([]types.Message, []string) {
	merged := mergeConsecutive(prefixNonAssistant(messages, opts.MultiParticipant))

	var prefill string
	if iteration <= 1 {
		prefill = opts.AssistantPreface + opts.ThinkingOpenTag
	} else {
		prefill = accumulatedText
	}
	// Backend quirk: trailing whitespace on an assistant prefill is rejected.
	prefill = strings.TrimRight(prefill, " \t\r\n")

	merged = appendAssistantText(merged, prefill)

	stops := stopSequences(messages, opts)
	return merged, stops
}

func prefixNonAssistant(messages []types.Message, multiParticipant bool) []types.Message {
	if !multiParticipant {
		return messages
	}
	out := make([]types.Message, len(messages))
	for i, m := range messages {
		out[i] = m
		if m.Role == types.RoleAssistant || m.Name == "" {
			continue
		}
		content := make([]types.ContentPart, len(m.Content))
		copy(content, m.Content)
		for j, part := range content {
			if tc, ok := part.(types.TextContent); ok {
				content[j] = types.TextContent{Text: fmt.Sprintf("%s: %s", m.Name, tc.Text)}
				break
			}
		}
		out[i].Content = content
	}
	return out
}

// mergeConsecutive concatenates content sequences of consecutive
// same-role messages (§4.2 step 2).
func mergeConsecutive(messages []types.Message) []types.Message {
	var out []types.Message
	for _, m := range messages {
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Content = append(out[n-1].Content, m.Content...)
			continue
		}
		out = append(out, m)
	}
	return out
}

// appendAssistantText sets the final assistant message's content to text,
// merging into an already-trailing assistant message per the same
// consecutive-role rule, or appending a new one.
func appendAssistantText(messages []types.Message, text string) []types.Message {
	part := types.ContentPart(types.TextContent{Text: text})
	if n := len(messages); n > 0 && messages[n-1].Role == types.RoleAssistant {
		messages[n-1].Content = append(messages[n-1].Content, part)
		return messages
	}
	return append(messages, types.Message{
		Role:    types.RoleAssistant,
		Content: []types.ContentPart{part},
	})
}

func stopSequences(messages []types.Message, opts Options) []string {
	seen := map[string]bool{}
	var stops []string
	for _, m := range messages {
		if m.Role == types.RoleAssistant || m.Name == "" {
			continue
		}
		s := fmt.Sprintf("\n%s:", m.Name)
		if !seen[s] {
			seen[s] = true
			stops = append(stops, s)
		}
	}
	if opts.ToolCallCloseTag != "" {
		stops = append(stops, opts.ToolCallCloseTag)
	}

	if opts.MaxStopSequences > 0 && len(stops) > opts.MaxStopSequences {
		// Prefer keeping the structural close tag over participant stops:
		// move it to the front before truncating.
		if opts.ToolCallCloseTag != "" {
			kept := []string{opts.ToolCallCloseTag}
			for _, s := range stops {
				if s != opts.ToolCallCloseTag {
					kept = append(kept, s)
				}
			}
			stops = kept
		}
		stops = stops[:opts.MaxStopSequences]
	}
	return stops
}

// InjectToolResultTurns splits a tool-result Segment list across an
// assistant/user/assistant turn sequence when it contains images and the
// tool protocol is structural (§4.2 "Split-turn image injection"). Returns
// the synthetic messages to append to the conversation and the text that
// must be appended to accumulated text so the prefill round-trip invariant
// (I5) keeps holding.
func InjectToolResultTurns(segs []toolresult.Segment) (messages []types.Message, accumulatedAppend string) {
	if !toolresult.HasImage(segs) {
		text := toolresult.Text(segs)
		return []types.Message{{
			Role:    types.RoleAssistant,
			Content: []types.ContentPart{types.TextContent{Text: text}},
		}}, text
	}

	var current strings.Builder
	flushAssistant := func() {
		if current.Len() == 0 {
			return
		}
		messages = append(messages, types.Message{
			Role:    types.RoleAssistant,
			Content: []types.ContentPart{types.TextContent{Text: current.String()}},
		})
		accumulatedAppend += current.String()
		current.Reset()
	}

	for _, seg := range segs {
		switch s := seg.(type) {
		case toolresult.TextSegment:
			current.WriteString(s.Text)
		case toolresult.ImageSegment:
			flushAssistant()
			messages = append(messages, types.Message{
				Role: types.RoleUser,
				Content: []types.ContentPart{types.ImageContent{
					Image:    s.Data,
					MimeType: s.MediaType,
				}},
			})
		}
	}
	flushAssistant()
	return messages, accumulatedAppend
}
