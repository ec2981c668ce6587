// Package structural implements the incremental structural parser (the
// "core hard engineering" component): it turns an arbitrarily-chunked
// character stream into ordered content pieces and block boundary events,
// without ever leaking the wire-format tags it recognizes.
//
// The buffering strategy is adapted from pkg/middleware/extract_reasoning.go's
// getPotentialStartIndex, which toggles a single reasoning/text region by
// scanning for one "next expected tag" at a time. This package generalizes
// that to a fixed table of tag specs covering three regions (thinking,
// tool-call, tool-result) plus their nested sub-tags, because at any moment
// more than one tag could legally open next.
package structural

import "strings"

// region identifies which structural grammar production a tag belongs to.
type region int

const (
	regionThinking region = iota
	regionToolCall
	regionToolResult
	regionInvoke
	regionParameter
	regionResult
	regionError
)

// boundary is whether a tagSpec opens or closes its region.
type boundary int

const (
	boundaryOpen boundary = iota
	boundaryClose
)

// tagKind distinguishes a fixed-literal tag ("<thinking>") from one whose
// opening form carries attributes and is only terminated by the next '>'
// ("<invoke name=\"add\">").
type tagKind int

const (
	tagStatic tagKind = iota
	tagDynamicOpen
)

// tagSpec is one recognized structural tag, in either its bare or namespaced
// form. Both forms are always accepted regardless of configuration (§4.1).
type tagSpec struct {
	literal  string // static: full tag; dynamicOpen: prefix up to (not incl.) '>'
	kind     tagKind
	region   region
	boundary boundary
}

// Tags is the structural grammar: the fixed set of tag pairs the parser
// recognizes, plus an optional namespace prefix applied in addition to (not
// instead of) the bare forms.
type Tags struct {
	// Namespace, if non-empty, is prepended with a ':' to every tag name to
	// build an additional accepted form, e.g. Namespace="ns" also accepts
	// "<ns:thinking>" alongside "<thinking>".
	Namespace string

	specs []tagSpec
}

// DefaultTags returns the default grammar pairs described in §4.1, which
// MUST be accepted by any configuration per §6.
func DefaultTags(namespace string) *Tags {
	t := &Tags{Namespace: namespace}
	t.register("thinking", regionThinking, false)
	t.register("function_calls", regionToolCall, false)
	t.register("function_results", regionToolResult, false)
	t.register("invoke", regionInvoke, true)
	t.register("parameter", regionParameter, true)
	t.register("result", regionResult, true)
	t.register("error", regionError, true)
	return t
}

// ToolCallCloseTag returns the closing tag for the tool-call-list region in
// its bare (unprefixed) form, e.g. "</function_calls>". The Prefill Builder
// uses this as the stop sequence that signals a real tool invocation (§4.2
// "one per non-assistant participant ... plus the structural close tag").
func (t *Tags) ToolCallCloseTag() string {
	return "</function_calls>"
}

func (t *Tags) register(name string, r region, dynamicOpen bool) {
	names := []string{name}
	if t.Namespace != "" {
		names = append(names, t.Namespace+":"+name)
	}
	for _, n := range names {
		if dynamicOpen {
			t.specs = append(t.specs, tagSpec{literal: "<" + n, kind: tagDynamicOpen, region: r, boundary: boundaryOpen})
		} else {
			t.specs = append(t.specs, tagSpec{literal: "<" + n + ">", kind: tagStatic, region: r, boundary: boundaryOpen})
		}
		t.specs = append(t.specs, tagSpec{literal: "</" + n + ">", kind: tagStatic, region: r, boundary: boundaryClose})
	}
}

// matchResult is what matchAt found for the buffer currently held.
type matchResult struct {
	matched    bool   // a complete tag was recognized
	consumed   int    // bytes of buffer consumed by the match (static: len(literal); dynamic: up to and incl. '>')
	attrs      string // dynamicOpen only: the raw text between the prefix and '>'
	spec       tagSpec
	couldMatch bool // no complete match yet, but buffer could still become one with more input
}

// matchAt tries to resolve buf (which MUST start with '<') against the tag
// table. It never needs to see past the first complete match or past the
// point where every candidate is eliminated.
func (t *Tags) matchAt(buf string) matchResult {
	couldMatch := false
	for _, spec := range t.specs {
		switch spec.kind {
		case tagStatic:
			if len(buf) >= len(spec.literal) {
				if buf[:len(spec.literal)] == spec.literal {
					return matchResult{matched: true, consumed: len(spec.literal), spec: spec}
				}
				continue
			}
			if strings.HasPrefix(spec.literal, buf) {
				couldMatch = true
			}
		case tagDynamicOpen:
			if len(buf) >= len(spec.literal) {
				if buf[:len(spec.literal)] != spec.literal {
					continue
				}
				// Prefix matched; look for the terminating '>'.
				rest := buf[len(spec.literal):]
				if idx := strings.IndexByte(rest, '>'); idx != -1 {
					return matchResult{
						matched:  true,
						consumed: len(spec.literal) + idx + 1,
						attrs:    rest[:idx],
						spec:     spec,
					}
				}
				couldMatch = true
				continue
			}
			if strings.HasPrefix(spec.literal, buf) {
				couldMatch = true
			}
		}
	}
	return matchResult{couldMatch: couldMatch}
}
