// Package toolcall scans accumulated text for the last un-satisfied tool
// invocation region and parses it into a structured call list (§4.1
// component C).
package toolcall

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/wireloop/llmcore/pkg/jsonparser"
	"github.com/wireloop/llmcore/pkg/provider/types"
)

// Extractor recognizes the tool-call-list grammar (default or namespaced).
type Extractor struct {
	Namespace string

	functionCalls   *regexp.Regexp
	functionResults *regexp.Regexp
	invoke          *regexp.Regexp
	parameter       *regexp.Regexp
}

// New creates an Extractor. namespace may be empty; bare tag forms are
// always accepted regardless (§4.1).
func New(namespace string) *Extractor {
	e := &Extractor{Namespace: namespace}
	e.functionCalls = e.regionRe("function_calls")
	e.functionResults = e.regionRe("function_results")
	e.invoke = regexp.MustCompile(`(?s)<` + e.alt("invoke") + `\s+name="([^"]*)"\s*>(.*?)</` + e.alt("invoke") + `>`)
	e.parameter = regexp.MustCompile(`(?s)<` + e.alt("parameter") + `\s+name="([^"]*)"\s*>(.*?)</` + e.alt("parameter") + `>`)
	return e
}

func (e *Extractor) alt(name string) string {
	if e.Namespace == "" {
		return regexp.QuoteMeta(name)
	}
	return "(?:" + regexp.QuoteMeta(name) + "|" + regexp.QuoteMeta(e.Namespace+":"+name) + ")"
}

func (e *Extractor) regionRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<` + e.alt(name) + `>(.*?)</` + e.alt(name) + `>`)
}

// Invocation is the last un-satisfied tool-call region found in text.
type Invocation struct {
	// RawText is the literal matched region, including its own tags.
	RawText string

	// Preamble is the assistant text preceding the region's opening tag,
	// since the end of the prior tool-result region (or start of text).
	Preamble string

	Calls []types.ToolCall

	Start, End int
}

// LastUnexecuted scans text for function_calls regions and returns the last
// one not immediately followed (modulo whitespace) by a function_results
// region — i.e. the one invocation still awaiting execution (I7). Returns
// ok=false if every region found is already satisfied, or none exist.
//
// The lookahead window is intentionally just "skip whitespace": §9 note 3
// flags this as a spec-level open choice; this implementation treats any
// non-whitespace content between a function_calls close tag and the next
// function_results open tag as proof the regions are unrelated, which keeps
// the rule simple and matches how a single well-behaved backend iteration
// actually looks (close tag, then either nothing more this turn, or the
// orchestrator's own synthesized results immediately following).
func (e *Extractor) LastUnexecuted(text string) (*Invocation, bool) {
	callMatches := e.functionCalls.FindAllStringSubmatchIndex(text, -1)
	if len(callMatches) == 0 {
		return nil, false
	}
	resultMatches := e.functionResults.FindAllStringIndex(text, -1)

	prevEnd := 0
	for i := len(callMatches) - 1; i >= 0; i-- {
		m := callMatches[i]
		start, end := m[0], m[1]
		if !e.satisfiedBy(text, end, resultMatches) {
			preambleStart := 0
			for j := i - 1; j >= 0; j-- {
				if callMatches[j][1] <= start {
					preambleStart = callMatches[j][1]
					break
				}
			}
			_ = prevEnd
			inv := &Invocation{
				RawText:  text[start:end],
				Preamble: text[preambleStart:start],
				Start:    start,
				End:      end,
			}
			inv.Calls = e.parseCalls(text[m[2]:m[3]])
			return inv, true
		}
	}
	return nil, false
}

func (e *Extractor) satisfiedBy(text string, regionEnd int, resultMatches [][]int) bool {
	rest := text[regionEnd:]
	trimmed := strings.TrimLeft(rest, " \t\r\n")
	skipped := len(rest) - len(trimmed)
	candidateStart := regionEnd + skipped
	for _, rm := range resultMatches {
		if rm[0] == candidateStart {
			return true
		}
	}
	return false
}

func (e *Extractor) parseCalls(inner string) []types.ToolCall {
	var calls []types.ToolCall
	for _, m := range e.invoke.FindAllStringSubmatch(inner, -1) {
		name, body := m[1], m[2]
		args := map[string]interface{}{}
		for _, p := range e.parameter.FindAllStringSubmatch(body, -1) {
			pname := p[1]
			raw := strings.TrimSpace(p[2])
			args[pname] = coerce(raw)
		}
		calls = append(calls, types.ToolCall{
			ID:        uuid.NewString(),
			ToolName:  name,
			Arguments: args,
		})
	}
	return calls
}

// coerce turns a raw parameter value into a number/bool/string/object using
// the same partial-JSON repair the rest of the codebase already uses for
// streamed tool-call arguments, falling back to the raw string when the
// value isn't JSON at all (the common case: a plain string argument).
func coerce(raw string) interface{} {
	result := jsonparser.ParsePartialJSON(raw)
	switch result.State {
	case jsonparser.ParseStateSuccessful, jsonparser.ParseStateRepaired:
		return result.Value
	default:
		return raw
	}
}
