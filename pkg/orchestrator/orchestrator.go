// Package orchestrator drives the iterative tool-execution loop over a
// streaming backend transport (§4.3 component E): it builds each
// iteration's prefill, feeds the returned characters through the
// incremental structural parser, disambiguates stop sequences (§4.4),
// executes tools out-of-band through the Event Router, and assembles the
// final normalized response.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/wireloop/llmcore/pkg/events"
	"github.com/wireloop/llmcore/pkg/provider"
	"github.com/wireloop/llmcore/pkg/provider/types"
	"github.com/wireloop/llmcore/pkg/structural"
	"github.com/wireloop/llmcore/pkg/telemetry"
	"github.com/wireloop/llmcore/pkg/toolcall"
)

// defaultMaxToolDepth is the §4.3 "Iteration bound" default.
const defaultMaxToolDepth = 10

// defaultAssistantPreface seeds the very first iteration's prefill when the
// caller doesn't supply one.
const defaultAssistantPreface = "Assistant: "

// Orchestrator is bound to one backend transport (§6) for its lifetime and
// drives any number of independent Stream calls against it. Per §5, the
// middleware itself is process-wide and created once; each Stream call owns
// its own parser, accumulated-text buffer, and tool-execution history (§3
// "Ownership") and shares nothing with any other call.
type Orchestrator struct {
	Backend   provider.LanguageModel
	Tags      *structural.Tags
	Extractor *toolcall.Extractor
	Tracer    trace.Tracer
}

// New creates an Orchestrator bound to backend, using the default structural
// grammar (§6 "the default grammar pairs ... MUST be accepted").
func New(backend provider.LanguageModel) *Orchestrator {
	return &Orchestrator{
		Backend:   backend,
		Tags:      structural.DefaultTags(""),
		Extractor: toolcall.New(""),
		Tracer:    telemetry.GetTracer(nil),
	}
}

// Options configures one Stream call (§6 "Options carry the callbacks ...
// cancellation token, per-iteration timeout, and max_tool_depth").
type Options struct {
	Router *events.Router

	// Cancel is checked at every suspension point (§5). A closed channel or
	// one already containing a value signals cancellation.
	Cancel <-chan struct{}

	// PerIterationTimeout bounds one backend round-trip (§5 "Timeouts").
	// Zero means unbounded.
	PerIterationTimeout time.Duration

	// MaxToolDepth caps the combined count of executing_tools and
	// resuming_false_stop transitions (§4.3). Zero uses the default of 10.
	MaxToolDepth int

	// AssistantPreface seeds the first iteration's prefill, e.g. "Claude: ".
	AssistantPreface string

	// ThinkingEnabled appends the grammar's thinking-open tag after the
	// preface on the first iteration only (§4.2 step 3).
	ThinkingEnabled bool

	// MultiParticipant enables "{name}: " prefixing of non-assistant turns
	// and derives one stop sequence per distinct participant name (§4.2).
	MultiParticipant bool

	// MaxStopSequences truncates the generated stop-sequence set for
	// backends that cap it (§4.2 "Stop-sequence count cap").
	MaxStopSequences int
}

func (o Options) router() *events.Router {
	if o.Router == nil {
		return &events.Router{}
	}
	return o.Router
}

func (o Options) maxToolDepth() int {
	if o.MaxToolDepth > 0 {
		return o.MaxToolDepth
	}
	return defaultMaxToolDepth
}

func (o Options) assistantPreface() string {
	if o.AssistantPreface != "" {
		return o.AssistantPreface
	}
	return defaultAssistantPreface
}

// Result is the final normalized response of one Stream call (§4.3 "Final
// response assembly"). When Aborted is non-nil, it is the authoritative
// result (§4.5 "Cancellation") and the embedded GenerateResult/ToolResults
// fields hold the same partial data duplicated for convenience.
type Result struct {
	types.GenerateResult
	ToolResults     []types.ToolResult
	AccumulatedText string
	StopSequence    string

	Aborted *types.AbortedResponse
}

// callState is the per-Stream mutable state threaded through the loop body;
// factoring it out keeps Stream's control flow (the state machine in §4.3)
// readable instead of a wall of local variables.
type callState struct {
	parser    *structural.Parser
	accum     strings.Builder
	usage     types.Usage
	toolCalls []types.ToolCall
	toolRes   []types.ToolResult
	content   []types.ContentPart

	iteration    int
	toolDepth    int
	lastFinish   types.FinishReason
	lastStopSeq  string
}

func (s *callState) cancelled(cancel <-chan struct{}) bool {
	if cancel == nil {
		return false
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

// aborted builds the AbortedResponse §4.5 requires, parsing whatever
// accumulated text exists so far into content blocks.
func (s *callState) aborted(reason types.AbortReason) *Result {
	text := s.accum.String()
	blocks := append([]types.ContentPart{}, s.content...)
	return &Result{
		GenerateResult: types.GenerateResult{
			Content:      blocks,
			ToolCalls:    s.toolCalls,
			FinishReason: s.lastFinish,
			Usage:        s.usage,
		},
		ToolResults:     s.toolRes,
		AccumulatedText: text,
		Aborted: &types.AbortedResponse{
			ContentBlocks:   blocks,
			Usage:           s.usage,
			ToolCalls:       s.toolCalls,
			ToolResults:     s.toolRes,
			Reason:          reason,
			AccumulatedText: text,
		},
	}
}

// appendTextBlocks folds every text/thinking block_complete event into the
// canonical content list, in the order they closed. Tool-call and
// tool-result blocks are appended separately, at the point the orchestrator
// itself processes them (see runStructuralIteration), since their content is
// derived from the extractor/formatter, not the parser's raw block text.
func (s *callState) appendTextBlocks(blockEvents []types.BlockEvent) {
	for _, b := range blockEvents {
		if b.Kind != types.BlockComplete {
			continue
		}
		switch b.Type {
		case types.BlockText:
			if b.Content != "" {
				s.content = append(s.content, types.TextContent{Text: b.Content})
			}
		case types.BlockThinking:
			if b.Content != "" {
				s.content = append(s.content, types.ReasoningContent{Text: b.Content})
			}
		}
	}
}

// finalResult assembles this call's terminal Result (§4.3 "Final response
// assembly"). The content list isn't re-parsed from accumulated text at this
// point — it was already built incrementally, in causal order, as each block
// closed and each tool call/result was processed (appendTextBlocks plus the
// direct appends in streamStructural/streamNative), which is equivalent to
// "parse accumulated text once more" without the redundant second pass.
// ToolCalls/ToolResults come from the orchestrator's own executed lists per
// the spec's explicit fallback, since nothing here ever diverges from them.
func (s *callState) finalResult() *Result {
	var text strings.Builder
	for _, c := range s.content {
		if t, ok := c.(types.TextContent); ok {
			text.WriteString(t.Text)
		}
	}
	return &Result{
		GenerateResult: types.GenerateResult{
			Text:         text.String(),
			Content:      s.content,
			ToolCalls:    s.toolCalls,
			FinishReason: s.lastFinish,
			Usage:        s.usage,
		},
		ToolResults:     s.toolRes,
		AccumulatedText: s.accum.String(),
		StopSequence:    s.lastStopSeq,
	}
}

// Stream drives one provider-agnostic tool-execution loop against req (§4.3)
// and returns its final normalized response, or a Result carrying an
// AbortedResponse if opts.Cancel fired at a suspension point.
func (o *Orchestrator) Stream(ctx context.Context, req types.NormalizedRequest, opts Options) (*Result, error) {
	router := opts.router()

	if req.ToolMode == types.ToolModeNative {
		return o.streamNative(ctx, req, opts, router)
	}
	return o.streamStructural(ctx, req, opts, router)
}

