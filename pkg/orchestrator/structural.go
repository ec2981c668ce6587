package orchestrator

import (
	"context"

	"github.com/wireloop/llmcore/pkg/events"
	"github.com/wireloop/llmcore/pkg/prefill"
	"github.com/wireloop/llmcore/pkg/provider/types"
	"github.com/wireloop/llmcore/pkg/structural"
	"github.com/wireloop/llmcore/pkg/toolresult"
)

// streamStructural drives the continuation loop for the structural tool
// protocol (§4.2–§4.4): every iteration resends the growing accumulated text
// as the assistant's prefill, the structural parser tracks block state
// across the whole call, and a stop on the tool-call close tag is
// disambiguated from a false positive inside some other open region before
// deciding whether to execute tools.
//
// messages stays equal to req.Messages for the lifetime of the call in the
// common case: accumulated text alone carries every tool-call/tool-result
// cycle forward as inline structural content, matching prefill.Build's
// "resend accumulated text as the assistant prefill" mechanics with no
// duplication. The one exception is an image-bearing tool result (§4.2
// "Split-turn image injection"): images cannot ride inside the text prefill,
// so that round finalizes the turn into real messages instead. Accumulated
// text keeps growing across the split (the synthetic closing portion is
// appended, never dropped) so the assistant-text-as-prefill invariant (I5)
// still holds at resume time, even though continuation is now driven by the
// real messages rather than the prefill.
func (o *Orchestrator) streamStructural(ctx context.Context, req types.NormalizedRequest, opts Options, router *events.Router) (*Result, error) {
	st := &callState{parser: structural.New(o.Tags)}
	closeTag := o.Tags.ToolCallCloseTag()

	toolsConfigured := len(req.Tools) > 0
	useCloseTag := ""
	if toolsConfigured {
		useCloseTag = closeTag
	}

	prefillOpts := prefill.Options{
		AssistantPreface: opts.assistantPreface(),
		MultiParticipant: opts.MultiParticipant,
		ToolCallCloseTag: useCloseTag,
		MaxStopSequences: opts.MaxStopSequences,
	}
	if opts.ThinkingEnabled {
		prefillOpts.ThinkingOpenTag = "<thinking>"
	}

	messages := append([]types.Message{}, req.Messages...)

loop:
	for {
		if st.cancelled(opts.Cancel) {
			return st.aborted(types.AbortReasonUser), nil
		}
		st.iteration++
		st.parser.ResetForIteration()
		snapshot := st.parser.Snapshot()

		builtMessages, stops := prefill.Build(messages, st.accum.String(), st.iteration, prefillOpts)
		genOpts := o.buildGenerateOptions(req, builtMessages, stops, false)

		outcome, err := o.runBackendIteration(ctx, st, router, genOpts, stops, opts)
		if err != nil {
			if reason, ok := classifyAbort(err); ok {
				return st.aborted(reason), nil
			}
			if router.Error(ctx, err) == events.ErrorActionRetry {
				st.iteration--
				continue loop
			}
			return st.aborted(types.AbortReasonError), nil
		}
		st.lastFinish, st.lastStopSeq = outcome.reason, outcome.stop

		closeTagReal := useCloseTag != "" &&
			outcome.reason == types.FinishReasonStopSequence &&
			outcome.stop == useCloseTag

		if closeTagReal {
			// The backend/software scan consumed the close tag out of the
			// stream; feed it back in so the parser actually closes the
			// tool-call region and accumulated text stays a faithful
			// transcript (I1, I5).
			o.feedAndRoute(ctx, st, router, outcome.stop)

			inv, found := o.Extractor.LastUnexecuted(st.accum.String())
			if !found || len(inv.Calls) == 0 {
				break loop
			}

			router.PreToolContent(ctx, inv.Preamble)
			handlerResults := router.ToolCalls(ctx, inv.Calls)
			if st.cancelled(opts.Cancel) {
				st.toolCalls = append(st.toolCalls, inv.Calls...)
				return st.aborted(types.AbortReasonUser), nil
			}
			tracked, formatted, contentParts, cerr := o.applyToolResults(inv.Calls, handlerResults)
			if cerr != nil {
				return nil, cerr
			}

			st.toolCalls = append(st.toolCalls, inv.Calls...)
			st.toolRes = append(st.toolRes, tracked...)
			for _, c := range inv.Calls {
				st.content = append(st.content, types.ToolUseContent{ID: c.ID, ToolName: c.ToolName, Input: c.Arguments})
			}
			st.content = append(st.content, contentParts...)

			segs := toolresult.Format(toFormatterInput(formatted))
			injected, accumAppend := prefill.InjectToolResultTurns(segs)

			if toolresult.HasImage(segs) {
				// Split-turn image injection: finalize the turn so far into
				// real messages and hand continuity off to them instead of
				// the accumulated-text prefill (see doc comment above).
				messages = append(messages, injected...)
				st.accum.WriteString(accumAppend)
			} else {
				o.feedAndRoute(ctx, st, router, accumAppend)
			}

			st.toolDepth++
			if st.toolDepth > opts.maxToolDepth() {
				break loop
			}
			continue loop
		}

		falsePositive := outcome.reason == types.FinishReasonStopSequence &&
			outcome.stop != "" &&
			st.parser.InsideAnyBlockSince(snapshot)

		if falsePositive {
			// A real stop fired, but it landed inside an open region that
			// isn't the tool-call close tag (e.g. a participant stop string
			// that happens to appear inside <thinking>) — resume rather than
			// treat it as a real tool invocation (§4.4).
			o.feedAndRoute(ctx, st, router, outcome.stop)

			st.toolDepth++
			if st.toolDepth > opts.maxToolDepth() {
				break loop
			}
			continue loop
		}

		break loop
	}

	fChunks, fEvents := st.parser.Finalize()
	for _, c := range fChunks {
		router.Chunk(ctx, c)
	}
	for _, e := range fEvents {
		router.Block(ctx, e)
	}
	st.appendTextBlocks(fEvents)

	return st.finalResult(), nil
}

// toFormatterInput converts the orchestrator's internal formatterResult list
// into toolresult.Result, the shape toolresult.Format actually accepts.
func toFormatterInput(in []formatterResult) []toolresult.Result {
	out := make([]toolresult.Result, 0, len(in))
	for _, r := range in {
		out = append(out, toolresult.Result{ToolUseID: r.toolUseID, IsError: r.isError, Content: r.content})
	}
	return out
}
