package orchestrator

import (
	"context"

	"github.com/wireloop/llmcore/pkg/events"
	"github.com/wireloop/llmcore/pkg/provider/types"
	"github.com/wireloop/llmcore/pkg/structural"
)

// streamNative drives the continuation loop for native backend tool-calling
// (§9 note 5): tool calls arrive as already-parsed StreamChunk events instead
// of structural text, the loop terminates on FinishReasonToolCalls rather
// than a stop-sequence match, and there is no prefill/stop-sequence
// machinery to disambiguate — the backend owns turn boundaries. The
// structural parser still runs over any interleaved text chunks so chunk
// and block events stay available to the router, but it never sees a
// structural tag and so never opens a block beyond plain text.
func (o *Orchestrator) streamNative(ctx context.Context, req types.NormalizedRequest, opts Options, router *events.Router) (*Result, error) {
	st := &callState{parser: structural.New(o.Tags)}
	messages := append([]types.Message{}, req.Messages...)

loop:
	for {
		if st.cancelled(opts.Cancel) {
			return st.aborted(types.AbortReasonUser), nil
		}
		st.iteration++

		genOpts := o.buildGenerateOptions(req, messages, nil, true)

		outcome, err := o.runNativeIteration(ctx, st, router, genOpts, opts)
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
		st.lastFinish = outcome.reason

		if outcome.reason != types.FinishReasonToolCalls || len(outcome.calls) == 0 {
			break loop
		}

		handlerResults := router.ToolCalls(ctx, outcome.calls)
		if st.cancelled(opts.Cancel) {
			st.toolCalls = append(st.toolCalls, outcome.calls...)
			return st.aborted(types.AbortReasonUser), nil
		}
		tracked, _, contentParts, cerr := o.applyToolResults(outcome.calls, handlerResults)
		if cerr != nil {
			return nil, cerr
		}

		st.toolCalls = append(st.toolCalls, outcome.calls...)
		st.toolRes = append(st.toolRes, tracked...)

		assistantParts := make([]types.ContentPart, 0, len(outcome.calls))
		for _, c := range outcome.calls {
			part := types.ToolUseContent{ID: c.ID, ToolName: c.ToolName, Input: c.Arguments}
			assistantParts = append(assistantParts, part)
			st.content = append(st.content, part)
		}
		messages = append(messages, types.Message{Role: types.RoleAssistant, Content: assistantParts})

		st.content = append(st.content, contentParts...)
		resultParts := make([]types.ContentPart, 0, len(tracked))
		for i, tr := range tracked {
			resultParts = append(resultParts, types.ToolResultContent{
				ToolCallID: tr.ToolCallID,
				ToolName:   tr.ToolName,
				Result:     tr.Result,
				Output:     contentParts[i].(types.ToolResultContent).Output,
			})
		}
		messages = append(messages, types.Message{Role: types.RoleTool, Content: resultParts})

		st.toolDepth++
		if st.toolDepth > opts.maxToolDepth() {
			break loop
		}
	}

	return st.finalResult(), nil
}
