package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wireloop/llmcore/pkg/events"
	"github.com/wireloop/llmcore/pkg/provider"
	"github.com/wireloop/llmcore/pkg/provider/errors"
	"github.com/wireloop/llmcore/pkg/provider/types"
	"github.com/wireloop/llmcore/pkg/telemetry"
)

// errAborted signals that opts.Cancel fired at a suspension point inside an
// in-flight backend round-trip (§5 "Suspension points"). It never escapes
// Stream as an error: classifyAbort converts it back into an AbortReason.
var errAborted = stderrors.New("orchestrator: aborted")

// formatterResult is the toolresult.Format input shape, restated here so
// this file doesn't need to import pkg/toolresult; the structural loop
// converts it 1:1 to/from toolresult.Result at the call site.
type formatterResult struct {
	toolUseID string
	isError   bool
	content   []types.ToolResultContentBlock
}

// iterationOutcome is what one structural backend round-trip decided, after
// folding the software-side stop-sequence scan (§4.4 phase 1) and the
// backend's own terminal field (phase 2) into a single effective reason.
type iterationOutcome struct {
	reason types.FinishReason
	stop   string
}

// feedAndRoute is the single place that writes to accumulated text, feeds
// the parser, and fans the resulting emissions out through the router. Every
// character the parser ever sees — live backend output, a synthesized
// tool-call close tag, or injected tool-result text — flows through here, so
// accumulated text and parser state can never drift apart (§3 "Accumulated
// Text" invariant).
func (o *Orchestrator) feedAndRoute(ctx context.Context, st *callState, router *events.Router, text string) {
	if text == "" {
		return
	}
	st.accum.WriteString(text)
	chunks, evs := st.parser.Feed(text)
	for _, c := range chunks {
		router.Chunk(ctx, c)
	}
	for _, e := range evs {
		router.Block(ctx, e)
	}
	st.appendTextBlocks(evs)
}

// scanStops implements §4.4's "Software-side scan": it searches the
// boundary between already-accumulated text and the newly arrived chunk for
// any configured stop sequence, since a sequence can straddle a chunk split.
// Returns the byte offset within chunkText where the match begins (content
// before that offset is safe to keep) and the matched string.
func scanStops(accumulatedSoFar, chunkText string, stops []string) (hit bool, idx int, matched string) {
	if len(stops) == 0 || chunkText == "" {
		return false, 0, ""
	}
	maxLen := 0
	for _, s := range stops {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	tailLen := maxLen - 1
	if tailLen > len(accumulatedSoFar) {
		tailLen = len(accumulatedSoFar)
	}
	if tailLen < 0 {
		tailLen = 0
	}
	tail := accumulatedSoFar[len(accumulatedSoFar)-tailLen:]
	window := tail + chunkText

	bestPos := -1
	var bestStop string
	for _, s := range stops {
		if s == "" {
			continue
		}
		if p := strings.Index(window, s); p != -1 && (bestPos == -1 || p < bestPos) {
			bestPos = p
			bestStop = s
		}
	}
	if bestPos == -1 {
		return false, 0, ""
	}

	idxInChunk := bestPos - len(tail)
	if idxInChunk < 0 {
		// The match starts inside the carried-over tail: the bytes before
		// the chunk are already committed to accumulated text and cannot be
		// un-appended, so the whole chunk is dropped.
		idxInChunk = 0
	}
	return true, idxInChunk, bestStop
}

func (o *Orchestrator) buildGenerateOptions(req types.NormalizedRequest, messages []types.Message, stops []string, nativeTools bool) *provider.GenerateOptions {
	opts := &provider.GenerateOptions{
		Prompt:           types.Prompt{Messages: messages},
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		TopP:             req.TopP,
		TopK:             req.TopK,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Seed:             req.Seed,
		StopSequences:    stops,
	}
	if nativeTools {
		opts.Tools = convertTools(req.Tools)
	}
	return opts
}

func convertTools(defs []types.ToolDefinition) []types.Tool {
	if len(defs) == 0 {
		return nil
	}
	out := make([]types.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, types.Tool{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema,
		})
	}
	return out
}

// applyToolResults matches the handler's returned results back to the calls
// that requested them (I6 "tool-id echo"), and builds the representations
// downstream code needs: the tracked types.ToolResult list (final response
// assembly), the formatterResult list (structural-mode serialization), and
// the types.ContentPart list (canonical content blocks). A call with no
// matching result is the "returning anything other than a list" hard error
// from §4.5 made concrete for a typed handler signature: the Go type system
// already forbids a non-list return, so the remaining failure mode is an
// incomplete one.
func (o *Orchestrator) applyToolResults(calls []types.ToolCall, handlerResults []events.ToolResult) ([]types.ToolResult, []formatterResult, []types.ContentPart, error) {
	byID := make(map[string]events.ToolResult, len(handlerResults))
	for _, r := range handlerResults {
		byID[r.ToolCallID] = r
	}

	tracked := make([]types.ToolResult, 0, len(calls))
	formatted := make([]formatterResult, 0, len(calls))
	contentParts := make([]types.ContentPart, 0, len(calls))

	for _, c := range calls {
		r, ok := byID[c.ID]
		if !ok {
			return nil, nil, nil, &errors.ClassifiedError{
				Kind: errors.KindBadHandlerReturn,
				Cause: fmt.Errorf(
					"tool handler returned no result for call %q (%s): every call id must be echoed back exactly once",
					c.ID, c.ToolName,
				),
			}
		}

		tr := types.ToolResult{ToolCallID: c.ID, ToolName: c.ToolName, Result: r.Content}
		if r.IsError {
			tr.Error = fmt.Errorf("tool %q reported an error", c.ToolName)
		}
		tracked = append(tracked, tr)
		formatted = append(formatted, formatterResult{toolUseID: c.ID, isError: r.IsError, content: r.Content})
		contentParts = append(contentParts, types.ToolResultContent{
			ToolCallID: c.ID,
			ToolName:   c.ToolName,
			Output: &types.ToolResultOutput{
				Type:    types.ToolResultOutputContent,
				Content: r.Content,
			},
		})
	}
	return tracked, formatted, contentParts, nil
}

// classifyAbort reports whether err represents a cancellation (user-driven
// or per-iteration timeout) rather than a genuine propagate-to-caller error
// (§4.5 "Cancellation": "never by raising"; §7: only abort is not an error to
// the consumer).
func classifyAbort(err error) (types.AbortReason, bool) {
	if stderrors.Is(err, errAborted) {
		return types.AbortReasonUser, true
	}
	ce := errors.Classify(err, nil)
	switch ce.Kind {
	case errors.KindAbort:
		return types.AbortReasonUser, true
	case errors.KindTimeout:
		return types.AbortReasonTimeout, true
	default:
		return "", false
	}
}

// runBackendIteration issues one backend round-trip (wrapped in an
// observability span, §4.5 on_request/on_response), feeds every text chunk
// through the parser, and folds the two-phase stop-sequence detection (§4.4)
// into a single effective (reason, stop) pair.
func (o *Orchestrator) runBackendIteration(ctx context.Context, st *callState, router *events.Router, genOpts *provider.GenerateOptions, stops []string, opts Options) (iterationOutcome, error) {
	return telemetry.RecordSpan(ctx, o.Tracer, telemetry.SpanOptions{
		Name:        "llmcore.iteration",
		Attributes:  []attribute.KeyValue{attribute.Int("llmcore.iteration", st.iteration)},
		EndWhenDone: true,
	}, func(spanCtx context.Context, span trace.Span) (iterationOutcome, error) {
		iterCtx := spanCtx
		if opts.PerIterationTimeout > 0 {
			var cancel context.CancelFunc
			iterCtx, cancel = context.WithTimeout(spanCtx, opts.PerIterationTimeout)
			defer cancel()
		}

		router.Request(ctx, st.iteration, genOpts.Prompt.Messages)

		stream, err := o.Backend.DoStream(iterCtx, genOpts)
		if err != nil {
			return iterationOutcome{}, errors.Classify(err, genOpts)
		}
		defer stream.Close()

		softwareMatched := false
		var matchedStop string

	readLoop:
		for {
			if st.cancelled(opts.Cancel) {
				return iterationOutcome{}, errAborted
			}
			chunk, err := stream.Next()
			if err == io.EOF {
				break readLoop
			}
			if err != nil {
				return iterationOutcome{}, errors.Classify(err, genOpts)
			}

			switch chunk.Type {
			case provider.ChunkTypeText:
				if hit, idx, matched := scanStops(st.accum.String(), chunk.Text, stops); hit {
					o.feedAndRoute(ctx, st, router, chunk.Text[:idx])
					softwareMatched = true
					matchedStop = matched
					break readLoop
				}
				o.feedAndRoute(ctx, st, router, chunk.Text)
			case provider.ChunkTypeUsage:
				if chunk.Usage != nil {
					st.usage = st.usage.Add(*chunk.Usage)
				}
			case provider.ChunkTypeFinish:
				st.lastFinish = chunk.FinishReason
				st.lastStopSeq = chunk.StopSequence
				if chunk.Usage != nil {
					st.usage = st.usage.Add(*chunk.Usage)
				}
				break readLoop
			case provider.ChunkTypeError:
				return iterationOutcome{}, errors.Classify(fmt.Errorf("backend reported a stream error"), genOpts)
			}
		}

		router.Response(ctx, st.iteration, st.lastFinish)
		router.Usage(ctx, st.usage)

		reason, stop := st.lastFinish, st.lastStopSeq
		if softwareMatched {
			reason, stop = types.FinishReasonStopSequence, matchedStop
		}
		return iterationOutcome{reason: reason, stop: stop}, nil
	})
}

// nativeOutcome is the native-tool-mode analog of iterationOutcome: the
// backend reports tool calls through typed chunks instead of a structural
// stop sequence (§9 note 5), so there is no stop-sequence scan to fold in.
type nativeOutcome struct {
	reason types.FinishReason
	calls  []types.ToolCall
}

func (o *Orchestrator) runNativeIteration(ctx context.Context, st *callState, router *events.Router, genOpts *provider.GenerateOptions, opts Options) (nativeOutcome, error) {
	return telemetry.RecordSpan(ctx, o.Tracer, telemetry.SpanOptions{
		Name:        "llmcore.iteration.native",
		Attributes:  []attribute.KeyValue{attribute.Int("llmcore.iteration", st.iteration)},
		EndWhenDone: true,
	}, func(spanCtx context.Context, span trace.Span) (nativeOutcome, error) {
		iterCtx := spanCtx
		if opts.PerIterationTimeout > 0 {
			var cancel context.CancelFunc
			iterCtx, cancel = context.WithTimeout(spanCtx, opts.PerIterationTimeout)
			defer cancel()
		}

		router.Request(ctx, st.iteration, genOpts.Prompt.Messages)

		stream, err := o.Backend.DoStream(iterCtx, genOpts)
		if err != nil {
			return nativeOutcome{}, errors.Classify(err, genOpts)
		}
		defer stream.Close()

		var calls []types.ToolCall

	readLoop:
		for {
			if st.cancelled(opts.Cancel) {
				return nativeOutcome{}, errAborted
			}
			chunk, err := stream.Next()
			if err == io.EOF {
				break readLoop
			}
			if err != nil {
				return nativeOutcome{}, errors.Classify(err, genOpts)
			}

			switch chunk.Type {
			case provider.ChunkTypeText:
				o.feedAndRoute(ctx, st, router, chunk.Text)
			case provider.ChunkTypeToolCall:
				if chunk.ToolCall != nil {
					calls = append(calls, *chunk.ToolCall)
				}
			case provider.ChunkTypeUsage:
				if chunk.Usage != nil {
					st.usage = st.usage.Add(*chunk.Usage)
				}
			case provider.ChunkTypeFinish:
				st.lastFinish = chunk.FinishReason
				st.lastStopSeq = chunk.StopSequence
				if chunk.Usage != nil {
					st.usage = st.usage.Add(*chunk.Usage)
				}
				break readLoop
			case provider.ChunkTypeError:
				return nativeOutcome{}, errors.Classify(fmt.Errorf("backend reported a stream error"), genOpts)
			}
		}

		router.Response(ctx, st.iteration, st.lastFinish)
		router.Usage(ctx, st.usage)
		return nativeOutcome{reason: st.lastFinish, calls: calls}, nil
	})
}
