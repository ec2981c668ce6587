// Package events fans out the Stream Orchestrator's lifecycle callbacks
// (§4.5): chunk/block emission, tool-call interception, usage accounting,
// and request/response/error hooks, in the causal order the orchestrator
// produces them in.
package events

import (
	"context"

	"github.com/wireloop/llmcore/pkg/ai"
	"github.com/wireloop/llmcore/pkg/provider/types"
)

// OnChunkEvent fires for every ChunkEmission the parser produces, visible or
// not (§4.5): the lowest-level, highest-frequency hook.
type OnChunkEvent struct {
	Chunk types.ChunkEmission
}

// OnBlockEvent fires for every block_start/block_complete boundary.
type OnBlockEvent struct {
	Block types.BlockEvent
}

// OnPreToolContentEvent fires once per iteration with the assistant text
// that preceded a tool-call region, before the tools in it execute.
type OnPreToolContentEvent struct {
	Text string
}

// OnUsageEvent fires after each backend round-trip with that round-trip's
// usage delta.
type OnUsageEvent struct {
	Usage types.Usage
}

// OnRequestEvent fires immediately before a backend round-trip is issued.
type OnRequestEvent struct {
	Iteration int
	Messages  []types.Message
}

// OnResponseEvent fires immediately after a backend round-trip completes
// successfully.
type OnResponseEvent struct {
	Iteration    int
	FinishReason types.FinishReason
}

// ErrorAction is the caller's decision on how the orchestrator should
// proceed after an on_error callback runs.
type ErrorAction string

const (
	// ErrorActionRetry re-issues the current iteration's backend round-trip.
	ErrorActionRetry ErrorAction = "retry"
	// ErrorActionAbort ends the stream, producing an AbortedResponse.
	ErrorActionAbort ErrorAction = "abort"
)

// ToolCallsHandler is called once per iteration with the structural
// tool-call list extracted from that iteration's response, and must return
// the results to feed back to the backend. Unlike the pure-notification
// hooks, this one participates in control flow, so it cannot be modeled as
// an ai.Listener (which is fire-and-forget, §"Callback merging").
type ToolCallsHandler func(ctx context.Context, calls []types.ToolCall) []ToolResult

// ToolResult is what a ToolCallsHandler returns for one tool call.
type ToolResult struct {
	ToolCallID string
	IsError    bool
	Content    []types.ToolResultContentBlock
}

// ErrorHandler is called when a backend round-trip fails, and decides
// whether the orchestrator retries or aborts.
type ErrorHandler func(ctx context.Context, err error) ErrorAction

// Router holds every listener for one stream() invocation. Pure-notification
// hooks reuse ai.Listener/ai.Notify directly; the two callbacks that return a
// value (OnToolCalls, OnError) are separate fields with their own types.
type Router struct {
	OnChunk          []ai.Listener[OnChunkEvent]
	OnBlock          []ai.Listener[OnBlockEvent]
	OnPreToolContent []ai.Listener[OnPreToolContentEvent]
	OnUsage          []ai.Listener[OnUsageEvent]
	OnRequest        []ai.Listener[OnRequestEvent]
	OnResponse       []ai.Listener[OnResponseEvent]

	OnToolCalls ToolCallsHandler
	OnError     ErrorHandler
}

// Chunk notifies every chunk listener, in order (§4.5 "chunk events are
// emitted strictly in stream order, interleaved with block events").
func (r *Router) Chunk(ctx context.Context, c types.ChunkEmission) {
	ai.Notify(ctx, OnChunkEvent{Chunk: c}, r.OnChunk...)
}

// Block notifies every block listener.
func (r *Router) Block(ctx context.Context, b types.BlockEvent) {
	ai.Notify(ctx, OnBlockEvent{Block: b}, r.OnBlock...)
}

// PreToolContent notifies every pre-tool-content listener. Called exactly
// once per iteration that contains a tool-call region, before ToolCalls.
func (r *Router) PreToolContent(ctx context.Context, text string) {
	ai.Notify(ctx, OnPreToolContentEvent{Text: text}, r.OnPreToolContent...)
}

// Usage notifies every usage listener.
func (r *Router) Usage(ctx context.Context, u types.Usage) {
	ai.Notify(ctx, OnUsageEvent{Usage: u}, r.OnUsage...)
}

// Request notifies every request listener.
func (r *Router) Request(ctx context.Context, iteration int, messages []types.Message) {
	ai.Notify(ctx, OnRequestEvent{Iteration: iteration, Messages: messages}, r.OnRequest...)
}

// Response notifies every response listener.
func (r *Router) Response(ctx context.Context, iteration int, reason types.FinishReason) {
	ai.Notify(ctx, OnResponseEvent{Iteration: iteration, FinishReason: reason}, r.OnResponse...)
}

// ToolCalls invokes the configured tool-call handler, or returns nil results
// (every call treated as unhandled) when none is configured, matching the
// spec's "no on_tool_calls configured" default.
func (r *Router) ToolCalls(ctx context.Context, calls []types.ToolCall) []ToolResult {
	if r.OnToolCalls == nil {
		return nil
	}
	return r.OnToolCalls(ctx, calls)
}

// Error invokes the configured error handler, defaulting to abort when none
// is configured — the conservative default (§7 "bad_handler_return").
func (r *Router) Error(ctx context.Context, err error) ErrorAction {
	if r.OnError == nil {
		return ErrorActionAbort
	}
	action := r.OnError(ctx, err)
	if action != ErrorActionRetry && action != ErrorActionAbort {
		return ErrorActionAbort
	}
	return action
}
