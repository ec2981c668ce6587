package types

// StructuralBlockType is the parser's consumer-visible block taxonomy.
// Every block reported to a caller via BlockEvent is one of these four kinds;
// nested sub-regions (invoke/parameter/result/error) move depth counters but
// never introduce a fifth kind.
type StructuralBlockType string

const (
	BlockText       StructuralBlockType = "text"
	BlockThinking   StructuralBlockType = "thinking"
	BlockToolCall   StructuralBlockType = "tool_call"
	BlockToolResult StructuralBlockType = "tool_result"
)

// BlockEventKind distinguishes the two halves of a consumer block's lifecycle.
type BlockEventKind string

const (
	BlockStart    BlockEventKind = "block_start"
	BlockComplete BlockEventKind = "block_complete"
)

// BlockEvent is either a block_start or a block_complete emission from the
// incremental structural parser. Index is monotonically increasing within one
// stream() call and contiguous from 0 (I3).
type BlockEvent struct {
	Kind  BlockEventKind
	Index int
	Type  StructuralBlockType

	// Content is set on BlockComplete: the concatenation of every content
	// piece emitted into this block (visible or not).
	Content string

	// ToolName, ToolID and Input are populated only when the region contained
	// exactly one unambiguous invocation/result; for the general case the
	// Tool-Call Extractor (pkg/toolcall) and Result Formatter (pkg/toolresult)
	// are the authoritative source, scanning accumulated text directly.
	ToolName string
	ToolID   string
	Input    map[string]interface{}
}

// ChunkEmission is a single character-level content piece produced by the
// parser for one chunk of input.
type ChunkEmission struct {
	Text       string
	Type       StructuralBlockType
	Visible    bool
	BlockIndex int
	Depth      int
}

// ToolMode selects whether tool invocations are carried in the character
// stream (structural) or in the backend's native tool-call schema (native).
type ToolMode string

const (
	ToolModeStructural ToolMode = "structural"
	ToolModeNative     ToolMode = "native"
	ToolModeAuto       ToolMode = "auto"
)

// ToolDefinition describes a callable tool to a backend or to the structural
// prompt preamble. Absence of a "properties" key in InputSchema is valid and
// denotes a no-argument tool.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// NormalizedRequest is the input contract for a stream()/complete() call:
// conversation history, generation parameters, tool definitions and the
// tool-mode selector. It is backend-agnostic; the Prefill Builder turns it
// (plus the growing accumulated text) into backend-ready GenerateOptions on
// every iteration.
type NormalizedRequest struct {
	Messages []Message

	// System is either a plain string or an ordered sequence of ContentPart.
	System interface{}

	ModelID          string
	MaxTokens        *int
	Temperature      *float64
	TopP             *float64
	TopK             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Seed             *int

	Tools    []ToolDefinition
	ToolMode ToolMode

	// CacheHints carries opaque, backend-specific cache-marker placement
	// advice. The core never interprets it; it is out of scope by §1.
	CacheHints interface{}
}

// AbortReason classifies why a stream() call produced an AbortedResponse
// instead of a normal result.
type AbortReason string

const (
	AbortReasonUser    AbortReason = "user"
	AbortReasonTimeout AbortReason = "timeout"
	AbortReasonError   AbortReason = "error"
)

// AbortedResponse is handed back synchronously from stream()'s normal return
// path when a cancellation signal fires at a suspension point. It is never
// raised as an error (§4.5 "Cancellation").
type AbortedResponse struct {
	ContentBlocks   []ContentPart
	Usage           Usage
	ToolCalls       []ToolCall
	ToolResults     []ToolResult
	Reason          AbortReason
	AccumulatedText string
}
