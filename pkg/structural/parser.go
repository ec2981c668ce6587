package structural

import (
	"strings"

	"github.com/wireloop/llmcore/pkg/provider/types"
)

// Parser is one incremental structural parser instance. Per §3's Ownership
// rule, exactly one Parser belongs to exactly one stream() invocation; it is
// never shared across calls.
type Parser struct {
	tags *Tags

	// buf holds bytes since the last unresolved '<' that could still become a
	// recognized tag with more input. Empty when not mid-candidate.
	buf string

	thinkingDepth   int
	toolCallDepth   int
	toolResultDepth int

	currentType types.StructuralBlockType
	typeStack   []types.StructuralBlockType

	blockOpen    bool
	blockIndex   int
	nextIndex    int
	blockContent strings.Builder

	finalized bool
}

// New creates a parser for the given structural grammar. Pass nil to use
// DefaultTags(""), which is the grammar every backend MUST be able to drive
// (§6).
func New(tags *Tags) *Parser {
	if tags == nil {
		tags = DefaultTags("")
	}
	return &Parser{
		tags:        tags,
		currentType: types.BlockText,
	}
}

// DepthSnapshot captures the three depth counters at a point in time, for use
// with InsideAnyBlockSince (see §9 hazard 1/2).
type DepthSnapshot struct {
	thinking, toolCall, toolResult int
}

// Snapshot captures the current depth counters.
func (p *Parser) Snapshot() DepthSnapshot {
	return DepthSnapshot{p.thinkingDepth, p.toolCallDepth, p.toolResultDepth}
}

// InsideAnyBlock reports whether any depth counter is currently above zero,
// using absolute parser state.
func (p *Parser) InsideAnyBlock() bool {
	return p.thinkingDepth > 0 || p.toolCallDepth > 0 || p.toolResultDepth > 0
}

// InsideAnyBlockSince reports whether any depth counter has increased beyond
// its value at the given snapshot — i.e. a region was genuinely opened
// during the current iteration, as opposed to inherited, unclosed structural
// content from earlier conversation history pushed through the same parser
// instance across prefill iterations. See §9 hazard 1: resolving
// inside_any_block() relative to an iteration-start snapshot is option (b),
// the choice this implementation makes (documented in DESIGN.md).
func (p *Parser) InsideAnyBlockSince(s DepthSnapshot) bool {
	return p.thinkingDepth > s.thinking || p.toolCallDepth > s.toolCall || p.toolResultDepth > s.toolResult
}

// BlockIndex returns the index that would be assigned to the next block to
// open. Useful for callers that need to correlate emissions across Feed
// calls without re-deriving state.
func (p *Parser) BlockIndex() int {
	return p.nextIndex
}

// Feed consumes one chunk of the backend's character stream and returns, in
// order, every content piece and block boundary event it produces (§4.1
// "Ordering guarantee").
func (p *Parser) Feed(chunk string) ([]types.ChunkEmission, []types.BlockEvent) {
	var chunks []types.ChunkEmission
	var events []types.BlockEvent

	emitContent := func(s string) {
		if s == "" {
			return
		}
		p.ensureBlockOpen(&events)
		p.blockContent.WriteString(s)
		chunks = append(chunks, types.ChunkEmission{
			Text:       s,
			Type:       p.currentType,
			Visible:    p.currentType == types.BlockText,
			BlockIndex: p.blockIndex,
			Depth:      p.maxDepth(),
		})
	}

	working := p.buf + chunk
	p.buf = ""

	for len(working) > 0 {
		idx := strings.IndexByte(working, '<')
		if idx == -1 {
			emitContent(working)
			working = ""
			break
		}
		if idx > 0 {
			emitContent(working[:idx])
			working = working[idx:]
		}

		res := p.tags.matchAt(working)
		if res.matched {
			events = append(events, p.applyTag(res.spec)...)
			working = working[res.consumed:]
			continue
		}
		if res.couldMatch {
			p.buf = working
			working = ""
			break
		}

		// Buffer starting with '<' cannot be a prefix of any known tag
		// (e.g. "<b>", "<|eot|>"): flush just the leading '<' as content and
		// re-scan, since a real tag may still start a few bytes later.
		emitContent(working[:1])
		working = working[1:]
	}

	return chunks, events
}

func (p *Parser) maxDepth() int {
	if p.toolCallDepth > p.toolResultDepth {
		return p.toolCallDepth
	}
	return p.toolResultDepth
}

func (p *Parser) ensureBlockOpen(events *[]types.BlockEvent) {
	if p.blockOpen {
		return
	}
	p.blockIndex = p.nextIndex
	p.nextIndex++
	p.blockContent.Reset()
	p.blockOpen = true
	*events = append(*events, types.BlockEvent{
		Kind:  types.BlockStart,
		Index: p.blockIndex,
		Type:  p.currentType,
	})
}

// applyTag processes one fully-recognized tag and returns any block events
// it produces.
func (p *Parser) applyTag(spec tagSpec) []types.BlockEvent {
	outerType, isOuter := consumerType(spec.region)
	delta := 1
	if spec.boundary == boundaryClose {
		delta = -1
	}
	*p.depthFor(spec.region) = clampNonNegative(*p.depthFor(spec.region) + delta)

	if !isOuter {
		return nil
	}

	if spec.boundary == boundaryOpen {
		var events []types.BlockEvent
		if p.blockOpen {
			events = append(events, types.BlockEvent{
				Kind:    types.BlockComplete,
				Index:   p.blockIndex,
				Type:    p.currentType,
				Content: p.blockContent.String(),
			})
			p.blockOpen = false
		}
		p.typeStack = append(p.typeStack, p.currentType)
		p.currentType = outerType
		p.ensureBlockOpen(&events)
		return events
	}

	// Closing an outer region only closes the consumer block if we are
	// actually inside it; an unmatched/mismatched close degrades to a no-op
	// beyond the depth adjustment already applied above (failure modes, §4.1).
	if p.currentType != outerType || !p.blockOpen {
		return nil
	}
	events := []types.BlockEvent{{
		Kind:    types.BlockComplete,
		Index:   p.blockIndex,
		Type:    p.currentType,
		Content: p.blockContent.String(),
	}}
	p.blockOpen = false
	if n := len(p.typeStack); n > 0 {
		p.currentType = p.typeStack[n-1]
		p.typeStack = p.typeStack[:n-1]
	} else {
		p.currentType = types.BlockText
	}
	return events
}

func (p *Parser) depthFor(r region) *int {
	switch r {
	case regionThinking:
		return &p.thinkingDepth
	case regionToolCall, regionInvoke, regionParameter:
		return &p.toolCallDepth
	default: // regionToolResult, regionResult, regionError
		return &p.toolResultDepth
	}
}

func consumerType(r region) (types.StructuralBlockType, bool) {
	switch r {
	case regionThinking:
		return types.BlockThinking, true
	case regionToolCall:
		return types.BlockToolCall, true
	case regionToolResult:
		return types.BlockToolResult, true
	default:
		return "", false
	}
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Finalize flushes any half-buffered tag as content and closes any open
// block. Safe to call at most once per parser instance (§4.1 "Idempotent
// flush"); a second call is a no-op.
func (p *Parser) Finalize() ([]types.ChunkEmission, []types.BlockEvent) {
	if p.finalized {
		return nil, nil
	}
	p.finalized = true

	var chunks []types.ChunkEmission
	var events []types.BlockEvent

	if p.buf != "" {
		p.ensureBlockOpen(&events)
		p.blockContent.WriteString(p.buf)
		chunks = append(chunks, types.ChunkEmission{
			Text:       p.buf,
			Type:       p.currentType,
			Visible:    p.currentType == types.BlockText,
			BlockIndex: p.blockIndex,
			Depth:      p.maxDepth(),
		})
		p.buf = ""
	}

	if p.blockOpen {
		events = append(events, types.BlockEvent{
			Kind:    types.BlockComplete,
			Index:   p.blockIndex,
			Type:    p.currentType,
			Content: p.blockContent.String(),
		})
		p.blockOpen = false
	}

	return chunks, events
}

// ResetForIteration clears the partial-tag buffer only. Depth counters,
// current type and block index are preserved across the continuation loop's
// iterations, by design — see §9 hazard 1/2 and InsideAnyBlockSince.
func (p *Parser) ResetForIteration() {
	p.buf = ""
	p.finalized = false
}

// ResetFull reinitializes every piece of parser state, as if newly
// constructed. Used by the stop-sequence software-side scan (§4.4), which
// truncates accumulated text at a hit index and must re-derive parser state
// by replaying the truncated text from scratch rather than trusting
// whatever depth/typeStack state had accumulated past the truncation point.
func (p *Parser) ResetFull() {
	p.buf = ""
	p.thinkingDepth = 0
	p.toolCallDepth = 0
	p.toolResultDepth = 0
	p.currentType = types.BlockText
	p.typeStack = nil
	p.blockOpen = false
	p.blockIndex = 0
	p.nextIndex = 0
	p.blockContent.Reset()
	p.finalized = false
}

// ParseAll runs a fresh parser over the entire text and finalizes it in one
// call. This is the "parse accumulated text once more into ordered
// ContentBlocks" step of final response assembly (§4.3).
func ParseAll(tags *Tags, text string) ([]types.ChunkEmission, []types.BlockEvent) {
	p := New(tags)
	chunks, events := p.Feed(text)
	fc, fe := p.Finalize()
	return append(chunks, fc...), append(events, fe...)
}
