package errors

import (
	"context"
	"errors"
)

// Kind classifies a backend error into the closed taxonomy §7 requires,
// independent of the concrete Go error type carrying it. The orchestrator
// (pkg/orchestrator) classifies once at the transport boundary and never
// inspects a concrete error type directly.
type Kind string

const (
	KindRateLimit        Kind = "rate_limit"
	KindAuth              Kind = "auth"
	KindContextLength     Kind = "context_length"
	KindServer            Kind = "server"
	KindNetwork           Kind = "network"
	KindTimeout           Kind = "timeout"
	KindAbort             Kind = "abort"
	KindBadHandlerReturn  Kind = "bad_handler_return"
	KindUnknown           Kind = "unknown"
)

// Retryable reports whether the out-of-scope retry path (§7 "Propagation
// policy") is permitted to retry an error of this kind. auth,
// context_length, and bad_handler_return are programmer/caller errors that
// retrying cannot fix; abort is not an error to the consumer at all.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimit, KindServer, KindNetwork, KindTimeout:
		return true
	default:
		return false
	}
}

// ClassifiedError pairs a Kind with the original error for diagnostics, plus
// (when available) the raw request that failed, per §7's "surface as a
// typed error carrying the original for diagnostics, plus the raw request
// that failed".
type ClassifiedError struct {
	Kind       Kind
	Cause      error
	RawRequest interface{}
}

func (e *ClassifiedError) Error() string {
	if e.Cause == nil {
		return "classified error: " + string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Cause.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.Cause }

// Classify inspects err and assigns it a Kind, following the existing typed
// errors in this package before falling back to context/string heuristics
// (the same approach gateway/errors.IsTimeoutError already uses for timeout
// detection). Classify is the single entry point §7 requires "used once at
// the transport boundary".
func Classify(err error, rawRequest interface{}) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	kind := classifyKind(err)
	return &ClassifiedError{Kind: kind, Cause: err, RawRequest: rawRequest}
}

func classifyKind(err error) Kind {
	if errors.Is(err, context.Canceled) {
		return KindAbort
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return KindRateLimit
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		switch {
		case providerErr.StatusCode == 401 || providerErr.StatusCode == 403:
			return KindAuth
		case providerErr.StatusCode == 429:
			return KindRateLimit
		case providerErr.StatusCode == 408:
			return KindTimeout
		case providerErr.StatusCode >= 500:
			return KindServer
		case providerErr.StatusCode == 400 && isContextLengthMessage(providerErr.Message):
			return KindContextLength
		}
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindBadHandlerReturn
	}

	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return KindNetwork
	}

	if isContextLengthMessage(err.Error()) {
		return KindContextLength
	}

	return KindUnknown
}

func isContextLengthMessage(msg string) bool {
	needles := []string{"context length", "context_length", "maximum context", "too many tokens"}
	for _, n := range needles {
		if containsFold(msg, n) {
			return true
		}
	}
	return false
}

// containsFold is a tiny case-insensitive substring check, avoiding a
// strings.ToLower allocation on every classification call for the common
// case where the needle isn't present.
func containsFold(s, substr string) bool {
	n, m := len(s), len(substr)
	if m == 0 {
		return true
	}
	for i := 0; i+m <= n; i++ {
		if equalFold(s[i:i+m], substr) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
