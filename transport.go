package tricore

import (
	"context"
	"time"
)

// Idempotency classifies an RPC's side-effect contract, per §3. Connect
// unary calls declared NoSideEffects may be transformed into cacheable GET
// requests (§4.4).
type Idempotency int

const (
	IdempotencyUnknown Idempotency = iota
	IdempotencyNoSideEffects
	IdempotencyIdempotent
)

// Method is an HTTP method a RequestDescriptor may target.
type Method string

const (
	MethodPost Method = "POST"
	MethodGet  Method = "GET"
)

// RequestDescriptor is the wire-agnostic shape of a single HTTP request the
// engine hands to a Transport.
type RequestDescriptor struct {
	URL    string
	Method Method
	// Headers is the full outgoing header set, including wire-framing
	// headers (Content-Type, Accept-Encoding, TE, ...) protocol
	// interceptors set directly. A Transport sends these as given; they are
	// not filtered through headerutil's reserved-header list, which only
	// applies when translating received headers/trailers into user-visible
	// Metadata.
	Headers     Metadata
	Body        []byte
	HasBody     bool
	Trailers    Metadata
	Idempotency Idempotency
	Timeout     time.Duration
}

// ResponseDescriptor is the wire-agnostic shape of a completed unary HTTP
// response.
type ResponseDescriptor struct {
	HTTPStatus int
	Headers    Metadata
	Body       []byte
	HasBody    bool
	Trailers   Metadata
	Error      *Error
}

// StreamEventKind discriminates a StreamResult's payload.
type StreamEventKind int

const (
	StreamEventHeaders StreamEventKind = iota
	StreamEventMessage
	StreamEventComplete
	// StreamEventDiscard is an internal-only kind an interceptor may
	// return to have the stream silently drop a frame rather than
	// surfacing it to the caller. Used by the gRPC-Web interceptor to
	// discard transport frames that arrive after a decode failure has
	// already been turned into a terminal Complete event (§9).
	StreamEventDiscard
	// StreamEventSendError is a non-terminal advisory event: a Send failed,
	// either because it was called after CloseSend or Cancel or because an
	// interceptor or the transport sink returned an error. Per §4.9 the
	// error is reported through the result channel rather than panicking
	// or ending the stream; the eventual single terminal Complete still
	// arrives separately.
	StreamEventSendError
)

// StreamResult is the tagged union yielded by a stream's receive side. A
// valid stream yields Headers at most once (first), zero or more Message,
// and exactly one terminal Complete (§3).
type StreamResult struct {
	Kind     StreamEventKind
	Headers  Metadata // valid when Kind == StreamEventHeaders
	Message  []byte   // valid when Kind == StreamEventMessage
	Code     Code     // valid when Kind == StreamEventComplete or StreamEventSendError
	Error    *Error   // valid when Kind == StreamEventComplete or StreamEventSendError
	Trailers Metadata // valid when Kind == StreamEventComplete
}

// HeadersResult constructs a StreamEventHeaders result.
func HeadersResult(md Metadata) StreamResult {
	return StreamResult{Kind: StreamEventHeaders, Headers: md}
}

// MessageResult constructs a StreamEventMessage result.
func MessageResult(b []byte) StreamResult {
	return StreamResult{Kind: StreamEventMessage, Message: b}
}

// CompleteResult constructs a StreamEventComplete result.
func CompleteResult(code Code, err *Error, trailers Metadata) StreamResult {
	return StreamResult{Kind: StreamEventComplete, Code: code, Error: err, Trailers: trailers}
}

// SendErrorResult constructs a StreamEventSendError result.
func SendErrorResult(err *Error) StreamResult {
	return StreamResult{Kind: StreamEventSendError, Code: err.Code(), Error: err}
}

// StreamSink is the write side of a transport-level stream: raw encoded
// envelope bytes written here become the request body.
type StreamSink interface {
	Send(ctx context.Context, frame []byte) error
	Close() error
}

// StreamSource is the read side of a transport-level stream: it yields
// StreamResult events carrying raw bytes, which the protocol interceptor's
// on_output hook then interprets (unframing, end-stream detection).
type StreamSource interface {
	// Next blocks until the next event is available, ctx is done, or the
	// stream terminates. After a StreamEventComplete event, Next must not
	// be called again.
	Next(ctx context.Context) (StreamResult, error)
}

// CancelFunc aborts an in-flight transport call.
type CancelFunc func()

// Transport is the pluggable component the engine drives: it accepts a
// request descriptor and yields either a single response (unary) or a
// stream of frames (streaming). Transport implementations, TLS, and
// connection pooling are all out of scope for this module (§1); the engine
// only ever consumes this trait.
type Transport interface {
	PerformUnary(ctx context.Context, req *RequestDescriptor) (*ResponseDescriptor, error)
	PerformStream(ctx context.Context, req *RequestDescriptor) (StreamSink, StreamSource, CancelFunc, error)
}
