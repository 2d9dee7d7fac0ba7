package tricore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/protobuf/types/known/anypb"
)

// ErrorDetail is a self-describing typed error payload: a type URL plus
// opaque bytes. Decoding to a concrete typed message is a capability
// exposed generically against a Codec (see Error.DecodeDetail), never
// fixed to one concrete detail type by the core (§9).
type ErrorDetail struct {
	TypeURL string
	Value   []byte
}

// Error is the engine's unified error representation, carrying a Code, a
// message, optional typed details, optional response metadata and an
// optional underlying cause. It is built on top of google.golang.org/grpc/
// status.Status, mirroring how avos-io/goat's client/multiplexer.go and
// pkg/server/stream.go already treat status.Status/spb.Status as their
// error wire format.
type Error struct {
	st       *status.Status
	metadata Metadata
	cause    error
}

// NewError builds an Error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{st: status.New(code, message)}
}

// NewErrorf builds an Error with a formatted message.
func NewErrorf(code Code, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WrapError builds an Error with the given code from an existing cause,
// using cause's text as the message and keeping cause for Unwrap.
func WrapError(code Code, cause error) *Error {
	e := NewError(code, cause.Error())
	e.cause = cause
	return e
}

// ErrorFromStatusProto rebuilds an Error from a google.rpc.Status wire
// message, the shape carried in gRPC's grpc-status-details-bin trailer
// (§4.5) and Connect's JSON error body once decoded (§4.4). Grounded on
// client/multiplexer.go's status.FromProto(&spb.Status{...}).
func ErrorFromStatusProto(sp *spb.Status) *Error {
	return &Error{st: status.FromProto(sp)}
}

// Code returns the error's status code.
func (e *Error) Code() Code {
	if e == nil || e.st == nil {
		return CodeUnknown
	}
	return e.st.Code()
}

// Message returns the error's human-readable message.
func (e *Error) Message() string {
	if e == nil || e.st == nil {
		return ""
	}
	return e.st.Message()
}

// Details returns the error's typed detail payloads.
func (e *Error) Details() []*ErrorDetail {
	if e == nil || e.st == nil {
		return nil
	}
	pbDetails := e.st.Proto().GetDetails()
	if len(pbDetails) == 0 {
		return nil
	}
	out := make([]*ErrorDetail, 0, len(pbDetails))
	for _, a := range pbDetails {
		out = append(out, &ErrorDetail{TypeURL: a.GetTypeUrl(), Value: a.GetValue()})
	}
	return out
}

// WithDetails returns a copy of e with details appended to its underlying
// google.rpc.Status, per §4.4: Connect's JSON error body carries details as
// {type, value} pairs, decoded here into the same opaque-bytes shape gRPC's
// grpc-status-details-bin trailer already produces via ErrorFromStatusProto.
func (e *Error) WithDetails(details []*ErrorDetail) *Error {
	if e == nil || len(details) == 0 {
		return e
	}
	sp := e.st.Proto()
	anys := make([]*anypb.Any, 0, len(details))
	for _, d := range details {
		anys = append(anys, &anypb.Any{TypeUrl: d.TypeURL, Value: d.Value})
	}
	sp.Details = append(sp.GetDetails(), anys...)

	cp := *e
	cp.st = status.FromProto(sp)
	return &cp
}

// DecodeDetail unmarshals the detail at index using codec, generic against
// whatever message type the caller expects — the core never fixes a
// concrete detail type (§9 "Error detail typing").
func (e *Error) DecodeDetail(index int, codec Codec, v interface{}) error {
	if e == nil {
		return fmt.Errorf("tricore: DecodeDetail called on nil Error")
	}
	if codec == nil {
		return fmt.Errorf("tricore: DecodeDetail: nil codec")
	}
	details := e.Details()
	if index < 0 || index >= len(details) {
		return fmt.Errorf("tricore: DecodeDetail: index %d out of range (%d details)", index, len(details))
	}
	return codec.Unmarshal(details[index].Value, v)
}

// Metadata returns any response metadata captured alongside the error
// (e.g. trailers present when a gRPC/gRPC-Web/Connect-streaming call
// failed).
func (e *Error) Metadata() Metadata {
	if e == nil {
		return nil
	}
	return e.metadata
}

// WithMetadata returns a copy of e carrying the given metadata.
func (e *Error) WithMetadata(md Metadata) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.metadata = md
	return &cp
}

// Unwrap exposes the underlying cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// GRPCStatus lets Error interoperate with status.FromError and
// status.Code, the same convention the teacher's status package already
// establishes.
func (e *Error) GRPCStatus() *status.Status {
	if e == nil {
		return nil
	}
	return e.st
}

// StatusProto returns the underlying google.rpc.Status wire message.
func (e *Error) StatusProto() *spb.Status {
	if e == nil || e.st == nil {
		return nil
	}
	return e.st.Proto()
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code(), e.Message(), e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code(), e.Message())
}

// AsError converts any error into a *Error, mapping unrecognized errors to
// CodeUnknown per §7 ("transport or protocol error without better
// mapping"). A *Error is returned unchanged; an error carrying a
// status.Status (via GRPCStatus) is translated preserving its code.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	if st, ok := status.FromError(err); ok {
		return &Error{st: st, cause: err}
	}
	return &Error{st: status.New(codes.Unknown, err.Error()), cause: err}
}

// IsCanceled reports whether err represents cancellation, either through
// this package's Error or through context.Canceled.
func IsCanceled(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return AsError(err).Code() == CodeCanceled
}
