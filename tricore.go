// Package tricore is the protocol engine behind a client-side RPC library
// that speaks the Connect, gRPC and gRPC-Web wire protocols interchangeably
// against a single service definition.
//
// The engine itself never marshals a user message, dials a socket or
// generates a service stub: those are left to a Codec, a Transport and
// generated code respectively. What lives here is the part shared by every
// generated stub regardless of which of the three wire protocols a
// ProtocolClient is configured to speak: envelope framing, header/trailer
// handling, the interceptor pipeline, and the unary/streaming call state
// machines.
package tricore

import "google.golang.org/grpc/codes"

// Code is the fixed status enum shared by all three wire protocols. Its
// numeric values are a stable wire contract, so it is simply the gRPC codes
// package's own Code type: every protocol this engine speaks already needs
// to interoperate with gRPC's numbering, and there is no benefit to
// maintaining a second, translated copy of the same seventeen values.
type Code = codes.Code

// Well-known codes, re-exported for callers that would otherwise need to
// import google.golang.org/grpc/codes solely for these constants.
const (
	CodeOK                 = codes.OK
	CodeCanceled           = codes.Canceled
	CodeUnknown            = codes.Unknown
	CodeInvalidArgument    = codes.InvalidArgument
	CodeDeadlineExceeded   = codes.DeadlineExceeded
	CodeNotFound           = codes.NotFound
	CodeAlreadyExists      = codes.AlreadyExists
	CodePermissionDenied   = codes.PermissionDenied
	CodeResourceExhausted  = codes.ResourceExhausted
	CodeFailedPrecondition = codes.FailedPrecondition
	CodeAborted            = codes.Aborted
	CodeOutOfRange         = codes.OutOfRange
	CodeUnimplemented      = codes.Unimplemented
	CodeInternal           = codes.Internal
	CodeUnavailable        = codes.Unavailable
	CodeDataLoss           = codes.DataLoss
	CodeUnauthenticated    = codes.Unauthenticated
)
