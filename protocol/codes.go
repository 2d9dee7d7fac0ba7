// Package protocol implements the three per-wire-protocol interceptors
// (Connect, gRPC, gRPC-Web) described in spec.md §4.4-4.6. None of these
// files have a single teacher analogue (avos-io/goat only ever speaks its
// own wrapped-protobuf format), but every primitive they build on —
// envelope pack/unpack, header/metadata conversion, codes.Code/status.Status
// — is grounded in the teacher and in fullstorydev/grpchan's httpgrpc
// package; see DESIGN.md.
package protocol

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// connectCodeNames maps the canonical Connect JSON error code name to its
// numeric Code, per §4.4.
var connectCodeNames = map[string]codes.Code{
	"canceled":            codes.Canceled,
	"unknown":             codes.Unknown,
	"invalid_argument":    codes.InvalidArgument,
	"deadline_exceeded":   codes.DeadlineExceeded,
	"not_found":           codes.NotFound,
	"already_exists":      codes.AlreadyExists,
	"permission_denied":   codes.PermissionDenied,
	"resource_exhausted":  codes.ResourceExhausted,
	"failed_precondition": codes.FailedPrecondition,
	"aborted":             codes.Aborted,
	"out_of_range":        codes.OutOfRange,
	"unimplemented":       codes.Unimplemented,
	"internal":            codes.Internal,
	"unavailable":         codes.Unavailable,
	"data_loss":           codes.DataLoss,
	"unauthenticated":     codes.Unauthenticated,
}

var connectCodeStrings = func() map[codes.Code]string {
	out := make(map[codes.Code]string, len(connectCodeNames))
	for name, code := range connectCodeNames {
		out[code] = name
	}
	return out
}()

// connectCodeFromName maps a Connect JSON error code name to a Code,
// defaulting to Unknown for unrecognized names.
func connectCodeFromName(name string) codes.Code {
	if c, ok := connectCodeNames[name]; ok {
		return c
	}
	return codes.Unknown
}

// connectNameFromCode is the inverse of connectCodeFromName, used when this
// engine itself needs to produce a Connect-shaped error body (not part of
// this client-only engine's surface today, kept for symmetry/tests).
func connectNameFromCode(c codes.Code) string {
	if name, ok := connectCodeStrings[c]; ok {
		return name
	}
	return "unknown"
}

// httpStatusToCode maps an HTTP status code to a Code when a gRPC or
// gRPC-Web response arrives with no grpc-status trailer at all (e.g. a
// proxy or load balancer rejected the request before it reached the
// service), per §4.5's fixed table.
func httpStatusToCode(status int) codes.Code {
	switch status {
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.Unimplemented
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return codes.Unavailable
	default:
		return codes.Unknown
	}
}
