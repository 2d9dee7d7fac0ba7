package tricore

import "google.golang.org/grpc/metadata"

// Metadata is an ordered-enough, case-insensitive multimap from header key
// to a list of string values. Keys ending in "-bin" carry raw bytes
// transmitted as base64; see headerutil for the wire-boundary conversions.
//
// grpc/metadata.MD already has exactly this shape: lower-case keys map to
// value slices, MD's Get/Set/Append lower-case the key they are given, and
// headerutil.FromHTTPHeader lower-cases keys when building Metadata from
// wire headers, satisfying the case-insensitivity invariant without
// reimplementing a multimap from scratch.
type Metadata = metadata.MD

// NewMetadata builds an empty Metadata.
func NewMetadata() Metadata {
	return metadata.MD{}
}

// JoinMetadata merges zero or more Metadata values; the values of a key are
// concatenated in input order. The result is a map, so no order across
// distinct keys is kept.
func JoinMetadata(mds ...Metadata) Metadata {
	return metadata.Join(mds...)
}
