package tricore

import "google.golang.org/grpc/encoding"

// Codec is the trait-like interface the engine consumes for message
// (de)serialization. It is google.golang.org/grpc/encoding's Codec shape;
// generated message (de)serialization is an external collaborator per §1.
// Two names are recognized by protocol negotiation: "proto" and "json".
type Codec = encoding.Codec

// CodecName is the wire content-subtype used in Content-Type headers, e.g.
// "proto" or "json".
func CodecName(c Codec) string {
	if c == nil {
		return ""
	}
	return c.Name()
}
