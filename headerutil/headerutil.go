// Package headerutil converts between net/http's header representation and
// tricore.Metadata at the wire boundary, handling the "-bin" binary-suffix
// base64 convention shared by gRPC, gRPC-Web and Connect.
//
// Grounded on avos-io/goat's internal/util.go (ToKeyValue/ToMetadata) and
// fullstorydev/grpchan's httpgrpc/io.go (asMetadata/toHeaders), which do the
// same lower-case-key, base64-"-bin"-value conversion against their own
// wire shapes (a custom KeyValue proto and net/http.Header respectively).
package headerutil

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/avos-io/tricore"
)

// binarySuffix is the header-key suffix that marks a value as base64-encoded
// raw bytes on the wire.
const binarySuffix = "-bin"

// reserved headers are never copied into or out of Metadata: they are
// transport framing concerns, not RPC metadata. This only governs the
// FromHTTPHeader/ToHTTPHeader boundary used for round-tripping user-visible
// metadata (headers, trailers); protocol interceptors set these same names
// directly on RequestDescriptor.Headers to control the actual wire framing
// (Content-Type, Accept-Encoding, TE, ...), and a Transport must send those
// as given rather than filtering them back through ToHTTPHeader.
var reserved = map[string]struct{}{
	"accept-encoding":   {},
	"connection":        {},
	"content-type":      {},
	"content-length":    {},
	"content-encoding":  {},
	"keep-alive":        {},
	"te":                {},
	"trailer":           {},
	"transfer-encoding": {},
	"upgrade":           {},
	"host":              {},
}

// IsBinaryKey reports whether k carries base64-encoded raw bytes on the
// wire, per its "-bin" suffix.
func IsBinaryKey(k string) bool {
	return strings.HasSuffix(strings.ToLower(k), binarySuffix)
}

// EncodeBinaryValue base64-encodes raw bytes for transmission in a "-bin"
// header. All three protocols use standard (not URL-safe) base64 for
// -bin values on the wire.
func EncodeBinaryValue(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBinaryValue reverses EncodeBinaryValue, tolerating both padded and
// unpadded encodings since some servers omit padding.
func DecodeBinaryValue(v string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(v)
}

// FromHTTPHeader converts an http.Header into Metadata, lower-casing keys
// and base64-decoding "-bin" values. Non-decodable "-bin" values are
// dropped rather than failing the whole conversion, since a single
// malformed trailer should not make the rest of the response unreadable.
func FromHTTPHeader(h http.Header) tricore.Metadata {
	md := tricore.NewMetadata()
	for k, vs := range h {
		lowerK := strings.ToLower(k)
		if _, ok := reserved[lowerK]; ok {
			continue
		}
		for _, v := range vs {
			if IsBinaryKey(lowerK) {
				b, err := DecodeBinaryValue(v)
				if err != nil {
					continue
				}
				v = string(b)
			}
			md[lowerK] = append(md[lowerK], v)
		}
	}
	return md
}

// ToHTTPHeader converts Metadata into an http.Header, base64-encoding
// "-bin" values. prefix is prepended to every key (used by gRPC-Web/Connect
// to namespace echoed trailers when needed); pass "" for no prefix.
func ToHTTPHeader(md tricore.Metadata, prefix string) http.Header {
	h := http.Header{}
	for k, vs := range md {
		lowerK := strings.ToLower(k)
		if _, ok := reserved[lowerK]; ok {
			continue
		}
		for _, v := range vs {
			if IsBinaryKey(lowerK) {
				v = EncodeBinaryValue([]byte(v))
			}
			h.Add(prefix+k, v)
		}
	}
	return h
}
