package tricore

import "google.golang.org/grpc/encoding"

// Compression is the trait-like interface the engine consumes for a named
// compression algorithm. It is exactly google.golang.org/grpc/encoding's
// Compressor shape; algorithm implementations (gzip, etc.) are an external
// collaborator per §1.
type Compression = encoding.Compressor

// CompressionRegistry owns the ordered list of named codecs a
// ProtocolClient will accept in responses, plus the policy for compressing
// outbound requests. Per-client, never global (§9 "Global state: None").
type CompressionRegistry struct {
	accept []string

	requestName     string
	requestMinBytes int
}

// NewCompressionRegistry builds a registry accepting the given wire names,
// in preference order (used to populate Accept-Encoding-style headers).
func NewCompressionRegistry(accept ...string) *CompressionRegistry {
	return &CompressionRegistry{accept: accept}
}

// SetRequestCompression configures the codec used to compress outbound
// request/frame payloads and the minimum payload size at which compression
// is applied. Messages below minBytes are always sent uncompressed,
// regardless of whether name is registered.
func (r *CompressionRegistry) SetRequestCompression(name string, minBytes int) {
	r.requestName = name
	r.requestMinBytes = minBytes
}

// AcceptEncodings returns the configured accept-list, in order.
func (r *CompressionRegistry) AcceptEncodings() []string {
	out := make([]string, len(r.accept))
	copy(out, r.accept)
	return out
}

// ResponseCompressionPool returns the pool for a wire name reported by a
// server (e.g. via Content-Encoding/Grpc-Encoding), or nil if the client
// does not accept that encoding.
func (r *CompressionRegistry) ResponseCompressionPool(name string) encoding.Compressor {
	if name == "" || name == "identity" {
		return nil
	}
	for _, a := range r.accept {
		if a == name {
			return encoding.GetCompressor(name)
		}
	}
	return nil
}

// RequestCompression returns the *RequestCompression to apply to an
// outbound request, or nil if no request compression is configured.
func (r *CompressionRegistry) RequestCompression() *RequestCompression {
	if r.requestName == "" {
		return nil
	}
	pool := encoding.GetCompressor(r.requestName)
	if pool == nil {
		return nil
	}
	return &RequestCompression{
		Name:     r.requestName,
		Pool:     pool,
		MinBytes: r.requestMinBytes,
	}
}
