package tricore

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Protocol selects which of the three wire protocols a ProtocolClient
// speaks.
type Protocol int

const (
	ProtocolConnect Protocol = iota
	ProtocolGRPC
	ProtocolGRPCWeb
)

func (p Protocol) String() string {
	switch p {
	case ProtocolConnect:
		return "connect"
	case ProtocolGRPC:
		return "grpc"
	case ProtocolGRPCWeb:
		return "grpc-web"
	default:
		return "unknown"
	}
}

// ProtocolClientConfig is the immutable-after-construction configuration
// for a ProtocolClient (§3, §9 "The configuration and interceptor factory
// list are treated as immutable after client construction").
type ProtocolClientConfig struct {
	Host     string
	Protocol Protocol
	Codec    Codec

	Compression *CompressionRegistry

	// Interceptors is a list of factories, each producing fresh
	// interceptor state per call (§9).
	Interceptors []InterceptorFactory

	Timeout time.Duration

	// GETRequestsAllowed permits Connect's idempotent-GET transformation
	// for cacheable_unary calls (§4.4, §4.8).
	GETRequestsAllowed bool

	// Clock is injectable and defaults to the real clock. It is handed to
	// each stream, but no engine code reads time from it, so it does not
	// affect timeouts.
	Clock clock.Clock

	// UnaryInterceptorFactory and StreamInterceptorFactory build the
	// protocol-specific interceptor for this config's Protocol. They are
	// set by the protocol package's config constructors (NewConnectConfig,
	// NewGRPCConfig, NewGRPCWebConfig) rather than switched on here, since
	// tricore cannot import protocol without an import cycle (protocol
	// already imports tricore for the core types it builds on).
	UnaryInterceptorFactory  func(cfg *ProtocolClientConfig, idempotency Idempotency) UnaryInterceptor
	StreamInterceptorFactory func(cfg *ProtocolClientConfig) StreamInterceptor
}

// Option mutates a ProtocolClientConfig during construction.
type Option interface {
	apply(*ProtocolClientConfig)
}

type optionFunc func(*ProtocolClientConfig)

func (f optionFunc) apply(c *ProtocolClientConfig) { f(c) }

// WithTimeout sets the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *ProtocolClientConfig) { c.Timeout = d })
}

// WithInterceptors appends interceptor factories, in the order user
// interceptors should be applied on the outgoing path (§4.3).
func WithInterceptors(factories ...InterceptorFactory) Option {
	return optionFunc(func(c *ProtocolClientConfig) {
		c.Interceptors = append(c.Interceptors, factories...)
	})
}

// WithCompression configures accepted response encodings and, optionally,
// request compression.
func WithCompression(reg *CompressionRegistry) Option {
	return optionFunc(func(c *ProtocolClientConfig) { c.Compression = reg })
}

// WithGETRequestsAllowed permits the Connect protocol's idempotent-GET
// transformation for cacheable_unary calls.
func WithGETRequestsAllowed(allowed bool) Option {
	return optionFunc(func(c *ProtocolClientConfig) { c.GETRequestsAllowed = allowed })
}

// WithClock overrides the client's clock, mirroring avos-io/goat's
// http.go WithClock option. Intended for tests.
func WithClock(cl clock.Clock) Option {
	return optionFunc(func(c *ProtocolClientConfig) { c.Clock = cl })
}

// WithProtocolInterceptors wires the protocol-specific interceptor
// constructors for this config. Called by the protocol package's
// NewConnectConfig/NewGRPCConfig/NewGRPCWebConfig; not normally used
// directly.
func WithProtocolInterceptors(
	unary func(cfg *ProtocolClientConfig, idempotency Idempotency) UnaryInterceptor,
	stream func(cfg *ProtocolClientConfig) StreamInterceptor,
) Option {
	return optionFunc(func(c *ProtocolClientConfig) {
		c.UnaryInterceptorFactory = unary
		c.StreamInterceptorFactory = stream
	})
}

// NewProtocolClientConfig builds a config for host/protocol/codec, applying
// opts in order.
func NewProtocolClientConfig(host string, proto Protocol, codec Codec, opts ...Option) *ProtocolClientConfig {
	c := &ProtocolClientConfig{
		Host:        host,
		Protocol:    proto,
		Codec:       codec,
		Compression: NewCompressionRegistry(),
		Clock:       clock.New(),
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}
