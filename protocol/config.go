package protocol

import "github.com/avos-io/tricore"

// NewConnectConfig builds a ProtocolClientConfig wired to the Connect
// protocol interceptors. This is the only place tricore.ProtocolClientConfig
// learns which interceptor a given Protocol actually uses; tricore itself
// stays free of a dependency on this package (see config.go's
// WithProtocolInterceptors doc comment).
func NewConnectConfig(host string, codec tricore.Codec, opts ...tricore.Option) *tricore.ProtocolClientConfig {
	opts = append(opts, tricore.WithProtocolInterceptors(
		func(cfg *tricore.ProtocolClientConfig, idempotency tricore.Idempotency) tricore.UnaryInterceptor {
			return NewConnectUnary(cfg, idempotency)
		},
		func(cfg *tricore.ProtocolClientConfig) tricore.StreamInterceptor {
			return NewConnectStream(cfg)
		},
	))
	return tricore.NewProtocolClientConfig(host, tricore.ProtocolConnect, codec, opts...)
}

// NewGRPCConfig builds a ProtocolClientConfig wired to the gRPC protocol
// interceptors.
func NewGRPCConfig(host string, codec tricore.Codec, opts ...tricore.Option) *tricore.ProtocolClientConfig {
	opts = append(opts, tricore.WithProtocolInterceptors(
		func(cfg *tricore.ProtocolClientConfig, _ tricore.Idempotency) tricore.UnaryInterceptor {
			return NewGRPCUnary(cfg)
		},
		func(cfg *tricore.ProtocolClientConfig) tricore.StreamInterceptor {
			return NewGRPCStream(cfg)
		},
	))
	return tricore.NewProtocolClientConfig(host, tricore.ProtocolGRPC, codec, opts...)
}

// NewGRPCWebConfig builds a ProtocolClientConfig wired to the gRPC-Web
// protocol interceptors.
func NewGRPCWebConfig(host string, codec tricore.Codec, opts ...tricore.Option) *tricore.ProtocolClientConfig {
	opts = append(opts, tricore.WithProtocolInterceptors(
		func(cfg *tricore.ProtocolClientConfig, _ tricore.Idempotency) tricore.UnaryInterceptor {
			return NewGRPCWebUnary(cfg)
		},
		func(cfg *tricore.ProtocolClientConfig) tricore.StreamInterceptor {
			return NewGRPCWebStream(cfg)
		},
	))
	return tricore.NewProtocolClientConfig(host, tricore.ProtocolGRPCWeb, codec, opts...)
}
