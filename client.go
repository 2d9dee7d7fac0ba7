package tricore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CallOptions carries the per-call metadata a generated stub attaches to a
// unary or stream invocation.
type CallOptions struct {
	Headers     Metadata
	Idempotency Idempotency
	Timeout     time.Duration
}

// ProtocolClient drives calls for a single ProtocolClientConfig against a
// Transport, per §4.8. Grounded on avos-io/goat's client.go ClientConn,
// generalized from goatorepo's fixed wire message to protocol-agnostic
// bytes-in/bytes-out plus interceptor chains.
type ProtocolClient struct {
	cfg       *ProtocolClientConfig
	transport Transport
}

// NewProtocolClient builds a client for cfg driving requests through
// transport. cfg must have been built by one of the protocol package's
// config constructors so its interceptor factories are populated.
func NewProtocolClient(cfg *ProtocolClientConfig, transport Transport) *ProtocolClient {
	return &ProtocolClient{cfg: cfg, transport: transport}
}

// userInterceptors builds one fresh unary/stream interceptor pair per
// configured factory, per §9 ("each RPC gets fresh state").
func (c *ProtocolClient) userInterceptors() ([]UnaryInterceptor, []StreamInterceptor) {
	unary := make([]UnaryInterceptor, 0, len(c.cfg.Interceptors))
	stream := make([]StreamInterceptor, 0, len(c.cfg.Interceptors))
	for _, f := range c.cfg.Interceptors {
		u, s := f()
		if u != nil {
			unary = append(unary, u)
		}
		if s != nil {
			stream = append(stream, s)
		}
	}
	return unary, stream
}

// Unary performs a single request/response call against path, per §4.8.
func (c *ProtocolClient) Unary(ctx context.Context, path string, body []byte, opts CallOptions) ([]byte, Metadata, *Error) {
	return c.doUnary(ctx, path, body, opts, IdempotencyUnknown)
}

// CacheableUnary is Unary with idempotency forced to NoSideEffects, enabling
// the Connect protocol's GET transformation when the client permits it
// (§4.4, §4.8).
func (c *ProtocolClient) CacheableUnary(ctx context.Context, path string, body []byte, opts CallOptions) ([]byte, Metadata, *Error) {
	return c.doUnary(ctx, path, body, opts, IdempotencyNoSideEffects)
}

func (c *ProtocolClient) doUnary(ctx context.Context, path string, body []byte, opts CallOptions, idempotency Idempotency) ([]byte, Metadata, *Error) {
	callID := uuid.NewString()
	logger := log.With().
		Str("call_id", callID).
		Str("path", path).
		Str("protocol", c.cfg.Protocol.String()).
		Logger()

	if idempotency == IdempotencyUnknown && opts.Idempotency != IdempotencyUnknown {
		idempotency = opts.Idempotency
	}
	timeout := c.cfg.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	userUnary, _ := c.userInterceptors()
	protoInterceptor := c.cfg.UnaryInterceptorFactory(c.cfg, idempotency)
	chain := NewUnaryChain(userUnary, protoInterceptor)

	req := &RequestDescriptor{
		URL:         c.cfg.Host + path,
		Method:      MethodPost,
		Headers:     JoinMetadata(opts.Headers),
		Body:        body,
		HasBody:     true,
		Idempotency: idempotency,
		Timeout:     timeout,
	}

	req, err := chain.StartUnaryRequest(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("unary: interceptor rejected request")
		return nil, nil, AsError(err)
	}

	resp, err := c.transport.PerformUnary(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("unary: transport error")
		return nil, nil, AsError(err)
	}

	resp = chain.EndUnaryResponse(ctx, resp)
	if resp.Error != nil {
		logger.Debug().Str("code", resp.Error.Code().String()).Msg("unary: call failed")
		return nil, resp.Trailers, resp.Error
	}
	return resp.Body, resp.Trailers, nil
}

// Stream begins a bidirectional streaming call against path, driving the
// chain's start phase immediately, per §4.8.
func (c *ProtocolClient) Stream(ctx context.Context, path string, opts CallOptions) (*BidirectionalStream, error) {
	callID := uuid.NewString()
	logger := log.With().
		Str("call_id", callID).
		Str("path", path).
		Str("protocol", c.cfg.Protocol.String()).
		Logger()

	timeout := c.cfg.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	_, userStream := c.userInterceptors()
	protoInterceptor := c.cfg.StreamInterceptorFactory(c.cfg)
	chain := NewStreamChain(userStream, protoInterceptor)

	req := &RequestDescriptor{
		URL:     c.cfg.Host + path,
		Method:  MethodPost,
		Headers: JoinMetadata(opts.Headers),
		Timeout: timeout,
	}

	req, err := chain.StartStream(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("stream: interceptor rejected start")
		return nil, err
	}

	sink, source, cancel, err := c.transport.PerformStream(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("stream: transport error")
		return nil, err
	}

	return newBidirectionalStream(ctx, chain, sink, source, cancel, c.cfg.Clock, logger), nil
}
