package tricore

import "context"

// UnaryChain composes user interceptors and the protocol interceptor for a
// single unary call, per §4.3/§4.7's ordering rules:
//
//   - outgoing (request): user interceptors in configured order, then the
//     protocol interceptor last.
//   - incoming (response): protocol interceptor first, then user
//     interceptors in reverse configured order.
//
// Grounded on internal/client/client.go's chainedUnaryInterceptors /
// getChainUnaryInvoker, adapted from grpc.UnaryClientInterceptor's
// invoker-chaining shape onto RequestDescriptor/ResponseDescriptor.
type UnaryChain struct {
	outgoing []UnaryInterceptor // user..., protocol
	incoming []UnaryInterceptor // protocol, user... (reversed)
}

// NewUnaryChain builds a chain from the user interceptors in configured
// order plus the protocol interceptor.
func NewUnaryChain(user []UnaryInterceptor, protocol UnaryInterceptor) *UnaryChain {
	outgoing := make([]UnaryInterceptor, 0, len(user)+1)
	outgoing = append(outgoing, user...)
	outgoing = append(outgoing, protocol)

	incoming := make([]UnaryInterceptor, 0, len(user)+1)
	incoming = append(incoming, protocol)
	for i := len(user) - 1; i >= 0; i-- {
		incoming = append(incoming, user[i])
	}

	return &UnaryChain{outgoing: outgoing, incoming: incoming}
}

// StartUnaryRequest runs on_request through every interceptor in outgoing
// order, short-circuiting on the first error.
func (c *UnaryChain) StartUnaryRequest(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error) {
	var err error
	for _, ic := range c.outgoing {
		req, err = ic.OnRequest(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}

// EndUnaryResponse runs on_response through every interceptor in incoming
// order.
func (c *UnaryChain) EndUnaryResponse(ctx context.Context, resp *ResponseDescriptor) *ResponseDescriptor {
	for _, ic := range c.incoming {
		resp = ic.OnResponse(ctx, resp)
	}
	return resp
}

// StreamChain is UnaryChain's counterpart for the stream quartet: one
// ordered pass for the outgoing direction (start, input frames) and one for
// the incoming direction (output frames).
type StreamChain struct {
	outgoing []StreamInterceptor
	incoming []StreamInterceptor
}

// NewStreamChain builds a chain from the user interceptors in configured
// order plus the protocol interceptor.
func NewStreamChain(user []StreamInterceptor, protocol StreamInterceptor) *StreamChain {
	outgoing := make([]StreamInterceptor, 0, len(user)+1)
	outgoing = append(outgoing, user...)
	outgoing = append(outgoing, protocol)

	incoming := make([]StreamInterceptor, 0, len(user)+1)
	incoming = append(incoming, protocol)
	for i := len(user) - 1; i >= 0; i-- {
		incoming = append(incoming, user[i])
	}

	return &StreamChain{outgoing: outgoing, incoming: incoming}
}

// StartStream runs on_start through every interceptor in outgoing order.
func (c *StreamChain) StartStream(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error) {
	var err error
	for _, ic := range c.outgoing {
		req, err = ic.OnStart(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}

// OnInput runs on_input through every interceptor in outgoing order, once
// per outgoing frame.
func (c *StreamChain) OnInput(ctx context.Context, frame []byte) ([]byte, error) {
	var err error
	for _, ic := range c.outgoing {
		frame, err = ic.OnInput(ctx, frame)
		if err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// OnOutput runs on_output through every interceptor in incoming order, once
// per incoming event.
func (c *StreamChain) OnOutput(ctx context.Context, res StreamResult) (StreamResult, error) {
	var err error
	for _, ic := range c.incoming {
		res, err = ic.OnOutput(ctx, res)
		if err != nil {
			return StreamResult{}, err
		}
	}
	return res, nil
}
