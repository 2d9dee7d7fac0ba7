package tricore

import "context"

// UnaryInterceptor is the capability a component implements to observe or
// transform a unary call. on_request may reject or rewrite the outgoing
// request; on_response rewrites the completed response (§4.3).
type UnaryInterceptor interface {
	OnRequest(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error)
	OnResponse(ctx context.Context, resp *ResponseDescriptor) *ResponseDescriptor
}

// StreamInterceptor is the capability a component implements to observe or
// transform a streaming call: a start hook for the initial request, and a
// pair of per-frame hooks for outgoing and incoming frames (§4.3).
type StreamInterceptor interface {
	OnStart(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error)
	OnInput(ctx context.Context, frame []byte) ([]byte, error)
	OnOutput(ctx context.Context, res StreamResult) (StreamResult, error)
}

// UnaryInterceptorFuncs adapts plain functions to UnaryInterceptor, letting
// a caller supply only the hooks it cares about.
type UnaryInterceptorFuncs struct {
	Request  func(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error)
	Response func(ctx context.Context, resp *ResponseDescriptor) *ResponseDescriptor
}

func (f UnaryInterceptorFuncs) OnRequest(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error) {
	if f.Request == nil {
		return req, nil
	}
	return f.Request(ctx, req)
}

func (f UnaryInterceptorFuncs) OnResponse(ctx context.Context, resp *ResponseDescriptor) *ResponseDescriptor {
	if f.Response == nil {
		return resp
	}
	return f.Response(ctx, resp)
}

// StreamInterceptorFuncs adapts plain functions to StreamInterceptor.
type StreamInterceptorFuncs struct {
	Start  func(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error)
	Input  func(ctx context.Context, frame []byte) ([]byte, error)
	Output func(ctx context.Context, res StreamResult) (StreamResult, error)
}

func (f StreamInterceptorFuncs) OnStart(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error) {
	if f.Start == nil {
		return req, nil
	}
	return f.Start(ctx, req)
}

func (f StreamInterceptorFuncs) OnInput(ctx context.Context, frame []byte) ([]byte, error) {
	if f.Input == nil {
		return frame, nil
	}
	return f.Input(ctx, frame)
}

func (f StreamInterceptorFuncs) OnOutput(ctx context.Context, res StreamResult) (StreamResult, error) {
	if f.Output == nil {
		return res, nil
	}
	return f.Output(ctx, res)
}

// InterceptorFactory builds a fresh interceptor pair for a single RPC. Each
// call gets fresh interceptor state (§9): a factory, not a shared instance,
// is what a ProtocolClientConfig stores.
type InterceptorFactory func() (UnaryInterceptor, StreamInterceptor)
