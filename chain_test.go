package tricore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// orderRecorder is a UnaryInterceptor/StreamInterceptor that appends its
// name to a shared log at each hook, letting tests assert composition
// order directly against §4.3/§4.7's ordering rules.
type orderRecorder struct {
	name string
	log  *[]string
}

func (o orderRecorder) OnRequest(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error) {
	*o.log = append(*o.log, o.name+":request")
	return req, nil
}

func (o orderRecorder) OnResponse(ctx context.Context, resp *ResponseDescriptor) *ResponseDescriptor {
	*o.log = append(*o.log, o.name+":response")
	return resp
}

func (o orderRecorder) OnStart(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error) {
	*o.log = append(*o.log, o.name+":start")
	return req, nil
}

func (o orderRecorder) OnInput(ctx context.Context, frame []byte) ([]byte, error) {
	*o.log = append(*o.log, o.name+":input")
	return frame, nil
}

func (o orderRecorder) OnOutput(ctx context.Context, res StreamResult) (StreamResult, error) {
	*o.log = append(*o.log, o.name+":output")
	return res, nil
}

func TestUnaryChainOrdering(t *testing.T) {
	is := require.New(t)

	var log []string
	a := orderRecorder{name: "A", log: &log}
	b := orderRecorder{name: "B", log: &log}
	proto := orderRecorder{name: "protocol", log: &log}

	chain := NewUnaryChain([]UnaryInterceptor{a, b}, proto)

	ctx := context.Background()
	req, err := chain.StartUnaryRequest(ctx, &RequestDescriptor{})
	is.NoError(err)
	is.NotNil(req)

	chain.EndUnaryResponse(ctx, &ResponseDescriptor{})

	is.Equal([]string{
		"A:request", "B:request", "protocol:request",
		"protocol:response", "B:response", "A:response",
	}, log)
}

func TestUnaryChainShortCircuitsOnError(t *testing.T) {
	is := require.New(t)

	rejecting := UnaryInterceptorFuncs{
		Request: func(ctx context.Context, req *RequestDescriptor) (*RequestDescriptor, error) {
			return nil, errTestRejected
		},
	}
	var never []string
	proto := orderRecorder{name: "protocol", log: &never}

	chain := NewUnaryChain([]UnaryInterceptor{rejecting}, proto)
	_, err := chain.StartUnaryRequest(context.Background(), &RequestDescriptor{})
	is.ErrorIs(err, errTestRejected)
	is.Empty(never)
}

func TestStreamChainOrdering(t *testing.T) {
	is := require.New(t)

	var log []string
	a := orderRecorder{name: "A", log: &log}
	proto := orderRecorder{name: "protocol", log: &log}

	chain := NewStreamChain([]StreamInterceptor{a}, proto)

	ctx := context.Background()
	_, err := chain.StartStream(ctx, &RequestDescriptor{})
	is.NoError(err)

	_, err = chain.OnInput(ctx, []byte("frame"))
	is.NoError(err)

	_, err = chain.OnOutput(ctx, StreamResult{Kind: StreamEventMessage})
	is.NoError(err)

	is.Equal([]string{
		"A:start", "protocol:start",
		"A:input", "protocol:input",
		"protocol:output", "A:output",
	}, log)
}

var errTestRejected = NewError(CodeInvalidArgument, "rejected")
