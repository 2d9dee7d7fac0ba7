package tricore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/encoding/proto"
	goproto "google.golang.org/protobuf/proto"
)

func TestNewErrorBasics(t *testing.T) {
	is := require.New(t)

	e := NewErrorf(CodeNotFound, "missing %s", "widget")
	is.Equal(CodeNotFound, e.Code())
	is.Equal("missing widget", e.Message())
	is.Nil(e.Details())
}

func TestErrorFromStatusProto(t *testing.T) {
	is := require.New(t)

	sp := &spb.Status{Code: int32(CodeInvalidArgument), Message: "bad field"}
	e := ErrorFromStatusProto(sp)
	is.Equal(CodeInvalidArgument, e.Code())
	is.Equal("bad field", e.Message())
}

func TestErrorWithMetadata(t *testing.T) {
	is := require.New(t)

	md := NewMetadata()
	md.Set("x-request-id", "abc")

	e := NewError(CodeInternal, "boom").WithMetadata(md)
	is.Equal([]string{"abc"}, e.Metadata().Get("x-request-id"))
}

func TestAsErrorWrapsUnknown(t *testing.T) {
	is := require.New(t)

	e := AsError(errors.New("plain error"))
	is.Equal(CodeUnknown, e.Code())
	is.Equal("plain error", e.Message())
}

func TestAsErrorPassesThroughError(t *testing.T) {
	is := require.New(t)

	orig := NewError(CodeAborted, "conflict")
	is.Same(orig, AsError(orig))
}

func TestIsCanceled(t *testing.T) {
	is := require.New(t)

	is.True(IsCanceled(NewError(CodeCanceled, "canceled")))
	is.False(IsCanceled(NewError(CodeInternal, "boom")))
}

func TestErrorWithDetailsAndDecodeDetail(t *testing.T) {
	is := require.New(t)

	inner := &spb.Status{Code: int32(CodeNotFound), Message: "widget missing"}
	raw, err := goproto.Marshal(inner)
	is.NoError(err)

	e := NewError(CodeInvalidArgument, "bad request").WithDetails([]*ErrorDetail{
		{TypeURL: "type.googleapis.com/google.rpc.Status", Value: raw},
	})
	is.Len(e.Details(), 1)
	is.Equal("type.googleapis.com/google.rpc.Status", e.Details()[0].TypeURL)

	var decoded spb.Status
	codec := encoding.GetCodec(proto.Name)
	is.NoError(e.DecodeDetail(0, codec, &decoded))
	is.Equal(int32(CodeNotFound), decoded.Code)
	is.Equal("widget missing", decoded.Message)

	is.Error(e.DecodeDetail(1, codec, &decoded))
}

func TestWrapErrorUnwrap(t *testing.T) {
	is := require.New(t)

	cause := errors.New("underlying")
	e := WrapError(CodeUnknown, cause)
	is.Equal(cause, errors.Unwrap(e))
}
