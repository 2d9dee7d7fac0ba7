package protocol

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/encoding/proto"

	"github.com/avos-io/tricore"
)

func newTestGRPCWebConfig() *tricore.ProtocolClientConfig {
	return NewGRPCWebConfig("https://example.test", encoding.GetCodec(proto.Name))
}

func TestGRPCWebUnaryRequestHeaders(t *testing.T) {
	is := require.New(t)

	cfg := newTestGRPCWebConfig()
	u := NewGRPCWebUnary(cfg)

	req := &tricore.RequestDescriptor{URL: cfg.Host + "/pkg.Svc/Method"}
	req, err := u.OnRequest(context.Background(), req)
	is.NoError(err)

	is.Equal("application/grpc-web+proto", req.Headers.Get("Content-Type")[0])
	is.Empty(req.Headers.Get("TE"))
}

func TestGRPCWebUnaryRequestEnvelopesBody(t *testing.T) {
	is := require.New(t)

	cfg := newTestGRPCWebConfig()
	u := NewGRPCWebUnary(cfg)

	payload := []byte("a unary request message")
	req := &tricore.RequestDescriptor{URL: cfg.Host + "/pkg.Svc/Method", Body: payload}
	req, err := u.OnRequest(context.Background(), req)
	is.NoError(err)
	is.True(req.HasBody)

	_, body, err := tricore.UnpackEnvelope(req.Body, nil)
	is.NoError(err)
	is.Equal(payload, body)
}

func TestGRPCWebUnaryResponseWithMessage(t *testing.T) {
	is := require.New(t)

	cfg := newTestGRPCWebConfig()
	u := NewGRPCWebUnary(cfg)

	payload := []byte("response bytes")
	msgFrame, err := tricore.PackEnvelope(payload, nil)
	is.NoError(err)

	trailerFrame := tricore.PackEndStreamEnvelope([]byte("grpc-status: 0\r\n"), 0)

	body := append(append([]byte{}, msgFrame...), trailerFrame...)

	resp := &tricore.ResponseDescriptor{HTTPStatus: 200, HasBody: true, Body: body}
	resp = u.OnResponse(context.Background(), resp)

	is.Nil(resp.Error)
	is.Equal(payload, resp.Body)
	is.Equal([]string{"0"}, resp.Trailers.Get("grpc-status"))
}

func TestGRPCWebUnaryTrailersOnly(t *testing.T) {
	is := require.New(t)

	cfg := newTestGRPCWebConfig()
	u := NewGRPCWebUnary(cfg)

	body := tricore.PackEndStreamEnvelope([]byte("grpc-status: 12\r\ngrpc-message: nope\r\n"), 0)

	resp := &tricore.ResponseDescriptor{HTTPStatus: 200, HasBody: true, Body: body}
	resp = u.OnResponse(context.Background(), resp)

	is.False(resp.HasBody)
	is.NotNil(resp.Error)
	is.Equal(tricore.CodeUnimplemented, resp.Error.Code())
	is.Equal("nope", resp.Error.Message())
}

func TestParseTrailerBlockMultiValueAndBinary(t *testing.T) {
	is := require.New(t)

	raw := []byte{0xab, 0xab, 0xab}
	block := "x-a: 1, 2\r\nx-grpc-test-echo-trailing-bin: " + base64.StdEncoding.EncodeToString(raw) + "\r\n"

	md, err := parseTrailerBlock([]byte(block))
	is.NoError(err)
	is.Equal([]string{"1", "2"}, md.Get("x-a"))
	is.Equal([]string{string(raw)}, md.Get("x-grpc-test-echo-trailing-bin"))
}

func TestGRPCWebStreamMessageThenEndStream(t *testing.T) {
	is := require.New(t)

	cfg := newTestGRPCWebConfig()
	s := NewGRPCWebStream(cfg)

	payload := []byte("streamed message")
	msgFrame, err := tricore.PackEnvelope(payload, nil)
	is.NoError(err)

	res, err := s.OnOutput(context.Background(), tricore.MessageResult(msgFrame))
	is.NoError(err)
	is.Equal(tricore.StreamEventMessage, res.Kind)
	is.Equal(payload, res.Message)

	trailerFrame := tricore.PackEndStreamEnvelope([]byte("grpc-status: 0\r\n"), 0)
	res, err = s.OnOutput(context.Background(), tricore.MessageResult(trailerFrame))
	is.NoError(err)
	is.Equal(tricore.StreamEventComplete, res.Kind)
	is.Equal(tricore.CodeOK, res.Code)

	// Subsequent frames after terminal must be discarded, not surfaced.
	res, err = s.OnOutput(context.Background(), tricore.MessageResult(msgFrame))
	is.NoError(err)
	is.Equal(tricore.StreamEventDiscard, res.Kind)
}

func TestGRPCWebStreamDecodeFailureGoesTerminal(t *testing.T) {
	is := require.New(t)

	cfg := newTestGRPCWebConfig()
	s := NewGRPCWebStream(cfg)

	garbage := []byte{0x00, 0x00} // shorter than envelope header
	res, err := s.OnOutput(context.Background(), tricore.MessageResult(garbage))
	is.NoError(err)
	is.Equal(tricore.StreamEventComplete, res.Kind)
	is.Equal(tricore.CodeUnknown, res.Code)

	res, err = s.OnOutput(context.Background(), tricore.MessageResult(garbage))
	is.NoError(err)
	is.Equal(tricore.StreamEventDiscard, res.Kind)
}
