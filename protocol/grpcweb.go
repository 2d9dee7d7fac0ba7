package protocol

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/grpc/encoding"

	"github.com/avos-io/tricore"
	"github.com/avos-io/tricore/headerutil"
)

// NewGRPCWebUnary builds the gRPC-Web protocol interceptor for one unary
// call. Request-side headers match gRPC except for Content-Type and the
// absence of TE (§4.6); response handling is entirely different, since
// gRPC-Web has no real HTTP trailers.
func NewGRPCWebUnary(cfg *tricore.ProtocolClientConfig) tricore.UnaryInterceptor {
	return &grpcWebUnary{cfg: cfg}
}

type grpcWebUnary struct {
	cfg *tricore.ProtocolClientConfig
}

func (g *grpcWebUnary) OnRequest(ctx context.Context, req *tricore.RequestDescriptor) (*tricore.RequestDescriptor, error) {
	if req.Headers == nil {
		req.Headers = tricore.NewMetadata()
	}
	req.Headers.Set("Content-Type", "application/grpc-web+"+tricore.CodecName(g.cfg.Codec))
	if req.Timeout > 0 {
		req.Headers.Set("Grpc-Timeout", encodeGRPCTimeout(req.Timeout))
	}
	if rc := g.cfg.Compression.RequestCompression(); rc != nil {
		req.Headers.Set("Grpc-Encoding", rc.Name)
	}
	if accept := g.cfg.Compression.AcceptEncodings(); len(accept) > 0 {
		req.Headers.Set("Grpc-Accept-Encoding", strings.Join(accept, ", "))
	}

	frame, err := tricore.PackEnvelope(req.Body, g.cfg.Compression.RequestCompression())
	if err != nil {
		return nil, err
	}
	req.Body = frame
	req.HasBody = true
	return req, nil
}

func (g *grpcWebUnary) OnResponse(ctx context.Context, resp *tricore.ResponseDescriptor) *tricore.ResponseDescriptor {
	var pool encoding.Compressor
	if name := resp.Headers.Get("Grpc-Encoding"); len(name) > 0 {
		pool = g.cfg.Compression.ResponseCompressionPool(name[0])
	}

	if !resp.HasBody || len(resp.Body) == 0 {
		resp.Error = tricore.NewErrorf(httpStatusToCode(resp.HTTPStatus), "grpc-web: empty body")
		return resp
	}

	hasMessage, msgFrame, trailerFrame, err := splitGRPCWebUnary(resp.Body)
	if err != nil {
		resp.Error = tricore.WrapError(tricore.CodeUnknown, err)
		return resp
	}

	_, trailerBody, err := tricore.UnpackEnvelope(trailerFrame, nil)
	if err != nil {
		resp.Error = tricore.WrapError(tricore.CodeUnknown, err)
		return resp
	}
	trailers, err := parseTrailerBlock(trailerBody)
	if err != nil {
		resp.Error = tricore.WrapError(tricore.CodeUnknown, err)
		return resp
	}
	resp.Trailers = trailers

	if hasMessage {
		_, msgBody, err := tricore.UnpackEnvelope(msgFrame, pool)
		if err != nil {
			resp.Error = tricore.WrapError(tricore.CodeUnknown, err)
			return resp
		}
		resp.Body = msgBody
		resp.HasBody = true
	} else {
		resp.Body = nil
		resp.HasBody = false
	}

	resp.Error = grpcStatusFromResponse(resp)
	return resp
}

// splitGRPCWebUnary splits a gRPC-Web unary response body into an optional
// message envelope and the mandatory trailers envelope, per §4.6.
// Trailers-only responses (first frame's high bit already set) have no
// message.
func splitGRPCWebUnary(body []byte) (hasMessage bool, msgFrame, trailerFrame []byte, err error) {
	if len(body) < 5 {
		return false, nil, nil, tricore.ErrEnvelopeTooShort
	}
	if tricore.EnvelopeFlags(body[0])&tricore.FlagEndStream != 0 {
		return false, nil, body, nil
	}

	total, err := tricore.EnvelopeTotalSize(body)
	if err != nil {
		return false, nil, nil, err
	}
	if total > len(body) {
		return false, nil, nil, tricore.ErrEnvelopeTooShort
	}
	return true, body[:total], body[total:], nil
}

// parseTrailerBlock decodes an HTTP/1.1-style header block (the payload of
// a gRPC-Web end-stream envelope) into Metadata, per §4.6:
//
//	key: v1, v2\r\n
//	key2: v3\r\n
//
// Keys are lowercased; values split on ",", with a single leading space
// stripped from each.
func parseTrailerBlock(payload []byte) (tricore.Metadata, error) {
	md := tricore.NewMetadata()
	r := bufio.NewReader(bytes.NewReader(payload))
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "grpc-web: reading trailer block")
		}
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			idx := strings.Index(line, ":")
			if idx < 0 {
				return nil, errors.Errorf("grpc-web: malformed trailer line %q", line)
			}
			key := strings.ToLower(strings.TrimSpace(line[:idx]))
			for _, v := range strings.Split(line[idx+1:], ",") {
				v = strings.TrimPrefix(v, " ")
				if headerutil.IsBinaryKey(key) {
					if b, decErr := headerutil.DecodeBinaryValue(v); decErr == nil {
						v = string(b)
					}
				}
				md[key] = append(md[key], v)
			}
		}
		if err == io.EOF {
			break
		}
	}
	return md, nil
}

// NewGRPCWebStream builds the gRPC-Web protocol interceptor for one
// streaming call.
func NewGRPCWebStream(cfg *tricore.ProtocolClientConfig) tricore.StreamInterceptor {
	return &grpcWebStream{cfg: cfg}
}

type grpcWebStream struct {
	cfg *tricore.ProtocolClientConfig

	responseCompression encoding.Compressor
	terminal             bool
}

func (g *grpcWebStream) OnStart(ctx context.Context, req *tricore.RequestDescriptor) (*tricore.RequestDescriptor, error) {
	if req.Headers == nil {
		req.Headers = tricore.NewMetadata()
	}
	req.Headers.Set("Content-Type", "application/grpc-web+"+tricore.CodecName(g.cfg.Codec))
	if req.Timeout > 0 {
		req.Headers.Set("Grpc-Timeout", encodeGRPCTimeout(req.Timeout))
	}
	if rc := g.cfg.Compression.RequestCompression(); rc != nil {
		req.Headers.Set("Grpc-Encoding", rc.Name)
	}
	if accept := g.cfg.Compression.AcceptEncodings(); len(accept) > 0 {
		req.Headers.Set("Grpc-Accept-Encoding", strings.Join(accept, ", "))
	}
	return req, nil
}

func (g *grpcWebStream) OnInput(ctx context.Context, frame []byte) ([]byte, error) {
	return tricore.PackEnvelope(frame, g.cfg.Compression.RequestCompression())
}

func (g *grpcWebStream) OnOutput(ctx context.Context, res tricore.StreamResult) (tricore.StreamResult, error) {
	if g.terminal {
		return tricore.StreamResult{Kind: tricore.StreamEventDiscard}, nil
	}

	switch res.Kind {
	case tricore.StreamEventHeaders:
		if name := res.Headers.Get("Grpc-Encoding"); len(name) > 0 {
			g.responseCompression = g.cfg.Compression.ResponseCompressionPool(name[0])
		}
		return res, nil

	case tricore.StreamEventMessage:
		flags, body, err := tricore.UnpackEnvelope(res.Message, g.responseCompression)
		if err != nil {
			g.terminal = true
			return tricore.CompleteResult(tricore.CodeUnknown, tricore.WrapError(tricore.CodeUnknown, err), nil), nil
		}

		if flags&tricore.FlagEndStream != 0 {
			g.terminal = true
			trailers, err := parseTrailerBlock(body)
			if err != nil {
				return tricore.CompleteResult(tricore.CodeUnknown, tricore.WrapError(tricore.CodeUnknown, err), nil), nil
			}
			e := grpcStatusFromResponse(&tricore.ResponseDescriptor{HTTPStatus: 200, Trailers: trailers})
			code := tricore.CodeOK
			if e != nil {
				code = e.Code()
			}
			return tricore.CompleteResult(code, e, trailers), nil
		}

		return tricore.MessageResult(body), nil

	default:
		return res, nil
	}
}
