package protocol

import (
	"context"
	"strconv"
	"strings"

	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"

	"github.com/avos-io/tricore"
)

// NewGRPCUnary builds the gRPC protocol interceptor for one unary call.
func NewGRPCUnary(cfg *tricore.ProtocolClientConfig) tricore.UnaryInterceptor {
	return &grpcUnary{cfg: cfg}
}

type grpcUnary struct {
	cfg *tricore.ProtocolClientConfig
}

func (g *grpcUnary) OnRequest(ctx context.Context, req *tricore.RequestDescriptor) (*tricore.RequestDescriptor, error) {
	applyGRPCRequestHeaders(req, g.cfg)

	frame, err := tricore.PackEnvelope(req.Body, g.cfg.Compression.RequestCompression())
	if err != nil {
		return nil, err
	}
	req.Body = frame
	req.HasBody = true
	return req, nil
}

func (g *grpcUnary) OnResponse(ctx context.Context, resp *tricore.ResponseDescriptor) *tricore.ResponseDescriptor {
	resp.Error = grpcStatusFromResponse(resp)
	if resp.Error != nil || !resp.HasBody || len(resp.Body) == 0 {
		return resp
	}

	var pool encoding.Compressor
	if name := resp.Headers.Get("Grpc-Encoding"); len(name) > 0 {
		pool = g.cfg.Compression.ResponseCompressionPool(name[0])
	}
	_, body, err := tricore.UnpackEnvelope(resp.Body, pool)
	if err != nil {
		resp.Error = tricore.WrapError(tricore.CodeUnknown, err)
		return resp
	}
	resp.Body = body
	return resp
}

// applyGRPCRequestHeaders sets the headers common to gRPC unary and
// streaming requests (§4.5).
func applyGRPCRequestHeaders(req *tricore.RequestDescriptor, cfg *tricore.ProtocolClientConfig) {
	if req.Headers == nil {
		req.Headers = tricore.NewMetadata()
	}
	req.Headers.Set("Content-Type", "application/grpc+"+tricore.CodecName(cfg.Codec))
	req.Headers.Set("TE", "trailers")
	if req.Timeout > 0 {
		req.Headers.Set("Grpc-Timeout", encodeGRPCTimeout(req.Timeout))
	}
	if rc := cfg.Compression.RequestCompression(); rc != nil {
		req.Headers.Set("Grpc-Encoding", rc.Name)
	}
	if accept := cfg.Compression.AcceptEncodings(); len(accept) > 0 {
		req.Headers.Set("Grpc-Accept-Encoding", strings.Join(accept, ", "))
	}
}

// grpcStatusFromResponse extracts a Code/message/details triple from
// trailers (the normal path) or, absent any trailers, maps the HTTP status
// per §4.5's fixed table.
func grpcStatusFromResponse(resp *tricore.ResponseDescriptor) *tricore.Error {
	statusVals := resp.Trailers.Get("grpc-status")
	if len(statusVals) == 0 {
		if resp.HTTPStatus == 200 {
			return nil
		}
		return tricore.NewErrorf(httpStatusToCode(resp.HTTPStatus), "grpc: HTTP %d with no grpc-status trailer", resp.HTTPStatus)
	}

	code, err := strconv.Atoi(statusVals[0])
	if err != nil {
		return tricore.NewErrorf(tricore.CodeUnknown, "grpc: malformed grpc-status trailer %q", statusVals[0])
	}
	if code == 0 {
		return nil
	}

	message := ""
	if vs := resp.Trailers.Get("grpc-message"); len(vs) > 0 {
		message = vs[0]
	}

	e := tricore.NewError(tricore.Code(code), message)

	if vs := resp.Trailers.Get("grpc-status-details-bin"); len(vs) > 0 {
		var sp spb.Status
		if uerr := proto.Unmarshal([]byte(vs[0]), &sp); uerr == nil {
			e = tricore.ErrorFromStatusProto(&sp)
		}
	}
	return e.WithMetadata(resp.Trailers)
}

// NewGRPCStream builds the gRPC protocol interceptor for one streaming
// call.
func NewGRPCStream(cfg *tricore.ProtocolClientConfig) tricore.StreamInterceptor {
	return &grpcStream{cfg: cfg}
}

type grpcStream struct {
	cfg *tricore.ProtocolClientConfig

	responseCompression encoding.Compressor
}

func (g *grpcStream) OnStart(ctx context.Context, req *tricore.RequestDescriptor) (*tricore.RequestDescriptor, error) {
	applyGRPCRequestHeaders(req, g.cfg)
	return req, nil
}

func (g *grpcStream) OnInput(ctx context.Context, frame []byte) ([]byte, error) {
	return tricore.PackEnvelope(frame, g.cfg.Compression.RequestCompression())
}

func (g *grpcStream) OnOutput(ctx context.Context, res tricore.StreamResult) (tricore.StreamResult, error) {
	switch res.Kind {
	case tricore.StreamEventHeaders:
		if name := res.Headers.Get("Grpc-Encoding"); len(name) > 0 {
			g.responseCompression = g.cfg.Compression.ResponseCompressionPool(name[0])
		}
		return res, nil

	case tricore.StreamEventMessage:
		_, body, err := tricore.UnpackEnvelope(res.Message, g.responseCompression)
		if err != nil {
			return tricore.CompleteResult(tricore.CodeUnknown, tricore.WrapError(tricore.CodeUnknown, err), nil), nil
		}
		return tricore.MessageResult(body), nil

	case tricore.StreamEventComplete:
		// The transport surfaces trailers separately for gRPC (real HTTP/2
		// trailers); derive status from them here rather than trusting
		// whatever code the transport guessed.
		if res.Trailers != nil {
			e := grpcStatusFromResponse(&tricore.ResponseDescriptor{HTTPStatus: 200, Trailers: res.Trailers})
			code := tricore.CodeOK
			if e != nil {
				code = e.Code()
			}
			return tricore.CompleteResult(code, e, res.Trailers), nil
		}
		return res, nil

	default:
		return res, nil
	}
}
