package protocol

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/encoding"

	"github.com/avos-io/tricore"
)

// connectJSONError is the shape of a Connect unary error response body and
// a Connect streaming end-stream envelope's "error" field (§4.4).
type connectJSONError struct {
	Code    string                `json:"code"`
	Message string                `json:"message,omitempty"`
	Details []connectJSONAnyValue `json:"details,omitempty"`
}

type connectJSONAnyValue struct {
	Type  string `json:"type"`
	Value string `json:"value"` // base64-standard
}

// connectEndStream is the JSON body of a Connect streaming end-stream
// envelope (§4.4).
type connectEndStream struct {
	Error    *connectJSONError   `json:"error,omitempty"`
	Metadata map[string][]string `json:"metadata,omitempty"`
}

// NewConnectUnary builds the Connect unary protocol interceptor for one
// call. idempotency controls whether GET-transformation may apply.
func NewConnectUnary(cfg *tricore.ProtocolClientConfig, idempotency tricore.Idempotency) tricore.UnaryInterceptor {
	return &connectUnary{cfg: cfg, idempotency: idempotency}
}

type connectUnary struct {
	cfg         *tricore.ProtocolClientConfig
	idempotency tricore.Idempotency
}

func (c *connectUnary) OnRequest(ctx context.Context, req *tricore.RequestDescriptor) (*tricore.RequestDescriptor, error) {
	if req.Headers == nil {
		req.Headers = tricore.NewMetadata()
	}
	req.Headers.Set("Content-Type", "application/"+tricore.CodecName(c.cfg.Codec))
	req.Headers.Set("Connect-Protocol-Version", "1")
	if req.Timeout > 0 {
		req.Headers.Set("Connect-Timeout-Ms", strconv.FormatInt(req.Timeout.Milliseconds(), 10))
	}

	req.Idempotency = c.idempotency
	if req.Method == "" {
		req.Method = tricore.MethodPost
	}

	rc := c.cfg.Compression.RequestCompression()
	compressedForWire := rc != nil && len(req.Body) >= rc.MinBytes
	if compressedForWire {
		req.Headers.Set("Content-Encoding", rc.Name)
	}
	if accept := c.cfg.Compression.AcceptEncodings(); len(accept) > 0 {
		req.Headers.Set("Accept-Encoding", strings.Join(accept, ", "))
	}

	if c.idempotency == tricore.IdempotencyNoSideEffects && c.cfg.GETRequestsAllowed {
		return connectToGET(req, tricore.CodecName(c.cfg.Codec), rc, compressedForWire)
	}

	if compressedForWire {
		compressed, err := compressBytes(rc.Pool, req.Body)
		if err != nil {
			return nil, fmt.Errorf("connect request compression: %w", err)
		}
		req.Body = compressed
		req.HasBody = true
	}
	return req, nil
}

// connectToGET transforms a POST request into a cacheable GET, per §4.4:
// query params message (base64url of body), encoding, base64=1,
// compression, connect=v1; body cleared; get-request: true header set for
// observability.
func connectToGET(req *tricore.RequestDescriptor, codecName string, rc *tricore.RequestCompression, compressed bool) (*tricore.RequestDescriptor, error) {
	body := req.Body
	if compressed {
		compressedBody, err := compressBytes(rc.Pool, body)
		if err != nil {
			return nil, fmt.Errorf("connect GET transform: %w", err)
		}
		body = compressedBody
	}

	q := url.Values{}
	q.Set("message", base64.URLEncoding.EncodeToString(body))
	q.Set("encoding", codecName)
	q.Set("base64", "1")
	q.Set("connect", "v1")
	if compressed {
		q.Set("compression", rc.Name)
	}

	sep := "?"
	if strings.Contains(req.URL, "?") {
		sep = "&"
	}
	req.URL = req.URL + sep + q.Encode()
	req.Method = tricore.MethodGet
	req.Body = nil
	req.HasBody = false
	req.Headers.Set("get-request", "true")
	return req, nil
}

func (c *connectUnary) OnResponse(ctx context.Context, resp *tricore.ResponseDescriptor) *tricore.ResponseDescriptor {
	if resp.HTTPStatus == 200 {
		return resp
	}
	if !resp.HasBody || len(resp.Body) == 0 {
		resp.Error = tricore.NewErrorf(httpStatusToCode(resp.HTTPStatus), "connect: HTTP %d", resp.HTTPStatus)
		return resp
	}

	var je connectJSONError
	if err := json.Unmarshal(resp.Body, &je); err != nil {
		log.Error().Err(err).Msg("connect: failed to decode error body")
		resp.Error = tricore.NewErrorf(tricore.CodeUnknown, "connect: malformed error body: %v", err)
		return resp
	}
	resp.Error = connectErrorFromJSON(&je)
	return resp
}

func connectErrorFromJSON(je *connectJSONError) *tricore.Error {
	code := connectCodeFromName(je.Code)
	e := tricore.NewError(code, je.Message)
	if len(je.Details) == 0 {
		return e
	}

	details := make([]*tricore.ErrorDetail, 0, len(je.Details))
	for _, d := range je.Details {
		value, err := base64.StdEncoding.DecodeString(d.Value)
		if err != nil {
			log.Warn().Err(err).Str("type", d.Type).Msg("connect: dropping undecodable error detail")
			continue
		}
		details = append(details, &tricore.ErrorDetail{TypeURL: d.Type, Value: value})
	}
	return e.WithDetails(details)
}

// NewConnectStream builds the Connect streaming protocol interceptor for
// one call.
func NewConnectStream(cfg *tricore.ProtocolClientConfig) tricore.StreamInterceptor {
	return &connectStream{cfg: cfg}
}

type connectStream struct {
	cfg *tricore.ProtocolClientConfig

	responseCompression encoding.Compressor
}

func (c *connectStream) OnStart(ctx context.Context, req *tricore.RequestDescriptor) (*tricore.RequestDescriptor, error) {
	if req.Headers == nil {
		req.Headers = tricore.NewMetadata()
	}
	req.Headers.Set("Content-Type", "application/connect+"+tricore.CodecName(c.cfg.Codec))
	if req.Timeout > 0 {
		req.Headers.Set("Connect-Timeout-Ms", strconv.FormatInt(req.Timeout.Milliseconds(), 10))
	}
	if rc := c.cfg.Compression.RequestCompression(); rc != nil {
		req.Headers.Set("Connect-Content-Encoding", rc.Name)
	}
	if accept := c.cfg.Compression.AcceptEncodings(); len(accept) > 0 {
		req.Headers.Set("Connect-Accept-Encoding", strings.Join(accept, ", "))
	}
	return req, nil
}

func (c *connectStream) OnInput(ctx context.Context, frame []byte) ([]byte, error) {
	return tricore.PackEnvelope(frame, c.cfg.Compression.RequestCompression())
}

func (c *connectStream) OnOutput(ctx context.Context, res tricore.StreamResult) (tricore.StreamResult, error) {
	switch res.Kind {
	case tricore.StreamEventHeaders:
		if name := res.Headers.Get("Connect-Content-Encoding"); len(name) > 0 {
			c.responseCompression = c.cfg.Compression.ResponseCompressionPool(name[0])
		}
		return res, nil

	case tricore.StreamEventMessage:
		flags, body, err := tricore.UnpackEnvelope(res.Message, c.responseCompression)
		if err != nil {
			return tricore.CompleteResult(tricore.CodeUnknown, tricore.WrapError(tricore.CodeUnknown, err), nil), nil
		}
		// FlagEndStream is 0x80 here, not the 0x02 a real Connect server
		// sends on its end-stream message; see FlagEndStream's doc comment.
		if flags&tricore.FlagEndStream != 0 {
			return connectDecodeEndStream(body)
		}
		return tricore.MessageResult(body), nil

	default:
		return res, nil
	}
}

// connectDecodeEndStream decodes a Connect streaming end-stream envelope's
// JSON payload into a terminal Complete event, per §4.4.
func connectDecodeEndStream(body []byte) (tricore.StreamResult, error) {
	var es connectEndStream
	if err := json.Unmarshal(body, &es); err != nil {
		return tricore.CompleteResult(tricore.CodeUnknown, tricore.WrapError(tricore.CodeUnknown, err), nil), nil
	}

	md := tricore.NewMetadata()
	for k, vs := range es.Metadata {
		md[strings.ToLower(k)] = vs
	}

	if es.Error == nil {
		return tricore.CompleteResult(tricore.CodeOK, nil, md), nil
	}
	return tricore.CompleteResult(connectCodeFromName(es.Error.Code), connectErrorFromJSON(es.Error), md), nil
}

// compressBytes reuses the envelope codec's compression path so
// connectToGET's query-parameter form compresses identically to the framed
// form, stripping the 5-byte envelope header the query parameter doesn't
// want.
func compressBytes(pool encoding.Compressor, payload []byte) ([]byte, error) {
	env, err := tricore.PackEnvelope(payload, &tricore.RequestCompression{Pool: pool, MinBytes: 0})
	if err != nil {
		return nil, err
	}
	if len(env) < 5 {
		return env, nil
	}
	return env[5:], nil
}
