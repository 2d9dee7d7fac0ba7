package tricore

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/gzip"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	is := require.New(t)

	payload := []byte("the quick brown fox jumps over the lazy dog")

	frame, err := PackEnvelope(payload, nil)
	is.NoError(err)

	flags, body, err := UnpackEnvelope(frame, nil)
	is.NoError(err)
	is.Equal(EnvelopeFlags(0), flags)
	is.Equal(payload, body)
}

func TestPackUnpackCompressed(t *testing.T) {
	is := require.New(t)

	pool := encoding.GetCompressor("gzip")
	is.NotNil(pool)

	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i)
	}

	frame, err := PackEnvelope(payload, &RequestCompression{Name: "gzip", Pool: pool, MinBytes: 0})
	is.NoError(err)

	flags, body, err := UnpackEnvelope(frame, pool)
	is.NoError(err)
	is.NotEqual(EnvelopeFlags(0), flags&FlagCompressed)
	is.Equal(payload, body)
}

func TestPackBelowMinBytesUncompressed(t *testing.T) {
	is := require.New(t)

	pool := encoding.GetCompressor("gzip")
	payload := []byte("short")

	frame, err := PackEnvelope(payload, &RequestCompression{Name: "gzip", Pool: pool, MinBytes: 1024})
	is.NoError(err)

	flags, body, err := UnpackEnvelope(frame, nil)
	is.NoError(err)
	is.Equal(EnvelopeFlags(0), flags&FlagCompressed)
	is.Equal(payload, body)
}

func TestUnpackTooShort(t *testing.T) {
	is := require.New(t)

	_, _, err := UnpackEnvelope([]byte{0x00, 0x00}, nil)
	is.ErrorIs(err, ErrEnvelopeTooShort)
}

func TestUnpackCompressedRequiresPool(t *testing.T) {
	is := require.New(t)

	pool := encoding.GetCompressor("gzip")
	frame, err := PackEnvelope([]byte("data"), &RequestCompression{Name: "gzip", Pool: pool, MinBytes: 0})
	is.NoError(err)

	_, _, err = UnpackEnvelope(frame, nil)
	is.ErrorIs(err, ErrCompressionRequired)
}

func TestEndStreamFlagRoundTrip(t *testing.T) {
	is := require.New(t)

	frame := PackEndStreamEnvelope([]byte(`{"error":null}`), 0)

	flags, body, err := UnpackEnvelope(frame, nil)
	is.NoError(err)
	is.NotEqual(EnvelopeFlags(0), flags&FlagEndStream)
	is.Equal([]byte(`{"error":null}`), body)
}

func TestEnvelopeTotalSize(t *testing.T) {
	is := require.New(t)

	frame, err := PackEnvelope([]byte("hello"), nil)
	is.NoError(err)

	// Simulate two back-to-back frames in one body (gRPC-Web style).
	body := append(append([]byte{}, frame...), frame...)

	size, err := EnvelopeTotalSize(body)
	is.NoError(err)
	is.Equal(len(frame), size)

	second := body[size:]
	is.Equal(frame, second)
}
