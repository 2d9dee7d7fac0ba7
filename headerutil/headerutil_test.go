package headerutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsBinaryKey(t *testing.T) {
	is := require.New(t)

	is.True(IsBinaryKey("x-grpc-test-echo-trailing-bin"))
	is.True(IsBinaryKey("X-Custom-BIN"))
	is.False(IsBinaryKey("x-grpc-test-echo-initial"))
}

func TestEncodeDecodeBinaryValueRoundTrip(t *testing.T) {
	is := require.New(t)

	raw := []byte{0xab, 0xab, 0xab}
	encoded := EncodeBinaryValue(raw)

	decoded, err := DecodeBinaryValue(encoded)
	is.NoError(err)
	is.Equal(raw, decoded)
}

func TestDecodeBinaryValueUnpadded(t *testing.T) {
	is := require.New(t)

	raw := []byte{0xab, 0xab}
	// RawStdEncoding form (no padding); the padded form is "q6s=".
	unpadded := "q6s"

	decoded, err := DecodeBinaryValue(unpadded)
	is.NoError(err)
	is.Equal(raw, decoded)
}

func TestFromHTTPHeaderLowercasesAndDecodesBinary(t *testing.T) {
	is := require.New(t)

	h := http.Header{}
	h.Set("X-Grpc-Test-Echo-Initial", "test_initial_metadata_value")
	h.Set("X-Grpc-Test-Echo-Trailing-Bin", EncodeBinaryValue([]byte{0xab, 0xab, 0xab}))
	h.Set("Content-Type", "application/grpc+proto") // reserved, dropped

	md := FromHTTPHeader(h)

	is.Equal([]string{"test_initial_metadata_value"}, md.Get("x-grpc-test-echo-initial"))
	is.Equal([]string{string([]byte{0xab, 0xab, 0xab})}, md.Get("x-grpc-test-echo-trailing-bin"))
	is.Empty(md.Get("content-type"))
}

func TestFromHTTPHeaderDropsUndecodableBinary(t *testing.T) {
	is := require.New(t)

	h := http.Header{}
	h.Set("X-Bad-Bin", "not base64!!!")

	md := FromHTTPHeader(h)
	is.Empty(md.Get("x-bad-bin"))
}

func TestToHTTPHeaderEncodesBinary(t *testing.T) {
	is := require.New(t)

	raw := []byte{0xab, 0xab, 0xab}
	md := map[string][]string{"x-custom-bin": {string(raw)}}

	h := ToHTTPHeader(md, "")
	is.Equal(EncodeBinaryValue(raw), h.Get("x-custom-bin"))
}
