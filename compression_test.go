package tricore

import (
	"testing"

	"github.com/stretchr/testify/require"
	_ "google.golang.org/grpc/encoding/gzip"
)

func TestCompressionRegistryAcceptEncodings(t *testing.T) {
	is := require.New(t)

	reg := NewCompressionRegistry("gzip", "identity")
	is.Equal([]string{"gzip", "identity"}, reg.AcceptEncodings())
}

func TestCompressionRegistryResponsePool(t *testing.T) {
	is := require.New(t)

	reg := NewCompressionRegistry("gzip")
	is.NotNil(reg.ResponseCompressionPool("gzip"))
	is.Nil(reg.ResponseCompressionPool("identity"))
	is.Nil(reg.ResponseCompressionPool("br")) // not in accept-list
	is.Nil(reg.ResponseCompressionPool(""))
}

func TestCompressionRegistryRequestCompression(t *testing.T) {
	is := require.New(t)

	reg := NewCompressionRegistry("gzip")
	is.Nil(reg.RequestCompression())

	reg.SetRequestCompression("gzip", 128)
	rc := reg.RequestCompression()
	is.NotNil(rc)
	is.Equal("gzip", rc.Name)
	is.Equal(128, rc.MinBytes)
	is.NotNil(rc.Pool)
}

func TestCompressionRegistryUnknownRequestCodec(t *testing.T) {
	is := require.New(t)

	reg := NewCompressionRegistry()
	reg.SetRequestCompression("does-not-exist", 0)
	is.Nil(reg.RequestCompression())
}
