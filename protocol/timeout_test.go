package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeGRPCTimeout(t *testing.T) {
	is := require.New(t)

	is.Equal("0n", encodeGRPCTimeout(0))
	is.Equal("10m", encodeGRPCTimeout(10*time.Millisecond))
	is.Equal("1S", encodeGRPCTimeout(1*time.Second))
	is.Equal("2M", encodeGRPCTimeout(2*time.Minute))
	is.Equal("3H", encodeGRPCTimeout(3*time.Hour))
}

func TestEncodeGRPCTimeoutPicksSmallestUnitThatFits(t *testing.T) {
	is := require.New(t)

	// 100000000ms doesn't fit in 8 digits, so it escalates to seconds.
	got := encodeGRPCTimeout(100000000 * time.Millisecond)
	is.Equal("100000S", got)
	is.Regexp(`^\d{1,8}[nuMSmH]$`, got)
}
