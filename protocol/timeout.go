package protocol

import (
	"fmt"
	"time"
)

// grpcTimeoutUnits are tried smallest-to-largest until the encoded value
// fits in 8 digits, matching the wire contract both gRPC and gRPC-Web
// timeout headers share (§4.5, §4.6).
var grpcTimeoutUnits = []struct {
	size time.Duration
	unit byte
}{
	{time.Nanosecond, 'n'},
	{time.Microsecond, 'u'},
	{time.Millisecond, 'm'},
	{time.Second, 'S'},
	{time.Minute, 'M'},
	{time.Hour, 'H'},
}

const maxTimeoutDigits = 100000000 // 8 digits + 1

// encodeGRPCTimeout formats d as a Grpc-Timeout header value: an integer of
// at most 8 digits followed by a unit suffix, rounding up so the encoded
// timeout is never shorter than d.
func encodeGRPCTimeout(d time.Duration) string {
	if d <= 0 {
		return "0n"
	}
	for _, u := range grpcTimeoutUnits {
		v := (d + u.size - 1) / u.size
		if v < maxTimeoutDigits {
			return fmt.Sprintf("%d%c", v, u.unit)
		}
	}
	last := grpcTimeoutUnits[len(grpcTimeoutUnits)-1]
	return fmt.Sprintf("%d%c", int64(d/last.size), last.unit)
}
