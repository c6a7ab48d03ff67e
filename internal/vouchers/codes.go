package vouchers

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// codeCharset avoids ambiguous glyphs (0/O, 1/I/L) since codes are read
// aloud over the counter.
const codeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	codePrefix       = "GS"
	codeSegmentCount = 2
	codeSegmentLen   = 4
)

// GenerateCode produces a voucher code of the form GS-XXXX-XXXX.
func GenerateCode() (string, error) {
	segments := make([]string, 0, codeSegmentCount+1)
	segments = append(segments, codePrefix)
	for i := 0; i < codeSegmentCount; i++ {
		segment, err := randomSegment(codeSegmentLen)
		if err != nil {
			return "", err
		}
		segments = append(segments, segment)
	}
	return strings.Join(segments, "-"), nil
}

func randomSegment(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(out), nil
}
