// Package keycodec encodes numeric identifiers as fixed-width, zero-padded
// strings so composite store keys order lexicographically the same way the
// numbers order. Version and release sequence numbers pass through here before
// they are embedded in partition or sort keys.
package keycodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SequenceWidth is the canonical width for version/release sequence numbers.
// Ten digits covers the full positive int32 range with room to spare.
const SequenceWidth = 10

// Separator joins composite key segments. Caller-supplied text passes
// through EscapeSegment before it becomes a segment, so no segment ever
// contains it.
const Separator = "#"

var (
	ErrNegativeNumber = errors.New("key numbers must not be negative")
	ErrWidthExceeded  = errors.New("number does not fit requested width")
	ErrNotNumeric     = errors.New("key segment is not numeric")
)

// Encode renders n as a zero-padded decimal string of exactly width digits.
func Encode(n int64, width int) (string, error) {
	if n < 0 {
		return "", ErrNegativeNumber
	}
	encoded := fmt.Sprintf("%0*d", width, n)
	if len(encoded) > width {
		return "", ErrWidthExceeded
	}
	return encoded, nil
}

// EncodeSequence is Encode with the canonical sequence width.
func EncodeSequence(n int64) (string, error) {
	return Encode(n, SequenceWidth)
}

// Decode parses a zero-padded segment back to its numeric value.
func Decode(segment string) (int64, error) {
	trimmed := strings.TrimSpace(segment)
	if trimmed == "" {
		return 0, ErrNotNumeric
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || n < 0 {
		return 0, ErrNotNumeric
	}
	return n, nil
}

// EscapeSegment encodes caller-supplied text for use as one key segment.
// The percent sign is encoded first, which keeps the mapping injective:
// distinct segment lists can never join to the same composite key.
func EscapeSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "%", "%25")
	return strings.ReplaceAll(segment, Separator, "%23")
}

// Join builds a composite key from segments.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Split breaks a composite key back into its segments.
func Split(key string) []string {
	return strings.Split(key, Separator)
}
