package services

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is an inclusive range of byte offsets within an object
type ByteRange struct {
	Start int64
	End   int64
}

// FullRange covers an object of the given size
func FullRange(size int64) ByteRange {
	return ByteRange{Start: 0, End: size - 1}
}

// Length returns the number of bytes in the range
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a 206 response
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// UnsatisfiedRange formats the Content-Range header value for a 416 response
func UnsatisfiedRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// ParseRange parses a single-range Range header ("bytes=a-b", "bytes=a-", "bytes=-n")
// against an object of the given size. An end beyond the object is clamped.
// Multiple ranges, malformed values and unsatisfiable ranges return ErrInvalidRange.
func ParseRange(header string, size int64) (ByteRange, error) {
	rangeSpec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || strings.Contains(rangeSpec, ",") || size <= 0 {
		return ByteRange{}, ErrInvalidRange
	}

	first, last, ok := strings.Cut(strings.TrimSpace(rangeSpec), "-")
	if !ok {
		return ByteRange{}, ErrInvalidRange
	}
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)

	// suffix range: the last n bytes
	if first == "" {
		n, err := parseOffset(last)
		if err != nil || n == 0 {
			return ByteRange{}, ErrInvalidRange
		}
		if n > size {
			n = size
		}
		return ByteRange{Start: size - n, End: size - 1}, nil
	}

	start, err := parseOffset(first)
	if err != nil || start >= size {
		return ByteRange{}, ErrInvalidRange
	}

	end := size - 1
	if last != "" {
		end, err = parseOffset(last)
		if err != nil || end < start {
			return ByteRange{}, ErrInvalidRange
		}
		if end >= size {
			end = size - 1
		}
	}

	return ByteRange{Start: start, End: end}, nil
}

// parseOffset accepts only plain non-negative decimal numbers
func parseOffset(s string) (int64, error) {
	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, ErrInvalidRange
	}
	return strconv.ParseInt(s, 10, 64)
}
