// Package codec converts attachment bytes to and from the text-safe payload
// stored alongside project records.
package codec

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrDecode indicates a payload is not valid standard base64.
var ErrDecode = errors.New("invalid attachment payload")

const chunkSize = 48 * 1024 // multiple of 3 so chunks encode without padding

// Encode returns the standard base64 form of data. Empty input yields "".
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode is the inverse of Encode. Line breaks are rejected rather than
// skipped.
func Decode(payload string) ([]byte, error) {
	if i := strings.IndexAny(payload, "\r\n"); i >= 0 {
		return nil, fmt.Errorf("%w: line break at offset %d", ErrDecode, i)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return data, nil
}

// EncodeReader streams r through a base64 encoder and returns the payload
// together with the number of raw bytes read. The context is checked between
// chunks so an abandoned conversion stops early.
func EncodeReader(ctx context.Context, r io.Reader) (string, int64, error) {
	var sb strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &sb)

	buf := make([]byte, chunkSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			total += int64(n)
			if _, werr := enc.Write(buf[:n]); werr != nil {
				return "", 0, fmt.Errorf("encoding payload: %w", werr)
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("reading file: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return "", 0, fmt.Errorf("encoding payload: %w", err)
	}
	return sb.String(), total, nil
}
