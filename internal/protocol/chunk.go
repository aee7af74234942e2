// internal/protocol/chunk.go
package protocol

import (
	"context"
	"fmt"
	"io"
)

// contextWriter matches gousb.OutEndpoint.WriteContext
type contextWriter interface {
	WriteContext(ctx context.Context, buf []byte) (int, error)
}

// writeChunked sends data in pieces no larger than size and returns the
// number of bytes accepted. The context is checked before every chunk.
func writeChunked(ctx context.Context, w contextWriter, data []byte, size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("invalid chunk size: %d", size)
	}

	written := 0
	for written < len(data) {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		end := written + size
		if end > len(data) {
			end = len(data)
		}

		n, err := w.WriteContext(ctx, data[written:end])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
