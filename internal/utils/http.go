package utils

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrTooLarge is returned by ReadAllLimit when the input exceeds the limit.
var ErrTooLarge = errors.New("content exceeds size limit")

// ReadAllLimit reads r up to limit bytes. A larger input fails with
// ErrTooLarge instead of being truncated, since a cut document would
// silently lose markup. limit <= 0 means no limit.
func ReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// CloseWithLog closes c and logs a close error at WARN.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close", "error", err.Error())
	}
}
