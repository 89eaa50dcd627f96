package spec

import (
	"fmt"
	"io"
	"os"
)

// DefaultHeaderCap is the number of bytes read from the start of a test source.
const DefaultHeaderCap = 16384

// Header is the leading portion of a test source file.
type Header struct {
	Path string
	Data []byte

	// Truncated is set when the file holds more bytes than the cap allowed.
	Truncated bool
}

// ReadHeader reads at most capacity bytes from the start of path.
func ReadHeader(path string, capacity int) (Header, error) {
	if capacity <= 0 {
		capacity = DefaultHeaderCap
	}
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrCannotOpen, err)
	}
	defer f.Close()

	// one extra byte tells a full buffer apart from a longer file
	buf := make([]byte, capacity+1)
	n, err := io.ReadFull(f, buf)
	switch {
	case err == io.EOF || (err == nil && n == 0):
		return Header{}, ErrCannotRead
	case err != nil && err != io.ErrUnexpectedEOF:
		return Header{}, fmt.Errorf("%w: %v", ErrCannotRead, err)
	}

	h := Header{Path: path, Data: buf[:n]}
	if n > capacity {
		h.Data = buf[:capacity]
		h.Truncated = true
	}
	return h, nil
}
