// Package sse implements the raw SSE framing and per-upstream adapters of
// ADR C3: turning an upstream's byte stream (whatever its native framing)
// into a sequence of canonical SSE message strings, each terminated by a
// blank line, ready to hand to the event transformer of ADR C4.
package sse

import (
	"bytes"
	"io"
	"strings"

	"github.com/coralmesh/llmgateway/llm/streams"
)

var _ streams.Stream[string] = (*Framer)(nil)

const readChunk = 32 * 1024

// boundaries are checked in the order given; ties on index favor the
// longest match so "\r\n\r\n" is preferred over a coincidental inner
// "\n\n"/"\r\r" at the same offset.
var boundaries = []string{"\r\n\r\n", "\n\n", "\r\r"}

// Framer splits a raw byte stream into complete SSE frames, each ending at
// a blank-line boundary ("\r\r", "\n\n", or "\r\n\r\n"). It tolerates the
// boundary arriving split across separate Read calls: a partial boundary
// at the end of one chunk is carried over and completed by the next.
//
// Each returned frame has its line endings normalized to "\n" and is
// terminated by a trailing "\n\n", regardless of which boundary form the
// upstream used.
type Framer struct {
	r       io.Reader
	pending []byte
	cur     string
	err     error
	eof     bool
}

// NewFramer wraps r, framing its bytes into SSE messages.
func NewFramer(r io.Reader) *Framer {
	return &Framer{r: r}
}

// Next advances to the next complete frame, reading from the underlying
// reader as needed. It returns false on error or exhaustion; any leftover
// bytes with no trailing boundary are flushed as a final frame when the
// reader reaches EOF.
func (f *Framer) Next() bool {
	if f.err != nil {
		return false
	}

	for {
		if idx, length, ok := findBoundary(f.pending); ok {
			frame := f.pending[:idx]
			f.pending = f.pending[idx+length:]
			f.cur = normalizeFrame(frame)

			return true
		}

		if f.eof {
			if len(f.pending) == 0 {
				return false
			}

			frame := f.pending
			f.pending = nil
			f.cur = normalizeFrame(frame)

			return true
		}

		buf := make([]byte, readChunk)

		n, err := f.r.Read(buf)
		if n > 0 {
			f.pending = append(f.pending, buf[:n]...)
		}

		if err != nil {
			if err == io.EOF {
				f.eof = true
				continue
			}

			f.err = err

			return false
		}
	}
}

// Current returns the most recently framed message.
func (f *Framer) Current() string { return f.cur }

// Err returns the error, if any, that stopped framing.
func (f *Framer) Err() error { return f.err }

// Close releases the underlying reader if it implements io.Closer.
func (f *Framer) Close() error {
	if closer, ok := f.r.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

func findBoundary(data []byte) (idx, length int, found bool) {
	best := -1
	bestLen := 0

	for _, b := range boundaries {
		if i := bytes.Index(data, []byte(b)); i >= 0 {
			if best == -1 || i < best || (i == best && len(b) > bestLen) {
				best = i
				bestLen = len(b)
			}
		}
	}

	if best == -1 {
		return 0, 0, false
	}

	return best, bestLen, true
}

func normalizeFrame(frame []byte) string {
	s := strings.ReplaceAll(string(frame), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	return s + "\n\n"
}
