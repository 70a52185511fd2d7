package sse

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, r io.Reader) []string {
	t.Helper()

	f := NewFramer(r)

	var got []string
	for f.Next() {
		got = append(got, f.Current())
	}

	require.NoError(t, f.Err())

	return got
}

func TestFramer_SplitsOnBlankLine(t *testing.T) {
	got := drain(t, bytes.NewBufferString("data: a\n\ndata: b\n\n"))
	assert.Equal(t, []string{"data: a\n\n", "data: b\n\n"}, got)
}

func TestFramer_SplitsOnCRCR(t *testing.T) {
	got := drain(t, bytes.NewBufferString("data: a\r\rdata: b\r\r"))
	assert.Equal(t, []string{"data: a\n\n", "data: b\n\n"}, got)
}

func TestFramer_SplitsOnCRLFCRLF(t *testing.T) {
	got := drain(t, bytes.NewBufferString("data: a\r\n\r\ndata: b\r\n\r\n"))
	assert.Equal(t, []string{"data: a\n\n", "data: b\n\n"}, got)
}

func TestFramer_FlushesTrailingFragmentWithoutBoundary(t *testing.T) {
	got := drain(t, bytes.NewBufferString("data: a\n\ndata: b"))
	assert.Equal(t, []string{"data: a\n\n", "data: b\n\n"}, got)
}

// byteAtATimeReader forces the framer to carry partial boundaries across
// Read calls, one byte at a time.
type byteAtATimeReader struct {
	data []byte
	pos  int
}

func (r *byteAtATimeReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}

	p[0] = r.data[r.pos]
	r.pos++

	return 1, nil
}

func TestFramer_IsInvariantToReadChunking(t *testing.T) {
	whole := "data: a\n\ndata: b\r\rdata: c\r\n\r\n"

	oneShot := drain(t, bytes.NewBufferString(whole))
	bytewise := drain(t, &byteAtATimeReader{data: []byte(whole)})

	assert.Equal(t, oneShot, bytewise)
}
