package pipeline

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/coralmesh/llmgateway/llm"
	"github.com/coralmesh/llmgateway/llm/httpclient"
	"github.com/coralmesh/llmgateway/llm/perr"
)

// blockingDecoder implements §4.6's blocking decode path: read the whole
// body, undo content-encoding, and JSON-parse it when the content-type says
// so. It is also the streaming path's fallback when the upstream responds
// with a status above 201 before any bytes have been forwarded to the client.
func (p *Pipeline) blockingDecoder(_ context.Context, rc *llm.RequestContext, upstream *httpclient.Response) (*Result, error) {
	raw := upstream.Body

	if upstream.Stream != nil {
		defer upstream.Stream.Close()

		buf, err := io.ReadAll(upstream.Stream)
		if err != nil {
			return nil, perr.NewDecodeError(err)
		}

		raw = buf
	}

	decoded, err := decompress(upstream.Headers.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, err
	}

	result := &Result{
		StatusCode: upstream.StatusCode,
		Headers:    upstream.Headers,
		Raw:        decoded,
	}

	contentType := upstream.Headers.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var body any
		if err := json.Unmarshal(decoded, &body); err != nil {
			return nil, perr.NewDecodeError(err)
		}

		result.Body = body
	} else {
		result.Body = string(decoded)
	}

	_ = rc

	return result, nil
}

// decompress undoes the upstream's content-encoding. Brotli is not
// supported: no third-party brotli decoder is part of this module's
// dependency stack, so a brotli-encoded body surfaces the same DecodeError
// an unrecognized encoding would.
func decompress(encoding string, raw []byte) ([]byte, error) {
	switch encoding {
	case "", "identity":
		return raw, nil

	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, perr.NewDecodeError(err)
		}
		defer r.Close()

		out, err := io.ReadAll(r)
		if err != nil {
			return nil, perr.NewDecodeError(err)
		}

		return out, nil

	case "deflate":
		r := flate.NewReader(bytes.NewReader(raw))
		defer r.Close()

		out, err := io.ReadAll(r)
		if err != nil {
			return nil, perr.NewDecodeError(err)
		}

		return out, nil

	default:
		return nil, perr.NewDecodeError(errUnsupportedEncoding(encoding))
	}
}

type errUnsupportedEncoding string

func (e errUnsupportedEncoding) Error() string {
	return "unsupported content-encoding: " + string(e)
}
