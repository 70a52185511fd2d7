package sse

import "github.com/coralmesh/llmgateway/llm/httpclient"

// init registers the raw SSE decoder and Google's progressive JSON array
// decoder, the two framings this package implements directly (AWS's
// binary event-stream is registered by the bedrock package). This
// package's own tri-boundary framer supersedes httpclient's default
// go-sse-backed decoder for text/event-stream, since init() runs after
// httpclient's (this package imports it).
func init() {
	httpclient.RegisterDecoder("text/event-stream", NewDecoder)
	httpclient.RegisterDecoder("text/event-stream; charset=utf-8", NewDecoder)

	httpclient.RegisterDecoder("application/json", NewGoogleArrayDecoder)
	httpclient.RegisterDecoder("application/json; charset=utf-8", NewGoogleArrayDecoder)
}
