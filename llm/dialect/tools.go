package dialect

import (
	"encoding/json"

	"github.com/coralmesh/llmgateway/internal/pkg/xjson"
)

// Tool is one OpenAI chat `tools[]` entry. Only the function-call shape is
// recognized; Parameters is sanitized with sanitizeTools before the
// request is forwarded upstream.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is a tool's callable definition.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// schemaMetaKeywords are JSON-Schema-meta keywords most upstream function-
// calling APIs reject on a tool's parameter schema.
var schemaMetaKeywords = []string{"$schema", "$id", "additionalProperties"}

// sanitizeTools cleans every tool's parameter schema in place, dropping
// meta keywords upstreams don't accept. A tool whose parameters fail to
// parse as a schema is left unchanged; it will be rejected upstream
// instead of by this proxy.
func sanitizeTools(tools []Tool) []Tool {
	for i, t := range tools {
		if len(t.Function.Parameters) == 0 {
			continue
		}

		cleaned, err := xjson.CleanSchema(t.Function.Parameters, schemaMetaKeywords...)
		if err == nil {
			tools[i].Function.Parameters = cleaned
		}
	}

	return tools
}
