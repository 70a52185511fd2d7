package xjson

import "encoding/json"

var (
	EmptyJSON            = []byte("{}")
	NullJSON             = []byte("null")
	EmptyArrayJSON       = []byte("[]")
	EmptyJSONRawMessage  = json.RawMessage(EmptyJSON)
	EmptyArrayRawMessage = json.RawMessage(EmptyArrayJSON)
	NullJSONRawMessage   = json.RawMessage(NullJSON)
)
