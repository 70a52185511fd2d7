package xjson

import (
	"bytes"
	"encoding/json"
)

func MustMarshalString(v any) string {
	return string(MustMarshal(v))
}

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return b
}

func MustTo[T any](v []byte) T {
	t, err := To[T](v)
	if err != nil {
		panic(err)
	}

	return t
}

func To[T any](v []byte) (T, error) {
	var t T

	err := json.Unmarshal(v, &t)
	if err != nil {
		return t, err
	}

	return t, nil
}

func IsNull(v json.RawMessage) bool {
	return len(v) == 0 || bytes.Equal(v, NullJSON)
}

// Marshal renders v as JSON bytes. A string or []byte input is returned
// verbatim (callers use this for fields that may already arrive as raw
// JSON text, e.g. a dialect's passthrough `response_format`/`logit_bias`
// values); any other type is passed to json.Marshal.
func Marshal(v any) (json.RawMessage, error) {
	switch vv := v.(type) {
	case string:
		return json.RawMessage(vv), nil
	case []byte:
		return json.RawMessage(vv), nil
	case json.RawMessage:
		return vv, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		return json.RawMessage(b), nil
	}
}
