package dialect

import (
	"encoding/json"
	"fmt"
)

// Stop is the OpenAI `stop` field union: absent, a single string, or an
// array of strings (bounded per dialect by the caller).
type Stop struct {
	Values []string
	Set    bool
}

func (s Stop) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte("null"), nil
	}

	if len(s.Values) == 1 {
		return json.Marshal(s.Values[0])
	}

	return json.Marshal(s.Values)
}

func (s *Stop) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		s.Set = false
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Values = []string{str}
		s.Set = true

		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("stop must be a string or an array of strings: %w", err)
	}

	s.Values = arr
	s.Set = true

	return nil
}

// AsSlice returns the stop values, or nil if unset.
func (s Stop) AsSlice() []string {
	if !s.Set {
		return nil
	}

	return s.Values
}

// UnionDedup returns the union of a and b, de-duplicated and preserving the
// order of first occurrence. Used for the OpenAI->Anthropic/text/Google
// stop-sequence rewrites.
func UnionDedup(sets ...[]string) []string {
	seen := make(map[string]bool)

	var out []string

	for _, set := range sets {
		for _, v := range set {
			if seen[v] {
				continue
			}

			seen[v] = true

			out = append(out, v)
		}
	}

	return out
}
