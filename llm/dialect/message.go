package dialect

import (
	"encoding/json"
	"fmt"
)

// ChatMessage is the OpenAI-chat-shaped message used by the chat and
// Mistral dialects. Content accepts either a plain string or an array of
// typed parts, mirroring the real API's union.
type ChatMessage struct {
	Role       string         `json:"role"`
	Content    MessageContent `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  json.RawMessage `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// MessageContent is either a plain string or an array of MessageContentPart.
// IsArray distinguishes the two cases since a valid string content can
// itself be empty.
type MessageContent struct {
	Text    string
	Parts   []MessageContentPart
	IsArray bool
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.IsArray {
		return json.Marshal(c.Parts)
	}

	return json.Marshal(c.Text)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		c.IsArray = false

		return nil
	}

	var parts []MessageContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content must be a string or an array of parts: %w", err)
	}

	c.Parts = parts
	c.IsArray = true

	return nil
}

// PlainText renders the content as a flattenable string, joining array part
// text with newlines and rendering image parts as a placeholder. Used by
// the prompt-flattening transforms in package transform.
func (c MessageContent) PlainText() string {
	if !c.IsArray {
		return c.Text
	}

	var out string

	for i, p := range c.Parts {
		if i > 0 {
			out += "\n"
		}

		if p.Type == "text" {
			out += p.Text
		} else {
			out += "[ Uploaded Image Omitted ]"
		}
	}

	return out
}

// MessageContentPart is one element of an array-form message content: a
// text span or an image reference.
type MessageContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleFunction  = "function"
)
