package dialect

import (
	"encoding/json"

	"github.com/coralmesh/llmgateway/llm/perr"
)

// OpenAIImageRequest is the normalized OpenAI image-generation request.
type OpenAIImageRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model,omitempty"`
	Quality        string `json:"quality"`
	N              int64  `json:"n"`
	ResponseFormat string `json:"response_format,omitempty"`
	Size           string `json:"size"`
	Style          string `json:"style"`
	User           string `json:"user,omitempty"`
}

type openAIImageWire struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model"`
	Quality        string `json:"quality"`
	N              *int64 `json:"n"`
	ResponseFormat string `json:"response_format"`
	Size           string `json:"size"`
	Style          string `json:"style"`
	User           string `json:"user"`
}

var validImageResponseFormats = map[string]bool{"": true, "url": true, "b64_json": true}

var validImageSizes = map[string]bool{
	"256x256": true, "512x512": true, "1024x1024": true,
	"1792x1024": true, "1024x1792": true,
}

// ValidateOpenAIImage parses and normalizes an OpenAI image-generation
// request body.
func ValidateOpenAIImage(raw []byte) (*OpenAIImageRequest, error) {
	var wire openAIImageWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, perr.NewValidationError("body is not a valid JSON object: " + err.Error())
	}

	var issues []string

	if len(wire.Prompt) == 0 || len(wire.Prompt) > 4000 {
		issues = append(issues, "prompt is required and must be at most 4000 characters")
	}

	if !validImageResponseFormats[wire.ResponseFormat] {
		issues = append(issues, "response_format must be url or b64_json")
	}

	if wire.Size != "" && !validImageSizes[wire.Size] {
		issues = append(issues, "size is not a supported value")
	}

	if wire.Quality != "" && wire.Quality != "standard" && wire.Quality != "hd" {
		issues = append(issues, "quality must be standard or hd")
	}

	if wire.Style != "" && wire.Style != "vivid" && wire.Style != "natural" {
		issues = append(issues, "style must be vivid or natural")
	}

	if wire.N != nil && (*wire.N < 1 || *wire.N > 4) {
		issues = append(issues, "n must be between 1 and 4")
	}

	if len(issues) > 0 {
		return nil, perr.NewValidationError(issues...)
	}

	out := &OpenAIImageRequest{
		Prompt:         wire.Prompt,
		Model:          wire.Model,
		Quality:        "standard",
		N:              1,
		ResponseFormat: wire.ResponseFormat,
		Size:           "1024x1024",
		Style:          "vivid",
		User:           wire.User,
	}

	if wire.Quality != "" {
		out.Quality = wire.Quality
	}

	if wire.N != nil {
		out.N = *wire.N
	}

	if wire.Size != "" {
		out.Size = wire.Size
	}

	if wire.Style != "" {
		out.Style = wire.Style
	}

	return out, nil
}
