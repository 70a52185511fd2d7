package llm

// APIFormat is a closed tagged variant identifying one of the six dialects
// the proxy understands, used for both inboundApi and outboundApi.
type APIFormat string

const (
	APIFormatOpenAIChat  APIFormat = "openai"
	APIFormatOpenAIText  APIFormat = "openai-text"
	APIFormatOpenAIImage APIFormat = "openai-image"
	APIFormatAnthropic   APIFormat = "anthropic"
	APIFormatGoogleAI    APIFormat = "google-ai"
	APIFormatMistralAI   APIFormat = "mistral-ai"
)

func (f APIFormat) String() string { return string(f) }

// Valid reports whether f is one of the recognized dialects.
func (f APIFormat) Valid() bool {
	switch f {
	case APIFormatOpenAIChat, APIFormatOpenAIText, APIFormatOpenAIImage,
		APIFormatAnthropic, APIFormatGoogleAI, APIFormatMistralAI:
		return true
	default:
		return false
	}
}

// Service identifies the credential's upstream provider tag. It is a
// superset of APIFormat since aws/azure upstreams speak the anthropic or
// openai wire formats respectively but are leased/disabled as distinct
// services.
type Service string

const (
	ServiceOpenAI    Service = "openai"
	ServiceAnthropic Service = "anthropic"
	ServiceAWS       Service = "aws"
	ServiceAzure     Service = "azure"
	ServiceGoogleAI  Service = "google-ai"
	ServiceMistralAI Service = "mistral-ai"
)

func (s Service) String() string { return string(s) }
