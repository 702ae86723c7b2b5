package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ImageBlock is an inline image attached to a message (base64 data plus
// its MIME type). Used for image cards in the multimodal chat path.
type ImageBlock struct {
	MediaType string
	Data      string
}

// Message represents a single message in a conversation. Images, when
// present, precede the text content in the provider payload.
type Message struct {
	Role    Role
	Content string
	Images  []ImageBlock
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// Chunk is one increment of a streamed completion. Err, when set, ends
// the stream; Done marks normal completion.
type Chunk struct {
	Text string
	Done bool
	Err  error
}
