package llm

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleTool   Role = "tool"
)

// Message is one turn in an agent conversation. A model turn may carry tool
// calls alongside or instead of text; a tool turn carries the results.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolCall is a function invocation the model requested.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolResult is the outcome of executing one tool call, fed back to the model
// on the next turn. IsError marks results that carry an error description
// instead of tool output.
type ToolResult struct {
	Name    string
	Content string
	IsError bool
}

// ToolSpec declares a tool the model may call. Parameters is a JSON Schema
// document describing the arguments object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  []byte
}

// Request is a single model invocation.
type Request struct {
	Tier     ModelTier
	System   string
	Messages []Message
	Tools    []ToolSpec

	// ResponseSchema, when set, constrains the model to emit JSON matching
	// the given JSON Schema document. Ignored when Tools are present.
	ResponseSchema []byte
}

// Response is the model's turn. Either Text, ToolCalls, or both are set.
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Client is the provider-neutral LLM surface the pipeline talks to.
type Client interface {
	// Invoke runs one model turn over the conversation.
	Invoke(ctx context.Context, req Request) (*Response, error)
	// Close releases any resources held by the client.
	Close() error
}

// NewClient creates an LLM client for the configured provider.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	return NewGeminiClient(ctx, config, apiKey)
}
