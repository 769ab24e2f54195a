// Package llm - gemini.go implements the Client interface for Google Gemini.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Invoke runs one model turn over the conversation.
func (c *GeminiClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1) // Low temperature for consistent output

	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	if len(req.Tools) > 0 {
		decls, err := toFunctionDeclarations(req.Tools)
		if err != nil {
			return nil, err
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	} else if req.ResponseSchema != nil {
		schema, err := toGenaiSchema(req.ResponseSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to convert response schema: %w", err)
		}
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = schema
	}

	history, last, err := toGenaiContents(req.Messages)
	if err != nil {
		return nil, err
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, last...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return fromGenaiResponse(resp)
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// toGenaiContents maps the conversation to chat history plus the final turn's
// parts, which the Gemini SDK takes separately.
func toGenaiContents(messages []Message) ([]*genai.Content, []genai.Part, error) {
	if len(messages) == 0 {
		return nil, nil, fmt.Errorf("conversation is empty")
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		content, err := toGenaiContent(msg)
		if err != nil {
			return nil, nil, err
		}
		contents = append(contents, content)
	}

	last := contents[len(contents)-1]
	return contents[:len(contents)-1], last.Parts, nil
}

func toGenaiContent(msg Message) (*genai.Content, error) {
	var role string
	var parts []genai.Part

	switch msg.Role {
	case RoleUser, RoleSystem:
		// Gemini has no system role inside the conversation; system text
		// outside SystemInstruction is carried as a user turn.
		role = "user"
		parts = append(parts, genai.Text(msg.Text))
	case RoleModel:
		role = "model"
		if msg.Text != "" {
			parts = append(parts, genai.Text(msg.Text))
		}
		for _, call := range msg.ToolCalls {
			parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Args})
		}
	case RoleTool:
		role = "function"
		for _, result := range msg.ToolResults {
			response := map[string]any{"content": result.Content}
			if result.IsError {
				response = map[string]any{"error": result.Content}
			}
			parts = append(parts, genai.FunctionResponse{Name: result.Name, Response: response})
		}
	default:
		return nil, fmt.Errorf("unknown message role %q", msg.Role)
	}

	if len(parts) == 0 {
		parts = append(parts, genai.Text(""))
	}
	return &genai.Content{Role: role, Parts: parts}, nil
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no content in response")
	}

	var out Response
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			out.Text += string(p)
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, ToolCall{Name: p.Name, Args: p.Args})
		}
	}

	if out.Text == "" && len(out.ToolCalls) == 0 {
		return nil, fmt.Errorf("no usable parts in response")
	}
	return &out, nil
}

func toFunctionDeclarations(tools []ToolSpec) ([]*genai.FunctionDeclaration, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if tool.Parameters != nil {
			schema, err := toGenaiSchema(tool.Parameters)
			if err != nil {
				return nil, fmt.Errorf("failed to convert parameters for tool %s: %w", tool.Name, err)
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

// jsonSchemaDoc is the subset of JSON Schema the Gemini API understands.
type jsonSchemaDoc struct {
	Type        string                    `json:"type"`
	Format      string                    `json:"format,omitempty"`
	Description string                    `json:"description,omitempty"`
	Enum        []string                  `json:"enum,omitempty"`
	Properties  map[string]*jsonSchemaDoc `json:"properties,omitempty"`
	Items       *jsonSchemaDoc            `json:"items,omitempty"`
	Required    []string                  `json:"required,omitempty"`
}

// toGenaiSchema converts a JSON Schema document into the Gemini schema type.
func toGenaiSchema(raw []byte) (*genai.Schema, error) {
	var doc jsonSchemaDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON schema: %w", err)
	}
	return convertSchemaDoc(&doc), nil
}

func convertSchemaDoc(doc *jsonSchemaDoc) *genai.Schema {
	if doc == nil {
		return nil
	}

	schema := &genai.Schema{
		Format:      doc.Format,
		Description: doc.Description,
		Enum:        doc.Enum,
		Required:    doc.Required,
	}

	switch doc.Type {
	case "string":
		schema.Type = genai.TypeString
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "boolean":
		schema.Type = genai.TypeBoolean
	case "array":
		schema.Type = genai.TypeArray
		schema.Items = convertSchemaDoc(doc.Items)
	case "object":
		schema.Type = genai.TypeObject
		if len(doc.Properties) > 0 {
			schema.Properties = make(map[string]*genai.Schema, len(doc.Properties))
			for name, prop := range doc.Properties {
				schema.Properties[name] = convertSchemaDoc(prop)
			}
		}
	default:
		schema.Type = genai.TypeString
	}
	return schema
}
