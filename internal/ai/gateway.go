package ai

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrGateway        = errors.New("model gateway error")
	ErrGatewayTimeout = errors.New("model gateway timeout")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Part is one prompt segment. Exactly one of Text, Data, ToolCall or
// ToolResult is meaningful.
type Part struct {
	Text       string
	Data       []byte
	MIMEType   string
	ToolCall   *ToolCall
	ToolResult *ToolResult
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func BlobPart(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

type Message struct {
	Role  Role
	Parts []Part
}

func UserMessage(parts ...Part) Message {
	return Message{Role: RoleUser, Parts: parts}
}

type ToolParameter struct {
	Name        string
	Type        string // JSON schema primitive: "string", "integer", ...
	Description string
	Required    bool
}

type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

// ToolCall is a model request to run a declared tool. Signature is an opaque
// provider token that must travel back with the call on the follow-up turn.
type ToolCall struct {
	ID        string
	Name      string
	Args      map[string]any
	Signature []byte
}

func (c *ToolCall) StringArg(name string) string {
	if c == nil || c.Args == nil {
		return ""
	}
	if v, ok := c.Args[name].(string); ok {
		return v
	}
	return ""
}

type ToolResult struct {
	ID       string
	Name     string
	Response map[string]any
}

// Options tune a single call; zero values fall back to gateway defaults.
type Options struct {
	Tools           []ToolDeclaration
	Temperature     *float64
	ReasoningEffort string
}

// Response carries generated text and, when the model asked for one, the
// tool invocation it wants. The gateway never runs tools itself.
type Response struct {
	Text     string
	ToolCall *ToolCall
}

// Gateway is the single point of contact with the remote model. Calls are
// at-most-once; retries belong to callers.
type Gateway interface {
	Generate(ctx context.Context, messages []Message, opts Options) (*Response, error)
}

func gatewayError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGateway, fmt.Sprintf(format, args...))
}

func thinkingBudget(effort string) (int32, bool) {
	switch effort {
	case "none":
		return 0, true
	case "low":
		return 1024, true
	case "medium":
		return 8192, true
	case "high":
		return 24576, true
	default:
		return 0, false
	}
}
