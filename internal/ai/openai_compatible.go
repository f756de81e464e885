package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type ChatConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	Temperature     float64
	ReasoningEffort string
}

// OpenAICompatibleGateway speaks the /chat/completions protocol shared by
// OpenAI, DashScope, Ollama and friends.
type OpenAICompatibleGateway struct {
	client *openai.Client
	cfg    ChatConfig
}

func NewOpenAICompatibleGateway(cfg ChatConfig) *OpenAICompatibleGateway {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: 90 * time.Second}

	return &OpenAICompatibleGateway{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}
}

func (g *OpenAICompatibleGateway) Generate(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	chatMessages, err := toChatMessages(messages)
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model:    g.cfg.Model,
		Messages: chatMessages,
	}
	temperature := g.cfg.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	if temperature > 0 {
		req.Temperature = float32(temperature)
	}
	req.ReasoningEffort = g.cfg.ReasoningEffort
	if opts.ReasoningEffort != "" {
		req.ReasoningEffort = opts.ReasoningEffort
	}
	if len(opts.Tools) > 0 {
		req.Tools = toChatTools(opts.Tools)
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: llm request failed: %w", ErrGateway, err)
	}
	if len(resp.Choices) == 0 {
		return nil, gatewayError("empty llm choices")
	}

	msg := resp.Choices[0].Message
	out := &Response{Text: msg.Content}
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		args := map[string]any{}
		if strings.TrimSpace(call.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, gatewayError("parse tool call arguments failed: %v", err)
			}
		}
		out.ToolCall = &ToolCall{ID: call.ID, Name: call.Function.Name, Args: args}
	}
	return out, nil
}

func toChatMessages(messages []Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		var (
			parts     []openai.ChatMessagePart
			texts     []string
			toolCalls []openai.ToolCall
			onlyText  = true
		)
		for _, p := range m.Parts {
			switch {
			case p.ToolResult != nil:
				payload, err := json.Marshal(p.ToolResult.Response)
				if err != nil {
					return nil, gatewayError("marshal tool result failed: %v", err)
				}
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    string(payload),
					ToolCallID: p.ToolResult.ID,
				})
			case p.ToolCall != nil:
				args, err := json.Marshal(p.ToolCall.Args)
				if err != nil {
					return nil, gatewayError("marshal tool call failed: %v", err)
				}
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:   p.ToolCall.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      p.ToolCall.Name,
						Arguments: string(args),
					},
				})
			case len(p.Data) > 0:
				part := binaryPart(p)
				if part.Type == openai.ChatMessagePartTypeImageURL {
					onlyText = false
				} else {
					texts = append(texts, part.Text)
				}
				parts = append(parts, part)
			default:
				texts = append(texts, p.Text)
				parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text})
			}
		}

		if len(parts) == 0 && len(toolCalls) == 0 {
			continue
		}
		msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, ToolCalls: toolCalls}
		if m.Role == RoleModel {
			msg.Role = openai.ChatMessageRoleAssistant
		}
		switch {
		case len(parts) == 0:
		case onlyText:
			msg.Content = strings.Join(texts, "\n\n")
		default:
			msg.MultiContent = parts
		}
		out = append(out, msg)
	}
	return out, nil
}

// binaryPart sends images as data URLs. Chat completions has no generic
// file part, so textual payloads are inlined and anything else is described.
func binaryPart(p Part) openai.ChatMessagePart {
	switch {
	case strings.HasPrefix(p.MIMEType, "image/"):
		return openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data),
				Detail: openai.ImageURLDetailAuto,
			},
		}
	case isTextual(p.MIMEType):
		return openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: string(p.Data)}
	default:
		return openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: fmt.Sprintf("[attached %s file, %d bytes, not readable by this model endpoint]", p.MIMEType, len(p.Data)),
		}
	}
}

func isTextual(mimeType string) bool {
	switch {
	case strings.HasPrefix(mimeType, "text/"):
		return true
	case mimeType == "application/json", mimeType == "application/xml", mimeType == "application/x-ndjson":
		return true
	default:
		return false
	}
}

func toChatTools(tools []ToolDeclaration) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		properties := map[string]any{}
		required := []string{}
		for _, p := range tool.Parameters {
			properties[p.Name] = map[string]string{"type": p.Type, "description": p.Description}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return out
}
