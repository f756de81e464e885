package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float64
	ReasoningEffort string
	HTTPClient      *http.Client
}

// GeminiGateway talks to the Gemini API through the official SDK.
type GeminiGateway struct {
	client *genai.Client
	cfg    GeminiConfig
}

func NewGeminiGateway(ctx context.Context, cfg GeminiConfig) (*GeminiGateway, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	return &GeminiGateway{client: client, cfg: cfg}, nil
}

func (g *GeminiGateway) Generate(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		parts := make([]*genai.Part, 0, len(m.Parts))
		for _, p := range m.Parts {
			parts = append(parts, toGeminiPart(p))
		}
		contents = append(contents, genai.NewContentFromParts(parts, geminiRole(m.Role)))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, g.generateConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini generate failed: %w", ErrGateway, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		reason := ""
		if resp != nil && resp.PromptFeedback != nil {
			reason = string(resp.PromptFeedback.BlockReason)
		}
		return nil, gatewayError("gemini returned no candidates %s", reason)
	}

	out := &Response{}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil && out.ToolCall == nil {
			out.ToolCall = &ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Args:      part.FunctionCall.Args,
				Signature: part.ThoughtSignature,
			}
			continue
		}
		if part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}
	out.Text = text.String()
	return out, nil
}

func (g *GeminiGateway) generateConfig(opts Options) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	temperature := g.cfg.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	if temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(temperature))
	}

	effort := g.cfg.ReasoningEffort
	if opts.ReasoningEffort != "" {
		effort = opts.ReasoningEffort
	}
	if budget, ok := thinkingBudget(effort); ok {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(budget)}
	}

	if len(opts.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(opts.Tools))
		for _, tool := range opts.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  geminiSchema(tool.Parameters),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

func toGeminiPart(p Part) *genai.Part {
	switch {
	case p.ToolCall != nil:
		part := genai.NewPartFromFunctionCall(p.ToolCall.Name, p.ToolCall.Args)
		part.FunctionCall.ID = p.ToolCall.ID
		part.ThoughtSignature = p.ToolCall.Signature
		return part
	case p.ToolResult != nil:
		part := genai.NewPartFromFunctionResponse(p.ToolResult.Name, p.ToolResult.Response)
		part.FunctionResponse.ID = p.ToolResult.ID
		return part
	case len(p.Data) > 0:
		return genai.NewPartFromBytes(p.Data, p.MIMEType)
	default:
		return genai.NewPartFromText(p.Text)
	}
}

func geminiRole(role Role) genai.Role {
	if role == RoleModel {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func geminiSchema(params []ToolParameter) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(params)),
	}
	for _, p := range params {
		schema.Properties[p.Name] = &genai.Schema{
			Type:        genai.Type(strings.ToUpper(p.Type)),
			Description: p.Description,
		}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}
